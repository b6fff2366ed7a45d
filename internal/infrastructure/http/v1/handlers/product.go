package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"onmuhasebe/internal/domain/catalogs/product"
	"onmuhasebe/internal/infrastructure/http/v1/dto"
	"onmuhasebe/internal/infrastructure/storage/postgres/catalog_repo"
)

// ProductHandler serves the product catalog plus the low-stock report.
type ProductHandler struct {
	*CatalogHandler[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]
	repo *catalog_repo.ProductRepo
}

// NewProductHandler wires the generic catalog handler for products.
func NewProductHandler(base *BaseHandler, service *product.Service, repo *catalog_repo.ProductRepo) *ProductHandler {
	config := CatalogHandlerConfig[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]{
		Service:    service,
		EntityName: "product",
		MapCreateDTO: func(req dto.CreateProductRequest) *product.Product {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateProductRequest, existing *product.Product) *product.Product {
			req.ApplyTo(existing)
			return existing
		},
	}

	return &ProductHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		repo:           repo,
	}
}

// ListBelowMinimum handles GET /products/below-minimum - products whose
// on-hand quantity dropped under their minimum.
func (h *ProductHandler) ListBelowMinimum(c *gin.Context) {
	items, err := h.repo.ListBelowMinimum(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}
