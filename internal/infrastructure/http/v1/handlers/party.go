package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"onmuhasebe/internal/core/apperror"
	"onmuhasebe/internal/core/entity"
	"onmuhasebe/internal/domain/catalogs/party"
	"onmuhasebe/internal/infrastructure/http/v1/dto"
	"onmuhasebe/internal/infrastructure/storage/postgres/catalog_repo"
)

// PartyHandler serves the party catalog plus kind-scoped listings.
type PartyHandler struct {
	*CatalogHandler[*party.Party, dto.CreatePartyRequest, dto.UpdatePartyRequest]
	repo *catalog_repo.PartyRepo
}

// NewPartyHandler wires the generic catalog handler for parties.
func NewPartyHandler(base *BaseHandler, service *party.Service, repo *catalog_repo.PartyRepo) *PartyHandler {
	config := CatalogHandlerConfig[*party.Party, dto.CreatePartyRequest, dto.UpdatePartyRequest]{
		Service:    service,
		EntityName: "party",
		MapCreateDTO: func(req dto.CreatePartyRequest) *party.Party {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdatePartyRequest, existing *party.Party) *party.Party {
			req.ApplyTo(existing)
			return existing
		},
	}

	return &PartyHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		repo:           repo,
	}
}

// ListByKind handles GET /parties/by-kind/:kind - customers or suppliers only.
func (h *PartyHandler) ListByKind(c *gin.Context) {
	ctx := c.Request.Context()

	kind := entity.PartyKind(c.Param("kind"))
	switch kind {
	case entity.PartyCustomer, entity.PartySupplier:
	default:
		h.Error(c, apperror.NewValidation("invalid party kind").WithDetail("value", string(kind)))
		return
	}

	filter := h.ParseListFilter(c)

	result, err := h.repo.ListByKind(ctx, kind, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      result.Items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}
