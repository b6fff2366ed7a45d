// Package product provides the Product catalog: stock items with their
// cached on-hand quantity and pricing.
package product

import (
	"context"

	"onmuhasebe/internal/core/apperror"
	"onmuhasebe/internal/core/entity"
	"onmuhasebe/internal/core/types"
	"onmuhasebe/internal/domain"
)

// Product represents a stock item.
type Product struct {
	entity.Catalog

	// Unit is the unit of measure for display (pcs, kg, m)
	Unit string `db:"unit" json:"unit,omitempty"`

	// Quantity is the cached on-hand quantity; the stock movement sum is
	// the source of truth. Negative on-hand is permitted (warned about
	// upstream, never blocked here).
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// MinQuantity is the minimum-stock warning threshold
	MinQuantity types.Quantity `db:"min_quantity" json:"minQuantity"`

	// Pricing
	CostPrice types.Money `db:"cost_price" json:"costPrice"`
	SalePrice types.Money `db:"sale_price" json:"salePrice"`

	// VATRate is the default tax rate for invoice lines (0-100)
	VATRate types.Percent `db:"vat_rate" json:"vatRate"`

	Barcode *string `db:"barcode" json:"barcode,omitempty"`
}

// New creates a new Product with required fields.
func New(code, name string) *Product {
	return &Product{
		Catalog: entity.NewCatalog(code, name),
		Unit:    "pcs",
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !types.ValidPercent(p.VATRate) {
		return apperror.NewValidation("vat rate must be between 0 and 100").
			WithDetail("field", "vatRate")
	}

	if p.CostPrice.IsNegative() || p.SalePrice.IsNegative() {
		return apperror.NewValidation("prices must not be negative").
			WithDetail("field", "costPrice")
	}

	return nil
}

// BelowMinimum reports whether on-hand quantity is under the threshold.
func (p *Product) BelowMinimum() bool {
	return !p.MinQuantity.IsZero() && p.Quantity.LessThan(p.MinQuantity)
}

// Repository defines CRUD operations for products.
type Repository = domain.CatalogRepository[*Product]

// Service provides business operations for the product catalog.
type Service = domain.CatalogService[*Product]
