// Package party provides the Party catalog: customers and suppliers,
// modeled symmetrically with a signed running balance.
package party

import (
	"context"
	"regexp"

	"onmuhasebe/internal/core/apperror"
	"onmuhasebe/internal/core/entity"
	"onmuhasebe/internal/core/types"
	"onmuhasebe/internal/domain"
)

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Party represents a customer or supplier.
type Party struct {
	entity.Catalog

	// Kind defines whether this is a customer or a supplier
	Kind entity.PartyKind `db:"kind" json:"kind"`

	// Contact fields
	Phone         *string `db:"phone" json:"phone,omitempty"`
	Email         *string `db:"email" json:"email,omitempty"`
	Address       *string `db:"address" json:"address,omitempty"`
	TaxNumber     *string `db:"tax_number" json:"taxNumber,omitempty"`
	ContactPerson *string `db:"contact_person" json:"contactPerson,omitempty"`

	// Balance is the cached running balance. It is a read optimization
	// recomputed from ledger entries after every mutation; the ledger
	// sum is the source of truth. Positive = party owes the business.
	Balance types.Money `db:"balance" json:"balance"`
}

// New creates a new Party with required fields.
func New(code, name string, kind entity.PartyKind) *Party {
	return &Party{
		Catalog: entity.NewCatalog(code, name),
		Kind:    kind,
	}
}

// Validate implements entity.Validatable interface.
func (p *Party) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	switch p.Kind {
	case entity.PartyCustomer, entity.PartySupplier:
	default:
		return apperror.NewValidation("invalid party kind").
			WithDetail("field", "kind").
			WithDetail("value", string(p.Kind))
	}

	if p.Email != nil && *p.Email != "" && !emailRE.MatchString(*p.Email) {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}

	return nil
}

// Repository defines CRUD operations for parties.
type Repository = domain.CatalogRepository[*Party]

// Service provides business operations for the party catalog.
type Service = domain.CatalogService[*Party]

// ListFilter for filtering parties.
type ListFilter struct {
	domain.ListFilter

	Kind *entity.PartyKind
}
