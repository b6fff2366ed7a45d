// Package cashaccount provides the CashAccount catalog: cash boxes and
// bank accounts tracked with their own movement ledger.
package cashaccount

import (
	"context"

	"onmuhasebe/internal/core/apperror"
	"onmuhasebe/internal/core/entity"
	"onmuhasebe/internal/core/types"
	"onmuhasebe/internal/domain"
)

// Kind defines the type of cash account.
type Kind string

const (
	KindCash Kind = "cash"
	KindBank Kind = "bank"
)

// CashAccount represents a cash box or a bank account.
type CashAccount struct {
	entity.Catalog

	Kind Kind `db:"kind" json:"kind"`

	// Currency is an ISO code for display (single-currency bookkeeping;
	// no conversion is performed)
	Currency string `db:"currency" json:"currency"`

	// OpeningBalance is the balance before any recorded movement
	OpeningBalance types.Money `db:"opening_balance" json:"openingBalance"`

	// Balance is the cached balance: opening + sum of signed movements.
	// Recomputed after every ledger mutation; never the source of truth.
	Balance types.Money `db:"balance" json:"balance"`

	// Bank fields (kind=bank only)
	BankName *string `db:"bank_name" json:"bankName,omitempty"`
	IBAN     *string `db:"iban" json:"iban,omitempty"`
}

// New creates a new CashAccount with required fields.
func New(code, name string, kind Kind) *CashAccount {
	return &CashAccount{
		Catalog:  entity.NewCatalog(code, name),
		Kind:     kind,
		Currency: "TRY",
	}
}

// Validate implements entity.Validatable interface.
func (a *CashAccount) Validate(ctx context.Context) error {
	if err := a.Catalog.Validate(ctx); err != nil {
		return err
	}

	switch a.Kind {
	case KindCash, KindBank:
	default:
		return apperror.NewValidation("invalid cash account kind").
			WithDetail("field", "kind").
			WithDetail("value", string(a.Kind))
	}

	if a.Currency == "" {
		return apperror.NewValidation("currency is required").
			WithDetail("field", "currency")
	}

	return nil
}

// Repository defines CRUD operations for cash accounts.
type Repository = domain.CatalogRepository[*CashAccount]

// Service provides business operations for the cash account catalog.
type Service = domain.CatalogService[*CashAccount]
