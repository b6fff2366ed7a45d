package order

import (
	"context"
	"time"

	"onmuhasebe/internal/core/id"
)

// Filter narrows order listings.
type Filter struct {
	Kind     *Kind
	PartyID  *id.ID
	Invoiced *bool
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}

// Repository persists order headers together with their lines.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, orderID id.ID) (*Order, error)
	Update(ctx context.Context, o *Order) error
	Delete(ctx context.Context, orderID id.ID) error

	// SetInvoiced marks the order consumed by conversion and stores the
	// invoice back-reference
	SetInvoiced(ctx context.Context, orderID, invoiceID id.ID) error

	List(ctx context.Context, filter Filter) ([]*Order, error)
	Count(ctx context.Context, filter Filter) (int64, error)
}
