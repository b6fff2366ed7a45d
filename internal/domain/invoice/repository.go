package invoice

import (
	"context"
	"time"

	"onmuhasebe/internal/core/id"
)

// Filter narrows invoice listings.
type Filter struct {
	Type     *Type
	PartyID  *id.ID
	FromDate *time.Time
	ToDate   *time.Time
	Search   string
	Limit    int
	Offset   int
}

// Repository persists invoice headers together with their lines.
// The header and its lines are always written and removed as one unit.
type Repository interface {
	// Create inserts the header and all lines
	Create(ctx context.Context, inv *Invoice) error

	// GetByID loads the header with its lines
	GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error)

	// GetByNumber loads by document number
	GetByNumber(ctx context.Context, number string) (*Invoice, error)

	// Update replaces the header and all lines, checking the version for
	// concurrent modification
	Update(ctx context.Context, inv *Invoice) error

	// Delete removes the lines, then the header
	Delete(ctx context.Context, invoiceID id.ID) error

	List(ctx context.Context, filter Filter) ([]*Invoice, error)
	Count(ctx context.Context, filter Filter) (int64, error)
}
