// Package stock provides the stock movement register: the append-only
// history of every change to a product's on-hand quantity.
package stock

import (
	"context"
	"time"

	"onmuhasebe/internal/core/entity"
	"onmuhasebe/internal/core/id"
	"onmuhasebe/internal/core/types"
)

// Repository defines persistence operations for the stock register.
// Balance mutations and movement writes are expected to run inside the
// caller's transaction.
type Repository interface {
	// Movement operations

	// CreateMovement inserts a single movement row
	CreateMovement(ctx context.Context, m entity.StockMovement) error

	// GetMovement retrieves one movement by line id
	GetMovement(ctx context.Context, lineID id.ID) (entity.StockMovement, error)

	// DeleteMovement removes one movement row
	DeleteMovement(ctx context.Context, lineID id.ID) error

	// GetMovementsBySource retrieves all movements created by a source tuple
	GetMovementsBySource(ctx context.Context, src entity.SourceRef) ([]entity.StockMovement, error)

	// GetMovementsByProduct returns movement history for a product
	GetMovementsByProduct(ctx context.Context, productID id.ID, filter MovementFilter) ([]entity.StockMovement, error)

	// Quantity operations on the owning product row

	// GetQuantityForUpdate returns the cached on-hand quantity with a row
	// lock, serializing concurrent read-modify-write cycles
	GetQuantityForUpdate(ctx context.Context, productID id.ID) (types.Quantity, error)

	// GetQuantity returns the cached on-hand quantity without locking
	GetQuantity(ctx context.Context, productID id.ID) (types.Quantity, error)

	// SetQuantity overwrites the cached on-hand quantity
	SetQuantity(ctx context.Context, productID id.ID, qty types.Quantity) error

	// SumSignedQuantity recomputes the quantity from the movement history
	// (reconciliation; must equal the cached value)
	SumSignedQuantity(ctx context.Context, productID id.ID) (types.Quantity, error)
}

// MovementFilter for filtering movement history.
type MovementFilter struct {
	Kind      *entity.StockMovementKind
	Direction *entity.StockDirection
	FromDate  *time.Time
	ToDate    *time.Time
	Limit     int
	Offset    int
}
