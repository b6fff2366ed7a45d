// Package cash provides the cash account ledger.
package cash

import (
	"context"
	"time"

	"onmuhasebe/internal/core/entity"
	"onmuhasebe/internal/core/id"
	"onmuhasebe/internal/core/types"
)

// MovementFilter narrows account history queries.
type MovementFilter struct {
	Direction  entity.CashDirection
	Kind       entity.CashMovementKind
	SourceKind entity.SourceKind
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}

// Repository persists cash movements and the cached account balance.
type Repository interface {
	CreateMovement(ctx context.Context, m entity.CashMovement) error
	GetMovement(ctx context.Context, lineID id.ID) (entity.CashMovement, error)
	DeleteMovement(ctx context.Context, lineID id.ID) error

	GetMovementsBySource(ctx context.Context, src entity.SourceRef) ([]entity.CashMovement, error)
	GetMovementsByAccount(ctx context.Context, accountID id.ID, filter MovementFilter) ([]entity.CashMovement, error)

	// SumSignedAmount returns sum(in) - sum(out) over all movements of the
	// account, without the opening balance.
	SumSignedAmount(ctx context.Context, accountID id.ID) (types.Money, error)

	GetOpeningBalance(ctx context.Context, accountID id.ID) (types.Money, error)
	GetBalance(ctx context.Context, accountID id.ID) (types.Money, error)
	SetBalance(ctx context.Context, accountID id.ID, balance types.Money) error
}
