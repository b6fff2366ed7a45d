// Package stock provides the stock register service.
package stock

import (
	"context"
	"fmt"
	"time"

	"onmuhasebe/internal/core/apperror"
	"onmuhasebe/internal/core/entity"
	"onmuhasebe/internal/core/id"
	"onmuhasebe/internal/core/types"
	"onmuhasebe/pkg/logger"
)

// Service provides business operations for the stock register.
// Transactions are managed by the caller: the posting orchestrator or a
// manual-entry operation runs Append/Reverse inside its own transaction.
type Service struct {
	repo Repository
}

// NewService creates a new stock register service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// AppendInput describes one stock movement to record.
type AppendInput struct {
	ProductID id.ID
	Date      time.Time
	Kind      entity.StockMovementKind
	Direction entity.StockDirection
	Quantity  types.Quantity
	Source    entity.SourceRef
	Note      string
}

// Append records one movement: it snapshots the current quantity, applies
// the signed delta per direction, persists the movement and updates the
// product's cached quantity.
//
// A negative resulting quantity is NOT rejected here; shortage warnings are
// a caller concern.
func (s *Service) Append(ctx context.Context, in AppendInput) (entity.StockMovement, error) {
	if !in.Quantity.IsPositive() {
		return entity.StockMovement{}, apperror.NewValidation("movement quantity must be positive").
			WithDetail("product_id", in.ProductID.String())
	}
	if in.Direction != entity.StockIn && in.Direction != entity.StockOut {
		return entity.StockMovement{}, apperror.NewValidation("invalid stock direction").
			WithDetail("direction", string(in.Direction))
	}

	prev, err := s.repo.GetQuantityForUpdate(ctx, in.ProductID)
	if err != nil {
		return entity.StockMovement{}, fmt.Errorf("get quantity: %w", err)
	}

	movement := entity.StockMovement{
		LineID:       id.New(),
		ProductID:    in.ProductID,
		Date:         in.Date,
		Kind:         in.Kind,
		Direction:    in.Direction,
		Quantity:     in.Quantity,
		PrevQuantity: prev,
		SourceRef:    in.Source,
		Note:         in.Note,
		CreatedAt:    time.Now().UTC(),
	}
	movement.NextQuantity = prev.Add(movement.SignedQuantity())

	if err := s.repo.CreateMovement(ctx, movement); err != nil {
		return entity.StockMovement{}, fmt.Errorf("create movement: %w", err)
	}
	if err := s.repo.SetQuantity(ctx, in.ProductID, movement.NextQuantity); err != nil {
		return entity.StockMovement{}, fmt.Errorf("update quantity: %w", err)
	}

	logger.Debug(ctx, "stock movement appended",
		"product_id", in.ProductID,
		"direction", in.Direction,
		"quantity", in.Quantity,
		"next", movement.NextQuantity,
	)

	return movement, nil
}

// ReverseBySource undoes every movement created by the given source tuple:
// for each movement the numerically opposite adjustment is applied to the
// product quantity, then the row is deleted.
//
// Reversing a tuple with no movements is a no-op, which also makes a repeated
// reversal safe.
func (s *Service) ReverseBySource(ctx context.Context, src entity.SourceRef) error {
	movements, err := s.repo.GetMovementsBySource(ctx, src)
	if err != nil {
		return fmt.Errorf("load movements: %w", err)
	}
	if len(movements) == 0 {
		return nil
	}

	for _, m := range movements {
		qty, err := s.repo.GetQuantityForUpdate(ctx, m.ProductID)
		if err != nil {
			return fmt.Errorf("get quantity: %w", err)
		}
		if err := s.repo.SetQuantity(ctx, m.ProductID, qty.Sub(m.SignedQuantity())); err != nil {
			return fmt.Errorf("update quantity: %w", err)
		}
		if err := s.repo.DeleteMovement(ctx, m.LineID); err != nil {
			return fmt.Errorf("delete movement: %w", err)
		}
	}

	logger.Info(ctx, "reversed stock movements",
		"source_kind", src.SourceKind,
		"source_id", src.SourceID,
		"count", len(movements),
	)

	return nil
}

// CurrentQuantity returns the cached on-hand quantity for a product.
func (s *Service) CurrentQuantity(ctx context.Context, productID id.ID) (types.Quantity, error) {
	return s.repo.GetQuantity(ctx, productID)
}

// DeleteManual removes a single user-entered movement and rolls its quantity
// effect back. Rows created by an invoice must be removed by reversing the
// invoice instead.
func (s *Service) DeleteManual(ctx context.Context, lineID id.ID) error {
	m, err := s.repo.GetMovement(ctx, lineID)
	if err != nil {
		return err
	}

	if !m.SourceKind.UserDeletable() {
		return apperror.NewValidation("movement belongs to a document and cannot be deleted directly").
			WithDetail("line_id", lineID.String()).
			WithDetail("source_kind", string(m.SourceKind))
	}

	qty, err := s.repo.GetQuantityForUpdate(ctx, m.ProductID)
	if err != nil {
		return fmt.Errorf("get quantity: %w", err)
	}
	if err := s.repo.SetQuantity(ctx, m.ProductID, qty.Sub(m.SignedQuantity())); err != nil {
		return fmt.Errorf("update quantity: %w", err)
	}
	return s.repo.DeleteMovement(ctx, lineID)
}

// History returns movement history for a product.
func (s *Service) History(ctx context.Context, productID id.ID, filter MovementFilter) ([]entity.StockMovement, error) {
	return s.repo.GetMovementsByProduct(ctx, productID, filter)
}

// Reconcile recomputes the quantity from the movement history and reports
// drift against the cached value. Drift means a defect elsewhere; the cached
// value is repaired from the ledger sum.
func (s *Service) Reconcile(ctx context.Context, productID id.ID) (drift types.Quantity, err error) {
	sum, err := s.repo.SumSignedQuantity(ctx, productID)
	if err != nil {
		return types.Quantity{}, fmt.Errorf("sum movements: %w", err)
	}
	cached, err := s.repo.GetQuantityForUpdate(ctx, productID)
	if err != nil {
		return types.Quantity{}, fmt.Errorf("get quantity: %w", err)
	}

	drift = cached.Sub(sum)
	if !drift.IsZero() {
		logger.Warn(ctx, "stock balance drift repaired",
			"product_id", productID,
			"cached", cached,
			"ledger_sum", sum,
		)
		if err := s.repo.SetQuantity(ctx, productID, sum); err != nil {
			return drift, fmt.Errorf("repair quantity: %w", err)
		}
	}
	return drift, nil
}
