package cash

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

// Service provides business operations for the cash ledger.
// Transactions are managed by the caller.
type Service struct {
	repo Repository
}

// NewService creates a new cash ledger service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// AppendInput describes one cash movement.
type AppendInput struct {
	AccountID   id.ID
	Date        time.Time
	Kind        entity.CashMovementKind
	Direction   entity.CashDirection
	Amount      types.Money
	Source      entity.SourceRef
	Description string
}

// Append records one movement and refreshes the cached account balance.
// Balance = opening balance + sum of signed movements.
func (s *Service) Append(ctx context.Context, in AppendInput) (entity.CashMovement, error) {
	if !in.Amount.IsPositive() {
		return entity.CashMovement{}, apperror.NewValidation("movement amount must be positive").
			WithDetail("account_id", in.AccountID.String())
	}
	if in.Direction != entity.CashIn && in.Direction != entity.CashOut {
		return entity.CashMovement{}, apperror.NewValidation("invalid cash direction").
			WithDetail("direction", string(in.Direction))
	}

	movement := entity.CashMovement{
		LineID:      id.New(),
		AccountID:   in.AccountID,
		Date:        in.Date,
		Kind:        in.Kind,
		Direction:   in.Direction,
		Amount:      in.Amount,
		SourceRef:   in.Source,
		Description: in.Description,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.CreateMovement(ctx, movement); err != nil {
		return entity.CashMovement{}, fmt.Errorf("create movement: %w", err)
	}
	if err := s.refreshBalance(ctx, in.AccountID); err != nil {
		return entity.CashMovement{}, err
	}

	logger.Debug(ctx, "cash movement recorded",
		"account_id", in.AccountID,
		"direction", in.Direction,
		"amount", in.Amount,
	)

	return movement, nil
}

// ReverseBySource deletes every movement created by the given source tuple
// and refreshes the cached balances of all touched accounts.
//
// An unknown tuple is a no-op; repeating a reversal is safe.
func (s *Service) ReverseBySource(ctx context.Context, src entity.SourceRef) error {
	movements, err := s.repo.GetMovementsBySource(ctx, src)
	if err != nil {
		return fmt.Errorf("load movements: %w", err)
	}
	if len(movements) == 0 {
		return nil
	}

	touched := make(map[id.ID]struct{}, 1)
	for _, m := range movements {
		if err := s.repo.DeleteMovement(ctx, m.LineID); err != nil {
			return fmt.Errorf("delete movement: %w", err)
		}
		touched[m.AccountID] = struct{}{}
	}
	for accountID := range touched {
		if err := s.refreshBalance(ctx, accountID); err != nil {
			return err
		}
	}

	logger.Info(ctx, "reversed cash movements",
		"source_kind", src.SourceKind,
		"source_id", src.SourceID,
		"count", len(movements),
	)

	return nil
}

// CurrentBalance computes the account balance from the ledger: opening
// balance plus the sum of signed movements.
func (s *Service) CurrentBalance(ctx context.Context, accountID id.ID) (types.Money, error) {
	opening, err := s.repo.GetOpeningBalance(ctx, accountID)
	if err != nil {
		return types.Money{}, err
	}
	sum, err := s.repo.SumSignedAmount(ctx, accountID)
	if err != nil {
		return types.Money{}, err
	}
	return opening.Add(sum), nil
}

// DeleteManual removes a single user-entered movement. Invoice-sourced
// movements are deletable only via invoice deletion.
func (s *Service) DeleteManual(ctx context.Context, lineID id.ID) error {
	movement, err := s.repo.GetMovement(ctx, lineID)
	if err != nil {
		return err
	}

	if !movement.SourceKind.UserDeletable() {
		return apperror.NewValidation("movement belongs to a document and cannot be deleted directly").
			WithDetail("line_id", lineID.String()).
			WithDetail("source_kind", string(movement.SourceKind))
	}

	if err := s.repo.DeleteMovement(ctx, lineID); err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	return s.refreshBalance(ctx, movement.AccountID)
}

// History returns movements for an account filtered and ordered by date.
func (s *Service) History(ctx context.Context, accountID id.ID, filter MovementFilter) ([]entity.CashMovement, error) {
	return s.repo.GetMovementsByAccount(ctx, accountID, filter)
}

// Reconcile recomputes the cached balance from the ledger and reports drift.
func (s *Service) Reconcile(ctx context.Context, accountID id.ID) (drift types.Money, err error) {
	actual, err := s.CurrentBalance(ctx, accountID)
	if err != nil {
		return types.Money{}, err
	}
	cached, err := s.repo.GetBalance(ctx, accountID)
	if err != nil {
		return types.Money{}, fmt.Errorf("get balance: %w", err)
	}

	drift = cached.Sub(actual)
	if !drift.IsZero() {
		logger.Warn(ctx, "cash balance drift repaired",
			"account_id", accountID,
			"cached", cached,
			"ledger", actual,
		)
		if err := s.repo.SetBalance(ctx, accountID, actual); err != nil {
			return drift, fmt.Errorf("repair balance: %w", err)
		}
	}
	return drift, nil
}

func (s *Service) refreshBalance(ctx context.Context, accountID id.ID) error {
	opening, err := s.repo.GetOpeningBalance(ctx, accountID)
	if err != nil {
		return fmt.Errorf("get opening balance: %w", err)
	}
	sum, err := s.repo.SumSignedAmount(ctx, accountID)
	if err != nil {
		return fmt.Errorf("sum movements: %w", err)
	}
	if err := s.repo.SetBalance(ctx, accountID, opening.Add(sum)); err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}
