// Package party provides the party ledger service.
package party

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

// Service provides business operations for the party ledger.
// Transactions are managed by the caller.
type Service struct {
	repo Repository
}

// NewService creates a new party ledger service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// PostInput describes one ledger posting.
type PostInput struct {
	PartyID   id.ID
	PartyKind entity.PartyKind
	Date      time.Time
	Direction entity.EntryDirection
	Amount    types.Money
	Source    entity.SourceRef

	// Optional payment context
	CashAccountID *id.ID
	PaymentMethod string
	DueDate       *time.Time
	Description   string
}

// Post records one entry against the party's balance and refreshes the
// cached balance from the ledger sum.
func (s *Service) Post(ctx context.Context, in PostInput) (entity.PartyEntry, error) {
	if in.Amount.IsNegative() {
		return entity.PartyEntry{}, apperror.NewValidation("ledger amount must not be negative").
			WithDetail("party_id", in.PartyID.String())
	}
	if in.Direction != entity.EntryDebit && in.Direction != entity.EntryCredit {
		return entity.PartyEntry{}, apperror.NewValidation("invalid entry direction").
			WithDetail("direction", string(in.Direction))
	}

	entry := entity.PartyEntry{
		LineID:        id.New(),
		PartyID:       in.PartyID,
		PartyKind:     in.PartyKind,
		Date:          in.Date,
		Direction:     in.Direction,
		Amount:        in.Amount,
		SourceRef:     in.Source,
		CashAccountID: in.CashAccountID,
		PaymentMethod: in.PaymentMethod,
		DueDate:       in.DueDate,
		Description:   in.Description,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		return entity.PartyEntry{}, fmt.Errorf("create entry: %w", err)
	}
	if err := s.refreshBalance(ctx, in.PartyID); err != nil {
		return entity.PartyEntry{}, err
	}

	logger.Debug(ctx, "party ledger entry posted",
		"party_id", in.PartyID,
		"direction", in.Direction,
		"amount", in.Amount,
	)

	return entry, nil
}

// ReverseBySource deletes every entry created by the given source tuple and
// refreshes the cached balances of all touched parties. The balance is
// derived, so deletion is the whole rollback.
//
// An unknown tuple is a no-op; repeating a reversal is safe.
func (s *Service) ReverseBySource(ctx context.Context, src entity.SourceRef) error {
	entries, err := s.repo.GetEntriesBySource(ctx, src)
	if err != nil {
		return fmt.Errorf("load entries: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	touched := make(map[id.ID]struct{}, 1)
	for _, e := range entries {
		if err := s.repo.DeleteEntry(ctx, e.LineID); err != nil {
			return fmt.Errorf("delete entry: %w", err)
		}
		touched[e.PartyID] = struct{}{}
	}
	for partyID := range touched {
		if err := s.refreshBalance(ctx, partyID); err != nil {
			return err
		}
	}

	logger.Info(ctx, "reversed party ledger entries",
		"source_kind", src.SourceKind,
		"source_id", src.SourceID,
		"count", len(entries),
	)

	return nil
}

// NetBalance computes sum(credit) - sum(debit) for a party, straight from
// the ledger (never from the cache). Positive = party owes the business.
func (s *Service) NetBalance(ctx context.Context, partyID id.ID) (types.Money, error) {
	return s.repo.SumNetBalance(ctx, partyID)
}

// EntriesBySource returns the entries stamped with the source tuple, so a
// document reversal can cross-check them before deleting anything.
func (s *Service) EntriesBySource(ctx context.Context, src entity.SourceRef) ([]entity.PartyEntry, error) {
	return s.repo.GetEntriesBySource(ctx, src)
}

// DeleteEntry removes a single user-entered entry. Invoice-sourced entries
// are deletable only via invoice deletion.
func (s *Service) DeleteEntry(ctx context.Context, lineID id.ID) error {
	entry, err := s.repo.GetEntry(ctx, lineID)
	if err != nil {
		return err
	}

	if !entry.SourceKind.UserDeletable() {
		return apperror.NewValidation("entry belongs to a document and cannot be deleted directly").
			WithDetail("line_id", lineID.String()).
			WithDetail("source_kind", string(entry.SourceKind))
	}

	if err := s.repo.DeleteEntry(ctx, lineID); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return s.refreshBalance(ctx, entry.PartyID)
}

// StatementLine is one ledger entry with the running balance after it.
type StatementLine struct {
	Entry   entity.PartyEntry `json:"entry"`
	Running types.Money       `json:"runningBalance"`
}

// Statement returns the date-ordered ledger for a party with running
// balances.
func (s *Service) Statement(ctx context.Context, partyID id.ID, filter EntryFilter) ([]StatementLine, error) {
	entries, err := s.repo.GetEntriesByParty(ctx, partyID, filter)
	if err != nil {
		return nil, err
	}

	lines := make([]StatementLine, 0, len(entries))
	running := types.Zero()
	for _, e := range entries {
		running = running.Add(e.SignedAmount())
		lines = append(lines, StatementLine{Entry: e, Running: running})
	}
	return lines, nil
}

// Reconcile recomputes the cached balance from the ledger sum and reports
// drift.
func (s *Service) Reconcile(ctx context.Context, partyID id.ID) (drift types.Money, err error) {
	sum, err := s.repo.SumNetBalance(ctx, partyID)
	if err != nil {
		return types.Money{}, fmt.Errorf("sum entries: %w", err)
	}
	cached, err := s.repo.GetBalance(ctx, partyID)
	if err != nil {
		return types.Money{}, fmt.Errorf("get balance: %w", err)
	}

	drift = cached.Sub(sum)
	if !drift.IsZero() {
		logger.Warn(ctx, "party balance drift repaired",
			"party_id", partyID,
			"cached", cached,
			"ledger_sum", sum,
		)
		if err := s.repo.SetBalance(ctx, partyID, sum); err != nil {
			return drift, fmt.Errorf("repair balance: %w", err)
		}
	}
	return drift, nil
}

// refreshBalance recomputes the cached balance from the ledger sum.
// Runs inside the caller's transaction, so cache and ledger commit together.
func (s *Service) refreshBalance(ctx context.Context, partyID id.ID) error {
	sum, err := s.repo.SumNetBalance(ctx, partyID)
	if err != nil {
		return fmt.Errorf("sum entries: %w", err)
	}
	if err := s.repo.SetBalance(ctx, partyID, sum); err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}
