package register_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"onmuhasebe/internal/core/apperror"
	"onmuhasebe/internal/core/entity"
	"onmuhasebe/internal/core/id"
	"onmuhasebe/internal/core/types"
	"onmuhasebe/internal/domain/registers/party"
	"onmuhasebe/internal/infrastructure/storage/postgres"
)

const partyEntriesTable = "reg_party_entries"

var partyEntryCols = []string{
	"line_id", "party_id", "party_kind", "date", "direction", "amount",
	"source_kind", "source_id",
	"cash_account_id", "payment_method", "due_date",
	"description", "created_at",
}

// PartyRepo implements party.Repository.
type PartyRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ party.Repository = (*PartyRepo)(nil)

// NewPartyRepo creates a new party ledger repository.
func NewPartyRepo(txm *postgres.TxManager) *PartyRepo {
	return &PartyRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateEntry inserts a single ledger entry.
func (r *PartyRepo) CreateEntry(ctx context.Context, e entity.PartyEntry) error {
	q := r.builder.Insert(partyEntriesTable).
		Columns(partyEntryCols...).
		Values(
			e.LineID, e.PartyID, e.PartyKind, e.Date, e.Direction, e.Amount,
			e.SourceKind, e.SourceID,
			e.CashAccountID, e.PaymentMethod, e.DueDate,
			e.Description, e.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert party entry: %w", err)
	}

	return nil
}

// GetEntry retrieves one entry by line id.
func (r *PartyRepo) GetEntry(ctx context.Context, lineID id.ID) (entity.PartyEntry, error) {
	var e entity.PartyEntry

	q := r.builder.Select(partyEntryCols...).
		From(partyEntriesTable).
		Where(squirrel.Eq{"line_id": lineID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return e, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return e, apperror.NewNotFound("party entry", lineID.String())
		}
		return e, fmt.Errorf("get party entry: %w", err)
	}

	return e, nil
}

// DeleteEntry removes one entry row.
func (r *PartyRepo) DeleteEntry(ctx context.Context, lineID id.ID) error {
	q := r.builder.Delete(partyEntriesTable).
		Where(squirrel.Eq{"line_id": lineID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete party entry: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("party entry", lineID.String())
	}

	return nil
}

// GetEntriesBySource retrieves all entries created by a source tuple.
func (r *PartyRepo) GetEntriesBySource(ctx context.Context, src entity.SourceRef) ([]entity.PartyEntry, error) {
	q := r.builder.Select(partyEntryCols...).
		From(partyEntriesTable).
		Where(squirrel.Eq{
			"source_kind": src.SourceKind,
			"source_id":   src.SourceID,
		}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []entity.PartyEntry
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select entries by source: %w", err)
	}

	return entries, nil
}

// GetEntriesByParty returns the ledger for one party, date-ordered.
func (r *PartyRepo) GetEntriesByParty(ctx context.Context, partyID id.ID, filter party.EntryFilter) ([]entity.PartyEntry, error) {
	q := r.builder.Select(partyEntryCols...).
		From(partyEntriesTable).
		Where(squirrel.Eq{"party_id": partyID})

	if filter.Direction != nil {
		q = q.Where(squirrel.Eq{"direction": *filter.Direction})
	}
	if filter.SourceKind != nil {
		q = q.Where(squirrel.Eq{"source_kind": *filter.SourceKind})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.ToDate})
	}

	q = q.OrderBy("date ASC", "created_at ASC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []entity.PartyEntry
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select entries by party: %w", err)
	}

	return entries, nil
}

// SumNetBalance computes sum(credit) - sum(debit) over all entries.
func (r *PartyRepo) SumNetBalance(ctx context.Context, partyID id.ID) (types.Money, error) {
	sql := `
		SELECT COALESCE(
			SUM(CASE WHEN direction = 'credit' THEN amount ELSE -amount END),
			0
		)
		FROM reg_party_entries
		WHERE party_id = $1
	`

	var sum decimal.Decimal
	err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, partyID).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum net balance: %w", err)
	}

	return sum, nil
}

// SetBalance overwrites the cached balance on the party record.
func (r *PartyRepo) SetBalance(ctx context.Context, partyID id.ID, balance types.Money) error {
	sql := `UPDATE cat_parties SET balance = $2 WHERE id = $1`

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, partyID, balance)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("party", partyID.String())
	}

	return nil
}

// GetBalance returns the cached balance.
func (r *PartyRepo) GetBalance(ctx context.Context, partyID id.ID) (types.Money, error) {
	sql := `SELECT balance FROM cat_parties WHERE id = $1`

	var balance decimal.Decimal
	err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, partyID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, apperror.NewNotFound("party", partyID.String())
		}
		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}
