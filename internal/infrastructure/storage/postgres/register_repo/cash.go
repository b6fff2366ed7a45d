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
	"onmuhasebe/internal/domain/registers/cash"
	"onmuhasebe/internal/infrastructure/storage/postgres"
)

const cashMovementsTable = "reg_cash_movements"

var cashMovementCols = []string{
	"line_id", "account_id", "date", "kind", "direction", "amount",
	"source_kind", "source_id", "description", "created_at",
}

// CashRepo implements cash.Repository.
type CashRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ cash.Repository = (*CashRepo)(nil)

// NewCashRepo creates a new cash ledger repository.
func NewCashRepo(txm *postgres.TxManager) *CashRepo {
	return &CashRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateMovement inserts a single movement row.
func (r *CashRepo) CreateMovement(ctx context.Context, m entity.CashMovement) error {
	q := r.builder.Insert(cashMovementsTable).
		Columns(cashMovementCols...).
		Values(
			m.LineID, m.AccountID, m.Date, m.Kind, m.Direction, m.Amount,
			m.SourceKind, m.SourceID, m.Description, m.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert cash movement: %w", err)
	}

	return nil
}

// GetMovement retrieves one movement by line id.
func (r *CashRepo) GetMovement(ctx context.Context, lineID id.ID) (entity.CashMovement, error) {
	var m entity.CashMovement

	q := r.builder.Select(cashMovementCols...).
		From(cashMovementsTable).
		Where(squirrel.Eq{"line_id": lineID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return m, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return m, apperror.NewNotFound("cash movement", lineID.String())
		}
		return m, fmt.Errorf("get cash movement: %w", err)
	}

	return m, nil
}

// DeleteMovement removes one movement row.
func (r *CashRepo) DeleteMovement(ctx context.Context, lineID id.ID) error {
	q := r.builder.Delete(cashMovementsTable).
		Where(squirrel.Eq{"line_id": lineID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete cash movement: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("cash movement", lineID.String())
	}

	return nil
}

// GetMovementsBySource retrieves all movements created by a source tuple.
func (r *CashRepo) GetMovementsBySource(ctx context.Context, src entity.SourceRef) ([]entity.CashMovement, error) {
	q := r.builder.Select(cashMovementCols...).
		From(cashMovementsTable).
		Where(squirrel.Eq{
			"source_kind": src.SourceKind,
			"source_id":   src.SourceID,
		}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.CashMovement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements by source: %w", err)
	}

	return movements, nil
}

// GetMovementsByAccount returns account history, newest first.
func (r *CashRepo) GetMovementsByAccount(ctx context.Context, accountID id.ID, filter cash.MovementFilter) ([]entity.CashMovement, error) {
	q := r.builder.Select(cashMovementCols...).
		From(cashMovementsTable).
		Where(squirrel.Eq{"account_id": accountID})

	if filter.Direction != "" {
		q = q.Where(squirrel.Eq{"direction": filter.Direction})
	}
	if filter.Kind != "" {
		q = q.Where(squirrel.Eq{"kind": filter.Kind})
	}
	if filter.SourceKind != "" {
		q = q.Where(squirrel.Eq{"source_kind": filter.SourceKind})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.ToDate})
	}

	q = q.OrderBy("date DESC", "created_at DESC")

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

	var movements []entity.CashMovement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements by account: %w", err)
	}

	return movements, nil
}

// SumSignedAmount returns sum(in) - sum(out) over all movements of the account.
func (r *CashRepo) SumSignedAmount(ctx context.Context, accountID id.ID) (types.Money, error) {
	sql := `
		SELECT COALESCE(
			SUM(CASE WHEN direction = 'in' THEN amount ELSE -amount END),
			0
		)
		FROM reg_cash_movements
		WHERE account_id = $1
	`

	var sum decimal.Decimal
	err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, accountID).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum signed amount: %w", err)
	}

	return sum, nil
}

// GetOpeningBalance returns the account's configured opening balance.
func (r *CashRepo) GetOpeningBalance(ctx context.Context, accountID id.ID) (types.Money, error) {
	sql := `SELECT opening_balance FROM cat_cash_accounts WHERE id = $1`

	var balance decimal.Decimal
	err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, accountID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, apperror.NewNotFound("cash account", accountID.String())
		}
		return decimal.Zero, fmt.Errorf("get opening balance: %w", err)
	}

	return balance, nil
}

// GetBalance returns the cached balance.
func (r *CashRepo) GetBalance(ctx context.Context, accountID id.ID) (types.Money, error) {
	sql := `SELECT balance FROM cat_cash_accounts WHERE id = $1`

	var balance decimal.Decimal
	err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, accountID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, apperror.NewNotFound("cash account", accountID.String())
		}
		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}

// SetBalance overwrites the cached balance on the account record.
func (r *CashRepo) SetBalance(ctx context.Context, accountID id.ID, balance types.Money) error {
	sql := `UPDATE cat_cash_accounts SET balance = $2 WHERE id = $1`

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, accountID, balance)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("cash account", accountID.String())
	}

	return nil
}
