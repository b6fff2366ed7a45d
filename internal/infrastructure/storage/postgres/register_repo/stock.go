// Package register_repo provides PostgreSQL implementations for the three
// ledger registers. Movement rows live in reg_* tables; the cached totals
// live on the owning catalog rows and are updated in the same transaction.
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
	"onmuhasebe/internal/domain/registers/stock"
	"onmuhasebe/internal/infrastructure/storage/postgres"
)

const stockMovementsTable = "reg_stock_movements"

var stockMovementCols = []string{
	"line_id", "product_id", "date", "kind", "direction", "quantity",
	"prev_quantity", "next_quantity", "source_kind", "source_id",
	"note", "created_at",
}

// StockRepo implements stock.Repository.
type StockRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ stock.Repository = (*StockRepo)(nil)

// NewStockRepo creates a new stock register repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateMovement inserts a single movement row.
func (r *StockRepo) CreateMovement(ctx context.Context, m entity.StockMovement) error {
	q := r.builder.Insert(stockMovementsTable).
		Columns(stockMovementCols...).
		Values(
			m.LineID, m.ProductID, m.Date, m.Kind, m.Direction, m.Quantity,
			m.PrevQuantity, m.NextQuantity, m.SourceKind, m.SourceID,
			m.Note, m.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}

	return nil
}

// GetMovement retrieves one movement by line id.
func (r *StockRepo) GetMovement(ctx context.Context, lineID id.ID) (entity.StockMovement, error) {
	var m entity.StockMovement

	q := r.builder.Select(stockMovementCols...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"line_id": lineID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return m, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return m, apperror.NewNotFound("stock movement", lineID.String())
		}
		return m, fmt.Errorf("get stock movement: %w", err)
	}

	return m, nil
}

// DeleteMovement removes one movement row.
func (r *StockRepo) DeleteMovement(ctx context.Context, lineID id.ID) error {
	q := r.builder.Delete(stockMovementsTable).
		Where(squirrel.Eq{"line_id": lineID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete stock movement: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("stock movement", lineID.String())
	}

	return nil
}

// GetMovementsBySource retrieves all movements created by a source tuple.
func (r *StockRepo) GetMovementsBySource(ctx context.Context, src entity.SourceRef) ([]entity.StockMovement, error) {
	q := r.builder.Select(stockMovementCols...).
		From(stockMovementsTable).
		Where(squirrel.Eq{
			"source_kind": src.SourceKind,
			"source_id":   src.SourceID,
		}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.StockMovement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements by source: %w", err)
	}

	return movements, nil
}

// GetMovementsByProduct returns movement history for a product.
func (r *StockRepo) GetMovementsByProduct(ctx context.Context, productID id.ID, filter stock.MovementFilter) ([]entity.StockMovement, error) {
	q := r.builder.Select(stockMovementCols...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"product_id": productID})

	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": *filter.Kind})
	}
	if filter.Direction != nil {
		q = q.Where(squirrel.Eq{"direction": *filter.Direction})
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

	var movements []entity.StockMovement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movement history: %w", err)
	}

	return movements, nil
}

// GetQuantityForUpdate returns the cached on-hand quantity with a row lock.
func (r *StockRepo) GetQuantityForUpdate(ctx context.Context, productID id.ID) (types.Quantity, error) {
	sql := `SELECT quantity FROM cat_products WHERE id = $1 FOR UPDATE`

	var qty decimal.Decimal
	err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, productID).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, apperror.NewNotFound("product", productID.String())
		}
		return decimal.Zero, fmt.Errorf("get quantity for update: %w", err)
	}

	return qty, nil
}

// GetQuantity returns the cached on-hand quantity without locking.
func (r *StockRepo) GetQuantity(ctx context.Context, productID id.ID) (types.Quantity, error) {
	sql := `SELECT quantity FROM cat_products WHERE id = $1`

	var qty decimal.Decimal
	err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, productID).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, apperror.NewNotFound("product", productID.String())
		}
		return decimal.Zero, fmt.Errorf("get quantity: %w", err)
	}

	return qty, nil
}

// SetQuantity overwrites the cached on-hand quantity.
func (r *StockRepo) SetQuantity(ctx context.Context, productID id.ID, qty types.Quantity) error {
	sql := `UPDATE cat_products SET quantity = $2 WHERE id = $1`

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, productID, qty)
	if err != nil {
		return fmt.Errorf("set quantity: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID.String())
	}

	return nil
}

// SumSignedQuantity recomputes the on-hand quantity from the movement history.
func (r *StockRepo) SumSignedQuantity(ctx context.Context, productID id.ID) (types.Quantity, error) {
	sql := `
		SELECT COALESCE(
			SUM(CASE WHEN direction = 'in' THEN quantity ELSE -quantity END),
			0
		)
		FROM reg_stock_movements
		WHERE product_id = $1
	`

	var sum decimal.Decimal
	err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, productID).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum signed quantity: %w", err)
	}

	return sum, nil
}
