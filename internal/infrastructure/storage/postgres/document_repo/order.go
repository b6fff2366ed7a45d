package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"onmuhasebe/internal/core/apperror"
	"onmuhasebe/internal/core/id"
	"onmuhasebe/internal/domain/order"
	"onmuhasebe/internal/infrastructure/storage/postgres"
)

const (
	ordersTable     = "doc_orders"
	orderLinesTable = "doc_order_lines"
)

var orderLineCols = []string{
	"line_id", "order_id", "product_id", "quantity",
	"unit_price", "tax_rate", "discount1", "discount2", "inclusive_total",
}

// OrderRepo implements order.Repository.
type OrderRepo struct {
	*BaseDocumentRepo[*order.Order]
}

var _ order.Repository = (*OrderRepo)(nil)

// NewOrderRepo creates a new order repository.
func NewOrderRepo(txm *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			ordersTable,
			postgres.ExtractDBColumns[order.Order](),
			func() *order.Order { return &order.Order{} },
		),
	}
}

// Create inserts the header and all lines.
func (r *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	if err := r.createHeader(ctx, o); err != nil {
		return err
	}
	return r.insertLines(ctx, o.ID, o.Lines)
}

// GetByID loads the header with its lines.
func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID) (*order.Order, error) {
	o, err := r.getHeaderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	o.Lines, err = r.getLines(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return o, nil
}

// Update replaces the header and all lines.
func (r *OrderRepo) Update(ctx context.Context, o *order.Order) error {
	if err := r.updateHeader(ctx, o); err != nil {
		return err
	}

	if err := r.deleteLines(ctx, o.ID); err != nil {
		return err
	}

	return r.insertLines(ctx, o.ID, o.Lines)
}

// Delete removes the lines, then the header.
func (r *OrderRepo) Delete(ctx context.Context, orderID id.ID) error {
	if err := r.deleteLines(ctx, orderID); err != nil {
		return err
	}
	return r.deleteHeader(ctx, orderID)
}

// SetInvoiced marks the order consumed by conversion and stores the
// invoice back-reference.
func (r *OrderRepo) SetInvoiced(ctx context.Context, orderID, invoiceID id.ID) error {
	q := r.Builder().
		Update(ordersTable).
		Set("invoiced", true).
		Set("invoice_id", invoiceID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": orderID}).
		Where(squirrel.Eq{"invoiced": false})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build set invoiced: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set invoiced: %w", err)
	}

	// Zero rows means the order is gone or was already converted.
	if result.RowsAffected() == 0 {
		return apperror.NewBusinessRule("ORDER_ALREADY_INVOICED", "order is already invoiced").
			WithDetail("orderId", orderID.String())
	}

	return nil
}

// List retrieves orders matching the filter, newest first, with lines.
func (r *OrderRepo) List(ctx context.Context, filter order.Filter) ([]*order.Order, error) {
	q := r.applyFilter(r.baseSelect(), filter).
		OrderBy("date DESC", "number DESC")

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

	var orders []*order.Order
	if err := pgxscan.Select(ctx, r.querier(ctx), &orders, sql, args...); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	for _, o := range orders {
		o.Lines, err = r.getLines(ctx, o.ID)
		if err != nil {
			return nil, err
		}
	}

	return orders, nil
}

// Count returns the number of orders matching the filter.
func (r *OrderRepo) Count(ctx context.Context, filter order.Filter) (int64, error) {
	q := r.applyFilter(r.Builder().Select("COUNT(*)").From(ordersTable), filter)

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var count int64
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}

	return count, nil
}

func (r *OrderRepo) applyFilter(q squirrel.SelectBuilder, filter order.Filter) squirrel.SelectBuilder {
	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": *filter.Kind})
	}
	if filter.PartyID != nil {
		q = q.Where(squirrel.Eq{"party_id": *filter.PartyID})
	}
	if filter.Invoiced != nil {
		q = q.Where(squirrel.Eq{"invoiced": *filter.Invoiced})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.ToDate})
	}
	return q
}

func (r *OrderRepo) getLines(ctx context.Context, orderID id.ID) ([]order.Line, error) {
	q := r.Builder().
		Select(orderLineCols...).
		From(orderLinesTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("line_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []order.Line
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

func (r *OrderRepo) insertLines(ctx context.Context, orderID id.ID, lines []order.Line) error {
	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(orderLinesTable).
		Columns(orderLineCols...)

	for _, line := range lines {
		q = q.Values(
			line.LineID, orderID, line.ProductID, line.Quantity,
			line.UnitPrice, line.TaxRate, line.Discount1, line.Discount2, line.InclusiveTotal,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}

	return nil
}

func (r *OrderRepo) deleteLines(ctx context.Context, orderID id.ID) error {
	sql := "DELETE FROM " + orderLinesTable + " WHERE order_id = $1"
	if _, err := r.querier(ctx).Exec(ctx, sql, orderID); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}
	return nil
}
