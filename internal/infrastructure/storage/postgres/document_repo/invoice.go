package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"onmuhasebe/internal/core/id"
	"onmuhasebe/internal/domain/invoice"
	"onmuhasebe/internal/infrastructure/storage/postgres"
)

const (
	invoicesTable     = "doc_invoices"
	invoiceLinesTable = "doc_invoice_lines"
)

var invoiceLineCols = []string{
	"line_id", "invoice_id", "product_id", "quantity",
	"unit_price", "tax_rate", "discount1", "discount2", "cost_price",
	"unit_exclusive", "unit_inclusive", "exclusive_total", "inclusive_total", "tax",
}

// InvoiceRepo implements invoice.Repository. Header and lines are always
// written together; callers are expected to hold a transaction.
type InvoiceRepo struct {
	*BaseDocumentRepo[*invoice.Invoice]
}

var _ invoice.Repository = (*InvoiceRepo)(nil)

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txm *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			invoicesTable,
			postgres.ExtractDBColumns[invoice.Invoice](),
			func() *invoice.Invoice { return &invoice.Invoice{} },
		),
	}
}

// Create inserts the header and all lines.
func (r *InvoiceRepo) Create(ctx context.Context, inv *invoice.Invoice) error {
	if err := r.createHeader(ctx, inv); err != nil {
		return err
	}
	return r.insertLines(ctx, inv.ID, inv.Lines)
}

// GetByID loads the header with its lines.
func (r *InvoiceRepo) GetByID(ctx context.Context, invoiceID id.ID) (*invoice.Invoice, error) {
	inv, err := r.getHeaderByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	inv.Lines, err = r.getLines(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	return inv, nil
}

// GetByNumber loads by document number.
func (r *InvoiceRepo) GetByNumber(ctx context.Context, number string) (*invoice.Invoice, error) {
	inv, err := r.getHeaderByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	inv.Lines, err = r.getLines(ctx, inv.ID)
	if err != nil {
		return nil, err
	}

	return inv, nil
}

// Update replaces the header and all lines.
func (r *InvoiceRepo) Update(ctx context.Context, inv *invoice.Invoice) error {
	if err := r.updateHeader(ctx, inv); err != nil {
		return err
	}

	if err := r.deleteLines(ctx, inv.ID); err != nil {
		return err
	}

	return r.insertLines(ctx, inv.ID, inv.Lines)
}

// Delete removes the lines, then the header.
func (r *InvoiceRepo) Delete(ctx context.Context, invoiceID id.ID) error {
	if err := r.deleteLines(ctx, invoiceID); err != nil {
		return err
	}
	return r.deleteHeader(ctx, invoiceID)
}

// List retrieves invoices matching the filter, newest first, with lines.
func (r *InvoiceRepo) List(ctx context.Context, filter invoice.Filter) ([]*invoice.Invoice, error) {
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

	var invoices []*invoice.Invoice
	if err := pgxscan.Select(ctx, r.querier(ctx), &invoices, sql, args...); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}

	for _, inv := range invoices {
		inv.Lines, err = r.getLines(ctx, inv.ID)
		if err != nil {
			return nil, err
		}
	}

	return invoices, nil
}

// Count returns the number of invoices matching the filter.
func (r *InvoiceRepo) Count(ctx context.Context, filter invoice.Filter) (int64, error) {
	q := r.applyFilter(r.Builder().Select("COUNT(*)").From(invoicesTable), filter)

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var count int64
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count invoices: %w", err)
	}

	return count, nil
}

func (r *InvoiceRepo) applyFilter(q squirrel.SelectBuilder, filter invoice.Filter) squirrel.SelectBuilder {
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
	}
	if filter.PartyID != nil {
		q = q.Where(squirrel.Eq{"party_id": *filter.PartyID})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.ToDate})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"notes": pattern},
		})
	}
	return q
}

func (r *InvoiceRepo) getLines(ctx context.Context, invoiceID id.ID) ([]invoice.Line, error) {
	q := r.Builder().
		Select(invoiceLineCols...).
		From(invoiceLinesTable).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		OrderBy("line_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []invoice.Line
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

func (r *InvoiceRepo) insertLines(ctx context.Context, invoiceID id.ID, lines []invoice.Line) error {
	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(invoiceLinesTable).
		Columns(invoiceLineCols...)

	for _, line := range lines {
		q = q.Values(
			line.LineID, invoiceID, line.ProductID, line.Quantity,
			line.UnitPrice, line.TaxRate, line.Discount1, line.Discount2, line.CostPrice,
			line.UnitExclusive, line.UnitInclusive, line.ExclusiveTotal, line.InclusiveTotal, line.Tax,
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

func (r *InvoiceRepo) deleteLines(ctx context.Context, invoiceID id.ID) error {
	sql := "DELETE FROM " + invoiceLinesTable + " WHERE invoice_id = $1"
	if _, err := r.querier(ctx).Exec(ctx, sql, invoiceID); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}
	return nil
}
