package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"onmuhasebe/internal/core/apperror"
	"onmuhasebe/internal/core/entity"
	"onmuhasebe/internal/core/id"
	"onmuhasebe/internal/core/numerator"
	"onmuhasebe/internal/core/tx"
	"onmuhasebe/internal/core/types"
	"onmuhasebe/internal/domain/arith"
	cashacccat "onmuhasebe/internal/domain/catalogs/cashaccount"
	partycat "onmuhasebe/internal/domain/catalogs/party"
	productcat "onmuhasebe/internal/domain/catalogs/product"
	cashledger "onmuhasebe/internal/domain/registers/cash"
	partyledger "onmuhasebe/internal/domain/registers/party"
	stockledger "onmuhasebe/internal/domain/registers/stock"
	"onmuhasebe/pkg/logger"
)

// AuditAction classifies an audited invoice operation.
type AuditAction string

const (
	AuditCreate  AuditAction = "create"
	AuditUpdate  AuditAction = "update"
	AuditDelete  AuditAction = "delete"
	AuditConvert AuditAction = "convert"
)

// Auditor records invoice operations for the audit trail. A nil Auditor
// disables auditing.
type Auditor interface {
	Record(ctx context.Context, action AuditAction, invoiceID id.ID, payload any) error
}

// OrderKind selects the invoice type an order converts to.
type OrderKind string

const (
	OrderSale     OrderKind = "sale"
	OrderPurchase OrderKind = "purchase"
)

// ConvertibleOrder is the slice of an order the conversion needs.
type ConvertibleOrder struct {
	OrderID  id.ID
	Kind     OrderKind
	PartyID  id.ID
	Notes    string
	Invoiced bool
	Lines    []LineIntent
}

// OrderSource loads orders for conversion and marks them consumed.
// The order package implements it; the indirection keeps the dependency
// pointing from orders to invoices, not both ways.
type OrderSource interface {
	LoadForConversion(ctx context.Context, orderID id.ID) (ConvertibleOrder, error)
	MarkInvoiced(ctx context.Context, orderID, invoiceID id.ID) error
}

// LineIntent is the caller-supplied shape of one line.
type LineIntent struct {
	ProductID id.ID          `json:"productId"`
	Quantity  types.Quantity `json:"quantity"`
	UnitPrice types.Money    `json:"unitPrice"`
	TaxRate   types.Percent  `json:"taxRate"`
	Discount1 types.Percent  `json:"discount1"`
	Discount2 types.Percent  `json:"discount2"`
}

// Intent is the caller-supplied shape of an invoice operation.
type Intent struct {
	Type              Type               `json:"type"`
	Date              time.Time          `json:"date"`
	PartyID           *id.ID             `json:"partyId,omitempty"`
	PaymentMethod     PaymentMethod      `json:"paymentMethod"`
	CashAccountID     *id.ID             `json:"cashAccountId,omitempty"`
	DueDate           *time.Time         `json:"dueDate,omitempty"`
	DiscountKind      arith.DiscountKind `json:"discountKind"`
	DiscountValue     decimal.Decimal    `json:"discountValue"`
	OriginalInvoiceID *id.ID             `json:"originalInvoiceId,omitempty"`
	Notes             string             `json:"notes,omitempty"`
	Lines             []LineIntent       `json:"lines"`
}

// Service is the posting orchestrator. Every operation validates first,
// then runs all persistence and ledger writes inside a single transaction:
// either every posting commits, or none do.
type Service struct {
	txManager tx.Manager
	invoices  Repository

	parties  partycat.Repository
	products productcat.Repository
	accounts cashacccat.Repository

	stock       *stockledger.Service
	partyLedger *partyledger.Service
	cashLedger  *cashledger.Service

	numbers numerator.Generator
	auditor Auditor
	orders  OrderSource
}

// NewService creates the posting orchestrator.
func NewService(
	txManager tx.Manager,
	invoices Repository,
	parties partycat.Repository,
	products productcat.Repository,
	accounts cashacccat.Repository,
	stock *stockledger.Service,
	partyLedger *partyledger.Service,
	cashLedger *cashledger.Service,
	numbers numerator.Generator,
) *Service {
	return &Service{
		txManager:   txManager,
		invoices:    invoices,
		parties:     parties,
		products:    products,
		accounts:    accounts,
		stock:       stock,
		partyLedger: partyLedger,
		cashLedger:  cashLedger,
		numbers:     numbers,
	}
}

// WithAuditor attaches an audit trail recorder.
func (s *Service) WithAuditor(a Auditor) *Service {
	s.auditor = a
	return s
}

// WithOrderSource attaches the order gateway used by ConvertOrderToInvoice.
func (s *Service) WithOrderSource(o OrderSource) *Service {
	s.orders = o
	return s
}

// Create validates the intent, computes totals, assigns a document number
// and applies the invoice with all its ledger postings atomically.
func (s *Service) Create(ctx context.Context, intent Intent) (*Invoice, error) {
	inv := buildInvoice(intent)

	refs, err := s.resolveRefs(ctx, inv)
	if err != nil {
		return nil, err
	}
	inv.ComputeTotals()

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.nextNumber(ctx, inv)
		if err != nil {
			return err
		}
		inv.Number = number

		if err := s.invoices.Create(ctx, inv); err != nil {
			return fmt.Errorf("persist invoice: %w", err)
		}
		if err := s.post(ctx, inv, refs); err != nil {
			return err
		}
		return s.audit(ctx, AuditCreate, inv)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice created",
		"invoice_id", inv.ID,
		"number", inv.Number,
		"type", inv.Type,
		"total", inv.TotalInclusive,
	)
	return inv, nil
}

// Update replaces the invoice with the new intent. At the ledger level it
// is delete-then-recreate: every posting of the old version is reversed,
// then the new version is posted, all in one transaction. The invoice id
// and document number are preserved.
func (s *Service) Update(ctx context.Context, invoiceID id.ID, intent Intent) (*Invoice, error) {
	inv := buildInvoice(intent)

	refs, err := s.resolveRefs(ctx, inv)
	if err != nil {
		return nil, err
	}
	inv.ComputeTotals()

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.invoices.GetByID(ctx, invoiceID)
		if err != nil {
			return err
		}

		if err := s.reverse(ctx, existing); err != nil {
			return err
		}

		inv.BaseDocument = existing.BaseDocument
		inv.Number = existing.Number
		inv.Touch()
		for i := range inv.Lines {
			inv.Lines[i].InvoiceID = inv.ID
		}

		if err := s.invoices.Update(ctx, inv); err != nil {
			return fmt.Errorf("persist invoice: %w", err)
		}
		if err := s.post(ctx, inv, refs); err != nil {
			return err
		}
		return s.audit(ctx, AuditUpdate, inv)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice updated",
		"invoice_id", inv.ID,
		"number", inv.Number,
		"total", inv.TotalInclusive,
	)
	return inv, nil
}

// Delete reverses every ledger posting of the invoice, then removes its
// lines and header, atomically. Afterwards all three ledgers are exactly
// as they were before the invoice was created.
func (s *Service) Delete(ctx context.Context, invoiceID id.ID) error {
	var number string
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.invoices.GetByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		number = inv.Number

		if err := s.reverse(ctx, inv); err != nil {
			return err
		}
		if err := s.invoices.Delete(ctx, invoiceID); err != nil {
			return fmt.Errorf("delete invoice: %w", err)
		}
		return s.audit(ctx, AuditDelete, inv)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "invoice deleted", "invoice_id", invoiceID, "number", number)
	return nil
}

// ConvertOrderToInvoice synthesizes a Sale or Purchase invoice from the
// order's lines and party, runs the standard create path, and marks the
// order invoiced with a back-reference. The order itself never posts to
// any ledger; only the resulting invoice does.
func (s *Service) ConvertOrderToInvoice(
	ctx context.Context,
	orderID id.ID,
	paymentMethod PaymentMethod,
	cashAccountID *id.ID,
	dueDate *time.Time,
) (*Invoice, error) {
	if s.orders == nil {
		return nil, apperror.NewInternal(errors.New("order conversion is not configured"))
	}

	ord, err := s.orders.LoadForConversion(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord.Invoiced {
		return nil, apperror.NewBusinessRule("ORDER_ALREADY_INVOICED", "order is already invoiced").
			WithDetail("order_id", orderID.String())
	}

	invType := TypeSale
	if ord.Kind == OrderPurchase {
		invType = TypePurchase
	}

	partyID := ord.PartyID
	inv := buildInvoice(Intent{
		Type:          invType,
		Date:          time.Now().UTC(),
		PartyID:       &partyID,
		PaymentMethod: paymentMethod,
		CashAccountID: cashAccountID,
		DueDate:       dueDate,
		DiscountKind:  arith.DiscountNone,
		Notes:         ord.Notes,
		Lines:         ord.Lines,
	})

	refs, err := s.resolveRefs(ctx, inv)
	if err != nil {
		return nil, err
	}
	inv.ComputeTotals()

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.nextNumber(ctx, inv)
		if err != nil {
			return err
		}
		inv.Number = number

		if err := s.invoices.Create(ctx, inv); err != nil {
			return fmt.Errorf("persist invoice: %w", err)
		}
		if err := s.post(ctx, inv, refs); err != nil {
			return err
		}
		if err := s.orders.MarkInvoiced(ctx, orderID, inv.ID); err != nil {
			return fmt.Errorf("mark order invoiced: %w", err)
		}
		return s.audit(ctx, AuditConvert, inv)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order converted to invoice",
		"order_id", orderID,
		"invoice_id", inv.ID,
		"number", inv.Number,
	)
	return inv, nil
}

// GetByID loads one invoice with its lines.
func (s *Service) GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return s.invoices.GetByID(ctx, invoiceID)
}

// List returns invoices matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]*Invoice, int64, error) {
	items, err := s.invoices.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.invoices.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// resolvedRefs carries the catalog lookups done during validation:
// the party's kind for the ledger direction and each line's cost snapshot.
type resolvedRefs struct {
	partyKind entity.PartyKind
}

// resolveRefs performs structural validation plus referential checks, and
// snapshots each line's product cost price. It runs before any write.
func (s *Service) resolveRefs(ctx context.Context, inv *Invoice) (resolvedRefs, error) {
	var refs resolvedRefs

	if err := inv.Validate(ctx); err != nil {
		return refs, err
	}

	if inv.PartyID != nil {
		p, err := s.parties.GetByID(ctx, *inv.PartyID)
		if err != nil {
			return refs, err
		}
		refs.partyKind = p.Kind
	}

	for i := range inv.Lines {
		prod, err := s.products.GetByID(ctx, inv.Lines[i].ProductID)
		if err != nil {
			return refs, err
		}
		inv.Lines[i].CostPrice = prod.CostPrice
	}

	if inv.CashAccountID != nil {
		if _, err := s.accounts.GetByID(ctx, *inv.CashAccountID); err != nil {
			return refs, err
		}
	}

	return refs, nil
}

// post applies the ledger postings per the direction table: one stock
// movement per line, one party entry for the document total, one cash
// movement for the document total when the payment method implies it.
// Runs inside the caller's transaction.
func (s *Service) post(ctx context.Context, inv *Invoice, refs resolvedRefs) error {
	rule, err := inv.Type.Rule()
	if err != nil {
		return err
	}
	src := inv.SourceRef()

	if rule.PostsStock {
		for i := range inv.Lines {
			line := &inv.Lines[i]
			_, err := s.stock.Append(ctx, stockledger.AppendInput{
				ProductID: line.ProductID,
				Date:      inv.Date,
				Kind:      rule.StockKind,
				Direction: rule.StockDirection,
				Quantity:  line.Quantity,
				Source:    src,
				Note:      inv.Number,
			})
			if err != nil {
				return err
			}
		}
	}

	if inv.PartyID != nil {
		_, err := s.partyLedger.Post(ctx, partyledger.PostInput{
			PartyID:       *inv.PartyID,
			PartyKind:     refs.partyKind,
			Date:          inv.Date,
			Direction:     rule.PartyDirection(refs.partyKind),
			Amount:        inv.TotalInclusive,
			Source:        src,
			CashAccountID: inv.CashAccountID,
			PaymentMethod: string(inv.PaymentMethod),
			DueDate:       inv.DueDate,
			Description:   inv.Number,
		})
		if err != nil {
			return err
		}
	}

	if rule.PostsCash && inv.PaymentMethod.ImpliesCashMovement() {
		_, err := s.cashLedger.Append(ctx, cashledger.AppendInput{
			AccountID:   *inv.CashAccountID,
			Date:        inv.Date,
			Kind:        entity.CashKindInvoice,
			Direction:   rule.CashDirection,
			Amount:      inv.TotalInclusive,
			Source:      src,
			Description: inv.Number,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// reverse undoes every ledger posting tied to the invoice's source tuple.
// Before anything is deleted the party rows behind the tuple are checked
// against the stored document total; rows that disagree mean the tuple no
// longer belongs to this invoice, and the whole operation aborts. The three
// ledgers are independent; each reversal is a no-op when the tuple has no
// rows there.
func (s *Service) reverse(ctx context.Context, inv *Invoice) error {
	src := inv.SourceRef()

	if inv.PartyID != nil {
		entries, err := s.partyLedger.EntriesBySource(ctx, src)
		if err != nil {
			return err
		}
		posted := types.Zero()
		for _, e := range entries {
			posted = posted.Add(e.Amount)
		}
		if len(entries) > 0 && !posted.Equal(inv.TotalInclusive) {
			return apperror.NewConsistencyViolation("ledger rows disagree with the invoice being reversed").
				WithDetail("invoice_id", inv.ID.String()).
				WithDetail("invoice_total", inv.TotalInclusive.String()).
				WithDetail("ledger_total", posted.String())
		}
	}

	if err := s.stock.ReverseBySource(ctx, src); err != nil {
		return err
	}
	if err := s.partyLedger.ReverseBySource(ctx, src); err != nil {
		return err
	}
	return s.cashLedger.ReverseBySource(ctx, src)
}

func (s *Service) nextNumber(ctx context.Context, inv *Invoice) (string, error) {
	cfg := numerator.DefaultConfig(inv.Type.NumberPrefix())
	number, err := s.numbers.GetNextNumber(ctx, cfg, numerator.DefaultOptions(), inv.Date)
	if err != nil {
		return "", fmt.Errorf("assign number: %w", err)
	}
	return number, nil
}

func (s *Service) audit(ctx context.Context, action AuditAction, inv *Invoice) error {
	if s.auditor == nil {
		return nil
	}
	if err := s.auditor.Record(ctx, action, inv.ID, inv); err != nil {
		return fmt.Errorf("audit %s: %w", action, err)
	}
	return nil
}

func buildInvoice(intent Intent) *Invoice {
	inv := &Invoice{
		Document:          entity.NewDocument(),
		Type:              intent.Type,
		PartyID:           intent.PartyID,
		PaymentMethod:     intent.PaymentMethod,
		CashAccountID:     intent.CashAccountID,
		DueDate:           intent.DueDate,
		DiscountKind:      intent.DiscountKind,
		DiscountValue:     intent.DiscountValue,
		OriginalInvoiceID: intent.OriginalInvoiceID,
	}
	if inv.DiscountKind == "" {
		inv.DiscountKind = arith.DiscountNone
	}
	if !intent.Date.IsZero() {
		inv.Date = intent.Date
	}
	inv.Notes = intent.Notes

	inv.Lines = make([]Line, 0, len(intent.Lines))
	for _, li := range intent.Lines {
		inv.Lines = append(inv.Lines, Line{
			LineID:    id.New(),
			InvoiceID: inv.ID,
			ProductID: li.ProductID,
			Quantity:  li.Quantity,
			UnitPrice: li.UnitPrice,
			TaxRate:   li.TaxRate,
			Discount1: li.Discount1,
			Discount2: li.Discount2,
		})
	}
	return inv
}
