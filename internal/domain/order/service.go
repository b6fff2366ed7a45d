package order

import (
	"context"
	"fmt"
	"time"

	"onmuhasebe/internal/core/apperror"
	"onmuhasebe/internal/core/entity"
	"onmuhasebe/internal/core/id"
	"onmuhasebe/internal/core/numerator"
	"onmuhasebe/internal/core/tx"
	"onmuhasebe/internal/core/types"
	"onmuhasebe/internal/domain/invoice"
	"onmuhasebe/pkg/logger"
)

// LineIntent is the caller-supplied shape of one order line.
type LineIntent struct {
	ProductID id.ID          `json:"productId"`
	Quantity  types.Quantity `json:"quantity"`
	UnitPrice types.Money    `json:"unitPrice"`
	TaxRate   types.Percent  `json:"taxRate"`
	Discount1 types.Percent  `json:"discount1"`
	Discount2 types.Percent  `json:"discount2"`
}

// Intent is the caller-supplied shape of an order.
type Intent struct {
	Kind         Kind         `json:"kind"`
	Date         time.Time    `json:"date"`
	PartyID      id.ID        `json:"partyId"`
	DeliveryDate *time.Time   `json:"deliveryDate,omitempty"`
	Notes        string       `json:"notes,omitempty"`
	Lines        []LineIntent `json:"lines"`
}

// Service provides order CRUD and the conversion gateway consumed by the
// invoice orchestrator.
type Service struct {
	txManager tx.Manager
	repo      Repository
	numbers   numerator.Generator
}

// NewService creates a new order service.
func NewService(txManager tx.Manager, repo Repository, numbers numerator.Generator) *Service {
	return &Service{txManager: txManager, repo: repo, numbers: numbers}
}

// Create validates the intent, assigns a document number and persists the
// order. Orders are internal documents, so the cached numbering strategy is
// acceptable (gaps after a restart do not matter).
func (s *Service) Create(ctx context.Context, intent Intent) (*Order, error) {
	o := build(intent)
	if err := o.Validate(ctx); err != nil {
		return nil, err
	}
	o.ComputeTotals()

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		cfg := numerator.DefaultConfig("ORD")
		number, err := s.numbers.GetNextNumber(ctx, cfg, &numerator.Options{
			Strategy: numerator.StrategyCached,
		}, o.Date)
		if err != nil {
			return fmt.Errorf("assign number: %w", err)
		}
		o.Number = number

		return s.repo.Create(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order created", "order_id", o.ID, "number", o.Number, "kind", o.Kind)
	return o, nil
}

// Update replaces the order. An order that has already been converted is
// frozen.
func (s *Service) Update(ctx context.Context, orderID id.ID, intent Intent) (*Order, error) {
	o := build(intent)
	if err := o.Validate(ctx); err != nil {
		return nil, err
	}
	o.ComputeTotals()

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if existing.Invoiced {
			return apperror.NewBusinessRule("ORDER_ALREADY_INVOICED", "invoiced orders cannot be changed").
				WithDetail("order_id", orderID.String())
		}

		o.BaseDocument = existing.BaseDocument
		o.Number = existing.Number
		o.Touch()
		for i := range o.Lines {
			o.Lines[i].OrderID = o.ID
		}
		return s.repo.Update(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Delete removes an order. Orders never post to any ledger, so deletion has
// no reversal step, but a converted order is frozen.
func (s *Service) Delete(ctx context.Context, orderID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if existing.Invoiced {
			return apperror.NewBusinessRule("ORDER_ALREADY_INVOICED", "invoiced orders cannot be deleted").
				WithDetail("order_id", orderID.String())
		}
		return s.repo.Delete(ctx, orderID)
	})
}

// GetByID loads one order with its lines.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

// List returns orders matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]*Order, int64, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// LoadForConversion implements invoice.OrderSource.
func (s *Service) LoadForConversion(ctx context.Context, orderID id.ID) (invoice.ConvertibleOrder, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return invoice.ConvertibleOrder{}, err
	}

	kind := invoice.OrderSale
	if o.Kind == KindPurchase {
		kind = invoice.OrderPurchase
	}

	lines := make([]invoice.LineIntent, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, invoice.LineIntent{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			TaxRate:   l.TaxRate,
			Discount1: l.Discount1,
			Discount2: l.Discount2,
		})
	}

	return invoice.ConvertibleOrder{
		OrderID:  o.ID,
		Kind:     kind,
		PartyID:  o.PartyID,
		Notes:    o.Notes,
		Invoiced: o.Invoiced,
		Lines:    lines,
	}, nil
}

// MarkInvoiced implements invoice.OrderSource.
func (s *Service) MarkInvoiced(ctx context.Context, orderID, invoiceID id.ID) error {
	return s.repo.SetInvoiced(ctx, orderID, invoiceID)
}

func build(intent Intent) *Order {
	o := &Order{
		Document:     entity.NewDocument(),
		Kind:         intent.Kind,
		PartyID:      intent.PartyID,
		DeliveryDate: intent.DeliveryDate,
	}
	if !intent.Date.IsZero() {
		o.Date = intent.Date
	}
	o.Notes = intent.Notes

	o.Lines = make([]Line, 0, len(intent.Lines))
	for _, li := range intent.Lines {
		o.Lines = append(o.Lines, Line{
			LineID:    id.New(),
			OrderID:   o.ID,
			ProductID: li.ProductID,
			Quantity:  li.Quantity,
			UnitPrice: li.UnitPrice,
			TaxRate:   li.TaxRate,
			Discount1: li.Discount1,
			Discount2: li.Discount2,
		})
	}
	return o
}

// compile-time check: the order service is the orchestrator's order gateway
var _ invoice.OrderSource = (*Service)(nil)
