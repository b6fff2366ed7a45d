// Package entity provides core domain entities.
package entity

import (
	"time"

	"onmuhasebe/internal/core/id"
	"onmuhasebe/internal/core/types"
)

// SourceKind identifies what created a ledger row. Together with SourceID it
// forms the handle used to locate and reverse all side effects of a document.
type SourceKind string

const (
	// SourceManual - user-entered row, deletable directly
	SourceManual SourceKind = "manual"
	// SourceInvoice - created by invoice posting, reversed only via the invoice
	SourceInvoice SourceKind = "invoice"
	// SourceInvoiceReturn - created by a return invoice
	SourceInvoiceReturn SourceKind = "invoice_return"
	// SourceOrder - created from an order (informational rows only)
	SourceOrder SourceKind = "order"
	// SourceCollection - money collected from a customer
	SourceCollection SourceKind = "collection"
	// SourcePayment - money paid to a supplier
	SourcePayment SourceKind = "payment"
	// SourceManualDebt - manually entered opening/adjustment debt
	SourceManualDebt SourceKind = "manual_debt"
	// SourceIncomeExpense - standalone income/expense cash row
	SourceIncomeExpense SourceKind = "income_expense"
)

// UserDeletable reports whether rows of this kind may be deleted directly.
// Invoice-sourced rows are removed only by reversing the invoice itself.
func (k SourceKind) UserDeletable() bool {
	switch k {
	case SourceManual, SourceCollection, SourcePayment, SourceManualDebt, SourceIncomeExpense:
		return true
	}
	return false
}

// SourceRef is the (kind, id) tuple stamped on every ledger row created as a
// side effect of a document. It is embedded flat into every movement row.
type SourceRef struct {
	SourceKind SourceKind `db:"source_kind" json:"sourceKind"`
	SourceID   id.ID      `db:"source_id" json:"sourceId"`
}

// InvoiceSource builds the source tuple for invoice-created rows.
func InvoiceSource(invoiceID id.ID) SourceRef {
	return SourceRef{SourceKind: SourceInvoice, SourceID: invoiceID}
}

// Matches reports whether the row was created by the given source.
func (s SourceRef) Matches(other SourceRef) bool {
	return s.SourceKind == other.SourceKind && s.SourceID == other.SourceID
}

//////////////////////
// Stock register   //
//////////////////////

// StockDirection defines how a movement affects on-hand quantity.
type StockDirection string

const (
	// StockIn increases on-hand quantity
	StockIn StockDirection = "in"
	// StockOut decreases on-hand quantity
	StockOut StockDirection = "out"
)

// StockMovementKind classifies a stock movement for reporting.
type StockMovementKind string

const (
	StockKindManualIn      StockMovementKind = "manual_in"
	StockKindManualOut     StockMovementKind = "manual_out"
	StockKindCountSurplus  StockMovementKind = "count_surplus"
	StockKindCountShortage StockMovementKind = "count_shortage"
	StockKindSale          StockMovementKind = "sale"
	StockKindPurchase      StockMovementKind = "purchase"
	StockKindReturnIn      StockMovementKind = "return_in"
	StockKindReturnOut     StockMovementKind = "return_out"
)

// StockMovement is one append-only change to a product's on-hand quantity.
// Movements are never updated in place: reversal deletes the row and applies
// the opposite quantity delta to the product.
type StockMovement struct {
	// LineID is the unique identifier for this movement row (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	ProductID id.ID     `db:"product_id" json:"productId"`
	Date      time.Time `db:"date" json:"date"`

	Kind      StockMovementKind `db:"kind" json:"kind"`
	Direction StockDirection    `db:"direction" json:"direction"`
	Quantity  types.Quantity    `db:"quantity" json:"quantity"`

	// Quantity snapshots taken at append time, for audit trails
	PrevQuantity types.Quantity `db:"prev_quantity" json:"prevQuantity"`
	NextQuantity types.Quantity `db:"next_quantity" json:"nextQuantity"`

	SourceRef

	Note      string    `db:"note" json:"note,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// SignedQuantity returns the quantity with sign per direction.
// In = positive, Out = negative.
func (m *StockMovement) SignedQuantity() types.Quantity {
	if m.Direction == StockOut {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

//////////////////////
// Party ledger     //
//////////////////////

// PartyKind distinguishes customers from suppliers.
type PartyKind string

const (
	PartyCustomer PartyKind = "customer"
	PartySupplier PartyKind = "supplier"
)

// EntryDirection is the posting direction against a party balance.
// Sign convention: positive balance = party owes the business, so
// balance = sum(credit) - sum(debit).
type EntryDirection string

const (
	EntryDebit  EntryDirection = "debit"
	EntryCredit EntryDirection = "credit"
)

// PartyEntry is one posting against a party's running balance.
type PartyEntry struct {
	LineID id.ID `db:"line_id" json:"lineId"`

	PartyID   id.ID     `db:"party_id" json:"partyId"`
	PartyKind PartyKind `db:"party_kind" json:"partyKind"`
	Date      time.Time `db:"date" json:"date"`

	Direction EntryDirection `db:"direction" json:"direction"`
	Amount    types.Money    `db:"amount" json:"amount"`

	SourceRef

	// Optional payment context
	CashAccountID *id.ID     `db:"cash_account_id" json:"cashAccountId,omitempty"`
	PaymentMethod string     `db:"payment_method" json:"paymentMethod,omitempty"`
	DueDate       *time.Time `db:"due_date" json:"dueDate,omitempty"`

	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// SignedAmount returns the amount with sign per direction.
// Credit = positive, Debit = negative.
func (e *PartyEntry) SignedAmount() types.Money {
	if e.Direction == EntryDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

//////////////////////
// Cash ledger      //
//////////////////////

// CashDirection defines how a movement affects an account balance.
type CashDirection string

const (
	CashIn  CashDirection = "in"
	CashOut CashDirection = "out"
)

// CashMovementKind classifies a cash movement for reporting.
type CashMovementKind string

const (
	CashKindInvoice    CashMovementKind = "invoice"
	CashKindCollection CashMovementKind = "collection"
	CashKindPayment    CashMovementKind = "payment"
	CashKindIncome     CashMovementKind = "income"
	CashKindExpense    CashMovementKind = "expense"
	CashKindManual     CashMovementKind = "manual"
)

// CashMovement is one append-only change to a cash or bank account balance.
type CashMovement struct {
	LineID id.ID `db:"line_id" json:"lineId"`

	AccountID id.ID     `db:"account_id" json:"accountId"`
	Date      time.Time `db:"date" json:"date"`

	Kind      CashMovementKind `db:"kind" json:"kind"`
	Direction CashDirection    `db:"direction" json:"direction"`
	Amount    types.Money      `db:"amount" json:"amount"`

	SourceRef

	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// SignedAmount returns the amount with sign per direction.
// In = positive, Out = negative.
func (m *CashMovement) SignedAmount() types.Money {
	if m.Direction == CashOut {
		return m.Amount.Neg()
	}
	return m.Amount
}
