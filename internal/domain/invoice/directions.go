package invoice

import (
	"onmuhasebe/internal/core/apperror"
	"onmuhasebe/internal/core/entity"
)

// PostingRule is one row of the posting direction table: how an invoice
// type hits the three ledgers. The table is the single place the type is
// mapped to ledger directions; create, update, delete and convert all
// consult it through the same posting routine.
type PostingRule struct {
	// PostsStock is false only for opening balance invoices
	PostsStock     bool
	StockDirection entity.StockDirection
	StockKind      entity.StockMovementKind

	// partyByKind flips the party direction for suppliers (opening
	// balance: a customer opening owes us, a supplier opening is owed)
	partyDirection entity.EntryDirection
	partyByKind    bool

	// PostsCash gates the cash movement; the payment method must also
	// imply one
	PostsCash     bool
	CashDirection entity.CashDirection
}

var postingRules = map[Type]PostingRule{
	TypeSale: {
		PostsStock:     true,
		StockDirection: entity.StockOut,
		StockKind:      entity.StockKindSale,
		partyDirection: entity.EntryCredit,
		PostsCash:      true,
		CashDirection:  entity.CashIn,
	},
	TypePurchase: {
		PostsStock:     true,
		StockDirection: entity.StockIn,
		StockKind:      entity.StockKindPurchase,
		partyDirection: entity.EntryDebit,
		PostsCash:      true,
		CashDirection:  entity.CashOut,
	},
	TypeSaleReturn: {
		PostsStock:     true,
		StockDirection: entity.StockIn,
		StockKind:      entity.StockKindReturnIn,
		partyDirection: entity.EntryDebit,
		PostsCash:      true,
		CashDirection:  entity.CashOut,
	},
	TypePurchaseReturn: {
		PostsStock:     true,
		StockDirection: entity.StockOut,
		StockKind:      entity.StockKindReturnOut,
		partyDirection: entity.EntryCredit,
		PostsCash:      true,
		CashDirection:  entity.CashIn,
	},
	TypeOpeningBalance: {
		PostsStock:     false,
		partyDirection: entity.EntryCredit,
		partyByKind:    true,
		PostsCash:      false,
	},
}

// Rule returns the posting rule for an invoice type.
func (t Type) Rule() (PostingRule, error) {
	rule, ok := postingRules[t]
	if !ok {
		return PostingRule{}, apperror.NewValidation("invalid invoice type").
			WithDetail("type", string(t))
	}
	return rule, nil
}

// PartyDirection returns the party ledger direction for a party of the
// given kind. Only opening balance invoices depend on the kind: a customer
// opening balance is a Credit (the customer owes), a supplier opening is a
// Debit (the business owes).
func (r PostingRule) PartyDirection(kind entity.PartyKind) entity.EntryDirection {
	if r.partyByKind && kind == entity.PartySupplier {
		return entity.EntryDebit
	}
	return r.partyDirection
}
