// Package finance provides the money-side documents that are not invoices:
// collections from customers, payments to suppliers, manual debt entries
// and standalone income/expense records. All of them are ledger-backed;
// the ledger rows stamped with the document's source tuple are the
// document.
package finance

import (
	"context"
	"time"

	"onmuhasebe/internal/core/apperror"
	"onmuhasebe/internal/core/entity"
	"onmuhasebe/internal/core/id"
	"onmuhasebe/internal/core/tx"
	"onmuhasebe/internal/core/types"
	partycat "onmuhasebe/internal/domain/catalogs/party"
	"onmuhasebe/internal/domain/invoice"
	cashledger "onmuhasebe/internal/domain/registers/cash"
	partyledger "onmuhasebe/internal/domain/registers/party"
	"onmuhasebe/pkg/logger"
)

// Receipt is the result of a collection or payment: the generated document
// id plus the two ledger rows it created.
type Receipt struct {
	DocumentID   id.ID               `json:"documentId"`
	PartyEntry   entity.PartyEntry   `json:"partyEntry"`
	CashMovement entity.CashMovement `json:"cashMovement"`
}

// CollectionInput describes money received from a party.
type CollectionInput struct {
	PartyID       id.ID                 `json:"partyId"`
	CashAccountID id.ID                 `json:"cashAccountId"`
	Date          time.Time             `json:"date"`
	Amount        types.Money           `json:"amount"`
	Method        invoice.PaymentMethod `json:"method"`
	Description   string                `json:"description,omitempty"`
}

// PaymentInput describes money paid to a party.
type PaymentInput = CollectionInput

// DebtInput describes a manual party ledger adjustment.
type DebtInput struct {
	PartyID     id.ID                 `json:"partyId"`
	Date        time.Time             `json:"date"`
	Direction   entity.EntryDirection `json:"direction"`
	Amount      types.Money           `json:"amount"`
	Description string                `json:"description,omitempty"`
}

// IncomeExpenseInput describes a standalone cash income or expense.
type IncomeExpenseInput struct {
	CashAccountID id.ID       `json:"cashAccountId"`
	Date          time.Time   `json:"date"`
	Amount        types.Money `json:"amount"`
	// Expense pays out of the account; otherwise the amount comes in
	Expense     bool   `json:"expense"`
	Description string `json:"description,omitempty"`
}

// Service provides the finance operations. Each operation runs its ledger
// writes in a single transaction.
type Service struct {
	txManager   tx.Manager
	parties     partycat.Repository
	partyLedger *partyledger.Service
	cashLedger  *cashledger.Service
}

// NewService creates a new finance service.
func NewService(
	txManager tx.Manager,
	parties partycat.Repository,
	partyLedger *partyledger.Service,
	cashLedger *cashledger.Service,
) *Service {
	return &Service{
		txManager:   txManager,
		parties:     parties,
		partyLedger: partyLedger,
		cashLedger:  cashLedger,
	}
}

// RecordCollection records money received from a party: one Debit on the
// party ledger (the party owes less) and one In movement on the cash
// account, atomically.
func (s *Service) RecordCollection(ctx context.Context, in CollectionInput) (Receipt, error) {
	return s.record(ctx, in, entity.SourceCollection)
}

// RecordPayment records money paid to a party: one Credit on the party
// ledger (the business owes less) and one Out movement on the cash account.
func (s *Service) RecordPayment(ctx context.Context, in PaymentInput) (Receipt, error) {
	return s.record(ctx, in, entity.SourcePayment)
}

func (s *Service) record(ctx context.Context, in CollectionInput, kind entity.SourceKind) (Receipt, error) {
	if !in.Amount.IsPositive() {
		return Receipt{}, apperror.NewValidation("amount must be positive").
			WithDetail("field", "amount")
	}
	if !in.Method.ImpliesCashMovement() {
		return Receipt{}, apperror.NewValidation("payment method must move cash").
			WithDetail("field", "method").
			WithDetail("value", string(in.Method))
	}
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}

	p, err := s.parties.GetByID(ctx, in.PartyID)
	if err != nil {
		return Receipt{}, err
	}

	partyDir := entity.EntryDebit
	cashDir := entity.CashIn
	cashKind := entity.CashKindCollection
	if kind == entity.SourcePayment {
		partyDir = entity.EntryCredit
		cashDir = entity.CashOut
		cashKind = entity.CashKindPayment
	}

	var receipt Receipt
	receipt.DocumentID = id.New()
	src := entity.SourceRef{SourceKind: kind, SourceID: receipt.DocumentID}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		accountID := in.CashAccountID
		entry, err := s.partyLedger.Post(ctx, partyledger.PostInput{
			PartyID:       in.PartyID,
			PartyKind:     p.Kind,
			Date:          in.Date,
			Direction:     partyDir,
			Amount:        in.Amount,
			Source:        src,
			CashAccountID: &accountID,
			PaymentMethod: string(in.Method),
			Description:   in.Description,
		})
		if err != nil {
			return err
		}

		movement, err := s.cashLedger.Append(ctx, cashledger.AppendInput{
			AccountID:   in.CashAccountID,
			Date:        in.Date,
			Kind:        cashKind,
			Direction:   cashDir,
			Amount:      in.Amount,
			Source:      src,
			Description: in.Description,
		})
		if err != nil {
			return err
		}

		receipt.PartyEntry = entry
		receipt.CashMovement = movement
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}

	logger.Info(ctx, "finance document recorded",
		"kind", kind,
		"document_id", receipt.DocumentID,
		"party_id", in.PartyID,
		"amount", in.Amount,
	)
	return receipt, nil
}

// Delete reverses both ledger rows of a collection or payment.
func (s *Service) Delete(ctx context.Context, kind entity.SourceKind, documentID id.ID) error {
	if !kind.UserDeletable() {
		return apperror.NewValidation("document kind is not deletable").
			WithDetail("source_kind", string(kind))
	}
	src := entity.SourceRef{SourceKind: kind, SourceID: documentID}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.partyLedger.ReverseBySource(ctx, src); err != nil {
			return err
		}
		return s.cashLedger.ReverseBySource(ctx, src)
	})
}

// RecordDebtEntry posts a manual adjustment against a party's balance.
func (s *Service) RecordDebtEntry(ctx context.Context, in DebtInput) (entity.PartyEntry, error) {
	p, err := s.parties.GetByID(ctx, in.PartyID)
	if err != nil {
		return entity.PartyEntry{}, err
	}
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}

	var entry entity.PartyEntry
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		entry, err = s.partyLedger.Post(ctx, partyledger.PostInput{
			PartyID:     in.PartyID,
			PartyKind:   p.Kind,
			Date:        in.Date,
			Direction:   in.Direction,
			Amount:      in.Amount,
			Source:      entity.SourceRef{SourceKind: entity.SourceManualDebt, SourceID: id.New()},
			Description: in.Description,
		})
		return err
	})
	if err != nil {
		return entity.PartyEntry{}, err
	}
	return entry, nil
}

// RecordIncomeExpense posts a standalone cash income or expense.
func (s *Service) RecordIncomeExpense(ctx context.Context, in IncomeExpenseInput) (entity.CashMovement, error) {
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}

	dir := entity.CashIn
	kind := entity.CashKindIncome
	if in.Expense {
		dir = entity.CashOut
		kind = entity.CashKindExpense
	}

	var movement entity.CashMovement
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		movement, err = s.cashLedger.Append(ctx, cashledger.AppendInput{
			AccountID:   in.CashAccountID,
			Date:        in.Date,
			Kind:        kind,
			Direction:   dir,
			Amount:      in.Amount,
			Source:      entity.SourceRef{SourceKind: entity.SourceIncomeExpense, SourceID: id.New()},
			Description: in.Description,
		})
		return err
	})
	if err != nil {
		return entity.CashMovement{}, err
	}
	return movement, nil
}
