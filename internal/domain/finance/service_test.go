package finance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onmuhasebe/internal/core/apperror"
	"onmuhasebe/internal/core/entity"
	"onmuhasebe/internal/core/id"
	"onmuhasebe/internal/core/types"
	"onmuhasebe/internal/domain"
	partycat "onmuhasebe/internal/domain/catalogs/party"
	"onmuhasebe/internal/domain/invoice"
	cashledger "onmuhasebe/internal/domain/registers/cash"
	partyledger "onmuhasebe/internal/domain/registers/party"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakePartyCatalog struct {
	parties map[id.ID]*partycat.Party
}

func (f *fakePartyCatalog) Create(_ context.Context, p *partycat.Party) error {
	f.parties[p.ID] = p
	return nil
}

func (f *fakePartyCatalog) GetByID(_ context.Context, partyID id.ID) (*partycat.Party, error) {
	p, ok := f.parties[partyID]
	if !ok {
		return nil, apperror.NewNotFound("party", partyID)
	}
	return p, nil
}

func (f *fakePartyCatalog) GetByCode(_ context.Context, code string) (*partycat.Party, error) {
	return nil, apperror.NewNotFound("party", code)
}

func (f *fakePartyCatalog) Update(_ context.Context, p *partycat.Party) error { return nil }

func (f *fakePartyCatalog) SetDeletionMark(_ context.Context, _ id.ID, _ bool) error { return nil }

func (f *fakePartyCatalog) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[*partycat.Party], error) {
	return domain.ListResult[*partycat.Party]{}, nil
}

func (f *fakePartyCatalog) Exists(_ context.Context, partyID id.ID) (bool, error) {
	_, ok := f.parties[partyID]
	return ok, nil
}

type memPartyRepo struct {
	entries  map[id.ID]entity.PartyEntry
	balances map[id.ID]types.Money
}

func (r *memPartyRepo) CreateEntry(_ context.Context, e entity.PartyEntry) error {
	r.entries[e.LineID] = e
	return nil
}

func (r *memPartyRepo) GetEntry(_ context.Context, lineID id.ID) (entity.PartyEntry, error) {
	e, ok := r.entries[lineID]
	if !ok {
		return entity.PartyEntry{}, apperror.NewNotFound("party entry", lineID)
	}
	return e, nil
}

func (r *memPartyRepo) DeleteEntry(_ context.Context, lineID id.ID) error {
	delete(r.entries, lineID)
	return nil
}

func (r *memPartyRepo) GetEntriesBySource(_ context.Context, src entity.SourceRef) ([]entity.PartyEntry, error) {
	var out []entity.PartyEntry
	for _, e := range r.entries {
		if e.SourceRef.Matches(src) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memPartyRepo) GetEntriesByParty(_ context.Context, partyID id.ID, _ partyledger.EntryFilter) ([]entity.PartyEntry, error) {
	var out []entity.PartyEntry
	for _, e := range r.entries {
		if e.PartyID == partyID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memPartyRepo) SumNetBalance(_ context.Context, partyID id.ID) (types.Money, error) {
	sum := types.Zero()
	for _, e := range r.entries {
		if e.PartyID == partyID {
			sum = sum.Add(e.SignedAmount())
		}
	}
	return sum, nil
}

func (r *memPartyRepo) SetBalance(_ context.Context, partyID id.ID, balance types.Money) error {
	r.balances[partyID] = balance
	return nil
}

func (r *memPartyRepo) GetBalance(_ context.Context, partyID id.ID) (types.Money, error) {
	return r.balances[partyID], nil
}

type memCashRepo struct {
	movements map[id.ID]entity.CashMovement
	opening   map[id.ID]types.Money
	balances  map[id.ID]types.Money
}

func (r *memCashRepo) CreateMovement(_ context.Context, m entity.CashMovement) error {
	r.movements[m.LineID] = m
	return nil
}

func (r *memCashRepo) GetMovement(_ context.Context, lineID id.ID) (entity.CashMovement, error) {
	m, ok := r.movements[lineID]
	if !ok {
		return entity.CashMovement{}, apperror.NewNotFound("cash movement", lineID)
	}
	return m, nil
}

func (r *memCashRepo) DeleteMovement(_ context.Context, lineID id.ID) error {
	delete(r.movements, lineID)
	return nil
}

func (r *memCashRepo) GetMovementsBySource(_ context.Context, src entity.SourceRef) ([]entity.CashMovement, error) {
	var out []entity.CashMovement
	for _, m := range r.movements {
		if m.SourceRef.Matches(src) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memCashRepo) GetMovementsByAccount(_ context.Context, accountID id.ID, _ cashledger.MovementFilter) ([]entity.CashMovement, error) {
	var out []entity.CashMovement
	for _, m := range r.movements {
		if m.AccountID == accountID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memCashRepo) SumSignedAmount(_ context.Context, accountID id.ID) (types.Money, error) {
	sum := types.Zero()
	for _, m := range r.movements {
		if m.AccountID == accountID {
			sum = sum.Add(m.SignedAmount())
		}
	}
	return sum, nil
}

func (r *memCashRepo) GetOpeningBalance(_ context.Context, accountID id.ID) (types.Money, error) {
	return r.opening[accountID], nil
}

func (r *memCashRepo) GetBalance(_ context.Context, accountID id.ID) (types.Money, error) {
	return r.balances[accountID], nil
}

func (r *memCashRepo) SetBalance(_ context.Context, accountID id.ID, balance types.Money) error {
	r.balances[accountID] = balance
	return nil
}

type fixture struct {
	svc       *Service
	partyRepo *memPartyRepo
	cashRepo  *memCashRepo
	customer  *partycat.Party
	supplier  *partycat.Party
	accountID id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	parties := &fakePartyCatalog{parties: make(map[id.ID]*partycat.Party)}
	customer := partycat.New("CUST-001", "Acme Retail", entity.PartyCustomer)
	supplier := partycat.New("SUPP-001", "Bolt Wholesale", entity.PartySupplier)
	require.NoError(t, parties.Create(context.Background(), customer))
	require.NoError(t, parties.Create(context.Background(), supplier))

	partyRepo := &memPartyRepo{
		entries:  make(map[id.ID]entity.PartyEntry),
		balances: make(map[id.ID]types.Money),
	}
	cashRepo := &memCashRepo{
		movements: make(map[id.ID]entity.CashMovement),
		opening:   make(map[id.ID]types.Money),
		balances:  make(map[id.ID]types.Money),
	}

	return &fixture{
		svc:       NewService(fakeTxManager{}, parties, partyledger.NewService(partyRepo), cashledger.NewService(cashRepo)),
		partyRepo: partyRepo,
		cashRepo:  cashRepo,
		customer:  customer,
		supplier:  supplier,
		accountID: id.New(),
	}
}

func TestService_RecordCollection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	receipt, err := f.svc.RecordCollection(ctx, CollectionInput{
		PartyID:       f.customer.ID,
		CashAccountID: f.accountID,
		Date:          time.Now(),
		Amount:        types.MustMoney("150.00"),
		Method:        invoice.PaymentCash,
	})
	require.NoError(t, err)

	assert.Equal(t, entity.EntryDebit, receipt.PartyEntry.Direction)
	assert.Equal(t, entity.CashIn, receipt.CashMovement.Direction)
	assert.Equal(t, entity.SourceCollection, receipt.PartyEntry.SourceKind)
	assert.Equal(t, receipt.DocumentID, receipt.CashMovement.SourceID)

	balance, _ := f.partyRepo.GetBalance(ctx, f.customer.ID)
	assert.True(t, balance.Equal(types.MustMoney("-150.00")), "the customer owes less after paying")

	cashBalance, _ := f.cashRepo.GetBalance(ctx, f.accountID)
	assert.True(t, cashBalance.Equal(types.MustMoney("150.00")))
}

func TestService_RecordPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	receipt, err := f.svc.RecordPayment(ctx, PaymentInput{
		PartyID:       f.supplier.ID,
		CashAccountID: f.accountID,
		Date:          time.Now(),
		Amount:        types.MustMoney("80.00"),
		Method:        invoice.PaymentWire,
	})
	require.NoError(t, err)

	assert.Equal(t, entity.EntryCredit, receipt.PartyEntry.Direction)
	assert.Equal(t, entity.CashOut, receipt.CashMovement.Direction)

	cashBalance, _ := f.cashRepo.GetBalance(ctx, f.accountID)
	assert.True(t, cashBalance.Equal(types.MustMoney("-80.00")))
}

func TestService_Record_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RecordCollection(ctx, CollectionInput{
		PartyID:       f.customer.ID,
		CashAccountID: f.accountID,
		Amount:        types.Zero(),
		Method:        invoice.PaymentCash,
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.RecordCollection(ctx, CollectionInput{
		PartyID:       f.customer.ID,
		CashAccountID: f.accountID,
		Amount:        types.MustMoney("10"),
		Method:        invoice.PaymentOpenAccount,
	})
	assert.True(t, apperror.IsValidation(err), "a collection must actually move cash")

	_, err = f.svc.RecordCollection(ctx, CollectionInput{
		PartyID:       id.New(),
		CashAccountID: f.accountID,
		Amount:        types.MustMoney("10"),
		Method:        invoice.PaymentCash,
	})
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_Delete_ReversesBothLedgers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	receipt, err := f.svc.RecordCollection(ctx, CollectionInput{
		PartyID:       f.customer.ID,
		CashAccountID: f.accountID,
		Date:          time.Now(),
		Amount:        types.MustMoney("150.00"),
		Method:        invoice.PaymentCash,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, entity.SourceCollection, receipt.DocumentID))

	balance, _ := f.partyRepo.GetBalance(ctx, f.customer.ID)
	assert.True(t, balance.IsZero())
	cashBalance, _ := f.cashRepo.GetBalance(ctx, f.accountID)
	assert.True(t, cashBalance.IsZero())
	assert.Empty(t, f.partyRepo.entries)
	assert.Empty(t, f.cashRepo.movements)

	err = f.svc.Delete(ctx, entity.SourceInvoice, id.New())
	assert.True(t, apperror.IsValidation(err), "invoice rows are reversed only via the invoice")
}

func TestService_RecordDebtEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.svc.RecordDebtEntry(ctx, DebtInput{
		PartyID:     f.customer.ID,
		Direction:   entity.EntryCredit,
		Amount:      types.MustMoney("500.00"),
		Description: "carried-over balance",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.SourceManualDebt, entry.SourceKind)

	balance, _ := f.partyRepo.GetBalance(ctx, f.customer.ID)
	assert.True(t, balance.Equal(types.MustMoney("500.00")))
}

func TestService_RecordIncomeExpense(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RecordIncomeExpense(ctx, IncomeExpenseInput{
		CashAccountID: f.accountID,
		Amount:        types.MustMoney("45.00"),
		Expense:       true,
		Description:   "office supplies",
	})
	require.NoError(t, err)

	cashBalance, _ := f.cashRepo.GetBalance(ctx, f.accountID)
	assert.True(t, cashBalance.Equal(types.MustMoney("-45.00")))
}
