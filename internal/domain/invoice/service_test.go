package invoice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onmuhasebe/internal/core/apperror"
	"onmuhasebe/internal/core/entity"
	"onmuhasebe/internal/core/id"
	"onmuhasebe/internal/core/numerator"
	"onmuhasebe/internal/core/types"
	"onmuhasebe/internal/domain"
	"onmuhasebe/internal/domain/arith"
	cashacccat "onmuhasebe/internal/domain/catalogs/cashaccount"
	partycat "onmuhasebe/internal/domain/catalogs/party"
	productcat "onmuhasebe/internal/domain/catalogs/product"
	cashledger "onmuhasebe/internal/domain/registers/cash"
	partyledger "onmuhasebe/internal/domain/registers/party"
	stockledger "onmuhasebe/internal/domain/registers/stock"
)

// --- fakes ---

// fakeTxManager runs the function directly; the fakes mutate in-memory
// state so there is nothing to commit or roll back.
type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeCatalog[T entity.Validatable] struct {
	items map[id.ID]T
	idOf  func(T) id.ID
}

func newFakeCatalog[T entity.Validatable](idOf func(T) id.ID) *fakeCatalog[T] {
	return &fakeCatalog[T]{items: make(map[id.ID]T), idOf: idOf}
}

func (f *fakeCatalog[T]) Create(_ context.Context, e T) error {
	f.items[f.idOf(e)] = e
	return nil
}

func (f *fakeCatalog[T]) GetByID(_ context.Context, itemID id.ID) (T, error) {
	e, ok := f.items[itemID]
	if !ok {
		var zero T
		return zero, apperror.NewNotFound("catalog item", itemID)
	}
	return e, nil
}

func (f *fakeCatalog[T]) GetByCode(_ context.Context, code string) (T, error) {
	var zero T
	return zero, apperror.NewNotFound("catalog item", code)
}

func (f *fakeCatalog[T]) Update(_ context.Context, e T) error {
	f.items[f.idOf(e)] = e
	return nil
}

func (f *fakeCatalog[T]) SetDeletionMark(_ context.Context, _ id.ID, _ bool) error {
	return nil
}

func (f *fakeCatalog[T]) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[T], error) {
	return domain.ListResult[T]{}, nil
}

func (f *fakeCatalog[T]) Exists(_ context.Context, itemID id.ID) (bool, error) {
	_, ok := f.items[itemID]
	return ok, nil
}

type fakeInvoiceRepo struct {
	invoices map[id.ID]*Invoice
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: make(map[id.ID]*Invoice)}
}

func (r *fakeInvoiceRepo) Create(_ context.Context, inv *Invoice) error {
	cp := *inv
	r.invoices[inv.ID] = &cp
	return nil
}

func (r *fakeInvoiceRepo) GetByID(_ context.Context, invoiceID id.ID) (*Invoice, error) {
	inv, ok := r.invoices[invoiceID]
	if !ok {
		return nil, apperror.NewNotFound("invoice", invoiceID)
	}
	cp := *inv
	return &cp, nil
}

func (r *fakeInvoiceRepo) GetByNumber(_ context.Context, number string) (*Invoice, error) {
	for _, inv := range r.invoices {
		if inv.Number == number {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("invoice", number)
}

func (r *fakeInvoiceRepo) Update(_ context.Context, inv *Invoice) error {
	if _, ok := r.invoices[inv.ID]; !ok {
		return apperror.NewNotFound("invoice", inv.ID)
	}
	cp := *inv
	r.invoices[inv.ID] = &cp
	return nil
}

func (r *fakeInvoiceRepo) Delete(_ context.Context, invoiceID id.ID) error {
	delete(r.invoices, invoiceID)
	return nil
}

func (r *fakeInvoiceRepo) List(_ context.Context, _ Filter) ([]*Invoice, error) {
	out := make([]*Invoice, 0, len(r.invoices))
	for _, inv := range r.invoices {
		out = append(out, inv)
	}
	return out, nil
}

func (r *fakeInvoiceRepo) Count(_ context.Context, _ Filter) (int64, error) {
	return int64(len(r.invoices)), nil
}

type memStockRepo struct {
	movements  map[id.ID]entity.StockMovement
	quantities map[id.ID]types.Quantity
}

func newMemStockRepo() *memStockRepo {
	return &memStockRepo{
		movements:  make(map[id.ID]entity.StockMovement),
		quantities: make(map[id.ID]types.Quantity),
	}
}

func (r *memStockRepo) CreateMovement(_ context.Context, m entity.StockMovement) error {
	r.movements[m.LineID] = m
	return nil
}

func (r *memStockRepo) GetMovement(_ context.Context, lineID id.ID) (entity.StockMovement, error) {
	m, ok := r.movements[lineID]
	if !ok {
		return entity.StockMovement{}, apperror.NewNotFound("stock movement", lineID)
	}
	return m, nil
}

func (r *memStockRepo) DeleteMovement(_ context.Context, lineID id.ID) error {
	delete(r.movements, lineID)
	return nil
}

func (r *memStockRepo) GetMovementsBySource(_ context.Context, src entity.SourceRef) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	for _, m := range r.movements {
		if m.SourceRef.Matches(src) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memStockRepo) GetMovementsByProduct(_ context.Context, productID id.ID, _ stockledger.MovementFilter) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memStockRepo) GetQuantityForUpdate(_ context.Context, productID id.ID) (types.Quantity, error) {
	return r.quantities[productID], nil
}

func (r *memStockRepo) GetQuantity(_ context.Context, productID id.ID) (types.Quantity, error) {
	return r.quantities[productID], nil
}

func (r *memStockRepo) SetQuantity(_ context.Context, productID id.ID, qty types.Quantity) error {
	r.quantities[productID] = qty
	return nil
}

func (r *memStockRepo) SumSignedQuantity(_ context.Context, productID id.ID) (types.Quantity, error) {
	sum := types.Zero()
	for _, m := range r.movements {
		if m.ProductID == productID {
			sum = sum.Add(m.SignedQuantity())
		}
	}
	return sum, nil
}

type memPartyRepo struct {
	entries  map[id.ID]entity.PartyEntry
	balances map[id.ID]types.Money
}

func newMemPartyRepo() *memPartyRepo {
	return &memPartyRepo{
		entries:  make(map[id.ID]entity.PartyEntry),
		balances: make(map[id.ID]types.Money),
	}
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

func newMemCashRepo() *memCashRepo {
	return &memCashRepo{
		movements: make(map[id.ID]entity.CashMovement),
		opening:   make(map[id.ID]types.Money),
		balances:  make(map[id.ID]types.Money),
	}
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

type fakeOrderSource struct {
	orders    map[id.ID]*ConvertibleOrder
	invoiceOf map[id.ID]id.ID
}

func newFakeOrderSource() *fakeOrderSource {
	return &fakeOrderSource{
		orders:    make(map[id.ID]*ConvertibleOrder),
		invoiceOf: make(map[id.ID]id.ID),
	}
}

func (f *fakeOrderSource) LoadForConversion(_ context.Context, orderID id.ID) (ConvertibleOrder, error) {
	ord, ok := f.orders[orderID]
	if !ok {
		return ConvertibleOrder{}, apperror.NewNotFound("order", orderID)
	}
	return *ord, nil
}

func (f *fakeOrderSource) MarkInvoiced(_ context.Context, orderID, invoiceID id.ID) error {
	f.orders[orderID].Invoiced = true
	f.invoiceOf[orderID] = invoiceID
	return nil
}

// --- fixture ---

type fixture struct {
	svc       *Service
	invoices  *fakeInvoiceRepo
	stockRepo *memStockRepo
	partyRepo *memPartyRepo
	cashRepo  *memCashRepo
	orders    *fakeOrderSource

	customer  *partycat.Party
	supplier  *partycat.Party
	product   *productcat.Product
	accountID id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	parties := newFakeCatalog(func(p *partycat.Party) id.ID { return p.ID })
	products := newFakeCatalog(func(p *productcat.Product) id.ID { return p.ID })
	accounts := newFakeCatalog(func(a *cashacccat.CashAccount) id.ID { return a.ID })

	customer := partycat.New("CUST-001", "Acme Retail", entity.PartyCustomer)
	supplier := partycat.New("SUPP-001", "Bolt Wholesale", entity.PartySupplier)
	prod := productcat.New("PRD-001", "Widget")
	prod.CostPrice = types.MustMoney("60")
	account := cashacccat.New("CSH-001", "Main Register", cashacccat.KindCash)

	ctx := context.Background()
	require.NoError(t, parties.Create(ctx, customer))
	require.NoError(t, parties.Create(ctx, supplier))
	require.NoError(t, products.Create(ctx, prod))
	require.NoError(t, accounts.Create(ctx, account))

	stockRepo := newMemStockRepo()
	partyRepo := newMemPartyRepo()
	cashRepo := newMemCashRepo()
	stockRepo.quantities[prod.ID] = types.MustMoney("100")

	invoices := newFakeInvoiceRepo()
	orders := newFakeOrderSource()

	svc := NewService(
		fakeTxManager{},
		invoices,
		parties,
		products,
		accounts,
		stockledger.NewService(stockRepo),
		partyledger.NewService(partyRepo),
		cashledger.NewService(cashRepo),
		&numerator.MockGenerator{},
	).WithOrderSource(orders)

	return &fixture{
		svc:       svc,
		invoices:  invoices,
		stockRepo: stockRepo,
		partyRepo: partyRepo,
		cashRepo:  cashRepo,
		orders:    orders,
		customer:  customer,
		supplier:  supplier,
		product:   prod,
		accountID: account.ID,
	}
}

func (f *fixture) saleIntent(qty string) Intent {
	customerID := f.customer.ID
	accountID := f.accountID
	return Intent{
		Type:          TypeSale,
		Date:          time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		PartyID:       &customerID,
		PaymentMethod: PaymentCash,
		CashAccountID: &accountID,
		DiscountKind:  arith.DiscountNone,
		Lines: []LineIntent{{
			ProductID: f.product.ID,
			Quantity:  types.MustMoney(qty),
			UnitPrice: types.MustMoney("100"),
			TaxRate:   types.MustMoney("18"),
		}},
	}
}

func (f *fixture) stockQty(t *testing.T) types.Money {
	t.Helper()
	q, err := f.stockRepo.GetQuantity(context.Background(), f.product.ID)
	require.NoError(t, err)
	return q
}

func (f *fixture) cashBalance(t *testing.T) types.Money {
	t.Helper()
	b, err := f.cashRepo.GetBalance(context.Background(), f.accountID)
	require.NoError(t, err)
	return b
}

// --- tests ---

func TestService_Create_SimpleSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, f.saleIntent("2"))
	require.NoError(t, err)

	assert.Equal(t, "SAT-2026-00001", inv.Number)
	assert.True(t, inv.TotalInclusive.Equal(types.MustMoney("236.00")))
	assert.True(t, inv.TotalExclusive.Equal(types.MustMoney("200.00")))
	assert.True(t, inv.TotalTax.Equal(types.MustMoney("36.00")))

	assert.True(t, f.stockQty(t).Equal(types.MustMoney("98")))
	assert.True(t, f.cashBalance(t).Equal(types.MustMoney("236.00")))

	entries, err := f.partyRepo.GetEntriesBySource(ctx, inv.SourceRef())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.EntryCredit, entries[0].Direction)
	assert.True(t, entries[0].Amount.Equal(types.MustMoney("236.00")))
}

func TestService_Update_ChangesQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.saleIntent("2"))
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, created.ID, f.saleIntent("5"))
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID, "invoice id is preserved")
	assert.Equal(t, created.Number, updated.Number, "document number is preserved")

	assert.True(t, f.stockQty(t).Equal(types.MustMoney("95")))
	assert.True(t, f.cashBalance(t).Equal(types.MustMoney("590.00")))

	movements, err := f.stockRepo.GetMovementsBySource(ctx, updated.SourceRef())
	require.NoError(t, err)
	require.Len(t, movements, 1, "old movements are reversed, not accumulated")
	assert.True(t, movements[0].Quantity.Equal(types.MustMoney("5")))
}

func TestService_Delete_RestoresAllLedgers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, f.saleIntent("2"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, inv.ID))

	assert.True(t, f.stockQty(t).Equal(types.MustMoney("100")))
	assert.True(t, f.cashBalance(t).IsZero())

	entries, _ := f.partyRepo.GetEntriesBySource(ctx, inv.SourceRef())
	assert.Empty(t, entries)
	assert.Empty(t, f.stockRepo.movements)
	assert.Empty(t, f.cashRepo.movements)

	_, err = f.svc.GetByID(ctx, inv.ID)
	assert.True(t, apperror.IsNotFound(err))

	// Round-trip law: create-then-delete leaves every ledger exactly as
	// it started.
	balance, _ := f.partyRepo.GetBalance(ctx, f.customer.ID)
	assert.True(t, balance.IsZero())
}

func TestService_Delete_RejectsTamperedLedgerRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, f.saleIntent("2"))
	require.NoError(t, err)

	// Corrupt the party entry behind the invoice's source tuple so it no
	// longer matches the stored total.
	entries, err := f.partyRepo.GetEntriesBySource(ctx, inv.SourceRef())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	tampered := entries[0]
	tampered.Amount = tampered.Amount.Add(types.MustMoney("1"))
	f.partyRepo.entries[tampered.LineID] = tampered

	err = f.svc.Delete(ctx, inv.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConsistencyViolation, appErr.Code)

	// The check fires before any reversal: the invoice and every other
	// ledger row are still in place.
	_, err = f.svc.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, f.stockRepo.movements, 1)
	assert.Len(t, f.cashRepo.movements, 1)
}

func TestService_Update_RejectsTamperedLedgerRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, f.saleIntent("2"))
	require.NoError(t, err)

	entries, err := f.partyRepo.GetEntriesBySource(ctx, inv.SourceRef())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	tampered := entries[0]
	tampered.Amount = types.MustMoney("999.99")
	f.partyRepo.entries[tampered.LineID] = tampered

	_, err = f.svc.Update(ctx, inv.ID, f.saleIntent("5"))
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConsistencyViolation, appErr.Code)
}

func TestService_Create_Purchase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	supplierID := f.supplier.ID
	accountID := f.accountID
	inv, err := f.svc.Create(ctx, Intent{
		Type:          TypePurchase,
		Date:          time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		PartyID:       &supplierID,
		PaymentMethod: PaymentWire,
		CashAccountID: &accountID,
		Lines: []LineIntent{{
			ProductID: f.product.ID,
			Quantity:  types.MustMoney("10"),
			UnitPrice: types.MustMoney("60"),
			TaxRate:   types.MustMoney("18"),
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, "ALS-2026-00001", inv.Number)
	assert.True(t, f.stockQty(t).Equal(types.MustMoney("110")), "purchase increases stock")
	assert.True(t, f.cashBalance(t).Equal(types.MustMoney("-708.00")), "purchase pays out")

	entries, _ := f.partyRepo.GetEntriesBySource(ctx, inv.SourceRef())
	require.Len(t, entries, 1)
	assert.Equal(t, entity.EntryDebit, entries[0].Direction)
}

func TestService_Create_OpenAccountSale_NoCashMovement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	intent := f.saleIntent("1")
	intent.PaymentMethod = PaymentOpenAccount
	intent.CashAccountID = nil
	due := intent.Date.AddDate(0, 1, 0)
	intent.DueDate = &due

	inv, err := f.svc.Create(ctx, intent)
	require.NoError(t, err)

	assert.Empty(t, f.cashRepo.movements, "open account creates no cash movement")

	entries, _ := f.partyRepo.GetEntriesBySource(ctx, inv.SourceRef())
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].DueDate)
	assert.True(t, entries[0].DueDate.Equal(due))
}

func TestService_Create_OpeningBalance_PartyOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	customerID := f.customer.ID
	inv, err := f.svc.Create(ctx, Intent{
		Type:          TypeOpeningBalance,
		Date:          time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		PartyID:       &customerID,
		PaymentMethod: PaymentIneffective,
		Lines: []LineIntent{{
			ProductID: f.product.ID,
			Quantity:  types.MustMoney("1"),
			UnitPrice: types.MustMoney("1500"),
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, "ACL-2026-00001", inv.Number)
	assert.True(t, f.stockQty(t).Equal(types.MustMoney("100")), "opening balance posts no stock")
	assert.Empty(t, f.cashRepo.movements)

	balance, _ := f.partyRepo.GetBalance(ctx, f.customer.ID)
	assert.True(t, balance.Equal(types.MustMoney("1500.00")))
}

func TestService_Create_ValidationFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("no lines", func(t *testing.T) {
		intent := f.saleIntent("1")
		intent.Lines = nil
		_, err := f.svc.Create(ctx, intent)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("missing cash account for cash payment", func(t *testing.T) {
		intent := f.saleIntent("1")
		intent.CashAccountID = nil
		_, err := f.svc.Create(ctx, intent)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("missing due date for open account", func(t *testing.T) {
		intent := f.saleIntent("1")
		intent.PaymentMethod = PaymentOpenAccount
		intent.CashAccountID = nil
		_, err := f.svc.Create(ctx, intent)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("missing party for sale", func(t *testing.T) {
		intent := f.saleIntent("1")
		intent.PartyID = nil
		_, err := f.svc.Create(ctx, intent)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("tax rate out of range", func(t *testing.T) {
		intent := f.saleIntent("1")
		intent.Lines[0].TaxRate = types.MustMoney("101")
		_, err := f.svc.Create(ctx, intent)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("unknown product", func(t *testing.T) {
		intent := f.saleIntent("1")
		intent.Lines[0].ProductID = id.New()
		_, err := f.svc.Create(ctx, intent)
		assert.True(t, apperror.IsNotFound(err))
	})

	// Nothing was applied by any failed attempt.
	assert.True(t, f.stockQty(t).Equal(types.MustMoney("100")))
	assert.Empty(t, f.stockRepo.movements)
	assert.Empty(t, f.cashRepo.movements)
	assert.Empty(t, f.partyRepo.entries)
}

func TestService_Create_SaleReturn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sale, err := f.svc.Create(ctx, f.saleIntent("2"))
	require.NoError(t, err)

	customerID := f.customer.ID
	accountID := f.accountID
	saleID := sale.ID
	ret, err := f.svc.Create(ctx, Intent{
		Type:              TypeSaleReturn,
		Date:              sale.Date.AddDate(0, 0, 3),
		PartyID:           &customerID,
		PaymentMethod:     PaymentCash,
		CashAccountID:     &accountID,
		OriginalInvoiceID: &saleID,
		Lines: []LineIntent{{
			ProductID: f.product.ID,
			Quantity:  types.MustMoney("1"),
			UnitPrice: types.MustMoney("100"),
			TaxRate:   types.MustMoney("18"),
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, "SIA-2026-00002", ret.Number)
	assert.Equal(t, entity.SourceInvoiceReturn, ret.SourceRef().SourceKind)

	// Sale took stock 100->98, return brings one back.
	assert.True(t, f.stockQty(t).Equal(types.MustMoney("99")))
	// Sale collected 236, return refunds 118.
	assert.True(t, f.cashBalance(t).Equal(types.MustMoney("118.00")))

	entries, _ := f.partyRepo.GetEntriesBySource(ctx, ret.SourceRef())
	require.Len(t, entries, 1)
	assert.Equal(t, entity.EntryDebit, entries[0].Direction)
}

func TestService_ConvertOrderToInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	orderID := id.New()
	f.orders.orders[orderID] = &ConvertibleOrder{
		OrderID: orderID,
		Kind:    OrderSale,
		PartyID: f.customer.ID,
		Lines: []LineIntent{{
			ProductID: f.product.ID,
			Quantity:  types.MustMoney("2"),
			UnitPrice: types.MustMoney("100"),
			TaxRate:   types.MustMoney("18"),
		}},
	}

	accountID := f.accountID
	inv, err := f.svc.ConvertOrderToInvoice(ctx, orderID, PaymentCash, &accountID, nil)
	require.NoError(t, err)

	assert.Equal(t, TypeSale, inv.Type)
	assert.True(t, f.orders.orders[orderID].Invoiced)
	assert.Equal(t, inv.ID, f.orders.invoiceOf[orderID])

	// Postings match a direct Create with the same lines.
	assert.True(t, f.stockQty(t).Equal(types.MustMoney("98")))
	assert.True(t, f.cashBalance(t).Equal(types.MustMoney("236.00")))

	_, err = f.svc.ConvertOrderToInvoice(ctx, orderID, PaymentCash, &accountID, nil)
	require.Error(t, err, "an order converts exactly once")
}

func TestService_Create_DocumentDiscount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	intent := f.saleIntent("2")
	intent.DiscountKind = arith.DiscountPercent
	intent.DiscountValue = types.MustMoney("10")

	inv, err := f.svc.Create(ctx, intent)
	require.NoError(t, err)

	// sum exclusive 200, 10% document discount = 20, off the top of both
	// totals; tax is unchanged.
	assert.True(t, inv.AppliedDiscount.Equal(types.MustMoney("20.00")))
	assert.True(t, inv.TotalExclusive.Equal(types.MustMoney("180.00")))
	assert.True(t, inv.TotalInclusive.Equal(types.MustMoney("216.00")))
	assert.True(t, inv.TotalTax.Equal(types.MustMoney("36.00")))

	assert.True(t, f.cashBalance(t).Equal(types.MustMoney("216.00")))
}

func TestService_StockInvariantAcrossOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.saleIntent("2"))
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, first.ID, f.saleIntent("4"))
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, f.saleIntent("3"))
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, second.ID))

	// quantity == seeded 100 + sum of signed movements, always
	sum, err := f.stockRepo.SumSignedQuantity(ctx, f.product.ID)
	require.NoError(t, err)
	assert.True(t, f.stockQty(t).Equal(types.MustMoney("100").Add(sum)))
	assert.True(t, f.stockQty(t).Equal(types.MustMoney("96")))
}
