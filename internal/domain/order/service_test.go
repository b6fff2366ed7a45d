package order

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onmuhasebe/internal/core/apperror"
	"onmuhasebe/internal/core/id"
	"onmuhasebe/internal/core/numerator"
	"onmuhasebe/internal/core/types"
)

// --- fakes ---

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeOrderRepo struct {
	orders map[id.ID]*Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[id.ID]*Order)}
}

func (r *fakeOrderRepo) Create(_ context.Context, o *Order) error {
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, orderID id.ID) (*Order, error) {
	o, ok := r.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID)
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) Update(_ context.Context, o *Order) error {
	if _, ok := r.orders[o.ID]; !ok {
		return apperror.NewNotFound("order", o.ID)
	}
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) Delete(_ context.Context, orderID id.ID) error {
	delete(r.orders, orderID)
	return nil
}

func (r *fakeOrderRepo) SetInvoiced(_ context.Context, orderID, invoiceID id.ID) error {
	o, ok := r.orders[orderID]
	if !ok {
		return apperror.NewNotFound("order", orderID)
	}
	if o.Invoiced {
		return apperror.NewBusinessRule("ORDER_ALREADY_INVOICED", "order is already invoiced")
	}
	o.Invoiced = true
	o.InvoiceID = &invoiceID
	return nil
}

func (r *fakeOrderRepo) List(_ context.Context, _ Filter) ([]*Order, error) {
	out := make([]*Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o)
	}
	return out, nil
}

func (r *fakeOrderRepo) Count(_ context.Context, _ Filter) (int64, error) {
	return int64(len(r.orders)), nil
}

// --- helpers ---

func newTestService(repo *fakeOrderRepo) *Service {
	return NewService(fakeTxManager{}, repo, &numerator.MockGenerator{})
}

func validIntent() Intent {
	return Intent{
		Kind:    KindSale,
		Date:    time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		PartyID: id.New(),
		Lines: []LineIntent{
			{
				ProductID: id.New(),
				Quantity:  types.MustMoney("2"),
				UnitPrice: types.MustMoney("100"),
				TaxRate:   types.MustMoney("20"),
			},
		},
	}
}

// --- tests ---

func TestCreateAssignsNumberAndTotals(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo)

	o, err := svc.Create(context.Background(), validIntent())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(o.Number, "ORD-2026-"), "number %q", o.Number)
	// 100 excl * 1.20 tax * qty 2
	assert.True(t, o.TotalInclusive.Equal(types.MustMoney("240")), "total %s", o.TotalInclusive)
	assert.True(t, o.Lines[0].InclusiveTotal.Equal(types.MustMoney("240")))

	stored, err := repo.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Number, stored.Number)
}

func TestCreateRejectsEmptyLines(t *testing.T) {
	svc := newTestService(newFakeOrderRepo())

	intent := validIntent()
	intent.Lines = nil

	_, err := svc.Create(context.Background(), intent)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestCreateRejectsInvalidKind(t *testing.T) {
	svc := newTestService(newFakeOrderRepo())

	intent := validIntent()
	intent.Kind = "rental"

	_, err := svc.Create(context.Background(), intent)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestUpdateKeepsNumber(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), validIntent())
	require.NoError(t, err)

	intent := validIntent()
	intent.Lines[0].Quantity = types.MustMoney("5")

	updated, err := svc.Update(context.Background(), created.ID, intent)
	require.NoError(t, err)

	assert.Equal(t, created.Number, updated.Number)
	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, updated.TotalInclusive.Equal(types.MustMoney("600")))
}

func TestUpdateRejectsInvoicedOrder(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), validIntent())
	require.NoError(t, err)

	require.NoError(t, svc.MarkInvoiced(context.Background(), created.ID, id.New()))

	_, err = svc.Update(context.Background(), created.ID, validIntent())
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "ORDER_ALREADY_INVOICED", appErr.Code)
}

func TestDeleteRejectsInvoicedOrder(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), validIntent())
	require.NoError(t, err)

	require.NoError(t, svc.MarkInvoiced(context.Background(), created.ID, id.New()))

	err = svc.Delete(context.Background(), created.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "ORDER_ALREADY_INVOICED", appErr.Code)
}

func TestDeleteRemovesOrder(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), validIntent())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))

	_, err = svc.GetByID(context.Background(), created.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestLoadForConversionMapsLines(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo)

	intent := validIntent()
	intent.Kind = KindPurchase
	created, err := svc.Create(context.Background(), intent)
	require.NoError(t, err)

	conv, err := svc.LoadForConversion(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.ID, conv.OrderID)
	assert.Equal(t, created.PartyID, conv.PartyID)
	assert.False(t, conv.Invoiced)
	require.Len(t, conv.Lines, 1)
	assert.True(t, conv.Lines[0].Quantity.Equal(types.MustMoney("2")))
	assert.True(t, conv.Lines[0].UnitPrice.Equal(types.MustMoney("100")))
}

func TestMarkInvoicedIsOneShot(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), validIntent())
	require.NoError(t, err)

	require.NoError(t, svc.MarkInvoiced(context.Background(), created.ID, id.New()))
	err = svc.MarkInvoiced(context.Background(), created.ID, id.New())
	require.Error(t, err)
}
