package cash

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
)

type memoryRepo struct {
	movements map[id.ID]entity.CashMovement
	opening   map[id.ID]types.Money
	balances  map[id.ID]types.Money
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		movements: make(map[id.ID]entity.CashMovement),
		opening:   make(map[id.ID]types.Money),
		balances:  make(map[id.ID]types.Money),
	}
}

func (r *memoryRepo) CreateMovement(_ context.Context, m entity.CashMovement) error {
	r.movements[m.LineID] = m
	return nil
}

func (r *memoryRepo) GetMovement(_ context.Context, lineID id.ID) (entity.CashMovement, error) {
	m, ok := r.movements[lineID]
	if !ok {
		return entity.CashMovement{}, apperror.NewNotFound("cash movement", lineID)
	}
	return m, nil
}

func (r *memoryRepo) DeleteMovement(_ context.Context, lineID id.ID) error {
	delete(r.movements, lineID)
	return nil
}

func (r *memoryRepo) GetMovementsBySource(_ context.Context, src entity.SourceRef) ([]entity.CashMovement, error) {
	var out []entity.CashMovement
	for _, m := range r.movements {
		if m.SourceRef.Matches(src) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memoryRepo) GetMovementsByAccount(_ context.Context, accountID id.ID, _ MovementFilter) ([]entity.CashMovement, error) {
	var out []entity.CashMovement
	for _, m := range r.movements {
		if m.AccountID == accountID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memoryRepo) SumSignedAmount(_ context.Context, accountID id.ID) (types.Money, error) {
	sum := types.Zero()
	for _, m := range r.movements {
		if m.AccountID == accountID {
			sum = sum.Add(m.SignedAmount())
		}
	}
	return sum, nil
}

func (r *memoryRepo) GetOpeningBalance(_ context.Context, accountID id.ID) (types.Money, error) {
	return r.opening[accountID], nil
}

func (r *memoryRepo) GetBalance(_ context.Context, accountID id.ID) (types.Money, error) {
	return r.balances[accountID], nil
}

func (r *memoryRepo) SetBalance(_ context.Context, accountID id.ID, balance types.Money) error {
	r.balances[accountID] = balance
	return nil
}

func TestService_Append(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo)
	accountID := id.New()
	repo.opening[accountID] = types.MustMoney("1000.00")

	_, err := svc.Append(ctx, AppendInput{
		AccountID: accountID,
		Date:      time.Now(),
		Kind:      entity.CashKindInvoice,
		Direction: entity.CashIn,
		Amount:    types.MustMoney("236.00"),
		Source:    entity.InvoiceSource(id.New()),
	})
	require.NoError(t, err)

	balance, err := repo.GetBalance(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(types.MustMoney("1236.00")), "balance = opening + signed movements")

	_, err = svc.Append(ctx, AppendInput{
		AccountID: accountID,
		Date:      time.Now(),
		Kind:      entity.CashKindExpense,
		Direction: entity.CashOut,
		Amount:    types.MustMoney("36.00"),
		Source:    entity.SourceRef{SourceKind: entity.SourceIncomeExpense, SourceID: id.New()},
	})
	require.NoError(t, err)

	current, err := svc.CurrentBalance(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, current.Equal(types.MustMoney("1200.00")))
}

func TestService_Append_RejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRepo())

	_, err := svc.Append(ctx, AppendInput{
		AccountID: id.New(),
		Direction: entity.CashIn,
		Amount:    types.Zero(),
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Append(ctx, AppendInput{
		AccountID: id.New(),
		Direction: "through",
		Amount:    types.MustMoney("1"),
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestService_ReverseBySource(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo)
	accountID := id.New()
	src := entity.InvoiceSource(id.New())

	_, err := svc.Append(ctx, AppendInput{
		AccountID: accountID,
		Date:      time.Now(),
		Kind:      entity.CashKindInvoice,
		Direction: entity.CashIn,
		Amount:    types.MustMoney("590.00"),
		Source:    src,
	})
	require.NoError(t, err)

	require.NoError(t, svc.ReverseBySource(ctx, src))

	balance, _ := repo.GetBalance(ctx, accountID)
	assert.True(t, balance.IsZero())

	rows, _ := repo.GetMovementsBySource(ctx, src)
	assert.Empty(t, rows)

	require.NoError(t, svc.ReverseBySource(ctx, src), "repeated reversal is a no-op")
}

func TestService_DeleteManual(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo)
	accountID := id.New()

	invoiced, err := svc.Append(ctx, AppendInput{
		AccountID: accountID,
		Date:      time.Now(),
		Kind:      entity.CashKindInvoice,
		Direction: entity.CashIn,
		Amount:    types.MustMoney("100.00"),
		Source:    entity.InvoiceSource(id.New()),
	})
	require.NoError(t, err)

	err = svc.DeleteManual(ctx, invoiced.LineID)
	assert.True(t, apperror.IsValidation(err), "invoice rows must not be deletable directly")

	manual, err := svc.Append(ctx, AppendInput{
		AccountID: accountID,
		Date:      time.Now(),
		Kind:      entity.CashKindManual,
		Direction: entity.CashIn,
		Amount:    types.MustMoney("25.00"),
		Source:    entity.SourceRef{SourceKind: entity.SourceManual, SourceID: id.New()},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteManual(ctx, manual.LineID))

	balance, _ := repo.GetBalance(ctx, accountID)
	assert.True(t, balance.Equal(types.MustMoney("100.00")))
}

func TestService_Reconcile(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo)
	accountID := id.New()
	repo.opening[accountID] = types.MustMoney("500.00")

	_, err := svc.Append(ctx, AppendInput{
		AccountID: accountID,
		Date:      time.Now(),
		Kind:      entity.CashKindIncome,
		Direction: entity.CashIn,
		Amount:    types.MustMoney("50.00"),
		Source:    entity.SourceRef{SourceKind: entity.SourceIncomeExpense, SourceID: id.New()},
	})
	require.NoError(t, err)

	require.NoError(t, repo.SetBalance(ctx, accountID, types.MustMoney("540.00")))

	drift, err := svc.Reconcile(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, drift.Equal(types.MustMoney("-10.00")))

	balance, _ := repo.GetBalance(ctx, accountID)
	assert.True(t, balance.Equal(types.MustMoney("550.00")))
}
