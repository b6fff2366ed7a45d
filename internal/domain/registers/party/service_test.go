package party

import (
	"context"
	"sort"
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
	entries  map[id.ID]entity.PartyEntry
	balances map[id.ID]types.Money
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		entries:  make(map[id.ID]entity.PartyEntry),
		balances: make(map[id.ID]types.Money),
	}
}

func (r *memoryRepo) CreateEntry(_ context.Context, e entity.PartyEntry) error {
	r.entries[e.LineID] = e
	return nil
}

func (r *memoryRepo) GetEntry(_ context.Context, lineID id.ID) (entity.PartyEntry, error) {
	e, ok := r.entries[lineID]
	if !ok {
		return entity.PartyEntry{}, apperror.NewNotFound("party entry", lineID)
	}
	return e, nil
}

func (r *memoryRepo) DeleteEntry(_ context.Context, lineID id.ID) error {
	delete(r.entries, lineID)
	return nil
}

func (r *memoryRepo) GetEntriesBySource(_ context.Context, src entity.SourceRef) ([]entity.PartyEntry, error) {
	var out []entity.PartyEntry
	for _, e := range r.entries {
		if e.SourceRef.Matches(src) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryRepo) GetEntriesByParty(_ context.Context, partyID id.ID, _ EntryFilter) ([]entity.PartyEntry, error) {
	var out []entity.PartyEntry
	for _, e := range r.entries {
		if e.PartyID == partyID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *memoryRepo) SumNetBalance(_ context.Context, partyID id.ID) (types.Money, error) {
	sum := types.Zero()
	for _, e := range r.entries {
		if e.PartyID == partyID {
			sum = sum.Add(e.SignedAmount())
		}
	}
	return sum, nil
}

func (r *memoryRepo) SetBalance(_ context.Context, partyID id.ID, balance types.Money) error {
	r.balances[partyID] = balance
	return nil
}

func (r *memoryRepo) GetBalance(_ context.Context, partyID id.ID) (types.Money, error) {
	return r.balances[partyID], nil
}

func TestService_Post(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo)
	partyID := id.New()

	_, err := svc.Post(ctx, PostInput{
		PartyID:   partyID,
		PartyKind: entity.PartyCustomer,
		Date:      time.Now(),
		Direction: entity.EntryCredit,
		Amount:    types.MustMoney("236.00"),
		Source:    entity.InvoiceSource(id.New()),
	})
	require.NoError(t, err)

	balance, err := repo.GetBalance(ctx, partyID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(types.MustMoney("236.00")), "cached balance follows the ledger")

	// A collection debits the customer back down.
	_, err = svc.Post(ctx, PostInput{
		PartyID:   partyID,
		PartyKind: entity.PartyCustomer,
		Date:      time.Now(),
		Direction: entity.EntryDebit,
		Amount:    types.MustMoney("100.00"),
		Source:    entity.SourceRef{SourceKind: entity.SourceCollection, SourceID: id.New()},
	})
	require.NoError(t, err)

	net, err := svc.NetBalance(ctx, partyID)
	require.NoError(t, err)
	assert.True(t, net.Equal(types.MustMoney("136.00")))
}

func TestService_Post_RejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRepo())

	_, err := svc.Post(ctx, PostInput{
		PartyID:   id.New(),
		Direction: entity.EntryCredit,
		Amount:    types.MustMoney("-1"),
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Post(ctx, PostInput{
		PartyID:   id.New(),
		Direction: "both",
		Amount:    types.MustMoney("1"),
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestService_ReverseBySource(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo)
	partyID := id.New()
	src := entity.InvoiceSource(id.New())

	_, err := svc.Post(ctx, PostInput{
		PartyID:   partyID,
		PartyKind: entity.PartyCustomer,
		Date:      time.Now(),
		Direction: entity.EntryCredit,
		Amount:    types.MustMoney("590.00"),
		Source:    src,
	})
	require.NoError(t, err)

	require.NoError(t, svc.ReverseBySource(ctx, src))

	balance, _ := repo.GetBalance(ctx, partyID)
	assert.True(t, balance.IsZero(), "reversal must zero the balance effect")

	rows, _ := repo.GetEntriesBySource(ctx, src)
	assert.Empty(t, rows)

	// Unknown tuple: no-op, no error.
	require.NoError(t, svc.ReverseBySource(ctx, entity.InvoiceSource(id.New())))
}

func TestService_DeleteEntry(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo)
	partyID := id.New()

	invoiced, err := svc.Post(ctx, PostInput{
		PartyID:   partyID,
		PartyKind: entity.PartyCustomer,
		Date:      time.Now(),
		Direction: entity.EntryCredit,
		Amount:    types.MustMoney("50.00"),
		Source:    entity.InvoiceSource(id.New()),
	})
	require.NoError(t, err)

	err = svc.DeleteEntry(ctx, invoiced.LineID)
	assert.True(t, apperror.IsValidation(err), "invoice rows must not be deletable directly")

	manual, err := svc.Post(ctx, PostInput{
		PartyID:   partyID,
		PartyKind: entity.PartyCustomer,
		Date:      time.Now(),
		Direction: entity.EntryCredit,
		Amount:    types.MustMoney("10.00"),
		Source:    entity.SourceRef{SourceKind: entity.SourceManualDebt, SourceID: id.New()},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEntry(ctx, manual.LineID))

	balance, _ := repo.GetBalance(ctx, partyID)
	assert.True(t, balance.Equal(types.MustMoney("50.00")))
}

func TestService_Statement(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo)
	partyID := id.New()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	post := func(day int, dir entity.EntryDirection, amount string) {
		_, err := svc.Post(ctx, PostInput{
			PartyID:   partyID,
			PartyKind: entity.PartyCustomer,
			Date:      base.AddDate(0, 0, day),
			Direction: dir,
			Amount:    types.MustMoney(amount),
			Source:    entity.InvoiceSource(id.New()),
		})
		require.NoError(t, err)
	}

	post(0, entity.EntryCredit, "100.00")
	post(1, entity.EntryDebit, "40.00")
	post(2, entity.EntryCredit, "25.00")

	lines, err := svc.Statement(ctx, partyID, EntryFilter{})
	require.NoError(t, err)
	require.Len(t, lines, 3)

	assert.True(t, lines[0].Running.Equal(types.MustMoney("100.00")))
	assert.True(t, lines[1].Running.Equal(types.MustMoney("60.00")))
	assert.True(t, lines[2].Running.Equal(types.MustMoney("85.00")))
}

func TestService_Reconcile(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo)
	partyID := id.New()

	_, err := svc.Post(ctx, PostInput{
		PartyID:   partyID,
		PartyKind: entity.PartySupplier,
		Date:      time.Now(),
		Direction: entity.EntryDebit,
		Amount:    types.MustMoney("30.00"),
		Source:    entity.SourceRef{SourceKind: entity.SourcePayment, SourceID: id.New()},
	})
	require.NoError(t, err)

	require.NoError(t, repo.SetBalance(ctx, partyID, types.MustMoney("5.00")))

	drift, err := svc.Reconcile(ctx, partyID)
	require.NoError(t, err)
	assert.True(t, drift.Equal(types.MustMoney("35.00")))

	balance, _ := repo.GetBalance(ctx, partyID)
	assert.True(t, balance.Equal(types.MustMoney("-30.00")))
}
