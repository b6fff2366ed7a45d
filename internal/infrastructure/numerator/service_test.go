package numerator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	core "onmuhasebe/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the sys_sequences upsert: every call bumps the
// stored value by the increment argument (1 for strict calls).
type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64
	calls        int
}

func (m *mockQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	var increment int64 = 1
	if len(args) == 2 {
		if val, ok := args[1].(int64); ok {
			increment = val
		}
	}

	m.currentValue += increment
	return &mockRow{val: m.currentValue}
}

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := core.DefaultConfig("SAT")
	period := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		num, err := svc.GetNextNumber(ctx, cfg, nil, period)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := fmt.Sprintf("SAT-2026-%05d", i)
		if num != want {
			t.Errorf("expected %s, got %s", want, num)
		}
	}

	if q.calls != 3 {
		t.Errorf("strict strategy must hit the database per number, got %d calls", q.calls)
	}
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := core.DefaultConfig("ORD")
	period := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	opts := &core.Options{
		Strategy:  core.StrategyCached,
		RangeSize: 10,
	}

	for i := 1; i <= 10; i++ {
		num, err := svc.GetNextNumber(ctx, cfg, opts, period)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := fmt.Sprintf("ORD-2026-%05d", i)
		if num != want {
			t.Errorf("expected %s, got %s", want, num)
		}
	}

	if q.calls != 1 {
		t.Errorf("expected a single range reservation for 10 numbers, got %d calls", q.calls)
	}
	if q.currentValue != 10 {
		t.Errorf("expected reserved max of 10, got %d", q.currentValue)
	}

	// Eleventh number exhausts the range and reserves a fresh one.
	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "ORD-2026-00011" {
		t.Errorf("expected ORD-2026-00011, got %s", num)
	}
	if q.calls != 2 {
		t.Errorf("expected second reservation, got %d calls", q.calls)
	}
}

func TestGetNextNumber_KeySeparation(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	period := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	opts := &core.Options{Strategy: core.StrategyCached, RangeSize: 5}

	numA, err := svc.GetNextNumber(ctx, core.DefaultConfig("SAT"), opts, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	numB, err := svc.GetNextNumber(ctx, core.DefaultConfig("ALS"), opts, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if numA == numB {
		t.Errorf("prefixes must not share ranges: %s vs %s", numA, numB)
	}
}

func TestSetNextNumber_DropsCachedRange(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := core.DefaultConfig("ORD")
	period := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	opts := &core.Options{Strategy: core.StrategyCached, RangeSize: 10}
	if _, err := svc.GetNextNumber(ctx, cfg, opts, period); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.SetNextNumber(ctx, cfg, period, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	callsBefore := q.calls
	if _, err := svc.GetNextNumber(ctx, cfg, opts, period); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.calls == callsBefore {
		t.Error("expected a fresh range reservation after SetNextNumber")
	}
}

func TestFormatNumber_NoYear(t *testing.T) {
	cfg := core.Config{Prefix: "X", IncludeYear: false, PadWidth: 3}
	got := formatNumber(cfg, time.Now(), 7)
	if got != "X-007" {
		t.Errorf("expected X-007, got %s", got)
	}
}
