package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"techaura/gatekeeper/pkg/order"
)

// repoFactory lets the same test suite run against every backend.
type repoFactory func(t *testing.T) order.Repository

func TestRepositories(t *testing.T) {
	backends := map[string]repoFactory{
		"memory": func(t *testing.T) order.Repository {
			return NewMemoryRepository()
		},
		"sqlite": func(t *testing.T) order.Repository {
			repo, err := NewSQLiteRepository(SQLiteConfig{
				DBPath: filepath.Join(t.TempDir(), "orders.db"),
			})
			if err != nil {
				t.Fatalf("Failed to open sqlite repository: %v", err)
			}
			return repo
		},
	}

	for name, factory := range backends {
		t.Run(name, func(t *testing.T) {
			t.Run("SaveAndFind", func(t *testing.T) { testSaveAndFind(t, factory(t)) })
			t.Run("FindMissing", func(t *testing.T) { testFindMissing(t, factory(t)) })
			t.Run("FindByPhone", func(t *testing.T) { testFindByPhone(t, factory(t)) })
			t.Run("Update", func(t *testing.T) { testUpdate(t, factory(t)) })
			t.Run("HistoryRoundTrip", func(t *testing.T) { testHistoryRoundTrip(t, factory(t)) })
		})
	}
}

func testSaveAndFind(t *testing.T, repo order.Repository) {
	defer repo.Close()
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	o := order.New("TA-100", "+5215511111111", now)
	if err := repo.Save(ctx, o); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := repo.Find(ctx, "TA-100")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected order, got nil")
	}
	if got.Phone != o.Phone || got.Status != order.StatusNeedsIntent {
		t.Errorf("Round trip mismatch: %+v", got)
	}
}

func testFindMissing(t *testing.T, repo order.Repository) {
	defer repo.Close()

	got, err := repo.Find(context.Background(), "TA-nope")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing order, got %+v", got)
	}
}

func testFindByPhone(t *testing.T, repo order.Repository) {
	defer repo.Close()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	phone := "+5215522222222"

	for i, number := range []string{"TA-201", "TA-202", "TA-203"} {
		o := order.New(number, phone, base.Add(time.Duration(i)*24*time.Hour))
		if err := repo.Save(ctx, o); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
	// A different customer's order must not leak in.
	other := order.New("TA-999", "+5215533333333", base)
	if err := repo.Save(ctx, other); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := repo.FindByPhone(ctx, phone)
	if err != nil {
		t.Fatalf("FindByPhone failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 orders, got %d", len(got))
	}
	// Newest first.
	if got[0].Number != "TA-203" || got[2].Number != "TA-201" {
		t.Errorf("Expected newest-first ordering, got %s..%s", got[0].Number, got[2].Number)
	}
}

func testUpdate(t *testing.T, repo order.Repository) {
	defer repo.Close()
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	o := order.New("TA-300", "+5215544444444", now)
	if err := repo.Save(ctx, o); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := o.Advance(order.StatusNeedsCapacity, now.Add(time.Minute), "picked 64GB", "flow"); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	o.ConfirmShipping(now.Add(2 * time.Minute))
	if err := repo.Save(ctx, o); err != nil {
		t.Fatalf("Re-save failed: %v", err)
	}

	got, err := repo.Find(ctx, "TA-300")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if got.Status != order.StatusNeedsCapacity {
		t.Errorf("Expected NEEDS_CAPACITY, got %s", got.Status)
	}
	if !got.ShippingConfirmed {
		t.Error("Expected shipping_confirmed to persist")
	}
}

func testHistoryRoundTrip(t *testing.T, repo order.Repository) {
	defer repo.Close()
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	o := order.New("TA-400", "+5215555555555", now)
	if err := o.Advance(order.StatusNeedsCapacity, now.Add(time.Minute), "reason-a", "flow"); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if err := repo.Save(ctx, o); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := repo.Find(ctx, "TA-400")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(got.History) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(got.History))
	}
	last := got.History[1]
	if last.From != order.StatusNeedsIntent || last.To != order.StatusNeedsCapacity {
		t.Errorf("Unexpected history edge: %s -> %s", last.From, last.To)
	}
	if last.Reason != "reason-a" || last.Actor != "flow" {
		t.Errorf("History metadata lost: %+v", last)
	}
}
