package category

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"techaura/gatekeeper/pkg/order"
	"techaura/gatekeeper/pkg/order/storage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLookup_NoOrders(t *testing.T) {
	gate := New(storage.NewMemoryRepository(), quietLogger())

	s := gate.Lookup(context.Background(), "+5215511111111")
	if s.Suppressed {
		t.Errorf("Expected not suppressed with no orders, got %+v", s)
	}
}

func TestLookup_ShippingConfirmedSuppresses(t *testing.T) {
	repo := storage.NewMemoryRepository()
	gate := New(repo, quietLogger())
	ctx := context.Background()
	now := time.Now()

	o := order.New("TA-1", "+5215522222222", now)
	o.ConfirmShipping(now)
	if err := repo.Save(ctx, o); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	s := gate.Lookup(ctx, "+5215522222222")
	if !s.Suppressed {
		t.Fatal("Expected suppression for shipping-confirmed order")
	}
	if s.Cause != "shipping confirmed" {
		t.Errorf("Unexpected cause: %q", s.Cause)
	}
	if s.OrderNumber != "TA-1" {
		t.Errorf("Unexpected order number: %q", s.OrderNumber)
	}
}

func TestLookup_EarlyStageOrderDoesNotSuppress(t *testing.T) {
	repo := storage.NewMemoryRepository()
	gate := New(repo, quietLogger())
	ctx := context.Background()

	o := order.New("TA-2", "+5215533333333", time.Now())
	if err := repo.Save(ctx, o); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if s := gate.Lookup(ctx, "+5215533333333"); s.Suppressed {
		t.Errorf("Expected no suppression for NEEDS_INTENT order, got %+v", s)
	}
}

// failingRepo always errors, standing in for a storage outage.
type failingRepo struct{}

func (failingRepo) Save(ctx context.Context, o *order.Order) error          { return errors.New("down") }
func (failingRepo) Find(ctx context.Context, n string) (*order.Order, error) { return nil, errors.New("down") }
func (failingRepo) FindByPhone(ctx context.Context, p string) ([]*order.Order, error) {
	return nil, errors.New("down")
}
func (failingRepo) Close() error { return nil }

func TestLookup_RepositoryErrorFailsOpen(t *testing.T) {
	gate := New(failingRepo{}, quietLogger())

	s := gate.Lookup(context.Background(), "+5215544444444")
	if s.Suppressed {
		t.Error("Repository failure must fail open, not suppress")
	}
}
