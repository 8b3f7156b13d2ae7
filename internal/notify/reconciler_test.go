package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"ishop/internal/core"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func stockItem(id string, qty, threshold int) core.GroceryItem {
	return core.GroceryItem{
		ID: id, ListID: "list-1", Name: "Milk",
		Quantity: qty, QuantityThreshold: threshold,
		DateAdded: time.Now(),
	}
}

func TestReconcileLowStockSchedulesThenCancels(t *testing.T) {
	ctx := context.Background()
	scheduler := NewMemoryScheduler()
	r := NewReconciler(scheduler)

	// quantity 1, threshold 2: low stock, reminder scheduled.
	item := stockItem("i1", 1, 2)
	if err := r.ReconcileLowStock(ctx, item); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	p, ok := scheduler.Pending(LowStockTag("i1"))
	if !ok {
		t.Fatalf("expected pending low-stock reminder")
	}
	if !p.Fire.Relative() || p.Fire.After != LowStockDelay {
		t.Fatalf("expected %v relative delay, got %+v", LowStockDelay, p.Fire)
	}
	if p.Payload.Category != CategoryLowStock {
		t.Fatalf("unexpected category %q", p.Payload.Category)
	}

	// quantity back to 3: reconcile cancels and does not reschedule.
	item.Quantity = 3
	if err := r.ReconcileLowStock(ctx, item); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if _, ok := scheduler.Pending(LowStockTag("i1")); ok {
		t.Fatalf("reminder should be cancelled once stock recovers")
	}
}

func TestReconcileLowStockIdempotent(t *testing.T) {
	ctx := context.Background()
	scheduler := NewMemoryScheduler()
	r := NewReconciler(scheduler)

	item := stockItem("i1", 1, 2)
	for range 3 {
		if err := r.ReconcileLowStock(ctx, item); err != nil {
			t.Fatalf("reconcile failed: %v", err)
		}
	}
	if got := scheduler.PendingCount(); got != 1 {
		t.Fatalf("repeated reconciles must not duplicate reminders, got %d", got)
	}
}

func TestReconcileLowStockDisabledThreshold(t *testing.T) {
	ctx := context.Background()
	scheduler := NewMemoryScheduler()
	r := NewReconciler(scheduler)

	if err := r.ReconcileLowStock(ctx, stockItem("i1", 0, 0)); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if scheduler.PendingCount() != 0 {
		t.Fatalf("zero threshold must never schedule")
	}
}

func TestReconcileExpiration(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		expires   time.Time
		scheduled bool
	}{
		{"no expiration", time.Time{}, false},
		{"expires in five days", now.Add(5 * 24 * time.Hour), true},
		{"expires tomorrow, fire time already past", now.Add(24 * time.Hour), false},
		{"already expired", now.Add(-24 * time.Hour), false},
	}

	for _, tc := range cases {
		scheduler := NewMemoryScheduler()
		r := NewReconciler(scheduler)
		r.now = fixedClock(now)

		item := stockItem("i1", 5, 0)
		item.ExpirationDate = tc.expires
		if err := r.ReconcileExpiration(ctx, item); err != nil {
			t.Fatalf("%s: reconcile failed: %v", tc.name, err)
		}

		p, ok := scheduler.Pending(ExpirationTag("i1"))
		if ok != tc.scheduled {
			t.Fatalf("%s: scheduled=%v, expected %v", tc.name, ok, tc.scheduled)
		}
		if tc.scheduled {
			want := tc.expires.Add(-core.NotifyExpiryWindow)
			if !p.Fire.At.Equal(want) {
				t.Fatalf("%s: expected fire at %v, got %v", tc.name, want, p.Fire.At)
			}
		}
	}
}

func TestCancelAllEmptiesBothTags(t *testing.T) {
	ctx := context.Background()
	scheduler := NewMemoryScheduler()
	r := NewReconciler(scheduler)
	r.now = fixedClock(time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC))

	item := stockItem("i1", 1, 2)
	item.ExpirationDate = time.Date(2025, 4, 20, 12, 0, 0, 0, time.UTC)
	if err := r.ReconcileLowStock(ctx, item); err != nil {
		t.Fatalf("reconcile low stock: %v", err)
	}
	if err := r.ReconcileExpiration(ctx, item); err != nil {
		t.Fatalf("reconcile expiration: %v", err)
	}
	if scheduler.PendingCount() != 2 {
		t.Fatalf("expected both reminders pending, got %d", scheduler.PendingCount())
	}

	if err := r.CancelAll(ctx, "i1"); err != nil {
		t.Fatalf("cancel all: %v", err)
	}
	if scheduler.PendingCount() != 0 {
		t.Fatalf("both tags must be absent after cancelAll, got %v", scheduler.Tags())
	}
}

type failingScheduler struct {
	err error
}

func (f failingScheduler) Schedule(context.Context, string, FireSpec, Payload) error { return f.err }
func (f failingScheduler) Cancel(context.Context, ...string) error                   { return f.err }

func TestRegistrationFailuresAreTyped(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("bus down")
	r := NewReconciler(failingScheduler{err: cause})

	err := r.ReconcileLowStock(ctx, stockItem("i1", 1, 2))
	var regErr *RegistrationError
	if !errors.As(err, &regErr) {
		t.Fatalf("expected RegistrationError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause")
	}
}
