package notify

import (
	"context"
	"fmt"
	"time"

	"ishop/internal/core"
)

// LowStockDelay is the fixed delay before a low-stock reminder fires.
// Unlike expiration reminders it is not calendar-based: low stock is
// already true now, the delay only debounces rapid quantity edits. The
// asymmetry with ReconcileExpiration is intentional and load-bearing.
const LowStockDelay = 5 * time.Second

// LowStockTag returns the deterministic tag for an item's low-stock
// reminder. Cancel-then-schedule on this tag is what makes reconciles
// idempotent.
func LowStockTag(itemID string) string {
	return "lowStock-" + itemID
}

// ExpirationTag returns the deterministic tag for an item's expiration
// reminder.
func ExpirationTag(itemID string) string {
	return "expiration-" + itemID
}

// RegistrationError reports a failed schedule or cancel call. It is
// returned to callers for logging and never escalated: a missed reminder
// degrades the experience but corrupts nothing.
type RegistrationError struct {
	Op  string // "schedule" or "cancel"
	Tag string
	Err error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("%s reminder %s: %v", e.Op, e.Tag, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// Reconciler aligns pending reminders with current item state after every
// commit. Each reminder pair moves Unscheduled -> Scheduled when its
// condition holds and back when it stops holding or the item is deleted.
type Reconciler struct {
	scheduler Scheduler
	now       func() time.Time
}

func NewReconciler(scheduler Scheduler) *Reconciler {
	return &Reconciler{
		scheduler: scheduler,
		now:       time.Now,
	}
}

// ReconcileLowStock cancels the item's low-stock reminder and schedules a
// fresh one only while the item is actually low on stock.
func (r *Reconciler) ReconcileLowStock(ctx context.Context, item core.GroceryItem) error {
	tag := LowStockTag(item.ID)
	if err := r.scheduler.Cancel(ctx, tag); err != nil {
		return &RegistrationError{Op: "cancel", Tag: tag, Err: err}
	}

	if !item.IsLowStock() {
		return nil
	}

	payload := Payload{
		ItemID:   item.ID,
		Category: CategoryLowStock,
		Title:    "Low Stock Alert",
		Body:     fmt.Sprintf("%s is running low. You have %d left.", item.Name, item.Quantity),
	}
	if err := r.scheduler.Schedule(ctx, tag, FireAfter(LowStockDelay), payload); err != nil {
		return &RegistrationError{Op: "schedule", Tag: tag, Err: err}
	}
	return nil
}

// ReconcileExpiration cancels the item's expiration reminder and, when
// the item expires more than the notification window from now, schedules
// a calendar-exact reminder at expiration minus that window.
func (r *Reconciler) ReconcileExpiration(ctx context.Context, item core.GroceryItem) error {
	tag := ExpirationTag(item.ID)
	if err := r.scheduler.Cancel(ctx, tag); err != nil {
		return &RegistrationError{Op: "cancel", Tag: tag, Err: err}
	}

	if item.ExpirationDate.IsZero() {
		return nil
	}
	fireAt := item.ExpirationDate.Add(-core.NotifyExpiryWindow)
	if !fireAt.After(r.now()) {
		return nil
	}

	payload := Payload{
		ItemID:   item.ID,
		Category: CategoryExpiring,
		Title:    "Expiration Alert",
		Body:     fmt.Sprintf("%s expires in 2 days. Use it soon!", item.Name),
	}
	if err := r.scheduler.Schedule(ctx, tag, FireAt(fireAt), payload); err != nil {
		return &RegistrationError{Op: "schedule", Tag: tag, Err: err}
	}
	return nil
}

// CancelAll drops both reminders for an item. Called on deletion; the
// item stays unscheduled permanently since nothing will reconcile it
// again.
func (r *Reconciler) CancelAll(ctx context.Context, itemID string) error {
	tags := []string{LowStockTag(itemID), ExpirationTag(itemID)}
	if err := r.scheduler.Cancel(ctx, tags...); err != nil {
		return &RegistrationError{Op: "cancel", Tag: itemID, Err: err}
	}
	return nil
}
