package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ishop/internal/amqp"
	"ishop/internal/core"
	"ishop/internal/notify"
	"ishop/internal/storage"
)

// ItemReader is the slice of storage the worker needs: a reminder is
// only as fresh as the item it talks about.
type ItemReader interface {
	GetItem(ctx context.Context, id string) (core.GroceryItem, error)
}

// ReminderWorker owns the pending-reminder set. It consumes schedule and
// cancel messages from the bus and fires reminders whose time has come,
// re-reading item state at fire time so the text reflects the current
// quantity rather than the one captured when the reminder was
// registered.
type ReminderWorker struct {
	items   ItemReader
	pending *notify.MemoryScheduler
}

func NewReminderWorker(items ItemReader) *ReminderWorker {
	return &ReminderWorker{
		items:   items,
		pending: notify.NewMemoryScheduler(),
	}
}

// HandleMessage applies one schedule or cancel request to the pending
// set.
func (w *ReminderWorker) HandleMessage(ctx context.Context, msg *amqp.ReminderMessage) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("validate reminder message: %w", err)
	}

	switch msg.Action {
	case amqp.ActionSchedule:
		if err := w.pending.Schedule(ctx, msg.Tag, msg.FireSpec(), *msg.Payload); err != nil {
			return fmt.Errorf("register reminder: %w", err)
		}
		slog.InfoContext(ctx, "Reminder registered",
			"tag", msg.Tag,
			"category", msg.Payload.Category,
			"item_id", msg.Payload.ItemID)
	case amqp.ActionCancel:
		if err := w.pending.Cancel(ctx, msg.Tags...); err != nil {
			return fmt.Errorf("cancel reminders: %w", err)
		}
		slog.InfoContext(ctx, "Reminders cancelled", "tags", msg.Tags)
	}
	return nil
}

// DispatchDue fires every reminder due at now and returns how many were
// delivered. Reminders for items that no longer exist are dropped
// silently; the deletion raced the fire time and the user no longer
// cares.
func (w *ReminderWorker) DispatchDue(ctx context.Context, now time.Time) int {
	delivered := 0
	for _, p := range w.pending.Due(now) {
		if w.deliver(ctx, p) {
			delivered++
		}
	}
	return delivered
}

func (w *ReminderWorker) deliver(ctx context.Context, p notify.PendingReminder) bool {
	payload := p.Payload

	if w.items != nil {
		item, err := w.items.GetItem(ctx, payload.ItemID)
		if errors.Is(err, storage.ErrNotFound) {
			slog.InfoContext(ctx, "Dropping reminder for deleted item",
				"tag", p.Tag, "item_id", payload.ItemID)
			return false
		}
		if err != nil {
			// Deliver with the registered text rather than lose the
			// reminder over a read error.
			slog.WarnContext(ctx, "Could not refresh item for reminder",
				"tag", p.Tag, "item_id", payload.ItemID, "error", err)
		} else if payload.Category == notify.CategoryLowStock {
			payload.Body = fmt.Sprintf("%s is running low. You have %d left.", item.Name, item.Quantity)
		}
	}

	slog.InfoContext(ctx, "Reminder fired",
		"tag", p.Tag,
		"category", payload.Category,
		"title", payload.Title,
		"body", payload.Body,
		"item_id", payload.ItemID)
	return true
}

// Run dispatches due reminders on a fixed tick until ctx is cancelled.
func (w *ReminderWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if n := w.DispatchDue(ctx, now); n > 0 {
				slog.InfoContext(ctx, "Dispatched due reminders", "count", n)
			}
		}
	}
}

// PendingTags exposes the registered tags, sorted, for health reporting.
func (w *ReminderWorker) PendingTags() []string {
	return w.pending.Tags()
}
