package worker

import (
	"context"
	"testing"
	"time"

	"ishop/internal/amqp"
	"ishop/internal/core"
	"ishop/internal/notify"
	"ishop/internal/storage"
)

type fakeItems map[string]core.GroceryItem

func (f fakeItems) GetItem(_ context.Context, id string) (core.GroceryItem, error) {
	item, ok := f[id]
	if !ok {
		return core.GroceryItem{}, storage.ErrNotFound
	}
	return item, nil
}

func scheduleMsg(tag string, after time.Duration, itemID string) *amqp.ReminderMessage {
	return amqp.NewScheduleMessage(tag, notify.FireAfter(after), notify.Payload{
		ItemID:   itemID,
		Category: notify.CategoryLowStock,
		Title:    "Low Stock Alert",
		Body:     "stale body",
	})
}

func TestHandleMessageScheduleAndCancel(t *testing.T) {
	ctx := context.Background()
	w := NewReminderWorker(fakeItems{})

	if err := w.HandleMessage(ctx, scheduleMsg("lowStock-i1", time.Minute, "i1")); err != nil {
		t.Fatalf("handle schedule: %v", err)
	}
	if err := w.HandleMessage(ctx, scheduleMsg("expiration-i1", time.Minute, "i1")); err != nil {
		t.Fatalf("handle schedule: %v", err)
	}
	if got := w.PendingTags(); len(got) != 2 {
		t.Fatalf("expected 2 pending tags, got %v", got)
	}

	if err := w.HandleMessage(ctx, amqp.NewCancelMessage("lowStock-i1", "expiration-i1")); err != nil {
		t.Fatalf("handle cancel: %v", err)
	}
	if got := w.PendingTags(); len(got) != 0 {
		t.Fatalf("expected empty pending set, got %v", got)
	}
}

func TestHandleMessageRejectsMalformed(t *testing.T) {
	w := NewReminderWorker(fakeItems{})
	if err := w.HandleMessage(context.Background(), &amqp.ReminderMessage{Action: amqp.ActionSchedule}); err == nil {
		t.Fatalf("expected error for malformed message")
	}
}

func TestDispatchDueRefreshesItemState(t *testing.T) {
	ctx := context.Background()
	items := fakeItems{
		"i1": {ID: "i1", ListID: "l1", Name: "Milk", Quantity: 1, QuantityThreshold: 2},
	}
	w := NewReminderWorker(items)

	if err := w.HandleMessage(ctx, scheduleMsg("lowStock-i1", 0, "i1")); err != nil {
		t.Fatalf("handle schedule: %v", err)
	}

	if n := w.DispatchDue(ctx, time.Now().Add(time.Second)); n != 1 {
		t.Fatalf("expected 1 delivered reminder, got %d", n)
	}
	if got := w.PendingTags(); len(got) != 0 {
		t.Fatalf("fired reminder should leave pending set, got %v", got)
	}
}

func TestDispatchDueDropsDeletedItems(t *testing.T) {
	ctx := context.Background()
	w := NewReminderWorker(fakeItems{}) // item never existed / already deleted

	if err := w.HandleMessage(ctx, scheduleMsg("lowStock-ghost", 0, "ghost")); err != nil {
		t.Fatalf("handle schedule: %v", err)
	}
	if n := w.DispatchDue(ctx, time.Now().Add(time.Second)); n != 0 {
		t.Fatalf("reminder for deleted item should not be delivered, got %d", n)
	}
}

func TestDispatchDueLeavesFutureReminders(t *testing.T) {
	ctx := context.Background()
	w := NewReminderWorker(fakeItems{"i1": {ID: "i1", Name: "Milk"}})

	if err := w.HandleMessage(ctx, scheduleMsg("lowStock-i1", time.Hour, "i1")); err != nil {
		t.Fatalf("handle schedule: %v", err)
	}
	if n := w.DispatchDue(ctx, time.Now()); n != 0 {
		t.Fatalf("future reminder must not fire, got %d", n)
	}
	if got := w.PendingTags(); len(got) != 1 {
		t.Fatalf("future reminder should stay pending, got %v", got)
	}
}
