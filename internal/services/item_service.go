package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"ishop/internal/core"
	"ishop/internal/feed"
	"ishop/internal/notify"
)

// NewItemParams carries caller-supplied fields for a new item. ID,
// DateAdded and availability are assigned here, not by the caller.
type NewItemParams struct {
	ListID            string
	Name              string
	Quantity          int
	QuantityThreshold int
	Price             core.Money
	ExpirationDate    time.Time
}

// ItemService owns grocery-item lifecycle. After every committed write
// it reconciles the item's reminders against its new state and
// publishes the change; reminder failures are logged, never returned,
// so a flaky broker cannot block a save.
type ItemService struct {
	store      Store
	reconciler *notify.Reconciler
	changes    *feed.Feed
	newID      func() string
	now        func() time.Time
}

func NewItemService(store Store, reconciler *notify.Reconciler, changes *feed.Feed) *ItemService {
	return &ItemService{
		store:      store,
		reconciler: reconciler,
		changes:    changes,
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// AddItem creates an item in an existing list. New items start
// available.
func (s *ItemService) AddItem(ctx context.Context, p NewItemParams) (core.GroceryItem, error) {
	item := core.GroceryItem{
		ID:                s.newID(),
		ListID:            p.ListID,
		Name:              strings.TrimSpace(p.Name),
		Quantity:          p.Quantity,
		QuantityThreshold: p.QuantityThreshold,
		Price:             p.Price,
		IsAvailable:       true,
		ExpirationDate:    p.ExpirationDate,
		DateAdded:         s.now(),
	}
	if err := item.Validate(); err != nil {
		return core.GroceryItem{}, err
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		return core.GroceryItem{}, fmt.Errorf("create item: %w", err)
	}

	slog.InfoContext(ctx, "Item created",
		"item_id", item.ID, "list_id", item.ListID, "name", item.Name)
	s.reconcile(ctx, item)
	s.changes.Publish(feed.Change{Kind: feed.KindCreated, Record: feed.RecordItem, ID: item.ID, ListID: item.ListID})
	return item, nil
}

// UpdateItem saves the item's mutable fields and returns the stored
// state. ID, owning list and creation date never change on update.
func (s *ItemService) UpdateItem(ctx context.Context, item core.GroceryItem) (core.GroceryItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	if err := item.Validate(); err != nil {
		return core.GroceryItem{}, err
	}
	if err := s.store.UpdateItem(ctx, item); err != nil {
		return core.GroceryItem{}, fmt.Errorf("update item: %w", err)
	}

	stored, err := s.store.GetItem(ctx, item.ID)
	if err != nil {
		return core.GroceryItem{}, fmt.Errorf("reload item: %w", err)
	}

	slog.InfoContext(ctx, "Item updated", "item_id", stored.ID, "list_id", stored.ListID)
	s.reconcile(ctx, stored)
	s.changes.Publish(feed.Change{Kind: feed.KindUpdated, Record: feed.RecordItem, ID: stored.ID, ListID: stored.ListID})
	return stored, nil
}

// ToggleAvailability flips the item's availability flag.
func (s *ItemService) ToggleAvailability(ctx context.Context, id string) (core.GroceryItem, error) {
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return core.GroceryItem{}, fmt.Errorf("load item: %w", err)
	}
	item.IsAvailable = !item.IsAvailable
	return s.UpdateItem(ctx, item)
}

// BatchUpdateItems saves several items atomically, then reconciles and
// publishes each one. The bulk-edit screen commits through here so a
// single invalid row rejects the whole edit.
func (s *ItemService) BatchUpdateItems(ctx context.Context, items []core.GroceryItem) error {
	for i := range items {
		items[i].Name = strings.TrimSpace(items[i].Name)
	}
	if err := s.store.BatchUpdateItems(ctx, items); err != nil {
		return fmt.Errorf("batch update items: %w", err)
	}

	for _, item := range items {
		stored, err := s.store.GetItem(ctx, item.ID)
		if err != nil {
			slog.WarnContext(ctx, "Could not reload item after batch update",
				"item_id", item.ID, "error", err)
			continue
		}
		s.reconcile(ctx, stored)
		s.changes.Publish(feed.Change{Kind: feed.KindUpdated, Record: feed.RecordItem, ID: stored.ID, ListID: stored.ListID})
	}
	slog.InfoContext(ctx, "Items batch-updated", "count", len(items))
	return nil
}

// DeleteItem removes an item and cancels both of its reminders.
func (s *ItemService) DeleteItem(ctx context.Context, id string) error {
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return fmt.Errorf("load item: %w", err)
	}
	if err := s.store.DeleteItem(ctx, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	if err := s.reconciler.CancelAll(ctx, id); err != nil {
		slog.WarnContext(ctx, "Could not cancel reminders for deleted item",
			"item_id", id, "error", err)
	}

	slog.InfoContext(ctx, "Item deleted", "item_id", id, "list_id", item.ListID)
	s.changes.Publish(feed.Change{Kind: feed.KindDeleted, Record: feed.RecordItem, ID: id, ListID: item.ListID})
	return nil
}

// GetItem returns one item.
func (s *ItemService) GetItem(ctx context.Context, id string) (core.GroceryItem, error) {
	return s.store.GetItem(ctx, id)
}

// reconcile aligns both reminders with the item's committed state.
// Registration failures degrade to a log line.
func (s *ItemService) reconcile(ctx context.Context, item core.GroceryItem) {
	for _, err := range []error{
		s.reconciler.ReconcileLowStock(ctx, item),
		s.reconciler.ReconcileExpiration(ctx, item),
	} {
		if err == nil {
			continue
		}
		var regErr *notify.RegistrationError
		if errors.As(err, &regErr) {
			slog.WarnContext(ctx, "Reminder registration failed",
				"op", regErr.Op, "tag", regErr.Tag, "item_id", item.ID, "error", regErr.Err)
			continue
		}
		slog.WarnContext(ctx, "Reminder reconcile failed", "item_id", item.ID, "error", err)
	}
}
