package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"ishop/internal/core"
	"ishop/internal/feed"
	"ishop/internal/notify"
)

// ListService owns grocery-list lifecycle: creation, rename, deletion
// with item cascade, and the read paths the UI groups and searches
// over. Every committed write is published on the change feed.
type ListService struct {
	store      Store
	reconciler *notify.Reconciler
	changes    *feed.Feed
	now        func() time.Time
	newID      func() string
}

func NewListService(store Store, reconciler *notify.Reconciler, changes *feed.Feed) *ListService {
	return &ListService{
		store:      store,
		reconciler: reconciler,
		changes:    changes,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// CreateList creates an empty list. The name is required; there is no
// placeholder fallback, a blank name is a validation error.
func (s *ListService) CreateList(ctx context.Context, name string) (core.GroceryList, error) {
	l := core.GroceryList{
		ID:          s.newID(),
		Name:        strings.TrimSpace(name),
		DateCreated: s.now(),
	}
	if err := l.Validate(); err != nil {
		return core.GroceryList{}, err
	}
	if err := s.store.CreateList(ctx, l); err != nil {
		return core.GroceryList{}, fmt.Errorf("create list: %w", err)
	}

	slog.InfoContext(ctx, "List created", "list_id", l.ID, "name", l.Name)
	s.changes.Publish(feed.Change{Kind: feed.KindCreated, Record: feed.RecordList, ID: l.ID})
	return l, nil
}

// RenameList changes a list's name and returns the updated list.
func (s *ListService) RenameList(ctx context.Context, id, name string) (core.GroceryList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.GroceryList{}, core.ErrEmptyName
	}
	if err := s.store.RenameList(ctx, id, name); err != nil {
		return core.GroceryList{}, fmt.Errorf("rename list: %w", err)
	}

	l, err := s.store.GetList(ctx, id)
	if err != nil {
		return core.GroceryList{}, fmt.Errorf("reload list: %w", err)
	}

	slog.InfoContext(ctx, "List renamed", "list_id", id, "name", name)
	s.changes.Publish(feed.Change{Kind: feed.KindUpdated, Record: feed.RecordList, ID: id})
	return l, nil
}

// DeleteList removes a list and all its items. Reminders for the
// cascaded items are cancelled afterwards; a failed cancel is logged
// and swallowed since the reminder worker drops reminders for missing
// items at fire time anyway.
func (s *ListService) DeleteList(ctx context.Context, id string) error {
	cascaded, err := s.store.DeleteList(ctx, id)
	if err != nil {
		return fmt.Errorf("delete list: %w", err)
	}

	for _, itemID := range cascaded {
		if err := s.reconciler.CancelAll(ctx, itemID); err != nil {
			slog.WarnContext(ctx, "Could not cancel reminders for cascaded item",
				"list_id", id, "item_id", itemID, "error", err)
		}
	}

	slog.InfoContext(ctx, "List deleted", "list_id", id, "cascaded_items", len(cascaded))
	for _, itemID := range cascaded {
		s.changes.Publish(feed.Change{Kind: feed.KindDeleted, Record: feed.RecordItem, ID: itemID, ListID: id})
	}
	s.changes.Publish(feed.Change{Kind: feed.KindDeleted, Record: feed.RecordList, ID: id})
	return nil
}

// GetList returns one list with its items.
func (s *ListService) GetList(ctx context.Context, id string) (core.GroceryList, error) {
	return s.store.GetList(ctx, id)
}

// Lists returns all lists, newest first. A non-empty query narrows the
// result to lists whose name contains it, case-insensitively.
func (s *ListService) Lists(ctx context.Context, query string) ([]core.GroceryList, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.store.ListLists(ctx)
	}
	return s.store.SearchLists(ctx, query)
}

// Sections returns all lists grouped into the four relative-date
// sections. Section order is fixed; list order inside each section is
// the storage order.
func (s *ListService) Sections(ctx context.Context, query string) ([]core.SectionGroup, error) {
	lists, err := s.Lists(ctx, query)
	if err != nil {
		return nil, err
	}
	return core.GroupListsByDateSection(s.now(), lists), nil
}
