package services

import (
	"context"
	"fmt"
	"time"

	"ishop/internal/core"
)

// BudgetService computes spending overviews from a fresh snapshot of
// all lists. There is no incremental state to invalidate: every call
// recomputes from storage, which is what makes the numbers trustworthy
// after any sequence of edits.
type BudgetService struct {
	store Store
}

func NewBudgetService(store Store) *BudgetService {
	return &BudgetService{store: store}
}

// Overview returns the spending summary for lists created between
// start and end. Both bounds are widened to whole days before
// filtering.
func (s *BudgetService) Overview(ctx context.Context, start, end time.Time) (core.BudgetOverview, error) {
	lists, err := s.store.ListLists(ctx)
	if err != nil {
		return core.BudgetOverview{}, fmt.Errorf("load lists: %w", err)
	}
	return core.NewBudgetOverview(lists, start, end), nil
}
