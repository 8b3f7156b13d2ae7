package core

import "time"

// BudgetOverview is a compact summary of spending for a date range.
type BudgetOverview struct {
	Start     time.Time
	End       time.Time
	Total     Money
	ListCount int
	Average   Money
	Segments  []ChartSegment
	Angles    []AngleSpan
}

// HasData reports whether the range contained any lists at all; the
// budget screen shows a "no data" state instead of empty rows.
func (o BudgetOverview) HasData() bool {
	return o.ListCount > 0
}

// NewBudgetOverview runs the full aggregation pipeline over a read-only
// snapshot of lists: date filter, per-name roll-up, colors and pie arcs.
func NewBudgetOverview(lists []GroceryList, start, end time.Time) BudgetOverview {
	filtered := FilterListsByDateRange(lists, start, end)
	total := TotalSpending(filtered)
	buckets := AggregateByName(filtered)

	return BudgetOverview{
		Start:     start,
		End:       end,
		Total:     total,
		ListCount: len(filtered),
		Average:   Average(total, len(filtered)),
		Segments:  AssignColors(buckets),
		Angles:    ComputeShareAngles(buckets, total),
	}
}
