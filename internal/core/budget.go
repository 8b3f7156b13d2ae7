package core

import (
	"sort"
	"time"
)

// PaletteSize is the number of distinct chart colors. Buckets past the
// palette wrap around by position.
const PaletteSize = 8

type (
	// NameBucket merges every list sharing one name into a single row.
	// Weekly shopping produces many lists called "Groceries"; the budget
	// view treats the name as the category.
	NameBucket struct {
		Name         string
		Amount       Money
		Transactions int
	}

	// ChartSegment pairs a bucket with its palette slot.
	ChartSegment struct {
		Bucket     NameBucket
		ColorIndex int
	}

	// AngleSpan is a pie-chart arc in degrees.
	AngleSpan struct {
		StartDegrees float64
		EndDegrees   float64
	}
)

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// endOfDay returns 23:59:59 on t's calendar day.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}

// FilterListsByDateRange keeps lists created between start and end,
// inclusive. Boundaries are widened to whole calendar days (midnight
// through 23:59:59) so a list created later on the end date is not
// excluded by the picker handing over a morning timestamp. Lists without
// a creation date are excluded, not errored.
func FilterListsByDateRange(lists []GroceryList, start, end time.Time) []GroceryList {
	lo := startOfDay(start)
	hi := endOfDay(end)

	var out []GroceryList
	for _, l := range lists {
		if l.DateCreated.IsZero() {
			continue
		}
		if l.DateCreated.Before(lo) || l.DateCreated.After(hi) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// TotalSpending sums spending across lists.
func TotalSpending(lists []GroceryList) Money {
	var cents int64
	for _, l := range lists {
		cents += l.TotalSpending().Cents
	}
	return Money{Cents: cents}
}

// AggregateByName groups lists by exact name, summing spending and item
// counts per bucket. The result is sorted by amount descending; ties break
// on name ascending so repeated runs over the same data produce identical
// output.
func AggregateByName(lists []GroceryList) []NameBucket {
	index := make(map[string]int)
	var buckets []NameBucket

	for _, l := range lists {
		i, ok := index[l.Name]
		if !ok {
			i = len(buckets)
			index[l.Name] = i
			buckets = append(buckets, NameBucket{Name: l.Name})
		}
		buckets[i].Amount.Cents += l.TotalSpending().Cents
		buckets[i].Transactions += l.ItemCount()
	}

	sort.Slice(buckets, func(a, b int) bool {
		if buckets[a].Amount.Cents != buckets[b].Amount.Cents {
			return buckets[a].Amount.Cents > buckets[b].Amount.Cents
		}
		return buckets[a].Name < buckets[b].Name
	})

	return buckets
}

// AssignColors gives each bucket its positional palette slot. Purely a
// presentation derivation, deterministic for a given sorted bucket order.
func AssignColors(buckets []NameBucket) []ChartSegment {
	segments := make([]ChartSegment, len(buckets))
	for i, b := range buckets {
		segments[i] = ChartSegment{Bucket: b, ColorIndex: i % PaletteSize}
	}
	return segments
}

// ComputeShareAngles converts bucket amounts into cumulative pie arcs.
// Each bucket's span starts where the previous one ended; spans sum to
// 360 degrees. A zero or negative total has no defined angles and yields
// an empty result so callers never divide by zero.
func ComputeShareAngles(buckets []NameBucket, total Money) []AngleSpan {
	if total.Cents <= 0 {
		return nil
	}

	spans := make([]AngleSpan, len(buckets))
	cumulative := 0.0
	for i, b := range buckets {
		share := float64(b.Amount.Cents) / float64(total.Cents) * 360.0
		spans[i] = AngleSpan{StartDegrees: cumulative, EndDegrees: cumulative + share}
		cumulative += share
	}
	return spans
}

// Average returns total divided by count, or zero when count is zero.
func Average(total Money, count int) Money {
	if count == 0 {
		return Money{}
	}
	return Money{Cents: total.Cents / int64(count)}
}
