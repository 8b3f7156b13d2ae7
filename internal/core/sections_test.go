package core

import (
	"testing"
	"time"
)

func TestGroupListsByDateSection(t *testing.T) {
	now := time.Date(2025, 4, 10, 15, 30, 0, 0, time.UTC)
	today := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		created time.Time
		want    DateSection
	}{
		{"start of today", today, SectionToday},
		{"just before midnight today", time.Date(2025, 4, 10, 23, 59, 0, 0, time.UTC), SectionToday},
		{"yesterday", today.AddDate(0, 0, -1), SectionPrevious7Days},
		{"exactly 7 days ago", today.AddDate(0, 0, -7), SectionPrevious7Days},
		{"8 days ago", today.AddDate(0, 0, -8), SectionPrevious30Days},
		{"exactly 30 days ago", today.AddDate(0, 0, -30), SectionPrevious30Days},
		{"31 days ago", today.AddDate(0, 0, -31), SectionOlder},
		{"last year", today.AddDate(-1, 0, 0), SectionOlder},
	}

	for _, tc := range cases {
		groups := GroupListsByDateSection(now, []GroceryList{
			{ID: "l", Name: tc.name, DateCreated: tc.created},
		})
		if len(groups) != 4 {
			t.Fatalf("%s: expected 4 sections, got %d", tc.name, len(groups))
		}
		for _, g := range groups {
			if g.Section == tc.want {
				if len(g.Lists) != 1 {
					t.Fatalf("%s: expected list in %v", tc.name, tc.want)
				}
			} else if len(g.Lists) != 0 {
				t.Fatalf("%s: list leaked into %v", tc.name, g.Section)
			}
		}
	}
}

func TestGroupListsByDateSectionDropsMissingDates(t *testing.T) {
	now := time.Now()
	groups := GroupListsByDateSection(now, []GroceryList{
		{ID: "a", Name: "dated", DateCreated: now},
		{ID: "b", Name: "undated"},
	})

	total := 0
	for _, g := range groups {
		total += len(g.Lists)
	}
	if total != 1 {
		t.Fatalf("undated list should be excluded, got %d bucketed lists", total)
	}
}

func TestGroupListsByDateSectionPreservesOrder(t *testing.T) {
	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	lists := []GroceryList{
		{ID: "1", Name: "first", DateCreated: now.AddDate(0, 0, -2)},
		{ID: "2", Name: "second", DateCreated: now.AddDate(0, 0, -3)},
		{ID: "3", Name: "third", DateCreated: now.AddDate(0, 0, -4)},
	}

	groups := GroupListsByDateSection(now, lists)
	week := groups[SectionPrevious7Days].Lists
	if len(week) != 3 {
		t.Fatalf("expected 3 lists in previous 7 days, got %d", len(week))
	}
	for i, want := range []string{"first", "second", "third"} {
		if week[i].Name != want {
			t.Fatalf("input order not preserved: index %d is %q", i, week[i].Name)
		}
	}
}
