package core

import (
	"testing"
	"time"
)

func TestIsLowStock(t *testing.T) {
	cases := []struct {
		quantity  int
		threshold int
		want      bool
	}{
		{0, 0, false}, // zero threshold disables alerting
		{100, 0, false},
		{5, 5, true}, // at threshold counts as low
		{6, 5, false},
		{4, 5, true},
		{0, 1, true},
	}
	for i, tc := range cases {
		item := GroceryItem{Quantity: tc.quantity, QuantityThreshold: tc.threshold}
		if got := item.IsLowStock(); got != tc.want {
			t.Fatalf("case %d (qty=%d thr=%d): expected %v, got %v",
				i, tc.quantity, tc.threshold, tc.want, got)
		}
	}
}

func TestExpiringSoonWindowsDiffer(t *testing.T) {
	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		expires  time.Time
		display  bool
		notify   bool
	}{
		{"no expiration", time.Time{}, false, false},
		{"expired yesterday", now.Add(-24 * time.Hour), true, false},
		{"in one day", now.Add(24 * time.Hour), true, true},
		{"in exactly two days", now.Add(NotifyExpiryWindow), true, true},
		{"between the windows", now.Add(NotifyExpiryWindow + time.Hour), true, false},
		{"in exactly three days", now.Add(DisplayExpiryWindow), true, false},
		{"in four days", now.Add(4 * 24 * time.Hour), false, false},
	}

	for _, tc := range cases {
		item := GroceryItem{ExpirationDate: tc.expires}
		if got := item.IsExpiringSoonForDisplay(now); got != tc.display {
			t.Fatalf("%s: display window expected %v, got %v", tc.name, tc.display, got)
		}
		if got := item.IsExpiringSoonForNotification(now); got != tc.notify {
			t.Fatalf("%s: notify window expected %v, got %v", tc.name, tc.notify, got)
		}
	}
}
