package core

import "time"

// The two expiring-soon windows are intentionally different and must stay
// separate: the list row highlights anything within three days (past-due
// included, since the row has no separate "already expired" state), while
// reminders only cover the two days leading up to expiration.
const (
	DisplayExpiryWindow = 3 * 24 * time.Hour
	NotifyExpiryWindow  = 2 * 24 * time.Hour
)

// IsLowStock reports whether quantity has fallen to or below the
// threshold. A zero threshold disables low-stock alerting entirely.
func (i GroceryItem) IsLowStock() bool {
	return i.QuantityThreshold > 0 && i.Quantity <= i.QuantityThreshold
}

// IsExpiringSoonForDisplay reports whether the item's expiration falls
// within the display window from now. Already-expired items are included.
func (i GroceryItem) IsExpiringSoonForDisplay(now time.Time) bool {
	if i.ExpirationDate.IsZero() {
		return false
	}
	return !i.ExpirationDate.After(now.Add(DisplayExpiryWindow))
}

// IsExpiringSoonForNotification reports whether the item expires within
// the notification window: strictly in the future, at most two days out.
func (i GroceryItem) IsExpiringSoonForNotification(now time.Time) bool {
	if i.ExpirationDate.IsZero() {
		return false
	}
	return i.ExpirationDate.After(now) && !i.ExpirationDate.After(now.Add(NotifyExpiryWindow))
}
