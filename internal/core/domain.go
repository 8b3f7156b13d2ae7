package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// GroceryList is a named collection of items with a creation timestamp.
	// The list owns its items: deleting a list deletes them.
	GroceryList struct {
		ID          string
		Name        string
		DateCreated time.Time
		Items       []GroceryItem
	}

	// GroceryItem is a purchasable entry belonging to exactly one list.
	// A zero ExpirationDate means the item does not expire.
	GroceryItem struct {
		ID                string
		ListID            string
		Name              string
		Quantity          int
		QuantityThreshold int // 0 disables low-stock alerting
		Price             Money
		IsAvailable       bool
		ExpirationDate    time.Time
		DateAdded         time.Time
	}
)

var (
	ErrEmptyName         = errors.New("empty name")
	ErrMissingID         = errors.New("missing id")
	ErrMissingList       = errors.New("item has no parent list")
	ErrMissingDate       = errors.New("missing date")
	ErrNegativeQuantity  = errors.New("negative quantity")
	ErrNegativeThreshold = errors.New("negative quantity threshold")
	ErrNegativeAmount    = errors.New("negative amount")
)

func (l GroceryList) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return ErrMissingID
	}
	if strings.TrimSpace(l.Name) == "" {
		return ErrEmptyName
	}
	if len(l.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if l.DateCreated.IsZero() {
		return ErrMissingDate
	}
	return nil
}

func (i GroceryItem) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return ErrMissingID
	}
	if strings.TrimSpace(i.ListID) == "" {
		return ErrMissingList
	}
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyName
	}
	if len(i.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if i.Quantity < 0 {
		return ErrNegativeQuantity
	}
	if i.QuantityThreshold < 0 {
		return ErrNegativeThreshold
	}
	if err := i.Price.Validate(); err != nil {
		return err
	}
	if i.DateAdded.IsZero() {
		return ErrMissingDate
	}
	return nil
}

// ItemCount returns the number of items on the list.
func (l GroceryList) ItemCount() int {
	return len(l.Items)
}

// TotalSpending sums item prices. Quantity is deliberately not a
// multiplier: a list entry records what was paid for the purchase,
// however many units it covered.
func (l GroceryList) TotalSpending() Money {
	var cents int64
	for _, item := range l.Items {
		cents += item.Price.Cents
	}
	return Money{Cents: cents}
}

// AvailableItemsCount returns how many items are currently marked available.
func (l GroceryList) AvailableItemsCount() int {
	n := 0
	for _, item := range l.Items {
		if item.IsAvailable {
			n++
		}
	}
	return n
}
