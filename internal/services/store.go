package services

import (
	"context"

	"ishop/internal/core"
)

// Store is the persistence surface the services drive. The SQLite
// repository satisfies it; tests may substitute their own.
type Store interface {
	CreateList(ctx context.Context, l core.GroceryList) error
	RenameList(ctx context.Context, id, name string) error
	DeleteList(ctx context.Context, id string) ([]string, error)
	GetList(ctx context.Context, id string) (core.GroceryList, error)
	ListLists(ctx context.Context) ([]core.GroceryList, error)
	SearchLists(ctx context.Context, q string) ([]core.GroceryList, error)

	CreateItem(ctx context.Context, item core.GroceryItem) error
	GetItem(ctx context.Context, id string) (core.GroceryItem, error)
	UpdateItem(ctx context.Context, item core.GroceryItem) error
	BatchUpdateItems(ctx context.Context, items []core.GroceryItem) error
	DeleteItem(ctx context.Context, id string) error
}
