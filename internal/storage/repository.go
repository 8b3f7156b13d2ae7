package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ishop/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a list or item does not exist.
var ErrNotFound = errors.New("record not found")

// SQLiteRepository is the persistence adapter for the two record types.
// All writes go through it, one logical writer at a time; reads hand out
// snapshots the pure aggregation code can chew on safely.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Timestamps are stored as RFC 3339 UTC strings so lexical ordering in
// SQL matches chronological ordering.
func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// CreateList inserts a validated list record.
func (r *SQLiteRepository) CreateList(ctx context.Context, l core.GroceryList) error {
	if err := l.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO grocery_lists (id, name, date_created) VALUES (?, ?, ?)`,
		l.ID, l.Name, encodeTime(l.DateCreated))
	if err != nil {
		return fmt.Errorf("create list: %w", err)
	}

	slog.InfoContext(ctx, "List saved", "id", l.ID, "name", l.Name)
	return nil
}

// RenameList changes a list's name. The creation date is immutable.
func (r *SQLiteRepository) RenameList(ctx context.Context, id, name string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE grocery_lists SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("rename list: %w", err)
	}
	return requireRow(res)
}

// DeleteList removes a list and every item it owns, returning the ids of
// the cascaded items so the caller can cancel their reminders.
func (r *SQLiteRepository) DeleteList(ctx context.Context, id string) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete list: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM grocery_items WHERE list_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("list items for cascade: %w", err)
	}
	var itemIDs []string
	for rows.Next() {
		var itemID string
		if err := rows.Scan(&itemID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan item id: %w", err)
		}
		itemIDs = append(itemIDs, itemID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item ids: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM grocery_items WHERE list_id = ?`, id); err != nil {
		return nil, fmt.Errorf("delete items: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`DELETE FROM grocery_lists WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("delete list: %w", err)
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete list: %w", err)
	}

	slog.InfoContext(ctx, "List deleted", "id", id, "cascaded_items", len(itemIDs))
	return itemIDs, nil
}

// GetList returns one list with its items attached.
func (r *SQLiteRepository) GetList(ctx context.Context, id string) (core.GroceryList, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, date_created FROM grocery_lists WHERE id = ?`, id)

	l, err := scanList(row)
	if err == sql.ErrNoRows {
		return core.GroceryList{}, ErrNotFound
	}
	if err != nil {
		return core.GroceryList{}, fmt.Errorf("get list: %w", err)
	}

	items, err := r.itemsForLists(ctx, []string{l.ID})
	if err != nil {
		return core.GroceryList{}, err
	}
	l.Items = items[l.ID]
	return l, nil
}

// ListLists returns all lists newest-first, items attached. Items whose
// list row is gone never appear: the join key is the surviving list set,
// so orphans are excluded rather than surfaced as errors.
func (r *SQLiteRepository) ListLists(ctx context.Context) ([]core.GroceryList, error) {
	return r.queryLists(ctx,
		`SELECT id, name, date_created FROM grocery_lists ORDER BY date_created DESC`)
}

// SearchLists returns lists whose name contains q, case-insensitively,
// newest-first.
func (r *SQLiteRepository) SearchLists(ctx context.Context, q string) ([]core.GroceryList, error) {
	return r.queryLists(ctx,
		`SELECT id, name, date_created FROM grocery_lists
		 WHERE name LIKE '%' || ? || '%' COLLATE NOCASE
		 ORDER BY date_created DESC`, q)
}

func (r *SQLiteRepository) queryLists(ctx context.Context, query string, args ...any) ([]core.GroceryList, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query lists: %w", err)
	}
	defer rows.Close()

	var lists []core.GroceryList
	var ids []string
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		lists = append(lists, l)
		ids = append(ids, l.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lists: %w", err)
	}

	itemsByList, err := r.itemsForLists(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range lists {
		lists[i].Items = itemsByList[lists[i].ID]
	}
	return lists, nil
}

// CreateItem inserts a validated item attached to an existing list.
func (r *SQLiteRepository) CreateItem(ctx context.Context, item core.GroceryItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM grocery_lists WHERE id = ?`, item.ListID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check parent list: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO grocery_items
		 (id, list_id, name, quantity, quantity_threshold, price_cents, is_available, expiration_date, date_added)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.ListID, item.Name, item.Quantity, item.QuantityThreshold,
		item.Price.Cents, boolToInt(item.IsAvailable), encodeNullableTime(item.ExpirationDate),
		encodeTime(item.DateAdded))
	if err != nil {
		return fmt.Errorf("create item: %w", err)
	}

	slog.InfoContext(ctx, "Item saved",
		"id", item.ID,
		"list_id", item.ListID,
		"name", item.Name,
		"price_cents", item.Price.Cents)
	return nil
}

// GetItem returns one item by id.
func (r *SQLiteRepository) GetItem(ctx context.Context, id string) (core.GroceryItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, list_id, name, quantity, quantity_threshold, price_cents, is_available, expiration_date, date_added
		 FROM grocery_items WHERE id = ?`, id)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return core.GroceryItem{}, ErrNotFound
	}
	if err != nil {
		return core.GroceryItem{}, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// UpdateItem overwrites an item's mutable fields. ID, ListID and
// DateAdded never change after creation.
func (r *SQLiteRepository) UpdateItem(ctx context.Context, item core.GroceryItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE grocery_items
		 SET name = ?, quantity = ?, quantity_threshold = ?, price_cents = ?, is_available = ?, expiration_date = ?
		 WHERE id = ?`,
		item.Name, item.Quantity, item.QuantityThreshold, item.Price.Cents,
		boolToInt(item.IsAvailable), encodeNullableTime(item.ExpirationDate), item.ID)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return requireRow(res)
}

// BatchUpdateItems commits a set of item updates in one transaction, the
// storage side of the batch-edit screen: either every edit lands or none
// does.
func (r *SQLiteRepository) BatchUpdateItems(ctx context.Context, items []core.GroceryItem) error {
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch update: %w", err)
	}
	defer tx.Rollback()

	for _, item := range items {
		res, err := tx.ExecContext(ctx,
			`UPDATE grocery_items
			 SET name = ?, quantity = ?, quantity_threshold = ?, price_cents = ?, is_available = ?, expiration_date = ?
			 WHERE id = ?`,
			item.Name, item.Quantity, item.QuantityThreshold, item.Price.Cents,
			boolToInt(item.IsAvailable), encodeNullableTime(item.ExpirationDate), item.ID)
		if err != nil {
			return fmt.Errorf("batch update item %s: %w", item.ID, err)
		}
		if err := requireRow(res); err != nil {
			return fmt.Errorf("batch update item %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch update: %w", err)
	}

	slog.InfoContext(ctx, "Batch update committed", "items", len(items))
	return nil
}

// DeleteItem removes a single item.
func (r *SQLiteRepository) DeleteItem(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM grocery_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) itemsForLists(ctx context.Context, listIDs []string) (map[string][]core.GroceryItem, error) {
	byList := make(map[string][]core.GroceryItem, len(listIDs))
	if len(listIDs) == 0 {
		return byList, nil
	}

	// Item order inside a list is by name, matching the detail screen.
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, list_id, name, quantity, quantity_threshold, price_cents, is_available, expiration_date, date_added
		 FROM grocery_items ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	wanted := make(map[string]bool, len(listIDs))
	for _, id := range listIDs {
		wanted[id] = true
	}

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		if !wanted[item.ListID] {
			continue
		}
		byList[item.ListID] = append(byList[item.ListID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return byList, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanList(row rowScanner) (core.GroceryList, error) {
	var l core.GroceryList
	var created string
	if err := row.Scan(&l.ID, &l.Name, &created); err != nil {
		return core.GroceryList{}, err
	}
	t, err := decodeTime(created)
	if err != nil {
		return core.GroceryList{}, fmt.Errorf("decode date_created: %w", err)
	}
	l.DateCreated = t
	return l, nil
}

func scanItem(row rowScanner) (core.GroceryItem, error) {
	var item core.GroceryItem
	var available int
	var expiration sql.NullString
	var added string
	err := row.Scan(&item.ID, &item.ListID, &item.Name, &item.Quantity,
		&item.QuantityThreshold, &item.Price.Cents, &available, &expiration, &added)
	if err != nil {
		return core.GroceryItem{}, err
	}
	item.IsAvailable = available != 0
	if expiration.Valid {
		t, err := decodeTime(expiration.String)
		if err != nil {
			return core.GroceryItem{}, fmt.Errorf("decode expiration_date: %w", err)
		}
		item.ExpirationDate = t
	}
	t, err := decodeTime(added)
	if err != nil {
		return core.GroceryItem{}, fmt.Errorf("decode date_added: %w", err)
	}
	item.DateAdded = t
	return item, nil
}

func encodeNullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return encodeTime(t)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
