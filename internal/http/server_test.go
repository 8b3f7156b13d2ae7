package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"ishop/internal/feed"
	"ishop/internal/notify"
	"ishop/internal/services"
	"ishop/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	changes := feed.New()
	reconciler := notify.NewReconciler(notify.NewMemoryScheduler())

	s := NewServer(":0",
		services.NewListService(repo, reconciler, changes),
		services.NewItemService(repo, reconciler, changes),
		services.NewBudgetService(repo),
		changes)

	ts := httptest.NewServer(s.Handler)
	t.Cleanup(ts.Close)
	return s, ts
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func decodeInto(t *testing.T, data []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
}

func createTestList(t *testing.T, ts *httptest.Server, name string) listPayload {
	t.Helper()
	resp, data := doJSON(t, http.MethodPost, ts.URL+"/lists", map[string]string{"name": name})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create list: status %d, body %s", resp.StatusCode, data)
	}
	var l listPayload
	decodeInto(t, data, &l)
	return l
}

func TestHealthEndpoints(t *testing.T) {
	_, ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, _ := doJSON(t, http.MethodGet, ts.URL+path, nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestCreateListValidation(t *testing.T) {
	_, ts := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/lists", map[string]string{"name": "  "})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("blank name status = %d, want 422", resp.StatusCode)
	}
}

func TestListLifecycle(t *testing.T) {
	_, ts := newTestServer(t)

	l := createTestList(t, ts, "Weekly Shop")

	resp, data := doJSON(t, http.MethodPatch, ts.URL+"/lists/"+l.ID, map[string]string{"name": "Monthly Shop"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("rename status = %d, body %s", resp.StatusCode, data)
	}
	var renamed listPayload
	decodeInto(t, data, &renamed)
	if renamed.Name != "Monthly Shop" {
		t.Errorf("renamed list name = %q", renamed.Name)
	}

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/lists/"+l.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/lists/"+l.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get deleted list status = %d, want 404", resp.StatusCode)
	}
}

func TestItemLifecycle(t *testing.T) {
	_, ts := newTestServer(t)
	l := createTestList(t, ts, "Pantry")

	resp, data := doJSON(t, http.MethodPost, ts.URL+"/lists/"+l.ID+"/items", map[string]any{
		"name":               "Milk",
		"quantity":           1,
		"quantity_threshold": 2,
		"price":              "3.49",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create item status = %d, body %s", resp.StatusCode, data)
	}
	var item itemPayload
	decodeInto(t, data, &item)
	if item.PriceCents != 349 {
		t.Errorf("price_cents = %d, want 349", item.PriceCents)
	}
	if !item.IsLowStock {
		t.Error("quantity 1 with threshold 2 should flag low stock")
	}
	if !item.IsAvailable {
		t.Error("new item should start available")
	}

	// Partial update: only quantity, everything else preserved.
	resp, data = doJSON(t, http.MethodPut, ts.URL+"/items/"+item.ID, map[string]any{"quantity": 10})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d, body %s", resp.StatusCode, data)
	}
	var updated itemPayload
	decodeInto(t, data, &updated)
	if updated.Name != "Milk" || updated.PriceCents != 349 {
		t.Errorf("partial update clobbered fields: %+v", updated)
	}
	if updated.Quantity != 10 || updated.IsLowStock {
		t.Errorf("quantity update not applied: %+v", updated)
	}

	resp, data = doJSON(t, http.MethodPost, ts.URL+"/items/"+item.ID+"/toggle", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle status = %d", resp.StatusCode)
	}
	var toggled itemPayload
	decodeInto(t, data, &toggled)
	if toggled.IsAvailable {
		t.Error("toggle should mark the item unavailable")
	}

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/items/"+item.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete item status = %d, want 204", resp.StatusCode)
	}
}

func TestCreateItemRequiresList(t *testing.T) {
	_, ts := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/lists/missing/items", map[string]any{
		"name": "Ghost", "quantity": 1,
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestBatchUpdateItems(t *testing.T) {
	_, ts := newTestServer(t)
	l := createTestList(t, ts, "Pantry")

	var ids []string
	for _, name := range []string{"Flour", "Sugar"} {
		resp, data := doJSON(t, http.MethodPost, ts.URL+"/lists/"+l.ID+"/items", map[string]any{
			"name": name, "quantity": 5,
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create item status = %d", resp.StatusCode)
		}
		var item itemPayload
		decodeInto(t, data, &item)
		ids = append(ids, item.ID)
	}

	resp, data := doJSON(t, http.MethodPut, ts.URL+"/items", map[string]any{
		"items": []map[string]any{
			{"id": ids[0], "quantity": 1},
			{"id": ids[1], "is_available": false},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("batch status = %d, body %s", resp.StatusCode, data)
	}
	var items []itemPayload
	decodeInto(t, data, &items)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Quantity != 1 {
		t.Errorf("first item quantity = %d, want 1", items[0].Quantity)
	}
	if items[1].IsAvailable {
		t.Error("second item should be unavailable")
	}

	// An unknown id rejects the whole batch.
	resp, _ = doJSON(t, http.MethodPut, ts.URL+"/items", map[string]any{
		"items": []map[string]any{{"id": "missing", "quantity": 1}},
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("batch with unknown id status = %d, want 404", resp.StatusCode)
	}
}

func TestSectionsEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	l := createTestList(t, ts, "Fresh Today")

	resp, data := doJSON(t, http.MethodGet, ts.URL+"/sections", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sections status = %d", resp.StatusCode)
	}
	var sections []sectionPayload
	decodeInto(t, data, &sections)
	if len(sections) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(sections))
	}
	if sections[0].Section != "Today" {
		t.Errorf("first section = %q, want Today", sections[0].Section)
	}
	if len(sections[0].Lists) != 1 || sections[0].Lists[0].ID != l.ID {
		t.Errorf("new list should sit in Today, got %+v", sections[0].Lists)
	}
}

func TestBudgetOverviewReflectsChanges(t *testing.T) {
	_, ts := newTestServer(t)
	l := createTestList(t, ts, "Weekly")

	url := fmt.Sprintf("%s/budget/overview?start=%s&end=%s",
		ts.URL,
		time.Now().AddDate(0, 0, -1).Format(dateLayout),
		time.Now().Format(dateLayout))

	resp, data := doJSON(t, http.MethodGet, url, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("overview status = %d", resp.StatusCode)
	}
	var before overviewPayload
	decodeInto(t, data, &before)
	if before.TotalCents != 0 || !before.HasData {
		t.Errorf("fresh list overview = %+v", before)
	}

	// The cached overview must be dropped when an item lands.
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/lists/"+l.ID+"/items", map[string]any{
		"name": "Milk", "quantity": 1, "price_cents": 349,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create item status = %d", resp.StatusCode)
	}

	_, data = doJSON(t, http.MethodGet, url, nil)
	var after overviewPayload
	decodeInto(t, data, &after)
	if after.TotalCents != 349 {
		t.Errorf("total after item = %d cents, want 349", after.TotalCents)
	}
	if len(after.Segments) != 1 || after.Segments[0].Name != "Weekly" {
		t.Errorf("segments = %+v", after.Segments)
	}
	if after.Segments[0].EndDegrees != 360 {
		t.Errorf("single segment should span the full circle, got %+v", after.Segments[0])
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/budget/overview?start=bogus", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bogus start date status = %d, want 400", resp.StatusCode)
	}
}
