package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"ishop/internal/core"
	applog "ishop/internal/log"
	"ishop/internal/middleware/trace"
	"ishop/internal/storage"
)

// itemPayload is the wire shape of a grocery item. Derived flags are
// computed against the request time so clients never re-implement the
// stock and expiry rules.
type itemPayload struct {
	ID                string     `json:"id"`
	ListID            string     `json:"list_id"`
	Name              string     `json:"name"`
	Quantity          int        `json:"quantity"`
	QuantityThreshold int        `json:"quantity_threshold"`
	PriceCents        int64      `json:"price_cents"`
	Price             string     `json:"price"`
	IsAvailable       bool       `json:"is_available"`
	ExpirationDate    *time.Time `json:"expiration_date,omitempty"`
	DateAdded         time.Time  `json:"date_added"`
	IsLowStock        bool       `json:"is_low_stock"`
	IsExpiringSoon    bool       `json:"is_expiring_soon"`
}

type listPayload struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	DateCreated        time.Time     `json:"date_created"`
	Items              []itemPayload `json:"items"`
	ItemCount          int           `json:"item_count"`
	AvailableItems     int           `json:"available_items"`
	TotalSpendingCents int64         `json:"total_spending_cents"`
	TotalSpending      string        `json:"total_spending"`
}

type sectionPayload struct {
	Section string        `json:"section"`
	Lists   []listPayload `json:"lists"`
}

func toItemPayload(i core.GroceryItem, now time.Time) itemPayload {
	p := itemPayload{
		ID:                i.ID,
		ListID:            i.ListID,
		Name:              i.Name,
		Quantity:          i.Quantity,
		QuantityThreshold: i.QuantityThreshold,
		PriceCents:        i.Price.Cents,
		Price:             i.Price.Format(),
		IsAvailable:       i.IsAvailable,
		DateAdded:         i.DateAdded,
		IsLowStock:        i.IsLowStock(),
		IsExpiringSoon:    i.IsExpiringSoonForDisplay(now),
	}
	if !i.ExpirationDate.IsZero() {
		exp := i.ExpirationDate
		p.ExpirationDate = &exp
	}
	return p
}

func toListPayload(l core.GroceryList, now time.Time) listPayload {
	items := make([]itemPayload, 0, len(l.Items))
	for _, i := range l.Items {
		items = append(items, toItemPayload(i, now))
	}
	total := l.TotalSpending()
	return listPayload{
		ID:                 l.ID,
		Name:               l.Name,
		DateCreated:        l.DateCreated,
		Items:              items,
		ItemCount:          l.ItemCount(),
		AvailableItems:     l.AvailableItemsCount(),
		TotalSpendingCents: total.Cents,
		TotalSpending:      total.Format(),
	}
}

func toListPayloads(lists []core.GroceryList, now time.Time) []listPayload {
	out := make([]listPayload, 0, len(lists))
	for _, l := range lists {
		out = append(out, toListPayload(l, now))
	}
	return out
}

func toSectionPayloads(groups []core.SectionGroup, now time.Time) []sectionPayload {
	out := make([]sectionPayload, 0, len(groups))
	for _, g := range groups {
		out = append(out, sectionPayload{
			Section: g.Section.String(),
			Lists:   toListPayloads(g.Lists, now),
		})
	}
	return out
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed encoding response", "error", err)
	}
}

type errorPayload struct {
	Error string `json:"error"`
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorPayload{Error: msg})
}

// errBadBody marks request bodies that could not be decoded.
var errBadBody = errors.New("invalid request body")

// respondServiceError maps domain and storage errors onto HTTP status
// codes: missing records are 404, malformed bodies 400, validation
// failures 422, everything else an opaque 500.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, errBadBody):
		respondError(w, http.StatusBadRequest, err.Error())
	case isValidationError(err):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		fields := applog.NewFields().
			WithComponent(applog.ComponentHTTP).
			WithRequestID(trace.RequestID(r.Context())).
			WithError(err).
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "")
		slog.ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrEmptyName,
		core.ErrMissingID,
		core.ErrMissingList,
		core.ErrMissingDate,
		core.ErrNegativeQuantity,
		core.ErrNegativeThreshold,
		core.ErrNegativeAmount,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
