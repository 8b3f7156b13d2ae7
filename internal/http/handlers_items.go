package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ishop/internal/core"
	"ishop/internal/services"
)

// itemRequest covers both create and update bodies. Price can arrive
// as a decimal string ("3.99") or as integer cents; the string wins
// when both are present.
type itemRequest struct {
	Name              string     `json:"name"`
	Quantity          int        `json:"quantity"`
	QuantityThreshold int        `json:"quantity_threshold"`
	Price             string     `json:"price"`
	PriceCents        *int64     `json:"price_cents"`
	IsAvailable       *bool      `json:"is_available"`
	ExpirationDate    *time.Time `json:"expiration_date"`
}

func (req itemRequest) priceCents() (int64, error) {
	if req.Price != "" {
		cents, err := core.ParseDecimalToCents(req.Price)
		if err != nil {
			return 0, fmt.Errorf("invalid price %q: %w", req.Price, err)
		}
		return cents, nil
	}
	if req.PriceCents != nil {
		return *req.PriceCents, nil
	}
	return 0, nil
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cents, err := req.priceCents()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	params := services.NewItemParams{
		ListID:            r.PathValue("id"),
		Name:              req.Name,
		Quantity:          req.Quantity,
		QuantityThreshold: req.QuantityThreshold,
		Price:             core.Money{Cents: cents},
	}
	if req.ExpirationDate != nil {
		params.ExpirationDate = *req.ExpirationDate
	}

	item, err := s.items.AddItem(r.Context(), params)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toItemPayload(item, time.Now()))
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.items.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toItemPayload(item, time.Now()))
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	merged, err := s.mergeItemUpdate(r.Context(), r.PathValue("id"), body)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	updated, err := s.items.UpdateItem(r.Context(), merged)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toItemPayload(updated, time.Now()))
}

func (s *Server) handleToggleItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.items.ToggleAvailability(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toItemPayload(item, time.Now()))
}

type batchUpdateRequest struct {
	Items []json.RawMessage `json:"items"`
}

func (s *Server) handleBatchUpdateItems(w http.ResponseWriter, r *http.Request) {
	var req batchUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, "no items to update")
		return
	}

	merged := make([]core.GroceryItem, 0, len(req.Items))
	for _, raw := range req.Items {
		var ref struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &ref); err != nil || ref.ID == "" {
			respondError(w, http.StatusBadRequest, "batch entry missing id")
			return
		}
		item, err := s.mergeItemUpdate(r.Context(), ref.ID, raw)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		merged = append(merged, item)
	}

	if err := s.items.BatchUpdateItems(r.Context(), merged); err != nil {
		respondServiceError(w, r, err)
		return
	}

	now := time.Now()
	payloads := make([]itemPayload, 0, len(merged))
	for _, item := range merged {
		stored, err := s.items.GetItem(r.Context(), item.ID)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		payloads = append(payloads, toItemPayload(stored, now))
	}
	respondJSON(w, http.StatusOK, payloads)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.items.DeleteItem(r.Context(), r.PathValue("id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// mergeItemUpdate loads the stored item and overlays the request body
// on top of it, so clients can send only the fields they change. An
// explicit null expiration_date clears the date.
func (s *Server) mergeItemUpdate(ctx context.Context, id string, body []byte) (core.GroceryItem, error) {
	existing, err := s.items.GetItem(ctx, id)
	if err != nil {
		return core.GroceryItem{}, err
	}

	cents := existing.Price.Cents
	available := existing.IsAvailable
	req := itemRequest{
		Name:              existing.Name,
		Quantity:          existing.Quantity,
		QuantityThreshold: existing.QuantityThreshold,
		PriceCents:        &cents,
		IsAvailable:       &available,
	}
	if !existing.ExpirationDate.IsZero() {
		exp := existing.ExpirationDate
		req.ExpirationDate = &exp
	}

	if err := json.Unmarshal(body, &req); err != nil {
		return core.GroceryItem{}, fmt.Errorf("%w: %v", errBadBody, err)
	}

	newCents, err := req.priceCents()
	if err != nil {
		return core.GroceryItem{}, fmt.Errorf("%w: %v", errBadBody, err)
	}

	merged := core.GroceryItem{
		ID:                existing.ID,
		ListID:            existing.ListID,
		Name:              req.Name,
		Quantity:          req.Quantity,
		QuantityThreshold: req.QuantityThreshold,
		Price:             core.Money{Cents: newCents},
		DateAdded:         existing.DateAdded,
	}
	if req.IsAvailable != nil {
		merged.IsAvailable = *req.IsAvailable
	}
	if req.ExpirationDate != nil {
		merged.ExpirationDate = *req.ExpirationDate
	}
	return merged, nil
}
