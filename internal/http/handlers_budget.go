package http

import (
	"net/http"
	"strings"
	"time"

	"ishop/internal/core"
)

type segmentPayload struct {
	Name         string  `json:"name"`
	AmountCents  int64   `json:"amount_cents"`
	Amount       string  `json:"amount"`
	Transactions int     `json:"transactions"`
	ColorIndex   int     `json:"color_index"`
	StartDegrees float64 `json:"start_degrees,omitempty"`
	EndDegrees   float64 `json:"end_degrees,omitempty"`
}

type overviewPayload struct {
	Start        string           `json:"start"`
	End          string           `json:"end"`
	TotalCents   int64            `json:"total_cents"`
	Total        string           `json:"total"`
	ListCount    int              `json:"list_count"`
	AverageCents int64            `json:"average_cents"`
	Average      string           `json:"average"`
	HasData      bool             `json:"has_data"`
	Segments     []segmentPayload `json:"segments"`
}

const dateLayout = "2006-01-02"

// handleBudgetOverview returns the spending summary for a date range.
// Defaults to the last 30 days; results are cached per range until the
// next committed change.
func (s *Server) handleBudgetOverview(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	start := now.AddDate(0, 0, -30)
	end := now

	if v := strings.TrimSpace(r.URL.Query().Get("start")); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid start date, want YYYY-MM-DD")
			return
		}
		start = t
	}
	if v := strings.TrimSpace(r.URL.Query().Get("end")); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid end date, want YYYY-MM-DD")
			return
		}
		end = t
	}
	if end.Before(start) {
		respondError(w, http.StatusBadRequest, "end date before start date")
		return
	}

	key := start.Format(dateLayout) + "|" + end.Format(dateLayout)
	if ov, found := s.overviewCache.Get(key); found {
		respondJSON(w, http.StatusOK, toOverviewPayload(ov))
		return
	}

	ov, err := s.budget.Overview(r.Context(), start, end)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.overviewCache.Set(key, ov)

	respondJSON(w, http.StatusOK, toOverviewPayload(ov))
}

func toOverviewPayload(ov core.BudgetOverview) overviewPayload {
	p := overviewPayload{
		Start:        ov.Start.Format(dateLayout),
		End:          ov.End.Format(dateLayout),
		TotalCents:   ov.Total.Cents,
		Total:        ov.Total.Format(),
		ListCount:    ov.ListCount,
		AverageCents: ov.Average.Cents,
		Average:      ov.Average.Format(),
		HasData:      ov.HasData(),
		Segments:     make([]segmentPayload, 0, len(ov.Segments)),
	}
	for i, seg := range ov.Segments {
		sp := segmentPayload{
			Name:         seg.Bucket.Name,
			AmountCents:  seg.Bucket.Amount.Cents,
			Amount:       seg.Bucket.Amount.Format(),
			Transactions: seg.Bucket.Transactions,
			ColorIndex:   seg.ColorIndex,
		}
		// Angles exist only when the range has nonzero spending.
		if i < len(ov.Angles) {
			sp.StartDegrees = ov.Angles[i].StartDegrees
			sp.EndDegrees = ov.Angles[i].EndDegrees
		}
		p.Segments = append(p.Segments, sp)
	}
	return p
}
