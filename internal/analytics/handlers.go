package analytics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-jastip/internal/common"
)

// Handler exposes analytics read endpoints.
type Handler struct {
	Svc *Service
}

// Routes mounts the analytics endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/orders/daily", h.Daily)
	r.Get("/overview", h.Overview)
}

// Daily returns per-day order totals. Either ?from=&to= (RFC 3339 or
// YYYY-MM-DD) or ?days= selects the range.
func (h *Handler) Daily(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	fromStr, toStr := query.Get("from"), query.Get("to")
	var from, to time.Time
	if fromStr != "" && toStr != "" {
		var err error
		if from, err = parseTime(fromStr); err != nil {
			common.WriteError(w, r, common.BadRequest("invalid from date"))
			return
		}
		if to, err = parseTime(toStr); err != nil {
			common.WriteError(w, r, common.BadRequest("invalid to date"))
			return
		}
	} else {
		days := h.Svc.defaultRange()
		if parsed, err := strconv.Atoi(query.Get("days")); err == nil && parsed > 0 {
			days = parsed
		}
		to = h.Svc.now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 1)
		from = to.AddDate(0, 0, -days)
	}
	rows, err := h.Svc.DailyRange(r.Context(), from, to)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows, "totals": Totals(rows)})
}

// Overview returns the dashboard landing summary.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.Svc.Overview(r.Context())
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, ov)
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}
