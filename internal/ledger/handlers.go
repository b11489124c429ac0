package ledger

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-jastip/internal/common"
)

// Handler exposes the cash ledger endpoints.
type Handler struct {
	Svc *Service
}

// Routes mounts the ledger endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/balance", h.Balance)
	r.Delete("/{entryId}", h.Delete)
}

// parseRange reads ?from= and ?to= as RFC 3339 timestamps or YYYY-MM-DD dates.
func parseRange(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	from, err := parseTime(q.Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, common.BadRequest("invalid from")
	}
	to, err := parseTime(q.Get("to"))
	if err != nil {
		return time.Time{}, time.Time{}, common.BadRequest("invalid to")
	}
	return from, to, nil
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	q := Query{From: from, To: to}
	if raw := r.URL.Query().Get("direction"); raw != "" {
		d, ok := ParseDirection(raw)
		if !ok {
			common.WriteError(w, r, common.BadRequest("direction must be in or out"))
			return
		}
		q.Direction = d
	}
	page := common.ParsePagination(r, 50, 200)
	q.Limit, q.Offset = page.PerPage, page.Offset()
	entries, total, err := h.Svc.List(r.Context(), q)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": entries, "pagination": page.Meta(total)})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, r, err)
		return
	}
	e, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusCreated, e)
}

// Balance returns per-currency in/out/net totals.
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	balances, err := h.Svc.Balance(r.Context(), from, to)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, balances)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), chi.URLParam(r, "entryId")); err != nil {
		common.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
