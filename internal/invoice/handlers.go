package invoice

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-jastip/internal/common"
	"github.com/noah-isme/backend-jastip/internal/order"
)

// Handler exposes invoice endpoints.
type Handler struct {
	Svc *Service
}

// Routes mounts the invoice endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Issue)
	r.Get("/preview", h.Preview)
	r.Get("/{invoiceId}", h.Get)
}

// Preview aggregates ?ids= or ?customer= without issuing.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Svc.Preview(r.Context(), order.FilterFromQuery(r))
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, summary)
}

func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	var filter order.Filter
	if err := common.DecodeJSON(r, &filter); err != nil {
		common.WriteError(w, r, err)
		return
	}
	inv, err := h.Svc.Issue(r.Context(), filter)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusAccepted, inv)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Svc.Get(r.Context(), chi.URLParam(r, "invoiceId"))
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, inv)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := common.ParsePagination(r, 20, 100)
	items, total, err := h.Svc.List(r.Context(), page)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items, "pagination": page.Meta(total)})
}
