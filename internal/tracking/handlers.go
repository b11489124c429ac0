package tracking

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-jastip/internal/common"
)

// Handler exposes the purchase-tracking endpoints.
type Handler struct {
	Svc *Service
}

// Routes mounts the tracking endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Route("/{itemId}", func(i chi.Router) {
		i.Get("/", h.Get)
		i.Put("/", h.Update)
		i.Delete("/", h.Delete)
		i.Post("/purchase", h.MarkPurchased)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := common.ParsePagination(r, 50, 200)
	q := Query{Customer: r.URL.Query().Get("customer"), Limit: page.PerPage, Offset: page.Offset()}
	if raw := r.URL.Query().Get("purchased"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			common.WriteError(w, r, common.BadRequest("purchased must be a boolean"))
			return
		}
		q.Purchased = &v
	}
	items, total, err := h.Svc.List(r.Context(), q)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items, "pagination": page.Meta(total)})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, r, err)
		return
	}
	it, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusCreated, it)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	it, err := h.Svc.Get(r.Context(), chi.URLParam(r, "itemId"))
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, it)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, r, err)
		return
	}
	it, err := h.Svc.Update(r.Context(), chi.URLParam(r, "itemId"), in)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, it)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), chi.URLParam(r, "itemId")); err != nil {
		common.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type purchaseRequest struct {
	TrackingNumber string `json:"trackingNumber" validate:"max=80"`
}

// MarkPurchased accepts an optional body carrying the tracking number.
func (h *Handler) MarkPurchased(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if r.ContentLength != 0 {
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(w, r, err)
			return
		}
	}
	it, err := h.Svc.MarkPurchased(r.Context(), chi.URLParam(r, "itemId"), req.TrackingNumber)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, it)
}
