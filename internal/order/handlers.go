package order

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-jastip/internal/common"
)

// Handler exposes order endpoints for the dashboard.
type Handler struct {
	Svc *Service
}

// Routes mounts the order endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/preview", h.Preview)
	r.Get("/summary", h.Summary)
	r.Route("/{orderId}", func(o chi.Router) {
		o.Get("/", h.Get)
		o.Get("/form", h.Form)
		o.Put("/", h.Update)
		o.Delete("/", h.Delete)
		o.Patch("/status", h.PatchStatus)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := common.ParsePagination(r, 20, 100)
	q := r.URL.Query()
	orders, total, err := h.Svc.List(r.Context(), ListQuery{
		Customer: q.Get("customer"),
		Status:   Status(q.Get("status")),
		Limit:    page.PerPage,
		Offset:   page.Offset(),
	})
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       orders,
		"pagination": page.Meta(total),
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var form Form
	if err := common.DecodeJSON(r, &form); err != nil {
		common.WriteError(w, r, err)
		return
	}
	created, err := h.Svc.Create(r.Context(), form)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusCreated, created)
}

// Preview returns the live computation for a form without saving it.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var form Form
	if err := common.DecodeJSON(r, &form); err != nil {
		common.WriteError(w, r, err)
		return
	}
	res, err := h.Svc.Preview(r.Context(), form)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, res)
}

// Summary aggregates orders selected by ?ids=a,b or ?customer=name.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Svc.Summarize(r.Context(), FilterFromQuery(r))
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, summary)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.Svc.Get(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, o)
}

// Form returns the stored order as editable form state.
func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	form, err := h.Svc.EditForm(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, form)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var form Form
	if err := common.DecodeJSON(r, &form); err != nil {
		common.WriteError(w, r, err)
		return
	}
	updated, err := h.Svc.Update(r.Context(), chi.URLParam(r, "orderId"), form)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, updated)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), chi.URLParam(r, "orderId")); err != nil {
		common.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type patchStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// PatchStatus advances the order status.
func (h *Handler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	var req patchStatusRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, r, err)
		return
	}
	updated, err := h.Svc.UpdateStatus(r.Context(), chi.URLParam(r, "orderId"), req.Status)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, updated)
}

// FilterFromQuery reads an aggregation filter from ?ids= (comma separated or
// repeated) and ?customer=.
func FilterFromQuery(r *http.Request) Filter {
	q := r.URL.Query()
	var ids []string
	for _, raw := range q["ids"] {
		for _, part := range strings.Split(raw, ",") {
			if id := strings.TrimSpace(part); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return Filter{Customer: strings.TrimSpace(q.Get("customer")), IDs: ids}
}
