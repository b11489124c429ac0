package settings

import (
	"net/http"

	"github.com/noah-isme/backend-jastip/internal/common"
	"github.com/noah-isme/backend-jastip/internal/pricing"
)

// Handler exposes the pricing settings endpoints.
type Handler struct {
	Svc *Service
}

// Get returns the current pricing settings along with supported currencies.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Svc.Current(r.Context())
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": p,
		"meta": map[string]any{"currencies": pricing.SupportedCurrencies()},
	})
}

// Put replaces the pricing settings.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, r, err)
		return
	}
	p, err := h.Svc.Update(r.Context(), in)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, p)
}
