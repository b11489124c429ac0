package audit

import (
	"net/http"
	"strconv"

	"github.com/noah-isme/backend-jastip/internal/common"
)

// Handler exposes HTTP endpoints for working with audit logs.
type Handler struct {
	Store Store
}

// List returns a paginated list of audit entries, optionally filtered by ?resource=.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "AUDIT_NOT_CONFIGURED", "audit store not configured", nil)
		return
	}
	page := common.ParsePagination(r, 50, 200)
	rows, total, err := h.Store.List(r.Context(), Query{
		ResourceType: r.URL.Query().Get("resource"),
		Limit:        page.PerPage,
		Offset:       page.Offset(),
	})
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{"data": rows, "pagination": page.Meta(total)})
}
