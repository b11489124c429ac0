package audit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandlerList(t *testing.T) {
	store := &stubStore{entries: []Entry{{Action: "POST /api/v1/orders", Method: "POST"}}}
	h := Handler{Store: store}
	req := httptest.NewRequest(http.MethodGet, "/audit-logs?limit=25&page=3&resource=orders", nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if store.query.Limit != 25 || store.query.Offset != 50 || store.query.ResourceType != "orders" {
		t.Fatalf("unexpected query %+v", store.query)
	}
	if rr.Header().Get("X-Total-Count") != "1" {
		t.Fatalf("unexpected total header %q", rr.Header().Get("X-Total-Count"))
	}
	var payload struct {
		Data []Entry `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Data) != 1 || payload.Data[0].Action != "POST /api/v1/orders" {
		t.Fatalf("unexpected payload %+v", payload.Data)
	}
}

func TestHandlerListWithoutStore(t *testing.T) {
	rr := httptest.NewRecorder()
	Handler{}.List(rr, httptest.NewRequest(http.MethodGet, "/audit-logs", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}
