package audit

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HTTPRecorder records mutating requests after they have been handled.
type HTTPRecorder struct {
	Service *Service
	OnError func(*http.Request, error)
}

// Middleware records POST, PUT, PATCH and DELETE requests. The resource id is
// the last URL parameter of the matched route.
func (rec HTTPRecorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if rec.Service == nil || !rec.Service.Enabled || !mutating(req.Method) {
			next.ServeHTTP(w, req)
			return
		}

		sw := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(sw, req)

		ctx := context.WithoutCancel(req.Context())
		if err := rec.Service.Record(ctx, req, sw.Status(), lastURLParam(req), nil); err != nil && rec.OnError != nil {
			rec.OnError(req, err)
		}
	})
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

func lastURLParam(req *http.Request) string {
	rc := chi.RouteContext(req.Context())
	if rc == nil {
		return ""
	}
	for i := len(rc.URLParams.Keys) - 1; i >= 0; i-- {
		if rc.URLParams.Keys[i] != "*" && rc.URLParams.Values[i] != "" {
			return rc.URLParams.Values[i]
		}
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Status() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}
