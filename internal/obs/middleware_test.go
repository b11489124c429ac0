package obs_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-jastip/internal/obs"
)

func TestHTTPMetricsLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("jastip", []float64{1, 10}, registry)

	r := chi.NewRouter()
	r.Use(obs.HTTPObs{Metrics: metrics}.Middleware)
	r.Get("/api/v1/orders/{orderId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/orders/123", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rr.Code)
	}

	total := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/api/v1/orders/{orderId}", "204"))
	if total != 1 {
		t.Fatalf("expected counter to be 1, got %v", total)
	}
	if samples := testutil.CollectAndCount(metrics.ReqDur); samples == 0 {
		t.Fatalf("expected histogram sample")
	}
	if val := testutil.ToFloat64(metrics.InFlight); val != 0 {
		t.Fatalf("expected no in-flight requests, got %v", val)
	}
}

func TestNewHTTPMetricsReusesRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := obs.NewHTTPMetrics("jastip", nil, registry)
	second := obs.NewHTTPMetrics("jastip", nil, registry)
	require.Same(t, first.ReqTotal, second.ReqTotal)
	require.Equal(t, first.InFlight, second.InFlight)
}

func TestParseBucketsCSV(t *testing.T) {
	require.Equal(t, []float64{5, 50.5}, obs.ParseBucketsCSV(" 5, x, -1, 50.5,"))
	require.Empty(t, obs.ParseBucketsCSV(""))
}

func TestDomainCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	obs.MustRegisterDomainMetrics("jastip_test", registry)

	before := testutil.ToFloat64(obs.InvoicesTotal.WithLabelValues("issued"))
	obs.CountInvoice("issued")
	require.Equal(t, before+1, testutil.ToFloat64(obs.InvoicesTotal.WithLabelValues("issued")))
}

func TestSpanNameUsesRoutePattern(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/1/status", nil)
	req = req.WithContext(obs.WithRoutePattern(req.Context(), "/api/v1/orders/{orderId}/status"))
	require.Equal(t, "PATCH /api/v1/orders/{orderId}/status", obs.SpanName("", req))

	bare := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	require.Equal(t, "GET /health/live", obs.SpanName("", bare))
}
