package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/fintrack/internal/infrastructure/metrics"
)

func TestMetricsMiddlewareRecordsRoutePattern(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/api/v1/entries/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"01A", "01B"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/entries/"+id, nil))
		if rr.Code != http.StatusTeapot {
			t.Fatalf("expected handler status to pass through, got %d", rr.Code)
		}
	}

	got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodGet, "/api/v1/entries/{id}", "418"))
	if got != 2 {
		t.Fatalf("expected both requests under one pattern label, got %v", got)
	}
}

func TestMetricsMiddlewareUnmatchedRoute(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	rr := httptest.NewRecorder()
	Metrics(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/anything/123", nil))

	got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodPost, "unmatched", "201"))
	if got != 1 {
		t.Fatalf("expected unmatched label, got %v", got)
	}
}

func TestMetricsMiddlewareNilMetrics(t *testing.T) {
	called := false
	rr := httptest.NewRecorder()
	Metrics(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if !called {
		t.Fatal("expected handler to run without metrics")
	}
}
