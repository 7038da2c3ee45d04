package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestImportCounters(t *testing.T) {
	m := New()
	m.ObserveRow("created")
	m.ObserveRow("created")
	m.ObserveRow("skipped")
	m.ObserveImport("ok")

	if got := testutil.ToFloat64(m.importRows.WithLabelValues("created")); got != 2 {
		t.Fatalf("expected 2 created rows, got %v", got)
	}
	if got := testutil.ToFloat64(m.importRows.WithLabelValues("skipped")); got != 1 {
		t.Fatalf("expected 1 skipped row, got %v", got)
	}
	if got := testutil.ToFloat64(m.imports.WithLabelValues("ok")); got != 1 {
		t.Fatalf("expected 1 ok import, got %v", got)
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	router := chi.NewRouter()
	router.Use(m.Middleware)
	router.Get("/api/records/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/records/abc", nil))

	count := testutil.CollectAndCount(m.requestDuration)
	if count != 1 {
		t.Fatalf("expected one series, got %d", count)
	}

	resp := httptest.NewRecorder()
	m.Handler().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := resp.Body.String()
	if !strings.Contains(body, `route="/api/records/{id}"`) {
		t.Fatalf("expected route pattern label, got:\n%s", body)
	}
	if !strings.Contains(body, `status="404"`) {
		t.Fatalf("expected status label, got:\n%s", body)
	}
}
