package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/drivescore/internal/metrics"
)

// spyCollector は呼び出しを記録するMetricsCollector。
type spyCollector struct {
	metrics.Nop
	mu       sync.Mutex
	statuses []int
	routes   []string
}

func (s *spyCollector) RecordHTTPStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, code)
}

func (s *spyCollector) RecordRequestLatency(route string, _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = append(s.routes, route)
}

func TestMetricsMiddleware_RecordsRoutePattern(t *testing.T) {
	spy := &spyCollector{}
	r := chi.NewRouter()
	r.Use(NewMetricsMiddleware(spy))
	r.Get("/trip/{tripID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	serve(r, httptest.NewRequest(http.MethodGet, "/trip/abc", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	if len(spy.statuses) != 2 || spy.statuses[0] != http.StatusNotFound || spy.statuses[1] != http.StatusNotFound {
		t.Errorf("statuses = %v, want [404 404]", spy.statuses)
	}
	if len(spy.routes) != 2 || spy.routes[0] != "/trip/{tripID}" || spy.routes[1] != unmatchedRoute {
		t.Errorf("routes = %v", spy.routes)
	}
}

func TestMetricsMiddleware_WithoutChiContext(t *testing.T) {
	spy := &spyCollector{}
	serve(NewMetricsMiddleware(spy)(okHandler), httptest.NewRequest(http.MethodGet, "/health", nil))

	if len(spy.routes) != 1 || spy.routes[0] != unmatchedRoute {
		t.Errorf("routes = %v, want [%s]", spy.routes, unmatchedRoute)
	}
	if len(spy.statuses) != 1 || spy.statuses[0] != http.StatusOK {
		t.Errorf("statuses = %v, want [200]", spy.statuses)
	}
}
