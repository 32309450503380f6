package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/drivescore/internal/auth"
	"github.com/hitoshi/drivescore/internal/metrics"
	"github.com/hitoshi/drivescore/internal/middleware"
	"github.com/hitoshi/drivescore/internal/model"
)

type routerFixture struct {
	router   http.Handler
	tokens   *auth.TokenIssuer
	limiter  *middleware.RateLimiter
	trips    *mockTripService
	scores   *mockScoreService
	accounts *mockAuthService
	logs     *bytes.Buffer
}

func newRouterFixture(t *testing.T, cfg middleware.RateLimiterConfig) *routerFixture {
	t.Helper()
	f := &routerFixture{
		tokens:   auth.NewTokenIssuer("router-test-secret", time.Hour),
		limiter:  middleware.NewRateLimiter(cfg),
		trips:    &mockTripService{},
		scores:   &mockScoreService{},
		accounts: &mockAuthService{},
		logs:     &bytes.Buffer{},
	}
	t.Cleanup(f.limiter.Stop)

	reg := prometheus.NewRegistry()
	f.router = NewRouter(&RouterDeps{
		Logger:            slog.New(slog.NewJSONHandler(f.logs, nil)),
		TokenParser:       f.tokens,
		RateLimiter:       f.limiter,
		Metrics:           metrics.NewCollector(reg),
		MetricsHandler:    metrics.Handler(reg),
		CORSAllowedOrigin: "*",
		DB:                &mockPinger{pingFn: func(context.Context) error { return nil }},
		AuthService:       f.accounts,
		TripService:       f.trips,
		ScoreService:      f.scores,
	})
	return f
}

func (f *routerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestNewRouter_Routes(t *testing.T) {
	f := newRouterFixture(t, middleware.DefaultRateLimiterConfig())

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"register", http.MethodPost, "/register", `{}`, http.StatusCreated},
		{"login", http.MethodPost, "/login", `{}`, http.StatusOK},
		{"trip start", http.MethodPost, "/trip/start", `{"user_id":"u"}`, http.StatusOK},
		{"sensor", http.MethodPost, "/sensor", `{"trip_id":"t"}`, http.StatusOK},
		{"trip end", http.MethodPost, "/trip/end", `{"trip_id":"t"}`, http.StatusOK},
		{"trip detail", http.MethodGet, "/trip/t", "", http.StatusOK},
		{"trip history", http.MethodGet, "/trips/u", "", http.StatusOK},
		{"compute score", http.MethodGet, "/driver/score/t", "", http.StatusOK},
		{"latest score", http.MethodGet, "/driver/score/t/latest", "", http.StatusNotFound},
		{"unknown", http.MethodGet, "/nope", "", http.StatusNotFound},
		{"wrong method", http.MethodDelete, "/sensor", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			w := f.do(httptest.NewRequest(tt.method, tt.path, body))
			if w.Code != tt.wantStatus {
				t.Errorf("%s %s status = %d, want %d (body: %s)", tt.method, tt.path, w.Code, tt.wantStatus, w.Body.String())
			}
			if w.Header().Get(middleware.RequestIDHeader) == "" {
				t.Error("X-Request-ID header missing")
			}
			if w.Header().Get("X-Content-Type-Options") != "nosniff" {
				t.Error("security headers missing")
			}
		})
	}
}

func TestNewRouter_ScorePathParam(t *testing.T) {
	f := newRouterFixture(t, middleware.DefaultRateLimiterConfig())
	var got string
	f.scores.computeScoreFn = func(_ context.Context, tripID string) (*model.DriverScore, error) {
		got = tripID
		return &model.DriverScore{TripID: tripID, RiskLevel: model.RiskLow}, nil
	}

	f.do(httptest.NewRequest(http.MethodGet, "/driver/score/0b5c6b8e-1111-4d2a-9f00-123456789abc", nil))

	if got != "0b5c6b8e-1111-4d2a-9f00-123456789abc" {
		t.Errorf("tripID = %q", got)
	}
}

func TestNewRouter_BearerToken(t *testing.T) {
	f := newRouterFixture(t, middleware.DefaultRateLimiterConfig())
	var got string
	f.trips.startTripFn = func(_ context.Context, userID string) (*model.Trip, error) {
		got = userID
		return &model.Trip{ID: "trip-1"}, nil
	}

	token, err := f.tokens.Issue("user-from-token", "taro")
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/trip/start", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer "+token)
	if w := f.do(req); w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got != "user-from-token" {
		t.Errorf("userID = %q, want user-from-token", got)
	}
	if !strings.Contains(f.logs.String(), `"user_id":"user-from-token"`) {
		t.Errorf("request log should carry user_id: %s", f.logs.String())
	}

	bad := httptest.NewRequest(http.MethodPost, "/trip/start", strings.NewReader(`{}`))
	bad.Header.Set("Authorization", "Bearer not-a-jwt")
	w := f.do(bad)
	assertAPIError(t, w, http.StatusUnauthorized, model.ErrCodeUnauthorized)
}

func TestNewRouter_AuthRateLimit(t *testing.T) {
	cfg := middleware.DefaultRateLimiterConfig()
	cfg.AuthBurst = 2
	f := newRouterFixture(t, cfg)

	for i := 0; i < 2; i++ {
		if w := f.do(httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{}`))); w.Code != http.StatusOK {
			t.Fatalf("login %d status = %d", i, w.Code)
		}
	}
	w := f.do(httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{}`)))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}

	// 一般エンドポイントとヘルスチェックは影響を受けない
	if w := f.do(httptest.NewRequest(http.MethodGet, "/trips/u", nil)); w.Code != http.StatusOK {
		t.Errorf("trips status = %d, want 200", w.Code)
	}
	if w := f.do(httptest.NewRequest(http.MethodGet, "/health", nil)); w.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", w.Code)
	}
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	f := newRouterFixture(t, middleware.DefaultRateLimiterConfig())

	f.do(httptest.NewRequest(http.MethodGet, "/trip/abc", nil))
	w := f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "drivescore_http_status_total") {
		t.Error("metrics output missing drivescore_http_status_total")
	}
	if !strings.Contains(body, `route="/trip/{tripID}"`) {
		t.Errorf("latency should be labeled by route pattern:\n%s", body)
	}
}

func TestNewRouter_CORSPreflight(t *testing.T) {
	f := newRouterFixture(t, middleware.DefaultRateLimiterConfig())

	w := f.do(httptest.NewRequest(http.MethodOptions, "/sensor", nil))

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Allow-Origin = %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
}
