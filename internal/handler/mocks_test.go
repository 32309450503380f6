package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/drivescore/internal/auth"
	"github.com/hitoshi/drivescore/internal/model"
	"github.com/hitoshi/drivescore/internal/trip"
)

// --- モック定義 ---

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	registerFn func(ctx context.Context, in auth.RegisterInput) (*model.User, error)
	loginFn    func(ctx context.Context, email, password string) (*auth.LoginResult, error)
}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return &model.User{ID: "user-1"}, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return &auth.LoginResult{User: &model.User{ID: "user-1"}}, nil
}

// mockTripService はTripServiceInterfaceのモック実装。
type mockTripService struct {
	startTripFn    func(ctx context.Context, userID string) (*model.Trip, error)
	recordSampleFn func(ctx context.Context, in trip.SampleInput) (*model.SensorSample, error)
	endTripFn      func(ctx context.Context, tripID string) (*trip.EndResult, error)
	getTripFn      func(ctx context.Context, tripID string) (*model.Trip, error)
	listTripsFn    func(ctx context.Context, userID string) ([]*model.Trip, error)
}

func (m *mockTripService) StartTrip(ctx context.Context, userID string) (*model.Trip, error) {
	if m.startTripFn != nil {
		return m.startTripFn(ctx, userID)
	}
	return &model.Trip{ID: "trip-1", DriverID: userID}, nil
}

func (m *mockTripService) RecordSample(ctx context.Context, in trip.SampleInput) (*model.SensorSample, error) {
	if m.recordSampleFn != nil {
		return m.recordSampleFn(ctx, in)
	}
	return &model.SensorSample{TripID: in.TripID}, nil
}

func (m *mockTripService) EndTrip(ctx context.Context, tripID string) (*trip.EndResult, error) {
	if m.endTripFn != nil {
		return m.endTripFn(ctx, tripID)
	}
	return &trip.EndResult{}, nil
}

func (m *mockTripService) GetTrip(ctx context.Context, tripID string) (*model.Trip, error) {
	if m.getTripFn != nil {
		return m.getTripFn(ctx, tripID)
	}
	return &model.Trip{ID: tripID}, nil
}

func (m *mockTripService) ListTrips(ctx context.Context, userID string) ([]*model.Trip, error) {
	if m.listTripsFn != nil {
		return m.listTripsFn(ctx, userID)
	}
	return []*model.Trip{}, nil
}

// mockScoreService はScoreServiceInterfaceのモック実装。
type mockScoreService struct {
	computeScoreFn func(ctx context.Context, tripID string) (*model.DriverScore, error)
	latestScoreFn  func(ctx context.Context, tripID string) (*model.DriverScore, error)
}

func (m *mockScoreService) ComputeScore(ctx context.Context, tripID string) (*model.DriverScore, error) {
	if m.computeScoreFn != nil {
		return m.computeScoreFn(ctx, tripID)
	}
	return &model.DriverScore{TripID: tripID, TotalScore: 100, RiskLevel: model.RiskLow}, nil
}

func (m *mockScoreService) LatestScore(ctx context.Context, tripID string) (*model.DriverScore, error) {
	if m.latestScoreFn != nil {
		return m.latestScoreFn(ctx, tripID)
	}
	return nil, model.NewScoreNotFoundError(tripID)
}

// --- テストヘルパー ---

// jsonRequest はJSONボディ付きのリクエストを生成する。
func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("failed to encode body: %v", err)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeBody はレスポンスボディをmapにデコードする。
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v\nraw: %s", err, w.Body.String())
	}
	return result
}

// assertAPIError はステータスとエラーコードを検証する。
func assertAPIError(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()
	if w.Code != wantStatus {
		t.Errorf("status = %d, want %d (body: %s)", w.Code, wantStatus, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["code"] != wantCode {
		t.Errorf("code = %v, want %s", body["code"], wantCode)
	}
}

func jsonDecode(w *httptest.ResponseRecorder, dst any) error {
	return json.NewDecoder(w.Body).Decode(dst)
}
