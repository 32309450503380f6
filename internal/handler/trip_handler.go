package handler

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/drivescore/internal/middleware"
	"github.com/hitoshi/drivescore/internal/model"
	"github.com/hitoshi/drivescore/internal/trip"
)

// TripServiceInterface はトリップハンドラーが必要とするサービスインターフェース。
type TripServiceInterface interface {
	StartTrip(ctx context.Context, userID string) (*model.Trip, error)
	RecordSample(ctx context.Context, in trip.SampleInput) (*model.SensorSample, error)
	EndTrip(ctx context.Context, tripID string) (*trip.EndResult, error)
	GetTrip(ctx context.Context, tripID string) (*model.Trip, error)
	ListTrips(ctx context.Context, userID string) ([]*model.Trip, error)
}

// TripHandler はトリップとセンサーデータのHTTPハンドラー。
type TripHandler struct {
	service TripServiceInterface
}

// NewTripHandler はTripHandlerを生成する。
func NewTripHandler(service TripServiceInterface) *TripHandler {
	return &TripHandler{service: service}
}

type startTripRequest struct {
	UserID string `json:"user_id"`
}

type startTripResponse struct {
	Message string `json:"message"`
	TripID  string `json:"trip_id"`
}

// tripIDRequest はトリップIDを受け取るリクエスト。
// 旧モバイルクライアントが送るtripIDも受け付ける。
type tripIDRequest struct {
	TripID       string `json:"trip_id"`
	LegacyTripID string `json:"tripID"`
}

func (r tripIDRequest) tripID() string {
	if r.TripID != "" {
		return r.TripID
	}
	return r.LegacyTripID
}

type sensorRequest struct {
	tripIDRequest
	Speed        *float64   `json:"speed"`
	Acceleration *float64   `json:"acceleration"`
	Latitude     *float64   `json:"latitude"`
	Longitude    *float64   `json:"longitude"`
	Timestamp    *time.Time `json:"timestamp"`
}

type endTripResponse struct {
	Message    string   `json:"message"`
	DistanceKm *float64 `json:"distance_km,omitempty"`
	AvgSpeed   *float64 `json:"avg_speed,omitempty"`
}

type tripResponse struct {
	ID          string     `json:"id"`
	DriverID    string     `json:"driver_id"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	DistanceKm  float64    `json:"distance_km"`
	AvgSpeedKmh float64    `json:"avg_speed_kmh"`
}

// StartTrip はトリップを開始する。
// ボディにuser_idがなく、ベアラートークンが提示されていればそのユーザーで開始する。
// POST /trip/start
func (h *TripHandler) StartTrip(w http.ResponseWriter, r *http.Request) {
	var req startTripRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		req.UserID, _ = middleware.UserIDFromContext(r.Context())
	}

	t, err := h.service.StartTrip(r.Context(), req.UserID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, startTripResponse{Message: "Trip started", TripID: t.ID})
}

// RecordSample はセンサーサンプルを1件記録する。
// POST /sensor
func (h *TripHandler) RecordSample(w http.ResponseWriter, r *http.Request) {
	var req sensorRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	_, err := h.service.RecordSample(r.Context(), trip.SampleInput{
		TripID:       req.tripID(),
		Speed:        req.Speed,
		Acceleration: req.Acceleration,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		RecordedAt:   req.Timestamp,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// EndTrip はトリップを終了し、走行距離と平均速度を返す。
// サンプル不足の場合もエラーではなく200でメッセージのみを返す。
// POST /trip/end
func (h *TripHandler) EndTrip(w http.ResponseWriter, r *http.Request) {
	var req tripIDRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.service.EndTrip(r.Context(), req.tripID())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if !res.Ended {
		writeJSON(w, http.StatusOK, endTripResponse{Message: "Not enough data to compute trip stats"})
		return
	}

	distance := round2(res.Summary.DistanceKm)
	avg := round2(res.Summary.AvgSpeedKmh)
	writeJSON(w, http.StatusOK, endTripResponse{
		Message:    "Trip ended",
		DistanceKm: &distance,
		AvgSpeed:   &avg,
	})
}

// GetTrip はトリップの詳細を返す。
// GET /trip/{tripID}
func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.GetTrip(r.Context(), chi.URLParam(r, "tripID"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTripResponse(t))
}

// ListTrips はドライバーのトリップ履歴を新しい順に返す。
// GET /trips/{userID}
func (h *TripHandler) ListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := h.service.ListTrips(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]tripResponse, 0, len(trips))
	for _, t := range trips {
		resp = append(resp, toTripResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

func toTripResponse(t *model.Trip) tripResponse {
	return tripResponse{
		ID:          t.ID,
		DriverID:    t.DriverID,
		StartTime:   t.StartTime,
		EndTime:     t.EndTime,
		DistanceKm:  round2(t.DistanceKm),
		AvgSpeedKmh: round2(t.AvgSpeedKmh),
	}
}

// round2 は小数第2位に丸める。
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
