package trip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/drivescore/internal/metrics"
	"github.com/hitoshi/drivescore/internal/model"
	"github.com/hitoshi/drivescore/internal/repository"
)

// SampleInput はセンサーサンプル記録の入力。
// RecordedAtがnilの場合はサーバーの受信時刻を使用する。
type SampleInput struct {
	TripID       string
	Speed        *float64
	Acceleration *float64
	Latitude     *float64
	Longitude    *float64
	RecordedAt   *time.Time
}

// EndResult はトリップ終了処理の結果。
// Endedがfalseの場合はサンプル不足のためトリップは変更されていない。
type EndResult struct {
	Trip    *model.Trip
	Summary Summary
	Ended   bool
}

// Service はトリップのライフサイクルを管理するサービス層。
type Service struct {
	trips   repository.TripRepository
	samples repository.SampleRepository
	metrics metrics.MetricsCollector
	now     func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	trips repository.TripRepository,
	samples repository.SampleRepository,
	collector metrics.MetricsCollector,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		trips:   trips,
		samples: samples,
		metrics: collector,
		now:     time.Now,
	}
}

// StartTrip はドライバーの新しいトリップを開始する。
func (s *Service) StartTrip(ctx context.Context, userID string) (*model.Trip, error) {
	userID, err := parseID("user_id", userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	t := &model.Trip{
		ID:        uuid.New().String(),
		DriverID:  userID,
		StartTime: now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.trips.Create(ctx, t); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewUserNotFoundError()
		}
		return nil, fmt.Errorf("failed to create trip: %w", err)
	}

	slog.Info("trip started",
		slog.String("trip_id", t.ID),
		slog.String("user_id", userID),
	)
	return t, nil
}

// RecordSample はトリップにセンサーサンプルを1件追記する。
func (s *Service) RecordSample(ctx context.Context, in SampleInput) (*model.SensorSample, error) {
	tripID, err := parseID("trip_id", in.TripID)
	if err != nil {
		return nil, err
	}
	if err := validateSample(in); err != nil {
		return nil, err
	}

	recordedAt := s.now().UTC()
	if in.RecordedAt != nil {
		recordedAt = in.RecordedAt.UTC()
	}

	sample := &model.SensorSample{
		ID:           uuid.New().String(),
		TripID:       tripID,
		Speed:        in.Speed,
		Acceleration: in.Acceleration,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		RecordedAt:   recordedAt,
	}

	if err := s.samples.Append(ctx, sample); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewTripNotFoundError(tripID)
		}
		return nil, fmt.Errorf("failed to append sensor sample: %w", err)
	}

	s.metrics.RecordSampleRecorded()
	return sample, nil
}

// EndTrip はトリップの全サンプルから走行距離・平均速度を算出して確定する。
// サンプルが2件未満の場合はエラーではなく Ended=false を返す。
// 終了済みトリップに対して再度呼び出した場合は現在のサンプル列で再計算する。
func (s *Service) EndTrip(ctx context.Context, tripID string) (*EndResult, error) {
	tripID, err := parseID("trip_id", tripID)
	if err != nil {
		return nil, err
	}

	var summary Summary
	compute := func(t *model.Trip, samples []model.SensorSample) (*model.Trip, bool) {
		now := s.now().UTC()
		sum, ok := Aggregate(samples, now)
		if !ok {
			return nil, false
		}
		summary = sum

		// 開始時刻はStartTripで記録した値を保持する
		updated := *t
		endedAt := sum.EndedAt
		updated.EndTime = &endedAt
		updated.DistanceKm = sum.DistanceKm
		updated.AvgSpeedKmh = sum.AvgSpeedKmh
		updated.UpdatedAt = now
		return &updated, true
	}

	t, ended, err := s.trips.Finalize(ctx, tripID, compute)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize trip: %w", err)
	}
	if t == nil {
		return nil, model.NewTripNotFoundError(tripID)
	}
	if !ended {
		slog.Info("trip end skipped: insufficient samples",
			slog.String("trip_id", tripID),
		)
		return &EndResult{Trip: t}, nil
	}

	if summary.ClockFallback {
		slog.Warn("non-positive elapsed time; using current time as trip end",
			slog.String("trip_id", tripID),
			slog.Int("sample_count", summary.SampleCount),
			slog.Time("started_at", summary.StartedAt),
		)
		s.metrics.RecordClockFallback()
	}

	s.metrics.RecordTripEnded(summary.DistanceKm)
	slog.Info("trip ended",
		slog.String("trip_id", tripID),
		slog.Float64("distance_km", summary.DistanceKm),
		slog.Float64("avg_speed_kmh", summary.AvgSpeedKmh),
		slog.Int("sample_count", summary.SampleCount),
	)

	return &EndResult{Trip: t, Summary: summary, Ended: true}, nil
}

// GetTrip は指定IDのトリップを返す。
func (s *Service) GetTrip(ctx context.Context, tripID string) (*model.Trip, error) {
	tripID, err := parseID("trip_id", tripID)
	if err != nil {
		return nil, err
	}

	t, err := s.trips.FindByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to find trip: %w", err)
	}
	if t == nil {
		return nil, model.NewTripNotFoundError(tripID)
	}
	return t, nil
}

// ListTrips はドライバーのトリップ履歴を新しい順に返す。
func (s *Service) ListTrips(ctx context.Context, userID string) ([]*model.Trip, error) {
	userID, err := parseID("user_id", userID)
	if err != nil {
		return nil, err
	}

	trips, err := s.trips.ListByDriver(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	if trips == nil {
		trips = []*model.Trip{}
	}
	return trips, nil
}

// parseID は必須のUUID文字列を検証し、正規化した値を返す。
func parseID(field, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", model.NewMissingFieldError(field)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", model.NewInvalidIDError(field, raw)
	}
	return id.String(), nil
}

func validateSample(in SampleInput) error {
	for name, v := range map[string]*float64{
		"speed":        in.Speed,
		"acceleration": in.Acceleration,
		"latitude":     in.Latitude,
		"longitude":    in.Longitude,
	} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return model.NewInvalidSampleError(name + " must be a finite number")
		}
	}
	if in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90) {
		return model.NewInvalidSampleError("latitude out of range")
	}
	if in.Longitude != nil && (*in.Longitude < -180 || *in.Longitude > 180) {
		return model.NewInvalidSampleError("longitude out of range")
	}
	return nil
}
