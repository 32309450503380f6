package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/drivescore/internal/cache"
	"github.com/hitoshi/drivescore/internal/metrics"
	"github.com/hitoshi/drivescore/internal/model"
	"github.com/hitoshi/drivescore/internal/repository"
)

// TripFinder はトリップの存在確認に使用する。
type TripFinder interface {
	FindByID(ctx context.Context, id string) (*model.Trip, error)
}

// Service はスコア算出と保存済みスコアの参照を提供するサービス層。
type Service struct {
	engine  *Engine
	trips   TripFinder
	samples repository.SampleRepository
	scores  repository.ScoreRepository
	cache   cache.ScoreCache
	metrics metrics.MetricsCollector
	now     func() time.Time
}

// NewService はServiceを生成する。cacheとcollectorはnilの場合は無効化される。
func NewService(
	engine *Engine,
	trips TripFinder,
	samples repository.SampleRepository,
	scores repository.ScoreRepository,
	scoreCache cache.ScoreCache,
	collector metrics.MetricsCollector,
) *Service {
	if scoreCache == nil {
		scoreCache = cache.NopScoreCache{}
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		engine:  engine,
		trips:   trips,
		samples: samples,
		scores:  scores,
		cache:   scoreCache,
		metrics: collector,
		now:     time.Now,
	}
}

// ComputeScore はトリップの全サンプルからスコアを算出し、保存して返す。
// 既存のスコアは置き換えられる。サンプルが1件もない場合はNO_SENSOR_DATAを返す。
// キャッシュには書き込まず破棄のみ行い、次回のLatestScoreでストアの値から再構築する。
func (s *Service) ComputeScore(ctx context.Context, tripID string) (*model.DriverScore, error) {
	tripID, err := parseTripID(tripID)
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

	samples, err := s.samples.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sensor samples: %w", err)
	}
	if len(samples) == 0 {
		return nil, model.NewNoSensorDataError(tripID)
	}

	res := s.engine.Score(samples)
	score := &model.DriverScore{
		TripID:     tripID,
		TotalScore: res.Score,
		RiskLevel:  res.RiskLevel,
		Suggestion: res.Suggestion,
		UpdatedAt:  s.now().UTC(),
	}

	if err := s.scores.Upsert(ctx, score); err != nil {
		return nil, fmt.Errorf("failed to save driver score: %w", err)
	}
	s.invalidateCache(ctx, tripID)
	s.metrics.RecordScoreComputed(score.TotalScore, string(score.RiskLevel))

	slog.Info("driver score computed",
		slog.String("trip_id", tripID),
		slog.Int("score", score.TotalScore),
		slog.String("risk_level", string(score.RiskLevel)),
		slog.Int("sample_count", len(samples)),
	)
	return score, nil
}

// LatestScore は保存済みの最新スコアを返す。キャッシュを優先し、ミス時はストアから読み込む。
func (s *Service) LatestScore(ctx context.Context, tripID string) (*model.DriverScore, error) {
	tripID, err := parseTripID(tripID)
	if err != nil {
		return nil, err
	}

	cached, ok, err := s.cache.Get(ctx, tripID)
	if err != nil {
		slog.Warn("score cache read failed",
			slog.String("trip_id", tripID),
			slog.String("error", err.Error()),
		)
	}
	s.metrics.RecordScoreCache(ok)
	if ok {
		return cached, nil
	}

	score, err := s.scores.FindByTripID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to find driver score: %w", err)
	}
	if score == nil {
		return nil, model.NewScoreNotFoundError(tripID)
	}

	s.storeInCache(ctx, score)
	return score, nil
}

// storeInCache はキャッシュへの書き込みを試みる。失敗してもストアが正のため処理は継続する。
func (s *Service) storeInCache(ctx context.Context, score *model.DriverScore) {
	if err := s.cache.Set(ctx, score); err != nil {
		slog.Warn("score cache write failed",
			slog.String("trip_id", score.TripID),
			slog.String("error", err.Error()),
		)
	}
}

// invalidateCache はキャッシュの破棄を試みる。失敗時はTTL経過まで古い値が残り得る。
func (s *Service) invalidateCache(ctx context.Context, tripID string) {
	if err := s.cache.Delete(ctx, tripID); err != nil {
		slog.Warn("score cache invalidation failed",
			slog.String("trip_id", tripID),
			slog.String("error", err.Error()),
		)
	}
}

func parseTripID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", model.NewMissingFieldError("trip_id")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", model.NewInvalidIDError("trip_id", raw)
	}
	return id.String(), nil
}
