// Package cache は算出済みドライバースコアのキャッシュを提供する。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/drivescore/internal/model"
)

// ScoreCache はトリップIDをキーとするスコアキャッシュ。
// キャッシュは常に永続ストアの写しであり、欠損してもストアから再構築できる。
type ScoreCache interface {
	// Get はキャッシュ済みスコアを返す。存在しない場合は (nil, false, nil)。
	Get(ctx context.Context, tripID string) (*model.DriverScore, bool, error)
	// Set はスコアを保存する。
	Set(ctx context.Context, score *model.DriverScore) error
	// Delete はトリップのキャッシュを破棄する。存在しない場合もエラーにしない。
	Delete(ctx context.Context, tripID string) error
}

const keyPrefix = "drivescore:score:"

// Key はトリップIDに対応するRedisキーを返す。
func Key(tripID string) string {
	return keyPrefix + tripID
}

type entry struct {
	TripID     string    `json:"trip_id"`
	TotalScore int       `json:"total_score"`
	RiskLevel  string    `json:"risk_level"`
	Suggestion string    `json:"suggestion"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RedisScoreCache はRedisを使用したScoreCache。
type RedisScoreCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedisScoreCache はRedisScoreCacheを生成する。
func NewRedisScoreCache(rdb redis.Cmdable, ttl time.Duration) *RedisScoreCache {
	return &RedisScoreCache{rdb: rdb, ttl: ttl}
}

// NewRedisClient はREDIS_URL形式の接続文字列からクライアントを生成する。
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Get はキャッシュ済みスコアを返す。
func (c *RedisScoreCache) Get(ctx context.Context, tripID string) (*model.DriverScore, bool, error) {
	raw, err := c.rdb.Get(ctx, Key(tripID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached score: %w", err)
	}

	score, err := decode(raw)
	if err != nil {
		return nil, false, err
	}
	return score, true, nil
}

// Set はスコアをTTL付きで保存する。
func (c *RedisScoreCache) Set(ctx context.Context, score *model.DriverScore) error {
	raw, err := encode(score)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, Key(score.TripID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cached score: %w", err)
	}
	return nil
}

// Delete はキャッシュ済みスコアを削除する。
func (c *RedisScoreCache) Delete(ctx context.Context, tripID string) error {
	if err := c.rdb.Del(ctx, Key(tripID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cached score: %w", err)
	}
	return nil
}

func encode(score *model.DriverScore) ([]byte, error) {
	raw, err := json.Marshal(entry{
		TripID:     score.TripID,
		TotalScore: score.TotalScore,
		RiskLevel:  string(score.RiskLevel),
		Suggestion: score.Suggestion,
		UpdatedAt:  score.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode score: %w", err)
	}
	return raw, nil
}

func decode(raw []byte) (*model.DriverScore, error) {
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("failed to decode cached score: %w", err)
	}
	return &model.DriverScore{
		TripID:     e.TripID,
		TotalScore: e.TotalScore,
		RiskLevel:  model.RiskLevel(e.RiskLevel),
		Suggestion: e.Suggestion,
		UpdatedAt:  e.UpdatedAt,
	}, nil
}

// NopScoreCache は何も保持しないScoreCache。REDIS_URL未設定時に使用する。
type NopScoreCache struct{}

// Get は常にキャッシュミスを返す。
func (NopScoreCache) Get(context.Context, string) (*model.DriverScore, bool, error) {
	return nil, false, nil
}

// Set は何もしない。
func (NopScoreCache) Set(context.Context, *model.DriverScore) error {
	return nil
}

// Delete は何もしない。
func (NopScoreCache) Delete(context.Context, string) error {
	return nil
}

var (
	_ ScoreCache = (*RedisScoreCache)(nil)
	_ ScoreCache = NopScoreCache{}
)
