// Package scoring はセンサーサンプルから運転の安全スコアを算出する。
package scoring

import (
	"fmt"

	"github.com/hitoshi/drivescore/internal/model"
)

// スコアの範囲
const (
	BaselineScore = 100
	MinScore      = 0
	MaxScore      = 100
)

// リスク区分の境界値。下限値はその区分に含む。
const (
	mediumRiskFloor = 40
	lowRiskFloor    = 80
)

// Config はスコア算出のしきい値とペナルティ重み。
// 同じ (サンプル, Config) に対しては常に同じ結果になる。
type Config struct {
	SpeedLimitKmh       float64 // これを超える速度を速度超過とみなす
	HarshAccelThreshold float64 // m/s²。これを超える加速を急加速、負値を下回る加速を急ブレーキとみなす
	SpeedingPenalty     float64
	HarshAccelPenalty   float64
	HarshBrakePenalty   float64
}

// DefaultConfig はデフォルトのスコア設定を返す。
func DefaultConfig() Config {
	return Config{
		SpeedLimitKmh:       100.0,
		HarshAccelThreshold: 3.0,
		SpeedingPenalty:     2.0,
		HarshAccelPenalty:   5.0,
		HarshBrakePenalty:   7.0,
	}
}

// Result はスコア算出結果。
type Result struct {
	Score          int
	RiskLevel      model.RiskLevel
	Suggestion     string
	SpeedingEvents int
	HarshAccels    int
	HarshBrakes    int
}

// Engine はConfigに従ってスコアを算出する。
type Engine struct {
	cfg Config
}

// NewEngine はEngineを生成する。
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config はエンジンの設定を返す。
func (e *Engine) Config() Config {
	return e.cfg
}

// Score はサンプル集合からスコアを算出する。
// 各サンプルは独立に評価されるため順序は問わない。
// 1サンプルにつき速度超過と、急加速・急ブレーキのいずれか一方の最大2つのペナルティが適用される。
// 速度・加速度が未設定のサンプルは0として扱う。
func (e *Engine) Score(samples []model.SensorSample) Result {
	score := float64(BaselineScore)
	var res Result

	for _, s := range samples {
		speed := valueOrZero(s.Speed)
		accel := valueOrZero(s.Acceleration)

		if speed > e.cfg.SpeedLimitKmh {
			score -= e.cfg.SpeedingPenalty
			res.SpeedingEvents++
		}

		switch {
		case accel > e.cfg.HarshAccelThreshold:
			score -= e.cfg.HarshAccelPenalty
			res.HarshAccels++
		case accel < -e.cfg.HarshAccelThreshold:
			score -= e.cfg.HarshBrakePenalty
			res.HarshBrakes++
		}
	}

	res.Score = clamp(int(score), MinScore, MaxScore)
	res.RiskLevel = Classify(res.Score)
	res.Suggestion = fmt.Sprintf("Speeding events: %d, Harsh accels: %d, Harsh brakes: %d",
		res.SpeedingEvents, res.HarshAccels, res.HarshBrakes)

	return res
}

// Classify はスコアをリスク区分に変換する。
func Classify(score int) model.RiskLevel {
	switch {
	case score < mediumRiskFloor:
		return model.RiskHigh
	case score < lowRiskFloor:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
