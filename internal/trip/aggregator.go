// Package trip はトリップのライフサイクル管理と走行集計を提供する。
package trip

import (
	"sort"
	"time"

	"github.com/hitoshi/drivescore/internal/geo"
	"github.com/hitoshi/drivescore/internal/model"
)

// MinSamples は集計に必要な最小サンプル数。
const MinSamples = 2

// Summary はトリップのサンプル列から導出した走行集計。
type Summary struct {
	DistanceKm  float64
	StartedAt   time.Time
	EndedAt     time.Time
	AvgSpeedKmh float64
	SampleCount int

	// ClockFallback は経過時間が0以下だったため、EndedAtに現在時刻を代用したことを示す。
	// 不正なタイムスタンプを拒否せず近似値で埋める既知の挙動。
	ClockFallback bool
}

// Aggregate はサンプル列から総距離・経過時間・平均速度を計算する。
//
// サンプルは記録時刻の昇順に並べ替えてから積算するため、到着順は問わない。
// 緯度・経度が揃っていないサンプルは距離の積算から除外するが、経過時間の算出には含める。
// サンプルが MinSamples 未満の場合は (Summary{}, false) を返す。これはエラーではない。
func Aggregate(samples []model.SensorSample, now time.Time) (Summary, bool) {
	if len(samples) < MinSamples {
		return Summary{}, false
	}

	ordered := make([]model.SensorSample, len(samples))
	copy(ordered, samples)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].RecordedAt.Before(ordered[j].RecordedAt)
	})

	var total float64
	var prev *geo.Point
	for _, s := range ordered {
		if !s.HasPosition() {
			continue
		}
		p := geo.Point{Lat: *s.Latitude, Lon: *s.Longitude}
		if prev != nil {
			total += geo.HaversineKm(*prev, p)
		}
		prev = &p
	}

	sum := Summary{
		DistanceKm:  total,
		StartedAt:   ordered[0].RecordedAt,
		EndedAt:     ordered[len(ordered)-1].RecordedAt,
		SampleCount: len(ordered),
	}

	if !sum.EndedAt.After(sum.StartedAt) {
		sum.EndedAt = now
		sum.ClockFallback = true
	}

	hours := sum.EndedAt.Sub(sum.StartedAt).Hours()
	if hours > 0 {
		sum.AvgSpeedKmh = total / hours
	}

	return sum, true
}
