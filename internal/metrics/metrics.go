// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(route string, duration time.Duration)
	RecordSampleRecorded()
	RecordTripEnded(distanceKm float64)
	RecordClockFallback()
	RecordScoreComputed(score int, riskLevel string)
	RecordScoreCache(hit bool)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus      *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
	samplesRecorded prometheus.Counter
	tripsEnded      prometheus.Counter
	tripDistance    prometheus.Histogram
	clockFallback   prometheus.Counter
	scoresComputed  *prometheus.CounterVec
	scoreValue      prometheus.Histogram
	scoreCache      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drivescore_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "drivescore_http_request_duration_seconds",
			Help:    "ルート別のリクエスト処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		samplesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "drivescore_samples_recorded_total",
			Help: "記録されたセンサーサンプルの合計数",
		}),
		tripsEnded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "drivescore_trips_ended_total",
			Help: "終了処理されたトリップの合計数",
		}),
		tripDistance: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "drivescore_trip_distance_km",
			Help:    "終了したトリップの走行距離（km）",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		clockFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "drivescore_clock_fallback_total",
			Help: "経過時間が0以下のため現在時刻で代用したトリップ終了の回数",
		}),
		scoresComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drivescore_scores_computed_total",
			Help: "リスク区分別のスコア算出回数",
		}, []string{"risk_level"}),
		scoreValue: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "drivescore_score_value",
			Help:    "算出されたスコアの分布",
			Buckets: []float64{20, 40, 60, 80, 90, 100},
		}),
		scoreCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drivescore_score_cache_total",
			Help: "スコアキャッシュのヒット/ミス数",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.samplesRecorded,
		c.tripsEnded,
		c.tripDistance,
		c.clockFallback,
		c.scoresComputed,
		c.scoreValue,
		c.scoreCache,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はルートパターン単位の処理時間を記録する。
func (c *Collector) RecordRequestLatency(route string, duration time.Duration) {
	c.requestLatency.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordSampleRecorded はサンプル記録を1件カウントする。
func (c *Collector) RecordSampleRecorded() {
	c.samplesRecorded.Inc()
}

// RecordTripEnded はトリップ終了と走行距離を記録する。
func (c *Collector) RecordTripEnded(distanceKm float64) {
	c.tripsEnded.Inc()
	c.tripDistance.Observe(distanceKm)
}

// RecordClockFallback は時刻代用の発生を記録する。
func (c *Collector) RecordClockFallback() {
	c.clockFallback.Inc()
}

// RecordScoreComputed はスコア算出結果を記録する。
func (c *Collector) RecordScoreComputed(score int, riskLevel string) {
	c.scoresComputed.WithLabelValues(riskLevel).Inc()
	c.scoreValue.Observe(float64(score))
}

// RecordScoreCache はスコアキャッシュの参照結果を記録する。
func (c *Collector) RecordScoreCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.scoreCache.WithLabelValues(result).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しないMetricsCollector。
type Nop struct{}

func (Nop) RecordHTTPStatus(int) {}
func (Nop) RecordRequestLatency(string, time.Duration) {}
func (Nop) RecordSampleRecorded() {}
func (Nop) RecordTripEnded(float64) {}
func (Nop) RecordClockFallback() {}
func (Nop) RecordScoreComputed(int, string) {}
func (Nop) RecordScoreCache(bool) {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
