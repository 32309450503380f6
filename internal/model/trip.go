// Package model はドメインモデルを定義する。
package model

import "time"

// Trip は1回の連続した運転セッションを表す。
// EndTimeはトリップ終了まではnil。
type Trip struct {
	ID          string
	DriverID    string
	StartTime   time.Time
	EndTime     *time.Time
	DistanceKm  float64
	AvgSpeedKmh float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Ended はトリップが終了済みかどうかを返す。
func (t *Trip) Ended() bool {
	return t.EndTime != nil
}

// SensorSample はトリップ中の1件のテレメトリ計測値を表す。
// 各計測値はクライアントから送られないことがあるためポインタで保持する。
type SensorSample struct {
	ID           string
	TripID       string
	Speed        *float64 // km/h
	Acceleration *float64 // m/s²（負値は減速）
	Latitude     *float64
	Longitude    *float64
	RecordedAt   time.Time
}

// HasPosition は緯度・経度の両方が揃っているかを返す。
func (s SensorSample) HasPosition() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// RiskLevel は安全スコアから導かれるリスク区分。
type RiskLevel string

const (
	// RiskLow はスコア80以上。
	RiskLow RiskLevel = "Low"
	// RiskMedium はスコア40以上80未満。
	RiskMedium RiskLevel = "Medium"
	// RiskHigh はスコア40未満。
	RiskHigh RiskLevel = "High"
)

// DriverScore はトリップごとの安全スコア。
// サンプル集合から常に再計算可能な射影であり、トリップにつき最大1件。
type DriverScore struct {
	TripID     string
	TotalScore int
	RiskLevel  RiskLevel
	Suggestion string
	UpdatedAt  time.Time
}
