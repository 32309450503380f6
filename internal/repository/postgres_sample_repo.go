package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/drivescore/internal/model"
)

// PostgresSampleRepo はPostgreSQLを使用したセンサーサンプルリポジトリ。
// サンプルは追記のみで、更新・削除は行わない。
type PostgresSampleRepo struct {
	db *sql.DB
}

// NewPostgresSampleRepo はPostgresSampleRepoを生成する。
func NewPostgresSampleRepo(db *sql.DB) *PostgresSampleRepo {
	return &PostgresSampleRepo{db: db}
}

// Append はサンプルを追記する。トリップが存在しない場合はErrNotFoundを返す。
func (r *PostgresSampleRepo) Append(ctx context.Context, s *model.SensorSample) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sensor_samples (id, trip_id, speed, acceleration, latitude, longitude, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.TripID,
		nullFloat(s.Speed), nullFloat(s.Acceleration), nullFloat(s.Latitude), nullFloat(s.Longitude),
		s.RecordedAt,
	)
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to insert sensor sample: %w", err)
	}
	return nil
}

// ListByTrip はトリップのサンプル列を記録時刻・到着順で返す。
func (r *PostgresSampleRepo) ListByTrip(ctx context.Context, tripID string) ([]model.SensorSample, error) {
	return listSamples(ctx, r.db, tripID)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// listSamples は*sql.DBと*sql.Txの両方から呼び出される。
func listSamples(ctx context.Context, q queryer, tripID string) ([]model.SensorSample, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, trip_id, speed, acceleration, latitude, longitude, recorded_at
		 FROM sensor_samples WHERE trip_id = $1 ORDER BY recorded_at, seq`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sensor samples: %w", err)
	}
	defer rows.Close()

	var samples []model.SensorSample
	for rows.Next() {
		var s model.SensorSample
		var speed, accel, lat, lon sql.NullFloat64
		if err := rows.Scan(&s.ID, &s.TripID, &speed, &accel, &lat, &lon, &s.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sensor sample: %w", err)
		}
		s.Speed = floatPtr(speed)
		s.Acceleration = floatPtr(accel)
		s.Latitude = floatPtr(lat)
		s.Longitude = floatPtr(lon)
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sensor samples: %w", err)
	}
	return samples, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// compile-time interface check
var _ SampleRepository = (*PostgresSampleRepo)(nil)
