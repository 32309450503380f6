package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/drivescore/internal/model"
)

// PostgresTripRepo はPostgreSQLを使用したトリップリポジトリ。
type PostgresTripRepo struct {
	db *sql.DB
}

// NewPostgresTripRepo はPostgresTripRepoを生成する。
func NewPostgresTripRepo(db *sql.DB) *PostgresTripRepo {
	return &PostgresTripRepo{db: db}
}

const tripColumns = `id, driver_id, start_time, end_time, distance_km, avg_speed_kmh, created_at, updated_at`

// Create はトリップを作成する。ドライバーが存在しない場合はErrNotFoundを返す。
func (r *PostgresTripRepo) Create(ctx context.Context, trip *model.Trip) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO trips (id, driver_id, start_time, end_time, distance_km, avg_speed_kmh, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		trip.ID, trip.DriverID, trip.StartTime, trip.EndTime,
		trip.DistanceKm, trip.AvgSpeedKmh, trip.CreatedAt, trip.UpdatedAt,
	)
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to insert trip: %w", err)
	}
	return nil
}

// FindByID は指定IDのトリップを取得する。見つからない場合はnilを返す。
func (r *PostgresTripRepo) FindByID(ctx context.Context, id string) (*model.Trip, error) {
	trip, err := scanTrip(r.db.QueryRowContext(ctx,
		`SELECT `+tripColumns+` FROM trips WHERE id = $1`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find trip by ID: %w", err)
	}
	return trip, nil
}

// ListByDriver はドライバーのトリップ一覧を開始時刻の降順で返す。
func (r *PostgresTripRepo) ListByDriver(ctx context.Context, driverID string) ([]*model.Trip, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tripColumns+` FROM trips WHERE driver_id = $1 ORDER BY start_time DESC, id`,
		driverID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	var trips []*model.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, trip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trips: %w", err)
	}
	return trips, nil
}

// Finalize はトリップ行をSELECT ... FOR UPDATEでロックし、サンプル列を読み出して
// computeの結果のうち終了時刻・走行距離・平均速度を1回のUPDATEで書き込む。
// start_timeは更新しない。
// 同一トリップに対する並行呼び出しは直列化され、部分的な書き込みは観測されない。
func (r *PostgresTripRepo) Finalize(ctx context.Context, tripID string, compute FinalizeFunc) (*model.Trip, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	trip, err := scanTrip(tx.QueryRowContext(ctx,
		`SELECT `+tripColumns+` FROM trips WHERE id = $1 FOR UPDATE`, tripID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to lock trip: %w", err)
	}

	samples, err := listSamples(ctx, tx, tripID)
	if err != nil {
		return nil, false, err
	}

	updated, ok := compute(trip, samples)
	if !ok {
		return trip, false, nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE trips
		 SET end_time = $2, distance_km = $3, avg_speed_kmh = $4, updated_at = $5
		 WHERE id = $1`,
		updated.ID, updated.EndTime,
		updated.DistanceKm, updated.AvgSpeedKmh, updated.UpdatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to update trip: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return updated, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*model.Trip, error) {
	trip := &model.Trip{}
	var endTime sql.NullTime
	err := row.Scan(
		&trip.ID, &trip.DriverID, &trip.StartTime, &endTime,
		&trip.DistanceKm, &trip.AvgSpeedKmh, &trip.CreatedAt, &trip.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if endTime.Valid {
		t := endTime.Time
		trip.EndTime = &t
	}
	return trip, nil
}

// compile-time interface check
var _ TripRepository = (*PostgresTripRepo)(nil)
