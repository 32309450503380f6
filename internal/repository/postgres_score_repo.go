package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/drivescore/internal/model"
)

// PostgresScoreRepo はPostgreSQLを使用したドライバースコアリポジトリ。
type PostgresScoreRepo struct {
	db *sql.DB
}

// NewPostgresScoreRepo はPostgresScoreRepoを生成する。
func NewPostgresScoreRepo(db *sql.DB) *PostgresScoreRepo {
	return &PostgresScoreRepo{db: db}
}

// Upsert はトリップのスコアを作成または置き換える。
// driver_scores.trip_idを主キーとしたINSERT ON CONFLICTで実装するため、
// 並行した再計算でも行は1件のまま最後の書き込みが残る。
func (r *PostgresScoreRepo) Upsert(ctx context.Context, score *model.DriverScore) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO driver_scores (trip_id, total_score, risk_level, suggestion, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (trip_id) DO UPDATE SET
		   total_score = EXCLUDED.total_score,
		   risk_level = EXCLUDED.risk_level,
		   suggestion = EXCLUDED.suggestion,
		   updated_at = EXCLUDED.updated_at`,
		score.TripID, score.TotalScore, string(score.RiskLevel), score.Suggestion, score.UpdatedAt,
	)
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to upsert driver score: %w", err)
	}
	return nil
}

// FindByTripID はトリップのスコアを取得する。見つからない場合はnilを返す。
func (r *PostgresScoreRepo) FindByTripID(ctx context.Context, tripID string) (*model.DriverScore, error) {
	score := &model.DriverScore{}
	var risk string
	err := r.db.QueryRowContext(ctx,
		`SELECT trip_id, total_score, risk_level, suggestion, updated_at
		 FROM driver_scores WHERE trip_id = $1`,
		tripID,
	).Scan(&score.TripID, &score.TotalScore, &risk, &score.Suggestion, &score.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find driver score: %w", err)
	}
	score.RiskLevel = model.RiskLevel(risk)
	return score, nil
}

// compile-time interface check
var _ ScoreRepository = (*PostgresScoreRepo)(nil)
