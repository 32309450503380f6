// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/lib/pq"

	"github.com/hitoshi/drivescore/internal/model"
)

var (
	// ErrDuplicate は一意制約違反を表す。
	ErrDuplicate = errors.New("repository: duplicate record")
	// ErrNotFound は参照先のレコードが存在しないことを表す。
	ErrNotFound = errors.New("repository: record not found")
)

// PostgreSQLのSQLSTATE
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。
	// ユーザー名またはメールアドレスが既に存在する場合はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// FinalizeFunc はロック済みトリップのサンプル列から更新後のトリップを算出する。
// 集計に十分なデータがない場合はfalseを返し、トリップは変更されない。
type FinalizeFunc func(trip *model.Trip, samples []model.SensorSample) (*model.Trip, bool)

// TripRepository はトリップデータの永続化インターフェース。
type TripRepository interface {
	// Create はトリップを作成する。ドライバーが存在しない場合はErrNotFoundを返す。
	Create(ctx context.Context, trip *model.Trip) error

	// FindByID は指定IDのトリップを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Trip, error)

	// ListByDriver はドライバーのトリップ一覧を開始時刻の降順で返す。
	ListByDriver(ctx context.Context, driverID string) ([]*model.Trip, error)

	// Finalize はトリップ行をロックしてサンプル列を読み出し、computeの結果を1回のUPDATEで書き込む。
	// ロック・読み出し・書き込みは同一トランザクション内で行う。
	// トリップが存在しない場合は (nil, false, nil) を返す。
	Finalize(ctx context.Context, tripID string, compute FinalizeFunc) (*model.Trip, bool, error)
}

// SampleRepository はセンサーサンプルの永続化インターフェース。
type SampleRepository interface {
	// Append はサンプルを追記する。トリップが存在しない場合はErrNotFoundを返す。
	Append(ctx context.Context, sample *model.SensorSample) error

	// ListByTrip はトリップのサンプル列を記録時刻・到着順で返す。
	ListByTrip(ctx context.Context, tripID string) ([]model.SensorSample, error)
}

// ScoreRepository はドライバースコアの永続化インターフェース。
type ScoreRepository interface {
	// Upsert はトリップのスコアを作成または置き換える。トリップごとに1件のみ保持する。
	Upsert(ctx context.Context, score *model.DriverScore) error

	// FindByTripID はトリップのスコアを取得する。見つからない場合はnilを返す。
	FindByTripID(ctx context.Context, tripID string) (*model.DriverScore, error)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqForeignKeyViolation
}
