// Package model はドメインモデルを定義する。
package model

import "time"

// User はアプリを利用するドライバーを表す。
// username と email はストア側のUNIQUE制約で一意性を保証する。
type User struct {
	ID           string
	Username     string
	Email        string
	Phone        string
	PasswordHash string
	CreatedAt    time.Time
}
