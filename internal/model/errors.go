// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, trip, score, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeMissingField    = "MISSING_FIELD"
	ErrCodeInvalidEmail    = "INVALID_EMAIL"
	ErrCodeInvalidPhone    = "INVALID_PHONE"
	ErrCodeWeakPassword    = "WEAK_PASSWORD"
	ErrCodeInvalidUsername = "INVALID_USERNAME"
	ErrCodeInvalidID       = "INVALID_ID"
	ErrCodeInvalidSample   = "INVALID_SAMPLE"
	ErrCodeAccountExists   = "ACCOUNT_EXISTS"
	ErrCodeEmailNotFound   = "EMAIL_NOT_FOUND"
	ErrCodeWrongPassword   = "WRONG_PASSWORD"
	ErrCodeUserNotFound    = "USER_NOT_FOUND"
	ErrCodeTripNotFound    = "TRIP_NOT_FOUND"
	ErrCodeNoSensorData    = "NO_SENSOR_DATA"
	ErrCodeScoreNotFound   = "SCORE_NOT_FOUND"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewMissingFieldError は必須項目が未指定の場合のエラーを生成する。
func NewMissingFieldError(fields ...string) *APIError {
	return &APIError{
		Code:     ErrCodeMissingField,
		Message:  fmt.Sprintf("必須項目が指定されていません: %v", fields),
		Category: "validation",
		Action:   "必須項目を入力してください。",
	}
}

// NewInvalidEmailError はメールアドレス形式エラーを生成する。
func NewInvalidEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEmail,
		Message:  "メールアドレスの形式が正しくありません。",
		Category: "validation",
		Action:   "正しいメールアドレスを入力してください。",
	}
}

// NewInvalidPhoneError は電話番号形式エラーを生成する。
func NewInvalidPhoneError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPhone,
		Message:  "電話番号の形式が正しくありません。",
		Category: "validation",
		Action:   "数字、+、-、空白、括弧のみで入力してください。",
	}
}

// NewWeakPasswordError はパスワード長不足エラーを生成する。
func NewWeakPasswordError(minLength int) *APIError {
	return &APIError{
		Code:     ErrCodeWeakPassword,
		Message:  fmt.Sprintf("パスワードは%d文字以上である必要があります。", minLength),
		Category: "validation",
		Action:   "より長いパスワードを設定してください。",
	}
}

// NewInvalidUsernameError はユーザー名に使用できない文字が含まれる場合のエラーを生成する。
func NewInvalidUsernameError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidUsername,
		Message:  "ユーザー名に使用できない文字が含まれています。",
		Category: "validation",
		Action:   "HTMLタグを含まないユーザー名を入力してください。",
	}
}

// NewInvalidIDError はID形式エラーを生成する。
func NewInvalidIDError(field, value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidID,
		Message:  fmt.Sprintf("%sの形式が正しくありません: %s", field, value),
		Category: "validation",
		Action:   "IDを確認してください。",
	}
}

// NewInvalidSampleError はセンサー値が範囲外の場合のエラーを生成する。
func NewInvalidSampleError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSample,
		Message:  fmt.Sprintf("センサーデータが不正です: %s", reason),
		Category: "validation",
		Action:   "緯度は-90〜90、経度は-180〜180の範囲で送信してください。",
	}
}

// NewAccountExistsError はユーザー名またはメールアドレスの重複エラーを生成する。
func NewAccountExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeAccountExists,
		Message:  "ユーザー名またはメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "別のユーザー名・メールアドレスを使用するか、ログインしてください。",
	}
}

// NewEmailNotFoundError はログイン時にメールアドレスが未登録の場合のエラーを生成する。
func NewEmailNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailNotFound,
		Message:  "メールアドレスが登録されていません。",
		Category: "auth",
		Action:   "メールアドレスを確認するか、新規登録してください。",
	}
}

// NewWrongPasswordError はパスワード不一致エラーを生成する。
func NewWrongPasswordError() *APIError {
	return &APIError{
		Code:     ErrCodeWrongPassword,
		Message:  "パスワードが正しくありません。",
		Category: "auth",
		Action:   "パスワードを確認してください。",
	}
}

// NewUnauthorizedError は無効なトークンが提示された場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証トークンが無効です。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewTripNotFoundError はトリップが見つからない場合のエラーを生成する。
func NewTripNotFoundError(tripID string) *APIError {
	return &APIError{
		Code:     ErrCodeTripNotFound,
		Message:  fmt.Sprintf("指定されたトリップが見つかりません: %s", tripID),
		Category: "trip",
		Action:   "トリップIDを確認してください。",
	}
}

// NewNoSensorDataError はトリップにセンサーデータが存在しない場合のエラーを生成する。
func NewNoSensorDataError(tripID string) *APIError {
	return &APIError{
		Code:     ErrCodeNoSensorData,
		Message:  fmt.Sprintf("センサーデータが見つかりません: %s", tripID),
		Category: "score",
		Action:   "トリップ中にセンサーデータが送信されているか確認してください。",
	}
}

// NewScoreNotFoundError は保存済みスコアが存在しない場合のエラーを生成する。
func NewScoreNotFoundError(tripID string) *APIError {
	return &APIError{
		Code:     ErrCodeScoreNotFound,
		Message:  fmt.Sprintf("スコアはまだ計算されていません: %s", tripID),
		Category: "score",
		Action:   "先にスコア計算を実行してください。",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
