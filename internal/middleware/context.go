// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// userIDContextKey はベアラートークンから得たユーザーIDを格納するためのキー。
	userIDContextKey = contextKey("user_id")
	// requestIDContextKey はリクエストIDを格納するためのキー。
	requestIDContextKey = contextKey("request_id")
	// userIDSinkContextKey はロギングミドルウェアへユーザーIDを戻すための格納先のキー。
	userIDSinkContextKey = contextKey("user_id_sink")
)

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// 有効なベアラートークン付きのリクエストでのみ値が入る。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// 外側のロギングミドルウェアが格納先を用意していれば、そこにも書き込む。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	if sink, ok := ctx.Value(userIDSinkContextKey).(*string); ok {
		*sink = userID
	}
	return context.WithValue(ctx, userIDContextKey, userID)
}

func withUserIDSink(ctx context.Context, sink *string) context.Context {
	return context.WithValue(ctx, userIDSinkContextKey, sink)
}

// RequestIDFromContext はリクエストIDを返す。未設定の場合は空文字。
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// ContextWithRequestID はコンテキストにリクエストIDを注入する。
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}
