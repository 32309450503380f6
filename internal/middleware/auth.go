package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/drivescore/internal/auth"
	"github.com/hitoshi/drivescore/internal/model"
)

// TokenParser はベアラートークンの検証に必要なインターフェース。
// auth.TokenIssuerが満たす。
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// NewBearerTokenMiddleware はAuthorizationヘッダーのベアラートークンを検証し、
// ユーザーIDをリクエストコンテキストに注入するミドルウェアを返す。
// トークンは任意で、ヘッダーがなければそのまま通す。
// 無効なトークンが提示された場合は401 UNAUTHORIZEDを返す。
func NewBearerTokenMiddleware(parser TokenParser) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(header)
			if !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			claims, err := parser.Parse(token)
			if err != nil {
				slog.Warn("invalid bearer token",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), claims.Subject)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
