package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/drivescore/internal/metrics"
	"github.com/hitoshi/drivescore/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	TokenParser       middleware.TokenParser
	RateLimiter       *middleware.RateLimiter
	Metrics           metrics.MetricsCollector
	MetricsHandler    http.Handler
	CORSAllowedOrigin string

	// ヘルスチェック
	DB Pinger

	// サービス
	AuthService  AuthServiceInterface
	TripService  TripServiceInterface
	ScoreService ScoreServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Recovery → Logging → Metrics → SecurityHeaders → CORS → BearerToken → RateLimit
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.Nop{}
	}

	r := chi.NewRouter()
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(collector))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	r.Get("/health", NewHealthHandler(deps.DB))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	authHandler := NewAuthHandler(deps.AuthService)
	tripHandler := NewTripHandler(deps.TripService)
	scoreHandler := NewScoreHandler(deps.ScoreService)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewBearerTokenMiddleware(deps.TokenParser))

		// 登録・ログインは専用のレート制限
		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.AuthMiddleware())
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.GeneralMiddleware())

			r.Post("/trip/start", tripHandler.StartTrip)
			r.Post("/trip/end", tripHandler.EndTrip)
			r.Get("/trip/{tripID}", tripHandler.GetTrip)
			r.Get("/trips/{userID}", tripHandler.ListTrips)
			r.Post("/sensor", tripHandler.RecordSample)

			r.Route("/driver/score/{tripID}", func(r chi.Router) {
				r.Get("/", scoreHandler.ComputeScore)
				r.Get("/latest", scoreHandler.LatestScore)
			})
		})
	})

	return r
}
