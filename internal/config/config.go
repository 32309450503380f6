package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/hitoshi/drivescore/internal/database"
	"github.com/hitoshi/drivescore/internal/scoring"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Auth
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	// Rate Limit (req/min)
	RateLimitGeneral int
	RateLimitAuth    int

	// Cache
	RedisURL      string
	ScoreCacheTTL time.Duration
	// Scoring
	SpeedLimitKmh       float64
	HarshAccelThreshold float64
	SpeedingPenalty     float64
	HarshAccelPenalty   float64
	HarshBrakePenalty   float64

	// Logging
	LogLevel string

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込むが、既存の環境変数は上書きしない。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 25)
	cfg.DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 5)
	cfg.DBConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", 24*time.Hour)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 10)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitAuth = getEnvInt("RATE_LIMIT_AUTH", 10)
	cfg.RedisURL = getEnvString("REDIS_URL", "")
	cfg.ScoreCacheTTL = getEnvDuration("SCORE_CACHE_TTL", 10*time.Minute)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "*")

	defaults := scoring.DefaultConfig()
	cfg.SpeedLimitKmh = getEnvFloat("SPEED_LIMIT_KPH", defaults.SpeedLimitKmh)
	cfg.HarshAccelThreshold = getEnvFloat("HARSH_ACCEL_MPS2", defaults.HarshAccelThreshold)
	cfg.SpeedingPenalty = getEnvFloat("PENALTY_SPEEDING", defaults.SpeedingPenalty)
	cfg.HarshAccelPenalty = getEnvFloat("PENALTY_HARSH_ACCEL", defaults.HarshAccelPenalty)
	cfg.HarshBrakePenalty = getEnvFloat("PENALTY_HARSH_BRAKE", defaults.HarshBrakePenalty)

	return cfg, nil
}

// Scoring はスコアエンジン用の設定を返す。
func (c *Config) Scoring() scoring.Config {
	return scoring.Config{
		SpeedLimitKmh:       c.SpeedLimitKmh,
		HarshAccelThreshold: c.HarshAccelThreshold,
		SpeedingPenalty:     c.SpeedingPenalty,
		HarshAccelPenalty:   c.HarshAccelPenalty,
		HarshBrakePenalty:   c.HarshBrakePenalty,
	}
}

// Pool はDBコネクションプールの設定を返す。
func (c *Config) Pool() database.PoolConfig {
	return database.PoolConfig{
		MaxOpenConns:    c.DBMaxOpenConns,
		MaxIdleConns:    c.DBMaxIdleConns,
		ConnMaxLifetime: c.DBConnMaxLifetime,
	}
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
