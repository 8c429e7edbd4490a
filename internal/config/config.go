// Package config は環境変数からのアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// 実行モード
const (
	// EnvProduction は本番モード。エラー詳細を隠蔽し、ログレベルをInfoにする。
	EnvProduction = "production"
	// EnvDevelopment は開発モード。ログレベルをDebugにする。
	EnvDevelopment = "development"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Server
	ServerPort string
	AppEnv     string

	// Database
	DatabaseURL string

	// Credential
	JWTSecret string
	TokenTTL  time.Duration

	// CORS
	FrontendURL         string
	AllowedOriginSuffix string

	// Rate Limit
	AuthRateLimit     int
	AuthRateWindow    time.Duration
	GeneralRateLimit  int
	GeneralRateWindow time.Duration

	// Static files
	UploadDir string

	// Shutdown
	ShutdownTimeout time.Duration
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
// JWT_SECRETなしでの起動は認証を成立させられないため拒否する。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.ServerPort = getEnvString("SERVER_PORT", "3002")
	cfg.AppEnv = getEnvString("APP_ENV", EnvDevelopment)
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", 24*time.Hour)
	cfg.FrontendURL = getEnvString("FRONTEND_URL", "")
	cfg.AllowedOriginSuffix = getEnvString("ALLOWED_ORIGIN_SUFFIX", ".vercel.app")
	cfg.AuthRateLimit = getEnvInt("RATE_LIMIT_AUTH", 10)
	cfg.AuthRateWindow = getEnvDuration("RATE_LIMIT_AUTH_WINDOW", 15*time.Minute)
	cfg.GeneralRateLimit = getEnvInt("RATE_LIMIT_GENERAL", 100)
	cfg.GeneralRateWindow = getEnvDuration("RATE_LIMIT_GENERAL_WINDOW", time.Minute)
	cfg.UploadDir = getEnvString("UPLOAD_DIR", "./uploads")
	cfg.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second)

	return cfg, nil
}

// IsProduction は本番モードで動作しているかを返す。
func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
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
