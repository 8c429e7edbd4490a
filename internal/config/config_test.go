package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/rentlify_test")
}

func TestLoad_RequiredVariables(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.JWTSecret != "test-secret" {
		t.Errorf("JWTSecret = %q, want %q", cfg.JWTSecret, "test-secret")
	}
	if cfg.DatabaseURL != "postgres://localhost:5432/rentlify_test" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
}

func TestLoad_MissingJWTSecret_ReturnsError(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/rentlify_test")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when JWT_SECRET is not set")
	}
	if !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Errorf("error should name the missing variable: %v", err)
	}
}

func TestLoad_MissingBothRequired_NamesAllMissing(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when required variables are not set")
	}

	// 欠落している変数をまとめて報告すること（1つずつ直させない）
	for _, name := range []string{"JWT_SECRET", "DATABASE_URL"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error should mention %s: %v", name, err)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerPort != "3002" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "3002")
	}
	if cfg.AppEnv != EnvDevelopment {
		t.Errorf("AppEnv = %q, want %q", cfg.AppEnv, EnvDevelopment)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v, want %v", cfg.TokenTTL, 24*time.Hour)
	}
	if cfg.AllowedOriginSuffix != ".vercel.app" {
		t.Errorf("AllowedOriginSuffix = %q, want %q", cfg.AllowedOriginSuffix, ".vercel.app")
	}
	if cfg.AuthRateLimit != 10 {
		t.Errorf("AuthRateLimit = %d, want 10", cfg.AuthRateLimit)
	}
	if cfg.AuthRateWindow != 15*time.Minute {
		t.Errorf("AuthRateWindow = %v, want %v", cfg.AuthRateWindow, 15*time.Minute)
	}
	if cfg.GeneralRateLimit != 100 {
		t.Errorf("GeneralRateLimit = %d, want 100", cfg.GeneralRateLimit)
	}
	if cfg.GeneralRateWindow != time.Minute {
		t.Errorf("GeneralRateWindow = %v, want %v", cfg.GeneralRateWindow, time.Minute)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want %v", cfg.ShutdownTimeout, 10*time.Second)
	}
	if cfg.UploadDir != "./uploads" {
		t.Errorf("UploadDir = %q, want %q", cfg.UploadDir, "./uploads")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("RATE_LIMIT_GENERAL", "50")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerPort != "9000" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "9000")
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Errorf("TokenTTL = %v, want %v", cfg.TokenTTL, 30*time.Minute)
	}
	if cfg.GeneralRateLimit != 50 {
		t.Errorf("GeneralRateLimit = %d, want 50", cfg.GeneralRateLimit)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, want %v", cfg.ShutdownTimeout, 5*time.Second)
	}
}

func TestLoad_InvalidOptionalValues_FallBackToDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RATE_LIMIT_GENERAL", "not-a-number")
	t.Setenv("TOKEN_TTL", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.GeneralRateLimit != 100 {
		t.Errorf("GeneralRateLimit = %d, want default 100", cfg.GeneralRateLimit)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v, want default %v", cfg.TokenTTL, 24*time.Hour)
	}
}

func TestIsProduction(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", EnvProduction)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.IsProduction() {
		t.Error("IsProduction should be true when APP_ENV=production")
	}
}
