package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/rentlify/internal/auth"
	"github.com/hitoshi/rentlify/internal/config"
	"github.com/hitoshi/rentlify/internal/database"
	"github.com/hitoshi/rentlify/internal/handler"
	"github.com/hitoshi/rentlify/internal/logger"
	"github.com/hitoshi/rentlify/internal/metrics"
	"github.com/hitoshi/rentlify/internal/middleware"
	"github.com/hitoshi/rentlify/internal/realtime"
	"github.com/hitoshi/rentlify/internal/repository"
	"github.com/hitoshi/rentlify/internal/security"
	"github.com/prometheus/client_golang/prometheus"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		// 設定読み込み失敗時もデフォルトレベルでログを残せるようにする
		logger.SetupDefault(w, false)
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 2. ログの初期化（本番はInfo、それ以外はDebug）
	logger.SetupDefault(w, cfg.IsProduction())

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "3002"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("env", cfg.AppEnv),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
// 期限内に完了しないシャットダウンはエラーとして報告する。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	propertyRepo := repository.NewPostgresPropertyRepo(db)
	applicationRepo := repository.NewPostgresApplicationRepo(db)
	leaseRepo := repository.NewPostgresLeaseRepo(db)
	messageRepo := repository.NewPostgresMessageRepo(db)

	// 3. メトリクスコレクタの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. ドメインサービスの初期化
	authService := auth.NewService(userRepo, auth.ServiceConfig{
		Secret:   cfg.JWTSecret,
		TokenTTL: cfg.TokenTTL,
	})

	sanitizer := security.NewInputSanitizer()

	// 5. CORSポリシーとリアルタイムハブの構築
	// ソケットハンドシェイクのオリジン判定はHTTP側のCORSポリシーを共有する
	corsConfig := middleware.CORSConfig{
		FrontendURL:   cfg.FrontendURL,
		AllowedSuffix: cfg.AllowedOriginSuffix,
	}

	hub := realtime.NewHub(collector)
	realtimeHandler := realtime.NewHandler(hub, realtime.HandlerConfig{
		Secret:        cfg.JWTSecret,
		OriginAllowed: corsConfig.OriginAllowed,
	}, collector)

	// 6. レート制限の初期化
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		AuthLimit:       cfg.AuthRateLimit,
		AuthWindow:      cfg.AuthRateWindow,
		GeneralLimit:    cfg.GeneralRateLimit,
		GeneralWindow:   cfg.GeneralRateWindow,
		CleanupInterval: 5 * time.Minute,
	}, collector)

	// 7. ルーターの構築
	deps := &handler.RouterDeps{
		HealthChecker: db,
		CORS:          corsConfig,
		RateLimiter:   rateLimiter,
		Sanitizer:     sanitizer,
		JWTSecret:     cfg.JWTSecret,
		Logger:        slog.Default(),

		Collector: collector,
		Gatherer:  registry,

		AuthService: authService,

		Users:        userRepo,
		Properties:   propertyRepo,
		Applications: applicationRepo,
		Leases:       leaseRepo,
		Messages:     messageRepo,

		Publisher:       hub,
		RealtimeHandler: realtimeHandler,

		UploadDir: cfg.UploadDir,
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...",
		slog.Duration("timeout", cfg.ShutdownTimeout),
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	shutdownErr := server.Shutdown(ctx)

	// リスナー停止後に付随リソースを解放する。
	// ここでの失敗はログに残すのみで、プロセス終了は妨げない
	hub.Close()
	rateLimiter.Stop()

	if shutdownErr != nil {
		return fmt.Errorf("server shutdown failed: %w", shutdownErr)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
