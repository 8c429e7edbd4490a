package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/rentlify/internal/metrics"
	"github.com/hitoshi/rentlify/internal/middleware"
	"github.com/hitoshi/rentlify/internal/model"
	"github.com/hitoshi/rentlify/internal/repository"
	"github.com/hitoshi/rentlify/internal/security"
	"github.com/prometheus/client_golang/prometheus"
)

// HealthChecker は永続化依存への疎通確認のインターフェース。
// *sql.DBがそのまま満たす。
type HealthChecker interface {
	// PingContext はストアの状態を変更しない軽量なラウンドトリップを実行する。
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ゲートウェイ依存
	HealthChecker HealthChecker
	CORS          middleware.CORSConfig
	RateLimiter   *middleware.RateLimiter
	Sanitizer     security.InputSanitizerService
	JWTSecret     string
	Logger        *slog.Logger

	// メトリクス
	Collector metrics.GatewayCollector
	Gatherer  prometheus.Gatherer

	// 認証
	AuthService AuthServiceInterface

	// リソース
	Users        repository.UserRepository
	Properties   repository.PropertyRepository
	Applications repository.ApplicationRepository
	Leases       repository.LeaseRepository
	Messages     repository.MessageRepository

	// リアルタイム
	Publisher       EventPublisher
	RealtimeHandler http.Handler

	// 静的ファイル
	UploadDir string
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを
// 構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → CORS → SecurityHeaders → RateLimit(General) → Sanitize
//
// 認証（Bearer検証）とロールゲートはルートグループ単位で適用する。
// 認証エンドポイント（/auth/*）には認証専用のレート制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Collector))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORS))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(deps.RateLimiter.GeneralMiddleware())
	r.Use(middleware.NewSanitizeMiddleware(deps.Sanitizer))

	authMW := middleware.NewAuthMiddleware(deps.JWTSecret, deps.Collector)

	authHandler := NewAuthHandler(deps.AuthService)
	propertyHandler := NewPropertyHandler(deps.Properties)
	applicationHandler := NewApplicationHandler(deps.Applications)
	leaseHandler := NewLeaseHandler(deps.Leases)
	tenantHandler := NewTenantHandler(deps.Users, deps.Leases)
	managerHandler := NewManagerHandler(deps.Users, deps.Properties)
	messageHandler := NewMessageHandler(deps.Messages, deps.Publisher)

	// --- ヘルスチェック・ルート情報 ---

	r.Get("/health", healthHandler(deps.HealthChecker))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Rentlify API running"})
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 認証ルート（認証専用レート制限を追加） ---

	r.Route("/auth", func(r chi.Router) {
		r.Use(deps.RateLimiter.AuthMiddleware())
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.With(authMW).Get("/me", authHandler.Me)
	})

	// --- 公開ルート（ロールゲートなし） ---

	r.Route("/properties", func(r chi.Router) {
		r.Get("/", propertyHandler.List)
		r.Post("/", propertyHandler.Create)
		r.Get("/{id}", propertyHandler.Get)
	})

	r.Route("/applications", func(r chi.Router) {
		r.Get("/", applicationHandler.List)
		r.Post("/", applicationHandler.Create)
		r.Put("/{id}/status", applicationHandler.UpdateStatus)
	})

	r.Route("/leases", func(r chi.Router) {
		r.Get("/", leaseHandler.List)
		r.Get("/{id}", leaseHandler.Get)
	})

	// --- ロールゲート付きルート ---

	r.Route("/tenants", func(r chi.Router) {
		r.Use(authMW)
		r.Use(middleware.RequireRoles(model.RoleTenant))
		r.Get("/{id}", tenantHandler.Get)
		r.Put("/{id}", tenantHandler.Update)
		r.Get("/{id}/leases", tenantHandler.Leases)
	})

	r.Route("/managers", func(r chi.Router) {
		r.Use(authMW)
		r.Use(middleware.RequireRoles(model.RoleManager))
		r.Get("/{id}", managerHandler.Get)
		r.Put("/{id}", managerHandler.Update)
		r.Get("/{id}/properties", managerHandler.Properties)
	})

	r.Route("/messages", func(r chi.Router) {
		r.Use(authMW)
		r.Use(middleware.RequireRoles(model.RoleTenant, model.RoleManager))
		r.Get("/", messageHandler.List)
		r.Post("/", messageHandler.Create)
		r.Get("/{userId}", messageHandler.Conversation)
	})

	// --- リアルタイムチャネル ---
	// ハンドシェイク内で資格情報を独立に再検証するため、authMWは適用しない

	if deps.RealtimeHandler != nil {
		r.Handle("/ws", deps.RealtimeHandler)
	}

	// --- 静的ファイル ---

	if deps.UploadDir != "" {
		fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(deps.UploadDir)))
		r.Handle("/uploads/*", fileServer)
	}

	// --- 404 ---

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteErrorResponse(w, model.NewRouteNotFoundError())
	})

	return r
}

// healthHandler は永続化依存への疎通確認を行うハンドラーを返す。
// 確認の失敗は503で報告し、いかなる失敗でもpanicさせない。
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := checker.PingContext(r.Context()); err != nil {
			slog.Warn("health check failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}
