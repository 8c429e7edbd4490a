// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/rentlify/internal/auth"
	"github.com/hitoshi/rentlify/internal/metrics"
	"github.com/hitoshi/rentlify/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに検証済みIdentityを格納するためのキー。
var identityContextKey = contextKey("identity")

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// 検証済みIdentityをリクエストコンテキストに注入するミドルウェアを返す。
// ヘッダー欠落・署名不正・期限切れはすべて同一の401で応答する（fail closed）。
// collectorはnilを許容する。
func NewAuthMiddleware(secret string, collector metrics.GatewayCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				if collector != nil {
					collector.RecordAuthFailure()
				}
				WriteErrorResponse(w, model.NewUnauthenticatedError())
				return
			}

			identity, err := auth.VerifyToken(tokenString, secret, time.Now())
			if err != nil {
				if collector != nil {
					collector.RecordAuthFailure()
				}
				// 失敗理由はログのみに残し、クライアントには区別を返さない
				slog.Warn("token verification failed",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, model.NewUnauthenticatedError())
				return
			}

			// リクエストログにsubjectを載せるため、ロギングミドルウェアの
			// recorderに検証済みsubjectを引き渡す
			if sr, ok := w.(*statusRecorder); ok {
				sr.subject = identity.Subject
			}

			ctx := ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles は認証済みIdentityのロールが許可セットに含まれるかを検査する
// ミドルウェアを返す。NewAuthMiddlewareの後段に配置すること。
// Identityが存在しない場合は403ではなく401を返す（認証なしに認可は判定しない）。
func RequireRoles(roles ...model.Role) func(next http.Handler) http.Handler {
	allowed := make(map[model.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := IdentityFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, model.NewUnauthenticatedError())
				return
			}

			if _, ok := allowed[identity.Role]; !ok {
				slog.Warn("role gate denied",
					slog.String("subject", identity.Subject),
					slog.String("role", string(identity.Role)),
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, model.NewForbiddenError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

// IdentityFromContext はリクエストコンテキストから検証済みIdentityを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func IdentityFromContext(ctx context.Context) (*model.Identity, error) {
	identity, ok := ctx.Value(identityContextKey).(*model.Identity)
	if !ok || identity == nil {
		return nil, fmt.Errorf("identity not found in context")
	}
	return identity, nil
}

// ContextWithIdentity はコンテキストに検証済みIdentityを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}
