package middleware

import (
	"net/http"
	"strings"
)

// CORSConfig はオリジンポリシーの設定。
type CORSConfig struct {
	// FrontendURL は完全一致で許可するフロントエンドのオリジン。空なら完全一致許可なし。
	FrontendURL string
	// AllowedSuffix は末尾一致で許可するホスティングドメインのサフィックス（例: ".vercel.app"）。
	AllowedSuffix string
}

// OriginAllowed はオリジンを許可するかを判定する。
// Originヘッダーなし（非ブラウザ・同一オリジン）は許可。
// FrontendURLとの完全一致、または設定サフィックスとの末尾一致で許可。
// それ以外はすべて拒否する。不正な形式のオリジンも単に拒否に落とし、
// エラーにはしない（fail closed）。
func (c CORSConfig) OriginAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	if c.FrontendURL != "" && origin == c.FrontendURL {
		return true
	}
	if c.AllowedSuffix != "" && strings.HasSuffix(origin, c.AllowedSuffix) {
		return true
	}
	return false
}

// NewCORSMiddleware はオリジンポリシーに基づくCORSミドルウェアを返す。
// credentials送信と共存するため、ワイルドカード(*)は使用せず、
// 許可したオリジンをそのままAccess-Control-Allow-Originにエコーする。
// 拒否されたオリジンにはCORSヘッダーを一切付与しない（ブラウザ側でブロックされる）。
// OPTIONSプリフライトリクエストには業務ルートに到達させず204で応答する。
func NewCORSMiddleware(config CORSConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// 許可判定はオリジンごとに変わるためキャッシュを分離する
			w.Header().Add("Vary", "Origin")

			if origin != "" && config.OriginAllowed(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Max-Age", "86400")
			}

			// OPTIONSプリフライトリクエストには204で応答
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
