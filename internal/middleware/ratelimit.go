package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/rentlify/internal/metrics"
	"github.com/hitoshi/rentlify/internal/model"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	AuthLimit       int           // 認証エンドポイントのウィンドウあたり最大リクエスト数
	AuthWindow      time.Duration // 認証エンドポイントのウィンドウ幅
	GeneralLimit    int           // API全般のウィンドウあたり最大リクエスト数
	GeneralWindow   time.Duration // API全般のウィンドウ幅
	CleanupInterval time.Duration // 期限切れバケットのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// 認証エンドポイントは15分あたり10回（ブルートフォース対策）、
// API全般は60秒あたり100回。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		AuthLimit:       10,
		AuthWindow:      15 * time.Minute,
		GeneralLimit:    100,
		GeneralWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// windowBucket はキーごとのカウントとウィンドウ開始時刻を保持する。
type windowBucket struct {
	count       int
	windowStart time.Time
}

// fixedWindowLimiter は固定ウィンドウカウンタによる単一ポリシーのリミッター。
// ウィンドウ境界でカウントを0にリセットする（連続的なトークン補充は行わない）。
type fixedWindowLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]*windowBucket
}

func newFixedWindowLimiter(limit int, window time.Duration) *fixedWindowLimiter {
	return &fixedWindowLimiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*windowBucket),
	}
}

// take はキーのカウントを1増やし、許可判定と残数・リセットまでの時間を返す。
// 同一キーへの並行アクセスはミューテックスで直列化され、カウント欠落は発生しない。
func (l *fixedWindowLimiter) take(key string, now time.Time) (allowed bool, remaining int, reset time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.buckets[key]
	if !exists || now.Sub(b.windowStart) >= l.window {
		// ウィンドウ境界: バケットを新規ウィンドウとして作り直す
		b = &windowBucket{windowStart: now}
		l.buckets[key] = b
	}

	b.count++
	allowed = b.count <= l.limit

	remaining = l.limit - b.count
	if remaining < 0 {
		remaining = 0
	}
	reset = b.windowStart.Add(l.window).Sub(now)

	return allowed, remaining, reset
}

// cleanup はウィンドウを過ぎて到達のないバケットを削除する。
func (l *fixedWindowLimiter) cleanup(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, b := range l.buckets {
		if now.Sub(b.windowStart) >= l.window {
			delete(l.buckets, key)
		}
	}
}

// count は現在保持しているバケット数を返す。
func (l *fixedWindowLimiter) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// RateLimiter はクライアントごとのレート制限を管理する。
// 認証エンドポイント用とAPI全般用の2つの独立したポリシーを提供する。
// プロセス再起動でカウントは失われるが、これはベストエフォートの
// 不正利用ガードであり、セキュリティ境界ではない。
type RateLimiter struct {
	config    RateLimiterConfig
	auth      *fixedWindowLimiter
	general   *fixedWindowLimiter
	collector metrics.GatewayCollector
	stopCh    chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れバケットのクリーンアップを開始する。
// collectorはnilを許容する。
func NewRateLimiter(config RateLimiterConfig, collector metrics.GatewayCollector) *RateLimiter {
	rl := &RateLimiter{
		config:    config,
		auth:      newFixedWindowLimiter(config.AuthLimit, config.AuthWindow),
		general:   newFixedWindowLimiter(config.GeneralLimit, config.GeneralWindow),
		collector: collector,
		stopCh:    make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// AuthMiddleware は認証エンドポイント用のレート制限ミドルウェアを返す。
// API全般のレート制限とは独立に動作する。
func (rl *RateLimiter) AuthMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware(rl.auth, "auth")
}

// GeneralMiddleware はAPI全般のレート制限ミドルウェアを返す。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware(rl.general, "general")
}

func (rl *RateLimiter) middleware(limiter *fixedWindowLimiter, policy string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ClientKey(r)
			allowed, remaining, reset := limiter.take(key, time.Now())

			resetSec := int(math.Ceil(reset.Seconds()))
			if resetSec < 1 {
				resetSec = 1
			}

			// draft-ietf-httpapi-ratelimit-headers 形式の標準ヘッダーを付与する
			// （X-RateLimit-* のレガシーヘッダーは使用しない）
			w.Header().Set("RateLimit-Limit", strconv.Itoa(limiter.limit))
			w.Header().Set("RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("RateLimit-Reset", strconv.Itoa(resetSec))

			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(resetSec))
				if rl.collector != nil {
					rl.collector.RecordRateLimitRejection(policy)
				}
				slog.Warn("rate limit exceeded",
					slog.String("key", key),
					slog.String("policy", policy),
				)
				WriteErrorResponse(w, model.NewRateLimitedError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AuthBucketCount は現在管理されている認証ポリシーのバケット数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) AuthBucketCount() int {
	return rl.auth.count()
}

// GeneralBucketCount は現在管理されているAPI全般ポリシーのバケット数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) GeneralBucketCount() int {
	return rl.general.count()
}

// cleanupLoop はバックグラウンドで期限切れバケットを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			rl.auth.cleanup(now)
			rl.general.cleanup(now)
		case <-rl.stopCh:
			return
		}
	}
}

// ClientKey はレート制限のキーとなるクライアント識別子を返す。
// リバースプロキシ背後での運用を想定し、X-Forwarded-Forの先頭エントリを
// 優先する。なければRemoteAddrのホスト部を使用する。
func ClientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, found := strings.Cut(xff, ","); found {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(xff)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
