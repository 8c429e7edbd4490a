package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/rentlify/internal/metrics"
)

// statusRecorder はhttp.ResponseWriterをラップし、ステータスコードと
// 認証ミドルウェアが設定したsubjectを記録する。
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
	subject    string
}

// Unwrap はラップ元のResponseWriterを返す。
// http.ResponseControllerがHijack等の拡張インターフェースへ到達するために必要。
// これがないとWebSocketアップグレードがこのミドルウェア越しに失敗する。
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// WriteHeader はステータスコードを記録してから委譲する。
func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

// Write はデータを書き込む。WriteHeaderが未呼び出しの場合は200を記録する。
func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// NewLoggingMiddleware はリクエストのJSON構造化ログを出力するミドルウェアを返す。
// ログにはmethod、path、status、duration_ms、subject（認証済みの場合）を含む。
// collectorが指定された場合はステータスコード別メトリクスも記録する。
func NewLoggingMiddleware(logger *slog.Logger, collector metrics.GatewayCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rec, r)

			duration := time.Since(start)
			durationMs := float64(duration.Nanoseconds()) / float64(time.Millisecond)

			if collector != nil {
				collector.RecordHTTPStatus(rec.statusCode)
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.statusCode),
				slog.Float64("duration_ms", durationMs),
			}

			// 認証済みリクエストの場合はsubjectを追加。
			// 認証ミドルウェアは派生リクエストにIdentityを載せるため、
			// ここのr.Contextからは見えない。recorder経由で受け取る
			if rec.subject != "" {
				attrs = append(attrs, slog.String("subject", rec.subject))
			}

			// ステータスコードに応じてログレベルを変更
			level := slog.LevelInfo
			if rec.statusCode >= 500 {
				level = slog.LevelError
			} else if rec.statusCode >= 400 {
				level = slog.LevelWarn
			}

			args := make([]any, len(attrs))
			for i, attr := range attrs {
				args[i] = attr
			}

			logger.Log(r.Context(), level, "http_request", args...)
		})
	}
}
