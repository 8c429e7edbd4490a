// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// GatewayCollector はゲートウェイのメトリクス収集のインターフェース。
// ミドルウェアとリアルタイムブリッジから利用する。
type GatewayCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordAuthFailure()
	RecordRateLimitRejection(policy string)
	RecordSessionOpened()
	RecordSessionClosed()
	RecordEventPublished(event string)
	RecordEventDropped()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus       *prometheus.CounterVec
	authFailures     prometheus.Counter
	rateLimitRejects *prometheus.CounterVec
	activeSessions   prometheus.Gauge
	eventsPublished  *prometheus.CounterVec
	eventsDropped    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentlify_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rentlify_auth_failures_total",
			Help: "資格情報の検証失敗の合計数",
		}),
		rateLimitRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentlify_rate_limit_rejections_total",
			Help: "レート制限ポリシー別の429拒否数",
		}, []string{"policy"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rentlify_realtime_sessions",
			Help: "現在接続中のリアルタイムセッション数",
		}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentlify_realtime_events_published_total",
			Help: "リアルタイムチャネルに配信されたイベント数",
		}, []string{"event"}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rentlify_realtime_events_dropped_total",
			Help: "送信バッファ満杯により破棄されたイベント数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.authFailures,
		c.rateLimitRejects,
		c.activeSessions,
		c.eventsPublished,
		c.eventsDropped,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordAuthFailure は資格情報の検証失敗を記録する。
func (c *Collector) RecordAuthFailure() {
	c.authFailures.Inc()
}

// RecordRateLimitRejection はレート制限による拒否をポリシー別に記録する。
func (c *Collector) RecordRateLimitRejection(policy string) {
	c.rateLimitRejects.WithLabelValues(policy).Inc()
}

// RecordSessionOpened はリアルタイムセッションの接続を記録する。
func (c *Collector) RecordSessionOpened() {
	c.activeSessions.Inc()
}

// RecordSessionClosed はリアルタイムセッションの切断を記録する。
func (c *Collector) RecordSessionClosed() {
	c.activeSessions.Dec()
}

// RecordEventPublished はイベント配信を記録する。
func (c *Collector) RecordEventPublished(event string) {
	c.eventsPublished.WithLabelValues(event).Inc()
}

// RecordEventDropped は送信バッファ満杯によるイベント破棄を記録する。
func (c *Collector) RecordEventDropped() {
	c.eventsDropped.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
