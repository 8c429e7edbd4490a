package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordHTTPStatus_IncrementsCounterWithLabel はHTTPステータスカウンタがラベル付きで増加することを検証する。
func TestRecordHTTPStatus_IncrementsCounterWithLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "rentlify_http_status_total" {
			found = true
			if len(mf.GetMetric()) != 2 {
				t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
			}
			for _, m := range mf.GetMetric() {
				label := m.GetLabel()[0].GetValue()
				val := m.GetCounter().GetValue()
				switch label {
				case "200":
					if val != 2 {
						t.Errorf("http_status_total{status_code=200} = %v, want 2", val)
					}
				case "404":
					if val != 1 {
						t.Errorf("http_status_total{status_code=404} = %v, want 1", val)
					}
				default:
					t.Errorf("unexpected label value: %s", label)
				}
			}
		}
	}
	if !found {
		t.Error("rentlify_http_status_total metric not found")
	}
}

// TestRecordAuthFailure_IncrementsCounter は認証失敗カウンタが増加することを検証する。
func TestRecordAuthFailure_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAuthFailure()
	c.RecordAuthFailure()

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "rentlify_auth_failures_total" {
			found = true
			val := mf.GetMetric()[0].GetCounter().GetValue()
			if val != 2 {
				t.Errorf("auth_failures_total = %v, want 2", val)
			}
		}
	}
	if !found {
		t.Error("rentlify_auth_failures_total metric not found")
	}
}

// TestRecordRateLimitRejection_IncrementsCounterWithLabel はレート制限拒否カウンタが
// ポリシーラベル付きで増加することを検証する。
func TestRecordRateLimitRejection_IncrementsCounterWithLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRateLimitRejection("auth")
	c.RecordRateLimitRejection("auth")
	c.RecordRateLimitRejection("general")

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "rentlify_rate_limit_rejections_total" {
			found = true
			if len(mf.GetMetric()) != 2 {
				t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
			}
			for _, m := range mf.GetMetric() {
				label := m.GetLabel()[0].GetValue()
				val := m.GetCounter().GetValue()
				switch label {
				case "auth":
					if val != 2 {
						t.Errorf("rate_limit_rejections_total{policy=auth} = %v, want 2", val)
					}
				case "general":
					if val != 1 {
						t.Errorf("rate_limit_rejections_total{policy=general} = %v, want 1", val)
					}
				default:
					t.Errorf("unexpected label value: %s", label)
				}
			}
		}
	}
	if !found {
		t.Error("rentlify_rate_limit_rejections_total metric not found")
	}
}

// TestSessionGauge_TracksOpenAndClose はセッションゲージが接続・切断を追跡することを検証する。
func TestSessionGauge_TracksOpenAndClose(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSessionOpened()
	c.RecordSessionOpened()
	c.RecordSessionOpened()
	c.RecordSessionClosed()

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "rentlify_realtime_sessions" {
			found = true
			val := mf.GetMetric()[0].GetGauge().GetValue()
			if val != 2 {
				t.Errorf("realtime_sessions = %v, want 2", val)
			}
		}
	}
	if !found {
		t.Error("rentlify_realtime_sessions metric not found")
	}
}

// TestRecordEventPublished_IncrementsCounterWithLabel はイベント配信カウンタがイベント名ラベル付きで増加することを検証する。
func TestRecordEventPublished_IncrementsCounterWithLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordEventPublished("newMessage")
	c.RecordEventPublished("newMessage")
	c.RecordEventPublished("applicationUpdated")

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "rentlify_realtime_events_published_total" {
			found = true
			if len(mf.GetMetric()) != 2 {
				t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
			}
			for _, m := range mf.GetMetric() {
				label := m.GetLabel()[0].GetValue()
				val := m.GetCounter().GetValue()
				switch label {
				case "newMessage":
					if val != 2 {
						t.Errorf("events_published_total{event=newMessage} = %v, want 2", val)
					}
				case "applicationUpdated":
					if val != 1 {
						t.Errorf("events_published_total{event=applicationUpdated} = %v, want 1", val)
					}
				default:
					t.Errorf("unexpected label value: %s", label)
				}
			}
		}
	}
	if !found {
		t.Error("rentlify_realtime_events_published_total metric not found")
	}
}

// TestRecordEventDropped_IncrementsCounter はイベント破棄カウンタが増加することを検証する。
func TestRecordEventDropped_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordEventDropped()

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "rentlify_realtime_events_dropped_total" {
			found = true
			val := mf.GetMetric()[0].GetCounter().GetValue()
			if val != 1 {
				t.Errorf("events_dropped_total = %v, want 1", val)
			}
		}
	}
	if !found {
		t.Error("rentlify_realtime_events_dropped_total metric not found")
	}
}

// TestHandler_ReturnsPrometheusFormat はメトリクスハンドラーがPrometheus形式で返すことを検証する。
func TestHandler_ReturnsPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	// いくつかのメトリクスを記録
	c.RecordHTTPStatus(200)
	c.RecordAuthFailure()
	c.RecordRateLimitRejection("general")
	c.RecordSessionOpened()
	c.RecordEventPublished("newMessage")
	c.RecordEventDropped()

	handler := Handler(reg)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	// Prometheus形式のメトリクスが含まれていることを確認
	expectedMetrics := []string{
		"rentlify_http_status_total",
		"rentlify_auth_failures_total",
		"rentlify_rate_limit_rejections_total",
		"rentlify_realtime_sessions",
		"rentlify_realtime_events_published_total",
		"rentlify_realtime_events_dropped_total",
	}

	for _, metric := range expectedMetrics {
		if !strings.Contains(bodyStr, metric) {
			t.Errorf("response body does not contain %q", metric)
		}
	}
}

// TestCollector_ImplementsGatewayCollectorInterface はCollectorがGatewayCollectorインターフェースを実装することを検証する。
func TestCollector_ImplementsGatewayCollectorInterface(t *testing.T) {
	reg := prometheus.NewRegistry()
	var _ GatewayCollector = NewCollector(reg)
}

// TestMultipleCollectors_IndependentRegistries は異なるレジストリで独立に動作することを検証する。
func TestMultipleCollectors_IndependentRegistries(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()
	c1 := NewCollector(reg1)
	c2 := NewCollector(reg2)

	c1.RecordAuthFailure()
	c2.RecordAuthFailure()
	c2.RecordAuthFailure()

	metrics1, _ := reg1.Gather()
	metrics2, _ := reg2.Gather()

	var val1, val2 float64
	for _, mf := range metrics1 {
		if mf.GetName() == "rentlify_auth_failures_total" {
			val1 = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	for _, mf := range metrics2 {
		if mf.GetName() == "rentlify_auth_failures_total" {
			val2 = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}

	if val1 != 1 {
		t.Errorf("reg1 auth_failures = %v, want 1", val1)
	}
	if val2 != 2 {
		t.Errorf("reg2 auth_failures = %v, want 2", val2)
	}
}
