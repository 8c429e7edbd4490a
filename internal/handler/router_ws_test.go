package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hitoshi/rentlify/internal/model"
	"github.com/hitoshi/rentlify/internal/realtime"
)

// TestRouter_WebSocketUpgradeThroughFullMiddlewareChain は/wsへの接続が
// ルーターのミドルウェアスタック（ロギングのレスポンスラッパーを含む）越しに
// アップグレードできることを検証する。ラッパーがHijackを透過できないと
// ここで必ずハンドシェイクが失敗する。
func TestRouter_WebSocketUpgradeThroughFullMiddlewareChain(t *testing.T) {
	f := newRouterFixture(t)

	server := httptest.NewServer(f.router)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	token := f.token(t, "user-42", model.RoleTenant)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial through router failed: %v (status %d)", err, status)
	}
	defer conn.Close()

	// 接続がサブジェクトチャネルに参加するまで待つ
	deadline := time.Now().Add(2 * time.Second)
	for f.hub.SessionCount(realtime.SubjectChannel("user-42")) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("session did not join the subject channel")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// ハブからの配信がソケットまで届くこと
	f.hub.Publish("user-42", "newMessage", map[string]string{"body": "hello"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var ev realtime.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("event should be JSON: %v (got %q)", err, data)
	}
	if ev.Event != "newMessage" {
		t.Errorf("event = %q, want %q", ev.Event, "newMessage")
	}
}

func TestRouter_WebSocketWithoutToken_Returns401(t *testing.T) {
	f := newRouterFixture(t)

	server := httptest.NewServer(f.router)
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/ws")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}
