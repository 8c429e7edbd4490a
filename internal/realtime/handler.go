package realtime

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hitoshi/rentlify/internal/auth"
	"github.com/hitoshi/rentlify/internal/metrics"
)

// HandlerConfig はソケット接続ハンドラーの設定。
type HandlerConfig struct {
	// Secret は資格情報の署名検証用シークレット。HTTP側と同一のものを使う。
	Secret string
	// OriginAllowed はハンドシェイク時のオリジン判定。HTTP側のCORSポリシーと共有する。
	OriginAllowed func(origin string) bool
}

// Handler はソケット接続のハンドシェイクとセッションのライフサイクルを管理する。
// ハンドシェイクではHTTP側と同じBearer資格情報を独立に再検証する。
// ソケットは長命であり、一度きりのHTTP認証判定を暗黙に引き継がせない。
type Handler struct {
	hub       *Hub
	config    HandlerConfig
	upgrader  websocket.Upgrader
	collector metrics.GatewayCollector // nil可
}

// NewHandler はHandlerを生成する。collectorはnilを許容する。
func NewHandler(hub *Hub, config HandlerConfig, collector metrics.GatewayCollector) *Handler {
	h := &Handler{
		hub:       hub,
		config:    config,
		collector: collector,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return config.OriginAllowed(r.Header.Get("Origin"))
		},
	}
	return h
}

// ServeHTTP はソケット接続要求を処理する。
// 資格情報の検証に失敗した場合はアップグレード前に401を返す。
// 成功した場合はサブジェクトチャネルとロールチャネルに参加させ、
// 読み書きポンプを起動する。
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := handshakeToken(r)
	if token == "" {
		if h.collector != nil {
			h.collector.RecordAuthFailure()
		}
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	identity, err := auth.VerifyToken(token, h.config.Secret, time.Now())
	if err != nil {
		if h.collector != nil {
			h.collector.RecordAuthFailure()
		}
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgradeはエラー時に自身でレスポンスを書き込んでいる
		slog.Warn("websocket upgrade failed",
			slog.String("subject", identity.Subject),
			slog.String("error", err.Error()),
		)
		return
	}

	s := newSession(conn, identity)
	h.hub.Join(SubjectChannel(identity.Subject), s)
	h.hub.Join(RoleChannel(identity.Role), s)

	if h.collector != nil {
		h.collector.RecordSessionOpened()
	}
	slog.Info("realtime session connected",
		slog.String("subject", identity.Subject),
		slog.String("role", string(identity.Role)),
	)

	go s.writePump()
	go func() {
		s.readPump()
		h.hub.Leave(s)
		if h.collector != nil {
			h.collector.RecordSessionClosed()
		}
		slog.Info("realtime session disconnected",
			slog.String("subject", identity.Subject),
		)
	}()
}

// handshakeToken はハンドシェイク要求から資格情報を取り出す。
// AuthorizationヘッダーのBearer形式を優先し、
// ブラウザのWebSocket APIがヘッダーを付けられない場合のために
// tokenクエリパラメータも受け付ける。
func handshakeToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, found := strings.CutPrefix(header, "Bearer "); found {
			return token
		}
	}
	return r.URL.Query().Get("token")
}
