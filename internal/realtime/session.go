package realtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hitoshi/rentlify/internal/model"
	"golang.org/x/time/rate"
)

const (
	// writeWait は1フレームの書き込みに許容する時間。
	writeWait = 10 * time.Second
	// pongWait はpong応答を待つ時間。超過した接続は死んだとみなす。
	pongWait = 60 * time.Second
	// pingPeriod はping送信間隔。pongWaitより短くすること。
	pingPeriod = (pongWait * 9) / 10
	// maxInboundBytes はクライアントから受け付ける1フレームの最大サイズ。
	maxInboundBytes = 4096
	// sendBufferSize はセッションごとの送信バッファ長。
	// 満杯時のイベントは破棄される（at-most-once）。
	sendBufferSize = 32
)

// Session は接続時に検証されたIdentityが紐付く1本のソケット接続を表す。
// 接続時に生成され、切断時に破棄される。永続化はしない。
type Session struct {
	identity *model.Identity
	conn     *websocket.Conn
	sendCh   chan []byte

	// channels はこのセッションが参加中のチャネル名の集合。Hubのロック下でのみ操作する。
	channels map[string]struct{}

	// inboundLimiter はクライアントからの受信フレームの流量を制限する。
	inboundLimiter *rate.Limiter

	closeOnce sync.Once
	done      chan struct{}
}

// newSession はSessionを生成する。
func newSession(conn *websocket.Conn, identity *model.Identity) *Session {
	return &Session{
		identity: identity,
		conn:     conn,
		sendCh:   make(chan []byte, sendBufferSize),
		channels: make(map[string]struct{}),
		// 受信は購読確認程度を想定。毎秒5フレーム・バースト10を超える分は読み捨てる
		inboundLimiter: rate.NewLimiter(rate.Limit(5), 10),
		done:           make(chan struct{}),
	}
}

// Identity はこのセッションの検証済みIdentityを返す。
func (s *Session) Identity() *model.Identity {
	return s.identity
}

// enqueue はイベントを送信バッファに積む。満杯の場合はfalseを返す。
// ブロックしないため、遅いクライアントが配信側を巻き込むことはない。
func (s *Session) enqueue(data []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.sendCh <- data:
		return true
	default:
		return false
	}
}

// close はセッションを終了させる。複数回呼んでも安全。
func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

// writePump は送信バッファのイベントをソケットに書き込み、
// 定期的にpingを送信して接続の生存を確認する。
// セッションごとに1つのゴルーチンで実行する。
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case data := <-s.sendCh:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		}
	}
}

// readPump はクライアントからのフレームを読み続け、切断を検知する。
// このサーバーはクライアント発のイベントを処理しないため、受信内容は読み捨てる。
// 流量制限を超えるフレームはログに記録して無視する。
// 接続が切れた時点で戻り、呼び出し側がLeaveと後片付けを行う。
func (s *Session) readPump() {
	defer s.close()

	s.conn.SetReadLimit(maxInboundBytes)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("realtime session read error",
					slog.String("subject", s.identity.Subject),
					slog.String("error", err.Error()),
				)
			}
			return
		}

		if !s.inboundLimiter.Allow() {
			slog.Warn("realtime inbound flood discarded",
				slog.String("subject", s.identity.Subject),
			)
		}
	}
}
