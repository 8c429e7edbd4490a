// Package realtime は認証済みソケットセッションへのイベント配信を提供する。
//
// HubはサブジェクトIDおよびロール名で名前付けされたチャネルへの
// セッションの参加・離脱と、チャネル単位のイベント配信（fan-out）を管理する。
// 配信はベストエフォート・at-most-onceであり、切断中の宛先や送信バッファが
// 満杯のセッションへのイベントは破棄される。キューイングや再送は行わない。
package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/hitoshi/rentlify/internal/metrics"
	"github.com/hitoshi/rentlify/internal/model"
)

// Event はサーバーからクライアントへ配信される名前付きJSONメッセージ。
type Event struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// SubjectChannel はサブジェクトIDに対応するチャネル名を返す。
func SubjectChannel(subject string) string {
	return "user:" + subject
}

// RoleChannel はロールに対応するチャネル名を返す。
func RoleChannel(role model.Role) string {
	return "role:" + string(role)
}

// Hub はチャネルメンバーシップと配信を一元管理する。
// メンバーシップの生のマップは公開せず、Join/Leave/Publishの
// アトミックな操作のみを提供する。全操作は並行安全。
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*Session]struct{}
	closed   bool

	collector metrics.GatewayCollector // nil可
}

// NewHub はHubを生成する。collectorはnilを許容する。
func NewHub(collector metrics.GatewayCollector) *Hub {
	return &Hub{
		channels:  make(map[string]map[*Session]struct{}),
		collector: collector,
	}
}

// Join はセッションを指定チャネルに参加させる。
// Hubがクローズ済みの場合は何もしない。
func (h *Hub) Join(channel string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	members, ok := h.channels[channel]
	if !ok {
		members = make(map[*Session]struct{})
		h.channels[channel] = members
	}
	members[s] = struct{}{}
	s.channels[channel] = struct{}{}
}

// Leave はセッションを参加中のすべてのチャネルから離脱させる。
// 離脱後、そのセッションへのイベント配信は行われない。
func (h *Hub) Leave(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for channel := range s.channels {
		members, ok := h.channels[channel]
		if !ok {
			continue
		}
		delete(members, s)
		if len(members) == 0 {
			delete(h.channels, channel)
		}
	}
	s.channels = make(map[string]struct{})
}

// Publish は指定サブジェクトのチャネルに参加中の全セッションへイベントを配信する。
// 接続中のセッションがなければイベントは破棄される（ベストエフォート）。
// 同一サブジェクトの複数セッションにはすべて配信される（fan-out）。
func (h *Hub) Publish(targetSubject, event string, payload any) {
	h.publish(SubjectChannel(targetSubject), event, payload)
}

// PublishRole は指定ロールのチャネルに参加中の全セッションへイベントを配信する。
// ロール全体向けのお知らせ系イベントに使用する。
func (h *Hub) PublishRole(role model.Role, event string, payload any) {
	h.publish(RoleChannel(role), event, payload)
}

func (h *Hub) publish(channel, event string, payload any) {
	data, err := json.Marshal(Event{Event: event, Payload: payload})
	if err != nil {
		slog.Error("failed to encode realtime event",
			slog.String("channel", channel),
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
		return
	}

	// 配信中のJoin/Leaveと競合しないよう、メンバーの一貫したスナップショットを取る
	h.mu.RLock()
	members := make([]*Session, 0, len(h.channels[channel]))
	for s := range h.channels[channel] {
		members = append(members, s)
	}
	h.mu.RUnlock()

	if len(members) == 0 {
		return
	}

	for _, s := range members {
		if s.enqueue(data) {
			if h.collector != nil {
				h.collector.RecordEventPublished(event)
			}
			continue
		}
		// 送信バッファ満杯: このセッション向けのイベントは破棄する
		if h.collector != nil {
			h.collector.RecordEventDropped()
		}
		slog.Debug("realtime event dropped",
			slog.String("channel", channel),
			slog.String("event", event),
		)
	}
}

// SessionCount は指定チャネルの現在のセッション数を返す。テスト用。
func (h *Hub) SessionCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// Close は全セッションを切断し、以降のJoinを無効化する。
// シャットダウン時に呼び出す。
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := make(map[*Session]struct{})
	for _, members := range h.channels {
		for s := range members {
			sessions[s] = struct{}{}
		}
	}
	h.channels = make(map[string]map[*Session]struct{})
	h.closed = true
	h.mu.Unlock()

	for s := range sessions {
		s.close()
	}
}
