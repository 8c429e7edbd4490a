package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hitoshi/rentlify/internal/middleware"
	"github.com/hitoshi/rentlify/internal/model"
	"github.com/hitoshi/rentlify/internal/repository"
)

// EventPublisher はメッセージハンドラーが必要とするリアルタイム配信の
// インターフェース。realtime.Hubの部分集合として定義する。
// 配信はベストエフォートであり、失敗してもHTTPレスポンスには影響しない。
type EventPublisher interface {
	// Publish は指定サブジェクトの全接続セッションへイベントを配信する。
	Publish(targetSubject, event string, payload any)
}

// MessageHandler はユーザー間メッセージのHTTPハンドラー。
// RequireRoles(tenant, manager)の後段にマウントされる。
type MessageHandler struct {
	repo      repository.MessageRepository
	publisher EventPublisher
}

// NewMessageHandler はMessageHandlerを生成する。
func NewMessageHandler(repo repository.MessageRepository, publisher EventPublisher) *MessageHandler {
	return &MessageHandler{repo: repo, publisher: publisher}
}

// createMessageRequest はメッセージ送信リクエストのボディ。
type createMessageRequest struct {
	RecipientID string `json:"recipientId"`
	Body        string `json:"body"`
}

// List は自分が送受信したメッセージ一覧を返す。
// GET /messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewUnauthenticatedError())
		return
	}

	messages, err := h.repo.ListByUser(r.Context(), identity.Subject)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// Conversation は相手ユーザーとの会話を古い順に返す。
// GET /messages/{userId}
func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewUnauthenticatedError())
		return
	}

	other := chi.URLParam(r, "userId")

	messages, err := h.repo.ListConversation(r.Context(), identity.Subject, other)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// Create はメッセージを保存し、受信者の接続中セッションへ
// newMessageイベントを配信する。
// POST /messages
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewUnauthenticatedError())
		return
	}

	var req createMessageRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if req.RecipientID == "" {
		middleware.WriteErrorResponse(w, model.NewBadRequestError("recipientId is required"))
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		middleware.WriteErrorResponse(w, model.NewBadRequestError("Message body is required"))
		return
	}

	message := &model.Message{
		ID:          uuid.New().String(),
		SenderID:    identity.Subject,
		RecipientID: req.RecipientID,
		Body:        req.Body,
		CreatedAt:   time.Now(),
	}

	if err := h.repo.Create(r.Context(), message); err != nil {
		handleServiceError(w, err)
		return
	}

	// 保存成功後に配信する。受信者が未接続ならイベントは破棄される
	h.publisher.Publish(message.RecipientID, "newMessage", message)

	writeJSON(w, http.StatusCreated, message)
}
