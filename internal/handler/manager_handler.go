package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/rentlify/internal/middleware"
	"github.com/hitoshi/rentlify/internal/model"
	"github.com/hitoshi/rentlify/internal/repository"
)

// ManagerHandler は物件管理者向けのHTTPハンドラー。
// RequireRoles(manager)の後段にマウントされる。
type ManagerHandler struct {
	users      repository.UserRepository
	properties repository.PropertyRepository
}

// NewManagerHandler はManagerHandlerを生成する。
func NewManagerHandler(users repository.UserRepository, properties repository.PropertyRepository) *ManagerHandler {
	return &ManagerHandler{users: users, properties: properties}
}

// Get は管理者プロフィールを返す。
// GET /managers/{id}
func (h *ManagerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if user == nil || user.Role != model.RoleManager {
		middleware.WriteErrorResponse(w, model.NewNotFoundError("Manager"))
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Update は管理者プロフィールを更新する。自分自身のみ更新できる。
// PUT /managers/{id}
func (h *ManagerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewUnauthenticatedError())
		return
	}
	if identity.Subject != id {
		middleware.WriteErrorResponse(w, model.NewForbiddenError())
		return
	}

	var req updateProfileRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	user, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if user == nil {
		middleware.WriteErrorResponse(w, model.NewNotFoundError("Manager"))
		return
	}

	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" {
		user.Email = email
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	user.UpdatedAt = time.Now()

	if err := h.users.Update(r.Context(), user); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Properties は管理者の担当物件一覧を返す。
// GET /managers/{id}/properties
func (h *ManagerHandler) Properties(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	properties, err := h.properties.ListByManager(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, properties)
}
