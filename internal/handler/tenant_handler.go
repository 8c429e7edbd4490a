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

// TenantHandler は入居者向けのHTTPハンドラー。
// RequireRoles(tenant)の後段にマウントされる。
type TenantHandler struct {
	users  repository.UserRepository
	leases repository.LeaseRepository
}

// NewTenantHandler はTenantHandlerを生成する。
func NewTenantHandler(users repository.UserRepository, leases repository.LeaseRepository) *TenantHandler {
	return &TenantHandler{users: users, leases: leases}
}

// updateProfileRequest はプロフィール更新リクエストのボディ。
type updateProfileRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Get は入居者プロフィールを返す。
// GET /tenants/{id}
func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if user == nil || user.Role != model.RoleTenant {
		middleware.WriteErrorResponse(w, model.NewNotFoundError("Tenant"))
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Update は入居者プロフィールを更新する。自分自身のみ更新できる。
// PUT /tenants/{id}
func (h *TenantHandler) Update(w http.ResponseWriter, r *http.Request) {
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
		middleware.WriteErrorResponse(w, model.NewNotFoundError("Tenant"))
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

// Leases は入居者の契約一覧を返す。
// GET /tenants/{id}/leases
func (h *TenantHandler) Leases(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	leases, err := h.leases.ListByTenant(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, leases)
}
