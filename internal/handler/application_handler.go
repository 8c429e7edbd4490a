package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hitoshi/rentlify/internal/middleware"
	"github.com/hitoshi/rentlify/internal/model"
	"github.com/hitoshi/rentlify/internal/repository"
)

// ApplicationHandler は入居申込のHTTPハンドラー。
type ApplicationHandler struct {
	repo repository.ApplicationRepository
}

// NewApplicationHandler はApplicationHandlerを生成する。
func NewApplicationHandler(repo repository.ApplicationRepository) *ApplicationHandler {
	return &ApplicationHandler{repo: repo}
}

// createApplicationRequest は申込作成リクエストのボディ。
type createApplicationRequest struct {
	PropertyID string `json:"propertyId"`
	TenantID   string `json:"tenantId"`
	Message    string `json:"message"`
}

// updateStatusRequest は申込ステータス更新リクエストのボディ。
type updateStatusRequest struct {
	Status model.ApplicationStatus `json:"status"`
}

// List は申込一覧を返す。tenantId・propertyIdクエリで絞り込める。
// GET /applications
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.ApplicationFilter{
		TenantID:   r.URL.Query().Get("tenantId"),
		PropertyID: r.URL.Query().Get("propertyId"),
	}

	applications, err := h.repo.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, applications)
}

// Create は申込を作成する。
// POST /applications
func (h *ApplicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createApplicationRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if req.PropertyID == "" || req.TenantID == "" {
		middleware.WriteErrorResponse(w, model.NewBadRequestError("propertyId and tenantId are required"))
		return
	}

	application := &model.Application{
		ID:         uuid.New().String(),
		PropertyID: req.PropertyID,
		TenantID:   req.TenantID,
		Status:     model.ApplicationPending,
		Message:    req.Message,
		CreatedAt:  time.Now(),
	}

	if err := h.repo.Create(r.Context(), application); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, application)
}

// UpdateStatus は申込のステータスを更新する。
// PUT /applications/{id}/status
func (h *ApplicationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateStatusRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if !model.ValidApplicationStatus(req.Status) {
		middleware.WriteErrorResponse(w, model.NewBadRequestError("Status must be pending, approved or denied"))
		return
	}

	application, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if application == nil {
		middleware.WriteErrorResponse(w, model.NewNotFoundError("Application"))
		return
	}

	if err := h.repo.UpdateStatus(r.Context(), id, req.Status); err != nil {
		handleServiceError(w, err)
		return
	}

	application.Status = req.Status
	writeJSON(w, http.StatusOK, application)
}
