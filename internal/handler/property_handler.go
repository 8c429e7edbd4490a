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

// PropertyHandler は物件のHTTPハンドラー。
type PropertyHandler struct {
	repo repository.PropertyRepository
}

// NewPropertyHandler はPropertyHandlerを生成する。
func NewPropertyHandler(repo repository.PropertyRepository) *PropertyHandler {
	return &PropertyHandler{repo: repo}
}

// createPropertyRequest は物件登録リクエストのボディ。
type createPropertyRequest struct {
	ManagerID string `json:"managerId"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Rent      int64  `json:"rent"`
	Beds      int    `json:"beds"`
	Baths     int    `json:"baths"`
}

// List は物件一覧を返す。
// GET /properties
func (h *PropertyHandler) List(w http.ResponseWriter, r *http.Request) {
	properties, err := h.repo.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, properties)
}

// Get は物件詳細を返す。
// GET /properties/{id}
func (h *PropertyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	property, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if property == nil {
		middleware.WriteErrorResponse(w, model.NewNotFoundError("Property"))
		return
	}

	writeJSON(w, http.StatusOK, property)
}

// Create は物件を登録する。
// POST /properties
func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPropertyRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		middleware.WriteErrorResponse(w, model.NewBadRequestError("Property name is required"))
		return
	}
	if req.ManagerID == "" {
		middleware.WriteErrorResponse(w, model.NewBadRequestError("managerId is required"))
		return
	}

	property := &model.Property{
		ID:        uuid.New().String(),
		ManagerID: req.ManagerID,
		Name:      strings.TrimSpace(req.Name),
		Address:   strings.TrimSpace(req.Address),
		Rent:      req.Rent,
		Beds:      req.Beds,
		Baths:     req.Baths,
		CreatedAt: time.Now(),
	}

	if err := h.repo.Create(r.Context(), property); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, property)
}
