package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/rentlify/internal/middleware"
	"github.com/hitoshi/rentlify/internal/model"
	"github.com/hitoshi/rentlify/internal/repository"
)

// LeaseHandler は賃貸借契約のHTTPハンドラー。
type LeaseHandler struct {
	repo repository.LeaseRepository
}

// NewLeaseHandler はLeaseHandlerを生成する。
func NewLeaseHandler(repo repository.LeaseRepository) *LeaseHandler {
	return &LeaseHandler{repo: repo}
}

// List は契約一覧を返す。
// GET /leases
func (h *LeaseHandler) List(w http.ResponseWriter, r *http.Request) {
	leases, err := h.repo.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leases)
}

// Get は契約詳細を返す。
// GET /leases/{id}
func (h *LeaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	lease, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if lease == nil {
		middleware.WriteErrorResponse(w, model.NewNotFoundError("Lease"))
		return
	}

	writeJSON(w, http.StatusOK, lease)
}
