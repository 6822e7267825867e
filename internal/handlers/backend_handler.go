package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"codinground/internal/middleware"
	"codinground/internal/models"
	"codinground/internal/store"
	"codinground/internal/utils"
)

// BackendHandler serves the interview-backend endpoints from the local store,
// for deployments running with BACKEND_MODE=local.
type BackendHandler struct {
	repo   *store.Repository
	logger *zap.Logger
}

func NewBackendHandler(repo *store.Repository, logger *zap.Logger) *BackendHandler {
	return &BackendHandler{repo: repo, logger: logger}
}

func (h *BackendHandler) writeError(w http.ResponseWriter, err error, action string) {
	if errors.Is(err, store.ErrNotFound) {
		utils.JSON(w, http.StatusNotFound, models.ErrorResponse{Code: "not_found", Message: err.Error()})
		return
	}
	h.logger.Error("Backend store error", zap.String("action", action), zap.Error(err))
	utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{
		Code:    "store_error",
		Message: "Failed to " + action,
	})
}

// SeedQuestions handles POST /interview/coding-questions/{session_id}/
func (h *BackendHandler) SeedQuestions(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.SeedQuestionsRequest](r)
	if err := h.repo.SeedQuestions(r.Context(), chi.URLParam(r, "session_id"), *req); err != nil {
		h.writeError(w, err, "seed questions")
		return
	}
	utils.JSON(w, http.StatusCreated, models.Resp{OK: true})
}

// GetCodingQuestions handles GET /interview/get-coding-questions/{session_id}/
func (h *BackendHandler) GetCodingQuestions(w http.ResponseWriter, r *http.Request) {
	resp, err := h.repo.GetCodingQuestions(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		h.writeError(w, err, "load questions")
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

// IncrementAssistance handles POST /interview/coding-assistance/{session_id}/{problem_id}/
func (h *BackendHandler) IncrementAssistance(w http.ResponseWriter, r *http.Request) {
	count, err := h.repo.IncrementAssistance(r.Context(), chi.URLParam(r, "session_id"), chi.URLParam(r, "problem_id"))
	if err != nil {
		h.writeError(w, err, "increment assistance")
		return
	}
	utils.JSON(w, http.StatusOK, models.AssistanceResponse{AssistanceCount: count})
}

// SaveScore handles POST /interview/add-coding-scores/{session_id}/{problem_id}/
func (h *BackendHandler) SaveScore(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.ScoreRequest](r)
	if err := h.repo.SaveScore(r.Context(), chi.URLParam(r, "session_id"), chi.URLParam(r, "problem_id"), *req); err != nil {
		h.writeError(w, err, "save score")
		return
	}
	utils.JSON(w, http.StatusOK, models.Resp{OK: true})
}

// UpdateSessionStatus handles PATCH /interview/update-session-status/{session_id}/
func (h *BackendHandler) UpdateSessionStatus(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.SessionStatusRequest](r)
	if err := h.repo.UpdateSessionStatus(r.Context(), chi.URLParam(r, "session_id"), req.Status, req.RoundType); err != nil {
		h.writeError(w, err, "update session status")
		return
	}
	utils.JSON(w, http.StatusOK, models.Resp{OK: true})
}

// ContinueSession handles POST /interview/continue-session/{session_id}/
func (h *BackendHandler) ContinueSession(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.ContinueSessionRequest](r)
	resp, err := h.repo.ContinueSession(r.Context(), chi.URLParam(r, "session_id"), req.RoundType)
	if err != nil {
		h.writeError(w, err, "continue session")
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}
