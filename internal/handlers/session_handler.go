package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"codinground/internal/middleware"
	"codinground/internal/models"
	"codinground/internal/session"
	"codinground/internal/utils"
)

// Streamer upgrades a request to the live event stream of a session.
type Streamer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, sessionID string)
}

type SessionHandler struct {
	manager  *session.Manager
	streamer Streamer
	logger   *zap.Logger
}

func NewSessionHandler(manager *session.Manager, streamer Streamer, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		manager:  manager,
		streamer: streamer,
		logger:   logger,
	}
}

// controller resolves the session of the request or writes a 404.
func (h *SessionHandler) controller(w http.ResponseWriter, r *http.Request) (*session.Controller, bool) {
	sessionID := chi.URLParam(r, "session_id")
	c, ok := h.manager.Get(sessionID)
	if !ok {
		utils.JSON(w, http.StatusNotFound, models.ErrorResponse{
			Code:    "session_not_found",
			Message: "Session is not loaded",
		})
		return nil, false
	}
	return c, true
}

func (h *SessionHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, session.ErrBusy):
		status, code = http.StatusConflict, "busy"
	case errors.Is(err, session.ErrEmptyMessage):
		status, code = http.StatusBadRequest, "missing_text"
	case errors.Is(err, session.ErrIndexOutOfRange):
		status, code = http.StatusBadRequest, "index_out_of_range"
	case errors.Is(err, session.ErrAlreadyStarted):
		status, code = http.StatusConflict, "already_started"
	case errors.Is(err, session.ErrNotActive):
		status, code = http.StatusConflict, "not_active"
	case errors.Is(err, session.ErrSessionClosed):
		status, code = http.StatusGone, "session_closed"
	default:
		h.logger.Error("Session request failed",
			zap.Error(err),
			zap.String("session_id", chi.URLParam(r, "session_id")),
			zap.String("path", r.URL.Path))
	}
	utils.JSON(w, status, models.ErrorResponse{Code: code, Message: err.Error()})
}

// LoadHandler handles POST /api/v1/coding/sessions/{session_id}/load
func (h *SessionHandler) LoadHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	snap, err := h.manager.GetOrCreate(sessionID).Load(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, snap)
}

// GetHandler handles GET /api/v1/coding/sessions/{session_id}
func (h *SessionHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	snap, err := c.Snapshot()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, snap)
}

func (h *SessionHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	if err := c.Start(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	snap, err := c.Snapshot()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, snap)
}

func (h *SessionHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.SendMessageRequest](r)
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	reply, err := c.SendMessage(r.Context(), req.Text)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, reply)
}

func (h *SessionHandler) UpdateCodeHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.UpdateCodeRequest](r)
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	if err := c.UpdateCode(req.Code, req.Language); err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, models.Resp{OK: true})
}

// SelectQuestionHandler handles POST /api/v1/coding/sessions/{session_id}/questions/{index}
func (h *SessionHandler) SelectQuestionHandler(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		utils.JSON(w, http.StatusBadRequest, models.ErrorResponse{
			Code:    "invalid_index",
			Message: "index must be an integer",
		})
		return
	}
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	if err := c.SelectQuestion(r.Context(), index); err != nil {
		h.writeError(w, r, err)
		return
	}
	snap, err := c.Snapshot()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, snap)
}

func (h *SessionHandler) RunCodeHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	result, err := c.RunCode(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, result)
}

// SubmitHandler handles POST /api/v1/coding/sessions/{session_id}/submit.
// proceed_on_failure answers the confirmation raised when the next round
// cannot be initialized.
func (h *SessionHandler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.SubmitRequest](r)
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	resp, err := c.Submit(r.Context(), session.Answer(req.ProceedOnFailure))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) FinishHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	resp, err := c.Finish(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Remove(chi.URLParam(r, "session_id")) {
		utils.JSON(w, http.StatusNotFound, models.ErrorResponse{
			Code:    "session_not_found",
			Message: "Session is not loaded",
		})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StreamHandler handles GET /api/v1/coding/sessions/{session_id}/stream
func (h *SessionHandler) StreamHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.controller(w, r); !ok {
		return
	}
	h.streamer.ServeWS(w, r, chi.URLParam(r, "session_id"))
}
