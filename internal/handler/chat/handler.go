package chat

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuysCode/giovannibot/backend/internal/model/chat"
	chatService "github.com/BuysCode/giovannibot/backend/internal/service/chat"
	"github.com/BuysCode/giovannibot/backend/pkg/utils"
)

// Handler exposes chat sessions over REST.
type Handler struct {
	chatSvc *chatService.Service
	logger  *zap.Logger
}

// New creates the chat handler.
func New(chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{chatSvc: chatSvc, logger: logger}
}

// RegisterRoutes mounts the session routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreateSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGetSession)
		r.Delete("/", h.handleDeleteSession)
		r.Put("/region", h.handleChangeRegion)
		r.Post("/messages", h.handleSubmit)
	})
}

type regionRequest struct {
	Region string `json:"region"`
}

type submitRequest struct {
	Text string `json:"text"`
	Wait bool   `json:"wait"`
}

type submitResponse struct {
	Accepted bool          `json:"accepted"`
	Session  chat.Snapshot `json:"session"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	// An empty body opens a session on the default region.
	var payload regionRequest
	if err := utils.DecodeJSON(r, &payload); err != nil && !errors.Is(err, io.EOF) {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session := h.chatSvc.CreateSession(r.Context(), payload.Region)
	h.logger.Info("session created", zap.String("session", session.ID()), zap.String("topic", session.Topic()))
	h.respondJSON(w, http.StatusCreated, session.Snapshot())
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, session.Snapshot())
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleChangeRegion(w http.ResponseWriter, r *http.Request) {
	var payload regionRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snapshot, err := h.chatSvc.ChangeRegion(r.Context(), chi.URLParam(r, "sessionID"), payload.Region)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, snapshot)
}

// handleSubmit answers 202 while the reply is pending, or 200 once settled
// when the client asked to wait. Ignored input is not an error.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload submitRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	done, accepted := session.Submit(r.Context(), payload.Text)
	if !accepted {
		h.respondJSON(w, http.StatusOK, submitResponse{Accepted: false, Session: session.Snapshot()})
		return
	}

	if !payload.Wait {
		h.respondJSON(w, http.StatusAccepted, submitResponse{Accepted: true, Session: session.Snapshot()})
		return
	}

	select {
	case <-done:
	case <-r.Context().Done():
		return
	}
	h.respondJSON(w, http.StatusOK, submitResponse{Accepted: true, Session: session.Snapshot()})
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, chatService.ErrSessionNotFound) {
		h.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	h.logger.Error("chat service failure", zap.Error(err))
	h.respondError(w, http.StatusInternalServerError, "internal error")
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	if err := utils.RespondJSON(w, status, payload); err != nil {
		h.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	if err := utils.RespondError(w, status, message); err != nil {
		h.logger.Warn("failed to encode error response", zap.Error(err))
	}
}
