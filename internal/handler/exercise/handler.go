// Package exercise serves the exercise session endpoint.
package exercise

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	exercisesvc "github.com/zhouzirui/zenora/backend/internal/service/exercise"
	"github.com/zhouzirui/zenora/backend/pkg/utils"
)

// Response is the body of every start-exercise reply.
type Response struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Handler is the HTTP handler of POST /api/start-exercise.
type Handler struct {
	exerciseSvc *exercisesvc.Service
	log         *logrus.Entry
}

// New creates an exercise handler.
func New(exerciseSvc *exercisesvc.Service) *Handler {
	return &Handler{
		exerciseSvc: exerciseSvc,
		log:         logrus.WithField("component", "handler.exercise"),
	}
}

// RegisterRoutes mounts the exercise route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/start-exercise", h.handleStart)
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var req exercisesvc.StartRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondJSON(w, http.StatusBadRequest, Response{Error: "invalid request body"})
		return
	}

	session, err := h.exerciseSvc.Start(r.Context(), req)
	if err != nil {
		if errors.Is(err, exercisesvc.ErrNameRequired) ||
			errors.Is(err, exercisesvc.ErrUserRequired) ||
			errors.Is(err, exercisesvc.ErrInvalidValue) {
			utils.RespondJSON(w, http.StatusBadRequest, Response{Error: err.Error()})
			return
		}
		h.log.WithError(err).Error("failed to start exercise")
		utils.RespondJSON(w, http.StatusInternalServerError, Response{Error: "failed to start exercise"})
		return
	}

	utils.RespondJSON(w, http.StatusOK, Response{
		Success:   true,
		SessionID: session.ID,
		Message:   exercisesvc.StartedMessage(session.ExerciseName),
	})
}
