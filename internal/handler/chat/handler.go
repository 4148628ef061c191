// Package chat serves the non-streaming chat endpoint.
package chat

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/zenora/backend/internal/model/chat"
	chatService "github.com/zhouzirui/zenora/backend/internal/service/chat"
	"github.com/zhouzirui/zenora/backend/pkg/utils"
)

// Error strings returned alongside the apology for each failure kind.
const (
	RateLimitedError = "Rate limit exceeded. Please try again in a moment."
	QuotaError       = "Service temporarily unavailable."
	UnavailableError = "upstream unavailable"
	InternalError    = "internal error"
)

// Handler is the HTTP handler of POST /api/ai-chat.
type Handler struct {
	chatSvc *chatService.Service
	log     *logrus.Entry
}

// New creates a chat handler.
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		log:     logrus.WithField("component", "handler.chat"),
	}
}

// RegisterRoutes mounts the chat route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/ai-chat", h.handleChat)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.chatSvc.Respond(r.Context(), req)
	if err != nil {
		status, payload := ErrorPayload(err)
		if status >= http.StatusInternalServerError {
			h.log.WithError(err).Error("chat request failed")
		}
		utils.RespondJSON(w, status, payload)
		return
	}

	utils.RespondJSON(w, http.StatusOK, reply)
}

// ErrorPayload maps a chat service error onto an HTTP status and a body that
// is safe to show to the user.
func ErrorPayload(err error) (int, chat.ErrorReply) {
	if errors.Is(err, chatService.ErrMessageRequired) {
		return http.StatusBadRequest, chat.ErrorReply{Error: "message is required"}
	}

	var failure *chatService.Failure
	if !errors.As(err, &failure) {
		return http.StatusInternalServerError, chat.ErrorReply{
			Error:    InternalError,
			Response: chatService.UnavailableResponse,
		}
	}

	payload := chat.ErrorReply{Response: failure.Response, IsCrisis: failure.IsCrisis}
	switch failure.Kind {
	case chatService.FailureRateLimited:
		payload.Error = RateLimitedError
		return http.StatusTooManyRequests, payload
	case chatService.FailureQuotaExhausted:
		payload.Error = QuotaError
		return http.StatusPaymentRequired, payload
	case chatService.FailureUnavailable:
		payload.Error = UnavailableError
		return http.StatusInternalServerError, payload
	default:
		payload.Error = InternalError
		return http.StatusInternalServerError, payload
	}
}
