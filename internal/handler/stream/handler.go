// Package stream serves chat replies as Server-Sent Events.
package stream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	chatHandler "github.com/zhouzirui/zenora/backend/internal/handler/chat"
	"github.com/zhouzirui/zenora/backend/internal/llm"
	"github.com/zhouzirui/zenora/backend/internal/model/chat"
	"github.com/zhouzirui/zenora/backend/internal/model/mood"
	"github.com/zhouzirui/zenora/backend/internal/service/ai"
	chatService "github.com/zhouzirui/zenora/backend/internal/service/chat"
	"github.com/zhouzirui/zenora/backend/pkg/utils"
)

// SSE event names, in the order a successful turn emits them.
const (
	EventAnalysis = "analysis"
	EventDelta    = "delta"
	EventMessage  = "message"
	EventEnd      = "end"
	EventError    = "error"
)

// AnalysisEvent is sent once the message has been classified.
type AnalysisEvent struct {
	EmotionAnalysis mood.Analysis `json:"emotionAnalysis"`
	IsCrisis        bool          `json:"isCrisis"`
}

// DeltaEvent carries one chunk of the reply.
type DeltaEvent struct {
	Content string `json:"content"`
}

// EndEvent closes a successful stream.
type EndEvent struct {
	Finished bool `json:"finished"`
}

// ErrorEvent reports a failure after the stream has started.
type ErrorEvent struct {
	Status int `json:"status"`
	chat.ErrorReply
}

// Handler manages streaming chat replies.
type Handler struct {
	chatSvc   *chatService.Service
	streaming bool
	log       *logrus.Entry
}

// New creates a stream handler. When streaming is false the reply is
// generated in one call and sent as a single message event.
func New(chatSvc *chatService.Service, streaming bool) *Handler {
	return &Handler{
		chatSvc:   chatSvc,
		streaming: streaming,
		log:       logrus.WithField("component", "handler.stream"),
	}
}

// RegisterRoutes mounts the streaming route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/ai-chat/stream", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	var req chat.Request
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	plan, err := h.chatSvc.Prepare(ctx, req)
	if err != nil {
		// Nothing has been streamed yet, so the status can still be set.
		status, payload := chatHandler.ErrorPayload(err)
		utils.RespondJSON(w, status, payload)
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	if err := utils.SendSSEEvent(w, flusher, EventAnalysis, AnalysisEvent{
		EmotionAnalysis: plan.Analysis,
		IsCrisis:        plan.Crisis,
	}); err != nil {
		h.log.WithError(err).Debug("client went away")
		return
	}

	text, err := h.dispatch(ctx, w, flusher, plan)
	if err != nil {
		if ctx.Err() != nil {
			h.log.Debug("client disconnected during stream")
			return
		}
		h.sendError(w, flusher, err)
		return
	}

	reply := h.chatSvc.Finish(ctx, plan, text)
	_ = utils.SendSSEEvent(w, flusher, EventMessage, reply)
	_ = utils.SendSSEEvent(w, flusher, EventEnd, EndEvent{Finished: true})

	h.log.WithFields(logrus.Fields{
		"crisis":   reply.IsCrisis,
		"streamed": h.streaming,
		"length":   len(reply.Response),
	}).Info("stream completed")
}

// dispatch produces the reply text, forwarding chunks as delta events when
// streaming is enabled. Errors are *chatService.Failure values.
func (h *Handler) dispatch(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, plan chatService.Plan) (string, error) {
	if !h.streaming {
		return h.chatSvc.Generate(ctx, plan)
	}

	sr, err := h.chatSvc.Stream(ctx, plan)
	if err != nil {
		return "", err
	}
	defer sr.Close()

	var b strings.Builder
	for {
		chunk, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", h.chatSvc.GenerationFailure(plan, err)
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}

		b.WriteString(chunk.Content)
		if err := utils.SendSSEEvent(w, flusher, EventDelta, DeltaEvent{Content: chunk.Content}); err != nil {
			return "", err
		}
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", h.chatSvc.GenerationFailure(plan, &llm.UpstreamError{Kind: llm.Unavailable, Err: ai.ErrEmptyReply})
	}
	return b.String(), nil
}

func (h *Handler) sendError(w http.ResponseWriter, flusher http.Flusher, err error) {
	status, payload := chatHandler.ErrorPayload(err)
	if sendErr := utils.SendSSEEvent(w, flusher, EventError, ErrorEvent{Status: status, ErrorReply: payload}); sendErr != nil {
		h.log.WithError(sendErr).Debug("failed to send error event")
	}
}
