// Package voice serves text-to-speech.
package voice

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	voicesvc "github.com/zhouzirui/zenora/backend/internal/service/voice"
	"github.com/zhouzirui/zenora/backend/pkg/utils"
)

// VoiceService abstracts speech synthesis so the handler can be tested
// without a provider.
type VoiceService interface {
	Enabled() bool
	Synthesize(ctx context.Context, req voicesvc.Request) (*voicesvc.Audio, error)
}

// Request is the body of POST /api/text-to-speech.
type Request struct {
	Text         string  `json:"text"`
	Voice        string  `json:"voice,omitempty"`
	Language     string  `json:"language,omitempty"`
	SpeakingRate float64 `json:"speakingRate,omitempty"`
}

// Response carries base64 encoded audio.
type Response struct {
	AudioContent string `json:"audioContent"`
	Format       string `json:"format,omitempty"`
}

// Handler is the HTTP handler of the voice endpoint.
type Handler struct {
	voiceSvc VoiceService
	log      *logrus.Entry
}

// New creates a voice handler. voiceSvc may be nil.
func New(voiceSvc VoiceService) *Handler {
	return &Handler{
		voiceSvc: voiceSvc,
		log:      logrus.WithField("component", "handler.voice"),
	}
}

// RegisterRoutes mounts the voice route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/text-to-speech", h.handleSynthesize)
}

func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "Text is required")
		return
	}
	if h.voiceSvc == nil || !h.voiceSvc.Enabled() {
		utils.RespondError(w, http.StatusServiceUnavailable, "text-to-speech is not configured")
		return
	}

	audio, err := h.voiceSvc.Synthesize(r.Context(), voicesvc.Request{
		Text:         req.Text,
		Voice:        req.Voice,
		Language:     req.Language,
		SpeakingRate: req.SpeakingRate,
	})
	switch {
	case errors.Is(err, voicesvc.ErrTextRequired):
		utils.RespondError(w, http.StatusBadRequest, "Text is required")
		return
	case errors.Is(err, voicesvc.ErrTextTooLong):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, voicesvc.ErrUnavailable):
		utils.RespondError(w, http.StatusServiceUnavailable, "text-to-speech is not configured")
		return
	case err != nil:
		h.log.WithError(err).Error("speech synthesis failed")
		utils.RespondError(w, http.StatusInternalServerError, "speech synthesis failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, Response{
		AudioContent: base64.StdEncoding.EncodeToString(audio.Content),
		Format:       audio.Format,
	})
}
