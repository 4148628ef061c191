// Package companion exposes the companion profile to the client.
package companion

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/zenora/backend/internal/model/companion"
	"github.com/zhouzirui/zenora/backend/pkg/utils"
)

// Handler serves GET /api/companion.
type Handler struct {
	profile companion.Profile
}

// New creates a companion handler.
func New(profile companion.Profile) *Handler {
	return &Handler{profile: profile}
}

// RegisterRoutes mounts the companion route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/companion", h.handleGet)
}

func (h *Handler) handleGet(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.profile)
}
