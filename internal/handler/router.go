package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/zenora/backend/internal/handler/chat"
	"github.com/zhouzirui/zenora/backend/internal/handler/companion"
	"github.com/zhouzirui/zenora/backend/internal/handler/exercise"
	"github.com/zhouzirui/zenora/backend/internal/handler/stream"
	"github.com/zhouzirui/zenora/backend/internal/handler/voice"
	middlewarePkg "github.com/zhouzirui/zenora/backend/internal/middleware"
	chatService "github.com/zhouzirui/zenora/backend/internal/service/chat"
	exerciseService "github.com/zhouzirui/zenora/backend/internal/service/exercise"
	"github.com/zhouzirui/zenora/backend/pkg/utils"
)

// Dependencies are the services behind the HTTP surface. Voice may be nil.
type Dependencies struct {
	Chat      *chatService.Service
	Streaming bool
	Exercise  *exerciseService.Service
	Voice     voice.VoiceService
	Logger    logrus.FieldLogger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.Logger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]any{
				"status": "ok",
				"voice":  deps.Voice != nil && deps.Voice.Enabled(),
			})
		})

		companion.New(deps.Chat.Profile()).RegisterRoutes(api)
		chat.New(deps.Chat).RegisterRoutes(api)
		stream.New(deps.Chat, deps.Streaming).RegisterRoutes(api)
		exercise.New(deps.Exercise).RegisterRoutes(api)
		voice.New(deps.Voice).RegisterRoutes(api)
	})

	return r
}
