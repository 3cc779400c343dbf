package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/tdcarpool/carpool/backend/internal/analysis/intent"
	"github.com/tdcarpool/carpool/backend/internal/handler/assistant"
	"github.com/tdcarpool/carpool/backend/internal/handler/auth"
	carpoolHandler "github.com/tdcarpool/carpool/backend/internal/handler/carpool"
	"github.com/tdcarpool/carpool/backend/internal/handler/stream"
	"github.com/tdcarpool/carpool/backend/internal/handler/widget"
	"github.com/tdcarpool/carpool/backend/internal/middleware"
	"github.com/tdcarpool/carpool/backend/internal/model/carpool"
	chatService "github.com/tdcarpool/carpool/backend/internal/service/chat"
	"github.com/tdcarpool/carpool/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(chatSvc *chatService.Service, table *intent.Table, store carpool.Store, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger.With().Str("component", "http").Logger()))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS)
	r.Use(middleware.CallerRole)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": chatSvc.Count()})
	})

	r.Route("/api", func(api chi.Router) {
		auth.New().RegisterRoutes(api)
		carpoolHandler.New(store).RegisterRoutes(api)
		assistant.New(chatSvc, table).RegisterRoutes(api)
		stream.New(chatSvc, logger.With().Str("component", "stream").Logger()).RegisterRoutes(api)
		widget.New(chatSvc, logger.With().Str("component", "websocket").Logger()).RegisterRoutes(api)
	})

	return r
}
