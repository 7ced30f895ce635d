package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/BuysCode/giovannibot/backend/internal/handler/chat"
	"github.com/BuysCode/giovannibot/backend/internal/handler/region"
	"github.com/BuysCode/giovannibot/backend/internal/handler/stream"
	"github.com/BuysCode/giovannibot/backend/internal/handler/ws"
	middlewarePkg "github.com/BuysCode/giovannibot/backend/internal/middleware"
	regionModel "github.com/BuysCode/giovannibot/backend/internal/model/region"
	chatService "github.com/BuysCode/giovannibot/backend/internal/service/chat"
	"github.com/BuysCode/giovannibot/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(regions regionModel.Store, chatSvc *chatService.Service, defaultRegion string, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_ = utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": chatSvc.Count(),
		})
	})

	regionHandler := region.New(regions, defaultRegion, logger.Named("region"))
	chatHandler := chat.New(chatSvc, logger.Named("chat"))
	streamHandler := stream.New(chatSvc, logger.Named("stream"))
	wsHandler := ws.New(chatSvc, logger.Named("ws"))

	r.Route("/api", func(api chi.Router) {
		regionHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	return r
}
