package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/nutripath-backend/internal/observability"
	"github.com/yungbote/nutripath-backend/internal/pkg/logger"
	"github.com/yungbote/nutripath-backend/internal/server"
)

func wireRouter(log *logger.Logger, cfg Config, h Handlers, m Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		Log:             log,
		AuthHandler:     h.Auth,
		AuthMiddleware:  m.Auth,
		UserHandler:     h.User,
		TargetsHandler:  h.Targets,
		TrackingHandler: h.Tracking,
		JourneyHandler:  h.Journey,
		AllowOrigins:    cfg.AllowOrigins,
		TracingEnabled:  observability.Enabled(),
	})
}
