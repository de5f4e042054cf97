package app

import (
	"github.com/yungbote/nutripath-backend/internal/handlers"
	"github.com/yungbote/nutripath-backend/internal/pkg/logger"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	User     *handlers.UserHandler
	Targets  *handlers.TargetsHandler
	Tracking *handlers.TrackingHandler
	Journey  *handlers.JourneyHandler
}

func wireHandlers(log *logger.Logger, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:     handlers.NewAuthHandler(s.Auth),
		User:     handlers.NewUserHandler(s.User),
		Targets:  handlers.NewTargetsHandler(s.Targets),
		Tracking: handlers.NewTrackingHandler(s.Tracking),
		Journey:  handlers.NewJourneyHandler(s.Journey),
	}
}
