package app

import (
	"gorm.io/gorm"

	redisclient "github.com/yungbote/nutripath-backend/internal/clients/redis"
	"github.com/yungbote/nutripath-backend/internal/journey/catalog"
	"github.com/yungbote/nutripath-backend/internal/pkg/logger"
	"github.com/yungbote/nutripath-backend/internal/services"
)

type Services struct {
	Auth     services.AuthService
	User     services.UserService
	Targets  services.TargetsService
	Metrics  services.MetricsService
	Tracking services.TrackingService
	Journey  services.JourneyService

	TargetsCache redisclient.TargetsCache
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, cat *catalog.Catalog) (Services, error) {
	log.Info("Wiring services...")

	var cache redisclient.TargetsCache
	if cfg.RedisEnabled {
		c, err := redisclient.NewTargetsCache(log)
		if err != nil {
			log.Warn("Redis targets cache unavailable, continuing without it", "error", err)
		} else {
			cache = c
		}
	}

	targets := services.NewTargetsService(db, log, r.UserTargets, cache)
	metrics := services.NewMetricsService(db, log, r.MealLog, r.WeighIn, r.HabitCheck, r.EducationRead, targets)
	tracking := services.NewTrackingService(db, log, r.MealLog, r.WeighIn, r.HabitCheck, r.EducationRead)
	journey := services.NewJourneyService(db, log, r.UserStage, r.UserStageTask, cat, metrics, targets)
	user := services.NewUserService(db, log, r.User, cat)
	auth := services.NewAuthService(db, log, r.User, r.UserToken, journey, cat, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	return Services{
		Auth:         auth,
		User:         user,
		Targets:      targets,
		Metrics:      metrics,
		Tracking:     tracking,
		Journey:      journey,
		TargetsCache: cache,
	}, nil
}
