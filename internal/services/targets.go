package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	redisclient "github.com/yungbote/nutripath-backend/internal/clients/redis"
	"github.com/yungbote/nutripath-backend/internal/data/repos/tracking"
	"github.com/yungbote/nutripath-backend/internal/journey/conditions"
	"github.com/yungbote/nutripath-backend/internal/pkg/logger"
	"github.com/yungbote/nutripath-backend/internal/types"
)

// TargetsService is the Targets Source for condition evaluation plus the
// read/write surface for the targets endpoints. A missing target stays nil
// all the way through; it must never collapse to zero.
type TargetsService interface {
	conditions.TargetsSource
	Get(ctx context.Context, userID uuid.UUID) (*types.UserTargets, error)
	Update(ctx context.Context, userID uuid.UUID, proteinG, calorieKcal *float64) (*types.UserTargets, error)
}

type targetsService struct {
	db      *gorm.DB
	log     *logger.Logger
	targets tracking.UserTargetsRepo
	cache   redisclient.TargetsCache
}

// NewTargetsService accepts a nil cache; everything then reads through to
// the targets table.
func NewTargetsService(db *gorm.DB, log *logger.Logger, targets tracking.UserTargetsRepo, cache redisclient.TargetsCache) TargetsService {
	return &targetsService{
		db:      db,
		log:     log.With("service", "TargetsService"),
		targets: targets,
		cache:   cache,
	}
}

func (s *targetsService) Resolve(ctx context.Context, userID uuid.UUID) (conditions.Targets, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.log.Warn("targets cache read failed, falling through", "user_id", userID, "error", err)
		} else if cached != nil {
			return *cached, nil
		}
	}

	row, err := s.targets.GetByUserID(ctx, nil, userID)
	if err != nil {
		return conditions.Targets{}, fmt.Errorf("load targets: %w", err)
	}

	var t conditions.Targets
	if row != nil {
		t.ProteinG = row.ProteinG
		t.CalorieKcal = row.CalorieKcal
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, t); err != nil {
			s.log.Warn("targets cache write failed", "user_id", userID, "error", err)
		}
	}
	return t, nil
}

func (s *targetsService) Get(ctx context.Context, userID uuid.UUID) (*types.UserTargets, error) {
	return s.targets.GetByUserID(ctx, nil, userID)
}

func (s *targetsService) Update(ctx context.Context, userID uuid.UUID, proteinG, calorieKcal *float64) (*types.UserTargets, error) {
	row := &types.UserTargets{
		ID:          uuid.New(),
		UserID:      userID,
		ProteinG:    proteinG,
		CalorieKcal: calorieKcal,
	}
	if err := s.targets.Upsert(ctx, nil, row); err != nil {
		return nil, fmt.Errorf("upsert targets: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, userID); err != nil {
			s.log.Warn("targets cache invalidate failed", "user_id", userID, "error", err)
		}
	}
	return s.targets.GetByUserID(ctx, nil, userID)
}
