package tracking

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/nutripath-backend/internal/pkg/logger"
	"github.com/yungbote/nutripath-backend/internal/types"
)

type HabitCheckRepo interface {
	// Create is idempotent per (user, habit, day): conflicting check-ins for
	// the same day are dropped silently.
	Create(ctx context.Context, tx *gorm.DB, checks []*types.HabitCheck) error
	DistinctDaysSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, fromDate string) ([]string, error)
}

type habitCheckRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHabitCheckRepo(db *gorm.DB, baseLog *logger.Logger) HabitCheckRepo {
	return &habitCheckRepo{db: db, log: baseLog.With("repo", "HabitCheckRepo")}
}

func (r *habitCheckRepo) Create(ctx context.Context, tx *gorm.DB, checks []*types.HabitCheck) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(checks) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&checks).Error
}

func (r *habitCheckRepo) DistinctDaysSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, fromDate string) ([]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var days []string
	if err := transaction.WithContext(ctx).
		Model(&types.HabitCheck{}).
		Distinct("check_date").
		Where("user_id = ? AND check_date >= ?", userID, fromDate).
		Order("check_date ASC").
		Pluck("check_date", &days).Error; err != nil {
		return nil, err
	}
	return days, nil
}
