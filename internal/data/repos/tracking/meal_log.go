package tracking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/nutripath-backend/internal/pkg/logger"
	"github.com/yungbote/nutripath-backend/internal/types"
)

type MealLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, logs []*types.MealLog) ([]*types.MealLog, error)
	CountSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from time.Time) (int64, error)
	ListSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from time.Time) ([]*types.MealLog, error)
}

type mealLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMealLogRepo(db *gorm.DB, baseLog *logger.Logger) MealLogRepo {
	return &mealLogRepo{db: db, log: baseLog.With("repo", "MealLogRepo")}
}

func (r *mealLogRepo) Create(ctx context.Context, tx *gorm.DB, logs []*types.MealLog) ([]*types.MealLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(logs) == 0 {
		return []*types.MealLog{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *mealLogRepo) CountSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.MealLog{}).
		Where("user_id = ? AND logged_at >= ?", userID, from).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *mealLogRepo) ListSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from time.Time) ([]*types.MealLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.MealLog
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND logged_at >= ?", userID, from).
		Order("logged_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
