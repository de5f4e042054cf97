package journey

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/nutripath-backend/internal/pkg/logger"
	"github.com/yungbote/nutripath-backend/internal/types"
)

type UserStageTaskRepo interface {
	Create(ctx context.Context, tx *gorm.DB, tasks []*types.UserStageTask) ([]*types.UserStageTask, error)
	GetByUserAndKey(ctx context.Context, tx *gorm.DB, userID uuid.UUID, keyCode string) (*types.UserStageTask, error)
	// MarkCompleted flips is_completed exactly once; the bool reports whether
	// this call made the transition, so points are awarded exactly once.
	MarkCompleted(ctx context.Context, tx *gorm.DB, taskID uuid.UUID, at time.Time) (bool, error)
}

type userStageTaskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserStageTaskRepo(db *gorm.DB, baseLog *logger.Logger) UserStageTaskRepo {
	return &userStageTaskRepo{db: db, log: baseLog.With("repo", "UserStageTaskRepo")}
}

func (r *userStageTaskRepo) Create(ctx context.Context, tx *gorm.DB, tasks []*types.UserStageTask) ([]*types.UserStageTask, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(tasks) == 0 {
		return []*types.UserStageTask{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *userStageTaskRepo) GetByUserAndKey(ctx context.Context, tx *gorm.DB, userID uuid.UUID, keyCode string) (*types.UserStageTask, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var task types.UserStageTask
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND key_code = ?", userID, keyCode).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (r *userStageTaskRepo) MarkCompleted(ctx context.Context, tx *gorm.DB, taskID uuid.UUID, at time.Time) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.UserStageTask{}).
		Where("id = ? AND is_completed = ?", taskID, false).
		Updates(map[string]any{
			"is_completed": true,
			"completed_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
