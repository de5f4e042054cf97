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

type UserStageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, stages []*types.UserStage) ([]*types.UserStage, error)
	GetByID(ctx context.Context, tx *gorm.DB, stageID uuid.UUID) (*types.UserStage, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserStage, error)
	// MarkCompleted is a set-once write: it only fires while completed_at is
	// NULL and reports whether this call made the transition. Racing
	// double-writes are harmless and never unset a prior completion.
	MarkCompleted(ctx context.Context, tx *gorm.DB, stageID uuid.UUID, at time.Time) (bool, error)
	MarkUnlocked(ctx context.Context, tx *gorm.DB, stageID uuid.UUID, at time.Time) (bool, error)
	MarkStarted(ctx context.Context, tx *gorm.DB, stageID uuid.UUID, at time.Time) (bool, error)
	AddXP(ctx context.Context, tx *gorm.DB, stageID uuid.UUID, points int) error
}

type userStageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserStageRepo(db *gorm.DB, baseLog *logger.Logger) UserStageRepo {
	return &userStageRepo{db: db, log: baseLog.With("repo", "UserStageRepo")}
}

func (r *userStageRepo) Create(ctx context.Context, tx *gorm.DB, stages []*types.UserStage) ([]*types.UserStage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(stages) == 0 {
		return []*types.UserStage{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&stages).Error; err != nil {
		return nil, err
	}
	return stages, nil
}

func (r *userStageRepo) GetByID(ctx context.Context, tx *gorm.DB, stageID uuid.UUID) (*types.UserStage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.UserStage
	err := transaction.WithContext(ctx).
		Where("id = ?", stageID).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *userStageRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserStage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.UserStage
	if err := transaction.WithContext(ctx).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("user_id = ?", userID).
		Order("position ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userStageRepo) MarkCompleted(ctx context.Context, tx *gorm.DB, stageID uuid.UUID, at time.Time) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.UserStage{}).
		Where("id = ? AND completed_at IS NULL", stageID).
		Updates(map[string]any{
			"status":       "completed",
			"progress":     1.0,
			"completed_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *userStageRepo) MarkUnlocked(ctx context.Context, tx *gorm.DB, stageID uuid.UUID, at time.Time) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.UserStage{}).
		Where("id = ? AND unlocked_at IS NULL", stageID).
		Update("unlocked_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *userStageRepo) MarkStarted(ctx context.Context, tx *gorm.DB, stageID uuid.UUID, at time.Time) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.UserStage{}).
		Where("id = ? AND started_at IS NULL", stageID).
		Update("started_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AddXP accumulates awarded points, capped at xp_total so the ledger
// invariant xp_current <= xp_total holds even under racing awards.
func (r *userStageRepo) AddXP(ctx context.Context, tx *gorm.DB, stageID uuid.UUID, points int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if points <= 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.UserStage{}).
		Where("id = ?", stageID).
		Update("xp_current", gorm.Expr(
			"CASE WHEN xp_current + ? > xp_total THEN xp_total ELSE xp_current + ? END",
			points, points,
		)).Error
}
