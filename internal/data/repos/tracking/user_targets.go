package tracking

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/nutripath-backend/internal/pkg/logger"
	"github.com/yungbote/nutripath-backend/internal/types"
)

type UserTargetsRepo interface {
	// GetByUserID returns nil (not an error) when the user has no targets
	// row; callers must treat that as "missing", never as zero targets.
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserTargets, error)
	Upsert(ctx context.Context, tx *gorm.DB, targets *types.UserTargets) error
}

type userTargetsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserTargetsRepo(db *gorm.DB, baseLog *logger.Logger) UserTargetsRepo {
	return &userTargetsRepo{db: db, log: baseLog.With("repo", "UserTargetsRepo")}
}

func (r *userTargetsRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserTargets, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var targets types.UserTargets
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&targets).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &targets, nil
}

func (r *userTargetsRepo) Upsert(ctx context.Context, tx *gorm.DB, targets *types.UserTargets) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"protein_g", "calorie_kcal", "updated_at"}),
		}).
		Create(targets).Error
}
