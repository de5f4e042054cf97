package tracking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/nutripath-backend/internal/pkg/logger"
	"github.com/yungbote/nutripath-backend/internal/types"
)

type WeighInRepo interface {
	Create(ctx context.Context, tx *gorm.DB, weighIns []*types.WeighIn) ([]*types.WeighIn, error)
	CountSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from time.Time) (int64, error)
}

type weighInRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWeighInRepo(db *gorm.DB, baseLog *logger.Logger) WeighInRepo {
	return &weighInRepo{db: db, log: baseLog.With("repo", "WeighInRepo")}
}

func (r *weighInRepo) Create(ctx context.Context, tx *gorm.DB, weighIns []*types.WeighIn) ([]*types.WeighIn, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(weighIns) == 0 {
		return []*types.WeighIn{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&weighIns).Error; err != nil {
		return nil, err
	}
	return weighIns, nil
}

func (r *weighInRepo) CountSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.WeighIn{}).
		Where("user_id = ? AND measured_at >= ?", userID, from).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
