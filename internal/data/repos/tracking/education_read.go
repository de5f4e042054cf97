package tracking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/nutripath-backend/internal/pkg/logger"
	"github.com/yungbote/nutripath-backend/internal/types"
)

type EducationReadRepo interface {
	// Create is idempotent per (user, slug): re-reading an article never
	// double-counts.
	Create(ctx context.Context, tx *gorm.DB, reads []*types.EducationRead) error
	CountSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from time.Time) (int64, error)
}

type educationReadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEducationReadRepo(db *gorm.DB, baseLog *logger.Logger) EducationReadRepo {
	return &educationReadRepo{db: db, log: baseLog.With("repo", "EducationReadRepo")}
}

func (r *educationReadRepo) Create(ctx context.Context, tx *gorm.DB, reads []*types.EducationRead) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(reads) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&reads).Error
}

func (r *educationReadRepo) CountSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.EducationRead{}).
		Where("user_id = ? AND read_at >= ?", userID, from).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
