package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/nutripath-backend/internal/data/repos/tracking"
	"github.com/yungbote/nutripath-backend/internal/pkg/logger"
	"github.com/yungbote/nutripath-backend/internal/types"
)

type LogMealInput struct {
	Name     string     `json:"name" binding:"required"`
	Calories float64    `json:"calories" binding:"required,gt=0"`
	ProteinG float64    `json:"protein_g" binding:"gte=0"`
	LoggedAt *time.Time `json:"logged_at"`
}

type AddWeighInInput struct {
	WeightKg   float64    `json:"weight_kg" binding:"required,gt=0"`
	MeasuredAt *time.Time `json:"measured_at"`
}

type CheckHabitInput struct {
	HabitKey string `json:"habit_key" binding:"required"`
	Note     string `json:"note"`
}

type MarkEducationReadInput struct {
	Slug string `json:"slug" binding:"required"`
}

// TrackingService is the write surface for the behavioral event tables the
// journey evaluator reads from. Timestamps default to now in UTC when the
// client omits them.
type TrackingService interface {
	LogMeal(ctx context.Context, userID uuid.UUID, input LogMealInput) (*types.MealLog, error)
	AddWeighIn(ctx context.Context, userID uuid.UUID, input AddWeighInInput) (*types.WeighIn, error)
	CheckHabit(ctx context.Context, userID uuid.UUID, input CheckHabitInput) (*types.HabitCheck, error)
	MarkEducationRead(ctx context.Context, userID uuid.UUID, input MarkEducationReadInput) (*types.EducationRead, error)
}

type trackingService struct {
	db             *gorm.DB
	log            *logger.Logger
	mealLogs       tracking.MealLogRepo
	weighIns       tracking.WeighInRepo
	habitChecks    tracking.HabitCheckRepo
	educationReads tracking.EducationReadRepo
	now            func() time.Time
}

func NewTrackingService(
	db *gorm.DB,
	log *logger.Logger,
	mealLogs tracking.MealLogRepo,
	weighIns tracking.WeighInRepo,
	habitChecks tracking.HabitCheckRepo,
	educationReads tracking.EducationReadRepo,
) TrackingService {
	return &trackingService{
		db:             db,
		log:            log.With("service", "TrackingService"),
		mealLogs:       mealLogs,
		weighIns:       weighIns,
		habitChecks:    habitChecks,
		educationReads: educationReads,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *trackingService) LogMeal(ctx context.Context, userID uuid.UUID, input LogMealInput) (*types.MealLog, error) {
	loggedAt := s.now()
	if input.LoggedAt != nil {
		loggedAt = input.LoggedAt.UTC()
	}
	row := &types.MealLog{
		ID:       uuid.New(),
		UserID:   userID,
		Name:     strings.TrimSpace(input.Name),
		Calories: input.Calories,
		ProteinG: input.ProteinG,
		LoggedAt: loggedAt,
		Source:   "manual",
	}
	created, err := s.mealLogs.Create(ctx, nil, []*types.MealLog{row})
	if err != nil {
		return nil, fmt.Errorf("log meal: %w", err)
	}
	return created[0], nil
}

func (s *trackingService) AddWeighIn(ctx context.Context, userID uuid.UUID, input AddWeighInInput) (*types.WeighIn, error) {
	measuredAt := s.now()
	if input.MeasuredAt != nil {
		measuredAt = input.MeasuredAt.UTC()
	}
	row := &types.WeighIn{
		ID:         uuid.New(),
		UserID:     userID,
		WeightKg:   input.WeightKg,
		MeasuredAt: measuredAt,
		Source:     "manual",
	}
	created, err := s.weighIns.Create(ctx, nil, []*types.WeighIn{row})
	if err != nil {
		return nil, fmt.Errorf("add weigh-in: %w", err)
	}
	return created[0], nil
}

// CheckHabit records today's check-in for a habit. Checking the same habit
// twice in one UTC day is a no-op.
func (s *trackingService) CheckHabit(ctx context.Context, userID uuid.UUID, input CheckHabitInput) (*types.HabitCheck, error) {
	now := s.now()
	row := &types.HabitCheck{
		ID:        uuid.New(),
		UserID:    userID,
		HabitKey:  strings.TrimSpace(input.HabitKey),
		CheckDate: now.Format(dayFormat),
		CheckedAt: now,
		Source:    "manual",
		Note:      input.Note,
	}
	if err := s.habitChecks.Create(ctx, nil, []*types.HabitCheck{row}); err != nil {
		return nil, fmt.Errorf("check habit: %w", err)
	}
	return row, nil
}

func (s *trackingService) MarkEducationRead(ctx context.Context, userID uuid.UUID, input MarkEducationReadInput) (*types.EducationRead, error) {
	row := &types.EducationRead{
		ID:     uuid.New(),
		UserID: userID,
		Slug:   strings.TrimSpace(input.Slug),
		ReadAt: s.now(),
	}
	if err := s.educationReads.Create(ctx, nil, []*types.EducationRead{row}); err != nil {
		return nil, fmt.Errorf("mark education read: %w", err)
	}
	return row, nil
}
