package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/nutripath-backend/internal/types"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
		Persona:   "balanced",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedStage(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, code string, position int) *types.UserStage {
	tb.Helper()
	now := time.Now().UTC()
	s := &types.UserStage{
		ID:               uuid.New(),
		UserID:           userID,
		StageCode:        code,
		Title:            code,
		StageType:        "habit",
		Status:           "locked",
		Position:         position,
		RequirementsJSON: datatypes.JSON([]byte(`{"logic":"AND","rules":[]}`)),
		XPTotal:          100,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed stage: %v", err)
	}
	return s
}

func SeedTask(tb testing.TB, ctx context.Context, tx *gorm.DB, stage *types.UserStage, key string, points int) *types.UserStageTask {
	tb.Helper()
	now := time.Now().UTC()
	t := &types.UserStageTask{
		ID:            uuid.New(),
		StageID:       stage.ID,
		UserID:        stage.UserID,
		KeyCode:       key,
		Title:         key,
		TaskType:      "metric",
		Points:        points,
		Position:      0,
		ConditionJSON: datatypes.JSON([]byte(`{"kind":"meals_logged","target":1}`)),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed task: %v", err)
	}
	return t
}

func SeedMeal(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, loggedAt time.Time, calories, protein float64) *types.MealLog {
	tb.Helper()
	m := &types.MealLog{
		ID:       uuid.New(),
		UserID:   userID,
		Name:     "meal",
		Calories: calories,
		ProteinG: protein,
		LoggedAt: loggedAt,
		Source:   "manual",
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed meal: %v", err)
	}
	return m
}

func SeedWeighIn(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, measuredAt time.Time) *types.WeighIn {
	tb.Helper()
	w := &types.WeighIn{
		ID:         uuid.New(),
		UserID:     userID,
		WeightKg:   80,
		MeasuredAt: measuredAt,
		Source:     "manual",
	}
	if err := tx.WithContext(ctx).Create(w).Error; err != nil {
		tb.Fatalf("seed weigh-in: %v", err)
	}
	return w
}

func SeedHabitCheck(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, habitKey, checkDate string) *types.HabitCheck {
	tb.Helper()
	h := &types.HabitCheck{
		ID:        uuid.New(),
		UserID:    userID,
		HabitKey:  habitKey,
		CheckDate: checkDate,
		CheckedAt: time.Now().UTC(),
		Source:    "manual",
	}
	if err := tx.WithContext(ctx).Create(h).Error; err != nil {
		tb.Fatalf("seed habit check: %v", err)
	}
	return h
}
