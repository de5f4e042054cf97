package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/nutripath-backend/internal/data/repos/testutil"
	"github.com/yungbote/nutripath-backend/internal/data/repos/tracking"
	"github.com/yungbote/nutripath-backend/internal/journey/conditions"
	"github.com/yungbote/nutripath-backend/internal/types"
)

func newMetricsFixture(t *testing.T, now time.Time) *metricsService {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	targets := NewTargetsService(db, log, tracking.NewUserTargetsRepo(db, log), nil)
	svc := NewMetricsService(
		db, log,
		tracking.NewMealLogRepo(db, log),
		tracking.NewWeighInRepo(db, log),
		tracking.NewHabitCheckRepo(db, log),
		tracking.NewEducationReadRepo(db, log),
		targets,
	).(*metricsService)
	svc.now = func() time.Time { return now }
	return svc
}

func TestProteinAvgBucketsByDay(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	svc := newMetricsFixture(t, now)
	user := testutil.SeedUser(t, ctx, db, "metrics-protein@test.local")

	// Two meals yesterday (120g), one today (90g): average over logged
	// days is 105.
	yesterday := now.AddDate(0, 0, -1)
	testutil.SeedMeal(t, ctx, db, user.ID, yesterday, 500, 70)
	testutil.SeedMeal(t, ctx, db, user.ID, yesterday.Add(time.Hour), 400, 50)
	testutil.SeedMeal(t, ctx, db, user.ID, now.Add(-time.Hour), 450, 90)

	got, err := svc.MetricSince(ctx, user.ID, conditions.MetricProteinAvgG, now.AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("MetricSince: %v", err)
	}
	if math.Abs(got-105) > 1e-9 {
		t.Fatalf("protein avg=%v, want 105", got)
	}

	// No meals in window: zero, not an error.
	empty, err := svc.MetricSince(ctx, user.ID, conditions.MetricProteinAvgG, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("MetricSince (empty): %v", err)
	}
	if empty != 0 {
		t.Fatalf("empty window avg=%v, want 0", empty)
	}
}

func TestLogStreakCountsBackFromToday(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	now := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	svc := newMetricsFixture(t, now)
	user := testutil.SeedUser(t, ctx, db, "metrics-streak@test.local")

	// Meals today, yesterday, and two days ago; gap on day -3.
	for _, offset := range []int{0, -1, -2, -4} {
		testutil.SeedMeal(t, ctx, db, user.ID, now.AddDate(0, 0, offset), 500, 30)
	}

	got, err := svc.MetricSince(ctx, user.ID, conditions.MetricLogStreakDays, now.AddDate(0, 0, -14))
	if err != nil {
		t.Fatalf("MetricSince: %v", err)
	}
	if got != 3 {
		t.Fatalf("log streak=%v, want 3 (gap breaks it)", got)
	}
}

func TestLogStreakToleratesMissingToday(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	now := time.Date(2026, 8, 27, 8, 0, 0, 0, time.UTC)
	svc := newMetricsFixture(t, now)
	user := testutil.SeedUser(t, ctx, db, "metrics-streak-today@test.local")

	// Nothing logged yet today; streak still counts from yesterday.
	testutil.SeedMeal(t, ctx, db, user.ID, now.AddDate(0, 0, -1), 500, 30)
	testutil.SeedMeal(t, ctx, db, user.ID, now.AddDate(0, 0, -2), 500, 30)

	got, err := svc.MetricSince(ctx, user.ID, conditions.MetricLogStreakDays, now.AddDate(0, 0, -14))
	if err != nil {
		t.Fatalf("MetricSince: %v", err)
	}
	if got != 2 {
		t.Fatalf("log streak=%v, want 2", got)
	}
}

func TestHabitStreak(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	now := time.Date(2026, 8, 27, 20, 0, 0, 0, time.UTC)
	svc := newMetricsFixture(t, now)
	user := testutil.SeedUser(t, ctx, db, "metrics-habit@test.local")

	testutil.SeedHabitCheck(t, ctx, db, user.ID, "water", "2026-08-27")
	testutil.SeedHabitCheck(t, ctx, db, user.ID, "water", "2026-08-26")

	got, err := svc.MetricSince(ctx, user.ID, conditions.MetricHabitStreakDays, now.AddDate(0, 0, -14))
	if err != nil {
		t.Fatalf("MetricSince: %v", err)
	}
	if got != 2 {
		t.Fatalf("habit streak=%v, want 2", got)
	}
}

func TestDailyCalorieBalance(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	now := time.Date(2026, 8, 27, 18, 0, 0, 0, time.UTC)
	svc := newMetricsFixture(t, now)
	user := testutil.SeedUser(t, ctx, db, "metrics-balance@test.local")

	calories := 2000.0
	if err := tracking.NewUserTargetsRepo(db, testutil.Logger(t)).Upsert(ctx, nil, &types.UserTargets{
		ID:          uuid.New(),
		UserID:      user.ID,
		CalorieKcal: &calories,
	}); err != nil {
		t.Fatalf("upsert targets: %v", err)
	}

	// Yesterday under target, today over.
	testutil.SeedMeal(t, ctx, db, user.ID, now.AddDate(0, 0, -1), 1700, 100)
	testutil.SeedMeal(t, ctx, db, user.ID, now.Add(-time.Hour), 2300, 120)

	days, err := svc.DailyCalorieBalance(ctx, user.ID, 3)
	if err != nil {
		t.Fatalf("DailyCalorieBalance: %v", err)
	}
	if len(days) != 3 {
		t.Fatalf("days=%d, want 3", len(days))
	}
	if days[0].Logged {
		t.Fatalf("day -2 must be unlogged: %+v", days[0])
	}
	if !days[1].Logged || days[1].DeltaKcal != -300 {
		t.Fatalf("day -1: %+v, want logged delta -300", days[1])
	}
	if !days[2].Logged || days[2].DeltaKcal != 300 {
		t.Fatalf("today: %+v, want logged delta +300", days[2])
	}
}

func TestCalorieAdherencePct(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	now := time.Date(2026, 8, 27, 18, 0, 0, 0, time.UTC)
	svc := newMetricsFixture(t, now)
	user := testutil.SeedUser(t, ctx, db, "metrics-adherence@test.local")

	// Default 2000 kcal target with the 5% band: 2100 passes, 2300 fails.
	testutil.SeedMeal(t, ctx, db, user.ID, now.AddDate(0, 0, -1), 2100, 100)
	testutil.SeedMeal(t, ctx, db, user.ID, now.Add(-time.Hour), 2300, 120)

	// Window of 4 elapsed days, 1 adherent day: 25%.
	got, err := svc.MetricSince(ctx, user.ID, conditions.MetricCalorieAdherencePct, now.AddDate(0, 0, -3))
	if err != nil {
		t.Fatalf("MetricSince: %v", err)
	}
	if math.Abs(got-25) > 1e-9 {
		t.Fatalf("adherence=%v%%, want 25", got)
	}
}
