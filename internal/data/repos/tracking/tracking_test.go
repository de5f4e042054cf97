package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/nutripath-backend/internal/data/repos/testutil"
	"github.com/yungbote/nutripath-backend/internal/types"
)

func TestHabitCheckIdempotentPerDay(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	user := testutil.SeedUser(t, ctx, tx, "habit@test.local")
	repo := NewHabitCheckRepo(db, log)

	check := func() *types.HabitCheck {
		return &types.HabitCheck{
			ID:        uuid.New(),
			UserID:    user.ID,
			HabitKey:  "water",
			CheckDate: "2026-08-27",
			CheckedAt: time.Now().UTC(),
			Source:    "manual",
		}
	}

	if err := repo.Create(ctx, tx, []*types.HabitCheck{check()}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Same (user, habit, day) again: silently dropped.
	if err := repo.Create(ctx, tx, []*types.HabitCheck{check()}); err != nil {
		t.Fatalf("Create (duplicate): %v", err)
	}

	days, err := repo.DistinctDaysSince(ctx, tx, user.ID, "2026-08-01")
	if err != nil {
		t.Fatalf("DistinctDaysSince: %v", err)
	}
	if len(days) != 1 || days[0] != "2026-08-27" {
		t.Fatalf("days=%v, want exactly one", days)
	}
}

func TestEducationReadIdempotentPerSlug(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	user := testutil.SeedUser(t, ctx, tx, "education@test.local")
	repo := NewEducationReadRepo(db, log)

	read := func() *types.EducationRead {
		return &types.EducationRead{
			ID:     uuid.New(),
			UserID: user.ID,
			Slug:   "protein-basics",
			ReadAt: time.Now().UTC(),
		}
	}

	if err := repo.Create(ctx, tx, []*types.EducationRead{read()}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, tx, []*types.EducationRead{read()}); err != nil {
		t.Fatalf("Create (duplicate): %v", err)
	}

	count, err := repo.CountSince(ctx, tx, user.ID, time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("CountSince: %v", err)
	}
	if count != 1 {
		t.Fatalf("count=%d, want 1", count)
	}
}

func TestMealLogCountAndListSince(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	user := testutil.SeedUser(t, ctx, tx, "meals@test.local")
	now := time.Now().UTC()
	testutil.SeedMeal(t, ctx, tx, user.ID, now.Add(-48*time.Hour), 600, 40)
	testutil.SeedMeal(t, ctx, tx, user.ID, now.Add(-2*time.Hour), 500, 35)
	testutil.SeedMeal(t, ctx, tx, user.ID, now.Add(-1*time.Hour), 450, 30)

	repo := NewMealLogRepo(db, log)

	count, err := repo.CountSince(ctx, tx, user.ID, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("CountSince: %v", err)
	}
	if count != 2 {
		t.Fatalf("count=%d, want 2 within 24h", count)
	}

	meals, err := repo.ListSince(ctx, tx, user.ID, now.Add(-72*time.Hour))
	if err != nil {
		t.Fatalf("ListSince: %v", err)
	}
	if len(meals) != 3 {
		t.Fatalf("meals=%d, want 3", len(meals))
	}
	if !meals[0].LoggedAt.Before(meals[2].LoggedAt) {
		t.Fatalf("meals must come back oldest first")
	}
}

func TestUserTargetsUpsert(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	user := testutil.SeedUser(t, ctx, tx, "targets@test.local")
	repo := NewUserTargetsRepo(db, log)

	missing, err := repo.GetByUserID(ctx, tx, user.ID)
	if err != nil {
		t.Fatalf("GetByUserID (missing): %v", err)
	}
	if missing != nil {
		t.Fatalf("missing targets must be nil, got %+v", missing)
	}

	protein := 140.0
	if err := repo.Upsert(ctx, tx, &types.UserTargets{
		ID:       uuid.New(),
		UserID:   user.ID,
		ProteinG: &protein,
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	calories := 2200.0
	newProtein := 150.0
	if err := repo.Upsert(ctx, tx, &types.UserTargets{
		ID:          uuid.New(),
		UserID:      user.ID,
		ProteinG:    &newProtein,
		CalorieKcal: &calories,
	}); err != nil {
		t.Fatalf("Upsert (second): %v", err)
	}

	got, err := repo.GetByUserID(ctx, tx, user.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if got == nil || got.ProteinG == nil || *got.ProteinG != 150 {
		t.Fatalf("protein target not updated: %+v", got)
	}
	if got.CalorieKcal == nil || *got.CalorieKcal != 2200 {
		t.Fatalf("calorie target not updated: %+v", got)
	}
}
