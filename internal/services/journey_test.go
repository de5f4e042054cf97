package services

import (
	"context"
	"testing"
	"time"

	journeyrepos "github.com/yungbote/nutripath-backend/internal/data/repos/journey"
	"github.com/yungbote/nutripath-backend/internal/data/repos/testutil"
	"github.com/yungbote/nutripath-backend/internal/data/repos/tracking"
	"github.com/yungbote/nutripath-backend/internal/journey/catalog"
	"github.com/yungbote/nutripath-backend/internal/journey/progression"
)

const journeyTestCatalog = `
version: 1
default_persona: balanced
personas:
  balanced: [warmup, buildup, wrapup]
stages:
  - code: warmup
    title: Warm Up
    type: habit
    requirements:
      logic: AND
      rules:
        - metric: meals_logged
          gte: 2
    tasks:
      - key: warmup_meals
        type: metric
        title: Log two meals
        xp: 10
        check:
          kind: meals_logged
          target: 2
      - key: warmup_read
        type: manual
        title: Read the intro
        xp: 5
        check:
          kind: manual
  - code: buildup
    title: Build Up
    type: habit
    requirements:
      logic: AND
      rules:
        - metric: weigh_ins
          gte: 1
    tasks:
      - key: buildup_weigh
        type: metric
        title: Weigh in
        xp: 20
        check:
          kind: weigh_ins
          target: 1
  - code: wrapup
    title: Wrap Up
    type: habit
    requirements:
      logic: AND
      rules:
        - metric: education_reads
          gte: 1
    tasks:
      - key: wrapup_read
        type: manual
        title: Read the wrap-up
        xp: 15
        check:
          kind: manual
`

func newJourneyFixture(t *testing.T) *journeyService {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	cat, err := catalog.Parse([]byte(journeyTestCatalog))
	if err != nil {
		t.Fatalf("parse catalog: %v", err)
	}

	targets := NewTargetsService(db, log, tracking.NewUserTargetsRepo(db, log), nil)
	metrics := NewMetricsService(
		db, log,
		tracking.NewMealLogRepo(db, log),
		tracking.NewWeighInRepo(db, log),
		tracking.NewHabitCheckRepo(db, log),
		tracking.NewEducationReadRepo(db, log),
		targets,
	)
	svc := NewJourneyService(
		db, log,
		journeyrepos.NewUserStageRepo(db, log),
		journeyrepos.NewUserStageTaskRepo(db, log),
		cat, metrics, targets,
	).(*journeyService)
	return svc
}

func TestJourneySeedAndInitialState(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	svc := newJourneyFixture(t)
	user := testutil.SeedUser(t, ctx, db, "journey-seed@test.local")

	if err := svc.SeedStages(ctx, nil, user.ID, "balanced"); err != nil {
		t.Fatalf("SeedStages: %v", err)
	}

	journey, err := svc.GetJourney(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetJourney: %v", err)
	}
	if len(journey.Stages) != 3 {
		t.Fatalf("stages=%d, want 3", len(journey.Stages))
	}

	first := journey.Stages[0]
	if first.Status != string(progression.StatusAvailable) {
		t.Fatalf("first stage status=%q, want available", first.Status)
	}
	if first.UnlockedAt == nil {
		t.Fatalf("first stage must seed unlocked")
	}
	if journey.Stages[1].Status != string(progression.StatusLocked) {
		t.Fatalf("second stage status=%q, want locked", journey.Stages[1].Status)
	}
	if journey.Stages[1].UnlockedAt != nil {
		t.Fatalf("second stage must not be unlocked yet")
	}
	if journey.ActiveStageIndex == nil || *journey.ActiveStageIndex != 0 {
		t.Fatalf("active index=%v, want 0", journey.ActiveStageIndex)
	}
	if journey.UnlockedUpToIndex != -1 {
		t.Fatalf("unlocked up to=%d, want -1", journey.UnlockedUpToIndex)
	}

	// Tasks on the locked second stage report locked_by_stage.
	if !journey.Stages[1].Tasks[0].LockedByStage {
		t.Fatalf("locked stage tasks must report locked_by_stage")
	}
	if journey.Stages[0].Tasks[0].LockedByStage {
		t.Fatalf("unlocked stage tasks must not report locked_by_stage")
	}
}

func TestJourneyAutoCompleteAndUnlockPropagation(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	svc := newJourneyFixture(t)
	user := testutil.SeedUser(t, ctx, db, "journey-progress@test.local")

	if err := svc.SeedStages(ctx, nil, user.ID, "balanced"); err != nil {
		t.Fatalf("SeedStages: %v", err)
	}

	now := time.Now().UTC()
	testutil.SeedMeal(t, ctx, db, user.ID, now, 500, 30)
	testutil.SeedMeal(t, ctx, db, user.ID, now.Add(time.Minute), 600, 40)

	journey, err := svc.GetJourney(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetJourney: %v", err)
	}

	first := journey.Stages[0]
	if first.Status != string(progression.StatusCompleted) {
		t.Fatalf("first stage status=%q, want completed (requirements met)", first.Status)
	}
	if first.CompletedAt == nil {
		t.Fatalf("completion must persist")
	}
	if first.Progress != 1.0 {
		t.Fatalf("completed stage progress=%v, want 1.0", first.Progress)
	}

	// The metric task auto-completed and awarded its points exactly once.
	var metricTask *TaskView
	for i := range first.Tasks {
		if first.Tasks[i].KeyCode == "warmup_meals" {
			metricTask = &first.Tasks[i]
		}
	}
	if metricTask == nil || !metricTask.IsCompleted {
		t.Fatalf("metric task must auto-complete: %+v", metricTask)
	}
	if first.XPCurrent != 10 {
		t.Fatalf("xp_current=%d, want 10 (manual task not completed)", first.XPCurrent)
	}

	second := journey.Stages[1]
	if second.UnlockedAt == nil {
		t.Fatalf("completing stage one must unlock stage two")
	}
	if second.Status != string(progression.StatusAvailable) {
		t.Fatalf("second stage status=%q, want available", second.Status)
	}
	if journey.ActiveStageIndex == nil || *journey.ActiveStageIndex != 1 {
		t.Fatalf("active index=%v, want 1", journey.ActiveStageIndex)
	}
	if journey.UnlockedUpToIndex != 0 {
		t.Fatalf("unlocked up to=%d, want 0", journey.UnlockedUpToIndex)
	}

	// Completion is sticky on the next read even though metrics could drift.
	again, err := svc.GetJourney(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetJourney (again): %v", err)
	}
	if again.Stages[0].Status != string(progression.StatusCompleted) {
		t.Fatalf("completion must be sticky")
	}
	if again.Stages[0].XPCurrent != 10 {
		t.Fatalf("xp must not double-award: %d", again.Stages[0].XPCurrent)
	}
}

func TestJourneyManualTaskCompletion(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	svc := newJourneyFixture(t)
	user := testutil.SeedUser(t, ctx, db, "journey-manual@test.local")

	if err := svc.SeedStages(ctx, nil, user.ID, "balanced"); err != nil {
		t.Fatalf("SeedStages: %v", err)
	}

	// Metric tasks reject the manual endpoint.
	if _, err := svc.CompleteTask(ctx, user.ID, "warmup_meals"); err == nil {
		t.Fatalf("metric task must reject manual completion")
	}
	if _, err := svc.CompleteTask(ctx, user.ID, "no_such_task"); err == nil {
		t.Fatalf("unknown task must error")
	}

	journey, err := svc.CompleteTask(ctx, user.ID, "warmup_read")
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	var manual *TaskView
	for i := range journey.Stages[0].Tasks {
		if journey.Stages[0].Tasks[i].KeyCode == "warmup_read" {
			manual = &journey.Stages[0].Tasks[i]
		}
	}
	if manual == nil || !manual.IsCompleted {
		t.Fatalf("manual task must complete: %+v", manual)
	}
	if journey.Stages[0].XPCurrent != 5 {
		t.Fatalf("xp_current=%d, want 5", journey.Stages[0].XPCurrent)
	}

	// Completing again is a no-op, not an error.
	again, err := svc.CompleteTask(ctx, user.ID, "warmup_read")
	if err != nil {
		t.Fatalf("CompleteTask (again): %v", err)
	}
	if again.Stages[0].XPCurrent != 5 {
		t.Fatalf("repeat completion must not re-award points: %d", again.Stages[0].XPCurrent)
	}
}

func TestJourneyLockedStageNeverCreditsPreUnlock(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	svc := newJourneyFixture(t)
	user := testutil.SeedUser(t, ctx, db, "journey-locked@test.local")

	if err := svc.SeedStages(ctx, nil, user.ID, "balanced"); err != nil {
		t.Fatalf("SeedStages: %v", err)
	}

	// Stage two's condition is satisfiable right now, but stage one is
	// untouched.
	now := time.Now().UTC()
	testutil.SeedWeighIn(t, ctx, db, user.ID, now)

	journey, err := svc.GetJourney(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetJourney: %v", err)
	}

	second := journey.Stages[1]
	if second.Status != string(progression.StatusLocked) {
		t.Fatalf("second stage status=%q, want locked while stage one is open", second.Status)
	}
	if second.CompletedAt != nil || second.UnlockedAt != nil {
		t.Fatalf("locked stage must not persist anything: %+v", second)
	}
	if second.Tasks[0].IsCompleted {
		t.Fatalf("locked stage task must not complete")
	}
	if second.XPCurrent != 0 {
		t.Fatalf("locked stage xp=%d, want 0", second.XPCurrent)
	}
	if journey.UnlockedUpToIndex != -1 {
		t.Fatalf("unlocked up to=%d, want -1", journey.UnlockedUpToIndex)
	}
	if journey.ActiveStageIndex == nil || *journey.ActiveStageIndex != 0 {
		t.Fatalf("active index=%v, want 0", journey.ActiveStageIndex)
	}

	// Manual tasks on locked stages reject the completion endpoint too.
	if _, err := svc.CompleteTask(ctx, user.ID, "wrapup_read"); err == nil {
		t.Fatalf("manual completion on a locked stage must be rejected")
	}

	// Completing stage one unlocks stage two, but the pre-unlock weigh-in
	// is not retroactively credited: its window starts at unlock.
	testutil.SeedMeal(t, ctx, db, user.ID, now, 500, 30)
	testutil.SeedMeal(t, ctx, db, user.ID, now.Add(time.Minute), 600, 40)

	after, err := svc.GetJourney(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetJourney (after unlock): %v", err)
	}
	if after.Stages[0].Status != string(progression.StatusCompleted) {
		t.Fatalf("first stage status=%q, want completed", after.Stages[0].Status)
	}
	second = after.Stages[1]
	if second.UnlockedAt == nil {
		t.Fatalf("second stage must unlock after stage one completes")
	}
	if second.Status != string(progression.StatusAvailable) {
		t.Fatalf("second stage status=%q, want available (old weigh-in must not count)", second.Status)
	}
	if second.Tasks[0].IsCompleted || second.Tasks[0].Current != 0 {
		t.Fatalf("pre-unlock weigh-in credited: %+v", second.Tasks[0])
	}
}

func TestJourneyBootstrapsOnFirstRead(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	svc := newJourneyFixture(t)
	user := testutil.SeedUser(t, ctx, db, "journey-bootstrap@test.local")

	journey, err := svc.GetJourney(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetJourney: %v", err)
	}
	if len(journey.Stages) != 3 {
		t.Fatalf("bootstrap must seed default persona stages, got %d", len(journey.Stages))
	}
}
