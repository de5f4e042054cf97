package conditions

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeMetrics struct {
	values   map[Metric]float64
	balances []DayBalance
	err      error
}

func (f *fakeMetrics) MetricSince(ctx context.Context, userID uuid.UUID, metric Metric, from time.Time) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.values[metric], nil
}

func (f *fakeMetrics) DailyCalorieBalance(ctx context.Context, userID uuid.UUID, days int) ([]DayBalance, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.balances, nil
}

type fakeTargets struct {
	targets Targets
	err     error
}

func (f *fakeTargets) Resolve(ctx context.Context, userID uuid.UUID) (Targets, error) {
	return f.targets, f.err
}

func fptr(v float64) *float64 { return &v }

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestEvaluateProteinGoal(t *testing.T) {
	userID := uuid.New()
	now := time.Now().UTC()
	lower := now.Add(-72 * time.Hour)

	cases := []struct {
		name         string
		current      float64
		userProtein  *float64
		spec         Spec
		wantProgress float64
		wantComplete bool
		wantTarget   float64
	}{
		{
			name:         "user_target_met_exactly",
			current:      140,
			userProtein:  fptr(140),
			spec:         Spec{Kind: KindProteinGoal, Target: 100, UseUserTarget: true},
			wantProgress: 1.0,
			wantComplete: true,
			wantTarget:   140,
		},
		{
			name:         "user_target_half",
			current:      70,
			userProtein:  fptr(140),
			spec:         Spec{Kind: KindProteinGoal, Target: 100, UseUserTarget: true},
			wantProgress: 0.5,
			wantComplete: false,
			wantTarget:   140,
		},
		{
			name:         "missing_user_target_falls_back_to_default",
			current:      100,
			userProtein:  nil,
			spec:         Spec{Kind: KindProteinGoal, Target: 100, UseUserTarget: true},
			wantProgress: 1.0,
			wantComplete: true,
			wantTarget:   100,
		},
		{
			name:         "resolved_target_beats_default",
			current:      60,
			userProtein:  nil,
			spec:         Spec{Kind: KindProteinGoal, Target: 100, ResolvedTarget: fptr(120), UseUserTarget: true},
			wantProgress: 0.5,
			wantComplete: false,
			wantTarget:   120,
		},
		{
			name:         "overshoot_clamps_to_one",
			current:      200,
			userProtein:  fptr(140),
			spec:         Spec{Kind: KindProteinGoal, UseUserTarget: true},
			wantProgress: 1.0,
			wantComplete: true,
			wantTarget:   140,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			metrics := &fakeMetrics{values: map[Metric]float64{MetricProteinAvgG: tc.current}}
			targets := &fakeTargets{targets: Targets{ProteinG: tc.userProtein}}
			e := NewEvaluator(metrics, targets)

			res, err := e.Evaluate(context.Background(), tc.spec, userID, lower, now)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if !almostEqual(res.Progress, tc.wantProgress) {
				t.Fatalf("progress=%v, want %v", res.Progress, tc.wantProgress)
			}
			if res.CanComplete != tc.wantComplete {
				t.Fatalf("canComplete=%v, want %v", res.CanComplete, tc.wantComplete)
			}
			if !almostEqual(res.Target, tc.wantTarget) {
				t.Fatalf("target=%v, want %v", res.Target, tc.wantTarget)
			}
		})
	}
}

func TestEvaluateWeeklyDeficit(t *testing.T) {
	userID := uuid.New()
	now := time.Now().UTC()

	// 7-day window: 4 logged deficit days, 1 logged surplus day, 2 unlogged.
	balances := []DayBalance{
		{Date: "2026-08-20", Logged: true, DeltaKcal: -300},
		{Date: "2026-08-21", Logged: true, DeltaKcal: -150},
		{Date: "2026-08-22", Logged: false, DeltaKcal: 0},
		{Date: "2026-08-23", Logged: true, DeltaKcal: 200},
		{Date: "2026-08-24", Logged: true, DeltaKcal: -50},
		{Date: "2026-08-25", Logged: false, DeltaKcal: 0},
		{Date: "2026-08-26", Logged: true, DeltaKcal: -500},
	}
	metrics := &fakeMetrics{balances: balances}
	e := NewEvaluator(metrics, &fakeTargets{})

	res, err := e.Evaluate(context.Background(), Spec{Kind: KindWeeklyDeficit, LookbackDays: 7}, userID, now.AddDate(0, 0, -7), now)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Current != 4 {
		t.Fatalf("current=%v, want 4", res.Current)
	}
	if res.Target != 7 {
		t.Fatalf("target=%v, want 7", res.Target)
	}
	if !almostEqual(res.Progress, 4.0/7.0) {
		t.Fatalf("progress=%v, want %v", res.Progress, 4.0/7.0)
	}
	if res.CanComplete {
		t.Fatalf("canComplete=true for partial deficit week")
	}
}

func TestEvaluateWeeklyBalanced(t *testing.T) {
	userID := uuid.New()
	now := time.Now().UTC()

	balances := []DayBalance{
		{Date: "2026-08-24", Logged: true, DeltaKcal: 50},
		{Date: "2026-08-25", Logged: true, DeltaKcal: -100},
		{Date: "2026-08-26", Logged: true, DeltaKcal: 180},
	}
	metrics := &fakeMetrics{balances: balances}
	e := NewEvaluator(metrics, &fakeTargets{})

	res, err := e.Evaluate(context.Background(), Spec{Kind: KindWeeklyBalanced, LookbackDays: 3, ToleranceKcal: 100}, userID, now.AddDate(0, 0, -3), now)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Current != 2 {
		t.Fatalf("current=%v, want 2 within tolerance", res.Current)
	}
}

func TestEvaluateCountedKinds(t *testing.T) {
	userID := uuid.New()
	now := time.Now().UTC()
	lower := now.AddDate(0, 0, -14)

	metrics := &fakeMetrics{values: map[Metric]float64{
		MetricWeighIns:        3,
		MetricLogStreakDays:   5,
		MetricEducationReads:  2,
		MetricHabitStreakDays: 0,
	}}
	e := NewEvaluator(metrics, &fakeTargets{})

	cases := []struct {
		name         string
		spec         Spec
		wantCurrent  float64
		wantComplete bool
	}{
		{"weigh_ins_met", Spec{Kind: KindWeighIns, Target: 3}, 3, true},
		{"log_streak_partial", Spec{Kind: KindLogStreak, Target: 7}, 5, false},
		{"education_reads_met", Spec{Kind: KindEducationReads, Target: 2}, 2, true},
		{"habit_streak_zero", Spec{Kind: KindHabitStreak, Target: 5}, 0, false},
		{"zero_target_floors_to_one", Spec{Kind: KindWeighIns}, 3, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := e.Evaluate(context.Background(), tc.spec, userID, lower, now)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if res.Current != tc.wantCurrent {
				t.Fatalf("current=%v, want %v", res.Current, tc.wantCurrent)
			}
			if res.CanComplete != tc.wantComplete {
				t.Fatalf("canComplete=%v, want %v", res.CanComplete, tc.wantComplete)
			}
		})
	}
}

func TestEvaluateManual(t *testing.T) {
	e := NewEvaluator(&fakeMetrics{}, &fakeTargets{})
	res, err := e.Evaluate(context.Background(), Spec{Kind: KindManual}, uuid.New(), time.Now().UTC(), time.Now().UTC())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Progress != 0 || res.CanComplete {
		t.Fatalf("manual conditions never auto-complete: %+v", res)
	}
	if res.Details["manual"] != true {
		t.Fatalf("manual detail missing: %+v", res.Details)
	}
}

func TestEvaluateUnknownKind(t *testing.T) {
	e := NewEvaluator(&fakeMetrics{}, &fakeTargets{})
	res, err := e.Evaluate(context.Background(), Spec{Kind: Kind("time_travel")}, uuid.New(), time.Now().UTC(), time.Now().UTC())
	if err != nil {
		t.Fatalf("unknown kind must not error: %v", err)
	}
	if res.Progress != 0 || res.CanComplete {
		t.Fatalf("unknown kind must yield zero result: %+v", res)
	}
	if res.Details["reason"] != "unknown_condition_kind" {
		t.Fatalf("missing reason detail: %+v", res.Details)
	}
}

func TestEvaluateSourceErrorPropagates(t *testing.T) {
	metrics := &fakeMetrics{err: fmt.Errorf("db down")}
	e := NewEvaluator(metrics, &fakeTargets{})
	_, err := e.Evaluate(context.Background(), Spec{Kind: KindMealsLogged, Target: 3}, uuid.New(), time.Now().UTC(), time.Now().UTC())
	if err == nil {
		t.Fatalf("expected source error to propagate")
	}
}

func TestCompletedIsSticky(t *testing.T) {
	res := Completed(5)
	if res.Progress != 1 || !res.CanComplete || res.Current != 5 || res.Target != 5 {
		t.Fatalf("unexpected sticky result: %+v", res)
	}
	zero := Completed(0)
	if zero.Target != 1 || zero.Current != 1 {
		t.Fatalf("zero target must floor to 1: %+v", zero)
	}
}

func TestParseMalformedPayload(t *testing.T) {
	if _, err := Parse([]byte(`{"kind":`)); err == nil {
		t.Fatalf("expected parse error")
	}
	s, err := Parse(nil)
	if err != nil {
		t.Fatalf("empty payload: %v", err)
	}
	if s.Kind != "" {
		t.Fatalf("empty payload must yield zero spec: %+v", s)
	}
}
