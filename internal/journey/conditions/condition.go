package conditions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind tags a task condition. The evaluator switches exhaustively over the
// known kinds; anything else falls through to a zero result instead of
// failing the whole stage list.
type Kind string

const (
	// Instantaneous: a single metric read since the evaluation lower bound.
	KindMealsLogged      Kind = "meals_logged"
	KindProteinGoal      Kind = "protein_goal"
	KindCalorieAdherence Kind = "calorie_adherence"

	// Windowed: per-day calorie balance over a trailing lookback window.
	KindWeeklyDeficit  Kind = "weekly_deficit"
	KindWeeklySurplus  Kind = "weekly_surplus"
	KindWeeklyBalanced Kind = "weekly_balanced"

	// Streak / count: raw counts or streak lengths since the lower bound.
	KindWeighIns       Kind = "weigh_ins"
	KindLogStreak      Kind = "log_streak"
	KindHabitStreak    Kind = "habit_streak"
	KindEducationReads Kind = "education_reads"

	// Manual: completed only through an explicit user action.
	KindManual Kind = "manual"
)

// Spec is the JSON-shaped condition attached to a task. Fields beyond Kind
// are kind-specific; unused ones stay at their zero value.
type Spec struct {
	Kind Kind `json:"kind" yaml:"kind"`

	// Literal default target. Lowest priority during target resolution.
	Target float64 `json:"target,omitempty" yaml:"target,omitempty"`

	// When set, a positive per-user target (protein/calories) wins over
	// ResolvedTarget and Target.
	UseUserTarget bool `json:"use_user_target,omitempty" yaml:"use_user_target,omitempty"`

	// Backend-resolved target precomputed at seed time. Beats Target.
	ResolvedTarget *float64 `json:"resolved_target,omitempty" yaml:"resolved_target,omitempty"`

	// Windowed kinds only.
	LookbackDays  int     `json:"lookback_days,omitempty" yaml:"lookback_days,omitempty"`
	ToleranceKcal float64 `json:"tolerance_kcal,omitempty" yaml:"tolerance_kcal,omitempty"`

	// Instantaneous kinds: restrict the read window to the current UTC day.
	Today bool `json:"today,omitempty" yaml:"today,omitempty"`
}

const (
	DefaultLookbackDays  = 7
	DefaultToleranceKcal = 100
)

// Parse decodes a persisted condition payload. A decode failure yields the
// zero Spec (unknown kind), which the evaluator treats as "not met".
func Parse(raw []byte) (Spec, error) {
	var s Spec
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return Spec{}, err
	}
	return s, nil
}

// Metric names the per-user aggregates a MetricsSource can answer.
type Metric string

const (
	MetricMealsLogged         Metric = "meals_logged"
	MetricProteinAvgG         Metric = "protein_avg_g"
	MetricCalorieAdherencePct Metric = "calorie_adherence_pct"
	MetricWeighIns            Metric = "weigh_ins"
	MetricLogStreakDays       Metric = "log_streak_days"
	MetricHabitStreakDays     Metric = "habit_streak_days"
	MetricEducationReads      Metric = "education_reads"
)

// DayBalance is one day of the trailing calorie-balance window. Logged is
// false when the user logged nothing that day; such days never qualify.
type DayBalance struct {
	Date      string  `json:"date"`
	Logged    bool    `json:"logged"`
	DeltaKcal float64 `json:"delta_kcal"`
}

// MetricsSource answers behavioral aggregates for one user. Reads are pure
// and safe to run concurrently.
type MetricsSource interface {
	MetricSince(ctx context.Context, userID uuid.UUID, metric Metric, from time.Time) (float64, error)
	DailyCalorieBalance(ctx context.Context, userID uuid.UUID, days int) ([]DayBalance, error)
}

// Targets carries per-user nutrition targets. Nil means "not set": the
// evaluator must fall back to the condition default, never to zero.
type Targets struct {
	ProteinG    *float64 `json:"protein_g,omitempty"`
	CalorieKcal *float64 `json:"calorie_kcal,omitempty"`
}

type TargetsSource interface {
	Resolve(ctx context.Context, userID uuid.UUID) (Targets, error)
}

// Result is the progress tuple for one evaluated condition.
type Result struct {
	Progress    float64        `json:"progress"`
	CanComplete bool           `json:"can_complete"`
	Current     float64        `json:"current"`
	Target      float64        `json:"target"`
	Details     map[string]any `json:"details,omitempty"`
}

// Completed is the sticky short-circuit result for already-completed tasks.
func Completed(target float64) Result {
	if target <= 0 {
		target = 1
	}
	return Result{
		Progress:    1,
		CanComplete: true,
		Current:     target,
		Target:      target,
		Details:     map[string]any{"completed": true},
	}
}
