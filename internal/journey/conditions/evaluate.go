package conditions

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
)

// Evaluator scores one condition against a user's metrics. It holds no
// per-request state and is safe for concurrent use.
type Evaluator struct {
	metrics MetricsSource
	targets TargetsSource
}

func NewEvaluator(metrics MetricsSource, targets TargetsSource) *Evaluator {
	return &Evaluator{metrics: metrics, targets: targets}
}

// Evaluate computes the progress tuple for spec. lowerBound is the owning
// stage's unlock timestamp; behavior before it never counts. An unknown or
// malformed kind yields a zero result with a nil error. Source read errors
// are returned to the caller, which downgrades them per task.
func (e *Evaluator) Evaluate(ctx context.Context, spec Spec, userID uuid.UUID, lowerBound, now time.Time) (Result, error) {
	switch spec.Kind {
	case KindMealsLogged:
		return e.instantaneous(ctx, spec, userID, MetricMealsLogged, lowerBound, now)
	case KindProteinGoal:
		return e.instantaneous(ctx, spec, userID, MetricProteinAvgG, lowerBound, now)
	case KindCalorieAdherence:
		return e.instantaneous(ctx, spec, userID, MetricCalorieAdherencePct, lowerBound, now)

	case KindWeeklyDeficit, KindWeeklySurplus, KindWeeklyBalanced:
		return e.windowed(ctx, spec, userID)

	case KindWeighIns:
		return e.counted(ctx, spec, userID, MetricWeighIns, lowerBound)
	case KindLogStreak:
		return e.counted(ctx, spec, userID, MetricLogStreakDays, lowerBound)
	case KindHabitStreak:
		return e.counted(ctx, spec, userID, MetricHabitStreakDays, lowerBound)
	case KindEducationReads:
		return e.counted(ctx, spec, userID, MetricEducationReads, lowerBound)

	case KindManual:
		target := spec.Target
		if target <= 0 {
			target = 1
		}
		return Result{
			Target:  target,
			Details: map[string]any{"manual": true},
		}, nil

	default:
		return Result{
			Details: map[string]any{"reason": "unknown_condition_kind", "kind": string(spec.Kind)},
		}, nil
	}
}

// instantaneous reads a single metric since the lower bound (optionally
// clamped to the current UTC day) and scores it against the resolved target.
func (e *Evaluator) instantaneous(ctx context.Context, spec Spec, userID uuid.UUID, metric Metric, lowerBound, now time.Time) (Result, error) {
	from := lowerBound
	if spec.Today {
		if sod := startOfDayUTC(now); sod.After(from) {
			from = sod
		}
	}

	target, source, err := e.resolveTarget(ctx, spec, userID, metric)
	if err != nil {
		return Result{}, err
	}

	current, err := e.metrics.MetricSince(ctx, userID, metric, from)
	if err != nil {
		return Result{}, err
	}

	progress := ratio(current, target)
	return Result{
		Progress:    progress,
		CanComplete: progress >= 1,
		Current:     current,
		Target:      target,
		Details: map[string]any{
			"metric":        string(metric),
			"target_source": source,
			"from":          from.UTC().Format(time.RFC3339),
		},
	}, nil
}

// windowed counts qualifying days over the trailing lookback window. A day
// qualifies when something was logged and that day's calorie balance
// satisfies the kind's comparison.
func (e *Evaluator) windowed(ctx context.Context, spec Spec, userID uuid.UUID) (Result, error) {
	lookback := spec.LookbackDays
	if lookback <= 0 {
		lookback = DefaultLookbackDays
	}
	tolerance := spec.ToleranceKcal
	if tolerance <= 0 {
		tolerance = DefaultToleranceKcal
	}

	days, err := e.metrics.DailyCalorieBalance(ctx, userID, lookback)
	if err != nil {
		return Result{}, err
	}

	qualifying := 0
	for _, d := range days {
		if !d.Logged {
			continue
		}
		switch spec.Kind {
		case KindWeeklyDeficit:
			if d.DeltaKcal < 0 {
				qualifying++
			}
		case KindWeeklySurplus:
			if d.DeltaKcal > 0 {
				qualifying++
			}
		case KindWeeklyBalanced:
			if math.Abs(d.DeltaKcal) <= tolerance {
				qualifying++
			}
		}
	}

	current := float64(qualifying)
	target := float64(lookback)
	progress := ratio(current, target)
	return Result{
		Progress:    progress,
		CanComplete: progress >= 1,
		Current:     current,
		Target:      target,
		Details: map[string]any{
			"lookback_days":   lookback,
			"qualifying_days": qualifying,
		},
	}, nil
}

// counted scores a raw count or streak length against the literal threshold.
func (e *Evaluator) counted(ctx context.Context, spec Spec, userID uuid.UUID, metric Metric, lowerBound time.Time) (Result, error) {
	target := spec.Target
	if spec.ResolvedTarget != nil && *spec.ResolvedTarget > 0 {
		target = *spec.ResolvedTarget
	}
	if target <= 0 {
		target = 1
	}

	current, err := e.metrics.MetricSince(ctx, userID, metric, lowerBound)
	if err != nil {
		return Result{}, err
	}

	progress := ratio(current, target)
	return Result{
		Progress:    progress,
		CanComplete: progress >= 1,
		Current:     current,
		Target:      target,
		Details:     map[string]any{"metric": string(metric)},
	}, nil
}

// resolveTarget applies the strict priority order: positive per-user target
// (when the condition opts in), then the precomputed resolved target, then
// the literal default. A missing user target never resolves to zero.
func (e *Evaluator) resolveTarget(ctx context.Context, spec Spec, userID uuid.UUID, metric Metric) (float64, string, error) {
	if spec.UseUserTarget && e.targets != nil {
		t, err := e.targets.Resolve(ctx, userID)
		if err != nil {
			return 0, "", err
		}
		// Only protein-style conditions track a user-overridable target;
		// calorie targets feed the metric computation itself, not the goal.
		if metric == MetricProteinAvgG && t.ProteinG != nil && *t.ProteinG > 0 {
			return *t.ProteinG, "user", nil
		}
	}
	if spec.ResolvedTarget != nil && *spec.ResolvedTarget > 0 {
		return *spec.ResolvedTarget, "resolved", nil
	}
	target := spec.Target
	if target <= 0 {
		target = 1
	}
	return target, "default", nil
}

func ratio(current, target float64) float64 {
	if target <= 0 {
		if current > 0 {
			return 1
		}
		return 0
	}
	return clamp01(current / target)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func startOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
