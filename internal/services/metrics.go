package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/nutripath-backend/internal/data/repos/tracking"
	"github.com/yungbote/nutripath-backend/internal/journey/conditions"
	"github.com/yungbote/nutripath-backend/internal/pkg/logger"
)

// DefaultCalorieKcal stands in when the user never set a calorie target.
const DefaultCalorieKcal = 2000

const dayFormat = "2006-01-02"

// MetricsService is the Metrics Source: per-user behavioral aggregates over
// an arbitrary [from, now] window, derived from the tracking tables. All
// reads are side-effect-free and safe to run concurrently. Days are
// bucketed in UTC so recomputation stays idempotent.
type MetricsService interface {
	conditions.MetricsSource
}

type metricsService struct {
	db             *gorm.DB
	log            *logger.Logger
	mealLogs       tracking.MealLogRepo
	weighIns       tracking.WeighInRepo
	habitChecks    tracking.HabitCheckRepo
	educationReads tracking.EducationReadRepo
	targets        conditions.TargetsSource
	now            func() time.Time
}

func NewMetricsService(
	db *gorm.DB,
	log *logger.Logger,
	mealLogs tracking.MealLogRepo,
	weighIns tracking.WeighInRepo,
	habitChecks tracking.HabitCheckRepo,
	educationReads tracking.EducationReadRepo,
	targets conditions.TargetsSource,
) MetricsService {
	return &metricsService{
		db:             db,
		log:            log.With("service", "MetricsService"),
		mealLogs:       mealLogs,
		weighIns:       weighIns,
		habitChecks:    habitChecks,
		educationReads: educationReads,
		targets:        targets,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *metricsService) MetricSince(ctx context.Context, userID uuid.UUID, metric conditions.Metric, from time.Time) (float64, error) {
	switch metric {
	case conditions.MetricMealsLogged:
		n, err := s.mealLogs.CountSince(ctx, nil, userID, from)
		return float64(n), err

	case conditions.MetricProteinAvgG:
		return s.proteinAvg(ctx, userID, from)

	case conditions.MetricCalorieAdherencePct:
		return s.calorieAdherencePct(ctx, userID, from)

	case conditions.MetricWeighIns:
		n, err := s.weighIns.CountSince(ctx, nil, userID, from)
		return float64(n), err

	case conditions.MetricLogStreakDays:
		return s.logStreakDays(ctx, userID, from)

	case conditions.MetricHabitStreakDays:
		return s.habitStreakDays(ctx, userID, from)

	case conditions.MetricEducationReads:
		n, err := s.educationReads.CountSince(ctx, nil, userID, from)
		return float64(n), err

	default:
		return 0, fmt.Errorf("unknown metric %q", metric)
	}
}

// proteinAvg is the mean of per-day protein sums across the days that have
// at least one logged meal. With a same-day lower bound this is simply
// today's total.
func (s *metricsService) proteinAvg(ctx context.Context, userID uuid.UUID, from time.Time) (float64, error) {
	meals, err := s.mealLogs.ListSince(ctx, nil, userID, from)
	if err != nil {
		return 0, err
	}
	if len(meals) == 0 {
		return 0, nil
	}
	byDay := map[string]float64{}
	for _, m := range meals {
		byDay[m.LoggedAt.UTC().Format(dayFormat)] += m.ProteinG
	}
	var total float64
	for _, v := range byDay {
		total += v
	}
	return total / float64(len(byDay)), nil
}

// calorieAdherencePct is the share of days in [from, now] whose logged
// total lands at or under the calorie target with a 5% grace band.
func (s *metricsService) calorieAdherencePct(ctx context.Context, userID uuid.UUID, from time.Time) (float64, error) {
	meals, err := s.mealLogs.ListSince(ctx, nil, userID, from)
	if err != nil {
		return 0, err
	}
	target, err := s.calorieTarget(ctx, userID)
	if err != nil {
		return 0, err
	}

	byDay := map[string]float64{}
	for _, m := range meals {
		byDay[m.LoggedAt.UTC().Format(dayFormat)] += m.Calories
	}

	days := daysBetween(from, s.now())
	if days < 1 {
		days = 1
	}
	adherent := 0
	for _, total := range byDay {
		if total <= target*1.05 {
			adherent++
		}
	}
	return float64(adherent) / float64(days) * 100, nil
}

func (s *metricsService) logStreakDays(ctx context.Context, userID uuid.UUID, from time.Time) (float64, error) {
	meals, err := s.mealLogs.ListSince(ctx, nil, userID, from)
	if err != nil {
		return 0, err
	}
	logged := map[string]bool{}
	for _, m := range meals {
		logged[m.LoggedAt.UTC().Format(dayFormat)] = true
	}
	return float64(s.streakEndingNow(logged, from)), nil
}

func (s *metricsService) habitStreakDays(ctx context.Context, userID uuid.UUID, from time.Time) (float64, error) {
	days, err := s.habitChecks.DistinctDaysSince(ctx, nil, userID, from.UTC().Format(dayFormat))
	if err != nil {
		return 0, err
	}
	checked := map[string]bool{}
	for _, d := range days {
		checked[d] = true
	}
	return float64(s.streakEndingNow(checked, from)), nil
}

// streakEndingNow counts consecutive flagged days walking back from today.
// An unflagged today doesn't break the streak; the walk then starts from
// yesterday.
func (s *metricsService) streakEndingNow(flagged map[string]bool, from time.Time) int {
	day := startOfDayUTC(s.now())
	if !flagged[day.Format(dayFormat)] {
		day = day.AddDate(0, 0, -1)
	}
	floor := startOfDayUTC(from)
	streak := 0
	for !day.Before(floor) && flagged[day.Format(dayFormat)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func (s *metricsService) DailyCalorieBalance(ctx context.Context, userID uuid.UUID, days int) ([]conditions.DayBalance, error) {
	if days <= 0 {
		days = conditions.DefaultLookbackDays
	}
	today := startOfDayUTC(s.now())
	from := today.AddDate(0, 0, -(days - 1))

	meals, err := s.mealLogs.ListSince(ctx, nil, userID, from)
	if err != nil {
		return nil, err
	}
	target, err := s.calorieTarget(ctx, userID)
	if err != nil {
		return nil, err
	}

	byDay := map[string]float64{}
	counts := map[string]int{}
	for _, m := range meals {
		k := m.LoggedAt.UTC().Format(dayFormat)
		byDay[k] += m.Calories
		counts[k]++
	}

	out := make([]conditions.DayBalance, 0, days)
	for i := 0; i < days; i++ {
		day := from.AddDate(0, 0, i)
		k := day.Format(dayFormat)
		out = append(out, conditions.DayBalance{
			Date:      k,
			Logged:    counts[k] > 0,
			DeltaKcal: byDay[k] - target,
		})
	}
	return out, nil
}

func (s *metricsService) calorieTarget(ctx context.Context, userID uuid.UUID) (float64, error) {
	if s.targets == nil {
		return DefaultCalorieKcal, nil
	}
	t, err := s.targets.Resolve(ctx, userID)
	if err != nil {
		return 0, err
	}
	if t.CalorieKcal != nil && *t.CalorieKcal > 0 {
		return *t.CalorieKcal, nil
	}
	return DefaultCalorieKcal, nil
}

func daysBetween(from, to time.Time) int {
	f := startOfDayUTC(from)
	t := startOfDayUTC(to)
	return int(t.Sub(f).Hours()/24) + 1
}

func startOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
