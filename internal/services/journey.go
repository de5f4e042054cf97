package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	journeyrepos "github.com/yungbote/nutripath-backend/internal/data/repos/journey"
	"github.com/yungbote/nutripath-backend/internal/journey/catalog"
	"github.com/yungbote/nutripath-backend/internal/journey/conditions"
	"github.com/yungbote/nutripath-backend/internal/journey/progression"
	"github.com/yungbote/nutripath-backend/internal/pkg/logger"
	"github.com/yungbote/nutripath-backend/internal/types"
)

// TaskView is one evaluated task in a journey response.
type TaskView struct {
	ID            uuid.UUID      `json:"id"`
	KeyCode       string         `json:"key_code"`
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	TaskType      string         `json:"task_type"`
	CTA           string         `json:"cta,omitempty"`
	Points        int            `json:"points"`
	Position      int            `json:"position"`
	IsCompleted   bool           `json:"is_completed"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	Progress      float64        `json:"progress"`
	CanComplete   bool           `json:"can_complete"`
	Current       float64        `json:"current"`
	Target        float64        `json:"target"`
	LockedByStage bool           `json:"locked_by_stage"`
	Details       map[string]any `json:"details,omitempty"`
}

// StageView is one stage with its freshly derived status.
type StageView struct {
	ID          uuid.UUID  `json:"id"`
	StageCode   string     `json:"stage_code"`
	Title       string     `json:"title"`
	StageType   string     `json:"stage_type"`
	Status      string     `json:"status"`
	Progress    float64    `json:"progress"`
	Position    int        `json:"position"`
	XPCurrent   int        `json:"xp_current"`
	XPTotal     int        `json:"xp_total"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Tasks       []TaskView `json:"tasks"`
}

// JourneyResponse is the full recomputed journey. It is assembled fresh on
// every request; only completions and XP awards persist between reads.
type JourneyResponse struct {
	Stages            []StageView `json:"stages"`
	ActiveStageIndex  *int        `json:"active_stage_index"`
	UnlockedUpToIndex int         `json:"unlocked_up_to_index"`
}

type JourneyService interface {
	// SeedStages materializes the persona's stage templates for a new user.
	// The first stage starts unlocked.
	SeedStages(ctx context.Context, tx *gorm.DB, userID uuid.UUID, persona string) error
	GetJourney(ctx context.Context, userID uuid.UUID) (*JourneyResponse, error)
	// CompleteTask completes a manual task by key, then returns the
	// recomputed journey. Metric tasks complete automatically and reject
	// the endpoint.
	CompleteTask(ctx context.Context, userID uuid.UUID, keyCode string) (*JourneyResponse, error)
}

type journeyService struct {
	db        *gorm.DB
	log       *logger.Logger
	stages    journeyrepos.UserStageRepo
	tasks     journeyrepos.UserStageTaskRepo
	catalog   *catalog.Catalog
	evaluator *conditions.Evaluator
	metrics   conditions.MetricsSource
	now       func() time.Time
}

func NewJourneyService(
	db *gorm.DB,
	log *logger.Logger,
	stages journeyrepos.UserStageRepo,
	tasks journeyrepos.UserStageTaskRepo,
	cat *catalog.Catalog,
	metrics conditions.MetricsSource,
	targets conditions.TargetsSource,
) JourneyService {
	return &journeyService{
		db:        db,
		log:       log.With("service", "JourneyService"),
		stages:    stages,
		tasks:     tasks,
		catalog:   cat,
		evaluator: conditions.NewEvaluator(metrics, targets),
		metrics:   metrics,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (js *journeyService) SeedStages(ctx context.Context, tx *gorm.DB, userID uuid.UUID, persona string) error {
	templates := js.catalog.StagesFor(persona, js.log)
	if len(templates) == 0 {
		return fmt.Errorf("no stage templates for persona %q", persona)
	}

	now := js.now()
	stageRows := make([]*types.UserStage, 0, len(templates))
	taskRows := make([]*types.UserStageTask, 0, len(templates)*3)

	for i, st := range templates {
		reqJSON, err := marshalJSON(st.Requirements)
		if err != nil {
			return fmt.Errorf("encode requirements for stage %q: %w", st.Code, err)
		}
		stage := &types.UserStage{
			ID:               uuid.New(),
			UserID:           userID,
			StageCode:        st.Code,
			Title:            st.Title,
			StageType:        st.Type,
			Status:           string(progression.StatusLocked),
			Position:         i,
			RequirementsJSON: reqJSON,
			XPTotal:          st.XPTotal(),
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if i == 0 {
			stage.Status = string(progression.StatusAvailable)
			unlockedAt := now
			stage.UnlockedAt = &unlockedAt
		}
		stageRows = append(stageRows, stage)

		for j, tt := range st.Tasks {
			condJSON, err := marshalJSON(tt.Check)
			if err != nil {
				return fmt.Errorf("encode condition for task %q: %w", tt.Key, err)
			}
			taskRows = append(taskRows, &types.UserStageTask{
				ID:            uuid.New(),
				StageID:       stage.ID,
				UserID:        userID,
				KeyCode:       tt.Key,
				Title:         tt.Title,
				Description:   tt.Desc,
				TaskType:      tt.Type,
				CTA:           tt.CTA,
				Points:        tt.XP,
				Position:      j,
				ConditionJSON: condJSON,
				CreatedAt:     now,
				UpdatedAt:     now,
			})
		}
	}

	if _, err := js.stages.Create(ctx, tx, stageRows); err != nil {
		return fmt.Errorf("create stages: %w", err)
	}
	if _, err := js.tasks.Create(ctx, tx, taskRows); err != nil {
		return fmt.Errorf("create stage tasks: %w", err)
	}
	return nil
}

func (js *journeyService) GetJourney(ctx context.Context, userID uuid.UUID) (*JourneyResponse, error) {
	rows, err := js.stages.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	if len(rows) == 0 {
		// First read before any seeding (e.g. accounts predating the
		// journey feature) bootstraps from the default persona.
		if err := js.SeedStages(ctx, nil, userID, js.catalog.DefaultPersona()); err != nil {
			return nil, fmt.Errorf("bootstrap stages: %w", err)
		}
		rows, err = js.stages.ListByUser(ctx, nil, userID)
		if err != nil {
			return nil, fmt.Errorf("list stages after bootstrap: %w", err)
		}
	}
	return js.assemble(ctx, userID, rows)
}

func (js *journeyService) CompleteTask(ctx context.Context, userID uuid.UUID, keyCode string) (*JourneyResponse, error) {
	task, err := js.tasks.GetByUserAndKey(ctx, nil, userID, keyCode)
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	if task == nil {
		return nil, fmt.Errorf("task %q not found", keyCode)
	}

	spec, pErr := conditions.Parse(task.ConditionJSON)
	if pErr != nil {
		js.log.Warn("Malformed task condition", "task_key", keyCode, "error", pErr)
	}
	if spec.Kind != conditions.KindManual {
		return nil, fmt.Errorf("task %q completes automatically", keyCode)
	}

	stage, sErr := js.stages.GetByID(ctx, nil, task.StageID)
	if sErr != nil {
		return nil, fmt.Errorf("load stage: %w", sErr)
	}
	if stage == nil {
		return nil, fmt.Errorf("stage for task %q not found", keyCode)
	}
	// Tasks on a stage that has never unlocked cannot complete or earn
	// points; the stage opens through its predecessor first.
	if stage.UnlockedAt == nil {
		return nil, fmt.Errorf("task %q belongs to a locked stage", keyCode)
	}

	if !task.IsCompleted {
		transitioned, mErr := js.tasks.MarkCompleted(ctx, nil, task.ID, js.now())
		if mErr != nil {
			return nil, fmt.Errorf("complete task: %w", mErr)
		}
		if transitioned {
			if xpErr := js.stages.AddXP(ctx, nil, task.StageID, task.Points); xpErr != nil {
				return nil, fmt.Errorf("award points: %w", xpErr)
			}
		}
	}

	return js.GetJourney(ctx, userID)
}

// evaluatedTask pairs a task row with its condition result.
type evaluatedTask struct {
	row    *types.UserStageTask
	result conditions.Result
}

// assemble recomputes every stage in order: evaluate tasks, auto-complete
// the ones whose condition is observed met, derive status, run the finalize
// action on first completion, and fold the whole thing into the response.
func (js *journeyService) assemble(ctx context.Context, userID uuid.UUID, rows []*types.UserStage) (*JourneyResponse, error) {
	now := js.now()
	statuses := make([]progression.Status, len(rows))
	views := make([]StageView, len(rows))

	for i, stage := range rows {
		evaluated, err := js.evaluateStageTasks(ctx, userID, stage, now)
		if err != nil {
			return nil, err
		}

		// Pre-unlock behavior is preview only. Until unlocked_at is set
		// nothing persists for the stage: no task completions, no XP, no
		// finalize. Crediting starts at the unlock timestamp.
		unlocked := stage.UnlockedAt != nil

		// Award completions observed this pass. Write failures on the read
		// path are logged and retried on the next request; the derived view
		// already reflects the completion.
		xpCurrent := stage.XPCurrent
		if unlocked {
			for _, et := range evaluated {
				task := et.row
				if task.IsCompleted || !et.result.CanComplete || task.TaskType == "manual" {
					continue
				}
				transitioned, mErr := js.tasks.MarkCompleted(ctx, nil, task.ID, now)
				if mErr != nil {
					js.log.Warn("Failed to persist task completion", "task_key", task.KeyCode, "error", mErr)
					continue
				}
				if transitioned {
					if xpErr := js.stages.AddXP(ctx, nil, task.StageID, task.Points); xpErr != nil {
						js.log.Warn("Failed to award task points", "task_key", task.KeyCode, "error", xpErr)
					}
				}
				task.IsCompleted = true
				completedAt := now
				task.CompletedAt = &completedAt
			}
		}

		// Local XP mirrors the persisted ledger without a re-read: sum of
		// completed task points, capped at the stage total.
		earned := 0
		for _, et := range evaluated {
			if et.row.IsCompleted {
				earned += et.row.Points
			}
		}
		if stage.XPTotal > 0 && earned > stage.XPTotal {
			earned = stage.XPTotal
		}
		if earned > xpCurrent {
			xpCurrent = earned
		}

		req, rErr := progression.ParseRequirements(stage.RequirementsJSON)
		if rErr != nil {
			js.log.Warn("Malformed stage requirements", "stage_code", stage.StageCode, "error", rErr)
		}
		outcome := progression.EvaluateRequirements(req, js.ruleReader(ctx, userID, stage, now))

		prevCompleted := i > 0 && statuses[i-1] == progression.StatusCompleted
		status, finalize := progression.Derive(progression.StageInputs{
			AlreadyCompleted: stage.CompletedAt != nil,
			Requirements:     outcome,
			XPCurrent:        xpCurrent,
			XPTotal:          stage.XPTotal,
			PrevCompleted:    prevCompleted,
			First:            i == 0,
		})
		if !unlocked {
			// A never-unlocked stage stays locked no matter what its rules
			// currently read; it can only open through the previous stage's
			// finalize.
			status = progression.StatusLocked
			finalize = false
		}

		if finalize {
			js.finalizeStage(ctx, rows, i, now)
		}
		if status == progression.StatusInProgress && stage.StartedAt == nil {
			if _, sErr := js.stages.MarkStarted(ctx, nil, stage.ID, now); sErr != nil {
				js.log.Warn("Failed to mark stage started", "stage_code", stage.StageCode, "error", sErr)
			} else {
				startedAt := now
				stage.StartedAt = &startedAt
			}
		}

		statuses[i] = status
		views[i] = js.stageView(stage, status, outcome, xpCurrent, evaluated)
	}

	return &JourneyResponse{
		Stages:            views,
		ActiveStageIndex:  progression.ActiveStageIndex(statuses),
		UnlockedUpToIndex: progression.UnlockedUpToIndex(statuses),
	}, nil
}

// evaluateStageTasks scores a stage's tasks concurrently. Completed tasks
// short-circuit to the sticky result; a task whose sources fail degrades to
// a zero result instead of failing the journey read.
func (js *journeyService) evaluateStageTasks(ctx context.Context, userID uuid.UUID, stage *types.UserStage, now time.Time) ([]evaluatedTask, error) {
	lowerBound := stage.CreatedAt
	if stage.UnlockedAt != nil {
		lowerBound = *stage.UnlockedAt
	}

	evaluated := make([]evaluatedTask, len(stage.Tasks))
	g, gctx := errgroup.WithContext(ctx)

	for i := range stage.Tasks {
		task := &stage.Tasks[i]
		evaluated[i].row = task

		if task.IsCompleted {
			spec, _ := conditions.Parse(task.ConditionJSON)
			target := spec.Target
			if spec.ResolvedTarget != nil && *spec.ResolvedTarget > 0 {
				target = *spec.ResolvedTarget
			}
			evaluated[i].result = conditions.Completed(target)
			continue
		}

		g.Go(func() error {
			spec, pErr := conditions.Parse(task.ConditionJSON)
			if pErr != nil {
				js.log.Warn("Malformed task condition", "task_key", task.KeyCode, "error", pErr)
				evaluated[i].result = conditions.Result{
					Details: map[string]any{"reason": "malformed_condition"},
				}
				return nil
			}
			res, eErr := js.evaluator.Evaluate(gctx, spec, userID, lowerBound, now)
			if eErr != nil {
				js.log.Warn("Task evaluation failed", "task_key", task.KeyCode, "error", eErr)
				evaluated[i].result = conditions.Result{
					Details: map[string]any{"reason": "evaluation_error"},
				}
				return nil
			}
			evaluated[i].result = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return evaluated, nil
}

// ruleReader reads requirement-rule metrics. A rule with a window reads that
// trailing window; otherwise the read starts at the stage's lower bound.
func (js *journeyService) ruleReader(ctx context.Context, userID uuid.UUID, stage *types.UserStage, now time.Time) progression.RuleReader {
	lowerBound := stage.CreatedAt
	if stage.UnlockedAt != nil {
		lowerBound = *stage.UnlockedAt
	}
	return func(rule progression.MetricRule) (float64, error) {
		from := lowerBound
		if rule.WindowDays > 0 {
			from = now.AddDate(0, 0, -rule.WindowDays)
		}
		return js.metrics.MetricSince(ctx, userID, conditions.Metric(rule.Metric), from)
	}
}

// finalizeStage is the single completion action: persist the completion
// set-once, then unlock the next stage set-once. Both writes tolerate racing
// observers; whoever loses the race changes nothing.
func (js *journeyService) finalizeStage(ctx context.Context, rows []*types.UserStage, i int, now time.Time) {
	stage := rows[i]
	transitioned, err := js.stages.MarkCompleted(ctx, nil, stage.ID, now)
	if err != nil {
		js.log.Warn("Failed to persist stage completion", "stage_code", stage.StageCode, "error", err)
		return
	}
	if transitioned {
		completedAt := now
		stage.CompletedAt = &completedAt
		stage.Status = string(progression.StatusCompleted)
		stage.Progress = 1.0
		js.log.Info("Stage completed", "stage_code", stage.StageCode, "user_id", stage.UserID)
	}

	if i+1 < len(rows) {
		next := rows[i+1]
		unlocked, uErr := js.stages.MarkUnlocked(ctx, nil, next.ID, now)
		if uErr != nil {
			js.log.Warn("Failed to unlock next stage", "stage_code", next.StageCode, "error", uErr)
			return
		}
		if unlocked {
			unlockedAt := now
			next.UnlockedAt = &unlockedAt
		}
	}
}

func (js *journeyService) stageView(stage *types.UserStage, status progression.Status, outcome progression.Outcome, xpCurrent int, evaluated []evaluatedTask) StageView {
	progress := outcome.Partial
	if status == progression.StatusCompleted {
		progress = 1.0
	}

	locked := stage.UnlockedAt == nil
	tasks := make([]TaskView, 0, len(evaluated))
	for _, et := range evaluated {
		t := et.row
		tasks = append(tasks, TaskView{
			ID:            t.ID,
			KeyCode:       t.KeyCode,
			Title:         t.Title,
			Description:   t.Description,
			TaskType:      t.TaskType,
			CTA:           t.CTA,
			Points:        t.Points,
			Position:      t.Position,
			IsCompleted:   t.IsCompleted,
			CompletedAt:   t.CompletedAt,
			Progress:      et.result.Progress,
			CanComplete:   et.result.CanComplete,
			Current:       et.result.Current,
			Target:        et.result.Target,
			LockedByStage: locked,
			Details:       et.result.Details,
		})
	}

	return StageView{
		ID:          stage.ID,
		StageCode:   stage.StageCode,
		Title:       stage.Title,
		StageType:   stage.StageType,
		Status:      string(status),
		Progress:    progress,
		Position:    stage.Position,
		XPCurrent:   xpCurrent,
		XPTotal:     stage.XPTotal,
		UnlockedAt:  stage.UnlockedAt,
		StartedAt:   stage.StartedAt,
		CompletedAt: stage.CompletedAt,
		Tasks:       tasks,
	}
}

func marshalJSON(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
