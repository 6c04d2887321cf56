package goal

import (
	"context"
	"fmt"
	"time"

	contractmq "focusflow/contracts/mq"
	"focusflow/internal/calendar"
	"focusflow/internal/model"
	"focusflow/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GoalStore 由 repository.GoalRepository 实现
type GoalStore interface {
	ListEnabled(ctx context.Context) ([]model.ProjectGoal, error)
	ListEnabledByProject(ctx context.Context, projectID uuid.UUID) ([]model.ProjectGoal, error)
	ListBootstrapCandidates(ctx context.Context) ([]model.ProjectGoal, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.ProjectGoal, error)
	UpdateCurrentCount(ctx context.Context, id uuid.UUID, count int) error
}

// CompletedTaskCounter 由 repository.TaskRepository 实现
type CompletedTaskCounter interface {
	CountCompletedInWindow(ctx context.Context, projectID uuid.UUID, start, end time.Time) (int, error)
}

// ProgressNotifier 发布 goal.progress.updated，失败只记日志
type ProgressNotifier interface {
	GoalProgressUpdated(ctx context.Context, payload contractmq.GoalProgressUpdatedPayload)
}

type OutcomeKind string

const (
	OutcomeUpdated              OutcomeKind = "updated"
	OutcomeUnchanged            OutcomeKind = "unchanged"
	OutcomeSkippedMissingWindow OutcomeKind = "skipped_missing_window"
	OutcomeError                OutcomeKind = "error"
)

type Outcome struct {
	GoalID        uuid.UUID   `json:"goal_id"`
	Kind          OutcomeKind `json:"outcome"`
	PreviousCount int         `json:"previous_count"`
	NewCount      int         `json:"new_count"`
	Error         string      `json:"error,omitempty"`
}

// PassReport 批量重算的汇总
type PassReport struct {
	Outcomes []Outcome `json:"outcomes"`
}

func (r *PassReport) Count(kind OutcomeKind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

type Recalculator struct {
	goals    GoalStore
	tasks    CompletedTaskCounter
	notifier ProgressNotifier
	clock    calendar.Clock
	loc      *time.Location
	logger   *zap.Logger
}

func NewRecalculator(goals GoalStore, tasks CompletedTaskCounter, notifier ProgressNotifier, clock calendar.Clock, loc *time.Location, logger *zap.Logger) *Recalculator {
	if loc == nil {
		loc = time.UTC
	}
	return &Recalculator{
		goals:    goals,
		tasks:    tasks,
		notifier: notifier,
		clock:    clock,
		loc:      loc,
		logger:   logger,
	}
}

// Recalculate 重新统计一个目标的完成数并整体覆盖 current_count，幂等
func (r *Recalculator) Recalculate(ctx context.Context, goal *model.ProjectGoal) (Outcome, error) {
	out := Outcome{GoalID: goal.ID, PreviousCount: goal.CurrentCount, NewCount: goal.CurrentCount}

	window, ok := ResolveWindow(goal, r.clock.Now(), r.loc)
	if !ok {
		r.logger.Debug("Goal window cannot be resolved",
			zap.String("goal_id", goal.ID.String()),
			zap.String("goal_type", string(goal.GoalType)),
		)
		out.Kind = OutcomeSkippedMissingWindow
		metrics.IncrementGoalRecalculation(string(out.Kind))
		return out, nil
	}

	count, err := r.tasks.CountCompletedInWindow(ctx, goal.ProjectID, window.Start, window.End)
	if err != nil {
		metrics.IncrementGoalRecalculation(string(OutcomeError))
		return out, fmt.Errorf("count completed tasks for goal %s: %w", goal.ID, err)
	}

	if count == goal.CurrentCount {
		out.Kind = OutcomeUnchanged
		metrics.IncrementGoalRecalculation(string(out.Kind))
		return out, nil
	}

	if err := r.goals.UpdateCurrentCount(ctx, goal.ID, count); err != nil {
		metrics.IncrementGoalRecalculation(string(OutcomeError))
		return out, fmt.Errorf("update goal %s: %w", goal.ID, err)
	}

	out.Kind = OutcomeUpdated
	out.NewCount = count
	metrics.IncrementGoalRecalculation(string(out.Kind))

	r.logger.Info("Goal progress updated",
		zap.String("goal_id", goal.ID.String()),
		zap.Int("previous_count", goal.CurrentCount),
		zap.Int("current_count", count),
	)

	if r.notifier != nil {
		r.notifier.GoalProgressUpdated(ctx, contractmq.GoalProgressUpdatedPayload{
			GoalID:        goal.ID.String(),
			ProjectID:     goal.ProjectID.String(),
			GoalType:      string(goal.GoalType),
			PreviousCount: goal.CurrentCount,
			CurrentCount:  count,
			TaskCountGoal: goal.TaskCountGoal,
			WindowStart:   window.Start,
			WindowEnd:     window.End,
			Reached:       count >= goal.TaskCountGoal,
		})
	}
	goal.CurrentCount = count
	return out, nil
}

// RecalculateAll 重算所有启用的目标；单个目标失败记入结果，继续处理其余目标
func (r *Recalculator) RecalculateAll(ctx context.Context) (*PassReport, error) {
	goals, err := r.goals.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return r.pass(ctx, "all", goals), nil
}

// RecalculateProject 任务完成后重算该项目下的目标
func (r *Recalculator) RecalculateProject(ctx context.Context, projectID uuid.UUID) (*PassReport, error) {
	goals, err := r.goals.ListEnabledByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list goals for project %s: %w", projectID, err)
	}
	return r.pass(ctx, "project", goals), nil
}

// RecalculateGoal 目标创建或编辑后重算
func (r *Recalculator) RecalculateGoal(ctx context.Context, goalID uuid.UUID) (Outcome, error) {
	goal, err := r.goals.GetByID(ctx, goalID)
	if err != nil {
		return Outcome{GoalID: goalID, Kind: OutcomeError, Error: err.Error()}, err
	}
	return r.Recalculate(ctx, goal)
}

// BootstrapInitialCounts 只处理 current_count 仍为 0 的 date_period 目标
func (r *Recalculator) BootstrapInitialCounts(ctx context.Context) (*PassReport, error) {
	goals, err := r.goals.ListBootstrapCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bootstrap candidates: %w", err)
	}

	candidates := goals[:0]
	for _, g := range goals {
		if g.GoalType == model.GoalTypeDatePeriod && g.CurrentCount == 0 {
			candidates = append(candidates, g)
		}
	}
	return r.pass(ctx, "bootstrap", candidates), nil
}

func (r *Recalculator) pass(ctx context.Context, scope string, goals []model.ProjectGoal) *PassReport {
	report := &PassReport{Outcomes: make([]Outcome, 0, len(goals))}
	for i := range goals {
		out, err := r.Recalculate(ctx, &goals[i])
		if err != nil {
			r.logger.Error("Goal recalculation failed",
				zap.String("goal_id", goals[i].ID.String()),
				zap.Error(err),
			)
			out.Kind = OutcomeError
			out.Error = err.Error()
		}
		report.Outcomes = append(report.Outcomes, out)
	}

	r.logger.Info("Goal recalculation pass completed",
		zap.String("scope", scope),
		zap.Int("goals", len(goals)),
		zap.Int("updated", report.Count(OutcomeUpdated)),
		zap.Int("errors", report.Count(OutcomeError)),
	)
	return report
}
