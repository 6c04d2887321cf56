package recurrence

import (
	"context"
	"errors"
	"fmt"
	"time"

	contractmq "focusflow/contracts/mq"
	"focusflow/internal/calendar"
	"focusflow/internal/checkstate"
	"focusflow/internal/model"
	"focusflow/pkg/logger"
	"focusflow/pkg/metrics"
	"focusflow/pkg/otel"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var ErrInvalidDayOverride = errors.New("invalid day_of_week override")

type Status string

const (
	StatusGenerated               Status = "generated"
	StatusExistingTasksLogged     Status = "existing_tasks_logged"
	StatusSkippedNotScheduled     Status = "skipped_not_scheduled"
	StatusSkippedOutOfRange       Status = "skipped_out_of_range"
	StatusSkippedAlreadyGenerated Status = "skipped_already_generated"
	StatusSkippedNoTasksNeeded    Status = "skipped_no_tasks_needed"
	StatusSkippedRateLimited      Status = "skipped_rate_limited"
	StatusError                   Status = "error"
)

// SweepRequest Entities 非空时直接使用（可内嵌计划）；否则按 EntityIDs 或全部循环实体加载
type SweepRequest struct {
	ForceCheck  bool
	Entities    []model.RecurringEntity
	EntityIDs   []uuid.UUID
	DayOverride string
}

type EntityResult struct {
	EntityID     uuid.UUID `json:"entity_id"`
	Status       Status    `json:"status"`
	Reason       string    `json:"reason,omitempty"`
	TasksCreated int       `json:"tasks_created,omitempty"`
}

type SweepReport struct {
	ForceCheck bool             `json:"force_check"`
	Day        calendar.DayName `json:"day"`
	Date       time.Time        `json:"date"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Results    []EntityResult   `json:"results"`
}

// StatusCount 按状态统计结果
func (r *SweepReport) StatusCount() map[string]int {
	out := make(map[string]int)
	for _, res := range r.Results {
		out[string(res.Status)]++
	}
	return out
}

type OrchestratorConfig struct {
	Location        *time.Location
	RateLimitWindow time.Duration
}

type Orchestrator struct {
	entities     EntityStore
	schedules    ScheduleStore
	tasks        TaskStore
	gate         *Gate
	materializer *Materializer
	checks       checkstate.Store
	notifier     SweepNotifier
	clock        calendar.Clock
	cfg          OrchestratorConfig
	logger       *zap.Logger
}

func NewOrchestrator(
	entities EntityStore,
	schedules ScheduleStore,
	tasks TaskStore,
	gate *Gate,
	materializer *Materializer,
	checks checkstate.Store,
	notifier SweepNotifier,
	clock calendar.Clock,
	cfg OrchestratorConfig,
	logger *zap.Logger,
) *Orchestrator {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Orchestrator{
		entities:     entities,
		schedules:    schedules,
		tasks:        tasks,
		gate:         gate,
		materializer: materializer,
		checks:       checks,
		notifier:     notifier,
		clock:        clock,
		cfg:          cfg,
		logger:       logger,
	}
}

// RunSweep 依次处理每个实体，单个实体失败只体现在结果里。
// 返回 error 表示整次调用中止，此时没有结果。
func (o *Orchestrator) RunSweep(ctx context.Context, req SweepRequest) (*SweepReport, error) {
	started := o.clock.Now().In(o.cfg.Location)
	today := Today{Time: started, Day: calendar.FromWeekday(started.Weekday())}

	if req.DayOverride != "" {
		day := calendar.NormalizeDay(req.DayOverride)
		if !day.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDayOverride, req.DayOverride)
		}
		today.Day = day
	}

	ctx, span := otel.StartSpan(ctx, "recurrence.sweep")
	defer span.End()
	span.SetAttributes(
		attribute.Bool("recurrence.force_check", req.ForceCheck),
		attribute.String("recurrence.day", today.Day.String()),
	)

	log := logger.WithTrace(ctx, o.logger).With(
		zap.Bool("force_check", req.ForceCheck),
		zap.String("day", today.Day.String()),
		zap.String("date", started.Format("2006-01-02")),
	)
	log.Info("Starting recurrence sweep")

	entities, err := o.loadEntities(ctx, req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("load entities: %w", err)
	}

	ledger, err := checkstate.Begin(ctx, o.checks)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("load check state: %w", err)
	}

	report := &SweepReport{
		ForceCheck: req.ForceCheck,
		Day:        today.Day,
		Date:       calendar.StartOfDay(started),
		StartedAt:  started,
		Results:    make([]EntityResult, 0, len(entities)),
	}

	// 单个实体一旦开始就跑完，不受调用方取消影响
	entityCtx := context.WithoutCancel(ctx)
	for i := range entities {
		result := o.processEntity(entityCtx, ledger, &entities[i], today, req.ForceCheck)
		metrics.IncrementSweepResult(string(result.Status))
		report.Results = append(report.Results, result)
	}

	if err := ledger.Commit(entityCtx, o.checks); err != nil {
		log.Warn("Failed to persist check state", zap.Error(err))
	}

	report.FinishedAt = o.clock.Now().In(o.cfg.Location)
	metrics.RecordSweepDuration(req.ForceCheck, report.FinishedAt.Sub(report.StartedAt))

	log.Info("Recurrence sweep completed",
		zap.Int("entities", len(entities)),
		zap.Any("status_count", report.StatusCount()),
	)

	if o.notifier != nil {
		o.notifier.SweepCompleted(entityCtx, report.toPayload())
	}
	return report, nil
}

func (o *Orchestrator) loadEntities(ctx context.Context, req SweepRequest) ([]model.RecurringEntity, error) {
	switch {
	case len(req.Entities) > 0:
		out := make([]model.RecurringEntity, len(req.Entities))
		copy(out, req.Entities)
		return out, nil
	case len(req.EntityIDs) > 0:
		return o.entities.ListByIDs(ctx, req.EntityIDs)
	default:
		return o.entities.ListRecurring(ctx)
	}
}

func (o *Orchestrator) processEntity(ctx context.Context, ledger *checkstate.Ledger, entity *model.RecurringEntity, today Today, force bool) EntityResult {
	result := EntityResult{EntityID: entity.ID}
	log := o.logger.With(
		zap.String("entity_id", entity.ID.String()),
		zap.String("entity_name", entity.Name),
	)

	now := o.clock.Now()
	if last := ledger.LastCheck(entity.ID); calendar.IsWithinRateLimitWindow(last, now, o.cfg.RateLimitWindow, force) {
		result.Status = StatusSkippedRateLimited
		result.Reason = fmt.Sprintf("checked %s ago", now.Sub(*last).Truncate(time.Second))
		return result
	}
	ledger.Touch(entity.ID, now)

	fail := func(stage string, err error) EntityResult {
		log.Error("Recurrence entity failed", zap.String("stage", stage), zap.Error(err))
		result.Status = StatusError
		result.Reason = fmt.Sprintf("%s: %v", stage, err)
		return result
	}

	schedule := entity.Schedule
	if schedule == nil {
		s, err := o.schedules.GetSchedule(ctx, entity.ID)
		if err != nil {
			return fail("load schedule", err)
		}
		schedule = s
	}

	decision, err := o.gate.Evaluate(ctx, entity, schedule, today, force)
	if err != nil {
		return fail("gate", err)
	}
	switch decision {
	case DecisionSkipNotScheduled:
		result.Status = StatusSkippedNotScheduled
		result.Reason = fmt.Sprintf("not scheduled on %s", today.Day)
		return result
	case DecisionSkipOutOfRange:
		result.Status = StatusSkippedOutOfRange
		result.Reason = "today is outside the entity's date range"
		return result
	case DecisionSkipAlreadyGenerated:
		result.Status = StatusSkippedAlreadyGenerated
		result.Reason = "tasks already generated today"
		return result
	}

	dayStart, dayEnd := calendar.ResolveDayBounds(today.Time)
	names, err := o.tasks.TodayTaskNames(ctx, entity, dayStart, dayEnd)
	if err != nil {
		return fail("count today's tasks", err)
	}

	goalCount := entity.DailyTaskCount
	if schedule != nil && schedule.DailyTaskCount > 0 {
		goalCount = schedule.DailyTaskCount
	}

	plan := o.materializer.Plan(entity, len(names), goalCount, names, today.Time, force)
	if len(plan.Tasks) == 0 && plan.Log == nil {
		result.Status = StatusSkippedNoTasksNeeded
		result.Reason = plan.SkipReason
		return result
	}

	created, err := o.materializer.Apply(ctx, plan)
	result.TasksCreated = created
	metrics.AddTaskGeneration(string(entity.Kind), created)
	if err != nil {
		return fail("materialize", err)
	}

	if plan.LogsExistingTasks() {
		result.Status = StatusExistingTasksLogged
		result.Reason = plan.SkipReason
		return result
	}

	result.Status = StatusGenerated
	log.Info("Recurring tasks generated", zap.Int("tasks_created", created))
	return result
}

func (r *SweepReport) toPayload() contractmq.SweepCompletedPayload {
	results := make([]contractmq.SweepEntityResult, 0, len(r.Results))
	for _, res := range r.Results {
		results = append(results, contractmq.SweepEntityResult{
			EntityID:     res.EntityID.String(),
			Status:       string(res.Status),
			Reason:       res.Reason,
			TasksCreated: res.TasksCreated,
		})
	}
	return contractmq.SweepCompletedPayload{
		ForceCheck:  r.ForceCheck,
		Day:         r.Day.String(),
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		Results:     results,
		StatusCount: r.StatusCount(),
	}
}
