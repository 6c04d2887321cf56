package recurrence

import (
	"context"
	"fmt"
	"time"

	"focusflow/internal/calendar"
	"focusflow/internal/model"

	"go.uber.org/zap"
)

type GateDecision int

const (
	DecisionRun GateDecision = iota
	DecisionSkipNotScheduled
	DecisionSkipOutOfRange
	DecisionSkipAlreadyGenerated
)

func (d GateDecision) String() string {
	switch d {
	case DecisionRun:
		return "run"
	case DecisionSkipNotScheduled:
		return "skip_not_scheduled"
	case DecisionSkipOutOfRange:
		return "skip_out_of_range"
	case DecisionSkipAlreadyGenerated:
		return "skip_already_generated"
	default:
		return "unknown"
	}
}

// UnscheduledPolicy 决定没有计划行的实体是否每天都可生成
type UnscheduledPolicy int

const (
	// UnscheduledAllow 历史默认：从未配置过计划的实体每天都可生成
	UnscheduledAllow UnscheduledPolicy = iota
	UnscheduledSkip
)

// PolicyFromConfig 把 recurrence.allow_unscheduled 转为策略
func PolicyFromConfig(allowUnscheduled bool) UnscheduledPolicy {
	if allowUnscheduled {
		return UnscheduledAllow
	}
	return UnscheduledSkip
}

// Today 一次 sweep 的参考日：Time 为参考时区下的当前时刻，Day 可被请求覆盖
type Today struct {
	Time time.Time
	Day  calendar.DayName
}

type Gate struct {
	logs    GenerationLogStore
	renamer EntityRenamer
	policy  UnscheduledPolicy
	logger  *zap.Logger
}

func NewGate(logs GenerationLogStore, renamer EntityRenamer, policy UnscheduledPolicy, logger *zap.Logger) *Gate {
	return &Gate{
		logs:    logs,
		renamer: renamer,
		policy:  policy,
		logger:  logger,
	}
}

// Evaluate 判断实体今天是否需要生成任务。只有查询生成日志失败会返回 error
func (g *Gate) Evaluate(ctx context.Context, entity *model.RecurringEntity, schedule *model.RecurrenceSchedule, today Today, force bool) (GateDecision, error) {
	log := g.logger.With(zap.String("entity_id", entity.ID.String()))

	if !force {
		if schedule == nil {
			if g.policy == UnscheduledSkip {
				log.Debug("No schedule and unscheduled entities are disabled")
				return DecisionSkipNotScheduled, nil
			}
		} else if !schedule.Enabled || !schedule.HasDay(today.Day) {
			log.Debug("Not scheduled today",
				zap.Bool("enabled", schedule.Enabled),
				zap.String("day", today.Day.String()),
			)
			return DecisionSkipNotScheduled, nil
		}
	}

	loc := today.Time.Location()
	if entity.StartDate != nil && today.Time.Before(calendar.StartOfDay(entity.StartDate.In(loc))) {
		return DecisionSkipOutOfRange, nil
	}
	if entity.DueDate != nil && today.Time.After(calendar.EndOfDay(entity.DueDate.In(loc))) {
		g.markOverdue(ctx, entity, log)
		return DecisionSkipOutOfRange, nil
	}

	if !force {
		dayStart, dayEnd := calendar.ResolveDayBounds(today.Time)
		exists, err := g.logs.ExistsForDay(ctx, entity.ID, dayStart, dayEnd)
		if err != nil {
			return DecisionRun, fmt.Errorf("check generation log: %w", err)
		}
		if exists {
			return DecisionSkipAlreadyGenerated, nil
		}
	}

	return DecisionRun, nil
}

// markOverdue 失败只记日志，不影响本次判断
func (g *Gate) markOverdue(ctx context.Context, entity *model.RecurringEntity, log *zap.Logger) {
	if entity.IsOverdueMarked() || g.renamer == nil {
		return
	}
	if err := g.renamer.RenameOverdue(ctx, entity); err != nil {
		log.Warn("Failed to mark entity overdue", zap.Error(err))
		return
	}
	entity.Name = entity.OverdueName()
}
