package recurrence

import (
	"context"
	"time"

	contractmq "focusflow/contracts/mq"
	"focusflow/internal/model"

	"github.com/google/uuid"
)

// EntityStore 由 repository.EntityRepository 实现
type EntityStore interface {
	ListRecurring(ctx context.Context) ([]model.RecurringEntity, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.RecurringEntity, error)
}

// EntityRenamer 给过期实体追加 "(overdue)"，实现必须幂等
type EntityRenamer interface {
	RenameOverdue(ctx context.Context, entity *model.RecurringEntity) error
}

type ScheduleStore interface {
	GetSchedule(ctx context.Context, entityID uuid.UUID) (*model.RecurrenceSchedule, error)
}

type GenerationLogStore interface {
	ExistsForDay(ctx context.Context, entityID uuid.UUID, dayStart, dayEnd time.Time) (bool, error)
	Insert(ctx context.Context, entry *model.GenerationLogEntry) error
}

type TaskStore interface {
	TodayTaskNames(ctx context.Context, entity *model.RecurringEntity, dayStart, dayEnd time.Time) ([]string, error)
	CreateGenerated(ctx context.Context, entity *model.RecurringEntity, day time.Time, tasks []model.Task) error
}

// SweepNotifier 发布 sweep 完成通知，失败只记日志
type SweepNotifier interface {
	SweepCompleted(ctx context.Context, payload contractmq.SweepCompletedPayload)
}
