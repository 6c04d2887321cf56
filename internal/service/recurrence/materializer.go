package recurrence

import (
	"context"
	"fmt"
	"time"

	"focusflow/internal/calendar"
	"focusflow/internal/model"

	"go.uber.org/zap"
)

// MaterializerConfig 生成任务的时间安排
type MaterializerConfig struct {
	AnchorHour    int           // 第一个任务的开始小时
	SlotIncrement time.Duration // 第 i 个任务相对锚点的偏移步长
	TaskDuration  time.Duration
}

func DefaultMaterializerConfig() MaterializerConfig {
	return MaterializerConfig{
		AnchorHour:    9,
		SlotIncrement: time.Hour,
		TaskDuration:  time.Hour,
	}
}

// Plan 一个实体今天要写入的内容；Tasks 为空且 Log 为 nil 表示无事可做
type Plan struct {
	Entity         *model.RecurringEntity
	Day            time.Time // 参考时区下当天零点
	TodayTaskCount int
	Needed         int
	Tasks          []model.Task
	Log            *model.GenerationLogEntry
	SkipReason     string
}

// LogsExistingTasks 今天已有任务，只记录日志不生成
func (p Plan) LogsExistingTasks() bool {
	return len(p.Tasks) == 0 && p.Log != nil
}

type Materializer struct {
	tasks  TaskStore
	logs   GenerationLogStore
	cfg    MaterializerConfig
	logger *zap.Logger
}

func NewMaterializer(tasks TaskStore, logs GenerationLogStore, cfg MaterializerConfig, logger *zap.Logger) *Materializer {
	return &Materializer{
		tasks:  tasks,
		logs:   logs,
		cfg:    cfg,
		logger: logger,
	}
}

// Plan 计算需要生成的任务，不做任何写入
func (m *Materializer) Plan(entity *model.RecurringEntity, todayTaskCount, goalCount int, existingNames []string, today time.Time, force bool) Plan {
	day := calendar.StartOfDay(today)
	plan := Plan{
		Entity:         entity,
		Day:            day,
		TodayTaskCount: todayTaskCount,
		Needed:         max(0, goalCount-todayTaskCount),
	}

	switch {
	case plan.Needed > 0:
		plan.Tasks = m.buildTasks(entity, plan.Needed, existingNames, day)
		plan.Log = &model.GenerationLogEntry{
			EntityID:       entity.ID,
			GenerationDate: day,
			TasksGenerated: len(plan.Tasks),
		}
	case todayTaskCount > 0 && !force:
		plan.Log = &model.GenerationLogEntry{
			EntityID:       entity.ID,
			GenerationDate: day,
			TasksGenerated: todayTaskCount,
		}
		plan.SkipReason = fmt.Sprintf("%d task(s) already exist today", todayTaskCount)
	default:
		plan.SkipReason = fmt.Sprintf("daily goal %d already met by %d task(s)", goalCount, todayTaskCount)
	}
	return plan
}

func (m *Materializer) buildTasks(entity *model.RecurringEntity, needed int, existingNames []string, day time.Time) []model.Task {
	taken := make(map[string]struct{}, len(existingNames)+needed)
	for _, n := range existingNames {
		taken[n] = struct{}{}
	}

	projectID, taskListID := entity.TaskTarget()
	anchor := time.Date(day.Year(), day.Month(), day.Day(), m.cfg.AnchorHour, 0, 0, 0, day.Location())

	tasks := make([]model.Task, 0, needed)
	for i := 0; i < needed; i++ {
		name := uniqueName(fmt.Sprintf("%s - Task %d", entity.Name, i+1), taken)
		taken[name] = struct{}{}

		start := anchor.Add(time.Duration(i) * m.cfg.SlotIncrement)
		tasks = append(tasks, model.Task{
			TaskName:   name,
			Progress:   model.ProgressNotStarted,
			StartTime:  start,
			EndTime:    start.Add(m.cfg.TaskDuration),
			TaskListID: taskListID,
			ProjectID:  projectID,
		})
	}
	return tasks
}

// uniqueName 冲突时追加 " (n)"，n 从 1 递增
func uniqueName(candidate string, taken map[string]struct{}) string {
	if _, ok := taken[candidate]; !ok {
		return candidate
	}
	for n := 1; ; n++ {
		name := fmt.Sprintf("%s (%d)", candidate, n)
		if _, ok := taken[name]; !ok {
			return name
		}
	}
}

// Apply 先批量写任务，再写生成日志；返回已创建的任务数
// 任务写入失败不写日志，下次 sweep 可以重试；日志写入失败时任务已存在，返回的数量仍有效
func (m *Materializer) Apply(ctx context.Context, plan Plan) (int, error) {
	created := 0
	if len(plan.Tasks) > 0 {
		if err := m.tasks.CreateGenerated(ctx, plan.Entity, plan.Day, plan.Tasks); err != nil {
			return 0, fmt.Errorf("create tasks: %w", err)
		}
		created = len(plan.Tasks)
	}

	if plan.Log != nil {
		if err := m.logs.Insert(ctx, plan.Log); err != nil {
			m.logger.Error("Tasks created but generation log failed",
				zap.String("entity_id", plan.Entity.ID.String()),
				zap.Int("tasks_created", created),
				zap.Error(err),
			)
			return created, fmt.Errorf("record generation log: %w", err)
		}
	}
	return created, nil
}
