package repository

import (
	"context"
	"fmt"
	"time"

	contractmq "focusflow/contracts/mq"
	"focusflow/internal/model"
	"focusflow/pkg/otel"
	"focusflow/pkg/outbox"
	"focusflow/pkg/trace"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type TaskRepository struct {
	db         *pgxpool.Pool
	outboxRepo *outbox.Repository
	logger     *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, outboxRepo *outbox.Repository, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{
		db:         db,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// TodayTaskNames 返回实体在 [dayStart, dayEnd] 内开始的任务名
func (r *TaskRepository) TodayTaskNames(ctx context.Context, entity *model.RecurringEntity, dayStart, dayEnd time.Time) ([]string, error) {
	column := "project_id"
	if entity.Kind == model.EntityKindTaskList {
		column = "task_list_id"
	}

	query := fmt.Sprintf(`
        SELECT task_name FROM tasks
        WHERE %s = $1
          AND start_time BETWEEN $2 AND $3
    `, column)

	rows, err := r.db.Query(ctx, query, entity.ID, dayStart, dayEnd)
	if err != nil {
		r.logger.Error("Failed to list today's tasks",
			zap.String("entity_id", entity.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// CreateGenerated 在一个事务里批量插入任务，并写入 recurrence.tasks.generated outbox 事件
func (r *TaskRepository) CreateGenerated(ctx context.Context, entity *model.RecurringEntity, day time.Time, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	return otel.WithDBSpan(ctx, "insert", "tasks.create_generated", func(ctx context.Context) error {
		tx, err := r.db.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx) //nolint:errcheck

		batch := &pgx.Batch{}
		ids := make([]string, 0, len(tasks))
		names := make([]string, 0, len(tasks))
		for i := range tasks {
			t := &tasks[i]
			if t.ID == uuid.Nil {
				t.ID = uuid.New()
			}
			batch.Queue(`
                INSERT INTO tasks (id, task_name, progress, start_time, end_time, task_list_id, project_id)
                VALUES ($1, $2, $3, $4, $5, $6, $7)
            `, t.ID, t.TaskName, t.Progress, t.StartTime, t.EndTime, t.TaskListID, t.ProjectID)
			ids = append(ids, t.ID.String())
			names = append(names, t.TaskName)
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			r.logger.Error("Failed to insert generated tasks",
				zap.String("entity_id", entity.ID.String()),
				zap.Int("count", len(tasks)),
				zap.Error(err),
			)
			return fmt.Errorf("insert tasks: %w", err)
		}

		payload := contractmq.TasksGeneratedPayload{
			EntityID:       entity.ID.String(),
			EntityKind:     string(entity.Kind),
			GenerationDate: day.Format("2006-01-02"),
			TaskIDs:        ids,
			TaskNames:      names,
			GeneratedAt:    time.Now().UTC(),
			TraceID:        trace.FromContext(ctx),
		}
		if err := outbox.InsertEventInTx(ctx, tx, r.outboxRepo, string(entity.Kind), entity.ID.String(),
			contractmq.RoutingKeyTasksGenerated, payload); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit: %w", err)
		}

		r.logger.Info("Generated tasks created",
			zap.String("entity_id", entity.ID.String()),
			zap.Strings("task_names", names),
		)
		return nil
	})
}

// CountCompletedInWindow 统计项目在 [start, end] 内开始且已完成的任务数（两端都包含）
func (r *TaskRepository) CountCompletedInWindow(ctx context.Context, projectID uuid.UUID, start, end time.Time) (int, error) {
	query := `
        SELECT COUNT(*) FROM tasks
        WHERE project_id = $1
          AND progress = $2
          AND date_started BETWEEN $3 AND $4
    `
	var count int
	err := otel.WithDBSpan(ctx, "select", "tasks.count_completed_in_window", func(ctx context.Context) error {
		return r.db.QueryRow(ctx, query, projectID, model.ProgressCompleted, start, end).Scan(&count)
	})
	if err != nil {
		r.logger.Error("Failed to count completed tasks",
			zap.String("project_id", projectID.String()),
			zap.Error(err),
		)
		return 0, err
	}
	return count, nil
}
