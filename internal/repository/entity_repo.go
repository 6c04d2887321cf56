package repository

import (
	"context"
	"fmt"

	"focusflow/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// EntityRepository 读取可循环生成任务的项目和任务清单
type EntityRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewEntityRepository(db *pgxpool.Pool, logger *zap.Logger) *EntityRepository {
	return &EntityRepository{
		db:     db,
		logger: logger,
	}
}

const recurringEntitiesQuery = `
        SELECT id, 'project' AS kind, name, task_list_id, start_date, due_date, daily_task_count
        FROM projects
        WHERE is_recurring = TRUE
        UNION ALL
        SELECT id, 'task_list' AS kind, name, NULL::uuid, start_date, due_date, daily_task_count
        FROM task_lists
        WHERE is_recurring = TRUE
`

// ListRecurring 返回所有开启循环的实体
func (r *EntityRepository) ListRecurring(ctx context.Context) ([]model.RecurringEntity, error) {
	r.logger.Debug("Listing recurring entities")

	query := `SELECT * FROM (` + recurringEntitiesQuery + `) e ORDER BY name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list recurring entities", zap.Error(err))
		return nil, err
	}
	return scanEntities(rows)
}

// ListByIDs 只返回给定 id 中开启循环的实体
func (r *EntityRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.RecurringEntity, error) {
	r.logger.Debug("Listing recurring entities by id", zap.Int("count", len(ids)))

	query := `SELECT * FROM (` + recurringEntitiesQuery + `) e WHERE id = ANY($1) ORDER BY name`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error("Failed to list recurring entities by id", zap.Error(err))
		return nil, err
	}
	return scanEntities(rows)
}

func scanEntities(rows pgx.Rows) ([]model.RecurringEntity, error) {
	defer rows.Close()

	var entities []model.RecurringEntity
	for rows.Next() {
		var e model.RecurringEntity
		var kind string
		if err := rows.Scan(
			&e.ID,
			&kind,
			&e.Name,
			&e.TaskListID,
			&e.StartDate,
			&e.DueDate,
			&e.DailyTaskCount,
		); err != nil {
			return nil, err
		}
		e.Kind = model.EntityKind(kind)
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// RenameOverdue 追加 "(overdue)" 标记；已带标记的行不会被更新，所以重复调用是幂等的
func (r *EntityRepository) RenameOverdue(ctx context.Context, entity *model.RecurringEntity) error {
	table, err := entityTable(entity.Kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
        UPDATE %s
        SET name = name || ' ' || $2::text, updated_at = NOW()
        WHERE id = $1
          AND position($2::text in name) = 0
    `, table)

	result, err := r.db.Exec(ctx, query, entity.ID, model.OverdueMarker)
	if err != nil {
		r.logger.Error("Failed to mark entity overdue",
			zap.String("entity_id", entity.ID.String()),
			zap.Error(err),
		)
		return err
	}

	if result.RowsAffected() > 0 {
		r.logger.Info("Marked entity overdue",
			zap.String("entity_id", entity.ID.String()),
			zap.String("kind", string(entity.Kind)),
		)
	}
	return nil
}

func entityTable(kind model.EntityKind) (string, error) {
	switch kind {
	case model.EntityKindProject:
		return "projects", nil
	case model.EntityKindTaskList:
		return "task_lists", nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", kind)
	}
}
