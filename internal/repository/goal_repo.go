package repository

import (
	"context"
	"errors"

	"focusflow/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type GoalRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewGoalRepository(db *pgxpool.Pool, logger *zap.Logger) *GoalRepository {
	return &GoalRepository{
		db:     db,
		logger: logger,
	}
}

const goalColumns = `id, project_id, goal_type, start_date, end_date, task_count_goal,
               current_count, reward, is_enabled, updated_at`

func scanGoal(row pgx.Row) (*model.ProjectGoal, error) {
	var g model.ProjectGoal
	var goalType string
	if err := row.Scan(
		&g.ID,
		&g.ProjectID,
		&goalType,
		&g.StartDate,
		&g.EndDate,
		&g.TaskCountGoal,
		&g.CurrentCount,
		&g.Reward,
		&g.IsEnabled,
		&g.UpdatedAt,
	); err != nil {
		return nil, err
	}
	g.GoalType = model.GoalType(goalType)
	return &g, nil
}

func (r *GoalRepository) listGoals(ctx context.Context, query string, args ...any) ([]model.ProjectGoal, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list goals", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var goals []model.ProjectGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

// ListEnabled 所有启用的目标
func (r *GoalRepository) ListEnabled(ctx context.Context) ([]model.ProjectGoal, error) {
	return r.listGoals(ctx, `
        SELECT `+goalColumns+`
        FROM project_goals
        WHERE is_enabled = TRUE
        ORDER BY created_at
    `)
}

// ListEnabledByProject 某项目下启用的目标
func (r *GoalRepository) ListEnabledByProject(ctx context.Context, projectID uuid.UUID) ([]model.ProjectGoal, error) {
	return r.listGoals(ctx, `
        SELECT `+goalColumns+`
        FROM project_goals
        WHERE is_enabled = TRUE AND project_id = $1
        ORDER BY created_at
    `, projectID)
}

// ListBootstrapCandidates 计数仍为 0 的 date_period 目标
func (r *GoalRepository) ListBootstrapCandidates(ctx context.Context) ([]model.ProjectGoal, error) {
	return r.listGoals(ctx, `
        SELECT `+goalColumns+`
        FROM project_goals
        WHERE is_enabled = TRUE
          AND goal_type = $1
          AND current_count = 0
        ORDER BY created_at
    `, string(model.GoalTypeDatePeriod))
}

func (r *GoalRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ProjectGoal, error) {
	g, err := scanGoal(r.db.QueryRow(ctx, `
        SELECT `+goalColumns+`
        FROM project_goals
        WHERE id = $1
    `, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrGoalNotFound
		}
		r.logger.Error("Failed to get goal", zap.String("goal_id", id.String()), zap.Error(err))
		return nil, err
	}
	return g, nil
}

// UpdateCurrentCount 直接覆盖 current_count，不做增量
func (r *GoalRepository) UpdateCurrentCount(ctx context.Context, id uuid.UUID, count int) error {
	result, err := r.db.Exec(ctx, `
        UPDATE project_goals
        SET current_count = $2, updated_at = NOW()
        WHERE id = $1
    `, id, count)
	if err != nil {
		r.logger.Error("Failed to update goal count",
			zap.String("goal_id", id.String()),
			zap.Error(err),
		)
		return err
	}
	if result.RowsAffected() == 0 {
		return model.ErrGoalNotFound
	}

	r.logger.Info("Goal count updated",
		zap.String("goal_id", id.String()),
		zap.Int("current_count", count),
	)
	return nil
}
