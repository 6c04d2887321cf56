package repository

import (
	"context"
	"errors"

	"focusflow/internal/calendar"
	"focusflow/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type ScheduleRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewScheduleRepository(db *pgxpool.Pool, logger *zap.Logger) *ScheduleRepository {
	return &ScheduleRepository{
		db:     db,
		logger: logger,
	}
}

// GetSchedule 没有计划行时返回 (nil, nil)
func (r *ScheduleRepository) GetSchedule(ctx context.Context, entityID uuid.UUID) (*model.RecurrenceSchedule, error) {
	query := `
        SELECT entity_id, enabled, days_of_week, daily_task_count, updated_at
        FROM recurring_schedules
        WHERE entity_id = $1
    `
	var s model.RecurrenceSchedule
	var days []string
	err := r.db.QueryRow(ctx, query, entityID).Scan(
		&s.EntityID,
		&s.Enabled,
		&days,
		&s.DailyTaskCount,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get schedule",
			zap.String("entity_id", entityID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.DaysOfWeek = calendar.ParseDays(days, r.logger.With(zap.String("entity_id", entityID.String())))
	return &s, nil
}

// Upsert 写入或覆盖一个实体的计划（仅用于数据修复命令）
func (r *ScheduleRepository) Upsert(ctx context.Context, s *model.RecurrenceSchedule) error {
	days := make([]string, 0, len(s.DaysOfWeek))
	for _, d := range s.DaysOfWeek {
		days = append(days, d.String())
	}

	query := `
        INSERT INTO recurring_schedules (entity_id, enabled, days_of_week, daily_task_count, updated_at)
        VALUES ($1, $2, $3, $4, NOW())
        ON CONFLICT (entity_id) DO UPDATE
        SET enabled = EXCLUDED.enabled,
            days_of_week = EXCLUDED.days_of_week,
            daily_task_count = EXCLUDED.daily_task_count,
            updated_at = NOW()
    `
	if _, err := r.db.Exec(ctx, query, s.EntityID, s.Enabled, days, s.DailyTaskCount); err != nil {
		r.logger.Error("Failed to upsert schedule",
			zap.String("entity_id", s.EntityID.String()),
			zap.Error(err),
		)
		return err
	}

	r.logger.Info("Schedule upserted",
		zap.String("entity_id", s.EntityID.String()),
		zap.Strings("days_of_week", days),
		zap.Bool("enabled", s.Enabled),
	)
	return nil
}
