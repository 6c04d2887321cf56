package repository

import (
	"context"
	"time"

	"focusflow/internal/model"
	"focusflow/pkg/otel"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type GenerationLogRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewGenerationLogRepository(db *pgxpool.Pool, logger *zap.Logger) *GenerationLogRepository {
	return &GenerationLogRepository{
		db:     db,
		logger: logger,
	}
}

// ExistsForDay 判断实体在 [dayStart, dayEnd] 内是否已有生成记录
func (r *GenerationLogRepository) ExistsForDay(ctx context.Context, entityID uuid.UUID, dayStart, dayEnd time.Time) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM generation_logs
            WHERE entity_id = $1
              AND generation_date BETWEEN $2 AND $3
        )
    `
	var exists bool
	err := otel.WithDBSpan(ctx, "select", "generation_logs.exists_for_day", func(ctx context.Context) error {
		return r.db.QueryRow(ctx, query, entityID, dayStart, dayEnd).Scan(&exists)
	})
	if err != nil {
		r.logger.Error("Failed to check generation log",
			zap.String("entity_id", entityID.String()),
			zap.Error(err),
		)
		return false, err
	}
	return exists, nil
}

func (r *GenerationLogRepository) Insert(ctx context.Context, entry *model.GenerationLogEntry) error {
	query := `
        INSERT INTO generation_logs (entity_id, generation_date, tasks_generated)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `
	err := otel.WithDBSpan(ctx, "insert", "generation_logs.insert", func(ctx context.Context) error {
		return r.db.QueryRow(ctx, query, entry.EntityID, entry.GenerationDate, entry.TasksGenerated).
			Scan(&entry.ID, &entry.CreatedAt)
	})
	if err != nil {
		r.logger.Error("Failed to insert generation log",
			zap.String("entity_id", entry.EntityID.String()),
			zap.Error(err),
		)
		return err
	}

	r.logger.Info("Generation log recorded",
		zap.String("entity_id", entry.EntityID.String()),
		zap.Time("generation_date", entry.GenerationDate),
		zap.Int("tasks_generated", entry.TasksGenerated),
	)
	return nil
}
