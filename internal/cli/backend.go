package cli

import (
	"context"
	"fmt"

	dbcontracts "focusflow/contracts/db"
	"focusflow/internal/app"
	"focusflow/internal/config"
	"focusflow/internal/model"
	"focusflow/internal/service/goal"
	"focusflow/internal/service/recurrence"
	"focusflow/pkg/db"
	"focusflow/pkg/outbox"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Backend 命令行可调用的全部操作
type Backend interface {
	RunSweep(ctx context.Context, req recurrence.SweepRequest) (*recurrence.SweepReport, error)
	RecalculateAll(ctx context.Context) (*goal.PassReport, error)
	RecalculateGoal(ctx context.Context, goalID uuid.UUID) (goal.Outcome, error)
	BootstrapInitialCounts(ctx context.Context) (*goal.PassReport, error)
	UpsertSchedule(ctx context.Context, s *model.RecurrenceSchedule) error
	ReplayEvent(ctx context.Context, eventID int64) error
	ReplayFailedEvents(ctx context.Context, limit int) (int, error)
	Close()
}

// Migrator 只需要数据库连接
type Migrator interface {
	Migrate(ctx context.Context) error
	Close()
}

type Factory struct {
	Backend  func(ctx context.Context) (Backend, error)
	Migrator func(ctx context.Context) (Migrator, error)
}

// appBackend 基于完整依赖（DB + MQ + Redis）的实现
type appBackend struct {
	*app.App
	replay *outbox.ReplayService
}

func (b *appBackend) RunSweep(ctx context.Context, req recurrence.SweepRequest) (*recurrence.SweepReport, error) {
	return b.Orchestrator.RunSweep(ctx, req)
}

func (b *appBackend) RecalculateAll(ctx context.Context) (*goal.PassReport, error) {
	return b.Recalculator.RecalculateAll(ctx)
}

func (b *appBackend) RecalculateGoal(ctx context.Context, goalID uuid.UUID) (goal.Outcome, error) {
	return b.Recalculator.RecalculateGoal(ctx, goalID)
}

func (b *appBackend) BootstrapInitialCounts(ctx context.Context) (*goal.PassReport, error) {
	return b.Recalculator.BootstrapInitialCounts(ctx)
}

func (b *appBackend) UpsertSchedule(ctx context.Context, s *model.RecurrenceSchedule) error {
	return b.Schedules.Upsert(ctx, s)
}

func (b *appBackend) ReplayEvent(ctx context.Context, eventID int64) error {
	return b.replay.ReplayEvent(ctx, eventID)
}

func (b *appBackend) ReplayFailedEvents(ctx context.Context, limit int) (int, error) {
	return b.replay.ReplayFailedEvents(ctx, limit)
}

type dbMigrator struct {
	db     interface{ Close() }
	exec   func(ctx context.Context, sql string) error
	logger *zap.Logger
}

func (m *dbMigrator) Migrate(ctx context.Context) error {
	if err := m.exec(ctx, dbcontracts.Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	m.logger.Info("Schema applied")
	return nil
}

func (m *dbMigrator) Close() { m.db.Close() }

// DefaultFactory 从 config/ 加载配置并连接真实依赖
func DefaultFactory(logger *zap.Logger) Factory {
	return Factory{
		Backend: func(ctx context.Context) (Backend, error) {
			cfg, err := config.Load()
			if err != nil {
				return nil, err
			}
			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return nil, err
			}
			return &appBackend{
				App:    a,
				replay: outbox.NewReplayService(a.Outbox, a.Publisher, logger),
			}, nil
		},
		Migrator: func(ctx context.Context) (Migrator, error) {
			cfg, err := config.Load()
			if err != nil {
				return nil, err
			}
			pool, err := db.NewConnection(ctx, cfg.DB, logger)
			if err != nil {
				return nil, err
			}
			return &dbMigrator{
				db: pool,
				exec: func(ctx context.Context, sql string) error {
					_, err := pool.Exec(ctx, sql)
					return err
				},
				logger: logger,
			}, nil
		},
	}
}
