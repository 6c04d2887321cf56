// Package app 装配 recurrence-runner 和 recurctl 共用的依赖
package app

import (
	"context"
	"fmt"
	"time"

	"focusflow/internal/calendar"
	"focusflow/internal/checkstate"
	"focusflow/internal/config"
	"focusflow/internal/notify"
	"focusflow/internal/repository"
	"focusflow/internal/service/goal"
	"focusflow/internal/service/recurrence"
	"focusflow/pkg/db"
	"focusflow/pkg/mq"
	"focusflow/pkg/outbox"
	pkgredis "focusflow/pkg/redis"
	"focusflow/pkg/util"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type App struct {
	Cfg    *config.Config
	Logger *zap.Logger

	DB        *pgxpool.Pool
	Redis     *redis.Client // Redis 不可用时为 nil
	Publisher *mq.Publisher

	Outbox       *outbox.Repository
	Schedules    *repository.ScheduleRepository
	Orchestrator *recurrence.Orchestrator
	Recalculator *goal.Recalculator
	RetryCounter *util.RetryCounter // Redis 不可用时为 nil
}

// New 连接 DB / MQ / Redis 并构造服务。Redis 是可选的：
// 不可用时 check state 退回内存，MQ 重试次数不再计数
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	loc, err := cfg.Recurrence.Location()
	if err != nil {
		return nil, err
	}

	dbConn, err := db.NewConnection(ctx, cfg.DB, logger)
	if err != nil {
		return nil, err
	}

	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("failed to init MQ publisher: %w", err)
	}

	a := &App{
		Cfg:       cfg,
		Logger:    logger,
		DB:        dbConn,
		Publisher: publisher,
	}

	checks := a.checkStateStore(ctx)

	// Repositories
	a.Outbox = outbox.NewRepository(dbConn)
	entityRepo := repository.NewEntityRepository(dbConn, logger)
	a.Schedules = repository.NewScheduleRepository(dbConn, logger)
	logRepo := repository.NewGenerationLogRepository(dbConn, logger)
	taskRepo := repository.NewTaskRepository(dbConn, a.Outbox, logger)
	goalRepo := repository.NewGoalRepository(dbConn, logger)

	// Services
	notifier := notify.NewNotifier(publisher, logger)
	clock := calendar.RealClock{}

	gate := recurrence.NewGate(logRepo, entityRepo, recurrence.PolicyFromConfig(cfg.Recurrence.AllowUnscheduled), logger)
	materializer := recurrence.NewMaterializer(taskRepo, logRepo, recurrence.MaterializerConfig{
		AnchorHour:    cfg.Recurrence.AnchorHour,
		SlotIncrement: cfg.Recurrence.SlotIncrement,
		TaskDuration:  cfg.Recurrence.TaskDuration,
	}, logger)
	a.Orchestrator = recurrence.NewOrchestrator(
		entityRepo, a.Schedules, taskRepo, gate, materializer, checks, notifier, clock,
		recurrence.OrchestratorConfig{Location: loc, RateLimitWindow: cfg.Recurrence.RateLimitWindow},
		logger,
	)
	a.Recalculator = goal.NewRecalculator(goalRepo, taskRepo, notifier, clock, loc, logger)

	return a, nil
}

func (a *App) checkStateStore(ctx context.Context) checkstate.Store {
	if a.Cfg.CheckState.Backend == "memory" {
		a.Logger.Info("Using in-memory check state")
		return checkstate.NewMemoryStore()
	}

	rdb, err := pkgredis.NewRedisClient(ctx, a.Cfg.Redis)
	if err != nil {
		a.Logger.Warn("Redis unavailable, falling back to in-memory check state", zap.Error(err))
		if rdb != nil {
			_ = rdb.Close()
		}
		return checkstate.NewMemoryStore()
	}

	a.Redis = rdb
	a.RetryCounter = util.NewRetryCounter(rdb, time.Hour)
	return checkstate.NewRedisStore(rdb, a.Cfg.CheckState.Key, a.Cfg.CheckState.TTL, a.Logger)
}

func (a *App) Close() {
	if a.Publisher != nil {
		a.Publisher.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
