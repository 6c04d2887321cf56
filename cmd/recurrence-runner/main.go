package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	contractmq "focusflow/contracts/mq"
	"focusflow/internal/app"
	"focusflow/internal/config"
	"focusflow/internal/handler"
	"focusflow/internal/httpserver"
	"focusflow/internal/mqhandler"
	"focusflow/internal/service/recurrence"
	"focusflow/pkg/logger"
	"focusflow/pkg/mq"
	"focusflow/pkg/otel"
	"focusflow/pkg/outbox"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	log := logger.NewLogger("recurrence-runner")
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Starting recurrence-runner...",
		zap.String("version", version),
		zap.String("db_host", cfg.DB.Host),
		zap.Int("db_port", cfg.DB.Port),
		zap.String("timezone", cfg.Recurrence.Timezone),
		zap.Duration("sweep_interval", cfg.Recurrence.SweepInterval),
		zap.Duration("rate_limit_window", cfg.Recurrence.RateLimitWindow),
	)

	shutdownTracing, err := otel.Init(cfg.OTel, version, log)
	if err != nil {
		log.Warn("Tracing disabled", zap.Error(err))
		shutdownTracing = func() {}
	}
	defer shutdownTracing()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize dependencies", zap.Error(err))
	}
	defer a.Close()

	g, gctx := errgroup.WithContext(ctx)

	// Outbox Dispatcher
	dispatcher := outbox.NewDispatcher(a.Outbox, a.Publisher, log).
		WithInterval(cfg.Outbox.Interval).
		WithBatchSize(cfg.Outbox.BatchSize).
		WithMaxRetries(cfg.Outbox.MaxRetries)
	g.Go(func() error { return dispatcher.Start(gctx) })

	// Sweep ticker
	g.Go(func() error {
		return runEvery(gctx, log, "recurrence sweep", cfg.Recurrence.SweepInterval, func(ctx context.Context) {
			if _, err := a.Orchestrator.RunSweep(ctx, recurrence.SweepRequest{}); err != nil {
				log.Error("Recurrence sweep aborted", zap.Error(err))
			}
		})
	})

	// Goal ticker（限定 task.completed 丢失时的最大延迟）
	g.Go(func() error {
		if cfg.Goals.BootstrapOnStart {
			if _, err := a.Recalculator.BootstrapInitialCounts(gctx); err != nil {
				log.Error("Goal bootstrap failed", zap.Error(err))
			}
		}
		return runEvery(gctx, log, "goal recalculation", cfg.Goals.RecalcInterval, func(ctx context.Context) {
			if _, err := a.Recalculator.RecalculateAll(ctx); err != nil {
				log.Error("Goal recalculation pass aborted", zap.Error(err))
			}
		})
	})

	// Consumers
	var retry mqhandler.RetryTracker
	if a.RetryCounter != nil {
		retry = a.RetryCounter
	}
	taskCompleted := mqhandler.NewTaskCompletedHandler(a.Recalculator, retry, log)
	goalUpserted := mqhandler.NewGoalUpsertedHandler(a.Recalculator, retry, log)

	consumers := []struct {
		queue      string
		routingKey string
		handle     mq.MessageHandler
	}{
		{"recurrence.task.completed.q", contractmq.RoutingKeyTaskCompleted, taskCompleted.Handle},
		{"recurrence.goal.upserted.q", contractmq.RoutingKeyGoalUpserted, goalUpserted.Handle},
	}
	for _, c := range consumers {
		log.Info("Init consumer", zap.String("queue", c.queue))
		consumer, err := mq.NewConsumer(cfg.MQ.URL, c.queue, c.routingKey, log)
		if err != nil {
			log.Fatal("Consumer init failed", zap.String("queue", c.queue), zap.Error(err))
		}
		defer consumer.Close()
		consumer.SetHandler(c.handle)
		g.Go(func() error { return consumer.StartConsuming(gctx) })
	}

	// HTTP Server
	router := httpserver.NewRouter(httpserver.Deps{
		Sweeps:    handler.NewSweepHandler(a.Orchestrator, log),
		Goals:     handler.NewGoalHandler(a.Recalculator, log),
		JWTSecret: cfg.JWT.Secret,
		DB:        a.DB,
		MQ:        a.Publisher,
		Logger:    log,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	log.Info("recurrence-runner is fully initialized and running")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("recurrence-runner stopped with error", zap.Error(err))
		a.Close()
		os.Exit(1)
	}
	log.Info("recurrence-runner shutdown complete")
}

// runEvery 启动时先执行一次，之后按间隔执行直到 ctx 结束
func runEvery(ctx context.Context, log *zap.Logger, name string, interval time.Duration, fn func(context.Context)) error {
	log.Info("Starting periodic job", zap.String("job", name), zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fn(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info("Periodic job stopped", zap.String("job", name))
			return nil
		case <-ticker.C:
			fn(ctx)
		}
	}
}
