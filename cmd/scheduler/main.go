package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"realty_portal_backend/internal/email"
	"realty_portal_backend/internal/events"
	"realty_portal_backend/internal/leads"
	"realty_portal_backend/internal/notification"
	"realty_portal_backend/internal/scheduler"
	"realty_portal_backend/internal/whatsapp"
	"realty_portal_backend/platform/config"
	"realty_portal_backend/platform/db"
	"realty_portal_backend/platform/logger"
	"realty_portal_backend/platform/metrics"
	"realty_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "schedule", cfg.GetLeadSweepSchedule())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	m := metrics.NewNop()
	eventBus := events.NewInMemoryBus(log)

	// Sweep digests go out from this process.
	var wa notification.WhatsAppSender
	if client := whatsapp.NewClient(cfg, log); client.Enabled() {
		wa = client
	}
	notificationModule := notification.New(wa, email.NewSMTPSender(cfg), m, log, cfg.GetLeadClaimKeyword())
	notificationModule.RegisterHandlers(eventBus)

	// Worker-side sweep wiring (no HTTP handlers required).
	leadsModule := leads.NewModule(leads.Deps{
		Pool:      pool,
		EventBus:  eventBus,
		Metrics:   m,
		Logger:    log,
		Validator: validator.New(),
		Config:    cfg,
	})

	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; running lead sweep in-process")
		runCron(ctx, cfg, leadsModule, log)
	} else {
		runAsynq(ctx, cfg, leadsModule, log)
	}

	eventBus.Wait()
}

func runAsynq(ctx context.Context, cfg *config.Config, sweeper leads.Sweeper, log *logger.Logger) {
	periodic, err := scheduler.NewPeriodic(cfg, log)
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}
	if _, err := periodic.RegisterLeadSweep(cfg.GetLeadSweepSchedule(), 0); err != nil {
		log.Error("invalid lead sweep schedule", "error", err)
		panic("invalid lead sweep schedule: " + err.Error())
	}

	worker, err := scheduler.NewWorker(cfg, sweeper, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	// Catch up on leads that went stale while the scheduler was down.
	client, err := scheduler.NewClient(cfg)
	if err == nil {
		if err := client.EnqueueLeadSweep(ctx, 0); err != nil {
			log.Warn("startup lead sweep not enqueued", "error", err)
		}
		_ = client.Close()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := periodic.Run(ctx); err != nil {
			log.Error("periodic scheduler stopped", "error", err)
		}
	}()

	worker.Run(ctx)
	wg.Wait()
}

func runCron(ctx context.Context, cfg *config.Config, sweeper leads.Sweeper, log *logger.Logger) {
	runner, err := scheduler.NewCronRunner(cfg.GetLeadSweepSchedule(), sweeper, 0, log)
	if err != nil {
		log.Error("invalid lead sweep schedule", "error", err)
		panic("invalid lead sweep schedule: " + err.Error())
	}
	runner.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
