package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	integrationapp "github.com/hrcore/promotion/internal/application/integration"
	promotionapp "github.com/hrcore/promotion/internal/application/promotion"
	"github.com/hrcore/promotion/internal/domain/shared"
	"github.com/hrcore/promotion/internal/infrastructure/cache"
	"github.com/hrcore/promotion/internal/infrastructure/config"
	"github.com/hrcore/promotion/internal/infrastructure/event"
	"github.com/hrcore/promotion/internal/infrastructure/logger"
	"github.com/hrcore/promotion/internal/infrastructure/messaging"
	"github.com/hrcore/promotion/internal/infrastructure/persistence"
	"github.com/hrcore/promotion/internal/infrastructure/scheduler"
	"github.com/hrcore/promotion/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const instrumentationName = "github.com/hrcore/promotion"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry starts on a bootstrap logger; the real logger tees into its log provider.
	bootstrap, err := logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	providers, err := telemetry.Setup(ctx, telemetry.ConfigFrom(cfg.Telemetry), bootstrap)
	if err != nil {
		bootstrap.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	level, _ := logger.ParseLevel(cfg.Log.Level)
	var extra []zapcore.Core
	if core := providers.Logs.ZapCore(level); core != nil {
		extra = append(extra, core)
	}
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}, extra...)
	if err != nil {
		bootstrap.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = log.Sync()
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			bootstrap.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	log.Info("Starting promotion service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("timezone", cfg.App.Timezone),
	)

	location, err := cfg.App.Location()
	if err != nil {
		log.Fatal("Invalid business time zone", zap.String("timezone", cfg.App.Timezone), zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:        cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBName:         cfg.Database.DBName,
		LogFullSQL:     cfg.Telemetry.DBLogFullSQL,
		SlowThreshold:  cfg.Telemetry.DBSlowQueryThresh,
		TracerProvider: otel.GetTracerProvider(),
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Repositories
	planRepo := persistence.NewGormPlanRepository(db.DB)
	candidateRepo := persistence.NewGormCandidateRepository(db.DB)
	appointmentRepo := persistence.NewGormAppointmentRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Application services
	executor := promotionapp.NewGradeChangeExecutor(log)
	reviewService := promotionapp.NewReviewService(txScope, planRepo, candidateRepo, executor, log)

	bridgeConfig := integrationapp.DefaultBridgeConfig()
	bridgeConfig.FormKey = cfg.Promotion.AppointmentFormKey
	bridgeConfig.Location = location
	applier := integrationapp.NewPersonnelChangeApplier(reviewService, executor, log)
	completedHandler := integrationapp.NewApprovalCompletedHandler(txScope, applier, bridgeConfig, log)
	rejectedHandler := integrationapp.NewApprovalRejectedHandler(reviewService, bridgeConfig, log)
	sweeper := integrationapp.NewAppointmentSweeper(appointmentRepo, txScope, applier, bridgeConfig, log)
	sweeper.SetBatchSize(cfg.Scheduler.BatchSize)

	// Event bus: approval signals are deduplicated by event ID before they reach the bridge
	eventBus := event.NewInMemoryEventBus(log)
	store, err := newIdempotencyStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()
	idempotency := shared.IdempotencyConfig{TTL: cfg.Event.IdempotencyTTL, Enabled: true}
	eventBus.Subscribe(event.NewIdempotentHandler(completedHandler, store, log, event.WithIdempotencyConfig(idempotency)))
	eventBus.Subscribe(event.NewIdempotentHandler(rejectedHandler, store, log, event.WithIdempotencyConfig(idempotency)))

	meter := providers.Meter.Meter(instrumentationName)
	promotionMetrics, err := telemetry.NewPromotionMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create promotion metrics", zap.Error(err))
	}
	eventBus.Subscribe(promotionMetrics)

	reviewService.SetEventPublisher(eventBus)
	completedHandler.SetEventPublisher(eventBus)
	sweeper.SetEventPublisher(eventBus)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()
	log.Info("Event handlers registered",
		zap.Strings("approval_completed_events", completedHandler.EventTypes()),
		zap.Strings("approval_rejected_events", rejectedHandler.EventTypes()),
		zap.Strings("metric_events", promotionMetrics.EventTypes()),
		zap.String("idempotency_backend", cfg.Event.IdempotencyBackend),
	)

	// Daily appointment sweep
	if cfg.Scheduler.Enabled {
		hour, minute, err := cfg.Scheduler.ParseSweepTime()
		if err != nil {
			log.Fatal("Invalid sweep time", zap.String("sweep_time", cfg.Scheduler.SweepTime), zap.Error(err))
		}
		metered, err := telemetry.NewMeteredSweeper(sweeper, meter, providers.Tracer.Tracer(instrumentationName))
		if err != nil {
			log.Fatal("Failed to create sweep metrics", zap.Error(err))
		}
		schedulerConfig := scheduler.DefaultSweepSchedulerConfig()
		schedulerConfig.Hour = hour
		schedulerConfig.Minute = minute
		schedulerConfig.Location = location
		schedulerConfig.JobTimeout = cfg.Scheduler.JobTimeout
		schedulerConfig.RunOnStart = cfg.Scheduler.RunOnStart

		sweepScheduler, err := scheduler.NewAppointmentSweepScheduler(schedulerConfig, metered, log)
		if err != nil {
			log.Fatal("Failed to create appointment sweep scheduler", zap.Error(err))
		}
		if err := sweepScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start appointment sweep scheduler", zap.Error(err))
		}
		defer func() {
			if err := sweepScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping appointment sweep scheduler", zap.Error(err))
			}
		}()
		log.Info("Appointment sweep scheduler started",
			zap.String("sweep_time", cfg.Scheduler.SweepTime),
			zap.Duration("job_timeout", cfg.Scheduler.JobTimeout),
		)
	}

	// Approval signals from the document workflow
	consumerDone := make(chan error, 1)
	if cfg.Kafka.Enabled {
		consumer := messaging.NewApprovalConsumer(messaging.NewKafkaReader(&cfg.Kafka), eventBus, cfg.Kafka.RetryBackoff, log)
		go func() {
			consumerDone <- consumer.Run(ctx)
		}()
		defer func() {
			if err := consumer.Close(); err != nil {
				log.Error("Error closing approval consumer", zap.Error(err))
			}
		}()
		log.Info("Approval consumer started",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.ApprovalTopic),
			zap.String("group_id", cfg.Kafka.GroupID),
		)
	}

	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
	case err := <-consumerDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Approval consumer stopped", zap.Error(err))
		}
	}
	log.Info("Server exited gracefully")
}

func newIdempotencyStore(ctx context.Context, cfg *config.Config) (shared.IdempotencyStore, error) {
	if cfg.Event.IdempotencyBackend == "redis" {
		return cache.NewRedisIdempotencyStore(ctx, &cfg.Redis, cfg.Event.IdempotencyPrefix)
	}
	return cache.NewInMemoryIdempotencyStore(), nil
}
