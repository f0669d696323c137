package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls query spans
type DBTracingConfig struct {
	Enabled       bool
	DBName        string
	LogFullSQL    bool // keep bound variables in db.statement
	SlowThreshold time.Duration
	// TracerProvider defaults to the global provider
	TracerProvider trace.TracerProvider
}

type queryStartKey struct{}

// RegisterDBTracing installs otelgorm plus callbacks that annotate each
// query span before otelgorm ends it: table, rows affected, error status
// and a slow_query event.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(cfg.TracerProvider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return fmt.Errorf("failed to register otelgorm: %w", err)
	}

	annotator := &spanAnnotator{slowThreshold: cfg.SlowThreshold}
	if err := annotator.register(db); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.String("db_name", cfg.DBName),
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_threshold", cfg.SlowThreshold))
	return nil
}

type spanAnnotator struct {
	slowThreshold time.Duration
}

func (a *spanAnnotator) register(db *gorm.DB) error {
	cb := db.Callback()
	registrations := []func() error{
		func() error { return cb.Create().Before("gorm:create").Register("promotion_trace:before_create", a.before) },
		func() error { return cb.Query().Before("gorm:query").Register("promotion_trace:before_query", a.before) },
		func() error { return cb.Update().Before("gorm:update").Register("promotion_trace:before_update", a.before) },
		func() error { return cb.Delete().Before("gorm:delete").Register("promotion_trace:before_delete", a.before) },
		func() error { return cb.Row().Before("gorm:row").Register("promotion_trace:before_row", a.before) },
		func() error { return cb.Raw().Before("gorm:raw").Register("promotion_trace:before_raw", a.before) },
		func() error { return cb.Create().After("gorm:create").Before("otel:after_create").Register("promotion_trace:after_create", a.after) },
		func() error { return cb.Query().After("gorm:query").Before("otel:after_query").Register("promotion_trace:after_query", a.after) },
		func() error { return cb.Update().After("gorm:update").Before("otel:after_update").Register("promotion_trace:after_update", a.after) },
		func() error { return cb.Delete().After("gorm:delete").Before("otel:after_delete").Register("promotion_trace:after_delete", a.after) },
		func() error { return cb.Row().After("gorm:row").Before("otel:after_row").Register("promotion_trace:after_row", a.after) },
		func() error { return cb.Raw().After("gorm:raw").Before("otel:after_raw").Register("promotion_trace:after_raw", a.after) },
	}
	for _, register := range registrations {
		if err := register(); err != nil {
			return fmt.Errorf("failed to register trace callback: %w", err)
		}
	}
	return nil
}

func (a *spanAnnotator) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (a *spanAnnotator) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.RecordError(db.Error)
		span.SetStatus(codes.Error, db.Error.Error())
	}

	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok || a.slowThreshold <= 0 {
		return
	}
	if elapsed := time.Since(start); elapsed >= a.slowThreshold {
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", a.slowThreshold.Milliseconds()),
		))
	}
}
