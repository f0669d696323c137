package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type tracedGrade struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:50;uniqueIndex"`
}

func setupTracedDB(t *testing.T, slow time.Duration) (*gorm.DB, *tracetest.SpanRecorder) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedGrade{}))

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{
		Enabled:        true,
		DBName:         "sqlite",
		SlowThreshold:  slow,
		TracerProvider: tp,
	}, zaptest.NewLogger(t)))
	return db, recorder
}

func attrMap(attrs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Value
	}
	return m
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{}, zaptest.NewLogger(t)))
	assert.Nil(t, db.Callback().Create().Get("promotion_trace:before_create"))
}

func TestRegisterDBTracing_AnnotatesQuerySpans(t *testing.T) {
	db, recorder := setupTracedDB(t, time.Hour)

	require.NoError(t, db.WithContext(context.Background()).Create(&tracedGrade{Name: "과장"}).Error)

	spans := recorder.Ended()
	require.NotEmpty(t, spans)
	attrs := attrMap(spans[len(spans)-1].Attributes())
	assert.Equal(t, "traced_grades", attrs["db.sql.table"].AsString())
	assert.Equal(t, int64(1), attrs["db.rows_affected"].AsInt64())
	for _, span := range spans {
		for _, event := range span.Events() {
			assert.NotEqual(t, "slow_query", event.Name)
		}
	}
}

func TestRegisterDBTracing_MarksErrors(t *testing.T) {
	db, recorder := setupTracedDB(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, db.WithContext(ctx).Create(&tracedGrade{Name: "대리"}).Error)
	require.Error(t, db.WithContext(ctx).Create(&tracedGrade{Name: "대리"}).Error)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code, "unique violation marks the span")
	assert.NotEmpty(t, spans[1].Events(), "error is recorded as an event")
}

func TestRegisterDBTracing_SlowQueryEvent(t *testing.T) {
	db, recorder := setupTracedDB(t, time.Nanosecond)

	var grades []tracedGrade
	require.NoError(t, db.WithContext(context.Background()).Find(&grades).Error)

	spans := recorder.Ended()
	require.NotEmpty(t, spans)
	var found bool
	for _, event := range spans[len(spans)-1].Events() {
		if event.Name == "slow_query" {
			found = true
			assert.Equal(t, int64(0), attrMap(event.Attributes)["threshold_ms"].AsInt64())
		}
	}
	assert.True(t, found)
}
