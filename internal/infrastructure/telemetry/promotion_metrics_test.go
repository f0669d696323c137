package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hrcore/promotion/internal/application/integration"
	"github.com/hrcore/promotion/internal/domain/promotion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNewPromotionMetrics_NilMeter(t *testing.T) {
	m, err := NewPromotionMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)
	assert.Nil(t, m)

	s, err := NewMeteredSweeper(nil, nil, nil)
	assert.ErrorIs(t, err, ErrMeterNil)
	assert.Nil(t, s)
}

func TestPromotionMetrics_CountsDomainEvents(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	m, err := NewPromotionMetrics(mp.Meter("promotion"))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		promotion.EventTypeCandidateReviewed,
		promotion.EventTypeCandidateFinalized,
		promotion.EventTypeEmployeePromoted,
	}, m.EventTypes())

	ctx := context.Background()
	passed := &promotion.Candidate{DetailID: uuid.New(), EmployeeID: uuid.New(), Status: promotion.CandidateStatusReviewPassed}
	require.NoError(t, m.Handle(ctx, promotion.NewCandidateReviewedEvent(passed)))
	require.NoError(t, m.Handle(ctx, promotion.NewCandidateReviewedEvent(passed)))
	approved := &promotion.Candidate{DetailID: uuid.New(), EmployeeID: uuid.New(), Status: promotion.CandidateStatusFinalApproved}
	require.NoError(t, m.Handle(ctx, promotion.NewCandidateFinalizedEvent(approved)))
	require.NoError(t, m.Handle(ctx, promotion.NewEmployeePromotedEvent(uuid.New(), uuid.New(), "과장", uuid.New(), false)))
	require.NoError(t, m.Handle(ctx, promotion.NewEmployeePromotedEvent(uuid.New(), uuid.New(), "부장", uuid.New(), true)))

	metrics := collect(t, reader)
	assert.Equal(t, int64(2), sumFor(t, metrics["hr_promotion_candidates_reviewed_total"], AttrStatus.String("REVIEW_PASSED")))
	assert.Equal(t, int64(1), sumFor(t, metrics["hr_promotion_candidates_finalized_total"], AttrStatus.String("FINAL_APPROVED")))
	promoted := metrics["hr_promotion_employees_promoted_total"]
	assert.Equal(t, int64(1), sumFor(t, promoted, AttrPromotionPath.String("regular")))
	assert.Equal(t, int64(1), sumFor(t, promoted, AttrPromotionPath.String("direct")))
}

type stubSweeper struct {
	result *integration.SweepResult
	err    error
}

func (s *stubSweeper) SweepDue(context.Context) (*integration.SweepResult, error) {
	return s.result, s.err
}

func TestMeteredSweeper(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	stub := &stubSweeper{result: &integration.SweepResult{Due: 3, Completed: 2, Failed: 1}}
	sweeper, err := NewMeteredSweeper(stub, mp.Meter("promotion"), tp.Tracer("test"))
	require.NoError(t, err)

	result, err := sweeper.SweepDue(context.Background())
	require.NoError(t, err)
	assert.Same(t, stub.result, result)

	stub.result, stub.err = nil, errors.New("database unavailable")
	_, err = sweeper.SweepDue(context.Background())
	require.Error(t, err)

	metrics := collect(t, reader)
	appointments := metrics["hr_appointment_sweep_appointments_total"]
	assert.Equal(t, int64(2), sumFor(t, appointments, AttrOutcome.String("completed")))
	assert.Equal(t, int64(1), sumFor(t, appointments, AttrOutcome.String("failed")))
	assert.Contains(t, metrics, "hr_appointment_sweep_duration_seconds")

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "AppointmentSweep", spans[0].Name())
	assert.Equal(t, int64(3), attrMap(spans[0].Attributes())["sweep.due"].AsInt64())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
