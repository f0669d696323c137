package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/hrcore/promotion/internal/application/integration"
	"github.com/hrcore/promotion/internal/domain/promotion"
	"github.com/hrcore/promotion/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ErrMeterNil is returned when a metrics constructor gets no meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// PromotionMetrics counts review outcomes and grade changes. It subscribes
// to the promotion domain events on the in-process bus.
type PromotionMetrics struct {
	reviewed  *Counter
	finalized *Counter
	promoted  *Counter
}

// NewPromotionMetrics creates the promotion instruments on meter
func NewPromotionMetrics(meter metric.Meter) (*PromotionMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	reviewed, err := NewCounter(meter, "hr_promotion_candidates_reviewed_total",
		"Candidates that completed the first review", "{candidates}")
	if err != nil {
		return nil, err
	}
	finalized, err := NewCounter(meter, "hr_promotion_candidates_finalized_total",
		"Candidates that received a final decision", "{candidates}")
	if err != nil {
		return nil, err
	}
	promoted, err := NewCounter(meter, "hr_promotion_employees_promoted_total",
		"Grade changes applied by promotion", "{employees}")
	if err != nil {
		return nil, err
	}
	return &PromotionMetrics{reviewed: reviewed, finalized: finalized, promoted: promoted}, nil
}

// EventTypes implements shared.EventHandler
func (m *PromotionMetrics) EventTypes() []string {
	return []string{
		promotion.EventTypeCandidateReviewed,
		promotion.EventTypeCandidateFinalized,
		promotion.EventTypeEmployeePromoted,
	}
}

// Handle implements shared.EventHandler
func (m *PromotionMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *promotion.CandidateReviewedEvent:
		m.reviewed.Inc(ctx, AttrStatus.String(string(e.Status)))
	case *promotion.CandidateFinalizedEvent:
		m.finalized.Inc(ctx, AttrStatus.String(string(e.Status)))
	case *promotion.EmployeePromotedEvent:
		path := "regular"
		if e.Direct {
			path = "direct"
		}
		m.promoted.Inc(ctx, AttrPromotionPath.String(path), AttrGrade.String(e.GradeName))
	}
	return nil
}

// Sweeper is the appointment sweep being measured
type Sweeper interface {
	SweepDue(ctx context.Context) (*integration.SweepResult, error)
}

// MeteredSweeper wraps a Sweeper in a span and records per-run outcome counts
type MeteredSweeper struct {
	next         Sweeper
	tracer       trace.Tracer
	appointments *Counter
	duration     *Histogram
}

// NewMeteredSweeper instruments next with meter and tracer
func NewMeteredSweeper(next Sweeper, meter metric.Meter, tracer trace.Tracer) (*MeteredSweeper, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	appointments, err := NewCounter(meter, "hr_appointment_sweep_appointments_total",
		"Due appointments processed by the daily sweep", "{appointments}")
	if err != nil {
		return nil, err
	}
	duration, err := NewHistogram(meter, "hr_appointment_sweep_duration_seconds",
		"Duration of an appointment sweep run", "s", SweepDurationBuckets...)
	if err != nil {
		return nil, err
	}
	return &MeteredSweeper{next: next, tracer: tracer, appointments: appointments, duration: duration}, nil
}

// SweepDue implements the scheduler's Sweeper
func (s *MeteredSweeper) SweepDue(ctx context.Context) (*integration.SweepResult, error) {
	ctx, span := s.tracer.Start(ctx, "AppointmentSweep")
	defer span.End()

	start := time.Now()
	result, err := s.next.SweepDue(ctx)
	elapsed := time.Since(start)

	outcome := "success"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.duration.RecordDuration(ctx, elapsed, AttrOutcome.String(outcome))

	if result != nil {
		span.SetAttributes(
			attribute.Int("sweep.due", result.Due),
			attribute.Int("sweep.completed", result.Completed),
			attribute.Int("sweep.failed", result.Failed),
		)
		s.appointments.Add(ctx, int64(result.Completed), AttrOutcome.String("completed"))
		s.appointments.Add(ctx, int64(result.Failed), AttrOutcome.String("failed"))
	}
	return result, err
}
