package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hrcore/promotion/internal/application/integration"
	"github.com/hrcore/promotion/internal/domain/shared"
	"github.com/hrcore/promotion/internal/infrastructure/config"
	applog "github.com/hrcore/promotion/internal/infrastructure/logger"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/hrcore/promotion/internal/infrastructure/messaging")

// MessageReader is the part of *kafka.Reader the consumer needs
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaReader creates a consumer-group reader for the approval topic
func NewKafkaReader(cfg *config.KafkaConfig) *kafka.Reader {
	startOffset := kafka.LastOffset
	if cfg.StartFromFirst {
		startOffset = kafka.FirstOffset
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.ApprovalTopic,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
		MaxWait:     cfg.MaxWait,
		StartOffset: startOffset,
	})
}

// ApprovalConsumer feeds approval signals from the broker into the event bus.
//
// An offset is committed only after the bus accepted the signal or the
// signal was judged permanently unprocessable. Transient failures keep the
// message uncommitted and are retried after a backoff.
type ApprovalConsumer struct {
	reader    MessageReader
	publisher shared.EventPublisher
	backoff   time.Duration
	logger    *zap.Logger
}

// NewApprovalConsumer creates an ApprovalConsumer
func NewApprovalConsumer(reader MessageReader, publisher shared.EventPublisher, backoff time.Duration, logger *zap.Logger) *ApprovalConsumer {
	if backoff <= 0 {
		backoff = 5 * time.Second
	}
	return &ApprovalConsumer{
		reader:    reader,
		publisher: publisher,
		backoff:   backoff,
		logger:    logger,
	}
}

// Run consumes until ctx is cancelled or the reader is closed
func (c *ApprovalConsumer) Run(ctx context.Context) error {
	c.logger.Info("Approval consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				c.logger.Info("Approval consumer stopped")
				return nil
			}
			return fmt.Errorf("failed to fetch approval signal: %w", err)
		}

		if err := c.process(ctx, msg); err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Approval consumer stopped with an unacknowledged signal",
					zap.Int64("offset", msg.Offset))
				return nil
			}
			return err
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to commit offset %d: %w", msg.Offset, err)
		}
	}
}

// Close closes the underlying reader
func (c *ApprovalConsumer) Close() error {
	return c.reader.Close()
}

// process delivers one message, retrying transient failures until ctx ends.
// A nil return means the message may be committed.
func (c *ApprovalConsumer) process(ctx context.Context, msg kafka.Message) error {
	fields := []zap.Field{
		zap.String("topic", msg.Topic),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
	}

	event, err := DecodeApprovalSignal(msg.Value)
	if err != nil {
		c.logger.Error("Dropping undecodable approval signal", append(fields, zap.Error(err))...)
		return nil
	}
	fields = append(fields, zap.String("event_type", event.EventType()))

	ctx, span := tracer.Start(ctx, "ApprovalSignal "+event.EventType(),
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.destination.name", msg.Topic),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.offset", msg.Offset),
		))
	defer span.End()

	// Handlers and the SQL logger pick the signal fields up from ctx.
	ctx = applog.WithSignal(ctx, event.EventID().String(), signalDocID(event))
	log := applog.Enrich(ctx, c.logger)

	for attempt := 1; ; attempt++ {
		err := c.publisher.Publish(ctx, event)
		if err == nil {
			log.Debug("Approval signal handled", fields...)
			return nil
		}
		span.RecordError(err)
		if !Retryable(err) {
			span.SetStatus(codes.Error, shared.ErrorCode(err))
			log.Error("Approval signal rejected by handler, skipping",
				append(fields, zap.String("code", shared.ErrorCode(err)), zap.Error(err))...)
			return nil
		}

		log.Warn("Approval signal failed, retrying",
			append(fields, zap.Int("attempt", attempt), zap.Duration("backoff", c.backoff), zap.Error(err))...)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff):
		}
	}
}

func signalDocID(event shared.DomainEvent) string {
	switch e := event.(type) {
	case *integration.ApprovalCompletedEvent:
		return e.DocID
	case *integration.ApprovalRejectedEvent:
		return e.DocID
	}
	return ""
}

// Retryable reports whether a handler failure may succeed on redelivery.
// Domain rule violations are final, except for lost optimistic-lock races.
// Joined errors are retryable if any part is.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if Retryable(e) {
				return true
			}
		}
		return false
	}
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		return true
	}
	var domainErr *shared.DomainError
	return !errors.As(err, &domainErr)
}
