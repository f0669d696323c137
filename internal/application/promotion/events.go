package promotion

import (
	"context"

	"github.com/hrcore/promotion/internal/domain/shared"
	"go.uber.org/zap"
)

// eventPublishing publishes domain events collected inside a transaction once it
// has committed. A failed publish is logged; the committed change stands.
type eventPublishing struct {
	publisher shared.EventPublisher
	logger    *zap.Logger
}

func (p *eventPublishing) publish(ctx context.Context, events []shared.DomainEvent) {
	if p.publisher == nil || len(events) == 0 {
		return
	}
	if err := p.publisher.Publish(ctx, events...); err != nil {
		p.logger.Warn("Failed to publish promotion events",
			zap.Int("event_count", len(events)),
			zap.Error(err))
	}
}

// drainEvents moves pending events off an aggregate
func drainEvents(agg shared.AggregateRoot) []shared.DomainEvent {
	events := agg.GetDomainEvents()
	agg.ClearDomainEvents()
	return events
}
