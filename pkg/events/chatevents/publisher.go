package chatevents

import (
	"context"

	"shop-assistant-be/internal/pkg/logger"
	pkgEvents "shop-assistant-be/pkg/events"

	"github.com/google/uuid"
)

const (
	TypeTurnCompleted = "CHAT_TURN_COMPLETED"
	TypeTurnFailed    = "CHAT_TURN_FAILED"
)

// EventSink is anything that can put an event on the bus. *nats.Publisher
// satisfies it.
type EventSink interface {
	Publish(ctx context.Context, event pkgEvents.Event) error
}

// Publisher emits chat turn events. Publishing is best effort: failures are
// logged and never reach the caller.
type Publisher interface {
	PublishTurnCompleted(ctx context.Context, conversationId uuid.UUID, intent string, productIds []uuid.UUID, converted bool)
	PublishTurnFailed(ctx context.Context, conversationId uuid.UUID, reason string)
}

type NatsPublisher struct {
	sink   EventSink
	logger logger.ILogger
}

// NewNatsPublisher returns a publisher that drops every event when sink is nil.
func NewNatsPublisher(sink EventSink, log logger.ILogger) *NatsPublisher {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &NatsPublisher{sink: sink, logger: log}
}

func (p *NatsPublisher) PublishTurnCompleted(ctx context.Context, conversationId uuid.UUID, intent string, productIds []uuid.UUID, converted bool) {
	p.publish(ctx, pkgEvents.New(TypeTurnCompleted, map[string]interface{}{
		"conversation_id": conversationId,
		"intent":          intent,
		"product_ids":     productIds,
		"converted":       converted,
	}))
}

func (p *NatsPublisher) PublishTurnFailed(ctx context.Context, conversationId uuid.UUID, reason string) {
	p.publish(ctx, pkgEvents.New(TypeTurnFailed, map[string]interface{}{
		"conversation_id": conversationId,
		"reason":          reason,
	}))
}

func (p *NatsPublisher) publish(ctx context.Context, evt pkgEvents.Envelope) {
	if p.sink == nil {
		return
	}
	if err := p.sink.Publish(ctx, evt); err != nil {
		p.logger.Error("CHAT_EVENTS", "Failed to publish "+evt.Type+" event", map[string]interface{}{"error": err.Error()})
	}
}
