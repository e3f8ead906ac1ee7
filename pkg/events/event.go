package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is a domain event published on the event bus. Subjects are derived
// from EventType.
type Event interface {
	// EventID is unique per event and used for broker-side deduplication.
	EventID() string
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

// Envelope is the concrete event carried in and out of the bus.
type Envelope struct {
	ID         string
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

// New stamps an event with a fresh id and the current time.
func New(eventType string, data map[string]interface{}) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
}

func (e Envelope) EventID() string                 { return e.ID }
func (e Envelope) EventType() string               { return e.Type }
func (e Envelope) Payload() map[string]interface{} { return e.Data }
func (e Envelope) Timestamp() time.Time            { return e.OccurredAt }
