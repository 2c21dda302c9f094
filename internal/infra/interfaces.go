package infra

import (
	"context"
	"encoding/json"
	"time"
)

// EventPublisher delivers domain events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, data any) error
	Close() error
}

// Envelope is the wire shape shared by every broker implementation.
type Envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Producer   string    `json:"producer"`
	Data       any       `json:"data"`
}

func MarshalEnvelope(producer, routingKey string, data any) ([]byte, error) {
	return json.Marshal(Envelope{
		Type:       routingKey,
		OccurredAt: time.Now().UTC(),
		Producer:   producer,
		Data:       data,
	})
}

// NopPublisher drops every event. Used when events.driver is "none".
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
func (NopPublisher) Close() error                              { return nil }

var _ EventPublisher = NopPublisher{}
