package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/charbel0004/Unishelf-sub000/internal/infra"

	kafkago "github.com/segmentio/kafka-go"
)

// Publisher writes events to a single topic, keyed by routing key so that
// events of one kind keep their relative order.
type Publisher struct {
	w        *kafkago.Writer
	producer string
}

var _ infra.EventPublisher = (*Publisher)(nil)

func NewPublisher(brokers []string, topic, producer string) *Publisher {
	return &Publisher{
		w: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
		},
		producer: producer,
	}
}

func (p *Publisher) Publish(ctx context.Context, routingKey string, data any) error {
	body, err := infra.MarshalEnvelope(p.producer, routingKey, data)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafkago.Message{
		Key:   []byte(routingKey),
		Value: body,
		Headers: []kafkago.Header{
			{Key: "x-event-type", Value: []byte(routingKey)},
			{Key: "x-event-version", Value: []byte("1")},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.w.Close()
}
