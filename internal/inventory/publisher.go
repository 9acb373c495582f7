package inventory

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"stockservice/internal/platform/kafka"
)

// EventPublisher emits settlement outcomes to downstream consumers.
type EventPublisher interface {
	PublishSettled(ctx context.Context, event StockSettledEvent) error
	PublishRejected(ctx context.Context, event SettlementRejectedEvent) error
}

// KafkaEventPublisher writes outcome events to one producer per topic.
type KafkaEventPublisher struct {
	settled  kafka.Producer
	rejected kafka.Producer
}

// NewKafkaEventPublisher creates a publisher over the settled and rejected topic writers.
func NewKafkaEventPublisher(settled, rejected kafka.Producer) *KafkaEventPublisher {
	return &KafkaEventPublisher{settled: settled, rejected: rejected}
}

func (p *KafkaEventPublisher) PublishSettled(ctx context.Context, event StockSettledEvent) error {
	return writeJSON(ctx, p.settled, event.SettlementID, event)
}

func (p *KafkaEventPublisher) PublishRejected(ctx context.Context, event SettlementRejectedEvent) error {
	return writeJSON(ctx, p.rejected, event.RequestID, event)
}

// WriteMessage (singular) keeps the trace context attached to each message.
func writeJSON(ctx context.Context, producer kafka.Producer, key string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cannot serialize event: %w", err)
	}
	return producer.WriteMessage(ctx, kafkago.Message{
		Key:   []byte(key),
		Value: payload,
	})
}

// Bus is a subject-based message bus such as NATS.
type Bus interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// BusEventPublisher writes outcome events as JSON to bus subjects.
type BusEventPublisher struct {
	bus             Bus
	settledSubject  string
	rejectedSubject string
}

// NewBusEventPublisher creates a publisher over a subject-based bus.
func NewBusEventPublisher(bus Bus, settledSubject, rejectedSubject string) *BusEventPublisher {
	return &BusEventPublisher{bus: bus, settledSubject: settledSubject, rejectedSubject: rejectedSubject}
}

func (p *BusEventPublisher) PublishSettled(ctx context.Context, event StockSettledEvent) error {
	return p.publish(ctx, p.settledSubject, event)
}

func (p *BusEventPublisher) PublishRejected(ctx context.Context, event SettlementRejectedEvent) error {
	return p.publish(ctx, p.rejectedSubject, event)
}

func (p *BusEventPublisher) publish(ctx context.Context, subject string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cannot serialize event: %w", err)
	}
	return p.bus.Publish(ctx, subject, payload)
}

// NoopEventPublisher drops every event.
type NoopEventPublisher struct{}

func (NoopEventPublisher) PublishSettled(context.Context, StockSettledEvent) error { return nil }

func (NoopEventPublisher) PublishRejected(context.Context, SettlementRejectedEvent) error {
	return nil
}
