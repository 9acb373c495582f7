package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// Producer writes messages to one topic. The otel-kafka-konsumer writer
// injects the trace context of ctx into the message headers.
type Producer interface {
	WriteMessage(ctx context.Context, msg kafka.Message) error
	Close() error
}

// Consumer reads messages of one consumer group, committing offsets as it goes.
type Consumer interface {
	ReadMessage(ctx context.Context) (*kafka.Message, error)
	Close() error
}
