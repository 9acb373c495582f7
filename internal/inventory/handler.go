package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"stockservice/internal/platform/observability"
)

// MessageHandler defines the interface for processing incoming messages.
type MessageHandler interface {
	HandleSettlementRequested(ctx context.Context, msg kafkago.Message) error
}

// KafkaMessageHandler settles requests received from Kafka and answers
// rejected ones with a SettlementRejected event.
type KafkaMessageHandler struct {
	service   Service
	publisher EventPublisher
	logger    observability.Logger
}

// NewMessageHandler creates a new MessageHandler instance with explicit dependencies
func NewMessageHandler(service Service, publisher EventPublisher, logger observability.Logger) MessageHandler {
	return &KafkaMessageHandler{
		service:   service,
		publisher: publisher,
		logger:    logger,
	}
}

// HandleSettlementRequested processes a SettlementRequested message from Kafka
func (h *KafkaMessageHandler) HandleSettlementRequested(ctx context.Context, msg kafkago.Message) error {
	// Extract trace context to connect spans across services
	msgCtx := h.extractTraceContext(ctx, msg.Headers)

	h.logger.Info("📨 Raw Kafka message received",
		zap.ByteString("key", msg.Key),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
	)

	var event SettlementRequestedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error("❌ Invalid JSON in SettlementRequested event",
			zap.Error(err),
			zap.ByteString("raw_value", msg.Value),
		)
		return err
	}
	if event.RequestID == "" {
		event.RequestID = string(msg.Key)
	}

	h.logger.Info("✅ Received SettlementRequested event",
		zap.String("request_id", event.RequestID),
		zap.String("kind", string(event.Kind)),
		zap.String("subject", event.Subject),
	)

	settlement, err := h.service.Settle(msgCtx, SettlementRequest{
		Kind:      event.Kind,
		Subject:   event.Subject,
		Quantity:  event.Quantity,
		Reason:    event.Reason,
		RequestID: event.RequestID,
	})
	if err != nil {
		return h.reject(msgCtx, event, err)
	}

	h.logger.Info("✅ Settlement committed from Kafka",
		zap.String("request_id", event.RequestID),
		zap.String("settlement_id", settlement.ID.String()),
	)
	return nil
}

// reject publishes the outcome of a failed settlement and returns the
// settlement error.
func (h *KafkaMessageHandler) reject(ctx context.Context, event SettlementRequestedEvent, cause error) error {
	rejected := SettlementRejectedEvent{
		RequestID: event.RequestID,
		Kind:      event.Kind,
		Subject:   event.Subject,
		Error:     Code(cause),
		Message:   cause.Error(),
	}
	var insufficient *InsufficientStockError
	if errors.As(cause, &insufficient) {
		rejected.Missing = insufficient.MissingMap()
	}

	if err := h.publisher.PublishRejected(ctx, rejected); err != nil {
		h.logger.Error("❌ Failed to publish SettlementRejected event",
			zap.Error(err),
			zap.String("request_id", event.RequestID),
		)
		return errors.Join(cause, fmt.Errorf("publish rejection: %w", err))
	}

	h.logger.Info("📤 Sent SettlementRejected event",
		zap.String("request_id", event.RequestID),
		zap.String("error", rejected.Error),
	)
	return cause
}

// extractTraceContext extracts OpenTelemetry trace context from Kafka message headers
func (h *KafkaMessageHandler) extractTraceContext(ctx context.Context, headers []kafkago.Header) context.Context {
	propagator := otel.GetTextMapPropagator()
	carrier := propagation.MapCarrier{}

	for _, header := range headers {
		carrier[string(header.Key)] = string(header.Value)
	}

	return propagator.Extract(ctx, carrier)
}
