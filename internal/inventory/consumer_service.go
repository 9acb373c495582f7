package inventory

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"stockservice/internal/platform/kafka"
)

type ConsumerService interface {
	Start(ctx context.Context) error
}

type KafkaConsumerService struct {
	consumer       kafka.Consumer
	messageHandler MessageHandler
	logger         *zap.Logger
}

func NewConsumerService(consumer kafka.Consumer, messageHandler MessageHandler, logger *zap.Logger) ConsumerService {
	return &KafkaConsumerService{
		consumer:       consumer,
		messageHandler: messageHandler,
		logger:         logger,
	}
}

// Start reads settlement requests until ctx is done. A message whose handling
// fails is not redelivered: the rejection event is its answer.
func (c *KafkaConsumerService) Start(ctx context.Context) error {
	c.logger.Info("Kafka consumer started. Waiting for settlement requests...")

	for {
		msg, err := c.consumer.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				c.logger.Info("Context done, exiting Kafka read loop.", zap.Error(err))
				break
			}
			c.logger.Error("❌ Error reading from Kafka", zap.Error(err))
			continue
		}

		if err := c.messageHandler.HandleSettlementRequested(ctx, *msg); err != nil {
			c.logger.Warn("⚠️ Settlement request not applied",
				zap.Int64("offset", msg.Offset),
				zap.String("code", Code(err)),
			)
		}
	}

	c.logger.Info("Consumer service finished. Shutting down...")
	return nil
}
