package kafka_middleware

import (
	"context"
	"time"

	"slotbook/pkg/kafka"
	"slotbook/pkg/logger"
)

// LoggingProducerMiddleware logs publish attempts and their outcome.
func LoggingProducerMiddleware(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		duration := time.Since(start)

		if err != nil {
			log.Error("Failed to publish message",
				"key", msg.Key,
				"event_id", msg.GetEventID(),
				"event_type", msg.GetEventType(),
				"duration_ms", duration.Milliseconds(),
				"error", err,
			)
			return err
		}

		log.Debug("Published message",
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"duration_ms", duration.Milliseconds(),
		)
		return nil
	}
}

// LoggingConsumerMiddleware logs message processing and its outcome.
func LoggingConsumerMiddleware(log *logger.Logger) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		duration := time.Since(start)

		if err != nil {
			log.Error("Failed to process message",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"key", msg.Key,
				"event_id", msg.GetEventID(),
				"event_type", msg.GetEventType(),
				"duration_ms", duration.Milliseconds(),
				"error", err,
			)
			return err
		}

		log.Debug("Processed message",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"duration_ms", duration.Milliseconds(),
		)
		return nil
	}
}
