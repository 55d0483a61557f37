package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	kafka_config "slotbook/pkg/kafka/config"
	"slotbook/pkg/logger"
)

// dlqWriter is the slice of kafka.Writer the consumer parks failed
// messages with.
type dlqWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer wraps a kafka-go reader. An offset is committed only once its
// message is resolved: applied by the handler, or parked on the DLQ.
// Anything less would skip the event permanently, so an unresolved
// message blocks its partition and is retried; handlers must be
// idempotent.
type Consumer struct {
	reader     *kafka.Reader
	dlqWriter  dlqWriter
	topic      string
	groupID    string
	dlqTopic   string
	maxRetries int
	handler    MessageHandler
	log        *logger.Logger
	middleware []ConsumerMiddleware
	closed     bool
	mu         sync.RWMutex
	wg         sync.WaitGroup
}

type ConsumerMiddleware func(ctx context.Context, msg Message, next MessageHandler) error

func NewConsumer(cfg *kafka_config.Config, topic string, groupID string, dlqTopic string, handler MessageHandler, log *logger.Logger) (*Consumer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	if groupID == "" {
		return nil, fmt.Errorf("group ID cannot be empty")
	}
	if handler == nil {
		return nil, fmt.Errorf("message handler cannot be nil")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		Topic:             topic,
		GroupID:           groupID,
		MinBytes:          cfg.ConsumerMinBytes,
		MaxBytes:          cfg.ConsumerMaxBytes,
		MaxWait:           cfg.ConsumerMaxWait,
		CommitInterval:    cfg.ConsumerCommitInterval,
		HeartbeatInterval: cfg.ConsumerHeartbeatInterval,
		SessionTimeout:    cfg.ConsumerSessionTimeout,
		RebalanceTimeout:  cfg.ConsumerRebalanceTimeout,
		StartOffset:       cfg.ConsumerStartOffset,
		Logger:            kafka.LoggerFunc(func(msg string, args ...any) {}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			log.Error(fmt.Sprintf(msg, args...))
		}),
	})

	consumer := &Consumer{
		reader:     reader,
		topic:      topic,
		groupID:    groupID,
		dlqTopic:   dlqTopic,
		maxRetries: cfg.ConsumerMaxRetries,
		handler:    handler,
		log:        log,
		middleware: make([]ConsumerMiddleware, 0),
	}

	if dlqTopic != "" {
		consumer.dlqWriter = &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        dlqTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  kafka.Snappy,
			MaxAttempts:  3,
			Logger:       kafka.LoggerFunc(func(msg string, args ...any) {}),
			ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
				log.Error(fmt.Sprintf(msg, args...))
			}),
		}
	}

	return consumer, nil
}

func (c *Consumer) Use(middleware ConsumerMiddleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middleware = append(c.middleware, middleware)
}

// Start consumes until the context is canceled.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrConsumerClosed
	}
	c.mu.RUnlock()

	c.wg.Add(1)
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			kafkaMsg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				c.log.Error("Failed to fetch message", "topic", c.topic, "error", err)
				time.Sleep(1 * time.Second)
				continue
			}

			msg := c.convertMessage(kafkaMsg)

			// An unresolved message must not be committed past: committing
			// any later offset would implicitly skip it, and the dropped
			// event would never reach the ledgers. Block until it resolves.
			for {
				err := c.processMessage(ctx, msg)
				if err == nil {
					break
				}
				c.log.Error("Message unresolved, holding offset",
					"topic", c.topic,
					"partition", msg.Partition,
					"offset", msg.Offset,
					"error", err,
				)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(1 * time.Second):
				}
			}

			if err := c.reader.CommitMessages(ctx, kafkaMsg); err != nil {
				c.log.Error("Failed to commit offset", "topic", c.topic, "error", err)
			}
		}
	}
}

// processMessage resolves one message: the handler applies it, or it is
// parked on the DLQ. A non-nil return means neither happened and the
// offset must not be committed.
func (c *Consumer) processMessage(ctx context.Context, msg Message) error {
	handler := c.handler
	for i := len(c.middleware) - 1; i >= 0; i-- {
		middleware := c.middleware[i]
		next := handler
		handler = func(ctx context.Context, m Message) error {
			return middleware(ctx, m, next)
		}
	}

	err := handler(ctx, msg)
	if err == nil {
		return nil
	}

	if ShouldRetry(err, msg.GetRetryCount(), c.maxRetries) {
		msg.IncrementRetryCount()
		c.log.Warn("Retrying message",
			"topic", c.topic,
			"attempt", msg.GetRetryCount(),
			"max_retries", c.maxRetries,
			"error", err,
		)
		return c.processMessage(ctx, msg)
	}

	if c.dlqWriter == nil {
		c.log.Error("Dropping failed message with no DLQ configured",
			"topic", c.topic,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}

	if dlqErr := c.sendToDLQ(ctx, msg, err); dlqErr != nil {
		c.log.Error("Failed to send message to DLQ", "error", dlqErr, "original_error", err)
		return fmt.Errorf("message not applied and DLQ publish failed: %w", dlqErr)
	}

	c.log.Warn("Message sent to DLQ", "topic", c.topic, "retries", msg.GetRetryCount(), "error", err)
	return nil
}

func (c *Consumer) sendToDLQ(ctx context.Context, msg Message, originalErr error) error {
	msg = msg.WithHeader(HeaderOriginalTopic, c.topic).
		WithHeader("dlq-error", originalErr.Error()).
		WithHeader("dlq-timestamp", time.Now().Format(time.RFC3339)).
		WithHeader("dlq-consumer-group", c.groupID)

	kafkaMsg := kafka.Message{
		Key:   []byte(msg.Key),
		Value: msg.Value,
		Time:  time.Now(),
	}
	for k, v := range msg.Headers {
		kafkaMsg.Headers = append(kafkaMsg.Headers, kafka.Header{
			Key:   k,
			Value: []byte(v),
		})
	}

	return c.dlqWriter.WriteMessages(ctx, kafkaMsg)
}

func (c *Consumer) convertMessage(kafkaMsg kafka.Message) Message {
	msg := Message{
		Key:       string(kafkaMsg.Key),
		Value:     kafkaMsg.Value,
		Headers:   make(map[string]string),
		Topic:     kafkaMsg.Topic,
		Partition: kafkaMsg.Partition,
		Offset:    kafkaMsg.Offset,
		Timestamp: kafkaMsg.Time,
	}
	for _, header := range kafkaMsg.Headers {
		msg.Headers[header.Key] = string(header.Value)
	}
	return msg
}

func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	c.wg.Wait()

	var err error
	if c.reader != nil {
		err = c.reader.Close()
	}
	if c.dlqWriter != nil {
		dlqErr := c.dlqWriter.Close()
		if err == nil {
			err = dlqErr
		}
	}
	return err
}

func (c *Consumer) Stats() kafka.ReaderStats {
	return c.reader.Stats()
}
