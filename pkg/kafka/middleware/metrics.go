package kafka_middleware

import (
	"context"
	"sync/atomic"
	"time"

	"slotbook/pkg/kafka"
)

// Metrics counts transport operations. Counters are process-wide and
// written with atomics, so middleware can update them from any goroutine.
type Metrics struct {
	EventsPublished       int64
	EventsPublishedFailed int64
	PublishDurationTotal  int64 // nanoseconds

	EventsConsumed       int64
	EventsConsumedFailed int64
	ConsumeDurationTotal int64 // nanoseconds
}

var globalMetrics = &Metrics{}

func GetMetrics() *Metrics {
	return globalMetrics
}

// Reset zeroes all counters. Useful between test runs.
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.EventsPublished, 0)
	atomic.StoreInt64(&m.EventsPublishedFailed, 0)
	atomic.StoreInt64(&m.PublishDurationTotal, 0)
	atomic.StoreInt64(&m.EventsConsumed, 0)
	atomic.StoreInt64(&m.EventsConsumedFailed, 0)
	atomic.StoreInt64(&m.ConsumeDurationTotal, 0)
}

// AvgPublishDuration returns the mean duration of successful publishes.
func (m *Metrics) AvgPublishDuration() time.Duration {
	published := atomic.LoadInt64(&m.EventsPublished)
	if published == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&m.PublishDurationTotal) / published)
}

// AvgConsumeDuration returns the mean duration of handled messages.
func (m *Metrics) AvgConsumeDuration() time.Duration {
	consumed := atomic.LoadInt64(&m.EventsConsumed)
	if consumed == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&m.ConsumeDurationTotal) / consumed)
}

// Snapshot returns the counters as structured-log fields.
func (m *Metrics) Snapshot() []any {
	return []any{
		"events_published", atomic.LoadInt64(&m.EventsPublished),
		"events_published_failed", atomic.LoadInt64(&m.EventsPublishedFailed),
		"avg_publish_duration", m.AvgPublishDuration().String(),
		"events_consumed", atomic.LoadInt64(&m.EventsConsumed),
		"events_consumed_failed", atomic.LoadInt64(&m.EventsConsumedFailed),
		"avg_consume_duration", m.AvgConsumeDuration().String(),
	}
}

// MetricsProducerMiddleware counts publish attempts and their latency.
func MetricsProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()

		err := next(ctx, msg)

		atomic.AddInt64(&globalMetrics.PublishDurationTotal, int64(time.Since(start)))
		if err != nil {
			atomic.AddInt64(&globalMetrics.EventsPublishedFailed, 1)
		} else {
			atomic.AddInt64(&globalMetrics.EventsPublished, 1)
		}
		return err
	}
}

// MetricsConsumerMiddleware counts handled messages and their latency.
func MetricsConsumerMiddleware() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()

		err := next(ctx, msg)

		atomic.AddInt64(&globalMetrics.ConsumeDurationTotal, int64(time.Since(start)))
		if err != nil {
			atomic.AddInt64(&globalMetrics.EventsConsumedFailed, 1)
		} else {
			atomic.AddInt64(&globalMetrics.EventsConsumed, 1)
		}
		return err
	}
}
