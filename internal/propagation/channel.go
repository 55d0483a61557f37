package propagation

import (
	"context"
	"sync"

	"slotbook/pkg/model"
)

// Channel is the at-least-once delivery path carrying slot-aggregate
// events to the participant ledgers. A publish that returns nil means
// the event is durably handed off; it may still be delivered to the
// receiver more than once.
type Channel interface {
	Publish(ctx context.Context, env model.Envelope) error
	Close() error
}

// Handler consumes one forwarded event on the receiving side.
type Handler func(ctx context.Context, env model.Envelope) error

// MemoryChannel is an in-process Channel for tests and single-process
// deployments. It delivers synchronously on Publish and can redeliver
// every event to exercise receiver idempotency the way a real broker's
// at-least-once semantics would.
type MemoryChannel struct {
	mu        sync.RWMutex
	handlers  []Handler
	redeliver bool
	closed    bool
}

func NewMemoryChannel(redeliver bool) *MemoryChannel {
	return &MemoryChannel{redeliver: redeliver}
}

func (c *MemoryChannel) Subscribe(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, h)
}

func (c *MemoryChannel) Publish(ctx context.Context, env model.Envelope) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrChannelClosed
	}

	deliveries := 1
	if c.redeliver {
		deliveries = 2
	}
	for _, h := range c.handlers {
		for i := 0; i < deliveries; i++ {
			if err := h(ctx, env); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *MemoryChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
