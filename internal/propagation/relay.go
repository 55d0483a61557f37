package propagation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"slotbook/pkg/logger"
	"slotbook/pkg/model"
)

// EventSource lists persisted events that sit past a publish cursor.
// The Mongo and memory event stores both implement it.
type EventSource interface {
	ScanFrom(ctx context.Context, cursors map[string]int64, fn func(env model.Envelope) error) error
}

// Relay decouples the slot aggregate from the channel: Forward returns
// immediately after queueing, and a background worker publishes with
// retries until every event is handed off. The aggregate's durability
// never waits on delivery; a publish failure delays propagation, it
// cannot roll the aggregate back.
//
// The in-memory queue is not the source of truth. Each delivered event
// advances a durable cursor, and Resume republishes everything past the
// cursors from the event log, so a crash between append and publish
// loses nothing.
type Relay struct {
	channel Channel
	cursors CursorStore
	log     *logger.Logger

	mu      sync.Mutex
	pending []model.Envelope
	wake    chan struct{}
	done    chan struct{}
	stopped bool

	maxBackoff time.Duration
}

func NewRelay(channel Channel, cursors CursorStore, log *logger.Logger) *Relay {
	r := &Relay{
		channel:    channel,
		cursors:    cursors,
		log:        log,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
		maxBackoff: 5 * time.Second,
	}
	go r.run()
	return r
}

// Resume queues every persisted event past its publish cursor. Run it on
// startup, before commands are accepted, so events appended durably
// before a crash still reach the channel ahead of new ones.
func (r *Relay) Resume(ctx context.Context, source EventSource) error {
	cursors, err := r.cursors.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load publish cursors: %w", err)
	}

	count := 0
	err = source.ScanFrom(ctx, cursors, func(env model.Envelope) error {
		r.Forward([]model.Envelope{env})
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan unpublished events: %w", err)
	}

	if count > 0 {
		r.log.Info("Republishing events recorded before restart", "events", count)
	}
	return nil
}

// Forward queues persisted events for delivery, in log order.
func (r *Relay) Forward(envs []model.Envelope) {
	if len(envs) == 0 {
		return
	}

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		// Safe to shed: the cursor has not advanced, so the next
		// startup's Resume republishes these from the event log.
		r.log.Warn("Relay stopped, deferring events to the next resume",
			"events", len(envs),
			"key", envs[0].Key,
		)
		return
	}
	r.pending = append(r.pending, envs...)
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Relay) run() {
	for {
		env, ok, stopped := r.next()
		if stopped && !ok {
			close(r.done)
			return
		}
		if !ok {
			<-r.wake
			continue
		}

		r.publishUntilDelivered(env)

		if err := r.cursors.Advance(context.Background(), env.Key, env.Seq); err != nil {
			// The event is delivered; a lost cursor write only means it
			// is published once more after the next restart, which the
			// receivers tolerate.
			r.log.Warn("Failed to advance publish cursor",
				"key", env.Key,
				"seq", env.Seq,
				"error", err,
			)
		}

		r.mu.Lock()
		r.pending = r.pending[1:]
		r.mu.Unlock()
	}
}

func (r *Relay) next() (model.Envelope, bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pending) == 0 {
		return model.Envelope{}, false, r.stopped
	}
	return r.pending[0], true, r.stopped
}

func (r *Relay) publishUntilDelivered(env model.Envelope) {
	backoff := 50 * time.Millisecond
	for {
		err := r.channel.Publish(context.Background(), env)
		if err == nil {
			return
		}

		r.log.Warn("Failed to forward event, will retry",
			"key", env.Key,
			"seq", env.Seq,
			"type", env.Type,
			"backoff", backoff,
			"error", err,
		)

		time.Sleep(backoff)
		backoff *= 2
		if backoff > r.maxBackoff {
			backoff = r.maxBackoff
		}
	}
}

// Stop drains the queue and shuts the worker down. Forwards after Stop
// are deferred to the next startup's Resume.
func (r *Relay) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		<-r.done
		return
	}
	r.stopped = true
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
	<-r.done
}

// PendingCount reports how many events await delivery.
func (r *Relay) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
