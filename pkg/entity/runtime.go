package entity

import (
	"context"
	"errors"
	"sync"
	"time"

	"slotbook/pkg/eventstore"
	"slotbook/pkg/logger"
	"slotbook/pkg/model"
)

// Behavior defines one event-sourced entity type: its empty state and
// the pure fold that derives state from events. Apply must be
// deterministic and must never mutate anything outside its return value;
// recovery is a replay of the log through Apply from Empty.
type Behavior[S any] interface {
	Empty(key string) S
	Apply(state S, evt model.Event) S
}

// Runtime hosts one logical single-writer state machine per key.
// Commands against the same key are strictly serialized; commands
// against different keys run in parallel. Cross-entity coordination
// never happens here: a decide function sees only its own entity's
// state, and its only suspension point is its own log append.
type Runtime[S any] struct {
	store    eventstore.Store
	behavior Behavior[S]
	log      *logger.Logger

	mu        sync.Mutex
	instances map[string]*instance[S]
}

type instance[S any] struct {
	mu      sync.Mutex
	loaded  bool
	state   S
	version int64
}

const conflictBackoff = 25 * time.Millisecond

func NewRuntime[S any](store eventstore.Store, behavior Behavior[S], log *logger.Logger) *Runtime[S] {
	return &Runtime[S]{
		store:     store,
		behavior:  behavior,
		log:       log,
		instances: make(map[string]*instance[S]),
	}
}

// Execute runs a command against the entity for key. The decide function
// inspects current state and returns the events to persist, or a typed
// rejection. Rejections persist nothing and leave state untouched.
// Version conflicts from the log (another process appended first) force
// a reload and a fresh decision; infrastructure failures are retried
// until the context expires, never surfaced as domain errors.
func (r *Runtime[S]) Execute(ctx context.Context, key string, decide func(state S) ([]model.Event, error)) (S, []model.Envelope, error) {
	inst := r.instance(key)
	inst.mu.Lock()
	defer inst.mu.Unlock()

	var zero S
	for {
		if err := r.ensureLoaded(ctx, key, inst); err != nil {
			return zero, nil, err
		}

		events, err := decide(inst.state)
		if err != nil {
			return inst.state, nil, err
		}
		if len(events) == 0 {
			return inst.state, nil, nil
		}

		appended, err := r.store.Append(ctx, key, inst.version, events)
		if err == nil {
			for _, evt := range events {
				inst.state = r.behavior.Apply(inst.state, evt)
			}
			inst.version += int64(len(events))
			return inst.state, appended, nil
		}

		if errors.Is(err, eventstore.ErrVersionConflict) {
			r.log.Warn("Stale entity version, reloading",
				"key", key,
				"version", inst.version,
			)
			inst.loaded = false
			continue
		}

		r.log.Error("Event log append failed, retrying",
			"key", key,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return zero, nil, ctx.Err()
		case <-time.After(conflictBackoff):
		}
		inst.loaded = false
	}
}

// Read returns the entity's current state without running a command.
func (r *Runtime[S]) Read(ctx context.Context, key string) (S, error) {
	inst := r.instance(key)
	inst.mu.Lock()
	defer inst.mu.Unlock()

	var zero S
	if err := r.ensureLoaded(ctx, key, inst); err != nil {
		return zero, err
	}
	return inst.state, nil
}

func (r *Runtime[S]) instance(key string) *instance[S] {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst, ok := r.instances[key]
	if !ok {
		inst = &instance[S]{}
		r.instances[key] = inst
	}
	return inst
}

// ensureLoaded rebuilds state by folding the full log from the empty
// state. Caller holds the instance lock.
func (r *Runtime[S]) ensureLoaded(ctx context.Context, key string, inst *instance[S]) error {
	if inst.loaded {
		return nil
	}

	envelopes, version, err := r.store.Load(ctx, key)
	if err != nil {
		return err
	}

	state := r.behavior.Empty(key)
	for _, env := range envelopes {
		evt, err := env.Decode()
		if err != nil {
			return err
		}
		state = r.behavior.Apply(state, evt)
	}

	inst.state = state
	inst.version = version
	inst.loaded = true
	return nil
}
