package eventstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"slotbook/pkg/model"
)

// MemoryStore is an in-process Store used by tests and single-process
// setups. It honors the same optimistic-append contract as the Mongo
// implementation.
type MemoryStore struct {
	mu   sync.RWMutex
	logs map[string][]model.Envelope
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		logs: make(map[string][]model.Envelope),
	}
}

func (s *MemoryStore) Append(ctx context.Context, key string, expectedVersion int64, events []model.Event) ([]model.Envelope, error) {
	if len(events) == 0 {
		return nil, ErrNoEvents
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.logs[key]
	if int64(len(log)) != expectedVersion {
		return nil, ErrVersionConflict
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	appended := make([]model.Envelope, 0, len(events))
	for i, evt := range events {
		env, err := model.Wrap(key, expectedVersion+int64(i), uuid.New().String(), now, evt)
		if err != nil {
			return nil, err
		}
		appended = append(appended, env)
	}

	s.logs[key] = append(log, appended...)
	return appended, nil
}

// ScanFrom visits every stored event whose seq lies past the cursor for
// its key, in (key, seq) order. Keys without a cursor are visited from
// seq 0.
func (s *MemoryStore) ScanFrom(ctx context.Context, cursors map[string]int64, fn func(env model.Envelope) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	keys := make([]string, 0, len(s.logs))
	for key := range s.logs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var pending []model.Envelope
	for _, key := range keys {
		for _, env := range s.logs[key] {
			if last, ok := cursors[key]; ok && env.Seq <= last {
				continue
			}
			pending = append(pending, env)
		}
	}
	s.mu.RUnlock()

	for _, env := range pending {
		if err := fn(env); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, key string) ([]model.Envelope, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.logs[key]
	out := make([]model.Envelope, len(log))
	copy(out, log)
	return out, int64(len(out)), nil
}
