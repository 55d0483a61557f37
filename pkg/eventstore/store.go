package eventstore

import (
	"context"
	"errors"

	"slotbook/pkg/model"
)

var (
	// ErrVersionConflict signals that the expected version was stale:
	// another writer appended to the key first. Callers reload and retry.
	ErrVersionConflict = errors.New("event log version conflict")

	ErrNoEvents = errors.New("no events to append")
)

// Store is a durable, per-key, append-only event log. Sequences start at
// 0 and are dense; the version of a key is the number of events in its
// log, so an append with expectedVersion == current length succeeds and
// anything else conflicts.
type Store interface {
	// Append atomically persists all events for one key, or none of them.
	Append(ctx context.Context, key string, expectedVersion int64, events []model.Event) ([]model.Envelope, error)

	// Load replays the full log for a key in append order. A key with no
	// history yields an empty slice and version 0, not an error.
	Load(ctx context.Context, key string) ([]model.Envelope, int64, error)
}
