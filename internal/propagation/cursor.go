package propagation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CursorCollectionName = "PublishCursors"

// CursorStore durably records, per log key, the highest sequence number
// already handed to the channel. The event log outlives the relay's
// in-memory queue, so everything past the cursor can be republished
// after a crash; advancing the cursor only after a successful publish
// keeps the guarantee at-least-once.
type CursorStore interface {
	// Advance records seq as published for key. Never moves backwards.
	Advance(ctx context.Context, key string, seq int64) error

	// All returns the cursor for every key that has one.
	All(ctx context.Context) (map[string]int64, error)
}

type publishCursor struct {
	Key string `bson:"key"`
	Seq int64  `bson:"seq"`
}

// MongoCursorStore keeps one cursor document per log key, advanced with
// $max so concurrent or replayed advances cannot rewind it.
type MongoCursorStore struct {
	collection   *mongo.Collection
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewMongoCursorStore(client *mongo.Client, dbName string, readTimeout, writeTimeout time.Duration) *MongoCursorStore {
	return &MongoCursorStore{
		collection:   client.Database(dbName).Collection(CursorCollectionName),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

func (s *MongoCursorStore) Advance(ctx context.Context, key string, seq int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	_, err := s.collection.UpdateOne(ctx,
		bson.M{"key": key},
		bson.M{"$max": bson.M{"seq": seq}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to advance publish cursor for %s: %w", key, err)
	}
	return nil
}

func (s *MongoCursorStore) All(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.readTimeout)
	defer cancel()

	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to load publish cursors: %w", err)
	}
	defer cursor.Close(ctx)

	cursors := make(map[string]int64)
	for cursor.Next(ctx) {
		var doc publishCursor
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode publish cursor: %w", err)
		}
		cursors[doc.Key] = doc.Seq
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate publish cursors: %w", err)
	}
	return cursors, nil
}

// MemoryCursorStore backs tests and single-process setups.
type MemoryCursorStore struct {
	mu      sync.RWMutex
	cursors map[string]int64
}

func NewMemoryCursorStore() *MemoryCursorStore {
	return &MemoryCursorStore{
		cursors: make(map[string]int64),
	}
}

func (s *MemoryCursorStore) Advance(ctx context.Context, key string, seq int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.cursors[key]; ok && current >= seq {
		return nil
	}
	s.cursors[key] = seq
	return nil
}

func (s *MemoryCursorStore) All(ctx context.Context) (map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int64, len(s.cursors))
	for k, v := range s.cursors {
		out[k] = v
	}
	return out, nil
}
