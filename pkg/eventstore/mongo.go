package eventstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mongotx "slotbook/pkg/db/mongo"
	"slotbook/pkg/model"
)

const CollectionName = "Events"

// MongoStore persists event logs in a single collection with a unique
// index on (key, seq). The index is what turns a concurrent append into
// a duplicate-key error, which surfaces as ErrVersionConflict.
type MongoStore struct {
	collection   *mongo.Collection
	txManager    mongotx.TransactionManager
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewMongoStore(client *mongo.Client, dbName string, readTimeout, writeTimeout time.Duration) *MongoStore {
	db := client.Database(dbName)
	return &MongoStore{
		collection:   db.Collection(CollectionName),
		txManager:    mongotx.NewTransactionManager(client),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

func (s *MongoStore) Append(ctx context.Context, key string, expectedVersion int64, events []model.Event) ([]model.Envelope, error) {
	if len(events) == 0 {
		return nil, ErrNoEvents
	}

	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	appended := make([]model.Envelope, 0, len(events))
	docs := make([]any, 0, len(events))
	for i, evt := range events {
		env, err := model.Wrap(key, expectedVersion+int64(i), uuid.New().String(), now, evt)
		if err != nil {
			return nil, err
		}
		appended = append(appended, env)
		docs = append(docs, env)
	}

	// A booking or cancellation appends three events; they must land as
	// one log transaction, so multi-event appends go through a session.
	var err error
	if len(docs) == 1 {
		_, err = s.collection.InsertOne(ctx, docs[0])
	} else {
		err = s.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			_, insertErr := s.collection.InsertMany(sessCtx, docs, options.InsertMany().SetOrdered(true))
			return insertErr
		})
	}
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrVersionConflict
		}
		return nil, fmt.Errorf("failed to append events for %s: %w", key, err)
	}

	return appended, nil
}

// ScanFrom visits every stored event whose seq lies past the cursor for
// its key, in (key, seq) order. Keys without a cursor are visited from
// seq 0. No per-operation timeout: this walks the whole backlog on
// startup, so the caller bounds it.
func (s *MongoStore) ScanFrom(ctx context.Context, cursors map[string]int64, fn func(env model.Envelope) error) error {
	opts := options.Find().SetSort(bson.D{{Key: "key", Value: 1}, {Key: "seq", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return fmt.Errorf("failed to scan events: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var env model.Envelope
		if err := cursor.Decode(&env); err != nil {
			return fmt.Errorf("failed to decode event during scan: %w", err)
		}
		if last, ok := cursors[env.Key]; ok && env.Seq <= last {
			continue
		}
		if err := fn(env); err != nil {
			return err
		}
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("failed to iterate events during scan: %w", err)
	}
	return nil
}

func (s *MongoStore) Load(ctx context.Context, key string) ([]model.Envelope, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.readTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{"key": key}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load events for %s: %w", key, err)
	}
	defer cursor.Close(ctx)

	var envelopes []model.Envelope
	if err = cursor.All(ctx, &envelopes); err != nil {
		return nil, 0, fmt.Errorf("failed to decode events for %s: %w", key, err)
	}

	return envelopes, int64(len(envelopes)), nil
}

func isDuplicateKey(err error) bool {
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	// Inside a transaction the duplicate key can surface as a command error.
	var cmdErr mongo.CommandError
	return errors.As(err, &cmdErr) && cmdErr.Code == 11000
}
