package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"slotbook/pkg/config"
	"slotbook/pkg/model"
)

const (
	CollectionName = "SlotRows"
)

type SlotRowRepository interface {
	Upsert(ctx context.Context, row model.SlotRow) error
	Delete(ctx context.Context, slotID, participantID string) error
	FindByParticipantAndStatus(ctx context.Context, participantID, status string) ([]model.SlotRow, error)
}

type mongoSlotRowRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSlotRowRepository(cfg *config.Config) SlotRowRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotRowRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoSlotRowRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoSlotRowRepository) Upsert(ctx context.Context, row model.SlotRow) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"slot_id":        row.SlotID,
		"participant_id": row.ParticipantID,
	}
	update := bson.M{"$set": bson.M{
		"role":       row.Role,
		"booking_id": row.BookingID,
		"status":     row.Status,
	}}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert slot row: %w", err)
	}
	return nil
}

func (r *mongoSlotRowRepository) Delete(ctx context.Context, slotID, participantID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"slot_id":        slotID,
		"participant_id": participantID,
	}

	// Deleting an absent row keeps the projector idempotent under
	// redelivery, so a zero delete count is not an error.
	_, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete slot row: %w", err)
	}
	return nil
}

func (r *mongoSlotRowRepository) FindByParticipantAndStatus(ctx context.Context, participantID, status string) ([]model.SlotRow, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"participant_id": participantID,
		"status":         status,
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "slot_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query slot rows: %w", err)
	}
	defer cursor.Close(ctx)

	rows := make([]model.SlotRow, 0)
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode slot rows: %w", err)
	}
	return rows, nil
}
