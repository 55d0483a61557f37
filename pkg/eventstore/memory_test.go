package eventstore

import (
	"context"
	"errors"
	"testing"

	"slotbook/pkg/model"
)

func markEvent(slot, id string) model.Event {
	return model.ParticipantMarkedAvailable{
		SlotID:        slot,
		ParticipantID: id,
		Role:          model.RoleStudent,
	}
}

func TestMemoryStoreAppendAndLoad(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	appended, err := store.Append(ctx, "slot-1", 0, []model.Event{markEvent("slot-1", "s1")})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if len(appended) != 1 || appended[0].Seq != 0 {
		t.Fatalf("unexpected envelopes: %+v", appended)
	}

	envs, version, err := store.Load(ctx, "slot-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if version != 1 || len(envs) != 1 {
		t.Fatalf("expected version 1 with 1 envelope, got %d with %d", version, len(envs))
	}
	if envs[0].Type != model.TypeMarkedAvailable {
		t.Errorf("expected type %s, got %s", model.TypeMarkedAvailable, envs[0].Type)
	}
}

func TestMemoryStoreVersionConflict(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Append(ctx, "slot-1", 0, []model.Event{markEvent("slot-1", "s1")}); err != nil {
		t.Fatal(err)
	}

	// Stale expected version.
	_, err := store.Append(ctx, "slot-1", 0, []model.Event{markEvent("slot-1", "s2")})
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	// The conflicting append must not have landed.
	_, version, _ := store.Load(ctx, "slot-1")
	if version != 1 {
		t.Errorf("expected version 1 after rejected append, got %d", version)
	}
}

func TestMemoryStoreMultiEventAppendIsContiguous(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	events := []model.Event{
		markEvent("slot-1", "s1"),
		markEvent("slot-1", "s2"),
		markEvent("slot-1", "s3"),
	}
	appended, err := store.Append(ctx, "slot-1", 0, events)
	if err != nil {
		t.Fatal(err)
	}
	for i, env := range appended {
		if env.Seq != int64(i) {
			t.Errorf("expected seq %d, got %d", i, env.Seq)
		}
	}

	_, version, _ := store.Load(ctx, "slot-1")
	if version != 3 {
		t.Errorf("expected version 3, got %d", version)
	}
}

func TestMemoryStoreKeysAreIndependent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Append(ctx, "slot-1", 0, []model.Event{markEvent("slot-1", "s1")}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Append(ctx, "slot-2", 0, []model.Event{markEvent("slot-2", "s1")}); err != nil {
		t.Fatalf("append to a different key must not conflict: %v", err)
	}
}

func TestMemoryStoreRejectsEmptyAppend(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Append(context.Background(), "slot-1", 0, nil); !errors.Is(err, ErrNoEvents) {
		t.Fatalf("expected ErrNoEvents, got %v", err)
	}
}
