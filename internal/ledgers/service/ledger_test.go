package service

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "slotbook/pkg/errors"
	"slotbook/pkg/eventstore"
	"slotbook/pkg/logger"
	"slotbook/pkg/model"
)

type mockSink struct {
	ProcessEventFunc func(ctx context.Context, evt model.Event) error
	events           []model.Event
}

func (m *mockSink) ProcessEvent(ctx context.Context, evt model.Event) error {
	m.events = append(m.events, evt)
	if m.ProcessEventFunc != nil {
		return m.ProcessEventFunc(ctx, evt)
	}
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT, Service: "ledgers-test"})
}

func bookedEnvelope(t *testing.T) model.Envelope {
	t.Helper()
	env, err := model.Wrap("slot-1", 0, "evt-1", time.Now(), model.ParticipantBooked{
		SlotID:        "slot-1",
		ParticipantID: "p1",
		Role:          model.RoleStudent,
		BookingID:     "b1",
	})
	if err != nil {
		t.Fatal(err)
	}
	return env
}

func TestApplyForwarded(t *testing.T) {
	sink := &mockSink{}
	svc := NewLedgerService(eventstore.NewMemoryStore(), testLogger(), sink)

	state, err := svc.ApplyForwarded(context.Background(), bookedEnvelope(t))
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if state.Status != model.StatusBooked || state.BookingID != "b1" {
		t.Errorf("unexpected state: %+v", state)
	}
	if len(sink.events) != 1 {
		t.Fatalf("expected 1 sink event, got %d", len(sink.events))
	}
	if sink.events[0].EventType() != model.TypeBooked {
		t.Errorf("sink saw wrong event: %s", sink.events[0].EventType())
	}
}

func TestApplyForwardedRedelivery(t *testing.T) {
	sink := &mockSink{}
	svc := NewLedgerService(eventstore.NewMemoryStore(), testLogger(), sink)
	ctx := context.Background()
	env := bookedEnvelope(t)

	first, err := svc.ApplyForwarded(ctx, env)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.ApplyForwarded(ctx, env)
	if err != nil {
		t.Fatal(err)
	}

	if first != second {
		t.Errorf("redelivery changed observable state: %+v vs %+v", first, second)
	}
}

func TestApplyForwardedBadPayload(t *testing.T) {
	svc := NewLedgerService(eventstore.NewMemoryStore(), testLogger())

	_, err := svc.ApplyForwarded(context.Background(), model.Envelope{Type: "bogus-tag"})
	if err == nil {
		t.Fatal("expected error for unknown tag")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected %s, got %s", apperrors.CodeInvalidInput, appErr.Code)
	}
}

func TestApplyForwardedSinkFailure(t *testing.T) {
	sinkErr := errors.New("projection store down")
	sink := &mockSink{
		ProcessEventFunc: func(context.Context, model.Event) error { return sinkErr },
	}
	svc := NewLedgerService(eventstore.NewMemoryStore(), testLogger(), sink)

	_, err := svc.ApplyForwarded(context.Background(), bookedEnvelope(t))
	if err == nil {
		t.Fatal("sink failure must surface so the channel redelivers")
	}
	if !errors.Is(err, sinkErr) {
		t.Errorf("expected wrapped sink error, got %v", err)
	}
}

func TestStandaloneCommandsAndGet(t *testing.T) {
	svc := NewLedgerService(eventstore.NewMemoryStore(), testLogger())
	ctx := context.Background()

	if err := svc.MarkAvailable(ctx, "slot-1", "p1", model.RoleInstructor); err != nil {
		t.Fatal(err)
	}

	state, err := svc.Get(ctx, "slot-1", "p1")
	if err != nil {
		t.Fatal(err)
	}
	if state.Status != model.StatusAvailable || state.Role != model.RoleInstructor {
		t.Errorf("unexpected state: %+v", state)
	}

	if err := svc.Book(ctx, "slot-1", "p1", model.RoleInstructor, "b1"); err != nil {
		t.Fatal(err)
	}
	state, err = svc.Get(ctx, "slot-1", "p1")
	if err != nil {
		t.Fatal(err)
	}
	if state.Status != model.StatusBooked || state.BookingID != "b1" {
		t.Errorf("unexpected state after book: %+v", state)
	}

	if err := svc.Cancel(ctx, "slot-1", "p1", model.RoleInstructor, "b1"); err != nil {
		t.Fatal(err)
	}
	if err := svc.UnmarkAvailable(ctx, "slot-1", "p1", model.RoleInstructor); err != nil {
		t.Fatal(err)
	}
	state, _ = svc.Get(ctx, "slot-1", "p1")
	if state.Status != model.StatusUnavailable {
		t.Errorf("expected %s, got %s", model.StatusUnavailable, state.Status)
	}
}

func TestGetUnknownLedger(t *testing.T) {
	svc := NewLedgerService(eventstore.NewMemoryStore(), testLogger())

	_, err := svc.Get(context.Background(), "slot-1", "ghost")
	if err == nil {
		t.Fatal("expected not found")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

func TestVerifyAddress(t *testing.T) {
	evt := model.ParticipantBooked{
		SlotID:        "slot-1",
		ParticipantID: "p1",
		Role:          model.RoleStudent,
		BookingID:     "b1",
	}

	if err := VerifyAddress("slot-1/p1", evt); err != nil {
		t.Errorf("matching key must pass: %v", err)
	}
	if err := VerifyAddress("", evt); err != nil {
		t.Errorf("unkeyed message must pass: %v", err)
	}
	if err := VerifyAddress("slot-1/p2", evt); err == nil {
		t.Error("mismatched key must fail")
	}
}
