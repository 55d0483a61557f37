package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"slotbook/internal/ledgers/service"
	"slotbook/pkg/eventstore"
	"slotbook/pkg/kafka"
	"slotbook/pkg/logger"
	"slotbook/pkg/model"
)

func testConsumer(t *testing.T) (*EventConsumer, service.LedgerService) {
	t.Helper()
	log := logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT, Service: "consumer-test"})
	svc := service.NewLedgerService(eventstore.NewMemoryStore(), log)
	return NewEventConsumer(svc, log), svc
}

func bookedMessage(t *testing.T, transportKey string) kafka.Message {
	t.Helper()
	env, err := model.Wrap("slot-1", 1, uuid.New().String(), time.Now(), model.ParticipantBooked{
		SlotID:        "slot-1",
		ParticipantID: "s1",
		Role:          model.RoleStudent,
		BookingID:     "b-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	msg, err := kafka.NewMessage(transportKey, env)
	if err != nil {
		t.Fatal(err)
	}
	return msg
}

func TestHandleAppliesEvent(t *testing.T) {
	consumer, svc := testConsumer(t)
	ctx := context.Background()

	if err := consumer.Handle(ctx, bookedMessage(t, model.LedgerKey("slot-1", "s1"))); err != nil {
		t.Fatal(err)
	}

	state, err := svc.Get(ctx, "slot-1", "s1")
	if err != nil {
		t.Fatal(err)
	}
	if state.Status != model.StatusBooked || state.BookingID != "b-1" {
		t.Errorf("unexpected ledger state: %+v", state)
	}
}

func TestHandleRedelivery(t *testing.T) {
	consumer, svc := testConsumer(t)
	ctx := context.Background()
	msg := bookedMessage(t, model.LedgerKey("slot-1", "s1"))

	if err := consumer.Handle(ctx, msg); err != nil {
		t.Fatal(err)
	}
	if err := consumer.Handle(ctx, msg); err != nil {
		t.Fatalf("redelivery must succeed, got: %v", err)
	}

	state, err := svc.Get(ctx, "slot-1", "s1")
	if err != nil {
		t.Fatal(err)
	}
	if state.Status != model.StatusBooked {
		t.Errorf("redelivery changed observable state: %+v", state)
	}
}

func TestHandleUndecodableValue(t *testing.T) {
	consumer, _ := testConsumer(t)

	msg := kafka.Message{Key: "slot-1/s1", Value: []byte("not json")}
	err := consumer.Handle(context.Background(), msg)
	if err == nil {
		t.Fatal("expected error")
	}
	var permanent *kafka.PermanentError
	if !errors.As(err, &permanent) {
		t.Errorf("undecodable message must be permanent, got %T: %v", err, err)
	}
}

func TestHandleUnknownPayloadTag(t *testing.T) {
	consumer, _ := testConsumer(t)

	env := model.Envelope{Key: "slot-1", Seq: 1, Type: "participant-promoted", Data: []byte(`{}`)}
	msg, err := kafka.NewMessage("slot-1/s1", env)
	if err != nil {
		t.Fatal(err)
	}

	handleErr := consumer.Handle(context.Background(), msg)
	var permanent *kafka.PermanentError
	if !errors.As(handleErr, &permanent) {
		t.Errorf("unknown tag must be permanent, got %T: %v", handleErr, handleErr)
	}
}

func TestHandleMisaddressedEvent(t *testing.T) {
	consumer, svc := testConsumer(t)
	ctx := context.Background()

	err := consumer.Handle(ctx, bookedMessage(t, model.LedgerKey("slot-1", "someone-else")))
	var permanent *kafka.PermanentError
	if !errors.As(err, &permanent) {
		t.Fatalf("misaddressed event must be permanent, got %T: %v", err, err)
	}

	if _, err := svc.Get(ctx, "slot-1", "s1"); err == nil {
		t.Error("misaddressed event must not touch the ledger")
	}
}

func TestHandleAcceptsEmptyTransportKey(t *testing.T) {
	consumer, svc := testConsumer(t)
	ctx := context.Background()

	if err := consumer.Handle(ctx, bookedMessage(t, "")); err != nil {
		t.Fatalf("empty key skips address verification, got: %v", err)
	}
	if _, err := svc.Get(ctx, "slot-1", "s1"); err != nil {
		t.Errorf("event should still be applied: %v", err)
	}
}
