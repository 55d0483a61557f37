package projector

import (
	"context"
	"testing"

	"slotbook/internal/readmodel/repository"
	"slotbook/pkg/logger"
	"slotbook/pkg/model"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT, Service: "projector-test"})
}

func rowsFor(t *testing.T, repo repository.SlotRowRepository, participantID, status string) []model.SlotRow {
	t.Helper()
	rows, err := repo.FindByParticipantAndStatus(context.Background(), participantID, status)
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestMarkedAvailableCreatesRow(t *testing.T) {
	repo := repository.NewMemorySlotRowRepository()
	p := NewProjector(repo, testLogger())

	err := p.ProcessEvent(context.Background(), model.ParticipantMarkedAvailable{
		SlotID: "slot-1", ParticipantID: "p1", Role: model.RoleStudent,
	})
	if err != nil {
		t.Fatal(err)
	}

	rows := rowsFor(t, repo, "p1", model.StatusAvailable)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].SlotID != "slot-1" || rows[0].Role != model.RoleStudent {
		t.Errorf("unexpected row: %+v", rows[0])
	}
}

func TestBookedReplacesAvailableRow(t *testing.T) {
	repo := repository.NewMemorySlotRowRepository()
	p := NewProjector(repo, testLogger())
	ctx := context.Background()

	if err := p.ProcessEvent(ctx, model.ParticipantMarkedAvailable{
		SlotID: "slot-1", ParticipantID: "p1", Role: model.RoleStudent,
	}); err != nil {
		t.Fatal(err)
	}
	if err := p.ProcessEvent(ctx, model.ParticipantBooked{
		SlotID: "slot-1", ParticipantID: "p1", Role: model.RoleStudent, BookingID: "b1",
	}); err != nil {
		t.Fatal(err)
	}

	if rows := rowsFor(t, repo, "p1", model.StatusAvailable); len(rows) != 0 {
		t.Errorf("available row should be replaced, got %+v", rows)
	}
	rows := rowsFor(t, repo, "p1", model.StatusBooked)
	if len(rows) != 1 || rows[0].BookingID != "b1" {
		t.Errorf("expected one booked row with b1, got %+v", rows)
	}
}

func TestUnmarkedAndCanceledRemoveRow(t *testing.T) {
	tests := []struct {
		name   string
		finish model.Event
	}{
		{
			name: "unmarked available",
			finish: model.ParticipantUnmarkedAvailable{
				SlotID: "slot-1", ParticipantID: "p1", Role: model.RoleStudent,
			},
		},
		{
			name: "canceled",
			finish: model.ParticipantCanceled{
				SlotID: "slot-1", ParticipantID: "p1", Role: model.RoleStudent, BookingID: "b1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := repository.NewMemorySlotRowRepository()
			p := NewProjector(repo, testLogger())
			ctx := context.Background()

			if err := p.ProcessEvent(ctx, model.ParticipantMarkedAvailable{
				SlotID: "slot-1", ParticipantID: "p1", Role: model.RoleStudent,
			}); err != nil {
				t.Fatal(err)
			}
			if err := p.ProcessEvent(ctx, tt.finish); err != nil {
				t.Fatal(err)
			}

			for _, status := range []string{model.StatusAvailable, model.StatusBooked} {
				if rows := rowsFor(t, repo, "p1", status); len(rows) != 0 {
					t.Errorf("expected no %s rows, got %+v", status, rows)
				}
			}
		})
	}
}

// Redelivered events must leave the table unchanged, including a delete
// for a row that is already gone.
func TestProjectionIsIdempotent(t *testing.T) {
	repo := repository.NewMemorySlotRowRepository()
	p := NewProjector(repo, testLogger())
	ctx := context.Background()

	events := []model.Event{
		model.ParticipantMarkedAvailable{SlotID: "slot-1", ParticipantID: "p1", Role: model.RoleStudent},
		model.ParticipantBooked{SlotID: "slot-1", ParticipantID: "p1", Role: model.RoleStudent, BookingID: "b1"},
		model.ParticipantCanceled{SlotID: "slot-1", ParticipantID: "p1", Role: model.RoleStudent, BookingID: "b1"},
	}

	for _, evt := range events {
		for i := 0; i < 2; i++ {
			if err := p.ProcessEvent(ctx, evt); err != nil {
				t.Fatalf("%s delivery %d failed: %v", evt.EventType(), i+1, err)
			}
		}
	}

	for _, status := range []string{model.StatusAvailable, model.StatusBooked} {
		if rows := rowsFor(t, repo, "p1", status); len(rows) != 0 {
			t.Errorf("expected no %s rows after cancel, got %+v", status, rows)
		}
	}
}

func TestRowsAreScopedPerParticipant(t *testing.T) {
	repo := repository.NewMemorySlotRowRepository()
	p := NewProjector(repo, testLogger())
	ctx := context.Background()

	for _, id := range []string{"p1", "p2"} {
		if err := p.ProcessEvent(ctx, model.ParticipantMarkedAvailable{
			SlotID: "slot-1", ParticipantID: id, Role: model.RoleStudent,
		}); err != nil {
			t.Fatal(err)
		}
	}
	if err := p.ProcessEvent(ctx, model.ParticipantUnmarkedAvailable{
		SlotID: "slot-1", ParticipantID: "p1", Role: model.RoleStudent,
	}); err != nil {
		t.Fatal(err)
	}

	if rows := rowsFor(t, repo, "p1", model.StatusAvailable); len(rows) != 0 {
		t.Errorf("p1 should have no rows, got %+v", rows)
	}
	if rows := rowsFor(t, repo, "p2", model.StatusAvailable); len(rows) != 1 {
		t.Errorf("p2 should keep its row, got %+v", rows)
	}
}
