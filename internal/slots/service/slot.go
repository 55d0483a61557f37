package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"slotbook/internal/slots/aggregate"
	slotserrors "slotbook/internal/slots/errors"
	"slotbook/internal/slots/validator"
	"slotbook/pkg/config"
	"slotbook/pkg/entity"
	apperrors "slotbook/pkg/errors"
	"slotbook/pkg/eventstore"
	"slotbook/pkg/model"
	"slotbook/pkg/sanitizer"
)

// Forwarder hands persisted events to the propagation channel. It must
// not block the command on delivery.
type Forwarder interface {
	Forward(envs []model.Envelope)
}

type SlotService interface {
	MarkAvailable(ctx context.Context, slotID, participantID string, role model.Role) error
	UnmarkAvailable(ctx context.Context, slotID, participantID string, role model.Role) error
	// Book reserves one participant per role and returns the booking id,
	// generating one when the caller leaves it empty.
	Book(ctx context.Context, slotID, studentID, aircraftID, instructorID, bookingID string) (string, error)
	Cancel(ctx context.Context, slotID, bookingID string) error
	GetSlot(ctx context.Context, slotID string) (model.Timeslot, error)
}

type slotService struct {
	runtime   *entity.Runtime[aggregate.State]
	forwarder Forwarder
	validator *validator.SlotValidator
	cfg       *config.Config
}

func NewSlotService(
	store eventstore.Store,
	forwarder Forwarder,
	validator *validator.SlotValidator,
	cfg *config.Config,
) SlotService {
	return &slotService{
		runtime:   entity.NewRuntime[aggregate.State](store, aggregate.Behavior{}, cfg.Log),
		forwarder: forwarder,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *slotService) MarkAvailable(ctx context.Context, slotID, participantID string, role model.Role) error {
	slotID = sanitizer.SanitizeIdentifier(slotID)
	participantID = sanitizer.SanitizeIdentifier(participantID)
	if err := s.validator.ValidateAvailability(&validator.AvailabilityInput{
		SlotID:        slotID,
		ParticipantID: participantID,
		Role:          string(role),
	}); err != nil {
		return apperrors.Validation("Invalid availability input", map[string]any{"error": err.Error()})
	}

	p := model.Participant{ID: participantID, Role: role}
	_, envs, err := s.runtime.Execute(ctx, slotID, func(state aggregate.State) ([]model.Event, error) {
		return state.MarkAvailable(p)
	})
	if err != nil {
		return s.mapError(err, slotID)
	}
	s.forwarder.Forward(envs)

	s.cfg.Log.Info("Participant marked available",
		"slot_id", slotID,
		"participant_id", participantID,
		"role", role,
	)
	return nil
}

func (s *slotService) UnmarkAvailable(ctx context.Context, slotID, participantID string, role model.Role) error {
	slotID = sanitizer.SanitizeIdentifier(slotID)
	participantID = sanitizer.SanitizeIdentifier(participantID)
	if err := s.validator.ValidateAvailability(&validator.AvailabilityInput{
		SlotID:        slotID,
		ParticipantID: participantID,
		Role:          string(role),
	}); err != nil {
		return apperrors.Validation("Invalid availability input", map[string]any{"error": err.Error()})
	}

	p := model.Participant{ID: participantID, Role: role}
	_, envs, err := s.runtime.Execute(ctx, slotID, func(state aggregate.State) ([]model.Event, error) {
		return state.UnmarkAvailable(p)
	})
	if err != nil {
		return s.mapError(err, slotID)
	}
	s.forwarder.Forward(envs)

	s.cfg.Log.Info("Participant unmarked available",
		"slot_id", slotID,
		"participant_id", participantID,
		"role", role,
	)
	return nil
}

func (s *slotService) Book(ctx context.Context, slotID, studentID, aircraftID, instructorID, bookingID string) (string, error) {
	slotID = sanitizer.SanitizeIdentifier(slotID)
	studentID = sanitizer.SanitizeIdentifier(studentID)
	aircraftID = sanitizer.SanitizeIdentifier(aircraftID)
	instructorID = sanitizer.SanitizeIdentifier(instructorID)
	bookingID = sanitizer.SanitizeIdentifier(bookingID)

	if err := s.validator.ValidateBooking(&validator.BookingInput{
		SlotID:       slotID,
		StudentID:    studentID,
		AircraftID:   aircraftID,
		InstructorID: instructorID,
		BookingID:    bookingID,
	}); err != nil {
		return "", apperrors.Validation("Invalid booking input", map[string]any{"error": err.Error()})
	}

	if bookingID == "" {
		bookingID = uuid.New().String()
	}

	_, envs, err := s.runtime.Execute(ctx, slotID, func(state aggregate.State) ([]model.Event, error) {
		return state.Book(studentID, aircraftID, instructorID, bookingID)
	})
	if err != nil {
		return "", s.mapError(err, slotID)
	}
	s.forwarder.Forward(envs)

	s.cfg.Log.Info("Reservation booked",
		"slot_id", slotID,
		"booking_id", bookingID,
		"student_id", studentID,
		"aircraft_id", aircraftID,
		"instructor_id", instructorID,
	)
	return bookingID, nil
}

func (s *slotService) Cancel(ctx context.Context, slotID, bookingID string) error {
	slotID = sanitizer.SanitizeIdentifier(slotID)
	bookingID = sanitizer.SanitizeIdentifier(bookingID)
	if err := s.validator.ValidateCancellation(&validator.CancellationInput{
		SlotID:    slotID,
		BookingID: bookingID,
	}); err != nil {
		return apperrors.Validation("Invalid cancellation input", map[string]any{"error": err.Error()})
	}

	_, envs, err := s.runtime.Execute(ctx, slotID, func(state aggregate.State) ([]model.Event, error) {
		return state.Cancel(bookingID)
	})
	if err != nil {
		return s.mapError(err, slotID)
	}
	s.forwarder.Forward(envs)

	s.cfg.Log.Info("Booking canceled",
		"slot_id", slotID,
		"booking_id", bookingID,
	)
	return nil
}

func (s *slotService) GetSlot(ctx context.Context, slotID string) (model.Timeslot, error) {
	slotID = sanitizer.SanitizeIdentifier(slotID)
	if slotID == "" {
		return model.Timeslot{}, apperrors.InvalidInput("Slot ID cannot be empty")
	}

	state, err := s.runtime.Read(ctx, slotID)
	if err != nil {
		return model.Timeslot{}, apperrors.Internal("Failed to load slot", err)
	}
	return state.Snapshot(), nil
}

// mapError translates domain rejections into the transport error
// taxonomy. Anything else is an infrastructure failure.
func (s *slotService) mapError(err error, slotID string) error {
	switch {
	case errors.Is(err, slotserrors.ErrAlreadyAvailable):
		return apperrors.Conflict("Participant is already available for this slot")
	case errors.Is(err, slotserrors.ErrNotAvailable):
		return apperrors.Conflict("Participant is not available for this slot")
	case errors.Is(err, slotserrors.ErrParticipantsUnavailable):
		return apperrors.Conflict("One or more participants are not available for this slot")
	case errors.Is(err, slotserrors.ErrBookingExists):
		return apperrors.Conflict("Booking id is already in use for this slot")
	case errors.Is(err, slotserrors.ErrBookingNotFound):
		return apperrors.NotFound("Booking")
	}

	s.cfg.Log.Error("Slot command failed", "slot_id", slotID, "error", err)
	return apperrors.Internal("Failed to execute slot command", err)
}
