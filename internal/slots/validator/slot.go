package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"slotbook/pkg/logger"
)

// AvailabilityInput carries a mark/unmark command after sanitation.
type AvailabilityInput struct {
	SlotID        string `validate:"required,max=128"`
	ParticipantID string `validate:"required,max=128"`
	Role          string `validate:"required,oneof=student aircraft instructor"`
}

// BookingInput carries a booking command. BookingID may be empty; the
// service generates one.
type BookingInput struct {
	SlotID       string `validate:"required,max=128"`
	StudentID    string `validate:"required,max=128"`
	AircraftID   string `validate:"required,max=128"`
	InstructorID string `validate:"required,max=128"`
	BookingID    string `validate:"omitempty,max=128"`
}

// CancellationInput carries a cancel command.
type CancellationInput struct {
	SlotID    string `validate:"required,max=128"`
	BookingID string `validate:"required,max=128"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type SlotValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewSlotValidator(log *logger.Logger) *SlotValidator {
	return &SlotValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *SlotValidator) ValidateAvailability(input *AvailabilityInput) error {
	return v.collect(v.validate.Struct(input))
}

func (v *SlotValidator) ValidateBooking(input *BookingInput) error {
	return v.collect(v.validate.Struct(input))
}

func (v *SlotValidator) ValidateCancellation(input *CancellationInput) error {
	return v.collect(v.validate.Struct(input))
}

func (v *SlotValidator) collect(err error) error {
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	var errs ValidationErrors
	for _, fe := range fieldErrs {
		errs = append(errs, ValidationError{
			Field:   fe.Field(),
			Message: messageFor(fe),
		})
	}
	return errs
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}
