package service

import (
	"context"
	"fmt"

	readmodelerrors "slotbook/internal/readmodel/errors"
	"slotbook/internal/readmodel/repository"
	apperrors "slotbook/pkg/errors"
	"slotbook/pkg/model"
	"slotbook/pkg/sanitizer"
)

type QueryService interface {
	// SlotsByParticipantAndStatus lists the rows a participant currently
	// holds with the given status. An empty list is a valid answer.
	SlotsByParticipantAndStatus(ctx context.Context, participantID, status string) ([]model.SlotRow, error)
}

type queryService struct {
	repo repository.SlotRowRepository
}

func NewQueryService(repo repository.SlotRowRepository) QueryService {
	return &queryService{repo: repo}
}

func (s *queryService) SlotsByParticipantAndStatus(ctx context.Context, participantID, status string) ([]model.SlotRow, error) {
	participantID = sanitizer.SanitizeIdentifier(participantID)
	if participantID == "" {
		return nil, apperrors.InvalidInput("Participant ID cannot be empty")
	}

	status = sanitizer.SanitizeStatus(status)
	if !validStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("%s: %q", readmodelerrors.ErrInvalidStatus, status))
	}

	rows, err := s.repo.FindByParticipantAndStatus(ctx, participantID, status)
	if err != nil {
		return nil, apperrors.Internal("Failed to query slot rows", err)
	}
	return rows, nil
}

func validStatus(status string) bool {
	switch status {
	case model.StatusAvailable, model.StatusBooked:
		return true
	}
	return false
}
