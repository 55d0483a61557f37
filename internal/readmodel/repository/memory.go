package repository

import (
	"context"
	"sort"
	"sync"

	"slotbook/pkg/model"
)

// MemorySlotRowRepository backs tests and single-process deployments.
type MemorySlotRowRepository struct {
	mu   sync.RWMutex
	rows map[string]model.SlotRow
}

func NewMemorySlotRowRepository() *MemorySlotRowRepository {
	return &MemorySlotRowRepository{
		rows: make(map[string]model.SlotRow),
	}
}

func (r *MemorySlotRowRepository) key(slotID, participantID string) string {
	return model.LedgerKey(slotID, participantID)
}

func (r *MemorySlotRowRepository) Upsert(_ context.Context, row model.SlotRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rows[r.key(row.SlotID, row.ParticipantID)] = row
	return nil
}

func (r *MemorySlotRowRepository) Delete(_ context.Context, slotID, participantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rows, r.key(slotID, participantID))
	return nil
}

func (r *MemorySlotRowRepository) FindByParticipantAndStatus(_ context.Context, participantID, status string) ([]model.SlotRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := make([]model.SlotRow, 0)
	for _, row := range r.rows {
		if row.ParticipantID == participantID && row.Status == status {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].SlotID < rows[j].SlotID })
	return rows, nil
}
