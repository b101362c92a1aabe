package database

import (
	"context"
	"sync"

	"campus-paths/internal/models"
)

// MemoryHistory keeps query history in memory for the lifetime of the process.
// Used when no database is configured.
type MemoryHistory struct {
	mu      sync.RWMutex
	records []models.QueryRecord
	nextID  int64
	maxSize int
}

// NewMemoryHistory creates a history that keeps at most maxSize records
func NewMemoryHistory(maxSize int) *MemoryHistory {
	return &MemoryHistory{nextID: 1, maxSize: maxSize}
}

func (h *MemoryHistory) Record(ctx context.Context, q *models.QueryRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	q.ID = h.nextID
	h.nextID++
	h.records = append(h.records, *q)

	if h.maxSize > 0 && len(h.records) > h.maxSize {
		h.records = append([]models.QueryRecord(nil), h.records[len(h.records)-h.maxSize:]...)
	}
	return nil
}

func (h *MemoryHistory) GetByID(ctx context.Context, id int64) (*models.QueryRecord, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, r := range h.records {
		if r.ID == id {
			rec := r
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

// List returns the newest records first
func (h *MemoryHistory) List(ctx context.Context, limit int) ([]models.QueryRecord, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := []models.QueryRecord{}
	for i := len(h.records) - 1; i >= 0; i-- {
		if limit > 0 && len(result) >= limit {
			break
		}
		result = append(result, h.records[i])
	}
	return result, nil
}

func (h *MemoryHistory) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = nil
	return nil
}
