package database

import (
	"context"

	"campus-paths/internal/models"
)

// DataStore is the interface for data persistence
type DataStore interface {
	Close() error
	HealthCheck(ctx context.Context) error
	History() HistoryRepository
}

// HistoryRepository handles path query history persistence
type HistoryRepository interface {
	Record(ctx context.Context, q *models.QueryRecord) error
	GetByID(ctx context.Context, id int64) (*models.QueryRecord, error)
	List(ctx context.Context, limit int) ([]models.QueryRecord, error)
	Clear(ctx context.Context) error
}
