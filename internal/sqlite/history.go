package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"campus-paths/internal/database"
	"campus-paths/internal/models"
)

type historyRepository struct {
	store *Store
}

const historyColumns = `id, sequence, origin, destination, outcome, segment_count, cost, error, issued_at_ms, completed_at_ms`

func (r *historyRepository) Record(ctx context.Context, q *models.QueryRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var errText *string
	if q.Error != "" {
		errText = &q.Error
	}

	query := `INSERT INTO query_history
	          (sequence, origin, destination, outcome, segment_count, cost, error, issued_at_ms, completed_at_ms)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := r.store.db.ExecContext(ctx, query,
		int64(q.Sequence), string(q.Origin), string(q.Destination), string(q.Outcome),
		q.SegmentCount, q.Cost, errText, q.IssuedAt.UnixMilli(), q.CompletedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record query: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get query id: %w", err)
	}
	q.ID = id
	return nil
}

func (r *historyRepository) GetByID(ctx context.Context, id int64) (*models.QueryRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	row := r.store.db.QueryRowContext(ctx, `SELECT `+historyColumns+` FROM query_history WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get query: %w", err)
	}
	return rec, nil
}

func (r *historyRepository) List(ctx context.Context, limit int) ([]models.QueryRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}

	query := `SELECT ` + historyColumns + ` FROM query_history
	          ORDER BY issued_at_ms DESC, id DESC
	          LIMIT ?`

	rows, err := r.store.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	records := []models.QueryRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan query: %w", err)
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	return records, nil
}

func (r *historyRepository) Clear(ctx context.Context) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, err := r.store.db.ExecContext(ctx, `DELETE FROM query_history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (*models.QueryRecord, error) {
	var rec models.QueryRecord
	var seq int64
	var origin, destination, outcome string
	var errText sql.NullString
	var issuedMs, completedMs int64

	if err := s.Scan(&rec.ID, &seq, &origin, &destination, &outcome, &rec.SegmentCount, &rec.Cost, &errText, &issuedMs, &completedMs); err != nil {
		return nil, err
	}

	rec.Sequence = uint64(seq)
	rec.Origin = models.LocationCode(origin)
	rec.Destination = models.LocationCode(destination)
	rec.Outcome = models.QueryOutcome(outcome)
	if errText.Valid {
		rec.Error = errText.String
	}
	rec.IssuedAt = time.UnixMilli(issuedMs)
	rec.CompletedAt = time.UnixMilli(completedMs)
	return &rec, nil
}
