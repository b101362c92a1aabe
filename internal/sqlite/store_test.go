package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-paths/internal/database"
	"campus-paths/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	store, err := New(filepath.Join(t.TempDir(), "nested", DefaultDBFileName))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewStore(t *testing.T) {
	store := setupTestStore(t)

	assert.NotNil(t, store.History())
	assert.Equal(t, DefaultDBFileName, filepath.Base(store.GetDBPath()))
	assert.NoError(t, store.HealthCheck(context.Background()))
}

func TestReopenKeepsSchemaAndData(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultDBFileName)
	ctx := context.Background()

	store, err := New(path)
	require.NoError(t, err)
	require.NoError(t, store.History().Record(ctx, &models.QueryRecord{Origin: "CSE", Destination: "MGH", Outcome: models.OutcomeDisplayed}))
	require.NoError(t, store.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.History().List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestHistory_RecordRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	issued := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	rec := &models.QueryRecord{
		Sequence:     7,
		Origin:       "CSE",
		Destination:  "MGH",
		Outcome:      models.OutcomeFailed,
		Error:        "HTTP 400",
		IssuedAt:     issued,
		CompletedAt:  issued.Add(120 * time.Millisecond),
		SegmentCount: 0,
	}
	require.NoError(t, store.History().Record(ctx, rec))
	require.NotZero(t, rec.ID)

	got, err := store.History().GetByID(ctx, rec.ID)
	require.NoError(t, err)

	assert.Equal(t, uint64(7), got.Sequence)
	assert.Equal(t, models.LocationCode("CSE"), got.Origin)
	assert.Equal(t, models.OutcomeFailed, got.Outcome)
	assert.Equal(t, "HTTP 400", got.Error)
	assert.True(t, got.IssuedAt.Equal(issued))
	assert.Equal(t, 120*time.Millisecond, got.Duration())
}

func TestHistory_ListNewestFirstWithLimit(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.History().Record(ctx, &models.QueryRecord{
			Sequence:    uint64(i + 1),
			Outcome:     models.OutcomeDisplayed,
			IssuedAt:    base.Add(time.Duration(i) * time.Minute),
			CompletedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	records, err := store.History().List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, uint64(3), records[0].Sequence)
	assert.Equal(t, uint64(2), records[1].Sequence)

	all, err := store.History().List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestHistory_GetByIDNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.History().GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestHistory_Clear(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.History().Record(ctx, &models.QueryRecord{Outcome: models.OutcomeDisplayed}))
	require.NoError(t, store.History().Clear(ctx))

	records, err := store.History().List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}
