package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-paths/internal/models"
	"campus-paths/internal/pathservice"
	"campus-paths/internal/testutil"
)

func TestLoad_ReplacesWithParsedMapping(t *testing.T) {
	svc := testutil.NewMockPathService()
	svc.Directory = models.Directory{
		"CSE": "Computer Science Building",
		"MGH": "Mary Gates Hall",
	}
	notifier := testutil.NewRecordingNotifier()
	cache := New(svc, notifier)

	require.NoError(t, cache.Load(context.Background()))

	assert.Equal(t, svc.Directory, cache.Names())
	assert.True(t, cache.Loaded())
	assert.Equal(t, 0, notifier.Count())

	name, ok := cache.DisplayName("MGH")
	assert.True(t, ok)
	assert.Equal(t, "Mary Gates Hall", name)
}

func TestLoad_FailureOnFirstLoadLeavesEmpty(t *testing.T) {
	svc := testutil.NewMockPathService()
	svc.DirectoryErr = &pathservice.ErrRequestFailed{Endpoint: "/buildingNames", StatusCode: 500, Reason: "down"}
	notifier := testutil.NewRecordingNotifier()
	cache := New(svc, notifier)

	err := cache.Load(context.Background())

	var reqErr *pathservice.ErrRequestFailed
	assert.True(t, errors.As(err, &reqErr))
	assert.Empty(t, cache.Names())
	assert.False(t, cache.Loaded())
	require.Equal(t, 1, notifier.Count())
	assert.Equal(t, models.NotificationError, notifier.Kinds[0])
}

func TestLoad_FailureKeepsPreviousMapping(t *testing.T) {
	svc := testutil.NewMockPathService()
	svc.Directory = models.Directory{"CSE": "Computer Science Building"}
	cache := New(svc, nil)
	require.NoError(t, cache.Load(context.Background()))

	svc.DirectoryErr = errors.New("connection refused")
	assert.Error(t, cache.Load(context.Background()))

	assert.Equal(t, models.Directory{"CSE": "Computer Science Building"}, cache.Names())
	assert.True(t, cache.Loaded())
}

func TestLoad_RefreshOverwritesWholesale(t *testing.T) {
	svc := testutil.NewMockPathService()
	svc.Directory = models.Directory{"CSE": "Computer Science Building", "MGH": "Mary Gates Hall"}
	cache := New(svc, nil)
	require.NoError(t, cache.Load(context.Background()))

	svc.Directory = models.Directory{"BAG": "Bagley Hall"}
	require.NoError(t, cache.Load(context.Background()))

	assert.Equal(t, models.Directory{"BAG": "Bagley Hall"}, cache.Names())
}

func TestNames_ReturnsCopy(t *testing.T) {
	svc := testutil.NewMockPathService()
	svc.Directory = models.Directory{"CSE": "Computer Science Building"}
	cache := New(svc, nil)
	require.NoError(t, cache.Load(context.Background()))

	names := cache.Names()
	names["XXX"] = "Injected"

	assert.Equal(t, 1, cache.Len())
	_, ok := cache.DisplayName("XXX")
	assert.False(t, ok)
}

func TestEntries_SortedForSelectors(t *testing.T) {
	svc := testutil.NewMockPathService()
	svc.Directory = models.Directory{"MGH": "Mary Gates Hall", "CSE": "Computer Science Building"}
	cache := New(svc, nil)
	require.NoError(t, cache.Load(context.Background()))

	entries := cache.Entries()

	require.Len(t, entries, 2)
	assert.Equal(t, models.LocationCode("CSE"), entries[0].Code)
	assert.Equal(t, models.LocationCode("MGH"), entries[1].Code)
	assert.Equal(t, []models.LocationCode{"CSE", "MGH"}, cache.Codes())
}
