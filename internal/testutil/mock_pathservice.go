package testutil

import (
	"context"
	"fmt"
	"sync"

	"campus-paths/internal/models"
)

// PathCall tracks a call to FindPath
type PathCall struct {
	Start models.LocationCode
	End   models.LocationCode
}

// MockPathService is a mock implementation of pathservice.Client for testing.
// Routes are keyed by "start->end". A pair with no configured route returns a
// present route without segments, like the real service does for unknown codes.
type MockPathService struct {
	mu sync.Mutex

	Directory    models.Directory
	DirectoryErr error
	Routes       map[string]models.Route
	Errors       map[string]error

	// Gates, when set for a pair, block FindPath until the channel is closed
	// or receives a value. Used to control response arrival order.
	Gates map[string]chan struct{}

	DirectoryCalls int
	Calls          []PathCall
}

func NewMockPathService() *MockPathService {
	return &MockPathService{
		Directory: models.Directory{},
		Routes:    make(map[string]models.Route),
		Errors:    make(map[string]error),
		Gates:     make(map[string]chan struct{}),
		Calls:     []PathCall{},
	}
}

func pairKey(start, end models.LocationCode) string {
	return fmt.Sprintf("%s->%s", start, end)
}

// SetRoute sets the route returned for a start/end pair
func (m *MockPathService) SetRoute(start, end models.LocationCode, segments ...models.RouteSegment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Routes[pairKey(start, end)] = models.NewRoute(segments)
}

// SetError makes FindPath fail for a start/end pair
func (m *MockPathService) SetError(start, end models.LocationCode, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[pairKey(start, end)] = err
}

// Gate makes FindPath for a pair wait until the returned channel is closed
func (m *MockPathService) Gate(start, end models.LocationCode) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan struct{})
	m.Gates[pairKey(start, end)] = ch
	return ch
}

func (m *MockPathService) BuildingNames(ctx context.Context) (models.Directory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DirectoryCalls++
	if m.DirectoryErr != nil {
		return nil, m.DirectoryErr
	}
	return m.Directory.Clone(), nil
}

func (m *MockPathService) FindPath(ctx context.Context, start, end models.LocationCode) (models.Route, error) {
	key := pairKey(start, end)

	m.mu.Lock()
	m.Calls = append(m.Calls, PathCall{Start: start, End: end})
	gate := m.Gates[key]
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return models.Route{}, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.Errors[key]; ok {
		return models.Route{}, err
	}
	if route, ok := m.Routes[key]; ok {
		return route.Clone(), nil
	}
	return models.NewRoute(nil), nil
}

// CallCount returns the number of FindPath calls so far
func (m *MockPathService) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// RecordingNotifier records every notification it receives
type RecordingNotifier struct {
	mu       sync.Mutex
	Messages []string
	Kinds    []models.NotificationKind
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

func (n *RecordingNotifier) Notify(ctx context.Context, kind models.NotificationKind, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Messages = append(n.Messages, message)
	n.Kinds = append(n.Kinds, kind)
}

// Count returns the number of notifications received
func (n *RecordingNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Messages)
}
