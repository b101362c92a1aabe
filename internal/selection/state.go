package selection

import (
	"sync"

	"campus-paths/internal/models"
)

// State holds the user's origin and destination. Setters never validate
// against the directory and never touch the displayed route.
type State struct {
	mu  sync.RWMutex
	sel models.Selection
}

// New creates an empty selection
func New() *State {
	return &State{}
}

// SetOrigin overwrites the origin slot
func (s *State) SetOrigin(code models.LocationCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.Origin = code
}

// SetDestination overwrites the destination slot
func (s *State) SetDestination(code models.LocationCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.Destination = code
}

// Clear empties both slots
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel = models.Selection{}
}

// Snapshot returns the current selection by value
func (s *State) Snapshot() models.Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sel
}
