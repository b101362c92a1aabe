package shell

import (
	"context"
	"fmt"
	"io"
	"log"

	"campus-paths/internal/coordinator"
	"campus-paths/internal/database"
	"campus-paths/internal/directory"
	"campus-paths/internal/mapview"
	"campus-paths/internal/models"
	"campus-paths/internal/notify"
	"campus-paths/internal/pathservice"
	"campus-paths/internal/selection"
)

// Deps are the collaborators the shell is composed from
type Deps struct {
	Client   pathservice.Client
	Surface  mapview.Surface
	Loader   mapview.Loader
	Notifier notify.Notifier
	// History may be nil
	History database.HistoryRepository
}

// Encoder is a surface that can export its last frame
type Encoder interface {
	EncodePNG(w io.Writer, opts mapview.ExportOptions) error
}

// ViewState is everything the view needs to draw its controls
type ViewState struct {
	Selection       models.Selection        `json:"selection"`
	OriginName      string                  `json:"origin_name,omitempty"`
	DestinationName string                  `json:"destination_name,omitempty"`
	Buildings       []models.DirectoryEntry `json:"buildings"`
	DirectoryLoaded bool                    `json:"directory_loaded"`
	QueryState      coordinator.State       `json:"query_state"`
	InFlight        int                     `json:"in_flight"`
	Route           models.Route            `json:"route"`
	Image           mapview.ImageState      `json:"image"`
	ImageError      string                  `json:"image_error,omitempty"`
	Revision        uint64                  `json:"revision"`
}

// Shell composes the directory, selection, renderer and coordinator and
// forwards user intents to them
type Shell struct {
	directory   *directory.Cache
	selection   *selection.State
	renderer    *mapview.Renderer
	coordinator *coordinator.Coordinator
	surface     mapview.Surface
	history     database.HistoryRepository
}

// New builds the components and loads the directory once. A failed load has
// already been reported through the notifier and leaves the selectors empty.
func New(ctx context.Context, deps Deps) *Shell {
	renderer := mapview.New(deps.Surface, deps.Loader)

	s := &Shell{
		directory:   directory.New(deps.Client, deps.Notifier),
		selection:   selection.New(),
		renderer:    renderer,
		coordinator: coordinator.New(deps.Client, renderer, deps.Notifier, deps.History),
		surface:     deps.Surface,
		history:     deps.History,
	}

	if err := s.directory.Load(ctx); err != nil {
		log.Printf("[SHELL] Starting without building names: err=%v", err)
	}

	return s
}

func (s *Shell) SetOrigin(code models.LocationCode) {
	s.selection.SetOrigin(code)
}

func (s *Shell) SetDestination(code models.LocationCode) {
	s.selection.SetDestination(code)
}

// FindPath queries a path for the current selection
func (s *Shell) FindPath(ctx context.Context) (*coordinator.Result, error) {
	return s.coordinator.FindPath(ctx, s.selection.Snapshot())
}

// Clear empties the selection and the displayed route
func (s *Shell) Clear() {
	s.selection.Clear()
	s.coordinator.Clear()
}

// View returns a snapshot of the state shown to the user
func (s *Shell) View() ViewState {
	sel := s.selection.Snapshot()
	names := s.directory.Names()

	v := ViewState{
		Selection:       sel,
		OriginName:      names[sel.Origin],
		DestinationName: names[sel.Destination],
		Buildings:       names.Entries(),
		DirectoryLoaded: s.directory.Loaded(),
		QueryState:      s.coordinator.State(),
		InFlight:        s.coordinator.InFlight(),
		Route:           s.coordinator.Route(),
		Image:           s.renderer.State(),
		Revision:        s.renderer.Revision(),
	}
	if err := s.renderer.LoadError(); err != nil {
		v.ImageError = err.Error()
	}
	return v
}

// Buildings returns the directory sorted for display
func (s *Shell) Buildings() []models.DirectoryEntry {
	return s.directory.Entries()
}

// Ready is closed once the map image finished loading
func (s *Shell) Ready() <-chan struct{} {
	return s.renderer.Ready()
}

// History returns the query history, or nil when none is configured
func (s *Shell) History() database.HistoryRepository {
	return s.history
}

// EncodeMap writes the current map frame as PNG
func (s *Shell) EncodeMap(w io.Writer, opts mapview.ExportOptions) error {
	if s.renderer.State() != mapview.ImageReady {
		return mapview.ErrImageNotReady
	}
	enc, ok := s.surface.(Encoder)
	if !ok {
		return fmt.Errorf("surface %T cannot be exported", s.surface)
	}
	return enc.EncodePNG(w, opts)
}
