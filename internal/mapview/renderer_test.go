package mapview

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"testing"
	"time"

	"campus-paths/internal/models"
)

// recordingSurface records drawing calls in order
type recordingSurface struct {
	mu     sync.Mutex
	ops    []string
	width  int
	height int
}

func (s *recordingSurface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
	s.ops = append(s.ops, fmt.Sprintf("resize %dx%d", width, height))
}

func (s *recordingSurface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *recordingSurface) DrawImage(img image.Image, at image.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, "background")
}

func (s *recordingSurface) StrokeLine(from, to models.Point, stroke Stroke) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, fmt.Sprintf("line %v,%v->%v,%v", from.X, from.Y, to.X, to.Y))
}

func (s *recordingSurface) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, "flush")
}

func (s *recordingSurface) take() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops := s.ops
	s.ops = nil
	return ops
}

func waitReady(t *testing.T, r *Renderer) {
	t.Helper()
	select {
	case <-r.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("renderer never became ready")
	}
}

func gatedLoader(img image.Image) (Loader, chan struct{}) {
	release := make(chan struct{})
	return func(ctx context.Context) (image.Image, error) {
		<-release
		return img, nil
	}, release
}

func assertOps(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected ops %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected ops %v, got %v", want, got)
		}
	}
}

func TestRenderer_SurfaceSizedToImage(t *testing.T) {
	surface := &recordingSurface{width: 10, height: 10}
	r := New(surface, ImageLoader(image.NewRGBA(image.Rect(0, 0, 640, 480))))
	waitReady(t, r)

	w, h := surface.Size()
	if w != 640 || h != 480 {
		t.Errorf("expected 640x480, got %dx%d", w, h)
	}
	assertOps(t, surface.take(), "resize 640x480", "background", "flush")
	if r.State() != ImageReady {
		t.Errorf("expected ready state, got %s", r.State())
	}
}

func TestRenderer_NoDrawingBeforeImageLoads(t *testing.T) {
	surface := &recordingSurface{}
	load, release := gatedLoader(image.NewRGBA(image.Rect(0, 0, 100, 100)))
	r := New(surface, load)

	r.RouteChanged(models.NewRoute([]models.RouteSegment{{Start: models.Point{X: 1, Y: 2}, End: models.Point{X: 3, Y: 4}}}))

	if ops := surface.take(); len(ops) != 0 {
		t.Fatalf("expected no drawing before load, got %v", ops)
	}
	if r.State() != ImageNotReady {
		t.Errorf("expected loading state, got %s", r.State())
	}

	close(release)
	waitReady(t, r)

	assertOps(t, surface.take(), "resize 100x100", "background", "line 1,2->3,4", "flush")
}

func TestRenderer_OnlyLatestQueuedRouteReplayed(t *testing.T) {
	surface := &recordingSurface{}
	load, release := gatedLoader(image.NewRGBA(image.Rect(0, 0, 50, 50)))
	r := New(surface, load)

	r.RouteChanged(models.NewRoute([]models.RouteSegment{{Start: models.Point{X: 1, Y: 1}, End: models.Point{X: 2, Y: 2}}}))
	r.RouteChanged(models.NewRoute([]models.RouteSegment{{Start: models.Point{X: 5, Y: 5}, End: models.Point{X: 6, Y: 6}}}))

	close(release)
	waitReady(t, r)

	assertOps(t, surface.take(), "resize 50x50", "background", "line 5,5->6,6", "flush")
}

func TestRenderer_SegmentsDrawnInOrderAfterBackground(t *testing.T) {
	surface := &recordingSurface{}
	r := New(surface, ImageLoader(image.NewRGBA(image.Rect(0, 0, 100, 100))))
	waitReady(t, r)
	surface.take()

	r.RouteChanged(models.NewRoute([]models.RouteSegment{
		{Start: models.Point{X: 10, Y: 20}, End: models.Point{X: 30, Y: 40}},
		{Start: models.Point{X: 30, Y: 40}, End: models.Point{X: 50, Y: 60}},
		{Start: models.Point{X: 50, Y: 60}, End: models.Point{X: 5, Y: 5}},
	}))

	assertOps(t, surface.take(),
		"background",
		"line 10,20->30,40",
		"line 30,40->50,60",
		"line 50,60->5,5",
		"flush",
	)
}

func TestRenderer_EmptyAndNoSegmentsAreEquivalent(t *testing.T) {
	routes := map[string]models.Route{
		"empty":        models.EmptyRoute(),
		"empty slice":  models.NewRoute([]models.RouteSegment{}),
		"nil segments": models.NewRoute(nil),
	}

	for name, route := range routes {
		t.Run(name, func(t *testing.T) {
			surface := &recordingSurface{}
			r := New(surface, ImageLoader(image.NewRGBA(image.Rect(0, 0, 10, 10))))
			waitReady(t, r)
			surface.take()

			r.RouteChanged(route)

			assertOps(t, surface.take(), "background", "flush")
		})
	}
}

func TestRenderer_EmptyRouteIgnoresStaleSegments(t *testing.T) {
	surface := &recordingSurface{}
	r := New(surface, ImageLoader(image.NewRGBA(image.Rect(0, 0, 10, 10))))
	waitReady(t, r)
	surface.take()

	r.RouteChanged(models.Route{Present: false, Segments: []models.RouteSegment{{}}})

	assertOps(t, surface.take(), "background", "flush")
}

func TestRenderer_RevisionIncreasesPerRepaint(t *testing.T) {
	surface := &recordingSurface{}
	r := New(surface, ImageLoader(image.NewRGBA(image.Rect(0, 0, 10, 10))))
	waitReady(t, r)

	before := r.Revision()
	r.RouteChanged(models.EmptyRoute())
	r.RouteChanged(models.EmptyRoute())

	if r.Revision() != before+2 {
		t.Errorf("expected revision %d, got %d", before+2, r.Revision())
	}
}

func TestRenderer_ImageFailureLeavesSurfaceBlank(t *testing.T) {
	surface := &recordingSurface{}
	r := New(surface, func(ctx context.Context) (image.Image, error) {
		return nil, errors.New("missing file")
	})
	waitReady(t, r)

	r.RouteChanged(models.NewRoute([]models.RouteSegment{{Start: models.Point{X: 1, Y: 1}, End: models.Point{X: 2, Y: 2}}}))

	if ops := surface.take(); len(ops) != 0 {
		t.Fatalf("expected no drawing after image failure, got %v", ops)
	}
	if r.State() != ImageFailed {
		t.Errorf("expected failed state, got %s", r.State())
	}
	if r.LoadError() == nil {
		t.Error("expected load error to be recorded")
	}
	if len(r.Current().Segments) != 1 {
		t.Error("expected route to still be tracked")
	}
}

func TestRenderer_RouteCopiedOnChange(t *testing.T) {
	surface := &recordingSurface{}
	r := New(surface, ImageLoader(image.NewRGBA(image.Rect(0, 0, 10, 10))))
	waitReady(t, r)

	segments := []models.RouteSegment{{Start: models.Point{X: 1, Y: 1}, End: models.Point{X: 2, Y: 2}}}
	r.RouteChanged(models.NewRoute(segments))
	segments[0].Start.X = 99

	if r.Current().Segments[0].Start.X != 1 {
		t.Error("renderer state changed through caller's slice")
	}
}
