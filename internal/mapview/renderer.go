package mapview

import (
	"context"
	"errors"
	"image"
	"log"
	"sync"

	"campus-paths/internal/models"
)

// ErrImageNotReady is returned when a frame is requested before the
// background image has loaded
var ErrImageNotReady = errors.New("map image not ready")

// ImageState gates all drawing on the background image
type ImageState string

const (
	ImageNotReady ImageState = "loading"
	ImageReady    ImageState = "ready"
	ImageFailed   ImageState = "failed"
)

// Renderer owns the drawing surface and the background image. Every repaint
// starts from the image; segments of a previous route are never erased
// incrementally.
//
// Route changes that arrive before the image has loaded are queued. Only the
// latest one is kept and it is painted right after the background.
type Renderer struct {
	surface Surface
	stroke  Stroke

	mu         sync.Mutex
	state      ImageState
	background image.Image
	current    models.Route
	pending    *models.Route
	revision   uint64
	loadErr    error

	ready chan struct{}
}

// New records the surface and starts loading the background image
func New(surface Surface, load Loader) *Renderer {
	r := &Renderer{
		surface: surface,
		stroke:  DefaultStroke,
		state:   ImageNotReady,
		ready:   make(chan struct{}),
	}

	go func() {
		img, err := load(context.Background())
		if err != nil {
			r.onImageFailed(err)
			return
		}
		r.onImageLoaded(img)
	}()

	return r
}

func (r *Renderer) onImageLoaded(img image.Image) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer close(r.ready)

	b := img.Bounds()
	r.background = img
	r.state = ImageReady
	r.surface.Resize(b.Dx(), b.Dy())
	log.Printf("[MAPVIEW] Background loaded: width=%d height=%d", b.Dx(), b.Dy())

	if r.pending != nil {
		r.current = *r.pending
		r.pending = nil
		log.Printf("[MAPVIEW] Replaying queued route: segments=%d", len(r.current.Segments))
	}
	r.repaintLocked()
}

func (r *Renderer) onImageFailed(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer close(r.ready)

	r.state = ImageFailed
	r.loadErr = err
	r.pending = nil
	log.Printf("[ERROR] Map image failed to load, surface stays blank: err=%v", err)
}

// RouteChanged repaints the background and then the route's segments in order
func (r *Renderer) RouteChanged(route models.Route) {
	route = route.Clone()

	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case ImageNotReady:
		r.pending = &route
		return
	case ImageFailed:
		r.current = route
		return
	}

	r.current = route
	r.repaintLocked()
}

func (r *Renderer) repaintLocked() {
	r.surface.DrawImage(r.background, image.Point{})
	if r.current.Present {
		for _, seg := range r.current.Segments {
			r.surface.StrokeLine(seg.Start, seg.End, r.stroke)
		}
	}
	r.surface.Flush()
	r.revision++
}

// Ready is closed once loading has finished, successfully or not
func (r *Renderer) Ready() <-chan struct{} {
	return r.ready
}

// State returns the image gate state
func (r *Renderer) State() ImageState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// LoadError returns why the image failed to load, if it did
func (r *Renderer) LoadError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadErr
}

// Revision increases on every repaint
func (r *Renderer) Revision() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revision
}

// Current returns the route most recently handed to the renderer
func (r *Renderer) Current() models.Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending != nil {
		return r.pending.Clone()
	}
	return r.current.Clone()
}
