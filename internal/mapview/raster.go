package mapview

import (
	"image"
	"image/draw"
	"math"
	"sync"

	"campus-paths/internal/models"
)

// RasterSurface is an in-memory RGBA surface with a back buffer for drawing
// and a front buffer for readers.
type RasterSurface struct {
	mu    sync.RWMutex
	back  *image.RGBA
	front *image.RGBA
}

// NewRasterSurface creates a zero-size surface. It gets its real size once
// the background image has loaded.
func NewRasterSurface() *RasterSurface {
	return &RasterSurface{
		back:  image.NewRGBA(image.Rect(0, 0, 0, 0)),
		front: image.NewRGBA(image.Rect(0, 0, 0, 0)),
	}
}

func (s *RasterSurface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	s.back = image.NewRGBA(image.Rect(0, 0, width, height))
}

func (s *RasterSurface) Size() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := s.back.Bounds()
	return b.Dx(), b.Dy()
}

func (s *RasterSurface) DrawImage(img image.Image, at image.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := img.Bounds()
	dst := image.Rectangle{Min: at, Max: at.Add(b.Size())}
	draw.Draw(s.back, dst, img, b.Min, draw.Src)
}

func (s *RasterSurface) StrokeLine(from, to models.Point, stroke Stroke) {
	s.mu.Lock()
	defer s.mu.Unlock()
	strokeLine(s.back, from, to, stroke)
}

func (s *RasterSurface) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	front := image.NewRGBA(s.back.Bounds())
	copy(front.Pix, s.back.Pix)
	s.front = front
}

// Snapshot returns a copy of the last flushed frame
func (s *RasterSurface) Snapshot() *image.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := image.NewRGBA(s.front.Bounds())
	copy(out.Pix, s.front.Pix)
	return out
}

// strokeLine stamps a filled disc of the stroke width at unit steps along the
// segment, which gives round caps and joins between consecutive segments.
// The segment is first clipped to the image grown by the stroke radius, so
// the work is bounded by the surface size whatever the endpoints are.
func strokeLine(img *image.RGBA, from, to models.Point, stroke Stroke) {
	half := stroke.Width / 2
	if half < 0.5 {
		half = 0.5
	}

	from, to, ok := clipSegment(from, to, img.Bounds(), half+1)
	if !ok {
		return
	}

	dx := to.X - from.X
	dy := to.Y - from.Y
	steps := math.Ceil(math.Max(math.Abs(dx), math.Abs(dy)))
	if steps < 1 {
		steps = 1
	}

	for i := 0.0; i <= steps; i++ {
		t := i / steps
		stampDisc(img, from.X+dx*t, from.Y+dy*t, half, stroke)
	}
}

// clipSegment clips a segment to bounds grown by margin (Liang-Barsky).
// It reports false when nothing of the segment is inside or a coordinate is
// not finite.
func clipSegment(from, to models.Point, bounds image.Rectangle, margin float64) (models.Point, models.Point, bool) {
	for _, v := range []float64{from.X, from.Y, to.X, to.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return from, to, false
		}
	}

	xmin := float64(bounds.Min.X) - margin
	xmax := float64(bounds.Max.X) + margin
	ymin := float64(bounds.Min.Y) - margin
	ymax := float64(bounds.Max.Y) + margin

	dx := to.X - from.X
	dy := to.Y - from.Y
	t0, t1 := 0.0, 1.0

	edges := [4][2]float64{
		{-dx, from.X - xmin},
		{dx, xmax - from.X},
		{-dy, from.Y - ymin},
		{dy, ymax - from.Y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return from, to, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return from, to, false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return from, to, false
			}
			if r < t1 {
				t1 = r
			}
		}
	}

	clippedFrom := models.Point{X: from.X + dx*t0, Y: from.Y + dy*t0}
	clippedTo := models.Point{X: from.X + dx*t1, Y: from.Y + dy*t1}
	return clippedFrom, clippedTo, true
}

func stampDisc(img *image.RGBA, cx, cy, radius float64, stroke Stroke) {
	bounds := img.Bounds()
	minX := int(math.Floor(cx - radius))
	maxX := int(math.Ceil(cx + radius))
	minY := int(math.Floor(cy - radius))
	maxY := int(math.Ceil(cy + radius))
	r2 := radius * radius

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if !(image.Point{X: x, Y: y}).In(bounds) {
				continue
			}
			px := float64(x) + 0.5 - cx
			py := float64(y) + 0.5 - cy
			if px*px+py*py <= r2 {
				img.SetRGBA(x, y, stroke.Color)
			}
		}
	}
}
