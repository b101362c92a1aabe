package mapview

import (
	"image"
	"image/color"

	"campus-paths/internal/models"
)

// Stroke is the fixed line style used for route segments
type Stroke struct {
	Color color.RGBA
	Width float64
}

// DefaultStroke is a 5px red line
var DefaultStroke = Stroke{
	Color: color.RGBA{R: 255, A: 255},
	Width: 5,
}

// Surface is a drawing target. Drawing calls go to a back buffer and become
// visible on Flush.
type Surface interface {
	Resize(width, height int)
	Size() (width, height int)
	DrawImage(img image.Image, at image.Point)
	StrokeLine(from, to models.Point, stroke Stroke)
	Flush()
}
