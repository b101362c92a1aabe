package mapview

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	captionHeight   = 32
	captionFontSize = 16
	captionPadding  = 10
)

var (
	captionBackground = color.RGBA{0x2C, 0x3E, 0x50, 0xFF}
	captionText       = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
)

// ExportOptions controls how a frame is encoded for the view
type ExportOptions struct {
	// MaxWidth down-scales the frame when it is wider; 0 keeps natural size.
	MaxWidth int
	// Caption, when set, is drawn in a bar below the map.
	Caption string
}

// EncodePNG writes the last flushed frame as PNG
func (s *RasterSurface) EncodePNG(w io.Writer, opts ExportOptions) error {
	frame := s.Snapshot()
	if frame.Bounds().Empty() {
		return fmt.Errorf("surface is empty")
	}

	var out image.Image = frame
	if opts.MaxWidth > 0 && frame.Bounds().Dx() > opts.MaxWidth {
		out = scaleToWidth(frame, opts.MaxWidth)
	}
	if opts.Caption != "" {
		out = withCaption(out, opts.Caption)
	}

	if err := png.Encode(w, out); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

func scaleToWidth(src *image.RGBA, width int) *image.RGBA {
	b := src.Bounds()
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

func withCaption(src image.Image, caption string) *image.RGBA {
	b := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()+captionHeight))
	xdraw.Draw(out, image.Rect(0, 0, b.Dx(), b.Dy()), src, b.Min, xdraw.Src)
	xdraw.Draw(out, image.Rect(0, b.Dy(), b.Dx(), b.Dy()+captionHeight), &image.Uniform{C: captionBackground}, image.Point{}, xdraw.Src)

	face := captionFace()
	metrics := face.Metrics()
	baseline := b.Dy() + (captionHeight+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	d := &font.Drawer{
		Dst:  out,
		Src:  image.NewUniform(captionText),
		Face: face,
		Dot:  fixed.P(captionPadding, baseline),
	}
	d.DrawString(caption)
	return out
}

var (
	captionFaceOnce sync.Once
	captionFaceVal  font.Face
)

func captionFace() font.Face {
	captionFaceOnce.Do(func() {
		captionFaceVal = basicfont.Face7x13
		fnt, err := opentype.Parse(goregular.TTF)
		if err != nil {
			return
		}
		face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
			Size:    captionFontSize,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			return
		}
		captionFaceVal = face
	})
	return captionFaceVal
}
