package mapview

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"strings"
)

// Loader produces the background image. It runs once, off the caller's goroutine.
type Loader func(ctx context.Context) (image.Image, error)

// NewLoader returns a loader for a file path or an http(s) URL.
// An empty source yields a plain grid placeholder.
func NewLoader(source string, client *http.Client) Loader {
	switch {
	case source == "":
		return PlaceholderLoader(1024, 768)
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		return URLLoader(source, client)
	default:
		return FileLoader(source)
	}
}

// FileLoader decodes a JPEG or PNG file
func FileLoader(path string) Loader {
	return func(ctx context.Context) (image.Image, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open map image: %w", err)
		}
		defer f.Close()
		return decode(f)
	}
}

// URLLoader fetches and decodes an image over HTTP
func URLLoader(url string, client *http.Client) Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) (image.Image, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create map image request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch map image: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to fetch map image: HTTP %d", resp.StatusCode)
		}
		return decode(resp.Body)
	}
}

// ImageLoader returns an already decoded image
func ImageLoader(img image.Image) Loader {
	return func(ctx context.Context) (image.Image, error) {
		return img, nil
	}
}

// PlaceholderLoader draws a light grid so the overlay stays usable without a map asset
func PlaceholderLoader(width, height int) Loader {
	return func(ctx context.Context) (image.Image, error) {
		img := image.NewRGBA(image.Rect(0, 0, width, height))
		bg := color.RGBA{0xE8, 0xE8, 0xE8, 0xFF}
		grid := color.RGBA{0xC8, 0xC8, 0xC8, 0xFF}
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				if x%64 == 0 || y%64 == 0 {
					img.SetRGBA(x, y, grid)
				} else {
					img.SetRGBA(x, y, bg)
				}
			}
		}
		return img, nil
	}
}

func decode(r io.Reader) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode map image: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("map image (%s) has no pixels", format)
	}
	return img, nil
}
