// Package crop maps normalized detection boxes into page pixel space
// and extracts the corresponding sub-images.
package crop

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/draw"

	"github.com/jackzampolin/folio/internal/manifest"
)

// PixelBox maps a normalized box onto a page raster of the given
// dimensions. Each coordinate is rounded independently, clamped to the
// valid pixel range, and the box is widened by one pixel on a side that
// clamping collapsed, so the result always satisfies x0<x1 and y0<y1.
func PixelBox(box manifest.BoxNorm, width, height int) (manifest.BoxPixels, error) {
	if width <= 0 || height <= 0 {
		return manifest.BoxPixels{}, fmt.Errorf("invalid page dimensions %dx%d", width, height)
	}

	px := manifest.BoxPixels{
		X0: clampInt(round(box.X0*float64(width)), 0, width),
		Y0: clampInt(round(box.Y0*float64(height)), 0, height),
		X1: clampInt(round(box.X1*float64(width)), 0, width),
		Y1: clampInt(round(box.Y1*float64(height)), 0, height),
	}

	px.X0, px.X1 = widen(px.X0, px.X1, width)
	px.Y0, px.Y1 = widen(px.Y0, px.Y1, height)
	return px, nil
}

// Crop extracts the normalized box from the page image and writes it
// as PNG to outPath, returning the pixel box actually cropped.
func Crop(pageImagePath string, box manifest.BoxNorm, outPath string) (manifest.BoxPixels, error) {
	f, err := os.Open(pageImagePath)
	if err != nil {
		return manifest.BoxPixels{}, fmt.Errorf("failed to open page image: %w", err)
	}
	src, err := png.Decode(f)
	f.Close()
	if err != nil {
		return manifest.BoxPixels{}, fmt.Errorf("failed to decode page image: %w", err)
	}

	bounds := src.Bounds()
	px, err := PixelBox(box, bounds.Dx(), bounds.Dy())
	if err != nil {
		return manifest.BoxPixels{}, err
	}

	rect := image.Rect(
		bounds.Min.X+px.X0,
		bounds.Min.Y+px.Y0,
		bounds.Min.X+px.X1,
		bounds.Min.Y+px.Y1,
	)
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Copy(dst, image.Point{}, src, rect, draw.Src, nil)

	out, err := os.Create(outPath)
	if err != nil {
		return manifest.BoxPixels{}, fmt.Errorf("failed to create crop file: %w", err)
	}
	encErr := png.Encode(out, dst)
	closeErr := out.Close()
	if encErr != nil {
		return manifest.BoxPixels{}, fmt.Errorf("failed to encode crop: %w", encErr)
	}
	if closeErr != nil {
		return manifest.BoxPixels{}, fmt.Errorf("failed to write crop: %w", closeErr)
	}

	return px, nil
}

// widen guarantees lo < hi within [0, max] after clamping, moving one
// pixel outward when the interval collapsed.
func widen(lo, hi, max int) (int, int) {
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == hi {
		if hi < max {
			hi++
		} else {
			lo--
		}
	}
	return lo, hi
}

func round(v float64) int {
	return int(math.Round(v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
