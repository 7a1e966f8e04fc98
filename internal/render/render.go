// Package render converts a PDF into an ordered sequence of
// fixed-resolution page raster images.
package render

import (
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// DefaultDPI matches typical print-quality rasterization for vision
// model input.
const DefaultDPI = 200

// Page is one rendered page of a document.
type Page struct {
	Number    int    // 1-indexed
	ImagePath string // PNG on disk
	Width     int    // pixels
	Height    int    // pixels
}

// Renderer produces page rasters for a PDF. Failure surfaces
// per-document, not per-page.
type Renderer interface {
	RenderDocument(ctx context.Context, pdfPath, pagesDir string) ([]Page, error)
}

// FitzRenderer renders pages with MuPDF via go-fitz, after validating
// the input with pdfcpu.
type FitzRenderer struct {
	DPI    int
	Logger *slog.Logger
}

// NewFitzRenderer creates a renderer at the given DPI (DefaultDPI when
// zero).
func NewFitzRenderer(dpi int, logger *slog.Logger) *FitzRenderer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FitzRenderer{DPI: dpi, Logger: logger}
}

// RenderDocument renders every page of pdfPath into pagesDir as
// page_NNN.png and returns the ordered page list.
func (r *FitzRenderer) RenderDocument(ctx context.Context, pdfPath, pagesDir string) ([]Page, error) {
	pageCount, err := pdfPageCount(pdfPath)
	if err != nil {
		return nil, err
	}
	if pageCount == 0 {
		return nil, fmt.Errorf("pdf has no pages: %s", pdfPath)
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf %s: %w", pdfPath, err)
	}
	defer doc.Close()

	pages := make([]Page, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := doc.ImageDPI(i, float64(r.DPI))
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", i+1, err)
		}

		outPath := filepath.Join(pagesDir, fmt.Sprintf("page_%03d.png", i+1))
		f, err := os.Create(outPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create page image %s: %w", outPath, err)
		}
		encErr := png.Encode(f, img)
		closeErr := f.Close()
		if encErr != nil {
			return nil, fmt.Errorf("failed to encode page %d: %w", i+1, encErr)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("failed to write page %d: %w", i+1, closeErr)
		}

		bounds := img.Bounds()
		pages = append(pages, Page{
			Number:    i + 1,
			ImagePath: outPath,
			Width:     bounds.Dx(),
			Height:    bounds.Dy(),
		})
	}

	r.Logger.Debug("rendered document", "pdf", pdfPath, "pages", len(pages), "dpi", r.DPI)
	return pages, nil
}

// pdfPageCount validates the PDF and returns its page count using
// pdfcpu. Catching malformed files here keeps MuPDF failures rare.
func pdfPageCount(pdfPath string) (int, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open pdf %s: %w", pdfPath, err)
	}
	defer f.Close()

	count, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count for %s: %w", pdfPath, err)
	}
	return count, nil
}
