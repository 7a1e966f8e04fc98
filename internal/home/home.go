package home

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// PagesDirName holds rendered page rasters for a document.
	PagesDirName = "pages"

	// FiguresDirName holds cropped figure images.
	FiguresDirName = "figures"

	// TablesDirName holds cropped table images.
	TablesDirName = "tables"

	// SectionsDirName holds one text file per extracted section.
	SectionsDirName = "sections"

	// RunManifestName is the aggregate manifest written once per run.
	RunManifestName = "run_manifest.json"
)

// Dir represents the output directory layout for a run. Each document
// gets its own subdirectory keyed by the PDF filename stem.
type Dir struct {
	path string
}

// New creates a Dir rooted at the given output path.
func New(path string) (*Dir, error) {
	if path == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}
	return &Dir{path: abs}, nil
}

// Path returns the root output path.
func (d *Dir) Path() string {
	return d.path
}

// EnsureExists creates the root output directory if needed.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// DocDir returns the directory for one document's artifacts.
func (d *Dir) DocDir(docID string) string {
	return filepath.Join(d.path, docID)
}

// PagesDir returns the rendered page image directory for a document.
func (d *Dir) PagesDir(docID string) string {
	return filepath.Join(d.DocDir(docID), PagesDirName)
}

// FiguresDir returns the figure crop directory for a document.
func (d *Dir) FiguresDir(docID string) string {
	return filepath.Join(d.DocDir(docID), FiguresDirName)
}

// TablesDir returns the table crop directory for a document.
func (d *Dir) TablesDir(docID string) string {
	return filepath.Join(d.DocDir(docID), TablesDirName)
}

// SectionsDir returns the section text directory for a document.
func (d *Dir) SectionsDir(docID string) string {
	return filepath.Join(d.DocDir(docID), SectionsDirName)
}

// EnsureDocDirs creates all per-document subdirectories.
func (d *Dir) EnsureDocDirs(docID string) error {
	for _, dir := range []string{
		d.PagesDir(docID),
		d.FiguresDir(docID),
		d.TablesDir(docID),
		d.SectionsDir(docID),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// PageImagePath returns the path for a rendered page image.
// Page numbers are 1-indexed.
func (d *Dir) PageImagePath(docID string, pageNum int) string {
	return filepath.Join(d.PagesDir(docID), fmt.Sprintf("page_%03d.png", pageNum))
}

// CropImagePath returns the path for a cropped figure or table image.
// seq is the 1-indexed per-page sequence number for that item type, so
// multiple tables on one page do not collide.
func (d *Dir) CropImagePath(docID, itemType string, pageNum, seq int) string {
	dir := d.FiguresDir(docID)
	if itemType == "table" {
		dir = d.TablesDir(docID)
	}
	return filepath.Join(dir, fmt.Sprintf("%s_p%03d_%02d.png", itemType, pageNum, seq))
}

// SectionTextPath returns the path for one section's text file.
func (d *Dir) SectionTextPath(docID, slug string) string {
	return filepath.Join(d.SectionsDir(docID), slug+".txt")
}

// TitlePath returns the path of the extracted title file.
func (d *Dir) TitlePath(docID string) string {
	return filepath.Join(d.DocDir(docID), "title.txt")
}

// AuthorsPath returns the path of the extracted authors file.
func (d *Dir) AuthorsPath(docID string) string {
	return filepath.Join(d.DocDir(docID), "authors.txt")
}

// ManifestPath returns the path of the per-document manifest.
func (d *Dir) ManifestPath(docID string) string {
	return filepath.Join(d.DocDir(docID), "manifest.json")
}

// TextManifestPath returns the path of the text-extraction snapshot.
func (d *Dir) TextManifestPath(docID string) string {
	return filepath.Join(d.DocDir(docID), "text_manifest.json")
}

// RunManifestPath returns the path of the run-level manifest.
func (d *Dir) RunManifestPath() string {
	return filepath.Join(d.path, RunManifestName)
}

// DocID derives a document identifier from a PDF path: the filename
// stem, slugified so it is always a safe directory name.
func DocID(pdfPath string) string {
	base := filepath.Base(pdfPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return Slugify(stem)
}
