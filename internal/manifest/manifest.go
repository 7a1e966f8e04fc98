package manifest

import (
	"encoding/json"
	"fmt"
	"os"
)

// New creates an empty document manifest for one input PDF.
func New(pdfPath, outputDir string) *Document {
	return &Document{
		PDF:       pdfPath,
		OutputDir: outputDir,
		Authors:   []string{},
		Sections:  []SectionRecord{},
		Pages:     []PageRecord{},
	}
}

// ItemCount returns the number of accepted detections across all pages.
func (d *Document) ItemCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Items)
	}
	return n
}

// Errored reports whether any recoverable failure was recorded on the
// document, a page, or an item.
func (d *Document) Errored() bool {
	if d.RenderError != "" || len(d.ExtractErrors) > 0 {
		return true
	}
	for _, p := range d.Pages {
		if p.Error != "" {
			return true
		}
		for _, it := range p.Items {
			if it.Error != "" {
				return true
			}
		}
	}
	return false
}

// Summary produces this document's run manifest entry.
func (d *Document) Summary(name, manifestPath string) RunEntry {
	entry := RunEntry{
		Name:     name,
		PDF:      d.PDF,
		Manifest: manifestPath,
		Title:    d.Title,
		Pages:    len(d.Pages),
		Sections: len(d.Sections),
		Items:    d.ItemCount(),
	}
	if d.RenderError != "" {
		entry.Error = d.RenderError
	}
	return entry
}

// Save writes the document manifest as indented JSON.
func (d *Document) Save(path string) error {
	return writeJSON(path, d)
}

// Add appends a document summary and folds it into the totals.
func (r *Run) Add(entry RunEntry, errored bool) {
	r.Documents = append(r.Documents, entry)
	r.Totals.Documents++
	r.Totals.Pages += entry.Pages
	r.Totals.Sections += entry.Sections
	r.Totals.Items += entry.Items
	if errored {
		r.Totals.Errored++
	}
}

// Save writes the run manifest as indented JSON. It is written exactly
// once, after every document has been processed.
func (r *Run) Save(path string) error {
	if r.Documents == nil {
		r.Documents = []RunEntry{}
	}
	return writeJSON(path, r)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
