// Package pipeline sequences rendering, text extraction, layout
// detection, cropping, and manifest writing per document, and across a
// batch of documents.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackzampolin/folio/internal/crop"
	"github.com/jackzampolin/folio/internal/detect"
	"github.com/jackzampolin/folio/internal/extract"
	"github.com/jackzampolin/folio/internal/home"
	"github.com/jackzampolin/folio/internal/manifest"
	"github.com/jackzampolin/folio/internal/render"
)

// Pipeline runs the per-document extraction sequence. Documents are
// processed one at a time in input order; no state crosses document
// boundaries except the accumulating run manifest.
type Pipeline struct {
	Home      *home.Dir
	Renderer  render.Renderer
	Extractor *extract.Extractor
	Detector  *detect.Detector
	Logger    *slog.Logger
	Observer  Observer
}

// New wires a pipeline, applying a no-op observer and default logger
// when unset.
func New(h *home.Dir, renderer render.Renderer, extractor *extract.Extractor, detector *detect.Detector, logger *slog.Logger, obs Observer) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if obs == nil {
		obs = NopObserver{}
	}
	extractor.Observer = obs
	return &Pipeline{
		Home:      h,
		Renderer:  renderer,
		Extractor: extractor,
		Detector:  detector,
		Logger:    logger,
		Observer:  obs,
	}
}

// Run processes every *.pdf in inputDir and writes the run manifest
// once at the end. Individual document failures degrade to errored run
// entries; the run always completes unless the context is canceled.
func (p *Pipeline) Run(ctx context.Context, inputDir string) (*manifest.Run, error) {
	pdfs, err := listPDFs(inputDir)
	if err != nil {
		return nil, err
	}
	if len(pdfs) == 0 {
		return nil, fmt.Errorf("no PDFs found in %s", inputDir)
	}

	if err := p.Home.EnsureExists(); err != nil {
		return nil, err
	}

	runStart := time.Now()
	p.Observer.RunStart(len(pdfs))

	run := &manifest.Run{}
	var docTime time.Duration

	for i, pdfPath := range pdfs {
		docID := home.DocID(pdfPath)
		p.Observer.DocStart(i+1, len(pdfs), docID)

		docStart := time.Now()
		doc, docErr := p.ProcessDocument(ctx, pdfPath, docID)
		if docErr != nil && ctxDone(docErr) {
			return nil, docErr
		}

		var entry manifest.RunEntry
		errored := false
		switch {
		case docErr != nil:
			// Manifest write failure or similar: fatal for this
			// document, never for the run.
			entry = manifest.RunEntry{Name: docID, PDF: pdfPath, Error: docErr.Error()}
			errored = true
			p.Observer.DocFail(docID, docErr)
		default:
			entry = doc.Summary(docID, p.Home.ManifestPath(docID))
			errored = doc.Errored()
			p.Observer.DocDone(docID, time.Since(docStart))
		}
		run.Add(entry, errored)

		docTime += time.Since(docStart)
		avg := docTime / time.Duration(i+1)
		p.Observer.RunStatus(RunStatus{
			Done:      i + 1,
			Total:     len(pdfs),
			Elapsed:   time.Since(runStart),
			AvgPerDoc: avg,
			ETA:       avg * time.Duration(len(pdfs)-i-1),
		})
	}

	if err := run.Save(p.Home.RunManifestPath()); err != nil {
		return nil, err
	}

	p.Observer.RunDone(RunStatus{
		Done:      len(pdfs),
		Total:     len(pdfs),
		Elapsed:   time.Since(runStart),
		AvgPerDoc: docTime / time.Duration(len(pdfs)),
	})
	return run, nil
}

// ProcessDocument runs render → extract → detect → crop → manifest for
// one PDF. A render failure still yields a (mostly empty) manifest; a
// returned error means the manifest itself could not be produced.
func (p *Pipeline) ProcessDocument(ctx context.Context, pdfPath, docID string) (*manifest.Document, error) {
	if err := p.Home.EnsureDocDirs(docID); err != nil {
		return nil, err
	}
	doc := manifest.New(pdfPath, p.Home.DocDir(docID))

	p.Observer.Step(docID, "rendering pages")
	pages, err := p.Renderer.RenderDocument(ctx, pdfPath, p.Home.PagesDir(docID))
	if err != nil {
		if ctxDone(err) {
			return nil, err
		}
		// Whole-document render failure: no extraction or detection,
		// but the document still appears exactly once in the run.
		doc.RenderError = err.Error()
		p.Logger.Warn("render failed", "doc", docID, "error", err)
		if saveErr := doc.Save(p.Home.ManifestPath(docID)); saveErr != nil {
			return nil, saveErr
		}
		return doc, nil
	}

	p.Observer.Step(docID, "extracting text")
	if err := p.extractText(ctx, docID, doc, pages); err != nil {
		return nil, err
	}

	p.Observer.Step(docID, "detecting and cropping figures/tables")
	p.detectAndCrop(ctx, docID, doc, pages)

	p.Observer.Step(docID, "writing manifest")
	if err := doc.Save(p.Home.ManifestPath(docID)); err != nil {
		return nil, err
	}
	return doc, nil
}

// extractText runs the batched extractor and persists the text
// artifacts: title, authors, per-section files, and the extraction
// snapshot.
func (p *Pipeline) extractText(ctx context.Context, docID string, doc *manifest.Document, pages []render.Page) error {
	result, err := p.Extractor.ExtractPages(ctx, pages)
	if err != nil {
		return err
	}

	doc.Title = result.Title
	doc.Authors = result.Authors
	doc.ExtractErrors = result.BatchErrors

	if err := os.WriteFile(p.Home.TitlePath(docID), []byte(result.Title), 0o644); err != nil {
		return fmt.Errorf("failed to write title: %w", err)
	}
	authors := strings.Join(result.Authors, "\n")
	if err := os.WriteFile(p.Home.AuthorsPath(docID), []byte(authors), 0o644); err != nil {
		return fmt.Errorf("failed to write authors: %w", err)
	}

	slugs := make(map[string]int)
	for _, sec := range result.Sections {
		slug := home.Slugify(sec.Name)
		// Distinct names can slugify identically; suffix to keep one
		// file per section.
		if n := slugs[slug]; n > 0 {
			slugs[slug] = n + 1
			slug = fmt.Sprintf("%s_%d", slug, n+1)
		} else {
			slugs[slug] = 1
		}

		path := p.Home.SectionTextPath(docID, slug)
		if err := os.WriteFile(path, []byte(sec.Text), 0o644); err != nil {
			return fmt.Errorf("failed to write section %q: %w", sec.Name, err)
		}
		doc.Sections = append(doc.Sections, manifest.SectionRecord{Name: sec.Name, File: path})
	}

	return writeTextSnapshot(p.Home.TextManifestPath(docID), result)
}

// detectAndCrop runs per-page detection and cropping. Page and item
// failures are recorded in the document and never abort it.
func (p *Pipeline) detectAndCrop(ctx context.Context, docID string, doc *manifest.Document, pages []render.Page) {
	for _, page := range pages {
		record := manifest.PageRecord{
			Page:    page.Number,
			PagePNG: page.ImagePath,
			Width:   page.Width,
			Height:  page.Height,
			Items:   []manifest.ItemRecord{},
		}

		items, err := p.Detector.DetectPage(ctx, page)
		if err != nil {
			record.Error = err.Error()
			p.Logger.Warn("detection failed", "doc", docID, "page", page.Number, "error", err)
			doc.Pages = append(doc.Pages, record)
			continue
		}

		seq := map[string]int{}
		for _, item := range items {
			seq[item.Type]++
			outPath := p.Home.CropImagePath(docID, item.Type, page.Number, seq[item.Type])

			itemRecord := manifest.ItemRecord{
				Type:       item.Type,
				Caption:    item.Caption,
				Confidence: item.Confidence,
				BBoxNorm:   item.Box,
			}

			px, cropErr := crop.Crop(page.ImagePath, item.Box, outPath)
			if cropErr != nil {
				// Sibling items on the same page are unaffected.
				itemRecord.Error = cropErr.Error()
				p.Logger.Warn("crop failed", "doc", docID, "page", page.Number, "type", item.Type, "error", cropErr)
			} else {
				itemRecord.BBoxPx = px
				itemRecord.Image = outPath
			}
			record.Items = append(record.Items, itemRecord)
		}

		doc.Pages = append(doc.Pages, record)
	}
}

func writeTextSnapshot(path string, result *extract.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode text manifest: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write text manifest: %w", err)
	}
	return nil
}

// ctxDone reports whether err came from run-context termination, by
// cancellation or deadline. Those abort the whole run instead of
// degrading to a per-document error.
func ctxDone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func listPDFs(inputDir string) ([]string, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}
	var pdfs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), ".pdf") {
			pdfs = append(pdfs, filepath.Join(inputDir, entry.Name()))
		}
	}
	sort.Strings(pdfs)
	return pdfs, nil
}
