// Package extract drives batched vision-model calls over page images
// to produce a document's title, authors, and ordered sections.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jackzampolin/folio/internal/providers"
	"github.com/jackzampolin/folio/internal/render"
)

// DefaultPagesPerCall is how many page images go into one model call.
const DefaultPagesPerCall = 6

// Section is one extracted section in first-seen order. Names are
// unique within a Result; text may be empty.
type Section struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Result is the merged outcome of all batch calls for one document.
type Result struct {
	Title    string    `json:"title"`
	Authors  []string  `json:"authors"`
	Sections []Section `json:"sections"`

	// BatchErrors records batches whose call failed. Those batches
	// contribute nothing; the rest of the document is unaffected.
	BatchErrors []string `json:"batch_errors,omitempty"`
}

// BatchObserver receives batch-level progress events.
type BatchObserver interface {
	BatchStart(batch, total, pageStart, pageEnd int, carry string)
	BatchDone(batch int, sections int, nextCarry string, elapsed time.Duration)
}

// Extractor runs the batched extraction loop.
type Extractor struct {
	Client       providers.LLMClient
	Model        string
	PagesPerCall int
	// MaxPages truncates the page sequence considered for text
	// extraction (cost control). Zero means all pages. Detection and
	// cropping always use the full sequence.
	MaxPages int
	Logger   *slog.Logger
	Observer BatchObserver
}

// New creates an Extractor with defaults applied.
func New(client providers.LLMClient, model string, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		Client:       client,
		Model:        model,
		PagesPerCall: DefaultPagesPerCall,
		Logger:       logger,
	}
}

// ExtractPages partitions the (truncated) page sequence into batches,
// invokes the model per batch with carry-over context, and merges the
// results. A failed batch is recorded and skipped; the carry-over is
// frozen at its pre-batch value.
func (e *Extractor) ExtractPages(ctx context.Context, pages []render.Page) (*Result, error) {
	result := &Result{Authors: []string{}, Sections: []Section{}}
	if len(pages) == 0 {
		return result, nil
	}

	perCall := e.PagesPerCall
	if perCall < 1 {
		perCall = DefaultPagesPerCall
	}
	if e.MaxPages > 0 && len(pages) > e.MaxPages {
		pages = pages[:e.MaxPages]
	}

	totalBatches := (len(pages) + perCall - 1) / perCall
	sectionIndex := make(map[string]int) // name -> index in result.Sections
	carry := ""

	for b := 0; b < totalBatches; b++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch := pages[b*perCall : min(len(pages), (b+1)*perCall)]
		pageStart := batch[0].Number
		pageEnd := batch[len(batch)-1].Number

		if e.Observer != nil {
			e.Observer.BatchStart(b+1, totalBatches, pageStart, pageEnd, carry)
		}

		start := time.Now()
		br, err := e.callBatch(ctx, batch, carry)
		if err != nil {
			// Conservative: do not propagate unknown state forward.
			// The next batch reuses the pre-failure carry-over.
			msg := fmt.Sprintf("batch %d (pages %d-%d): %v", b+1, pageStart, pageEnd, err)
			result.BatchErrors = append(result.BatchErrors, msg)
			e.Logger.Warn("extraction batch failed", "batch", b+1, "pages", fmt.Sprintf("%d-%d", pageStart, pageEnd), "error", err)
			if e.Observer != nil {
				e.Observer.BatchDone(b+1, 0, carry, time.Since(start))
			}
			continue
		}

		mergeBatch(result, sectionIndex, br)
		carry = nextCarry(br, carry)

		if e.Observer != nil {
			e.Observer.BatchDone(b+1, len(br.Sections), carry, time.Since(start))
		}
	}

	return result, nil
}

// callBatch sends one model call with the batch's page images and the
// accumulated carry-over.
func (e *Extractor) callBatch(ctx context.Context, batch []render.Page, carry string) (*batchResult, error) {
	images := make([][]byte, 0, len(batch))
	for _, p := range batch {
		data, err := os.ReadFile(p.ImagePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read page image %s: %w", p.ImagePath, err)
		}
		images = append(images, data)
	}

	req := &providers.ChatRequest{
		Model: e.Model,
		Messages: []providers.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(batch[0].Number, batch[len(batch)-1].Number, carry), Images: images},
		},
		ResponseFormat: buildResponseFormat(),
		Temperature:    0.1,
	}

	res, err := e.Client.Chat(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(res.ParsedJSON) == 0 {
		return nil, fmt.Errorf("model returned no structured output")
	}

	var br batchResult
	if err := json.Unmarshal(res.ParsedJSON, &br); err != nil {
		return nil, fmt.Errorf("failed to decode extraction result: %w", err)
	}
	return &br, nil
}

// mergeBatch folds one batch result into the document result.
// Title and authors are set once, first non-empty value wins. A section
// whose name was already seen has its text appended, never duplicated;
// this is how a section split across a batch boundary is stitched back
// together. Empty or whitespace-only names are dropped.
func mergeBatch(result *Result, sectionIndex map[string]int, br *batchResult) {
	if result.Title == "" {
		result.Title = strings.TrimSpace(br.Title)
	}
	if len(result.Authors) == 0 {
		for _, a := range br.Authors {
			if a = strings.TrimSpace(a); a != "" {
				result.Authors = append(result.Authors, a)
			}
		}
	}

	for _, sec := range br.Sections {
		name := strings.TrimSpace(sec.Name)
		if name == "" {
			continue
		}
		text := strings.TrimSpace(sec.Text)

		if idx, seen := sectionIndex[name]; seen {
			if text != "" {
				if result.Sections[idx].Text != "" {
					result.Sections[idx].Text += "\n\n" + text
				} else {
					result.Sections[idx].Text = text
				}
			}
			continue
		}
		sectionIndex[name] = len(result.Sections)
		result.Sections = append(result.Sections, Section{Name: name, Text: text})
	}
}

// nextCarry picks the carry-over for the following batch: the model's
// suggestion when present, otherwise the last named section of this
// batch, otherwise the previous carry-over.
func nextCarry(br *batchResult, prev string) string {
	if c := strings.TrimSpace(br.NextCarry); c != "" {
		return c
	}
	for i := len(br.Sections) - 1; i >= 0; i-- {
		if name := strings.TrimSpace(br.Sections[i].Name); name != "" {
			return name
		}
	}
	return prev
}
