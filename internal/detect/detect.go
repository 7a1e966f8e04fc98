// Package detect finds figure and table regions on rendered pages via
// vision-model calls, one call per page.
package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jackzampolin/folio/internal/manifest"
	"github.com/jackzampolin/folio/internal/providers"
	"github.com/jackzampolin/folio/internal/render"
)

// DefaultMinConfidence gates which detections are kept.
const DefaultMinConfidence = 0.30

const systemPrompt = `You are a document layout detector. ` +
	`Find all TABLES and FIGURES on the page. ` +
	`Return normalized bounding boxes (x0,y0,x1,y1) in [0,1], where x0<x1 and y0<y1. ` +
	`Include the nearest caption text if visible, else an empty string. ` +
	`Report a confidence in [0,1] for each detection. ` +
	`Only include objects that are clearly tables or figures.`

// Item is one accepted detection on a page: confidence at or above the
// threshold and a non-degenerate normalized box.
type Item struct {
	Type       string
	Caption    string
	Confidence float64
	Box        manifest.BoxNorm
}

// Detector drives one model call per page.
type Detector struct {
	Client        providers.LLMClient
	Model         string
	MinConfidence float64
	Logger        *slog.Logger
}

// New creates a Detector. A negative minConfidence selects the
// default; zero is honored and keeps every detection.
func New(client providers.LLMClient, model string, minConfidence float64, logger *slog.Logger) *Detector {
	if minConfidence < 0 {
		minConfidence = DefaultMinConfidence
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		Client:        client,
		Model:         model,
		MinConfidence: minConfidence,
		Logger:        logger,
	}
}

// DetectPage returns the accepted detections for one page. An error
// here marks the page, never the document: the caller records it and
// continues with the next page.
func (d *Detector) DetectPage(ctx context.Context, page render.Page) ([]Item, error) {
	data, err := os.ReadFile(page.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read page image %s: %w", page.ImagePath, err)
	}

	req := &providers.ChatRequest{
		Model: d.Model,
		Messages: []providers.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Detect tables and figures on this page.", Images: [][]byte{data}},
		},
		ResponseFormat: buildResponseFormat(),
		Temperature:    0.1,
	}

	res, err := d.Client.Chat(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(res.ParsedJSON) == 0 {
		return nil, fmt.Errorf("model returned no structured output")
	}

	var resp detectionResponse
	if err := json.Unmarshal(res.ParsedJSON, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode detection result: %w", err)
	}

	items := make([]Item, 0, len(resp.Items))
	for _, raw := range resp.Items {
		itemType := strings.ToLower(strings.TrimSpace(raw.Type))
		if itemType != manifest.ItemTypeFigure && itemType != manifest.ItemTypeTable {
			continue
		}
		if raw.Confidence < d.MinConfidence {
			continue
		}

		box := manifest.BoxNorm{
			X0: clamp01(raw.BBox.X0),
			Y0: clamp01(raw.BBox.Y0),
			X1: clamp01(raw.BBox.X1),
			Y1: clamp01(raw.BBox.Y1),
		}
		if box.X0 >= box.X1 || box.Y0 >= box.Y1 {
			d.Logger.Debug("dropping degenerate detection box", "page", page.Number, "type", itemType)
			continue
		}

		items = append(items, Item{
			Type:       itemType,
			Caption:    raw.Caption,
			Confidence: raw.Confidence,
			Box:        box,
		})
	}

	return items, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
