package detect

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackzampolin/folio/internal/providers"
	"github.com/jackzampolin/folio/internal/render"
)

func testPage(t *testing.T) render.Page {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page_001.png")
	if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	return render.Page{Number: 1, ImagePath: path, Width: 1200, Height: 1600}
}

func itemJSON(itemType string, x0, y0, x1, y1, conf float64, caption string) string {
	return fmt.Sprintf(`{"type":%q,"bbox":{"x0":%g,"y0":%g,"x1":%g,"y1":%g},"caption":%q,"confidence":%g}`,
		itemType, x0, y0, x1, y1, caption, conf)
}

func TestDetectPageFiltering(t *testing.T) {
	tests := []struct {
		name      string
		items     []string
		wantTypes []string
	}{
		{
			name: "keeps figures and tables above threshold",
			items: []string{
				itemJSON("figure", 0.1, 0.1, 0.5, 0.5, 0.9, "Figure 1"),
				itemJSON("table", 0.2, 0.6, 0.8, 0.9, 0.45, "Table 1"),
			},
			wantTypes: []string{"figure", "table"},
		},
		{
			name: "drops below threshold",
			items: []string{
				itemJSON("figure", 0.1, 0.1, 0.5, 0.5, 0.29, ""),
				itemJSON("table", 0.2, 0.6, 0.8, 0.9, 0.30, ""),
			},
			wantTypes: []string{"table"},
		},
		{
			name: "drops degenerate boxes",
			items: []string{
				itemJSON("figure", 0.5, 0.1, 0.5, 0.5, 0.9, ""),
				itemJSON("figure", 0.1, 0.5, 0.5, 0.5, 0.9, ""),
				itemJSON("figure", 0.6, 0.1, 0.4, 0.5, 0.9, ""),
			},
			wantTypes: []string{},
		},
		{
			name:      "empty page",
			items:     nil,
			wantTypes: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"items":[`
			for i, it := range tt.items {
				if i > 0 {
					body += ","
				}
				body += it
			}
			body += `]}`

			client := providers.NewMockClient(providers.MockReply{JSON: body})
			d := New(client, "test-model", 0.30, nil)

			items, err := d.DetectPage(context.Background(), testPage(t))
			if err != nil {
				t.Fatalf("DetectPage error: %v", err)
			}
			if len(items) != len(tt.wantTypes) {
				t.Fatalf("got %d items, want %d: %+v", len(items), len(tt.wantTypes), items)
			}
			for i, want := range tt.wantTypes {
				if items[i].Type != want {
					t.Errorf("item %d type = %q, want %q", i, items[i].Type, want)
				}
			}
		})
	}
}

func TestDetectPageClampsCoordinates(t *testing.T) {
	body := `{"items":[` + itemJSON("figure", -0.2, 0.1, 1.4, 0.8, 0.9, "") + `]}`
	client := providers.NewMockClient(providers.MockReply{JSON: body})
	d := New(client, "test-model", 0.30, nil)

	items, err := d.DetectPage(context.Background(), testPage(t))
	if err != nil {
		t.Fatalf("DetectPage error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	box := items[0].Box
	if box.X0 != 0 || box.X1 != 1 {
		t.Errorf("box not clamped to [0,1]: %+v", box)
	}
}

func TestDetectPageCallFailure(t *testing.T) {
	client := providers.NewMockClient(providers.MockReply{Err: errors.New("timeout")})
	d := New(client, "test-model", 0.30, nil)

	if _, err := d.DetectPage(context.Background(), testPage(t)); err == nil {
		t.Fatal("expected error from failed model call")
	}
}

func TestDetectPageMissingImage(t *testing.T) {
	client := providers.NewMockClient()
	d := New(client, "test-model", 0.30, nil)

	page := render.Page{Number: 1, ImagePath: "/nonexistent/page.png"}
	if _, err := d.DetectPage(context.Background(), page); err == nil {
		t.Fatal("expected error for missing page image")
	}
	if client.CallCount() != 0 {
		t.Errorf("no model call expected when the image cannot be read")
	}
}

func TestNewDefaults(t *testing.T) {
	d := New(providers.NewMockClient(), "m", -1, nil)
	if d.MinConfidence != DefaultMinConfidence {
		t.Errorf("MinConfidence = %v, want default %v", d.MinConfidence, DefaultMinConfidence)
	}
	if d.Logger == nil {
		t.Error("Logger should default to slog.Default")
	}
}

func TestDetectPageZeroThresholdKeepsAll(t *testing.T) {
	// An explicit zero threshold is a real setting, not "unset": even
	// zero-confidence detections pass the gate.
	body := `{"items":[` + itemJSON("figure", 0.1, 0.1, 0.5, 0.5, 0.0, "") + `]}`
	client := providers.NewMockClient(providers.MockReply{JSON: body})
	d := New(client, "test-model", 0, nil)

	if d.MinConfidence != 0 {
		t.Fatalf("MinConfidence = %v, want 0", d.MinConfidence)
	}
	items, err := d.DetectPage(context.Background(), testPage(t))
	if err != nil {
		t.Fatalf("DetectPage error: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("got %d items, want 1", len(items))
	}
}
