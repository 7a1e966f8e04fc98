package manifest

// BoxNorm is a region expressed as fractions of a page's width and
// height, independent of rendering resolution. Coordinates satisfy
// 0 <= x0 < x1 <= 1 and 0 <= y0 < y1 <= 1 once a detection has been
// accepted.
type BoxNorm struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// BoxPixels is a box mapped onto a page raster. 0 <= x0 < x1 <= width
// and 0 <= y0 < y1 <= height.
type BoxPixels struct {
	X0 int `json:"x0"`
	Y0 int `json:"y0"`
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
}

// Item types reported by the layout detector.
const (
	ItemTypeFigure = "figure"
	ItemTypeTable  = "table"
)

// ItemRecord is one accepted figure/table detection on a page.
type ItemRecord struct {
	Type       string    `json:"type"`
	Caption    string    `json:"caption"`
	Confidence float64   `json:"confidence"`
	BBoxNorm   BoxNorm   `json:"bbox_norm"`
	BBoxPx     BoxPixels `json:"bbox_px"`
	Image      string    `json:"image,omitempty"`
	// Error is set when cropping failed; the detection is kept so the
	// failure stays visible in the output.
	Error string `json:"error,omitempty"`
}

// PageRecord describes one rendered page and its detections.
type PageRecord struct {
	Page    int          `json:"page"`
	PagePNG string       `json:"page_png"`
	Width   int          `json:"width"`
	Height  int          `json:"height"`
	Items   []ItemRecord `json:"items"`
	// Error is set when detection failed for this page. Other pages
	// are unaffected.
	Error string `json:"error,omitempty"`
}

// SectionRecord names one extracted section and the text file it was
// written to. Section names are unique within a document.
type SectionRecord struct {
	Name string `json:"name"`
	File string `json:"file"`
}

// Document is the per-document manifest: everything produced for one
// input PDF. It is immutable once written.
type Document struct {
	PDF       string          `json:"pdf"`
	OutputDir string          `json:"output_dir"`
	Title     string          `json:"title"`
	Authors   []string        `json:"authors"`
	Sections  []SectionRecord `json:"sections"`
	Pages     []PageRecord    `json:"pages"`

	// RenderError is set when the whole document could not be
	// rendered. The document still yields exactly one manifest.
	RenderError string `json:"render_error,omitempty"`
	// ExtractErrors records text-extraction batches that failed.
	ExtractErrors []string `json:"extract_errors,omitempty"`
}

// RunEntry summarizes one document in the run manifest.
type RunEntry struct {
	Name     string `json:"name"`
	PDF      string `json:"pdf"`
	Manifest string `json:"manifest"`
	Title    string `json:"title"`
	Pages    int    `json:"pages"`
	Sections int    `json:"sections"`
	Items    int    `json:"items"`
	Error    string `json:"error,omitempty"`
}

// Totals are run-level aggregate counts.
type Totals struct {
	Documents int `json:"documents"`
	Errored   int `json:"errored"`
	Pages     int `json:"pages"`
	Sections  int `json:"sections"`
	Items     int `json:"items"`
}

// Run is the run-level manifest, written once after all documents are
// processed.
type Run struct {
	Documents []RunEntry `json:"documents"`
	Totals    Totals     `json:"totals"`
}
