package home

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Methods", "Methods"},
		{"spaces", "Materials and Methods", "Materials_and_Methods"},
		{"punctuation dropped", "Results & Discussion!", "Results_Discussion"},
		{"kept chars", "Fig. 2 (revised)", "Fig._2_(revised)"},
		{"whitespace runs", "A   B\tC", "A_B_C"},
		{"leading trailing space", "  Abstract  ", "Abstract"},
		{"empty", "", "section"},
		{"only punctuation", "###", "section"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSlugifyTruncates(t *testing.T) {
	long := strings.Repeat("a", 200)
	got := Slugify(long)
	if len(got) != maxSlugLen {
		t.Errorf("Slugify(long) length = %d, want %d", len(got), maxSlugLen)
	}
}

func TestDocID(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/data/papers/attention is all you need.pdf", "attention_is_all_you_need"},
		{"paper-1.pdf", "paper-1"},
		{"weird!!name.PDF", "weirdname"},
	}
	for _, tt := range tests {
		if got := DocID(tt.path); got != tt.want {
			t.Errorf("DocID(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestDirLayout(t *testing.T) {
	root := t.TempDir()
	d, err := New(root)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	docID := "paper-1"
	if got := d.PageImagePath(docID, 3); filepath.Base(got) != "page_003.png" {
		t.Errorf("PageImagePath = %q, want page_003.png basename", got)
	}
	if got := d.CropImagePath(docID, "table", 3, 2); filepath.Base(got) != "table_p003_02.png" {
		t.Errorf("CropImagePath(table) = %q", got)
	}
	if got := d.CropImagePath(docID, "figure", 12, 1); filepath.Base(got) != "figure_p012_01.png" {
		t.Errorf("CropImagePath(figure) = %q", got)
	}
	if got := d.CropImagePath(docID, "table", 1, 1); !strings.Contains(got, TablesDirName) {
		t.Errorf("table crop not under tables dir: %q", got)
	}
	if got := d.CropImagePath(docID, "figure", 1, 1); !strings.Contains(got, FiguresDirName) {
		t.Errorf("figure crop not under figures dir: %q", got)
	}
	if got := d.RunManifestPath(); filepath.Base(got) != RunManifestName {
		t.Errorf("RunManifestPath = %q", got)
	}
}

func TestEnsureDocDirs(t *testing.T) {
	root := t.TempDir()
	d, err := New(root)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := d.EnsureDocDirs("doc"); err != nil {
		t.Fatalf("EnsureDocDirs() error: %v", err)
	}
	for _, dir := range []string{d.PagesDir("doc"), d.FiguresDir("doc"), d.TablesDir("doc"), d.SectionsDir("doc")} {
		if !dirExists(t, dir) {
			t.Errorf("directory not created: %s", dir)
		}
	}
}

func TestNewRequiresPath(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("New(\"\") should fail")
	}
}

func dirExists(t *testing.T, path string) bool {
	t.Helper()
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
