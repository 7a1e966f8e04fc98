package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	// An explicit empty config file keeps Load off any stray
	// ./config.yaml in the working directory.
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Model != "gpt-4o" {
		t.Errorf("model = %q", cfg.Model)
	}
	if cfg.DPI != 200 {
		t.Errorf("dpi = %d", cfg.DPI)
	}
	if cfg.MinConfidence != 0.30 {
		t.Errorf("min_confidence = %v", cfg.MinConfidence)
	}
	if cfg.PagesPerCall != 6 {
		t.Errorf("pages_per_call = %d", cfg.PagesPerCall)
	}
	if cfg.MaxPages != 0 {
		t.Errorf("max_pages = %d", cfg.MaxPages)
	}
}

func TestLoadConfigFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "model: gpt-4o-mini\ndpi: 150\nmin_confidence: 0.5\nmax_pages: 30\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Model != "gpt-4o-mini" || cfg.DPI != 150 || cfg.MinConfidence != 0.5 || cfg.MaxPages != 30 {
		t.Errorf("config file values not applied: %+v", cfg)
	}
	// Keys absent from the file keep their defaults.
	if cfg.PagesPerCall != 6 {
		t.Errorf("pages_per_call = %d, want default 6", cfg.PagesPerCall)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for explicitly named missing config file")
	}
}

func TestLoadExpandsAPIKey(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("OPENAI_API_KEY", "sk-test-123")
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api_key: ${OPENAI_API_KEY}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.APIKey != "sk-test-123" {
		t.Errorf("api_key = %q, want expanded env value", cfg.APIKey)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("FOLIO_MODEL", "gpt-5")
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("model: gpt-4o-mini\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Model != "gpt-5" {
		t.Errorf("model = %q, want env to override the file", cfg.Model)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"missing model", func(c *Config) { c.Model = "" }, true},
		{"zero dpi", func(c *Config) { c.DPI = 0 }, true},
		{"negative confidence", func(c *Config) { c.MinConfidence = -0.1 }, true},
		{"confidence above one", func(c *Config) { c.MinConfidence = 1.1 }, true},
		{"confidence bounds ok", func(c *Config) { c.MinConfidence = 1.0 }, false},
		{"zero pages per call", func(c *Config) { c.PagesPerCall = 0 }, true},
		{"negative max pages", func(c *Config) { c.MaxPages = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
