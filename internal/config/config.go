// Package config loads folio configuration from file, environment,
// and defaults via viper.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds folio configuration.
type Config struct {
	// Model is the vision-capable model id used for both text
	// extraction and layout detection.
	Model string `mapstructure:"model" yaml:"model"`
	// APIKey supports ${ENV_VAR} syntax.
	APIKey string `mapstructure:"api_key" yaml:"api_key"`

	// DPI controls page rasterization resolution.
	DPI int `mapstructure:"dpi" yaml:"dpi"`

	// MinConfidence gates figure/table detections.
	MinConfidence float64 `mapstructure:"min_confidence" yaml:"min_confidence"`

	// PagesPerCall is the page-image batch size for text extraction.
	PagesPerCall int `mapstructure:"pages_per_call" yaml:"pages_per_call"`
	// MaxPages limits pages used for text extraction (0 = all).
	// Detection and cropping always cover every page.
	MaxPages int `mapstructure:"max_pages" yaml:"max_pages"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Model:         "gpt-4o",
		APIKey:        "${OPENAI_API_KEY}",
		DPI:           200,
		MinConfidence: 0.30,
		PagesPerCall:  6,
		MaxPages:      0,
	}
}

// Load reads configuration from the given file (optional), the
// environment (FOLIO_ prefix), and defaults, in that precedence order
// below any flag bindings the caller has registered on viper.
func Load(cfgFile string) (*Config, error) {
	defaults := DefaultConfig()
	viper.SetDefault("model", defaults.Model)
	viper.SetDefault("api_key", defaults.APIKey)
	viper.SetDefault("dpi", defaults.DPI)
	viper.SetDefault("min_confidence", defaults.MinConfidence)
	viper.SetDefault("pages_per_call", defaults.PagesPerCall)
	viper.SetDefault("max_pages", defaults.MaxPages)

	viper.SetEnvPrefix("FOLIO")
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.folio")
	}

	// Config file is optional.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.APIKey = os.ExpandEnv(cfg.APIKey)
	return &cfg, nil
}

// Validate checks value ranges before a run starts.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.DPI <= 0 {
		return fmt.Errorf("dpi must be positive, got %d", c.DPI)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0,1], got %v", c.MinConfidence)
	}
	if c.PagesPerCall < 1 {
		return fmt.Errorf("pages_per_call must be at least 1, got %d", c.PagesPerCall)
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max_pages must be non-negative, got %d", c.MaxPages)
	}
	return nil
}
