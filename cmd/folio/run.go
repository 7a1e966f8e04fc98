package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jackzampolin/folio/internal/config"
	"github.com/jackzampolin/folio/internal/detect"
	"github.com/jackzampolin/folio/internal/extract"
	"github.com/jackzampolin/folio/internal/home"
	"github.com/jackzampolin/folio/internal/manifest"
	"github.com/jackzampolin/folio/internal/pipeline"
	"github.com/jackzampolin/folio/internal/providers"
	"github.com/jackzampolin/folio/internal/render"
)

var (
	runInputDir  string
	runOutputDir string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process a folder of PDFs into structured artifacts",
	Long: `Process every PDF in the input folder. Each document gets its own
output directory with rendered pages, section text, figure/table
crops, and a manifest; a run-level manifest is written at the end.

Examples:
  folio run --input ./papers --output-dir ./out
  folio run --input ./papers --output-dir ./out --model gpt-4o --min-confidence 0.5
  folio run --input ./papers --output-dir ./out --pages-per-call 4 --max-pages 12`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		h, err := home.New(runOutputDir)
		if err != nil {
			return err
		}

		client := providers.NewOpenAIClient(providers.OpenAIConfig{
			APIKey:       cfg.APIKey,
			DefaultModel: cfg.Model,
		})

		extractor := extract.New(client, cfg.Model, logger)
		extractor.PagesPerCall = cfg.PagesPerCall
		extractor.MaxPages = cfg.MaxPages

		p := pipeline.New(
			h,
			render.NewFitzRenderer(cfg.DPI, logger),
			extractor,
			detect.New(client, cfg.Model, cfg.MinConfidence, logger),
			logger,
			pipeline.NewConsoleObserver(logger),
		)

		run, err := p.Run(ctx, runInputDir)
		if err != nil {
			return err
		}

		return printSummary(run)
	},
}

func init() {
	runCmd.Flags().StringVar(&runInputDir, "input", "", "folder containing PDFs (required)")
	runCmd.Flags().StringVar(&runOutputDir, "output-dir", "", "output folder (required)")
	runCmd.Flags().String("model", "", "vision-capable model id")
	runCmd.Flags().Int("dpi", 0, "render DPI for pages")
	runCmd.Flags().Float64("min-confidence", 0, "minimum confidence for figure/table crops")
	runCmd.Flags().Int("pages-per-call", 0, "page images per text-extraction call")
	runCmd.Flags().Int("max-pages", 0, "limit pages used for text extraction (0 = all)")

	_ = runCmd.MarkFlagRequired("input")
	_ = runCmd.MarkFlagRequired("output-dir")

	// Flags override config file and environment.
	_ = viper.BindPFlag("model", runCmd.Flags().Lookup("model"))
	_ = viper.BindPFlag("dpi", runCmd.Flags().Lookup("dpi"))
	_ = viper.BindPFlag("min_confidence", runCmd.Flags().Lookup("min-confidence"))
	_ = viper.BindPFlag("pages_per_call", runCmd.Flags().Lookup("pages-per-call"))
	_ = viper.BindPFlag("max_pages", runCmd.Flags().Lookup("max-pages"))
}

// printSummary writes the run manifest to stdout in the configured
// output format.
func printSummary(run *manifest.Run) error {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(run)
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}
}
