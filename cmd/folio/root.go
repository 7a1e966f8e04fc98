package main

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "PDF paper extraction pipeline powered by vision language models",
	Long: `Folio turns a folder of PDF papers into structured per-document
artifacts: title, authors, section text, cropped figures and tables,
and JSON manifests.

The pipeline includes:
  - Page rendering to fixed-resolution images
  - Batched text extraction with cross-batch carry-over context
  - Confidence-gated figure/table detection with bounding-box crops
  - Per-document and run-level manifest generation`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.folio/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "summary output format: yaml or json",
	)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}
