package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/biomarker/core"
	"github.com/huangsam/biomarker/internal/contract"
)

// generateCmd writes a labelled synthetic dataset.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a labelled synthetic biomarker dataset.",
	Long: `Draw a seeded synthetic population and label every record with its scores.

The same --samples and --seed always produce the same dataset. CSV output can
be fed back into training with --data.

Examples:
  # Summarize 1000 records on screen
  biomarker generate

  # Write 10k records to CSV
  biomarker generate --samples 10000 --output csv --output-file synthetic.csv

  # Write Parquet for pandas or DuckDB
  biomarker generate --output parquet --output-file synthetic.parquet`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteGenerate(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot generate dataset", err)
		}
	},
}
