package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/biomarker/core"
	"github.com/huangsam/biomarker/internal/contract"
)

// forecastCmd projects a panel forward week by week.
var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Forecast health scores and biomarker trends over the coming weeks.",
	Long: `Project a blood panel forward one week at a time and score each step.

Each marker drifts under age, lifestyle and seasonal factors taken from the
starting panel, with a small seeded noise term. Every projected week is scored
with the trained models.

Examples:
  # Twelve week forecast (default)
  biomarker forecast --panel panel.yaml

  # One year forecast written to Parquet
  biomarker forecast --panel panel.yaml --horizon 52 --output parquet --output-file forecast.parquet`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteForecast(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run forecast", err)
		}
	},
}
