package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/biomarker/core"
	"github.com/huangsam/biomarker/internal/contract"
)

// featuresCmd computes the rule-based assessment of a panel.
var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Compute organ system indices and health scores for a panel.",
	Long: `Derive the rule-based assessment of a single blood panel without any model.

Computes, from the markers that are present:
- Organ system indices (liver, kidney, cardio, endocrine, immune, digestive)
- Derived features such as ratios and composite indices
- Health, metabolite and comprehensive scores
- Per-marker status against the reference ranges
- Insights and recommendations for out-of-range readings

Missing markers are skipped, never guessed.

Examples:
  # Score a panel file
  biomarker features --panel panel.yaml

  # Score inline values
  biomarker features --set "glucose=105,hdl=38,triglycerides=210"

  # Override a reading from the panel file and export as JSON
  biomarker features --panel panel.yaml --set "alt=80" --output json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteFeatures(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot compute features", err)
		}
	},
}
