package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/biomarker/core"
	"github.com/huangsam/biomarker/internal/contract"
)

// trainCmd fits fresh models and stores them in the cache.
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the risk and score models and store them in the cache.",
	Long: `Fit the models from scratch, ignoring any cached copy, and report training metrics.

Training data is a seeded synthetic population, optionally merged with an
external dataset given by --data. Targets missing from external records are
filled in from the rule-based scores.

Reports:
- Synthetic, external and total sample counts
- How many samples were labelled at risk
- Top features by importance

Examples:
  # Train with defaults
  biomarker train

  # Include external lab records and deeper trees
  biomarker train --data labs.csv --max-depth 5 --estimators 200`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteTrain(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot train models", err)
		}
	},
}
