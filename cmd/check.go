package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/huangsam/biomarker/core"
	"github.com/huangsam/biomarker/internal/contract"
)

// checkCmd focused on CI/CD policy enforcement.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Enforce minimum health scores (fails with non-zero exit on violations)",
	Long: `Predict every score for a panel and compare each against its minimum threshold.

Exits with a non-zero code when any score falls below its threshold, which makes
it usable as a gate in scripts and pipelines. A threshold of 0 is never enforced.

Thresholds come from the 'thresholds' section of .biomarker.yaml, and
--thresholds-override takes precedence over it.

Examples:
  # Require a health score of at least 70
  biomarker check --panel panel.yaml --thresholds-override "health:70"

  # Gate on several organ systems at once
  biomarker check --panel panel.yaml --thresholds-override "health:70,kidney:60,cardio:65"`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		err := core.ExecuteCheck(rootCtx, cfg, cacheManager)
		var failed *core.CheckFailedError
		if errors.As(err, &failed) {
			// The result was already printed
			os.Exit(1)
		}
		if err != nil {
			contract.LogFatal("Threshold check failed", err)
		}
	},
}
