package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/biomarker/core"
	"github.com/huangsam/biomarker/internal/contract"
)

// referenceCmd displays the reference ranges and system weights.
var referenceCmd = &cobra.Command{
	Use:   "reference",
	Short: "Display reference ranges and organ system formulas.",
	Long: `Show the reference table behind every score, including:
- Normal and plausible ranges per marker
- The distribution used for synthetic data
- Organ system index formulas and their weights
- Custom weights if configured via .biomarker.yaml

No model is trained - this is purely informational.

Examples:
  # Show default ranges and formulas
  biomarker reference

  # View with custom weights from config file
  biomarker reference --config .biomarker.yaml`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteReference(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot display reference", err)
		}
	},
}
