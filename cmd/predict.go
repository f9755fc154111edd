package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/biomarker/core"
	"github.com/huangsam/biomarker/internal/contract"
)

// predictCmd scores a panel with the trained models.
var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict health scores and risk for a panel using the trained models.",
	Long: `Score a blood panel with the risk classifier and the per-score regressors.

The models are trained on synthetic data (plus --data, if given) and cached
under a key derived from every training setting. A later run with the same
settings reuses the cached models instead of training again.

Missing markers are imputed with the training medians before scoring.

Examples:
  # Predict from a panel file
  biomarker predict --panel panel.yaml

  # Use a larger training set and a custom seed
  biomarker predict --panel panel.yaml --samples 5000 --seed 7

  # Export the prediction for another tool
  biomarker predict --set "glucose=130,bmi=32" --output csv --output-file prediction.csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecutePredict(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run prediction", err)
		}
	},
}
