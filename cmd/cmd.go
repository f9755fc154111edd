// Package cmd defines the command-line interface for biomarker.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/biomarker/internal/contract"
	"github.com/huangsam/biomarker/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(featuresCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(forecastCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(referenceCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(analysisCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the analysis subcommands to the parent analysis command
	analysisCmd.AddCommand(analysisClearCmd)
	analysisCmd.AddCommand(analysisStatusCmd)
	analysisCmd.AddCommand(analysisExportCmd)
	analysisCmd.AddCommand(analysisMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("panel", "p", "", "Path to a YAML or JSON panel of marker: value pairs")
	rootCmd.PersistentFlags().String("set", "", "Inline marker values applied over the panel (format: 'glucose=95,alt=30')")
	rootCmd.PersistentFlags().Int("samples", contract.DefaultSamples, "Number of synthetic training samples")
	rootCmd.PersistentFlags().Int64("seed", contract.DefaultSeed, "Random seed for synthetic data and model fitting")
	rootCmd.PersistentFlags().String("data", "", "Optional external dataset merged into training (csv or parquet)")
	rootCmd.PersistentFlags().Int("trees", contract.DefaultTrees, "Number of trees in the risk classifier forest")
	rootCmd.PersistentFlags().Int("estimators", contract.DefaultEstimators, "Number of boosting rounds per score regressor")
	rootCmd.PersistentFlags().Int("max-depth", contract.DefaultMaxDepth, "Maximum depth of each boosted tree")
	rootCmd.PersistentFlags().Float64("learning-rate", contract.DefaultLearningRate, "Shrinkage applied to each boosting round")
	rootCmd.PersistentFlags().Float64("risk-threshold", contract.DefaultRiskThreshold, "Health score below which a sample is labelled at risk")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Model cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("analysis-backend", "", "Analysis tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("analysis-db-connect", "", "Database connection string for analysis tracking (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("emoji", "no", "Enable emojis in output headers (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of forecastCmd to Viper
	forecastCmd.Flags().Int("horizon", contract.DefaultHorizon, "Number of weeks to project")
	if err := viper.BindPFlags(forecastCmd.Flags()); err != nil {
		contract.LogFatal("Error binding forecast flags", err)
	}

	// Bind all flags of checkCmd to Viper
	checkCmd.Flags().String("thresholds-override", "", "Minimum scores for CI/CD gating (format: 'health:70,kidney:60')")
	if err := viper.BindPFlags(checkCmd.Flags()); err != nil {
		contract.LogFatal("Error binding check flags", err)
	}

	// Bind all flags of analysisMigrateCmd to Viper
	analysisMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(analysisMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding analysis migrate flags", err)
	}
}
