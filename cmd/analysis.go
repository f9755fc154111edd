package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/biomarker/internal/contract"
	"github.com/huangsam/biomarker/internal/iocache"
	"github.com/huangsam/biomarker/schema"
)

// analysisBackendConfig reads and validates the analysis backend settings.
// An empty backend is treated as NoneBackend.
func analysisBackendConfig() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backend := schema.NoneBackend
	if backendStr := viper.GetString("analysis-backend"); backendStr != "" {
		backend = schema.DatabaseBackend(backendStr)
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("analysis-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// analysisSetup loads minimal configuration needed for analysis operations.
func analysisSetup() error {
	backend, connStr, err := analysisBackendConfig()
	if err != nil {
		return err
	}

	// No model caching for analysis commands
	if err := iocache.InitStores(schema.NoneBackend, "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize analysis: %w", err)
	}

	cfg.AnalysisBackend = backend
	cfg.AnalysisDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")

	return nil
}

// analysisSetupWrapper wraps analysisSetup to provide PreRunE for analysis commands.
func analysisSetupWrapper(_ *cobra.Command, _ []string) error {
	return analysisSetup()
}

// analysisMigrateSetup loads the configuration for migrate without opening any store,
// so migrations can run against a fresh database.
func analysisMigrateSetup() error {
	backend, connStr, err := analysisBackendConfig()
	if err != nil {
		return err
	}
	if backend == schema.SQLiteBackend {
		connStr = sqliteFilePath(connStr, contract.GetAnalysisDBFilePath())
	}

	cfg.AnalysisBackend = backend
	cfg.AnalysisDBConnect = connStr

	return nil
}

// analysisMigrateSetupWrapper wraps analysisMigrateSetup to provide PreRunE for migrate command.
func analysisMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return analysisMigrateSetup()
}

// analysisCmd focused on analysis data management.
//
// Analysis subcommands skip sharedSetup so they work without a panel or training settings.
var analysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Manage run history tracking and exports",
	Long: `Manage the history of train, predict, forecast and check runs.

When enabled with --analysis-backend, every run stores:
- Run metadata (kind, timestamps, configuration, sample count)
- Predicted scores and risk probability per prediction
- Feature importance for training runs

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show tracking statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all tracking data
  migrate - Run database schema migrations

Examples:
  # Check tracking status
  biomarker analysis status --analysis-backend sqlite

  # Export for pandas or DuckDB
  biomarker analysis export --analysis-backend sqlite --output-file history.parquet`,
}

// analysisClearCmd clears the analysis data.
var analysisClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all run history",
	Long: `Delete all stored runs, predictions and feature importance.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  biomarker analysis export --analysis-backend sqlite --output-file backup.parquet
  biomarker analysis clear --analysis-backend sqlite`,
	PreRunE: analysisSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		dbFilePath := sqliteFilePath(cfg.AnalysisDBConnect, contract.GetAnalysisDBFilePath())
		if err := iocache.ClearAnalysis(cfg.AnalysisBackend, dbFilePath, cfg.AnalysisDBConnect); err != nil {
			contract.LogFatal("Failed to clear analysis data", err)
		}
		fmt.Println("Analysis data cleared successfully.")
	},
}

// analysisStatusCmd shows analysis status.
var analysisStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run history statistics and connection details",
	Long: `Show the backend, connection state, number of runs and predictions,
newest and oldest runs, and the size of each tracking table.

Examples:
  # Check tracking status
  biomarker analysis status --analysis-backend sqlite`,
	PreRunE: analysisSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetAnalysisStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get analysis status", err)
		}
		iocache.PrintAnalysisStatus(status)
	},
}

// analysisExportCmd exports analysis data to Parquet files.
var analysisExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export all stored run history to Parquet files next to --output-file.

Writes three files:
- <output>.analysis_runs.parquet - one row per run
- <output>.predictions.parquet - one row per prediction
- <output>.feature_importance.parquet - one row per feature per training run

Requires: --output-file parameter

Examples:
  # Export all data
  biomarker analysis export --analysis-backend sqlite --output-file history.parquet

  # Query with DuckDB
  duckdb -c "SELECT * FROM read_parquet('history.parquet.predictions.parquet') LIMIT 10"`,
	PreRunE: analysisSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteAnalysisExport(cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export analysis data", err)
		}
	},
}

// analysisMigrateCmd runs database migrations for the analysis store.
var analysisMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  biomarker analysis migrate --analysis-backend sqlite

  # Migrate to specific version
  biomarker analysis migrate --analysis-backend sqlite --target-version 1

  # Rollback to initial state
  biomarker analysis migrate --analysis-backend sqlite --target-version 0`,
	PreRunE: analysisMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateAnalysis(cfg.AnalysisBackend, cfg.AnalysisDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
