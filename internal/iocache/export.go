package iocache

import (
	"errors"
	"fmt"

	"github.com/huangsam/biomarker/internal/contract"
	"github.com/huangsam/biomarker/internal/parquet"
)

// ExecuteAnalysisExport writes the global analysis store to Parquet files prefixed by outputFile.
func ExecuteAnalysisExport(outputFile string) error {
	return ExportAnalysis(Manager.GetAnalysisStore(), outputFile)
}

// ExportAnalysis writes every run, prediction and feature importance row in store to Parquet.
func ExportAnalysis(store contract.AnalysisStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("analysis tracking is not enabled. Use --analysis-backend to configure it")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get analysis status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no analysis data found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total analysis runs: %d\n", status.TotalRuns)
	fmt.Printf("Total predictions: %d\n", status.TotalPredictions)

	runs, err := store.GetAllAnalysisRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve analysis runs: %w", err)
	}
	predictions, err := store.GetAllPredictions()
	if err != nil {
		return fmt.Errorf("failed to retrieve predictions: %w", err)
	}
	importance, err := store.GetAllFeatureImportance()
	if err != nil {
		return fmt.Errorf("failed to retrieve feature importance: %w", err)
	}

	runsFile := outputFile + ".analysis_runs.parquet"
	parquetRuns := parquet.ConvertAnalysisRunRecords(runs)
	if err := parquet.WriteAnalysisRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write analysis runs: %w", err)
	}
	fmt.Printf("Exported %d analysis runs to: %s\n", len(parquetRuns), runsFile)

	predictionsFile := outputFile + ".predictions.parquet"
	parquetPredictions := parquet.ConvertPredictionRecords(predictions)
	if err := parquet.WritePredictionsParquet(parquetPredictions, predictionsFile); err != nil {
		return fmt.Errorf("failed to write predictions: %w", err)
	}
	fmt.Printf("Exported %d predictions to: %s\n", len(parquetPredictions), predictionsFile)

	importanceFile := outputFile + ".feature_importance.parquet"
	parquetImportance := parquet.ConvertFeatureImportanceRecords(importance)
	if err := parquet.WriteFeatureImportanceParquet(parquetImportance, importanceFile); err != nil {
		return fmt.Errorf("failed to write feature importance: %w", err)
	}
	fmt.Printf("Exported %d feature importance rows to: %s\n", len(parquetImportance), importanceFile)

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - DuckDB")
	fmt.Println("  - Apache Spark")
	fmt.Println("  - Any other Parquet-compatible tool")
	return nil
}
