// Package parquet provides data structures and functions for reading and writing
// biomarker datasets and run history as Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/huangsam/biomarker/schema"
)

// AnalysisRun represents a single tracked run with metadata.
// This struct maps to the biomarker_analysis_runs database table.
type AnalysisRun struct {
	// AnalysisID is the numeric identifier for this run
	AnalysisID int64 `parquet:"analysis_id,snappy"`

	// RunUUID is the globally unique identifier for this run
	RunUUID string `parquet:"run_uuid,snappy"`

	// RunKind is the command that produced the run (train, predict, forecast, check)
	RunKind string `parquet:"run_kind,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// TotalSamples is the number of training samples behind the run
	TotalSamples int32 `parquet:"total_samples,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// Prediction represents one scored panel.
// This struct maps to the biomarker_predictions database table.
type Prediction struct {
	AnalysisID         int64     `parquet:"analysis_id,snappy"`
	PredictionTime     time.Time `parquet:"prediction_time,snappy"`
	HealthRisk         bool      `parquet:"health_risk,snappy"`
	HealthScore        float64   `parquet:"health_score,snappy"`
	MetaboliteScore    float64   `parquet:"metabolite_score,snappy"`
	ComprehensiveScore float64   `parquet:"comprehensive_score,snappy"`
	LiverScore         float64   `parquet:"liver_score,snappy"`
	KidneyScore        float64   `parquet:"kidney_score,snappy"`
	CardioScore        float64   `parquet:"cardio_score,snappy"`
	EndocrineScore     float64   `parquet:"endocrine_score,snappy"`
	ImmuneScore        float64   `parquet:"immune_score,snappy"`
	DigestiveScore     float64   `parquet:"digestive_score,snappy"`
}

// FeatureImportance is the importance of one feature in a training run.
// This struct maps to the biomarker_feature_importance database table.
type FeatureImportance struct {
	AnalysisID  int64   `parquet:"analysis_id,snappy"`
	FeatureName string  `parquet:"feature_name,snappy"`
	Importance  float64 `parquet:"importance,snappy"`
}

// ForecastWeek is one weekly row of a forecast.
type ForecastWeek struct {
	Week            int32   `parquet:"week,snappy"`
	HealthScore     float64 `parquet:"health_score,snappy"`
	MetaboliteScore float64 `parquet:"metabolite_score,snappy"`
	RiskLevel       float64 `parquet:"risk_level,snappy"`
}

// WriteAnalysisRunsParquet writes a slice of AnalysisRun structs to a Parquet file.
func WriteAnalysisRunsParquet(data []AnalysisRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WritePredictionsParquet writes a slice of Prediction structs to a Parquet file.
func WritePredictionsParquet(data []Prediction, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteFeatureImportanceParquet writes a slice of FeatureImportance structs to a Parquet file.
func WriteFeatureImportanceParquet(data []FeatureImportance, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteForecastParquet writes the weekly forecast rows to a Parquet file.
func WriteForecastParquet(series schema.ForecastSeries, outputPath string) error {
	rows := make([]ForecastWeek, len(series.Weeks))
	for i, w := range series.Weeks {
		rows[i] = ForecastWeek{
			Week:            int32(w.Week),
			HealthScore:     w.HealthScore,
			MetaboliteScore: w.MetaboliteScore,
			RiskLevel:       w.RiskLevel,
		}
	}
	return writeParquet(rows, outputPath)
}

// WriteDatasetParquet writes a dataset to a Parquet file, one row per record.
func WriteDatasetParquet(ds schema.Dataset, outputPath string) error {
	return writeParquet(DatasetToRows(ds), outputPath)
}

// ReadDatasetParquet reads a dataset from a Parquet file and marks every record as external.
// Columns absent from the file are treated as missing values. Non-finite marker values are an error.
func ReadDatasetParquet(path string) (schema.Dataset, error) {
	rows, err := parquet.ReadFile[DatasetRow](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file: %w", err)
	}
	ds := RowsToDataset(rows)
	for i := range ds {
		ds[i].Source = schema.ExternalSource
		for m, v := range ds[i].Markers {
			if !schema.IsFinite(v) {
				return nil, fmt.Errorf("row %d, column %s: non-finite value %v", i+1, m, v)
			}
		}
	}
	return ds, nil
}

// writeParquet creates outputPath and writes data with a schema inferred from T's struct tags.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertAnalysisRunRecords converts schema.AnalysisRunRecord to AnalysisRun for Parquet export.
func ConvertAnalysisRunRecords(records []schema.AnalysisRunRecord) []AnalysisRun {
	result := make([]AnalysisRun, len(records))
	for i, record := range records {
		result[i] = AnalysisRun{
			AnalysisID:    record.AnalysisID,
			RunUUID:       record.RunUUID,
			RunKind:       record.RunKind,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			TotalSamples:  record.TotalSamples,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertPredictionRecords converts schema.PredictionRecord to Prediction for Parquet export.
func ConvertPredictionRecords(records []schema.PredictionRecord) []Prediction {
	result := make([]Prediction, len(records))
	for i, record := range records {
		s := record.Scores
		result[i] = Prediction{
			AnalysisID:         record.AnalysisID,
			PredictionTime:     record.PredictionTime,
			HealthRisk:         record.HealthRisk,
			HealthScore:        s.Health,
			MetaboliteScore:    s.Metabolite,
			ComprehensiveScore: s.Comprehensive,
			LiverScore:         s.Liver,
			KidneyScore:        s.Kidney,
			CardioScore:        s.Cardio,
			EndocrineScore:     s.Endocrine,
			ImmuneScore:        s.Immune,
			DigestiveScore:     s.Digestive,
		}
	}
	return result
}

// ConvertFeatureImportanceRecords converts schema.FeatureImportanceRecord to FeatureImportance for Parquet export.
func ConvertFeatureImportanceRecords(records []schema.FeatureImportanceRecord) []FeatureImportance {
	result := make([]FeatureImportance, len(records))
	for i, record := range records {
		result[i] = FeatureImportance{
			AnalysisID:  record.AnalysisID,
			FeatureName: record.FeatureName,
			Importance:  record.Importance,
		}
	}
	return result
}
