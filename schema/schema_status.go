package schema

import "time"

// CacheStatus represents the status of the model cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// AnalysisStatus represents the status of the analysis store.
type AnalysisStatus struct {
	Backend          string           `json:"backend"`
	Connected        bool             `json:"connected"`
	TotalRuns        int              `json:"total_runs"`
	LastRunID        int64            `json:"last_run_id"`
	LastRunTime      time.Time        `json:"last_run_time"`
	OldestRunTime    time.Time        `json:"oldest_run_time"`
	TotalPredictions int              `json:"total_predictions"`
	TableSizes       map[string]int64 `json:"table_sizes"`
}

// AnalysisRunRecord represents a row from the biomarker_analysis_runs table.
type AnalysisRunRecord struct {
	AnalysisID    int64
	RunUUID       string
	RunKind       string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	TotalSamples  int32
	ConfigParams  *string
}

// PredictionRecord represents a row from the biomarker_predictions table.
type PredictionRecord struct {
	AnalysisID     int64
	PredictionTime time.Time
	HealthRisk     bool
	Scores         Scores
}

// FeatureImportanceRecord represents a row from the biomarker_feature_importance table.
type FeatureImportanceRecord struct {
	AnalysisID  int64
	FeatureName string
	Importance  float64
}
