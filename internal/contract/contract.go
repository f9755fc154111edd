// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/huangsam/biomarker/schema"
)

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetModelStore() CacheStore
	GetAnalysisStore() AnalysisStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// AnalysisStore defines the interface for tracking runs and storing their results.
type AnalysisStore interface {
	// BeginAnalysis creates a new run of the given kind and returns its unique ID
	BeginAnalysis(runUUID, runKind string, startTime time.Time, configParams map[string]any) (int64, error)

	// EndAnalysis updates the run with completion data
	EndAnalysis(analysisID int64, endTime time.Time, totalSamples int) error

	// RecordPrediction stores one scored panel
	RecordPrediction(analysisID int64, predictionTime time.Time, prediction schema.Prediction) error

	// RecordFeatureImportance stores the importance of every feature for a training run
	RecordFeatureImportance(analysisID int64, importance map[string]float64) error

	// GetStatus returns status information about the analysis store
	GetStatus() (schema.AnalysisStatus, error)

	// GetAllAnalysisRuns retrieves all runs for export
	GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error)

	// GetAllPredictions retrieves all stored predictions for export
	GetAllPredictions() ([]schema.PredictionRecord, error)

	// GetAllFeatureImportance retrieves all stored importances for export
	GetAllFeatureImportance() ([]schema.FeatureImportanceRecord, error)

	// Close closes the underlying connection
	Close() error
}
