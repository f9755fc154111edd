package iocache

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/huangsam/biomarker/internal/contract"
	"github.com/huangsam/biomarker/schema"
)

// MockCacheManager is a mock implementation of CacheManager for testing.
type MockCacheManager struct {
	mock.Mock
}

var _ contract.CacheManager = &MockCacheManager{} // Compile-time check

// GetModelStore implements the CacheManager interface.
func (m *MockCacheManager) GetModelStore() contract.CacheStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.CacheStore)
	return store
}

// GetAnalysisStore implements the CacheManager interface.
func (m *MockCacheManager) GetAnalysisStore() contract.AnalysisStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.AnalysisStore)
	return store
}

// MockCacheStore is a mock implementation of CacheStore for testing.
type MockCacheStore struct {
	mock.Mock
}

var _ contract.CacheStore = &MockCacheStore{} // Compile-time check

// Get implements the CacheStore interface.
func (m *MockCacheStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the CacheStore interface.
func (m *MockCacheStore) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// GetStatus implements the CacheStore interface.
func (m *MockCacheStore) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStatus), args.Error(1)
}

// Close implements the CacheStore interface.
func (m *MockCacheStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockAnalysisStore is a mock implementation of AnalysisStore for testing.
type MockAnalysisStore struct {
	mock.Mock
}

var _ contract.AnalysisStore = &MockAnalysisStore{} // Compile-time check

// BeginAnalysis implements the AnalysisStore interface.
func (m *MockAnalysisStore) BeginAnalysis(runUUID, runKind string, startTime time.Time, configParams map[string]any) (int64, error) {
	args := m.Called(runUUID, runKind, startTime, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// EndAnalysis implements the AnalysisStore interface.
func (m *MockAnalysisStore) EndAnalysis(analysisID int64, endTime time.Time, totalSamples int) error {
	args := m.Called(analysisID, endTime, totalSamples)
	return args.Error(0)
}

// RecordPrediction implements the AnalysisStore interface.
func (m *MockAnalysisStore) RecordPrediction(analysisID int64, predictionTime time.Time, prediction schema.Prediction) error {
	args := m.Called(analysisID, predictionTime, prediction)
	return args.Error(0)
}

// RecordFeatureImportance implements the AnalysisStore interface.
func (m *MockAnalysisStore) RecordFeatureImportance(analysisID int64, importance map[string]float64) error {
	args := m.Called(analysisID, importance)
	return args.Error(0)
}

// GetStatus implements the AnalysisStore interface.
func (m *MockAnalysisStore) GetStatus() (schema.AnalysisStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.AnalysisStatus), args.Error(1)
}

// GetAllAnalysisRuns implements the AnalysisStore interface.
func (m *MockAnalysisStore) GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]schema.AnalysisRunRecord)
	return records, args.Error(1)
}

// GetAllPredictions implements the AnalysisStore interface.
func (m *MockAnalysisStore) GetAllPredictions() ([]schema.PredictionRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]schema.PredictionRecord)
	return records, args.Error(1)
}

// GetAllFeatureImportance implements the AnalysisStore interface.
func (m *MockAnalysisStore) GetAllFeatureImportance() ([]schema.FeatureImportanceRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]schema.FeatureImportanceRecord)
	return records, args.Error(1)
}

// Close implements the AnalysisStore interface.
func (m *MockAnalysisStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
