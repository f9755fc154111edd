package core

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/biomarker/schema"
)

var (
	smallModelOnce sync.Once
	smallModel     *Model
	smallModelErr  error
)

func smallTrainOptions() TrainOptions {
	return TrainOptions{Trees: 10, Estimators: 20, MaxDepth: 3, LearningRate: 0.1, RiskThreshold: 70, Workers: 4, Seed: 42}
}

// trainedModel fits one small model shared by the tests in this package.
func trainedModel(t *testing.T) *Model {
	t.Helper()
	smallModelOnce.Do(func() {
		ds, err := NewGenerator(nil, NewSource(42)).Generate(200)
		if err != nil {
			smallModelErr = err
			return
		}
		smallModel, smallModelErr = Train(context.Background(), smallTrainOptions(), SynthesizeTargets(ds))
	})
	require.NoError(t, smallModelErr)
	return smallModel
}

func TestTrainStats(t *testing.T) {
	m := trainedModel(t)
	stats := m.Stats()

	assert.Equal(t, 200, stats.TotalSamples)
	assert.Equal(t, 200, stats.SyntheticSamples)
	assert.Equal(t, 0, stats.ExternalSamples)
	assert.Equal(t, m.ID(), stats.RunID)
	assert.False(t, stats.FromCache)
	assert.False(t, m.TrainedAt().IsZero())

	importance := m.FeatureImportance()
	assert.Len(t, importance, len(schema.FeatureNames()))
	total := 0.0
	for name, v := range importance {
		assert.GreaterOrEqual(t, v, 0.0, name)
		total += v
	}
	assert.Greater(t, total, 0.0)
	assert.LessOrEqual(t, total, 1.0+1e-9)
}

func TestFeatureImportanceIsCopied(t *testing.T) {
	m := trainedModel(t)
	imp := m.FeatureImportance()
	imp["glucose"] = 99
	assert.NotEqual(t, 99.0, m.FeatureImportance()["glucose"])
}

func TestPredict(t *testing.T) {
	m := trainedModel(t)
	pred, err := m.Predict(healthyPanel())
	require.NoError(t, err)

	assert.Equal(t, pred.Probability > 0.5, pred.HealthRisk)
	assert.GreaterOrEqual(t, pred.Probability, 0.0)
	assert.LessOrEqual(t, pred.Probability, 1.0)
	for _, v := range pred.Scores.Values() {
		assert.False(t, math.IsNaN(v), "score is NaN")
	}

	again, err := m.Predict(healthyPanel())
	require.NoError(t, err)
	assert.Equal(t, pred, again)
}

func TestPredictUntrained(t *testing.T) {
	var m *Model
	_, err := m.Predict(healthyPanel())
	var untrained *UntrainedModelError
	assert.True(t, errors.As(err, &untrained))
}

func TestTrainRejectsBadData(t *testing.T) {
	_, err := Train(context.Background(), smallTrainOptions())
	var dataErr *TrainingDataError
	require.True(t, errors.As(err, &dataErr))
	assert.Contains(t, err.Error(), "empty")

	unlabelled := schema.Dataset{{Markers: healthyPanel(), Source: schema.ExternalSource}}
	_, err = Train(context.Background(), smallTrainOptions(), unlabelled)
	require.True(t, errors.As(err, &dataErr))
	assert.Contains(t, err.Error(), string(schema.HealthTarget))
}

func TestTrainImputesMissingCells(t *testing.T) {
	ds, err := NewGenerator(nil, NewSource(9)).Generate(60)
	require.NoError(t, err)
	external := schema.Dataset{
		{Markers: schema.Panel{schema.GlucoseMarker: 140}, Source: schema.ExternalSource},
		{Markers: schema.Panel{schema.HDLMarker: 35, schema.GenderMarker: 1}, Source: schema.ExternalSource},
	}
	opts := smallTrainOptions()
	opts.Trees, opts.Estimators = 3, 5

	m, err := Train(context.Background(), opts, SynthesizeTargets(ds), SynthesizeTargets(external))
	require.NoError(t, err)
	assert.Equal(t, 62, m.Stats().TotalSamples)
	assert.Equal(t, 2, m.Stats().ExternalSamples)
}

func TestTrainCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ds, err := GenerateSyntheticDataset(20)
	require.NoError(t, err)

	_, err = Train(ctx, smallTrainOptions(), SynthesizeTargets(ds))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestModelRoundTrip(t *testing.T) {
	m := trainedModel(t)
	data, err := json.Marshal(m)
	require.NoError(t, err)

	restored, err := UnmarshalModel(data, nil)
	require.NoError(t, err)
	assert.Equal(t, m.ID(), restored.ID())
	assert.True(t, restored.Stats().FromCache)
	assert.Equal(t, m.FeatureImportance(), restored.FeatureImportance())

	want, err := m.Predict(healthyPanel())
	require.NoError(t, err)
	got, err := restored.Predict(healthyPanel())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestUnmarshalModelErrors(t *testing.T) {
	_, err := UnmarshalModel([]byte("not json"), nil)
	assert.Error(t, err)

	_, err = UnmarshalModel([]byte(`{"id":"x"}`), nil)
	assert.ErrorContains(t, err, "incomplete")
}

func TestTrainOptionsDefaults(t *testing.T) {
	opts := TrainOptions{}.withDefaults()
	assert.Equal(t, DefaultTrees, opts.Trees)
	assert.Equal(t, DefaultEstimators, opts.Estimators)
	assert.Equal(t, DefaultMaxDepth, opts.MaxDepth)
	assert.Equal(t, DefaultLearningRate, opts.LearningRate)
	assert.Equal(t, DefaultRiskThreshold, opts.RiskThreshold)
	assert.Positive(t, opts.Workers)
	assert.Same(t, DefaultFeatureEngine(), opts.Engine)
}
