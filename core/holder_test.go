package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelHolderEmpty(t *testing.T) {
	h := NewModelHolder(nil)
	assert.Nil(t, h.Load())

	_, err := h.Predict(healthyPanel())
	var untrained *UntrainedModelError
	assert.True(t, errors.As(err, &untrained))
}

func TestModelHolderPublish(t *testing.T) {
	m := trainedModel(t)
	h := NewModelHolder(nil)

	assert.Nil(t, h.Publish(m))
	assert.Same(t, m, h.Load())
	assert.Same(t, m, h.Publish(m))

	pred, err := h.Predict(healthyPanel())
	require.NoError(t, err)
	want, err := m.Predict(healthyPanel())
	require.NoError(t, err)
	assert.Equal(t, want, pred)
}

func TestModelHolderRetrainWhileServing(t *testing.T) {
	h := NewModelHolder(trainedModel(t))
	ds, err := GenerateSyntheticDataset(40)
	require.NoError(t, err)
	opts := smallTrainOptions()
	opts.Trees, opts.Estimators = 2, 3

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				_, err := h.Predict(healthyPanel())
				assert.NoError(t, err)
			}
		}()
	}
	m, err := h.Retrain(context.Background(), opts, SynthesizeTargets(ds))
	wg.Wait()

	require.NoError(t, err)
	assert.Same(t, m, h.Load())
	assert.Equal(t, 40, h.Load().Stats().TotalSamples)
}

func TestModelHolderRetrainFailureKeepsModel(t *testing.T) {
	m := trainedModel(t)
	h := NewModelHolder(m)

	_, err := h.Retrain(context.Background(), smallTrainOptions())
	assert.Error(t, err)
	assert.Same(t, m, h.Load())
}

func TestModelHolderLoadOrInitBuildsOnce(t *testing.T) {
	m := trainedModel(t)
	h := NewModelHolder(nil)

	var mu sync.Mutex
	builds := 0
	build := func(context.Context) (*Model, error) {
		mu.Lock()
		defer mu.Unlock()
		builds++
		return m, nil
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := h.LoadOrInit(context.Background(), build)
			assert.NoError(t, err)
			assert.Same(t, m, got)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, builds)
}

func TestModelHolderLoadOrInitError(t *testing.T) {
	h := NewModelHolder(nil)
	_, err := h.LoadOrInit(context.Background(), func(context.Context) (*Model, error) {
		return nil, errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
	assert.Nil(t, h.Load())
}

func TestServeUsesPublishedModel(t *testing.T) {
	m := trainedModel(t)
	h := NewModelHolder(m)
	cfg := testConfig()

	pred, err := ServePredict(context.Background(), cfg, nil, h)
	require.NoError(t, err)
	want, err := m.Predict(cfg.Panel)
	require.NoError(t, err)
	assert.Equal(t, want, pred)

	cfg.Horizon = 3
	series, err := ServeForecast(context.Background(), cfg, nil, h)
	require.NoError(t, err)
	assert.Len(t, series.Weeks, 3)
}

func TestServeWithoutModel(t *testing.T) {
	h := NewModelHolder(nil)
	var untrained *UntrainedModelError

	_, err := ServePredict(context.Background(), testConfig(), nil, h)
	assert.True(t, errors.As(err, &untrained))

	_, err = ServeForecast(context.Background(), testConfig(), nil, h)
	assert.True(t, errors.As(err, &untrained))

	cfg := testConfig()
	cfg.Panel = nil
	_, err = ServePredict(context.Background(), cfg, nil, NewModelHolder(trainedModel(t)))
	assert.ErrorIs(t, err, ErrEmptyPanel)
}
