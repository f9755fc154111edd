// Package core has core logic for features, synthetic data, model training and forecasting.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/biomarker/internal/contract"
	"github.com/huangsam/biomarker/internal/dataset"
	"github.com/huangsam/biomarker/internal/outwriter"
	"github.com/huangsam/biomarker/schema"
)

// ErrEmptyPanel is returned when a command needs a panel and none was given.
var ErrEmptyPanel = errors.New("no panel given: use --panel or --set")

// Run kinds recorded in the analysis store.
const (
	TrainRun    = "train"
	PredictRun  = "predict"
	ForecastRun = "forecast"
	CheckRun    = "check"
)

// ExecutorFunc defines the function signature for executing the different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ExecuteFeatures computes the rule-based assessment of the configured panel and prints it.
// It serves as the main entry point for the 'features' command.
func ExecuteFeatures(ctx context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	start := time.Now()
	if len(cfg.Panel) == 0 {
		return ErrEmptyPanel
	}
	if !shouldSuppressHeader(ctx) && cfg.Output == schema.TextOut {
		outwriter.LogPanelHeader(cfg)
	}
	analysis, err := engineFor(cfg).Analyze(cfg.Panel)
	if err != nil {
		return err
	}
	return outwriter.PrintAnalysis(analysis, cfg, time.Since(start))
}

// ExecutePredict loads or trains the model, scores the configured panel and prints the prediction.
// It serves as the main entry point for the 'predict' command.
func ExecutePredict(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	pred, err := RunPredict(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.PrintPrediction(pred, cfg, time.Since(start))
}

// ExecuteForecast loads or trains the model and prints a forecast of the configured panel.
// It serves as the main entry point for the 'forecast' command.
func ExecuteForecast(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	series, err := RunForecast(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.PrintForecast(series, cfg, time.Since(start))
}

// ExecuteTrain always fits a fresh model, stores it in the cache and prints the training summary.
// It serves as the main entry point for the 'train' command.
func ExecuteTrain(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	m, err := RunTrain(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.PrintTrainingStats(m.Stats(), cfg, time.Since(start))
}

// ExecuteGenerate writes a labelled synthetic dataset.
// It serves as the main entry point for the 'generate' command.
func ExecuteGenerate(ctx context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	start := time.Now()
	if !shouldSuppressHeader(ctx) && cfg.Output == schema.TextOut {
		outwriter.LogModelHeader(cfg)
	}
	ds, err := generateLabelled(cfg, engineFor(cfg))
	if err != nil {
		return err
	}
	return outwriter.PrintDataset(ds, cfg, time.Since(start))
}

// ExecuteReference prints the reference table with the active system weights.
// It serves as the main entry point for the 'reference' command.
func ExecuteReference(_ context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	return outwriter.PrintReference(engineFor(cfg).Table(), cfg)
}

// RunPredict scores the configured panel and records the prediction.
func RunPredict(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.Prediction, error) {
	if len(cfg.Panel) == 0 {
		return schema.Prediction{}, ErrEmptyPanel
	}
	store := analysisStore(mgr)
	ctx = beginRun(ctx, store, PredictRun, cfg)

	m, err := LoadModel(ctx, cfg, mgr)
	if err != nil {
		return schema.Prediction{}, err
	}
	pred, err := m.Predict(cfg.Panel)
	if err != nil {
		return schema.Prediction{}, err
	}
	recordPrediction(ctx, store, pred)
	endRun(ctx, store, m.Stats().TotalSamples)
	return pred, nil
}

// RunForecast projects the configured panel over cfg.Horizon weeks.
func RunForecast(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.ForecastSeries, error) {
	if len(cfg.Panel) == 0 {
		return schema.ForecastSeries{}, ErrEmptyPanel
	}
	store := analysisStore(mgr)
	ctx = beginRun(ctx, store, ForecastRun, cfg)

	m, err := LoadModel(ctx, cfg, mgr)
	if err != nil {
		return schema.ForecastSeries{}, err
	}
	series, err := NewForecaster(m, m.Engine(), NewSource(cfg.Seed)).Forecast(cfg.Panel, cfg.Horizon)
	if err != nil {
		return schema.ForecastSeries{}, err
	}
	endRun(ctx, store, m.Stats().TotalSamples)
	return series, nil
}

// ServePredict scores the configured panel with the model published by holder and records the prediction.
func ServePredict(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, holder *ModelHolder) (schema.Prediction, error) {
	if len(cfg.Panel) == 0 {
		return schema.Prediction{}, ErrEmptyPanel
	}
	m := holder.Load()
	if m == nil {
		return schema.Prediction{}, &UntrainedModelError{Op: "predict"}
	}
	store := analysisStore(mgr)
	ctx = beginRun(ctx, store, PredictRun, cfg)

	pred, err := m.Predict(cfg.Panel)
	if err != nil {
		return schema.Prediction{}, err
	}
	recordPrediction(ctx, store, pred)
	endRun(ctx, store, m.Stats().TotalSamples)
	return pred, nil
}

// ServeForecast projects the configured panel with the model published by holder.
// cfg.Seed only drives the forecast noise here.
func ServeForecast(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, holder *ModelHolder) (schema.ForecastSeries, error) {
	if len(cfg.Panel) == 0 {
		return schema.ForecastSeries{}, ErrEmptyPanel
	}
	m := holder.Load()
	if m == nil {
		return schema.ForecastSeries{}, &UntrainedModelError{Op: "forecast"}
	}
	store := analysisStore(mgr)
	ctx = beginRun(ctx, store, ForecastRun, cfg)

	series, err := NewForecaster(holder, m.Engine(), NewSource(cfg.Seed)).Forecast(cfg.Panel, cfg.Horizon)
	if err != nil {
		return schema.ForecastSeries{}, err
	}
	endRun(ctx, store, m.Stats().TotalSamples)
	return series, nil
}

// RunTrain fits a fresh model, overwriting any cached model for the same inputs.
func RunTrain(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*Model, error) {
	store := analysisStore(mgr)
	ctx = beginRun(ctx, store, TrainRun, cfg)

	engine := engineFor(cfg)
	external, err := loadExternal(cfg, engine)
	if err != nil {
		return nil, err
	}
	m, err := trainFromConfig(ctx, cfg, engine, external)
	if err != nil {
		return nil, err
	}
	if mgr != nil {
		storeModel(mgr.GetModelStore(), generateCacheKey(cfg, external), m)
	}
	recordImportance(ctx, store, m.FeatureImportance())
	endRun(ctx, store, m.Stats().TotalSamples)
	return m, nil
}

// LoadModel returns the cached model for cfg or trains and caches a new one.
func LoadModel(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*Model, error) {
	engine := engineFor(cfg)
	external, err := loadExternal(cfg, engine)
	if err != nil {
		return nil, err
	}
	m, err := cachedModel(ctx, cfg, mgr, engine, external)
	if err != nil {
		return nil, err
	}
	if m.Stats().FromCache && !shouldSuppressHeader(ctx) && cfg.Output == schema.TextOut {
		if cfg.UseEmojis {
			fmt.Printf("📦 Using cached model %s (trained %s)\n", m.ID(), m.TrainedAt().Format(time.DateTime))
		} else {
			fmt.Printf("Using cached model %s (trained %s)\n", m.ID(), m.TrainedAt().Format(time.DateTime))
		}
	}
	return m, nil
}

// trainFromConfig generates the synthetic set, merges external data and fits a model.
func trainFromConfig(ctx context.Context, cfg *contract.Config, engine *FeatureEngine, external schema.Dataset) (*Model, error) {
	if !shouldSuppressHeader(ctx) && cfg.Output == schema.TextOut {
		outwriter.LogModelHeader(cfg)
	}
	synthetic, err := generateLabelled(cfg, engine)
	if err != nil {
		return nil, err
	}
	return Train(ctx, trainOptions(cfg, engine), synthetic, external)
}

// generateLabelled draws cfg.Samples synthetic records and labels them.
func generateLabelled(cfg *contract.Config, engine *FeatureEngine) (schema.Dataset, error) {
	ds, err := NewGenerator(engine, NewSource(cfg.Seed)).Generate(cfg.Samples)
	if err != nil {
		return nil, err
	}
	return SynthesizeTargets(ds), nil
}

// loadExternal reads, featurizes and labels the optional external dataset.
func loadExternal(cfg *contract.Config, engine *FeatureEngine) (schema.Dataset, error) {
	if cfg.DataFile == "" {
		return nil, nil
	}
	ds, err := dataset.Load(cfg.DataFile)
	if err != nil {
		return nil, fmt.Errorf("loading external dataset: %w", err)
	}
	ds, err = featurize(ds, engine)
	if err != nil {
		return nil, fmt.Errorf("featurizing external dataset: %w", err)
	}
	return SynthesizeTargets(ds), nil
}

// featurize fills in the advanced indices of every record that arrived without them.
// Labels read those indices, so this must run before SynthesizeTargets.
func featurize(ds schema.Dataset, engine *FeatureEngine) (schema.Dataset, error) {
	out := make(schema.Dataset, len(ds))
	for i, r := range ds {
		if r.Features == nil {
			adv, err := engine.AdvancedFeatures(r.Markers)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			r.Features = &adv
		}
		out[i] = r
	}
	return out, nil
}

// trainOptions maps the validated config onto training options.
func trainOptions(cfg *contract.Config, engine *FeatureEngine) TrainOptions {
	return TrainOptions{
		Trees:         cfg.Trees,
		Estimators:    cfg.Estimators,
		MaxDepth:      cfg.MaxDepth,
		LearningRate:  cfg.LearningRate,
		RiskThreshold: cfg.RiskThreshold,
		Workers:       cfg.Workers,
		Seed:          cfg.Seed,
		Engine:        engine,
	}
}

// engineFor builds the feature engine for the configured reference table.
func engineFor(cfg *contract.Config) *FeatureEngine {
	if cfg.Reference == nil {
		return DefaultFeatureEngine()
	}
	return NewFeatureEngine(cfg.Reference)
}
