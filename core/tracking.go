package core

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/huangsam/biomarker/internal/contract"
	"github.com/huangsam/biomarker/schema"
)

// analysisStore returns the run history store, or nil when tracking is off.
func analysisStore(mgr contract.CacheManager) contract.AnalysisStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetAnalysisStore()
}

// beginRun opens a tracked run and carries its ID in the returned context.
// Tracking failures are warnings; the command itself still runs.
func beginRun(ctx context.Context, store contract.AnalysisStore, kind string, cfg *contract.Config) context.Context {
	if store == nil {
		return ctx
	}
	analysisID, err := store.BeginAnalysis(uuid.NewString(), kind, time.Now(), configParams(cfg))
	if err != nil {
		contract.LogWarn("Analysis tracking initialization failed", err)
		return ctx
	}
	return withAnalysisID(ctx, analysisID)
}

// recordPrediction stores a prediction under the run in ctx.
func recordPrediction(ctx context.Context, store contract.AnalysisStore, pred schema.Prediction) {
	analysisID, ok := getAnalysisID(ctx)
	if !ok || store == nil {
		return
	}
	if err := store.RecordPrediction(analysisID, time.Now(), pred); err != nil {
		contract.LogWarn("Failed to record prediction", err)
	}
}

// recordImportance stores feature importance under the run in ctx.
func recordImportance(ctx context.Context, store contract.AnalysisStore, importance map[string]float64) {
	analysisID, ok := getAnalysisID(ctx)
	if !ok || store == nil {
		return
	}
	if err := store.RecordFeatureImportance(analysisID, importance); err != nil {
		contract.LogWarn("Failed to record feature importance", err)
	}
}

// endRun finalizes the run in ctx.
func endRun(ctx context.Context, store contract.AnalysisStore, totalSamples int) {
	analysisID, ok := getAnalysisID(ctx)
	if !ok || store == nil {
		return
	}
	if err := store.EndAnalysis(analysisID, time.Now(), totalSamples); err != nil {
		contract.LogWarn("Failed to finalize analysis tracking", err)
	}
}

// configParams captures the settings that shape a run's results.
func configParams(cfg *contract.Config) map[string]any {
	return map[string]any{
		"samples":        cfg.Samples,
		"seed":           cfg.Seed,
		"trees":          cfg.Trees,
		"estimators":     cfg.Estimators,
		"max_depth":      cfg.MaxDepth,
		"learning_rate":  cfg.LearningRate,
		"risk_threshold": cfg.RiskThreshold,
		"horizon":        cfg.Horizon,
		"workers":        cfg.Workers,
		"data":           cfg.DataFile,
		"panel_markers":  len(cfg.Panel),
		"custom_weights": len(cfg.CustomWeights) > 0,
		"cache_backend":  string(cfg.CacheBackend),
	}
}
