package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/biomarker/internal/contract"
	"github.com/huangsam/biomarker/internal/outwriter"
	"github.com/huangsam/biomarker/schema"
)

// CheckFailedError is returned when at least one predicted score falls below its threshold.
type CheckFailedError struct {
	Violations int
}

func (e *CheckFailedError) Error() string {
	return fmt.Sprintf("%d violation(s) found", e.Violations)
}

// ExecuteCheck runs the check command for CI/CD gating.
// It predicts the configured panel, compares every score against cfg.Thresholds
// and returns a CheckFailedError if any score falls below its threshold.
func ExecuteCheck(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	if len(cfg.Panel) == 0 {
		return ErrEmptyPanel
	}
	store := analysisStore(mgr)
	ctx = beginRun(ctx, store, CheckRun, cfg)

	m, err := LoadModel(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	pred, err := m.Predict(cfg.Panel)
	if err != nil {
		return err
	}
	recordPrediction(ctx, store, pred)
	endRun(ctx, store, m.Stats().TotalSamples)

	result := buildCheckResult(pred.Scores, cfg.Thresholds)
	if err := outwriter.PrintCheckResult(result, cfg, time.Since(start)); err != nil {
		return err
	}
	if !result.Passed {
		return &CheckFailedError{Violations: len(result.Failed)}
	}
	return nil
}

// buildCheckResult compares scores against thresholds in target order.
// A threshold of 0 never fails.
func buildCheckResult(scores schema.Scores, thresholds map[schema.Target]float64) schema.CheckResult {
	result := schema.CheckResult{
		Passed:     true,
		Failed:     []schema.CheckFailedTarget{},
		Thresholds: thresholds,
		Scores:     scores,
	}
	for _, target := range schema.AllTargets {
		threshold, ok := thresholds[target]
		if !ok || threshold <= 0 {
			continue
		}
		score, _ := scores.Get(target)
		if score < threshold {
			result.Failed = append(result.Failed, schema.CheckFailedTarget{
				Target:    target,
				Score:     score,
				Threshold: threshold,
			})
		}
	}
	result.Passed = len(result.Failed) == 0
	return result
}
