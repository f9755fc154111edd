package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/huangsam/biomarker/internal/contract"
	"github.com/huangsam/biomarker/schema"
)

// PrintCheckResult outputs a threshold check, dispatching based on the output format configured.
func PrintCheckResult(result schema.CheckResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeJSONFile(cfg, result, "check result")
	case schema.CSVOut:
		return writeCSVFile(cfg, []string{"target", "score", "threshold", "passed"}, func(w *csv.Writer) error {
			return writeCheckCSV(w, result, fmtFloat)
		}, "check result")
	case schema.ParquetOut:
		return errParquetUnsupported("check")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCheckText(w, result, fmtFloat, duration)
		}, "Wrote text")
	}
}

// checkedTargets lists the targets with an active threshold, in target order.
func checkedTargets(result schema.CheckResult) []schema.Target {
	var out []schema.Target
	for _, t := range schema.AllTargets {
		if threshold, ok := result.Thresholds[t]; ok && threshold > 0 {
			out = append(out, t)
		}
	}
	return out
}

func writeCheckCSV(w *csv.Writer, result schema.CheckResult, fmtFloat func(float64) string) error {
	for _, t := range checkedTargets(result) {
		score, _ := result.Scores.Get(t)
		threshold := result.Thresholds[t]
		if err := w.Write([]string{string(t), fmtFloat(score), fmtFloat(threshold), fmt.Sprintf("%t", score >= threshold)}); err != nil {
			return err
		}
	}
	return nil
}

// writeCheckText prints the check result in a concise format suitable for CI/CD.
func writeCheckText(w io.Writer, result schema.CheckResult, fmtFloat func(float64) string, duration time.Duration) error {
	checked := checkedTargets(result)
	parts := make([]string, 0, len(checked))
	for _, t := range checked {
		parts = append(parts, fmt.Sprintf("%s=%s", strings.TrimSuffix(string(t), "_score"), fmtFloat(result.Thresholds[t])))
	}
	thresholds := strings.Join(parts, ", ")
	if thresholds == "" {
		thresholds = "none"
	}

	var b strings.Builder
	b.WriteString("Threshold Check Results:\n")
	fmt.Fprintf(&b, "  Thresholds: %s\n\n", thresholds)
	fmt.Fprintf(&b, "Checked %d scores in %v\n\n", len(checked), duration.Round(time.Millisecond))

	if result.Passed {
		b.WriteString("✅ All scores passed threshold checks\n\n")
		b.WriteString("Scores observed:\n")
		for _, t := range checked {
			score, _ := result.Scores.Get(t)
			fmt.Fprintf(&b, "  %s: %s (%s)\n", t, fmtFloat(score), contract.GetPlainLabel(score))
		}
	} else {
		fmt.Fprintf(&b, "❌ Threshold check failed: %d violation(s) found\n\n", len(result.Failed))
		for _, f := range result.Failed {
			fmt.Fprintf(&b, "  - %s (score: %s < threshold: %s)\n", f.Target, fmtFloat(f.Score), fmtFloat(f.Threshold))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
