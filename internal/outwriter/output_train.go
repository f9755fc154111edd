package outwriter

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/huangsam/biomarker/internal/contract"
	"github.com/huangsam/biomarker/schema"
)

// topNImportance is how many features the training table shows.
const topNImportance = 10

// PrintTrainingStats outputs a training summary, dispatching based on the output format configured.
func PrintTrainingStats(stats schema.TrainingStats, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatters(max(cfg.Precision, 3))

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSONFile(cfg, stats, "training stats"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeCSVFile(cfg, []string{"rank", "feature", "importance"}, func(w *csv.Writer) error {
			for i, name := range rankedFeatures(stats.FeatureImportance) {
				if err := w.Write([]string{fmt.Sprint(i + 1), name, fmtFloat(stats.FeatureImportance[name])}); err != nil {
					return err
				}
			}
			return nil
		}, "feature importance"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return errParquetUnsupported("train")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTrainingText(w, stats, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// rankedFeatures orders features by importance, highest first, ties by name.
func rankedFeatures(importance map[string]float64) []string {
	names := slices.Sorted(maps.Keys(importance))
	slices.SortStableFunc(names, func(a, b string) int {
		return cmp.Compare(importance[b], importance[a])
	})
	return names
}

// writeTrainingText prints sample counts and the most important features.
func writeTrainingText(w io.Writer, stats schema.TrainingStats, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	source := "trained"
	if stats.FromCache {
		source = "cached"
	}
	lines := []string{
		fmt.Sprintf("Model: %s (%s)", stats.RunID, source),
		fmt.Sprintf("Samples: %d (synthetic %d, external %d)", stats.TotalSamples, stats.SyntheticSamples, stats.ExternalSamples),
		fmt.Sprintf("Positive risk labels: %d", stats.PositiveLabels),
		fmt.Sprintf("Fit time: %v", stats.Duration.Round(time.Millisecond)),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	table := newTable(w, "Rank", "Feature", "Importance")
	var rows [][]string
	for i, name := range rankedFeatures(stats.FeatureImportance) {
		if i == topNImportance {
			break
		}
		rows = append(rows, []string{fmt.Sprint(i + 1), name, fmtFloat(stats.FeatureImportance[name])})
	}
	if err := renderTable(table, rows); err != nil {
		return err
	}
	return writeSummary(w, "Training", cfg, duration)
}
