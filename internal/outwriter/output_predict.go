package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/biomarker/internal/contract"
	"github.com/huangsam/biomarker/schema"
)

// jsonPrediction is a prediction with the category label of each score.
type jsonPrediction struct {
	schema.Prediction
	Labels map[schema.Target]string `json:"labels"`
}

// PrintPrediction outputs a model prediction, dispatching based on the output format configured.
func PrintPrediction(pred schema.Prediction, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		out := jsonPrediction{Prediction: pred, Labels: make(map[schema.Target]string, len(schema.AllTargets))}
		for _, t := range schema.AllTargets {
			v, _ := pred.Scores.Get(t)
			out.Labels[t] = contract.GetPlainLabel(v)
		}
		if err := writeJSONFile(cfg, out, "prediction"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeCSVFile(cfg, []string{"target", "score", "label"}, func(w *csv.Writer) error {
			return writePredictionCSV(w, pred, fmtFloat)
		}, "prediction"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return errParquetUnsupported("predict")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePredictionText(w, pred, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// writePredictionCSV writes the risk flag followed by one row per target.
func writePredictionCSV(w *csv.Writer, pred schema.Prediction, fmtFloat func(float64) string) error {
	rows := [][]string{{"health_risk", fmt.Sprintf("%t", pred.HealthRisk), ""}}
	for _, t := range schema.AllTargets {
		v, _ := pred.Scores.Get(t)
		rows = append(rows, []string{string(t), fmtFloat(v), contract.GetPlainLabel(v)})
	}
	return w.WriteAll(rows)
}

// writePredictionText prints the risk flag and a table of the nine scores.
func writePredictionText(w io.Writer, pred schema.Prediction, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	risk := "no"
	if pred.HealthRisk {
		risk = "yes"
	}
	if _, err := fmt.Fprintf(w, "Health risk: %s (probability %s)\n", risk, fmtFloat(pred.Probability)); err != nil {
		return err
	}

	table := newTable(w, "Target", "Score", "Label")
	var rows [][]string
	for _, t := range schema.AllTargets {
		v, _ := pred.Scores.Get(t)
		rows = append(rows, []string{string(t), fmtFloat(v), scoreLabel(cfg, v)})
	}
	if err := renderTable(table, rows); err != nil {
		return err
	}
	return writeSummary(w, "Prediction", cfg, duration)
}
