package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/biomarker/internal/contract"
	"github.com/huangsam/biomarker/schema"
)

// PrintAnalysis outputs the rule-based assessment of a panel, dispatching based on the output format configured.
func PrintAnalysis(analysis schema.Analysis, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSONFile(cfg, analysis, "analysis"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		header := []string{"section", "name", "value", "label"}
		if err := writeCSVFile(cfg, header, func(w *csv.Writer) error {
			return writeAnalysisCSV(w, analysis, fmtFloat)
		}, "analysis"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return errParquetUnsupported("features")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAnalysisText(w, analysis, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// writeAnalysisCSV writes one row per score, system and index.
func writeAnalysisCSV(w *csv.Writer, a schema.Analysis, fmtFloat func(float64) string) error {
	rows := [][]string{
		{"score", string(schema.HealthTarget), fmtFloat(a.HealthScore), contract.GetPlainLabel(a.HealthScore)},
		{"score", string(schema.MetaboliteTarget), fmtFloat(a.MetaboliteScore), contract.GetPlainLabel(a.MetaboliteScore)},
		{"score", string(schema.ComprehensiveTarget), fmtFloat(a.ComprehensiveScore), contract.GetPlainLabel(a.ComprehensiveScore)},
	}
	for _, sys := range schema.AllSystems {
		v, _ := a.Systems.Get(sys)
		rows = append(rows, []string{"system", string(sys), fmtFloat(v), contract.GetPlainLabel(v)})
	}
	for _, f := range schema.AllFeatures {
		v, _ := a.Features.Get(f)
		rows = append(rows, []string{"feature", string(f), fmtFloat(v), ""})
	}
	for _, r := range a.Readings {
		rows = append(rows, []string{"marker", string(r.Marker), fmtFloat(r.Value), r.Status})
	}
	return w.WriteAll(rows)
}

// writeAnalysisText prints scores, systems, indices and readings as tables followed by insights.
func writeAnalysisText(w io.Writer, a schema.Analysis, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	scores := newTable(w, "Score", "Value", "Label")
	if err := renderTable(scores, [][]string{
		{"Health", fmtFloat(a.HealthScore), scoreLabel(cfg, a.HealthScore)},
		{"Metabolite", fmtFloat(a.MetaboliteScore), scoreLabel(cfg, a.MetaboliteScore)},
		{"Comprehensive", fmtFloat(a.ComprehensiveScore), scoreLabel(cfg, a.ComprehensiveScore)},
	}); err != nil {
		return err
	}

	systems := newTable(w, "System", "Score", "Label")
	var systemRows [][]string
	for _, sys := range schema.AllSystems {
		v, _ := a.Systems.Get(sys)
		systemRows = append(systemRows, []string{string(sys), fmtFloat(v), scoreLabel(cfg, v)})
	}
	if err := renderTable(systems, systemRows); err != nil {
		return err
	}

	features := newTable(w, "Index", "Value")
	var featureRows [][]string
	for _, f := range schema.AllFeatures {
		v, _ := a.Features.Get(f)
		featureRows = append(featureRows, []string{string(f), fmtFloat(v)})
	}
	if err := renderTable(features, featureRows); err != nil {
		return err
	}

	if len(a.Readings) > 0 {
		readings := newTable(w, "Marker", "Value", "Unit", "Range", "Status")
		var readingRows [][]string
		for _, r := range a.Readings {
			rng := ""
			if r.Range != nil {
				rng = fmt.Sprintf("%g-%g", r.Range.Min, r.Range.Max)
			}
			readingRows = append(readingRows, []string{string(r.Marker), fmtFloat(r.Value), r.Unit, rng, statusLabel(cfg, r.Status)})
		}
		if err := renderTable(readings, readingRows); err != nil {
			return err
		}
	}

	if err := writeInsights(w, a, cfg); err != nil {
		return err
	}
	return writeSummary(w, "Feature analysis", cfg, duration)
}

// writeInsights prints the insight messages and the grouped recommendations.
func writeInsights(w io.Writer, a schema.Analysis, cfg *contract.Config) error {
	width := GetMaxTableWidth(cfg)
	if len(a.Insights) > 0 {
		if _, err := fmt.Fprintln(w, "Insights:"); err != nil {
			return err
		}
		for _, line := range a.Insights {
			if _, err := fmt.Fprintf(w, "  - %s\n", contract.TruncateText(line, width-4)); err != nil {
				return err
			}
		}
	}

	groups := []struct {
		name  string
		items []string
	}{
		{"Lifestyle", a.Recommendations.Lifestyle},
		{"Diet", a.Recommendations.Diet},
		{"Supplements", a.Recommendations.Supplements},
		{"Monitoring", a.Recommendations.Monitoring},
	}
	for _, g := range groups {
		if len(g.items) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s:\n", g.name); err != nil {
			return err
		}
		for _, item := range g.items {
			if _, err := fmt.Fprintf(w, "  - %s\n", contract.TruncateText(item, width-4)); err != nil {
				return err
			}
		}
	}
	return nil
}
