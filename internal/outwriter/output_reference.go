package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/huangsam/biomarker/internal/contract"
	"github.com/huangsam/biomarker/schema"
)

// referenceRenderModel is the reference table in display order with the active weights.
type referenceRenderModel struct {
	Markers []schema.ReferenceEntry                     `json:"markers"`
	Weights map[schema.System]map[schema.Marker]float64 `json:"system_weights"`
	Formula map[schema.System]string                    `json:"formulas"`
}

// buildReferenceRenderModel orders the table and derives one weight formula per system.
func buildReferenceRenderModel(table schema.ReferenceTable) referenceRenderModel {
	markers := table.Markers()
	model := referenceRenderModel{
		Markers: make([]schema.ReferenceEntry, 0, len(markers)),
		Weights: table.SystemWeights(),
		Formula: make(map[schema.System]string, len(schema.AllSystems)),
	}
	for _, m := range markers {
		model.Markers = append(model.Markers, table[m])
	}
	for _, sys := range schema.AllSystems {
		model.Formula[sys] = formatWeights(model.Weights[sys], markers)
	}
	return model
}

// formatWeights formats weights for display in formulas.
func formatWeights(weights map[schema.Marker]float64, order []schema.Marker) string {
	var parts []string
	for _, m := range order {
		if w, ok := weights[m]; ok && w > 0 {
			parts = append(parts, fmt.Sprintf("%.2f*%s", w, m))
		}
	}
	return strings.Join(parts, "+")
}

// PrintReference displays the reference table and the active system weights.
// This is a static display that does not require a trained model.
func PrintReference(table schema.ReferenceTable, cfg *contract.Config) error {
	model := buildReferenceRenderModel(table)

	switch cfg.Output {
	case schema.JSONOut:
		return writeJSONFile(cfg, model, "reference")
	case schema.CSVOut:
		header := []string{"marker", "unit", "normal_min", "normal_max", "plausible_min", "plausible_max", "distribution", "default", "weights"}
		return writeCSVFile(cfg, header, func(w *csv.Writer) error {
			return writeReferenceCSV(w, model)
		}, "reference")
	case schema.ParquetOut:
		return errParquetUnsupported("reference")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReferenceText(w, model, cfg)
		}, "Wrote text")
	}
}

// entryWeights renders the system weights of one marker as system=weight pairs.
func entryWeights(e schema.ReferenceEntry, sep string) string {
	var parts []string
	for _, sys := range schema.AllSystems {
		if w, ok := e.Weights[sys]; ok {
			parts = append(parts, fmt.Sprintf("%s=%g", sys, w))
		}
	}
	return strings.Join(parts, sep)
}

// normalBounds renders the normal range columns, empty when none is defined.
func normalBounds(e schema.ReferenceEntry) (string, string) {
	if e.Normal == nil {
		return "", ""
	}
	return fmt.Sprintf("%g", e.Normal.Min), fmt.Sprintf("%g", e.Normal.Max)
}

func writeReferenceCSV(w *csv.Writer, model referenceRenderModel) error {
	for _, e := range model.Markers {
		lo, hi := normalBounds(e)
		rec := []string{
			string(e.Marker),
			e.Unit,
			lo,
			hi,
			fmt.Sprintf("%g", e.Plausible.Min),
			fmt.Sprintf("%g", e.Plausible.Max),
			fmt.Sprintf("%s(%g,%g)", e.Dist.Kind, e.Dist.Mu, e.Dist.Sigma),
			fmt.Sprintf("%g", e.Default),
			entryWeights(e, "|"),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func writeReferenceText(w io.Writer, model referenceRenderModel, cfg *contract.Config) error {
	table := newTable(w, "Marker", "Unit", "Normal", "Plausible", "Default", "Weights")
	var rows [][]string
	for _, e := range model.Markers {
		normal := "-"
		if lo, hi := normalBounds(e); lo != "" {
			normal = lo + "-" + hi
		}
		rows = append(rows, []string{
			string(e.Marker),
			e.Unit,
			normal,
			fmt.Sprintf("%g-%g", e.Plausible.Min, e.Plausible.Max),
			fmt.Sprintf("%g", e.Default),
			entryWeights(e, " "),
		})
	}
	if err := renderTable(table, rows); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "System scores = 100 × weighted sum of normalized markers"); err != nil {
		return err
	}
	for _, sys := range schema.AllSystems {
		name := strings.ToUpper(string(sys))
		if cfg.UseEmojis {
			name = systemEmoji[sys] + " " + name
		}
		if _, err := fmt.Fprintf(w, "  %s: %s\n", name, model.Formula[sys]); err != nil {
			return err
		}
	}
	return nil
}

// systemEmoji decorates system names in text output.
var systemEmoji = map[schema.System]string{
	schema.LiverSystem:     "🫀",
	schema.KidneySystem:    "🫘",
	schema.CardioSystem:    "❤️",
	schema.EndocrineSystem: "🧬",
	schema.ImmuneSystem:    "🛡️",
	schema.DigestiveSystem: "🍽️",
}
