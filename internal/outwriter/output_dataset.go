package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/huangsam/biomarker/internal/contract"
	"github.com/huangsam/biomarker/internal/parquet"
	"github.com/huangsam/biomarker/schema"
)

// datasetMarkers are the marker columns of a written dataset.
var datasetMarkers = append(append([]schema.Marker{}, schema.BaseMarkers...), schema.AdvancedMarkers...)

// PrintDataset outputs a labelled dataset, dispatching based on the output format configured.
// Text output summarizes each column; the other formats write every record.
func PrintDataset(ds schema.Dataset, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSONFile(cfg, ds, "dataset"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeCSVFile(cfg, datasetCSVHeader(), func(w *csv.Writer) error {
			return writeDatasetCSV(w, ds)
		}, "dataset"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return writeParquetFile(cfg, func(path string) error {
			return parquet.WriteDatasetParquet(ds, path)
		}, "dataset")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDatasetText(w, ds, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// datasetCSVHeader lists source, markers, indices and targets.
func datasetCSVHeader() []string {
	header := []string{"source"}
	for _, m := range datasetMarkers {
		header = append(header, string(m))
	}
	for _, f := range schema.AllFeatures {
		header = append(header, string(f))
	}
	for _, t := range schema.AllTargets {
		header = append(header, string(t))
	}
	return header
}

// writeDatasetCSV writes one row per record. Missing values are empty cells.
// Values keep full precision so the file can be read back as training data.
func writeDatasetCSV(w *csv.Writer, ds schema.Dataset) error {
	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, rec := range ds {
		row := []string{rec.Source}
		for _, m := range datasetMarkers {
			if v, ok := rec.Markers[m]; ok {
				row = append(row, format(v))
			} else {
				row = append(row, "")
			}
		}
		for _, f := range schema.AllFeatures {
			if rec.Features == nil {
				row = append(row, "")
				continue
			}
			v, _ := rec.Features.Get(f)
			row = append(row, format(v))
		}
		for _, t := range schema.AllTargets {
			if v, ok := rec.Targets[t]; ok {
				row = append(row, format(v))
			} else {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// columnStats summarizes the present values of one column.
type columnStats struct {
	name           string
	count          int
	mean, min, max float64
}

// summarize computes count, mean, min and max over values.
func summarize(name string, values []float64) columnStats {
	s := columnStats{name: name, count: len(values)}
	if len(values) > 0 {
		s.mean = stat.Mean(values, nil)
		s.min = floats.Min(values)
		s.max = floats.Max(values)
	}
	return s
}

// datasetStats summarizes every marker and target column of ds.
func datasetStats(ds schema.Dataset) []columnStats {
	var out []columnStats
	for _, m := range datasetMarkers {
		var values []float64
		for _, rec := range ds {
			if v, ok := rec.Markers[m]; ok {
				values = append(values, v)
			}
		}
		out = append(out, summarize(string(m), values))
	}
	for _, t := range schema.AllTargets {
		var values []float64
		for _, rec := range ds {
			if v, ok := rec.Targets[t]; ok {
				values = append(values, v)
			}
		}
		out = append(out, summarize(string(t), values))
	}
	return out
}

// writeDatasetText prints a per-column summary of the dataset.
func writeDatasetText(w io.Writer, ds schema.Dataset, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	if _, err := fmt.Fprintf(w, "Records: %d (synthetic %d, external %d)\n",
		len(ds), ds.Count(schema.SyntheticSource), ds.Count(schema.ExternalSource)); err != nil {
		return err
	}

	table := newTable(w, "Column", "Count", "Mean", "Min", "Max")
	var rows [][]string
	for _, s := range datasetStats(ds) {
		if s.count == 0 {
			rows = append(rows, []string{s.name, "0", "-", "-", "-"})
			continue
		}
		rows = append(rows, []string{s.name, strconv.Itoa(s.count), fmtFloat(s.mean), fmtFloat(s.min), fmtFloat(s.max)})
	}
	if err := renderTable(table, rows); err != nil {
		return err
	}
	return writeSummary(w, "Generation", cfg, duration)
}
