package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/biomarker/internal/contract"
	"github.com/huangsam/biomarker/internal/parquet"
	"github.com/huangsam/biomarker/schema"
)

// PrintForecast outputs a forecast series, dispatching based on the output format configured.
func PrintForecast(series schema.ForecastSeries, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSONFile(cfg, series, "forecast"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeCSVFile(cfg, forecastCSVHeader(series), func(w *csv.Writer) error {
			return writeForecastCSV(w, series, fmtFloat)
		}, "forecast"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return writeParquetFile(cfg, func(path string) error {
			return parquet.WriteForecastParquet(series, path)
		}, "forecast")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeForecastText(w, series, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// forecastCSVHeader returns the weekly columns followed by one column per projected marker.
func forecastCSVHeader(series schema.ForecastSeries) []string {
	header := []string{"week", "health_score", "metabolite_score", "risk_level"}
	for _, b := range series.Biomarkers {
		header = append(header, string(b.Marker))
	}
	return header
}

// writeForecastCSV writes one row per week.
func writeForecastCSV(w *csv.Writer, series schema.ForecastSeries, fmtFloat func(float64) string) error {
	for i, week := range series.Weeks {
		row := []string{
			strconv.Itoa(week.Week),
			fmtFloat(week.HealthScore),
			fmtFloat(week.MetaboliteScore),
			fmtFloat(week.RiskLevel),
		}
		for _, b := range series.Biomarkers {
			row = append(row, fmtFloat(b.Values[i]))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// writeForecastText prints the weekly scores and the projected markers.
func writeForecastText(w io.Writer, series schema.ForecastSeries, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	headers := []string{"Week", "Health", "Label", "Metabolite", "Risk"}
	for _, b := range series.Biomarkers {
		headers = append(headers, string(b.Marker))
	}
	table := newTable(w, headers...)

	var rows [][]string
	for i, week := range series.Weeks {
		row := []string{
			strconv.Itoa(week.Week),
			fmtFloat(week.HealthScore),
			scoreLabel(cfg, week.HealthScore),
			fmtFloat(week.MetaboliteScore),
			fmtFloat(week.RiskLevel),
		}
		for _, b := range series.Biomarkers {
			row = append(row, fmtFloat(b.Values[i]))
		}
		rows = append(rows, row)
	}
	if err := renderTable(table, rows); err != nil {
		return err
	}

	for _, b := range series.Biomarkers {
		if _, err := fmt.Fprintf(w, "%s: %s → %s\n", b.Marker, fmtFloat(b.Base), fmtFloat(b.Target)); err != nil {
			return err
		}
	}
	return writeSummary(w, fmt.Sprintf("Forecast of %d weeks", series.Horizon), cfg, duration)
}
