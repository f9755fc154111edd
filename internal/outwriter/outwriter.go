// Package outwriter has output and writer logic.
package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/term"

	"github.com/huangsam/biomarker/internal/contract"
	"github.com/huangsam/biomarker/schema"
)

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		_, _ = fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader creates a CSV writer, writes the header and then the data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := writeRows(csvWriter); err != nil {
		return err
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// writeJSONFile writes data as indented JSON to the configured destination.
func writeJSONFile(cfg *contract.Config, data any, what string) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeJSON(w, data)
	}, "Wrote JSON "+what)
}

// writeCSVFile writes a CSV document to the configured destination.
func writeCSVFile(cfg *contract.Config, header []string, writeRows func(*csv.Writer) error, what string) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeCSVWithHeader(w, header, writeRows)
	}, "Wrote CSV "+what)
}

// writeParquetFile writes a Parquet file to the configured destination, which must be a file.
func writeParquetFile(cfg *contract.Config, write func(path string) error, what string) error {
	if cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}
	if err := write(cfg.OutputFile); err != nil {
		return fmt.Errorf("error writing Parquet output: %w", err)
	}
	_, _ = fmt.Fprintf(os.Stderr, "💾 Wrote Parquet %s to %s\n", what, cfg.OutputFile)
	return nil
}

// errParquetUnsupported reports an output format a command cannot produce.
func errParquetUnsupported(what string) error {
	return fmt.Errorf("parquet output is not supported for %s; use text, csv or json", what)
}

// createFormatters creates the number formatter used across output types.
func createFormatters(precision int) func(float64) string {
	return func(v float64) string {
		return fmt.Sprintf("%.*f", precision, v)
	}
}

// newTable returns a right-aligned table writing to w.
func newTable(w io.Writer, headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	return table
}

// renderTable adds rows to table and renders it.
func renderTable(table *tablewriter.Table, rows [][]string) error {
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// writeSummary prints the closing timing line of a table.
func writeSummary(w io.Writer, what string, cfg *contract.Config, duration time.Duration) error {
	_, err := fmt.Fprintf(w, "%s completed in %v with %d workers. Cache backend: %s\n",
		what, duration.Round(time.Millisecond), cfg.Workers, displayBackend(cfg.CacheBackend))
	return err
}

// displayBackend names an unset backend.
func displayBackend(b schema.DatabaseBackend) string {
	if b == "" {
		return string(schema.NoneBackend)
	}
	return string(b)
}

// scoreLabel returns a colored or plain label depending on the config.
func scoreLabel(cfg *contract.Config, score float64) string {
	if cfg.UseColors {
		return contract.GetColorLabel(score)
	}
	return contract.GetPlainLabel(score)
}

// statusLabel returns a colored or plain marker status depending on the config.
func statusLabel(cfg *contract.Config, status string) string {
	if cfg.UseColors {
		return contract.GetColorStatus(status)
	}
	return status
}

// GetMaxTableWidth returns the terminal width available to tables.
// An explicit width in the config wins over the detected one.
func GetMaxTableWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		// Conservative default for narrow terminals and CI
		return 80
	}
	return detectedWidth
}
