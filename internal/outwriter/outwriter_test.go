package outwriter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/biomarker/internal/contract"
	"github.com/huangsam/biomarker/schema"
)

// testConfig returns a config that writes to a file in a temp dir.
func testConfig(t *testing.T, output schema.OutputMode, name string) *contract.Config {
	t.Helper()
	return &contract.Config{
		Output:       output,
		OutputFile:   filepath.Join(t.TempDir(), name),
		Precision:    1,
		Workers:      2,
		Width:        100,
		CacheBackend: schema.SQLiteBackend,
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	err := writeWithFile(path, func(w io.Writer) error {
		_, err := w.Write([]byte("hello"))
		return err
	}, "Wrote text")
	require.NoError(t, err)
	assert.Equal(t, "hello", readFile(t, path))

	err = writeWithFile(filepath.Join(t.TempDir(), "fail.txt"), func(io.Writer) error {
		return errors.New("boom")
	}, "Wrote text")
	assert.EqualError(t, err, "boom")

	err = writeWithFile(filepath.Join(t.TempDir(), "missing", "out.txt"), func(io.Writer) error { return nil }, "Wrote text")
	assert.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())

	assert.ErrorContains(t, writeJSON(&buf, func() {}), "failed to encode JSON")
}

func TestWriteCSVWithHeader(t *testing.T) {
	var buf bytes.Buffer
	err := writeCSVWithHeader(&buf, []string{"a", "b"}, func(w *csv.Writer) error {
		return w.Write([]string{"1", "2"})
	})
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", buf.String())

	err = writeCSVWithHeader(&buf, []string{"a"}, func(*csv.Writer) error { return errors.New("rows") })
	assert.EqualError(t, err, "rows")
}

func TestCreateFormatters(t *testing.T) {
	assert.Equal(t, "3.1", createFormatters(1)(3.14159))
	assert.Equal(t, "3.14", createFormatters(2)(3.14159))
	assert.Equal(t, "3", createFormatters(0)(3.14159))
}

func TestWriteParquetFileNeedsPath(t *testing.T) {
	cfg := &contract.Config{Output: schema.ParquetOut}
	err := writeParquetFile(cfg, func(string) error { return nil }, "dataset")
	assert.ErrorContains(t, err, "requires --output-file")
}

func TestGetMaxTableWidth(t *testing.T) {
	assert.Equal(t, 120, GetMaxTableWidth(&contract.Config{Width: 120}))
	// Tests do not run in a terminal
	assert.Equal(t, 80, GetMaxTableWidth(&contract.Config{}))
}

func TestDisplayBackend(t *testing.T) {
	assert.Equal(t, "none", displayBackend(""))
	assert.Equal(t, "mysql", displayBackend(schema.MySQLBackend))
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	cfg := &contract.Config{Workers: 4, CacheBackend: schema.SQLiteBackend}
	require.NoError(t, writeSummary(&buf, "Prediction", cfg, 1500*time.Millisecond))
	assert.Equal(t, "Prediction completed in 1.5s with 4 workers. Cache backend: sqlite\n", buf.String())
}

func TestScoreLabel(t *testing.T) {
	cfg := &contract.Config{}
	assert.Equal(t, "Good", scoreLabel(cfg, 85))
	assert.Equal(t, "High", statusLabel(cfg, "High"))
}
