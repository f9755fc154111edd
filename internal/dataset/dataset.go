// Package dataset loads external training data from CSV or Parquet files.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/huangsam/biomarker/internal/parquet"
	"github.com/huangsam/biomarker/schema"
)

// Load reads a dataset file, choosing the decoder by extension.
// Every record is marked as external.
func Load(path string) (schema.Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return parquet.ReadDatasetParquet(path)
	case ".csv":
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open dataset: %w", err)
		}
		defer func() { _ = file.Close() }()
		return ReadCSV(file)
	default:
		return nil, fmt.Errorf("unsupported dataset format %q (expected .csv or .parquet)", filepath.Ext(path))
	}
}

// column describes where a CSV column lands in a record.
type column struct {
	marker  schema.Marker
	feature schema.Feature
	target  schema.Target
	skip    bool
}

// classifyColumn maps a header name onto a target, an advanced index or a marker.
func classifyColumn(name string) column {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || key == "source" {
		return column{skip: true}
	}
	if _, ok := schema.ValidTargets[schema.Target(key)]; ok {
		return column{target: schema.Target(key)}
	}
	if _, ok := schema.ValidFeatures[schema.Feature(key)]; ok {
		return column{feature: schema.Feature(key)}
	}
	return column{marker: schema.CanonicalMarker(key)}
}

// ReadCSV decodes a header row followed by numeric rows. Empty cells are missing values.
// Advanced indices are kept only when all of them are present in a row.
func ReadCSV(r io.Reader) (schema.Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("dataset is empty")
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	columns := make([]column, len(header))
	for i, name := range header {
		columns[i] = classifyColumn(name)
	}

	var ds schema.Dataset
	for line := 2; ; line++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}
		rec := schema.Record{Markers: schema.Panel{}, Source: schema.ExternalSource}
		features := make(map[schema.Feature]float64)
		for i, raw := range fields {
			raw = strings.TrimSpace(raw)
			if raw == "" || columns[i].skip {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil || !schema.IsFinite(v) {
				return nil, fmt.Errorf("line %d, column %s: invalid number %q", line, header[i], raw)
			}
			switch col := columns[i]; {
			case col.target != "":
				if rec.Targets == nil {
					rec.Targets = make(map[schema.Target]float64)
				}
				rec.Targets[col.target] = v
			case col.feature != "":
				features[col.feature] = v
			default:
				rec.Markers[col.marker] = v
			}
		}
		if len(features) == len(schema.AllFeatures) {
			adv := schema.AdvancedFeatureSetFromMap(features)
			rec.Features = &adv
		}
		ds = append(ds, rec)
	}
	if len(ds) == 0 {
		return nil, fmt.Errorf("dataset has a header but no rows")
	}
	return ds, nil
}
