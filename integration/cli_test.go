//go:build basic

package integration

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	w := newWorkspace(t)
	out := w.mustRun(t, "version")
	assert.Contains(t, out, "biomarker CLI")
	assert.Contains(t, out, "Runtime:")
}

func TestFeaturesJSON(t *testing.T) {
	w := newWorkspace(t)
	out := w.mustRun(t, "features", "--panel", "panel.yaml", "--output", "json")

	var analysis struct {
		HealthScore float64 `json:"health_score"`
		Readings    []any   `json:"readings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &analysis))
	assert.InDelta(t, 62.0, analysis.HealthScore, 1e-9)
	assert.Len(t, analysis.Readings, 6)
}

func TestFeaturesSetOverridesPanel(t *testing.T) {
	w := newWorkspace(t)
	out := w.mustRun(t, "features", "--panel", "panel.yaml", "--set", "glucose=160", "--output", "json")

	var analysis struct {
		HealthScore float64 `json:"health_score"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &analysis))
	assert.Less(t, analysis.HealthScore, 62.0)
}

func TestFeaturesWithoutPanelFails(t *testing.T) {
	w := newWorkspace(t)
	_, stderr, err := w.run(t, "features")
	require.Error(t, err)
	assert.Contains(t, stderr, "no panel given")
}

func TestInvalidFlagValueFails(t *testing.T) {
	w := newWorkspace(t)
	_, stderr, err := w.run(t, "features", "--panel", "panel.yaml", "--precision", "5")
	require.Error(t, err)
	assert.Contains(t, stderr, "precision must be 1 or 2")
}

func TestPredictUsesCacheOnSecondRun(t *testing.T) {
	w := newWorkspace(t)

	first := w.mustRun(t, withSmallModel("predict", "--panel", "panel.yaml")...)
	assert.Contains(t, first, "Prediction completed in")
	assert.NotContains(t, first, "Using cached model")

	second := w.mustRun(t, withSmallModel("predict", "--panel", "panel.yaml")...)
	assert.Contains(t, second, "Using cached model")

	_, err := os.Stat(w.path(".biomarker_cache.db"))
	assert.NoError(t, err)

	status := w.mustRun(t, "cache", "status")
	assert.Contains(t, status, "Cached Models: 1")

	w.mustRun(t, "cache", "clear")
	_, err = os.Stat(w.path(".biomarker_cache.db"))
	assert.True(t, os.IsNotExist(err))
}

func TestPredictIsDeterministic(t *testing.T) {
	w := newWorkspace(t)
	args := withSmallModel("predict", "--panel", "panel.yaml", "--output", "json", "--cache-backend", "none")

	first := w.mustRun(t, args...)
	second := w.mustRun(t, args...)
	assert.JSONEq(t, first, second)

	var pred struct {
		Probability float64           `json:"probability"`
		Labels      map[string]string `json:"labels"`
	}
	require.NoError(t, json.Unmarshal([]byte(first), &pred))
	assert.GreaterOrEqual(t, pred.Probability, 0.0)
	assert.LessOrEqual(t, pred.Probability, 1.0)
	assert.Contains(t, pred.Labels, "health_score")
}

func TestForecastCSV(t *testing.T) {
	w := newWorkspace(t)
	out := w.path("forecast.csv")
	w.mustRun(t, withSmallModel("forecast", "--panel", "panel.yaml", "--horizon", "8", "--output", "csv", "--output-file", out)...)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 9)
	assert.Equal(t, "week", rows[0][0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "8", rows[8][0])
}

func TestGenerateThenTrainWithData(t *testing.T) {
	w := newWorkspace(t)
	data := w.path("synthetic.csv")
	w.mustRun(t, "generate", "--samples", "150", "--seed", "9", "--output", "csv", "--output-file", data)

	content, err := os.ReadFile(data)
	require.NoError(t, err)
	assert.Equal(t, 151, strings.Count(string(content), "\n"))

	out := w.mustRun(t, withSmallModel("train", "--data", data, "--output", "json", "--cache-backend", "none")...)
	var stats struct {
		TotalSamples     int `json:"total_samples"`
		SyntheticSamples int `json:"synthetic_samples"`
		ExternalSamples  int `json:"external_samples"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 300, stats.SyntheticSamples)
	assert.Equal(t, 150, stats.ExternalSamples)
	assert.Equal(t, 450, stats.TotalSamples)
}

func TestGenerateParquet(t *testing.T) {
	w := newWorkspace(t)
	out := w.path("synthetic.parquet")
	w.mustRun(t, "generate", "--samples", "50", "--output", "parquet", "--output-file", out)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestReferenceJSON(t *testing.T) {
	w := newWorkspace(t)
	out := w.mustRun(t, "reference", "--output", "json")

	var ref struct {
		Markers []any                         `json:"markers"`
		Weights map[string]map[string]float64 `json:"system_weights"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &ref))
	assert.NotEmpty(t, ref.Markers)
	assert.Contains(t, ref.Weights, "liver")
}

func TestCheckExitCodes(t *testing.T) {
	w := newWorkspace(t)

	out := w.mustRun(t, withSmallModel("check", "--panel", "panel.yaml", "--thresholds-override", "health:1")...)
	assert.Contains(t, out, "All scores passed threshold checks")

	stdout, _, err := w.run(t, withSmallModel("check", "--panel", "panel.yaml", "--thresholds-override", "health:100,kidney:100")...)
	require.Error(t, err)
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, stdout, "Threshold check failed")
}

func TestConfigFileThresholds(t *testing.T) {
	w := newWorkspace(t)
	config := "thresholds:\n  health: 100\n"
	require.NoError(t, os.WriteFile(w.path(".biomarker.yaml"), []byte(config), 0o644))

	_, _, err := w.run(t, withSmallModel("check", "--panel", "panel.yaml")...)
	require.Error(t, err)

	// The flag takes precedence over the file
	w.mustRun(t, withSmallModel("check", "--panel", "panel.yaml", "--thresholds-override", "health:1")...)
}

func TestAnalysisTrackingAndExport(t *testing.T) {
	w := newWorkspace(t, "BIOMARKER_ANALYSIS_BACKEND=sqlite")

	w.mustRun(t, withSmallModel("train")...)
	w.mustRun(t, withSmallModel("predict", "--panel", "panel.yaml")...)

	status := w.mustRun(t, "analysis", "status")
	assert.Contains(t, status, "Total Runs: 2")
	assert.Contains(t, status, "Total Predictions: 1")

	export := w.path("history.parquet")
	w.mustRun(t, "analysis", "export", "--output-file", export)
	for _, suffix := range []string{".analysis_runs.parquet", ".predictions.parquet", ".feature_importance.parquet"} {
		_, err := os.Stat(export + suffix)
		assert.NoError(t, err, suffix)
	}

	w.mustRun(t, "analysis", "clear")
	_, err := os.Stat(filepath.Join(w.dir, ".biomarker_analysis.db"))
	assert.True(t, os.IsNotExist(err))
}

func TestAnalysisMigrate(t *testing.T) {
	w := newWorkspace(t, "BIOMARKER_ANALYSIS_BACKEND=sqlite")
	w.mustRun(t, "analysis", "migrate")
	w.mustRun(t, "analysis", "migrate", "--target-version", "0")
	w.mustRun(t, "analysis", "migrate")

	_, err := os.Stat(w.path(".biomarker_analysis.db"))
	assert.NoError(t, err)
}
