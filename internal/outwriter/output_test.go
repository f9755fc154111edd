package outwriter

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/biomarker/internal/contract"
	"github.com/huangsam/biomarker/internal/dataset"
	"github.com/huangsam/biomarker/internal/parquet"
	"github.com/huangsam/biomarker/schema"
)

func sampleAnalysis() schema.Analysis {
	return schema.Analysis{
		HealthScore:        62,
		MetaboliteScore:    81.25,
		ComprehensiveScore: 70.5,
		Features:           schema.AdvancedFeatureSet{MetabolicSyndromeScore: 50, InflammationIndex: 12},
		Systems:            schema.SystemScoreSet{Liver: 91, Kidney: 55},
		Insights:           []string{"Moderate metabolic syndrome risk"},
		Recommendations: schema.Recommendations{
			Lifestyle: []string{"Walk daily"},
			Diet:      []string{"Fewer refined carbs"},
		},
		Readings: []schema.MarkerReading{
			{Marker: schema.GlucoseMarker, Value: 130, Unit: "mg/dL", Range: &schema.Range{Min: 70, Max: 100}, Status: contract.StatusHigh},
		},
	}
}

func samplePrediction() schema.Prediction {
	return schema.Prediction{
		HealthRisk:  true,
		Probability: 0.8,
		Scores: schema.Scores{
			Health: 92, Metabolite: 81, Comprehensive: 74,
			Liver: 66, Kidney: 50, Cardio: 90,
			Endocrine: 80, Immune: 70, Digestive: 60,
		},
	}
}

func sampleForecast() schema.ForecastSeries {
	return schema.ForecastSeries{
		Horizon: 2,
		Weeks: []schema.ForecastWeek{
			{Week: 1, HealthScore: 70, MetaboliteScore: 60, RiskLevel: 30},
			{Week: 2, HealthScore: 72, MetaboliteScore: 62, RiskLevel: 28},
		},
		Biomarkers: []schema.BiomarkerProjection{
			{Marker: schema.GlucoseMarker, Base: 110, Target: 90, Values: []float64{105, 100}},
		},
	}
}

func sampleDataset() schema.Dataset {
	features := schema.AdvancedFeatureSet{InsulinResistanceIndex: 10}
	return schema.Dataset{
		{
			Markers:  schema.Panel{schema.AgeMarker: 40, schema.GlucoseMarker: 95.5},
			Features: &features,
			Targets:  map[schema.Target]float64{schema.HealthTarget: 75},
			Source:   schema.SyntheticSource,
		},
		{
			Markers: schema.Panel{schema.AgeMarker: 60},
			Source:  schema.ExternalSource,
		},
	}
}

func TestPrintAnalysis(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		cfg := testConfig(t, schema.JSONOut, "analysis.json")
		require.NoError(t, PrintAnalysis(sampleAnalysis(), cfg, time.Second))

		var got schema.Analysis
		require.NoError(t, json.Unmarshal([]byte(readFile(t, cfg.OutputFile)), &got))
		assert.Equal(t, sampleAnalysis(), got)
	})

	t.Run("csv", func(t *testing.T) {
		cfg := testConfig(t, schema.CSVOut, "analysis.csv")
		require.NoError(t, PrintAnalysis(sampleAnalysis(), cfg, time.Second))

		rows := readCSV(t, cfg.OutputFile)
		assert.Equal(t, []string{"section", "name", "value", "label"}, rows[0])
		assert.Equal(t, []string{"score", "health_score", "62.0", "Poor"}, rows[1])
		assert.Equal(t, []string{"system", "liver", "91.0", "Excellent"}, rows[4])
		assert.Equal(t, []string{"marker", "glucose", "130.0", "High"}, rows[len(rows)-1])
		assert.Len(t, rows, 1+3+len(schema.AllSystems)+len(schema.AllFeatures)+1)
	})

	t.Run("text", func(t *testing.T) {
		cfg := testConfig(t, schema.TextOut, "analysis.txt")
		require.NoError(t, PrintAnalysis(sampleAnalysis(), cfg, time.Second))

		out := readFile(t, cfg.OutputFile)
		assert.Contains(t, out, "Comprehensive")
		assert.Contains(t, out, "metabolic_syndrome_score")
		assert.Contains(t, out, "70-100")
		assert.Contains(t, out, "Insights:\n  - Moderate metabolic syndrome risk")
		assert.Contains(t, out, "Diet:\n  - Fewer refined carbs")
		assert.NotContains(t, out, "Supplements:")
		assert.Contains(t, out, "Feature analysis completed in 1s with 2 workers. Cache backend: sqlite")
	})

	t.Run("parquet", func(t *testing.T) {
		cfg := testConfig(t, schema.ParquetOut, "analysis.parquet")
		assert.ErrorContains(t, PrintAnalysis(sampleAnalysis(), cfg, time.Second), "not supported")
	})
}

func TestPrintPrediction(t *testing.T) {
	t.Run("json carries labels", func(t *testing.T) {
		cfg := testConfig(t, schema.JSONOut, "pred.json")
		require.NoError(t, PrintPrediction(samplePrediction(), cfg, time.Second))

		var got struct {
			HealthRisk bool              `json:"health_risk"`
			Scores     schema.Scores     `json:"scores"`
			Labels     map[string]string `json:"labels"`
		}
		require.NoError(t, json.Unmarshal([]byte(readFile(t, cfg.OutputFile)), &got))
		assert.True(t, got.HealthRisk)
		assert.Equal(t, samplePrediction().Scores, got.Scores)
		assert.Equal(t, "Excellent", got.Labels["health_score"])
		assert.Equal(t, "Critical", got.Labels["kidney_score"])
		assert.Len(t, got.Labels, len(schema.AllTargets))
	})

	t.Run("csv", func(t *testing.T) {
		cfg := testConfig(t, schema.CSVOut, "pred.csv")
		require.NoError(t, PrintPrediction(samplePrediction(), cfg, time.Second))

		rows := readCSV(t, cfg.OutputFile)
		require.Len(t, rows, 2+len(schema.AllTargets))
		assert.Equal(t, []string{"health_risk", "true", ""}, rows[1])
		assert.Equal(t, []string{"health_score", "92.0", "Excellent"}, rows[2])
		assert.Equal(t, []string{"digestive_score", "60.0", "Poor"}, rows[len(rows)-1])
	})

	t.Run("text", func(t *testing.T) {
		cfg := testConfig(t, schema.TextOut, "pred.txt")
		require.NoError(t, PrintPrediction(samplePrediction(), cfg, time.Second))

		out := readFile(t, cfg.OutputFile)
		assert.Contains(t, out, "Health risk: yes (probability 0.8)")
		assert.Contains(t, out, "endocrine_score")
		assert.Contains(t, out, "Prediction completed in 1s")
	})
}

func TestPrintForecast(t *testing.T) {
	t.Run("csv", func(t *testing.T) {
		cfg := testConfig(t, schema.CSVOut, "forecast.csv")
		require.NoError(t, PrintForecast(sampleForecast(), cfg, time.Second))

		rows := readCSV(t, cfg.OutputFile)
		assert.Equal(t, [][]string{
			{"week", "health_score", "metabolite_score", "risk_level", "glucose"},
			{"1", "70.0", "60.0", "30.0", "105.0"},
			{"2", "72.0", "62.0", "28.0", "100.0"},
		}, rows)
	})

	t.Run("json", func(t *testing.T) {
		cfg := testConfig(t, schema.JSONOut, "forecast.json")
		require.NoError(t, PrintForecast(sampleForecast(), cfg, time.Second))

		var got schema.ForecastSeries
		require.NoError(t, json.Unmarshal([]byte(readFile(t, cfg.OutputFile)), &got))
		assert.Equal(t, sampleForecast(), got)
	})

	t.Run("parquet", func(t *testing.T) {
		cfg := testConfig(t, schema.ParquetOut, "forecast.parquet")
		require.NoError(t, PrintForecast(sampleForecast(), cfg, time.Second))
		assert.NotEmpty(t, readFile(t, cfg.OutputFile))
	})

	t.Run("text", func(t *testing.T) {
		cfg := testConfig(t, schema.TextOut, "forecast.txt")
		require.NoError(t, PrintForecast(sampleForecast(), cfg, time.Second))

		out := readFile(t, cfg.OutputFile)
		assert.Contains(t, out, "glucose: 110.0 → 90.0")
		assert.Contains(t, out, "Forecast of 2 weeks completed in 1s")
	})
}

func TestPrintTrainingStats(t *testing.T) {
	stats := schema.TrainingStats{
		RunID:             "abc",
		TotalSamples:      210,
		SyntheticSamples:  200,
		ExternalSamples:   10,
		PositiveLabels:    90,
		FeatureImportance: map[string]float64{"glucose": 0.5, "bmi": 0.2, "age": 0.2, "hdl": 0.1},
		Duration:          2 * time.Second,
	}

	t.Run("csv ranks by importance", func(t *testing.T) {
		cfg := testConfig(t, schema.CSVOut, "train.csv")
		require.NoError(t, PrintTrainingStats(stats, cfg, time.Second))

		assert.Equal(t, [][]string{
			{"rank", "feature", "importance"},
			{"1", "glucose", "0.500"},
			{"2", "age", "0.200"},
			{"3", "bmi", "0.200"},
			{"4", "hdl", "0.100"},
		}, readCSV(t, cfg.OutputFile))
	})

	t.Run("text", func(t *testing.T) {
		cfg := testConfig(t, schema.TextOut, "train.txt")
		require.NoError(t, PrintTrainingStats(stats, cfg, time.Second))

		out := readFile(t, cfg.OutputFile)
		assert.Contains(t, out, "Model: abc (trained)")
		assert.Contains(t, out, "Samples: 210 (synthetic 200, external 10)")
		assert.Contains(t, out, "Positive risk labels: 90")
	})

	t.Run("json", func(t *testing.T) {
		cfg := testConfig(t, schema.JSONOut, "train.json")
		require.NoError(t, PrintTrainingStats(stats, cfg, time.Second))

		var got schema.TrainingStats
		require.NoError(t, json.Unmarshal([]byte(readFile(t, cfg.OutputFile)), &got))
		assert.Equal(t, stats, got)
	})
}

func TestRankedFeatures(t *testing.T) {
	assert.Equal(t, []string{"c", "a", "b"}, rankedFeatures(map[string]float64{"a": 1, "b": 1, "c": 3}))
	assert.Empty(t, rankedFeatures(nil))
}

func TestPrintDataset(t *testing.T) {
	t.Run("csv reads back as training data", func(t *testing.T) {
		cfg := testConfig(t, schema.CSVOut, "data.csv")
		require.NoError(t, PrintDataset(sampleDataset(), cfg, time.Second))

		ds, err := dataset.Load(cfg.OutputFile)
		require.NoError(t, err)
		require.Len(t, ds, 2)
		assert.Equal(t, schema.Panel{schema.AgeMarker: 40, schema.GlucoseMarker: 95.5}, ds[0].Markers)
		assert.Equal(t, 75.0, ds[0].Targets[schema.HealthTarget])
		require.NotNil(t, ds[0].Features)
		assert.Equal(t, 10.0, ds[0].Features.InsulinResistanceIndex)
		assert.Nil(t, ds[1].Features)
		assert.Empty(t, ds[1].Targets)
	})

	t.Run("parquet reads back", func(t *testing.T) {
		cfg := testConfig(t, schema.ParquetOut, "data.parquet")
		require.NoError(t, PrintDataset(sampleDataset(), cfg, time.Second))

		ds, err := parquet.ReadDatasetParquet(cfg.OutputFile)
		require.NoError(t, err)
		require.Len(t, ds, 2)
		assert.Equal(t, 95.5, ds[0].Markers[schema.GlucoseMarker])
	})

	t.Run("text summary", func(t *testing.T) {
		cfg := testConfig(t, schema.TextOut, "data.txt")
		require.NoError(t, PrintDataset(sampleDataset(), cfg, time.Second))

		out := readFile(t, cfg.OutputFile)
		assert.Contains(t, out, "Records: 2 (synthetic 1, external 1)")
		assert.Contains(t, out, "Generation completed in 1s")
	})
}

func TestDatasetStats(t *testing.T) {
	stats := datasetStats(sampleDataset())
	byName := make(map[string]columnStats, len(stats))
	for _, s := range stats {
		byName[s.name] = s
	}
	assert.Equal(t, columnStats{name: "age", count: 2, mean: 50, min: 40, max: 60}, byName["age"])
	assert.Equal(t, 1, byName["glucose"].count)
	assert.Zero(t, byName["crp"].count)
	assert.Equal(t, 1, byName["health_score"].count)
}

func TestPrintReference(t *testing.T) {
	table := schema.DefaultReferenceTable()

	t.Run("csv", func(t *testing.T) {
		cfg := testConfig(t, schema.CSVOut, "ref.csv")
		require.NoError(t, PrintReference(table, cfg))

		rows := readCSV(t, cfg.OutputFile)
		require.Len(t, rows, 1+len(table))
		assert.Equal(t, "marker", rows[0][0])
		assert.Equal(t, "age", rows[1][0])
	})

	t.Run("json", func(t *testing.T) {
		cfg := testConfig(t, schema.JSONOut, "ref.json")
		require.NoError(t, PrintReference(table, cfg))

		var got referenceRenderModel
		require.NoError(t, json.Unmarshal([]byte(readFile(t, cfg.OutputFile)), &got))
		assert.Len(t, got.Markers, len(table))
		assert.Len(t, got.Formula, len(schema.AllSystems))
	})

	t.Run("text", func(t *testing.T) {
		cfg := testConfig(t, schema.TextOut, "ref.txt")
		require.NoError(t, PrintReference(table, cfg))
		assert.Contains(t, readFile(t, cfg.OutputFile), "LIVER: ")
	})
}

func TestFormatWeights(t *testing.T) {
	weights := map[schema.Marker]float64{schema.ASTMarker: 0.6, schema.ALTMarker: 0.4, schema.BUNMarker: 0}
	order := []schema.Marker{schema.ALTMarker, schema.ASTMarker, schema.BUNMarker}
	assert.Equal(t, "0.40*alt+0.60*ast", formatWeights(weights, order))
	assert.Empty(t, formatWeights(nil, order))
}

func TestPrintCheckResult(t *testing.T) {
	scores := samplePrediction().Scores
	passed := schema.CheckResult{
		Passed:     true,
		Failed:     []schema.CheckFailedTarget{},
		Thresholds: map[schema.Target]float64{schema.HealthTarget: 80, schema.LiverTarget: 0},
		Scores:     scores,
	}
	failed := schema.CheckResult{
		Passed:     false,
		Failed:     []schema.CheckFailedTarget{{Target: schema.KidneyTarget, Score: 50, Threshold: 60}},
		Thresholds: map[schema.Target]float64{schema.HealthTarget: 80, schema.KidneyTarget: 60},
		Scores:     scores,
	}

	t.Run("text passed", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeCheckText(&buf, passed, createFormatters(1), time.Second))
		out := buf.String()
		assert.Contains(t, out, "Thresholds: health=80.0\n")
		assert.Contains(t, out, "Checked 1 scores")
		assert.Contains(t, out, "✅ All scores passed")
		assert.Contains(t, out, "health_score: 92.0 (Excellent)")
	})

	t.Run("text failed", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeCheckText(&buf, failed, createFormatters(1), time.Second))
		out := buf.String()
		assert.Contains(t, out, "Thresholds: health=80.0, kidney=60.0")
		assert.Contains(t, out, "❌ Threshold check failed: 1 violation(s) found")
		assert.Contains(t, out, "  - kidney_score (score: 50.0 < threshold: 60.0)")
	})

	t.Run("text without thresholds", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeCheckText(&buf, schema.CheckResult{Passed: true}, createFormatters(1), time.Second))
		assert.Contains(t, buf.String(), "Thresholds: none")
	})

	t.Run("csv", func(t *testing.T) {
		cfg := testConfig(t, schema.CSVOut, "check.csv")
		require.NoError(t, PrintCheckResult(failed, cfg, time.Second))
		assert.Equal(t, [][]string{
			{"target", "score", "threshold", "passed"},
			{"health_score", "92.0", "80.0", "true"},
			{"kidney_score", "50.0", "60.0", "false"},
		}, readCSV(t, cfg.OutputFile))
	})

	t.Run("json", func(t *testing.T) {
		cfg := testConfig(t, schema.JSONOut, "check.json")
		require.NoError(t, PrintCheckResult(failed, cfg, time.Second))

		var got schema.CheckResult
		require.NoError(t, json.Unmarshal([]byte(readFile(t, cfg.OutputFile)), &got))
		assert.Equal(t, failed, got)
	})
}
