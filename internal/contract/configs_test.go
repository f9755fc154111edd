package contract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/biomarker/schema"
)

// validRawInput returns the raw input produced by the default flag values.
func validRawInput() *ConfigRawInput {
	return &ConfigRawInput{
		Output:          "text",
		Precision:       DefaultPrecision,
		Workers:         4,
		Seed:            DefaultSeed,
		CacheBackend:    string(schema.SQLiteBackend),
		AnalysisBackend: string(schema.NoneBackend),
		Emoji:           "no",
		Color:           "yes",
		Samples:         DefaultSamples,
		Trees:           DefaultTrees,
		Estimators:      DefaultEstimators,
		MaxDepth:        DefaultMaxDepth,
		LearningRate:    DefaultLearningRate,
		RiskThreshold:   DefaultRiskThreshold,
		Horizon:         DefaultHorizon,
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError string
	}{
		{name: "valid defaults", mutate: func(*ConfigRawInput) {}},
		{name: "zero workers", mutate: func(in *ConfigRawInput) { in.Workers = 0 }, expectError: "workers must be greater than 0"},
		{name: "bad precision", mutate: func(in *ConfigRawInput) { in.Precision = 3 }, expectError: "precision must be 1 or 2"},
		{name: "bad output", mutate: func(in *ConfigRawInput) { in.Output = "xml" }, expectError: "invalid output format"},
		{name: "bad emoji", mutate: func(in *ConfigRawInput) { in.Emoji = "maybe" }, expectError: "invalid --emoji value"},
		{name: "bad color", mutate: func(in *ConfigRawInput) { in.Color = "maybe" }, expectError: "invalid --color value"},
		{name: "negative width", mutate: func(in *ConfigRawInput) { in.Width = -1 }, expectError: "width cannot be negative"},
		{name: "zero samples", mutate: func(in *ConfigRawInput) { in.Samples = 0 }, expectError: "samples must be greater than 0"},
		{name: "too many samples", mutate: func(in *ConfigRawInput) { in.Samples = MaxSamples + 1 }, expectError: "samples must be greater than 0"},
		{name: "negative seed", mutate: func(in *ConfigRawInput) { in.Seed = -5 }, expectError: "seed cannot be negative"},
		{name: "zero trees", mutate: func(in *ConfigRawInput) { in.Trees = 0 }, expectError: "trees must be greater than 0"},
		{name: "zero estimators", mutate: func(in *ConfigRawInput) { in.Estimators = 0 }, expectError: "estimators must be greater than 0"},
		{name: "zero depth", mutate: func(in *ConfigRawInput) { in.MaxDepth = 0 }, expectError: "max-depth must be greater than 0"},
		{name: "learning rate above one", mutate: func(in *ConfigRawInput) { in.LearningRate = 1.5 }, expectError: "learning-rate must be in"},
		{name: "risk threshold above 100", mutate: func(in *ConfigRawInput) { in.RiskThreshold = 120 }, expectError: "risk-threshold must be in"},
		{name: "zero horizon", mutate: func(in *ConfigRawInput) { in.Horizon = 0 }, expectError: "horizon must be greater than 0"},
		{name: "bad cache backend", mutate: func(in *ConfigRawInput) { in.CacheBackend = "redis" }, expectError: "invalid cache backend 'redis'"},
		{name: "bad analysis backend", mutate: func(in *ConfigRawInput) { in.AnalysisBackend = "redis" }, expectError: "invalid analysis backend 'redis'"},
		{
			name: "mysql without connection",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = string(schema.MySQLBackend)
			},
			expectError: "db-connect is required when using mysql backend",
		},
		{
			name: "same sqlite file",
			mutate: func(in *ConfigRawInput) {
				in.AnalysisBackend = string(schema.SQLiteBackend)
				in.CacheDBConnect = "/tmp/shared.db"
				in.AnalysisDBConnect = "/tmp/shared.db"
			},
			expectError: "must use different SQLite database files",
		},
		{name: "bad set assignment", mutate: func(in *ConfigRawInput) { in.Set = "glucose" }, expectError: "invalid --set value"},
		{name: "invalid panel", mutate: func(in *ConfigRawInput) { in.Set = "age=-3" }, expectError: "invalid panel"},
		{name: "bad thresholds override", mutate: func(in *ConfigRawInput) { in.ThresholdsStr = "health" }, expectError: "invalid --thresholds-override format"},
		{
			name: "weights not summing to one",
			mutate: func(in *ConfigRawInput) {
				in.Weights.Liver = map[string]float64{"alt": 0.5, "ast": 0.2}
			},
			expectError: "custom weights for system liver must sum to 1.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validRawInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, schema.TextOut, cfg.Output)
			assert.Equal(t, uint64(DefaultSeed), cfg.Seed)
			assert.True(t, cfg.UseColors)
			assert.False(t, cfg.UseEmojis)
			assert.NotNil(t, cfg.Reference)
			assert.Len(t, cfg.Thresholds, len(schema.AllTargets))
		})
	}
}

func TestProcessAndValidate_Panel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "panel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("glucose: 110\nhdl: 40\nGender_Encoded: 1\n"), 0o600))

	input := validRawInput()
	input.PanelFile = path
	input.Set = "glucose=95,bmi:27.5"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, 95.0, cfg.Panel[schema.GlucoseMarker], "inline assignment overrides the file")
	assert.Equal(t, 40.0, cfg.Panel[schema.HDLMarker])
	assert.Equal(t, 27.5, cfg.Panel[schema.BMIMarker])
	assert.Equal(t, 1.0, cfg.Panel[schema.GenderMarker])
}

func TestProcessAndValidate_MissingPanelFile(t *testing.T) {
	input := validRawInput()
	input.PanelFile = filepath.Join(t.TempDir(), "missing.yaml")
	err := ProcessAndValidate(&Config{}, input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read panel file")
}

func TestProcessAndValidate_NonFinitePanel(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		set   string
		wants string
	}{
		{"yaml nan", "glucose: .nan\nhdl: 50\n", "", "glucose must be a finite number"},
		{"yaml inf", "triglycerides: .inf\n", "", "triglycerides must be a finite number"},
		{"inline nan", "", "glucose=NaN,triglycerides=150,hdl=50", "glucose must be a finite number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validRawInput()
			if tt.file != "" {
				path := filepath.Join(t.TempDir(), "panel.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0o600))
				input.PanelFile = path
			}
			input.Set = tt.set
			err := ProcessAndValidate(&Config{}, input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wants)
		})
	}
}

func TestParsePanel_JSON(t *testing.T) {
	p, err := ParsePanel([]byte(`{"glucose": 101, "ldl": 130}`))
	require.NoError(t, err)
	assert.Equal(t, 101.0, p[schema.GlucoseMarker])
	assert.Equal(t, 130.0, p[schema.LDLMarker])

	_, err = ParsePanel([]byte("glucose: [1, 2"))
	assert.Error(t, err)
}

func TestProcessThresholds(t *testing.T) {
	t.Run("defaults are zero", func(t *testing.T) {
		cfg := &Config{}
		require.NoError(t, processThresholds(cfg, validRawInput()))
		for _, target := range schema.AllTargets {
			assert.Zero(t, cfg.Thresholds[target])
		}
	})

	t.Run("override beats config file", func(t *testing.T) {
		input := validRawInput()
		input.Thresholds.Health = floatPtr(40)
		input.Thresholds.Cardio = floatPtr(30)
		input.ThresholdsStr = "health:55, liver_score=20"
		cfg := &Config{}
		require.NoError(t, processThresholds(cfg, input))
		assert.Equal(t, 55.0, cfg.Thresholds[schema.HealthTarget])
		assert.Equal(t, 30.0, cfg.Thresholds[schema.CardioTarget])
		assert.Equal(t, 20.0, cfg.Thresholds[schema.LiverTarget])
	})

	t.Run("out of range", func(t *testing.T) {
		input := validRawInput()
		input.Thresholds.Kidney = floatPtr(101)
		err := processThresholds(&Config{}, input)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be between 0.0 and 100.0")
	})

	t.Run("unknown score", func(t *testing.T) {
		input := validRawInput()
		input.ThresholdsStr = "spleen:10"
		err := processThresholds(&Config{}, input)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown score")
	})
}

func TestProcessWeightsRawInput(t *testing.T) {
	weights, err := ProcessWeightsRawInput(WeightsRawInput{
		Cardio: map[string]float64{"ldl": 0.5, "HDL": 0.5},
	}, true)
	require.NoError(t, err)
	require.Len(t, weights, 1)
	assert.Equal(t, 0.5, weights[schema.CardioSystem][schema.HDLMarker])

	_, err = ProcessWeightsRawInput(WeightsRawInput{
		Kidney: map[string]float64{"creatinine": 1.2, "bun": -0.2},
	}, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be negative")

	unchecked, err := ProcessWeightsRawInput(WeightsRawInput{
		Immune: map[string]float64{"crp": 0.3},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, 0.3, unchecked[schema.ImmuneSystem][schema.CRPMarker])
}

func TestProcessCustomWeights_AppliesToReference(t *testing.T) {
	input := validRawInput()
	input.Weights.Cardio = map[string]float64{"ldl": 1.0}
	cfg := &Config{}
	require.NoError(t, processCustomWeights(cfg, input))

	weights := cfg.Reference.SystemWeights()
	assert.Equal(t, map[schema.Marker]float64{schema.LDLMarker: 1.0}, weights[schema.CardioSystem])
	assert.Equal(t, schema.DefaultReferenceTable().SystemWeights()[schema.LiverSystem], weights[schema.LiverSystem])
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{"sqlite empty", schema.SQLiteBackend, "", false},
		{"none", schema.NoneBackend, "", false},
		{"mysql ok", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/biomarker", false},
		{"mysql no tcp", schema.MySQLBackend, "user:pass@localhost/biomarker", true},
		{"mysql no slash", schema.MySQLBackend, "user:pass@tcp(localhost:3306)", true},
		{"postgres ok", schema.PostgreSQLBackend, "host=localhost port=5432 dbname=biomarker", false},
		{"postgres no host", schema.PostgreSQLBackend, "dbname=biomarker", true},
		{"postgres no dbname", schema.PostgreSQLBackend, "host=localhost", true},
		{"postgres empty", schema.PostgreSQLBackend, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{
		Panel:         schema.Panel{schema.GlucoseMarker: 90},
		CustomWeights: map[schema.System]map[schema.Marker]float64{schema.CardioSystem: {schema.LDLMarker: 1}},
		Reference:     schema.DefaultReferenceTable(),
		Thresholds:    map[schema.Target]float64{schema.HealthTarget: 50},
	}
	clone := cfg.Clone()
	clone.Panel[schema.GlucoseMarker] = 200
	clone.CustomWeights[schema.CardioSystem][schema.LDLMarker] = 0
	clone.Thresholds[schema.HealthTarget] = 0

	assert.Equal(t, 90.0, cfg.Panel[schema.GlucoseMarker])
	assert.Equal(t, 1.0, cfg.CustomWeights[schema.CardioSystem][schema.LDLMarker])
	assert.Equal(t, 50.0, cfg.Thresholds[schema.HealthTarget])
}

func TestProcessProfilingConfig(t *testing.T) {
	profile := &ProfileConfig{}
	require.NoError(t, ProcessProfilingConfig(profile, ""))
	assert.False(t, profile.Enabled)

	require.NoError(t, ProcessProfilingConfig(profile, "biomarker"))
	assert.True(t, profile.Enabled)
	assert.Equal(t, "biomarker", profile.Prefix)
}
