package contract

import (
	"fmt"
	"maps"
	"os"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/huangsam/biomarker/schema"
)

// Default values for configuration.
const (
	DefaultSamples       = 1000
	DefaultSeed          = 42
	DefaultHorizon       = 12
	DefaultTrees         = 100
	DefaultEstimators    = 100
	DefaultMaxDepth      = 3
	DefaultLearningRate  = 0.1
	DefaultRiskThreshold = 70.0
	DefaultPrecision     = 1
	MaxSamples           = 1_000_000
	MaxHorizon           = 520
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// WeightsRawInput holds custom system weights from the YAML config file, keyed by marker name.
type WeightsRawInput struct {
	Liver     map[string]float64 `mapstructure:"liver"`
	Kidney    map[string]float64 `mapstructure:"kidney"`
	Cardio    map[string]float64 `mapstructure:"cardio"`
	Endocrine map[string]float64 `mapstructure:"endocrine"`
	Immune    map[string]float64 `mapstructure:"immune"`
	Digestive map[string]float64 `mapstructure:"digestive"`
}

// ThresholdsRawInput holds minimum score definitions from the YAML config file.
type ThresholdsRawInput struct {
	Health        *float64 `mapstructure:"health"`
	Metabolite    *float64 `mapstructure:"metabolite"`
	Comprehensive *float64 `mapstructure:"comprehensive"`
	Liver         *float64 `mapstructure:"liver"`
	Kidney        *float64 `mapstructure:"kidney"`
	Cardio        *float64 `mapstructure:"cardio"`
	Endocrine     *float64 `mapstructure:"endocrine"`
	Immune        *float64 `mapstructure:"immune"`
	Digestive     *float64 `mapstructure:"digestive"`
}

// Config holds the runtime configuration.
// This struct remains the "final, validated" config.
type Config struct {
	Samples  int
	Seed     uint64
	DataFile string // Optional external dataset merged into training (csv or parquet)

	Trees         int
	Estimators    int
	MaxDepth      int
	LearningRate  float64
	RiskThreshold float64
	Workers       int

	Panel   schema.Panel // Resolved from the panel file and inline assignments
	Horizon int

	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	AnalysisBackend   schema.DatabaseBackend
	AnalysisDBConnect string // Please use env var as this is plaintext

	// CustomWeights is a mapping of [System][Marker] = Weight from the config file
	CustomWeights map[schema.System]map[schema.Marker]float64

	// Reference is the reference table with custom weights applied
	Reference schema.ReferenceTable

	// Thresholds is a mapping of [Target] = minimum acceptable score
	Thresholds map[schema.Target]float64

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	OutputFile        string `mapstructure:"output-file"`
	Output            string `mapstructure:"output"`
	Precision         int    `mapstructure:"precision"`
	Width             int    `mapstructure:"width"`
	Workers           int    `mapstructure:"workers"`
	Seed              int64  `mapstructure:"seed"`
	CacheBackend      string `mapstructure:"cache-backend"`
	CacheDBConnect    string `mapstructure:"cache-db-connect"`
	AnalysisBackend   string `mapstructure:"analysis-backend"`
	AnalysisDBConnect string `mapstructure:"analysis-db-connect"`
	Emoji             string `mapstructure:"emoji"`
	Color             string `mapstructure:"color"`

	// --- Training fields ---
	Samples       int     `mapstructure:"samples"`
	Data          string  `mapstructure:"data"`
	Trees         int     `mapstructure:"trees"`
	Estimators    int     `mapstructure:"estimators"`
	MaxDepth      int     `mapstructure:"max-depth"`
	LearningRate  float64 `mapstructure:"learning-rate"`
	RiskThreshold float64 `mapstructure:"risk-threshold"`

	// --- Panel fields ---
	PanelFile string `mapstructure:"panel"`
	Set       string `mapstructure:"set"`

	// --- Fields from forecastCmd.Flags() ---
	Horizon int `mapstructure:"horizon"`

	// --- Fields from checkCmd.Flags() ---
	ThresholdsStr string `mapstructure:"thresholds-override"`

	// --- Custom weights from config file ---
	Weights WeightsRawInput `mapstructure:"weights"`

	// --- Minimum scores from config file ---
	Thresholds ThresholdsRawInput `mapstructure:"thresholds"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Panel != nil {
		clone.Panel = c.Panel.Clone()
	}
	if c.CustomWeights != nil {
		clone.CustomWeights = make(map[schema.System]map[schema.Marker]float64)
		for sys, weights := range c.CustomWeights {
			clone.CustomWeights[sys] = make(map[schema.Marker]float64)
			maps.Copy(clone.CustomWeights[sys], weights)
		}
	}
	if c.Reference != nil {
		clone.Reference = c.Reference.Clone()
	}
	if c.Thresholds != nil {
		clone.Thresholds = make(map[schema.Target]float64)
		maps.Copy(clone.Thresholds, c.Thresholds)
	}
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateTrainingInputs(cfg, input); err != nil {
		return err
	}
	if err := processCustomWeights(cfg, input); err != nil {
		return err
	}
	if err := processThresholds(cfg, input); err != nil {
		return err
	}
	if err := processPanel(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and analysis backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return fmt.Errorf("cache %w", err)
	}

	// --- Analysis Backend Validation ---
	cfg.AnalysisBackend = schema.DatabaseBackend(strings.ToLower(input.AnalysisBackend))
	if cfg.AnalysisBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.AnalysisBackend]; !ok {
		return fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", input.AnalysisBackend)
	}
	cfg.AnalysisDBConnect = input.AnalysisDBConnect
	if err := ValidateDatabaseConnectionString(cfg.AnalysisBackend, cfg.AnalysisDBConnect); err != nil {
		return fmt.Errorf("analysis %w", err)
	}

	// Cache and analysis must not share a SQLite file.
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.AnalysisBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		analysisDBPath := cfg.AnalysisDBConnect
		if analysisDBPath == "" {
			analysisDBPath = GetAnalysisDBFilePath()
		}
		if cacheDBPath == analysisDBPath {
			return fmt.Errorf("cache and analysis storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates output, worker and backend fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.DataFile = strings.TrimSpace(input.Data)

	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", cfg.Output)
	}

	if input.Width < 0 {
		return fmt.Errorf("width cannot be negative (received %d)", input.Width)
	}

	return validateBackendConfigs(cfg, input)
}

// validateTrainingInputs checks the dataset and model hyperparameters.
func validateTrainingInputs(cfg *Config, input *ConfigRawInput) error {
	if input.Samples <= 0 || input.Samples > MaxSamples {
		return fmt.Errorf("samples must be greater than 0 and cannot exceed %d (received %d)", MaxSamples, input.Samples)
	}
	cfg.Samples = input.Samples

	if input.Seed < 0 {
		return fmt.Errorf("seed cannot be negative (received %d)", input.Seed)
	}
	cfg.Seed = uint64(input.Seed)

	if input.Trees <= 0 {
		return fmt.Errorf("trees must be greater than 0 (received %d)", input.Trees)
	}
	cfg.Trees = input.Trees

	if input.Estimators <= 0 {
		return fmt.Errorf("estimators must be greater than 0 (received %d)", input.Estimators)
	}
	cfg.Estimators = input.Estimators

	if input.MaxDepth <= 0 {
		return fmt.Errorf("max-depth must be greater than 0 (received %d)", input.MaxDepth)
	}
	cfg.MaxDepth = input.MaxDepth

	if input.LearningRate <= 0 || input.LearningRate > 1 {
		return fmt.Errorf("learning-rate must be in (0, 1] (received %g)", input.LearningRate)
	}
	cfg.LearningRate = input.LearningRate

	if input.RiskThreshold <= 0 || input.RiskThreshold > 100 {
		return fmt.Errorf("risk-threshold must be in (0, 100] (received %g)", input.RiskThreshold)
	}
	cfg.RiskThreshold = input.RiskThreshold

	if input.Horizon <= 0 || input.Horizon > MaxHorizon {
		return fmt.Errorf("horizon must be greater than 0 and cannot exceed %d (received %d)", MaxHorizon, input.Horizon)
	}
	cfg.Horizon = input.Horizon
	return nil
}

// ProcessWeightsRawInput converts WeightsRawInput into a weights map keyed by system and marker.
// If validateSum is true, it validates that the weights for each provided system sum to 1.0.
func ProcessWeightsRawInput(weights WeightsRawInput, validateSum bool) (map[schema.System]map[schema.Marker]float64, error) {
	result := make(map[schema.System]map[schema.Marker]float64)

	systemWeights := map[schema.System]map[string]float64{
		schema.LiverSystem:     weights.Liver,
		schema.KidneySystem:    weights.Kidney,
		schema.CardioSystem:    weights.Cardio,
		schema.EndocrineSystem: weights.Endocrine,
		schema.ImmuneSystem:    weights.Immune,
		schema.DigestiveSystem: weights.Digestive,
	}

	for _, sys := range schema.AllSystems {
		raw := systemWeights[sys]
		if len(raw) == 0 {
			continue
		}
		sysMap := make(map[schema.Marker]float64, len(raw))
		sum := 0.0
		for name, w := range raw {
			if w < 0 {
				return nil, fmt.Errorf("custom weight for %s.%s cannot be negative, got %.3f", sys, name, w)
			}
			sysMap[schema.CanonicalMarker(name)] = w
			sum += w
		}
		if validateSum && (sum < 0.999 || sum > 1.001) {
			return nil, fmt.Errorf("custom weights for system %s must sum to 1.0, got %.3f", sys, sum)
		}
		result[sys] = sysMap
	}

	return result, nil
}

// processCustomWeights converts the raw input into cfg.CustomWeights and builds the
// reference table with every customized system replaced.
func processCustomWeights(cfg *Config, input *ConfigRawInput) error {
	weights, err := ProcessWeightsRawInput(input.Weights, true)
	if err != nil {
		return err
	}
	cfg.CustomWeights = weights
	cfg.Reference = schema.DefaultReferenceTable().WithSystemWeights(weights)
	return nil
}

// thresholdKeys maps short config names onto targets.
var thresholdKeys = map[string]schema.Target{
	"health":        schema.HealthTarget,
	"metabolite":    schema.MetaboliteTarget,
	"comprehensive": schema.ComprehensiveTarget,
	"liver":         schema.LiverTarget,
	"kidney":        schema.KidneyTarget,
	"cardio":        schema.CardioTarget,
	"endocrine":     schema.EndocrineTarget,
	"immune":        schema.ImmuneTarget,
	"digestive":     schema.DigestiveTarget,
}

// processThresholds converts the raw threshold input into cfg.Thresholds.
// Every target defaults to 0, which never fails a check.
// The --thresholds-override flag takes precedence over config file settings.
func processThresholds(cfg *Config, input *ConfigRawInput) error {
	thresholds := make(map[schema.Target]float64, len(schema.AllTargets))
	for _, t := range schema.AllTargets {
		thresholds[t] = 0
	}

	fromFile := map[schema.Target]*float64{
		schema.HealthTarget:        input.Thresholds.Health,
		schema.MetaboliteTarget:    input.Thresholds.Metabolite,
		schema.ComprehensiveTarget: input.Thresholds.Comprehensive,
		schema.LiverTarget:         input.Thresholds.Liver,
		schema.KidneyTarget:        input.Thresholds.Kidney,
		schema.CardioTarget:        input.Thresholds.Cardio,
		schema.EndocrineTarget:     input.Thresholds.Endocrine,
		schema.ImmuneTarget:        input.Thresholds.Immune,
		schema.DigestiveTarget:     input.Thresholds.Digestive,
	}
	for t, v := range fromFile {
		if v != nil {
			thresholds[t] = *v
		}
	}

	if input.ThresholdsStr != "" {
		parsed, err := parseThresholdsString(input.ThresholdsStr)
		if err != nil {
			return fmt.Errorf("invalid --thresholds-override format: %w", err)
		}
		maps.Copy(thresholds, parsed)
	}

	for t, v := range thresholds {
		if v < 0.0 || v > 100.0 {
			return fmt.Errorf("threshold for %s must be between 0.0 and 100.0 (received %.2f)", t, v)
		}
	}

	cfg.Thresholds = thresholds
	return nil
}

// parseThresholdsString parses "health:60,cardio:50" into a threshold map.
// Full target names such as "health_score" are accepted too.
func parseThresholdsString(s string) (map[schema.Target]float64, error) {
	out := make(map[schema.Target]float64)
	for pair := range strings.SplitSeq(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, ":")
		if !ok {
			k, v, ok = strings.Cut(pair, "=")
		}
		if !ok {
			return nil, fmt.Errorf("expected name:value, got %q", pair)
		}
		name := strings.ToLower(strings.TrimSpace(k))
		target, known := thresholdKeys[name]
		if !known {
			target = schema.Target(name)
			if _, valid := schema.ValidTargets[target]; !valid {
				return nil, fmt.Errorf("unknown score %q", k)
			}
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", name, err)
		}
		out[target] = f
	}
	return out, nil
}

// processPanel loads the panel file, if any, and applies inline assignments on top.
func processPanel(cfg *Config, input *ConfigRawInput) error {
	panel := schema.Panel{}
	if path := strings.TrimSpace(input.PanelFile); path != "" {
		loaded, err := LoadPanelFile(path)
		if err != nil {
			return err
		}
		panel = loaded
	}
	inline, err := schema.ParseAssignments(input.Set)
	if err != nil {
		return fmt.Errorf("invalid --set value: %w", err)
	}
	panel = panel.Merge(inline)
	if err := panel.Validate(); err != nil {
		return fmt.Errorf("invalid panel: %w", err)
	}
	cfg.Panel = panel
	return nil
}

// LoadPanelFile reads a panel from a YAML or JSON file of marker: value pairs.
func LoadPanelFile(path string) (schema.Panel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read panel file: %w", err)
	}
	return ParsePanel(data)
}

// ParsePanel decodes YAML or JSON marker: value pairs into a panel.
func ParsePanel(data []byte) (schema.Panel, error) {
	var raw map[string]float64
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse panel: %w", err)
	}
	return schema.PanelFromMap(raw), nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
