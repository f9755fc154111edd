package schema

// Custom string types for type safety.
type (
	// Marker represents a measured biomarker or demographic field on a panel.
	Marker string

	// System represents an organ system that receives a weighted score.
	System string

	// Feature represents one of the derived advanced indices.
	Feature string

	// Target represents a score column the model learns to predict.
	Target string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string
)

// Demographic markers.
const (
	AgeMarker    Marker = "age"
	GenderMarker Marker = "gender" // 0 = female, 1 = male
	BMIMarker    Marker = "bmi"
)

// Standard blood panel markers.
const (
	GlucoseMarker             Marker = "glucose"
	CholesterolMarker         Marker = "cholesterol"
	TriglyceridesMarker       Marker = "triglycerides"
	HDLMarker                 Marker = "hdl"
	LDLMarker                 Marker = "ldl"
	ALTMarker                 Marker = "alt"
	ASTMarker                 Marker = "ast"
	BilirubinMarker           Marker = "bilirubin"
	AlkalinePhosphataseMarker Marker = "alkaline_phosphatase"
	CreatinineMarker          Marker = "creatinine"
	BUNMarker                 Marker = "bun"
	SodiumMarker              Marker = "sodium"
	PotassiumMarker           Marker = "potassium"
	ChlorideMarker            Marker = "chloride"
	BicarbonateMarker         Marker = "bicarbonate"
	CalciumMarker             Marker = "calcium"
	MagnesiumMarker           Marker = "magnesium"
	PhosphateMarker           Marker = "phosphate"
	TotalProteinMarker        Marker = "total_protein"
	AlbuminMarker             Marker = "albumin"
	GlobulinMarker            Marker = "globulin"
	AGRatioMarker             Marker = "ag_ratio"
)

// Advanced biomarkers; these carry fallback defaults when absent.
const (
	CRPMarker             Marker = "crp"
	ESRMarker             Marker = "esr"
	FibrinogenMarker      Marker = "fibrinogen"
	MalondialdehydeMarker Marker = "malondialdehyde"
	OHdGMarker            Marker = "8_ohdg"
	TestosteroneMarker    Marker = "testosterone"
	EstradiolMarker       Marker = "estradiol"
	CortisolMarker        Marker = "cortisol"
)

// Organ systems.
const (
	LiverSystem     System = "liver"
	KidneySystem    System = "kidney"
	CardioSystem    System = "cardio"
	EndocrineSystem System = "endocrine"
	ImmuneSystem    System = "immune"
	DigestiveSystem System = "digestive"
)

// Advanced indices.
const (
	InsulinResistanceFeature   Feature = "insulin_resistance_index"
	MetabolicSyndromeFeature   Feature = "metabolic_syndrome_score"
	InflammationFeature        Feature = "inflammation_index"
	OxidativeStressFeature     Feature = "oxidative_stress_score"
	HormoneBalanceFeature      Feature = "hormone_balance_index"
	CardiovascularRiskFeature  Feature = "cardiovascular_risk_index"
	LiverHealthFeature         Feature = "liver_health_index"
	KidneyFunctionFeature      Feature = "kidney_function_index"
	MetabolicEfficiencyFeature Feature = "metabolic_efficiency_score"
	ImmuneSystemFeature        Feature = "immune_system_score"
	EndocrineBalanceFeature    Feature = "endocrine_balance_score"
	DigestiveHealthFeature     Feature = "digestive_health_score"
	BoneHealthFeature          Feature = "bone_health_index"
	MuscleMassFeature          Feature = "muscle_mass_index"
	VascularHealthFeature      Feature = "vascular_health_score"
)

// Model targets, in regressor output order.
const (
	HealthTarget        Target = "health_score"
	MetaboliteTarget    Target = "metabolite_score"
	ComprehensiveTarget Target = "comprehensive_score"
	LiverTarget         Target = "liver_score"
	KidneyTarget        Target = "kidney_score"
	CardioTarget        Target = "cardio_score"
	EndocrineTarget     Target = "endocrine_score"
	ImmuneTarget        Target = "immune_score"
	DigestiveTarget     Target = "digestive_score"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// BaseMarkers lists the 25 raw model inputs in feature-vector order.
var BaseMarkers = []Marker{
	AgeMarker, GenderMarker, BMIMarker,
	GlucoseMarker, CholesterolMarker, TriglyceridesMarker, HDLMarker, LDLMarker,
	ALTMarker, ASTMarker, BilirubinMarker, AlkalinePhosphataseMarker,
	CreatinineMarker, BUNMarker,
	SodiumMarker, PotassiumMarker, ChlorideMarker, BicarbonateMarker,
	CalciumMarker, MagnesiumMarker, PhosphateMarker,
	TotalProteinMarker, AlbuminMarker, GlobulinMarker, AGRatioMarker,
}

// AdvancedMarkers lists the advanced biomarkers that feed the indices but not the model directly.
var AdvancedMarkers = []Marker{
	CRPMarker, ESRMarker, FibrinogenMarker, MalondialdehydeMarker,
	OHdGMarker, TestosteroneMarker, EstradiolMarker, CortisolMarker,
}

// AllSystems lists the organ systems in display order.
var AllSystems = []System{LiverSystem, KidneySystem, CardioSystem, EndocrineSystem, ImmuneSystem, DigestiveSystem}

// AllFeatures lists the advanced indices in feature-vector order.
var AllFeatures = []Feature{
	InsulinResistanceFeature, MetabolicSyndromeFeature, InflammationFeature,
	OxidativeStressFeature, HormoneBalanceFeature, CardiovascularRiskFeature,
	LiverHealthFeature, KidneyFunctionFeature, MetabolicEfficiencyFeature,
	ImmuneSystemFeature, EndocrineBalanceFeature, DigestiveHealthFeature,
	BoneHealthFeature, MuscleMassFeature, VascularHealthFeature,
}

// AllTargets lists the regression targets in output order.
var AllTargets = []Target{
	HealthTarget, MetaboliteTarget, ComprehensiveTarget,
	LiverTarget, KidneyTarget, CardioTarget,
	EndocrineTarget, ImmuneTarget, DigestiveTarget,
}

// ForecastMarkers lists the biomarkers projected by the forecaster.
var ForecastMarkers = []Marker{GlucoseMarker, CholesterolMarker, TriglyceridesMarker, HDLMarker, LDLMarker}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid cache backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidTargets lists all valid model targets.
var ValidTargets = func() map[Target]struct{} {
	m := make(map[Target]struct{}, len(AllTargets))
	for _, t := range AllTargets {
		m[t] = struct{}{}
	}
	return m
}()

// ValidFeatures lists all valid advanced indices.
var ValidFeatures = func() map[Feature]struct{} {
	m := make(map[Feature]struct{}, len(AllFeatures))
	for _, f := range AllFeatures {
		m[f] = struct{}{}
	}
	return m
}()

// ValidSystems lists all valid organ systems.
var ValidSystems = map[System]struct{}{
	LiverSystem:     {},
	KidneySystem:    {},
	CardioSystem:    {},
	EndocrineSystem: {},
	ImmuneSystem:    {},
	DigestiveSystem: {},
}

// FeatureNames returns the 40 model input column names: base markers then advanced indices.
func FeatureNames() []string {
	names := make([]string, 0, len(BaseMarkers)+len(AllFeatures))
	for _, m := range BaseMarkers {
		names = append(names, string(m))
	}
	for _, f := range AllFeatures {
		names = append(names, string(f))
	}
	return names
}
