package parquet

import (
	"github.com/huangsam/biomarker/schema"
)

// DatasetRow is one dataset record in columnar form.
// Every value is optional so that partial external files can be read back.
type DatasetRow struct {
	Source string `parquet:"source,optional,snappy"`

	// Markers
	Age                 *float64 `parquet:"age,optional,snappy"`
	Gender              *float64 `parquet:"gender,optional,snappy"`
	BMI                 *float64 `parquet:"bmi,optional,snappy"`
	Glucose             *float64 `parquet:"glucose,optional,snappy"`
	Cholesterol         *float64 `parquet:"cholesterol,optional,snappy"`
	Triglycerides       *float64 `parquet:"triglycerides,optional,snappy"`
	HDL                 *float64 `parquet:"hdl,optional,snappy"`
	LDL                 *float64 `parquet:"ldl,optional,snappy"`
	ALT                 *float64 `parquet:"alt,optional,snappy"`
	AST                 *float64 `parquet:"ast,optional,snappy"`
	Bilirubin           *float64 `parquet:"bilirubin,optional,snappy"`
	AlkalinePhosphatase *float64 `parquet:"alkaline_phosphatase,optional,snappy"`
	Creatinine          *float64 `parquet:"creatinine,optional,snappy"`
	BUN                 *float64 `parquet:"bun,optional,snappy"`
	Sodium              *float64 `parquet:"sodium,optional,snappy"`
	Potassium           *float64 `parquet:"potassium,optional,snappy"`
	Chloride            *float64 `parquet:"chloride,optional,snappy"`
	Bicarbonate         *float64 `parquet:"bicarbonate,optional,snappy"`
	Calcium             *float64 `parquet:"calcium,optional,snappy"`
	Magnesium           *float64 `parquet:"magnesium,optional,snappy"`
	Phosphate           *float64 `parquet:"phosphate,optional,snappy"`
	TotalProtein        *float64 `parquet:"total_protein,optional,snappy"`
	Albumin             *float64 `parquet:"albumin,optional,snappy"`
	Globulin            *float64 `parquet:"globulin,optional,snappy"`
	AGRatio             *float64 `parquet:"ag_ratio,optional,snappy"`
	CRP                 *float64 `parquet:"crp,optional,snappy"`
	ESR                 *float64 `parquet:"esr,optional,snappy"`
	Fibrinogen          *float64 `parquet:"fibrinogen,optional,snappy"`
	Malondialdehyde     *float64 `parquet:"malondialdehyde,optional,snappy"`
	OHdG                *float64 `parquet:"8_ohdg,optional,snappy"`
	Testosterone        *float64 `parquet:"testosterone,optional,snappy"`
	Estradiol           *float64 `parquet:"estradiol,optional,snappy"`
	Cortisol            *float64 `parquet:"cortisol,optional,snappy"`

	// Advanced indices
	InsulinResistanceIndex   *float64 `parquet:"insulin_resistance_index,optional,snappy"`
	MetabolicSyndromeScore   *float64 `parquet:"metabolic_syndrome_score,optional,snappy"`
	InflammationIndex        *float64 `parquet:"inflammation_index,optional,snappy"`
	OxidativeStressScore     *float64 `parquet:"oxidative_stress_score,optional,snappy"`
	HormoneBalanceIndex      *float64 `parquet:"hormone_balance_index,optional,snappy"`
	CardiovascularRiskIndex  *float64 `parquet:"cardiovascular_risk_index,optional,snappy"`
	LiverHealthIndex         *float64 `parquet:"liver_health_index,optional,snappy"`
	KidneyFunctionIndex      *float64 `parquet:"kidney_function_index,optional,snappy"`
	MetabolicEfficiencyScore *float64 `parquet:"metabolic_efficiency_score,optional,snappy"`
	ImmuneSystemScore        *float64 `parquet:"immune_system_score,optional,snappy"`
	EndocrineBalanceScore    *float64 `parquet:"endocrine_balance_score,optional,snappy"`
	DigestiveHealthScore     *float64 `parquet:"digestive_health_score,optional,snappy"`
	BoneHealthIndex          *float64 `parquet:"bone_health_index,optional,snappy"`
	MuscleMassIndex          *float64 `parquet:"muscle_mass_index,optional,snappy"`
	VascularHealthScore      *float64 `parquet:"vascular_health_score,optional,snappy"`

	// Targets
	HealthScore        *float64 `parquet:"health_score,optional,snappy"`
	MetaboliteScore    *float64 `parquet:"metabolite_score,optional,snappy"`
	ComprehensiveScore *float64 `parquet:"comprehensive_score,optional,snappy"`
	LiverScore         *float64 `parquet:"liver_score,optional,snappy"`
	KidneyScore        *float64 `parquet:"kidney_score,optional,snappy"`
	CardioScore        *float64 `parquet:"cardio_score,optional,snappy"`
	EndocrineScore     *float64 `parquet:"endocrine_score,optional,snappy"`
	ImmuneScore        *float64 `parquet:"immune_score,optional,snappy"`
	DigestiveScore     *float64 `parquet:"digestive_score,optional,snappy"`
}

// markerColumns returns the row fields keyed by marker.
func (r *DatasetRow) markerColumns() map[schema.Marker]**float64 {
	return map[schema.Marker]**float64{
		schema.AgeMarker:                 &r.Age,
		schema.GenderMarker:              &r.Gender,
		schema.BMIMarker:                 &r.BMI,
		schema.GlucoseMarker:             &r.Glucose,
		schema.CholesterolMarker:         &r.Cholesterol,
		schema.TriglyceridesMarker:       &r.Triglycerides,
		schema.HDLMarker:                 &r.HDL,
		schema.LDLMarker:                 &r.LDL,
		schema.ALTMarker:                 &r.ALT,
		schema.ASTMarker:                 &r.AST,
		schema.BilirubinMarker:           &r.Bilirubin,
		schema.AlkalinePhosphataseMarker: &r.AlkalinePhosphatase,
		schema.CreatinineMarker:          &r.Creatinine,
		schema.BUNMarker:                 &r.BUN,
		schema.SodiumMarker:              &r.Sodium,
		schema.PotassiumMarker:           &r.Potassium,
		schema.ChlorideMarker:            &r.Chloride,
		schema.BicarbonateMarker:         &r.Bicarbonate,
		schema.CalciumMarker:             &r.Calcium,
		schema.MagnesiumMarker:           &r.Magnesium,
		schema.PhosphateMarker:           &r.Phosphate,
		schema.TotalProteinMarker:        &r.TotalProtein,
		schema.AlbuminMarker:             &r.Albumin,
		schema.GlobulinMarker:            &r.Globulin,
		schema.AGRatioMarker:             &r.AGRatio,
		schema.CRPMarker:                 &r.CRP,
		schema.ESRMarker:                 &r.ESR,
		schema.FibrinogenMarker:          &r.Fibrinogen,
		schema.MalondialdehydeMarker:     &r.Malondialdehyde,
		schema.OHdGMarker:                &r.OHdG,
		schema.TestosteroneMarker:        &r.Testosterone,
		schema.EstradiolMarker:           &r.Estradiol,
		schema.CortisolMarker:            &r.Cortisol,
	}
}

// featureColumns returns the row fields keyed by advanced index.
func (r *DatasetRow) featureColumns() map[schema.Feature]**float64 {
	return map[schema.Feature]**float64{
		schema.InsulinResistanceFeature:   &r.InsulinResistanceIndex,
		schema.MetabolicSyndromeFeature:   &r.MetabolicSyndromeScore,
		schema.InflammationFeature:        &r.InflammationIndex,
		schema.OxidativeStressFeature:     &r.OxidativeStressScore,
		schema.HormoneBalanceFeature:      &r.HormoneBalanceIndex,
		schema.CardiovascularRiskFeature:  &r.CardiovascularRiskIndex,
		schema.LiverHealthFeature:         &r.LiverHealthIndex,
		schema.KidneyFunctionFeature:      &r.KidneyFunctionIndex,
		schema.MetabolicEfficiencyFeature: &r.MetabolicEfficiencyScore,
		schema.ImmuneSystemFeature:        &r.ImmuneSystemScore,
		schema.EndocrineBalanceFeature:    &r.EndocrineBalanceScore,
		schema.DigestiveHealthFeature:     &r.DigestiveHealthScore,
		schema.BoneHealthFeature:          &r.BoneHealthIndex,
		schema.MuscleMassFeature:          &r.MuscleMassIndex,
		schema.VascularHealthFeature:      &r.VascularHealthScore,
	}
}

// targetColumns returns the row fields keyed by target.
func (r *DatasetRow) targetColumns() map[schema.Target]**float64 {
	return map[schema.Target]**float64{
		schema.HealthTarget:        &r.HealthScore,
		schema.MetaboliteTarget:    &r.MetaboliteScore,
		schema.ComprehensiveTarget: &r.ComprehensiveScore,
		schema.LiverTarget:         &r.LiverScore,
		schema.KidneyTarget:        &r.KidneyScore,
		schema.CardioTarget:        &r.CardioScore,
		schema.EndocrineTarget:     &r.EndocrineScore,
		schema.ImmuneTarget:        &r.ImmuneScore,
		schema.DigestiveTarget:     &r.DigestiveScore,
	}
}

// DatasetToRows converts records into Parquet rows. Markers unknown to the row layout are dropped.
func DatasetToRows(ds schema.Dataset) []DatasetRow {
	rows := make([]DatasetRow, len(ds))
	for i, rec := range ds {
		row := &rows[i]
		row.Source = rec.Source
		for m, field := range row.markerColumns() {
			if v, ok := rec.Markers[m]; ok {
				*field = &v
			}
		}
		if rec.Features != nil {
			for f, field := range row.featureColumns() {
				v, _ := rec.Features.Get(f)
				*field = &v
			}
		}
		for t, field := range row.targetColumns() {
			if v, ok := rec.Targets[t]; ok {
				*field = &v
			}
		}
	}
	return rows
}

// RowsToDataset converts Parquet rows back into records.
// Features are kept only when every advanced index column is present.
func RowsToDataset(rows []DatasetRow) schema.Dataset {
	ds := make(schema.Dataset, len(rows))
	for i := range rows {
		row := &rows[i]
		rec := schema.Record{Markers: schema.Panel{}, Source: row.Source}
		for m, field := range row.markerColumns() {
			if *field != nil {
				rec.Markers[m] = **field
			}
		}
		features := make(map[schema.Feature]float64, len(schema.AllFeatures))
		for f, field := range row.featureColumns() {
			if *field != nil {
				features[f] = **field
			}
		}
		if len(features) == len(schema.AllFeatures) {
			adv := schema.AdvancedFeatureSetFromMap(features)
			rec.Features = &adv
		}
		for t, field := range row.targetColumns() {
			if *field != nil {
				if rec.Targets == nil {
					rec.Targets = make(map[schema.Target]float64)
				}
				rec.Targets[t] = **field
			}
		}
		ds[i] = rec
	}
	return ds
}
