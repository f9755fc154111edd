package core

import (
	"cmp"
	"slices"

	"github.com/huangsam/biomarker/internal/contract"
	"github.com/huangsam/biomarker/schema"
)

// ratioTerm is a marker divided by a fixed reference denominator.
type ratioTerm struct {
	marker schema.Marker
	denom  float64
}

// ratioIndex is an index defined as a plain sum of ratio terms.
type ratioIndex struct {
	feature schema.Feature
	terms   []ratioTerm
}

// ratioIndices holds every index that is a sum of marker ratios.
// Insulin resistance and metabolic syndrome have their own shapes and are computed separately.
var ratioIndices = []ratioIndex{
	{schema.InflammationFeature, []ratioTerm{
		{schema.CRPMarker, 10}, {schema.ESRMarker, 20}, {schema.FibrinogenMarker, 400},
	}},
	{schema.OxidativeStressFeature, []ratioTerm{
		{schema.MalondialdehydeMarker, 2}, {schema.OHdGMarker, 5},
	}},
	{schema.HormoneBalanceFeature, []ratioTerm{
		{schema.TestosteroneMarker, 800}, {schema.EstradiolMarker, 100}, {schema.CortisolMarker, 20},
	}},
	{schema.CardiovascularRiskFeature, []ratioTerm{
		{schema.CholesterolMarker, 200}, {schema.TriglyceridesMarker, 150}, {schema.LDLMarker, 100}, {schema.HDLMarker, 40},
	}},
	{schema.LiverHealthFeature, []ratioTerm{
		{schema.ALTMarker, 40}, {schema.ASTMarker, 40}, {schema.BilirubinMarker, 1.2}, {schema.AlkalinePhosphataseMarker, 120},
	}},
	{schema.KidneyFunctionFeature, []ratioTerm{
		{schema.CreatinineMarker, 1.2}, {schema.BUNMarker, 20}, {schema.SodiumMarker, 140}, {schema.PotassiumMarker, 4.0},
	}},
	{schema.MetabolicEfficiencyFeature, []ratioTerm{
		{schema.GlucoseMarker, 100}, {schema.TriglyceridesMarker, 150}, {schema.HDLMarker, 40},
	}},
	{schema.ImmuneSystemFeature, []ratioTerm{
		{schema.TotalProteinMarker, 7}, {schema.AlbuminMarker, 4}, {schema.GlobulinMarker, 3}, {schema.AGRatioMarker, 1.5},
	}},
	{schema.EndocrineBalanceFeature, []ratioTerm{
		{schema.GlucoseMarker, 100}, {schema.CalciumMarker, 10}, {schema.MagnesiumMarker, 2}, {schema.PhosphateMarker, 3.5},
	}},
	{schema.DigestiveHealthFeature, []ratioTerm{
		{schema.AlbuminMarker, 4}, {schema.TotalProteinMarker, 7}, {schema.BilirubinMarker, 1.2}, {schema.AlkalinePhosphataseMarker, 120},
	}},
	{schema.BoneHealthFeature, []ratioTerm{
		{schema.CalciumMarker, 10}, {schema.MagnesiumMarker, 2}, {schema.PhosphateMarker, 3.5}, {schema.AlkalinePhosphataseMarker, 120},
	}},
	{schema.MuscleMassFeature, []ratioTerm{
		{schema.CreatinineMarker, 1.2}, {schema.TotalProteinMarker, 7}, {schema.AlbuminMarker, 4},
	}},
	{schema.VascularHealthFeature, []ratioTerm{
		{schema.CholesterolMarker, 200}, {schema.TriglyceridesMarker, 150}, {schema.HDLMarker, 40}, {schema.LDLMarker, 100},
	}},
}

// FeatureEngine computes advanced indices and system scores from a panel.
// It is immutable after construction and safe for concurrent use.
type FeatureEngine struct {
	table   schema.ReferenceTable
	weights map[schema.System][]weightTerm
}

// weightTerm is one marker's contribution to a system score.
type weightTerm struct {
	marker schema.Marker
	weight float64
}

// NewFeatureEngine creates an engine backed by the given reference table.
func NewFeatureEngine(table schema.ReferenceTable) *FeatureEngine {
	t := table.Clone()
	weights := make(map[schema.System][]weightTerm)
	for sys, markers := range t.SystemWeights() {
		terms := make([]weightTerm, 0, len(markers))
		for m, w := range markers {
			terms = append(terms, weightTerm{marker: m, weight: w})
		}
		// Fixed order keeps float sums reproducible.
		slices.SortFunc(terms, func(a, b weightTerm) int { return cmp.Compare(a.marker, b.marker) })
		weights[sys] = terms
	}
	return &FeatureEngine{table: t, weights: weights}
}

var defaultEngine = NewFeatureEngine(schema.DefaultReferenceTable())

// DefaultFeatureEngine returns the engine backed by the built-in reference table.
func DefaultFeatureEngine() *FeatureEngine {
	return defaultEngine
}

// ComputeFeatures computes features with the built-in reference table.
func ComputeFeatures(p schema.Panel) (schema.AdvancedFeatureSet, schema.SystemScoreSet, error) {
	return defaultEngine.ComputeFeatures(p)
}

// Table returns a copy of the engine's reference table.
func (e *FeatureEngine) Table() schema.ReferenceTable {
	return e.table.Clone()
}

// resolve returns the value a formula should use for m.
func (e *FeatureEngine) resolve(p schema.Panel, m schema.Marker) (float64, error) {
	if v, ok := p[m]; ok {
		return v, nil
	}
	entry, ok := e.table[m]
	if !ok {
		return 0, &MissingFeatureError{Marker: m}
	}
	if entry.Fallback {
		return entry.Default, nil
	}
	return 0, nil
}

// ComputeFeatures derives the 15 advanced indices and 6 system scores for a panel.
func (e *FeatureEngine) ComputeFeatures(p schema.Panel) (schema.AdvancedFeatureSet, schema.SystemScoreSet, error) {
	adv, err := e.AdvancedFeatures(p)
	if err != nil {
		return schema.AdvancedFeatureSet{}, schema.SystemScoreSet{}, err
	}
	sys, err := e.SystemScores(p)
	if err != nil {
		return schema.AdvancedFeatureSet{}, schema.SystemScoreSet{}, err
	}
	return adv, sys, nil
}

// AdvancedFeatures computes the 15 indices, each clipped to [0,100].
func (e *FeatureEngine) AdvancedFeatures(p schema.Panel) (schema.AdvancedFeatureSet, error) {
	values := make(map[schema.Feature]float64, len(schema.AllFeatures))

	var glucose, tg, hdl, bmi float64
	for _, pair := range []struct {
		m   schema.Marker
		dst *float64
	}{
		{schema.GlucoseMarker, &glucose},
		{schema.TriglyceridesMarker, &tg},
		{schema.HDLMarker, &hdl},
		{schema.BMIMarker, &bmi},
	} {
		v, err := e.resolve(p, pair.m)
		if err != nil {
			return schema.AdvancedFeatureSet{}, err
		}
		*pair.dst = v
	}

	values[schema.InsulinResistanceFeature] = clip100(glucose * tg / (hdl + 1))

	criteria := 0
	for _, hit := range []bool{bmi > 30, glucose > 100, tg > 150, hdl < 40} {
		if hit {
			criteria++
		}
	}
	values[schema.MetabolicSyndromeFeature] = clip100(25 * float64(criteria))

	for _, idx := range ratioIndices {
		sum := 0.0
		for _, term := range idx.terms {
			v, err := e.resolve(p, term.marker)
			if err != nil {
				return schema.AdvancedFeatureSet{}, err
			}
			sum += v / term.denom
		}
		values[idx.feature] = clip100(sum)
	}

	return schema.AdvancedFeatureSetFromMap(values), nil
}

// SystemScores computes the weighted, normalized score of each organ system.
func (e *FeatureEngine) SystemScores(p schema.Panel) (schema.SystemScoreSet, error) {
	var out schema.SystemScoreSet
	for _, sys := range schema.AllSystems {
		score := 0.0
		for _, term := range e.weights[sys] {
			v, err := e.resolve(p, term.marker)
			if err != nil {
				return schema.SystemScoreSet{}, err
			}
			score += e.normalize(term.marker, v) * term.weight
		}
		if err := out.Set(sys, score*100); err != nil {
			return schema.SystemScoreSet{}, err
		}
	}
	return out, nil
}

// normalize maps a marker value onto [0,1] using its normal range.
func (e *FeatureEngine) normalize(m schema.Marker, v float64) float64 {
	r, ok := e.table.NormalRange(m)
	if !ok {
		return 0.5
	}
	return r.Normalize(v)
}

// MarkerStatus classifies a value against the marker's normal range.
// It returns an empty status when the marker has no range.
func (e *FeatureEngine) MarkerStatus(m schema.Marker, v float64) string {
	r, ok := e.table.NormalRange(m)
	if !ok {
		return ""
	}
	switch {
	case v < r.Min:
		return contract.StatusLow
	case v > r.Max:
		return contract.StatusHigh
	default:
		return contract.StatusNormal
	}
}

// Readings lists every panel marker known to the table with its status.
func (e *FeatureEngine) Readings(p schema.Panel) []schema.MarkerReading {
	var out []schema.MarkerReading
	for _, m := range e.table.Markers() {
		v, ok := p[m]
		if !ok {
			continue
		}
		entry := e.table[m]
		reading := schema.MarkerReading{Marker: m, Value: v, Unit: entry.Unit, Status: e.MarkerStatus(m, v)}
		if entry.Normal != nil {
			r := *entry.Normal
			reading.Range = &r
		}
		out = append(out, reading)
	}
	return out
}

func clip100(v float64) float64 {
	return schema.Clip(v, 0, 100)
}
