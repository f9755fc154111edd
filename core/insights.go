package core

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/huangsam/biomarker/schema"
)

// thresholdRule emits a severe or moderate message when an index crosses a bound.
// For above rules the index must exceed the bound; otherwise it must fall below it.
type thresholdRule struct {
	feature     schema.Feature
	above       bool
	severe      float64
	moderate    float64
	severeMsg   string
	moderateMsg string
}

var insightRules = []thresholdRule{
	{schema.MetabolicSyndromeFeature, true, 50, 25, "High risk of metabolic syndrome detected", "Moderate risk of metabolic syndrome"},
	{schema.CardiovascularRiskFeature, true, 70, 50, "High cardiovascular risk detected", "Moderate cardiovascular risk"},
	{schema.LiverHealthFeature, false, 30, 50, "Significant liver function impairment", "Mild liver function impairment"},
	{schema.KidneyFunctionFeature, false, 30, 50, "Significant kidney function impairment", "Mild kidney function impairment"},
	{schema.ImmuneSystemFeature, false, 30, 50, "Weakened immune system detected", "Moderate immune system function"},
	{schema.HormoneBalanceFeature, false, 30, 50, "Significant hormonal imbalance detected", "Mild hormonal imbalance"},
	{schema.OxidativeStressFeature, true, 70, 50, "High oxidative stress levels detected", "Moderate oxidative stress levels"},
}

// Insights lists the findings triggered by the advanced indices.
func Insights(adv schema.AdvancedFeatureSet) []string {
	out := []string{}
	for _, r := range insightRules {
		v, _ := adv.Get(r.feature)
		switch {
		case r.above && v > r.severe, !r.above && v < r.severe:
			out = append(out, r.severeMsg)
		case r.above && v > r.moderate, !r.above && v < r.moderate:
			out = append(out, r.moderateMsg)
		}
	}
	return out
}

// Recommend builds categorized suggestions from the advanced indices.
func Recommend(adv schema.AdvancedFeatureSet) schema.Recommendations {
	rec := schema.Recommendations{
		Lifestyle:   []string{},
		Diet:        []string{},
		Supplements: []string{},
		Monitoring:  []string{},
	}
	if adv.MetabolicSyndromeScore > 25 {
		rec.Lifestyle = append(rec.Lifestyle,
			"Increase physical activity to at least 150 minutes per week",
			"Implement stress management techniques")
	}
	if adv.CardiovascularRiskIndex > 50 {
		rec.Lifestyle = append(rec.Lifestyle,
			"Regular cardiovascular exercise",
			"Monitor blood pressure regularly")
	}
	if adv.MetabolicEfficiencyScore < 50 {
		rec.Diet = append(rec.Diet,
			"Reduce refined carbohydrate intake",
			"Increase fiber-rich foods")
	}
	if adv.LiverHealthIndex < 50 {
		rec.Diet = append(rec.Diet,
			"Reduce alcohol consumption",
			"Increase antioxidant-rich foods")
	}
	if adv.OxidativeStressScore > 50 {
		rec.Supplements = append(rec.Supplements,
			"Consider antioxidant supplements",
			"Vitamin C and E supplementation")
	}
	if adv.BoneHealthIndex < 50 {
		rec.Supplements = append(rec.Supplements,
			"Calcium and Vitamin D supplementation",
			"Magnesium supplementation")
	}
	if adv.KidneyFunctionIndex < 50 {
		rec.Monitoring = append(rec.Monitoring,
			"Regular kidney function tests",
			"Monitor fluid intake")
	}
	if adv.EndocrineBalanceScore < 50 {
		rec.Monitoring = append(rec.Monitoring,
			"Regular hormone level checks",
			"Monitor blood sugar levels")
	}
	return rec
}

// Analyze produces the rule-based assessment of a panel. It does not need a trained model.
func (e *FeatureEngine) Analyze(p schema.Panel) (schema.Analysis, error) {
	adv, sys, err := e.ComputeFeatures(p)
	if err != nil {
		return schema.Analysis{}, err
	}
	in := resolveTargetInputs(schema.Record{Markers: p, Features: &adv})
	base := baseHealthScore(in)
	metabolite := clip100(0.25 * ((100 - math.Abs(in.glucose-90)/2) +
		(100 - in.cholesterol/200*100) +
		(in.hdl / 60 * 100) +
		(100 - in.tg/150*100)))
	comprehensive := clip100(0.3*base + 0.4*stat.Mean(adv.Values(), nil) + 0.3*stat.Mean(sys.Values(), nil))

	return schema.Analysis{
		HealthScore:        base,
		MetaboliteScore:    metabolite,
		ComprehensiveScore: comprehensive,
		Features:           adv,
		Systems:            sys,
		Insights:           Insights(adv),
		Recommendations:    Recommend(adv),
		Readings:           e.Readings(p),
	}, nil
}

// Analyze runs the rule-based assessment with the built-in reference table.
func Analyze(p schema.Panel) (schema.Analysis, error) {
	return defaultEngine.Analyze(p)
}
