package core

import (
	"maps"
	"math"

	"github.com/huangsam/biomarker/schema"
)

// Normal values substituted when a target formula input is missing from a record.
var (
	targetMarkerDefaults = map[schema.Marker]float64{
		schema.GlucoseMarker:       90,
		schema.CholesterolMarker:   180,
		schema.HDLMarker:           50,
		schema.BMIMarker:           25,
		schema.TotalProteinMarker:  7.0,
		schema.TriglyceridesMarker: 150,
	}
	targetFeatureDefaults = map[schema.Feature]float64{
		schema.LiverHealthFeature:         70,
		schema.KidneyFunctionFeature:      70,
		schema.CardiovascularRiskFeature:  30,
		schema.MetabolicEfficiencyFeature: 70,
		schema.InflammationFeature:        30,
	}
)

// targetInputs is the resolved set of values the target formulas read.
type targetInputs struct {
	glucose, cholesterol, hdl, bmi, protein, tg float64
	liver, kidney, cv, meteff, inflammation     float64
}

func resolveTargetInputs(r schema.Record) targetInputs {
	marker := func(m schema.Marker) float64 {
		if v, ok := r.Markers[m]; ok {
			return v
		}
		return targetMarkerDefaults[m]
	}
	feature := func(f schema.Feature) float64 {
		if r.Features == nil {
			return targetFeatureDefaults[f]
		}
		v, _ := r.Features.Get(f)
		return v
	}
	return targetInputs{
		glucose:      marker(schema.GlucoseMarker),
		cholesterol:  marker(schema.CholesterolMarker),
		hdl:          marker(schema.HDLMarker),
		bmi:          marker(schema.BMIMarker),
		protein:      marker(schema.TotalProteinMarker),
		tg:           marker(schema.TriglyceridesMarker),
		liver:        feature(schema.LiverHealthFeature),
		kidney:       feature(schema.KidneyFunctionFeature),
		cv:           feature(schema.CardiovascularRiskFeature),
		meteff:       feature(schema.MetabolicEfficiencyFeature),
		inflammation: feature(schema.InflammationFeature),
	}
}

// baseHealthScore is the marker-only health score shared by the labels and the rule-based analysis.
func baseHealthScore(in targetInputs) float64 {
	return clip100(0.2 * ((100 - math.Abs(in.glucose-90)/2) +
		(100 - in.cholesterol/200*100) +
		(in.hdl / 60 * 100) +
		(100 - in.bmi/30*100) +
		(100 - math.Abs(in.protein-7)*20)))
}

// computeTargets evaluates all nine label formulas.
func computeTargets(in targetInputs) map[schema.Target]float64 {
	base := baseHealthScore(in)
	health := clip100(0.6*base + 0.1*(100-in.cv) + 0.1*in.liver + 0.1*in.kidney + 0.1*in.meteff)
	metabolite := clip100(0.2 * ((100 - math.Abs(in.glucose-90)) +
		(100 - in.cholesterol/200*100) +
		(in.hdl / 60 * 100) +
		(100 - in.tg/150*100) +
		(100 - math.Abs(in.protein-7)*20)))
	proteinTerm := 100 - math.Abs(in.protein-7)*20

	return map[schema.Target]float64{
		schema.HealthTarget:        health,
		schema.MetaboliteTarget:    metabolite,
		schema.ComprehensiveTarget: clip100(0.4*health + 0.3*metabolite + 0.3*in.meteff),
		schema.LiverTarget:         clip100(in.liver),
		schema.KidneyTarget:        clip100(in.kidney),
		schema.CardioTarget:        clip100(100 - in.cv),
		schema.EndocrineTarget:     clip100(0.4*(100-math.Abs(in.glucose-90)) + 0.6*in.meteff),
		schema.ImmuneTarget:        clip100(0.5*(100-in.inflammation) + 0.5*(in.protein/7*100)),
		schema.DigestiveTarget:     clip100(0.3*in.liver + 0.4*proteinTerm + 0.3*(100-in.inflammation)),
	}
}

// SynthesizeTargets returns a copy of ds with the nine labels filled in.
// A label already present on a record is kept as is, so a second call changes nothing.
func SynthesizeTargets(ds schema.Dataset) schema.Dataset {
	out := make(schema.Dataset, len(ds))
	for i, r := range ds {
		computed := computeTargets(resolveTargetInputs(r))
		targets := make(map[schema.Target]float64, len(schema.AllTargets))
		maps.Copy(targets, r.Targets)
		for _, t := range schema.AllTargets {
			if _, ok := targets[t]; !ok {
				targets[t] = computed[t]
			}
		}
		r.Targets = targets
		r.Markers = r.Markers.Clone()
		out[i] = r
	}
	return out
}
