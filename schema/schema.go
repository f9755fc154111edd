// Package schema has models, constants and the reference table shared by all parts of biomarker.
package schema

import (
	"fmt"
	"time"
)

// Scores holds the nine regression outputs of the model, in AllTargets order.
type Scores struct {
	Health        float64 `json:"health_score"`
	Metabolite    float64 `json:"metabolite_score"`
	Comprehensive float64 `json:"comprehensive_score"`
	Liver         float64 `json:"liver_score"`
	Kidney        float64 `json:"kidney_score"`
	Cardio        float64 `json:"cardio_score"`
	Endocrine     float64 `json:"endocrine_score"`
	Immune        float64 `json:"immune_score"`
	Digestive     float64 `json:"digestive_score"`
}

// Get returns the score for a target.
func (s Scores) Get(t Target) (float64, bool) {
	switch t {
	case HealthTarget:
		return s.Health, true
	case MetaboliteTarget:
		return s.Metabolite, true
	case ComprehensiveTarget:
		return s.Comprehensive, true
	case LiverTarget:
		return s.Liver, true
	case KidneyTarget:
		return s.Kidney, true
	case CardioTarget:
		return s.Cardio, true
	case EndocrineTarget:
		return s.Endocrine, true
	case ImmuneTarget:
		return s.Immune, true
	case DigestiveTarget:
		return s.Digestive, true
	}
	return 0, false
}

// Values returns the scores in AllTargets order.
func (s Scores) Values() []float64 {
	out := make([]float64, len(AllTargets))
	for i, t := range AllTargets {
		out[i], _ = s.Get(t)
	}
	return out
}

// ScoresFromValues builds Scores from values in AllTargets order.
func ScoresFromValues(v []float64) (Scores, error) {
	if len(v) != len(AllTargets) {
		return Scores{}, fmt.Errorf("expected %d target values, got %d", len(AllTargets), len(v))
	}
	return Scores{
		Health: v[0], Metabolite: v[1], Comprehensive: v[2],
		Liver: v[3], Kidney: v[4], Cardio: v[5],
		Endocrine: v[6], Immune: v[7], Digestive: v[8],
	}, nil
}

// Prediction is the model output for one panel.
type Prediction struct {
	HealthRisk  bool    `json:"health_risk"` // classifier label for health_score >= the risk threshold
	Probability float64 `json:"probability"` // fraction of trees voting for the positive label
	Scores      Scores  `json:"scores"`
}

// Record is one row of a training dataset.
type Record struct {
	Markers  Panel               `json:"markers"`
	Features *AdvancedFeatureSet `json:"features,omitempty"` // nil until computed
	Targets  map[Target]float64  `json:"targets,omitempty"`  // only labels that are present
	Source   string              `json:"source"`
}

// Dataset sources.
const (
	SyntheticSource = "synthetic"
	ExternalSource  = "external"
)

// Dataset is an ordered collection of records.
type Dataset []Record

// Count returns the number of records from the given source.
func (d Dataset) Count(source string) int {
	n := 0
	for _, r := range d {
		if r.Source == source {
			n++
		}
	}
	return n
}

// ForecastWeek is one weekly snapshot of a forecast.
type ForecastWeek struct {
	Week            int     `json:"week"` // 1-based
	HealthScore     float64 `json:"health_score"`
	MetaboliteScore float64 `json:"metabolite_score"`
	RiskLevel       float64 `json:"risk_level"`
}

// BiomarkerProjection is the projected weekly series of a single marker.
type BiomarkerProjection struct {
	Marker Marker    `json:"marker"`
	Base   float64   `json:"base"`
	Target float64   `json:"target"`
	Values []float64 `json:"values"`
}

// ForecastSeries is an ordered forecast of scores and markers.
type ForecastSeries struct {
	Horizon    int                   `json:"horizon"`
	Weeks      []ForecastWeek        `json:"weeks"`
	Biomarkers []BiomarkerProjection `json:"biomarkers"`
}

// Recommendations groups suggested actions by category.
type Recommendations struct {
	Lifestyle   []string `json:"lifestyle"`
	Diet        []string `json:"diet"`
	Supplements []string `json:"supplements"`
	Monitoring  []string `json:"monitoring"`
}

// MarkerReading is a single marker compared against its normal range.
type MarkerReading struct {
	Marker Marker  `json:"marker"`
	Value  float64 `json:"value"`
	Unit   string  `json:"unit"`
	Range  *Range  `json:"range,omitempty"`
	Status string  `json:"status"` // Low, Normal, High or empty when no range applies
}

// Analysis is the rule-based assessment of a panel without the trained model.
type Analysis struct {
	HealthScore        float64            `json:"health_score"`
	MetaboliteScore    float64            `json:"metabolite_score"`
	ComprehensiveScore float64            `json:"comprehensive_score"`
	Features           AdvancedFeatureSet `json:"advanced_features"`
	Systems            SystemScoreSet     `json:"system_scores"`
	Insights           []string           `json:"insights"`
	Recommendations    Recommendations    `json:"recommendations"`
	Readings           []MarkerReading    `json:"readings"`
}

// TrainingStats summarizes a training run.
type TrainingStats struct {
	RunID             string             `json:"run_id"`
	TotalSamples      int                `json:"total_samples"`
	SyntheticSamples  int                `json:"synthetic_samples"`
	ExternalSamples   int                `json:"external_samples"`
	PositiveLabels    int                `json:"positive_labels"`
	FeatureImportance map[string]float64 `json:"feature_importance"`
	Duration          time.Duration      `json:"duration"`
	FromCache         bool               `json:"from_cache"`
}

// CheckResult holds the results of a threshold check against predicted scores.
type CheckResult struct {
	Passed     bool                `json:"passed"`
	Failed     []CheckFailedTarget `json:"failed"`
	Thresholds map[Target]float64  `json:"thresholds"`
	Scores     Scores              `json:"scores"`
}

// CheckFailedTarget is a target whose predicted score fell below its threshold.
type CheckFailedTarget struct {
	Target    Target  `json:"target"`
	Score     float64 `json:"score"`
	Threshold float64 `json:"threshold"`
}
