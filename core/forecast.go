package core

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/huangsam/biomarker/schema"
)

// DefaultHorizon is the default number of forecast weeks.
const DefaultHorizon = 12

const (
	maxWeeklyChange = 2.0
	scoreNoiseSD    = 0.2
	markerNoiseFrac = 0.01
	markerStepFrac  = 0.1
	markerDecay     = 0.1
)

// forecastTargets are the clinical values each projected marker drifts toward.
var forecastTargets = map[schema.Marker]float64{
	schema.GlucoseMarker:       90,
	schema.CholesterolMarker:   170,
	schema.TriglyceridesMarker: 150,
	schema.HDLMarker:           50,
	schema.LDLMarker:           100,
}

// Forecaster projects scores and markers forward week by week.
// It serializes use of its random source so a single Forecaster may be shared.
type Forecaster struct {
	predictor Predictor
	engine    *FeatureEngine
	mu        sync.Mutex
	src       rand.Source
}

// NewForecaster creates a forecaster over a predictor. A nil engine uses the built-in reference table
// and a nil src draws noise from the global random source.
func NewForecaster(predictor Predictor, engine *FeatureEngine, src rand.Source) *Forecaster {
	if engine == nil {
		engine = DefaultFeatureEngine()
	}
	return &Forecaster{predictor: predictor, engine: engine, src: src}
}

// forecastFactors are fixed from the initial snapshot and reused every week.
type forecastFactors struct {
	metabolic, risk, organ float64
	meteff, cv             float64
}

func newForecastFactors(adv schema.AdvancedFeatureSet) forecastFactors {
	return forecastFactors{
		metabolic: (adv.MetabolicEfficiencyScore - 50) / 100,
		risk:      (adv.CardiovascularRiskIndex - 50) / 100,
		organ:     (adv.LiverHealthIndex + adv.KidneyFunctionIndex) / 200,
		meteff:    adv.MetabolicEfficiencyScore,
		cv:        adv.CardiovascularRiskIndex,
	}
}

// Forecast projects the panel's predicted health and metabolite scores and key markers over horizon weeks.
func (f *Forecaster) Forecast(p schema.Panel, horizon int) (schema.ForecastSeries, error) {
	if f == nil || f.predictor == nil {
		return schema.ForecastSeries{}, &UntrainedModelError{Op: "forecast"}
	}
	if horizon <= 0 {
		return schema.ForecastSeries{}, fmt.Errorf("forecast horizon must be positive, got %d", horizon)
	}

	pred, err := f.predictor.Predict(p)
	if err != nil {
		var untrained *UntrainedModelError
		if errors.As(err, &untrained) {
			return schema.ForecastSeries{}, &UntrainedModelError{Op: "forecast"}
		}
		return schema.ForecastSeries{}, fmt.Errorf("predicting base scores: %w", err)
	}
	adv, err := f.engine.AdvancedFeatures(p)
	if err != nil {
		return schema.ForecastSeries{}, err
	}
	factors := newForecastFactors(adv)

	f.mu.Lock()
	defer f.mu.Unlock()
	noise := distuv.Normal{Mu: 0, Sigma: scoreNoiseSD, Src: f.src}
	drift := (factors.metabolic + factors.organ - factors.risk) * maxWeeklyChange

	series := schema.ForecastSeries{Horizon: horizon, Weeks: make([]schema.ForecastWeek, 0, horizon)}
	health, metabolite := pred.Scores.Health, pred.Scores.Metabolite
	for week := range horizon {
		health = schema.Clip(health+drift+noise.Rand(), 0, 100)
		metabolite = schema.Clip(metabolite+drift+noise.Rand(), 0, 100)
		series.Weeks = append(series.Weeks, schema.ForecastWeek{
			Week:            week + 1,
			HealthScore:     round1(health),
			MetaboliteScore: round1(metabolite),
			RiskLevel:       round1(100 - (health+metabolite)/2),
		})
	}

	for _, m := range schema.ForecastMarkers {
		base, ok := p[m]
		if !ok {
			continue
		}
		target := forecastTargets[m]
		proj := schema.BiomarkerProjection{Marker: m, Base: base, Target: target, Values: make([]float64, 0, horizon)}
		for week := range horizon {
			proj.Values = append(proj.Values, round1(f.projectMarker(base, target, week, factors)))
		}
		series.Biomarkers = append(series.Biomarkers, proj)
	}
	return series, nil
}

// projectMarker moves base toward target with an exponentially decaying step plus proportional noise.
func (f *Forecaster) projectMarker(base, target float64, week int, factors forecastFactors) float64 {
	direction := -1.0
	if target > base {
		direction = 1.0
	}
	step := math.Abs(target-base) * markerStepFrac
	change := step * (factors.meteff/100 - factors.cv/100) * direction * math.Exp(-markerDecay*float64(week))
	sd := math.Abs(base) * markerNoiseFrac
	if sd > 0 {
		change += distuv.Normal{Mu: 0, Sigma: sd, Src: f.src}.Rand()
	}
	return base + change
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
