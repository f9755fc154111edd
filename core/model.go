package core

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"runtime"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/huangsam/biomarker/schema"
)

// Default training hyperparameters.
const (
	DefaultTrees         = 100
	DefaultEstimators    = 100
	DefaultMaxDepth      = 3
	DefaultLearningRate  = 0.1
	DefaultRiskThreshold = 70.0
)

// TrainOptions configures Train.
type TrainOptions struct {
	Trees         int     // random forest size
	Estimators    int     // boosting stages per target
	MaxDepth      int     // boosting tree depth
	LearningRate  float64 // boosting shrinkage
	RiskThreshold float64 // health_score at or above which the classifier label is positive
	Workers       int     // concurrent model fits
	Seed          uint64
	Engine        *FeatureEngine // featurizes records that lack features and panels at prediction time
}

// DefaultTrainOptions returns the standard hyperparameters.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Trees:         DefaultTrees,
		Estimators:    DefaultEstimators,
		MaxDepth:      DefaultMaxDepth,
		LearningRate:  DefaultLearningRate,
		RiskThreshold: DefaultRiskThreshold,
		Workers:       runtime.GOMAXPROCS(0),
		Seed:          DefaultSeed,
	}
}

func (o TrainOptions) withDefaults() TrainOptions {
	d := DefaultTrainOptions()
	if o.Trees <= 0 {
		o.Trees = d.Trees
	}
	if o.Estimators <= 0 {
		o.Estimators = d.Estimators
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = d.MaxDepth
	}
	if o.LearningRate <= 0 {
		o.LearningRate = d.LearningRate
	}
	if o.RiskThreshold <= 0 {
		o.RiskThreshold = d.RiskThreshold
	}
	if o.Workers <= 0 {
		o.Workers = d.Workers
	}
	if o.Engine == nil {
		o.Engine = DefaultFeatureEngine()
	}
	return o
}

// Model is a fitted scaler, health-risk classifier and nine-target regressor.
// A Model is never mutated after Train returns, so Predict is safe for concurrent use.
type Model struct {
	id            string
	features      []string
	scaler        *standardScaler
	classifier    *randomForest
	regressors    []*gradientBoosting
	importance    map[string]float64
	riskThreshold float64
	trainedAt     time.Time
	stats         schema.TrainingStats
	engine        *FeatureEngine
}

// Train concatenates the datasets and fits a new model.
func Train(ctx context.Context, opts TrainOptions, datasets ...schema.Dataset) (*Model, error) {
	opts = opts.withDefaults()
	start := time.Now()

	var all schema.Dataset
	for _, ds := range datasets {
		all = append(all, ds...)
	}
	if len(all) == 0 {
		return nil, &TrainingDataError{Reason: "dataset is empty"}
	}

	x, err := featureMatrix(all, opts.Engine)
	if err != nil {
		return nil, err
	}
	genderCol := slices.Index(schema.BaseMarkers, schema.GenderMarker)
	imputeColumns(x, map[int]bool{genderCol: true})

	y := make([][]float64, len(schema.AllTargets))
	for t, target := range schema.AllTargets {
		col := make([]float64, len(all))
		present := 0
		for i, r := range all {
			if v, ok := r.Targets[target]; ok {
				col[i] = v
				present++
			} else {
				col[i] = math.NaN()
			}
		}
		if present == 0 {
			return nil, &TrainingDataError{Reason: fmt.Sprintf("target column %s is missing", target)}
		}
		fill := median(col)
		for i, v := range col {
			if math.IsNaN(v) {
				col[i] = fill
			}
		}
		y[t] = col
	}

	scaler := fitScaler(x)
	scaled := make([][]float64, len(x))
	for i, row := range x {
		scaled[i] = scaler.transform(row)
	}

	labels := make([]float64, len(all))
	positives := 0
	for i, h := range y[0] {
		if h >= opts.RiskThreshold {
			labels[i] = 1
			positives++
		}
	}

	var classifier *randomForest
	regressors := make([]*gradientBoosting, len(schema.AllTargets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	g.Go(func() error {
		f, err := fitRandomForest(gctx, scaled, labels, forestParams{trees: opts.Trees, seed: opts.Seed})
		if err != nil {
			return fmt.Errorf("fitting classifier: %w", err)
		}
		classifier = f
		return nil
	})
	for t := range schema.AllTargets {
		g.Go(func() error {
			r, err := fitGradientBoosting(gctx, scaled, y[t], boostingParams{
				estimators:   opts.Estimators,
				maxDepth:     opts.MaxDepth,
				learningRate: opts.LearningRate,
			})
			if err != nil {
				return fmt.Errorf("fitting regressor for %s: %w", schema.AllTargets[t], err)
			}
			regressors[t] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := schema.FeatureNames()
	importance := make(map[string]float64, len(names))
	models := float64(1 + len(regressors))
	for i, name := range names {
		sum := classifier.Importance[i]
		for _, r := range regressors {
			sum += r.Importance[i]
		}
		importance[name] = sum / models
	}

	id := uuid.NewString()
	return &Model{
		id:            id,
		features:      names,
		scaler:        scaler,
		classifier:    classifier,
		regressors:    regressors,
		importance:    importance,
		riskThreshold: opts.RiskThreshold,
		trainedAt:     time.Now(),
		engine:        opts.Engine,
		stats: schema.TrainingStats{
			RunID:             id,
			TotalSamples:      len(all),
			SyntheticSamples:  all.Count(schema.SyntheticSource),
			ExternalSamples:   all.Count(schema.ExternalSource),
			PositiveLabels:    positives,
			FeatureImportance: importance,
			Duration:          time.Since(start),
		},
	}, nil
}

// featureMatrix builds the 40-column input matrix. Missing cells are NaN.
func featureMatrix(ds schema.Dataset, engine *FeatureEngine) ([][]float64, error) {
	x := make([][]float64, len(ds))
	for i, r := range ds {
		adv := r.Features
		if adv == nil {
			computed, err := engine.AdvancedFeatures(r.Markers)
			if err != nil {
				return nil, fmt.Errorf("computing features for record %d: %w", i, err)
			}
			adv = &computed
		}
		row := make([]float64, 0, len(schema.BaseMarkers)+len(schema.AllFeatures))
		for _, m := range schema.BaseMarkers {
			if v, ok := r.Markers[m]; ok {
				row = append(row, v)
			} else {
				row = append(row, math.NaN())
			}
		}
		row = append(row, adv.Values()...)
		x[i] = row
	}
	return x, nil
}

// Predict scores one panel. Base markers absent from the panel are 0.
func (m *Model) Predict(p schema.Panel) (schema.Prediction, error) {
	if m == nil {
		return schema.Prediction{}, &UntrainedModelError{Op: "predict"}
	}
	adv, err := m.engine.AdvancedFeatures(p)
	if err != nil {
		return schema.Prediction{}, err
	}
	row := make([]float64, 0, len(m.features))
	for _, marker := range schema.BaseMarkers {
		row = append(row, p[marker])
	}
	row = append(row, adv.Values()...)
	scaled := m.scaler.transform(row)

	prob := m.classifier.probability(scaled)
	values := make([]float64, len(m.regressors))
	for i, r := range m.regressors {
		values[i] = r.predict(scaled)
	}
	scores, err := schema.ScoresFromValues(values)
	if err != nil {
		return schema.Prediction{}, err
	}
	return schema.Prediction{HealthRisk: prob > 0.5, Probability: prob, Scores: scores}, nil
}

// ID returns the unique identifier assigned when the model was trained.
func (m *Model) ID() string { return m.id }

// TrainedAt returns when the model was fitted.
func (m *Model) TrainedAt() time.Time { return m.trainedAt }

// Stats returns the training summary.
func (m *Model) Stats() schema.TrainingStats {
	st := m.stats
	st.FeatureImportance = maps.Clone(m.importance)
	return st
}

// Engine returns the feature engine the model featurizes panels with.
func (m *Model) Engine() *FeatureEngine { return m.engine }

// FeatureImportance returns mean decrease in impurity per feature, averaged over all fitted estimators.
func (m *Model) FeatureImportance() map[string]float64 {
	return maps.Clone(m.importance)
}

// modelState is the serialized form of a Model.
type modelState struct {
	ID            string               `json:"id"`
	Features      []string             `json:"features"`
	Scaler        *standardScaler      `json:"scaler"`
	Classifier    *randomForest        `json:"classifier"`
	Regressors    []*gradientBoosting  `json:"regressors"`
	Importance    map[string]float64   `json:"importance"`
	RiskThreshold float64              `json:"risk_threshold"`
	TrainedAt     time.Time            `json:"trained_at"`
	Stats         schema.TrainingStats `json:"stats"`
}

// MarshalJSON encodes the fitted model.
func (m *Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(modelState{
		ID:            m.id,
		Features:      m.features,
		Scaler:        m.scaler,
		Classifier:    m.classifier,
		Regressors:    m.regressors,
		Importance:    m.importance,
		RiskThreshold: m.riskThreshold,
		TrainedAt:     m.trainedAt,
		Stats:         m.stats,
	})
}

// UnmarshalModel decodes a model produced by MarshalJSON and attaches engine for featurization.
func UnmarshalModel(data []byte, engine *FeatureEngine) (*Model, error) {
	var st modelState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decoding model: %w", err)
	}
	if st.Scaler == nil || st.Classifier == nil || len(st.Regressors) != len(schema.AllTargets) {
		return nil, fmt.Errorf("decoding model: incomplete model state")
	}
	if !slices.Equal(st.Features, schema.FeatureNames()) {
		return nil, fmt.Errorf("decoding model: feature layout mismatch")
	}
	if engine == nil {
		engine = DefaultFeatureEngine()
	}
	st.Stats.FromCache = true
	return &Model{
		id:            st.ID,
		features:      st.Features,
		scaler:        st.Scaler,
		classifier:    st.Classifier,
		regressors:    st.Regressors,
		importance:    st.Importance,
		riskThreshold: st.RiskThreshold,
		trainedAt:     st.TrainedAt,
		stats:         st.Stats,
		engine:        engine,
	}, nil
}
