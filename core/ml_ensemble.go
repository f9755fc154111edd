package core

import (
	"context"
	"math"
	"math/rand/v2"
)

// randomForest is a bagged ensemble of Gini trees for a 0/1 label.
type randomForest struct {
	Trees      []*decisionTree `json:"trees"`
	Importance []float64       `json:"importance"`
}

// forestParams configures fitRandomForest.
type forestParams struct {
	trees int
	seed  uint64
}

// fitRandomForest fits trees on bootstrap resamples with sqrt(n_features) candidates per split.
func fitRandomForest(ctx context.Context, x [][]float64, y []float64, p forestParams) (*randomForest, error) {
	n := len(x)
	nf := len(x[0])
	maxFeatures := max(1, int(math.Sqrt(float64(nf))))
	forest := &randomForest{Trees: make([]*decisionTree, 0, p.trees)}
	importance := make([]float64, nf)

	for t := range p.trees {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rng := rand.New(rand.NewPCG(p.seed, uint64(t)))
		w := make([]float64, n)
		for range n {
			w[rng.IntN(n)]++
		}
		treeImp := make([]float64, nf)
		tree := fitTree(x, y, w, treeParams{
			criterion:       giniCriterion,
			minSamplesSplit: 2,
			maxFeatures:     maxFeatures,
		}, rng, treeImp)
		forest.Trees = append(forest.Trees, tree)
		for i, v := range normalizeImportance(treeImp) {
			importance[i] += v
		}
	}
	forest.Importance = normalizeImportance(importance)
	return forest, nil
}

// probability returns the mean positive-class probability across trees.
func (f *randomForest) probability(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range f.Trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.Trees))
}

// gradientBoosting is a least-squares boosted ensemble of shallow regression trees.
type gradientBoosting struct {
	Init         float64         `json:"init"`
	LearningRate float64         `json:"learning_rate"`
	Trees        []*decisionTree `json:"trees"`
	Importance   []float64       `json:"importance"`
}

// boostingParams configures fitGradientBoosting.
type boostingParams struct {
	estimators   int
	maxDepth     int
	learningRate float64
}

// fitGradientBoosting fits stages on the residuals of the running prediction, starting from the mean.
func fitGradientBoosting(ctx context.Context, x [][]float64, y []float64, p boostingParams) (*gradientBoosting, error) {
	n := len(x)
	nf := len(x[0])

	init := 0.0
	for _, v := range y {
		init += v
	}
	init /= float64(n)

	model := &gradientBoosting{Init: init, LearningRate: p.learningRate, Trees: make([]*decisionTree, 0, p.estimators)}
	pred := make([]float64, n)
	for i := range pred {
		pred[i] = init
	}
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	residual := make([]float64, n)
	importance := make([]float64, nf)

	for range p.estimators {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := range residual {
			residual[i] = y[i] - pred[i]
		}
		treeImp := make([]float64, nf)
		tree := fitTree(x, residual, w, treeParams{
			criterion:       mseCriterion,
			maxDepth:        p.maxDepth,
			minSamplesSplit: 2,
		}, nil, treeImp)
		model.Trees = append(model.Trees, tree)
		for i := range pred {
			pred[i] += p.learningRate * tree.predict(x[i])
		}
		for i, v := range normalizeImportance(treeImp) {
			importance[i] += v
		}
	}
	model.Importance = normalizeImportance(importance)
	return model, nil
}

// predict returns the boosted estimate for one row.
func (g *gradientBoosting) predict(x []float64) float64 {
	v := g.Init
	for _, t := range g.Trees {
		v += g.LearningRate * t.predict(x)
	}
	return v
}
