package core

import (
	"math/rand/v2"
	"slices"
)

// splitCriterion selects the impurity measure of a tree.
type splitCriterion int

const (
	mseCriterion  splitCriterion = iota // regression: weighted variance
	giniCriterion                       // binary classification on 0/1 labels
)

// treeNode is one node of a fitted tree. Leaves have Feature == -1.
type treeNode struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v"`
}

// decisionTree is a fitted binary CART tree stored as a flat node slice.
type decisionTree struct {
	Nodes []treeNode `json:"nodes"`
}

// predict walks the tree for one feature row.
func (t *decisionTree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// treeParams configures tree growth.
type treeParams struct {
	criterion       splitCriterion
	maxDepth        int // <= 0 means unlimited
	minSamplesSplit int
	maxFeatures     int // <= 0 or >= nFeatures means all
}

// treeBuilder grows one tree over a shared feature matrix.
type treeBuilder struct {
	x          [][]float64
	y          []float64
	w          []float64
	params     treeParams
	rng        *rand.Rand
	nodes      []treeNode
	importance []float64
	goLeft     []bool
}

// presort returns, for every feature, the sample indices with w > 0 ordered by that feature.
func presort(x [][]float64, w []float64) [][]int {
	if len(x) == 0 {
		return nil
	}
	nf := len(x[0])
	var active []int
	for i := range x {
		if w[i] > 0 {
			active = append(active, i)
		}
	}
	order := make([][]int, nf)
	for f := range nf {
		idx := slices.Clone(active)
		slices.SortStableFunc(idx, func(a, b int) int {
			switch {
			case x[a][f] < x[b][f]:
				return -1
			case x[a][f] > x[b][f]:
				return 1
			}
			return 0
		})
		order[f] = idx
	}
	return order
}

// fitTree grows a tree on samples weighted by w and adds its raw impurity decrease to importance.
func fitTree(x [][]float64, y, w []float64, p treeParams, rng *rand.Rand, importance []float64) *decisionTree {
	b := &treeBuilder{
		x:          x,
		y:          y,
		w:          w,
		params:     p,
		rng:        rng,
		importance: importance,
		goLeft:     make([]bool, len(x)),
	}
	order := presort(x, w)
	if len(order) == 0 || len(order[0]) == 0 {
		return &decisionTree{Nodes: []treeNode{{Feature: -1}}}
	}
	b.grow(order, 0)
	return &decisionTree{Nodes: b.nodes}
}

// nodeStats are the weighted sums needed for impurity and leaf values.
type nodeStats struct {
	w, wy, wy2 float64
}

func (s nodeStats) cost(c splitCriterion) float64 {
	if s.w <= 0 {
		return 0
	}
	v := s.wy2 - s.wy*s.wy/s.w
	if c == giniCriterion {
		v *= 2
	}
	return v
}

func (s nodeStats) mean() float64 {
	if s.w <= 0 {
		return 0
	}
	return s.wy / s.w
}

func (b *treeBuilder) add(s *nodeStats, i int) {
	wi := b.w[i]
	s.w += wi
	s.wy += wi * b.y[i]
	s.wy2 += wi * b.y[i] * b.y[i]
}

// grow builds the subtree for the samples in order and returns its node index.
func (b *treeBuilder) grow(order [][]int, depth int) int {
	samples := order[0]
	var total nodeStats
	for _, i := range samples {
		b.add(&total, i)
	}

	id := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{Feature: -1, Value: total.mean()})

	parentCost := total.cost(b.params.criterion)
	if (b.params.maxDepth > 0 && depth >= b.params.maxDepth) ||
		len(samples) < max(b.params.minSamplesSplit, 2) ||
		parentCost <= 1e-12 {
		return id
	}

	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0
	for _, f := range b.candidateFeatures(len(order)) {
		idx := order[f]
		var left nodeStats
		for k := 0; k < len(idx)-1; k++ {
			b.add(&left, idx[k])
			lo, hi := b.x[idx[k]][f], b.x[idx[k+1]][f]
			if lo == hi {
				continue
			}
			right := nodeStats{w: total.w - left.w, wy: total.wy - left.wy, wy2: total.wy2 - left.wy2}
			gain := parentCost - left.cost(b.params.criterion) - right.cost(b.params.criterion)
			if gain > bestGain+1e-12 {
				bestFeature, bestThreshold, bestGain = f, lo+(hi-lo)/2, gain
			}
		}
	}
	if bestFeature < 0 {
		return id
	}
	b.importance[bestFeature] += bestGain

	for _, i := range samples {
		b.goLeft[i] = b.x[i][bestFeature] <= bestThreshold
	}
	leftOrder := make([][]int, len(order))
	rightOrder := make([][]int, len(order))
	for f, idx := range order {
		l := make([]int, 0, len(idx))
		r := make([]int, 0, len(idx))
		for _, i := range idx {
			if b.goLeft[i] {
				l = append(l, i)
			} else {
				r = append(r, i)
			}
		}
		leftOrder[f], rightOrder[f] = l, r
	}

	left := b.grow(leftOrder, depth+1)
	right := b.grow(rightOrder, depth+1)
	b.nodes[id].Feature = bestFeature
	b.nodes[id].Threshold = bestThreshold
	b.nodes[id].Left = left
	b.nodes[id].Right = right
	return id
}

// candidateFeatures returns the features evaluated at a node.
func (b *treeBuilder) candidateFeatures(nf int) []int {
	k := b.params.maxFeatures
	if k <= 0 || k >= nf || b.rng == nil {
		out := make([]int, nf)
		for i := range out {
			out[i] = i
		}
		return out
	}
	perm := b.rng.Perm(nf)
	return perm[:k]
}

// normalizeImportance scales v to sum to 1. A zero vector is returned unchanged.
func normalizeImportance(v []float64) []float64 {
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	out := make([]float64, len(v))
	if sum <= 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / sum
	}
	return out
}
