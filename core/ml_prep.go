package core

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// standardScaler centers and scales each column with its mean and population standard deviation.
type standardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// fitScaler learns column means and deviations. Constant columns get a scale of 1.
func fitScaler(x [][]float64) *standardScaler {
	nf := len(x[0])
	s := &standardScaler{Mean: make([]float64, nf), Std: make([]float64, nf)}
	col := make([]float64, len(x))
	for f := range nf {
		for i, row := range x {
			col[i] = row[f]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		s.Mean[f], s.Std[f] = mean, std
	}
	return s
}

// transform returns a scaled copy of row.
func (s *standardScaler) transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for f, v := range row {
		out[f] = (v - s.Mean[f]) / s.Std[f]
	}
	return out
}

// median returns the middle of the non-NaN values, averaging the two middles for even counts.
// It returns NaN when no value is present.
func median(values []float64) float64 {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return math.NaN()
	}
	slices.Sort(present)
	mid := len(present) / 2
	if len(present)%2 == 1 {
		return present[mid]
	}
	return (present[mid-1] + present[mid]) / 2
}

// mode returns the most frequent non-NaN value, preferring the smallest on ties.
// It returns NaN when no value is present.
func mode(values []float64) float64 {
	counts := make(map[float64]int)
	for _, v := range values {
		if !math.IsNaN(v) {
			counts[v]++
		}
	}
	best, bestCount := math.NaN(), 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	return best
}

// imputeColumns replaces NaN cells in place with the column fill value and returns the fills.
// Columns listed in categorical use the mode, the rest use the median. A column with no values fills with 0.
func imputeColumns(x [][]float64, categorical map[int]bool) []float64 {
	if len(x) == 0 {
		return nil
	}
	nf := len(x[0])
	fills := make([]float64, nf)
	col := make([]float64, len(x))
	for f := range nf {
		missing := false
		for i, row := range x {
			col[i] = row[f]
			if math.IsNaN(row[f]) {
				missing = true
			}
		}
		if !missing {
			continue
		}
		var fill float64
		if categorical[f] {
			fill = mode(col)
		} else {
			fill = median(col)
		}
		if math.IsNaN(fill) {
			fill = 0
		}
		fills[f] = fill
		for _, row := range x {
			if math.IsNaN(row[f]) {
				row[f] = fill
			}
		}
	}
	return fills
}
