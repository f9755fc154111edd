package schema

import (
	"fmt"
	"maps"
	"math"
	"slices"
)

// Range is a closed [Min, Max] interval for a marker.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Normalize maps v linearly onto [0,1] and clamps the result.
func (r Range) Normalize(v float64) float64 {
	span := r.Max - r.Min
	if span <= 0 {
		return 0.5
	}
	return Clip((v-r.Min)/span, 0, 1)
}

// Clamp bounds v to the range.
func (r Range) Clamp(v float64) float64 {
	return Clip(v, r.Min, r.Max)
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// DistributionKind names a marginal distribution used for synthetic generation.
type DistributionKind string

// Supported marginal distributions.
const (
	NormalDist    DistributionKind = "normal"
	LogNormalDist DistributionKind = "lognormal"
	BinaryDist    DistributionKind = "binary"
)

// Distribution describes how a marker is drawn for synthetic patients.
// For LogNormalDist, Mu and Sigma parameterize the underlying normal.
type Distribution struct {
	Kind  DistributionKind `json:"kind"`
	Mu    float64          `json:"mu"`
	Sigma float64          `json:"sigma"`
}

// ReferenceEntry is one row of the canonical reference table.
type ReferenceEntry struct {
	Marker    Marker             `json:"marker"`
	Unit      string             `json:"unit"`
	Normal    *Range             `json:"normal,omitempty"` // normalization range for system scores
	Plausible Range              `json:"plausible"`        // generation bounds
	Dist      Distribution       `json:"distribution"`
	Default   float64            `json:"default"`
	Fallback  bool               `json:"fallback"` // Default substitutes an absent value in index formulas
	Weights   map[System]float64 `json:"weights,omitempty"`
}

// ReferenceTable is keyed by marker and drives clamping, normalization, defaults and weights.
type ReferenceTable map[Marker]ReferenceEntry

func normal(lo, hi float64) *Range { return &Range{Min: lo, Max: hi} }

func gauss(mu, sigma float64) Distribution {
	return Distribution{Kind: NormalDist, Mu: mu, Sigma: sigma}
}

func logGauss(mu, sigma float64) Distribution {
	return Distribution{Kind: LogNormalDist, Mu: mu, Sigma: sigma}
}

// DefaultReferenceTable returns a fresh copy of the built-in reference table.
func DefaultReferenceTable() ReferenceTable {
	t := ReferenceTable{
		AgeMarker:    {Unit: "years", Plausible: Range{18, 90}, Dist: gauss(45, 15), Default: 45},
		GenderMarker: {Unit: "0=F,1=M", Plausible: Range{0, 1}, Dist: Distribution{Kind: BinaryDist}, Default: 0},
		BMIMarker:    {Unit: "kg/m2", Plausible: Range{18.5, 35}, Dist: gauss(25, 4), Default: 25},

		GlucoseMarker: {
			Unit: "mg/dL", Normal: normal(70, 100), Plausible: Range{70, 180}, Dist: gauss(95, 15), Default: 90,
			Weights: map[System]float64{CardioSystem: 0.1, EndocrineSystem: 0.4},
		},
		CholesterolMarker: {
			Unit: "mg/dL", Normal: normal(125, 200), Plausible: Range{150, 250}, Dist: gauss(180, 30), Default: 180,
			Weights: map[System]float64{CardioSystem: 0.25},
		},
		TriglyceridesMarker: {
			Unit: "mg/dL", Normal: normal(0, 150), Plausible: Range{50, 250}, Dist: logGauss(5.0, 0.4), Default: 150,
			Weights: map[System]float64{CardioSystem: 0.25},
		},
		HDLMarker: {
			Unit: "mg/dL", Normal: normal(40, 60), Plausible: Range{35, 85}, Dist: gauss(55, 10), Default: 50,
			Weights: map[System]float64{CardioSystem: 0.2},
		},
		LDLMarker: {
			Unit: "mg/dL", Normal: normal(0, 100), Plausible: Range{70, 160}, Dist: gauss(100, 20), Default: 100,
			Weights: map[System]float64{CardioSystem: 0.2},
		},
		ALTMarker: {
			Unit: "U/L", Normal: normal(7, 56), Plausible: Range{10, 60}, Dist: logGauss(3.2, 0.3), Default: 25,
			Weights: map[System]float64{LiverSystem: 0.3},
		},
		ASTMarker: {
			Unit: "U/L", Normal: normal(10, 40), Plausible: Range{10, 50}, Dist: logGauss(3.1, 0.3), Default: 23,
			Weights: map[System]float64{LiverSystem: 0.3},
		},
		BilirubinMarker: {
			Unit: "mg/dL", Normal: normal(0.3, 1.2), Plausible: Range{0.3, 1.5}, Dist: gauss(0.8, 0.2), Default: 0.8,
			Weights: map[System]float64{LiverSystem: 0.2, DigestiveSystem: 0.2},
		},
		AlkalinePhosphataseMarker: {
			Unit: "U/L", Normal: normal(44, 147), Plausible: Range{45, 125}, Dist: gauss(75, 15), Default: 75,
			Weights: map[System]float64{LiverSystem: 0.2, DigestiveSystem: 0.2},
		},
		CreatinineMarker: {
			Unit: "mg/dL", Normal: normal(0.6, 1.2), Plausible: Range{0.6, 1.4}, Dist: gauss(0.9, 0.2), Default: 0.9,
			Weights: map[System]float64{KidneySystem: 0.3},
		},
		BUNMarker: {
			Unit: "mg/dL", Normal: normal(7, 20), Plausible: Range{8, 25}, Dist: gauss(15, 3), Default: 15,
			Weights: map[System]float64{KidneySystem: 0.2},
		},
		SodiumMarker: {
			Unit: "mmol/L", Normal: normal(135, 145), Plausible: Range{135, 145}, Dist: gauss(140, 2), Default: 140,
			Weights: map[System]float64{KidneySystem: 0.2},
		},
		PotassiumMarker: {
			Unit: "mmol/L", Normal: normal(3.5, 5.0), Plausible: Range{3.5, 5.0}, Dist: gauss(4.0, 0.3), Default: 4.0,
			Weights: map[System]float64{KidneySystem: 0.15},
		},
		ChlorideMarker: {
			Unit: "mmol/L", Normal: normal(96, 106), Plausible: Range{98, 106}, Dist: gauss(102, 2), Default: 102,
			Weights: map[System]float64{KidneySystem: 0.15},
		},
		BicarbonateMarker: {
			Unit: "mmol/L", Normal: normal(23, 29), Plausible: Range{22, 28}, Dist: gauss(24, 1.5), Default: 24,
		},
		CalciumMarker: {
			Unit: "mg/dL", Normal: normal(8.5, 10.5), Plausible: Range{8.8, 10.2}, Dist: gauss(9.5, 0.3), Default: 9.5,
			Weights: map[System]float64{EndocrineSystem: 0.2},
		},
		MagnesiumMarker: {
			Unit: "mg/dL", Normal: normal(1.7, 2.3), Plausible: Range{1.7, 2.3}, Dist: gauss(2.0, 0.15), Default: 2.0,
			Weights: map[System]float64{EndocrineSystem: 0.2},
		},
		PhosphateMarker: {
			Unit: "mg/dL", Normal: normal(2.5, 4.5), Plausible: Range{2.8, 4.2}, Dist: gauss(3.5, 0.3), Default: 3.5,
			Weights: map[System]float64{EndocrineSystem: 0.2},
		},
		TotalProteinMarker: {
			Unit: "g/dL", Normal: normal(6.0, 8.0), Plausible: Range{6.2, 7.8}, Dist: gauss(7.0, 0.3), Default: 7.0,
			Weights: map[System]float64{ImmuneSystem: 0.3, DigestiveSystem: 0.3},
		},
		AlbuminMarker: {
			Unit: "g/dL", Normal: normal(3.5, 5.0), Plausible: Range{3.8, 4.8}, Dist: gauss(4.2, 0.2), Default: 4.2,
			Weights: map[System]float64{ImmuneSystem: 0.3, DigestiveSystem: 0.3},
		},
		GlobulinMarker: {
			Unit: "g/dL", Normal: normal(2.0, 3.5), Plausible: Range{2.3, 3.3}, Dist: gauss(2.8, 0.2), Default: 2.8,
			Weights: map[System]float64{ImmuneSystem: 0.2},
		},
		AGRatioMarker: {
			Unit: "ratio", Normal: normal(1.1, 2.5), Plausible: Range{1.2, 1.8}, Dist: gauss(1.5, 0.15), Default: 1.5,
			Weights: map[System]float64{ImmuneSystem: 0.2},
		},

		CRPMarker:             {Unit: "mg/L", Plausible: Range{0.1, 10}, Dist: logGauss(0, 0.5), Default: 2.0, Fallback: true},
		ESRMarker:             {Unit: "mm/hr", Plausible: Range{0, 50}, Dist: gauss(15, 8), Default: 15, Fallback: true},
		FibrinogenMarker:      {Unit: "mg/dL", Plausible: Range{200, 500}, Dist: gauss(300, 40), Default: 300, Fallback: true},
		MalondialdehydeMarker: {Unit: "nmol/mL", Plausible: Range{0.1, 3}, Dist: logGauss(-0.5, 0.4), Default: 1.0, Fallback: true},
		OHdGMarker:            {Unit: "ng/mL", Plausible: Range{0.1, 5}, Dist: logGauss(0, 0.4), Default: 2.0, Fallback: true},
		TestosteroneMarker:    {Unit: "ng/dL", Plausible: Range{200, 1200}, Dist: gauss(600, 150), Default: 600, Fallback: true},
		EstradiolMarker:       {Unit: "pg/mL", Plausible: Range{10, 100}, Dist: gauss(50, 15), Default: 50, Fallback: true},
		CortisolMarker:        {Unit: "ug/dL", Plausible: Range{5, 30}, Dist: gauss(15, 4), Default: 15, Fallback: true},
	}
	for m, e := range t {
		e.Marker = m
		t[m] = e
	}
	return t
}

// Markers returns the markers in the table: base markers first, then advanced ones, then any extras sorted.
func (t ReferenceTable) Markers() []Marker {
	seen := make(map[Marker]struct{}, len(t))
	var out []Marker
	for _, group := range [][]Marker{BaseMarkers, AdvancedMarkers} {
		for _, m := range group {
			if _, ok := t[m]; ok {
				out = append(out, m)
				seen[m] = struct{}{}
			}
		}
	}
	var extra []Marker
	for m := range t {
		if _, ok := seen[m]; !ok {
			extra = append(extra, m)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

// NormalRange returns the normalization range for a marker, if one is defined.
func (t ReferenceTable) NormalRange(m Marker) (Range, bool) {
	e, ok := t[m]
	if !ok || e.Normal == nil {
		return Range{}, false
	}
	return *e.Normal, true
}

// SystemWeights returns weights keyed by system then marker.
func (t ReferenceTable) SystemWeights() map[System]map[Marker]float64 {
	out := make(map[System]map[Marker]float64, len(AllSystems))
	for _, s := range AllSystems {
		out[s] = make(map[Marker]float64)
	}
	for m, e := range t {
		for s, w := range e.Weights {
			if out[s] == nil {
				out[s] = make(map[Marker]float64)
			}
			out[s][m] = w
		}
	}
	return out
}

// Clone returns a deep copy of the table.
func (t ReferenceTable) Clone() ReferenceTable {
	out := make(ReferenceTable, len(t))
	for m, e := range t {
		if e.Normal != nil {
			r := *e.Normal
			e.Normal = &r
		}
		if e.Weights != nil {
			e.Weights = maps.Clone(e.Weights)
		}
		out[m] = e
	}
	return out
}

// WithSystemWeights returns a copy of the table where every system present in
// overrides has its weights replaced entirely by the override set.
// A weighted marker unknown to the table is added with no normal range.
func (t ReferenceTable) WithSystemWeights(overrides map[System]map[Marker]float64) ReferenceTable {
	out := t.Clone()
	for s, weights := range overrides {
		for m, e := range out {
			if _, ok := e.Weights[s]; ok {
				delete(e.Weights, s)
				out[m] = e
			}
		}
		for m, w := range weights {
			e, ok := out[m]
			if !ok {
				e = ReferenceEntry{Marker: m}
			}
			if e.Weights == nil {
				e.Weights = make(map[System]float64)
			}
			e.Weights[s] = w
			out[m] = e
		}
	}
	return out
}

// ValidateWeights checks that every system's weights sum to 1.0.
func (t ReferenceTable) ValidateWeights() error {
	for s, weights := range t.SystemWeights() {
		if len(weights) == 0 {
			continue
		}
		sum := 0.0
		for _, w := range weights {
			sum += w
		}
		if math.Abs(sum-1.0) > 0.001 {
			return fmt.Errorf("weights for system %s must sum to 1.0, got %.3f", s, sum)
		}
	}
	return nil
}

// IdealPanel returns a panel with every normalized marker at the upper bound
// of its normal range, which saturates every system score at 100.
func (t ReferenceTable) IdealPanel() Panel {
	p := make(Panel)
	for m, e := range t {
		if e.Normal != nil {
			p[m] = e.Normal.Max
		}
	}
	return p
}

// DefaultPanel returns a panel populated with each marker's default value.
func (t ReferenceTable) DefaultPanel() Panel {
	p := make(Panel, len(t))
	for m, e := range t {
		p[m] = e.Default
	}
	return p
}

// Clip bounds v to [lo, hi].
func Clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
