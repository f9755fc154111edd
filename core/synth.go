package core

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/huangsam/biomarker/schema"
)

const (
	// DefaultSamples is the default number of synthetic patients.
	DefaultSamples = 1000

	// DefaultSeed seeds every reproducible random stream.
	DefaultSeed uint64 = 42
)

// NewSource returns the deterministic random source used for a seed.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed)
}

// Generator draws synthetic patient panels from the reference table distributions.
type Generator struct {
	engine *FeatureEngine
	src    rand.Source
}

// NewGenerator creates a generator that draws from src and featurizes with engine.
func NewGenerator(engine *FeatureEngine, src rand.Source) *Generator {
	if engine == nil {
		engine = DefaultFeatureEngine()
	}
	return &Generator{engine: engine, src: src}
}

// GenerateSyntheticDataset generates n records with the default seed and reference table.
func GenerateSyntheticDataset(n int) (schema.Dataset, error) {
	return NewGenerator(nil, NewSource(DefaultSeed)).Generate(n)
}

// Generate draws n records, applies the cross-marker corrections, derives dependent markers
// and computes features.
func (g *Generator) Generate(n int) (schema.Dataset, error) {
	if n <= 0 {
		return nil, fmt.Errorf("sample count must be positive, got %d", n)
	}
	table := g.engine.table
	markers := table.Markers()

	columns := make(map[schema.Marker][]float64, len(markers))
	for _, m := range markers {
		entry := table[m]
		col := make([]float64, n)
		draw := g.sampler(entry.Dist)
		for i := range col {
			col[i] = entry.Plausible.Clamp(draw())
		}
		columns[m] = col
	}

	g.correct(columns, n)
	g.derive(columns, n)

	for _, m := range markers {
		bounds := table[m].Plausible
		for i, v := range columns[m] {
			columns[m][i] = bounds.Clamp(v)
		}
	}

	ds := make(schema.Dataset, n)
	for i := range n {
		panel := make(schema.Panel, len(markers))
		for _, m := range markers {
			panel[m] = columns[m][i]
		}
		adv, err := g.engine.AdvancedFeatures(panel)
		if err != nil {
			return nil, fmt.Errorf("computing features for record %d: %w", i, err)
		}
		ds[i] = schema.Record{Markers: panel, Features: &adv, Source: schema.SyntheticSource}
	}
	return ds, nil
}

// sampler returns a draw function for a marginal distribution.
func (g *Generator) sampler(d schema.Distribution) func() float64 {
	switch d.Kind {
	case schema.LogNormalDist:
		return distuv.LogNormal{Mu: d.Mu, Sigma: d.Sigma, Src: g.src}.Rand
	case schema.BinaryDist:
		return distuv.Bernoulli{P: 0.5, Src: g.src}.Rand
	default:
		return distuv.Normal{Mu: d.Mu, Sigma: d.Sigma, Src: g.src}.Rand
	}
}

// derivedMarkers must all be present for the derived-marker pass to apply.
var derivedMarkers = []schema.Marker{
	schema.CholesterolMarker, schema.HDLMarker, schema.LDLMarker, schema.TriglyceridesMarker,
	schema.ALTMarker, schema.ASTMarker,
	schema.TotalProteinMarker, schema.AlbuminMarker, schema.GlobulinMarker, schema.AGRatioMarker,
}

// correlatedMarkers must all be present for the corrections to apply.
var correlatedMarkers = []schema.Marker{
	schema.AgeMarker, schema.GenderMarker, schema.BMIMarker,
	schema.CholesterolMarker, schema.GlucoseMarker, schema.HDLMarker, schema.TriglyceridesMarker,
	schema.TestosteroneMarker, schema.EstradiolMarker,
}

// correct applies the second-pass correlations between markers in place.
func (g *Generator) correct(c map[schema.Marker][]float64, n int) {
	for _, m := range correlatedMarkers {
		if len(c[m]) != n {
			return
		}
	}
	bmiZ := zScores(c[schema.BMIMarker])
	ageZ := zScores(c[schema.AgeMarker])

	chol := c[schema.CholesterolMarker]
	glu := c[schema.GlucoseMarker]
	hdl := c[schema.HDLMarker]
	tg := c[schema.TriglyceridesMarker]
	testo := c[schema.TestosteroneMarker]
	estr := c[schema.EstradiolMarker]
	age := c[schema.AgeMarker]
	gender := c[schema.GenderMarker]
	bmi := c[schema.BMIMarker]

	for i := range n {
		chol[i] += 10*bmiZ[i] + 5*ageZ[i]
		glu[i] += 5*bmiZ[i] + 3*ageZ[i]

		if age[i] > 60 {
			hdl[i] *= 0.9
			testo[i] *= 0.8
			estr[i] *= 0.85
		}
		if gender[i] == 0 {
			testo[i] *= 0.15
		} else {
			estr[i] *= 0.3
		}
		if bmi[i] > 30 {
			glu[i] *= 1.15
			chol[i] *= 1.2
			tg[i] *= 1.25
		}
	}
}

// derive rebuilds the markers that follow from others: the lipid split, AST from ALT
// and the protein fractions.
func (g *Generator) derive(c map[schema.Marker][]float64, n int) {
	for _, m := range derivedMarkers {
		if len(c[m]) != n {
			return
		}
	}
	chol := c[schema.CholesterolMarker]
	hdl := c[schema.HDLMarker]
	ldl := c[schema.LDLMarker]
	tg := c[schema.TriglyceridesMarker]
	alt := c[schema.ALTMarker]
	ast := c[schema.ASTMarker]
	protein := c[schema.TotalProteinMarker]
	albumin := c[schema.AlbuminMarker]
	globulin := c[schema.GlobulinMarker]
	ratio := c[schema.AGRatioMarker]

	astNoise := distuv.Normal{Mu: 0, Sigma: 2, Src: g.src}
	for i := range n {
		hdl[i] -= 0.3 * tg[i] / 100
		ldl[i] = chol[i] - hdl[i] - tg[i]/5
		ast[i] = 0.8*alt[i] + astNoise.Rand()
		globulin[i] = protein[i] - albumin[i]
		if globulin[i] > 0 {
			ratio[i] = albumin[i] / globulin[i]
		}
	}
}

// zScores standardizes x with its population mean and standard deviation.
func zScores(x []float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	mean, std := stat.PopMeanStdDev(x, nil)
	if std == 0 {
		return out
	}
	for i, v := range x {
		out[i] = (v - mean) / std
	}
	return out
}
