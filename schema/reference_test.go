package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeNormalize(t *testing.T) {
	r := Range{Min: 70, Max: 100}
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"at min", 70, 0},
		{"at max", 100, 1},
		{"midpoint", 85, 0.5},
		{"below min clamps", 10, 0},
		{"above max clamps", 300, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, r.Normalize(tt.in), 1e-9)
		})
	}

	assert.Equal(t, 0.5, Range{Min: 5, Max: 5}.Normalize(7), "degenerate range normalizes to midpoint")
}

func TestDefaultReferenceTableWeightsSumToOne(t *testing.T) {
	table := DefaultReferenceTable()
	require.NoError(t, table.ValidateWeights())

	weights := table.SystemWeights()
	for _, s := range AllSystems {
		assert.NotEmpty(t, weights[s], "system %s has no weights", s)
	}
	assert.Equal(t, 0.15, weights[KidneySystem][ChlorideMarker])
	assert.Equal(t, 0.4, weights[EndocrineSystem][GlucoseMarker])
}

func TestDefaultReferenceTableCoversAllMarkers(t *testing.T) {
	table := DefaultReferenceTable()
	for _, m := range append(append([]Marker{}, BaseMarkers...), AdvancedMarkers...) {
		e, ok := table[m]
		require.True(t, ok, "missing marker %s", m)
		assert.Equal(t, m, e.Marker)
		assert.LessOrEqual(t, e.Plausible.Min, e.Plausible.Max)
	}
	for _, m := range AdvancedMarkers {
		assert.True(t, table[m].Fallback, "advanced marker %s should carry a fallback", m)
	}
	assert.False(t, table[GlucoseMarker].Fallback)
	assert.Len(t, table.Markers(), len(BaseMarkers)+len(AdvancedMarkers))
	assert.Equal(t, AgeMarker, table.Markers()[0])
}

func TestWithSystemWeights(t *testing.T) {
	table := DefaultReferenceTable()
	custom := table.WithSystemWeights(map[System]map[Marker]float64{
		LiverSystem: {ALTMarker: 0.5, ASTMarker: 0.5},
	})

	liver := custom.SystemWeights()[LiverSystem]
	assert.Equal(t, map[Marker]float64{ALTMarker: 0.5, ASTMarker: 0.5}, liver)
	require.NoError(t, custom.ValidateWeights())

	// The original table is untouched.
	assert.Equal(t, 0.2, table.SystemWeights()[LiverSystem][BilirubinMarker])
	// Other systems sharing a marker keep their weights.
	assert.Equal(t, 0.2, custom.SystemWeights()[DigestiveSystem][BilirubinMarker])
}

func TestValidateWeightsRejectsBadSum(t *testing.T) {
	table := DefaultReferenceTable().WithSystemWeights(map[System]map[Marker]float64{
		CardioSystem: {HDLMarker: 0.7},
	})
	err := table.ValidateWeights()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cardio")
}

func TestIdealPanel(t *testing.T) {
	table := DefaultReferenceTable()
	p := table.IdealPanel()
	assert.Equal(t, 100.0, p[GlucoseMarker])
	assert.Equal(t, 5.0, p[AlbuminMarker])
	_, hasCRP := p[CRPMarker]
	assert.False(t, hasCRP, "markers without a normal range are left out")
}

func TestClone(t *testing.T) {
	table := DefaultReferenceTable()
	c := table.Clone()
	c[GlucoseMarker].Normal.Max = 1
	c[GlucoseMarker].Weights[CardioSystem] = 9
	assert.Equal(t, 100.0, table[GlucoseMarker].Normal.Max)
	assert.Equal(t, 0.1, table[GlucoseMarker].Weights[CardioSystem])
}
