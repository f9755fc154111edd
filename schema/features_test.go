package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvancedFeatureSetRoundTrip(t *testing.T) {
	in := make(map[Feature]float64, len(AllFeatures))
	for i, f := range AllFeatures {
		in[f] = float64(i + 1)
	}
	set := AdvancedFeatureSetFromMap(in)
	assert.Equal(t, in, set.Map())

	values := set.Values()
	require.Len(t, values, len(AllFeatures))
	assert.Equal(t, 1.0, values[0])
	assert.Equal(t, 15.0, values[14])

	_, ok := set.Get(Feature("nope"))
	assert.False(t, ok)
}

func TestSystemScoreSetSet(t *testing.T) {
	var s SystemScoreSet
	for i, sys := range AllSystems {
		require.NoError(t, s.Set(sys, float64(i*10)))
	}
	assert.Equal(t, []float64{0, 10, 20, 30, 40, 50}, s.Values())
	assert.Error(t, s.Set(System("lungs"), 1))
}

func TestScoresFromValues(t *testing.T) {
	s, err := ScoresFromValues([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.Health)
	assert.Equal(t, 9.0, s.Digestive)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}, s.Values())

	_, err = ScoresFromValues([]float64{1})
	assert.Error(t, err)
}

func TestFeatureNames(t *testing.T) {
	names := FeatureNames()
	require.Len(t, names, 40)
	assert.Equal(t, "age", names[0])
	assert.Equal(t, "ag_ratio", names[24])
	assert.Equal(t, "insulin_resistance_index", names[25])
	assert.Equal(t, "vascular_health_score", names[39])
}
