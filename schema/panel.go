package schema

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Panel is a set of measured markers for one patient. Demographics (age, gender, bmi) are markers too.
type Panel map[Marker]float64

// markerAliases maps accepted input spellings onto canonical marker names.
var markerAliases = map[string]Marker{
	"gender_encoded": GenderMarker,
	"protein":        TotalProteinMarker,
	"a_g_ratio":      AGRatioMarker,
}

// CanonicalMarker lowercases and trims a marker name and resolves known aliases.
func CanonicalMarker(name string) Marker {
	key := strings.ToLower(strings.TrimSpace(name))
	if m, ok := markerAliases[key]; ok {
		return m
	}
	return Marker(key)
}

// Get returns the value for m and whether it was present.
func (p Panel) Get(m Marker) (float64, bool) {
	v, ok := p[m]
	return v, ok
}

// Clone returns a shallow copy of the panel.
func (p Panel) Clone() Panel {
	if p == nil {
		return Panel{}
	}
	return maps.Clone(p)
}

// Merge returns a copy of p with every value from other applied on top.
func (p Panel) Merge(other Panel) Panel {
	out := p.Clone()
	maps.Copy(out, other)
	return out
}

// IsFinite reports whether v is neither NaN nor an infinity.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate checks that every value is finite and the demographic constraints hold.
func (p Panel) Validate() error {
	for _, m := range slices.Sorted(maps.Keys(p)) {
		if v := p[m]; !IsFinite(v) {
			return fmt.Errorf("%s must be a finite number, got %g", m, v)
		}
	}
	if v, ok := p[AgeMarker]; ok && v <= 0 {
		return fmt.Errorf("age must be positive, got %g", v)
	}
	if v, ok := p[GenderMarker]; ok && v != 0 && v != 1 {
		return fmt.Errorf("gender must be 0 or 1, got %g", v)
	}
	if v, ok := p[BMIMarker]; ok && v <= 0 {
		return fmt.Errorf("bmi must be positive, got %g", v)
	}
	return nil
}

// PanelFromMap builds a panel from loosely named values, resolving aliases.
func PanelFromMap(values map[string]float64) Panel {
	p := make(Panel, len(values))
	for k, v := range values {
		p[CanonicalMarker(k)] = v
	}
	return p
}

// ParseAssignments parses a "marker=value,marker=value" list into a panel.
// Colons are accepted in place of equals signs.
func ParseAssignments(s string) (Panel, error) {
	p := Panel{}
	if strings.TrimSpace(s) == "" {
		return p, nil
	}
	for pair := range strings.SplitSeq(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			k, v, ok = strings.Cut(pair, ":")
		}
		if !ok {
			return nil, fmt.Errorf("invalid marker assignment %q, expected marker=value", pair)
		}
		name := strings.TrimSpace(k)
		if name == "" {
			return nil, fmt.Errorf("empty marker name in %q", pair)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for marker %s: %w", name, err)
		}
		p[CanonicalMarker(name)] = f
	}
	return p, nil
}

// BMI computes body mass index from weight in kilograms and height in centimeters.
func BMI(weightKg, heightCm float64) (float64, error) {
	if weightKg <= 0 || heightCm <= 0 {
		return 0, fmt.Errorf("weight and height must be positive, got %g kg and %g cm", weightKg, heightCm)
	}
	h := heightCm / 100
	return weightKg / (h * h), nil
}

// BMICategory labels a BMI value.
func BMICategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25:
		return "Normal"
	case bmi < 30:
		return "Overweight"
	default:
		return "Obese"
	}
}
