package schema

import "fmt"

// AdvancedFeatureSet holds the 15 derived indices for one panel, each in [0,100].
type AdvancedFeatureSet struct {
	InsulinResistanceIndex   float64 `json:"insulin_resistance_index"`
	MetabolicSyndromeScore   float64 `json:"metabolic_syndrome_score"`
	InflammationIndex        float64 `json:"inflammation_index"`
	OxidativeStressScore     float64 `json:"oxidative_stress_score"`
	HormoneBalanceIndex      float64 `json:"hormone_balance_index"`
	CardiovascularRiskIndex  float64 `json:"cardiovascular_risk_index"`
	LiverHealthIndex         float64 `json:"liver_health_index"`
	KidneyFunctionIndex      float64 `json:"kidney_function_index"`
	MetabolicEfficiencyScore float64 `json:"metabolic_efficiency_score"`
	ImmuneSystemScore        float64 `json:"immune_system_score"`
	EndocrineBalanceScore    float64 `json:"endocrine_balance_score"`
	DigestiveHealthScore     float64 `json:"digestive_health_score"`
	BoneHealthIndex          float64 `json:"bone_health_index"`
	MuscleMassIndex          float64 `json:"muscle_mass_index"`
	VascularHealthScore      float64 `json:"vascular_health_score"`
}

// Get returns the value of a feature by name.
func (a AdvancedFeatureSet) Get(f Feature) (float64, bool) {
	switch f {
	case InsulinResistanceFeature:
		return a.InsulinResistanceIndex, true
	case MetabolicSyndromeFeature:
		return a.MetabolicSyndromeScore, true
	case InflammationFeature:
		return a.InflammationIndex, true
	case OxidativeStressFeature:
		return a.OxidativeStressScore, true
	case HormoneBalanceFeature:
		return a.HormoneBalanceIndex, true
	case CardiovascularRiskFeature:
		return a.CardiovascularRiskIndex, true
	case LiverHealthFeature:
		return a.LiverHealthIndex, true
	case KidneyFunctionFeature:
		return a.KidneyFunctionIndex, true
	case MetabolicEfficiencyFeature:
		return a.MetabolicEfficiencyScore, true
	case ImmuneSystemFeature:
		return a.ImmuneSystemScore, true
	case EndocrineBalanceFeature:
		return a.EndocrineBalanceScore, true
	case DigestiveHealthFeature:
		return a.DigestiveHealthScore, true
	case BoneHealthFeature:
		return a.BoneHealthIndex, true
	case MuscleMassFeature:
		return a.MuscleMassIndex, true
	case VascularHealthFeature:
		return a.VascularHealthScore, true
	}
	return 0, false
}

// Values returns the features in AllFeatures order.
func (a AdvancedFeatureSet) Values() []float64 {
	out := make([]float64, len(AllFeatures))
	for i, f := range AllFeatures {
		out[i], _ = a.Get(f)
	}
	return out
}

// Map returns the features keyed by name.
func (a AdvancedFeatureSet) Map() map[Feature]float64 {
	out := make(map[Feature]float64, len(AllFeatures))
	for _, f := range AllFeatures {
		out[f], _ = a.Get(f)
	}
	return out
}

// AdvancedFeatureSetFromMap builds a feature set from named values. Absent names stay 0.
func AdvancedFeatureSetFromMap(m map[Feature]float64) AdvancedFeatureSet {
	return AdvancedFeatureSet{
		InsulinResistanceIndex:   m[InsulinResistanceFeature],
		MetabolicSyndromeScore:   m[MetabolicSyndromeFeature],
		InflammationIndex:        m[InflammationFeature],
		OxidativeStressScore:     m[OxidativeStressFeature],
		HormoneBalanceIndex:      m[HormoneBalanceFeature],
		CardiovascularRiskIndex:  m[CardiovascularRiskFeature],
		LiverHealthIndex:         m[LiverHealthFeature],
		KidneyFunctionIndex:      m[KidneyFunctionFeature],
		MetabolicEfficiencyScore: m[MetabolicEfficiencyFeature],
		ImmuneSystemScore:        m[ImmuneSystemFeature],
		EndocrineBalanceScore:    m[EndocrineBalanceFeature],
		DigestiveHealthScore:     m[DigestiveHealthFeature],
		BoneHealthIndex:          m[BoneHealthFeature],
		MuscleMassIndex:          m[MuscleMassFeature],
		VascularHealthScore:      m[VascularHealthFeature],
	}
}

// SystemScoreSet holds the weighted organ-system scores for one panel.
type SystemScoreSet struct {
	Liver     float64 `json:"liver"`
	Kidney    float64 `json:"kidney"`
	Cardio    float64 `json:"cardio"`
	Endocrine float64 `json:"endocrine"`
	Immune    float64 `json:"immune"`
	Digestive float64 `json:"digestive"`
}

// Get returns the score for a system.
func (s SystemScoreSet) Get(sys System) (float64, bool) {
	switch sys {
	case LiverSystem:
		return s.Liver, true
	case KidneySystem:
		return s.Kidney, true
	case CardioSystem:
		return s.Cardio, true
	case EndocrineSystem:
		return s.Endocrine, true
	case ImmuneSystem:
		return s.Immune, true
	case DigestiveSystem:
		return s.Digestive, true
	}
	return 0, false
}

// Set assigns the score for a system.
func (s *SystemScoreSet) Set(sys System, v float64) error {
	switch sys {
	case LiverSystem:
		s.Liver = v
	case KidneySystem:
		s.Kidney = v
	case CardioSystem:
		s.Cardio = v
	case EndocrineSystem:
		s.Endocrine = v
	case ImmuneSystem:
		s.Immune = v
	case DigestiveSystem:
		s.Digestive = v
	default:
		return fmt.Errorf("unknown system %q", sys)
	}
	return nil
}

// Values returns the scores in AllSystems order.
func (s SystemScoreSet) Values() []float64 {
	out := make([]float64, len(AllSystems))
	for i, sys := range AllSystems {
		out[i], _ = s.Get(sys)
	}
	return out
}

// Map returns the scores keyed by system.
func (s SystemScoreSet) Map() map[System]float64 {
	out := make(map[System]float64, len(AllSystems))
	for _, sys := range AllSystems {
		out[sys], _ = s.Get(sys)
	}
	return out
}
