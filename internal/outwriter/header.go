package outwriter

import (
	"fmt"
	"strings"

	"github.com/huangsam/biomarker/internal/contract"
	"github.com/huangsam/biomarker/schema"
)

// LogPanelHeader prints a concise header describing the panel under analysis.
func LogPanelHeader(cfg *contract.Config) {
	known := 0
	for _, m := range schema.BaseMarkers {
		if _, ok := cfg.Panel[m]; ok {
			known++
		}
	}
	extra := len(cfg.Panel) - known
	if cfg.UseEmojis {
		fmt.Printf("🩸 Panel: %d markers (%d of %d model inputs, %d other)\n", len(cfg.Panel), known, len(schema.BaseMarkers), extra)
	} else {
		fmt.Printf("Panel: %d markers (%d of %d model inputs, %d other)\n", len(cfg.Panel), known, len(schema.BaseMarkers), extra)
	}
	if bmi, ok := cfg.Panel[schema.BMIMarker]; ok {
		fmt.Printf("   BMI: %.1f (%s)\n", bmi, schema.BMICategory(bmi))
	}
}

// LogModelHeader prints a concise header describing the model about to be trained.
func LogModelHeader(cfg *contract.Config) {
	source := "synthetic"
	if cfg.DataFile != "" {
		source = "synthetic + " + cfg.DataFile
	}
	if cfg.UseEmojis {
		fmt.Printf("🧪 Training: %d samples (%s, seed %d)\n", cfg.Samples, source, cfg.Seed)
		fmt.Printf("🌲 Model: %d trees, %d estimators (depth %d, rate %g)\n", cfg.Trees, cfg.Estimators, cfg.MaxDepth, cfg.LearningRate)
	} else {
		fmt.Printf("Training: %d samples (%s, seed %d)\n", cfg.Samples, source, cfg.Seed)
		fmt.Printf("Model: %d trees, %d estimators (depth %d, rate %g)\n", cfg.Trees, cfg.Estimators, cfg.MaxDepth, cfg.LearningRate)
	}
	if len(cfg.CustomWeights) > 0 {
		systems := make([]string, 0, len(cfg.CustomWeights))
		for _, s := range schema.AllSystems {
			if _, ok := cfg.CustomWeights[s]; ok {
				systems = append(systems, string(s))
			}
		}
		fmt.Printf("   Custom weights: %s\n", strings.Join(systems, ", "))
	}
}
