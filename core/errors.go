package core

import (
	"fmt"

	"github.com/huangsam/biomarker/schema"
)

// MissingFeatureError is returned when a formula references a marker the reference table does not know.
type MissingFeatureError struct {
	Marker schema.Marker
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("missing feature: marker %q is not in the reference table", e.Marker)
}

// UntrainedModelError is returned when an operation needs a trained model and none is published.
type UntrainedModelError struct {
	Op string
}

func (e *UntrainedModelError) Error() string {
	return fmt.Sprintf("%s: model has not been trained", e.Op)
}

// TrainingDataError is returned when a dataset cannot be used for training.
type TrainingDataError struct {
	Reason string
}

func (e *TrainingDataError) Error() string {
	return "invalid training data: " + e.Reason
}
