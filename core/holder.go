package core

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/huangsam/biomarker/schema"
)

// Predictor scores a single panel.
type Predictor interface {
	Predict(p schema.Panel) (schema.Prediction, error)
}

// ModelHolder publishes the current model for concurrent readers.
// Readers never block; retraining builds the replacement before swapping it in.
type ModelHolder struct {
	current atomic.Pointer[Model]
	mu      sync.Mutex
}

var _ Predictor = &ModelHolder{}

// NewModelHolder returns a holder publishing m, which may be nil.
func NewModelHolder(m *Model) *ModelHolder {
	h := &ModelHolder{}
	if m != nil {
		h.current.Store(m)
	}
	return h
}

// Load returns the published model or nil.
func (h *ModelHolder) Load() *Model {
	return h.current.Load()
}

// LoadOrInit returns the published model. When there is none it publishes the result of build,
// which runs at most once for concurrent callers that all find the holder empty.
func (h *ModelHolder) LoadOrInit(ctx context.Context, build func(context.Context) (*Model, error)) (*Model, error) {
	if m := h.current.Load(); m != nil {
		return m, nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.current.Load(); m != nil {
		return m, nil
	}
	m, err := build(ctx)
	if err != nil {
		return nil, err
	}
	h.current.Store(m)
	return m, nil
}

// Publish swaps in m and returns the model it replaced.
func (h *ModelHolder) Publish(m *Model) *Model {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current.Swap(m)
}

// Retrain fits a new model and publishes it. The current model keeps serving until the swap.
func (h *ModelHolder) Retrain(ctx context.Context, opts TrainOptions, datasets ...schema.Dataset) (*Model, error) {
	m, err := Train(ctx, opts, datasets...)
	if err != nil {
		return nil, err
	}
	h.Publish(m)
	return m, nil
}

// Predict scores p with the published model.
func (h *ModelHolder) Predict(p schema.Panel) (schema.Prediction, error) {
	m := h.Load()
	if m == nil {
		return schema.Prediction{}, &UntrainedModelError{Op: "predict"}
	}
	return m.Predict(p)
}
