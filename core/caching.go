package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/biomarker/internal/contract"
	"github.com/huangsam/biomarker/schema"
)

// currentCacheVersion defines the version of the cached model layout
const currentCacheVersion = 1

// modelCacheTTL is how long a cached model stays usable
const modelCacheTTL = 7 * 24 * time.Hour

// cachedModel returns a model for cfg, reusing a cached one when the training inputs match.
func cachedModel(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, engine *FeatureEngine, external schema.Dataset) (*Model, error) {
	var store contract.CacheStore
	if mgr != nil {
		store = mgr.GetModelStore()
	}
	if store == nil {
		// Fallback to direct computation
		return trainFromConfig(ctx, cfg, engine, external)
	}

	key := generateCacheKey(cfg, external)

	// Check for cache hit
	if m := checkCacheHit(store, key, engine); m != nil {
		return m, nil
	}

	// Cache miss: compute and store
	return computeAndStore(ctx, cfg, engine, external, store, key)
}

// checkCacheHit attempts to retrieve and validate a cached model
func checkCacheHit(store contract.CacheStore, key string, engine *FeatureEngine) *Model {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > modelCacheTTL {
		return nil
	}
	m, err := UnmarshalModel(data, engine)
	if err != nil {
		return nil
	}
	return m
}

// computeAndStore trains the model and stores it in cache
func computeAndStore(ctx context.Context, cfg *contract.Config, engine *FeatureEngine, external schema.Dataset, store contract.CacheStore, key string) (*Model, error) {
	m, err := trainFromConfig(ctx, cfg, engine, external)
	if err != nil {
		return nil, err
	}
	storeModel(store, key, m)
	return m, nil
}

// storeModel writes m under key. Failures only cost a retrain next time.
func storeModel(store contract.CacheStore, key string, m *Model) {
	if store == nil {
		return
	}
	data, err := json.Marshal(m)
	if err != nil {
		contract.LogWarn("Failed to encode model for cache", err)
		return
	}
	if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
		contract.LogWarn("Failed to store model in cache", err)
	}
}

// generateCacheKey creates a unique key from the training parameters and the data they see
func generateCacheKey(cfg *contract.Config, external schema.Dataset) string {
	key := fmt.Sprintf("%d:%d:%d:%d:%d:%g:%g:%s:%s",
		cfg.Samples,
		cfg.Seed,
		cfg.Trees,
		cfg.Estimators,
		cfg.MaxDepth,
		cfg.LearningRate,
		cfg.RiskThreshold,
		weightsFingerprint(cfg.CustomWeights),
		datasetFingerprint(external),
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}

// weightsFingerprint renders custom weights in a stable order
func weightsFingerprint(weights map[schema.System]map[schema.Marker]float64) string {
	var parts []string
	for sys, markers := range weights {
		for m, w := range markers {
			parts = append(parts, fmt.Sprintf("%s.%s=%g", sys, m, w))
		}
	}
	slices.Sort(parts)
	return strings.Join(parts, ",")
}

// datasetFingerprint hashes the external records; encoding/json sorts map keys so equal data hashes equally
func datasetFingerprint(ds schema.Dataset) string {
	if len(ds) == 0 {
		return ""
	}
	data, err := json.Marshal(ds)
	if err != nil {
		return fmt.Sprintf("unhashable:%d", len(ds))
	}
	return fmt.Sprintf("%x", sha256.Sum256(data))
}
