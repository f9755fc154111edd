package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestContextConcurrentAccess tests that context values can be safely accessed concurrently.
func TestContextConcurrentAccess(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())
	ctx = withAnalysisID(ctx, 12345)

	const numGoroutines = 50
	var wg sync.WaitGroup
	for i := range numGoroutines {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			analysisID, ok := getAnalysisID(ctx)
			assert.True(t, shouldSuppressHeader(ctx), "Goroutine %d: shouldSuppressHeader should be true", id)
			assert.True(t, ok, "Goroutine %d: getAnalysisID should return true", id)
			assert.Equal(t, int64(12345), analysisID, "Goroutine %d: analysisID should be 12345", id)
		}(i)
	}
	wg.Wait()
}

// TestContextIsolation tests that different contexts maintain isolation.
func TestContextIsolation(t *testing.T) {
	baseCtx := context.Background()

	ctx1 := withAnalysisID(baseCtx, 1)
	ctx2 := WithSuppressHeader(baseCtx)

	id1, ok1 := getAnalysisID(ctx1)
	assert.True(t, ok1)
	assert.Equal(t, int64(1), id1)
	assert.False(t, shouldSuppressHeader(ctx1))

	id2, ok2 := getAnalysisID(ctx2)
	assert.False(t, ok2)
	assert.Equal(t, int64(0), id2)
	assert.True(t, shouldSuppressHeader(ctx2))

	assert.False(t, shouldSuppressHeader(baseCtx))
}
