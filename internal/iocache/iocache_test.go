package iocache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/biomarker/schema"
)

// resetGlobals lets a test run InitStores and CloseStores again.
func resetGlobals(t *testing.T) {
	t.Helper()
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	Manager = &CacheStoreManager{}
	t.Cleanup(func() {
		CloseStores()
		initOnce = sync.Once{}
		closeOnce = sync.Once{}
		Manager = &CacheStoreManager{}
	})
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		wantErr bool
	}{
		{"plain", "model_cache", false},
		{"leading underscore", "_cache1", false},
		{"empty", "", true},
		{"leading digit", "1cache", true},
		{"injection", "cache; DROP TABLE x", true},
		{"quote", `cache"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.table)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`model_cache`", quoteTableName("model_cache", schema.MySQLBackend))
	assert.Equal(t, `"model_cache"`, quoteTableName("model_cache", schema.PostgreSQLBackend))
	assert.Equal(t, `"model_cache"`, quoteTableName("model_cache", schema.SQLiteBackend))
}

func TestDriverFor(t *testing.T) {
	for backend, want := range map[schema.DatabaseBackend]string{
		schema.SQLiteBackend:     "sqlite",
		schema.MySQLBackend:      "mysql",
		schema.PostgreSQLBackend: "pgx",
	} {
		got, err := driverFor(backend)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := driverFor(schema.NoneBackend)
	assert.Error(t, err)
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "$3", placeholder(schema.PostgreSQLBackend, 3))
	assert.Equal(t, "?", placeholder(schema.MySQLBackend, 3))
	assert.Equal(t, "?", placeholder(schema.SQLiteBackend, 1))
}

func TestInitStores(t *testing.T) {
	t.Run("sqlite stores", func(t *testing.T) {
		resetGlobals(t)
		dir := t.TempDir()
		cachePath := filepath.Join(dir, "cache.db")
		analysisPath := filepath.Join(dir, "analysis.db")

		err := InitStores(schema.SQLiteBackend, cachePath, schema.SQLiteBackend, analysisPath)
		require.NoError(t, err)
		assert.NotNil(t, Manager.GetModelStore())
		assert.NotNil(t, Manager.GetAnalysisStore())

		_, err = os.Stat(cachePath)
		assert.NoError(t, err, "cache database file should be created")
		_, err = os.Stat(analysisPath)
		assert.NoError(t, err, "analysis database file should be created")
	})

	t.Run("idempotent", func(t *testing.T) {
		resetGlobals(t)
		path := filepath.Join(t.TempDir(), "cache.db")

		assert.NoError(t, InitStores(schema.SQLiteBackend, path, "", ""))
		first := Manager.GetModelStore()
		assert.NoError(t, InitStores(schema.SQLiteBackend, path, "", ""))
		assert.Same(t, first, Manager.GetModelStore())

		CloseStores()
		CloseStores()
	})

	t.Run("none backend publishes no-op stores", func(t *testing.T) {
		resetGlobals(t)

		require.NoError(t, InitStores(schema.NoneBackend, "", schema.NoneBackend, ""))
		store := Manager.GetModelStore()
		require.NotNil(t, store)
		_, _, _, err := store.Get("key")
		assert.Error(t, err)
		assert.NoError(t, store.Set("key", []byte("v"), 1, 0))

		analysis := Manager.GetAnalysisStore()
		require.NotNil(t, analysis)
		id, err := analysis.BeginAnalysis("uuid", "predict", time.Now(), nil)
		assert.NoError(t, err)
		assert.Zero(t, id)
	})

	t.Run("empty backends leave stores unset", func(t *testing.T) {
		resetGlobals(t)

		require.NoError(t, InitStores("", "", "", ""))
		assert.Nil(t, Manager.GetModelStore())
		assert.Nil(t, Manager.GetAnalysisStore())
	})

	t.Run("invalid backend", func(t *testing.T) {
		resetGlobals(t)

		err := InitStores("oracle", "", "", "")
		assert.ErrorContains(t, err, "failed to initialize model caching")
		assert.Nil(t, Manager.GetModelStore())
	})
}

func TestClearCache(t *testing.T) {
	t.Run("sqlite removes the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.db")
		store, err := NewCacheStore(modelTable, schema.SQLiteBackend, path)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		require.NoError(t, ClearCache(schema.SQLiteBackend, path, ""))
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("sqlite missing file is fine", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.SQLiteBackend, filepath.Join(t.TempDir(), "absent.db"), ""))
	})

	t.Run("sqlite needs a path", func(t *testing.T) {
		assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	})

	t.Run("none backend", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
		assert.NoError(t, ClearAnalysis(schema.NoneBackend, "", ""))
	})

	t.Run("unsupported backend", func(t *testing.T) {
		assert.ErrorContains(t, ClearCache("oracle", "", ""), "unsupported cache backend")
		assert.ErrorContains(t, ClearAnalysis("oracle", "", ""), "unsupported analysis backend")
	})
}
