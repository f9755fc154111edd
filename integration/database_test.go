//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestBiomarkerWithMySQL tests the biomarker CLI with a MySQL backend.
func TestBiomarkerWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "biomarker",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/biomarker?parseTime=true", host, port.Port())
	runBackendScenario(t, "mysql", connStr)
}

// TestBiomarkerWithPostgres tests the biomarker CLI with a PostgreSQL backend.
func TestBiomarkerWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
	runBackendScenario(t, "postgresql", connStr)
}

// runBackendScenario drives the cache and analysis commands against one database server.
func runBackendScenario(t *testing.T, backend, connStr string) {
	t.Helper()
	w := newWorkspace(t,
		"BIOMARKER_CACHE_BACKEND="+backend,
		"BIOMARKER_CACHE_DB_CONNECT="+connStr,
		"BIOMARKER_ANALYSIS_BACKEND="+backend,
		"BIOMARKER_ANALYSIS_DB_CONNECT="+connStr,
	)

	w.mustRun(t, "cache", "clear")
	w.mustRun(t, "analysis", "clear")
	w.mustRun(t, "analysis", "migrate")

	w.mustRun(t, withSmallModel("train")...)
	out := w.mustRun(t, withSmallModel("predict", "--panel", "panel.yaml")...)
	assert.Contains(t, out, "Using cached model")
	w.mustRun(t, withSmallModel("check", "--panel", "panel.yaml", "--thresholds-override", "health:1")...)

	status := w.mustRun(t, "cache", "status")
	assert.Contains(t, status, "Cached Models: 1")

	status = w.mustRun(t, "analysis", "status")
	assert.Contains(t, status, "Total Runs: 3")
	assert.Contains(t, status, "Total Predictions: 2")

	w.mustRun(t, "analysis", "export", "--output-file", w.path("history.parquet"))

	w.mustRun(t, "cache", "clear")
	w.mustRun(t, "analysis", "clear")
}
