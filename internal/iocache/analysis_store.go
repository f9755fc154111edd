package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/biomarker/internal/contract"
	"github.com/huangsam/biomarker/schema"
)

// Table names for analysis tracking.
const (
	analysisRunsTable      = "biomarker_analysis_runs"
	predictionsTable       = "biomarker_predictions"
	featureImportanceTable = "biomarker_feature_importance"
)

// analysisTables lists every analysis table in creation order.
var analysisTables = []string{analysisRunsTable, predictionsTable, featureImportanceTable}

// scoreColumns are the prediction score columns in schema.AllTargets order.
var scoreColumns = func() []string {
	out := make([]string, len(schema.AllTargets))
	for i, t := range schema.AllTargets {
		out[i] = string(t)
	}
	return out
}()

// AnalysisStoreImpl implements the AnalysisStore interface.
type AnalysisStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.AnalysisStore = &AnalysisStoreImpl{} // Compile-time check

// NewAnalysisStore creates a new AnalysisStore with the specified backend.
func NewAnalysisStore(backend schema.DatabaseBackend, connStr string) (contract.AnalysisStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &AnalysisStoreImpl{backend: backend}, nil
	}

	db, err := openDatabase(backend, connStr, contract.GetAnalysisDBFilePath())
	if err != nil {
		return nil, err
	}
	if err := createAnalysisTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create analysis tables: %w", err)
	}
	return &AnalysisStoreImpl{db: db, backend: backend}, nil
}

// createAnalysisTables creates the analysis tracking tables.
func createAnalysisTables(db *sql.DB, backend schema.DatabaseBackend) error {
	queries := map[string]string{
		analysisRunsTable:      getCreateAnalysisRunsQuery(backend),
		predictionsTable:       getCreatePredictionsQuery(backend),
		featureImportanceTable: getCreateFeatureImportanceQuery(backend),
	}
	for _, table := range analysisTables {
		if _, err := db.Exec(queries[table]); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	return nil
}

// getCreateAnalysisRunsQuery returns the CREATE TABLE query for biomarker_analysis_runs.
func getCreateAnalysisRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(analysisRunsTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_uuid CHAR(36) NOT NULL,
				run_kind VARCHAR(32) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				total_samples INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGSERIAL PRIMARY KEY,
				run_uuid TEXT NOT NULL,
				run_kind TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				total_samples INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_uuid TEXT NOT NULL,
				run_kind TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_samples INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreatePredictionsQuery returns the CREATE TABLE query for biomarker_predictions.
func getCreatePredictionsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(predictionsTable, backend)
	var idCol, timeCol, boolCol, realCol string
	switch backend {
	case schema.MySQLBackend:
		idCol, timeCol, boolCol, realCol = "BIGINT AUTO_INCREMENT PRIMARY KEY", "DATETIME(6)", "BOOLEAN", "DOUBLE"
	case schema.PostgreSQLBackend:
		idCol, timeCol, boolCol, realCol = "BIGSERIAL PRIMARY KEY", "TIMESTAMPTZ", "BOOLEAN", "DOUBLE PRECISION"
	default: // SQLite
		idCol, timeCol, boolCol, realCol = "INTEGER PRIMARY KEY AUTOINCREMENT", "TEXT", "INTEGER", "REAL"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", quotedTableName)
	fmt.Fprintf(&b, "\tprediction_id %s,\n", idCol)
	b.WriteString("\tanalysis_id BIGINT NOT NULL,\n")
	fmt.Fprintf(&b, "\tprediction_time %s NOT NULL,\n", timeCol)
	fmt.Fprintf(&b, "\thealth_risk %s NOT NULL,\n", boolCol)
	for i, col := range scoreColumns {
		sep := ","
		if i == len(scoreColumns)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "\t%s %s NOT NULL%s\n", col, realCol, sep)
	}
	b.WriteString(");")
	return b.String()
}

// getCreateFeatureImportanceQuery returns the CREATE TABLE query for biomarker_feature_importance.
func getCreateFeatureImportanceQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(featureImportanceTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGINT NOT NULL,
				feature_name VARCHAR(100) NOT NULL,
				importance DOUBLE NOT NULL,
				PRIMARY KEY (analysis_id, feature_name)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGINT NOT NULL,
				feature_name TEXT NOT NULL,
				importance DOUBLE PRECISION NOT NULL,
				PRIMARY KEY (analysis_id, feature_name)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id INTEGER NOT NULL,
				feature_name TEXT NOT NULL,
				importance REAL NOT NULL,
				PRIMARY KEY (analysis_id, feature_name)
			);
		`, quotedTableName)
	}
}

// disabled reports whether the store is a no-op.
func (as *AnalysisStoreImpl) disabled() bool {
	return as.backend == schema.NoneBackend || as.db == nil
}

// placeholders returns n comma-separated parameter placeholders.
func (as *AnalysisStoreImpl) placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = placeholder(as.backend, i+1)
	}
	return strings.Join(parts, ", ")
}

// BeginAnalysis creates a new analysis run and returns its unique ID.
func (as *AnalysisStoreImpl) BeginAnalysis(runUUID, runKind string, startTime time.Time, configParams map[string]any) (int64, error) {
	if as.disabled() {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (run_uuid, run_kind, start_time, config_params) VALUES (%s)`,
		quoteTableName(analysisRunsTable, as.backend), as.placeholders(4))
	args := []any{runUUID, runKind, formatTime(startTime, as.backend), string(configJSON)}

	var analysisID int64
	if as.backend == schema.PostgreSQLBackend {
		err = as.db.QueryRow(query+" RETURNING analysis_id", args...).Scan(&analysisID)
	} else {
		var result sql.Result
		result, err = as.db.Exec(query, args...)
		if err == nil {
			analysisID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis run: %w", err)
	}
	return analysisID, nil
}

// EndAnalysis updates the analysis run with completion data.
func (as *AnalysisStoreImpl) EndAnalysis(analysisID int64, endTime time.Time, totalSamples int) error {
	if as.disabled() {
		return nil
	}

	quotedTableName := quoteTableName(analysisRunsTable, as.backend)
	var startTime time.Time
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE analysis_id = %s`, quotedTableName, placeholder(as.backend, 1))
	if err := as.db.QueryRow(query, analysisID).Scan(dbTime{&startTime}); err != nil {
		return fmt.Errorf("failed to get start_time for analysis %d: %w", analysisID, err)
	}

	durationMs := endTime.Sub(startTime).Milliseconds()
	updateQuery := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, total_samples = %s WHERE analysis_id = %s`,
		quotedTableName,
		placeholder(as.backend, 1), placeholder(as.backend, 2), placeholder(as.backend, 3), placeholder(as.backend, 4))
	if _, err := as.db.Exec(updateQuery, formatTime(endTime, as.backend), durationMs, totalSamples, analysisID); err != nil {
		return fmt.Errorf("failed to update analysis run: %w", err)
	}
	return nil
}

// RecordPrediction stores the predicted scores of one panel.
func (as *AnalysisStoreImpl) RecordPrediction(analysisID int64, predictionTime time.Time, prediction schema.Prediction) error {
	if as.disabled() {
		return nil
	}

	columns := append([]string{"analysis_id", "prediction_time", "health_risk"}, scoreColumns...)
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quoteTableName(predictionsTable, as.backend), strings.Join(columns, ", "), as.placeholders(len(columns)))

	args := []any{analysisID, formatTime(predictionTime, as.backend), prediction.HealthRisk}
	for _, v := range prediction.Scores.Values() {
		args = append(args, v)
	}
	if _, err := as.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}
	return nil
}

// RecordFeatureImportance stores the feature importance of a training run.
func (as *AnalysisStoreImpl) RecordFeatureImportance(analysisID int64, importance map[string]float64) error {
	if as.disabled() || len(importance) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (analysis_id, feature_name, importance) VALUES (%s)`,
		quoteTableName(featureImportanceTable, as.backend), as.placeholders(3))

	tx, err := as.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, name := range slices.Sorted(maps.Keys(importance)) {
		if _, err := tx.Exec(query, analysisID, name, importance[name]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert feature importance for %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit feature importance: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (as *AnalysisStoreImpl) Close() error {
	if as.db != nil {
		return as.db.Close()
	}
	return nil
}

// GetStatus returns status information about the analysis store.
func (as *AnalysisStoreImpl) GetStatus() (schema.AnalysisStatus, error) {
	status := schema.AnalysisStatus{
		Backend:    string(as.backend),
		Connected:  as.db != nil,
		TableSizes: make(map[string]int64),
	}
	if as.disabled() {
		return status, nil
	}

	runs := quoteTableName(analysisRunsTable, as.backend)
	if err := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runs)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		lastRunQuery := fmt.Sprintf("SELECT analysis_id, start_time FROM %s ORDER BY analysis_id DESC LIMIT 1", runs)
		if err := as.db.QueryRow(lastRunQuery).Scan(&status.LastRunID, dbTime{&status.LastRunTime}); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		oldestRunQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY analysis_id ASC LIMIT 1", runs)
		if err := as.db.QueryRow(oldestRunQuery).Scan(dbTime{&status.OldestRunTime}); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
	}

	for _, table := range analysisTables {
		var count int64
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, as.backend))
		if err := as.db.QueryRow(countQuery).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalPredictions = int(status.TableSizes[predictionsTable])
	return status, nil
}

// GetAllAnalysisRuns retrieves all analysis runs from the store.
func (as *AnalysisStoreImpl) GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error) {
	if as.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT analysis_id, run_uuid, run_kind, start_time, end_time, run_duration_ms, total_samples, config_params
		FROM %s ORDER BY analysis_id`, quoteTableName(analysisRunsTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.AnalysisRunRecord
	for rows.Next() {
		var record schema.AnalysisRunRecord
		if err := rows.Scan(&record.AnalysisID, &record.RunUUID, &record.RunKind, dbTime{&record.StartTime},
			nullDBTime{&record.EndTime}, &record.RunDurationMs, &record.TotalSamples, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis runs: %w", err)
	}
	return results, nil
}

// GetAllPredictions retrieves all recorded predictions from the store.
func (as *AnalysisStoreImpl) GetAllPredictions() ([]schema.PredictionRecord, error) {
	if as.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT analysis_id, prediction_time, health_risk, %s FROM %s ORDER BY analysis_id, prediction_id`,
		strings.Join(scoreColumns, ", "), quoteTableName(predictionsTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.PredictionRecord
	for rows.Next() {
		var record schema.PredictionRecord
		values := make([]float64, len(scoreColumns))
		dest := []any{&record.AnalysisID, dbTime{&record.PredictionTime}, &record.HealthRisk}
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		if record.Scores, err = schema.ScoresFromValues(values); err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating predictions: %w", err)
	}
	return results, nil
}

// GetAllFeatureImportance retrieves all feature importance rows from the store.
func (as *AnalysisStoreImpl) GetAllFeatureImportance() ([]schema.FeatureImportanceRecord, error) {
	if as.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT analysis_id, feature_name, importance FROM %s ORDER BY analysis_id, feature_name`,
		quoteTableName(featureImportanceTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query feature importance: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.FeatureImportanceRecord
	for rows.Next() {
		var record schema.FeatureImportanceRecord
		if err := rows.Scan(&record.AnalysisID, &record.FeatureName, &record.Importance); err != nil {
			return nil, fmt.Errorf("failed to scan feature importance: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feature importance: %w", err)
	}
	return results, nil
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	if backend == schema.SQLiteBackend {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return t
}

// dbTime scans a timestamp stored natively or as RFC 3339 text.
type dbTime struct{ t *time.Time }

func (d dbTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d.t = v
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into time", src)
	}
	return nil
}

func (d dbTime) parse(s string) error {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		// MySQL without parseTime=true returns DATETIME columns as text
		var fallbackErr error
		if t, fallbackErr = time.Parse(time.DateTime+".999999", s); fallbackErr != nil {
			return fmt.Errorf("failed to parse time %q: %w", s, err)
		}
	}
	*d.t = t
	return nil
}

// nullDBTime is dbTime for nullable columns.
type nullDBTime struct{ t **time.Time }

func (d nullDBTime) Scan(src any) error {
	if src == nil {
		*d.t = nil
		return nil
	}
	var t time.Time
	if err := (dbTime{&t}).Scan(src); err != nil {
		return err
	}
	*d.t = &t
	return nil
}
