// Package main provides a performance benchmarking tool for the biomarker CLI.
// It measures execution times across training set sizes and command types,
// running each test multiple times, treating the first successful run as cold and averaging the rest as warm,
// generating CSV output for performance analysis and documentation.
//
// Prerequisites:
// - biomarker binary installed and available in PATH
//
// Usage: go run benchmark/main.go [workers]
//
//	workers: Number of concurrent workers passed to every run (default 8)
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Samples     int
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	SampleSizes []int
	Commands    map[string][]string
	WorkDir     string
}

// benchmarkPanel is the panel every command scores.
const benchmarkPanel = `age: 52
gender: 1
bmi: 29.5
glucose: 112
cholesterol: 228
triglycerides: 210
hdl: 38
ldl: 150
alt: 48
ast: 41
creatinine: 1.2
bun: 21
crp: 4.1
`

func main() {
	workers := 8
	if len(os.Args) == 2 {
		n, err := strconv.Atoi(os.Args[1])
		if err != nil || n <= 0 {
			fmt.Printf("Usage: %s [workers]\n", os.Args[0])
			os.Exit(1)
		}
		workers = n
	}

	workDir, err := os.MkdirTemp("", "biomarker-benchmark-*")
	if err != nil {
		fmt.Printf("Failed to create work dir: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	config := BenchmarkConfig{
		Timeout:     5 * time.Minute,
		Workers:     workers,
		NoCacheRuns: 3,
		CacheRuns:   4,
		SampleSizes: []int{1000, 5000, 20000},
		Commands: map[string][]string{
			"predict":  {"predict", "--panel", "panel.yaml"},
			"forecast": {"forecast", "--panel", "panel.yaml", "--horizon", "52"},
			"check":    {"check", "--panel", "panel.yaml", "--thresholds-override", "health:1"},
		},
		WorkDir: workDir,
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the biomarker binary exists and writes the benchmark panel
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("biomarker"); err != nil {
		return fmt.Errorf("biomarker binary not found in PATH")
	}
	return os.WriteFile(filepath.Join(config.WorkDir, "panel.yaml"), []byte(benchmarkPanel), 0o644)
}

// runBenchmarks executes all benchmark tests across configured sample sizes
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d sample sizes, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.SampleSizes), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, samples := range config.SampleSizes {
		fmt.Printf("Benchmarking %d samples\n", samples)
		for _, command := range []string{"predict", "forecast", "check"} {
			results = append(results, runBenchmarkSuite(config, samples, command))
		}
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, samples int, command string) BenchmarkResult {
	fmt.Printf("Running %s with %d samples\n", command, samples)

	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, samples, command, cacheBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs against a fresh database
	_ = os.Remove(filepath.Join(config.WorkDir, "cache.db"))
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Samples:     samples,
		Command:     command,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a biomarker command multiple times with specified cache backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, samples int, command, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := append([]string{}, config.Commands[command]...)
	args = append(args,
		"--samples", strconv.Itoa(samples),
		"--workers", strconv.Itoa(config.Workers),
		"--cache-backend", cacheBackend,
	)
	if cacheBackend == "sqlite" {
		args = append(args, "--cache-db-connect", filepath.Join(config.WorkDir, "cache.db"))
	}

	var times []float64
	for range numRuns {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()

		cmd := exec.CommandContext(ctx, "biomarker", args...)
		cmd.Dir = config.WorkDir
		output, err := cmd.CombinedOutput()
		elapsed := time.Since(start)
		cancel()

		if err == nil && isSuccess(output, command) {
			times = append(times, elapsed.Seconds())
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte, command string) bool {
	outputStr := string(output)
	if command == "check" {
		return strings.Contains(outputStr, "All scores passed threshold checks")
	}
	return strings.Contains(outputStr, "completed in") &&
		strings.Contains(outputStr, "workers")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/biomarker_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"samples", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		row := []string{strconv.Itoa(result.Samples), result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "predict", "Predict:")
	printCommandSummary(results, "forecast", "Forecast:")
	printCommandSummary(results, "check", "Check:")

	fmt.Printf("Benchmark script completed successfully\n")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-8d: No-cache: %s, Cold: %s, Warm: %s\n", result.Samples, result.NoCacheTime, result.ColdTime, result.WarmTime)
		}
	}
}
