package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Score label constants.
const (
	ExcellentValue = "Excellent"
	GoodValue      = "Good"
	FairValue      = "Fair"
	PoorValue      = "Poor"
	CriticalValue  = "Critical"
)

// Marker status constants.
const (
	StatusLow    = "Low"
	StatusNormal = "Normal"
	StatusHigh   = "High"
)

// Color variables for console output.
var (
	ExcellentColor = color.New(color.FgGreen, color.Bold) // ExcellentColor marks the best band.
	GoodColor      = color.New(color.FgGreen)
	FairColor      = color.New(color.FgCyan)
	PoorColor      = color.New(color.FgYellow)
	CriticalColor  = color.New(color.FgRed, color.Bold) // CriticalColor represents standard danger.
)

// GetPlainLabel returns a plain text label for a 0-100 health score.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(score float64) string {
	switch {
	case score >= 90:
		return ExcellentValue
	case score >= 80:
		return GoodValue
	case score >= 70:
		return FairValue
	case score >= 60:
		return PoorValue
	default:
		return CriticalValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
// It uses GetPlainLabel to determine the string, and then applies the appropriate color.
func GetColorLabel(score float64) string {
	text := GetPlainLabel(score)

	switch text {
	case ExcellentValue:
		return ExcellentColor.Sprint(text)
	case GoodValue:
		return GoodColor.Sprint(text)
	case FairValue:
		return FairColor.Sprint(text)
	case PoorValue:
		return PoorColor.Sprint(text)
	default:
		return CriticalColor.Sprint(text)
	}
}

// GetColorStatus colors a marker status for table output. Unknown statuses pass through.
func GetColorStatus(status string) string {
	switch status {
	case StatusLow:
		return PoorColor.Sprint(status)
	case StatusHigh:
		return CriticalColor.Sprint(status)
	case StatusNormal:
		return GoodColor.Sprint(status)
	default:
		return status
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It returns os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for model cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".biomarker_cache.db"
	}
	return filepath.Join(homeDir, ".biomarker_cache.db")
}

// GetAnalysisDBFilePath returns the path to the SQLite DB file for analysis storage.
func GetAnalysisDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".biomarker_analysis.db"
	}
	return filepath.Join(homeDir, ".biomarker_analysis.db")
}

// TruncateText truncates text to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so that at least one character of content remains.
func TruncateText(text string, maxWidth int) string {
	runes := []rune(text)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return text
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
