package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// ReportConfig holds configuration for the sale report.
type ReportConfig struct {
	ProgramID     string
	Input         string
	Window        string
	PGDSN         string
	BatchSize     int
	StateFile     string
	RecomputeFrom string
	MaxRetries    int
	RetryBackoff  time.Duration
	LogLevel      string
	LogFile       string
}

// LoadReport merges config file, environment variables, and flags into ReportConfig.
func LoadReport(cfgFile string, flags *pflag.FlagSet) (ReportConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"program-id":    DefaultProgramID,
		"in":            "./data/events.jsonl",
		"window":        "1h",
		"batch-size":    1000,
		"max-retries":   5,
		"retry-backoff": 500 * time.Millisecond,
		"log-level":     "info",
	})
	if err != nil {
		return ReportConfig{}, err
	}

	return ReportConfig{
		ProgramID:     v.GetString("program-id"),
		Input:         v.GetString("in"),
		Window:        v.GetString("window"),
		PGDSN:         v.GetString("pg-dsn"),
		BatchSize:     v.GetInt("batch-size"),
		StateFile:     v.GetString("state-file"),
		RecomputeFrom: v.GetString("recompute-from"),
		MaxRetries:    v.GetInt("max-retries"),
		RetryBackoff:  v.GetDuration("retry-backoff"),
		LogLevel:      v.GetString("log-level"),
		LogFile:       v.GetString("log-file"),
	}, nil
}

// ParseTimestamp parses a timestamp value (unix seconds or RFC3339).
func ParseTimestamp(input string) (uint64, error) {
	if strings.TrimSpace(input) == "" {
		return 0, nil
	}

	if isNumeric(input) {
		val, err := strconv.ParseUint(input, 10, 64)
		if err != nil {
			return 0, err
		}
		return val, nil
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, err
	}
	return uint64(tm.Unix()), nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
