package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// ReportDefaults are the caller-side parameters fed into report generation.
type ReportDefaults struct {
	TerminalStatuses []string
	ExcludedStatuses []string
	PeriodDays       int
	MaxPeriods       int
	HistogramBuckets int
	Workers          int
}

// AppConfig holds the complete application configuration.
type AppConfig struct {
	CacheDir            string
	EnableMermaidCharts bool
	Reports             ReportDefaults
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve Data Paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	cacheDir := filepath.Join(dataPath, "cache")

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", cacheDir).Msg("Failed to create cache directory")
	}

	cfg := &AppConfig{
		CacheDir:            cacheDir,
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", false),
		Reports: ReportDefaults{
			TerminalStatuses: getEnvList("FLOWLENS_TERMINAL_STATUSES", []string{"Done"}),
			ExcludedStatuses: getEnvList("FLOWLENS_EXCLUDED_STATUSES", []string{"Cancelled"}),
			PeriodDays:       getEnvInt("FLOWLENS_PERIOD_DAYS", 14),
			MaxPeriods:       getEnvInt("FLOWLENS_MAX_PERIODS", 52),
			HistogramBuckets: getEnvInt("FLOWLENS_HISTOGRAM_BUCKETS", 10),
			Workers:          getEnvInt("FLOWLENS_WORKERS", 0),
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
