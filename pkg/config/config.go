package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds process-level configuration for the navstat tools.
// ⭐ SSOT: every environment variable is read here and nowhere else.
//
// Per-analysis settings (dates, benchmark, windows) live in
// internal/analysisconfig and are passed explicitly into each call; this
// struct only supplies their defaults.
type Config struct {
	Env string // development, staging, production

	// Logging
	LogLevel  string
	LogFormat string

	// Analysis defaults
	Analysis AnalysisDefaults

	// Output
	OutputDir    string
	OutputFormat string // json, yaml
}

// AnalysisDefaults holds the fallback values for an analysis run.
type AnalysisDefaults struct {
	ReturnType     string  // log, simple
	RollingWindow  int     // rolling volatility / correlation window
	AttribWindow   int     // rolling regression window
	PeriodsPerYear int     // 250 for daily NAV
	CondThreshold  float64 // Gram-matrix condition number warning level
}

// Load reads configuration from environment variables.
// ⭐ SSOT: the only caller of os.Getenv.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		Analysis: AnalysisDefaults{
			ReturnType:     strings.ToLower(getEnv("NAV_RETURN_TYPE", "log")),
			RollingWindow:  getEnvAsInt("NAV_ROLLING_WINDOW", 20),
			AttribWindow:   getEnvAsInt("NAV_ATTRIB_WINDOW", 60),
			PeriodsPerYear: getEnvAsInt("NAV_PERIODS_PER_YEAR", 250),
			CondThreshold:  getEnvAsFloat("NAV_COND_THRESHOLD", 50),
		},

		OutputDir:    getEnv("NAV_OUTPUT_DIR", "."),
		OutputFormat: strings.ToLower(getEnv("NAV_OUTPUT_FORMAT", "json")),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks the values that would otherwise fail deep inside an analysis
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Analysis.ReturnType != "log" && c.Analysis.ReturnType != "simple" {
		return fmt.Errorf("NAV_RETURN_TYPE must be one of: log, simple")
	}

	if c.Analysis.RollingWindow < 2 {
		return fmt.Errorf("NAV_ROLLING_WINDOW must be > 1")
	}

	if c.Analysis.AttribWindow < 2 {
		return fmt.Errorf("NAV_ATTRIB_WINDOW must be > 1")
	}

	if c.Analysis.PeriodsPerYear <= 0 {
		return fmt.Errorf("NAV_PERIODS_PER_YEAR must be > 0")
	}

	if c.Analysis.CondThreshold <= 0 {
		return fmt.Errorf("NAV_COND_THRESHOLD must be > 0")
	}

	if c.OutputFormat != "json" && c.OutputFormat != "yaml" {
		return fmt.Errorf("NAV_OUTPUT_FORMAT must be one of: json, yaml")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}
