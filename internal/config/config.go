package config

import (
	"os"
	"strconv"

	"parkclean/internal/errors"
)

// Config represents the complete run configuration
type Config struct {
	Input    InputConfig
	Output   OutputConfig
	Cleaning CleaningConfig
	Database DatabaseConfig
}

// InputConfig locates and paces the raw CSV read
type InputConfig struct {
	File          string
	ChunkSize     int
	ProfileRowCap int // rows read for the profiling pass
}

// OutputConfig bounds the workbook
type OutputConfig struct {
	File         string
	SheetRowCap  int
	SampleRowCap int
	TopN         int
}

// CleaningConfig holds pipeline thresholds
type CleaningConfig struct {
	NullRatioThreshold float64 // columns above this are dropped
}

// DatabaseConfig holds the optional load target
type DatabaseConfig struct {
	URL string // empty disables the load stage
}

// Default returns the configuration with no environment applied
func Default() *Config {
	return &Config{
		Input: InputConfig{
			ChunkSize:     50000,
			ProfileRowCap: 5000,
		},
		Output: OutputConfig{
			File:         "violations_summary.xlsx",
			SheetRowCap:  1000,
			SampleRowCap: 1000,
			TopN:         25,
		},
		Cleaning: CleaningConfig{
			NullRatioThreshold: 0.6,
		},
	}
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	defaults := Default()
	config := &Config{
		Input: InputConfig{
			File:          os.Getenv("INPUT_FILE"),
			ChunkSize:     getEnvIntOrDefault("CHUNK_SIZE", defaults.Input.ChunkSize),
			ProfileRowCap: getEnvIntOrDefault("PROFILE_ROW_CAP", defaults.Input.ProfileRowCap),
		},
		Output: OutputConfig{
			File:         getEnvOrDefault("OUTPUT_FILE", defaults.Output.File),
			SheetRowCap:  getEnvIntOrDefault("SHEET_ROW_CAP", defaults.Output.SheetRowCap),
			SampleRowCap: getEnvIntOrDefault("SAMPLE_ROW_CAP", defaults.Output.SampleRowCap),
			TopN:         getEnvIntOrDefault("TOP_N", defaults.Output.TopN),
		},
		Cleaning: CleaningConfig{
			NullRatioThreshold: getEnvFloatOrDefault("NULL_RATIO_THRESHOLD", defaults.Cleaning.NullRatioThreshold),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Input.ChunkSize <= 0 {
		return errors.ConfigInvalid("CHUNK_SIZE must be positive")
	}
	if config.Input.ProfileRowCap <= 0 {
		return errors.ConfigInvalid("PROFILE_ROW_CAP must be positive")
	}
	if config.Cleaning.NullRatioThreshold < 0 || config.Cleaning.NullRatioThreshold > 1 {
		return errors.ConfigInvalid("NULL_RATIO_THRESHOLD must be between 0 and 1")
	}
	if config.Output.SheetRowCap <= 0 || config.Output.SampleRowCap <= 0 {
		return errors.ConfigInvalid("sheet and sample row caps must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
