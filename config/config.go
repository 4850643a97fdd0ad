// Package config reads the study configuration from environment variables.
package config

import (
	"os"
	"strconv"

	"github.com/oncostat/deltarad/pkg/errors"
)

// Config is the complete runtime configuration of a study run. Values come
// from the environment (optionally seeded from a .env file by the caller)
// and are validated once at load time; the struct is treated as read-only
// afterwards.
type Config struct {
	Data     DataConfig
	Study    StudyConfig
	LogLevel string
}

// DataConfig locates the study inputs and the output destination.
type DataConfig struct {
	// PatientDir holds one sub-directory per patient with the timepoint
	// radiomics workbooks.
	PatientDir string
	// ClinicalFile is the clinical table (csv or xlsx).
	ClinicalFile string
	// OutputFile receives the evaluation records as JSON; empty means
	// stdout.
	OutputFile string
	// Sheet is the workbook sheet radiomics rows are read from.
	Sheet string
	// FeatureStartCol is the zero-based column where radiomics features
	// begin in the segmentation workbooks.
	FeatureStartCol int
}

// StudyConfig carries the analysis settings.
type StudyConfig struct {
	// Threshold selects the segmentation row (SUV cutoff).
	Threshold float64
	// TestFraction is the held-out share when the clinical table carries no
	// split column.
	TestFraction float64
	// Folds is the cross-validation fold count of the grid search.
	Folds int
	// Seed drives every random draw of the run.
	Seed uint64
}

// Load reads and validates the configuration.
func Load() (*Config, error) {
	cfg := &Config{
		Data: DataConfig{
			PatientDir:      os.Getenv("DELTARAD_PATIENT_DIR"),
			ClinicalFile:    os.Getenv("DELTARAD_CLINICAL_FILE"),
			OutputFile:      getEnvOrDefault("DELTARAD_OUTPUT", ""),
			Sheet:           getEnvOrDefault("DELTARAD_SHEET", "Sheet1"),
			FeatureStartCol: getEnvIntOrDefault("DELTARAD_FEATURE_START_COL", 23),
		},
		Study: StudyConfig{
			Threshold:    getEnvFloatOrDefault("DELTARAD_SUV_THRESHOLD", 2.5),
			TestFraction: getEnvFloatOrDefault("DELTARAD_TEST_FRACTION", 0.2),
			Folds:        getEnvIntOrDefault("DELTARAD_CV_FOLDS", 3),
			Seed:         uint64(getEnvIntOrDefault("DELTARAD_SEED", 42)),
		},
		LogLevel: getEnvOrDefault("DELTARAD_LOG_LEVEL", "info"),
	}

	if cfg.Data.PatientDir == "" {
		return nil, errors.NewValidationError("DELTARAD_PATIENT_DIR", "is required", "")
	}
	if cfg.Data.ClinicalFile == "" {
		return nil, errors.NewValidationError("DELTARAD_CLINICAL_FILE", "is required", "")
	}
	if cfg.Study.TestFraction <= 0 || cfg.Study.TestFraction >= 1 {
		return nil, errors.NewValidationError("DELTARAD_TEST_FRACTION",
			"must be in (0, 1)", cfg.Study.TestFraction)
	}
	if cfg.Study.Folds < 2 {
		return nil, errors.NewValidationError("DELTARAD_CV_FOLDS",
			"must be at least 2", cfg.Study.Folds)
	}

	return cfg, nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloatOrDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
