package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DELTARAD_PATIENT_DIR", "/data/patients")
	t.Setenv("DELTARAD_CLINICAL_FILE", "/data/clinical.csv")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Study.Threshold != 2.5 {
		t.Errorf("Threshold = %g, want 2.5", cfg.Study.Threshold)
	}
	if cfg.Study.Seed != 42 {
		t.Errorf("Seed = %d, want 42", cfg.Study.Seed)
	}
	if cfg.Data.Sheet != "Sheet1" {
		t.Errorf("Sheet = %q, want Sheet1", cfg.Data.Sheet)
	}
	if cfg.Data.FeatureStartCol != 23 {
		t.Errorf("FeatureStartCol = %d, want 23", cfg.Data.FeatureStartCol)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DELTARAD_PATIENT_DIR", "/data/patients")
	t.Setenv("DELTARAD_CLINICAL_FILE", "/data/clinical.xlsx")
	t.Setenv("DELTARAD_SUV_THRESHOLD", "3.0")
	t.Setenv("DELTARAD_CV_FOLDS", "5")
	t.Setenv("DELTARAD_SEED", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Study.Threshold != 3.0 {
		t.Errorf("Threshold = %g, want 3.0", cfg.Study.Threshold)
	}
	if cfg.Study.Folds != 5 {
		t.Errorf("Folds = %d, want 5", cfg.Study.Folds)
	}
	if cfg.Study.Seed != 7 {
		t.Errorf("Seed = %d, want 7", cfg.Study.Seed)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("DELTARAD_PATIENT_DIR", "")
	t.Setenv("DELTARAD_CLINICAL_FILE", "")

	if _, err := Load(); err == nil {
		t.Fatal("missing required settings must fail")
	}
}

func TestLoadInvalidFraction(t *testing.T) {
	t.Setenv("DELTARAD_PATIENT_DIR", "/data/patients")
	t.Setenv("DELTARAD_CLINICAL_FILE", "/data/clinical.csv")
	t.Setenv("DELTARAD_TEST_FRACTION", "1.5")

	if _, err := Load(); err == nil {
		t.Fatal("out-of-range test fraction must fail")
	}
}
