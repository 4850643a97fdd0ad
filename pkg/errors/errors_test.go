package errors

import (
	"strings"
	"testing"
)

func TestMissingRowError(t *testing.T) {
	err := NewMissingRowError("P-007", "A", 2.5)

	var target *MissingRowError
	if !As(err, &target) {
		t.Fatalf("expected MissingRowError in chain, got %v", err)
	}
	if target.Patient != "P-007" || target.Timepoint != "A" || target.Threshold != 2.5 {
		t.Errorf("unexpected fields: %+v", target)
	}
	if !strings.Contains(err.Error(), "P-007") {
		t.Errorf("error message should name the patient: %q", err.Error())
	}
}

func TestAmbiguousRowError(t *testing.T) {
	err := NewAmbiguousRowError("P-003", "B", 2.5, 3)

	var target *AmbiguousRowError
	if !As(err, &target) {
		t.Fatalf("expected AmbiguousRowError in chain, got %v", err)
	}
	if target.Count != 3 {
		t.Errorf("Count = %d, want 3", target.Count)
	}
	if !strings.Contains(err.Error(), "want exactly 1") {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestConvergenceError(t *testing.T) {
	err := NewConvergenceError("CoxPH", "glcm_entropy_delta", 100, "separation detected")

	var target *ConvergenceError
	if !As(err, &target) {
		t.Fatalf("expected ConvergenceError in chain, got %v", err)
	}
	if target.Feature != "glcm_entropy_delta" {
		t.Errorf("Feature = %q", target.Feature)
	}
	for _, want := range []string{"CoxPH", "glcm_entropy_delta", "100", "separation"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("message %q missing %q", err.Error(), want)
		}
	}
}

func TestInsufficientClassBalanceError(t *testing.T) {
	err := NewInsufficientClassBalanceError(5, 3, 1)

	var target *InsufficientClassBalanceError
	if !As(err, &target) {
		t.Fatalf("expected InsufficientClassBalanceError in chain, got %v", err)
	}
	if target.Folds != 5 || target.MinorityCount != 3 || target.MinorityClass != 1 {
		t.Errorf("unexpected fields: %+v", target)
	}
}

func TestNotFittedError(t *testing.T) {
	err := NewNotFittedError("Pipeline", "Predict")
	want := "deltarad: Pipeline: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestDimensionError(t *testing.T) {
	tests := []struct {
		name string
		axis int
		want string
	}{
		{"feature axis", 1, "features"},
		{"row axis", 0, "rows"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDimensionError("StandardScaler.Transform", 10, 7, tt.axis)
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Error() = %q, want axis name %q", err.Error(), tt.want)
			}
		})
	}
}

func TestTimepointAsymmetryWarning(t *testing.T) {
	pw := NewTimepointAsymmetryWarning("P-012", "A", "B")
	if !strings.Contains(pw.Error(), "P-012") || !strings.Contains(pw.Error(), "no timepoint B") {
		t.Errorf("unexpected patient warning: %q", pw.Error())
	}

	fw := NewFeatureAsymmetryWarning("shape_volume", "B", "A")
	if !strings.Contains(fw.Error(), "shape_volume") {
		t.Errorf("unexpected feature warning: %q", fw.Error())
	}
}

func TestWarnHandler(t *testing.T) {
	var captured []error
	SetWarningHandler(func(w error) {
		captured = append(captured, w)
	})
	defer SetWarningHandler(func(w error) {})

	w := NewUndefinedMetricWarning("roc_auc", "only one class present in y_true")
	Warn(w)

	if len(captured) != 1 {
		t.Fatalf("captured %d warnings, want 1", len(captured))
	}
	if !strings.Contains(captured[0].Error(), "roc_auc") {
		t.Errorf("unexpected warning: %v", captured[0])
	}
}

func TestCheckScalar(t *testing.T) {
	if err := CheckScalar("newton_step", 1.5, 3); err != nil {
		t.Errorf("finite value should pass: %v", err)
	}
	nan := 0.0
	nan = nan / nan
	if err := CheckScalar("newton_step", nan, 3); err == nil {
		t.Error("NaN should be rejected")
	}
}

func TestSafeExecute(t *testing.T) {
	err := SafeExecute("risky fit", func() error {
		panic("kernel matrix blew up")
	})
	var pe *PanicError
	if !As(err, &pe) {
		t.Fatalf("expected PanicError, got %v", err)
	}
	if pe.Operation != "risky fit" {
		t.Errorf("Operation = %q", pe.Operation)
	}
}
