package metrics

import (
	"math"
	"testing"

	"github.com/oncostat/deltarad/pkg/errors"
)

func TestAccuracy(t *testing.T) {
	got, err := Accuracy([]int{0, 1, 1, 0}, []int{0, 1, 0, 0})
	if err != nil {
		t.Fatalf("Accuracy failed: %v", err)
	}
	if got != 0.75 {
		t.Errorf("Accuracy = %g, want 0.75", got)
	}
}

func TestAccuracyEmpty(t *testing.T) {
	if _, err := Accuracy(nil, nil); err == nil {
		t.Error("empty input must fail")
	}
}

func TestBalancedAccuracyImbalanced(t *testing.T) {
	// 6 negatives all correct, 2 positives one correct: (1.0 + 0.5) / 2.
	yTrue := []int{0, 0, 0, 0, 0, 0, 1, 1}
	yPred := []int{0, 0, 0, 0, 0, 0, 1, 0}

	got, err := BalancedAccuracy(yTrue, yPred)
	if err != nil {
		t.Fatalf("BalancedAccuracy failed: %v", err)
	}
	if got != 0.75 {
		t.Errorf("BalancedAccuracy = %g, want 0.75", got)
	}
}

func TestBalancedAccuracyMajorityVote(t *testing.T) {
	// Always predicting the majority class scores 0.5, not prevalence.
	yTrue := []int{0, 0, 0, 0, 0, 1}
	yPred := []int{0, 0, 0, 0, 0, 0}

	got, err := BalancedAccuracy(yTrue, yPred)
	if err != nil {
		t.Fatalf("BalancedAccuracy failed: %v", err)
	}
	if got != 0.5 {
		t.Errorf("BalancedAccuracy = %g, want 0.5", got)
	}
}

func TestF1Score(t *testing.T) {
	yTrue := []int{1, 1, 0, 0}
	yPred := []int{1, 0, 1, 0}

	// tp=1 fp=1 fn=1: F1 = 2/(2+1+1) = 0.5.
	got, err := F1Score(yTrue, yPred, 1)
	if err != nil {
		t.Fatalf("F1Score failed: %v", err)
	}
	if got != 0.5 {
		t.Errorf("F1Score = %g, want 0.5", got)
	}
}

func TestF1ScoreDegenerate(t *testing.T) {
	got, err := F1Score([]int{0, 0}, []int{0, 0}, 1)
	if err != nil {
		t.Fatalf("F1Score failed: %v", err)
	}
	if got != 0 {
		t.Errorf("F1Score with no positives = %g, want 0", got)
	}
}

func TestROCAUCPerfect(t *testing.T) {
	yTrue := []int{0, 0, 1, 1}
	scores := []float64{0.1, 0.2, 0.8, 0.9}

	auc, defined, err := ROCAUC(yTrue, scores, 1)
	if err != nil {
		t.Fatalf("ROCAUC failed: %v", err)
	}
	if !defined {
		t.Fatal("ROCAUC should be defined with both classes present")
	}
	if auc != 1.0 {
		t.Errorf("ROCAUC = %g, want 1.0", auc)
	}
}

func TestROCAUCTies(t *testing.T) {
	// All scores equal: AUC must be exactly 0.5 via average ranks.
	yTrue := []int{0, 1, 0, 1}
	scores := []float64{0.5, 0.5, 0.5, 0.5}

	auc, defined, err := ROCAUC(yTrue, scores, 1)
	if err != nil {
		t.Fatalf("ROCAUC failed: %v", err)
	}
	if !defined {
		t.Fatal("ROCAUC should be defined")
	}
	if math.Abs(auc-0.5) > 1e-12 {
		t.Errorf("ROCAUC = %g, want 0.5", auc)
	}
}

func TestROCAUCMixed(t *testing.T) {
	yTrue := []int{0, 1, 0, 1, 1}
	scores := []float64{0.3, 0.2, 0.4, 0.7, 0.9}

	// Pairs: (0.3,0.2)=0, (0.3,0.7)=1, (0.3,0.9)=1, (0.4,0.2)=0,
	// (0.4,0.7)=1, (0.4,0.9)=1 -> 4/6.
	auc, defined, err := ROCAUC(yTrue, scores, 1)
	if err != nil {
		t.Fatalf("ROCAUC failed: %v", err)
	}
	if !defined {
		t.Fatal("ROCAUC should be defined")
	}
	if math.Abs(auc-4.0/6.0) > 1e-12 {
		t.Errorf("ROCAUC = %g, want %g", auc, 4.0/6.0)
	}
}

func TestROCAUCSingleClassUndefined(t *testing.T) {
	var warned []error
	errors.SetWarningHandler(func(err error) { warned = append(warned, err) })
	t.Cleanup(func() { errors.SetWarningHandler(func(error) {}) })

	auc, defined, err := ROCAUC([]int{1, 1, 1}, []float64{0.1, 0.5, 0.9}, 1)
	if err != nil {
		t.Fatalf("ROCAUC failed: %v", err)
	}
	if defined {
		t.Error("ROCAUC must be undefined with a single class")
	}
	if auc != 0 {
		t.Errorf("undefined ROCAUC value = %g, want 0", auc)
	}
	if len(warned) != 1 {
		t.Fatalf("expected one warning, got %d", len(warned))
	}
	var umw *errors.UndefinedMetricWarning
	if !errors.As(warned[0], &umw) {
		t.Errorf("warning type = %T, want *UndefinedMetricWarning", warned[0])
	}
}
