package classify

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestRandomForestSeparable(t *testing.T) {
	X, y := separableData()

	rf := NewRandomForest(WithForestEstimators(25), WithForestSeed(3))
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	pred, err := rf.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		if pred.At(i, 0) != y.At(i, 0) {
			t.Errorf("sample %d: predicted %g, want %g", i, pred.At(i, 0), y.At(i, 0))
		}
	}
}

func TestRandomForestProbaRows(t *testing.T) {
	X, y := separableData()

	rf := NewRandomForest(WithForestEstimators(10), WithForestSeed(3))
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	proba, err := rf.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	rows, cols := proba.Dims()
	if cols != 2 {
		t.Fatalf("proba has %d columns, want 2", cols)
	}
	for i := 0; i < rows; i++ {
		if s := proba.At(i, 0) + proba.At(i, 1); math.Abs(s-1) > 1e-9 {
			t.Errorf("row %d probabilities sum to %g", i, s)
		}
	}
}

func TestRandomForestDeterministicSeed(t *testing.T) {
	X, y := separableData()
	test := mat.NewDense(2, 2, []float64{-1.0, -1.2, 1.1, 0.9})

	score := func() *mat.Dense {
		rf := NewRandomForest(WithForestEstimators(15), WithForestSeed(11))
		if err := rf.Fit(X, y); err != nil {
			t.Fatalf("Fit failed: %v", err)
		}
		proba, err := rf.PredictProba(test)
		if err != nil {
			t.Fatalf("PredictProba failed: %v", err)
		}
		return mat.DenseCopyOf(proba)
	}

	first, second := score(), score()
	if !mat.Equal(first, second) {
		t.Error("repeated fits with the same seed give different probabilities")
	}
}

func TestRandomForestImbalancedVotesMinority(t *testing.T) {
	// 8 negatives, 2 positives in distinct regions; balanced class weights
	// must still let the minority region win its own neighborhood.
	X := mat.NewDense(10, 1, []float64{0.1, 0.2, 0.3, 0.15, 0.25, 0.12, 0.22, 0.18, 5.0, 5.2})
	y := mat.NewDense(10, 1, []float64{0, 0, 0, 0, 0, 0, 0, 0, 1, 1})

	rf := NewRandomForest(WithForestEstimators(25), WithForestSeed(5))
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	pred, err := rf.Predict(mat.NewDense(1, 1, []float64{5.1}))
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.At(0, 0) != 1 {
		t.Errorf("minority-region sample predicted %g, want 1", pred.At(0, 0))
	}
}

func TestRandomForestNotFitted(t *testing.T) {
	if _, err := NewRandomForest().Predict(mat.NewDense(1, 1, []float64{1})); err == nil {
		t.Fatal("Predict before Fit must fail")
	}
}
