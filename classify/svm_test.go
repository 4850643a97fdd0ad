package classify

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// Two well-separated clusters must be classified perfectly.
func separableData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(10, 2, []float64{
		-2.0, -2.1,
		-1.8, -2.3,
		-2.2, -1.9,
		-1.9, -1.8,
		-2.1, -2.0,
		2.0, 2.1,
		1.8, 2.3,
		2.2, 1.9,
		1.9, 1.8,
		2.1, 2.0,
	})
	y := mat.NewDense(10, 1, []float64{0, 0, 0, 0, 0, 1, 1, 1, 1, 1})
	return X, y
}

func TestSVCSeparable(t *testing.T) {
	X, y := separableData()

	svc := NewSVC(WithSVCC(1), WithSVCSeed(7))
	if err := svc.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	pred, err := svc.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		if pred.At(i, 0) != y.At(i, 0) {
			t.Errorf("sample %d: predicted %g, want %g", i, pred.At(i, 0), y.At(i, 0))
		}
	}
}

func TestSVCPredictProbaOrdering(t *testing.T) {
	X, y := separableData()

	svc := NewSVC(WithSVCSeed(7))
	if err := svc.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	proba, err := svc.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}

	// Positive-cluster samples must score higher than negative-cluster ones.
	for i := 0; i < 5; i++ {
		neg := proba.At(i, 1)
		pos := proba.At(i+5, 1)
		if pos <= neg {
			t.Errorf("positive sample %d scored %g, not above negative %g", i+5, pos, neg)
		}
	}

	// Rows are valid distributions.
	for i := 0; i < 10; i++ {
		if s := proba.At(i, 0) + proba.At(i, 1); math.Abs(s-1) > 1e-9 {
			t.Errorf("row %d probabilities sum to %g", i, s)
		}
	}
}

func TestSVCDeterministicSeed(t *testing.T) {
	X, y := separableData()
	test := mat.NewDense(2, 2, []float64{-1.5, -1.5, 1.5, 1.5})

	score := func() []float64 {
		svc := NewSVC(WithSVCSeed(99))
		if err := svc.Fit(X, y); err != nil {
			t.Fatalf("Fit failed: %v", err)
		}
		f, err := svc.DecisionFunction(test)
		if err != nil {
			t.Fatalf("DecisionFunction failed: %v", err)
		}
		return f
	}

	first, second := score(), score()
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("decision %d differs across runs: %g vs %g", i, first[i], second[i])
		}
	}
}

func TestSVCClasses(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{-1, -2, 1, 2})
	y := mat.NewDense(4, 1, []float64{3, 3, 7, 7})

	svc := NewSVC(WithSVCSeed(1))
	if err := svc.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	classes := svc.Classes()
	if len(classes) != 2 || classes[0] != 3 || classes[1] != 7 {
		t.Errorf("Classes() = %v, want [3 7]", classes)
	}
}

func TestSVCSingleClassRejected(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{1, 1, 1})

	if err := NewSVC().Fit(X, y); err == nil {
		t.Fatal("single-class y must fail")
	}
}

func TestSVCNotFitted(t *testing.T) {
	if _, err := NewSVC().Predict(mat.NewDense(1, 1, []float64{1})); err == nil {
		t.Fatal("Predict before Fit must fail")
	}
}
