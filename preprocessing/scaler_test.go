package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestStandardScalerFitTransform(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})

	scaler := NewStandardScaler()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	r, c := scaled.Dims()
	for j := 0; j < c; j++ {
		sum, sumSq := 0.0, 0.0
		for i := 0; i < r; i++ {
			v := scaled.At(i, j)
			sum += v
			sumSq += v * v
		}
		mean := sum / float64(r)
		variance := sumSq/float64(r) - mean*mean
		if math.Abs(mean) > 1e-10 {
			t.Errorf("column %d mean = %g, want 0", j, mean)
		}
		if math.Abs(variance-1) > 1e-10 {
			t.Errorf("column %d variance = %g, want 1", j, variance)
		}
	}
}

func TestStandardScalerTrainOnlyFit(t *testing.T) {
	train := mat.NewDense(2, 1, []float64{0, 10})
	test := mat.NewDense(2, 1, []float64{5, 20})

	scaler := NewStandardScaler()
	if err := scaler.Fit(train); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	// Test data is transformed with training statistics, not its own.
	scaled, err := scaler.Transform(test)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if got := scaled.At(0, 0); math.Abs(got) > 1e-10 {
		t.Errorf("test value 5 should map to training mean 0, got %g", got)
	}
}

func TestStandardScalerConstantFeature(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{7, 7, 7})

	scaler := NewStandardScaler()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if v := scaled.At(i, 0); v != 0 {
			t.Errorf("constant feature should scale to 0, got %g", v)
		}
	}
}

func TestStandardScalerNotFitted(t *testing.T) {
	scaler := NewStandardScaler()
	if _, err := scaler.Transform(mat.NewDense(1, 1, []float64{1})); err == nil {
		t.Error("Transform before Fit must fail")
	}
}

func TestStandardScalerDimensionMismatch(t *testing.T) {
	scaler := NewStandardScaler()
	if err := scaler.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if _, err := scaler.Transform(mat.NewDense(2, 3, nil)); err == nil {
		t.Error("Transform with wrong feature count must fail")
	}
}
