package classify

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/oncostat/deltarad/core/model"
	"github.com/oncostat/deltarad/pkg/errors"
)

// LogisticRegression is a binary L2-regularized logistic classifier fitted
// by gradient descent with balanced class weights.
type LogisticRegression struct {
	model.BaseEstimator

	c       float64
	maxIter int
	tol     float64

	weights   []float64
	intercept float64
	classes   []int
	nIter     int
}

// LogisticOption is a functional option for LogisticRegression.
type LogisticOption func(*LogisticRegression)

// NewLogisticRegression creates a logistic regression classifier.
func NewLogisticRegression(opts ...LogisticOption) *LogisticRegression {
	lr := &LogisticRegression{
		c:       1.0,
		maxIter: 1000,
		tol:     1e-5,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// WithLogisticC sets the inverse regularization strength.
func WithLogisticC(c float64) LogisticOption {
	return func(lr *LogisticRegression) { lr.c = c }
}

// WithLogisticMaxIter sets the iteration limit.
func WithLogisticMaxIter(maxIter int) LogisticOption {
	return func(lr *LogisticRegression) { lr.maxIter = maxIter }
}

// Fit trains the classifier by sample-weighted gradient descent.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 {
		return errors.Wrap(errors.ErrEmptyData, "LogisticRegression.Fit")
	}
	yr, _ := y.Dims()
	if yr != nSamples {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yr, 0)
	}

	classes, err := binaryClasses(y, "LogisticRegression.Fit")
	if err != nil {
		return err
	}
	lr.classes = classes

	// 0/1 targets and balanced sample weights.
	target := make([]float64, nSamples)
	counts := map[int]int{}
	labels := make([]int, nSamples)
	for i := 0; i < nSamples; i++ {
		labels[i] = int(y.At(i, 0))
		counts[labels[i]]++
		if labels[i] == classes[1] {
			target[i] = 1
		}
	}
	classWeights := balancedWeights(counts, nSamples)
	sampleWeights := make([]float64, nSamples)
	weightSum := 0.0
	for i := 0; i < nSamples; i++ {
		sampleWeights[i] = classWeights[labels[i]]
		weightSum += sampleWeights[i]
	}

	lr.weights = make([]float64, nFeatures)
	lr.intercept = 0

	baseLearningRate := 1.0
	for iter := 0; iter < lr.maxIter; iter++ {
		gradW := make([]float64, nFeatures)
		gradB := 0.0

		for i := 0; i < nSamples; i++ {
			z := lr.intercept
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * lr.weights[j]
			}
			residual := sampleWeights[i] * (sigmoid(z) - target[i])
			gradB += residual
			for j := 0; j < nFeatures; j++ {
				gradW[j] += residual * X.At(i, j)
			}
		}

		lambda := 1.0 / lr.c
		for j := range gradW {
			gradW[j] = gradW[j]/weightSum + lambda*lr.weights[j]/float64(nSamples)
		}
		gradB /= weightSum

		if err := errors.CheckNumericalStability("logistic gradient", gradW, iter); err != nil {
			return errors.Wrap(err, "LogisticRegression.Fit")
		}

		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))
		for j := range lr.weights {
			lr.weights[j] -= learningRate * gradW[j]
		}
		lr.intercept -= learningRate * gradB
		lr.nIter = iter + 1

		maxGrad := math.Abs(gradB)
		for _, g := range gradW {
			if math.Abs(g) > maxGrad {
				maxGrad = math.Abs(g)
			}
		}
		if maxGrad < lr.tol {
			break
		}
	}

	lr.SetFitted()
	return nil
}

// Predict returns labels at the 0.5 probability threshold.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}
	rows, _ := proba.Dims()
	pred := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		if proba.At(i, 1) >= 0.5 {
			pred.Set(i, 0, float64(lr.classes[1]))
		} else {
			pred.Set(i, 0, float64(lr.classes[0]))
		}
	}
	return pred, nil
}

// PredictProba returns the class probabilities.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "PredictProba")
	}
	rows, cols := X.Dims()
	if cols != len(lr.weights) {
		return nil, errors.NewDimensionError("LogisticRegression.PredictProba", len(lr.weights), cols, 1)
	}

	proba := mat.NewDense(rows, 2, nil)
	for i := 0; i < rows; i++ {
		z := lr.intercept
		for j := 0; j < cols; j++ {
			z += X.At(i, j) * lr.weights[j]
		}
		p := sigmoid(z)
		proba.Set(i, 0, 1-p)
		proba.Set(i, 1, p)
	}
	return proba, nil
}

// Classes returns the class labels in ascending order.
func (lr *LogisticRegression) Classes() []int {
	out := make([]int, len(lr.classes))
	copy(out, lr.classes)
	return out
}

// GetParams returns the classifier's hyperparameters.
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"model": "logistic_regression",
		"C":     lr.c,
	}
}

func sigmoid(z float64) float64 {
	if z > 500 {
		return 1
	}
	if z < -500 {
		return 0
	}
	return 1.0 / (1.0 + math.Exp(-z))
}
