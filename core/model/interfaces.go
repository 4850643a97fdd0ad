// Package model defines the estimator capabilities the evaluation harness
// depends on. The harness is written against these interfaces only; concrete
// estimator types (SVM, random forest, and friends) live in the classify
// package.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter is a model that can be trained.
type Fitter interface {
	// Fit trains the model on X (n_samples x n_features) and y (n_samples x 1).
	Fit(X, y mat.Matrix) error
}

// Predictor is a model that can predict labels.
type Predictor interface {
	// Predict returns predicted labels as an n_samples x 1 matrix.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Transformer is a fit-then-apply data transformation. Fit must only ever
// see the training split; Transform applies the fitted state unchanged to
// any split.
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
}

// Classifier is the polymorphic estimator capability used by the evaluation
// harness: fit, predict, and predict-probability, plus the classes seen
// during fitting.
type Classifier interface {
	Fitter
	Predictor

	// PredictProba returns per-class probability estimates
	// (n_samples x n_classes), columns ordered as Classes().
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the unique class labels seen during fitting, ascending.
	Classes() []int
}

// ParameterGetter exposes an estimator's hyperparameters, used to record the
// chosen settings on result records.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}
