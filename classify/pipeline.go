package classify

import (
	"gonum.org/v1/gonum/mat"

	"github.com/oncostat/deltarad/core/model"
	"github.com/oncostat/deltarad/pkg/errors"
	"github.com/oncostat/deltarad/preprocessing"
)

// Pipeline chains median imputation and standardization in front of a
// classifier. Fit runs all three stages on the training split only;
// Predict and PredictProba push new data through the already-fitted
// transformers, so no test-split statistic ever leaks into preprocessing.
type Pipeline struct {
	imputer   *preprocessing.MedianImputer
	scaler    *preprocessing.StandardScaler
	estimator model.Classifier
}

// NewPipeline wraps the estimator with the study's preprocessing stages.
func NewPipeline(estimator model.Classifier) *Pipeline {
	return &Pipeline{
		imputer:   preprocessing.NewMedianImputer(),
		scaler:    preprocessing.NewStandardScaler(),
		estimator: estimator,
	}
}

// Fit fits imputer, scaler and estimator in sequence on the training data.
func (p *Pipeline) Fit(X, y mat.Matrix) error {
	imputed, err := p.imputer.FitTransform(X)
	if err != nil {
		return errors.Wrap(err, "Pipeline.Fit: impute")
	}
	scaled, err := p.scaler.FitTransform(imputed)
	if err != nil {
		return errors.Wrap(err, "Pipeline.Fit: scale")
	}
	return p.estimator.Fit(scaled, y)
}

func (p *Pipeline) transform(X mat.Matrix) (mat.Matrix, error) {
	imputed, err := p.imputer.Transform(X)
	if err != nil {
		return nil, errors.Wrap(err, "Pipeline: impute")
	}
	scaled, err := p.scaler.Transform(imputed)
	if err != nil {
		return nil, errors.Wrap(err, "Pipeline: scale")
	}
	return scaled, nil
}

// Predict transforms X with the fitted stages and predicts.
func (p *Pipeline) Predict(X mat.Matrix) (mat.Matrix, error) {
	scaled, err := p.transform(X)
	if err != nil {
		return nil, err
	}
	return p.estimator.Predict(scaled)
}

// PredictProba transforms X with the fitted stages and scores.
func (p *Pipeline) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	scaled, err := p.transform(X)
	if err != nil {
		return nil, err
	}
	return p.estimator.PredictProba(scaled)
}

// Classes returns the wrapped estimator's classes.
func (p *Pipeline) Classes() []int {
	return p.estimator.Classes()
}

// GetParams returns the wrapped estimator's hyperparameters.
func (p *Pipeline) GetParams() map[string]interface{} {
	if getter, ok := p.estimator.(model.ParameterGetter); ok {
		return getter.GetParams()
	}
	return map[string]interface{}{}
}
