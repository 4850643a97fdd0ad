package preprocessing

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"

	"github.com/oncostat/deltarad/core/model"
	"github.com/oncostat/deltarad/pkg/errors"
)

// MedianImputer replaces NaN markers with the per-feature median of the
// training data. Patients missing a radiomics block keep their row in every
// configuration; the markers are resolved here, inside the pipeline, so the
// evaluation cohort stays fixed across configurations.
type MedianImputer struct {
	model.BaseEstimator

	// Medians holds the per-feature training medians, NaN values excluded.
	Medians []float64

	NFeatures int
}

// NewMedianImputer creates an unfitted MedianImputer.
func NewMedianImputer() *MedianImputer {
	return &MedianImputer{}
}

// Fit computes per-feature medians over the non-missing training values. A
// feature that is missing for every training row imputes to 0; with the
// fixed cohort this only happens when a whole radiomics block is absent.
func (m *MedianImputer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "MedianImputer.Fit")
	}

	m.NFeatures = c
	m.Medians = make([]float64, c)

	for j := 0; j < c; j++ {
		observed := make([]float64, 0, r)
		for i := 0; i < r; i++ {
			v := X.At(i, j)
			if !math.IsNaN(v) {
				observed = append(observed, v)
			}
		}
		if len(observed) == 0 {
			m.Medians[j] = 0
			continue
		}
		median, err := stats.Median(observed)
		if err != nil {
			return errors.Wrapf(err, "MedianImputer.Fit: feature %d", j)
		}
		m.Medians[j] = median
	}

	m.SetFitted()
	return nil
}

// Transform replaces every NaN in X with the fitted median of its column.
func (m *MedianImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MedianImputer", "Transform")
	}

	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("MedianImputer.Transform", m.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			if math.IsNaN(v) {
				v = m.Medians[j]
			}
			result.Set(i, j, v)
		}
	}
	return result, nil
}

// FitTransform fits on X and returns the transformed X.
func (m *MedianImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// GetParams returns the imputer's parameters.
func (m *MedianImputer) GetParams() map[string]interface{} {
	return map[string]interface{}{"imputer": "median"}
}
