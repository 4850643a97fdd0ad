package classify

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/oncostat/deltarad/core/model"
	"github.com/oncostat/deltarad/pkg/errors"
)

// KNeighborsClassifier predicts by majority vote over the k nearest training
// samples in Euclidean distance. Neighbor order is made deterministic by
// breaking distance ties on the training index.
type KNeighborsClassifier struct {
	model.BaseEstimator

	k int

	trainX *mat.Dense
	labels []int

	classes []int
}

// KNNOption is a functional option for KNeighborsClassifier.
type KNNOption func(*KNeighborsClassifier)

// NewKNeighborsClassifier creates a k-nearest-neighbors classifier.
func NewKNeighborsClassifier(opts ...KNNOption) *KNeighborsClassifier {
	knn := &KNeighborsClassifier{k: 5}
	for _, opt := range opts {
		opt(knn)
	}
	return knn
}

// WithKNNNeighbors sets the neighbor count k.
func WithKNNNeighbors(k int) KNNOption {
	return func(knn *KNeighborsClassifier) { knn.k = k }
}

// Fit stores the training data.
func (knn *KNeighborsClassifier) Fit(X, y mat.Matrix) error {
	rows, _ := X.Dims()
	if rows == 0 {
		return errors.Wrap(errors.ErrEmptyData, "KNeighborsClassifier.Fit")
	}
	yr, _ := y.Dims()
	if yr != rows {
		return errors.NewDimensionError("KNeighborsClassifier.Fit", rows, yr, 0)
	}
	if knn.k < 1 {
		return errors.NewValidationError("k", "must be at least 1", knn.k)
	}
	if knn.k > rows {
		return errors.NewValidationError("k", "exceeds training sample count", knn.k)
	}

	classes, err := binaryClasses(y, "KNeighborsClassifier.Fit")
	if err != nil {
		return err
	}
	knn.classes = classes

	knn.trainX = mat.DenseCopyOf(X)
	knn.labels = make([]int, rows)
	for i := 0; i < rows; i++ {
		knn.labels[i] = int(y.At(i, 0))
	}

	knn.SetFitted()
	return nil
}

// Predict returns the majority-vote labels.
func (knn *KNeighborsClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := knn.PredictProba(X)
	if err != nil {
		return nil, err
	}
	rows, _ := proba.Dims()
	pred := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		// Ties resolve to the lower class label.
		if proba.At(i, 1) > 0.5 {
			pred.Set(i, 0, float64(knn.classes[1]))
		} else {
			pred.Set(i, 0, float64(knn.classes[0]))
		}
	}
	return pred, nil
}

// PredictProba returns the class fraction among the k nearest neighbors.
func (knn *KNeighborsClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !knn.IsFitted() {
		return nil, errors.NewNotFittedError("KNeighborsClassifier", "PredictProba")
	}
	rows, cols := X.Dims()
	trainRows, trainCols := knn.trainX.Dims()
	if cols != trainCols {
		return nil, errors.NewDimensionError("KNeighborsClassifier.PredictProba", trainCols, cols, 1)
	}

	Xd := mat.DenseCopyOf(X)
	proba := mat.NewDense(rows, 2, nil)

	type neighbor struct {
		dist  float64
		index int
	}

	for i := 0; i < rows; i++ {
		neighbors := make([]neighbor, trainRows)
		for j := 0; j < trainRows; j++ {
			neighbors[j] = neighbor{
				dist:  euclidean(Xd.RawRowView(i), knn.trainX.RawRowView(j)),
				index: j,
			}
		}
		sort.Slice(neighbors, func(a, b int) bool {
			if neighbors[a].dist != neighbors[b].dist {
				return neighbors[a].dist < neighbors[b].dist
			}
			return neighbors[a].index < neighbors[b].index
		})

		positives := 0
		for _, nb := range neighbors[:knn.k] {
			if knn.labels[nb.index] == knn.classes[1] {
				positives++
			}
		}
		p := float64(positives) / float64(knn.k)
		proba.Set(i, 0, 1-p)
		proba.Set(i, 1, p)
	}
	return proba, nil
}

// Classes returns the class labels in ascending order.
func (knn *KNeighborsClassifier) Classes() []int {
	out := make([]int, len(knn.classes))
	copy(out, knn.classes)
	return out
}

// GetParams returns the classifier's hyperparameters.
func (knn *KNeighborsClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"model":       "knn",
		"n_neighbors": knn.k,
	}
}

func euclidean(a, b []float64) float64 {
	d := 0.0
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return math.Sqrt(d)
}
