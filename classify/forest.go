package classify

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/oncostat/deltarad/core/model"
	"github.com/oncostat/deltarad/pkg/errors"
	"github.com/oncostat/deltarad/pkg/log"
)

// RandomForest is a bagged ensemble of gini decision trees with balanced
// class weights. All randomness (bootstrap draws, per-split feature
// sampling) flows from a single seeded generator, so a fixed seed gives
// bit-identical forests across runs.
type RandomForest struct {
	model.BaseEstimator

	nEstimators    int
	maxDepth       int
	minSamplesLeaf int
	seed           uint64

	trees   []*decisionTree
	classes []int
}

// RandomForestOption is a functional option for RandomForest.
type RandomForestOption func(*RandomForest)

// NewRandomForest creates a random forest classifier.
func NewRandomForest(opts ...RandomForestOption) *RandomForest {
	rf := &RandomForest{
		nEstimators:    100,
		maxDepth:       8,
		minSamplesLeaf: 1,
		seed:           42,
	}
	for _, opt := range opts {
		opt(rf)
	}
	return rf
}

// WithForestEstimators sets the number of trees.
func WithForestEstimators(n int) RandomForestOption {
	return func(rf *RandomForest) { rf.nEstimators = n }
}

// WithForestMaxDepth sets the tree depth limit.
func WithForestMaxDepth(depth int) RandomForestOption {
	return func(rf *RandomForest) { rf.maxDepth = depth }
}

// WithForestMinSamplesLeaf sets the minimum samples per leaf.
func WithForestMinSamplesLeaf(n int) RandomForestOption {
	return func(rf *RandomForest) { rf.minSamplesLeaf = n }
}

// WithForestSeed sets the random seed.
func WithForestSeed(seed uint64) RandomForestOption {
	return func(rf *RandomForest) { rf.seed = seed }
}

// Fit trains the ensemble on bootstrap resamples of (X, y).
func (rf *RandomForest) Fit(X, y mat.Matrix) error {
	rows, _ := X.Dims()
	if rows == 0 {
		return errors.Wrap(errors.ErrEmptyData, "RandomForest.Fit")
	}
	yr, _ := y.Dims()
	if yr != rows {
		return errors.NewDimensionError("RandomForest.Fit", rows, yr, 0)
	}

	classes, err := binaryClasses(y, "RandomForest.Fit")
	if err != nil {
		return err
	}
	rf.classes = classes

	labels := make([]int, rows)
	counts := map[int]int{}
	for i := 0; i < rows; i++ {
		labels[i] = int(y.At(i, 0))
		counts[labels[i]]++
	}
	weights := balancedWeights(counts, rows)

	Xd := mat.DenseCopyOf(X)
	_, nFeatures := Xd.Dims()
	mtry := int(math.Max(1, math.Sqrt(float64(nFeatures))))

	rng := rand.New(rand.NewPCG(rf.seed, rf.seed))

	rf.trees = make([]*decisionTree, rf.nEstimators)
	for t := 0; t < rf.nEstimators; t++ {
		bootLabels := make([]int, rows)
		bootX := mat.NewDense(rows, nFeatures, nil)
		for i := 0; i < rows; i++ {
			src := rng.IntN(rows)
			bootLabels[i] = labels[src]
			bootX.SetRow(i, Xd.RawRowView(src))
		}

		// A bootstrap draw may miss the minority class in a small cohort;
		// resample until both classes are present.
		for singleClass(bootLabels) {
			for i := 0; i < rows; i++ {
				src := rng.IntN(rows)
				bootLabels[i] = labels[src]
				bootX.SetRow(i, Xd.RawRowView(src))
			}
		}

		tree := newDecisionTree(rf.maxDepth, rf.minSamplesLeaf, mtry, rng)
		tree.fit(bootX, bootLabels, classes, weights)
		rf.trees[t] = tree
	}

	log.GetLoggerWithName("classify").Debug("random forest trained",
		log.SamplesKey, rows,
		"trees", rf.nEstimators,
		"mtry", mtry)

	rf.SetFitted()
	return nil
}

// Predict returns the majority-vote class labels.
func (rf *RandomForest) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := rf.PredictProba(X)
	if err != nil {
		return nil, err
	}
	rows, _ := proba.Dims()
	pred := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		if proba.At(i, 1) >= 0.5 {
			pred.Set(i, 0, float64(rf.classes[1]))
		} else {
			pred.Set(i, 0, float64(rf.classes[0]))
		}
	}
	return pred, nil
}

// PredictProba averages the leaf class distributions across trees.
func (rf *RandomForest) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !rf.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForest", "PredictProba")
	}
	rows, _ := X.Dims()
	Xd := mat.DenseCopyOf(X)

	proba := mat.NewDense(rows, len(rf.classes), nil)
	for i := 0; i < rows; i++ {
		row := Xd.RawRowView(i)
		acc := make([]float64, len(rf.classes))
		for _, tree := range rf.trees {
			p := tree.predictProba(row)
			for c := range acc {
				acc[c] += p[c]
			}
		}
		for c := range acc {
			proba.Set(i, c, acc[c]/float64(len(rf.trees)))
		}
	}
	return proba, nil
}

// Classes returns the class labels in ascending order.
func (rf *RandomForest) Classes() []int {
	out := make([]int, len(rf.classes))
	copy(out, rf.classes)
	return out
}

// GetParams returns the classifier's hyperparameters.
func (rf *RandomForest) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"model":            "random_forest",
		"n_estimators":     rf.nEstimators,
		"max_depth":        rf.maxDepth,
		"min_samples_leaf": rf.minSamplesLeaf,
	}
}

// balancedWeights computes per-class weights n / (k * n_class).
func balancedWeights(counts map[int]int, n int) map[int]float64 {
	weights := make(map[int]float64, len(counts))
	for label, count := range counts {
		weights[label] = float64(n) / (float64(len(counts)) * float64(count))
	}
	return weights
}

func singleClass(labels []int) bool {
	for _, l := range labels[1:] {
		if l != labels[0] {
			return false
		}
	}
	return true
}
