package classify

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/oncostat/deltarad/core/model"
	"github.com/oncostat/deltarad/metrics"
	"github.com/oncostat/deltarad/pkg/errors"
	"github.com/oncostat/deltarad/pkg/log"
)

// ParamSet is one hyperparameter combination of the search grid.
type ParamSet map[string]float64

// String renders the parameters in sorted key order.
func (p ParamSet) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s := ""
	for i, k := range keys {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s=%g", k, p[k])
	}
	return s
}

// GridSearchCV tunes an estimator by stratified cross-validation, scoring
// candidates on mean balanced accuracy. Every candidate fit happens inside a
// fresh preprocessing pipeline, so imputation and scaling statistics are
// recomputed per fold from fold-training data only. Ties keep the earliest
// candidate in grid order, which makes the selection deterministic.
type GridSearchCV struct {
	// Build constructs a bare estimator from one parameter combination.
	Build func(params ParamSet) model.Classifier

	Grid  []ParamSet
	Folds int
	Seed  uint64
}

// GridSearchResult is the outcome of a completed search.
type GridSearchResult struct {
	BestParams ParamSet
	BestScore  float64
	// CandidateScores holds the mean validation score per grid entry, in
	// grid order.
	CandidateScores []float64
	// Estimator is the winning pipeline refitted on all the search data.
	Estimator *Pipeline
}

// Fit runs the search. Before any model is trained the class balance is
// checked: a minority class smaller than the fold count would leave folds
// without both classes, so the search fails immediately rather than
// producing scores from degenerate folds.
func (gs *GridSearchCV) Fit(X, y mat.Matrix) (*GridSearchResult, error) {
	rows, _ := X.Dims()
	if rows == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "GridSearchCV.Fit")
	}
	if len(gs.Grid) == 0 {
		return nil, errors.NewValueError("GridSearchCV.Fit", "empty parameter grid")
	}
	if gs.Folds < 2 {
		return nil, errors.NewValidationError("folds", "must be at least 2", gs.Folds)
	}

	if err := checkClassBalance(y, gs.Folds); err != nil {
		return nil, err
	}

	folds := NewStratifiedKFold(gs.Folds, true, gs.Seed).Split(y)

	logger := log.GetLoggerWithName("classify")

	scores := make([]float64, len(gs.Grid))
	for c, params := range gs.Grid {
		total := 0.0
		for _, fold := range folds {
			trainX, trainY := subsetRows(X, y, fold.TrainIndices)
			testX, testY := subsetRows(X, y, fold.TestIndices)

			pipeline := NewPipeline(gs.Build(params))
			if err := pipeline.Fit(trainX, trainY); err != nil {
				return nil, errors.Wrapf(err, "GridSearchCV.Fit: candidate %q", params.String())
			}
			pred, err := pipeline.Predict(testX)
			if err != nil {
				return nil, errors.Wrapf(err, "GridSearchCV.Fit: candidate %q", params.String())
			}

			score, err := metrics.BalancedAccuracy(labelSlice(testY), labelSlice(pred))
			if err != nil {
				return nil, errors.Wrapf(err, "GridSearchCV.Fit: candidate %q", params.String())
			}
			total += score
		}
		scores[c] = total / float64(len(folds))

		logger.Debug("grid candidate scored",
			"params", params.String(),
			log.MetricKey, "balanced_accuracy",
			"score", scores[c])
	}

	best := 0
	for c := 1; c < len(scores); c++ {
		if scores[c] > scores[best] {
			best = c
		}
	}

	winner := NewPipeline(gs.Build(gs.Grid[best]))
	if err := winner.Fit(X, y); err != nil {
		return nil, errors.Wrap(err, "GridSearchCV.Fit: refit winner")
	}

	logger.Info("grid search complete",
		"best_params", gs.Grid[best].String(),
		"best_score", scores[best],
		"candidates", len(gs.Grid))

	return &GridSearchResult{
		BestParams:      gs.Grid[best],
		BestScore:       scores[best],
		CandidateScores: scores,
		Estimator:       winner,
	}, nil
}

// checkClassBalance fails fast when the minority class cannot appear in
// every fold. A class absent from y entirely is the extreme case: its count
// is zero, not merely small, and no fold can hold both classes.
func checkClassBalance(y mat.Matrix, folds int) error {
	rows, _ := y.Dims()
	counts := map[int]int{}
	for i := 0; i < rows; i++ {
		counts[int(y.At(i, 0))]++
	}

	if len(counts) < 2 {
		missing := 0
		for label := range counts {
			if label == 0 {
				missing = 1
			}
		}
		return errors.NewInsufficientClassBalanceError(folds, 0, missing)
	}

	minorityClass, minorityCount := 0, rows+1
	for label, count := range counts {
		if count < minorityCount || (count == minorityCount && label < minorityClass) {
			minorityClass = label
			minorityCount = count
		}
	}
	if minorityCount < folds {
		return errors.NewInsufficientClassBalanceError(folds, minorityCount, minorityClass)
	}
	return nil
}

// subsetRows extracts the given rows of X and y into new dense matrices.
func subsetRows(X, y mat.Matrix, indices []int) (*mat.Dense, *mat.Dense) {
	_, cols := X.Dims()
	subX := mat.NewDense(len(indices), cols, nil)
	subY := mat.NewDense(len(indices), 1, nil)
	for i, idx := range indices {
		for j := 0; j < cols; j++ {
			subX.Set(i, j, X.At(idx, j))
		}
		subY.Set(i, 0, y.At(idx, 0))
	}
	return subX, subY
}

// labelSlice converts an n x 1 label matrix to ints.
func labelSlice(y mat.Matrix) []int {
	rows, _ := y.Dims()
	out := make([]int, rows)
	for i := 0; i < rows; i++ {
		out[i] = int(y.At(i, 0))
	}
	return out
}
