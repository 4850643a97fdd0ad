package eval

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/oncostat/deltarad/classify"
	"github.com/oncostat/deltarad/cohort"
	"github.com/oncostat/deltarad/core/model"
	"github.com/oncostat/deltarad/metrics"
	"github.com/oncostat/deltarad/pkg/errors"
	"github.com/oncostat/deltarad/pkg/log"
)

// positiveLabel is the outcome class whose scores feed ranking metrics.
const positiveLabel = 1

// Harness evaluates every model family against every feature configuration
// on a fixed train/test split. Cells run concurrently but each cell's
// randomness is derived from the harness seed and the cell's position in
// the grid, so reruns with the same seed reproduce every record exactly,
// whatever the goroutine schedule.
type Harness struct {
	Models         []classify.ModelSpec
	Configurations []cohort.Configuration
	Assembler      *cohort.Assembler
	Folds          int
	Seed           uint64

	// MaxConcurrency caps parallel cells; zero means unbounded.
	MaxConcurrency int
}

// NewHarness creates a harness over the default models and all four
// configurations.
func NewHarness(assembler *cohort.Assembler, folds int, seed uint64) *Harness {
	return &Harness{
		Models:         classify.DefaultModels(),
		Configurations: cohort.AllConfigurations(),
		Assembler:      assembler,
		Folds:          folds,
		Seed:           seed,
	}
}

// Run evaluates the full grid and returns one record per cell, ordered by
// model then configuration. A panic inside a cell is captured as that
// cell's error rather than taking down the run.
func (h *Harness) Run(ctx context.Context) ([]Result, error) {
	if len(h.Models) == 0 || len(h.Configurations) == 0 {
		return nil, errors.NewValueError("Harness.Run", "empty model or configuration list")
	}

	runID := uuid.NewString()
	logger := log.GetLoggerWithName("eval").With(log.RunIDKey, runID)
	started := time.Now()

	nCells := len(h.Models) * len(h.Configurations)
	results := make([]Result, nCells)

	g, ctx := errgroup.WithContext(ctx)
	if h.MaxConcurrency > 0 {
		g.SetLimit(h.MaxConcurrency)
	}

	for mi, spec := range h.Models {
		for ci, config := range h.Configurations {
			mi, ci, spec, config := mi, ci, spec, config
			cell := mi*len(h.Configurations) + ci
			// Per-cell seed, stable across schedules and reruns.
			cellSeed := h.Seed + uint64(cell)*1000003

			g.Go(func() error {
				return errors.SafeExecute("evaluate "+spec.Name+"/"+string(config), func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					result, err := h.runCell(runID, spec, config, cellSeed)
					if err != nil {
						return errors.Wrapf(err, "cell %s/%s", spec.Name, config)
					}
					results[cell] = result
					return nil
				})
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info("evaluation grid complete",
		"cells", nCells,
		log.DurationMsKey, time.Since(started).Milliseconds())

	return results, nil
}

func (h *Harness) runCell(runID string, spec classify.ModelSpec, config cohort.Configuration, seed uint64) (Result, error) {
	train, err := h.Assembler.Assemble(config, cohort.SplitTrain)
	if err != nil {
		return Result{}, err
	}
	test, err := h.Assembler.Assemble(config, cohort.SplitTest)
	if err != nil {
		return Result{}, err
	}

	search := &classify.GridSearchCV{
		Build: func(params classify.ParamSet) model.Classifier {
			return spec.Build(seed, params)
		},
		Grid:  spec.Grid,
		Folds: h.Folds,
		Seed:  seed,
	}

	fitted, err := search.Fit(train.X, train.Y)
	if err != nil {
		return Result{}, err
	}

	pred, err := fitted.Estimator.Predict(test.X)
	if err != nil {
		return Result{}, err
	}
	proba, err := fitted.Estimator.PredictProba(test.X)
	if err != nil {
		return Result{}, err
	}

	actual := labelColumn(test.Y)
	predicted := labelColumn(pred)
	scores := positiveScores(fitted.Estimator.Classes(), proba)

	accuracy, err := metrics.Accuracy(actual, predicted)
	if err != nil {
		return Result{}, err
	}
	balanced, err := metrics.BalancedAccuracy(actual, predicted)
	if err != nil {
		return Result{}, err
	}
	f1, err := metrics.F1Score(actual, predicted, positiveLabel)
	if err != nil {
		return Result{}, err
	}
	auc, aucDefined, err := metrics.ROCAUC(actual, scores, positiveLabel)
	if err != nil {
		return Result{}, err
	}

	predictions := make([]Prediction, len(actual))
	for i := range actual {
		predictions[i] = Prediction{
			PatientID: test.PatientIDs[i],
			Actual:    actual[i],
			Predicted: predicted[i],
			Score:     scores[i],
		}
	}

	testMetrics := map[string]float64{
		"accuracy":          accuracy,
		"balanced_accuracy": balanced,
		"f1":                f1,
	}

	trainRows, _ := train.X.Dims()
	testRows, _ := test.X.Dims()

	log.GetLoggerWithName("eval").Info("cell evaluated",
		log.RunIDKey, runID,
		log.ModelNameKey, spec.Name,
		log.ConfigurationKey, string(config),
		"balanced_accuracy", balanced,
		"auc_defined", aucDefined)

	return newResult(runID, spec.Name, config, fitted.BestParams, fitted.BestScore,
		testMetrics, auc, aucDefined, predictions, trainRows, testRows,
		fitted.Estimator), nil
}

// labelColumn converts an n x 1 label matrix to ints.
func labelColumn(y mat.Matrix) []int {
	rows, _ := y.Dims()
	out := make([]int, rows)
	for i := 0; i < rows; i++ {
		out[i] = int(y.At(i, 0))
	}
	return out
}

// positiveScores extracts the probability column of the positive class.
func positiveScores(classes []int, proba mat.Matrix) []float64 {
	col := 0
	for i, c := range classes {
		if c == positiveLabel {
			col = i
		}
	}
	rows, _ := proba.Dims()
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = proba.At(i, col)
	}
	return out
}
