// Package eval runs the model-by-configuration evaluation grid and records
// the outcome of every cell.
package eval

import (
	"encoding/json"
	"sort"

	"github.com/rs/zerolog"

	"github.com/oncostat/deltarad/classify"
	"github.com/oncostat/deltarad/cohort"
)

// Prediction is one test patient's predicted and actual outcome, with the
// positive-class score used for ranking metrics.
type Prediction struct {
	PatientID string  `json:"patient_id"`
	Actual    int     `json:"actual"`
	Predicted int     `json:"predicted"`
	Score     float64 `json:"score"`
}

// Result is the immutable record of one evaluation cell. All state is set
// at construction and only copies leave the accessors, so a record cannot
// drift after the run that produced it.
type Result struct {
	runID         string
	model         string
	configuration cohort.Configuration
	params        classify.ParamSet
	cvScore       float64
	metrics       map[string]float64
	auc           float64
	aucDefined    bool
	predictions   []Prediction
	trainSize     int
	testSize      int
	estimator     *classify.Pipeline
}

func newResult(
	runID, model string,
	configuration cohort.Configuration,
	params classify.ParamSet,
	cvScore float64,
	metrics map[string]float64,
	auc float64,
	aucDefined bool,
	predictions []Prediction,
	trainSize, testSize int,
	estimator *classify.Pipeline,
) Result {
	paramsCopy := make(classify.ParamSet, len(params))
	for k, v := range params {
		paramsCopy[k] = v
	}
	metricsCopy := make(map[string]float64, len(metrics))
	for k, v := range metrics {
		metricsCopy[k] = v
	}
	predCopy := make([]Prediction, len(predictions))
	copy(predCopy, predictions)

	return Result{
		runID:         runID,
		model:         model,
		configuration: configuration,
		params:        paramsCopy,
		cvScore:       cvScore,
		metrics:       metricsCopy,
		auc:           auc,
		aucDefined:    aucDefined,
		predictions:   predCopy,
		trainSize:     trainSize,
		testSize:      testSize,
		estimator:     estimator,
	}
}

// RunID identifies the harness run that produced this record.
func (r Result) RunID() string { return r.runID }

// Model returns the model family name.
func (r Result) Model() string { return r.model }

// Configuration returns the feature configuration evaluated.
func (r Result) Configuration() cohort.Configuration { return r.configuration }

// Params returns a copy of the winning hyperparameters.
func (r Result) Params() classify.ParamSet {
	out := make(classify.ParamSet, len(r.params))
	for k, v := range r.params {
		out[k] = v
	}
	return out
}

// CVScore returns the winning candidate's mean cross-validation score.
func (r Result) CVScore() float64 { return r.cvScore }

// Metric returns a named test metric.
func (r Result) Metric(name string) (float64, bool) {
	v, ok := r.metrics[name]
	return v, ok
}

// Metrics returns a copy of all test metrics.
func (r Result) Metrics() map[string]float64 {
	out := make(map[string]float64, len(r.metrics))
	for k, v := range r.metrics {
		out[k] = v
	}
	return out
}

// AUC returns the test ROC-AUC and whether it is defined. With a
// single-class test split the area does not exist; the boolean is the only
// trustworthy signal, the value is zero.
func (r Result) AUC() (float64, bool) { return r.auc, r.aucDefined }

// Predictions returns a copy of the per-patient test predictions.
func (r Result) Predictions() []Prediction {
	out := make([]Prediction, len(r.predictions))
	copy(out, r.predictions)
	return out
}

// Estimator returns the winning pipeline, refitted on the full training
// split, for downstream inspection of the selected model. The pipeline is
// a live fitted object shared with the record: callers may predict with it
// but must not refit it.
func (r Result) Estimator() *classify.Pipeline { return r.estimator }

// TrainSize returns the training split size.
func (r Result) TrainSize() int { return r.trainSize }

// TestSize returns the test split size.
func (r Result) TestSize() int { return r.testSize }

// resultJSON is the serialized shape of a Result.
type resultJSON struct {
	RunID         string             `json:"run_id"`
	Model         string             `json:"model"`
	Configuration string             `json:"configuration"`
	Params        map[string]float64 `json:"params"`
	CVScore       float64            `json:"cv_score"`
	Metrics       map[string]float64 `json:"metrics"`
	AUC           *float64           `json:"roc_auc"` // null when undefined
	Predictions   []Prediction       `json:"predictions"`
	TrainSize     int                `json:"train_size"`
	TestSize      int                `json:"test_size"`
}

// MarshalJSON serializes the record. An undefined ROC-AUC is emitted as
// null, never as a misleading zero.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		RunID:         r.runID,
		Model:         r.model,
		Configuration: string(r.configuration),
		Params:        r.params,
		CVScore:       r.cvScore,
		Metrics:       r.metrics,
		Predictions:   r.predictions,
		TrainSize:     r.trainSize,
		TestSize:      r.testSize,
	}
	if r.aucDefined {
		auc := r.auc
		out.AUC = &auc
	}
	return json.Marshal(out)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (r Result) MarshalZerologObject(event *zerolog.Event) {
	event.
		Str("run_id", r.runID).
		Str("model", r.model).
		Str("configuration", string(r.configuration)).
		Bool("auc_defined", r.aucDefined)
	if r.aucDefined {
		event.Float64("roc_auc", r.auc)
	}
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		event.Float64(name, r.metrics[name])
	}
}
