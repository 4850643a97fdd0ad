// Package errors provides the error and warning taxonomy for the deltarad
// pipeline. Structured error types carry enough context (patient, feature,
// timepoint, model, configuration) to trace any anomaly in a run back to its
// cause, and integrate with cockroachdb/errors stack traces and zerolog
// structured logging.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================

var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("deltarad-warning: %v\n", w)
	}
	// zerolog sink, injected lazily to avoid an import cycle with pkg/log.
	zerologWarnFunc func(warning error)
)

// SetWarningHandler sets the process-wide warning handler. Warnings are
// non-fatal data-quality signals (timepoint asymmetry, undefined metrics)
// that must be surfaced but never abort a run.
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc routes warnings to a zerolog-backed sink.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn emits a warning through the configured sink.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	Table parsing errors
//
// ===========================================================================

// MissingRowError reports that a per-patient segmentation table contains no
// row matching the target SUV threshold. Callers treat the patient as
// missing at that timepoint; the absence propagates, it is never replaced
// with a synthetic zero.
type MissingRowError struct {
	Patient   string
	Timepoint string
	Threshold float64
}

func (e *MissingRowError) Error() string {
	return fmt.Sprintf("deltarad: patient %s timepoint %s: no segmentation row with threshold %g",
		e.Patient, e.Timepoint, e.Threshold)
}

// MarshalZerologObject adds structured fields to a zerolog event.
func (e *MissingRowError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("patient", e.Patient).
		Str("timepoint", e.Timepoint).
		Float64("threshold", e.Threshold).
		Str("type", "MissingRowError")
}

// NewMissingRowError creates a MissingRowError with a stack trace.
func NewMissingRowError(patient, timepoint string, threshold float64) error {
	err := &MissingRowError{Patient: patient, Timepoint: timepoint, Threshold: threshold}
	return errors.WithStack(err)
}

// AmbiguousRowError reports that more than one segmentation row matches the
// target SUV threshold. Duplicate rows are a data-entry defect the caller
// must resolve; the parser never silently picks one.
type AmbiguousRowError struct {
	Patient   string
	Timepoint string
	Threshold float64
	Count     int
}

func (e *AmbiguousRowError) Error() string {
	return fmt.Sprintf("deltarad: patient %s timepoint %s: %d segmentation rows match threshold %g, want exactly 1",
		e.Patient, e.Timepoint, e.Count, e.Threshold)
}

// MarshalZerologObject adds structured fields to a zerolog event.
func (e *AmbiguousRowError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("patient", e.Patient).
		Str("timepoint", e.Timepoint).
		Float64("threshold", e.Threshold).
		Int("count", e.Count).
		Str("type", "AmbiguousRowError")
}

// NewAmbiguousRowError creates an AmbiguousRowError with a stack trace.
func NewAmbiguousRowError(patient, timepoint string, threshold float64, count int) error {
	err := &AmbiguousRowError{Patient: patient, Timepoint: timepoint, Threshold: threshold, Count: count}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Model fitting errors
//
// ===========================================================================

// ConvergenceError reports that an iterative fit did not converge, for
// example through separation or degenerate variance in a univariate Cox
// fit. The affected feature is reported as non-converged, not omitted.
type ConvergenceError struct {
	Model      string
	Feature    string
	Iterations int
	Reason     string
}

func (e *ConvergenceError) Error() string {
	if e.Feature != "" {
		return fmt.Sprintf("deltarad: %s fit for feature %q did not converge after %d iterations: %s",
			e.Model, e.Feature, e.Iterations, e.Reason)
	}
	return fmt.Sprintf("deltarad: %s fit did not converge after %d iterations: %s",
		e.Model, e.Iterations, e.Reason)
}

// MarshalZerologObject adds structured fields to a zerolog event.
func (e *ConvergenceError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model", e.Model).
		Str("feature", e.Feature).
		Int("iterations", e.Iterations).
		Str("reason", e.Reason).
		Str("type", "ConvergenceError")
}

// NewConvergenceError creates a ConvergenceError with a stack trace.
func NewConvergenceError(model, feature string, iterations int, reason string) error {
	err := &ConvergenceError{Model: model, Feature: feature, Iterations: iterations, Reason: reason}
	return errors.WithStack(err)
}

// InsufficientClassBalanceError reports that a cross-validated search cannot
// guarantee both outcome classes in every fold. This is fatal for the
// affected pipeline run and is raised before any estimator is fitted.
type InsufficientClassBalanceError struct {
	Folds         int
	MinorityCount int
	MinorityClass int
}

func (e *InsufficientClassBalanceError) Error() string {
	return fmt.Sprintf("deltarad: %d-fold stratified search needs at least %d samples of class %d, got %d",
		e.Folds, e.Folds, e.MinorityClass, e.MinorityCount)
}

// MarshalZerologObject adds structured fields to a zerolog event.
func (e *InsufficientClassBalanceError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("folds", e.Folds).
		Int("minority_count", e.MinorityCount).
		Int("minority_class", e.MinorityClass).
		Str("type", "InsufficientClassBalanceError")
}

// NewInsufficientClassBalanceError creates an InsufficientClassBalanceError
// with a stack trace.
func NewInsufficientClassBalanceError(folds, minorityCount, minorityClass int) error {
	err := &InsufficientClassBalanceError{Folds: folds, MinorityCount: minorityCount, MinorityClass: minorityClass}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Estimator lifecycle and validation errors
//
// ===========================================================================

// NotFittedError is returned when Predict or Transform is called on an
// estimator before Fit.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("deltarad: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds structured fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace.
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError reports a shape mismatch between an input and what the
// component was fitted with or expects.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("deltarad: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds structured fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValueError reports an argument whose value is invalid for the operation.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("deltarad: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ValidationError reports a configuration parameter that failed validation.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("deltarad: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds structured fields to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a ValidationError with a stack trace.
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Warning types (non-fatal)
//
// ===========================================================================

// TimepointAsymmetryWarning reports a patient or feature present at one
// timepoint but not the other. The delta builder excludes the patient or
// feature and emits this warning; asymmetry is a data-quality signal, never
// silently resolved.
type TimepointAsymmetryWarning struct {
	Patient string // set when a patient is missing a timepoint
	Feature string // set when a feature is missing from one table
	Present string // timepoint where the entry exists ("A" or "B")
	Missing string // timepoint where the entry is absent
}

func (w *TimepointAsymmetryWarning) Error() string {
	if w.Patient != "" {
		return fmt.Sprintf("patient %s has timepoint %s but no timepoint %s; excluded from delta table",
			w.Patient, w.Present, w.Missing)
	}
	return fmt.Sprintf("feature %q present at timepoint %s but not %s; excluded from delta table",
		w.Feature, w.Present, w.Missing)
}

// MarshalZerologObject adds structured fields to a zerolog event.
func (w *TimepointAsymmetryWarning) MarshalZerologObject(event *zerolog.Event) {
	event.Str("patient", w.Patient).
		Str("feature", w.Feature).
		Str("present", w.Present).
		Str("missing", w.Missing).
		Str("type", "TimepointAsymmetryWarning")
}

// NewTimepointAsymmetryWarning creates a warning for a patient missing one
// timepoint.
func NewTimepointAsymmetryWarning(patient, present, missing string) *TimepointAsymmetryWarning {
	return &TimepointAsymmetryWarning{Patient: patient, Present: present, Missing: missing}
}

// NewFeatureAsymmetryWarning creates a warning for a feature missing from
// one timepoint table.
func NewFeatureAsymmetryWarning(feature, present, missing string) *TimepointAsymmetryWarning {
	return &TimepointAsymmetryWarning{Feature: feature, Present: present, Missing: missing}
}

// UndefinedMetricWarning reports a metric that cannot be computed for the
// given predictions, for example ROC-AUC when the test split's true labels
// contain a single class. The metric is reported as undefined, never as a
// numeric placeholder.
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is undefined: %s", w.Metric, w.Condition)
}

// MarshalZerologObject adds structured fields to a zerolog event.
func (w *UndefinedMetricWarning) MarshalZerologObject(event *zerolog.Event) {
	event.Str("metric", w.Metric).
		Str("condition", w.Condition).
		Str("type", "UndefinedMetricWarning")
}

// NewUndefinedMetricWarning creates a new UndefinedMetricWarning.
func NewUndefinedMetricWarning(metric, condition string) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition}
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates an error with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Common sentinel errors
//
// ===========================================================================

var (
	// ErrEmptyData is returned when a component receives an empty table or matrix.
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix is returned when a linear solve hits a singular matrix.
	ErrSingularMatrix = New("singular matrix")
)
