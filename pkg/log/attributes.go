package log

// Attribute keys shared across the pipeline so that logs from the parser,
// delta builder, Cox engine, and evaluation harness can be filtered on the
// same fields.

// Study and cohort context.
const (
	// PatientKey identifies a patient by its cohort identifier.
	PatientKey = "study.patient"

	// TimepointKey identifies a scan timepoint ("A" or "B").
	TimepointKey = "study.timepoint"

	// FeatureKey identifies a radiomics feature by name.
	FeatureKey = "study.feature"

	// ConfigurationKey identifies a feature configuration
	// (clinical, clin+A, clin+B, clin+delta).
	ConfigurationKey = "study.configuration"

	// SplitKey identifies the split a row belongs to ("train" or "test").
	SplitKey = "study.split"
)

// Model and operation context.
const (
	// ModelNameKey identifies the estimator family.
	// Examples: "SVC", "RandomForest", "CoxPH"
	ModelNameKey = "model.name"

	// OperationKey names the operation being performed.
	// Standard values: "fit", "predict", "transform", "score", "search"
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	ComponentKey = "ml.component"

	// RunIDKey tags every record of one harness run.
	RunIDKey = "run.id"
)

// Data shape.
const (
	// SamplesKey is the number of samples (rows).
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns.
	FeaturesKey = "data.features"

	// MissingKey is the number of missing-value markers in a matrix.
	MissingKey = "data.missing"
)

// Metrics and timing.
const (
	// MetricKey names a metric being reported.
	MetricKey = "metrics.name"

	// DurationMsKey is the wall-clock duration of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// IterationKey is the current iteration of an iterative fit.
	IterationKey = "training.iteration"
)
