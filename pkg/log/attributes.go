// Package log defines standard attribute keys for ensemble training and inference.
//
// The keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples", "ensemble.batch") so that log lines emitted from the
// orchestrator, the base learners and the CLI can be filtered together.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of estimator.
	// Examples: "EnsembleClassifier", "LogisticRegression", "MinMaxScaler"
	ModelNameKey = "model.name"

	// EstimatorIDKey is a unique identifier for a specific estimator instance (a UUID).
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is emitting the log line.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape
const (
	// SamplesKey is the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns.
	FeaturesKey = "data.features"

	// ClassesKey is the number of distinct class labels.
	ClassesKey = "data.classes"

	// BatchSizeKey is the configured training batch size.
	BatchSizeKey = "data.batch_size"
)

// Ensemble
const (
	// NumModelsKey is the number of sub-models trained per batch.
	NumModelsKey = "ensemble.num_models"

	// KeptModelsKey is the number of sub-models left after sub-model selection.
	KeptModelsKey = "ensemble.kept_models"

	// ModelIndexKey is the index of a sub-model within the ensemble.
	ModelIndexKey = "ensemble.model_index"

	// BatchKey is the index of the training batch.
	BatchKey = "ensemble.batch"

	// SamplingKey names the subset selector in use.
	SamplingKey = "ensemble.sampling"

	// SelectorKey names the sub-model selector in use.
	SelectorKey = "ensemble.selector"

	// CombinerKey names the output combiner in use.
	CombinerKey = "ensemble.combiner"

	// ParallelKey reports whether sub-models are trained concurrently.
	ParallelKey = "ensemble.parallel"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records micro-averaged accuracy.
	AccuracyKey = "metrics.accuracy"

	// LossKey records a loss value (log-loss for classifiers).
	LossKey = "metrics.loss"

	// IterationKey records the current iteration of an iterative solver.
	IterationKey = "training.iteration"
)

// Prediction Context
const (
	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// StacktraceKey holds the stack trace extracted from a cockroachdb error.
	StacktraceKey = "error.stacktrace"

	// SuggestionKey provides a hint for resolving the issue.
	SuggestionKey = "error.suggestion"

	// WarningKey carries the structured payload of a library warning.
	WarningKey = "warning"
)

// Configuration
const (
	// HyperParamsKey contains estimator parameters as a structured object.
	HyperParamsKey = "model.hyperparams"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// WorkerIDKey identifies a training worker goroutine.
	WorkerIDKey = "infra.worker_id"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationScore     = "score"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
)
