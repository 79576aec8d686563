package ensemble

import (
	"strings"

	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

// NormalizeMode controls feature scaling before the base learners are trained.
type NormalizeMode string

const (
	// NormalizeAuto scales because the base learner is sensitive to feature scale.
	NormalizeAuto NormalizeMode = "Auto"
	// NormalizeNo leaves the features as given.
	NormalizeNo NormalizeMode = "No"
	// NormalizeYes always scales.
	NormalizeYes NormalizeMode = "Yes"
	// NormalizeWarn leaves the features as given and reports a warning.
	NormalizeWarn NormalizeMode = "Warn"
)

// ParseNormalizeMode accepts the mode names case-insensitively.
func ParseNormalizeMode(s string) (NormalizeMode, error) {
	for _, m := range []NormalizeMode{NormalizeAuto, NormalizeNo, NormalizeYes, NormalizeWarn} {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", errors.NewValidationError("normalize", "must be one of Auto, No, Yes, Warn", s)
}

// scales reports whether the training data is rescaled.
func (m NormalizeMode) scales() bool {
	return m == NormalizeAuto || m == NormalizeYes
}

// CachingMode controls whether training data is copied into memory before the
// base learners read their subsets.
type CachingMode string

const (
	// CachingAuto copies only inputs that are not already dense.
	CachingAuto CachingMode = "Auto"
	// CachingMemory always works on a private dense copy.
	CachingMemory CachingMode = "Memory"
	// CachingNone reads subsets straight from the input matrix.
	CachingNone CachingMode = "None"
)

// ParseCachingMode accepts the mode names case-insensitively.
func ParseCachingMode(s string) (CachingMode, error) {
	for _, m := range []CachingMode{CachingAuto, CachingMemory, CachingNone} {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", errors.NewValidationError("caching", "must be one of Auto, Memory, None", s)
}

// Option configures an EnsembleClassifier.
type Option func(*EnsembleClassifier)

// WithSamplingType sets how training subsets are drawn.
func WithSamplingType(s SubsetSelector) Option {
	return func(ec *EnsembleClassifier) {
		ec.samplingType = s
	}
}

// WithNumModels sets the number of base learners per batch.
func WithNumModels(n int) Option {
	return func(ec *EnsembleClassifier) {
		ec.numModels = &n
	}
}

// WithSubModelSelector sets how trained models are pruned.
func WithSubModelSelector(s SubModelSelector) Option {
	return func(ec *EnsembleClassifier) {
		ec.subModelSelector = s
	}
}

// WithOutputCombiner sets how the kept models' scores are merged.
func WithOutputCombiner(c OutputCombiner) Option {
	return func(ec *EnsembleClassifier) {
		ec.outputCombiner = c
	}
}

// WithNormalize sets the feature scaling mode.
func WithNormalize(m NormalizeMode) Option {
	return func(ec *EnsembleClassifier) {
		ec.normalize = m
	}
}

// WithCaching sets the data caching mode.
func WithCaching(m CachingMode) Option {
	return func(ec *EnsembleClassifier) {
		ec.caching = m
	}
}

// WithTrainParallel trains the base learners of a batch concurrently.
func WithTrainParallel(parallel bool) Option {
	return func(ec *EnsembleClassifier) {
		ec.trainParallel = parallel
	}
}

// WithBatchSize splits the training rows into batches of the given size,
// each training its own set of models. -1 trains on all rows at once.
func WithBatchSize(n int) Option {
	return func(ec *EnsembleClassifier) {
		ec.batchSize = n
	}
}

// WithShowMetrics logs a per-model metrics table after training.
func WithShowMetrics(show bool) Option {
	return func(ec *EnsembleClassifier) {
		ec.showMetrics = show
	}
}

// WithFeature names the feature columns used by FitFrame.
func WithFeature(columns ...string) Option {
	return func(ec *EnsembleClassifier) {
		ec.feature = append([]string(nil), columns...)
	}
}

// WithLabel names the label column used by FitFrame.
func WithLabel(column string) Option {
	return func(ec *EnsembleClassifier) {
		ec.label = column
	}
}

// WithParams passes extra engine parameters: random_state, n_jobs and
// base_learner__<name> hyperparameters of the logistic regression.
func WithParams(params map[string]interface{}) Option {
	return func(ec *EnsembleClassifier) {
		for k, v := range params {
			ec.extra[k] = v
		}
	}
}
