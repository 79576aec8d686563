package ensemble

import (
	"encoding/json"
	"math"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
	"github.com/YuminosukeSato/scigo-ensemble/sklearn/linear_model"
)

const (
	defaultNumModels = 50

	paramFeatureColumn = "feature_column_name"
	paramLabelColumn   = "label_column_name"
	paramRandomState   = "random_state"
	paramNJobs         = "n_jobs"
	baseLearnerPrefix  = "base_learner__"
)

// ensembleParams holds the constructor parameters of an EnsembleClassifier.
// Unset components are nil and resolve to the engine defaults at Fit.
type ensembleParams struct {
	samplingType     SubsetSelector
	numModels        *int
	subModelSelector SubModelSelector
	outputCombiner   OutputCombiner
	normalize        NormalizeMode
	caching          CachingMode
	trainParallel    bool
	batchSize        int
	showMetrics      bool
	feature          []string
	label            string
	extra            map[string]interface{}
}

func defaultParams() ensembleParams {
	return ensembleParams{
		samplingType: NewBootstrapSelector(NewAllFeatureSelector()),
		normalize:    NormalizeAuto,
		caching:      CachingAuto,
		batchSize:    -1,
		extra:        map[string]interface{}{},
	}
}

func (p ensembleParams) clone() ensembleParams {
	out := p
	if p.numModels != nil {
		n := *p.numModels
		out.numModels = &n
	}
	out.feature = append([]string(nil), p.feature...)
	if len(p.feature) == 0 {
		out.feature = nil
	}
	out.extra = make(map[string]interface{}, len(p.extra))
	for k, v := range p.extra {
		out.extra[k] = v
	}
	return out
}

// validate checks every parameter, including the legacy column-name keys.
func (p *ensembleParams) validate() error {
	if _, ok := p.extra[paramFeatureColumn]; ok {
		return errors.NewRenamedParameterError(paramFeatureColumn, "feature")
	}
	if _, ok := p.extra[paramLabelColumn]; ok {
		return errors.NewRenamedParameterError(paramLabelColumn, "label")
	}
	if p.samplingType == nil {
		return errors.NewValidationError("sampling_type", "must not be nil", nil)
	}
	if err := p.samplingType.Validate(); err != nil {
		return err
	}
	if p.numModels != nil && *p.numModels <= 0 {
		return errors.NewValidationError("num_models", "must be positive", *p.numModels)
	}
	if p.subModelSelector != nil {
		if err := p.subModelSelector.Validate(); err != nil {
			return err
		}
	}
	if p.outputCombiner != nil {
		if err := p.outputCombiner.Validate(); err != nil {
			return err
		}
	}
	if _, err := ParseNormalizeMode(string(p.normalize)); err != nil {
		return err
	}
	if _, err := ParseCachingMode(string(p.caching)); err != nil {
		return err
	}
	for _, col := range p.feature {
		if col == "" {
			return errors.NewValidationError("feature", "column names must not be empty", p.feature)
		}
	}

	for key, value := range p.extra {
		switch {
		case key == paramRandomState:
			var seed int64
			if err := weakDecode(key, value, &seed); err != nil {
				return err
			}
		case key == paramNJobs:
			var n int
			if err := weakDecode(key, value, &n); err != nil {
				return err
			}
		case strings.HasPrefix(key, baseLearnerPrefix):
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	return linear_model.NewLogisticRegression().SetParams(p.baseLearnerParams())
}

// seed returns random_state when it is set.
func (p *ensembleParams) seed() (int64, bool) {
	v, ok := p.extra[paramRandomState]
	if !ok || v == nil {
		return 0, false
	}
	var seed int64
	if err := weakDecode(paramRandomState, v, &seed); err != nil {
		return 0, false
	}
	return seed, true
}

// nJobs returns the worker count for parallel training; 0 means NumCPU.
func (p *ensembleParams) nJobs() int {
	var n int
	if v, ok := p.extra[paramNJobs]; ok && v != nil {
		_ = weakDecode(paramNJobs, v, &n)
	}
	return max(n, 0)
}

func (p *ensembleParams) modelsPerBatch() int {
	if p.numModels == nil {
		return defaultNumModels
	}
	return *p.numModels
}

// baseLearnerParams strips the base_learner__ prefix.
func (p *ensembleParams) baseLearnerParams() map[string]interface{} {
	out := map[string]interface{}{}
	for k, v := range p.extra {
		if name, ok := strings.CutPrefix(k, baseLearnerPrefix); ok {
			out[name] = v
		}
	}
	return out
}

// engineParams returns the parameter set forwarded to the engine: the wrapper
// keys, the extra params, and feature_column_name / label_column_name derived
// from feature and label.
func (p *ensembleParams) engineParams(specs bool) map[string]interface{} {
	component := func(c Component) interface{} {
		if c == nil {
			return nil
		}
		if specs {
			return ComponentSpec(c)
		}
		return c
	}

	out := make(map[string]interface{}, len(p.extra)+13)
	for k, v := range p.extra {
		out[k] = v
	}
	out["sampling_type"] = component(p.samplingType)
	out["num_models"] = nil
	if p.numModels != nil {
		out["num_models"] = *p.numModels
	}
	out["sub_model_selector_type"] = nil
	if p.subModelSelector != nil {
		out["sub_model_selector_type"] = component(p.subModelSelector)
	}
	out["output_combiner"] = nil
	if p.outputCombiner != nil {
		out["output_combiner"] = component(p.outputCombiner)
	}
	out["normalize"] = string(p.normalize)
	out["caching"] = string(p.caching)
	out["train_parallel"] = p.trainParallel
	out["batch_size"] = p.batchSize
	out["show_metrics"] = p.showMetrics

	out["feature"] = nil
	if len(p.feature) > 0 {
		out["feature"] = append([]string(nil), p.feature...)
		out[paramFeatureColumn] = columnsValue(p.feature)
	}
	out["label"] = nil
	if p.label != "" {
		out["label"] = p.label
		out[paramLabelColumn] = p.label
	}
	return out
}

// apply updates the parameters from a kwargs-style map. A feature_column_name
// or label_column_name key is accepted only as the echo of a feature or label
// key in the same map, which is what engineParams produces.
func (p *ensembleParams) apply(params map[string]interface{}) error {
	for key, value := range params {
		var err error
		switch key {
		case "sampling_type":
			p.samplingType, err = ParseSubsetSelector(value)
		case "num_models":
			p.numModels = nil
			if value != nil {
				var n int
				err = decodeInt(key, value, &n)
				p.numModels = &n
			}
		case "sub_model_selector_type":
			p.subModelSelector, err = ParseSubModelSelector(value)
		case "output_combiner":
			p.outputCombiner, err = ParseOutputCombiner(value)
		case "normalize":
			var s string
			if err = weakDecode(key, value, &s); err == nil {
				p.normalize, err = ParseNormalizeMode(s)
			}
		case "caching":
			var s string
			if err = weakDecode(key, value, &s); err == nil {
				p.caching, err = ParseCachingMode(s)
			}
		case "train_parallel":
			err = weakDecode(key, value, &p.trainParallel)
		case "batch_size":
			err = decodeInt(key, value, &p.batchSize)
		case "show_metrics":
			err = weakDecode(key, value, &p.showMetrics)
		case "feature":
			p.feature, err = decodeColumns(value)
		case "label":
			p.label = ""
			if value != nil {
				err = weakDecode(key, value, &p.label)
			}
		default:
			p.extra[key] = value
		}
		if err != nil {
			return err
		}
	}

	if v, ok := p.extra[paramFeatureColumn]; ok {
		if _, set := params["feature"]; set && len(p.feature) > 0 {
			if cols, err := decodeColumns(v); err == nil && slices.Equal(cols, p.feature) {
				delete(p.extra, paramFeatureColumn)
			}
		}
	}
	if v, ok := p.extra[paramLabelColumn]; ok {
		if _, set := params["label"]; set && p.label != "" {
			if s, isString := v.(string); isString && s == p.label {
				delete(p.extra, paramLabelColumn)
			}
		}
	}
	return nil
}

func weakDecode(key string, value, out interface{}) error {
	if err := mapstructure.WeakDecode(value, out); err != nil {
		return errors.NewValidationError(key, err.Error(), value)
	}
	return nil
}

// decodeInt is weakDecode for integer parameters; fractional numbers are
// rejected instead of truncated.
func decodeInt(key string, value interface{}, out *int) error {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return weakDecode(key, v.String(), out)
		}
		parsed, err := v.Float64()
		if err != nil {
			return errors.NewValidationError(key, err.Error(), value)
		}
		f = parsed
	default:
		return weakDecode(key, value, out)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return errors.NewValidationError(key, "must be an integer", value)
	}
	*out = int(f)
	return nil
}

// decodeColumns accepts a column name or a list of names.
func decodeColumns(v interface{}) ([]string, error) {
	switch cols := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{cols}, nil
	}
	var cols []string
	if err := weakDecode("feature", v, &cols); err != nil {
		return nil, err
	}
	return cols, nil
}

// columnsValue reports a single column as a plain name.
func columnsValue(cols []string) interface{} {
	if len(cols) == 1 {
		return cols[0]
	}
	return append([]string(nil), cols...)
}
