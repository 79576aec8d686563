package ensemble

import (
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

// nameKey holds the component name inside a component map.
const nameKey = "name"

// Component is implemented by every pluggable part of the ensemble.
type Component interface {
	// Name returns the registered component name, e.g. "BootstrapSelector".
	Name() string

	// Params returns the component's parameters keyed by their snake_case names.
	// Nested components are returned as component maps.
	Params() map[string]interface{}

	// Validate checks the parameter values.
	Validate() error
}

// ComponentSpec renders a component as {"name": ..., params...}. This is the
// form accepted by NewEnsembleClassifierFromParams and written to parameter
// files.
func ComponentSpec(c Component) map[string]interface{} {
	spec := map[string]interface{}{nameKey: c.Name()}
	for k, v := range c.Params() {
		spec[k] = v
	}
	return spec
}

// splitSpec accepts a component name or a component map and returns the
// name with the remaining parameters.
func splitSpec(param string, v interface{}) (string, map[string]interface{}, error) {
	switch spec := v.(type) {
	case string:
		return spec, map[string]interface{}{}, nil
	case map[string]interface{}:
		name, ok := spec[nameKey].(string)
		if !ok {
			return "", nil, errors.NewValidationError(param, "component map needs a string 'name'", v)
		}
		rest := make(map[string]interface{}, len(spec))
		for k, val := range spec {
			if k != nameKey {
				rest[k] = val
			}
		}
		return name, rest, nil
	default:
		return "", nil, errors.NewValidationError(param, "expected a component, a component name or a component map", v)
	}
}

// decodeParams decodes a parameter map into out using the json tags of out.
// Numbers and strings are converted weakly; unknown keys are rejected.
func decodeParams(param string, params map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return errors.Wrap(err, "failed to build parameter decoder")
	}
	if err := decoder.Decode(params); err != nil {
		return errors.NewValidationError(param, err.Error(), params)
	}
	return nil
}

func unknownComponent(param, name string, known map[string]func() Component) error {
	names := make([]string, 0, len(known))
	for k := range known {
		names = append(names, k)
	}
	sort.Strings(names)
	return errors.NewValidationError(param, "unknown component, expected one of "+strings.Join(names, ", "), name)
}

// checkProportion validates a proportion in (0, 1].
func checkProportion(param string, p float64) error {
	if p <= 0 || p > 1 {
		return errors.NewValidationError(param, "must be in (0, 1]", p)
	}
	return nil
}
