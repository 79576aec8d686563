package ensemble

import (
	"math"
	"math/rand"
	"sort"

	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

// FeatureSelector chooses the feature columns a base learner is trained on.
type FeatureSelector interface {
	Component

	// SelectFeatures returns sorted, distinct column indices in [0, nFeatures).
	SelectFeatures(nFeatures int, rng *rand.Rand) ([]int, error)
}

// AllFeatureSelector keeps every feature column.
type AllFeatureSelector struct{}

// NewAllFeatureSelector returns the default feature selector.
func NewAllFeatureSelector() *AllFeatureSelector { return &AllFeatureSelector{} }

func (*AllFeatureSelector) Name() string                   { return "AllFeatureSelector" }
func (*AllFeatureSelector) Params() map[string]interface{} { return map[string]interface{}{} }
func (*AllFeatureSelector) Validate() error                { return nil }

// SelectFeatures returns 0..nFeatures-1.
func (*AllFeatureSelector) SelectFeatures(nFeatures int, _ *rand.Rand) ([]int, error) {
	if nFeatures <= 0 {
		return nil, errors.NewValueError("AllFeatureSelector.SelectFeatures", "no feature columns")
	}
	return identity(nFeatures), nil
}

// RandomFeatureSelector keeps a random proportion of the feature columns,
// drawn without replacement. At least one column is always kept.
type RandomFeatureSelector struct {
	FeaturesSelectionProportion float64 `json:"features_selection_proportion"`
}

// NewRandomFeatureSelector returns a selector keeping 80% of the features.
func NewRandomFeatureSelector() *RandomFeatureSelector {
	return &RandomFeatureSelector{FeaturesSelectionProportion: 0.8}
}

func (*RandomFeatureSelector) Name() string { return "RandomFeatureSelector" }

func (s *RandomFeatureSelector) Params() map[string]interface{} {
	return map[string]interface{}{"features_selection_proportion": s.FeaturesSelectionProportion}
}

func (s *RandomFeatureSelector) Validate() error {
	return checkProportion("features_selection_proportion", s.FeaturesSelectionProportion)
}

// SelectFeatures draws ceil(p*nFeatures) columns.
func (s *RandomFeatureSelector) SelectFeatures(nFeatures int, rng *rand.Rand) ([]int, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if nFeatures <= 0 {
		return nil, errors.NewValueError("RandomFeatureSelector.SelectFeatures", "no feature columns")
	}
	k := int(math.Ceil(s.FeaturesSelectionProportion * float64(nFeatures)))
	k = max(1, min(k, nFeatures))
	picked := rng.Perm(nFeatures)[:k]
	sort.Ints(picked)
	return picked, nil
}

var featureSelectors = map[string]func() Component{
	"AllFeatureSelector":    func() Component { return NewAllFeatureSelector() },
	"RandomFeatureSelector": func() Component { return NewRandomFeatureSelector() },
}

// ParseFeatureSelector builds a FeatureSelector from a FeatureSelector value, a
// name, or a component map. nil yields AllFeatureSelector.
func ParseFeatureSelector(v interface{}) (FeatureSelector, error) {
	const param = "feature_selector"
	switch fs := v.(type) {
	case nil:
		return NewAllFeatureSelector(), nil
	case FeatureSelector:
		return fs, fs.Validate()
	}
	name, params, err := splitSpec(param, v)
	if err != nil {
		return nil, err
	}
	ctor, ok := featureSelectors[name]
	if !ok {
		return nil, unknownComponent(param, name, featureSelectors)
	}
	fs := ctor().(FeatureSelector)
	if err := decodeParams(param, params, fs); err != nil {
		return nil, err
	}
	return fs, fs.Validate()
}

func identity(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
