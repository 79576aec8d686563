package ensemble

import (
	"context"
	"math/rand"
	"sort"

	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

// Subset is the training sample of one base learner. Rows index the training
// rows (with repetition for bootstrap samples) and Features index the columns.
type Subset struct {
	Rows     []int
	Features []int
}

// SubsetSelector draws one Subset per base learner.
type SubsetSelector interface {
	Component

	// Select returns numModels subsets of a nRows × nFeatures training set.
	Select(ctx context.Context, nRows, nFeatures, numModels int, rng *rand.Rand) ([]Subset, error)

	// FeatureSelector returns the feature selector paired with the sampler.
	FeatureSelector() FeatureSelector
}

// samplerBase carries the feature selector shared by every sampler.
type samplerBase struct {
	Features FeatureSelector `json:"-"`
}

// newSamplerBase pairs a sampler with fs, or AllFeatureSelector when fs is nil.
func newSamplerBase(fs FeatureSelector) samplerBase {
	if fs == nil {
		fs = NewAllFeatureSelector()
	}
	return samplerBase{Features: fs}
}

// FeatureSelector never writes to the sampler; a zero-value sampler reads as
// AllFeatureSelector.
func (s *samplerBase) FeatureSelector() FeatureSelector {
	if s.Features == nil {
		return NewAllFeatureSelector()
	}
	return s.Features
}

func (s *samplerBase) setFeatureSelector(fs FeatureSelector) {
	s.Features = fs
}

func (s *samplerBase) Params() map[string]interface{} {
	return map[string]interface{}{"feature_selector": ComponentSpec(s.FeatureSelector())}
}

func (s *samplerBase) Validate() error {
	return s.FeatureSelector().Validate()
}

// draw applies rows to every model, checking for cancellation between models.
func (s *samplerBase) draw(ctx context.Context, nFeatures, numModels int, rng *rand.Rand, rows func(m int) []int) ([]Subset, error) {
	subsets := make([]Subset, numModels)
	for m := range subsets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r := rows(m)
		features, err := s.FeatureSelector().SelectFeatures(nFeatures, rng)
		if err != nil {
			return nil, err
		}
		subsets[m] = Subset{Rows: r, Features: features}
	}
	return subsets, nil
}

func checkSelectArgs(op string, nRows, nFeatures, numModels int) error {
	if nRows <= 0 || nFeatures <= 0 {
		return errors.NewModelError(op, "invalid input", errors.ErrEmptyData)
	}
	if numModels <= 0 {
		return errors.NewValidationError("num_models", "must be positive", numModels)
	}
	return nil
}

// BootstrapSelector samples nRows rows with replacement for every model.
type BootstrapSelector struct {
	samplerBase
}

// NewBootstrapSelector returns a bootstrap sampler. A nil feature selector
// means AllFeatureSelector.
func NewBootstrapSelector(fs FeatureSelector) *BootstrapSelector {
	return &BootstrapSelector{newSamplerBase(fs)}
}

func (*BootstrapSelector) Name() string { return "BootstrapSelector" }

func (s *BootstrapSelector) Select(ctx context.Context, nRows, nFeatures, numModels int, rng *rand.Rand) ([]Subset, error) {
	if err := checkSelectArgs("BootstrapSelector.Select", nRows, nFeatures, numModels); err != nil {
		return nil, err
	}
	return s.draw(ctx, nFeatures, numModels, rng, func(int) []int {
		rows := make([]int, nRows)
		for i := range rows {
			rows[i] = rng.Intn(nRows)
		}
		sort.Ints(rows)
		return rows
	})
}

// RandomPartitionSelector shuffles the rows and splits them into numModels
// disjoint partitions whose sizes differ by at most one.
type RandomPartitionSelector struct {
	samplerBase
}

// NewRandomPartitionSelector returns a partition sampler. A nil feature
// selector means AllFeatureSelector.
func NewRandomPartitionSelector(fs FeatureSelector) *RandomPartitionSelector {
	return &RandomPartitionSelector{newSamplerBase(fs)}
}

func (*RandomPartitionSelector) Name() string { return "RandomPartitionSelector" }

func (s *RandomPartitionSelector) Select(ctx context.Context, nRows, nFeatures, numModels int, rng *rand.Rand) ([]Subset, error) {
	if err := checkSelectArgs("RandomPartitionSelector.Select", nRows, nFeatures, numModels); err != nil {
		return nil, err
	}
	if numModels > nRows {
		return nil, errors.NewValidationError("num_models",
			"cannot partition fewer rows than models", map[string]int{"rows": nRows, "models": numModels})
	}
	perm := rng.Perm(nRows)
	base, extra := nRows/numModels, nRows%numModels
	start := 0
	return s.draw(ctx, nFeatures, numModels, rng, func(m int) []int {
		size := base
		if m < extra {
			size++
		}
		rows := append([]int(nil), perm[start:start+size]...)
		start += size
		sort.Ints(rows)
		return rows
	})
}

// AllInstanceSelector trains every model on all rows.
type AllInstanceSelector struct {
	samplerBase
}

// NewAllInstanceSelector returns a sampler that keeps every row. A nil feature
// selector means AllFeatureSelector.
func NewAllInstanceSelector(fs FeatureSelector) *AllInstanceSelector {
	return &AllInstanceSelector{newSamplerBase(fs)}
}

func (*AllInstanceSelector) Name() string { return "AllInstanceSelector" }

func (s *AllInstanceSelector) Select(ctx context.Context, nRows, nFeatures, numModels int, rng *rand.Rand) ([]Subset, error) {
	if err := checkSelectArgs("AllInstanceSelector.Select", nRows, nFeatures, numModels); err != nil {
		return nil, err
	}
	return s.draw(ctx, nFeatures, numModels, rng, func(int) []int {
		return identity(nRows)
	})
}

var subsetSelectors = map[string]func() Component{
	"BootstrapSelector":       func() Component { return NewBootstrapSelector(nil) },
	"RandomPartitionSelector": func() Component { return NewRandomPartitionSelector(nil) },
	"AllInstanceSelector":     func() Component { return NewAllInstanceSelector(nil) },
}

// ParseSubsetSelector builds a SubsetSelector from a SubsetSelector value, a
// name, or a component map such as
//
//	{"name": "BootstrapSelector",
//	 "feature_selector": {"name": "RandomFeatureSelector", "features_selection_proportion": 0.5}}
//
// nil yields the default BootstrapSelector over all features.
func ParseSubsetSelector(v interface{}) (SubsetSelector, error) {
	const param = "sampling_type"
	switch s := v.(type) {
	case nil:
		return NewBootstrapSelector(nil), nil
	case SubsetSelector:
		return s, s.Validate()
	}
	name, params, err := splitSpec(param, v)
	if err != nil {
		return nil, err
	}
	ctor, ok := subsetSelectors[name]
	if !ok {
		return nil, unknownComponent(param, name, subsetSelectors)
	}
	fs, err := ParseFeatureSelector(params["feature_selector"])
	if err != nil {
		return nil, err
	}
	delete(params, "feature_selector")
	if len(params) > 0 {
		return nil, errors.NewValidationError(param, "unexpected parameters for "+name, params)
	}
	s := ctor().(SubsetSelector)
	s.(interface{ setFeatureSelector(FeatureSelector) }).setFeatureSelector(fs)
	return s, s.Validate()
}
