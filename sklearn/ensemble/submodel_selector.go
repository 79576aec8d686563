package ensemble

import (
	"context"
	"math"
	"sort"

	"github.com/YuminosukeSato/scigo-ensemble/metrics"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

// SubModelSelector prunes the trained base learners before combination.
type SubModelSelector interface {
	Component

	// ValidationProportion is the share of training rows to hold out for the
	// evaluation. 0 means the selector works on training rows.
	ValidationProportion() float64

	// SelectModels returns the indices of the models to keep, in ascending order.
	// The result is never empty when eval holds at least one model.
	SelectModels(ctx context.Context, eval *Evaluation) ([]int, error)
}

// ClassifierAllSelector keeps every model.
type ClassifierAllSelector struct{}

// NewClassifierAllSelector returns the default sub-model selector.
func NewClassifierAllSelector() *ClassifierAllSelector { return &ClassifierAllSelector{} }

func (*ClassifierAllSelector) Name() string                   { return "ClassifierAllSelector" }
func (*ClassifierAllSelector) Params() map[string]interface{} { return map[string]interface{}{} }
func (*ClassifierAllSelector) Validate() error                { return nil }
func (*ClassifierAllSelector) ValidationProportion() float64  { return 0 }

func (*ClassifierAllSelector) SelectModels(_ context.Context, eval *Evaluation) ([]int, error) {
	return identity(len(eval.Scores)), nil
}

// ClassifierBestPerformanceSelector keeps the best-scoring share of models.
type ClassifierBestPerformanceSelector struct {
	MetricName                  string  `json:"metric_name"`
	LearnersSelectionProportion float64 `json:"learners_selection_proportion"`
	ValidationDatasetProportion float64 `json:"validation_dataset_proportion"`
}

// NewClassifierBestPerformanceSelector keeps the top half by micro accuracy,
// evaluated on 30% of the rows.
func NewClassifierBestPerformanceSelector() *ClassifierBestPerformanceSelector {
	return &ClassifierBestPerformanceSelector{
		MetricName:                  MetricAccuracyMicro,
		LearnersSelectionProportion: 0.5,
		ValidationDatasetProportion: 0.3,
	}
}

func (*ClassifierBestPerformanceSelector) Name() string { return "ClassifierBestPerformanceSelector" }

func (s *ClassifierBestPerformanceSelector) Params() map[string]interface{} {
	return map[string]interface{}{
		"metric_name":                   s.MetricName,
		"learners_selection_proportion": s.LearnersSelectionProportion,
		"validation_dataset_proportion": s.ValidationDatasetProportion,
	}
}

func (s *ClassifierBestPerformanceSelector) Validate() error {
	if _, err := (ModelMetrics{}).Get(s.MetricName); err != nil {
		return err
	}
	if err := checkProportion("learners_selection_proportion", s.LearnersSelectionProportion); err != nil {
		return err
	}
	return checkValidationProportion(s.ValidationDatasetProportion)
}

func (s *ClassifierBestPerformanceSelector) ValidationProportion() float64 {
	return s.ValidationDatasetProportion
}

// SelectModels ranks the models by the metric. Ties keep training order.
func (s *ClassifierBestPerformanceSelector) SelectModels(_ context.Context, eval *Evaluation) ([]int, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	n := len(eval.Metrics)
	if n == 0 {
		return nil, errors.NewValueError("ClassifierBestPerformanceSelector.SelectModels", "no models to select from")
	}
	values := make([]float64, n)
	for i, m := range eval.Metrics {
		values[i], _ = m.Get(s.MetricName)
	}
	order := identity(n)
	lower := lowerIsBetter(s.MetricName)
	sort.SliceStable(order, func(a, b int) bool {
		if lower {
			return values[order[a]] < values[order[b]]
		}
		return values[order[a]] > values[order[b]]
	})
	keep := order[:keepCount(s.LearnersSelectionProportion, n)]
	sort.Ints(keep)
	return keep, nil
}

// Diversity metrics accepted by ClassifierBestDiverseSelector.
const DiversityDisagreement = "Disagreement"

// ClassifierBestDiverseSelector keeps the models whose predictions disagree
// the most with each other.
type ClassifierBestDiverseSelector struct {
	DiversityMetric             string  `json:"diversity_metric"`
	LearnersSelectionProportion float64 `json:"learners_selection_proportion"`
	ValidationDatasetProportion float64 `json:"validation_dataset_proportion"`
}

// NewClassifierBestDiverseSelector keeps the most diverse half of the models.
func NewClassifierBestDiverseSelector() *ClassifierBestDiverseSelector {
	return &ClassifierBestDiverseSelector{
		DiversityMetric:             DiversityDisagreement,
		LearnersSelectionProportion: 0.5,
		ValidationDatasetProportion: 0.3,
	}
}

func (*ClassifierBestDiverseSelector) Name() string { return "ClassifierBestDiverseSelector" }

func (s *ClassifierBestDiverseSelector) Params() map[string]interface{} {
	return map[string]interface{}{
		"diversity_metric":              s.DiversityMetric,
		"learners_selection_proportion": s.LearnersSelectionProportion,
		"validation_dataset_proportion": s.ValidationDatasetProportion,
	}
}

func (s *ClassifierBestDiverseSelector) Validate() error {
	if s.DiversityMetric != DiversityDisagreement {
		return errors.NewValidationError("diversity_metric", "must be "+DiversityDisagreement, s.DiversityMetric)
	}
	if err := checkProportion("learners_selection_proportion", s.LearnersSelectionProportion); err != nil {
		return err
	}
	return checkValidationProportion(s.ValidationDatasetProportion)
}

func (s *ClassifierBestDiverseSelector) ValidationProportion() float64 {
	return s.ValidationDatasetProportion
}

type diversityPair struct {
	i, j         int
	disagreement float64
}

// SelectModels computes the pairwise disagreement of the predicted classes and
// admits the members of the most disagreeing pairs first.
func (s *ClassifierBestDiverseSelector) SelectModels(ctx context.Context, eval *Evaluation) ([]int, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	n := len(eval.Scores)
	if n == 0 {
		return nil, errors.NewValueError("ClassifierBestDiverseSelector.SelectModels", "no models to select from")
	}
	target := keepCount(s.LearnersSelectionProportion, n)
	if n == 1 || target == n {
		return identity(n), nil
	}

	preds := make([][]int, n)
	for m, sc := range eval.Scores {
		preds[m] = metrics.ArgMaxRows(sc)
	}

	pairs := make([]diversityPair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, diversityPair{i: i, j: j, disagreement: disagreement(preds[i], preds[j])})
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool {
		return pairs[a].disagreement > pairs[b].disagreement
	})

	chosen := make(map[int]struct{}, target)
	add := func(m int) {
		if len(chosen) < target {
			chosen[m] = struct{}{}
		}
	}
	for _, p := range pairs {
		if len(chosen) >= target {
			break
		}
		add(p.i)
		add(p.j)
	}

	keep := make([]int, 0, len(chosen))
	for m := range chosen {
		keep = append(keep, m)
	}
	sort.Ints(keep)
	return keep, nil
}

func disagreement(a, b []int) float64 {
	if len(a) == 0 {
		return 0
	}
	diff := 0
	for i := range a {
		if a[i] != b[i] {
			diff++
		}
	}
	return float64(diff) / float64(len(a))
}

// keepCount is ceil(p*n), at least one.
func keepCount(p float64, n int) int {
	k := int(math.Ceil(p * float64(n)))
	return max(1, min(k, n))
}

func checkValidationProportion(p float64) error {
	if p < 0 || p >= 1 {
		return errors.NewValidationError("validation_dataset_proportion", "must be in [0, 1)", p)
	}
	return nil
}

var subModelSelectors = map[string]func() Component{
	"ClassifierAllSelector":             func() Component { return NewClassifierAllSelector() },
	"ClassifierBestPerformanceSelector": func() Component { return NewClassifierBestPerformanceSelector() },
	"ClassifierBestDiverseSelector":     func() Component { return NewClassifierBestDiverseSelector() },
}

// ParseSubModelSelector builds a SubModelSelector from a value, a name or a
// component map. nil yields nil, leaving the engine default in place.
func ParseSubModelSelector(v interface{}) (SubModelSelector, error) {
	const param = "sub_model_selector_type"
	switch s := v.(type) {
	case nil:
		return nil, nil
	case SubModelSelector:
		return s, s.Validate()
	}
	name, params, err := splitSpec(param, v)
	if err != nil {
		return nil, err
	}
	ctor, ok := subModelSelectors[name]
	if !ok {
		return nil, unknownComponent(param, name, subModelSelectors)
	}
	s := ctor().(SubModelSelector)
	if err := decodeParams(param, params, s); err != nil {
		return nil, err
	}
	return s, s.Validate()
}
