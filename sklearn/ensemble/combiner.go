package ensemble

import (
	"context"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/core/model"
	"github.com/YuminosukeSato/scigo-ensemble/core/parallel"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
	"github.com/YuminosukeSato/scigo-ensemble/sklearn/linear_model"
)

// OutputCombiner merges the class scores of the kept base learners.
type OutputCombiner interface {
	Component

	// ValidationProportion is the share of training rows the combiner needs
	// held out for its own training. 0 for untrained combiners.
	ValidationProportion() float64

	// Fit prepares the combiner on the kept models' evaluation.
	Fit(ctx context.Context, eval *Evaluation) error

	// Combine merges one n×k score matrix per kept model into n×k scores.
	Combine(scores []*mat.Dense) (*mat.Dense, error)
}

// combinerState is the persisted part of a trained combiner.
type combinerState struct {
	Weights []float64
	Meta    *model.ModelWeights
}

// statefulCombiner is implemented by combiners whose Fit learns something.
type statefulCombiner interface {
	exportState() (*combinerState, error)
	importState(*combinerState) error
}

func checkScores(op string, scores []*mat.Dense) (int, int, error) {
	if len(scores) == 0 {
		return 0, 0, errors.NewValueError(op, "no model scores to combine")
	}
	n, k := scores[0].Dims()
	for _, s := range scores[1:] {
		r, c := s.Dims()
		if r != n {
			return 0, 0, errors.NewDimensionError(op, n, r, 0)
		}
		if c != k {
			return 0, 0, errors.NewDimensionError(op, k, c, 1)
		}
	}
	return n, k, nil
}

// normalizeRows rescales every row to sum to one. Rows summing to zero become
// uniform.
func normalizeRows(m *mat.Dense) {
	n, k := m.Dims()
	for i := 0; i < n; i++ {
		row := m.RawRowView(i)
		sum := floats.Sum(row)
		if sum <= 0 {
			for j := range row {
				row[j] = 1 / float64(k)
			}
			continue
		}
		floats.Scale(1/sum, row)
	}
}

// untrained supplies the no-op parts of combiners without a training step.
type untrained struct{}

func (untrained) ValidationProportion() float64         { return 0 }
func (untrained) Fit(context.Context, *Evaluation) error { return nil }

// ClassifierAverage averages the models' scores.
type ClassifierAverage struct {
	untrained
	Normalize bool `json:"normalize"`
}

// NewClassifierAverage returns an averaging combiner with normalized output.
func NewClassifierAverage() *ClassifierAverage { return &ClassifierAverage{Normalize: true} }

func (*ClassifierAverage) Name() string { return "ClassifierAverage" }
func (c *ClassifierAverage) Params() map[string]interface{} {
	return map[string]interface{}{"normalize": c.Normalize}
}
func (*ClassifierAverage) Validate() error { return nil }

func (c *ClassifierAverage) Combine(scores []*mat.Dense) (*mat.Dense, error) {
	n, k, err := checkScores("ClassifierAverage.Combine", scores)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(n, k, nil)
	for _, s := range scores {
		out.Add(out, s)
	}
	out.Scale(1/float64(len(scores)), out)
	if c.Normalize {
		normalizeRows(out)
	}
	return out, nil
}

// medianParallelThreshold is the row count above which medians are computed
// on all cores.
const medianParallelThreshold = 1000

// ClassifierMedian takes the per-class median of the models' scores.
type ClassifierMedian struct {
	untrained
	Normalize bool `json:"normalize"`
}

// NewClassifierMedian returns the default combiner.
func NewClassifierMedian() *ClassifierMedian { return &ClassifierMedian{Normalize: true} }

func (*ClassifierMedian) Name() string { return "ClassifierMedian" }
func (c *ClassifierMedian) Params() map[string]interface{} {
	return map[string]interface{}{"normalize": c.Normalize}
}
func (*ClassifierMedian) Validate() error { return nil }

func (c *ClassifierMedian) Combine(scores []*mat.Dense) (*mat.Dense, error) {
	n, k, err := checkScores("ClassifierMedian.Combine", scores)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(n, k, nil)
	parallel.ParallelizeWithThreshold(n, medianParallelThreshold, func(start, end int) {
		column := make(stats.Float64Data, len(scores))
		for i := start; i < end; i++ {
			for j := 0; j < k; j++ {
				for m, s := range scores {
					column[m] = s.At(i, j)
				}
				// column is never empty after checkScores
				med, _ := column.Median()
				out.Set(i, j, med)
			}
		}
	})
	if c.Normalize {
		normalizeRows(out)
	}
	return out, nil
}

// ClassifierVoting gives each model one vote for its top class. The output is
// the fraction of votes per class. Ties in a model's scores go to the lower
// class index.
type ClassifierVoting struct {
	untrained
}

// NewClassifierVoting returns a majority-vote combiner.
func NewClassifierVoting() *ClassifierVoting { return &ClassifierVoting{} }

func (*ClassifierVoting) Name() string                   { return "ClassifierVoting" }
func (*ClassifierVoting) Params() map[string]interface{} { return map[string]interface{}{} }
func (*ClassifierVoting) Validate() error                { return nil }

func (*ClassifierVoting) Combine(scores []*mat.Dense) (*mat.Dense, error) {
	n, k, err := checkScores("ClassifierVoting.Combine", scores)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(n, k, nil)
	vote := 1 / float64(len(scores))
	for _, s := range scores {
		for i := 0; i < n; i++ {
			j := floats.MaxIdx(s.RawRowView(i))
			out.Set(i, j, out.At(i, j)+vote)
		}
	}
	return out, nil
}

// Weightings accepted by ClassifierWeightedAverage.
const (
	WeightageAccuracyMicroAvg = "AccuracyMicroAvg"
	WeightageAccuracyMacroAvg = "AccuracyMacroAvg"
)

// ClassifierWeightedAverage averages the models' scores weighted by their
// evaluation accuracy.
type ClassifierWeightedAverage struct {
	WeightageName string `json:"weightage_name"`
	Normalize     bool   `json:"normalize"`

	weights []float64
}

// NewClassifierWeightedAverage weights by micro accuracy.
func NewClassifierWeightedAverage() *ClassifierWeightedAverage {
	return &ClassifierWeightedAverage{WeightageName: WeightageAccuracyMicroAvg, Normalize: true}
}

func (*ClassifierWeightedAverage) Name() string { return "ClassifierWeightedAverage" }
func (c *ClassifierWeightedAverage) Params() map[string]interface{} {
	return map[string]interface{}{"weightage_name": c.WeightageName, "normalize": c.Normalize}
}

func (c *ClassifierWeightedAverage) Validate() error {
	switch c.WeightageName {
	case WeightageAccuracyMicroAvg, WeightageAccuracyMacroAvg:
		return nil
	}
	return errors.NewValidationError("weightage_name",
		"must be "+WeightageAccuracyMicroAvg+" or "+WeightageAccuracyMacroAvg, c.WeightageName)
}

func (*ClassifierWeightedAverage) ValidationProportion() float64 { return 0 }

// Fit takes the weights from the evaluation metrics. When every weight is zero
// the models are weighted uniformly.
func (c *ClassifierWeightedAverage) Fit(_ context.Context, eval *Evaluation) error {
	if err := c.Validate(); err != nil {
		return err
	}
	w := make([]float64, len(eval.Metrics))
	for i, m := range eval.Metrics {
		if c.WeightageName == WeightageAccuracyMacroAvg {
			w[i] = m.AccuracyMacro
		} else {
			w[i] = m.AccuracyMicro
		}
	}
	if floats.Sum(w) <= 0 {
		for i := range w {
			w[i] = 1
		}
	}
	c.weights = w
	return nil
}

// Weights returns the per-model weights learned by Fit.
func (c *ClassifierWeightedAverage) Weights() []float64 {
	return append([]float64(nil), c.weights...)
}

func (c *ClassifierWeightedAverage) Combine(scores []*mat.Dense) (*mat.Dense, error) {
	n, k, err := checkScores("ClassifierWeightedAverage.Combine", scores)
	if err != nil {
		return nil, err
	}
	if len(c.weights) != len(scores) {
		return nil, errors.NewDimensionError("ClassifierWeightedAverage.Combine", len(c.weights), len(scores), 0)
	}
	out := mat.NewDense(n, k, nil)
	var ws mat.Dense
	for m, s := range scores {
		ws.Scale(c.weights[m], s)
		out.Add(out, &ws)
	}
	out.Scale(1/floats.Sum(c.weights), out)
	if c.Normalize {
		normalizeRows(out)
	}
	return out, nil
}

func (c *ClassifierWeightedAverage) exportState() (*combinerState, error) {
	return &combinerState{Weights: c.Weights()}, nil
}

func (c *ClassifierWeightedAverage) importState(s *combinerState) error {
	c.weights = append([]float64(nil), s.Weights...)
	return nil
}

// stackingMaxIter bounds the meta learner's gradient steps.
const stackingMaxIter = 1000

// ClassifierStacking trains a multinomial logistic regression on the
// concatenated scores of the kept models, using held-out rows.
type ClassifierStacking struct {
	ValidationDatasetProportion float64 `json:"validation_dataset_proportion"`

	meta *linear_model.LogisticRegression
}

// NewClassifierStacking holds out 30% of the rows for the meta learner.
func NewClassifierStacking() *ClassifierStacking {
	return &ClassifierStacking{ValidationDatasetProportion: 0.3}
}

func (*ClassifierStacking) Name() string { return "ClassifierStacking" }
func (c *ClassifierStacking) Params() map[string]interface{} {
	return map[string]interface{}{"validation_dataset_proportion": c.ValidationDatasetProportion}
}
func (c *ClassifierStacking) Validate() error {
	return checkValidationProportion(c.ValidationDatasetProportion)
}
func (c *ClassifierStacking) ValidationProportion() float64 { return c.ValidationDatasetProportion }

// stackScores lays the models' scores side by side: n × (models·k).
func stackScores(scores []*mat.Dense) *mat.Dense {
	n, k := scores[0].Dims()
	X := mat.NewDense(n, len(scores)*k, nil)
	for m, s := range scores {
		X.Slice(0, n, m*k, (m+1)*k).(*mat.Dense).Copy(s)
	}
	return X
}

// Fit trains the meta learner. Every class index gets a column even when the
// evaluation rows miss some classes.
func (c *ClassifierStacking) Fit(ctx context.Context, eval *Evaluation) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if _, _, err := checkScores("ClassifierStacking.Fit", eval.Scores); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	y := mat.NewDense(len(eval.Labels), 1, nil)
	for i, l := range eval.Labels {
		y.Set(i, 0, float64(l))
	}
	// L2 strength is 1/n over the evaluation rows.
	meta := linear_model.NewLogisticRegression(
		linear_model.WithLRClasses(identity(eval.NClasses)),
		linear_model.WithLRRandomState(eval.Seed),
		linear_model.WithLRMultiClass("multinomial"),
		linear_model.WithLRC(float64(len(eval.Labels))),
		linear_model.WithLRMaxIter(stackingMaxIter),
	)
	if err := meta.Fit(stackScores(eval.Scores), y); err != nil {
		return errors.Wrap(err, "ClassifierStacking.Fit")
	}
	c.meta = meta
	return nil
}

func (c *ClassifierStacking) Combine(scores []*mat.Dense) (*mat.Dense, error) {
	if _, _, err := checkScores("ClassifierStacking.Combine", scores); err != nil {
		return nil, err
	}
	if c.meta == nil {
		return nil, errors.NewNotFittedError("ClassifierStacking", "Combine")
	}
	proba, err := c.meta.PredictProba(stackScores(scores))
	if err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(proba), nil
}

func (c *ClassifierStacking) exportState() (*combinerState, error) {
	if c.meta == nil {
		return nil, errors.NewNotFittedError("ClassifierStacking", "exportState")
	}
	w, err := c.meta.ExportWeights()
	if err != nil {
		return nil, err
	}
	return &combinerState{Meta: w}, nil
}

func (c *ClassifierStacking) importState(s *combinerState) error {
	meta := linear_model.NewLogisticRegression()
	if err := meta.ImportWeights(s.Meta); err != nil {
		return err
	}
	c.meta = meta
	return nil
}

var outputCombiners = map[string]func() Component{
	"ClassifierAverage":         func() Component { return NewClassifierAverage() },
	"ClassifierMedian":          func() Component { return NewClassifierMedian() },
	"ClassifierVoting":          func() Component { return NewClassifierVoting() },
	"ClassifierWeightedAverage": func() Component { return NewClassifierWeightedAverage() },
	"ClassifierStacking":        func() Component { return NewClassifierStacking() },
}

// ParseOutputCombiner builds an OutputCombiner from a value, a name or a
// component map. nil yields nil, leaving the engine default in place.
func ParseOutputCombiner(v interface{}) (OutputCombiner, error) {
	const param = "output_combiner"
	switch c := v.(type) {
	case nil:
		return nil, nil
	case OutputCombiner:
		return c, c.Validate()
	}
	name, params, err := splitSpec(param, v)
	if err != nil {
		return nil, err
	}
	ctor, ok := outputCombiners[name]
	if !ok {
		return nil, unknownComponent(param, name, outputCombiners)
	}
	c := ctor().(OutputCombiner)
	if err := decodeParams(param, params, c); err != nil {
		return nil, err
	}
	return c, c.Validate()
}
