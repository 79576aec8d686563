package ensemble

import (
	"context"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/core/model"
	"github.com/YuminosukeSato/scigo-ensemble/core/parallel"
	"github.com/YuminosukeSato/scigo-ensemble/metrics"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/log"
	"github.com/YuminosukeSato/scigo-ensemble/preprocessing"
	"github.com/YuminosukeSato/scigo-ensemble/sklearn/linear_model"
)

const ensembleModelType = "EnsembleClassifier"

// PredictorType is the kind of predictor the ensemble trains.
const PredictorType = "classifier"

// subModel is one trained base learner with the feature columns it reads.
type subModel struct {
	batch    int
	rows     int
	features []int
	learner  *linear_model.LogisticRegression
}

// EnsembleClassifier trains a set of logistic regressions on sampled subsets
// of the training data and combines their class scores.
//
// Labels are integer class values given as an n×1 matrix.
type EnsembleClassifier struct {
	ensembleParams

	state  *model.StateManager
	logger log.Logger
	id     string

	// fitted state
	classes      []int
	featureNames []string
	scaler       *preprocessing.MinMaxScaler
	models       []*subModel
	combiner     OutputCombiner
	report       *MetricsReport
}

// NewEnsembleClassifier creates an ensemble classifier. Unset options keep
// their defaults: bootstrap sampling over all features, 50 models, no pruning
// and a median combiner.
//
// Example:
//
//	clf, err := ensemble.NewEnsembleClassifier(
//	    ensemble.WithSamplingType(ensemble.NewRandomPartitionSelector(nil)),
//	    ensemble.WithNumModels(10),
//	    ensemble.WithParams(map[string]interface{}{"random_state": 42}),
//	)
func NewEnsembleClassifier(opts ...Option) (*EnsembleClassifier, error) {
	ec := newEnsembleClassifier(uuid.NewString())
	for _, opt := range opts {
		opt(ec)
	}
	if err := ec.ensembleParams.validate(); err != nil {
		return nil, err
	}
	return ec, nil
}

// NewEnsembleClassifierFromParams creates an ensemble classifier from a
// kwargs-style map, e.g. one decoded from a JSON parameter file. Components
// may be given as values, names or {"name": ...} component maps.
func NewEnsembleClassifierFromParams(params map[string]interface{}) (*EnsembleClassifier, error) {
	ec := newEnsembleClassifier(uuid.NewString())
	if err := ec.SetParams(params); err != nil {
		return nil, err
	}
	return ec, nil
}

func newEnsembleClassifier(id string) *EnsembleClassifier {
	return &EnsembleClassifier{
		ensembleParams: defaultParams(),
		state:          model.NewStateManager(),
		id:             id,
		logger: log.GetLoggerWithName("ensemble").With(
			log.ModelNameKey, ensembleModelType,
			log.EstimatorIDKey, id,
		),
	}
}

// GetParams returns the engine parameter set. deep is ignored.
func (ec *EnsembleClassifier) GetParams(deep bool) map[string]interface{} {
	return ec.engineParams(false)
}

// SetParams updates the parameters. Nothing changes when validation fails.
func (ec *EnsembleClassifier) SetParams(params map[string]interface{}) error {
	next := ec.ensembleParams.clone()
	if err := next.apply(params); err != nil {
		return err
	}
	if err := next.validate(); err != nil {
		return err
	}
	ec.ensembleParams = next
	return nil
}

// PredictorType returns "classifier".
func (ec *EnsembleClassifier) PredictorType() string {
	return PredictorType
}

// ID returns the estimator id attached to every log line.
func (ec *EnsembleClassifier) ID() string {
	return ec.id
}

// IsFitted reports whether Fit has completed.
func (ec *EnsembleClassifier) IsFitted() bool {
	return ec.state.IsFitted()
}

// Classes returns the class labels in ascending order.
func (ec *EnsembleClassifier) Classes() []int {
	return append([]int(nil), ec.classes...)
}

// NClasses returns the number of classes.
func (ec *EnsembleClassifier) NClasses() int {
	return len(ec.classes)
}

// Models returns the number of sub-models kept after pruning.
func (ec *EnsembleClassifier) Models() int {
	return len(ec.models)
}

// FeatureNames returns the columns FitFrame trained on. Nil after Fit.
func (ec *EnsembleClassifier) FeatureNames() []string {
	return append([]string(nil), ec.featureNames...)
}

// Report returns the per-model metrics of the last Fit.
func (ec *EnsembleClassifier) Report() *MetricsReport {
	return ec.report
}

// checkPredict validates the fitted state and the feature count of X.
func (ec *EnsembleClassifier) checkPredict(X mat.Matrix, method string) error {
	if err := ec.state.RequireFitted(ensembleModelType, method); err != nil {
		return err
	}
	if X == nil {
		return errors.NewValueError("EnsembleClassifier."+method, "nil input")
	}
	r, c := X.Dims()
	if r == 0 {
		return errors.NewModelError("EnsembleClassifier."+method, "invalid input", errors.ErrEmptyData)
	}
	return ec.state.RequireFeatures("EnsembleClassifier."+method, c)
}

// modelScores runs every kept sub-model on X, already normalized.
func (ec *EnsembleClassifier) modelScores(ctx context.Context, X mat.Matrix, rows []int, models []*subModel) ([]*mat.Dense, error) {
	scores := make([]*mat.Dense, len(models))
	score := func(_ context.Context, m int) error {
		sm := models[m]
		proba, err := sm.learner.PredictProba(gather(X, rows, sm.features))
		if err != nil {
			return errors.Wrapf(err, "sub-model %d", m)
		}
		scores[m] = mat.DenseCopyOf(proba)
		return nil
	}
	var err error
	if ec.trainParallel {
		err = parallel.ForEach(ctx, len(models), ec.nJobs(), score)
	} else {
		err = parallel.Sequential(ctx, len(models), score)
	}
	if err != nil {
		return nil, err
	}
	return scores, nil
}

func (ec *EnsembleClassifier) combined(ctx context.Context, X mat.Matrix, method string) (*mat.Dense, error) {
	if err := ec.checkPredict(X, method); err != nil {
		return nil, err
	}
	input := X
	if ec.scaler != nil {
		scaled, err := ec.scaler.Transform(X)
		if err != nil {
			return nil, err
		}
		input = scaled
	}
	scores, err := ec.modelScores(ctx, input, nil, ec.models)
	if err != nil {
		return nil, err
	}
	return ec.combiner.Combine(scores)
}

// DecisionFunction returns the combiner's raw n×k class scores.
func (ec *EnsembleClassifier) DecisionFunction(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, "EnsembleClassifier.DecisionFunction")
	return ec.combined(context.Background(), X, "DecisionFunction")
}

// PredictProba returns n×k class probabilities. Columns follow Classes().
func (ec *EnsembleClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	return ec.PredictProbaContext(context.Background(), X)
}

// PredictProbaContext is PredictProba with cancellation.
func (ec *EnsembleClassifier) PredictProbaContext(ctx context.Context, X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, "EnsembleClassifier.PredictProba")
	scores, err := ec.combined(ctx, X, "PredictProba")
	if err != nil {
		return nil, err
	}
	normalizeRows(scores)
	return scores, nil
}

// Predict returns the most probable class label per row as an n×1 matrix.
// Ties go to the smaller label.
func (ec *EnsembleClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := ec.PredictProba(X)
	if err != nil {
		return nil, err
	}
	idx := metrics.ArgMaxRows(proba)
	out := mat.NewDense(len(idx), 1, nil)
	for i, c := range idx {
		out.Set(i, 0, float64(ec.classes[c]))
	}
	return out, nil
}

// Score returns the mean accuracy on X and y.
func (ec *EnsembleClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := ec.Predict(X)
	if err != nil {
		return 0, err
	}
	n, _ := pred.Dims()
	if yRows, _ := y.Dims(); yRows != n {
		return 0, errors.NewDimensionError("EnsembleClassifier.Score", n, yRows, 0)
	}
	yTrue := mat.NewVecDense(n, nil)
	yPred := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yTrue.SetVec(i, y.At(i, 0))
		yPred.SetVec(i, pred.At(i, 0))
	}
	return metrics.Accuracy(yTrue, yPred)
}

// gather copies the given rows (all rows when nil) and columns of X.
func gather(X mat.Matrix, rows, cols []int) *mat.Dense {
	if rows == nil {
		n, _ := X.Dims()
		rows = identity(n)
	}
	out := mat.NewDense(len(rows), len(cols), nil)
	if d, ok := X.(*mat.Dense); ok {
		for i, r := range rows {
			src := d.RawRowView(r)
			dst := out.RawRowView(i)
			for j, c := range cols {
				dst[j] = src[c]
			}
		}
		return out
	}
	for i, r := range rows {
		for j, c := range cols {
			out.Set(i, j, X.At(r, c))
		}
	}
	return out
}

var (
	_ model.Classifier        = (*EnsembleClassifier)(nil)
	_ model.SKLearnCompatible = (*EnsembleClassifier)(nil)
)
