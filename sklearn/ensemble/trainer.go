package ensemble

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/core/parallel"
	"github.com/YuminosukeSato/scigo-ensemble/internal/dataset"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/log"
	"github.com/YuminosukeSato/scigo-ensemble/preprocessing"
	"github.com/YuminosukeSato/scigo-ensemble/sklearn/linear_model"
)

// DefaultLabelColumn is the label column FitFrame uses when no label is set.
const DefaultLabelColumn = "Label"

// evalSet are the rows the trained models are scored on.
type evalSet struct {
	X      mat.Matrix
	rows   []int // nil selects every row of X
	labels []int
	source string
}

// Fit trains the ensemble on X (n×d) and integer class labels y (n×1).
func (ec *EnsembleClassifier) Fit(X, y mat.Matrix) error {
	return ec.FitContext(context.Background(), X, y)
}

// FitContext is Fit with cancellation. A cancelled context stops training
// between base learners.
func (ec *EnsembleClassifier) FitContext(ctx context.Context, X, y mat.Matrix) error {
	return ec.FitWithValidation(ctx, X, y, nil, nil)
}

// FitWithValidation trains on X, y and evaluates the sub-models on Xval,
// yval instead of holding out training rows. Nil Xval and yval behave like
// FitContext.
func (ec *EnsembleClassifier) FitWithValidation(ctx context.Context, X, y, Xval, yval mat.Matrix) (err error) {
	defer errors.Recover(&err, "EnsembleClassifier.Fit")

	if err := ec.fit(ctx, X, y, Xval, yval); err != nil {
		return err
	}
	ec.featureNames = nil
	return nil
}

// FitFrame trains on the named columns of a frame. Without a feature setting
// every column except the label is used; without a label setting the column
// named "Label" is.
func (ec *EnsembleClassifier) FitFrame(ctx context.Context, f *dataset.Frame) (err error) {
	defer errors.Recover(&err, "EnsembleClassifier.FitFrame")

	label := ec.label
	if label == "" {
		label = DefaultLabelColumn
	}
	if f.Index(label) < 0 {
		return errors.NewValidationError("label", "column not found in data", label)
	}
	features := ec.feature
	if len(features) == 0 {
		features = f.Except(label)
	}
	X, err := f.Select(features...)
	if err != nil {
		return err
	}
	y, err := f.Select(label)
	if err != nil {
		return err
	}
	if err := ec.fit(ctx, X, y, nil, nil); err != nil {
		return err
	}
	ec.featureNames = append([]string(nil), features...)
	return nil
}

func (ec *EnsembleClassifier) fit(ctx context.Context, X, y, Xval, yval mat.Matrix) error {
	const op = "EnsembleClassifier.Fit"
	start := time.Now()

	if err := ec.ensembleParams.validate(); err != nil {
		return err
	}
	rows, cols, err := checkXY(op, X, y)
	if err != nil {
		return err
	}
	classes, err := discoverClasses(op, y)
	if err != nil {
		return err
	}
	labels, err := labelIndices(op, y, classes)
	if err != nil {
		return err
	}

	var valLabels []int
	if Xval != nil || yval != nil {
		const vop = "EnsembleClassifier.FitWithValidation"
		if Xval == nil || yval == nil {
			return errors.NewValueError(vop, "validation features and labels must be given together")
		}
		_, vc, err := checkXY(vop, Xval, yval)
		if err != nil {
			return err
		}
		if vc != cols {
			return errors.NewDimensionError(vop, cols, vc, 1)
		}
		if valLabels, err = labelIndices(vop, yval, classes); err != nil {
			return err
		}
	}

	seed, ok := ec.seed()
	if !ok {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))

	selector := ec.selectorOrDefault()
	combiner := ec.freshCombiner()
	logger := ec.logger.With(log.OperationKey, log.OperationFit, log.RandomSeedKey, seed)
	logger.Info("Fitting ensemble",
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.ClassesKey, len(classes),
		log.NumModelsKey, ec.modelsPerBatch(),
		log.BatchSizeKey, ec.batchSize,
		log.SamplingKey, ec.samplingType.Name(),
		log.SelectorKey, selector.Name(),
		log.CombinerKey, combiner.Name(),
		log.ParallelKey, ec.trainParallel,
	)

	ec.state.Reset()

	data, scaler, err := ec.prepare(X)
	if err != nil {
		return err
	}

	trainRows := identity(rows)
	var ev evalSet
	switch {
	case Xval != nil:
		valData := Xval
		if scaler != nil {
			if valData, err = scaler.Transform(Xval); err != nil {
				return err
			}
		}
		ev = evalSet{X: valData, labels: valLabels, source: log.PhaseValidation}
	case max(selector.ValidationProportion(), combiner.ValidationProportion()) > 0:
		var evalRows []int
		p := max(selector.ValidationProportion(), combiner.ValidationProportion())
		trainRows, evalRows, err = holdout(rows, p, rng)
		if err != nil {
			return err
		}
		ev = evalSet{X: data, rows: evalRows, labels: pick(labels, evalRows), source: log.PhaseValidation}
	default:
		ev = evalSet{X: data, labels: labels, source: log.PhaseTraining}
	}

	var models []*subModel
	for b, batch := range splitBatches(trainRows, ec.batchSize) {
		trained, err := ec.trainBatch(ctx, logger, b, data, batch, labels, classes, rng)
		if err != nil {
			return err
		}
		models = append(models, trained...)
	}

	evaluation, err := ec.evaluate(ctx, models, ev, len(classes), seed)
	if err != nil {
		return err
	}
	keep, err := selector.SelectModels(ctx, evaluation)
	if err != nil {
		return errors.Wrap(err, "select sub-models")
	}
	if len(keep) == 0 {
		return errors.NewValueError(op, "sub-model selection kept no models")
	}
	if err := combiner.Fit(ctx, evaluation.subset(keep)); err != nil {
		return errors.Wrap(err, "fit output combiner")
	}

	kept := make([]*subModel, len(keep))
	for i, m := range keep {
		kept[i] = models[m]
	}
	report := newMetricsReport(ev.source, models, evaluation.Metrics, keep)

	ec.classes = classes
	ec.scaler = scaler
	ec.models = kept
	ec.combiner = combiner
	ec.report = report
	ec.state.SetDimensions(cols, rows)
	ec.state.SetClasses(len(classes))
	ec.state.SetFitted()

	if ec.showMetrics {
		logger.Info("Sub-model metrics\n"+report.Table(), log.PhaseKey, ev.source)
	}
	logger.Info("Ensemble fitted",
		log.KeptModelsKey, len(kept),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

func (ec *EnsembleClassifier) selectorOrDefault() SubModelSelector {
	if ec.subModelSelector == nil {
		return NewClassifierAllSelector()
	}
	return ec.subModelSelector
}

// freshCombiner returns an untrained copy of the configured combiner so that a
// combiner value shared between estimators keeps no state across fits.
func (ec *EnsembleClassifier) freshCombiner() OutputCombiner {
	if ec.outputCombiner == nil {
		return NewClassifierMedian()
	}
	if c, err := ParseOutputCombiner(ComponentSpec(ec.outputCombiner)); err == nil {
		return c
	}
	return ec.outputCombiner
}

// prepare normalizes and caches the training matrix.
func (ec *EnsembleClassifier) prepare(X mat.Matrix) (mat.Matrix, *preprocessing.MinMaxScaler, error) {
	data := X
	owned := false
	var scaler *preprocessing.MinMaxScaler

	switch {
	case ec.normalize.scales():
		scaler = preprocessing.NewMinMaxScaler()
		scaled, err := scaler.FitTransform(X)
		if err != nil {
			return nil, nil, err
		}
		data, owned = scaled, true
	case ec.normalize == NormalizeWarn:
		errors.Warn(errors.NewDataConversionWarning("features", "unscaled features",
			"normalize=Warn leaves features unscaled for a scale-sensitive base learner"))
	}

	switch ec.caching {
	case CachingMemory:
		if !owned {
			data = mat.DenseCopyOf(data)
		}
	case CachingAuto:
		if _, dense := data.(*mat.Dense); !dense {
			data = mat.DenseCopyOf(data)
		}
	}
	return data, scaler, nil
}

// trainBatch trains one set of base learners on the given training rows.
// Subsets and seeds are drawn before any learner starts, so the result does
// not depend on scheduling.
func (ec *EnsembleClassifier) trainBatch(ctx context.Context, logger log.Logger, batch int, data mat.Matrix, rows, labels, classes []int, rng *rand.Rand) ([]*subModel, error) {
	_, cols := data.Dims()
	n := ec.modelsPerBatch()

	subsets, err := ec.samplingType.Select(ctx, len(rows), cols, n, rng)
	if err != nil {
		return nil, err
	}
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}
	params := ec.baseLearnerParams()

	models := make([]*subModel, n)
	train := func(_ context.Context, m int) error {
		return errors.SafeExecute(fmt.Sprintf("base learner %d of batch %d", m, batch), func() error {
			sub := subsets[m]
			global := make([]int, len(sub.Rows))
			for i, r := range sub.Rows {
				global[i] = rows[r]
			}
			ys := mat.NewDense(len(global), 1, nil)
			for i, r := range global {
				ys.Set(i, 0, float64(classes[labels[r]]))
			}

			lr := linear_model.NewLogisticRegression(
				linear_model.WithLRClasses(classes),
				linear_model.WithLRRandomState(seeds[m]),
			)
			if err := lr.SetParams(params); err != nil {
				return err
			}
			if err := lr.Fit(gather(data, global, sub.Features), ys); err != nil {
				return errors.Wrapf(err, "base learner %d of batch %d", m, batch)
			}
			models[m] = &subModel{batch: batch, rows: len(global), features: sub.Features, learner: lr}
			logger.Debug("Base learner trained",
				log.BatchKey, batch,
				log.ModelIndexKey, m,
				log.SamplesKey, len(global),
				log.FeaturesKey, len(sub.Features),
			)
			return nil
		})
	}

	if ec.trainParallel {
		err = parallel.ForEach(ctx, n, ec.nJobs(), train)
	} else {
		err = parallel.Sequential(ctx, n, train)
	}
	if err != nil {
		return nil, err
	}
	return models, nil
}

// evaluate scores every trained model on the evaluation rows.
func (ec *EnsembleClassifier) evaluate(ctx context.Context, models []*subModel, ev evalSet, nClasses int, seed int64) (*Evaluation, error) {
	scores, err := ec.modelScores(ctx, ev.X, ev.rows, models)
	if err != nil {
		return nil, err
	}
	withReduction := distinctCount(ev.labels) > 1
	if !withReduction {
		errors.Warn(errors.NewUndefinedMetricWarning("LogLossReduction", "evaluation rows hold a single class", 0))
	}
	out := &Evaluation{
		Scores:   scores,
		Metrics:  make([]ModelMetrics, len(scores)),
		Labels:   ev.labels,
		NClasses: nClasses,
		Seed:     seed,
	}
	for m, s := range scores {
		if out.Metrics[m], err = evaluate(s, ev.labels, withReduction); err != nil {
			return nil, errors.Wrapf(err, "evaluate sub-model %d", m)
		}
	}
	return out, nil
}

func checkXY(op string, X, y mat.Matrix) (int, int, error) {
	if X == nil || y == nil {
		return 0, 0, errors.NewValueError(op, "nil input")
	}
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return 0, 0, errors.NewModelError(op, "invalid input", errors.ErrEmptyData)
	}
	yRows, yCols := y.Dims()
	if yRows != rows {
		return 0, 0, errors.NewDimensionError(op, rows, yRows, 0)
	}
	if yCols != 1 {
		return 0, 0, errors.NewDimensionError(op, 1, yCols, 1)
	}
	if err := errors.CheckMatrix(op, X, rows, cols, 0); err != nil {
		return 0, 0, err
	}
	return rows, cols, nil
}

// discoverClasses returns the sorted distinct labels of y.
func discoverClasses(op string, y mat.Matrix) ([]int, error) {
	n, _ := y.Dims()
	seen := make(map[int]struct{})
	for i := 0; i < n; i++ {
		v := y.At(i, 0)
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return nil, errors.NewValidationError("y", "labels must be integer class values", v)
		}
		seen[int(v)] = struct{}{}
	}
	if len(seen) < 2 {
		return nil, errors.NewModelError(op, "need at least two classes", errors.ErrSingleClass)
	}
	classes := make([]int, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	return classes, nil
}

// labelIndices maps every label to its position in classes.
func labelIndices(op string, y mat.Matrix, classes []int) ([]int, error) {
	index := make(map[int]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	n, _ := y.Dims()
	out := make([]int, n)
	for i := 0; i < n; i++ {
		v := y.At(i, 0)
		idx, ok := -1, false
		if v == math.Trunc(v) {
			idx, ok = index[int(v)]
		}
		if !ok {
			return nil, errors.NewValueError(op, fmt.Sprintf("label %v is not one of the training classes", v))
		}
		out[i] = idx
	}
	return out, nil
}

// holdout shuffles the rows and sets round(p*n) of them aside, at least one.
// Both parts are returned sorted.
func holdout(n int, p float64, rng *rand.Rand) (train, held []int, err error) {
	h := max(1, int(math.Round(p*float64(n))))
	if n-h < 1 {
		return nil, nil, errors.NewValidationError("validation_dataset_proportion",
			"leaves no rows for training", map[string]interface{}{"rows": n, "proportion": p})
	}
	perm := rng.Perm(n)
	held = append([]int(nil), perm[:h]...)
	train = append([]int(nil), perm[h:]...)
	sort.Ints(held)
	sort.Ints(train)
	return train, held, nil
}

// splitBatches cuts rows into consecutive batches of size rows. The last batch
// absorbs the remainder. size <= 0 yields a single batch.
func splitBatches(rows []int, size int) [][]int {
	if size <= 0 || size >= len(rows) {
		return [][]int{rows}
	}
	nb := max(1, len(rows)/size)
	batches := make([][]int, nb)
	for b := 0; b < nb; b++ {
		end := (b + 1) * size
		if b == nb-1 {
			end = len(rows)
		}
		batches[b] = rows[b*size : end]
	}
	return batches
}

func pick(values, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = values[j]
	}
	return out
}
