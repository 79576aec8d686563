package ensemble

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/internal/dataset"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/log"
)

// makeBlobs draws n rows around three well separated centers labelled 1, 2
// and 5.
func makeBlobs(n int, seed int64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewSource(seed))
	centers := [][2]float64{{0, 0}, {10, 10}, {0, 20}}
	labels := []float64{1, 2, 5}
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		c := i % 3
		X.Set(i, 0, centers[c][0]+rng.NormFloat64())
		X.Set(i, 1, centers[c][1]+rng.NormFloat64())
		y.Set(i, 0, labels[c])
	}
	return X, y
}

// strongLearner makes the base learners fit the blobs closely.
var strongLearner = map[string]interface{}{
	"random_state":           7,
	"base_learner__C":        100,
	"base_learner__max_iter": 300,
}

func newFitted(t *testing.T, opts ...Option) (*EnsembleClassifier, *mat.Dense, *mat.Dense) {
	t.Helper()
	X, y := makeBlobs(90, 1)
	opts = append([]Option{WithNumModels(5), WithParams(strongLearner)}, opts...)
	ec, err := NewEnsembleClassifier(opts...)
	require.NoError(t, err)
	require.NoError(t, ec.Fit(X, y))
	return ec, X, y
}

func TestEnsembleClassifierDefaults(t *testing.T) {
	ec, err := NewEnsembleClassifier()
	require.NoError(t, err)

	params := ec.GetParams(true)
	assert.IsType(t, &BootstrapSelector{}, params["sampling_type"])
	assert.Nil(t, params["num_models"])
	assert.Nil(t, params["sub_model_selector_type"])
	assert.Nil(t, params["output_combiner"])
	assert.Equal(t, "Auto", params["normalize"])
	assert.Equal(t, "Auto", params["caching"])
	assert.Equal(t, false, params["train_parallel"])
	assert.Equal(t, -1, params["batch_size"])
	assert.Equal(t, false, params["show_metrics"])
	assert.Nil(t, params["feature"])
	assert.Nil(t, params["label"])
	assert.NotContains(t, params, paramFeatureColumn)
	assert.NotContains(t, params, paramLabelColumn)

	assert.Equal(t, "classifier", ec.PredictorType())
	assert.NotEmpty(t, ec.ID())
	assert.False(t, ec.IsFitted())
}

func TestEnsembleClassifierRenamedParameters(t *testing.T) {
	t.Run("constructor", func(t *testing.T) {
		_, err := NewEnsembleClassifier(WithParams(map[string]interface{}{"feature_column_name": "x"}))
		require.Error(t, err)
		assert.EqualError(t, err, "'feature_column_name' must be renamed to 'feature'")

		var renamed *errors.RenamedParameterError
		require.True(t, errors.As(err, &renamed))
		assert.Equal(t, "feature", renamed.NewName)
	})

	t.Run("from params", func(t *testing.T) {
		_, err := NewEnsembleClassifierFromParams(map[string]interface{}{"label_column_name": "y"})
		assert.EqualError(t, err, "'label_column_name' must be renamed to 'label'")
	})

	t.Run("set params", func(t *testing.T) {
		ec, err := NewEnsembleClassifier()
		require.NoError(t, err)
		err = ec.SetParams(map[string]interface{}{"label_column_name": "y"})
		assert.EqualError(t, err, "'label_column_name' must be renamed to 'label'")
	})

	t.Run("empty columns are not echoes", func(t *testing.T) {
		ec, err := NewEnsembleClassifier()
		require.NoError(t, err)
		err = ec.SetParams(map[string]interface{}{"feature": nil, "feature_column_name": nil})
		assert.EqualError(t, err, "'feature_column_name' must be renamed to 'feature'")
		err = ec.SetParams(map[string]interface{}{"label": "", "label_column_name": ""})
		assert.EqualError(t, err, "'label_column_name' must be renamed to 'label'")
		assert.NotContains(t, ec.GetParams(true), paramFeatureColumn)
	})
}

func TestEnsembleClassifierColumnForwarding(t *testing.T) {
	ec, err := NewEnsembleClassifier(WithFeature("a"), WithLabel("target"))
	require.NoError(t, err)
	params := ec.GetParams(true)
	assert.Equal(t, []string{"a"}, params["feature"])
	assert.Equal(t, "a", params[paramFeatureColumn])
	assert.Equal(t, "target", params["label"])
	assert.Equal(t, "target", params[paramLabelColumn])

	ec, err = NewEnsembleClassifier(WithFeature("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ec.GetParams(true)[paramFeatureColumn])
}

func TestEnsembleClassifierParamsRoundTrip(t *testing.T) {
	ec, err := NewEnsembleClassifier(
		WithSamplingType(NewRandomPartitionSelector(NewRandomFeatureSelector())),
		WithNumModels(7),
		WithSubModelSelector(NewClassifierBestDiverseSelector()),
		WithOutputCombiner(NewClassifierStacking()),
		WithNormalize(NormalizeNo),
		WithCaching(CachingMemory),
		WithBatchSize(100),
		WithFeature("a", "b"),
		WithLabel("y"),
		WithParams(map[string]interface{}{"random_state": 3, "base_learner__C": 2.0}),
	)
	require.NoError(t, err)

	clone, err := NewEnsembleClassifierFromParams(ec.GetParams(true))
	require.NoError(t, err)
	assert.Equal(t, ec.GetParams(true), clone.GetParams(true))
	assert.NotContains(t, clone.extra, paramFeatureColumn)
	assert.NotContains(t, clone.extra, paramLabelColumn)
}

func TestEnsembleClassifierFromParamsSpecs(t *testing.T) {
	ec, err := NewEnsembleClassifierFromParams(map[string]interface{}{
		"sampling_type": map[string]interface{}{
			"name": "BootstrapSelector",
			"feature_selector": map[string]interface{}{
				"name":                          "RandomFeatureSelector",
				"features_selection_proportion": 0.5,
			},
		},
		"num_models":              "12",
		"sub_model_selector_type": "ClassifierBestPerformanceSelector",
		"output_combiner":         map[string]interface{}{"name": "ClassifierWeightedAverage", "weightage_name": "AccuracyMacroAvg"},
		"normalize":               "yes",
		"train_parallel":          "true",
	})
	require.NoError(t, err)

	assert.Equal(t, 12, ec.modelsPerBatch())
	assert.Equal(t, NormalizeYes, ec.normalize)
	assert.True(t, ec.trainParallel)
	assert.IsType(t, &ClassifierBestPerformanceSelector{}, ec.subModelSelector)

	fs, ok := ec.samplingType.FeatureSelector().(*RandomFeatureSelector)
	require.True(t, ok)
	assert.Equal(t, 0.5, fs.FeaturesSelectionProportion)

	wa, ok := ec.outputCombiner.(*ClassifierWeightedAverage)
	require.True(t, ok)
	assert.Equal(t, WeightageAccuracyMacroAvg, wa.WeightageName)
}

func TestEnsembleClassifierRejectsBadParams(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]interface{}
	}{
		{"unknown key", map[string]interface{}{"bogus": 1}},
		{"negative C", map[string]interface{}{"base_learner__C": -1}},
		{"unknown base learner key", map[string]interface{}{"base_learner__bogus": 1}},
		{"zero models", map[string]interface{}{"num_models": 0}},
		{"fractional models", map[string]interface{}{"num_models": 2.7}},
		{"fractional batch size", map[string]interface{}{"batch_size": 10.5}},
		{"bad normalize", map[string]interface{}{"normalize": "sometimes"}},
		{"bad caching", map[string]interface{}{"caching": "Disk"}},
		{"bad seed", map[string]interface{}{"random_state": "seven"}},
		{"unknown combiner", map[string]interface{}{"output_combiner": "ClassifierMode"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEnsembleClassifierFromParams(tt.params)
			assert.Error(t, err)
		})
	}
}

func TestEnsembleClassifierIntegralFloats(t *testing.T) {
	ec, err := NewEnsembleClassifierFromParams(map[string]interface{}{
		"num_models": 3.0,
		"batch_size": json.Number("40"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, ec.modelsPerBatch())
	assert.Equal(t, 40, ec.batchSize)
}

func TestEnsembleClassifierSetParamsIsAtomic(t *testing.T) {
	ec, err := NewEnsembleClassifier(WithNumModels(4))
	require.NoError(t, err)

	err = ec.SetParams(map[string]interface{}{"num_models": 9, "normalize": "sometimes"})
	require.Error(t, err)
	assert.Equal(t, 4, ec.modelsPerBatch())
	assert.Equal(t, NormalizeAuto, ec.normalize)

	require.NoError(t, ec.SetParams(map[string]interface{}{"num_models": 9}))
	assert.Equal(t, 9, ec.modelsPerBatch())
}

func TestEnsembleClassifierFitPredict(t *testing.T) {
	ec, X, y := newFitted(t, WithNumModels(10))

	assert.True(t, ec.IsFitted())
	assert.Equal(t, []int{1, 2, 5}, ec.Classes())
	assert.Equal(t, 3, ec.NClasses())
	assert.Equal(t, 10, ec.Models())
	assert.Nil(t, ec.FeatureNames())

	proba, err := ec.PredictProba(X)
	require.NoError(t, err)
	r, c := proba.Dims()
	assert.Equal(t, 90, r)
	assert.Equal(t, 3, c)
	for i := 0; i < r; i++ {
		assert.InDelta(t, 1.0, floats.Sum(mat.Row(nil, i, proba)), 1e-9)
	}

	pred, err := ec.Predict(X)
	require.NoError(t, err)
	for i := 0; i < r; i++ {
		assert.Contains(t, []float64{1, 2, 5}, pred.At(i, 0))
	}

	acc, err := ec.Score(X, y)
	require.NoError(t, err)
	assert.Greater(t, acc, 0.9)

	raw, err := ec.DecisionFunction(X)
	require.NoError(t, err)
	rr, rc := raw.Dims()
	assert.Equal(t, []int{90, 3}, []int{rr, rc})
}

func TestEnsembleClassifierParallelMatchesSequential(t *testing.T) {
	seq, X, _ := newFitted(t, WithSamplingType(NewBootstrapSelector(NewRandomFeatureSelector())))
	par, _, _ := newFitted(t,
		WithSamplingType(NewBootstrapSelector(NewRandomFeatureSelector())),
		WithTrainParallel(true),
	)

	want, err := seq.PredictProba(X)
	require.NoError(t, err)
	got, err := par.PredictProba(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, got))
}

func TestEnsembleClassifierComponentCombinations(t *testing.T) {
	samplers := map[string]func() SubsetSelector{
		"bootstrap": func() SubsetSelector { return NewBootstrapSelector(nil) },
		"partition": func() SubsetSelector { return NewRandomPartitionSelector(nil) },
		"all":       func() SubsetSelector { return NewAllInstanceSelector(NewRandomFeatureSelector()) },
	}
	selectors := map[string]func() SubModelSelector{
		"all":     func() SubModelSelector { return NewClassifierAllSelector() },
		"best":    func() SubModelSelector { return NewClassifierBestPerformanceSelector() },
		"diverse": func() SubModelSelector { return NewClassifierBestDiverseSelector() },
	}
	combiners := map[string]func() OutputCombiner{
		"average":  func() OutputCombiner { return NewClassifierAverage() },
		"median":   func() OutputCombiner { return NewClassifierMedian() },
		"voting":   func() OutputCombiner { return NewClassifierVoting() },
		"weighted": func() OutputCombiner { return NewClassifierWeightedAverage() },
		"stacking": func() OutputCombiner { return NewClassifierStacking() },
	}

	X, y := makeBlobs(90, 1)
	for sn, sampler := range samplers {
		for pn, selector := range selectors {
			for cn, combiner := range combiners {
				t.Run(sn+"/"+pn+"/"+cn, func(t *testing.T) {
					ec, err := NewEnsembleClassifier(
						WithSamplingType(sampler()),
						WithSubModelSelector(selector()),
						WithOutputCombiner(combiner()),
						WithNumModels(4),
						WithParams(strongLearner),
					)
					require.NoError(t, err)
					require.NoError(t, ec.Fit(X, y))
					assert.GreaterOrEqual(t, ec.Models(), 1)

					acc, err := ec.Score(X, y)
					require.NoError(t, err)
					assert.Greater(t, acc, 0.8)
				})
			}
		}
	}
}

func TestEnsembleClassifierBatches(t *testing.T) {
	ec, _, _ := newFitted(t,
		WithNumModels(3),
		WithBatchSize(30),
		WithOutputCombiner(NewClassifierAverage()),
	)

	report := ec.Report()
	require.NotNil(t, report)
	require.Len(t, report.Models, 9)
	assert.Equal(t, 9, ec.Models())
	for i, m := range report.Models {
		assert.Equal(t, i/3, m.Batch)
		assert.Equal(t, 30, m.Rows)
		assert.True(t, m.Kept)
	}
	assert.Equal(t, log.PhaseTraining, report.Source)
}

func TestSplitBatches(t *testing.T) {
	rows := identity(10)
	assert.Equal(t, [][]int{rows}, splitBatches(rows, -1))
	assert.Equal(t, [][]int{rows}, splitBatches(rows, 0))
	assert.Equal(t, [][]int{rows}, splitBatches(rows, 20))
	assert.Equal(t, [][]int{{0, 1, 2}, {3, 4, 5}, {6, 7, 8, 9}}, splitBatches(rows, 3))
}

func TestHoldout(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	train, held, err := holdout(10, 0.3, rng)
	require.NoError(t, err)
	assert.Len(t, held, 3)
	assert.Len(t, train, 7)
	assert.IsIncreasing(t, held)
	assert.IsIncreasing(t, train)
	assert.ElementsMatch(t, identity(10), append(append([]int(nil), train...), held...))

	_, held, err = holdout(10, 0.01, rng)
	require.NoError(t, err)
	assert.Len(t, held, 1)

	_, _, err = holdout(1, 0.5, rng)
	assert.Error(t, err)
}

func TestEnsembleClassifierPruningUsesHoldout(t *testing.T) {
	ec, _, _ := newFitted(t,
		WithNumModels(10),
		WithSubModelSelector(NewClassifierBestPerformanceSelector()),
	)

	assert.Equal(t, 5, ec.Models())
	report := ec.Report()
	assert.Equal(t, log.PhaseValidation, report.Source)
	kept := 0
	for _, m := range report.Models {
		assert.Equal(t, 63, m.Rows)
		if m.Kept {
			kept++
		}
	}
	assert.Equal(t, 5, kept)
}

func TestEnsembleClassifierFitWithValidation(t *testing.T) {
	X, y := makeBlobs(90, 1)
	Xval, yval := makeBlobs(30, 2)

	ec, err := NewEnsembleClassifier(
		WithNumModels(4),
		WithSubModelSelector(NewClassifierBestPerformanceSelector()),
		WithParams(strongLearner),
	)
	require.NoError(t, err)
	require.NoError(t, ec.FitWithValidation(context.Background(), X, y, Xval, yval))

	report := ec.Report()
	assert.Equal(t, log.PhaseValidation, report.Source)
	for _, m := range report.Models {
		assert.Equal(t, 90, m.Rows)
	}
	assert.Equal(t, 2, ec.Models())

	yval.Set(0, 0, 9)
	err = ec.FitWithValidation(context.Background(), X, y, Xval, yval)
	var valueErr *errors.ValueError
	assert.True(t, errors.As(err, &valueErr))

	err = ec.FitWithValidation(context.Background(), X, y, Xval, nil)
	assert.Error(t, err)

	err = ec.FitWithValidation(context.Background(), X, y, mat.NewDense(3, 3, nil), mat.NewDense(3, 1, []float64{1, 2, 5}))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestEnsembleClassifierPredictErrors(t *testing.T) {
	ec, err := NewEnsembleClassifier(WithNumModels(3))
	require.NoError(t, err)

	_, err = ec.PredictProba(mat.NewDense(2, 2, nil))
	var notFitted *errors.NotFittedError
	assert.True(t, errors.As(err, &notFitted))

	var buf bytes.Buffer
	err = ec.Save(&buf)
	assert.True(t, errors.As(err, &notFitted))

	fitted, _, _ := newFitted(t, WithNumModels(3))
	_, err = fitted.Predict(mat.NewDense(2, 5, nil))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	_, err = fitted.Score(mat.NewDense(2, 2, nil), mat.NewDense(3, 1, nil))
	assert.True(t, errors.As(err, &dimErr))
}

func TestEnsembleClassifierFitErrors(t *testing.T) {
	ec, err := NewEnsembleClassifier(WithNumModels(3))
	require.NoError(t, err)

	X := mat.NewDense(4, 2, []float64{1, 2, 3, 4, 5, 6, 7, 8})

	err = ec.Fit(X, mat.NewDense(4, 1, []float64{1, 1, 1, 1}))
	assert.True(t, errors.Is(err, errors.ErrSingleClass))

	err = ec.Fit(X, mat.NewDense(4, 1, []float64{0, 1, 0.5, 1}))
	var validation *errors.ValidationError
	assert.True(t, errors.As(err, &validation))

	err = ec.Fit(X, mat.NewDense(3, 1, []float64{0, 1, 0}))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	err = ec.Fit(X, mat.NewDense(4, 2, nil))
	assert.True(t, errors.As(err, &dimErr))

	bad := mat.DenseCopyOf(X)
	bad.Set(1, 1, math.NaN())
	err = ec.Fit(bad, mat.NewDense(4, 1, []float64{0, 1, 0, 1}))
	var unstable *errors.NumericalInstabilityError
	assert.True(t, errors.As(err, &unstable))

	assert.False(t, ec.IsFitted())
}

func TestEnsembleClassifierCancelledFit(t *testing.T) {
	X, y := makeBlobs(90, 1)
	ec, err := NewEnsembleClassifier(WithNumModels(5))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = ec.FitContext(ctx, X, y)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, ec.IsFitted())
}

func TestEnsembleClassifierNormalizeModes(t *testing.T) {
	scaled, _, _ := newFitted(t, WithNormalize(NormalizeYes))
	assert.NotNil(t, scaled.scaler)

	raw, _, _ := newFitted(t, WithNormalize(NormalizeNo))
	assert.Nil(t, raw.scaler)

	var buf bytes.Buffer
	require.NoError(t, log.SetupLogger("debug", &buf, false))
	defer func() {
		_ = log.SetupLogger("info", os.Stderr, false)
	}()

	warned, _, _ := newFitted(t, WithNormalize(NormalizeWarn))
	assert.Nil(t, warned.scaler)
	assert.Contains(t, buf.String(), "normalize=Warn")
}

func TestEnsembleClassifierFitFrame(t *testing.T) {
	X, y := makeBlobs(60, 3)
	data := mat.NewDense(60, 3, nil)
	for i := 0; i < 60; i++ {
		data.Set(i, 0, X.At(i, 0))
		data.Set(i, 1, y.At(i, 0))
		data.Set(i, 2, X.At(i, 1))
	}
	frame, err := dataset.NewFrame([]string{"x1", "Label", "x2"}, data)
	require.NoError(t, err)

	ec, err := NewEnsembleClassifier(WithNumModels(3), WithParams(strongLearner))
	require.NoError(t, err)
	require.NoError(t, ec.FitFrame(context.Background(), frame))
	assert.Equal(t, []string{"x1", "x2"}, ec.FeatureNames())

	acc, err := ec.Score(X, y)
	require.NoError(t, err)
	assert.Greater(t, acc, 0.9)

	ec, err = NewEnsembleClassifier(WithNumModels(3), WithFeature("x2"), WithLabel("Label"))
	require.NoError(t, err)
	require.NoError(t, ec.FitFrame(context.Background(), frame))
	assert.Equal(t, []string{"x2"}, ec.FeatureNames())

	ec, err = NewEnsembleClassifier(WithLabel("target"))
	require.NoError(t, err)
	err = ec.FitFrame(context.Background(), frame)
	var validation *errors.ValidationError
	assert.True(t, errors.As(err, &validation))

	ec, err = NewEnsembleClassifier(WithFeature("x3"))
	require.NoError(t, err)
	assert.Error(t, ec.FitFrame(context.Background(), frame))
}

func TestEnsembleClassifierSaveLoad(t *testing.T) {
	combiners := map[string]OutputCombiner{
		"median":   NewClassifierMedian(),
		"weighted": NewClassifierWeightedAverage(),
		"stacking": NewClassifierStacking(),
	}
	for name, combiner := range combiners {
		t.Run(name, func(t *testing.T) {
			ec, X, _ := newFitted(t,
				WithOutputCombiner(combiner),
				WithSamplingType(NewBootstrapSelector(NewRandomFeatureSelector())),
			)

			var buf bytes.Buffer
			require.NoError(t, ec.Save(&buf))

			loaded, err := Load(&buf)
			require.NoError(t, err)
			assert.Equal(t, ec.ID(), loaded.ID())
			assert.True(t, loaded.IsFitted())
			assert.Equal(t, ec.Classes(), loaded.Classes())
			assert.Equal(t, ec.Models(), loaded.Models())
			assert.Equal(t, ec.Report(), loaded.Report())
			assert.Equal(t, combiner.Name(), loaded.combiner.Name())

			want, err := ec.PredictProba(X)
			require.NoError(t, err)
			got, err := loaded.PredictProba(X)
			require.NoError(t, err)
			assert.True(t, mat.EqualApprox(want, got, 1e-12))
		})
	}
}

func TestSaveLoadKeepsLargeSeed(t *testing.T) {
	const seed = int64(1)<<60 + 1
	X, y := makeBlobs(60, 4)
	ec, err := NewEnsembleClassifier(
		WithNumModels(2),
		WithParams(map[string]interface{}{"random_state": seed}),
	)
	require.NoError(t, err)
	require.NoError(t, ec.Fit(X, y))

	var buf bytes.Buffer
	require.NoError(t, ec.Save(&buf))
	loaded, err := Load(&buf)
	require.NoError(t, err)

	got, ok := loaded.seed()
	require.True(t, ok)
	assert.Equal(t, seed, got)
}

func TestLoadRejectsGarbage(t *testing.T) {
	_, err := Load(bytes.NewBufferString("not a model"))
	assert.Error(t, err)
}

func TestMetricsReportOutputs(t *testing.T) {
	ec, _, _ := newFitted(t, WithSubModelSelector(NewClassifierBestPerformanceSelector()))
	report := ec.Report()

	table := report.Table()
	assert.Contains(t, table, "Sub-model metrics on validation rows")
	assert.Contains(t, table, "yes")
	assert.Contains(t, table, "no")

	path := filepath.Join(t.TempDir(), "scores.png")
	require.NoError(t, report.PlotScores(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	empty := &MetricsReport{Source: log.PhaseTraining}
	assert.Error(t, empty.PlotScores(path))
}

func TestEnsembleClassifierShowMetricsLogs(t *testing.T) {
	provider, _ := log.NewTestLoggerProvider(log.LevelDebug)
	log.SetProvider(provider)
	defer log.ResetProvider()

	ec, _, _ := newFitted(t, WithShowMetrics(true))

	logger := provider.Logger()
	assert.True(t, logger.ContainsMessage("Fitting ensemble"))
	assert.True(t, logger.ContainsMessage("Sub-model metrics"))
	assert.True(t, logger.ContainsMessage("Ensemble fitted"))
	assert.True(t, logger.ContainsMessage("Base learner trained"))
	assert.True(t, logger.ContainsField(log.EstimatorIDKey, ec.ID()))
}
