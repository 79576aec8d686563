package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/internal/dataset"
	"github.com/YuminosukeSato/scigo-ensemble/metrics"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/log"
	"github.com/YuminosukeSato/scigo-ensemble/sklearn/ensemble"
)

// predictedLabelColumn is the first output column of predict.
const predictedLabelColumn = "PredictedLabel"

func trainAction(c *cli.Context) error {
	logger := log.GetLoggerWithName("cli").With(log.OperationKey, log.OperationFit)

	frame, err := readFrame(c.String(flagData))
	if err != nil {
		return err
	}
	params, err := trainParams(c)
	if err != nil {
		return err
	}
	clf, err := ensemble.NewEnsembleClassifierFromParams(params)
	if err != nil {
		return err
	}
	if err := clf.FitFrame(c.Context, frame); err != nil {
		return err
	}

	out, err := os.Create(c.String(flagModel))
	if err != nil {
		return errors.Wrap(err, "create model file")
	}
	defer out.Close()
	if err := clf.Save(out); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return errors.Wrap(err, "close model file")
	}

	if path := c.String(flagPlot); path != "" {
		if err := clf.Report().PlotScores(path); err != nil {
			return err
		}
	}

	logger.Info("Model saved", "path", c.String(flagModel), log.KeptModelsKey, clf.Models())
	fmt.Fprintf(c.App.Writer, "trained %d sub-models on %d features, kept %d\n",
		len(clf.Report().Models), len(clf.FeatureNames()), clf.Models())
	return nil
}

// trainParams reads the optional JSON parameter file and applies the flags
// that were set on top of it.
func trainParams(c *cli.Context) (map[string]interface{}, error) {
	params := map[string]interface{}{}
	if path := c.String(flagParams); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read parameter file")
		}
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, errors.NewValidationError(flagParams, err.Error(), path)
		}
	}

	set := func(flag, key string, value interface{}) {
		if c.IsSet(flag) {
			params[key] = value
		}
	}
	set(flagNumModels, "num_models", c.Int(flagNumModels))
	set(flagSampling, "sampling_type", c.String(flagSampling))
	set(flagSelector, "sub_model_selector_type", c.String(flagSelector))
	set(flagCombiner, "output_combiner", c.String(flagCombiner))
	set(flagNormalize, "normalize", c.String(flagNormalize))
	set(flagBatchSize, "batch_size", c.Int(flagBatchSize))
	set(flagParallel, "train_parallel", c.Bool(flagParallel))
	set(flagSeed, "random_state", c.Int64(flagSeed))
	set(flagFeature, "feature", c.StringSlice(flagFeature))
	set(flagLabel, "label", c.String(flagLabel))
	set(flagShowMetrics, "show_metrics", c.Bool(flagShowMetrics))
	return params, nil
}

func predictAction(c *cli.Context) error {
	logger := log.GetLoggerWithName("cli").With(log.OperationKey, log.OperationPredict)

	in, err := os.Open(c.String(flagModel))
	if err != nil {
		return errors.Wrap(err, "open model file")
	}
	defer in.Close()
	clf, err := ensemble.Load(in)
	if err != nil {
		return err
	}

	frame, err := readFrame(c.String(flagData))
	if err != nil {
		return err
	}
	names := clf.FeatureNames()
	if len(names) == 0 {
		names = frame.Except(ensemble.DefaultLabelColumn)
	}
	X, err := frame.Select(names...)
	if err != nil {
		return err
	}

	proba, err := clf.PredictProbaContext(c.Context, X)
	if err != nil {
		return err
	}
	result, err := predictionFrame(clf.Classes(), proba)
	if err != nil {
		return err
	}

	w := c.App.Writer
	if path := c.String(flagOutput); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(err, "create output file")
		}
		defer f.Close()
		w = f
	}
	if err := dataset.WriteCSV(w, result); err != nil {
		return err
	}

	rows, _ := X.Dims()
	fields := []any{log.PredsKey, rows}
	if frame.Index(ensemble.DefaultLabelColumn) >= 0 {
		y, err := frame.Select(ensemble.DefaultLabelColumn)
		if err != nil {
			return err
		}
		if acc, err := clf.Score(X, y); err == nil {
			fields = append(fields, log.AccuracyKey, acc)
		}
	}
	logger.Info("Predictions written", fields...)
	return nil
}

func readFrame(path string) (*dataset.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open data file")
	}
	defer f.Close()
	return dataset.ReadCSV(f)
}

// predictionFrame lays out the predicted label followed by one probability
// column per class.
func predictionFrame(classes []int, proba mat.Matrix) (*dataset.Frame, error) {
	n, k := proba.Dims()
	columns := make([]string, 0, k+1)
	columns = append(columns, predictedLabelColumn)
	for _, c := range classes {
		columns = append(columns, "Score."+strconv.Itoa(c))
	}

	data := mat.NewDense(n, k+1, nil)
	for i, best := range metrics.ArgMaxRows(proba) {
		data.Set(i, 0, float64(classes[best]))
		for j := 0; j < k; j++ {
			data.Set(i, j+1, proba.At(i, j))
		}
	}
	return dataset.NewFrame(columns, data)
}
