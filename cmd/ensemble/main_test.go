package main

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/scigo-ensemble/internal/dataset"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/log"
)

func writeBlobsCSV(t *testing.T, path string, n int, seed int64) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	var b strings.Builder
	b.WriteString("x1,x2,Label\n")
	for i := 0; i < n; i++ {
		c := i % 2
		fmt.Fprintf(&b, "%g,%g,%d\n",
			float64(8*c)+rng.NormFloat64(), float64(-8*c)+rng.NormFloat64(), c)
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	defer func() {
		_ = log.SetupLogger("info", os.Stderr, false)
	}()

	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"ensemble", "--log-level", "error"}, args...))
	return stdout.String(), err
}

func TestTrainAndPredict(t *testing.T) {
	dir := t.TempDir()
	train := filepath.Join(dir, "train.csv")
	test := filepath.Join(dir, "test.csv")
	model := filepath.Join(dir, "model.gob")
	plot := filepath.Join(dir, "scores.png")
	output := filepath.Join(dir, "scores.csv")
	writeBlobsCSV(t, train, 60, 1)
	writeBlobsCSV(t, test, 20, 2)

	out, err := runApp(t, "train",
		"--data", train,
		"--model", model,
		"--num-models", "4",
		"--selector", "ClassifierBestPerformanceSelector",
		"--seed", "3",
		"--show-metrics",
		"--plot", plot,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "trained 4 sub-models on 2 features, kept 2")
	assert.FileExists(t, model)
	assert.FileExists(t, plot)

	_, err = runApp(t, "predict", "--data", test, "--model", model, "--output", output)
	require.NoError(t, err)

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	frame, err := dataset.ReadCSV(f)
	require.NoError(t, err)
	assert.Equal(t, []string{"PredictedLabel", "Score.0", "Score.1"}, frame.Columns)
	rows, _ := frame.Dims()
	assert.Equal(t, 20, rows)
	for i := 0; i < rows; i++ {
		assert.InDelta(t, 1.0, frame.Data.At(i, 1)+frame.Data.At(i, 2), 1e-9)
	}

	stdout, err := runApp(t, "predict", "--data", test, "--model", model)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "PredictedLabel,Score.0,Score.1\n"))
}

func TestTrainWithParamsFile(t *testing.T) {
	dir := t.TempDir()
	train := filepath.Join(dir, "train.csv")
	params := filepath.Join(dir, "params.json")
	model := filepath.Join(dir, "model.gob")
	writeBlobsCSV(t, train, 40, 1)
	require.NoError(t, os.WriteFile(params, []byte(`{
		"num_models": 3,
		"sampling_type": {"name": "RandomPartitionSelector"},
		"output_combiner": "ClassifierVoting",
		"random_state": 5
	}`), 0o600))

	out, err := runApp(t, "train", "--data", train, "--model", model, "--params", params, "--num-models", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "trained 2 sub-models")
}

func TestTrainErrors(t *testing.T) {
	dir := t.TempDir()
	train := filepath.Join(dir, "train.csv")
	writeBlobsCSV(t, train, 20, 1)
	model := filepath.Join(dir, "model.gob")

	_, err := runApp(t, "train", "--data", filepath.Join(dir, "missing.csv"), "--model", model)
	assert.Error(t, err)

	_, err = runApp(t, "train", "--data", train, "--model", model, "--combiner", "ClassifierMode")
	assert.Error(t, err)

	_, err = runApp(t, "train", "--data", train, "--model", model, "--label", "target")
	assert.Error(t, err)

	_, err = runApp(t, "--log-level", "loud", "train", "--data", train, "--model", model)
	assert.Error(t, err)
}
