package errors

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Fit",
			kind:    "invalid input",
			err:     fmt.Errorf("test error"),
			wantMsg: "scigo: Fit: invalid input: test error",
		},
		{
			name:    "without original error",
			op:      "Predict",
			kind:    "not fitted",
			err:     nil,
			wantMsg: "scigo: Predict: not fitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			assert.Equal(t, tt.wantMsg, err.Error())

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			assert.Contains(t, formatted, "errors_test.go")

			var modelErr *ModelError
			assert.True(t, As(err, &modelErr))
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 10, 7, 1)

	assert.Equal(t, "scigo: Predict: dimension mismatch on axis 1 (features). Expected 10, got 7", err.Error())

	var dimErr *DimensionError
	require.True(t, As(err, &dimErr))
	assert.Equal(t, 10, dimErr.Expected)
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("EnsembleClassifier", "PredictProba")

	want := "scigo: EnsembleClassifier: this model is not fitted yet. Call Fit() before using PredictProba()"
	assert.Equal(t, want, err.Error())

	var notFittedErr *NotFittedError
	assert.True(t, As(err, &notFittedErr))
}

func TestNewRenamedParameterError(t *testing.T) {
	err := NewRenamedParameterError("feature_column_name", "feature")

	assert.Equal(t, "'feature_column_name' must be renamed to 'feature'", err.Error())

	var renamed *RenamedParameterError
	require.True(t, As(err, &renamed))
	assert.Equal(t, "feature", renamed.NewName)
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("normalize", "must be one of Auto, No, Yes, Warn", "Sometimes")

	assert.Equal(t,
		"scigo: validation failed for parameter 'normalize': must be one of Auto, No, Yes, Warn (got: Sometimes)",
		err.Error())

	var valErr *ValidationError
	assert.True(t, As(err, &valErr))
}

func TestNewConvergenceWarning(t *testing.T) {
	warn := NewConvergenceWarning("LogisticRegression", 100, "gradient norm above tolerance")

	want := "LogisticRegression failed to converge after 100 iterations: gradient norm above tolerance"
	assert.Equal(t, want, warn.Error())
}

func TestWarnRouting(t *testing.T) {
	var got []error
	SetZerologWarnFunc(func(w error) { got = append(got, w) })
	defer SetZerologWarnFunc(nil)

	Warn(NewDataConversionWarning("raw", "normalized", "normalize=Warn"))

	require.Len(t, got, 1)
	assert.Contains(t, got[0].Error(), "normalize=Warn")
}

func TestWarnFallsBackToHandler(t *testing.T) {
	var got []error
	SetZerologWarnFunc(nil)
	SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(nil)

	Warn(NewUndefinedMetricWarning("LogLossReduction", "a single class", 0))

	require.Len(t, got, 1)
	assert.Contains(t, got[0].Error(), "LogLossReduction")
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrap(ErrSingleClass, "in EnsembleClassifier.Fit")

	assert.True(t, Is(wrapped, ErrSingleClass))
	assert.True(t, strings.Contains(wrapped.Error(), "in EnsembleClassifier.Fit"))
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d, got %d", "Predict", 10, 5)

	assert.True(t, Is(wrapped, ErrEmptyData))
	assert.Contains(t, wrapped.Error(), "in Predict: expected 10, got 5")
}

func TestCheckMatrix(t *testing.T) {
	data := [][]float64{{1, 2}, {math.NaN(), 3}}
	m := matrixFunc(func(i, j int) float64 { return data[i][j] })

	err := CheckMatrix("fit_input", m, 2, 2, 0)
	require.Error(t, err)

	var numErr *NumericalInstabilityError
	require.True(t, As(err, &numErr))
	assert.Equal(t, "fit_input", numErr.Operation)
	assert.Len(t, numErr.Values, 1)

	clean := matrixFunc(func(i, j int) float64 { return 1 })
	assert.NoError(t, CheckMatrix("fit_input", clean, 3, 3, 0))
}

func TestSoftmax(t *testing.T) {
	scores := []float64{1000, 1000, 1000}
	Softmax(scores)
	for _, s := range scores {
		assert.InDelta(t, 1.0/3.0, s, 1e-12)
	}

	scores = []float64{0, math.Log(3)}
	Softmax(scores)
	assert.InDelta(t, 0.25, scores[0], 1e-12)
	assert.InDelta(t, 0.75, scores[1], 1e-12)
}

type matrixFunc func(i, j int) float64

func (f matrixFunc) At(i, j int) float64 { return f(i, j) }
