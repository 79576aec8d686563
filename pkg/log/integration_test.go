package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scigoErrors "github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

// TestLoggerInterface tests the TestLogger implementation of Logger
func TestLoggerInterface(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Info("info message", "operation", "test")
	testLogger.Warn("warning message", "warning_code", "TEST_WARNING")
	testLogger.Error("error message", fmt.Errorf("test error"), ErrorCodeKey, "TEST_ERROR")

	require.NotEmpty(t, buffer.String())

	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		assert.True(t, testLogger.ContainsMessage(msg), msg)
	}

	assert.True(t, testLogger.ContainsField("key1", "value1"))
	assert.True(t, testLogger.ContainsField("number", 42.0)) // JSON numbers decode as float64
	assert.True(t, testLogger.ContainsField("error", "test error"))
	assert.True(t, testLogger.ContainsField(ErrorCodeKey, "TEST_ERROR"))
}

// TestLoggerWith tests context-aware logging
func TestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	contextLogger := testLogger.With(
		ModelNameKey, "EnsembleClassifier",
		ComponentKey, "ensemble",
		EstimatorIDKey, "ens-001",
	)
	contextLogger.Info("contextual message", OperationKey, OperationFit, BatchKey, 0)

	assert.True(t, testLogger.ContainsField(ModelNameKey, "EnsembleClassifier"))
	assert.True(t, testLogger.ContainsField(ComponentKey, "ensemble"))
	assert.True(t, testLogger.ContainsField(EstimatorIDKey, "ens-001"))
	assert.True(t, testLogger.ContainsField(OperationKey, OperationFit))
	assert.True(t, testLogger.ContainsField(BatchKey, 0.0))
}

func TestLoggerEnabled(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelWarn)
	ctx := context.Background()

	assert.False(t, testLogger.Enabled(ctx, LevelDebug))
	assert.False(t, testLogger.Enabled(ctx, LevelInfo))
	assert.True(t, testLogger.Enabled(ctx, LevelWarn))
	assert.True(t, testLogger.Enabled(ctx, LevelError))

	testLogger.Info("dropped")
	assert.Empty(t, buffer.String())
}

func TestLoggerProviderIntegration(t *testing.T) {
	provider, _ := NewTestLoggerProvider(LevelInfo)
	SetProvider(provider)
	defer ResetProvider()

	GetLoggerWithName("ensemble").Info("from package function", NumModelsKey, 50)

	tl := provider.Logger()
	assert.True(t, tl.ContainsField(ComponentKey, "ensemble"))
	assert.True(t, tl.ContainsField(NumModelsKey, 50.0))

	provider.SetLevel(LevelError)
	GetLogger().Info("suppressed")
	assert.False(t, tl.ContainsMessage("suppressed"))
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProvider(&buf, LevelDebug)

	logger := p.GetLoggerWithName("ensemble").With(ModelNameKey, "EnsembleClassifier")
	logger.Info("Training started", SamplesKey, 120, DurationMsKey, time.Duration(0).Milliseconds())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Training started", entry["message"])
	assert.Equal(t, "ensemble", entry[ComponentKey])
	assert.Equal(t, "EnsembleClassifier", entry[ModelNameKey])
	assert.Equal(t, 120.0, entry[SamplesKey])
}

func TestZerologLoggerErrorStack(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProvider(&buf, LevelDebug)

	err := scigoErrors.NewNotFittedError("EnsembleClassifier", "Predict")
	p.GetLogger().Error("prediction failed", err, ErrorCodeKey, ErrorNotFitted)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Contains(t, entry["error"], "not fitted")
	assert.Equal(t, ErrorNotFitted, entry[ErrorCodeKey])
	assert.Contains(t, entry, "stack")
}

func TestZerologLevels(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProvider(&buf, LevelWarn)
	logger := p.GetLogger()

	logger.Debug("debug")
	logger.Info("info")
	assert.Empty(t, buf.String())

	logger.Warn("warn")
	assert.Contains(t, buf.String(), `"warn"`)
	assert.False(t, logger.Enabled(context.Background(), LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), LevelError))
}

func TestWarningRouting(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProvider(&buf, LevelInfo)
	scigoErrors.SetZerologWarnFunc(p.warn)
	defer scigoErrors.SetZerologWarnFunc(defaultZP.warn)

	scigoErrors.Warn(scigoErrors.NewDataConversionWarning("raw", "raw", "normalize=Warn"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	payload, ok := entry[WarningKey].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "DataConversionWarning", payload["type"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConcurrentLogging(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)

	const workers = 8
	const perWorker = 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			l := testLogger.With(WorkerIDKey, id)
			for i := 0; i < perWorker; i++ {
				l.Info("sub-model trained", ModelIndexKey, i)
			}
		}(w)
	}
	wg.Wait()

	entries, err := testLogger.GetLogEntries()
	require.NoError(t, err)
	assert.Len(t, entries, workers*perWorker)
	assert.Equal(t, workers*perWorker, strings.Count(testLogger.String(), "sub-model trained"))
}

func BenchmarkLogging(b *testing.B) {
	var buf bytes.Buffer
	logger := NewZerologProvider(&buf, LevelInfo).GetLogger()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message",
			OperationKey, OperationPredict,
			SamplesKey, 1000,
		)
	}
}

func TestSetupLoggerRestoresWarningRouting(t *testing.T) {
	var buf bytes.Buffer
	scigoErrors.SetZerologWarnFunc(nil)
	require.NoError(t, SetupLogger("info", &buf, false))
	defer func() {
		_ = SetupLogger("info", os.Stderr, false)
	}()

	scigoErrors.Warn(scigoErrors.NewConvergenceWarning("LogisticRegression", 10, ""))
	assert.Contains(t, buf.String(), "ConvergenceWarning")
}
