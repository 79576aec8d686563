package ensemble

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/metrics"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

// Metric names accepted by ClassifierBestPerformanceSelector.
const (
	MetricAccuracyMicro    = "AccuracyMicro"
	MetricAccuracyMacro    = "AccuracyMacro"
	MetricLogLoss          = "LogLoss"
	MetricLogLossReduction = "LogLossReduction"
)

// ModelMetrics holds the scores of one base learner on the evaluation rows.
type ModelMetrics struct {
	AccuracyMicro    float64 `json:"accuracy_micro"`
	AccuracyMacro    float64 `json:"accuracy_macro"`
	LogLoss          float64 `json:"log_loss"`
	LogLossReduction float64 `json:"log_loss_reduction"`
}

// Get returns the metric with the given name.
func (m ModelMetrics) Get(name string) (float64, error) {
	switch name {
	case MetricAccuracyMicro:
		return m.AccuracyMicro, nil
	case MetricAccuracyMacro:
		return m.AccuracyMacro, nil
	case MetricLogLoss:
		return m.LogLoss, nil
	case MetricLogLossReduction:
		return m.LogLossReduction, nil
	}
	return 0, errors.NewValidationError("metric_name", "unknown metric", name)
}

// lowerIsBetter reports whether smaller values of the metric are better.
func lowerIsBetter(name string) bool {
	return name == MetricLogLoss
}

// Evaluation holds the base learners' outputs on the evaluation rows: the
// held-out validation rows when present, the training rows otherwise.
type Evaluation struct {
	// Scores are row-normalized class probabilities, one n×k matrix per model.
	Scores []*mat.Dense
	// Metrics are aligned with Scores.
	Metrics []ModelMetrics
	// Labels are the class indices of the evaluation rows.
	Labels []int
	// NClasses is the number of classes k.
	NClasses int
	// Seed seeds any learner trained on the evaluation (stacking).
	Seed int64
}

// subset returns the evaluation restricted to the given models.
func (e *Evaluation) subset(keep []int) *Evaluation {
	out := &Evaluation{Labels: e.Labels, NClasses: e.NClasses, Seed: e.Seed}
	for _, i := range keep {
		out.Scores = append(out.Scores, e.Scores[i])
		out.Metrics = append(out.Metrics, e.Metrics[i])
	}
	return out
}

// evaluate scores one model's probabilities against the class indices.
// withReduction is false when the labels hold a single class and the prior
// log-loss is undefined.
func evaluate(proba *mat.Dense, labels []int, withReduction bool) (ModelMetrics, error) {
	var m ModelMetrics
	yTrue := metrics.IndexVector(labels)
	yPred := metrics.IndexVector(metrics.ArgMaxRows(proba))

	var err error
	if m.AccuracyMicro, err = metrics.Accuracy(yTrue, yPred); err != nil {
		return m, err
	}
	if m.AccuracyMacro, err = metrics.AccuracyMacro(yTrue, yPred); err != nil {
		return m, err
	}
	if m.LogLoss, err = metrics.MultiClassLogLoss(labels, proba); err != nil {
		return m, err
	}
	if withReduction {
		if m.LogLossReduction, err = metrics.LogLossReduction(labels, proba); err != nil {
			return m, err
		}
	}
	return m, nil
}

func distinctCount(labels []int) int {
	seen := make(map[int]struct{})
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	return len(seen)
}
