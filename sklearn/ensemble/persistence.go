package ensemble

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/scigo-ensemble/core/model"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
	"github.com/YuminosukeSato/scigo-ensemble/preprocessing"
	"github.com/YuminosukeSato/scigo-ensemble/sklearn/linear_model"
)

const snapshotVersion = "1"

// snapshot is the gob form of a fitted ensemble. Parameters and the combiner
// are kept as JSON component maps since gob cannot carry the component
// interfaces.
type snapshot struct {
	Version       string
	ID            string
	Params        []byte
	Classes       []int
	FeatureNames  []string
	Scaler        *preprocessing.MinMaxScaler
	Models        []subModelSnapshot
	Combiner      []byte
	CombinerState *combinerState
	Report        *MetricsReport
	State         model.ModelState
}

type subModelSnapshot struct {
	Batch    int
	Rows     int
	Features []int
	Weights  *model.ModelWeights
}

// Save writes the fitted ensemble to w. Only the registered components can be
// restored by Load.
func (ec *EnsembleClassifier) Save(w io.Writer) error {
	if err := ec.state.RequireFitted(ensembleModelType, "Save"); err != nil {
		return err
	}
	params, err := json.Marshal(ec.engineParams(true))
	if err != nil {
		return errors.Wrap(err, "encode parameters")
	}
	combiner, err := json.Marshal(ComponentSpec(ec.combiner))
	if err != nil {
		return errors.Wrap(err, "encode output combiner")
	}

	snap := snapshot{
		Version:      snapshotVersion,
		ID:           ec.id,
		Params:       params,
		Classes:      ec.classes,
		FeatureNames: ec.featureNames,
		Scaler:       ec.scaler,
		Models:       make([]subModelSnapshot, len(ec.models)),
		Combiner:     combiner,
		Report:       ec.report,
		State:        ec.state.GetState(),
	}
	for i, sm := range ec.models {
		weights, err := sm.learner.ExportWeights()
		if err != nil {
			return errors.Wrapf(err, "export sub-model %d", i)
		}
		snap.Models[i] = subModelSnapshot{Batch: sm.batch, Rows: sm.rows, Features: sm.features, Weights: weights}
	}
	if sc, ok := ec.combiner.(statefulCombiner); ok {
		if snap.CombinerState, err = sc.exportState(); err != nil {
			return err
		}
	}
	return model.SaveModelToWriter(&snap, w)
}

// Load reads an ensemble written by Save.
func Load(r io.Reader) (*EnsembleClassifier, error) {
	var snap snapshot
	if err := model.LoadModelFromReader(&snap, r); err != nil {
		return nil, err
	}
	if snap.Version != snapshotVersion {
		return nil, errors.NewValidationError("version", "unsupported snapshot version", snap.Version)
	}

	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	ec := newEnsembleClassifier(snap.ID)

	// numbers stay json.Number so int64 seeds survive the round trip
	var params map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(snap.Params))
	dec.UseNumber()
	if err := dec.Decode(&params); err != nil {
		return nil, errors.Wrap(err, "decode parameters")
	}
	if err := ec.SetParams(params); err != nil {
		return nil, err
	}

	var spec map[string]interface{}
	if err := json.Unmarshal(snap.Combiner, &spec); err != nil {
		return nil, errors.Wrap(err, "decode output combiner")
	}
	combiner, err := ParseOutputCombiner(spec)
	if err != nil {
		return nil, err
	}
	if sc, ok := combiner.(statefulCombiner); ok {
		if snap.CombinerState == nil {
			return nil, errors.NewValueError("ensemble.Load", "missing state for "+combiner.Name())
		}
		if err := sc.importState(snap.CombinerState); err != nil {
			return nil, err
		}
	}

	models := make([]*subModel, len(snap.Models))
	for i, sm := range snap.Models {
		lr := linear_model.NewLogisticRegression()
		if err := lr.ImportWeights(sm.Weights); err != nil {
			return nil, errors.Wrapf(err, "import sub-model %d", i)
		}
		models[i] = &subModel{batch: sm.Batch, rows: sm.Rows, features: sm.Features, learner: lr}
	}
	if len(models) == 0 {
		return nil, errors.NewValueError("ensemble.Load", "snapshot holds no sub-models")
	}

	ec.classes = snap.Classes
	ec.featureNames = snap.FeatureNames
	ec.scaler = snap.Scaler
	ec.models = models
	ec.combiner = combiner
	ec.report = snap.Report
	ec.state.SetState(snap.State)
	return ec, nil
}
