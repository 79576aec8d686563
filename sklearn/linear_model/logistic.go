package linear_model

import (
	"math"
	"math/rand"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/core/model"
	"github.com/YuminosukeSato/scigo-ensemble/metrics"
	scigoErrors "github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/log"
)

const logisticModelType = "LogisticRegression"

// LogisticRegression implements logistic regression for classification
// Compatible with scikit-learn's LogisticRegression
type LogisticRegression struct {
	state  *model.StateManager // State management (composition)
	logger log.Logger

	// Hyperparameters
	penalty      string  // Regularization: "l2", "none"
	C            float64 // Inverse regularization strength (1/alpha)
	fitIntercept bool    // Whether to fit intercept
	randomState  int64   // Random seed, negative means nondeterministic
	maxIter      int     // Maximum iterations
	multiClass   string  // Multi-class: "auto", "ovr", "multinomial"
	tol          float64 // Tolerance for stopping
	learningRate float64 // Initial gradient step, decayed as lr/(1+0.1*iter)

	// fixedClasses, when set, replaces label discovery in Fit. Labels absent
	// from the training rows still get a score column.
	fixedClasses []int

	// Model parameters
	coef_      [][]float64 // Coefficients (n_classes x n_features or 1 x n_features for binary)
	intercept_ []float64   // Intercept terms
	classes_   []int       // Class labels, ascending
	nClasses_  int         // Number of classes
	nFeatures_ int         // Number of features
	nIter_     []int       // Actual iterations per coefficient row

	// Internal state
	rand *rand.Rand
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		penalty:      "l2",
		C:            1.0,
		fitIntercept: true,
		randomState:  -1,
		maxIter:      100,
		multiClass:   "auto",
		tol:          1e-4,
		learningRate: 1.0,
	}

	for _, opt := range opts {
		opt(lr)
	}

	lr.resetRand()
	lr.logger = log.GetLoggerWithName("linear_model").With(log.ModelNameKey, logisticModelType)
	return lr
}

func (lr *LogisticRegression) resetRand() {
	if lr.randomState >= 0 {
		lr.rand = rand.New(rand.NewSource(lr.randomState))
	} else {
		lr.rand = rand.New(rand.NewSource(rand.Int63()))
	}
}

// Option functions

// WithLRPenalty sets the regularization type
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the tolerance for stopping criteria
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLRMultiClass sets the multi-class strategy
func WithLRMultiClass(strategy string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.multiClass = strategy
	}
}

// WithLRLearningRate sets the initial gradient step
func WithLRLearningRate(rate float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.learningRate = rate
	}
}

// WithLRRandomState sets the random seed
func WithLRRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.randomState = seed
	}
}

// WithLRClasses fixes the class list instead of discovering it from y.
// Every label in y must belong to the list.
func WithLRClasses(classes []int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fixedClasses = append([]int(nil), classes...)
		sort.Ints(lr.fixedClasses)
	}
}

func (lr *LogisticRegression) validate() error {
	switch lr.penalty {
	case "l2", "none":
	default:
		return scigoErrors.NewValidationError("penalty", "must be 'l2' or 'none'", lr.penalty)
	}
	switch lr.multiClass {
	case "auto", "ovr", "multinomial":
	default:
		return scigoErrors.NewValidationError("multi_class", "must be 'auto', 'ovr' or 'multinomial'", lr.multiClass)
	}
	if lr.C <= 0 {
		return scigoErrors.NewValidationError("C", "must be positive", lr.C)
	}
	if lr.maxIter <= 0 {
		return scigoErrors.NewValidationError("max_iter", "must be positive", lr.maxIter)
	}
	if lr.tol < 0 {
		return scigoErrors.NewValidationError("tol", "must be non-negative", lr.tol)
	}
	if lr.learningRate <= 0 {
		return scigoErrors.NewValidationError("learning_rate", "must be positive", lr.learningRate)
	}
	return nil
}

// Fit trains the logistic regression model
func (lr *LogisticRegression) Fit(X, y mat.Matrix) (err error) {
	defer scigoErrors.Recover(&err, "LogisticRegression.Fit")

	if err := lr.validate(); err != nil {
		return err
	}

	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return scigoErrors.NewModelError("LogisticRegression.Fit", "empty data", scigoErrors.ErrEmptyData)
	}
	if nSamples != yRows {
		return scigoErrors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return scigoErrors.NewDimensionError("LogisticRegression.Fit", 1, yCols, 1)
	}

	yIdx, err := lr.extractClasses(y)
	if err != nil {
		return err
	}
	lr.nFeatures_ = nFeatures
	lr.resetRand()
	lr.initializeWeights(nFeatures)

	Xd := mat.DenseCopyOf(X)
	var converged bool
	switch {
	case lr.nClasses_ == 2:
		target := make([]float64, nSamples)
		for i, c := range yIdx {
			if c == 1 {
				target[i] = 1
			}
		}
		converged = lr.fitBinaryRow(Xd, target, 0)
	case lr.multiClass == "ovr":
		converged = lr.fitOVR(Xd, yIdx)
	default:
		converged = lr.fitMultinomial(Xd, yIdx)
	}

	if !converged {
		lr.logger.Debug("Solver stopped before reaching tolerance",
			log.IterationKey, lr.maxIter,
			log.SamplesKey, nSamples,
		)
		scigoErrors.Warn(scigoErrors.NewConvergenceWarning(logisticModelType, lr.maxIter,
			"gradient stayed above tol; increase max_iter or C"))
	}

	lr.state.SetDimensions(nFeatures, nSamples)
	lr.state.SetClasses(lr.nClasses_)
	lr.state.SetFitted()
	return nil
}

// extractClasses fixes the class list and maps every label to its column index.
func (lr *LogisticRegression) extractClasses(y mat.Matrix) ([]int, error) {
	rows, _ := y.Dims()

	if len(lr.fixedClasses) > 0 {
		lr.classes_ = append([]int(nil), lr.fixedClasses...)
	} else {
		seen := make(map[int]bool)
		for i := 0; i < rows; i++ {
			seen[int(y.At(i, 0))] = true
		}
		lr.classes_ = make([]int, 0, len(seen))
		for class := range seen {
			lr.classes_ = append(lr.classes_, class)
		}
		sort.Ints(lr.classes_)
	}

	lr.nClasses_ = len(lr.classes_)
	if lr.nClasses_ < 2 {
		return nil, scigoErrors.NewModelError("LogisticRegression.Fit", "need at least two classes", scigoErrors.ErrSingleClass)
	}

	index := make(map[int]int, lr.nClasses_)
	for i, c := range lr.classes_ {
		index[c] = i
	}
	yIdx := make([]int, rows)
	for i := 0; i < rows; i++ {
		idx, ok := index[int(y.At(i, 0))]
		if !ok {
			return nil, scigoErrors.NewValueError("LogisticRegression.Fit", "label is not one of the configured classes")
		}
		yIdx[i] = idx
	}
	return yIdx, nil
}

// initializeWeights initializes model weights
func (lr *LogisticRegression) initializeWeights(nFeatures int) {
	rows := lr.nClasses_
	if rows == 2 {
		rows = 1
	}
	lr.coef_ = make([][]float64, rows)
	for i := range lr.coef_ {
		lr.coef_[i] = make([]float64, nFeatures)
		for j := range lr.coef_[i] {
			lr.coef_[i][j] = lr.rand.NormFloat64() * 0.01
		}
	}
	lr.intercept_ = make([]float64, rows)
	lr.nIter_ = make([]int, rows)
}

func (lr *LogisticRegression) lambda() float64 {
	if lr.penalty == "l2" {
		return 1.0 / lr.C
	}
	return 0
}

func (lr *LogisticRegression) step(iter int) float64 {
	return lr.learningRate / (1.0 + 0.1*float64(iter))
}

// fitBinaryRow fits coefficient row `row` against 0/1 targets by gradient descent.
// It reports whether the gradient fell below tol.
func (lr *LogisticRegression) fitBinaryRow(X *mat.Dense, target []float64, row int) bool {
	n, d := X.Dims()
	w := mat.NewVecDense(d, lr.coef_[row])
	z := mat.NewVecDense(n, nil)
	resid := mat.NewVecDense(n, nil)
	grad := mat.NewVecDense(d, nil)
	lambda := lr.lambda()

	for iter := 0; iter < lr.maxIter; iter++ {
		z.MulVec(X, w)

		gradIntercept := 0.0
		for i := 0; i < n; i++ {
			r := sigmoid(z.AtVec(i)+lr.intercept_[row]) - target[i]
			resid.SetVec(i, r)
			gradIntercept += r
		}
		grad.MulVec(X.T(), resid)
		grad.ScaleVec(1/float64(n), grad)
		gradIntercept /= float64(n)

		maxGrad := 0.0
		for j := 0; j < d; j++ {
			maxGrad = math.Max(maxGrad, math.Abs(grad.AtVec(j)+lambda*w.AtVec(j)))
		}
		if lr.fitIntercept {
			maxGrad = math.Max(maxGrad, math.Abs(gradIntercept))
		}

		// proximal step for the L2 term keeps large lambda stable
		step := lr.step(iter)
		w.AddScaledVec(w, -step, grad)
		w.ScaleVec(1/(1+step*lambda), w)
		if lr.fitIntercept {
			lr.intercept_[row] -= step * gradIntercept
		}
		lr.nIter_[row] = iter + 1

		if maxGrad < lr.tol {
			return true
		}
	}
	return false
}

// fitOVR fits one-vs-rest multiclass classification
func (lr *LogisticRegression) fitOVR(X *mat.Dense, yIdx []int) bool {
	converged := true
	target := make([]float64, len(yIdx))
	for classIdx := range lr.classes_ {
		for i, c := range yIdx {
			if c == classIdx {
				target[i] = 1
			} else {
				target[i] = 0
			}
		}
		if !lr.fitBinaryRow(X, target, classIdx) {
			converged = false
		}
	}
	return converged
}

// fitMultinomial fits softmax regression by full-batch gradient descent
func (lr *LogisticRegression) fitMultinomial(X *mat.Dense, yIdx []int) bool {
	n, d := X.Dims()
	k := lr.nClasses_
	lambda := lr.lambda()

	W := mat.NewDense(k, d, nil)
	for c, row := range lr.coef_ {
		W.SetRow(c, row)
	}
	P := mat.NewDense(n, k, nil)
	G := mat.NewDense(k, d, nil)
	var tmp mat.Dense
	gb := make([]float64, k)

	converged := false
	for iter := 0; iter < lr.maxIter; iter++ {
		P.Mul(X, W.T())
		for c := range gb {
			gb[c] = 0
		}
		for i := 0; i < n; i++ {
			row := P.RawRowView(i)
			for c := range row {
				row[c] += lr.intercept_[c]
			}
			scigoErrors.Softmax(row)
			row[yIdx[i]] -= 1
			for c := range row {
				gb[c] += row[c]
			}
		}

		G.Mul(P.T(), X)
		G.Scale(1/float64(n), G)

		maxGrad := 0.0
		for c := 0; c < k; c++ {
			for j := 0; j < d; j++ {
				maxGrad = math.Max(maxGrad, math.Abs(G.At(c, j)+lambda*W.At(c, j)))
			}
		}

		step := lr.step(iter)
		tmp.Scale(step, G)
		W.Sub(W, &tmp)
		W.Scale(1/(1+step*lambda), W)

		for c := range gb {
			gb[c] /= float64(n)
			if lr.fitIntercept {
				lr.intercept_[c] -= step * gb[c]
				maxGrad = math.Max(maxGrad, math.Abs(gb[c]))
			}
			lr.nIter_[c] = iter + 1
		}
		if maxGrad < lr.tol {
			converged = true
			break
		}
	}

	for c := range lr.coef_ {
		mat.Row(lr.coef_[c], c, W)
	}
	return converged
}

// checkPredict validates the fitted state and the feature count of X.
func (lr *LogisticRegression) checkPredict(X mat.Matrix, method string) error {
	if err := lr.state.RequireFitted(logisticModelType, method); err != nil {
		return err
	}
	_, c := X.Dims()
	return lr.state.RequireFeatures("LogisticRegression."+method, c)
}

// margins computes X·coefᵀ + intercept, one column per coefficient row.
func (lr *LogisticRegression) margins(X mat.Matrix) *mat.Dense {
	n, _ := X.Dims()
	rows := len(lr.coef_)
	W := mat.NewDense(rows, lr.nFeatures_, nil)
	for k, row := range lr.coef_ {
		W.SetRow(k, row)
	}
	Z := mat.NewDense(n, rows, nil)
	Z.Mul(X, W.T())
	Z.Apply(func(_, k int, v float64) float64 {
		return v + lr.intercept_[k]
	}, Z)
	return Z
}

// DecisionFunction returns the raw margins: n×1 for binary problems
// (positive favours Classes()[1]) and n×k otherwise.
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.checkPredict(X, "DecisionFunction"); err != nil {
		return nil, err
	}
	return lr.margins(X), nil
}

// Predict makes predictions for input data
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}

	idx := metrics.ArgMaxRows(proba)
	predictions := mat.NewDense(len(idx), 1, nil)
	for i, c := range idx {
		predictions.Set(i, 0, float64(lr.classes_[c]))
	}
	return predictions, nil
}

// PredictProba returns probability estimates for each class
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.checkPredict(X, "PredictProba"); err != nil {
		return nil, err
	}

	Z := lr.margins(X)
	nSamples, _ := X.Dims()
	probas := mat.NewDense(nSamples, lr.nClasses_, nil)

	switch {
	case lr.nClasses_ == 2:
		for i := 0; i < nSamples; i++ {
			p1 := sigmoid(Z.At(i, 0))
			probas.Set(i, 0, 1.0-p1)
			probas.Set(i, 1, p1)
		}
	case lr.multiClass == "ovr":
		for i := 0; i < nSamples; i++ {
			row := probas.RawRowView(i)
			sum := 0.0
			for c := range row {
				row[c] = sigmoid(Z.At(i, c))
				sum += row[c]
			}
			for c := range row {
				row[c] = scigoErrors.SafeDivide(row[c], sum)
			}
		}
	default:
		for i := 0; i < nSamples; i++ {
			row := probas.RawRowView(i)
			mat.Row(row, i, Z)
			scigoErrors.Softmax(row)
		}
	}

	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}

	nSamples, _ := X.Dims()
	if yRows, _ := y.Dims(); yRows != nSamples {
		return 0, scigoErrors.NewDimensionError("LogisticRegression.Score", nSamples, yRows, 0)
	}
	yTrue := mat.NewVecDense(nSamples, nil)
	yPred := mat.NewVecDense(nSamples, nil)
	for i := 0; i < nSamples; i++ {
		yTrue.SetVec(i, y.At(i, 0))
		yPred.SetVec(i, predictions.At(i, 0))
	}
	return metrics.Accuracy(yTrue, yPred)
}

// Classes returns the class labels in ascending order
func (lr *LogisticRegression) Classes() []int {
	return append([]int(nil), lr.classes_...)
}

// NIter returns the number of iterations run per coefficient row
func (lr *LogisticRegression) NIter() []int {
	return append([]int(nil), lr.nIter_...)
}

// IsFitted reports whether Fit or ImportWeights has completed
func (lr *LogisticRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.C,
		"fit_intercept": lr.fitIntercept,
		"random_state":  lr.randomState,
		"max_iter":      lr.maxIter,
		"multi_class":   lr.multiClass,
		"tol":           lr.tol,
		"learning_rate": lr.learningRate,
	}
}

// logisticParams mirrors GetParams for decoding. Nil fields are left unchanged.
type logisticParams struct {
	Penalty      *string  `json:"penalty"`
	C            *float64 `json:"C"`
	FitIntercept *bool    `json:"fit_intercept"`
	RandomState  *int64   `json:"random_state"`
	MaxIter      *int     `json:"max_iter"`
	MultiClass   *string  `json:"multi_class"`
	Tol          *float64 `json:"tol"`
	LearningRate *float64 `json:"learning_rate"`
}

// SetParams sets the model hyperparameters. Values are converted weakly, so
// numbers decoded from JSON (float64) are accepted for integer parameters.
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	var p logisticParams
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &p,
	})
	if err != nil {
		return scigoErrors.Wrap(err, "failed to build parameter decoder")
	}
	if err := decoder.Decode(params); err != nil {
		return scigoErrors.NewValidationError("params", err.Error(), params)
	}

	next := *lr
	if p.Penalty != nil {
		next.penalty = *p.Penalty
	}
	if p.C != nil {
		next.C = *p.C
	}
	if p.FitIntercept != nil {
		next.fitIntercept = *p.FitIntercept
	}
	if p.RandomState != nil {
		next.randomState = *p.RandomState
	}
	if p.MaxIter != nil {
		next.maxIter = *p.MaxIter
	}
	if p.MultiClass != nil {
		next.multiClass = *p.MultiClass
	}
	if p.Tol != nil {
		next.tol = *p.Tol
	}
	if p.LearningRate != nil {
		next.learningRate = *p.LearningRate
	}
	if err := next.validate(); err != nil {
		return err
	}

	lr.penalty, lr.C, lr.fitIntercept = next.penalty, next.C, next.fitIntercept
	lr.randomState, lr.maxIter, lr.multiClass = next.randomState, next.maxIter, next.multiClass
	lr.tol, lr.learningRate = next.tol, next.learningRate
	lr.resetRand()
	return nil
}

// ExportWeights implements model.WeightExporter
func (lr *LogisticRegression) ExportWeights() (*model.ModelWeights, error) {
	if err := lr.state.RequireFitted(logisticModelType, "ExportWeights"); err != nil {
		return nil, err
	}
	w := &model.ModelWeights{
		ModelType:       logisticModelType,
		Version:         "1.0.0",
		Coefficients:    lr.coef_,
		Intercepts:      lr.intercept_,
		Classes:         lr.classes_,
		Hyperparameters: lr.GetParams(),
		IsFitted:        true,
	}
	return w.Clone(), nil
}

// ImportWeights implements model.WeightExporter
func (lr *LogisticRegression) ImportWeights(weights *model.ModelWeights) error {
	if weights == nil {
		return scigoErrors.NewValueError("LogisticRegression.ImportWeights", "nil weights")
	}
	if err := weights.Validate(); err != nil {
		return err
	}
	if weights.ModelType != logisticModelType {
		return scigoErrors.NewValidationError("model_type", "must be "+logisticModelType, weights.ModelType)
	}
	wantRows := len(weights.Classes)
	if wantRows == 2 {
		wantRows = 1
	}
	if len(weights.Coefficients) != wantRows {
		return scigoErrors.NewDimensionError("LogisticRegression.ImportWeights", wantRows, len(weights.Coefficients), 0)
	}
	if err := lr.SetParams(weights.Hyperparameters); err != nil {
		return err
	}

	w := weights.Clone()
	lr.coef_ = w.Coefficients
	lr.intercept_ = w.Intercepts
	lr.classes_ = w.Classes
	lr.nClasses_ = len(w.Classes)
	lr.nFeatures_ = len(w.Coefficients[0])
	lr.nIter_ = make([]int, len(w.Coefficients))

	lr.state.SetDimensions(lr.nFeatures_, 0)
	lr.state.SetClasses(lr.nClasses_)
	lr.state.SetFitted()
	return nil
}

// sigmoid computes the sigmoid function
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1.0 / (1.0 + math.Exp(-z))
	}
	ez := math.Exp(z)
	return ez / (1.0 + ez)
}

var (
	_ model.Classifier     = (*LogisticRegression)(nil)
	_ model.WeightExporter = (*LogisticRegression)(nil)
)
