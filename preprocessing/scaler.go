package preprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/core/model"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/log"
)

// MinMaxScaler は疎性を保つMin-Maxスケーラー
//
// 各特徴量を range = max(max, 0) - min(min, 0) で割るだけなので、0は0に写り、
// 変換後の値は -1 <= a <= 0 <= b <= 1 かつ b - a = 1 の区間 [a, b] に収まる。
// 全ての値が0の列はそのまま残す。
type MinMaxScaler struct {
	// State は学習状態（gobで保存するため公開）
	State *model.StateManager

	// DataMin は学習データの最小値
	DataMin []float64

	// DataMax は学習データの最大値
	DataMax []float64

	// Scale は各特徴量の除数 max(max,0) - min(min,0)。0の列は1
	Scale []float64

	logger log.Logger
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewMinMaxScaler()
//	XScaled, err := scaler.FitTransform(X)
func NewMinMaxScaler() *MinMaxScaler {
	return &MinMaxScaler{
		State:  model.NewStateManager(),
		logger: log.GetLoggerWithName("preprocessing").With(log.ModelNameKey, "MinMaxScaler"),
	}
}

// Fit は訓練データから各列の最小値・最大値を計算する
func (m *MinMaxScaler) Fit(X mat.Matrix) (err error) {
	defer errors.Recover(&err, "MinMaxScaler.Fit")

	if m.State == nil {
		m.State = model.NewStateManager()
	}

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MinMaxScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		lo, hi := floats.Min(col), floats.Max(col)
		m.DataMin[j] = lo
		m.DataMax[j] = hi

		scale := max(hi, 0) - min(lo, 0)
		if scale == 0 {
			scale = 1
		}
		m.Scale[j] = scale
	}

	m.State.SetDimensions(c, r)
	m.State.SetFitted()
	if m.logger == nil {
		m.logger = log.GetLoggerWithName("preprocessing").With(log.ModelNameKey, "MinMaxScaler")
	}
	m.logger.Debug("Normalizer fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, r,
		log.FeaturesKey, c,
	)
	return nil
}

// Transform は学習済みの除数で各要素を割る。0要素は0のまま
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.State.RequireFitted("MinMaxScaler", "Transform"); err != nil {
		return nil, err
	}
	_, c := X.Dims()
	if err := m.State.RequireFeatures("MinMaxScaler.Transform", c); err != nil {
		return nil, err
	}
	return m.apply(X, func(v, scale float64) float64 { return v / scale }), nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform はスケーリングされたデータを元の範囲に戻す
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.State.RequireFitted("MinMaxScaler", "InverseTransform"); err != nil {
		return nil, err
	}
	_, c := X.Dims()
	if err := m.State.RequireFeatures("MinMaxScaler.InverseTransform", c); err != nil {
		return nil, err
	}
	return m.apply(X, func(v, scale float64) float64 { return v * scale }), nil
}

func (m *MinMaxScaler) apply(X mat.Matrix, fn func(v, scale float64) float64) *mat.Dense {
	r, c := X.Dims()
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		if v == 0 {
			return 0
		}
		return fn(v, m.Scale[j])
	}, X)
	return result
}

// IsFitted は学習済みかどうかを返す
func (m *MinMaxScaler) IsFitted() bool {
	return m.State != nil && m.State.IsFitted()
}

// String はスケーラーの文字列表現を返す
func (m *MinMaxScaler) String() string {
	if !m.IsFitted() {
		return "MinMaxScaler(fix_zero=true)"
	}
	nFeatures, _ := m.State.GetDimensions()
	return fmt.Sprintf("MinMaxScaler(fix_zero=true, n_features=%d)", nFeatures)
}

var _ model.Transformer = (*MinMaxScaler)(nil)
