package model

import (
	"encoding/json"

	scigoErrors "github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

// ModelWeights はモデルの重みを表す構造体（シリアライゼーション用）
//
// 多クラス線形モデルを想定し、Coefficients[k] がクラス k の重みベクトル、
// Intercepts[k] がその切片になる。二値分類では1行だけを持つ。
type ModelWeights struct {
	// ModelType はモデルの種類（LogisticRegression等）
	ModelType string `json:"model_type"`

	// Version はモデルのバージョン（互換性チェック用）
	Version string `json:"version"`

	// Coefficients は重み係数（行: 判別関数、列: 特徴量）
	Coefficients [][]float64 `json:"coefficients"`

	// Intercepts は切片
	Intercepts []float64 `json:"intercepts"`

	// Classes は学習時のクラスラベル
	Classes []int `json:"classes"`

	// Hyperparameters はモデルのハイパーパラメータ
	Hyperparameters map[string]interface{} `json:"hyperparameters"`

	// IsFitted はモデルが学習済みかどうか
	IsFitted bool `json:"is_fitted"`
}

// ToJSON はModelWeightsをJSON形式にシリアライズ
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(mw, "", "  ")
	if err != nil {
		return nil, scigoErrors.Wrap(err, "failed to marshal model weights")
	}
	return data, nil
}

// FromJSON はJSON形式からModelWeightsをデシリアライズ
func (mw *ModelWeights) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, mw); err != nil {
		return scigoErrors.Wrap(err, "failed to unmarshal model weights")
	}
	return nil
}

// Validate はModelWeightsの妥当性を検証
func (mw *ModelWeights) Validate() error {
	if mw.ModelType == "" {
		return scigoErrors.NewValidationError("model_type", "is required", mw.ModelType)
	}

	if mw.Version == "" {
		return scigoErrors.NewValidationError("version", "is required", mw.Version)
	}

	if !mw.IsFitted {
		if len(mw.Coefficients) > 0 {
			return scigoErrors.NewValidationError("coefficients", "unfitted model should not have coefficients", len(mw.Coefficients))
		}
		return nil
	}

	if len(mw.Coefficients) == 0 {
		return scigoErrors.NewValidationError("coefficients", "fitted model must have coefficients", 0)
	}
	if len(mw.Intercepts) != len(mw.Coefficients) {
		return scigoErrors.NewValidationError("intercepts", "must have one entry per coefficient row", len(mw.Intercepts))
	}
	width := len(mw.Coefficients[0])
	for _, row := range mw.Coefficients[1:] {
		if len(row) != width {
			return scigoErrors.NewValidationError("coefficients", "rows must have equal length", len(row))
		}
	}
	if len(mw.Classes) < 2 {
		return scigoErrors.NewValidationError("classes", "at least two classes are required", len(mw.Classes))
	}

	return nil
}

// Clone はModelWeightsのディープコピーを作成
func (mw *ModelWeights) Clone() *ModelWeights {
	clone := &ModelWeights{
		ModelType:       mw.ModelType,
		Version:         mw.Version,
		IsFitted:        mw.IsFitted,
		Coefficients:    make([][]float64, len(mw.Coefficients)),
		Intercepts:      append([]float64(nil), mw.Intercepts...),
		Classes:         append([]int(nil), mw.Classes...),
		Hyperparameters: make(map[string]interface{}, len(mw.Hyperparameters)),
	}

	for i, row := range mw.Coefficients {
		clone.Coefficients[i] = append([]float64(nil), row...)
	}

	for k, v := range mw.Hyperparameters {
		clone.Hyperparameters[k] = v
	}

	return clone
}
