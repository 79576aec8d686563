package metrics

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

// probEpsilon bounds probabilities away from 0 and 1 before taking logs.
const probEpsilon = 1e-15

// checkPair validates two label/score vectors of equal, non-zero length.
func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError(op, "empty vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// Accuracy は正解率（一致したラベルの割合）を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// AccuracyMacro はクラスごとの再現率の平均（macro平均正解率）を計算する。
// 平均は yTrue に出現するクラスのみを対象とする。
func AccuracyMacro(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("AccuracyMacro", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	total := make(map[float64]int)
	correct := make(map[float64]int)
	for i := 0; i < n; i++ {
		c := yTrue.AtVec(i)
		total[c]++
		if yPred.AtVec(i) == c {
			correct[c]++
		}
	}

	// クラス順に集計して加算順序を固定する
	classes := make([]float64, 0, len(total))
	for c := range total {
		classes = append(classes, c)
	}
	slices.Sort(classes)
	recalls := make([]float64, 0, len(classes))
	for _, c := range classes {
		recalls = append(recalls, float64(correct[c])/float64(total[c]))
	}
	return stat.Mean(recalls, nil), nil
}

// checkProba validates class indices against an n×k probability matrix.
func checkProba(op string, yTrue []int, proba mat.Matrix) (int, int, error) {
	if proba == nil || len(yTrue) == 0 {
		return 0, 0, errors.NewValueError(op, "empty input")
	}
	r, k := proba.Dims()
	if r != len(yTrue) {
		return 0, 0, errors.NewDimensionError(op, len(yTrue), r, 0)
	}
	for _, c := range yTrue {
		if c < 0 || c >= k {
			return 0, 0, errors.NewValueError(op, "class index out of range of probability columns")
		}
	}
	return r, k, nil
}

// MultiClassLogLoss は多クラスの対数損失を計算する。
// yTrue はクラスのインデックス（proba の列番号）。確率は [eps, 1-eps] にクリップされる。
func MultiClassLogLoss(yTrue []int, proba mat.Matrix) (float64, error) {
	n, _, err := checkProba("MultiClassLogLoss", yTrue, proba)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i, c := range yTrue {
		p := errors.ClipValue(proba.At(i, c), probEpsilon, 1-probEpsilon)
		sum -= math.Log(p)
	}
	return sum / float64(n), nil
}

// LogLossReduction は事前分布（yTrue のクラス頻度）に対する対数損失の改善率を計算する。
// 1 - logloss / prior_logloss。事前エントロピーが0の場合は0を返す。
func LogLossReduction(yTrue []int, proba mat.Matrix) (float64, error) {
	_, k, err := checkProba("LogLossReduction", yTrue, proba)
	if err != nil {
		return 0, err
	}

	ll, err := MultiClassLogLoss(yTrue, proba)
	if err != nil {
		return 0, err
	}

	prior := make([]float64, k)
	for _, c := range yTrue {
		prior[c]++
	}
	floats.Scale(1/float64(len(yTrue)), prior)
	priorLL := stat.Entropy(prior)

	if priorLL == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("LogLossReduction", "prior entropy is zero", 0))
		return 0, nil
	}
	return 1 - ll/priorLL, nil
}

// ArgMaxRows は各行の最大値の列番号を返す。同値の場合は小さい列番号を選ぶ。
func ArgMaxRows(m mat.Matrix) []int {
	r, c := m.Dims()
	out := make([]int, r)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, m)
		out[i] = floats.MaxIdx(row)
	}
	return out
}

// IndexVector converts class indices into a vector usable by Accuracy and AccuracyMacro.
// An empty slice yields nil.
func IndexVector(idx []int) *mat.VecDense {
	if len(idx) == 0 {
		return nil
	}
	data := make([]float64, len(idx))
	for i, v := range idx {
		data[i] = float64(v)
	}
	return mat.NewVecDense(len(data), data)
}
