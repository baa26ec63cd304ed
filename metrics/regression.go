// Package metrics は予測結果の評価指標を提供する
//
// Slice-based functions take the targets produced by linear.CrossValidation
// and Model.Predict directly; the *mat.VecDense variants serve the
// estimator front ends.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// checkPair validates that two target slices are non-empty and of equal
// length.
func checkPair(op string, yTrue, yPred []float64) error {
	if len(yTrue) == 0 {
		return errors.NewValueError(op, "empty input")
	}
	if len(yPred) != len(yTrue) {
		return errors.NewDimensionError(op, len(yTrue), len(yPred), 0)
	}
	return nil
}

// rawVec returns the elements of v, or nil for a nil or empty vector.
func rawVec(v *mat.VecDense) []float64 {
	if v == nil || v.Len() == 0 {
		return nil
	}
	return mat.Col(nil, 0, v)
}

// MeanSquaredError は平均二乗誤差を計算する
func MeanSquaredError(yTrue, yPred []float64) (float64, error) {
	if err := checkPair("MeanSquaredError", yTrue, yPred); err != nil {
		return 0, err
	}
	d := floats.Distance(yTrue, yPred, 2)
	return d * d / float64(len(yTrue)), nil
}

// SquaredCorrelation は予測値と真値の相関係数の二乗を計算する
//
// A constant yTrue or yPred has no correlation; the result is then NaN and
// an UndefinedMetricWarning is emitted.
func SquaredCorrelation(yTrue, yPred []float64) (float64, error) {
	if err := checkPair("SquaredCorrelation", yTrue, yPred); err != nil {
		return 0, err
	}
	r := stat.Correlation(yTrue, yPred, nil)
	if math.IsNaN(r) {
		errors.Warn(errors.NewUndefinedMetricWarning("SquaredCorrelation", "zero variance in targets or predictions", math.NaN()))
		return math.NaN(), nil
	}
	return r * r, nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	return MeanSquaredError(rawVec(yTrue), rawVec(yPred))
}

// MSEMatrix は n×1 行列に対してMSEを計算する
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	t, p, err := columnPair("MSEMatrix", yTrue, yPred, true)
	if err != nil {
		return 0, err
	}
	return MeanSquaredError(t, p)
}

// columnPair extracts the first columns of two matrices with the same
// shape. When single is set both must be column vectors.
func columnPair(op string, yTrue, yPred mat.Matrix, single bool) ([]float64, []float64, error) {
	if yTrue == nil || yPred == nil {
		return nil, nil, errors.NewValueError(op, "nil matrix")
	}
	rt, ct := yTrue.Dims()
	rp, cp := yPred.Dims()
	if rt == 0 || ct == 0 {
		return nil, nil, errors.NewValueError(op, "empty matrix")
	}
	if rt != rp || ct != cp {
		return nil, nil, errors.NewDimensionError(op, rt, rp, 0)
	}
	if single && ct != 1 {
		return nil, nil, errors.NewValueError(op, "must be a column vector (n×1 matrix)")
	}
	return mat.Col(nil, 0, yTrue), mat.Col(nil, 0, yPred), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	t, p := rawVec(yTrue), rawVec(yPred)
	if err := checkPair("MAE", t, p); err != nil {
		return 0, err
	}
	return floats.Distance(t, p, 1) / float64(len(t)), nil
}

// R2Score は決定係数（R²）を計算する
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	t, p := rawVec(yTrue), rawVec(yPred)
	if err := checkPair("R2Score", t, p); err != nil {
		return 0, err
	}
	if stat.Variance(t, nil) == 0 || len(t) == 1 {
		return 0, errors.NewValueError("R2Score", "total sum of squares is zero (no variance in yTrue)")
	}
	return stat.RSquaredFrom(p, t, nil), nil
}
