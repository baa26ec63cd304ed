package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる。y は n×1 の列ベクトル
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を n×1 の行列で返す
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Estimator は学習済みかどうかを報告できるモデル
type Estimator interface {
	Fitter
	Predictor
	IsFitted() bool
}

// LinearModel は線形モデルのインターフェース
type LinearModel interface {
	// Coef は決定関数ごとの係数を (関数の数)×(特徴量数) の行列で返す
	Coef() *mat.Dense
	// Intercept は決定関数ごとの切片を返す
	Intercept() []float64
}
