// Package linear は疎な特徴ベクトル上の線形分類・回帰モデルを学習する。
//
// Train が入口で、ソルバー種別に応じて主問題の Newton 法、双対座標降下法、
// L1 正則化座標降下法、Crammer–Singer 多クラスソルバーのいずれかに振り分ける。
// 学習済みの Model は予測、テキスト形式での保存と読み込みに使う。
package linear

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// SolverType は学習に使う最適化問題とソルバーの組み合わせ
type SolverType int

// Solver types. The numeric values are part of the model file format.
const (
	L2RLogisticRegression     SolverType = 0  // L2-regularized logistic regression (primal)
	L2RL2LossSVCDual          SolverType = 1  // L2-regularized L2-loss SVC (dual)
	L2RL2LossSVC              SolverType = 2  // L2-regularized L2-loss SVC (primal)
	L2RL1LossSVCDual          SolverType = 3  // L2-regularized L1-loss SVC (dual)
	MCSVMCS                   SolverType = 4  // Crammer–Singer multi-class SVC
	L1RL2LossSVC              SolverType = 5  // L1-regularized L2-loss SVC
	L1RLogisticRegression     SolverType = 6  // L1-regularized logistic regression
	L2RLogisticRegressionDual SolverType = 7  // L2-regularized logistic regression (dual)
	L2RL2LossSVR              SolverType = 11 // L2-regularized L2-loss SVR (primal)
	L2RL2LossSVRDual          SolverType = 12 // L2-regularized L2-loss SVR (dual)
	L2RL1LossSVRDual          SolverType = 13 // L2-regularized L1-loss SVR (dual)
	OneClassSVM               SolverType = 21 // one-class SVM (dual)
)

var solverTypeNames = map[SolverType]string{
	L2RLogisticRegression:     "L2R_LR",
	L2RL2LossSVCDual:          "L2R_L2LOSS_SVC_DUAL",
	L2RL2LossSVC:              "L2R_L2LOSS_SVC",
	L2RL1LossSVCDual:          "L2R_L1LOSS_SVC_DUAL",
	MCSVMCS:                   "MCSVM_CS",
	L1RL2LossSVC:              "L1R_L2LOSS_SVC",
	L1RLogisticRegression:     "L1R_LR",
	L2RLogisticRegressionDual: "L2R_LR_DUAL",
	L2RL2LossSVR:              "L2R_L2LOSS_SVR",
	L2RL2LossSVRDual:          "L2R_L2LOSS_SVR_DUAL",
	L2RL1LossSVRDual:          "L2R_L1LOSS_SVR_DUAL",
	OneClassSVM:               "ONECLASS_SVM",
}

// SolverTypes lists every supported solver type in numeric order.
func SolverTypes() []SolverType {
	return []SolverType{
		L2RLogisticRegression, L2RL2LossSVCDual, L2RL2LossSVC, L2RL1LossSVCDual,
		MCSVMCS, L1RL2LossSVC, L1RLogisticRegression, L2RLogisticRegressionDual,
		L2RL2LossSVR, L2RL2LossSVRDual, L2RL1LossSVRDual, OneClassSVM,
	}
}

// String はモデルファイルで使う名前を返す
func (s SolverType) String() string {
	if name, ok := solverTypeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SolverType(%d)", int(s))
}

// Valid reports whether s is a known solver type.
func (s SolverType) Valid() bool {
	_, ok := solverTypeNames[s]
	return ok
}

// ParseSolverType accepts either the file-format name (case-insensitive) or
// the numeric id.
func ParseSolverType(text string) (SolverType, error) {
	for st, name := range solverTypeNames {
		if strings.EqualFold(text, name) {
			return st, nil
		}
	}
	if id, err := strconv.Atoi(text); err == nil {
		if st := SolverType(id); st.Valid() {
			return st, nil
		}
	}
	return 0, errors.NewValidationError("solver_type", "unknown solver type", text)
}

// IsRegression reports whether s solves a regression problem.
func (s SolverType) IsRegression() bool {
	return s == L2RL2LossSVR || s == L2RL2LossSVRDual || s == L2RL1LossSVRDual
}

// IsOneClass reports whether s is the one-class SVM.
func (s SolverType) IsOneClass() bool {
	return s == OneClassSVM
}

// IsProbability reports whether models of this type support probability
// estimates.
func (s SolverType) IsProbability() bool {
	return s == L2RLogisticRegression || s == L2RLogisticRegressionDual || s == L1RLogisticRegression
}

// DefaultEps は各ソルバーの既定の停止許容誤差を返す
func (s SolverType) DefaultEps() float64 {
	switch s {
	case L2RLogisticRegression, L2RL2LossSVC, L1RL2LossSVC, L1RLogisticRegression, OneClassSVM:
		return 0.01
	case L2RL2LossSVR:
		return 0.0001
	default:
		return 0.1
	}
}
