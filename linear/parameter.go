package linear

import (
	"github.com/YuminosukeSato/golinear/core/sparse"
	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// Optimizer selects the second-order method used for primal solves.
type Optimizer int

const (
	// NewtonCG is Newton's method with a backtracking line search.
	NewtonCG Optimizer = iota
	// TrustRegion is the trust-region Newton method.
	TrustRegion
)

func (o Optimizer) String() string {
	switch o {
	case NewtonCG:
		return "newton"
	case TrustRegion:
		return "tron"
	default:
		return "unknown"
	}
}

// Defaults used by NewParameter.
const (
	DefaultMaxIter     = 1000
	DefaultDualMaxIter = 300
	DefaultP           = 0.1
	DefaultNu          = 0.5
)

// Parameter は学習の設定
type Parameter struct {
	SolverType SolverType
	// C は正則化の強さの逆数（損失項の重み）
	C float64
	// Eps は停止許容誤差
	Eps float64
	// MaxIter bounds primal Newton iterations and the coordinate-descent
	// passes of the L1 and one-class solvers. Crammer–Singer runs up to
	// 100*MaxIter passes.
	MaxIter int
	// DualMaxIter bounds the L2-regularized dual solvers. When a dual solve
	// with a primal counterpart hits it, training switches to the primal
	// solver.
	DualMaxIter int
	// P is the width of the epsilon-insensitive zone for SVR.
	P float64
	// Nu is the fraction of outliers for the one-class SVM.
	Nu float64
	// WeightLabel と Weight はクラスごとの C の倍率
	WeightLabel []int
	Weight      []float64
	// InitSol warm-starts L2R_LR, L2R_L2LOSS_SVC and L2R_L2LOSS_SVR.
	InitSol []float64
	// RegularizeBias includes the bias weight in the regularizer. Turning it
	// off requires a problem built with bias 1.
	RegularizeBias bool
	Optimizer      Optimizer
	// NumThreads > 1 parallelizes the logistic objective.
	NumThreads int
	// Seed drives the coordinate permutations and cross-validation folds.
	Seed             int64
	DisableShrinking bool
}

// NewParameter returns a Parameter with the library defaults. A
// non-positive eps selects the solver's default tolerance.
func NewParameter(solverType SolverType, c, eps float64) Parameter {
	if eps <= 0 {
		eps = solverType.DefaultEps()
	}
	return Parameter{
		SolverType:     solverType,
		C:              c,
		Eps:            eps,
		MaxIter:        DefaultMaxIter,
		DualMaxIter:    DefaultDualMaxIter,
		P:              DefaultP,
		Nu:             DefaultNu,
		RegularizeBias: true,
		Optimizer:      NewtonCG,
		NumThreads:     1,
		Seed:           1,
	}
}

// Validate は学習前にパラメータを検査する。prob が nil の場合は問題に依存する
// 検査を省略する。
func (p Parameter) Validate(prob *sparse.Problem) error {
	st := p.SolverType
	if !st.Valid() {
		return errors.NewValidationError("solver_type", "unknown solver type", int(st))
	}
	if p.Eps <= 0 {
		return errors.NewValidationError("eps", "must be positive", p.Eps)
	}
	if p.C <= 0 {
		return errors.NewValidationError("C", "must be positive", p.C)
	}
	if p.P < 0 && st.IsRegression() {
		return errors.NewValidationError("p", "must be non-negative", p.P)
	}
	if st.IsOneClass() && (p.Nu <= 0 || p.Nu > 1) {
		return errors.NewValidationError("nu", "must be in (0, 1]", p.Nu)
	}
	if p.MaxIter < 0 {
		return errors.NewValidationError("max_iter", "must be non-negative", p.MaxIter)
	}
	if p.DualMaxIter < 0 {
		return errors.NewValidationError("dual_max_iter", "must be non-negative", p.DualMaxIter)
	}
	if p.NumThreads < 0 {
		return errors.NewValidationError("num_threads", "must be non-negative", p.NumThreads)
	}
	if p.Optimizer != NewtonCG && p.Optimizer != TrustRegion {
		return errors.NewValidationError("optimizer", "unknown optimizer", int(p.Optimizer))
	}
	if len(p.Weight) != len(p.WeightLabel) {
		return errors.NewValidationError("weight", "weight and weight_label lengths differ", len(p.Weight))
	}
	for _, w := range p.Weight {
		if w <= 0 {
			return errors.NewValidationError("weight", "class weights must be positive", w)
		}
	}
	if !p.RegularizeBias {
		switch st {
		case L2RLogisticRegression, L2RL2LossSVC, L1RL2LossSVC, L1RLogisticRegression, L2RL2LossSVR:
		default:
			return errors.NewValidationError("regularize_bias",
				"disabling bias regularization is supported only for L2R_LR, L2R_L2LOSS_SVC, L1R_L2LOSS_SVC, L1R_LR and L2R_L2LOSS_SVR", st.String())
		}
	}
	if p.InitSol != nil {
		switch st {
		case L2RLogisticRegression, L2RL2LossSVC, L2RL2LossSVR:
		default:
			return errors.NewValidationError("init_sol",
				"initial solutions are supported only for L2R_LR, L2R_L2LOSS_SVC and L2R_L2LOSS_SVR", st.String())
		}
	}

	if prob == nil {
		return nil
	}
	if prob.Bias >= 0 && st.IsOneClass() {
		return errors.NewValidationError("bias", "one-class SVM does not use a bias term", prob.Bias)
	}
	if !p.RegularizeBias && prob.Bias != 1 {
		return errors.NewValidationError("bias", "bias must be 1 when the bias is not regularized", prob.Bias)
	}
	return nil
}

// solverMaxIter returns the pass cap handed to the coordinate-descent solver.
func (p Parameter) solverMaxIter() int {
	switch p.SolverType {
	case L2RL2LossSVCDual, L2RL1LossSVCDual, L2RLogisticRegressionDual, L2RL2LossSVRDual, L2RL1LossSVRDual:
		return p.DualMaxIter
	case MCSVMCS:
		return 100 * p.MaxIter
	default:
		return p.MaxIter
	}
}
