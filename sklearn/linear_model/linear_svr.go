package linear_model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golinear/core/model"
	"github.com/YuminosukeSato/golinear/linear"
	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// LinearSVR は線形サポートベクター回帰
// Compatible with scikit-learn's LinearSVR
type LinearSVR struct {
	estimator

	// Hyperparameters
	epsilon          float64 // Width of the insensitive zone
	C                float64
	loss             string // "epsilon_insensitive" or "squared_epsilon_insensitive"
	dual             bool
	fitIntercept     bool
	interceptScaling float64
	maxIter          int
	tol              float64 // 0 uses the solver default
	randomState      int64
}

// LinearSVROption is a functional option for LinearSVR
type LinearSVROption func(*LinearSVR)

// NewLinearSVR は新しいLinearSVRを作成する
func NewLinearSVR(opts ...LinearSVROption) *LinearSVR {
	svr := &LinearSVR{
		estimator:        newEstimator("LinearSVR"),
		epsilon:          0,
		C:                1.0,
		loss:             "epsilon_insensitive",
		dual:             true,
		fitIntercept:     true,
		interceptScaling: 1.0,
		maxIter:          linear.DefaultMaxIter,
		randomState:      1,
	}
	for _, opt := range opts {
		opt(svr)
	}
	return svr
}

// WithSVREpsilon sets the width of the epsilon-insensitive zone
func WithSVREpsilon(eps float64) LinearSVROption {
	return func(s *LinearSVR) { s.epsilon = eps }
}

// WithSVRC sets the inverse regularization strength
func WithSVRC(c float64) LinearSVROption {
	return func(s *LinearSVR) { s.C = c }
}

// WithSVRLoss sets the loss function
func WithSVRLoss(loss string) LinearSVROption {
	return func(s *LinearSVR) { s.loss = loss }
}

// WithSVRDual selects the dual or primal formulation
func WithSVRDual(dual bool) LinearSVROption {
	return func(s *LinearSVR) { s.dual = dual }
}

// WithSVRFitIntercept sets whether to fit intercept
func WithSVRFitIntercept(fit bool) LinearSVROption {
	return func(s *LinearSVR) { s.fitIntercept = fit }
}

// WithSVRInterceptScaling sets the value of the synthetic bias feature
func WithSVRInterceptScaling(scaling float64) LinearSVROption {
	return func(s *LinearSVR) { s.interceptScaling = scaling }
}

// WithSVRMaxIter sets the maximum number of iterations
func WithSVRMaxIter(maxIter int) LinearSVROption {
	return func(s *LinearSVR) { s.maxIter = maxIter }
}

// WithSVRTol sets the tolerance for stopping criteria
func WithSVRTol(tol float64) LinearSVROption {
	return func(s *LinearSVR) { s.tol = tol }
}

// WithSVRRandomState sets the seed of the coordinate permutations
func WithSVRRandomState(seed int64) LinearSVROption {
	return func(s *LinearSVR) { s.randomState = seed }
}

func (s *LinearSVR) solverType() (linear.SolverType, error) {
	switch s.loss {
	case "epsilon_insensitive":
		if !s.dual {
			return 0, errors.NewValidationError("dual", "loss='epsilon_insensitive' requires dual=true", s.dual)
		}
		return linear.L2RL1LossSVRDual, nil
	case "squared_epsilon_insensitive":
		if s.dual {
			return linear.L2RL2LossSVRDual, nil
		}
		return linear.L2RL2LossSVR, nil
	}
	return 0, errors.NewValidationError("loss", "must be 'epsilon_insensitive' or 'squared_epsilon_insensitive'", s.loss)
}

// Fit trains the regressor
func (s *LinearSVR) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "LinearSVR.Fit")

	yv, err := checkXY("LinearSVR.Fit", X, y)
	if err != nil {
		return err
	}
	st, err := s.solverType()
	if err != nil {
		return err
	}
	param := linear.NewParameter(st, s.C, s.tol)
	param.P = s.epsilon
	param.MaxIter = s.maxIter
	param.DualMaxIter = s.maxIter
	param.Seed = seed(s.randomState)

	_, c := X.Dims()
	return s.fit(problem(X, yv, interceptBias(s.fitIntercept, s.interceptScaling)), c, param)
}

// Predict returns the predicted values as an n×1 matrix
func (s *LinearSVR) Predict(X mat.Matrix) (mat.Matrix, error) {
	return s.predict(X)
}

// Score returns the coefficient of determination R²
func (s *LinearSVR) Score(X, y mat.Matrix) (float64, error) {
	return s.r2(X, y)
}

// GetParams returns the model hyperparameters
func (s *LinearSVR) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"epsilon":           s.epsilon,
		"C":                 s.C,
		"loss":              s.loss,
		"dual":              s.dual,
		"fit_intercept":     s.fitIntercept,
		"intercept_scaling": s.interceptScaling,
		"max_iter":          s.maxIter,
		"tol":               s.tol,
		"random_state":      s.randomState,
	}
}

// SetParams sets the model hyperparameters
func (s *LinearSVR) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var err error
		switch key {
		case "epsilon":
			s.epsilon, err = paramFloat(key, value)
		case "C":
			s.C, err = paramFloat(key, value)
		case "loss":
			s.loss, err = paramString(key, value)
		case "dual":
			s.dual, err = paramBool(key, value)
		case "fit_intercept":
			s.fitIntercept, err = paramBool(key, value)
		case "intercept_scaling":
			s.interceptScaling, err = paramFloat(key, value)
		case "max_iter":
			var v int64
			v, err = paramInt(key, value)
			s.maxIter = int(v)
		case "tol":
			s.tol, err = paramFloat(key, value)
		case "random_state":
			s.randomState, err = paramInt(key, value)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ExportWeights exports the learned model together with its hyperparameters
func (s *LinearSVR) ExportWeights() (*model.ModelWeights, error) {
	return s.exportWeights(s.GetParams())
}

// ImportWeights restores a model exported by ExportWeights
func (s *LinearSVR) ImportWeights(w *model.ModelWeights) error {
	if err := s.importWeights(w); err != nil {
		return err
	}
	if w.Hyperparameters != nil {
		return s.SetParams(w.Hyperparameters)
	}
	return nil
}

func (s *LinearSVR) String() string {
	return fmt.Sprintf("LinearSVR(epsilon=%g, C=%g, loss=%s, dual=%t)", s.epsilon, s.C, s.loss, s.dual)
}
