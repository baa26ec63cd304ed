package linear_model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golinear/core/model"
	"github.com/YuminosukeSato/golinear/linear"
	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// LinearSVC は線形サポートベクター分類器
// Compatible with scikit-learn's LinearSVC
type LinearSVC struct {
	estimator

	// Hyperparameters
	penalty          string  // "l1" or "l2"
	loss             string  // "hinge" or "squared_hinge"
	dual             bool    // Solve the dual problem
	C                float64 // Inverse regularization strength
	multiClass       string  // "ovr" or "crammer_singer"
	fitIntercept     bool
	interceptScaling float64
	maxIter          int
	tol              float64 // 0 uses the solver default
	randomState      int64
	classWeight      map[int]float64
}

// LinearSVCOption is a functional option for LinearSVC
type LinearSVCOption func(*LinearSVC)

// NewLinearSVC は新しいLinearSVCを作成する
func NewLinearSVC(opts ...LinearSVCOption) *LinearSVC {
	svc := &LinearSVC{
		estimator:        newEstimator("LinearSVC"),
		penalty:          "l2",
		loss:             "squared_hinge",
		dual:             true,
		C:                1.0,
		multiClass:       "ovr",
		fitIntercept:     true,
		interceptScaling: 1.0,
		maxIter:          linear.DefaultMaxIter,
		randomState:      1,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithSVCPenalty sets the regularization type
func WithSVCPenalty(penalty string) LinearSVCOption {
	return func(s *LinearSVC) { s.penalty = penalty }
}

// WithSVCLoss sets the loss function
func WithSVCLoss(loss string) LinearSVCOption {
	return func(s *LinearSVC) { s.loss = loss }
}

// WithSVCDual selects the dual or primal formulation
func WithSVCDual(dual bool) LinearSVCOption {
	return func(s *LinearSVC) { s.dual = dual }
}

// WithSVCC sets the inverse regularization strength
func WithSVCC(c float64) LinearSVCOption {
	return func(s *LinearSVC) { s.C = c }
}

// WithSVCMultiClass sets the multi-class strategy
func WithSVCMultiClass(strategy string) LinearSVCOption {
	return func(s *LinearSVC) { s.multiClass = strategy }
}

// WithSVCFitIntercept sets whether to fit intercept
func WithSVCFitIntercept(fit bool) LinearSVCOption {
	return func(s *LinearSVC) { s.fitIntercept = fit }
}

// WithSVCInterceptScaling sets the value of the synthetic bias feature
func WithSVCInterceptScaling(scaling float64) LinearSVCOption {
	return func(s *LinearSVC) { s.interceptScaling = scaling }
}

// WithSVCMaxIter sets the maximum number of iterations
func WithSVCMaxIter(maxIter int) LinearSVCOption {
	return func(s *LinearSVC) { s.maxIter = maxIter }
}

// WithSVCTol sets the tolerance for stopping criteria
func WithSVCTol(tol float64) LinearSVCOption {
	return func(s *LinearSVC) { s.tol = tol }
}

// WithSVCRandomState sets the seed of the coordinate permutations
func WithSVCRandomState(seed int64) LinearSVCOption {
	return func(s *LinearSVC) { s.randomState = seed }
}

// WithSVCClassWeight multiplies C for the given labels
func WithSVCClassWeight(weights map[int]float64) LinearSVCOption {
	return func(s *LinearSVC) { s.classWeight = weights }
}

// solverType maps the loss, penalty, dual and multi_class combination to a
// LIBLINEAR solver.
func (s *LinearSVC) solverType() (linear.SolverType, error) {
	switch s.multiClass {
	case "crammer_singer":
		return linear.MCSVMCS, nil
	case "ovr":
	default:
		return 0, errors.NewValidationError("multi_class", "must be 'ovr' or 'crammer_singer'", s.multiClass)
	}
	if s.loss != "hinge" && s.loss != "squared_hinge" {
		return 0, errors.NewValidationError("loss", "must be 'hinge' or 'squared_hinge'", s.loss)
	}
	switch s.penalty {
	case "l1":
		if s.loss != "squared_hinge" || s.dual {
			return 0, errors.NewValidationError("penalty",
				"the l1 penalty is supported only with loss='squared_hinge' and dual=false", s.penalty)
		}
		return linear.L1RL2LossSVC, nil
	case "l2":
		if s.loss == "hinge" {
			if !s.dual {
				return 0, errors.NewValidationError("dual", "loss='hinge' requires dual=true", s.dual)
			}
			return linear.L2RL1LossSVCDual, nil
		}
		if s.dual {
			return linear.L2RL2LossSVCDual, nil
		}
		return linear.L2RL2LossSVC, nil
	}
	return 0, errors.NewValidationError("penalty", "must be 'l1' or 'l2'", s.penalty)
}

// Fit trains the classifier
func (s *LinearSVC) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "LinearSVC.Fit")

	yv, err := checkXY("LinearSVC.Fit", X, y)
	if err != nil {
		return err
	}
	if err := checkClassLabels("LinearSVC.Fit", yv); err != nil {
		return err
	}
	st, err := s.solverType()
	if err != nil {
		return err
	}
	param := linear.NewParameter(st, s.C, s.tol)
	param.MaxIter = s.maxIter
	param.DualMaxIter = s.maxIter
	param.Seed = seed(s.randomState)
	param.WeightLabel, param.Weight = classWeights(s.classWeight)

	_, c := X.Dims()
	return s.fit(problem(X, yv, interceptBias(s.fitIntercept, s.interceptScaling)), c, param)
}

// Predict returns the predicted class labels as an n×1 matrix
func (s *LinearSVC) Predict(X mat.Matrix) (mat.Matrix, error) {
	return s.predict(X)
}

// DecisionFunction returns the decision values
func (s *LinearSVC) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	return s.decisionFunction(X)
}

// Score returns the mean accuracy
func (s *LinearSVC) Score(X, y mat.Matrix) (float64, error) {
	return s.accuracy(X, y)
}

// Classes returns the class labels in decision-function order
func (s *LinearSVC) Classes() []int {
	if s.model == nil {
		return nil
	}
	return s.model.Labels()
}

// GetParams returns the model hyperparameters
func (s *LinearSVC) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":           s.penalty,
		"loss":              s.loss,
		"dual":              s.dual,
		"C":                 s.C,
		"multi_class":       s.multiClass,
		"fit_intercept":     s.fitIntercept,
		"intercept_scaling": s.interceptScaling,
		"max_iter":          s.maxIter,
		"tol":               s.tol,
		"random_state":      s.randomState,
		"class_weight":      s.classWeight,
	}
}

// SetParams sets the model hyperparameters
func (s *LinearSVC) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var err error
		switch key {
		case "penalty":
			s.penalty, err = paramString(key, value)
		case "loss":
			s.loss, err = paramString(key, value)
		case "dual":
			s.dual, err = paramBool(key, value)
		case "C":
			s.C, err = paramFloat(key, value)
		case "multi_class":
			s.multiClass, err = paramString(key, value)
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
		case "class_weight":
			s.classWeight, err = paramClassWeight(key, value)
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
func (s *LinearSVC) ExportWeights() (*model.ModelWeights, error) {
	return s.exportWeights(s.GetParams())
}

// ImportWeights restores a model exported by ExportWeights
func (s *LinearSVC) ImportWeights(w *model.ModelWeights) error {
	if err := s.importWeights(w); err != nil {
		return err
	}
	if w.Hyperparameters != nil {
		return s.SetParams(w.Hyperparameters)
	}
	return nil
}

func (s *LinearSVC) String() string {
	return fmt.Sprintf("LinearSVC(penalty=%s, loss=%s, dual=%t, C=%g, multi_class=%s)",
		s.penalty, s.loss, s.dual, s.C, s.multiClass)
}
