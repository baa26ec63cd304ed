package linear_model

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golinear/core/model"
	"github.com/YuminosukeSato/golinear/linear"
	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// LogisticRegression implements logistic regression for classification
// Compatible with scikit-learn's LogisticRegression
//
// Multi-class problems are solved one-vs-rest. For two classes the single
// decision function favours Classes()[0].
type LogisticRegression struct {
	estimator

	// Hyperparameters
	penalty          string  // Regularization: "l2", "l1"
	C                float64 // Inverse regularization strength (1/alpha)
	fitIntercept     bool    // Whether to fit intercept
	interceptScaling float64 // Value of the synthetic bias feature
	solver           string  // Solver: "newton-cg", "trust-region", "dual"
	maxIter          int     // Maximum iterations
	tol              float64 // Tolerance for stopping; 0 uses the solver default
	randomState      int64   // Random seed; negative draws one
	classWeight      map[int]float64
	warmStart        bool // Reuse previous solution
	nJobs            int  // Threads for the logistic objective
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		estimator:        newEstimator("LogisticRegression"),
		penalty:          "l2",
		C:                1.0,
		fitIntercept:     true,
		interceptScaling: 1.0,
		solver:           "newton-cg",
		maxIter:          linear.DefaultMaxIter,
		randomState:      1,
		nJobs:            1,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

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

// WithLRInterceptScaling sets the value of the synthetic bias feature
func WithLRInterceptScaling(scaling float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.interceptScaling = scaling
	}
}

// WithLRSolver sets the optimization solver
func WithLRSolver(solver string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.solver = solver
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

// WithLRRandomState sets the random seed
func WithLRRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.randomState = seed
	}
}

// WithLRClassWeight multiplies C for the given labels
func WithLRClassWeight(weights map[int]float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.classWeight = weights
	}
}

// WithLRWarmStart reuses the previous coefficients as the starting point
func WithLRWarmStart(warm bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.warmStart = warm
	}
}

// WithLRNJobs sets the number of threads used by the primal solver
func WithLRNJobs(n int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.nJobs = n
	}
}

// solverType maps penalty and solver to a LIBLINEAR solver.
func (lr *LogisticRegression) solverType() (linear.SolverType, linear.Optimizer, error) {
	switch lr.penalty {
	case "l1":
		if lr.solver == "dual" {
			return 0, 0, errors.NewValidationError("solver", "the l1 penalty has no dual formulation", lr.solver)
		}
		return linear.L1RLogisticRegression, linear.NewtonCG, nil
	case "l2":
	default:
		return 0, 0, errors.NewValidationError("penalty", "must be 'l1' or 'l2'", lr.penalty)
	}
	switch lr.solver {
	case "newton-cg":
		return linear.L2RLogisticRegression, linear.NewtonCG, nil
	case "trust-region":
		return linear.L2RLogisticRegression, linear.TrustRegion, nil
	case "dual":
		return linear.L2RLogisticRegressionDual, linear.NewtonCG, nil
	}
	return 0, 0, errors.NewValidationError("solver", "must be 'newton-cg', 'trust-region' or 'dual'", lr.solver)
}

func (lr *LogisticRegression) parameter() (linear.Parameter, error) {
	st, opt, err := lr.solverType()
	if err != nil {
		return linear.Parameter{}, err
	}
	param := linear.NewParameter(st, lr.C, lr.tol)
	param.Optimizer = opt
	param.MaxIter = lr.maxIter
	param.DualMaxIter = lr.maxIter
	param.NumThreads = lr.nJobs
	param.Seed = seed(lr.randomState)
	param.WeightLabel, param.Weight = classWeights(lr.classWeight)
	return param, nil
}

// Fit trains the logistic regression model
func (lr *LogisticRegression) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "LogisticRegression.Fit")

	yv, err := checkXY("LogisticRegression.Fit", X, y)
	if err != nil {
		return err
	}
	if err := checkClassLabels("LogisticRegression.Fit", yv); err != nil {
		return err
	}
	param, err := lr.parameter()
	if err != nil {
		return err
	}
	_, c := X.Dims()
	prob := problem(X, yv, interceptBias(lr.fitIntercept, lr.interceptScaling))
	if lr.warmStart {
		param.InitSol = lr.initialSolution(prob.Bias, c, linear.ClassLabels(prob), param.SolverType)
	}
	return lr.fit(prob, c, param)
}

// initialSolution returns the previous weights when they fit the new
// problem, nil otherwise.
func (lr *LogisticRegression) initialSolution(bias float64, nFeatures int, labels []int, st linear.SolverType) []float64 {
	m := lr.model
	if m == nil || st != linear.L2RLogisticRegression || m.SolverType != st {
		return nil
	}
	if m.NrFeature != nFeatures || m.Bias != bias || !slices.Equal(m.Label, labels) {
		lr.logger.Debug("warm start skipped: previous model does not match the data")
		return nil
	}
	return slices.Clone(m.W)
}

// Predict returns the predicted class labels as an n×1 matrix
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	return lr.predict(X)
}

// PredictProba returns class probabilities, one column per class in
// Classes() order
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	xs, err := lr.vectors("PredictProba", X)
	if err != nil {
		return nil, err
	}
	nrClass := lr.model.NrClass
	out := mat.NewDense(len(xs), nrClass, nil)
	probEst := make([]float64, nrClass)
	for i, x := range xs {
		if _, err := lr.model.PredictProbability(x, probEst); err != nil {
			return nil, err
		}
		out.SetRow(i, probEst)
	}
	return out, nil
}

// DecisionFunction returns the decision values
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	return lr.decisionFunction(X)
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	return lr.accuracy(X, y)
}

// Classes returns the class labels in decision-function order
func (lr *LogisticRegression) Classes() []int {
	if lr.model == nil {
		return nil
	}
	return lr.model.Labels()
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":           lr.penalty,
		"C":                 lr.C,
		"fit_intercept":     lr.fitIntercept,
		"intercept_scaling": lr.interceptScaling,
		"solver":            lr.solver,
		"max_iter":          lr.maxIter,
		"tol":               lr.tol,
		"random_state":      lr.randomState,
		"class_weight":      lr.classWeight,
		"warm_start":        lr.warmStart,
		"n_jobs":            lr.nJobs,
	}
}

// SetParams sets the model hyperparameters
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var err error
		switch key {
		case "penalty":
			lr.penalty, err = paramString(key, value)
		case "C":
			lr.C, err = paramFloat(key, value)
		case "fit_intercept":
			lr.fitIntercept, err = paramBool(key, value)
		case "intercept_scaling":
			lr.interceptScaling, err = paramFloat(key, value)
		case "solver":
			lr.solver, err = paramString(key, value)
		case "max_iter":
			var v int64
			v, err = paramInt(key, value)
			lr.maxIter = int(v)
		case "tol":
			lr.tol, err = paramFloat(key, value)
		case "random_state":
			lr.randomState, err = paramInt(key, value)
		case "class_weight":
			lr.classWeight, err = paramClassWeight(key, value)
		case "warm_start":
			lr.warmStart, err = paramBool(key, value)
		case "n_jobs":
			var v int64
			v, err = paramInt(key, value)
			lr.nJobs = int(v)
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
func (lr *LogisticRegression) ExportWeights() (*model.ModelWeights, error) {
	return lr.exportWeights(lr.GetParams())
}

// ImportWeights restores a model exported by ExportWeights
func (lr *LogisticRegression) ImportWeights(w *model.ModelWeights) error {
	if err := lr.importWeights(w); err != nil {
		return err
	}
	if w.Hyperparameters != nil {
		return lr.SetParams(w.Hyperparameters)
	}
	return nil
}

// String returns a string representation of the model
func (lr *LogisticRegression) String() string {
	if !lr.IsFitted() {
		return fmt.Sprintf("LogisticRegression(penalty=%s, C=%g, solver=%s)", lr.penalty, lr.C, lr.solver)
	}
	return fmt.Sprintf("LogisticRegression(penalty=%s, C=%g, solver=%s, classes=%v)",
		lr.penalty, lr.C, lr.solver, lr.model.Labels())
}
