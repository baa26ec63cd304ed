package linear_model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golinear/core/model"
	"github.com/YuminosukeSato/golinear/linear"
	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// OneClassSVM は線形カーネルの一クラスSVMによる外れ値検出器
//
// Predict returns +1 for inliers and -1 for outliers. The model has no
// intercept; the offset is Rho().
type OneClassSVM struct {
	estimator

	nu          float64 // Upper bound on the fraction of outliers
	maxIter     int
	tol         float64
	randomState int64
}

// OneClassSVMOption is a functional option for OneClassSVM
type OneClassSVMOption func(*OneClassSVM)

// NewOneClassSVM は新しいOneClassSVMを作成する
func NewOneClassSVM(opts ...OneClassSVMOption) *OneClassSVM {
	o := &OneClassSVM{
		estimator:   newEstimator("OneClassSVM"),
		nu:          linear.DefaultNu,
		maxIter:     linear.DefaultMaxIter,
		randomState: 1,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithNu sets the upper bound on the fraction of outliers
func WithNu(nu float64) OneClassSVMOption {
	return func(o *OneClassSVM) { o.nu = nu }
}

// WithOCMaxIter sets the maximum number of passes
func WithOCMaxIter(maxIter int) OneClassSVMOption {
	return func(o *OneClassSVM) { o.maxIter = maxIter }
}

// WithOCTol sets the tolerance for stopping criteria
func WithOCTol(tol float64) OneClassSVMOption {
	return func(o *OneClassSVM) { o.tol = tol }
}

// WithOCRandomState sets the seed of the coordinate permutations
func WithOCRandomState(seed int64) OneClassSVMOption {
	return func(o *OneClassSVM) { o.randomState = seed }
}

// Fit trains on X alone
func (o *OneClassSVM) Fit(X mat.Matrix) (err error) {
	defer errors.Recover(&err, "OneClassSVM.Fit")

	if err := checkX("OneClassSVM.Fit", X); err != nil {
		return err
	}
	r, c := X.Dims()
	param := linear.NewParameter(linear.OneClassSVM, 1, o.tol)
	param.Nu = o.nu
	param.MaxIter = o.maxIter
	param.Seed = seed(o.randomState)

	// Labels are ignored by the one-class solver.
	return o.fit(problem(X, make([]float64, r), -1), c, param)
}

// Predict returns +1 (inlier) or -1 (outlier) per row
func (o *OneClassSVM) Predict(X mat.Matrix) (mat.Matrix, error) {
	return o.predict(X)
}

// DecisionFunction returns w·x - rho; positive values are inliers
func (o *OneClassSVM) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	return o.decisionFunction(X)
}

// Rho returns the learned offset
func (o *OneClassSVM) Rho() (float64, error) {
	if err := o.state.RequireFitted("Rho"); err != nil {
		return 0, err
	}
	return o.model.DecfunRho()
}

// GetParams returns the model hyperparameters
func (o *OneClassSVM) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"nu":           o.nu,
		"max_iter":     o.maxIter,
		"tol":          o.tol,
		"random_state": o.randomState,
	}
}

// SetParams sets the model hyperparameters
func (o *OneClassSVM) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var err error
		switch key {
		case "nu":
			o.nu, err = paramFloat(key, value)
		case "max_iter":
			var v int64
			v, err = paramInt(key, value)
			o.maxIter = int(v)
		case "tol":
			o.tol, err = paramFloat(key, value)
		case "random_state":
			o.randomState, err = paramInt(key, value)
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
func (o *OneClassSVM) ExportWeights() (*model.ModelWeights, error) {
	return o.exportWeights(o.GetParams())
}

// ImportWeights restores a model exported by ExportWeights
func (o *OneClassSVM) ImportWeights(w *model.ModelWeights) error {
	if err := o.importWeights(w); err != nil {
		return err
	}
	if w.Hyperparameters != nil {
		return o.SetParams(w.Hyperparameters)
	}
	return nil
}

func (o *OneClassSVM) String() string {
	return fmt.Sprintf("OneClassSVM(nu=%g)", o.nu)
}
