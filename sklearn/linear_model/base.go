// Package linear_model は gonum の行列を受け取る scikit-learn 風の線形モデルを提供する
//
// Every estimator converts its dense input to sparse vectors (exact zeros
// are skipped) and trains with linear.Train, so the learned weights are
// those of the corresponding LIBLINEAR solver.
package linear_model

import (
	"fmt"
	"math"
	"math/rand"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golinear/core/model"
	"github.com/YuminosukeSato/golinear/core/sparse"
	"github.com/YuminosukeSato/golinear/linear"
	"github.com/YuminosukeSato/golinear/metrics"
	"github.com/YuminosukeSato/golinear/pkg/errors"
	"github.com/YuminosukeSato/golinear/pkg/log"
)

// estimator holds what every LIBLINEAR-backed estimator shares: the fitted
// state and the trained model.
type estimator struct {
	name   string
	state  *model.StateManager
	model  *linear.Model
	logger log.Logger
}

func newEstimator(name string) estimator {
	return estimator{
		name:   name,
		state:  model.NewStateManager(name),
		logger: log.GetLoggerWithName("linear_model").With(log.ModelNameKey, name),
	}
}

// IsFitted returns whether the model has been fitted.
func (e *estimator) IsFitted() bool {
	return e.state.IsFitted()
}

// toVectors converts the rows of X to sparse vectors. When bias >= 0 each
// row gets the trailing feature (nCols+1, bias).
func toVectors(X mat.Matrix, bias float64) []sparse.Vector {
	r, c := X.Dims()
	out := make([]sparse.Vector, r)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		v := sparse.FromDense(row)
		if bias >= 0 {
			v = sparse.AppendBias(v, c+1, bias)
		}
		out[i] = v
	}
	return out
}

func checkX(op string, X mat.Matrix) error {
	if X == nil {
		return errors.NewValueError(op, "X must not be nil")
	}
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.Wrapf(errors.ErrEmptyData, "%s", op)
	}
	return nil
}

// checkXY validates X and the n×1 target y and returns y as a slice.
func checkXY(op string, X, y mat.Matrix) ([]float64, error) {
	if err := checkX(op, X); err != nil {
		return nil, err
	}
	if y == nil {
		return nil, errors.NewValueError(op, "y must not be nil")
	}
	r, _ := X.Dims()
	yr, yc := y.Dims()
	if yr != r {
		return nil, errors.NewDimensionError(op, r, yr, 0)
	}
	if yc != 1 {
		return nil, errors.NewValueError(op, fmt.Sprintf("y must be a column vector: got shape (%d, %d)", yr, yc))
	}
	return mat.Col(nil, 0, y), nil
}

// checkClassLabels rejects non-integral class labels.
func checkClassLabels(op string, y []float64) error {
	for i, v := range y {
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return errors.NewValueError(op, fmt.Sprintf("class label %g at row %d is not an integer", v, i))
		}
	}
	return nil
}

// problem builds the training problem for X and y.
func problem(X mat.Matrix, y []float64, bias float64) *sparse.Problem {
	_, c := X.Dims()
	n := c
	if bias >= 0 {
		n++
	}
	return sparse.NewProblem(y, toVectors(X, bias), n, bias)
}

// fit trains on prob and records the fitted state.
func (e *estimator) fit(prob *sparse.Problem, nFeatures int, param linear.Parameter) error {
	e.logger.Info("fitting",
		log.OperationKey, log.OperationFit,
		log.SolverKey, param.SolverType.String(),
		log.SamplesKey, prob.L,
		log.FeaturesKey, nFeatures,
	)
	m, err := linear.Train(prob, param)
	if err != nil {
		return err
	}
	e.model = m
	e.state.SetFitted(nFeatures, prob.L)
	return nil
}

// vectors checks X against the fitted model and converts it. The bias
// feature is left out because the model applies its own.
func (e *estimator) vectors(method string, X mat.Matrix) ([]sparse.Vector, error) {
	if err := e.state.RequireFitted(method); err != nil {
		return nil, err
	}
	if err := checkX(e.name+"."+method, X); err != nil {
		return nil, err
	}
	_, c := X.Dims()
	if err := e.state.RequireFeatures(method, c); err != nil {
		return nil, err
	}
	return toVectors(X, -1), nil
}

func (e *estimator) predict(X mat.Matrix) (*mat.Dense, error) {
	xs, err := e.vectors("Predict", X)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(len(xs), 1, nil)
	for i, x := range xs {
		out.Set(i, 0, e.model.Predict(x))
	}
	return out, nil
}

// decisionFunction returns one column per stored decision function.
func (e *estimator) decisionFunction(X mat.Matrix) (*mat.Dense, error) {
	xs, err := e.vectors("DecisionFunction", X)
	if err != nil {
		return nil, err
	}
	nrW := e.model.NrW()
	out := mat.NewDense(len(xs), nrW, nil)
	dec := make([]float64, nrW)
	for i, x := range xs {
		e.model.PredictValues(x, dec)
		out.SetRow(i, dec)
	}
	return out, nil
}

// accuracy is the Score of classifiers.
func (e *estimator) accuracy(X, y mat.Matrix) (float64, error) {
	yTrue, err := checkXY(e.name+".Score", X, y)
	if err != nil {
		return 0, err
	}
	pred, err := e.predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(yTrue, mat.Col(nil, 0, pred))
}

// r2 is the Score of regressors.
func (e *estimator) r2(X, y mat.Matrix) (float64, error) {
	yTrue, err := checkXY(e.name+".Score", X, y)
	if err != nil {
		return 0, err
	}
	pred, err := e.predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(mat.NewVecDense(len(yTrue), yTrue), mat.NewVecDense(len(yTrue), mat.Col(nil, 0, pred)))
}

// Coef returns the weights as (decision functions)×(features). It is nil
// before fitting.
func (e *estimator) Coef() *mat.Dense {
	if !e.state.IsFitted() {
		return nil
	}
	m := e.model
	nrW := m.NrW()
	coef := mat.NewDense(nrW, m.NrFeature, nil)
	for j := 0; j < m.NrFeature; j++ {
		for k := 0; k < nrW; k++ {
			coef.Set(k, j, m.W[j*nrW+k])
		}
	}
	return coef
}

// Intercept returns the intercept of each decision function; zeros when the
// model has no bias term.
func (e *estimator) Intercept() []float64 {
	if !e.state.IsFitted() {
		return nil
	}
	m := e.model
	nrW := m.NrW()
	out := make([]float64, nrW)
	if m.Bias < 0 {
		return out
	}
	for k := range out {
		out[k] = m.Bias * m.W[m.NrFeature*nrW+k]
	}
	return out
}

// Model returns the trained model, or nil before fitting.
func (e *estimator) Model() *linear.Model {
	return e.model
}

func (e *estimator) exportWeights(params map[string]interface{}) (*model.ModelWeights, error) {
	if err := e.state.RequireFitted("ExportWeights"); err != nil {
		return nil, err
	}
	m := e.model
	mw := &model.ModelWeights{
		ModelType:       e.name,
		Version:         model.WeightsVersion,
		SolverType:      m.SolverType.String(),
		NrClass:         m.NrClass,
		NrFeature:       m.NrFeature,
		Labels:          m.Labels(),
		Bias:            m.Bias,
		Rho:             m.Rho,
		W:               slices.Clone(m.W),
		Hyperparameters: params,
		IsFitted:        true,
	}
	mw.Checksum = mw.ComputeChecksum()
	return mw, nil
}

// importWeights restores the model from mw. Hyperparameters are applied by
// the caller.
func (e *estimator) importWeights(mw *model.ModelWeights) error {
	if mw == nil {
		return errors.NewValueError(e.name+".ImportWeights", "weights cannot be nil")
	}
	if err := mw.Validate(); err != nil {
		return err
	}
	if mw.ModelType != e.name {
		return errors.NewValueError(e.name+".ImportWeights",
			fmt.Sprintf("model type mismatch: expected %s, got %s", e.name, mw.ModelType))
	}
	if !mw.IsFitted {
		e.model = nil
		e.state.Reset()
		return nil
	}
	st, err := linear.ParseSolverType(mw.SolverType)
	if err != nil {
		return err
	}
	m := &linear.Model{
		SolverType: st,
		NrClass:    mw.NrClass,
		NrFeature:  mw.NrFeature,
		Label:      slices.Clone(mw.Labels),
		Bias:       mw.Bias,
		Rho:        mw.Rho,
		W:          slices.Clone(mw.W),
	}
	if want := m.WSize() * m.NrW(); len(m.W) != want {
		return errors.NewDimensionError(e.name+".ImportWeights", want, len(m.W), 1)
	}
	e.model = m
	e.state.SetFitted(m.NrFeature, 0)
	return nil
}

// classWeights flattens a label→weight map in label order.
func classWeights(cw map[int]float64) ([]int, []float64) {
	if len(cw) == 0 {
		return nil, nil
	}
	labels := make([]int, 0, len(cw))
	for l := range cw {
		labels = append(labels, l)
	}
	slices.Sort(labels)
	weights := make([]float64, len(labels))
	for i, l := range labels {
		weights[i] = cw[l]
	}
	return labels, weights
}

// seed maps a random_state to a solver seed; negative draws one.
func seed(randomState int64) int64 {
	if randomState < 0 {
		return rand.Int63()
	}
	return randomState
}

// interceptBias returns the bias feature value for the intercept settings.
func interceptBias(fitIntercept bool, scaling float64) float64 {
	if !fitIntercept {
		return -1
	}
	return scaling
}

// Hyperparameter coercion for SetParams. JSON-decoded maps carry every
// number as float64.

func paramFloat(key string, v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	}
	return 0, errors.NewValidationError(key, "expected a number", v)
}

func paramInt(key string, v interface{}) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case float64:
		if x == math.Trunc(x) {
			return int64(x), nil
		}
	}
	return 0, errors.NewValidationError(key, "expected an integer", v)
}

func paramBool(key string, v interface{}) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return false, errors.NewValidationError(key, "expected a bool", v)
}

func paramString(key string, v interface{}) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", errors.NewValidationError(key, "expected a string", v)
}

// paramClassWeight accepts map[int]float64 or a JSON-decoded
// map[string]interface{} keyed by the label's decimal text.
func paramClassWeight(key string, v interface{}) (map[int]float64, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case map[int]float64:
		return x, nil
	case map[string]interface{}:
		out := make(map[int]float64, len(x))
		for k, w := range x {
			var label int
			if _, err := fmt.Sscan(k, &label); err != nil {
				return nil, errors.NewValidationError(key, "class weight keys must be integer labels", k)
			}
			f, err := paramFloat(key, w)
			if err != nil {
				return nil, err
			}
			out[label] = f
		}
		return out, nil
	}
	return nil, errors.NewValidationError(key, "expected map[int]float64", v)
}
