package linear

import (
	"math"

	"github.com/YuminosukeSato/golinear/core/sparse"
	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// Model は学習済みの線形モデル
//
// W has WSize()*NrW() entries; the weight of feature i (0-based) for
// decision function j is W[i*NrW()+j]. Two-class models other than
// Crammer–Singer store a single hyperplane whose decision value favours
// Label[0].
type Model struct {
	SolverType SolverType
	NrClass    int
	// NrFeature excludes the bias column.
	NrFeature int
	W         []float64
	// Label is nil for regression and one-class models.
	Label []int
	Bias  float64
	// Rho is the one-class offset; zero for other models.
	Rho float64
}

// NrW returns the number of decision functions stored in W.
func (m *Model) NrW() int {
	if m.NrClass == 2 && m.SolverType != MCSVMCS {
		return 1
	}
	return m.NrClass
}

// WSize returns the number of weight rows, including the bias row.
func (m *Model) WSize() int {
	if m.Bias >= 0 {
		return m.NrFeature + 1
	}
	return m.NrFeature
}

// IsProbabilityModel reports whether PredictProbability is supported.
func (m *Model) IsProbabilityModel() bool { return m.SolverType.IsProbability() }

// IsRegressionModel reports whether the model predicts real values.
func (m *Model) IsRegressionModel() bool { return m.SolverType.IsRegression() }

// IsOneClassModel reports whether the model is a one-class SVM.
func (m *Model) IsOneClassModel() bool { return m.SolverType.IsOneClass() }

// Labels returns a copy of the class labels.
func (m *Model) Labels() []int {
	if m.Label == nil {
		return nil
	}
	return append([]int(nil), m.Label...)
}

// PredictValues は x の決定値を dec に書き込み、予測ラベル（回帰では予測値）を返す
//
// dec must hold at least NrW() values. Features beyond NrFeature are
// ignored and the bias contribution comes from the model, so x may or may
// not carry the trailing bias feature.
func (m *Model) PredictValues(x sparse.Vector, dec []float64) float64 {
	nrW := m.NrW()
	for i := 0; i < nrW; i++ {
		dec[i] = 0
	}
	for _, f := range x {
		if f.Index > m.NrFeature {
			break
		}
		row := m.W[(f.Index-1)*nrW : f.Index*nrW]
		for i := range row {
			dec[i] += row[i] * f.Value
		}
	}
	if m.Bias >= 0 {
		row := m.W[m.NrFeature*nrW : (m.NrFeature+1)*nrW]
		for i := range row {
			dec[i] += row[i] * m.Bias
		}
	}

	switch {
	case m.IsOneClassModel():
		dec[0] -= m.Rho
		if dec[0] > 0 {
			return 1
		}
		return -1
	case m.IsRegressionModel():
		return dec[0]
	case m.NrClass == 2:
		if dec[0] > 0 {
			return float64(m.Label[0])
		}
		return float64(m.Label[1])
	default:
		best := 0
		for i := 1; i < m.NrClass; i++ {
			if dec[i] > dec[best] {
				best = i
			}
		}
		return float64(m.Label[best])
	}
}

// Predict は x の予測ラベル（回帰では予測値）を返す
func (m *Model) Predict(x sparse.Vector) float64 {
	dec := make([]float64, m.NrW())
	return m.PredictValues(x, dec)
}

// PredictProbability writes per-class probabilities into probEst (at least
// NrClass values, ordered as Label) and returns the predicted label. Only
// logistic regression models support it.
func (m *Model) PredictProbability(x sparse.Vector, probEst []float64) (float64, error) {
	if !m.IsProbabilityModel() {
		return 0, errors.Wrapf(errors.ErrNotProbabilityModel, "solver %s", m.SolverType)
	}
	if len(probEst) < m.NrClass {
		return 0, errors.NewDimensionError("Model.PredictProbability", m.NrClass, len(probEst), 0)
	}

	nrW := m.NrW()
	label := m.PredictValues(x, probEst)
	for i := 0; i < nrW; i++ {
		probEst[i] = errors.Sigmoid(probEst[i])
	}

	if m.NrClass == 2 {
		probEst[1] = 1 - probEst[0]
		return label, nil
	}
	var sum float64
	for i := 0; i < m.NrClass; i++ {
		sum += probEst[i]
	}
	for i := 0; i < m.NrClass; i++ {
		probEst[i] /= sum
	}
	return label, nil
}

// wValue returns the weight at row idx for label index labelIdx, with the
// sign flip of two-class models applied. Out-of-range indices give 0.
func (m *Model) wValue(idx, labelIdx int) float64 {
	if idx < 0 || idx > m.NrFeature || idx >= m.WSize() {
		return 0
	}
	if m.IsRegressionModel() || m.IsOneClassModel() {
		return m.W[idx]
	}
	if labelIdx < 0 || labelIdx >= m.NrClass {
		return 0
	}
	if m.NrClass == 2 && m.SolverType != MCSVMCS {
		if labelIdx == 0 {
			return m.W[idx]
		}
		return -m.W[idx]
	}
	return m.W[idx*m.NrClass+labelIdx]
}

// DecfunCoef returns the coefficient of feature featIdx (1-based) in the
// decision function of label index labelIdx.
func (m *Model) DecfunCoef(featIdx, labelIdx int) float64 {
	if featIdx > m.NrFeature {
		return 0
	}
	return m.wValue(featIdx-1, labelIdx)
}

// DecfunBias returns the intercept of the decision function of label index
// labelIdx. It is 0 when the model has no positive bias.
func (m *Model) DecfunBias(labelIdx int) (float64, error) {
	if m.IsOneClassModel() {
		return 0, errors.NewValueError("Model.DecfunBias", "one-class SVM models have no bias term; use DecfunRho")
	}
	if m.Bias <= 0 {
		return 0, nil
	}
	return m.Bias * m.wValue(m.NrFeature, labelIdx), nil
}

// DecfunRho returns the one-class offset.
func (m *Model) DecfunRho() (float64, error) {
	if !m.IsOneClassModel() {
		return 0, errors.Wrapf(errors.ErrNotOneClassModel, "solver %s", m.SolverType)
	}
	return m.Rho, nil
}

// Equal reports whether two models have the same fields. Weights compare
// with ==, so +0 and -0 are equal.
func (m *Model) Equal(o *Model) bool {
	if m.SolverType != o.SolverType || m.NrClass != o.NrClass || m.NrFeature != o.NrFeature ||
		!sameFloat(m.Bias, o.Bias) || !sameFloat(m.Rho, o.Rho) ||
		len(m.W) != len(o.W) || len(m.Label) != len(o.Label) || (m.Label == nil) != (o.Label == nil) {
		return false
	}
	for i := range m.W {
		if !sameFloat(m.W[i], o.W[i]) {
			return false
		}
	}
	for i := range m.Label {
		if m.Label[i] != o.Label[i] {
			return false
		}
	}
	return true
}

func sameFloat(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}
