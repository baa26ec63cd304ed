package linear

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/golinear/core/sparse"
	"github.com/YuminosukeSato/golinear/pkg/errors"
	"github.com/YuminosukeSato/golinear/pkg/log"
)

// tinyProblem は 4 サンプル 4 特徴量の線形分離可能なデータ
func tinyProblem() *sparse.Problem {
	x := []sparse.Vector{
		{{Index: 1, Value: 1}, {Index: 2, Value: 1}},
		{{Index: 3, Value: 1}},
		{{Index: 3, Value: 1}},
		{{Index: 1, Value: 2}, {Index: 2, Value: 1}, {Index: 4, Value: 1}},
	}
	return sparse.NewProblem([]float64{0, 1, 1, 0}, x, 4, -1)
}

// clusterProblem は nrClass 個のガウス分布クラスタから生成した問題
func clusterProblem(seed int64, nrClass, perClass int, bias float64) *sparse.Problem {
	rng := rand.New(rand.NewSource(seed))
	n := 2
	var y []float64
	var x []sparse.Vector
	for c := 0; c < nrClass; c++ {
		cx := 4 * math.Cos(2*math.Pi*float64(c)/float64(nrClass))
		cy := 4 * math.Sin(2*math.Pi*float64(c)/float64(nrClass))
		for i := 0; i < perClass; i++ {
			v := sparse.Vector{
				{Index: 1, Value: cx + 0.5*rng.NormFloat64()},
				{Index: 2, Value: cy + 0.5*rng.NormFloat64()},
			}
			if bias >= 0 {
				v = sparse.AppendBias(v, n+1, bias)
			}
			x = append(x, v)
			y = append(y, float64(c+1))
		}
	}
	if bias >= 0 {
		n++
	}
	return sparse.NewProblem(y, x, n, bias)
}

// linearTarget は y = 2*x1 - x2 + ノイズ の回帰問題
func linearTarget(seed int64, l int) *sparse.Problem {
	rng := rand.New(rand.NewSource(seed))
	y := make([]float64, l)
	x := make([]sparse.Vector, l)
	for i := range x {
		a, b := rng.Float64()*4-2, rng.Float64()*4-2
		x[i] = sparse.Vector{{Index: 1, Value: a}, {Index: 2, Value: b}}
		y[i] = 2*a - b + 0.01*rng.NormFloat64()
	}
	return sparse.NewProblem(y, x, 2, -1)
}

func silenceWarnings(t *testing.T) *[]error {
	t.Helper()
	var got []error
	var mu sync.Mutex
	errors.SetWarningHandler(func(w error) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, w)
	})
	t.Cleanup(func() { errors.SetWarningHandler(nil) })
	return &got
}

func TestTrainPredict(t *testing.T) {
	silenceWarnings(t)
	prob := tinyProblem()

	for _, st := range SolverTypes() {
		if st.IsRegression() || st.IsOneClass() {
			continue
		}
		for c := 0.1; c <= 100; c *= 1.2 {
			if st == L1RL2LossSVC && c < 0.2 {
				continue
			}
			if st == L1RLogisticRegression && c < 0.7 {
				continue
			}

			param := NewParameter(st, c, 0.1)
			m, err := Train(prob, param)
			require.NoError(t, err)

			if st == MCSVMCS {
				assert.Len(t, m.W, 8)
			} else {
				assert.Len(t, m.W, 4)
			}

			for i, x := range prob.X {
				pred := m.Predict(x)
				assert.Equal(t, prob.Y[i], pred, "solver %s C=%g sample %d", st, c, i)

				if !m.IsProbabilityModel() {
					continue
				}
				est := make([]float64, m.NrClass)
				p, err := m.PredictProbability(x, est)
				require.NoError(t, err)
				assert.Equal(t, pred, p)
				assert.GreaterOrEqual(t, est[int(p)], 1/float64(m.NrClass))
				assert.InDelta(t, 1.0, est[0]+est[1], 1e-12)
			}
		}
	}
}

func TestWeightLayout(t *testing.T) {
	silenceWarnings(t)
	prob := clusterProblem(3, 3, 20, 1)

	tests := []struct {
		solver SolverType
		nrW    int
	}{
		{L2RLogisticRegression, 3},
		{L2RL2LossSVCDual, 3},
		{L1RL2LossSVC, 3},
		{MCSVMCS, 3},
	}
	for _, tt := range tests {
		t.Run(tt.solver.String(), func(t *testing.T) {
			m, err := Train(prob, NewParameter(tt.solver, 1, 0))
			require.NoError(t, err)
			assert.Equal(t, 3, m.NrClass)
			assert.Equal(t, 2, m.NrFeature)
			assert.Equal(t, tt.nrW, m.NrW())
			assert.Len(t, m.W, prob.N*tt.nrW)
			assert.Equal(t, []int{1, 2, 3}, m.Labels())

			correct := 0
			for i, x := range prob.X {
				if m.Predict(x) == prob.Y[i] {
					correct++
				}
			}
			assert.GreaterOrEqual(t, float64(correct)/float64(prob.L), 0.95)
		})
	}

	t.Run("binary", func(t *testing.T) {
		bin := clusterProblem(4, 2, 20, 1)
		m, err := Train(bin, NewParameter(L2RL2LossSVC, 1, 0))
		require.NoError(t, err)
		assert.Equal(t, 1, m.NrW())
		assert.Len(t, m.W, bin.N)
	})
}

func TestRegressionSolvers(t *testing.T) {
	silenceWarnings(t)
	prob := linearTarget(5, 80)

	for _, st := range []SolverType{L2RL2LossSVR, L2RL2LossSVRDual, L2RL1LossSVRDual} {
		t.Run(st.String(), func(t *testing.T) {
			param := NewParameter(st, 10, 0)
			param.P = 0.01
			m, err := Train(prob, param)
			require.NoError(t, err)
			assert.True(t, m.IsRegressionModel())
			assert.Nil(t, m.Label)
			assert.Len(t, m.W, 2)
			assert.InDelta(t, 2.0, m.W[0], 0.1)
			assert.InDelta(t, -1.0, m.W[1], 0.1)

			x := sparse.Vector{{Index: 1, Value: 1}, {Index: 2, Value: 1}}
			assert.InDelta(t, 1.0, m.Predict(x), 0.2)
		})
	}
}

func TestOneClass(t *testing.T) {
	silenceWarnings(t)
	prob := clusterProblem(6, 1, 60, -1)
	param := NewParameter(OneClassSVM, 1, 0)
	param.Nu = 0.1

	m, err := Train(prob, param)
	require.NoError(t, err)
	assert.True(t, m.IsOneClassModel())

	rho, err := m.DecfunRho()
	require.NoError(t, err)
	assert.Equal(t, m.Rho, rho)

	outliers := 0
	for _, x := range prob.X {
		p := m.Predict(x)
		assert.Contains(t, []float64{-1, 1}, p)
		if p < 0 {
			outliers++
		}
	}
	assert.LessOrEqual(t, outliers, 12)

	_, err = m.DecfunBias(0)
	assert.Error(t, err)

	_, err = Train(clusterProblem(6, 1, 10, 1), param)
	assert.Error(t, err)
}

func TestZeroIterationCaps(t *testing.T) {
	warnings := silenceWarnings(t)
	cls := tinyProblem()
	reg := linearTarget(7, 20)

	for _, st := range SolverTypes() {
		t.Run(st.String(), func(t *testing.T) {
			prob := cls
			if st.IsRegression() {
				prob = reg
			}
			param := NewParameter(st, 1, 0)
			param.MaxIter = 0
			param.DualMaxIter = 0

			m, err := Train(prob, param)
			require.NoError(t, err)
			assert.Len(t, m.W, prob.N*m.NrW())
			for _, x := range prob.X {
				v := m.Predict(x)
				assert.False(t, math.IsNaN(v))
			}
		})
	}
	assert.NotEmpty(t, *warnings)
}

func TestInitialSolution(t *testing.T) {
	silenceWarnings(t)
	prob := clusterProblem(8, 2, 30, 1)
	param := NewParameter(L2RLogisticRegression, 1, 0.001)

	cold, err := Train(prob, param)
	require.NoError(t, err)

	param.InitSol = append([]float64(nil), cold.W...)
	warm, err := Train(prob, param)
	require.NoError(t, err)
	assert.InDeltaSlice(t, cold.W, warm.W, 1e-2)

	param.InitSol = []float64{1}
	_, err = Train(prob, param)
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))
}

func TestClassWeights(t *testing.T) {
	silenceWarnings(t)
	prob := clusterProblem(9, 2, 20, 1)

	param := NewParameter(L2RL2LossSVCDual, 1, 0)
	param.WeightLabel = []int{2}
	param.Weight = []float64{5}
	_, err := Train(prob, param)
	require.NoError(t, err)

	param.WeightLabel = []int{42}
	_, err = Train(prob, param)
	var verr *errors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "weight_label", verr.ParamName)
}

func TestParameterValidate(t *testing.T) {
	biased := clusterProblem(10, 2, 5, 1)
	unbiased := clusterProblem(10, 2, 5, -1)

	tests := []struct {
		name   string
		modify func(p *Parameter)
		prob   *sparse.Problem
		field  string
	}{
		{"unknown solver", func(p *Parameter) { p.SolverType = 8 }, nil, "solver_type"},
		{"zero eps", func(p *Parameter) { p.Eps = 0 }, nil, "eps"},
		{"negative C", func(p *Parameter) { p.C = -1 }, nil, "C"},
		{"negative p", func(p *Parameter) { p.SolverType = L2RL2LossSVR; p.P = -0.1 }, nil, "p"},
		{"nu above one", func(p *Parameter) { p.SolverType = OneClassSVM; p.Nu = 1.5 }, nil, "nu"},
		{"negative max iter", func(p *Parameter) { p.MaxIter = -1 }, nil, "max_iter"},
		{"weight length", func(p *Parameter) { p.Weight = []float64{1} }, nil, "weight"},
		{"zero weight", func(p *Parameter) { p.WeightLabel = []int{1}; p.Weight = []float64{0} }, nil, "weight"},
		{"bias regularization", func(p *Parameter) { p.SolverType = MCSVMCS; p.RegularizeBias = false }, nil, "regularize_bias"},
		{"init sol", func(p *Parameter) { p.SolverType = L2RL1LossSVCDual; p.InitSol = []float64{0} }, nil, "init_sol"},
		{"one-class bias", func(p *Parameter) { p.SolverType = OneClassSVM }, biased, "bias"},
		{"unregularized bias", func(p *Parameter) { p.RegularizeBias = false }, unbiased, "bias"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParameter(L2RLogisticRegression, 1, 0.01)
			tt.modify(&p)
			err := p.Validate(tt.prob)
			var verr *errors.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.ParamName)
		})
	}

	p := NewParameter(L2RL2LossSVC, 1, 0)
	p.RegularizeBias = false
	assert.NoError(t, p.Validate(biased))
}

func TestNewParameterDefaults(t *testing.T) {
	p := NewParameter(L2RL2LossSVCDual, 2, 0)
	assert.Equal(t, 0.1, p.Eps)
	assert.Equal(t, DefaultMaxIter, p.MaxIter)
	assert.Equal(t, DefaultDualMaxIter, p.DualMaxIter)
	assert.Equal(t, DefaultP, p.P)
	assert.Equal(t, DefaultNu, p.Nu)
	assert.True(t, p.RegularizeBias)

	assert.Equal(t, 0.01, L2RLogisticRegression.DefaultEps())
	assert.Equal(t, 0.0001, L2RL2LossSVR.DefaultEps())
	assert.Equal(t, 0.1, MCSVMCS.DefaultEps())
	assert.Equal(t, 100*DefaultMaxIter, NewParameter(MCSVMCS, 1, 0).solverMaxIter())
}

func TestParseSolverType(t *testing.T) {
	for _, st := range SolverTypes() {
		got, err := ParseSolverType(st.String())
		require.NoError(t, err)
		assert.Equal(t, st, got)

		got, err = ParseSolverType(fmt.Sprint(int(st)))
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}
	got, err := ParseSolverType("l2r_lr")
	require.NoError(t, err)
	assert.Equal(t, L2RLogisticRegression, got)

	for _, bad := range []string{"8", "L3R_LR", ""} {
		_, err := ParseSolverType(bad)
		assert.Error(t, err, bad)
	}
	assert.Equal(t, "SolverType(9)", SolverType(9).String())
}

func TestGroupClasses(t *testing.T) {
	t.Run("first occurrence order", func(t *testing.T) {
		prob := sparse.NewProblem([]float64{3, 1, 3, 2, 1}, make([]sparse.Vector, 5), 1, -1)
		g := groupClasses(prob)
		assert.Equal(t, []int{3, 1, 2}, g.label)
		assert.Equal(t, []int{2, 2, 1}, g.count)
		assert.Equal(t, []int{0, 2, 4}, g.start)
		assert.Equal(t, []int{0, 2, 1, 4, 3}, g.perm)
	})
	t.Run("minus one first is swapped", func(t *testing.T) {
		prob := sparse.NewProblem([]float64{-1, 1, -1}, make([]sparse.Vector, 3), 1, -1)
		g := groupClasses(prob)
		assert.Equal(t, []int{1, -1}, g.label)
		assert.Equal(t, []int{1, 2}, g.count)
		assert.Equal(t, []int{1, 0, 2}, g.perm)
	})
}

func TestPredictProbabilityErrors(t *testing.T) {
	silenceWarnings(t)
	prob := tinyProblem()

	svm, err := Train(prob, NewParameter(L2RL2LossSVCDual, 1, 0))
	require.NoError(t, err)
	_, err = svm.PredictProbability(prob.X[0], make([]float64, 2))
	assert.True(t, errors.Is(err, errors.ErrNotProbabilityModel))

	lr, err := Train(prob, NewParameter(L2RLogisticRegression, 1, 0))
	require.NoError(t, err)
	_, err = lr.PredictProbability(prob.X[0], make([]float64, 1))
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))

	_, err = lr.DecfunRho()
	assert.True(t, errors.Is(err, errors.ErrNotOneClassModel))
}

func TestDecisionFunctionAccessors(t *testing.T) {
	silenceWarnings(t)
	prob := clusterProblem(11, 2, 20, 1)
	m, err := Train(prob, NewParameter(L2RLogisticRegression, 1, 0))
	require.NoError(t, err)

	for j := 1; j <= m.NrFeature; j++ {
		assert.Equal(t, m.W[j-1], m.DecfunCoef(j, 0))
		assert.Equal(t, -m.W[j-1], m.DecfunCoef(j, 1))
	}
	b0, err := m.DecfunBias(0)
	require.NoError(t, err)
	b1, err := m.DecfunBias(1)
	require.NoError(t, err)
	assert.Equal(t, m.W[m.NrFeature]*m.Bias, b0)
	assert.Equal(t, -b0, b1)

	assert.Zero(t, m.DecfunCoef(m.NrFeature+1, 0))
	assert.Zero(t, m.DecfunCoef(1, 5))

	// the bias feature in x is ignored, the model's bias is used instead
	x := sparse.Vector{{Index: 1, Value: 1}, {Index: 2, Value: -1}}
	dec := make([]float64, 1)
	m.PredictValues(x, dec)
	assert.InDelta(t, m.W[0]-m.W[1]+b0, dec[0], 1e-12)
}

func TestModelRoundTrip(t *testing.T) {
	silenceWarnings(t)

	t.Run("trained models", func(t *testing.T) {
		for _, st := range SolverTypes() {
			var prob *sparse.Problem
			switch {
			case st.IsRegression():
				prob = linearTarget(12, 30)
			case st.IsOneClass():
				prob = clusterProblem(12, 1, 30, -1)
			default:
				prob = clusterProblem(12, 3, 10, 1)
			}
			m, err := Train(prob, NewParameter(st, 1, 0))
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, m.Encode(&buf))
			got, err := DecodeModel(&buf)
			require.NoError(t, err, st.String())
			assert.True(t, m.Equal(got), st.String())
		}
	})

	t.Run("signed zero and file", func(t *testing.T) {
		m := &Model{
			SolverType: L2RL2LossSVC,
			NrClass:    2,
			NrFeature:  3,
			Label:      []int{1, -1},
			Bias:       -1,
			W:          []float64{0, math.Copysign(0, -1), 1e-300},
		}
		path := filepath.Join(t.TempDir(), "signed.model")
		require.NoError(t, SaveModel(path, m))
		got, err := LoadModel(path)
		require.NoError(t, err)
		assert.True(t, m.Equal(got))
		assert.True(t, math.Signbit(got.W[1]))
		assert.False(t, math.Signbit(got.W[0]))
	})

	t.Run("format", func(t *testing.T) {
		m := &Model{SolverType: OneClassSVM, NrClass: 2, NrFeature: 2, Bias: -1, Rho: 0.5, W: []float64{0.25, -1}}
		var buf bytes.Buffer
		require.NoError(t, m.Encode(&buf))
		want := "solver_type ONECLASS_SVM\nnr_class 2\nnr_feature 2\nbias -1\nrho 0.5\nw\n0.25 \n-1 \n"
		assert.Equal(t, want, buf.String())
	})
}

func TestDecodeModelErrors(t *testing.T) {
	header := "solver_type L2R_LR\nnr_class 2\nlabel 1 -1\nnr_feature 2\nbias -1\nw\n"
	tests := []struct {
		name string
		text string
	}{
		{"unknown key", "colour blue\n" + header + "1\n2\n"},
		{"duplicate key", "nr_class 2\n" + header + "1\n2\n"},
		{"missing w", "solver_type L2R_LR\nnr_class 2\nlabel 1 -1\nnr_feature 2\nbias -1\n"},
		{"too few weights", header + "1\n"},
		{"too many weights", header + "1\n2\n3\n"},
		{"bad weight", header + "1\nx\n"},
		{"label count", strings.Replace(header, "label 1 -1", "label 1", 1) + "1\n2\n"},
		{"bad solver", strings.Replace(header, "L2R_LR", "SVM", 1) + "1\n2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeModel(strings.NewReader(tt.text))
			require.Error(t, err)
			var perr *errors.ParseError
			assert.True(t, errors.As(err, &perr), "got %v", err)
		})
	}

	m, err := DecodeModel(strings.NewReader(header + "1 2\n"))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, m.W)
}

func TestCrossValidation(t *testing.T) {
	silenceWarnings(t)
	prob := clusterProblem(13, 4, 15, 1)
	param := NewParameter(L2RLogisticRegression, 10, 0)

	target, err := CrossValidation(prob, param, 5)
	require.NoError(t, err)
	require.Len(t, target, prob.L)
	correct := 0
	for i, v := range target {
		assert.Contains(t, []float64{1, 2, 3, 4}, v)
		if v == prob.Y[i] {
			correct++
		}
	}
	assert.GreaterOrEqual(t, float64(correct)/float64(prob.L), 0.9)

	again, err := CrossValidation(prob, param, 5)
	require.NoError(t, err)
	assert.Equal(t, target, again)

	loo, err := CrossValidation(tinyProblem(), NewParameter(L2RL2LossSVCDual, 1, 0), 10)
	require.NoError(t, err)
	assert.Len(t, loo, 4)

	_, err = CrossValidation(prob, param, 1)
	assert.Error(t, err)
}

func TestFindParameters(t *testing.T) {
	silenceWarnings(t)

	t.Run("classification", func(t *testing.T) {
		prob := clusterProblem(14, 2, 20, 1)
		res, err := FindParameters(prob, NewParameter(L2RLogisticRegression, 1, 0), 5, -1, -1)
		require.NoError(t, err)
		assert.Equal(t, -1.0, res.BestP)
		assert.Greater(t, res.BestC, 0.0)
		assert.LessOrEqual(t, res.BestC, float64(maxSearchC))
		assert.GreaterOrEqual(t, res.BestScore, 0.9)
		require.NotEmpty(t, res.Steps)
		for i := 1; i < len(res.Steps); i++ {
			assert.Equal(t, 2*res.Steps[i-1].C, res.Steps[i].C)
		}
	})

	t.Run("regression", func(t *testing.T) {
		prob := linearTarget(15, 40)
		res, err := FindParameters(prob, NewParameter(L2RL2LossSVR, 1, 0), 4, -1, 0.5)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.BestP, 0.0)
		assert.Less(t, res.BestP, calcMaxP(prob))
		assert.Less(t, res.BestScore, 0.5)
	})

	t.Run("unsupported solver", func(t *testing.T) {
		_, err := FindParameters(tinyProblem(), NewParameter(MCSVMCS, 1, 0), 2, -1, -1)
		var verr *errors.ValidationError
		assert.True(t, errors.As(err, &verr))
	})
}

func TestCalcStartC(t *testing.T) {
	prob := sparse.NewProblem([]float64{1, -1},
		[]sparse.Vector{{{Index: 1, Value: 2}}, {{Index: 1, Value: 1}}}, 1, -1)

	// max xTx = 4, l = 2
	assert.Equal(t, 0.125, calcStartC(prob, NewParameter(L2RLogisticRegression, 1, 0)))
	assert.Equal(t, 0.0625, calcStartC(prob, NewParameter(L2RL2LossSVC, 1, 0)))

	p := NewParameter(L2RL2LossSVR, 1, 0)
	p.P = 10
	assert.True(t, math.IsInf(calcStartC(prob, p), 1))
}

func TestIterationCapIsLogged(t *testing.T) {
	silenceWarnings(t)
	provider, raw := log.NewTestLoggerProvider(log.LevelDebug)
	log.SetProvider(provider)
	defer log.SetProvider(nil)

	param := NewParameter(L2RL1LossSVCDual, 1, 0)
	param.DualMaxIter = 1
	_, err := Train(tinyProblem(), param)
	require.NoError(t, err)

	captured := provider.Logger()
	assert.True(t, captured.ContainsMessage("reaching max number of iterations"))
	assert.True(t, captured.ContainsField(log.SolverKey, "L2R_L1LOSS_SVC_DUAL"))
	assert.True(t, captured.ContainsField(log.RoutineKey, "l2r_l1_svc_dual"))
	assert.True(t, captured.ContainsMessage("training finished"))

	// each record names the solver type once
	for _, line := range strings.Split(strings.TrimSpace(raw.String()), "\n") {
		assert.LessOrEqual(t, strings.Count(line, `"`+log.SolverKey+`"`), 1, line)
	}
}

func TestCrossValidationThreads(t *testing.T) {
	silenceWarnings(t)
	prob := clusterProblem(7, 3, 12, 1)
	param := NewParameter(L2RL2LossSVCDual, 1, 0)

	sequential, err := CrossValidation(prob, param, 4)
	require.NoError(t, err)

	param.NumThreads = 3
	concurrent, err := CrossValidation(prob, param, 4)
	require.NoError(t, err)
	assert.Equal(t, sequential, concurrent)
}
