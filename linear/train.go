package linear

import (
	"math"
	"math/rand"

	"github.com/YuminosukeSato/golinear/core/parallel"
	"github.com/YuminosukeSato/golinear/core/sparse"
	"github.com/YuminosukeSato/golinear/objective"
	"github.com/YuminosukeSato/golinear/optimize"
	"github.com/YuminosukeSato/golinear/pkg/errors"
	"github.com/YuminosukeSato/golinear/pkg/log"
	"github.com/YuminosukeSato/golinear/solver"
)

// Train はモデルを学習する
//
// 問題とパラメータを検査し、不正な入力はソルバーを動かす前にエラーとして返す。
// 反復上限への到達などの収束に関する事象はエラーにせず、警告として通知する。
func Train(prob *sparse.Problem, param Parameter) (*Model, error) {
	if err := prob.Validate(); err != nil {
		return nil, err
	}
	if err := param.Validate(prob); err != nil {
		return nil, err
	}
	return newTrainer(prob, param).train()
}

type trainer struct {
	prob   *sparse.Problem
	param  Parameter
	rng    *rand.Rand
	pool   *parallel.Pool
	logger log.Logger
}

func newTrainer(prob *sparse.Problem, param Parameter) *trainer {
	t := &trainer{
		prob:  prob,
		param: param,
		rng:   rand.New(rand.NewSource(param.Seed)),
		logger: log.GetLoggerWithName("linear").With(
			log.SolverKey, param.SolverType.String(),
			log.SamplesKey, prob.L,
			log.FeaturesKey, prob.N,
		),
	}
	if param.NumThreads > 1 {
		t.pool = parallel.NewPool(param.NumThreads)
	}
	return t
}

func checkSize(n, nrClass int) error {
	if int64(n)*int64(nrClass) > math.MaxInt32 {
		return errors.NewValidationError("n", "number of weights n*nr_class exceeds the int32 range", int64(n)*int64(nrClass))
	}
	return nil
}

func (t *trainer) train() (*Model, error) {
	prob, param := t.prob, t.param
	n := prob.N

	m := &Model{SolverType: param.SolverType, Bias: prob.Bias, NrFeature: n}
	if prob.Bias >= 0 {
		m.NrFeature = n - 1
	}

	t.logger.Info("training started", log.CKey, param.C, log.ToleranceKey, param.Eps)

	switch {
	case param.SolverType.IsRegression():
		if err := checkSize(n, 1); err != nil {
			return nil, err
		}
		m.NrClass = 2
		m.W = make([]float64, n)
		if param.InitSol != nil {
			if len(param.InitSol) != n {
				return nil, errors.NewDimensionError("Train", n, len(param.InitSol), 0)
			}
			copy(m.W, param.InitSol)
		}
		t.trainOne(prob, m.W, 0, 0)

	case param.SolverType.IsOneClass():
		if err := checkSize(n, 1); err != nil {
			return nil, err
		}
		m.NrClass = 2
		m.W = make([]float64, n)
		opts := t.solverOptions(param.Eps, param.MaxIter)
		rho, res := solver.SolveOneClass(prob, m.W, param.Nu, opts)
		m.Rho = rho
		t.warnIfCapped(res, "ONECLASS_SVM")

	default:
		if err := t.trainClassifier(m); err != nil {
			return nil, err
		}
	}

	t.logger.Info("training finished", log.ClassesKey, m.NrClass)
	return m, nil
}

func (t *trainer) trainClassifier(m *Model) error {
	prob, param := t.prob, t.param
	l, n := prob.L, prob.N

	g := groupClasses(prob)
	nrClass := g.nrClass()
	if err := checkSize(n, nrClass); err != nil {
		return err
	}
	m.NrClass = nrClass
	m.Label = g.label

	weightedC := make([]float64, nrClass)
	for i := range weightedC {
		weightedC[i] = param.C
	}
	for j, wl := range param.WeightLabel {
		found := false
		for i, lab := range g.label {
			if lab == wl {
				weightedC[i] *= param.Weight[j]
				found = true
				break
			}
		}
		if !found {
			return errors.NewValidationError("weight_label", "class label not found in the training data", wl)
		}
	}

	sub := &sparse.Problem{L: l, N: n, Y: make([]float64, l), X: make([]sparse.Vector, l), Bias: prob.Bias}
	for k, i := range g.perm {
		sub.X[k] = prob.X[i]
	}
	// fill sets sub.Y to +1 for class c and -1 elsewhere.
	fill := func(c int) {
		for k := range sub.Y {
			sub.Y[k] = -1
		}
		for k := g.start[c]; k < g.start[c]+g.count[c]; k++ {
			sub.Y[k] = 1
		}
	}

	switch {
	case param.SolverType == MCSVMCS:
		m.W = make([]float64, n*nrClass)
		for c := 0; c < nrClass; c++ {
			for k := g.start[c]; k < g.start[c]+g.count[c]; k++ {
				sub.Y[k] = float64(c)
			}
		}
		opts := t.solverOptions(param.Eps, param.solverMaxIter())
		res := solver.NewMCSVMCS(sub, nrClass, weightedC, opts).Solve(m.W)
		t.warnIfCapped(res, MCSVMCS.String())

	case nrClass == 2:
		m.W = make([]float64, n)
		if param.InitSol != nil {
			if len(param.InitSol) != n {
				return errors.NewDimensionError("Train", n, len(param.InitSol), 0)
			}
			copy(m.W, param.InitSol)
		}
		fill(0)
		t.trainOne(sub, m.W, weightedC[0], weightedC[1])

	default:
		if param.InitSol != nil && len(param.InitSol) != n*nrClass {
			return errors.NewDimensionError("Train", n*nrClass, len(param.InitSol), 0)
		}
		m.W = make([]float64, n*nrClass)
		w := make([]float64, n)
		for c := 0; c < nrClass; c++ {
			fill(c)
			for j := range w {
				w[j] = 0
				if param.InitSol != nil {
					w[j] = param.InitSol[j*nrClass+c]
				}
			}
			t.logger.Debug("one-vs-rest sub-problem", "class", g.label[c])
			t.trainOne(sub, w, weightedC[c], param.C)
			for j := 0; j < n; j++ {
				m.W[j*nrClass+c] = w[j]
			}
		}
	}
	return nil
}

func (t *trainer) solverOptions(eps float64, maxIter int) solver.Options {
	return solver.Options{
		Eps:       eps,
		MaxIter:   maxIter,
		Shrinking: !t.param.DisableShrinking,
		Rand:      t.rng,
		Logger:    t.logger,
	}
}

func (t *trainer) warnIfCapped(res solver.Result, name string) {
	if res.ReachedMaxIter {
		errors.Warn(errors.NewConvergenceWarning(name, res.Iterations, "reached the maximum number of iterations"))
	}
}

// costs returns the per-sample cost cp for positive labels and cn otherwise.
func costs(prob *sparse.Problem, cp, cn float64) []float64 {
	c := make([]float64, prob.L)
	for i, y := range prob.Y {
		if y > 0 {
			c[i] = cp
		} else {
			c[i] = cn
		}
	}
	return c
}

// minimize runs the configured primal optimizer on fun starting from w.
func (t *trainer) minimize(fun optimize.LineSearchFunction, eps float64, w []float64, warm bool) optimize.Result {
	var opt interface {
		optimize.Minimizer
		SetLogger(log.Logger)
	}
	switch t.param.Optimizer {
	case TrustRegion:
		epsCG := 0.1
		if warm {
			epsCG = 0.5
		}
		opt = optimize.NewTron(fun, eps, epsCG, t.param.MaxIter)
	default:
		opt = optimize.NewNewton(fun, eps, 0.5, t.param.MaxIter)
	}
	opt.SetLogger(t.logger)
	res := opt.Minimize(w)
	if res.Status == optimize.MaxIterations {
		errors.Warn(errors.NewConvergenceWarning(t.param.Optimizer.String(), res.Iterations, "reached the maximum number of iterations"))
	}
	return res
}

// trainOne solves one binary (or regression) problem into w. cp and cn are
// ignored for regression, which uses param.C for every sample.
func (t *trainer) trainOne(prob *sparse.Problem, w []float64, cp, cn float64) {
	param := t.param
	l := prob.L
	pos := 0
	for _, y := range prob.Y {
		if y > 0 {
			pos++
		}
	}
	neg := l - pos
	primalTol := param.Eps * float64(max(min(pos, neg), 1)) / float64(l)

	warm := param.InitSol != nil
	cfg := objective.Config{C: costs(prob, cp, cn), RegularizeBias: param.RegularizeBias}
	regCfg := func() objective.Config {
		c := make([]float64, l)
		for i := range c {
			c[i] = param.C
		}
		return objective.Config{C: c, RegularizeBias: param.RegularizeBias}
	}
	logisticCfg := cfg
	logisticCfg.Pool = t.pool

	// fallback re-solves from the dual solution when the dual hit its cap.
	fallback := func(res solver.Result, to SolverType, tol float64, fun func() optimize.LineSearchFunction) {
		if !res.ReachedMaxIter {
			return
		}
		errors.Warn(errors.NewSolverFallbackWarning(param.SolverType.String(), to.String(), tol))
		t.minimize(fun(), tol, w, true)
	}

	dualOpts := t.solverOptions(param.Eps, param.DualMaxIter)

	switch param.SolverType {
	case L2RLogisticRegression:
		t.minimize(objective.NewLogistic(prob, logisticCfg), primalTol, w, warm)

	case L2RL2LossSVC:
		t.minimize(objective.NewSquaredHinge(prob, cfg), primalTol, w, warm)

	case L2RL2LossSVCDual:
		res := solver.SolveL2RL1L2SVC(prob, w, cp, cn, solver.L2Loss, dualOpts)
		fallback(res, L2RL2LossSVC, primalTol*0.1, func() optimize.LineSearchFunction {
			return objective.NewSquaredHinge(prob, cfg)
		})

	case L2RL1LossSVCDual:
		res := solver.SolveL2RL1L2SVC(prob, w, cp, cn, solver.L1Loss, dualOpts)
		t.warnIfCapped(res, param.SolverType.String())

	case L2RLogisticRegressionDual:
		res := solver.SolveL2RLRDual(prob, w, cp, cn, dualOpts)
		fallback(res, L2RLogisticRegression, primalTol*0.1, func() optimize.LineSearchFunction {
			return objective.NewLogistic(prob, logisticCfg)
		})

	case L1RL2LossSVC:
		res := solver.SolveL1RL2SVC(sparse.Transpose(prob), w, cp, cn, param.RegularizeBias,
			t.solverOptions(primalTol, param.MaxIter))
		t.warnIfCapped(res, param.SolverType.String())

	case L1RLogisticRegression:
		res := solver.SolveL1RLR(sparse.Transpose(prob), w, cp, cn, param.RegularizeBias,
			t.solverOptions(primalTol, param.MaxIter))
		t.warnIfCapped(res, param.SolverType.String())

	case L2RL2LossSVR:
		t.minimize(objective.NewSquaredEpsilonInsensitive(prob, regCfg(), param.P), param.Eps, w, warm)

	case L2RL2LossSVRDual:
		res := solver.SolveL2RL1L2SVR(prob, w, param.C, param.P, solver.L2Loss, dualOpts)
		fallback(res, L2RL2LossSVR, param.Eps*0.001, func() optimize.LineSearchFunction {
			return objective.NewSquaredEpsilonInsensitive(prob, regCfg(), param.P)
		})

	case L2RL1LossSVRDual:
		res := solver.SolveL2RL1L2SVR(prob, w, param.C, param.P, solver.L1Loss, dualOpts)
		t.warnIfCapped(res, param.SolverType.String())
	}
}
