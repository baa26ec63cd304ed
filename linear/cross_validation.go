package linear

import (
	"math"
	"math/rand"

	"github.com/YuminosukeSato/golinear/core/parallel"
	"github.com/YuminosukeSato/golinear/core/sparse"
	"github.com/YuminosukeSato/golinear/pkg/errors"
	"github.com/YuminosukeSato/golinear/pkg/log"
)

// folds is a random split of l samples into nrFold contiguous ranges of
// perm.
type folds struct {
	nrFold int
	perm   []int
	start  []int // length nrFold+1
}

func newFolds(l, nrFold int, seed int64, logger log.Logger) (folds, error) {
	if nrFold < 2 {
		return folds{}, errors.NewValidationError("nr_fold", "n-fold cross validation needs n >= 2", nrFold)
	}
	if nrFold > l {
		logger.Warn("number of folds exceeds number of samples; using leave-one-out", log.FoldsKey, nrFold, log.SamplesKey, l)
		nrFold = l
	}

	rng := rand.New(rand.NewSource(seed))
	perm := make([]int, l)
	for i := range perm {
		perm[i] = i
	}
	for i := 0; i < l; i++ {
		j := i + rng.Intn(l-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	start := make([]int, nrFold+1)
	for i := 0; i <= nrFold; i++ {
		start[i] = i * l / nrFold
	}
	return folds{nrFold: nrFold, perm: perm, start: start}, nil
}

// trainingSet returns the problem without fold i.
func (f folds) trainingSet(prob *sparse.Problem, i int) *sparse.Problem {
	begin, end := f.start[i], f.start[i+1]
	idx := make([]int, 0, prob.L-(end-begin))
	idx = append(idx, f.perm[:begin]...)
	idx = append(idx, f.perm[end:]...)
	return prob.Subset(idx)
}

// heldOut returns the sample indices of fold i.
func (f folds) heldOut(i int) []int {
	return f.perm[f.start[i]:f.start[i+1]]
}

// CrossValidation は nrFold 分割交差検証を行い、各サンプルの予測値を返す
//
// The folds are drawn from param.Seed. nrFold larger than the number of
// samples falls back to leave-one-out. NumThreads > 1 trains that many
// folds at a time.
func CrossValidation(prob *sparse.Problem, param Parameter, nrFold int) ([]float64, error) {
	if err := prob.Validate(); err != nil {
		return nil, err
	}
	if err := param.Validate(prob); err != nil {
		return nil, err
	}
	logger := log.GetLoggerWithName("linear.cv")
	f, err := newFolds(prob.L, nrFold, param.Seed, logger)
	if err != nil {
		return nil, err
	}

	// With several threads the folds train concurrently, each on one thread.
	workers := max(param.NumThreads, 1)
	if workers > 1 {
		param.NumThreads = 1
	}
	target := make([]float64, prob.L)
	errs := make([]error, f.nrFold)
	parallel.ParallelizeN(workers, f.nrFold, func(start, end int) {
		for i := start; i < end; i++ {
			sub, err := Train(f.trainingSet(prob, i), param)
			if err != nil {
				errs[i] = errors.Wrapf(err, "fold %d", i)
				return
			}
			for _, j := range f.heldOut(i) {
				target[j] = sub.Predict(prob.X[j])
			}
		}
	})
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	logger.Debug("cross validation finished", log.FoldsKey, f.nrFold, log.SolverKey, param.SolverType.String())
	return target, nil
}

// SearchStep is one evaluated (C, p) pair.
type SearchStep struct {
	C     float64
	P     float64
	Score float64
}

// SearchResult は FindParameters の結果
//
// Score is the cross-validation accuracy for classification and the mean
// squared error for regression. BestP is -1 for classification.
type SearchResult struct {
	BestC     float64
	BestP     float64
	BestScore float64
	Steps     []SearchStep
}

// Search limits.
const (
	maxSearchC    = 1024
	maxSearchCSVR = 1 << 20
	numPSteps     = 20
	searchRatio   = 2
	// the C sweep stops once every fold's weights stayed unchanged this many
	// times in a row
	maxUnchangedW = 5
)

// FindParameters は交差検証で C（SVR では p も）を探索する
//
// Supported for L2R_LR, L2R_L2LOSS_SVC and L2R_L2LOSS_SVR. C doubles from
// startC (computed from the data when startC <= 0) and each fold warm-starts
// from its previous solution. For SVR the p grid runs downward in 20 steps
// from max|y|, starting below startP when startP > 0.
func FindParameters(prob *sparse.Problem, param Parameter, nrFold int, startC, startP float64) (SearchResult, error) {
	switch param.SolverType {
	case L2RLogisticRegression, L2RL2LossSVC, L2RL2LossSVR:
	default:
		return SearchResult{}, errors.NewValidationError("solver_type",
			"parameter search is available only for L2R_LR, L2R_L2LOSS_SVC and L2R_L2LOSS_SVR", param.SolverType.String())
	}
	param.InitSol = nil
	if err := prob.Validate(); err != nil {
		return SearchResult{}, err
	}
	if err := param.Validate(prob); err != nil {
		return SearchResult{}, err
	}

	logger := log.GetLoggerWithName("linear.search")
	f, err := newFolds(prob.L, nrFold, param.Seed, logger)
	if err != nil {
		return SearchResult{}, err
	}
	subs := make([]*sparse.Problem, f.nrFold)
	for i := range subs {
		subs[i] = f.trainingSet(prob, i)
	}

	s := &search{prob: prob, folds: f, subs: subs, logger: logger}
	result := SearchResult{BestP: -1}

	if param.SolverType != L2RL2LossSVR {
		if startC <= 0 {
			startC = calcStartC(prob, param)
		}
		startC = math.Min(startC, maxSearchC)
		best, score, err := s.findC(param, startC, maxSearchC)
		if err != nil {
			return SearchResult{}, err
		}
		result.BestC, result.BestScore = best, score
		result.Steps = s.steps
		return result, nil
	}

	maxP := calcMaxP(prob)
	result.BestScore = math.Inf(1)
	i := numPSteps - 1
	if startP > 0 {
		i = min(int(startP/(maxP/numPSteps)), i)
	}
	for ; i >= 0; i-- {
		param.P = float64(i) * maxP / numPSteps
		c := startC
		if c <= 0 {
			c = calcStartC(prob, param)
		}
		c = math.Min(c, maxSearchCSVR)
		best, score, err := s.findC(param, c, maxSearchCSVR)
		if err != nil {
			return SearchResult{}, err
		}
		if score < result.BestScore {
			result.BestP, result.BestC, result.BestScore = param.P, best, score
		}
	}
	result.Steps = s.steps
	return result, nil
}

type search struct {
	prob   *sparse.Problem
	folds  folds
	subs   []*sparse.Problem
	logger log.Logger
	steps  []SearchStep
}

// findC sweeps C = startC, 2·startC, ... up to maxC.
func (s *search) findC(param Parameter, startC, maxC float64) (float64, float64, error) {
	prob := s.prob
	regression := param.SolverType == L2RL2LossSVR
	target := make([]float64, prob.L)
	prevW := make([][]float64, s.folds.nrFold)
	numUnchangedW := 0

	bestC, bestScore := startC, 0.0
	if regression {
		bestScore = math.Inf(1)
	}

	param.C = startC
	for param.C <= maxC {
		for i, sub := range s.subs {
			param.InitSol = prevW[i]
			m, err := Train(sub, param)
			if err != nil {
				return 0, 0, errors.Wrapf(err, "fold %d at C=%g", i, param.C)
			}

			switch {
			case prevW[i] == nil:
				prevW[i] = append([]float64(nil), m.W...)
			case numUnchangedW >= 0:
				var diff float64
				for j, v := range m.W {
					d := v - prevW[i][j]
					diff += d * d
				}
				if math.Sqrt(diff) > 1e-15 {
					numUnchangedW = -1
				}
				copy(prevW[i], m.W)
			default:
				copy(prevW[i], m.W)
			}

			for _, j := range s.folds.heldOut(i) {
				target[j] = m.Predict(prob.X[j])
			}
		}

		var score float64
		if regression {
			for i, y := range prob.Y {
				score += (target[i] - y) * (target[i] - y)
			}
			score /= float64(prob.L)
			if score < bestScore {
				bestC, bestScore = param.C, score
			}
			s.logger.Info("search step", log.CKey, param.C, log.PKey, param.P, log.MSEKey, score)
		} else {
			correct := 0
			for i, y := range prob.Y {
				if target[i] == y {
					correct++
				}
			}
			score = float64(correct) / float64(prob.L)
			if score > bestScore {
				bestC, bestScore = param.C, score
			}
			s.logger.Info("search step", log.CKey, param.C, log.AccuracyKey, score)
		}
		s.steps = append(s.steps, SearchStep{C: param.C, P: param.P, Score: score})

		numUnchangedW++
		if numUnchangedW == maxUnchangedW {
			break
		}
		param.C *= searchRatio
	}

	if param.C > maxC {
		s.logger.Warn("maximum C reached", log.CKey, maxC)
	}
	return bestC, bestScore, nil
}

// calcStartC returns a power of two below the smallest C for which the
// solution is not trivially zero.
func calcStartC(prob *sparse.Problem, param Parameter) float64 {
	maxXTx := 0.0
	for _, x := range prob.X {
		maxXTx = math.Max(maxXTx, sparse.Nrm2Sq(x))
	}
	l := float64(prob.L)

	minC := 1.0
	switch param.SolverType {
	case L2RLogisticRegression:
		minC = 1 / (l * maxXTx)
	case L2RL2LossSVC:
		minC = 1 / (2 * l * maxXTx)
	case L2RL2LossSVR:
		const delta2 = 0.1
		var sumY, loss float64
		for _, y := range prob.Y {
			yAbs := math.Abs(y)
			sumY += yAbs
			r := math.Max(yAbs-param.P, 0)
			loss += r * r
		}
		if loss > 0 {
			minC = delta2 * delta2 * loss / (8 * sumY * sumY * maxXTx)
		} else {
			minC = math.Inf(1)
		}
	}
	return math.Pow(2, math.Floor(math.Log2(minC)))
}

func calcMaxP(prob *sparse.Problem) float64 {
	maxP := 0.0
	for _, y := range prob.Y {
		maxP = math.Max(maxP, math.Abs(y))
	}
	return maxP
}
