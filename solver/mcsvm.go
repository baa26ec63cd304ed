package solver

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/golinear/core/sparse"
)

// MCSVMCS is the Crammer–Singer multi-class SVM dual solver. Labels in the
// problem must be class indices 0..nrClass-1 and C holds the per-class cost.
// Weights are laid out feature-major: w[j*nrClass+m].
type MCSVMCS struct {
	prob    *sparse.Problem
	nrClass int
	c       []float64
	opts    Options

	b, g []float64
}

// NewMCSVMCS prepares a solver. opts.MaxIter is used as given.
func NewMCSVMCS(prob *sparse.Problem, nrClass int, c []float64, opts Options) *MCSVMCS {
	return &MCSVMCS{
		prob:    prob,
		nrClass: nrClass,
		c:       c,
		opts:    opts,
		b:       make([]float64, nrClass),
		g:       make([]float64, nrClass),
	}
}

// solveSubProblem minimizes the per-sample sub-problem over the active
// classes; the closed form sorts the shifted gradients in descending order.
func (s *MCSVMCS) solveSubProblem(ai float64, yi int, cyi float64, activeI int, alphaNew []float64) {
	d := make([]float64, activeI)
	copy(d, s.b[:activeI])
	if yi < activeI {
		d[yi] += ai * cyi
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(d)))

	beta := d[0] - ai*cyi
	r := 1
	for ; r < activeI && beta < float64(r)*d[r]; r++ {
		beta += d[r]
	}
	beta /= float64(r)

	for r := 0; r < activeI; r++ {
		if r == yi {
			alphaNew[r] = math.Min(cyi, (beta-s.b[r])/ai)
		} else {
			alphaNew[r] = math.Min(0, (beta-s.b[r])/ai)
		}
	}
}

func (s *MCSVMCS) beShrunk(i, m, yi int, alphaI, minG float64) bool {
	bound := 0.0
	if m == yi {
		bound = s.c[int(s.prob.Y[i])]
	}
	return alphaI == bound && s.g[m] < minG
}

// Solve overwrites w (length n*nrClass) with the solution.
func (s *MCSVMCS) Solve(w []float64) Result {
	prob := s.prob
	l, wSize, nrClass := prob.L, prob.N, s.nrClass
	opts := s.opts
	logger := opts.logger()
	eps := opts.Eps

	alpha := make([]float64, l*nrClass)
	alphaNew := make([]float64, nrClass)
	index := identity(l)
	qd := make([]float64, l)
	dInd := make([]int, nrClass)
	dVal := make([]float64, nrClass)
	alphaIndex := make([]int, nrClass*l)
	yIndex := make([]int, l)
	activeSizeI := make([]int, l)
	activeSize := l
	epsShrink := math.Max(10*eps, 1)
	startFromAll := true

	zero(w)
	for i := 0; i < l; i++ {
		for m := 0; m < nrClass; m++ {
			alphaIndex[i*nrClass+m] = m
		}
		qd[i] = sparse.Nrm2Sq(prob.X[i])
		activeSizeI[i] = nrClass
		yIndex[i] = int(prob.Y[i])
	}

	reset := func() {
		activeSize = l
		for i := range activeSizeI {
			activeSizeI[i] = nrClass
		}
	}

	iter := 0
	for iter < opts.MaxIter {
		stopping := -inf
		opts.shuffle(index, activeSize)

		for st := 0; st < activeSize; st++ {
			i := index[st]
			ai := qd[i]
			if ai <= 0 {
				continue
			}
			alphaI := alpha[i*nrClass : (i+1)*nrClass]
			alphaIndexI := alphaIndex[i*nrClass : (i+1)*nrClass]
			ci := s.c[int(prob.Y[i])]

			for m := 0; m < activeSizeI[i]; m++ {
				s.g[m] = 1
			}
			if yIndex[i] < activeSizeI[i] {
				s.g[yIndex[i]] = 0
			}
			for _, f := range prob.X[i] {
				wi := w[(f.Index-1)*nrClass:]
				for m := 0; m < activeSizeI[i]; m++ {
					s.g[m] += wi[alphaIndexI[m]] * f.Value
				}
			}

			minG, maxG := inf, -inf
			for m := 0; m < activeSizeI[i]; m++ {
				if alphaI[alphaIndexI[m]] < 0 && s.g[m] < minG {
					minG = s.g[m]
				}
				if s.g[m] > maxG {
					maxG = s.g[m]
				}
			}
			if yIndex[i] < activeSizeI[i] {
				if alphaI[int(prob.Y[i])] < ci && s.g[yIndex[i]] < minG {
					minG = s.g[yIndex[i]]
				}
			}

			if opts.Shrinking {
				for m := 0; m < activeSizeI[i]; m++ {
					if !s.beShrunk(i, m, yIndex[i], alphaI[alphaIndexI[m]], minG) {
						continue
					}
					activeSizeI[i]--
					for activeSizeI[i] > m {
						last := activeSizeI[i]
						if !s.beShrunk(i, last, yIndex[i], alphaI[alphaIndexI[last]], minG) {
							alphaIndexI[m], alphaIndexI[last] = alphaIndexI[last], alphaIndexI[m]
							s.g[m], s.g[last] = s.g[last], s.g[m]
							if yIndex[i] == last {
								yIndex[i] = m
							} else if yIndex[i] == m {
								yIndex[i] = last
							}
							break
						}
						activeSizeI[i]--
					}
				}

				if activeSizeI[i] <= 1 {
					activeSize--
					index[st], index[activeSize] = index[activeSize], index[st]
					st--
					continue
				}
			}

			if maxG-minG <= tiny {
				continue
			}
			stopping = math.Max(maxG-minG, stopping)

			for m := 0; m < activeSizeI[i]; m++ {
				s.b[m] = s.g[m] - ai*alphaI[alphaIndexI[m]]
			}

			s.solveSubProblem(ai, yIndex[i], ci, activeSizeI[i], alphaNew)
			nzD := 0
			for m := 0; m < activeSizeI[i]; m++ {
				d := alphaNew[m] - alphaI[alphaIndexI[m]]
				alphaI[alphaIndexI[m]] = alphaNew[m]
				if math.Abs(d) >= tiny {
					dInd[nzD] = alphaIndexI[m]
					dVal[nzD] = d
					nzD++
				}
			}

			for _, f := range prob.X[i] {
				wi := w[(f.Index-1)*nrClass:]
				for m := 0; m < nzD; m++ {
					wi[dInd[m]] += dVal[m] * f.Value
				}
			}
		}

		iter++

		if !opts.Shrinking {
			if stopping < eps {
				break
			}
			continue
		}
		if stopping < epsShrink {
			if stopping < eps && startFromAll {
				break
			}
			reset()
			logger.Debug("reactivating all variables", "iter", iter)
			epsShrink = math.Max(epsShrink/2, eps)
			startFromAll = true
		} else {
			startFromAll = false
		}
	}

	var v float64
	nSV := 0
	for _, wi := range w[:wSize*nrClass] {
		v += wi * wi
	}
	v *= 0.5
	for _, a := range alpha {
		v += a
		if math.Abs(a) > 0 {
			nSV++
		}
	}
	for i := 0; i < l; i++ {
		v -= alpha[i*nrClass+int(prob.Y[i])]
	}

	res := Result{Iterations: iter, Objective: v, NonZero: nSV, Alpha: alpha}
	res.finish(logger, "mcsvm_cs", opts.MaxIter)
	return res
}
