package solver

import (
	"math"

	"github.com/YuminosukeSato/golinear/core/sparse"
)

// SolveL2RL1L2SVR solves the dual of L2-regularized L1- or L2-loss support
// vector regression
//
//	min_β ½βᵀQβ - yᵀβ + p·Σ|βᵢ| + ½λ·Σβᵢ²,  -U ≤ βᵢ ≤ U
//
// For L1 loss λ = 0 and U = c; for L2 loss λ = 0.5/c and U = ∞.
// The outer loop stops once the sum of violations drops below eps times
// its value at the first pass.
func SolveL2RL1L2SVR(prob *sparse.Problem, w []float64, c, p float64, loss Loss, opts Options) Result {
	l := prob.L
	logger := opts.logger()

	lambda, upper := 0.5/c, inf
	if loss == L1Loss {
		lambda, upper = 0, c
	}

	beta := make([]float64, l)
	qd := make([]float64, l)
	index := identity(l)
	y := prob.Y

	zero(w)
	for i := 0; i < l; i++ {
		qd[i] = sparse.Nrm2Sq(prob.X[i])
		sparse.Axpy(beta[i], prob.X[i], w)
	}

	gMaxOld := inf
	gNorm1Init := -1.0
	activeSize := l
	iter := 0

	shrink := func(s int) {
		activeSize--
		index[s], index[activeSize] = index[activeSize], index[s]
	}

	for iter < opts.MaxIter {
		gMaxNew, gNorm1New := 0.0, 0.0

		opts.shuffle(index, activeSize)

		for s := 0; s < activeSize; s++ {
			i := index[s]
			xi := prob.X[i]
			g := -y[i] + lambda*beta[i] + sparse.Dot(w, xi)
			h := qd[i] + lambda

			gp, gn := g+p, g-p
			violation := 0.0
			switch {
			case beta[i] == 0:
				if gp < 0 {
					violation = -gp
				} else if gn > 0 {
					violation = gn
				} else if opts.Shrinking && gp > gMaxOld && gn < -gMaxOld {
					shrink(s)
					s--
					continue
				}
			case beta[i] >= upper:
				if gp > 0 {
					violation = gp
				} else if opts.Shrinking && gp < -gMaxOld {
					shrink(s)
					s--
					continue
				}
			case beta[i] <= -upper:
				if gn < 0 {
					violation = -gn
				} else if opts.Shrinking && gn > gMaxOld {
					shrink(s)
					s--
					continue
				}
			case beta[i] > 0:
				violation = math.Abs(gp)
			default:
				violation = math.Abs(gn)
			}

			gMaxNew = math.Max(gMaxNew, violation)
			gNorm1New += violation

			// an empty sample under L1 loss has no curvature
			if h <= 0 {
				continue
			}

			var d float64
			switch {
			case gp < h*beta[i]:
				d = -gp / h
			case gn > h*beta[i]:
				d = -gn / h
			default:
				d = -beta[i]
			}
			if math.Abs(d) < tiny {
				continue
			}

			betaOld := beta[i]
			beta[i] = math.Min(math.Max(beta[i]+d, -upper), upper)
			d = beta[i] - betaOld
			if d != 0 {
				sparse.Axpy(d, xi, w)
			}
		}

		if iter == 0 {
			gNorm1Init = gNorm1New
		}
		iter++

		if gNorm1New <= opts.Eps*gNorm1Init {
			if activeSize == l {
				break
			}
			activeSize = l
			logger.Debug("reactivating all variables", "iter", iter)
			gMaxOld = inf
			continue
		}
		gMaxOld = gMaxNew
	}

	var v float64
	nSV := 0
	for _, wi := range w {
		v += wi * wi
	}
	v *= 0.5
	for i := 0; i < l; i++ {
		v += p*math.Abs(beta[i]) - y[i]*beta[i] + 0.5*lambda*beta[i]*beta[i]
		if beta[i] != 0 {
			nSV++
		}
	}

	res := Result{Iterations: iter, Objective: v, NonZero: nSV, Alpha: beta}
	res.finish(logger, "l2r_"+loss.String()+"_svr_dual", opts.MaxIter)
	return res
}
