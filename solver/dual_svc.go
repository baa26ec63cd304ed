package solver

import (
	"math"

	"github.com/YuminosukeSato/golinear/core/sparse"
)

// Loss selects the loss of the dual SVC and SVR solvers.
type Loss int

const (
	// L1Loss is the hinge (SVC) or epsilon-insensitive (SVR) loss: box
	// constrained duals, no diagonal term.
	L1Loss Loss = iota
	// L2Loss is the squared loss: unbounded duals with diagonal 0.5/C.
	L2Loss
)

func (l Loss) String() string {
	if l == L1Loss {
		return "l1"
	}
	return "l2"
}

// SolveL2RL1L2SVC solves the dual of L2-regularized L1- or L2-loss SVC
//
//	min_α ½αᵀQ̄α - eᵀα,  0 ≤ αᵢ ≤ Uᵢ
//
// with Q̄ = Q + D. For L1 loss Uᵢ = Cᵢ and D = 0; for L2 loss Uᵢ = ∞ and
// Dᵢᵢ = 0.5/Cᵢ. Cᵢ is cp for positive labels and cn otherwise.
//
// w is overwritten with Σ yᵢαᵢxᵢ.
func SolveL2RL1L2SVC(prob *sparse.Problem, w []float64, cp, cn float64, loss Loss, opts Options) Result {
	l := prob.L
	logger := opts.logger()

	diagP, diagN := 0.5/cp, 0.5/cn
	upperP, upperN := inf, inf
	if loss == L1Loss {
		diagP, diagN = 0, 0
		upperP, upperN = cp, cn
	}

	y := make([]float64, l)
	qd := make([]float64, l)
	alpha := make([]float64, l)
	diag := make([]float64, l)
	upper := make([]float64, l)
	index := identity(l)

	zero(w)
	for i := 0; i < l; i++ {
		y[i] = sign(prob.Y[i])
		diag[i] = pick(prob.Y[i], diagP, diagN)
		upper[i] = pick(prob.Y[i], upperP, upperN)
		qd[i] = diag[i] + sparse.Nrm2Sq(prob.X[i])
		sparse.Axpy(y[i]*alpha[i], prob.X[i], w)
	}

	pgMaxOld, pgMinOld := inf, -inf
	activeSize := l
	iter := 0

	for iter < opts.MaxIter {
		pgMaxNew, pgMinNew := -inf, inf

		opts.shuffle(index, activeSize)

		for s := 0; s < activeSize; s++ {
			i := index[s]
			yi := y[i]
			xi := prob.X[i]

			g := yi*sparse.Dot(w, xi) - 1
			c := upper[i]
			g += alpha[i] * diag[i]

			pg := 0.0
			switch {
			case alpha[i] == 0:
				if opts.Shrinking && g > pgMaxOld {
					activeSize--
					index[s], index[activeSize] = index[activeSize], index[s]
					s--
					continue
				} else if g < 0 {
					pg = g
				}
			case alpha[i] == c:
				if opts.Shrinking && g < pgMinOld {
					activeSize--
					index[s], index[activeSize] = index[activeSize], index[s]
					s--
					continue
				} else if g > 0 {
					pg = g
				}
			default:
				pg = g
			}

			pgMaxNew = math.Max(pgMaxNew, pg)
			pgMinNew = math.Min(pgMinNew, pg)

			if math.Abs(pg) > tiny {
				alphaOld := alpha[i]
				alpha[i] = math.Min(math.Max(alpha[i]-g/qd[i], 0), c)
				d := (alpha[i] - alphaOld) * yi
				sparse.Axpy(d, xi, w)
			}
		}

		iter++

		if pgMaxNew-pgMinNew <= opts.Eps {
			if activeSize == l {
				break
			}
			activeSize = l
			logger.Debug("reactivating all variables", "iter", iter)
			pgMaxOld, pgMinOld = inf, -inf
			continue
		}
		pgMaxOld, pgMinOld = pgMaxNew, pgMinNew
		if pgMaxOld <= 0 {
			pgMaxOld = inf
		}
		if pgMinOld >= 0 {
			pgMinOld = -inf
		}
	}

	var v float64
	nSV := 0
	for _, wi := range w {
		v += wi * wi
	}
	for i := 0; i < l; i++ {
		v += alpha[i] * (alpha[i]*diag[i] - 2)
		if alpha[i] > 0 {
			nSV++
		}
	}

	res := Result{Iterations: iter, Objective: v / 2, NonZero: nSV, Alpha: alpha}
	res.finish(logger, "l2r_"+loss.String()+"_svc_dual", opts.MaxIter)
	return res
}
