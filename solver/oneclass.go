package solver

import (
	"math"

	"github.com/YuminosukeSato/golinear/core/sparse"
)

// SolveOneClass solves the one-class SVM dual
//
//	min_α ½αᵀQα,  0 ≤ αᵢ ≤ 1,  Σαᵢ = ν·l
//
// by repeatedly updating the most violating pairs. Each pass selects up to
// max(active/10, 1) pairs from two bounded heaps over -∇f. It returns the
// offset rho used by the decision function wᵀx - rho.
func SolveOneClass(prob *sparse.Problem, w []float64, nu float64, opts Options) (float64, Result) {
	l := prob.L
	logger := opts.logger()

	qd := make([]float64, l)
	grad := make([]float64, l)
	alpha := make([]float64, l)
	index := identity(l)

	n := int(nu * float64(l))
	for i := 0; i < n && i < l; i++ {
		alpha[i] = 1
	}
	if n < l {
		alpha[n] = nu*float64(l) - float64(n)
	}

	zero(w)
	for i := 0; i < l; i++ {
		qd[i] = sparse.Nrm2Sq(prob.X[i])
		sparse.Axpy(alpha[i], prob.X[i], w)
	}

	violatingI := make([]int, l)
	violatingJ := make([]int, l)
	activeSize := l
	iter := 0

	for iter < opts.MaxIter {
		negGMax, negGMin := -inf, inf

		for s := 0; s < activeSize; s++ {
			i := index[s]
			grad[i] = sparse.Dot(w, prob.X[i])
			if alpha[i] < 1 {
				negGMax = math.Max(negGMax, -grad[i])
			}
			if alpha[i] > 0 {
				negGMin = math.Min(negGMin, -grad[i])
			}
		}

		if negGMax-negGMin < opts.Eps {
			if activeSize == l {
				break
			}
			activeSize = l
			logger.Debug("reactivating all variables", "iter", iter)
			continue
		}

		if opts.Shrinking {
			for s := 0; s < activeSize; s++ {
				i := index[s]
				if (alpha[i] == 1 && -grad[i] > negGMax) || (alpha[i] == 0 && -grad[i] < negGMin) {
					activeSize--
					index[s], index[activeSize] = index[activeSize], index[s]
					s--
				}
			}
		}

		maxInner := max(activeSize/10, 1)
		minHeap := newBoundedHeap(maxInner, false)
		maxHeap := newBoundedHeap(maxInner, true)
		for s := 0; s < activeSize; s++ {
			i := index[s]
			nd := node{index: i, value: -grad[i]}
			if alpha[i] < 1 {
				minHeap.offer(nd)
			}
			if alpha[i] > 0 {
				maxHeap.offer(nd)
			}
		}
		maxInner = min(minHeap.Len(), maxHeap.Len())
		for maxHeap.Len() > maxInner {
			maxHeap.pop()
		}
		for minHeap.Len() > maxInner {
			minHeap.pop()
		}
		// most violating first
		for s := maxInner - 1; s >= 0; s-- {
			violatingI[s] = minHeap.pop().index
			violatingJ[s] = maxHeap.pop().index
		}

		for s := 0; s < maxInner; s++ {
			i, j := violatingI[s], violatingJ[s]
			if (alpha[i] == 0 && alpha[j] == 0) || (alpha[i] == 1 && alpha[j] == 1) {
				continue
			}
			xi, xj := prob.X[i], prob.X[j]
			gi := sparse.Dot(w, xi)
			gj := sparse.Dot(w, xj)

			violating := (alpha[i] < 1 && alpha[j] > 0 && -gj+tiny < -gi) ||
				(alpha[i] > 0 && alpha[j] < 1 && -gi+tiny < -gj)
			if !violating {
				continue
			}

			quadCoef := qd[i] + qd[j] - 2*sparse.SparseDot(xi, xj)
			if quadCoef <= 0 {
				quadCoef = tiny
			}
			delta := (gi - gj) / quadCoef
			oldAlphaI := alpha[i]
			sum := alpha[i] + alpha[j]
			alpha[i] -= delta
			alpha[j] += delta

			if sum > 1 {
				if alpha[i] > 1 {
					alpha[i] = 1
					alpha[j] = sum - 1
				}
			} else if alpha[j] < 0 {
				alpha[j] = 0
				alpha[i] = sum
			}
			if sum > 1 {
				if alpha[j] > 1 {
					alpha[j] = 1
					alpha[i] = sum - 1
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = sum
			}

			delta = alpha[i] - oldAlphaI
			sparse.Axpy(delta, xi, w)
			sparse.Axpy(-delta, xj, w)
		}
		iter++
	}

	var v float64
	for _, wi := range w {
		v += wi * wi
	}
	nSV := 0
	for i := 0; i < l; i++ {
		if alpha[i] > 0 {
			nSV++
		}
	}

	res := Result{Iterations: iter, Objective: v / 2, NonZero: nSV, Alpha: alpha}
	res.finish(logger, "oneclass_svm", opts.MaxIter)
	return oneClassRho(prob, w, alpha), res
}

// oneClassRho averages the gradient over free variables. Without free
// variables it takes the midpoint of the feasible interval, or the finite
// end when only one exists.
func oneClassRho(prob *sparse.Problem, w, alpha []float64) float64 {
	nrFree := 0
	ub, lb := math.Inf(1), math.Inf(-1)
	var sumFree float64
	for i := 0; i < prob.L; i++ {
		g := sparse.Dot(w, prob.X[i])
		switch alpha[i] {
		case 1:
			lb = math.Max(lb, g)
		case 0:
			ub = math.Min(ub, g)
		default:
			nrFree++
			sumFree += g
		}
	}
	switch {
	case nrFree > 0:
		return sumFree / float64(nrFree)
	case math.IsInf(ub, 1):
		return lb
	case math.IsInf(lb, -1):
		return ub
	default:
		return (ub + lb) / 2
	}
}
