package solver

import (
	"math"

	"github.com/YuminosukeSato/golinear/core/sparse"
)

// SolveL2RLRDual solves the dual of L2-regularized logistic regression
//
//	min_α ½αᵀQα + Σ αᵢlog αᵢ + (Cᵢ-αᵢ)log(Cᵢ-αᵢ),  0 < αᵢ < Cᵢ
//
// Each coordinate is a one-variable problem solved by a damped Newton
// method. The pair (αᵢ, Cᵢ-αᵢ) is kept explicitly so the variable closer
// to zero is the one updated, which avoids cancellation near the bounds.
// No shrinking is applied.
func SolveL2RLRDual(prob *sparse.Problem, w []float64, cp, cn float64, opts Options) Result {
	const (
		maxInnerIter = 100
		eta          = 0.1
	)
	l := prob.L
	logger := opts.logger()

	innerEps := 1e-2
	innerEpsMin := math.Min(1e-8, opts.Eps)

	y := make([]float64, l)
	upper := make([]float64, l)
	xTx := make([]float64, l)
	// alpha[2i] is αᵢ, alpha[2i+1] is Cᵢ-αᵢ
	alpha := make([]float64, 2*l)
	index := identity(l)

	zero(w)
	for i := 0; i < l; i++ {
		y[i] = sign(prob.Y[i])
		upper[i] = pick(prob.Y[i], cp, cn)
		alpha[2*i] = math.Min(0.001*upper[i], 1e-8)
		alpha[2*i+1] = upper[i] - alpha[2*i]
		xTx[i] = sparse.Nrm2Sq(prob.X[i])
		sparse.Axpy(y[i]*alpha[2*i], prob.X[i], w)
	}

	iter := 0
	for iter < opts.MaxIter {
		opts.shuffle(index, l)
		newtonIter := 0
		gMax := 0.0

		for s := 0; s < l; s++ {
			i := index[s]
			yi := y[i]
			c := upper[i]
			xi := prob.X[i]
			a, b := xTx[i], yi*sparse.Dot(w, xi)

			// minimize over whichever of the pair is further from C
			ind1, ind2, sgn := 2*i, 2*i+1, 1.0
			if 0.5*a*(alpha[ind2]-alpha[ind1])+b < 0 {
				ind1, ind2, sgn = 2*i+1, 2*i, -1
			}

			alphaOld := alpha[ind1]
			z := alphaOld
			if c-z < 0.5*c {
				z *= 0.1
			}
			gp := a*(z-alphaOld) + sgn*b + math.Log(z/(c-z))
			gMax = math.Max(gMax, math.Abs(gp))

			inner := 0
			for inner <= maxInnerIter {
				if math.Abs(gp) < innerEps {
					break
				}
				gpp := a + c/(c-z)/z
				tmpz := z - gp/gpp
				if tmpz <= 0 {
					z *= eta
				} else {
					z = tmpz
				}
				gp = a*(z-alphaOld) + sgn*b + math.Log(z/(c-z))
				newtonIter++
				inner++
			}

			if inner > 0 {
				alpha[ind1] = z
				alpha[ind2] = c - z
				sparse.Axpy(sgn*(z-alphaOld)*yi, xi, w)
			}
		}

		iter++

		if gMax < opts.Eps {
			break
		}
		if newtonIter <= l/10 {
			innerEps = math.Max(innerEpsMin, 0.1*innerEps)
		}
	}

	var v float64
	for _, wi := range w {
		v += wi * wi
	}
	v *= 0.5
	out := make([]float64, l)
	for i := 0; i < l; i++ {
		v += alpha[2*i]*math.Log(alpha[2*i]) + alpha[2*i+1]*math.Log(alpha[2*i+1]) -
			upper[i]*math.Log(upper[i])
		out[i] = alpha[2*i]
	}

	res := Result{Iterations: iter, Objective: v, NonZero: l, Alpha: out}
	res.finish(logger, "l2r_lr_dual", opts.MaxIter)
	return res
}
