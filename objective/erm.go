// Package objective implements the L2-regularized empirical-risk objectives
// minimized by the primal optimizers:
//
//	f(w) = ½‖w‖² + Σᵢ Cᵢ·loss(wᵀxᵢ, yᵢ)
//
// When the bias is not regularized, the last coordinate is left out of the
// norm term and of the regularization parts of the gradient, Hv and
// preconditioner.
package objective

import (
	"github.com/YuminosukeSato/golinear/core/parallel"
	"github.com/YuminosukeSato/golinear/core/sparse"
)

// Config carries the settings shared by all objectives.
type Config struct {
	// C holds the per-sample cost.
	C []float64
	// RegularizeBias includes the last weight in the regularizer.
	RegularizeBias bool
	// Pool, when non-nil, spreads sample loops over its workers.
	Pool *parallel.Pool
}

// erm holds the parts common to every loss. Concrete objectives supply
// cTimesLoss.
type erm struct {
	prob           *sparse.Problem
	c              []float64
	regularizeBias bool
	pool           *parallel.Pool

	wx  []float64 // X·w at the last Fun / accepted line-search point
	tmp []float64 // scratch, length l
	wTw float64

	cTimesLoss func(i int, wxi float64) float64
}

func newERM(prob *sparse.Problem, cfg Config) erm {
	return erm{
		prob:           prob,
		c:              cfg.C,
		regularizeBias: cfg.RegularizeBias,
		pool:           cfg.Pool,
		wx:             make([]float64, prob.L),
		tmp:            make([]float64, prob.L),
	}
}

// NrVariable returns the number of weights.
func (e *erm) NrVariable() int {
	return e.prob.N
}

// Fun evaluates the objective at w and caches X·w.
func (e *erm) Fun(w []float64) float64 {
	wSize := e.NrVariable()

	e.Xv(w, e.wx)

	e.wTw = 0
	for i := 0; i < wSize; i++ {
		e.wTw += w[i] * w[i]
	}
	if !e.regularizeBias {
		e.wTw -= w[wSize-1] * w[wSize-1]
	}

	var f float64
	for i := 0; i < e.prob.L; i++ {
		f += e.cTimesLoss(i, e.wx[i])
	}
	return f + 0.5*e.wTw
}

// LinesearchAndUpdate backtracks from alpha along s until the Armijo
// condition f(w+αs) - f(w) ≤ 0.01·α·gᵀs holds, halving at most 20 times.
// Only X·s is computed; the trial objectives reuse the cached X·w.
func (e *erm) LinesearchAndUpdate(w, s []float64, f *float64, g []float64, alpha float64) float64 {
	const (
		eta              = 0.01
		maxNumLinesearch = 20
	)
	l := e.prob.L
	wSize := e.NrVariable()
	fold := *f

	e.Xv(s, e.tmp)

	var sTs, wTs, gTs float64
	for i := 0; i < wSize; i++ {
		sTs += s[i] * s[i]
		wTs += s[i] * w[i]
		gTs += s[i] * g[i]
	}
	if !e.regularizeBias {
		sTs -= s[wSize-1] * s[wSize-1]
		wTs -= s[wSize-1] * w[wSize-1]
	}

	accepted := false
	for k := 0; k < maxNumLinesearch; k++ {
		var loss float64
		for i := 0; i < l; i++ {
			loss += e.cTimesLoss(i, e.tmp[i]*alpha+e.wx[i])
		}
		*f = loss + (alpha*alpha*sTs+e.wTw)/2.0 + alpha*wTs
		if *f-fold <= eta*alpha*gTs {
			for i := 0; i < l; i++ {
				e.wx[i] += alpha * e.tmp[i]
			}
			accepted = true
			break
		}
		alpha *= 0.5
	}

	if !accepted {
		*f = fold
		return 0
	}
	for i := 0; i < wSize; i++ {
		w[i] += alpha * s[i]
	}
	e.wTw += alpha*alpha*sTs + 2*alpha*wTs
	return alpha
}

// Xv computes out = X·v.
func (e *erm) Xv(v, out []float64) {
	x := e.prob.X
	e.pool.For(e.prob.L, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = sparse.Dot(v, x[i])
		}
	})
}

// XTv computes out = Xᵀ·v.
func (e *erm) XTv(v, out []float64) {
	for i := range out {
		out[i] = 0
	}
	x := e.prob.X
	e.pool.Reduce(e.prob.L, out, func(start, end int, buf []float64) {
		for i := start; i < end; i++ {
			sparse.Axpy(v[i], x[i], buf)
		}
	})
}

// subXTv computes out = Σ_{k<len(idx)} v[k]·x[idx[k]].
func (e *erm) subXTv(idx []int, v, out []float64) {
	for i := range out {
		out[i] = 0
	}
	x := e.prob.X
	for k, i := range idx {
		sparse.Axpy(v[k], x[i], out)
	}
}

// finishGrad forms g = w + scale·g and drops the bias regularizer when needed.
func (e *erm) finishGrad(w, g []float64, scale float64) {
	wSize := e.NrVariable()
	for i := 0; i < wSize; i++ {
		g[i] = w[i] + scale*g[i]
	}
	if !e.regularizeBias {
		g[wSize-1] -= w[wSize-1]
	}
}

// finishHv forms hs = s + scale·hs with the same bias handling.
func (e *erm) finishHv(s, hs []float64, scale float64) {
	wSize := e.NrVariable()
	for i := 0; i < wSize; i++ {
		hs[i] = s[i] + scale*hs[i]
	}
	if !e.regularizeBias {
		hs[wSize-1] -= s[wSize-1]
	}
}

// initPreconditioner sets m to the regularizer's diagonal.
func (e *erm) initPreconditioner(m []float64) {
	for i := range m {
		m[i] = 1
	}
	if !e.regularizeBias {
		m[len(m)-1] = 0
	}
}
