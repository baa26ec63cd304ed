package objective

import (
	"github.com/YuminosukeSato/golinear/core/sparse"
	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// Logistic is the L2-regularized logistic regression objective,
// loss(wx, y) = log(1 + exp(-y·wx)), y ∈ {-1, +1}.
//
// Xv, XTv, Hv and DiagPreconditioner run on Config.Pool when one is given.
type Logistic struct {
	erm
	d []float64 // σ(ywx)(1-σ(ywx)) at the last Grad
}

// NewLogistic builds the objective over prob.
func NewLogistic(prob *sparse.Problem, cfg Config) *Logistic {
	lr := &Logistic{
		erm: newERM(prob, cfg),
		d:   make([]float64, prob.L),
	}
	lr.cTimesLoss = lr.loss
	return lr
}

func (lr *Logistic) loss(i int, wxi float64) float64 {
	return lr.c[i] * errors.LogOnePlusExp(-wxi*lr.prob.Y[i])
}

// Grad computes ∇f(w) using the X·w cached by Fun.
func (lr *Logistic) Grad(w, g []float64) {
	y := lr.prob.Y
	lr.pool.For(lr.prob.L, func(start, end int) {
		for i := start; i < end; i++ {
			sig := errors.Sigmoid(y[i] * lr.wx[i])
			lr.d[i] = sig * (1 - sig)
			lr.tmp[i] = lr.c[i] * (sig - 1) * y[i]
		}
	})
	lr.XTv(lr.tmp, g)
	lr.finishGrad(w, g, 1)
}

// Hv computes the Hessian-vector product (I + XᵀCDX)s.
func (lr *Logistic) Hv(s, hs []float64) {
	for i := range hs {
		hs[i] = 0
	}
	x := lr.prob.X
	lr.pool.Reduce(lr.prob.L, hs, func(start, end int, buf []float64) {
		for i := start; i < end; i++ {
			xTs := sparse.Dot(s, x[i])
			sparse.Axpy(lr.c[i]*lr.d[i]*xTs, x[i], buf)
		}
	})
	lr.finishHv(s, hs, 1)
}

// DiagPreconditioner fills m with diag(I + XᵀCDX).
func (lr *Logistic) DiagPreconditioner(m []float64) {
	lr.initPreconditioner(m)
	x := lr.prob.X
	lr.pool.Reduce(lr.prob.L, m, func(start, end int, buf []float64) {
		for i := start; i < end; i++ {
			cd := lr.c[i] * lr.d[i]
			for _, f := range x[i] {
				buf[f.Index-1] += f.Value * f.Value * cd
			}
		}
	})
}
