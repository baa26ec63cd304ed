package objective

import (
	"github.com/YuminosukeSato/golinear/core/sparse"
)

// SquaredHinge is the L2-regularized L2-loss SVC objective,
// loss(wx, y) = max(0, 1 - y·wx)².
//
// Grad records the samples with a non-zero loss; Hv and the preconditioner
// only visit those.
type SquaredHinge struct {
	erm
	active []int
}

// NewSquaredHinge builds the objective over prob.
func NewSquaredHinge(prob *sparse.Problem, cfg Config) *SquaredHinge {
	sh := &SquaredHinge{
		erm:    newERM(prob, cfg),
		active: make([]int, 0, prob.L),
	}
	sh.cTimesLoss = sh.loss
	return sh
}

func (sh *SquaredHinge) loss(i int, wxi float64) float64 {
	d := 1 - sh.prob.Y[i]*wxi
	if d > 0 {
		return sh.c[i] * d * d
	}
	return 0
}

// Grad computes ∇f(w) using the X·w cached by Fun.
func (sh *SquaredHinge) Grad(w, g []float64) {
	y := sh.prob.Y
	sh.active = sh.active[:0]
	for i := 0; i < sh.prob.L; i++ {
		ywx := sh.wx[i] * y[i]
		if ywx < 1 {
			sh.tmp[len(sh.active)] = sh.c[i] * y[i] * (ywx - 1)
			sh.active = append(sh.active, i)
		}
	}
	sh.subXTv(sh.active, sh.tmp, g)
	sh.finishGrad(w, g, 2)
}

// Hv computes (I + 2·X_Iᵀ C X_I)s.
func (sh *SquaredHinge) Hv(s, hs []float64) {
	for i := range hs {
		hs[i] = 0
	}
	x := sh.prob.X
	for _, i := range sh.active {
		xTs := sh.c[i] * sparse.Dot(s, x[i])
		sparse.Axpy(xTs, x[i], hs)
	}
	sh.finishHv(s, hs, 2)
}

// DiagPreconditioner fills m with diag(I + 2·X_Iᵀ C X_I).
func (sh *SquaredHinge) DiagPreconditioner(m []float64) {
	sh.initPreconditioner(m)
	x := sh.prob.X
	for _, i := range sh.active {
		for _, f := range x[i] {
			m[f.Index-1] += f.Value * f.Value * sh.c[i] * 2
		}
	}
}

// SquaredEpsilonInsensitive is the L2-regularized L2-loss SVR objective,
// loss(wx, y) = max(0, |wx - y| - p)². It shares Hv and the preconditioner
// with SquaredHinge.
type SquaredEpsilonInsensitive struct {
	SquaredHinge
	p float64
}

// NewSquaredEpsilonInsensitive builds the regression objective with
// insensitivity p.
func NewSquaredEpsilonInsensitive(prob *sparse.Problem, cfg Config, p float64) *SquaredEpsilonInsensitive {
	sv := &SquaredEpsilonInsensitive{
		SquaredHinge: SquaredHinge{
			erm:    newERM(prob, cfg),
			active: make([]int, 0, prob.L),
		},
		p: p,
	}
	sv.cTimesLoss = sv.loss
	return sv
}

func (sv *SquaredEpsilonInsensitive) loss(i int, wxi float64) float64 {
	d := wxi - sv.prob.Y[i]
	switch {
	case d < -sv.p:
		return sv.c[i] * (d + sv.p) * (d + sv.p)
	case d > sv.p:
		return sv.c[i] * (d - sv.p) * (d - sv.p)
	}
	return 0
}

// Grad computes ∇f(w) using the X·w cached by Fun.
func (sv *SquaredEpsilonInsensitive) Grad(w, g []float64) {
	y := sv.prob.Y
	sv.active = sv.active[:0]
	for i := 0; i < sv.prob.L; i++ {
		d := sv.wx[i] - y[i]
		switch {
		case d < -sv.p:
			sv.tmp[len(sv.active)] = sv.c[i] * (d + sv.p)
			sv.active = append(sv.active, i)
		case d > sv.p:
			sv.tmp[len(sv.active)] = sv.c[i] * (d - sv.p)
			sv.active = append(sv.active, i)
		}
	}
	sv.subXTv(sv.active, sv.tmp, g)
	sv.finishGrad(w, g, 2)
}
