// Package optimize implements the second-order optimizers used for the
// primal L2-regularized problems: a trust-region Newton method (Tron) and a
// line-search Newton method with preconditioned conjugate gradient (Newton).
//
// Both optimizers talk to the objective only through Function; neither knows
// which loss it is minimizing.
package optimize

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Function is a twice-differentiable objective.
//
// Call order matters: Fun(w) caches w-dependent quantities, Grad(w, g) must
// follow Fun at the same w, and Hv / DiagPreconditioner use what Grad cached.
type Function interface {
	Fun(w []float64) float64
	Grad(w, g []float64)
	Hv(s, hs []float64)
	NrVariable() int
	DiagPreconditioner(m []float64)
}

// LineSearcher is an objective that can run its own backtracking line
// search along s, reusing cached inner products.
//
// On entry *f is the value at w. On success w and *f are updated and the
// accepted step is returned; on failure w and *f are unchanged and 0 is
// returned.
type LineSearcher interface {
	LinesearchAndUpdate(w, s []float64, f *float64, g []float64, alpha float64) float64
}

// Status reports why an optimizer stopped.
type Status int

const (
	// Converged means the gradient norm fell under eps·‖∇f(0)‖.
	Converged Status = iota
	// MaxIterations means the iteration cap was reached.
	MaxIterations
	// LineSearchFailed means no step satisfied the sufficient-decrease test.
	LineSearchFailed
	// Diverged means the objective went below -1e32.
	Diverged
	// CurvatureBreakdown means the predicted reduction was not positive.
	CurvatureBreakdown
	// Stagnated means actual (and predicted) reductions became negligible.
	Stagnated
)

func (s Status) String() string {
	switch s {
	case Converged:
		return "converged"
	case MaxIterations:
		return "max_iterations"
	case LineSearchFailed:
		return "line_search_failed"
	case Diverged:
		return "diverged"
	case CurvatureBreakdown:
		return "curvature_breakdown"
	case Stagnated:
		return "stagnated"
	default:
		return "unknown"
	}
}

// Result summarizes a Minimize call. Every status leaves a usable w.
type Result struct {
	Iterations int
	Status     Status
	Objective  float64
	GradNorm   float64
}

// Minimizer is implemented by Tron and Newton.
type Minimizer interface {
	Minimize(w []float64) Result
}

const alphaPCG = 0.01

// blendPreconditioner turns a diagonal Hessian estimate into the Jacobi
// preconditioner (1-a) + a·diag.
func blendPreconditioner(m []float64) {
	for i := range m {
		m[i] = (1 - alphaPCG) + alphaPCG*m[i]
	}
}

// uTMv returns Σ u[i]·M[i]·v[i].
func uTMv(u, m, v []float64) float64 {
	var ret float64
	for i := range u {
		ret += u[i] * m[i] * v[i]
	}
	return ret
}

// gradNormAtZero evaluates ‖∇f(0)‖, the reference for the stopping rule.
func gradNormAtZero(fun Function, g []float64) float64 {
	w0 := make([]float64, fun.NrVariable())
	fun.Fun(w0)
	fun.Grad(w0, g)
	return floats.Norm(g, 2)
}

func maxCGIter(n int) int {
	if n > 5 {
		return n
	}
	return 5
}

func negligible(x, f float64) bool {
	return math.Abs(x) <= 1.0e-12*math.Abs(f)
}
