package optimize

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/golinear/pkg/errors"
	"github.com/YuminosukeSato/golinear/pkg/log"
)

// LineSearchFunction is an objective that supports the incremental line
// search Newton relies on.
type LineSearchFunction interface {
	Function
	LineSearcher
}

// Newton is a line-search Newton method. The direction comes from
// preconditioned CG stopped on the decrease of the quadratic model; the step
// starts at 1 and is halved by the objective's own line search.
type Newton struct {
	fun     LineSearchFunction
	eps     float64
	epsCG   float64
	maxIter int
	logger  log.Logger
}

// NewNewton creates a Newton-CG optimizer.
func NewNewton(fun LineSearchFunction, eps, epsCG float64, maxIter int) *Newton {
	return &Newton{
		fun:     fun,
		eps:     eps,
		epsCG:   epsCG,
		maxIter: maxIter,
		logger:  log.GetLoggerWithName("optimize.newton"),
	}
}

// SetLogger replaces the diagnostic logger.
func (nt *Newton) SetLogger(l log.Logger) {
	nt.logger = l
}

// Minimize improves w in place.
func (nt *Newton) Minimize(w []float64) Result {
	const initStepSize = 1.0

	n := nt.fun.NrVariable()
	s := make([]float64, n)
	r := make([]float64, n)
	g := make([]float64, n)
	m := make([]float64, n)
	cg := newCGWorkspace(n)

	gnorm0 := gradNormAtZero(nt.fun, g)

	f := nt.fun.Fun(w)
	nt.fun.Grad(w, g)
	gnorm := floats.Norm(g, 2)
	nt.logger.Debug("newton init", log.ObjectiveKey, f, log.GradNormKey, gnorm)

	res := Result{Status: MaxIterations, Objective: f, GradNorm: gnorm}
	if gnorm <= nt.eps*gnorm0 {
		res.Status = Converged
		return res
	}

	iter := 1
	for iter <= nt.maxIter {
		nt.fun.DiagPreconditioner(m)
		blendPreconditioner(m)
		cgIter := nt.pcg(cg, g, m, s, r)

		fold := f
		stepSize := nt.fun.LinesearchAndUpdate(w, s, &f, g, initStepSize)
		if stepSize == 0 {
			nt.logger.Warn("line search fails", log.IterationKey, iter)
			res.Status = LineSearchFailed
			break
		}

		nt.fun.Grad(w, g)
		gnorm = floats.Norm(g, 2)
		if err := errors.CheckScalar("newton gradient norm", gnorm, iter); err != nil {
			nt.logger.Warn("gradient is not finite", log.IterationKey, iter, log.ErrorTypeKey, err.Error())
			res.Status = Diverged
			break
		}

		nt.logger.Debug("newton iteration",
			log.IterationKey, iter,
			log.ObjectiveKey, f,
			log.GradNormKey, gnorm,
			log.CGIterKey, cgIter,
			log.StepSizeKey, stepSize,
		)

		if gnorm <= nt.eps*gnorm0 {
			res.Status = Converged
			break
		}
		if f < -1.0e+32 {
			nt.logger.Warn("f < -1.0e+32")
			res.Status = Diverged
			break
		}
		if negligible(fold-f, f) {
			nt.logger.Warn("actred too small")
			res.Status = Stagnated
			break
		}
		iter++
	}

	if res.Status == MaxIterations {
		nt.logger.Warn("reaching max number of newton iterations", log.IterationKey, nt.maxIter)
		res.Iterations = nt.maxIter
	} else {
		res.Iterations = iter
	}
	res.Objective = f
	res.GradNorm = gnorm
	return res
}

// pcg approximately solves H s = -g, stopping when the relative decrease of
// the quadratic model Q(s) = gᵀs + ½sᵀHs falls under cgtol.
func (nt *Newton) pcg(ws *cgWorkspace, g, m, s, r []float64) int {
	d, hd, z := ws.d, ws.hd, ws.z

	for i := range g {
		s[i] = 0
		r[i] = -g[i]
		z[i] = r[i] / m[i]
		d[i] = z[i]
	}

	zTr := floats.Dot(z, r)
	gMinvNorm := math.Sqrt(zTr)
	cgtol := math.Min(nt.epsCG, math.Sqrt(gMinvNorm))
	cgIter := 0
	maxIter := maxCGIter(len(g))
	var q float64

	for cgIter < maxIter {
		cgIter++

		nt.fun.Hv(d, hd)
		dHd := floats.Dot(d, hd)
		// avoid 0/0 in alpha
		if dHd <= 1.0e-16 {
			break
		}

		alpha := zTr / dHd
		floats.AddScaled(s, alpha, d)
		floats.AddScaled(r, -alpha, hd)

		newQ := -0.5 * (floats.Dot(s, r) - floats.Dot(s, g))
		qDiff := newQ - q
		if newQ <= 0 && qDiff <= 0 {
			if float64(cgIter)*qDiff >= cgtol*newQ {
				break
			}
		} else {
			nt.logger.Debug("quadratic approximation > 0 or increasing in CG")
			break
		}
		q = newQ

		for i := range z {
			z[i] = r[i] / m[i]
		}
		znewTrnew := floats.Dot(z, r)
		beta := znewTrnew / zTr
		floats.Scale(beta, d)
		floats.Add(d, z)
		zTr = znewTrnew
	}

	if cgIter == maxIter {
		nt.logger.Debug("reaching maximal number of CG steps")
	}
	return cgIter
}
