package optimize

import (
	"math"

	"github.com/tevino/abool"
	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/golinear/pkg/errors"
	"github.com/YuminosukeSato/golinear/pkg/log"
)

// Trust-region radius update constants.
const (
	tronEta0   = 1e-4
	tronEta1   = 0.25
	tronEta2   = 0.75
	tronSigma1 = 0.25
	tronSigma2 = 0.5
	tronSigma3 = 4.0
)

// Tron is a trust-region Newton method. Each outer step solves the
// trust-region subproblem approximately with preconditioned truncated CG in
// the M-norm, then grows or shrinks the radius from the ratio of actual to
// predicted reduction.
type Tron struct {
	fun     Function
	eps     float64
	epsCG   float64
	maxIter int
	logger  log.Logger

	reachBoundary *abool.AtomicBool
}

// NewTron creates a trust-region optimizer. eps is the relative gradient-norm
// tolerance, epsCG the relative CG residual tolerance.
func NewTron(fun Function, eps, epsCG float64, maxIter int) *Tron {
	return &Tron{
		fun:           fun,
		eps:           eps,
		epsCG:         epsCG,
		maxIter:       maxIter,
		logger:        log.GetLoggerWithName("optimize.tron"),
		reachBoundary: abool.New(),
	}
}

// SetLogger replaces the diagnostic logger.
func (t *Tron) SetLogger(l log.Logger) {
	t.logger = l
}

// Minimize improves w in place.
func (t *Tron) Minimize(w []float64) Result {
	n := t.fun.NrVariable()
	s := make([]float64, n)
	r := make([]float64, n)
	g := make([]float64, n)
	m := make([]float64, n)
	wNew := make([]float64, n)
	cg := newCGWorkspace(n)

	gnorm0 := gradNormAtZero(t.fun, g)

	f := t.fun.Fun(w)
	t.fun.Grad(w, g)
	gnorm := floats.Norm(g, 2)

	res := Result{Status: MaxIterations, Objective: f, GradNorm: gnorm}
	if gnorm <= t.eps*gnorm0 {
		res.Status = Converged
		return res
	}

	t.fun.DiagPreconditioner(m)
	blendPreconditioner(m)
	delta := math.Sqrt(uTMv(g, m, g))

	iter := 1
	deltaAdjusted := false
	for iter <= t.maxIter {
		cgIter := t.trpcg(cg, delta, g, m, s, r)

		floats.AddScaledTo(wNew, w, 1, s)

		gs := floats.Dot(g, s)
		prered := -0.5 * (gs - floats.Dot(s, r))
		fnew := t.fun.Fun(wNew)
		if err := errors.CheckScalar("tron objective", fnew, iter); err != nil {
			t.logger.Warn("objective is not finite", log.IterationKey, iter)
			res.Status = Diverged
			break
		}

		actred := f - fnew

		sMnorm := math.Sqrt(uTMv(s, m, s))
		if iter == 1 && !deltaAdjusted {
			delta = math.Min(delta, sMnorm)
			deltaAdjusted = true
		}

		var alpha float64
		if fnew-f-gs <= 0 {
			alpha = tronSigma3
		} else {
			alpha = math.Max(tronSigma1, -0.5*(gs/(fnew-f-gs)))
		}

		switch {
		case actred < tronEta0*prered:
			delta = math.Min(alpha*sMnorm, tronSigma2*delta)
		case actred < tronEta1*prered:
			delta = math.Max(tronSigma1*delta, math.Min(alpha*sMnorm, tronSigma2*delta))
		case actred < tronEta2*prered:
			delta = math.Max(tronSigma1*delta, math.Min(alpha*sMnorm, tronSigma3*delta))
		default:
			if t.reachBoundary.IsSet() {
				delta = tronSigma3 * delta
			} else {
				delta = math.Max(delta, math.Min(alpha*sMnorm, tronSigma3*delta))
			}
		}

		t.logger.Debug("tron iteration",
			log.IterationKey, iter,
			log.ActRedKey, actred,
			log.PreRedKey, prered,
			log.DeltaKey, delta,
			log.ObjectiveKey, f,
			log.GradNormKey, gnorm,
			log.CGIterKey, cgIter,
		)

		if actred > tronEta0*prered {
			iter++
			copy(w, wNew)
			f = fnew
			t.fun.Grad(w, g)
			t.fun.DiagPreconditioner(m)
			blendPreconditioner(m)

			gnorm = floats.Norm(g, 2)
			if gnorm <= t.eps*gnorm0 {
				res.Status = Converged
				break
			}
		}
		if f < -1.0e+32 {
			t.logger.Warn("f < -1.0e+32")
			res.Status = Diverged
			break
		}
		if prered <= 0 {
			t.logger.Warn("prered <= 0")
			res.Status = CurvatureBreakdown
			break
		}
		if negligible(actred, f) && negligible(prered, f) {
			t.logger.Warn("actred and prered too small")
			res.Status = Stagnated
			break
		}
	}

	if res.Status == MaxIterations {
		t.logger.Warn("reaching max number of iterations", log.IterationKey, iter-1)
	}
	res.Iterations = iter - 1
	res.Objective = f
	res.GradNorm = gnorm
	return res
}

// cgWorkspace holds the CG scratch vectors so they are allocated once per
// Minimize call.
type cgWorkspace struct {
	d, hd, z []float64
}

func newCGWorkspace(n int) *cgWorkspace {
	return &cgWorkspace{
		d:  make([]float64, n),
		hd: make([]float64, n),
		z:  make([]float64, n),
	}
}

// trpcg runs preconditioned CG on H s = -g inside ‖s‖_M ≤ delta. On return r
// holds the residual -g - H s.
func (t *Tron) trpcg(ws *cgWorkspace, delta float64, g, m, s, r []float64) int {
	d, hd, z := ws.d, ws.hd, ws.z
	t.reachBoundary.UnSet()

	for i := range g {
		s[i] = 0
		r[i] = -g[i]
		z[i] = r[i] / m[i]
		d[i] = z[i]
	}

	zTr := floats.Dot(z, r)
	cgtol := t.epsCG * math.Sqrt(zTr)
	cgIter := 0
	maxIter := maxCGIter(len(g))

	for cgIter < maxIter {
		if math.Sqrt(zTr) <= cgtol {
			break
		}
		cgIter++
		t.fun.Hv(d, hd)

		alpha := zTr / floats.Dot(d, hd)
		floats.AddScaled(s, alpha, d)

		sMnorm := math.Sqrt(uTMv(s, m, s))
		if sMnorm > delta {
			t.logger.Debug("cg reaches trust region boundary", log.CGIterKey, cgIter)
			t.reachBoundary.Set()
			floats.AddScaled(s, -alpha, d)

			sTMd := uTMv(s, m, d)
			sTMs := uTMv(s, m, s)
			dTMd := uTMv(d, m, d)
			dsq := delta * delta
			rad := math.Sqrt(sTMd*sTMd + dTMd*(dsq-sTMs))
			if sTMd >= 0 {
				alpha = (dsq - sTMs) / (sTMd + rad)
			} else {
				alpha = (rad - sTMd) / dTMd
			}
			floats.AddScaled(s, alpha, d)
			floats.AddScaled(r, -alpha, hd)
			break
		}
		floats.AddScaled(r, -alpha, hd)

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
		t.logger.Debug("reaching maximal number of CG steps")
	}
	return cgIter
}
