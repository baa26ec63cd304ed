package optimize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golinear/pkg/log"
)

// quadratic is f(w) = ½wᵀAw - bᵀw.
type quadratic struct {
	a *mat.SymDense
	b []float64
}

func newQuadratic() *quadratic {
	a := mat.NewSymDense(3, []float64{
		4, 1, 0,
		1, 3, 0.5,
		0, 0.5, 2,
	})
	return &quadratic{a: a, b: []float64{1, -2, 3}}
}

func (q *quadratic) mul(v []float64) []float64 {
	out := mat.NewVecDense(len(v), nil)
	out.MulVec(q.a, mat.NewVecDense(len(v), append([]float64(nil), v...)))
	return out.RawVector().Data
}

func (q *quadratic) Fun(w []float64) float64 {
	return 0.5*floats.Dot(w, q.mul(w)) - floats.Dot(q.b, w)
}

func (q *quadratic) Grad(w, g []float64) {
	floats.SubTo(g, q.mul(w), q.b)
}

func (q *quadratic) Hv(s, hs []float64) {
	copy(hs, q.mul(s))
}

func (q *quadratic) NrVariable() int { return len(q.b) }

func (q *quadratic) DiagPreconditioner(m []float64) {
	for i := range m {
		m[i] = q.a.At(i, i)
	}
}

func (q *quadratic) LinesearchAndUpdate(w, s []float64, f *float64, g []float64, alpha float64) float64 {
	gTs := floats.Dot(g, s)
	trial := make([]float64, len(w))
	for k := 0; k < 20; k++ {
		floats.AddScaledTo(trial, w, alpha, s)
		fnew := q.Fun(trial)
		if fnew-*f <= 0.01*alpha*gTs {
			copy(w, trial)
			*f = fnew
			return alpha
		}
		alpha *= 0.5
	}
	return 0
}

func (q *quadratic) solution(t *testing.T) []float64 {
	var x mat.VecDense
	require.NoError(t, x.SolveVec(q.a, mat.NewVecDense(3, append([]float64(nil), q.b...))))
	return x.RawVector().Data
}

func TestTronQuadratic(t *testing.T) {
	q := newQuadratic()
	w := make([]float64, 3)

	res := NewTron(q, 1e-8, 0.1, 1000).Minimize(w)

	assert.Contains(t, []Status{Converged, Stagnated, CurvatureBreakdown}, res.Status)
	assert.Positive(t, res.Iterations)
	want := q.solution(t)
	for i := range want {
		assert.InDelta(t, want[i], w[i], 1e-5)
	}
}

func TestNewtonQuadratic(t *testing.T) {
	q := newQuadratic()
	w := make([]float64, 3)

	res := NewNewton(q, 1e-10, 0.5, 1000).Minimize(w)

	assert.Contains(t, []Status{Converged, Stagnated}, res.Status)
	want := q.solution(t)
	for i := range want {
		assert.InDelta(t, want[i], w[i], 1e-5)
	}
}

func TestZeroIterationCap(t *testing.T) {
	for name, m := range map[string]func(*quadratic) Minimizer{
		"tron":   func(q *quadratic) Minimizer { return NewTron(q, 1e-10, 0.1, 0) },
		"newton": func(q *quadratic) Minimizer { return NewNewton(q, 1e-10, 0.5, 0) },
	} {
		t.Run(name, func(t *testing.T) {
			w := make([]float64, 3)
			res := m(newQuadratic()).Minimize(w)
			assert.Equal(t, MaxIterations, res.Status)
			assert.Equal(t, 0, res.Iterations)
			assert.Equal(t, []float64{0, 0, 0}, w)
		})
	}
}

func TestWarmStartAtOptimum(t *testing.T) {
	q := newQuadratic()
	w := q.solution(t)

	res := NewTron(q, 1e-6, 0.1, 1000).Minimize(w)
	assert.Equal(t, Converged, res.Status)
	assert.Equal(t, 0, res.Iterations)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "line_search_failed", LineSearchFailed.String())
	assert.Equal(t, "unknown", Status(99).String())
}

// poisoned returns a NaN gradient once a line search has been accepted.
type poisoned struct {
	*quadratic
	stepped bool
}

func (p *poisoned) Grad(w, g []float64) {
	if p.stepped {
		for i := range g {
			g[i] = math.NaN()
		}
		return
	}
	p.quadratic.Grad(w, g)
}

func (p *poisoned) LinesearchAndUpdate(w, s []float64, f *float64, g []float64, alpha float64) float64 {
	step := p.quadratic.LinesearchAndUpdate(w, s, f, g, alpha)
	p.stepped = step > 0
	return step
}

func TestNewtonStopsOnNonFiniteGradient(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	nt := NewNewton(&poisoned{quadratic: newQuadratic()}, 1e-10, 0.5, 100)
	nt.SetLogger(logger)

	w := make([]float64, 3)
	res := nt.Minimize(w)

	assert.Equal(t, Diverged, res.Status)
	assert.True(t, logger.ContainsMessage("gradient is not finite"))
	for _, v := range w {
		assert.False(t, math.IsNaN(v))
	}
}
