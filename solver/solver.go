// Package solver implements the coordinate-descent solvers: the L2-regularized
// dual problems (SVC, SVR, logistic regression), the one-class SVM dual, the
// L1-regularized primal problems and the Crammer–Singer multi-class dual.
//
// Solvers never return errors. Hitting the iteration cap is reported in
// Result and logged; the weights are usable either way.
package solver

import (
	"math"
	"math/rand"

	"github.com/YuminosukeSato/golinear/pkg/log"
)

const (
	inf = math.MaxFloat64
	// tiny is the floor below which a coordinate update is skipped.
	tiny = 1.0e-12
)

// Options are the settings every coordinate-descent solver takes.
type Options struct {
	Eps       float64
	MaxIter   int
	Shrinking bool
	// Rand drives the per-pass permutation. It must not be nil.
	Rand   *rand.Rand
	Logger log.Logger
}

// DefaultOptions returns options with shrinking on and a seeded generator.
func DefaultOptions(eps float64, maxIter int) Options {
	return Options{
		Eps:       eps,
		MaxIter:   maxIter,
		Shrinking: true,
		Rand:      rand.New(rand.NewSource(1)),
	}
}

func (o *Options) logger() log.Logger {
	if o.Logger == nil {
		o.Logger = log.GetLoggerWithName("solver")
	}
	return o.Logger
}

// shuffle applies a random permutation to index[:n].
func (o *Options) shuffle(index []int, n int) {
	for i := 0; i < n; i++ {
		j := i + o.Rand.Intn(n-i)
		index[i], index[j] = index[j], index[i]
	}
}

// Result summarizes a solver run.
type Result struct {
	Iterations     int
	Objective      float64
	NonZero        int
	ReachedMaxIter bool
	// Alpha holds the final dual variables where the solver has them.
	Alpha []float64
}

func (r *Result) finish(logger log.Logger, name string, maxIter int) {
	r.ReachedMaxIter = r.Iterations >= maxIter
	logger.Debug("optimization finished",
		log.RoutineKey, name,
		log.IterationKey, r.Iterations,
		log.ObjectiveKey, r.Objective,
		log.NonZeroKey, r.NonZero,
	)
	if r.ReachedMaxIter {
		logger.Warn("reaching max number of iterations", log.RoutineKey, name, log.IterationKey, r.Iterations)
	}
}

// sign maps a label to ±1.
func sign(y float64) float64 {
	if y > 0 {
		return 1
	}
	return -1
}

// pick returns cp for positive labels and cn otherwise.
func pick(y, cp, cn float64) float64 {
	if y > 0 {
		return cp
	}
	return cn
}

func identity(n int) []int {
	index := make([]int, n)
	for i := range index {
		index[i] = i
	}
	return index
}

func zero(w []float64) {
	for i := range w {
		w[i] = 0
	}
}
