package solver

import (
	"math"

	"github.com/YuminosukeSato/golinear/core/sparse"
)

// scaledColumns returns a copy of the columns of probCol with every value
// multiplied by the sign of its sample label.
func scaledColumns(probCol *sparse.Problem) []sparse.Vector {
	nnz := 0
	for _, col := range probCol.X {
		nnz += len(col)
	}
	space := make([]sparse.Feature, 0, nnz)
	cols := make([]sparse.Vector, len(probCol.X))
	for j, col := range probCol.X {
		start := len(space)
		for _, f := range col {
			space = append(space, sparse.Feature{Index: f.Index, Value: f.Value * sign(probCol.Y[f.Index-1])})
		}
		cols[j] = space[start:len(space):len(space)]
	}
	return cols
}

// SolveL1RL2SVC solves L1-regularized L2-loss SVC
//
//	min_w Σ|wⱼ| + Σᵢ Cᵢ·max(0, 1 - yᵢwᵀxᵢ)²
//
// by coordinate descent with a one-dimensional Newton direction and an
// Armijo line search per coordinate. probCol is the column-major
// problem built by sparse.Transpose. When regularizeBias is false the last
// weight is excluded from the L1 term and from shrinking.
func SolveL1RL2SVC(probCol *sparse.Problem, w []float64, cp, cn float64, regularizeBias bool, opts Options) Result {
	const (
		maxNumLinesearch = 20
		sigma            = 0.01
	)
	l := probCol.L
	wSize := probCol.N
	logger := opts.logger()

	cols := scaledColumns(probCol)
	c := make([]float64, l)
	b := make([]float64, l) // b = 1 - y·wᵀx
	xjSq := make([]float64, wSize)
	index := identity(wSize)

	zero(w)
	for i := 0; i < l; i++ {
		b[i] = 1
		c[i] = pick(probCol.Y[i], cp, cn)
	}
	for j := 0; j < wSize; j++ {
		for _, f := range cols[j] {
			xjSq[j] += c[f.Index-1] * f.Value * f.Value
		}
	}

	gMaxOld := inf
	gNorm1Init := -1.0
	activeSize := wSize
	iter := 0

	isBias := func(j int) bool { return j == wSize-1 && !regularizeBias }

	for iter < opts.MaxIter {
		gMaxNew, gNorm1New := 0.0, 0.0

		opts.shuffle(index, activeSize)

		for s := 0; s < activeSize; s++ {
			j := index[s]
			var gLoss, h float64
			for _, f := range cols[j] {
				ind := f.Index - 1
				if b[ind] > 0 {
					tmp := c[ind] * f.Value
					gLoss -= tmp * b[ind]
					h += tmp * f.Value
				}
			}
			gLoss *= 2
			g := gLoss
			h = math.Max(2*h, tiny)

			violation := 0.0
			var gp, gn float64
			if isBias(j) {
				violation = math.Abs(g)
			} else {
				gp, gn = g+1, g-1
				switch {
				case w[j] == 0:
					if gp < 0 {
						violation = -gp
					} else if gn > 0 {
						violation = gn
					} else if opts.Shrinking && gp > gMaxOld/float64(l) && gn < -gMaxOld/float64(l) {
						activeSize--
						index[s], index[activeSize] = index[activeSize], index[s]
						s--
						continue
					}
				case w[j] > 0:
					violation = math.Abs(gp)
				default:
					violation = math.Abs(gn)
				}
			}
			gMaxNew = math.Max(gMaxNew, violation)
			gNorm1New += violation

			var d float64
			switch {
			case isBias(j):
				d = -g / h
			case gp < h*w[j]:
				d = -gp / h
			case gn > h*w[j]:
				d = -gn / h
			default:
				d = -w[j]
			}
			if math.Abs(d) < tiny {
				continue
			}

			var delta float64
			if isBias(j) {
				delta = g * d
			} else {
				delta = math.Abs(w[j]+d) - math.Abs(w[j]) + g*d
			}

			dOld := 0.0
			var lossOld, lossNew float64
			numLinesearch := 0
			for ; numLinesearch < maxNumLinesearch; numLinesearch++ {
				dDiff := dOld - d
				var cond float64
				if isBias(j) {
					cond = -sigma * delta
				} else {
					cond = math.Abs(w[j]+d) - math.Abs(w[j]) - sigma*delta
				}

				appxCond := xjSq[j]*d*d + gLoss*d + cond
				if appxCond <= 0 {
					sparse.Axpy(dDiff, cols[j], b)
					break
				}

				if numLinesearch == 0 {
					lossOld = 0
				}
				lossNew = 0
				for _, f := range cols[j] {
					ind := f.Index - 1
					if numLinesearch == 0 && b[ind] > 0 {
						lossOld += c[ind] * b[ind] * b[ind]
					}
					bNew := b[ind] + dDiff*f.Value
					b[ind] = bNew
					if bNew > 0 {
						lossNew += c[ind] * bNew * bNew
					}
				}

				cond += lossNew - lossOld
				if cond <= 0 {
					break
				}
				dOld = d
				d *= 0.5
				delta *= 0.5
			}

			w[j] += d

			// b has drifted from w after a failed search
			if numLinesearch >= maxNumLinesearch {
				logger.Debug("recomputing margins after failed line search", "feature", j)
				for i := range b {
					b[i] = 1
				}
				for k := 0; k < wSize; k++ {
					if w[k] != 0 {
						sparse.Axpy(-w[k], cols[k], b)
					}
				}
			}
		}

		if iter == 0 {
			gNorm1Init = gNorm1New
		}
		iter++

		if gNorm1New <= opts.Eps*gNorm1Init {
			if activeSize == wSize {
				break
			}
			activeSize = wSize
			logger.Debug("reactivating all variables", "iter", iter)
			gMaxOld = inf
			continue
		}
		gMaxOld = gMaxNew
	}

	var v float64
	nnz := 0
	for j := 0; j < wSize; j++ {
		if w[j] != 0 {
			v += math.Abs(w[j])
			nnz++
		}
	}
	if !regularizeBias {
		v -= math.Abs(w[wSize-1])
	}
	for i := 0; i < l; i++ {
		if b[i] > 0 {
			v += c[i] * b[i] * b[i]
		}
	}

	res := Result{Iterations: iter, Objective: v, NonZero: nnz}
	res.finish(logger, "l1r_l2_svc", opts.MaxIter)
	return res
}
