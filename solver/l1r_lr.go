package solver

import (
	"math"

	"github.com/YuminosukeSato/golinear/core/sparse"
	"github.com/YuminosukeSato/golinear/pkg/log"
)

// MaxNewtonIter bounds the outer iterations of SolveL1RLR.
const MaxNewtonIter = 100

// SolveL1RLR solves L1-regularized logistic regression
//
//	min_w Σ|wⱼ| + Σᵢ Cᵢ·log(1 + exp(-yᵢwᵀxᵢ))
//
// with a Newton method whose quadratic sub-problems are solved by
// coordinate descent (newGLMNET). opts.MaxIter bounds the inner passes; the
// outer loop is capped at MaxNewtonIter. probCol is the column-major
// problem built by sparse.Transpose.
func SolveL1RLR(probCol *sparse.Problem, w []float64, cp, cn float64, regularizeBias bool, opts Options) Result {
	const (
		maxNumLinesearch = 20
		nu               = 1e-12
		sigma            = 0.01
	)
	l := probCol.L
	wSize := probCol.N
	cols := probCol.X
	logger := opts.logger()
	fl := float64(l)

	y := make([]float64, l)
	c := make([]float64, l)
	hDiag := make([]float64, wSize)
	grad := make([]float64, wSize)
	wpd := make([]float64, wSize)
	xjNegSum := make([]float64, wSize)
	xTd := make([]float64, l)
	expWTx := make([]float64, l)
	expWTxNew := make([]float64, l)
	tau := make([]float64, l)
	dd := make([]float64, l)
	index := identity(wSize)

	isBias := func(j int) bool { return j == wSize-1 && !regularizeBias }

	zero(w)
	for i := 0; i < l; i++ {
		y[i] = sign(probCol.Y[i])
		c[i] = pick(probCol.Y[i], cp, cn)
	}

	wNorm := 0.0
	for j := 0; j < wSize; j++ {
		wNorm += math.Abs(w[j])
		wpd[j] = w[j]
		for _, f := range cols[j] {
			ind := f.Index - 1
			expWTx[ind] += w[j] * f.Value
			if y[ind] == -1 {
				xjNegSum[j] += c[ind] * f.Value
			}
		}
	}
	if !regularizeBias {
		wNorm -= math.Abs(w[wSize-1])
	}

	updateWeights := func() {
		for i := 0; i < l; i++ {
			tmp := 1 / (1 + expWTx[i])
			tau[i] = c[i] * tmp
			dd[i] = c[i] * expWTx[i] * tmp * tmp
		}
	}
	for i := 0; i < l; i++ {
		expWTx[i] = math.Exp(expWTx[i])
	}
	updateWeights()
	if opts.MaxIter <= 0 {
		res := Result{Objective: l1rLRObjective(w, y, c, expWTx, regularizeBias)}
		res.finish(logger, "l1r_lr", opts.MaxIter)
		return res
	}

	gMaxOld := inf
	gNorm1Init := -1.0
	innerEps := 1.0
	newtonIter := 0

	for newtonIter < MaxNewtonIter {
		gMaxNew, gNorm1New := 0.0, 0.0
		activeSize := wSize

		for s := 0; s < activeSize; s++ {
			j := index[s]
			hDiag[j] = nu
			var tmp float64
			for _, f := range cols[j] {
				ind := f.Index - 1
				hDiag[j] += f.Value * f.Value * dd[ind]
				tmp += f.Value * tau[ind]
			}
			grad[j] = -tmp + xjNegSum[j]

			violation := 0.0
			if isBias(j) {
				violation = math.Abs(grad[j])
			} else {
				gp, gn := grad[j]+1, grad[j]-1
				switch {
				case w[j] == 0:
					if gp < 0 {
						violation = -gp
					} else if gn > 0 {
						violation = gn
					} else if opts.Shrinking && gp > gMaxOld/fl && gn < -gMaxOld/fl {
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
		}

		if newtonIter == 0 {
			gNorm1Init = gNorm1New
		}
		if gNorm1New <= opts.Eps*gNorm1Init {
			break
		}

		iter := 0
		qpGMaxOld := inf
		qpActiveSize := activeSize
		for i := range xTd {
			xTd[i] = 0
		}

		for iter < opts.MaxIter {
			qpGMaxNew, qpGNorm1New := 0.0, 0.0

			opts.shuffle(index, qpActiveSize)

			for s := 0; s < qpActiveSize; s++ {
				j := index[s]
				h := hDiag[j]
				g := grad[j] + (wpd[j]-w[j])*nu
				for _, f := range cols[j] {
					ind := f.Index - 1
					g += f.Value * dd[ind] * xTd[ind]
				}

				violation := 0.0
				var z float64
				if isBias(j) {
					violation = math.Abs(g)
					z = -g / h
				} else {
					gp, gn := g+1, g-1
					switch {
					case wpd[j] == 0:
						if gp < 0 {
							violation = -gp
						} else if gn > 0 {
							violation = gn
						} else if opts.Shrinking && gp > qpGMaxOld/fl && gn < -qpGMaxOld/fl {
							qpActiveSize--
							index[s], index[qpActiveSize] = index[qpActiveSize], index[s]
							s--
							continue
						}
					case wpd[j] > 0:
						violation = math.Abs(gp)
					default:
						violation = math.Abs(gn)
					}

					switch {
					case gp < h*wpd[j]:
						z = -gp / h
					case gn > h*wpd[j]:
						z = -gn / h
					default:
						z = -wpd[j]
					}
				}
				qpGMaxNew = math.Max(qpGMaxNew, violation)
				qpGNorm1New += violation

				if math.Abs(z) < tiny {
					continue
				}
				z = math.Min(math.Max(z, -10), 10)
				wpd[j] += z
				sparse.Axpy(z, cols[j], xTd)
			}

			iter++

			if qpGNorm1New <= innerEps*gNorm1Init {
				if qpActiveSize == activeSize {
					break
				}
				qpActiveSize = activeSize
				qpGMaxOld = inf
				continue
			}
			qpGMaxOld = qpGMaxNew
		}

		if opts.MaxIter > 0 && iter >= opts.MaxIter {
			logger.Warn("reaching max number of inner iterations", log.IterationKey, newtonIter)
		}

		delta := 0.0
		wNormNew := 0.0
		for j := 0; j < wSize; j++ {
			delta += grad[j] * (wpd[j] - w[j])
			if wpd[j] != 0 {
				wNormNew += math.Abs(wpd[j])
			}
		}
		if !regularizeBias {
			wNormNew -= math.Abs(wpd[wSize-1])
		}
		delta += wNormNew - wNorm

		negSumXTd := 0.0
		for i := 0; i < l; i++ {
			if y[i] == -1 {
				negSumXTd += c[i] * xTd[i]
			}
		}

		numLinesearch := 0
		for ; numLinesearch < maxNumLinesearch; numLinesearch++ {
			cond := wNormNew - wNorm + negSumXTd - sigma*delta
			for i := 0; i < l; i++ {
				expXTd := math.Exp(xTd[i])
				expWTxNew[i] = expWTx[i] * expXTd
				cond += c[i] * math.Log((1+expWTxNew[i])/(expXTd+expWTxNew[i]))
			}

			if cond <= 0 {
				wNorm = wNormNew
				copy(w, wpd)
				copy(expWTx, expWTxNew)
				updateWeights()
				break
			}

			wNormNew = 0
			for j := 0; j < wSize; j++ {
				wpd[j] = (w[j] + wpd[j]) * 0.5
				if wpd[j] != 0 {
					wNormNew += math.Abs(wpd[j])
				}
			}
			if !regularizeBias {
				wNormNew -= math.Abs(wpd[wSize-1])
			}
			delta *= 0.5
			negSumXTd *= 0.5
			for i := range xTd {
				xTd[i] *= 0.5
			}
		}

		// exp(wᵀx) has drifted after too many halvings
		if numLinesearch >= maxNumLinesearch {
			for i := range expWTx {
				expWTx[i] = 0
			}
			for j := 0; j < wSize; j++ {
				if w[j] != 0 {
					sparse.Axpy(w[j], cols[j], expWTx)
				}
			}
			for i := range expWTx {
				expWTx[i] = math.Exp(expWTx[i])
			}
		}

		if iter == 1 {
			innerEps *= 0.25
		}

		newtonIter++
		gMaxOld = gMaxNew
		logger.Debug("newton step", log.IterationKey, newtonIter, "cd_cycles", iter)
	}

	nnz := 0
	for j := 0; j < wSize; j++ {
		if w[j] != 0 {
			nnz++
		}
	}
	res := Result{Iterations: newtonIter, Objective: l1rLRObjective(w, y, c, expWTx, regularizeBias), NonZero: nnz}
	res.finish(logger, "l1r_lr", MaxNewtonIter)
	return res
}

// l1rLRObjective is ‖w‖₁ + Σ cᵢ·log(1+exp(-yᵢwᵀxᵢ)) given expWTx = exp(wᵀx).
func l1rLRObjective(w, y, c, expWTx []float64, regularizeBias bool) float64 {
	var v float64
	for _, wj := range w {
		v += math.Abs(wj)
	}
	if !regularizeBias {
		v -= math.Abs(w[len(w)-1])
	}
	for i := range y {
		if y[i] == 1 {
			v += c[i] * math.Log(1+1/expWTx[i])
		} else {
			v += c[i] * math.Log(1+expWTx[i])
		}
	}
	return v
}
