package sparse

import (
	"fmt"

	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// Problem is a training set of L samples over N features.
//
// When Bias >= 0 every sample carries a trailing feature (N, Bias) and N
// counts that bias column. Bias < 0 means no bias term.
type Problem struct {
	L    int
	N    int
	Y    []float64
	X    []Vector
	Bias float64
}

// NewProblem builds a Problem from parallel label and sample slices.
func NewProblem(y []float64, x []Vector, n int, bias float64) *Problem {
	return &Problem{L: len(y), N: n, Y: y, X: x, Bias: bias}
}

// Validate checks shape and index ordering. It never mutates p.
func (p *Problem) Validate() error {
	if p == nil || p.L <= 0 {
		return errors.Wrap(errors.ErrEmptyData, "problem has no samples")
	}
	if p.N <= 0 {
		return errors.NewValidationError("n", "number of features must be positive", p.N)
	}
	if len(p.Y) != p.L {
		return errors.NewDimensionError("Problem.Validate", p.L, len(p.Y), 0)
	}
	if len(p.X) != p.L {
		return errors.NewDimensionError("Problem.Validate", p.L, len(p.X), 0)
	}
	for i, x := range p.X {
		last := 0
		for _, f := range x {
			if f.Index <= last {
				return errors.NewValueError("Problem.Validate",
					fmt.Sprintf("sample %d: feature indices must be positive and strictly ascending (index %d after %d)", i, f.Index, last))
			}
			if f.Index > p.N {
				return errors.NewValueError("Problem.Validate",
					fmt.Sprintf("sample %d: feature index %d exceeds n=%d", i, f.Index, p.N))
			}
			last = f.Index
		}
		if p.Bias >= 0 {
			if len(x) == 0 || x[len(x)-1].Index != p.N || x[len(x)-1].Value != p.Bias {
				return errors.NewValueError("Problem.Validate",
					fmt.Sprintf("sample %d: bias %g requires trailing feature (%d, %g)", i, p.Bias, p.N, p.Bias))
			}
		}
	}
	return nil
}

// Subset returns a problem made of the samples at idx, sharing the
// underlying feature vectors.
func (p *Problem) Subset(idx []int) *Problem {
	sub := &Problem{
		L:    len(idx),
		N:    p.N,
		Y:    make([]float64, len(idx)),
		X:    make([]Vector, len(idx)),
		Bias: p.Bias,
	}
	for k, i := range idx {
		sub.Y[k] = p.Y[i]
		sub.X[k] = p.X[i]
	}
	return sub
}

// Transpose returns the column-major view of p: X[j] lists the samples that
// have feature j+1, as (sampleIndex+1, value) in sample order. The result owns
// its features so solvers may scale them in place.
func Transpose(p *Problem) *Problem {
	colCount := make([]int, p.N+1)
	nnz := 0
	for _, x := range p.X {
		for _, f := range x {
			colCount[f.Index]++
			nnz++
		}
	}

	space := make([]Feature, nnz)
	cols := make([]Vector, p.N)
	offset := 0
	for j := 0; j < p.N; j++ {
		cols[j] = space[offset : offset : offset+colCount[j+1]]
		offset += colCount[j+1]
	}
	for i, x := range p.X {
		for _, f := range x {
			cols[f.Index-1] = append(cols[f.Index-1], Feature{Index: i + 1, Value: f.Value})
		}
	}

	y := make([]float64, p.L)
	copy(y, p.Y)
	return &Problem{L: p.L, N: p.N, Y: y, X: cols, Bias: p.Bias}
}
