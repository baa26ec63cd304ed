// Package sparse holds the sparse sample representation shared by every
// solver: feature vectors with 1-based strictly increasing indices, the
// training problem, and the three or four kernels the solvers are built on.
//
// The kernels do not validate indices. An index beyond the dense operand
// panics; Problem.Validate is the place where input is checked.
package sparse

// Feature is a single non-zero entry of a sample.
type Feature struct {
	Index int
	Value float64
}

// Vector is a sparse sample, sorted by Index.
type Vector []Feature

// Nrm2Sq returns the squared Euclidean norm of x.
func Nrm2Sq(x Vector) float64 {
	var ret float64
	for _, f := range x {
		ret += f.Value * f.Value
	}
	return ret
}

// Dot returns w·x where w is dense and indexed from 0.
func Dot(w []float64, x Vector) float64 {
	var ret float64
	for _, f := range x {
		ret += w[f.Index-1] * f.Value
	}
	return ret
}

// Axpy adds a*x to the dense vector y.
func Axpy(a float64, x Vector, y []float64) {
	for _, f := range x {
		y[f.Index-1] += a * f.Value
	}
}

// SparseDot returns x·y for two sorted sparse vectors.
func SparseDot(x, y Vector) float64 {
	var ret float64
	i, j := 0, 0
	for i < len(x) && j < len(y) {
		switch {
		case x[i].Index == y[j].Index:
			ret += x[i].Value * y[j].Value
			i++
			j++
		case x[i].Index > y[j].Index:
			j++
		default:
			i++
		}
	}
	return ret
}

// MaxIndex returns the largest feature index in x, or 0 for an empty vector.
func MaxIndex(x Vector) int {
	if len(x) == 0 {
		return 0
	}
	return x[len(x)-1].Index
}

// AppendBias returns a copy of x with (index, bias) appended.
func AppendBias(x Vector, index int, bias float64) Vector {
	out := make(Vector, len(x), len(x)+1)
	copy(out, x)
	return append(out, Feature{Index: index, Value: bias})
}

// FromDense converts a dense row to a sparse vector, skipping exact zeros.
func FromDense(row []float64) Vector {
	nnz := 0
	for _, v := range row {
		if v != 0 {
			nnz++
		}
	}
	out := make(Vector, 0, nnz)
	for j, v := range row {
		if v != 0 {
			out = append(out, Feature{Index: j + 1, Value: v})
		}
	}
	return out
}
