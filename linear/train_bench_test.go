//go:build go1.22

package linear

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/YuminosukeSato/golinear/core/sparse"
	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// createBenchmarkProblem はベンチマーク用の疎な二値分類問題を生成する
func createBenchmarkProblem(rows, cols int, density float64) *sparse.Problem {
	// シードを固定して再現性を確保
	rng := rand.New(rand.NewPCG(42, 42))

	trueWeights := make([]float64, cols)
	for j := range trueWeights {
		trueWeights[j] = rng.Float64()*2.0 - 1.0
	}

	y := make([]float64, rows)
	x := make([]sparse.Vector, rows)
	for i := 0; i < rows; i++ {
		var v sparse.Vector
		for j := 0; j < cols; j++ {
			if rng.Float64() < density {
				v = append(v, sparse.Feature{Index: j + 1, Value: rng.Float64()*2.0 - 1.0})
			}
		}
		v = sparse.AppendBias(v, cols+1, 1)
		x[i] = v
		if sparse.Dot(trueWeights, v[:len(v)-1]) > 0 {
			y[i] = 1
		} else {
			y[i] = -1
		}
	}
	return sparse.NewProblem(y, x, cols+1, 1)
}

func BenchmarkTrain(b *testing.B) {
	errors.SetWarningHandler(func(error) {})
	defer errors.SetWarningHandler(nil)

	sizes := []struct {
		name string
		rows int
		cols int
	}{
		{"Small_500x50", 500, 50},
		{"Medium_5000x200", 5000, 200},
		{"Large_20000x1000", 20000, 1000},
	}
	solvers := []SolverType{L2RLogisticRegression, L2RL2LossSVCDual, L1RL2LossSVC}

	for _, size := range sizes {
		prob := createBenchmarkProblem(size.rows, size.cols, 0.05)
		for _, st := range solvers {
			b.Run(size.name+"/"+st.String(), func(b *testing.B) {
				param := NewParameter(st, 1, 0)
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if _, err := Train(prob, param); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

// BenchmarkTrainThreads は目的関数の並列評価の効果を測定する
func BenchmarkTrainThreads(b *testing.B) {
	errors.SetWarningHandler(func(error) {})
	defer errors.SetWarningHandler(nil)

	prob := createBenchmarkProblem(20000, 500, 0.05)
	for _, threads := range []int{1, 2, 4} {
		b.Run(L2RLogisticRegression.String()+fmt.Sprintf("/threads=%d", threads), func(b *testing.B) {
			param := NewParameter(L2RLogisticRegression, 1, 0)
			param.NumThreads = threads
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := Train(prob, param); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
