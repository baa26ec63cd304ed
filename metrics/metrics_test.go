package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golinear/pkg/errors"
)

func TestMeanSquaredError(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{"perfect prediction", []float64{1, 2, 3, 4, 5}, []float64{1, 2, 3, 4, 5}, 0, false},
		{"simple case", []float64{1, 2, 3, 4}, []float64{1.5, 2.5, 2.5, 3.5}, 0.25, false},
		{"larger errors", []float64{10, 20, 30}, []float64{12, 18, 33}, 17.0 / 3.0, false},
		{"dimension mismatch", []float64{1, 2, 3}, []float64{1, 2}, 0, true},
		{"empty", nil, nil, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MeanSquaredError(tt.yTrue, tt.yPred)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-10)
		})
	}
}

func TestVecDenseRegressionMetrics(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1, 2, 3, 4})
	yPred := mat.NewVecDense(4, []float64{1.5, 2.5, 2.5, 3.5})

	mse, err := MSE(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, mse, 1e-12)

	rmse, err := RMSE(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, rmse, 1e-12)

	mae, err := MAE(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, mae, 1e-12)

	// TSS = 5, RSS = 1
	r2, err := R2Score(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, r2, 1e-12)

	_, err = R2Score(mat.NewVecDense(3, []float64{2, 2, 2}), mat.NewVecDense(3, []float64{1, 2, 3}))
	assert.Error(t, err)

	_, err = MSE(&mat.VecDense{}, &mat.VecDense{})
	assert.Error(t, err)

	_, err = MAE(yTrue, mat.NewVecDense(2, []float64{1, 2}))
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))
}

func TestMSEMatrix(t *testing.T) {
	got, err := MSEMatrix(
		mat.NewDense(4, 1, []float64{1, 2, 3, 4}),
		mat.NewDense(4, 1, []float64{1.5, 2.5, 2.5, 3.5}))
	require.NoError(t, err)
	assert.InDelta(t, 0.25, got, 1e-12)

	_, err = MSEMatrix(mat.NewDense(2, 2, []float64{1, 2, 3, 4}), mat.NewDense(2, 2, []float64{1, 2, 3, 4}))
	assert.Error(t, err)
}

func TestSquaredCorrelation(t *testing.T) {
	got, err := SquaredCorrelation([]float64{1, 2, 3, 4}, []float64{2, 4, 6, 8})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-12)

	got, err = SquaredCorrelation([]float64{1, 2, 3, 4}, []float64{4, 3, 2, 1})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-12)

	got, err = SquaredCorrelation([]float64{1, 2, 3}, []float64{1, 3, 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, got, 1e-12)

	var warned []error
	errors.SetWarningHandler(func(w error) { warned = append(warned, w) })
	defer errors.SetWarningHandler(nil)
	got, err = SquaredCorrelation([]float64{1, 1, 1}, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got))
	assert.Len(t, warned, 1)
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name  string
		yTrue []float64
		yPred []float64
		want  float64
	}{
		{"perfect accuracy", []float64{0, 1, 2, 1, 0}, []float64{0, 1, 2, 1, 0}, 1},
		{"80% accuracy", []float64{0, 1, 2, 1, 0}, []float64{0, 1, 1, 1, 0}, 0.8},
		{"zero accuracy", []float64{0, 0, 0}, []float64{1, 1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Accuracy(tt.yTrue, tt.yPred)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)

			e, err := ClassificationError(tt.yTrue, tt.yPred)
			require.NoError(t, err)
			assert.InDelta(t, 1-tt.want, e, 1e-12)
		})
	}

	_, err := Accuracy(nil, nil)
	assert.Error(t, err)
}

func TestAUC(t *testing.T) {
	errors.SetWarningHandler(func(error) {})
	defer errors.SetWarningHandler(nil)

	tests := []struct {
		name    string
		yTrue   []float64
		scores  []float64
		want    float64
		wantErr bool
	}{
		{name: "perfect classifier", yTrue: []float64{0, 0, 0, 1, 1, 1}, scores: []float64{0.1, 0.2, 0.3, 0.7, 0.8, 0.9}, want: 1},
		{name: "worst classifier", yTrue: []float64{0, 0, 0, 1, 1, 1}, scores: []float64{0.9, 0.8, 0.7, 0.3, 0.2, 0.1}, want: 0},
		{name: "all tied", yTrue: []float64{0, 1, 0, 1}, scores: []float64{0.5, 0.5, 0.5, 0.5}, want: 0.5},
		{name: "typical case", yTrue: []float64{0, 0, 1, 1}, scores: []float64{0.1, 0.4, 0.35, 0.8}, want: 0.75},
		{name: "plus minus one labels", yTrue: []float64{-1, -1, 1, 1}, scores: []float64{-2, 0.5, -0.1, 3}, want: 0.75},
		{name: "single class", yTrue: []float64{1, 1, 1}, scores: []float64{0.1, 0.4, 0.35}, want: 0.5},
		{name: "non-binary labels", yTrue: []float64{0, 0.5, 1}, scores: []float64{0.1, 0.5, 0.9}, wantErr: true},
		{name: "dimension mismatch", yTrue: []float64{0, 1}, scores: []float64{0.5}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AUC(tt.yTrue, tt.scores)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestAUCMatrix(t *testing.T) {
	got, err := AUCMatrix(
		mat.NewDense(4, 2, []float64{0, 9, 0, 9, 1, 9, 1, 9}),
		mat.NewDense(4, 2, []float64{0.1, 9, 0.4, 9, 0.35, 9, 0.8, 9}))
	require.NoError(t, err)
	assert.InDelta(t, 0.75, got, 1e-9)

	_, err = AUCMatrix(nil, mat.NewDense(1, 1, []float64{0.5}))
	assert.Error(t, err)
	_, err = AUCMatrix(&mat.Dense{}, &mat.Dense{})
	assert.Error(t, err)
}

func TestBinaryLogLoss(t *testing.T) {
	got, err := BinaryLogLoss([]float64{0, 0, 1, 1}, []float64{0.1, 0.2, 0.8, 0.9})
	require.NoError(t, err)
	want := -(math.Log(0.9) + math.Log(0.8) + math.Log(0.8) + math.Log(0.9)) / 4
	assert.InDelta(t, want, got, 1e-12)

	got, err = BinaryLogLoss([]float64{0, 1}, []float64{0, 1})
	require.NoError(t, err)
	assert.Less(t, got, 1e-10)

	_, err = BinaryLogLoss([]float64{0, 0.5}, []float64{0.1, 0.5})
	assert.Error(t, err)
}

func BenchmarkAUC(b *testing.B) {
	n := 1000
	yTrue := make([]float64, n)
	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			yTrue[i] = 1
		}
		scores[i] = float64(i%97) / 97
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = AUC(yTrue, scores)
	}
}
