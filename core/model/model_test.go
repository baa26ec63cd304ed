package model

import (
	"bytes"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/golinear/pkg/errors"
)

type lines []string

func (l lines) Encode(w io.Writer) error {
	_, err := io.WriteString(w, strings.Join(l, "\n")+"\n")
	return err
}

func decodeLines(r io.Reader) (lines, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return strings.Fields(string(data)), nil
}

func TestSaveLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.txt")
	require.NoError(t, SaveToFile(path, lines{"a", "b"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(raw))

	got, err := LoadFromFile(path, decodeLines)
	require.NoError(t, err)
	assert.Equal(t, lines{"a", "b"}, got)

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing"), decodeLines)
	assert.Error(t, err)
	assert.Error(t, SaveToFile(filepath.Join(t.TempDir(), "no", "such", "dir"), lines{}))
}

func TestSaveToWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SaveToWriter(&buf, lines{"x"}))
	assert.Equal(t, "x\n", buf.String())
}

func TestStateManager(t *testing.T) {
	s := NewStateManager("LinearSVC")
	assert.False(t, s.IsFitted())

	err := s.RequireFitted("Predict")
	var nf *errors.NotFittedError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "LinearSVC", nf.ModelName)
	assert.Equal(t, "Predict", nf.Method)

	s.SetFitted(3, 10)
	assert.NoError(t, s.RequireFeatures("Predict", 3))
	var dim *errors.DimensionError
	assert.True(t, errors.As(s.RequireFeatures("Predict", 4), &dim))

	nFeatures, nSamples := s.Dimensions()
	assert.Equal(t, 3, nFeatures)
	assert.Equal(t, 10, nSamples)

	s.Reset()
	assert.False(t, s.IsFitted())
}

func TestModelWeightsJSON(t *testing.T) {
	mw := &ModelWeights{
		ModelType:       "LinearSVC",
		Version:         WeightsVersion,
		SolverType:      "L2R_L2LOSS_SVC_DUAL",
		NrClass:         2,
		NrFeature:       2,
		Labels:          []int{1, -1},
		Bias:            1,
		W:               []float64{0.5, math.Copysign(0, -1), 1.0 / 3.0},
		Hyperparameters: map[string]interface{}{"C": 1.0},
		IsFitted:        true,
	}
	mw.Checksum = mw.ComputeChecksum()
	data, err := mw.ToJSON()
	require.NoError(t, err)

	got := &ModelWeights{}
	require.NoError(t, got.FromJSON(data))
	assert.Equal(t, mw.W, got.W)
	assert.True(t, math.Signbit(got.W[1]))
	assert.Equal(t, mw.Labels, got.Labels)

	clone := mw.Clone()
	clone.W[0] = 9
	clone.Labels[0] = 9
	assert.Equal(t, 0.5, mw.W[0])
	assert.Equal(t, 1, mw.Labels[0])
}

func TestModelWeightsValidate(t *testing.T) {
	tests := []struct {
		name  string
		mw    ModelWeights
		field string
	}{
		{"missing type", ModelWeights{Version: WeightsVersion}, "model_type"},
		{"bad version", ModelWeights{ModelType: "x", Version: "0"}, "version"},
		{"unfitted with weights", ModelWeights{ModelType: "x", Version: WeightsVersion, W: []float64{1}}, "w"},
		{"fitted without weights", ModelWeights{ModelType: "x", Version: WeightsVersion, IsFitted: true}, "w"},
		{"label count", ModelWeights{ModelType: "x", Version: WeightsVersion, IsFitted: true, W: []float64{1}, NrClass: 2, Labels: []int{1}}, "labels"},
		{"checksum", ModelWeights{ModelType: "x", Version: WeightsVersion, IsFitted: true, W: []float64{1}, Checksum: "00"}, "checksum"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var verr *errors.ValidationError
			require.True(t, errors.As(tt.mw.Validate(), &verr))
			assert.Equal(t, tt.field, verr.ParamName)
		})
	}
}
