package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/golinear/linear"
	"github.com/YuminosukeSato/golinear/pkg/errors"
)

const separable = `+1 1:2.1 2:1.8
-1 1:-2.0 2:-1.7
+1 1:1.7 2:2.3
-1 1:-1.9 2:-2.2
+1 1:2.4 2:2.0
-1 1:-2.3 2:-1.9
+1 1:1.9 2:1.6
-1 1:-1.6 2:-2.1
+1 1:2.2 2:2.2
-1 1:-2.2 2:-2.4
`

const linearTarget = `3 1:1 2:-1
1 1:0.5
-1 2:1
5 1:2 2:-1
0 1:0.5 2:1
2 1:1
4 1:1.5 2:-1
-2 1:-1
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func defaultTrainOptions() *trainOptions {
	return &trainOptions{
		solver:  int(linear.L2RL2LossSVCDual),
		c:       -1,
		p:       -1,
		nu:      linear.DefaultNu,
		bias:    -1,
		threads: 1,
		seed:    1,
		quiet:   true,
	}
}

func TestParseWeights(t *testing.T) {
	labels, weights, err := parseWeights("1:2, -1:0.5")
	require.NoError(t, err)
	assert.Equal(t, []int{1, -1}, labels)
	assert.Equal(t, []float64{2, 0.5}, weights)

	labels, weights, err = parseWeights("")
	require.NoError(t, err)
	assert.Nil(t, labels)
	assert.Nil(t, weights)

	for _, bad := range []string{"1", "a:2", "1:x", "1:2,"} {
		_, _, err := parseWeights(bad)
		var verr *errors.ValidationError
		assert.True(t, errors.As(err, &verr), bad)
	}
}

func TestTrainOptionsParameter(t *testing.T) {
	opts := defaultTrainOptions()
	opts.solver = int(linear.L2RL2LossSVR)
	opts.p = 0.3
	opts.noRegBias = true
	param, err := opts.parameter()
	require.NoError(t, err)
	assert.Equal(t, linear.L2RL2LossSVR, param.SolverType)
	assert.Equal(t, 1.0, param.C)
	assert.Equal(t, 0.3, param.P)
	assert.False(t, param.RegularizeBias)
	assert.Equal(t, linear.L2RL2LossSVR.DefaultEps(), param.Eps)

	opts.solver = 9
	_, err = opts.parameter()
	assert.Error(t, err)
}

func TestTrainPredict(t *testing.T) {
	data := writeFile(t, "train.txt", separable)
	dir := t.TempDir()
	modelFile := filepath.Join(dir, "train.model")
	outFile := filepath.Join(dir, "out.txt")

	for _, solver := range []linear.SolverType{linear.L2RLogisticRegression, linear.L2RL2LossSVCDual, linear.MCSVMCS} {
		t.Run(solver.String(), func(t *testing.T) {
			opts := defaultTrainOptions()
			opts.solver = int(solver)
			opts.bias = 1
			require.NoError(t, runTrain(opts, []string{data, modelFile}, &bytes.Buffer{}))

			m, err := linear.LoadModel(modelFile)
			require.NoError(t, err)
			assert.Equal(t, solver, m.SolverType)
			assert.Equal(t, 2, m.NrFeature)

			var out bytes.Buffer
			require.NoError(t, runPredict(&predictOptions{}, []string{data, modelFile, outFile}, &out))
			assert.Equal(t, "Accuracy = 100% (10/10)\n", out.String())

			got, err := os.ReadFile(outFile)
			require.NoError(t, err)
			lines := strings.Split(strings.TrimSpace(string(got)), "\n")
			require.Len(t, lines, 10)
			assert.Equal(t, "1", lines[0])
			assert.Equal(t, "-1", lines[1])
		})
	}
}

func TestPredictProbability(t *testing.T) {
	data := writeFile(t, "train.txt", separable)
	dir := t.TempDir()
	modelFile := filepath.Join(dir, "lr.model")
	outFile := filepath.Join(dir, "out.txt")

	opts := defaultTrainOptions()
	opts.solver = int(linear.L2RLogisticRegression)
	require.NoError(t, runTrain(opts, []string{data, modelFile}, &bytes.Buffer{}))

	require.NoError(t, runPredict(&predictOptions{probability: true, quiet: true}, []string{data, modelFile, outFile}, &bytes.Buffer{}))
	got, err := os.ReadFile(outFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(got)), "\n")
	require.Len(t, lines, 11)
	assert.Equal(t, "labels 1 -1", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "1 "))

	svm := filepath.Join(dir, "svm.model")
	opts.solver = int(linear.L2RL2LossSVCDual)
	require.NoError(t, runTrain(opts, []string{data, svm}, &bytes.Buffer{}))
	err = runPredict(&predictOptions{probability: true}, []string{data, svm, outFile}, &bytes.Buffer{})
	assert.True(t, errors.Is(err, errors.ErrNotProbabilityModel))
}

func TestPredictRegression(t *testing.T) {
	data := writeFile(t, "reg.txt", linearTarget)
	dir := t.TempDir()
	modelFile := filepath.Join(dir, "svr.model")

	opts := defaultTrainOptions()
	opts.solver = int(linear.L2RL2LossSVR)
	opts.c = 100
	opts.p = 0
	opts.bias = 1
	require.NoError(t, runTrain(opts, []string{data, modelFile}, &bytes.Buffer{}))

	var out bytes.Buffer
	require.NoError(t, runPredict(&predictOptions{}, []string{data, modelFile, filepath.Join(dir, "out.txt")}, &out))
	assert.Contains(t, out.String(), "Mean squared error = ")
	assert.Contains(t, out.String(), "Squared correlation coefficient = ")
}

func TestTrainCrossValidation(t *testing.T) {
	data := writeFile(t, "train.txt", separable)
	opts := defaultTrainOptions()
	opts.nrFold = 5

	var out bytes.Buffer
	require.NoError(t, runTrain(opts, []string{data}, &out))
	assert.Equal(t, "Cross Validation Accuracy = 100%\n", out.String())

	reg := writeFile(t, "reg.txt", linearTarget)
	opts.solver = int(linear.L2RL2LossSVR)
	opts.bias = 1
	out.Reset()
	require.NoError(t, runTrain(opts, []string{reg}, &out))
	assert.Contains(t, out.String(), "Cross Validation Mean squared error = ")
}

func TestTrainFindParameters(t *testing.T) {
	data := writeFile(t, "train.txt", separable)
	plotFile := filepath.Join(t.TempDir(), "search.png")
	opts := defaultTrainOptions()
	opts.solver = int(linear.L2RL2LossSVC)
	opts.findC = true
	opts.nrFold = 2
	opts.plotFile = plotFile

	var out bytes.Buffer
	require.NoError(t, runTrain(opts, []string{data}, &out))
	assert.True(t, strings.HasPrefix(out.String(), "Best C = "))

	info, err := os.Stat(plotFile)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	opts.solver = int(linear.L2RL1LossSVCDual)
	assert.Error(t, runTrain(opts, []string{data}, &out))
}

func TestSearchCurves(t *testing.T) {
	steps := []linear.SearchStep{
		{C: 1, P: 0.5, Score: 3},
		{C: 2, P: 0.5, Score: 2},
		{C: 1, P: 0.25, Score: 1},
	}
	order, curves := searchCurves(steps)
	assert.Equal(t, []float64{0.5, 0.25}, order)
	require.Len(t, curves[0.5], 2)
	assert.Equal(t, 1.0, curves[0.5][1].X)
	assert.Equal(t, 2.0, curves[0.5][1].Y)
	assert.Len(t, curves[0.25], 1)
}

func TestCommandArgs(t *testing.T) {
	assert.Error(t, runTrain(defaultTrainOptions(), nil, &bytes.Buffer{}))
	assert.Error(t, runPredict(&predictOptions{}, []string{"a", "b"}, &bytes.Buffer{}))

	_, err := os.Stat(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Error(t, runTrain(defaultTrainOptions(), []string{filepath.Join(t.TempDir(), "missing")}, &bytes.Buffer{}))
}

func TestNewApp(t *testing.T) {
	app := newApp()
	names := make([]string, 0, len(app.Subcommands))
	for _, c := range app.Subcommands {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"train", "predict"}, names)
	require.NotNil(t, app.Flag.Lookup("log-level"))
	assert.NotNil(t, app.Subcommands[0].Flag.Lookup("plot"))
}
