package linear

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/golinear/core/model"
	"github.com/YuminosukeSato/golinear/pkg/errors"
)

const modelSource = "model"

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Encode はモデルをテキスト形式で書き出す
//
//	solver_type L2R_LR
//	nr_class 2
//	label 1 -1
//	nr_feature 4
//	bias 1
//	w
//	0.25
//	...
//
// Weights use the shortest representation that parses back to the same
// float64.
func (m *Model) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "solver_type %s\n", m.SolverType)
	fmt.Fprintf(bw, "nr_class %d\n", m.NrClass)
	if m.Label != nil {
		bw.WriteString("label")
		for _, l := range m.Label {
			fmt.Fprintf(bw, " %d", l)
		}
		bw.WriteString("\n")
	}
	fmt.Fprintf(bw, "nr_feature %d\n", m.NrFeature)
	fmt.Fprintf(bw, "bias %s\n", formatFloat(m.Bias))
	if m.IsOneClassModel() {
		fmt.Fprintf(bw, "rho %s\n", formatFloat(m.Rho))
	}
	bw.WriteString("w\n")

	nrW := m.NrW()
	for i := 0; i < m.WSize(); i++ {
		for j := 0; j < nrW; j++ {
			bw.WriteString(formatFloat(m.W[i*nrW+j]))
			bw.WriteByte(' ')
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// DecodeModel は Encode の出力を読み込む。未知のキーや重みの過不足はエラー。
func DecodeModel(r io.Reader) (*Model, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<28)
	m := &Model{}
	line := 0
	seen := map[string]bool{}

	fail := func(format string, args ...any) (*Model, error) {
		return nil, errors.NewParseError(modelSource, line, fmt.Sprintf(format, args...))
	}

	inWeights := false
	for !inWeights && sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		key, args := fields[0], fields[1:]
		if seen[key] {
			return fail("duplicate key %q", key)
		}
		seen[key] = true

		var err error
		switch key {
		case "solver_type":
			if len(args) != 1 {
				return fail("solver_type takes one value")
			}
			m.SolverType, err = ParseSolverType(args[0])
		case "nr_class":
			m.NrClass, err = parseSingleInt(args)
		case "nr_feature":
			m.NrFeature, err = parseSingleInt(args)
		case "bias":
			m.Bias, err = parseSingleFloat(args)
		case "rho":
			m.Rho, err = parseSingleFloat(args)
		case "label":
			m.Label = make([]int, len(args))
			for i, a := range args {
				if m.Label[i], err = strconv.Atoi(a); err != nil {
					break
				}
			}
		case "w":
			inWeights = true
		default:
			return fail("unknown key %q", key)
		}
		if err != nil {
			return fail("%s: %v", key, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read model")
	}

	for _, key := range []string{"solver_type", "nr_class", "nr_feature", "bias", "w"} {
		if !seen[key] {
			return fail("missing %q", key)
		}
	}
	if m.NrClass < 1 || m.NrFeature < 0 {
		return fail("invalid nr_class %d or nr_feature %d", m.NrClass, m.NrFeature)
	}
	if m.Label != nil && len(m.Label) != m.NrClass {
		return fail("label lists %d classes, nr_class is %d", len(m.Label), m.NrClass)
	}
	if m.Label == nil && !m.IsRegressionModel() && !m.IsOneClassModel() {
		return fail("classification model without labels")
	}

	total := m.WSize() * m.NrW()
	m.W = make([]float64, 0, total)
	for sc.Scan() {
		line++
		for _, tok := range strings.Fields(sc.Text()) {
			if len(m.W) == total {
				return fail("more than %d weights", total)
			}
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return fail("weight: %v", err)
			}
			m.W = append(m.W, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read model weights")
	}
	if len(m.W) != total {
		return fail("expected %d weights, found %d", total, len(m.W))
	}
	return m, nil
}

func parseSingleInt(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errors.Newf("expected one value, got %d", len(args))
	}
	return strconv.Atoi(args[0])
}

func parseSingleFloat(args []string) (float64, error) {
	if len(args) != 1 {
		return 0, errors.Newf("expected one value, got %d", len(args))
	}
	return strconv.ParseFloat(args[0], 64)
}

// SaveModel はモデルをファイルに保存する
func SaveModel(path string, m *Model) error {
	return model.SaveToFile(path, m)
}

// LoadModel はファイルからモデルを読み込む
func LoadModel(path string) (*Model, error) {
	return model.LoadFromFile(path, DecodeModel)
}
