// Package datasets はLIBSVM形式のテキストデータを読み込む
//
// 各行は
//
//	<label> <index>:<value> <index>:<value> ...
//
// の形式で、index は 1 始まりの昇順。空行は読み飛ばす。
package datasets

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/golinear/core/sparse"
	"github.com/YuminosukeSato/golinear/pkg/errors"
	"github.com/YuminosukeSato/golinear/pkg/log"
)

const maxLineSize = 1 << 28

// ReadProblem はLIBSVM形式のデータを読み込む
//
// When bias >= 0 every sample gets a trailing feature (maxIndex+1, bias)
// and the problem's N counts it.
func ReadProblem(r io.Reader, bias float64) (*sparse.Problem, error) {
	return readProblem(r, "libsvm", bias)
}

// LoadProblem はファイルからLIBSVM形式のデータを読み込む
func LoadProblem(path string, bias float64) (*sparse.Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()
	return readProblem(f, path, bias)
}

func readProblem(r io.Reader, source string, bias float64) (*sparse.Problem, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		y        []float64
		x        []sparse.Vector
		maxIndex int
		line     int
	)
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		label, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, errors.NewParseError(source, line, fmt.Sprintf("invalid label %q", fields[0]))
		}

		v := make(sparse.Vector, 0, len(fields))
		last := 0
		for _, tok := range fields[1:] {
			idxText, valText, ok := strings.Cut(tok, ":")
			if !ok {
				return nil, errors.NewParseError(source, line, fmt.Sprintf("feature %q is not index:value", tok))
			}
			idx, err := strconv.Atoi(idxText)
			if err != nil || idx <= last {
				return nil, errors.NewParseError(source, line,
					fmt.Sprintf("feature index %q must be a positive integer greater than %d", idxText, last))
			}
			val, err := strconv.ParseFloat(valText, 64)
			if err != nil {
				return nil, errors.NewParseError(source, line, fmt.Sprintf("invalid feature value %q", valText))
			}
			v = append(v, sparse.Feature{Index: idx, Value: val})
			last = idx
		}
		maxIndex = max(maxIndex, last)
		y = append(y, label)
		x = append(x, v)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", source)
	}
	if len(y) == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyData, "%s has no samples", source)
	}

	n := maxIndex
	if bias >= 0 {
		n++
		for i := range x {
			x[i] = sparse.AppendBias(x[i], n, bias)
		}
	}
	log.GetLoggerWithName("datasets").Debug("problem loaded",
		"source", source, log.SamplesKey, len(y), log.FeaturesKey, n)
	return sparse.NewProblem(y, x, n, bias), nil
}

// WriteProblem はLIBSVM形式で書き出す。バイアス特徴量は出力しない。
func WriteProblem(w io.Writer, prob *sparse.Problem) error {
	bw := bufio.NewWriter(w)
	for i, x := range prob.X {
		bw.WriteString(strconv.FormatFloat(prob.Y[i], 'g', -1, 64))
		for _, f := range x {
			if prob.Bias >= 0 && f.Index == prob.N {
				break
			}
			fmt.Fprintf(bw, " %d:%s", f.Index, strconv.FormatFloat(f.Value, 'g', -1, 64))
		}
		bw.WriteByte('\n')
	}
	return errors.Wrap(bw.Flush(), "failed to write problem")
}
