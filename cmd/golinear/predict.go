package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"

	"github.com/YuminosukeSato/golinear/datasets"
	"github.com/YuminosukeSato/golinear/linear"
	"github.com/YuminosukeSato/golinear/metrics"
	"github.com/YuminosukeSato/golinear/pkg/errors"
	"github.com/YuminosukeSato/golinear/pkg/log"
)

type predictOptions struct {
	probability bool
	quiet       bool
}

func predictCmd() *commander.Command {
	opts := &predictOptions{}
	cmd := &commander.Command{
		Run: func(cmd *commander.Command, args []string) error {
			return errors.SafeExecute("predict", func() error {
				return runPredict(opts, args, os.Stdout)
			})
		},
		UsageLine: "predict [options] test_file model_file output_file",
		Short:     "apply a trained model to a LIBSVM-format file",
		Long: `
apply a trained model to a LIBSVM-format file

	$ golinear predict -b 1 heart_scale.t heart_scale.model out.txt

The output has one prediction per line. With -b 1 (logistic regression
only) the first line lists the labels and each prediction is followed by
the class probabilities in that order.
`,
		Flag: *flag.NewFlagSet("predict", flag.ExitOnError),
	}
	cmd.Flag.BoolVar(&opts.probability, "b", false, "output probability estimates")
	cmd.Flag.BoolVar(&opts.quiet, "q", false, "quiet mode (no accuracy output)")
	return cmd
}

func runPredict(opts *predictOptions, args []string, out io.Writer) (err error) {
	if len(args) != 3 {
		return errors.New("usage: golinear predict [options] test_file model_file output_file")
	}
	if opts.quiet {
		log.SetLevel(log.LevelError)
	}
	m, err := linear.LoadModel(args[1])
	if err != nil {
		return err
	}
	if opts.probability && !m.IsProbabilityModel() {
		return errors.Wrap(errors.ErrNotProbabilityModel, "probability output is supported only for logistic regression")
	}
	// the model supplies its own bias term
	prob, err := datasets.LoadProblem(args[0], -1)
	if err != nil {
		return err
	}

	f, err := os.Create(args[2])
	if err != nil {
		return errors.Wrapf(err, "cannot create %s", args[2])
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(f)

	pred := make([]float64, prob.L)
	var probEst []float64
	if opts.probability {
		probEst = make([]float64, m.NrClass)
		labels := make([]string, len(m.Label))
		for i, l := range m.Label {
			labels[i] = fmt.Sprint(l)
		}
		fmt.Fprintf(w, "labels %s\n", strings.Join(labels, " "))
	}
	for i, x := range prob.X {
		if opts.probability {
			if pred[i], err = m.PredictProbability(x, probEst); err != nil {
				return err
			}
			fmt.Fprintf(w, "%g", pred[i])
			for _, p := range probEst {
				fmt.Fprintf(w, " %g", p)
			}
			fmt.Fprintln(w)
			continue
		}
		pred[i] = m.Predict(x)
		fmt.Fprintf(w, "%.17g\n", pred[i])
	}
	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "cannot write %s", args[2])
	}
	if opts.quiet {
		return nil
	}
	return report(m, prob.Y, pred, out)
}

// report prints accuracy, or MSE and squared correlation for regression.
func report(m *linear.Model, y, pred []float64, out io.Writer) error {
	if m.IsRegressionModel() {
		mse, err := metrics.MeanSquaredError(y, pred)
		if err != nil {
			return err
		}
		scc, err := metrics.SquaredCorrelation(y, pred)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Mean squared error = %g (regression)\n", mse)
		fmt.Fprintf(out, "Squared correlation coefficient = %g (regression)\n", scc)
		return nil
	}
	acc, err := metrics.Accuracy(y, pred)
	if err != nil {
		return err
	}
	correct := int(acc*float64(len(y)) + 0.5)
	fmt.Fprintf(out, "Accuracy = %g%% (%d/%d)\n", 100*acc, correct, len(y))
	return nil
}
