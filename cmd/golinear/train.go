package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"

	"github.com/YuminosukeSato/golinear/core/sparse"
	"github.com/YuminosukeSato/golinear/datasets"
	"github.com/YuminosukeSato/golinear/linear"
	"github.com/YuminosukeSato/golinear/metrics"
	"github.com/YuminosukeSato/golinear/pkg/errors"
	"github.com/YuminosukeSato/golinear/pkg/log"
)

// trainOptions are the flags of the train command. Negative c and p mean
// "not given".
type trainOptions struct {
	solver    int
	c         float64
	p         float64
	nu        float64
	eps       float64
	bias      float64
	noRegBias bool
	weights   string
	nrFold    int
	findC     bool
	threads   int
	seed      int64
	plotFile  string
	quiet     bool
}

func trainCmd() *commander.Command {
	opts := &trainOptions{}
	cmd := &commander.Command{
		Run: func(cmd *commander.Command, args []string) error {
			return errors.SafeExecute("train", func() error {
				return runTrain(opts, args, os.Stdout)
			})
		},
		UsageLine: "train [options] training_file [model_file]",
		Short:     "train a linear model on a LIBSVM-format file",
		Long: `
train a linear model on a LIBSVM-format file

	$ golinear train -s 0 -c 2 -B 1 heart_scale
	$ golinear train -s 2 -C -v 5 -plot search.png heart_scale

solver types (-s):
	 0 L2R_LR               L2-regularized logistic regression (primal)
	 1 L2R_L2LOSS_SVC_DUAL  L2-regularized L2-loss SVC (dual)
	 2 L2R_L2LOSS_SVC       L2-regularized L2-loss SVC (primal)
	 3 L2R_L1LOSS_SVC_DUAL  L2-regularized L1-loss SVC (dual)
	 4 MCSVM_CS             Crammer-Singer multi-class SVM
	 5 L1R_L2LOSS_SVC       L1-regularized L2-loss SVC
	 6 L1R_LR               L1-regularized logistic regression
	 7 L2R_LR_DUAL          L2-regularized logistic regression (dual)
	11 L2R_L2LOSS_SVR       L2-regularized L2-loss SVR (primal)
	12 L2R_L2LOSS_SVR_DUAL  L2-regularized L2-loss SVR (dual)
	13 L2R_L1LOSS_SVR_DUAL  L2-regularized L1-loss SVR (dual)
	21 ONECLASS_SVM         one-class SVM (dual)
`,
		Flag: *flag.NewFlagSet("train", flag.ExitOnError),
	}
	cmd.Flag.IntVar(&opts.solver, "s", int(linear.L2RL2LossSVCDual), "solver type")
	cmd.Flag.Float64Var(&opts.c, "c", -1, "cost parameter C (default 1)")
	cmd.Flag.Float64Var(&opts.p, "p", -1, "epsilon in the SVR loss (default 0.1)")
	cmd.Flag.Float64Var(&opts.nu, "n", linear.DefaultNu, "nu of the one-class SVM")
	cmd.Flag.Float64Var(&opts.eps, "e", 0, "stopping tolerance (default depends on the solver)")
	cmd.Flag.Float64Var(&opts.bias, "B", -1, "bias feature value; negative adds no bias")
	cmd.Flag.BoolVar(&opts.noRegBias, "R", false, "do not regularize the bias (requires -B 1)")
	cmd.Flag.StringVar(&opts.weights, "w", "", "class weights as label:weight,... (multiplies C)")
	cmd.Flag.IntVar(&opts.nrFold, "v", 0, "n-fold cross validation")
	cmd.Flag.BoolVar(&opts.findC, "C", false, "search for the best C (and p for SVR) by cross validation")
	cmd.Flag.IntVar(&opts.threads, "threads", 1, "threads for the logistic objective")
	cmd.Flag.Int64Var(&opts.seed, "seed", 1, "random seed")
	cmd.Flag.StringVar(&opts.plotFile, "plot", "", "with -C, draw the search curve to this PNG file")
	cmd.Flag.BoolVar(&opts.quiet, "q", false, "quiet mode (errors only)")
	return cmd
}

// parameter builds the solver configuration from the flags.
func (o *trainOptions) parameter() (linear.Parameter, error) {
	st := linear.SolverType(o.solver)
	if !st.Valid() {
		return linear.Parameter{}, errors.NewValidationError("s", "unknown solver type", o.solver)
	}
	c := o.c
	if c < 0 {
		c = 1
	}
	param := linear.NewParameter(st, c, o.eps)
	if o.p >= 0 {
		param.P = o.p
	}
	param.Nu = o.nu
	param.RegularizeBias = !o.noRegBias
	param.NumThreads = o.threads
	param.Seed = o.seed

	labels, weights, err := parseWeights(o.weights)
	if err != nil {
		return linear.Parameter{}, err
	}
	param.WeightLabel, param.Weight = labels, weights
	return param, nil
}

// parseWeights parses "label:weight,label:weight".
func parseWeights(text string) ([]int, []float64, error) {
	if text == "" {
		return nil, nil, nil
	}
	var labels []int
	var weights []float64
	for _, item := range strings.Split(text, ",") {
		l, w, ok := strings.Cut(strings.TrimSpace(item), ":")
		if !ok {
			return nil, nil, errors.NewValidationError("w", "expected label:weight", item)
		}
		label, err := strconv.Atoi(l)
		if err != nil {
			return nil, nil, errors.NewValidationError("w", "label is not an integer", l)
		}
		weight, err := strconv.ParseFloat(w, 64)
		if err != nil {
			return nil, nil, errors.NewValidationError("w", "weight is not a number", w)
		}
		labels = append(labels, label)
		weights = append(weights, weight)
	}
	return labels, weights, nil
}

func runTrain(opts *trainOptions, args []string, out io.Writer) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: golinear train [options] training_file [model_file]")
	}
	if opts.quiet {
		log.SetLevel(log.LevelError)
	}
	param, err := opts.parameter()
	if err != nil {
		return err
	}
	prob, err := datasets.LoadProblem(args[0], opts.bias)
	if err != nil {
		return err
	}

	switch {
	case opts.findC:
		nrFold := opts.nrFold
		if nrFold == 0 {
			nrFold = 5
		}
		return runSearch(prob, param, nrFold, opts, out)
	case opts.nrFold != 0:
		return runCrossValidation(prob, param, opts.nrFold, out)
	}

	modelFile := filepath.Base(args[0]) + ".model"
	if len(args) == 2 {
		modelFile = args[1]
	}
	m, err := linear.Train(prob, param)
	if err != nil {
		return err
	}
	if err := linear.SaveModel(modelFile, m); err != nil {
		return errors.Wrapf(err, "cannot save model to %s", modelFile)
	}
	return nil
}

func runCrossValidation(prob *sparse.Problem, param linear.Parameter, nrFold int, out io.Writer) error {
	target, err := linear.CrossValidation(prob, param, nrFold)
	if err != nil {
		return err
	}
	if param.SolverType.IsRegression() {
		mse, err := metrics.MeanSquaredError(prob.Y, target)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Cross Validation Mean squared error = %g\n", mse)
		scc, err := metrics.SquaredCorrelation(prob.Y, target)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Cross Validation Squared correlation coefficient = %g\n", scc)
		return nil
	}
	acc, err := metrics.Accuracy(prob.Y, target)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Cross Validation Accuracy = %g%%\n", 100*acc)
	return nil
}

func runSearch(prob *sparse.Problem, param linear.Parameter, nrFold int, opts *trainOptions, out io.Writer) error {
	res, err := linear.FindParameters(prob, param, nrFold, opts.c, opts.p)
	if err != nil {
		return err
	}
	if param.SolverType.IsRegression() {
		fmt.Fprintf(out, "Best C = %g Best p = %g CV MSE = %g\n", res.BestC, res.BestP, res.BestScore)
	} else {
		fmt.Fprintf(out, "Best C = %g CV accuracy = %g%%\n", res.BestC, 100*res.BestScore)
	}
	if opts.plotFile == "" {
		return nil
	}
	return plotSearch(res, param.SolverType, opts.plotFile)
}
