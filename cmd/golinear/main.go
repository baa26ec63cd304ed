// Command golinear trains and applies large-scale linear classifiers and
// regressors on LIBSVM-format data.
//
//	$ golinear train -s 2 -c 4 heart_scale
//	$ golinear predict heart_scale heart_scale.model out.txt
package main

import (
	"fmt"
	"os"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"

	"github.com/YuminosukeSato/golinear/pkg/log"
)

func newApp() *commander.Command {
	app := &commander.Command{
		UsageLine: "golinear <command> [options] [arguments]",
		Short:     "linear SVM and logistic regression solvers",
		Subcommands: []*commander.Command{
			trainCmd(),
			predictCmd(),
		},
		Flag: *flag.NewFlagSet("golinear", flag.ExitOnError),
	}
	app.Flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	return app
}

func main() {
	app := newApp()
	if err := app.Flag.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "**err**: %v\n", err)
		os.Exit(1)
	}
	if err := log.SetupLogger(app.Flag.Lookup("log-level").Value.String()); err != nil {
		fmt.Fprintf(os.Stderr, "**err**: %v\n", err)
		os.Exit(1)
	}
	log.SetOutput(os.Stderr)

	if err := app.Dispatch(app.Flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "**err**: %v\n", err)
		os.Exit(1)
	}
}
