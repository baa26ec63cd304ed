// Package golinear provides large-scale linear classification and
// regression for Go: L2- and L1-regularized logistic regression, linear
// SVMs with L1 and L2 losses, Crammer–Singer multi-class SVM, support
// vector regression and one-class SVM, trained on sparse data.
//
// golinear reads and writes the LIBSVM data format and the LIBLINEAR model
// text format, so models move freely between golinear and other LIBLINEAR
// front ends.
//
// # Installation
//
//	go get github.com/YuminosukeSato/golinear
//
// # Quick Start
//
// Training on a sparse problem:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/golinear/datasets"
//	    "github.com/YuminosukeSato/golinear/linear"
//	)
//
//	func main() {
//	    prob, err := datasets.LoadProblem("heart_scale", 1)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    param := linear.NewParameter(linear.L2RLogisticRegression, 1, 0)
//	    model, err := linear.Train(prob, param)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(model.Predict(prob.X[0]))
//
//	    if err := linear.SaveModel("heart_scale.model", model); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// Cross validation and the C search:
//
//	target, err := linear.CrossValidation(prob, param, 5)
//	acc, err := metrics.Accuracy(prob.Y, target)
//
//	res, err := linear.FindParameters(prob, param, 5, -1, -1)
//	fmt.Println(res.BestC, res.BestScore)
//
// # Packages
//
//   - linear: Parameter, Train, Model, cross validation and parameter search
//   - solver: dual coordinate descent, L1 coordinate descent, Crammer–Singer, one-class
//   - objective: primal objectives (logistic, squared hinge, L2-loss SVR)
//   - optimize: trust-region and line-search Newton methods
//   - core/sparse: sparse vectors and problems
//   - core/model: estimator interfaces, weights export, model persistence
//   - core/parallel: worker partitioning for the primal objectives
//   - datasets: LIBSVM-format reader and writer
//   - metrics: accuracy, MSE, squared correlation, AUC, log loss, R²
//   - sklearn/linear_model: LogisticRegression, LinearSVC, LinearSVR, OneClassSVM on gonum matrices
//   - pkg/errors, pkg/log: structured errors, warnings and zerolog logging
//
// # scikit-learn Compatibility
//
//	clf := linear_model.NewLogisticRegression(
//	    linear_model.WithLRC(10),
//	    linear_model.WithLRSolver("trust-region"),
//	)
//	if err := clf.Fit(X, y); err != nil {
//	    log.Fatal(err)
//	}
//	proba, err := clf.PredictProba(XTest)
//
// # Command Line
//
//	golinear train -s 2 -c 4 -B 1 heart_scale
//	golinear train -s 0 -C -v 5 -plot search.png heart_scale
//	golinear predict -b 1 heart_scale.t heart_scale.model out.txt
package golinear
