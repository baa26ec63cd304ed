package main

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/golinear/linear"
	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// searchCurves groups the search trace into one curve per p, in the order
// the p values were visited. Classification searches yield a single curve.
func searchCurves(steps []linear.SearchStep) ([]float64, map[float64]plotter.XYs) {
	var order []float64
	curves := make(map[float64]plotter.XYs)
	for _, s := range steps {
		if _, ok := curves[s.P]; !ok {
			order = append(order, s.P)
		}
		curves[s.P] = append(curves[s.P], plotter.XY{X: math.Log2(s.C), Y: s.Score})
	}
	return order, curves
}

// plotSearch draws the cross-validation score against log2(C).
func plotSearch(res linear.SearchResult, st linear.SolverType, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s parameter search", st)
	p.X.Label.Text = "log2(C)"
	if st.IsRegression() {
		p.Y.Label.Text = "CV mean squared error"
	} else {
		p.Y.Label.Text = "CV accuracy"
	}
	p.Add(plotter.NewGrid())

	order, curves := searchCurves(res.Steps)
	for i, pv := range order {
		line, points, err := plotter.NewLinePoints(curves[pv])
		if err != nil {
			return errors.Wrap(err, "cannot build search curve")
		}
		line.Color = plotutil.Color(i)
		points.Color = plotutil.Color(i)
		points.Shape = plotutil.Shape(i)
		p.Add(line, points)
		if st.IsRegression() {
			p.Legend.Add(fmt.Sprintf("p=%g", pv), line, points)
		}
	}

	if best, err := plotter.NewScatter(plotter.XYs{{X: math.Log2(res.BestC), Y: res.BestScore}}); err == nil {
		best.Radius = vg.Points(5)
		p.Add(best)
		p.Legend.Add("best", best)
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "cannot save plot to %s", path)
	}
	return nil
}
