package metrics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// logLossEps clips probabilities away from 0 and 1.
const logLossEps = 1e-15

// Accuracy は予測ラベルが真のラベルと一致した割合を返す
func Accuracy(yTrue, yPred []float64) (float64, error) {
	if err := checkPair("Accuracy", yTrue, yPred); err != nil {
		return 0, err
	}
	correct := 0
	for i, y := range yTrue {
		if yPred[i] == y {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}

// ClassificationError は誤分類率（1 - Accuracy）を返す
func ClassificationError(yTrue, yPred []float64) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// binaryClasses maps labels to positive (1) and negative (0 or -1).
func binaryClasses(op string, yTrue []float64) ([]bool, error) {
	classes := make([]bool, len(yTrue))
	for i, y := range yTrue {
		switch y {
		case 1:
			classes[i] = true
		case 0, -1:
		default:
			return nil, errors.NewValueError(op, fmt.Sprintf("label %g is not binary (expected 1 for positive, 0 or -1 for negative)", y))
		}
	}
	return classes, nil
}

// AUC はROC曲線下面積を計算する
//
// scores are decision values or positive-class probabilities. Ties are
// handled by thresholding at each distinct score. With only one class
// present the area is undefined; 0.5 is returned with a warning.
func AUC(yTrue, scores []float64) (float64, error) {
	if err := checkPair("AUC", yTrue, scores); err != nil {
		return 0, err
	}
	classes, err := binaryClasses("AUC", yTrue)
	if err != nil {
		return 0, err
	}

	pos := 0
	for _, c := range classes {
		if c {
			pos++
		}
	}
	if pos == 0 || pos == len(classes) {
		errors.Warn(errors.NewUndefinedMetricWarning("AUC", "only one class present in yTrue", 0.5))
		return 0.5, nil
	}

	// stat.ROC needs the scores in ascending order.
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] < scores[idx[b]] })
	y := make([]float64, len(idx))
	c := make([]bool, len(idx))
	for k, i := range idx {
		y[k] = scores[i]
		c[k] = classes[i]
	}

	tpr, fpr, _ := stat.ROC(nil, y, c, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}

// AUCMatrix は行列の先頭列同士でAUCを計算する
func AUCMatrix(yTrue, scores mat.Matrix) (float64, error) {
	t, s, err := columnPair("AUCMatrix", yTrue, scores, false)
	if err != nil {
		return 0, err
	}
	return AUC(t, s)
}

// BinaryLogLoss は二値分類の対数損失を計算する
//
// prob holds the probability of the positive class, as written to
// probEst[k] by Model.PredictProbability where Label[k] is the positive
// label.
func BinaryLogLoss(yTrue, prob []float64) (float64, error) {
	if err := checkPair("BinaryLogLoss", yTrue, prob); err != nil {
		return 0, err
	}
	classes, err := binaryClasses("BinaryLogLoss", yTrue)
	if err != nil {
		return 0, err
	}
	var loss float64
	for i, p := range prob {
		p = math.Min(math.Max(p, logLossEps), 1-logLossEps)
		if classes[i] {
			loss -= math.Log(p)
		} else {
			loss -= math.Log1p(-p)
		}
	}
	return loss / float64(len(prob)), nil
}
