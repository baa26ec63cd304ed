package model

import "gonum.org/v1/gonum/mat"

// Scorer is the interface for models that can compute a score: mean
// accuracy for classifiers, R² for regressors.
type Scorer interface {
	Score(X, y mat.Matrix) (float64, error)
}

// Classifier combines interfaces for classification models.
type Classifier interface {
	Estimator
	Scorer
	LinearModel

	// DecisionFunction returns the decision values, one column per
	// decision function.
	DecisionFunction(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the labels seen during fitting, in decision-function
	// order.
	Classes() []int
}

// ProbabilisticClassifier is a Classifier with probability estimates.
type ProbabilisticClassifier interface {
	Classifier

	// PredictProba returns one column per class, ordered as Classes().
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// Regressor combines interfaces for regression models.
type Regressor interface {
	Estimator
	Scorer
	LinearModel
}

// OutlierDetector is a model that labels samples +1 (inlier) or -1
// (outlier) without training labels.
type OutlierDetector interface {
	// Fit trains on X alone.
	Fit(X mat.Matrix) error
	Predictor
	DecisionFunction(X mat.Matrix) (mat.Matrix, error)
	IsFitted() bool
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that allow parameter modification.
type ParameterSetter interface {
	SetParams(params map[string]interface{}) error
}

// WeightsExporter is the interface for models whose learned state can be
// exported and re-imported exactly.
type WeightsExporter interface {
	ExportWeights() (*ModelWeights, error)
	ImportWeights(w *ModelWeights) error
}
