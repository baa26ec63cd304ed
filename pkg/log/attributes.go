package log

// Standard attribute keys. They follow a hierarchical naming convention
// ("model.name", "solver.type") so log lines from training, cross validation
// and prediction can be filtered the same way.

// Model and Operation Context
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "LogisticRegression", "LinearSVC"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "cross_validate", "find_parameters"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is logging.
	// Examples: "linear", "solver", "optimize"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape
const (
	// SamplesKey indicates the number of samples (l).
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (n).
	FeaturesKey = "data.features"

	// ClassesKey indicates the number of distinct labels.
	ClassesKey = "data.classes"

	// FoldsKey is the number of cross-validation folds.
	FoldsKey = "data.folds"
)

// Solver progress
const (
	SolverKey     = "solver.type"
	// RoutineKey names the inner solver routine, e.g. "l2r_l2_svc_dual".
	RoutineKey    = "solver.routine"
	IterationKey  = "training.iteration"
	ObjectiveKey  = "solver.objective"
	GradNormKey   = "solver.gnorm"
	StepSizeKey   = "solver.step_size"
	CGIterKey     = "solver.cg_iter"
	DeltaKey      = "solver.delta"
	ActRedKey     = "solver.actred"
	PreRedKey     = "solver.prered"
	StatusKey     = "solver.status"
	NonZeroKey    = "solver.nnz"
	SupportKey    = "solver.n_sv"
	ToleranceKey  = "solver.tolerance"
	ActiveSizeKey = "solver.active_size"
)

// Hyperparameters and metrics
const (
	CKey        = "hyperparams.C"
	PKey        = "hyperparams.p"
	NuKey       = "hyperparams.nu"
	BiasKey     = "hyperparams.bias"
	AccuracyKey = "metrics.accuracy"
	MSEKey      = "metrics.mse"
	SCCKey      = "metrics.squared_correlation"

	RandomSeedKey = "config.random_seed"
	WorkersKey    = "config.workers"
)

// Error context
const (
	ErrorTypeKey  = "error.type"
	StacktraceKey = "error.stacktrace"
)

// Standard attribute value constants.
const (
	OperationFit            = "fit"
	OperationPredict        = "predict"
	OperationScore          = "score"
	OperationCrossValidate  = "cross_validate"
	OperationFindParameters = "find_parameters"

	PhaseTraining   = "training"
	PhaseValidation = "validation"
	PhaseInference  = "inference"
)
