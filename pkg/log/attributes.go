// Standard attribute keys for auctionml log records.
//
// Keys follow a dotted hierarchy ("model.kind", "data.samples") so records can be
// filtered the same way across the engine, the HTTP surface and the CLI.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type, e.g. "Ridge", "Forest".
	ModelNameKey = "model.name"

	// ModelKindKey identifies the model family requested by a caller: "linear" or "ensemble".
	ModelKindKey = "model.kind"

	// DatasetIDKey identifies the dataset a trained artifact belongs to.
	DatasetIDKey = "dataset.id"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies the package emitting the record.
	ComponentKey = "ml.component"

	// PhaseKey indicates the model lifecycle phase.
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	DroppedKey  = "data.dropped"
)

// Performance and quality.
const (
	DurationMsKey  = "perf.duration_ms"
	R2ScoreKey     = "metrics.r2_score"
	MAEKey         = "metrics.mae"
	AccuracyKey    = "metrics.accuracy"
	ResidualStdKey = "metrics.residual_std"
)

// Analysis requests.
const (
	ObjectiveKey  = "optimize.objective"
	TrialsKey     = "optimize.trials"
	FeasibleKey   = "optimize.feasible"
	ResolutionKey = "surface.resolution"
	MetricKey     = "surface.metric"
)

// Errors and configuration.
const (
	ErrorTypeKey      = "error.type"
	RegularizationKey = "hyperparams.regularization"
	RandomSeedKey     = "config.random_seed"
	RequestIDKey      = "http.request_id"
)

// Standard attribute values.
const (
	OperationFit        = "fit"
	OperationPredict    = "predict"
	OperationImportance = "importance"
	OperationSurface    = "surface"
	OperationOptimize   = "optimize"
	OperationIngest     = "ingest"

	PhaseTraining   = "training"
	PhaseValidation = "validation"
	PhaseInference  = "inference"
)
