package log

// Standard attribute keys used across the pipelines. Using a fixed key set
// keeps log analysis and filtering consistent between training and serving.

// Model and operation context.
const (
	// ModelNameKey identifies the trainer backend, e.g. "LightGBM".
	ModelNameKey = "model.name"

	// ComponentKey identifies the package performing the operation.
	ComponentKey = "ml.component"

	// OperationKey specifies the operation, e.g. "fit", "predict", "transform".
	OperationKey = "ml.operation"

	// PhaseKey indicates the lifecycle phase, "training" or "inference".
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	// SamplesKey is the number of rows in the dataset being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns.
	FeaturesKey = "data.features"
)

// Metrics.
const (
	// AccuracyKey holds a computed accuracy value.
	AccuracyKey = "metric.accuracy"

	// F1Key holds a computed weighted F1 value.
	F1Key = "metric.f1"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Error context.
const (
	// ErrDetailKey carries the structured form of an error.
	ErrDetailKey = "error_detail"

	// StacktraceKey carries the stack trace extracted from an error.
	StacktraceKey = "stacktrace"
)
