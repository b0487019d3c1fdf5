// Package model provides the shared estimator lifecycle and artifact
// persistence used by the preprocessing and trainer packages.
package model

// EstimatorState represents the lifecycle state of an estimator.
type EstimatorState int

const (
	// NotFitted means Fit (or Train) has not been called yet.
	NotFitted EstimatorState = iota
	// Fitted means the estimator holds learned parameters.
	Fitted
)

// BaseEstimator is embedded by every component with a fit/transform or
// train/predict lifecycle.
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted reports whether the estimator holds learned parameters.
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted marks the estimator as fitted.
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset returns the estimator to its unfitted state.
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}
