package trainer

import (
	"github.com/Manda404/obesity-predictor/metrics"
	"github.com/Manda404/obesity-predictor/pkg/log"
)

// Evaluator computes and logs classification metrics for a model's
// predictions against ground truth.
type Evaluator struct{}

// NewEvaluator creates an evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate is a pure computation over the two label slices; neither input
// is mutated.
func (e *Evaluator) Evaluate(yTrue, yPred []string) (metrics.Evaluation, error) {
	ev, err := metrics.Evaluate(yTrue, yPred)
	if err != nil {
		return metrics.Evaluation{}, err
	}
	logger := log.For("evaluator")
	logger.Info().
		Float64(log.AccuracyKey, ev.Accuracy).
		Float64("metric.precision", ev.Precision).
		Float64("metric.recall", ev.Recall).
		Float64(log.F1Key, ev.F1).
		Int("classes", len(ev.Classes)).
		Msg("evaluation complete")
	return ev, nil
}
