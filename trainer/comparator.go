package trainer

import (
	"gonum.org/v1/gonum/mat"

	"github.com/Manda404/obesity-predictor/metrics"
	"github.com/Manda404/obesity-predictor/pkg/errors"
	"github.com/Manda404/obesity-predictor/pkg/log"
)

// Comparator benchmarks a set of trainers on the same split and selects the
// best by weighted F1.
//
// Trainers are supplied as an ordered slice rather than a map: when two
// models reach exactly the same F1, the one earlier in the slice wins, and
// slice order is deterministic where map iteration order is not.
type Comparator struct {
	evaluator *Evaluator
	results   map[string]metrics.Evaluation
}

// NewComparator creates a comparator.
func NewComparator() *Comparator {
	return &Comparator{
		evaluator: NewEvaluator(),
		results:   make(map[string]metrics.Evaluation),
	}
}

// Compare trains every trainer on the training pair, evaluates it on the
// validation pair, and returns the name and evaluation of the best model by
// F1. Ties go to the trainer encountered first. An empty trainer slice
// yields EmptyTrainerSetError.
func (c *Comparator) Compare(trainers []Trainer, XTrain, XValid mat.Matrix, yTrain, yValid []string) (string, metrics.Evaluation, error) {
	logger := log.For("comparator")

	if len(trainers) == 0 {
		return "", metrics.Evaluation{}, errors.NewEmptyTrainerSetError()
	}

	bestName := ""
	var bestResult metrics.Evaluation
	first := true
	for _, t := range trainers {
		name := t.Name()
		logger.Info().Str(log.ModelNameKey, name).Msg("training model")

		if err := t.Train(XTrain, yTrain, XValid, yValid); err != nil {
			return "", metrics.Evaluation{}, errors.Wrapf(err, "training %s", name)
		}
		preds, err := t.Predict(XValid)
		if err != nil {
			return "", metrics.Evaluation{}, errors.Wrapf(err, "predicting with %s", name)
		}
		ev, err := c.evaluator.Evaluate(yValid, preds)
		if err != nil {
			return "", metrics.Evaluation{}, errors.Wrapf(err, "evaluating %s", name)
		}
		c.results[name] = ev

		// Strictly greater: on an exact F1 tie the earlier trainer stays.
		if first || ev.F1 > bestResult.F1 {
			bestName = name
			bestResult = ev
			first = false
		}
	}

	logger.Info().
		Str(log.ModelNameKey, bestName).
		Float64(log.F1Key, bestResult.F1).
		Msg("best model selected")
	return bestName, bestResult, nil
}

// Results returns the evaluation collected for each trainer during the last
// Compare call.
func (c *Comparator) Results() map[string]metrics.Evaluation {
	return c.results
}
