// Package metrics provides classification metrics for label predictions.
// All functions are pure: inputs are never mutated.
package metrics

import (
	"github.com/Manda404/obesity-predictor/pkg/errors"
)

// Evaluation is the fixed record of metrics produced for one model on one
// validation set. Confusion is square with dimension len(Classes); rows are
// true labels, columns predicted labels, both ordered by first appearance
// across yTrue then yPred.
type Evaluation struct {
	Accuracy  float64     `json:"accuracy"`
	Precision float64     `json:"precision"`
	Recall    float64     `json:"recall"`
	F1        float64     `json:"f1_score"`
	Classes   []string    `json:"classes"`
	Confusion [][]float64 `json:"confusion_matrix"`
}

// Map returns the scalar metrics as a name→value mapping, in the shape the
// tracking service expects.
func (e Evaluation) Map() map[string]float64 {
	return map[string]float64{
		"accuracy":  e.Accuracy,
		"precision": e.Precision,
		"recall":    e.Recall,
		"f1_score":  e.F1,
	}
}

// Evaluate computes accuracy, support-weighted precision/recall/F1 and the
// confusion matrix for yPred against yTrue. Classes absent from yTrue carry
// zero support and contribute nothing to the weighted averages; no class is
// dropped.
func Evaluate(yTrue, yPred []string) (Evaluation, error) {
	if len(yTrue) == 0 {
		return Evaluation{}, errors.Wrap(errors.ErrEmptyData, "metrics.Evaluate")
	}
	if len(yTrue) != len(yPred) {
		return Evaluation{}, errors.NewDimensionError("metrics.Evaluate", len(yTrue), len(yPred), 0)
	}

	classes := classUnion(yTrue, yPred)
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}

	n := len(classes)
	confusion := make([][]float64, n)
	for i := range confusion {
		confusion[i] = make([]float64, n)
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
		confusion[index[yTrue[i]]][index[yPred[i]]]++
	}

	var precision, recall, f1 float64
	total := float64(len(yTrue))
	for k := 0; k < n; k++ {
		tp := confusion[k][k]
		var fp, fn float64
		for j := 0; j < n; j++ {
			if j == k {
				continue
			}
			fp += confusion[j][k]
			fn += confusion[k][j]
		}
		support := tp + fn

		var p, r float64
		if tp+fp > 0 {
			p = tp / (tp + fp)
		}
		if tp+fn > 0 {
			r = tp / (tp + fn)
		}
		var f float64
		if p+r > 0 {
			f = 2 * p * r / (p + r)
		}

		weight := support / total
		precision += weight * p
		recall += weight * r
		f1 += weight * f
	}

	return Evaluation{
		Accuracy:  float64(correct) / total,
		Precision: precision,
		Recall:    recall,
		F1:        f1,
		Classes:   classes,
		Confusion: confusion,
	}, nil
}

// Accuracy returns the exact-match proportion.
func Accuracy(yTrue, yPred []string) (float64, error) {
	ev, err := Evaluate(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return ev.Accuracy, nil
}

// classUnion collects distinct labels in order of first appearance, scanning
// the true labels before the predicted ones.
func classUnion(yTrue, yPred []string) []string {
	seen := make(map[string]struct{})
	var classes []string
	for _, seq := range [][]string{yTrue, yPred} {
		for _, label := range seq {
			if _, ok := seen[label]; ok {
				continue
			}
			seen[label] = struct{}{}
			classes = append(classes, label)
		}
	}
	return classes
}
