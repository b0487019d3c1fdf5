package trainer

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/Manda404/obesity-predictor/pkg/errors"
)

// cannedTrainer satisfies Trainer with a fixed prediction vector, letting
// comparator tests control each model's score exactly.
type cannedTrainer struct {
	name  string
	preds []string
}

func (c *cannedTrainer) Train(_ mat.Matrix, _ []string, _ mat.Matrix, _ []string) error {
	return nil
}
func (c *cannedTrainer) Predict(_ mat.Matrix) ([]string, error) { return c.preds, nil }
func (c *cannedTrainer) Save(string) error                      { return nil }
func (c *cannedTrainer) Load(string) error                      { return nil }
func (c *cannedTrainer) Name() string                           { return c.name }

func TestCompareFirstMaxWins(t *testing.T) {
	yValid := []string{"x", "x", "y", "y", "y"}
	X := mat.NewDense(5, 1, nil)

	// A scores below B; B and C tie exactly, so slice order must decide.
	trainers := []Trainer{
		&cannedTrainer{name: "A", preds: []string{"x", "y", "x", "y", "x"}},
		&cannedTrainer{name: "B", preds: []string{"x", "x", "y", "y", "x"}},
		&cannedTrainer{name: "C", preds: []string{"x", "x", "y", "y", "x"}},
	}

	c := NewComparator()
	bestName, bestResult, err := c.Compare(trainers, X, X, yValid, yValid)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if bestName != "B" {
		t.Errorf("best = %q, want B (first max encountered)", bestName)
	}

	results := c.Results()
	if len(results) != 3 {
		t.Fatalf("results hold %d entries, want 3", len(results))
	}
	if results["B"].F1 != results["C"].F1 {
		t.Errorf("B and C were constructed to tie, got %v vs %v", results["B"].F1, results["C"].F1)
	}
	if results["A"].F1 >= bestResult.F1 {
		t.Errorf("A.F1 = %v should be below best %v", results["A"].F1, bestResult.F1)
	}
}

func TestCompareEmptyTrainerSet(t *testing.T) {
	c := NewComparator()
	_, _, err := c.Compare(nil, nil, nil, nil, nil)
	var empty *errors.EmptyTrainerSetError
	if !errors.As(err, &empty) {
		t.Errorf("error = %v, want EmptyTrainerSetError", err)
	}
}
