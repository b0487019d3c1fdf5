// Package trainer implements gradient-boosted classification over three
// interchangeable backends, plus the evaluator and comparator that
// benchmark them.
//
// Every backend satisfies the same four-operation contract: Train, Predict,
// Save, Load. Consumers depend only on that contract; the comparator
// additionally uses Name for reporting. The backends differ in how their
// trees are grown and in their native on-disk serialization format. A model
// saved by one backend cannot be loaded by another.
package trainer

import (
	"gonum.org/v1/gonum/mat"
)

// Trainer is the capability-set contract shared by all boosted-tree
// backends.
type Trainer interface {
	// Train fits the classifier on the training pair, using the validation
	// pair for early stopping. It moves the trainer from untrained to
	// trained state.
	Train(XTrain mat.Matrix, yTrain []string, XValid mat.Matrix, yValid []string) error

	// Predict returns one predicted label per row of X, in row order.
	// It fails with NotTrainedError before Train.
	Predict(X mat.Matrix) ([]string, error)

	// Save persists the trained model in the backend's native format.
	Save(path string) error

	// Load restores a model previously saved by the same backend.
	Load(path string) error

	// Name returns the human-readable backend name used in reports and
	// artifact file names.
	Name() string
}

// Suffixer is implemented by backends that declare their native artifact
// file extension. The training pipeline consults it when composing artifact
// paths; backends without it default to ".bin".
type Suffixer interface {
	ArtifactSuffix() string
}

// Params holds the hyperparameters shared by the boosting backends. The
// zero value is usable: withDefaults fills in the standard settings.
type Params struct {
	// NumRounds is the number of boosting rounds.
	NumRounds int

	// LearningRate shrinks each tree's contribution.
	LearningRate float64

	// MaxDepth bounds tree depth for the depth-wise and oblivious backends.
	MaxDepth int

	// NumLeaves bounds leaf count for the leaf-wise backend.
	NumLeaves int

	// MinSamplesLeaf is the minimum row count a leaf may hold.
	MinSamplesLeaf int

	// Lambda is the L2 regularization applied to leaf values.
	Lambda float64

	// EarlyStopping stops training after this many rounds without
	// validation improvement. Zero disables early stopping.
	EarlyStopping int
}

func (p Params) withDefaults() Params {
	if p.NumRounds == 0 {
		p.NumRounds = 100
	}
	if p.LearningRate == 0 {
		p.LearningRate = 0.1
	}
	if p.MaxDepth == 0 {
		p.MaxDepth = 6
	}
	if p.NumLeaves == 0 {
		p.NumLeaves = 31
	}
	if p.MinSamplesLeaf == 0 {
		p.MinSamplesLeaf = 1
	}
	if p.Lambda == 0 {
		p.Lambda = 1.0
	}
	return p
}

// Map returns the hyperparameters as a name→value mapping for experiment
// tracking.
func (p Params) Map() map[string]interface{} {
	p = p.withDefaults()
	return map[string]interface{}{
		"num_rounds":       p.NumRounds,
		"learning_rate":    p.LearningRate,
		"max_depth":        p.MaxDepth,
		"num_leaves":       p.NumLeaves,
		"min_samples_leaf": p.MinSamplesLeaf,
		"lambda":           p.Lambda,
		"early_stopping":   p.EarlyStopping,
	}
}

// matrixRows copies a gonum matrix into per-row float slices, the layout the
// tree builders index by feature.
func matrixRows(X mat.Matrix) [][]float64 {
	r, c := X.Dims()
	rows := make([][]float64, r)
	for i := 0; i < r; i++ {
		row := make([]float64, c)
		for j := 0; j < c; j++ {
			row[j] = X.At(i, j)
		}
		rows[i] = row
	}
	return rows
}
