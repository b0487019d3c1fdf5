package trainer

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/Manda404/obesity-predictor/pkg/errors"
	"github.com/Manda404/obesity-predictor/pkg/log"
)

// booster is the multiclass gradient boosting engine shared by the three
// backends. It fits one regression tree per class per round against softmax
// gradients, monitors validation log-loss, and keeps the best iteration when
// early stopping is enabled. The growth strategy is injected per backend.
type booster struct {
	params  Params
	build   buildFunc
	name    string
	classes []string
	// trees[round][class]
	trees       [][]*Tree
	numFeatures int
}

func newBooster(name string, params Params, build buildFunc) *booster {
	return &booster{
		name:   name,
		params: params.withDefaults(),
		build:  build,
	}
}

func (b *booster) fit(XTrain mat.Matrix, yTrain []string, XValid mat.Matrix, yValid []string) error {
	logger := log.For("trainer").With().Str(log.ModelNameKey, b.name).Logger()

	rows, cols := XTrain.Dims()
	if rows == 0 || cols == 0 {
		return errors.Wrap(errors.ErrEmptyData, b.name+".Train")
	}
	if rows != len(yTrain) {
		return errors.NewDimensionError(b.name+".Train", rows, len(yTrain), 0)
	}
	validRows, validCols := 0, 0
	if XValid != nil {
		validRows, validCols = XValid.Dims()
	}
	if validRows != len(yValid) {
		return errors.NewDimensionError(b.name+".Train", validRows, len(yValid), 0)
	}
	if validRows > 0 && validCols != cols {
		return errors.NewDimensionError(b.name+".Train", cols, validCols, 1)
	}

	b.numFeatures = cols
	b.classes = distinctSorted(yTrain)
	k := len(b.classes)
	classIndex := make(map[string]int, k)
	for i, c := range b.classes {
		classIndex[c] = i
	}

	X := matrixRows(XTrain)
	var Xv [][]float64
	if validRows > 0 {
		Xv = matrixRows(XValid)
	}
	target := make([]int, rows)
	for i, label := range yTrain {
		target[i] = classIndex[label]
	}
	validTarget := make([]int, validRows)
	for i, label := range yValid {
		idx, ok := classIndex[label]
		if !ok {
			// Validation rows of a class unseen in training can never be
			// predicted; they still count against the log-loss.
			idx = -1
		}
		validTarget[i] = idx
	}

	scores := newScores(rows, k)
	validScores := newScores(validRows, k)
	grad := make([]float64, rows)
	hess := make([]float64, rows)

	bestLoss := math.Inf(1)
	bestRound := 0
	b.trees = b.trees[:0]

	for round := 0; round < b.params.NumRounds; round++ {
		probs := softmaxAll(scores)
		roundTrees := make([]*Tree, k)
		for class := 0; class < k; class++ {
			for i := 0; i < rows; i++ {
				p := probs[i][class]
				y := 0.0
				if target[i] == class {
					y = 1.0
				}
				grad[i] = p - y
				hess[i] = math.Max(p*(1-p), 1e-16)
			}
			tree := b.build(X, grad, hess, b.params)
			roundTrees[class] = tree
			for i := 0; i < rows; i++ {
				scores[i][class] += tree.predict(X[i])
			}
			for i := 0; i < validRows; i++ {
				validScores[i][class] += tree.predict(Xv[i])
			}
		}
		b.trees = append(b.trees, roundTrees)

		if b.params.EarlyStopping > 0 && validRows > 0 {
			loss := logLoss(validScores, validTarget)
			if loss < bestLoss-1e-12 {
				bestLoss = loss
				bestRound = round + 1
			} else if round+1-bestRound >= b.params.EarlyStopping {
				b.trees = b.trees[:bestRound]
				logger.Debug().
					Int("best_round", bestRound).
					Float64("valid_logloss", bestLoss).
					Msg("early stopping")
				break
			}
		}
	}

	logger.Info().
		Int("rounds", len(b.trees)).
		Int("classes", k).
		Int(log.SamplesKey, rows).
		Int(log.FeaturesKey, cols).
		Msg("training completed")
	return nil
}

func (b *booster) predict(X mat.Matrix) ([]string, error) {
	rows, cols := X.Dims()
	if cols != b.numFeatures {
		return nil, errors.NewDimensionError(b.name+".Predict", b.numFeatures, cols, 1)
	}

	raw := matrixRows(X)
	k := len(b.classes)
	out := make([]string, rows)
	for i := 0; i < rows; i++ {
		best, bestScore := 0, math.Inf(-1)
		for class := 0; class < k; class++ {
			score := 0.0
			for _, roundTrees := range b.trees {
				score += roundTrees[class].predict(raw[i])
			}
			if score > bestScore {
				bestScore = score
				best = class
			}
		}
		out[i] = b.classes[best]
	}
	return out, nil
}

// validate checks structural invariants of a deserialized booster.
func (b *booster) validate() error {
	if len(b.classes) == 0 {
		return errors.New("model holds no classes")
	}
	if b.numFeatures <= 0 {
		return errors.Newf("invalid feature count %d", b.numFeatures)
	}
	for _, roundTrees := range b.trees {
		if len(roundTrees) != len(b.classes) {
			return errors.Newf("round holds %d trees for %d classes", len(roundTrees), len(b.classes))
		}
		for _, tree := range roundTrees {
			if tree == nil || len(tree.Nodes) == 0 || !isFiniteTree(tree) {
				return errors.New("malformed tree in ensemble")
			}
		}
	}
	return nil
}

func newScores(rows, classes int) [][]float64 {
	scores := make([][]float64, rows)
	for i := range scores {
		scores[i] = make([]float64, classes)
	}
	return scores
}

func softmaxAll(scores [][]float64) [][]float64 {
	out := make([][]float64, len(scores))
	for i, row := range scores {
		out[i] = softmax(row)
	}
	return out
}

func softmax(scores []float64) []float64 {
	maxScore := math.Inf(-1)
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}
	sum := 0.0
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = math.Exp(s - maxScore)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// logLoss computes multiclass log-loss over raw scores. Rows whose true
// class was unseen in training contribute the loss floor probability.
func logLoss(scores [][]float64, target []int) float64 {
	const floor = 1e-15
	total := 0.0
	for i, row := range scores {
		probs := softmax(row)
		p := floor
		if target[i] >= 0 {
			p = math.Max(probs[target[i]], floor)
		}
		total += -math.Log(p)
	}
	if len(scores) == 0 {
		return 0
	}
	return total / float64(len(scores))
}

func distinctSorted(labels []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, label := range labels {
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}
