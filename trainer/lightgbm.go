package trainer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/Manda404/obesity-predictor/core/model"
	"github.com/Manda404/obesity-predictor/pkg/errors"
)

// LightGBMTrainer is the leaf-wise boosted-tree backend. Trees grow by
// splitting the highest-gain open leaf until NumLeaves is reached, and the
// model serializes to a line-oriented text format.
type LightGBMTrainer struct {
	model.BaseEstimator

	params Params
	b      *booster
}

const lightgbmHeader = "obesity-lightgbm-v1"

// NewLightGBM creates an untrained leaf-wise backend.
func NewLightGBM(params Params) *LightGBMTrainer {
	return &LightGBMTrainer{params: params}
}

// Name returns the backend's human-readable name.
func (t *LightGBMTrainer) Name() string { return "LightGBM" }

// ArtifactSuffix returns the native file extension of saved models.
func (t *LightGBMTrainer) ArtifactSuffix() string { return ".txt" }

// Params returns the hyperparameters for experiment tracking.
func (t *LightGBMTrainer) Params() map[string]interface{} { return t.params.Map() }

// Train fits the classifier, using the validation pair for early stopping.
func (t *LightGBMTrainer) Train(XTrain mat.Matrix, yTrain []string, XValid mat.Matrix, yValid []string) error {
	b := newBooster(t.Name(), t.params, buildLeafwise)
	if err := b.fit(XTrain, yTrain, XValid, yValid); err != nil {
		return err
	}
	t.b = b
	t.SetFitted()
	return nil
}

// Predict returns one label per row of X, in row order.
func (t *LightGBMTrainer) Predict(X mat.Matrix) ([]string, error) {
	if !t.IsFitted() {
		return nil, errors.NewNotTrainedError(t.Name(), "Predict")
	}
	return t.b.predict(X)
}

// Save writes the trained model to path in the backend's text format.
func (t *LightGBMTrainer) Save(path string) error {
	if !t.IsFitted() {
		return errors.NewNotTrainedError(t.Name(), "Save")
	}
	return model.WriteFileAtomic(path, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		fmt.Fprintln(bw, lightgbmHeader)
		fmt.Fprintf(bw, "num_class=%d\n", len(t.b.classes))
		fmt.Fprintf(bw, "classes=%s\n", strings.Join(t.b.classes, "\t"))
		fmt.Fprintf(bw, "num_features=%d\n", t.b.numFeatures)
		fmt.Fprintf(bw, "num_rounds=%d\n", len(t.b.trees))
		for round, roundTrees := range t.b.trees {
			for class, tree := range roundTrees {
				fmt.Fprintf(bw, "tree round=%d class=%d nodes=%d\n", round, class, len(tree.Nodes))
				for _, n := range tree.Nodes {
					leaf := 0
					if n.Leaf {
						leaf = 1
					}
					fmt.Fprintf(bw, "node %d %s %d %d %d %s\n",
						n.Feature,
						strconv.FormatFloat(n.Threshold, 'g', -1, 64),
						n.Left, n.Right, leaf,
						strconv.FormatFloat(n.Value, 'g', -1, 64))
				}
				fmt.Fprintln(bw, "end")
			}
		}
		return bw.Flush()
	})
}

// Load restores a model saved by Save. Artifacts written by other backends
// or corrupted files yield CorruptArtifactError.
func (t *LightGBMTrainer) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewArtifactNotFoundError(path)
		}
		return errors.Wrapf(err, "opening model artifact %q", path)
	}
	defer f.Close()

	b, err := parseLightGBM(f)
	if err != nil {
		return errors.NewCorruptArtifactError(path, err)
	}
	b.name = t.Name()
	b.params = t.params.withDefaults()
	b.build = buildLeafwise
	if err := b.validate(); err != nil {
		return errors.NewCorruptArtifactError(path, err)
	}

	t.b = b
	t.SetFitted()
	return nil
}

func parseLightGBM(r io.Reader) (*booster, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !scanner.Scan() || scanner.Text() != lightgbmHeader {
		return nil, errors.New("missing model header")
	}

	header := map[string]string{}
	for len(header) < 4 && scanner.Scan() {
		line := scanner.Text()
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, errors.Newf("malformed header line %q", line)
		}
		header[key] = value
	}

	numClass, err := strconv.Atoi(header["num_class"])
	if err != nil {
		return nil, errors.Wrap(err, "parsing num_class")
	}
	numFeatures, err := strconv.Atoi(header["num_features"])
	if err != nil {
		return nil, errors.Wrap(err, "parsing num_features")
	}
	numRounds, err := strconv.Atoi(header["num_rounds"])
	if err != nil {
		return nil, errors.Wrap(err, "parsing num_rounds")
	}
	classes := strings.Split(header["classes"], "\t")
	if len(classes) != numClass {
		return nil, errors.Newf("header declares %d classes but lists %d", numClass, len(classes))
	}

	b := &booster{classes: classes, numFeatures: numFeatures}
	for round := 0; round < numRounds; round++ {
		roundTrees := make([]*Tree, numClass)
		for class := 0; class < numClass; class++ {
			tree, err := parseTreeBlock(scanner)
			if err != nil {
				return nil, errors.Wrapf(err, "tree round=%d class=%d", round, class)
			}
			roundTrees[class] = tree
		}
		b.trees = append(b.trees, roundTrees)
	}
	return b, scanner.Err()
}

func parseTreeBlock(scanner *bufio.Scanner) (*Tree, error) {
	if !scanner.Scan() {
		return nil, errors.New("unexpected end of file before tree block")
	}
	fields := strings.Fields(scanner.Text())
	if len(fields) != 4 || fields[0] != "tree" {
		return nil, errors.Newf("malformed tree block start %q", scanner.Text())
	}
	numNodes, err := strconv.Atoi(strings.TrimPrefix(fields[3], "nodes="))
	if err != nil {
		return nil, errors.Wrap(err, "parsing node count")
	}

	tree := &Tree{Nodes: make([]Node, 0, numNodes)}
	for i := 0; i < numNodes; i++ {
		if !scanner.Scan() {
			return nil, errors.New("unexpected end of file inside tree block")
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) != 7 || parts[0] != "node" {
			return nil, errors.Newf("malformed node line %q", scanner.Text())
		}
		node, err := parseNode(parts[1:])
		if err != nil {
			return nil, err
		}
		tree.Nodes = append(tree.Nodes, node)
	}
	if !scanner.Scan() || scanner.Text() != "end" {
		return nil, errors.New("tree block missing end marker")
	}
	return tree, nil
}

func parseNode(parts []string) (Node, error) {
	var n Node
	var err error
	if n.Feature, err = strconv.Atoi(parts[0]); err != nil {
		return n, errors.Wrap(err, "parsing node feature")
	}
	if n.Threshold, err = strconv.ParseFloat(parts[1], 64); err != nil {
		return n, errors.Wrap(err, "parsing node threshold")
	}
	if n.Left, err = strconv.Atoi(parts[2]); err != nil {
		return n, errors.Wrap(err, "parsing node left child")
	}
	if n.Right, err = strconv.Atoi(parts[3]); err != nil {
		return n, errors.Wrap(err, "parsing node right child")
	}
	leaf, err := strconv.Atoi(parts[4])
	if err != nil {
		return n, errors.Wrap(err, "parsing node leaf flag")
	}
	n.Leaf = leaf == 1
	if n.Value, err = strconv.ParseFloat(parts[5], 64); err != nil {
		return n, errors.Wrap(err, "parsing node value")
	}
	return n, nil
}
