package trainer

import (
	"encoding/json"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/Manda404/obesity-predictor/core/model"
	"github.com/Manda404/obesity-predictor/pkg/errors"
)

// XGBoostTrainer is the depth-wise boosted-tree backend. Trees are grown
// level by level to MaxDepth and the model serializes to a JSON document.
type XGBoostTrainer struct {
	model.BaseEstimator

	params Params
	b      *booster
}

// xgboostModelFile is the native JSON layout of a saved model.
type xgboostModelFile struct {
	Format      string    `json:"format"`
	NumClass    int       `json:"num_class"`
	Classes     []string  `json:"classes"`
	NumFeatures int       `json:"num_features"`
	Trees       [][]*Tree `json:"trees"`
}

const xgboostFormat = "obesity-xgboost-v1"

// NewXGBoost creates an untrained depth-wise backend.
func NewXGBoost(params Params) *XGBoostTrainer {
	return &XGBoostTrainer{params: params}
}

// Name returns the backend's human-readable name.
func (t *XGBoostTrainer) Name() string { return "XGBoost" }

// ArtifactSuffix returns the native file extension of saved models.
func (t *XGBoostTrainer) ArtifactSuffix() string { return ".json" }

// Params returns the hyperparameters for experiment tracking.
func (t *XGBoostTrainer) Params() map[string]interface{} { return t.params.Map() }

// Train fits the classifier, using the validation pair for early stopping.
func (t *XGBoostTrainer) Train(XTrain mat.Matrix, yTrain []string, XValid mat.Matrix, yValid []string) error {
	b := newBooster(t.Name(), t.params, buildDepthwise)
	if err := b.fit(XTrain, yTrain, XValid, yValid); err != nil {
		return err
	}
	t.b = b
	t.SetFitted()
	return nil
}

// Predict returns one label per row of X, in row order.
func (t *XGBoostTrainer) Predict(X mat.Matrix) ([]string, error) {
	if !t.IsFitted() {
		return nil, errors.NewNotTrainedError(t.Name(), "Predict")
	}
	return t.b.predict(X)
}

// Save writes the trained model to path in the backend's JSON format.
func (t *XGBoostTrainer) Save(path string) error {
	if !t.IsFitted() {
		return errors.NewNotTrainedError(t.Name(), "Save")
	}
	file := xgboostModelFile{
		Format:      xgboostFormat,
		NumClass:    len(t.b.classes),
		Classes:     t.b.classes,
		NumFeatures: t.b.numFeatures,
		Trees:       t.b.trees,
	}
	return model.WriteFileAtomic(path, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(&file)
	})
}

// Load restores a model saved by Save. Artifacts written by other backends
// or corrupted files yield CorruptArtifactError.
func (t *XGBoostTrainer) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewArtifactNotFoundError(path)
		}
		return errors.Wrapf(err, "opening model artifact %q", path)
	}
	defer f.Close()

	var file xgboostModelFile
	if err := json.NewDecoder(f).Decode(&file); err != nil {
		return errors.NewCorruptArtifactError(path, err)
	}
	if file.Format != xgboostFormat {
		return errors.NewCorruptArtifactError(path, errors.Newf("unexpected format %q", file.Format))
	}

	b := newBooster(t.Name(), t.params, buildDepthwise)
	b.classes = file.Classes
	b.numFeatures = file.NumFeatures
	b.trees = file.Trees
	if err := b.validate(); err != nil {
		return errors.NewCorruptArtifactError(path, err)
	}

	t.b = b
	t.SetFitted()
	return nil
}
