package trainer

import (
	"gonum.org/v1/gonum/mat"

	"github.com/Manda404/obesity-predictor/core/model"
	"github.com/Manda404/obesity-predictor/pkg/errors"
)

// CatBoostTrainer is the oblivious boosted-tree backend. Every level of a
// tree shares one (feature, threshold) split, and the model serializes to a
// gob binary.
type CatBoostTrainer struct {
	model.BaseEstimator

	params Params
	b      *booster
}

// catboostModelFile is the native gob layout of a saved model.
type catboostModelFile struct {
	Format      string
	Classes     []string
	NumFeatures int
	Trees       [][]*Tree
}

const catboostFormat = "obesity-catboost-v1"

// NewCatBoost creates an untrained oblivious-tree backend.
func NewCatBoost(params Params) *CatBoostTrainer {
	return &CatBoostTrainer{params: params}
}

// Name returns the backend's human-readable name.
func (t *CatBoostTrainer) Name() string { return "CatBoost" }

// ArtifactSuffix returns the native file extension of saved models.
func (t *CatBoostTrainer) ArtifactSuffix() string { return ".cbm" }

// Params returns the hyperparameters for experiment tracking.
func (t *CatBoostTrainer) Params() map[string]interface{} { return t.params.Map() }

// Train fits the classifier, using the validation pair for early stopping.
func (t *CatBoostTrainer) Train(XTrain mat.Matrix, yTrain []string, XValid mat.Matrix, yValid []string) error {
	b := newBooster(t.Name(), t.params, buildOblivious)
	if err := b.fit(XTrain, yTrain, XValid, yValid); err != nil {
		return err
	}
	t.b = b
	t.SetFitted()
	return nil
}

// Predict returns one label per row of X, in row order.
func (t *CatBoostTrainer) Predict(X mat.Matrix) ([]string, error) {
	if !t.IsFitted() {
		return nil, errors.NewNotTrainedError(t.Name(), "Predict")
	}
	return t.b.predict(X)
}

// Save writes the trained model to path in the backend's gob format.
func (t *CatBoostTrainer) Save(path string) error {
	if !t.IsFitted() {
		return errors.NewNotTrainedError(t.Name(), "Save")
	}
	file := catboostModelFile{
		Format:      catboostFormat,
		Classes:     t.b.classes,
		NumFeatures: t.b.numFeatures,
		Trees:       t.b.trees,
	}
	return model.SaveGob(path, &file)
}

// Load restores a model saved by Save. Artifacts written by other backends
// or corrupted files yield CorruptArtifactError.
func (t *CatBoostTrainer) Load(path string) error {
	var file catboostModelFile
	if err := model.LoadGob(path, &file); err != nil {
		return err
	}
	if file.Format != catboostFormat {
		return errors.NewCorruptArtifactError(path, errors.Newf("unexpected format %q", file.Format))
	}

	b := newBooster(t.Name(), t.params, buildOblivious)
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
