package pipeline

import (
	"path/filepath"
	"sync"

	"github.com/Manda404/obesity-predictor/pkg/log"
	"github.com/Manda404/obesity-predictor/preprocessing"
	"github.com/Manda404/obesity-predictor/trainer"
	"github.com/Manda404/obesity-predictor/validation"
)

// InferencePipeline serves predictions from a saved model and its paired
// preprocessor. Artifacts are loaded lazily on the first Predict call; a
// missing artifact surfaces as ArtifactNotFoundError at that point, not at
// construction.
type InferencePipeline struct {
	artifactDir string
	modelName   string
	newModel    func() trainer.Trainer

	loadOnce sync.Once
	loadErr  error
	pre      *preprocessing.Preprocessor
	model    trainer.Trainer
}

// NewInferencePipeline creates a pipeline for the named model. newModel
// must construct an untrained instance of the matching backend; it is used
// once to deserialize the saved artifact.
func NewInferencePipeline(artifactDir, modelName string, newModel func() trainer.Trainer) *InferencePipeline {
	return &InferencePipeline{
		artifactDir: artifactDir,
		modelName:   modelName,
		newModel:    newModel,
	}
}

// Predict validates the records, runs them through the saved preprocessor
// and model, and returns one label per record in input order.
func (p *InferencePipeline) Predict(records []validation.Record) ([]string, error) {
	if err := validation.ValidateRecords(records); err != nil {
		return nil, err
	}
	if err := p.ensureLoaded(); err != nil {
		return nil, err
	}

	table, err := validation.RecordsToTable(records)
	if err != nil {
		return nil, err
	}
	X, err := p.pre.Transform(table)
	if err != nil {
		return nil, err
	}
	return p.model.Predict(X)
}

// ModelName returns the name of the served model.
func (p *InferencePipeline) ModelName() string {
	return p.modelName
}

// Ready reports whether the artifacts can be loaded, forcing the lazy load.
func (p *InferencePipeline) Ready() error {
	return p.ensureLoaded()
}

func (p *InferencePipeline) ensureLoaded() error {
	p.loadOnce.Do(func() {
		logger := log.For("inference")

		model := p.newModel()
		modelPath := filepath.Join(p.artifactDir, p.modelName+"_model"+artifactSuffix(model))
		if err := model.Load(modelPath); err != nil {
			p.loadErr = err
			return
		}

		pre := preprocessing.NewPreprocessor("")
		prePath := filepath.Join(p.artifactDir, p.modelName+preprocessorSuffix)
		if err := pre.Load(prePath); err != nil {
			p.loadErr = err
			return
		}

		p.model = model
		p.pre = pre
		logger.Info().
			Str(log.ModelNameKey, p.modelName).
			Str("model_path", modelPath).
			Msg("artifacts loaded")
	})
	return p.loadErr
}
