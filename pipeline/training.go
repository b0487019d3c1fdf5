// Package pipeline wires the dataset, preprocessing, training and artifact
// layers into the two end-to-end flows: a training run that benchmarks
// several models, and an inference path that serves the saved winner.
package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/Manda404/obesity-predictor/config"
	"github.com/Manda404/obesity-predictor/dataset"
	"github.com/Manda404/obesity-predictor/metrics"
	"github.com/Manda404/obesity-predictor/pkg/errors"
	"github.com/Manda404/obesity-predictor/pkg/log"
	"github.com/Manda404/obesity-predictor/preprocessing"
	"github.com/Manda404/obesity-predictor/trainer"
)

const preprocessorSuffix = "_preprocessor.gob"

// Outcome is the result of one training run.
type Outcome struct {
	BestName   string
	BestResult metrics.Evaluation
	Results    map[string]metrics.Evaluation
	Artifacts  map[string]string

	// TrainTable and ValidTable expose the split for post-run analysis
	// such as drift baselining.
	TrainTable *dataset.Table
	ValidTable *dataset.Table
}

// TrainingPipeline runs the full train flow: load, split, fit the
// preprocessor on the training fold only, benchmark every candidate on the
// shared split, and persist one model plus one preprocessor artifact per
// candidate.
type TrainingPipeline struct {
	cfg        config.Settings
	comparator *trainer.Comparator
}

// NewTrainingPipeline creates a pipeline from settings.
func NewTrainingPipeline(cfg config.Settings) *TrainingPipeline {
	return &TrainingPipeline{cfg: cfg, comparator: trainer.NewComparator()}
}

// Run executes the flow for the given candidates. ctx bounds the run;
// cancellation is honored between phases.
func (p *TrainingPipeline) Run(ctx context.Context, trainers []trainer.Trainer) (*Outcome, error) {
	logger := log.For("pipeline")
	started := time.Now()

	if len(trainers) == 0 {
		return nil, errors.NewEmptyTrainerSetError()
	}

	table, err := dataset.NewLoader(p.cfg.DataPath).Load()
	if err != nil {
		return nil, err
	}
	logger.Info().
		Int(log.SamplesKey, table.NumRows()).
		Int(log.FeaturesKey, table.NumCols()).
		Msg("dataset loaded")

	splitter := dataset.NewSplitter(p.cfg.TargetColumn, p.cfg.TestSize, p.cfg.Seed)
	trainTable, validTable, err := splitter.Split(table)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "training run canceled")
	}

	pre := preprocessing.NewPreprocessor(p.cfg.TargetColumn)
	XTrain, err := pre.FitTransform(trainTable)
	if err != nil {
		return nil, err
	}
	XValid, err := pre.Transform(validTable)
	if err != nil {
		return nil, err
	}
	yTrain, err := trainTable.Labels(p.cfg.TargetColumn)
	if err != nil {
		return nil, err
	}
	yValid, err := validTable.Labels(p.cfg.TargetColumn)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "training run canceled")
	}

	bestName, bestResult, err := p.comparator.Compare(trainers, XTrain, XValid, yTrain, yValid)
	if err != nil {
		return nil, err
	}

	artifacts := make(map[string]string, 2*len(trainers))
	for _, t := range trainers {
		modelPath, prePath, err := p.saveArtifacts(t, pre)
		if err != nil {
			return nil, err
		}
		artifacts[t.Name()+"_model"] = modelPath
		artifacts[t.Name()+"_preprocessor"] = prePath
	}

	logger.Info().
		Str(log.ModelNameKey, bestName).
		Float64(log.F1Key, bestResult.F1).
		Int64(log.DurationMsKey, time.Since(started).Milliseconds()).
		Msg("training run complete")

	return &Outcome{
		BestName:   bestName,
		BestResult: bestResult,
		Results:    p.comparator.Results(),
		Artifacts:  artifacts,
		TrainTable: trainTable,
		ValidTable: validTable,
	}, nil
}

// saveArtifacts writes the trained model in its native format and the
// fitted preprocessor alongside it.
func (p *TrainingPipeline) saveArtifacts(t trainer.Trainer, pre *preprocessing.Preprocessor) (string, string, error) {
	modelPath := filepath.Join(p.cfg.ArtifactDir, t.Name()+"_model"+artifactSuffix(t))
	if err := t.Save(modelPath); err != nil {
		return "", "", err
	}
	prePath := filepath.Join(p.cfg.ArtifactDir, t.Name()+preprocessorSuffix)
	if err := pre.Save(prePath); err != nil {
		return "", "", err
	}
	return modelPath, prePath, nil
}

func artifactSuffix(t trainer.Trainer) string {
	if s, ok := t.(trainer.Suffixer); ok {
		return s.ArtifactSuffix()
	}
	return ".bin"
}
