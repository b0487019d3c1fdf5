// Command train runs the full training flow: it benchmarks the gradient
// boosting backends on a stratified split, persists the artifacts, renders
// comparison charts, checks the split for drift, and registers the winning
// model with the tracking service when one is configured.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/Manda404/obesity-predictor/config"
	"github.com/Manda404/obesity-predictor/pipeline"
	"github.com/Manda404/obesity-predictor/pkg/log"
	"github.com/Manda404/obesity-predictor/registry"
	"github.com/Manda404/obesity-predictor/report"
	"github.com/Manda404/obesity-predictor/trainer"
	"github.com/Manda404/obesity-predictor/validation"
)

func main() {
	cfg := config.FromEnv()
	flag.StringVar(&cfg.DataPath, "data", cfg.DataPath, "path to the raw CSV dataset")
	flag.StringVar(&cfg.ArtifactDir, "artifacts", cfg.ArtifactDir, "directory for model artifacts")
	flag.StringVar(&cfg.ReportDir, "reports", cfg.ReportDir, "directory for comparison charts")
	flag.StringVar(&cfg.TrackingURI, "tracking-uri", cfg.TrackingURI, "tracking server base URL (empty disables tracking)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	flag.Parse()

	log.SetupConsole(cfg.LogLevel)
	logger := log.For("train")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(logger.Error(), err).Msg("training run failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Settings) error {
	logger := log.For("train")

	params := trainer.Params{}
	trainers := []trainer.Trainer{
		trainer.NewXGBoost(params),
		trainer.NewLightGBM(params),
		trainer.NewCatBoost(params),
	}

	outcome, err := pipeline.NewTrainingPipeline(cfg).Run(ctx, trainers)
	if err != nil {
		return err
	}

	reporter, err := report.NewReporter(cfg.ReportDir)
	if err != nil {
		return err
	}
	for name, ev := range outcome.Results {
		if _, err := reporter.ConfusionHeatmap(name, ev); err != nil {
			return err
		}
	}
	chartPath, err := reporter.MetricsBarChart(outcome.Results)
	if err != nil {
		return err
	}

	// Sanity check the split itself; a heavily drifted validation fold
	// would make the comparison unreliable.
	detector := validation.NewDriftDetector(cfg.TargetColumn, cfg.DriftThreshold)
	drift, err := detector.Run(outcome.TrainTable, outcome.ValidTable)
	if err != nil {
		return err
	}
	if drift.DatasetDrift {
		logger.Warn().
			Float64("drift_ratio", drift.DriftRatio).
			Msg("validation fold drifts from training fold")
	}

	if cfg.TrackingURI == "" {
		logger.Info().Msg("no tracking server configured, skipping registration")
		return nil
	}

	client := registry.NewClient(cfg.TrackingURI, cfg.ExperimentName)
	for _, t := range trainers {
		ev := outcome.Results[t.Name()]
		_, err := client.LogRun(ctx, t.Name(), trainerParams(t), ev.Map(), []string{
			outcome.Artifacts[t.Name()+"_model"],
			chartPath,
		})
		if err != nil {
			return err
		}
	}

	version, err := client.RegisterModel(ctx, cfg.RegistryModelName, outcome.Artifacts[outcome.BestName+"_model"])
	if err != nil {
		return err
	}
	logger.Info().
		Str(log.ModelNameKey, outcome.BestName).
		Str("registry.version", version.Version).
		Msg("best model registered")
	return nil
}

func trainerParams(t trainer.Trainer) map[string]interface{} {
	if p, ok := t.(interface{ Params() map[string]interface{} }); ok {
		return p.Params()
	}
	return nil
}
