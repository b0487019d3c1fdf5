// Package config holds the explicit configuration for the obesity-predictor
// pipelines. Core components receive a Settings value through their
// constructors and never read ambient process state; FromEnv exists only for
// the cmd entry points.
package config

import (
	"os"
	"strconv"
)

// Settings groups every tunable of the training and serving pipelines.
type Settings struct {
	// DataPath is the CSV dataset read by the training pipeline.
	DataPath string

	// ArtifactDir is where model and preprocessor artifacts are written.
	ArtifactDir string

	// TargetColumn is the label column of the dataset.
	TargetColumn string

	// TestSize is the fraction of rows held out for validation.
	TestSize float64

	// Seed drives the stratified split shuffle and tree training.
	Seed int64

	// TrackingURI points at the experiment-tracking service.
	TrackingURI string

	// ExperimentName is the experiment runs are logged under.
	ExperimentName string

	// RegistryModelName is the registry entry the best model is promoted to.
	RegistryModelName string

	// DriftThreshold is the share of drifted columns above which the drift
	// detector flags the whole dataset.
	DriftThreshold float64

	// ReportDir is where comparison plots are rendered.
	ReportDir string

	// LogLevel controls pipeline logging verbosity.
	LogLevel string

	// ServeAddr is the listen address of the inference service.
	ServeAddr string
}

// Default returns the settings used when nothing is overridden.
func Default() Settings {
	return Settings{
		DataPath:          "data/raw/ObesityDataSet.csv",
		ArtifactDir:       "data/models",
		TargetColumn:      "NObeyesdad",
		TestSize:          0.2,
		Seed:              42,
		TrackingURI:       "http://127.0.0.1:5000",
		ExperimentName:    "ObesityPredictor",
		RegistryModelName: "ObesityPredictor-Best",
		DriftThreshold:    0.5,
		ReportDir:         "data/reports",
		LogLevel:          "info",
		ServeAddr:         ":8000",
	}
}

// FromEnv returns Default overridden by environment variables. Only the cmd
// entry points call this; everything below them takes Settings explicitly.
func FromEnv() Settings {
	s := Default()
	s.DataPath = envStr("DATA_PATH", s.DataPath)
	s.ArtifactDir = envStr("ARTIFACT_DIR", s.ArtifactDir)
	s.TargetColumn = envStr("TARGET_COLUMN", s.TargetColumn)
	s.TestSize = envFloat("TEST_SIZE", s.TestSize)
	s.Seed = envInt("RANDOM_STATE", s.Seed)
	s.TrackingURI = envStr("MLFLOW_TRACKING_URI", s.TrackingURI)
	s.ExperimentName = envStr("EXPERIMENT_NAME", s.ExperimentName)
	s.RegistryModelName = envStr("MODEL_NAME", s.RegistryModelName)
	s.DriftThreshold = envFloat("DRIFT_THRESHOLD", s.DriftThreshold)
	s.ReportDir = envStr("REPORT_DIR", s.ReportDir)
	s.LogLevel = envStr("LOG_LEVEL", s.LogLevel)
	s.ServeAddr = envStr("SERVE_ADDR", s.ServeAddr)
	return s
}

func envStr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envInt(key string, fallback int64) int64 {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
