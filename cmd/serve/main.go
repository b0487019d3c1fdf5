// Command serve exposes the saved best model over HTTP. Requests are
// validated against the static input schema before they reach the model;
// artifacts are loaded lazily on the first prediction.
package main

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/Manda404/obesity-predictor/config"
	"github.com/Manda404/obesity-predictor/pipeline"
	"github.com/Manda404/obesity-predictor/pkg/errors"
	"github.com/Manda404/obesity-predictor/pkg/log"
	"github.com/Manda404/obesity-predictor/trainer"
	"github.com/Manda404/obesity-predictor/validation"
)

type predictResponse struct {
	Predictions []string `json:"predictions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func main() {
	cfg := config.FromEnv()
	log.Setup(cfg.LogLevel, os.Stderr)
	logger := log.For("serve")

	modelName := os.Getenv("SERVE_MODEL")
	if modelName == "" {
		modelName = "XGBoost"
	}
	infer := pipeline.NewInferencePipeline(cfg.ArtifactDir, modelName, newModelFor(modelName))

	gin.SetMode(gin.ReleaseMode)
	router := setupRouter(infer)

	logger.Info().
		Str("addr", cfg.ServeAddr).
		Str(log.ModelNameKey, modelName).
		Msg("starting prediction service")
	if err := router.Run(cfg.ServeAddr); err != nil {
		log.WithError(logger.Error(), err).Msg("server stopped")
		os.Exit(1)
	}
}

func setupRouter(infer *pipeline.InferencePipeline) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		if err := infer.Ready(); err != nil {
			c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "model": infer.ModelName()})
	})

	router.POST("/api/v1/predict", func(c *gin.Context) { predictHandler(c, infer) })
	return router
}

func predictHandler(c *gin.Context, infer *pipeline.InferencePipeline) {
	logger := log.For("serve")

	// The request body is a bare JSON array of records.
	var records []validation.Record
	if err := c.ShouldBindJSON(&records); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return
	}

	preds, err := infer.Predict(records)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			log.WithError(logger.Error(), err).Msg("prediction failed")
		}
		c.JSON(status, errorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, predictResponse{Predictions: preds})
}

// statusFor maps the error taxonomy onto HTTP statuses: schema violations
// are the client's fault, missing or corrupt artifacts mean the service is
// not ready to serve.
func statusFor(err error) int {
	var schemaErr *errors.SchemaError
	if errors.As(err, &schemaErr) {
		return http.StatusUnprocessableEntity
	}
	var notFound *errors.ArtifactNotFoundError
	if errors.As(err, &notFound) {
		return http.StatusServiceUnavailable
	}
	var corrupt *errors.CorruptArtifactError
	if errors.As(err, &corrupt) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func newModelFor(name string) func() trainer.Trainer {
	return func() trainer.Trainer {
		switch name {
		case "LightGBM":
			return trainer.NewLightGBM(trainer.Params{})
		case "CatBoost":
			return trainer.NewCatBoost(trainer.Params{})
		default:
			return trainer.NewXGBoost(trainer.Params{})
		}
	}
}
