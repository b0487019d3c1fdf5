// Package registry is the client for the external experiment-tracking and
// model-registry service. It speaks the MLflow REST surface but stays an
// opaque boundary: nothing in the core pipelines depends on tracking-service
// details beyond this package's types.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Manda404/obesity-predictor/pkg/errors"
	"github.com/Manda404/obesity-predictor/pkg/log"
)

// Client talks to a tracking server.
type Client struct {
	baseURL    string
	experiment string
	httpClient *http.Client
}

// NewClient creates a client for the tracking server at baseURL, logging
// runs under the given experiment name.
func NewClient(baseURL, experiment string) *Client {
	return &Client{
		baseURL:    baseURL,
		experiment: experiment,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// RunInfo identifies a logged run.
type RunInfo struct {
	RunID string `json:"run_id"`
}

// ModelVersion identifies a registered model version.
type ModelVersion struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Stage   string `json:"current_stage"`
	Source  string `json:"source"`
}

// LogRun creates a run under the client's experiment and logs the given
// hyperparameters, metrics and artifact paths to it.
func (c *Client) LogRun(ctx context.Context, runName string, params map[string]interface{}, metricValues map[string]float64, artifacts []string) (RunInfo, error) {
	logger := log.For("registry")

	experimentID, err := c.ensureExperiment(ctx)
	if err != nil {
		return RunInfo{}, err
	}

	var created struct {
		Run struct {
			Info struct {
				RunID string `json:"run_id"`
			} `json:"info"`
		} `json:"run"`
	}
	err = c.post(ctx, "/api/2.0/mlflow/runs/create", map[string]interface{}{
		"experiment_id": experimentID,
		"run_name":      runName,
		"start_time":    time.Now().UnixMilli(),
		"tags": []map[string]string{
			{"key": "mlflow.runName", "value": runName},
			{"key": "client.request_id", "value": uuid.NewString()},
		},
	}, &created)
	if err != nil {
		return RunInfo{}, err
	}
	runID := created.Run.Info.RunID

	batch := map[string]interface{}{"run_id": runID}
	var paramEntries []map[string]string
	for k, v := range params {
		paramEntries = append(paramEntries, map[string]string{"key": k, "value": fmt.Sprint(v)})
	}
	var metricEntries []map[string]interface{}
	now := time.Now().UnixMilli()
	for k, v := range metricValues {
		metricEntries = append(metricEntries, map[string]interface{}{
			"key": k, "value": v, "timestamp": now, "step": 0,
		})
	}
	var tagEntries []map[string]string
	for i, artifact := range artifacts {
		tagEntries = append(tagEntries, map[string]string{
			"key":   fmt.Sprintf("artifact.%d", i),
			"value": artifact,
		})
	}
	batch["params"] = paramEntries
	batch["metrics"] = metricEntries
	batch["tags"] = tagEntries
	if err := c.post(ctx, "/api/2.0/mlflow/runs/log-batch", batch, nil); err != nil {
		return RunInfo{}, err
	}

	err = c.post(ctx, "/api/2.0/mlflow/runs/update", map[string]interface{}{
		"run_id": runID, "status": "FINISHED", "end_time": time.Now().UnixMilli(),
	}, nil)
	if err != nil {
		return RunInfo{}, err
	}

	logger.Info().Str("run_id", runID).Str("run_name", runName).Msg("run logged")
	return RunInfo{RunID: runID}, nil
}

// RegisterModel registers source (an artifact path or run URI) as a new
// version of the named registry model, creating the registered model on
// first use.
func (c *Client) RegisterModel(ctx context.Context, name, source string) (ModelVersion, error) {
	logger := log.For("registry")

	// Create is idempotent for our purposes; RESOURCE_ALREADY_EXISTS is fine.
	err := c.post(ctx, "/api/2.0/mlflow/registered-models/create", map[string]interface{}{
		"name": name,
	}, nil)
	if err != nil && !isAlreadyExists(err) {
		return ModelVersion{}, err
	}

	var created struct {
		ModelVersion ModelVersion `json:"model_version"`
	}
	err = c.post(ctx, "/api/2.0/mlflow/model-versions/create", map[string]interface{}{
		"name":   name,
		"source": source,
	}, &created)
	if err != nil {
		return ModelVersion{}, err
	}

	logger.Info().
		Str("model", created.ModelVersion.Name).
		Str("version", created.ModelVersion.Version).
		Msg("model registered")
	return created.ModelVersion, nil
}

// LatestVersion returns the highest registered version of the named model.
func (c *Client) LatestVersion(ctx context.Context, name string) (ModelVersion, error) {
	var out struct {
		ModelVersions []ModelVersion `json:"model_versions"`
	}
	err := c.get(ctx, "/api/2.0/mlflow/registered-models/get-latest-versions?name="+url.QueryEscape(name), &out)
	if err != nil {
		return ModelVersion{}, err
	}
	if len(out.ModelVersions) == 0 {
		return ModelVersion{}, errors.Newf("registry holds no versions of %q", name)
	}

	latest := out.ModelVersions[0]
	latestNum, _ := strconv.Atoi(latest.Version)
	for _, v := range out.ModelVersions[1:] {
		n, _ := strconv.Atoi(v.Version)
		if n > latestNum {
			latest, latestNum = v, n
		}
	}
	return latest, nil
}

func (c *Client) ensureExperiment(ctx context.Context) (string, error) {
	var byName struct {
		Experiment struct {
			ExperimentID string `json:"experiment_id"`
		} `json:"experiment"`
	}
	err := c.get(ctx, "/api/2.0/mlflow/experiments/get-by-name?experiment_name="+url.QueryEscape(c.experiment), &byName)
	if err == nil && byName.Experiment.ExperimentID != "" {
		return byName.Experiment.ExperimentID, nil
	}

	var created struct {
		ExperimentID string `json:"experiment_id"`
	}
	err = c.post(ctx, "/api/2.0/mlflow/experiments/create", map[string]interface{}{
		"name": c.experiment,
	}, &created)
	if err != nil {
		return "", err
	}
	return created.ExperimentID, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "encoding tracking request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "building tracking request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "building tracking request")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "calling tracking service")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "reading tracking response")
	}
	if resp.StatusCode/100 != 2 {
		return errors.Newf("tracking service %s returned %d: %s", req.URL.Path, resp.StatusCode, string(data))
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return errors.Wrap(err, "decoding tracking response")
		}
	}
	return nil
}

func isAlreadyExists(err error) bool {
	return err != nil && bytes.Contains([]byte(err.Error()), []byte("RESOURCE_ALREADY_EXISTS"))
}
