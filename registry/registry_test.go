package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func trackingServer(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var versions atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/api/2.0/mlflow/experiments/get-by-name", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error_code":"RESOURCE_DOES_NOT_EXIST"}`, http.StatusNotFound)
	})
	mux.HandleFunc("/api/2.0/mlflow/experiments/create", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"experiment_id":"7"}`)
	})
	mux.HandleFunc("/api/2.0/mlflow/runs/create", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if body["experiment_id"] != "7" {
			http.Error(w, "wrong experiment", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"run":{"info":{"run_id":"run-123"}}}`)
	})
	mux.HandleFunc("/api/2.0/mlflow/runs/log-batch", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			RunID   string                   `json:"run_id"`
			Params  []map[string]string      `json:"params"`
			Metrics []map[string]interface{} `json:"metrics"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RunID != "run-123" {
			http.Error(w, "bad batch", http.StatusBadRequest)
			return
		}
		if len(body.Params) == 0 || len(body.Metrics) == 0 {
			http.Error(w, "empty batch", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{}`)
	})
	mux.HandleFunc("/api/2.0/mlflow/runs/update", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})
	mux.HandleFunc("/api/2.0/mlflow/registered-models/create", func(w http.ResponseWriter, r *http.Request) {
		if versions.Load() > 0 {
			http.Error(w, `{"error_code":"RESOURCE_ALREADY_EXISTS"}`, http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{}`)
	})
	mux.HandleFunc("/api/2.0/mlflow/model-versions/create", func(w http.ResponseWriter, r *http.Request) {
		v := versions.Add(1)
		fmt.Fprintf(w, `{"model_version":{"name":"best","version":"%d"}}`, v)
	})
	mux.HandleFunc("/api/2.0/mlflow/registered-models/get-latest-versions", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"model_versions":[{"name":"best","version":"1"},{"name":"best","version":"%d"}]}`, versions.Load())
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &versions
}

func TestLogRun(t *testing.T) {
	server, _ := trackingServer(t)
	client := NewClient(server.URL, "obesity")

	run, err := client.LogRun(context.Background(), "XGBoost",
		map[string]interface{}{"num_rounds": 100},
		map[string]float64{"f1_score": 0.93},
		[]string{"/tmp/model.json"})
	if err != nil {
		t.Fatalf("LogRun failed: %v", err)
	}
	if run.RunID != "run-123" {
		t.Errorf("run id = %q, want run-123", run.RunID)
	}
}

func TestRegisterModelAndLatestVersion(t *testing.T) {
	server, _ := trackingServer(t)
	client := NewClient(server.URL, "obesity")
	ctx := context.Background()

	v1, err := client.RegisterModel(ctx, "best", "/artifacts/a.json")
	if err != nil {
		t.Fatalf("first RegisterModel failed: %v", err)
	}
	if v1.Version != "1" {
		t.Errorf("first version = %q, want 1", v1.Version)
	}

	// Second registration hits RESOURCE_ALREADY_EXISTS on create and must
	// still produce a new version.
	v2, err := client.RegisterModel(ctx, "best", "/artifacts/b.json")
	if err != nil {
		t.Fatalf("second RegisterModel failed: %v", err)
	}
	if v2.Version != "2" {
		t.Errorf("second version = %q, want 2", v2.Version)
	}

	latest, err := client.LatestVersion(ctx, "best")
	if err != nil {
		t.Fatalf("LatestVersion failed: %v", err)
	}
	if latest.Version != "2" {
		t.Errorf("latest version = %q, want 2", latest.Version)
	}
}

func TestClientEscapesQueryNames(t *testing.T) {
	const experiment = "obesity runs & benchmarks"
	const model = "best obesity model"

	mux := http.NewServeMux()
	mux.HandleFunc("/api/2.0/mlflow/experiments/get-by-name", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("experiment_name"); got != experiment {
			http.Error(w, "experiment_name = "+got, http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"experiment":{"experiment_id":"9"}}`)
	})
	mux.HandleFunc("/api/2.0/mlflow/registered-models/get-latest-versions", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("name"); got != model {
			http.Error(w, "name = "+got, http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"model_versions":[{"name":"best","version":"3"}]}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := NewClient(server.URL, experiment)
	ctx := context.Background()

	if id, err := client.ensureExperiment(ctx); err != nil || id != "9" {
		t.Errorf("ensureExperiment = %q, %v; want 9", id, err)
	}
	latest, err := client.LatestVersion(ctx, model)
	if err != nil {
		t.Fatalf("LatestVersion failed: %v", err)
	}
	if latest.Version != "3" {
		t.Errorf("latest version = %q, want 3", latest.Version)
	}
}

func TestClientSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "obesity")
	if _, err := client.LogRun(context.Background(), "x", nil, nil, nil); err == nil {
		t.Error("server failure did not surface")
	}
}
