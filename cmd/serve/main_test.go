package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Manda404/obesity-predictor/pipeline"
	"github.com/Manda404/obesity-predictor/trainer"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	infer := pipeline.NewInferencePipeline(t.TempDir(), "XGBoost", func() trainer.Trainer {
		return trainer.NewXGBoost(trainer.Params{})
	})
	return setupRouter(infer)
}

// The predict endpoint binds a bare JSON array of records.
const validBody = `[{
	"Gender":"Male","Age":30,"Height":170,"Weight":70,
	"family_history_with_overweight":"yes","FAVC":"no","FCVC":2,"NCP":3,
	"CAEC":"Sometimes","SMOKE":"no","CH2O":2,"SCC":"no","FAF":1,"TUE":1,
	"CALC":"no","MTRANS":"Walking"}]`

func TestPredictStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `[{"Gender":`, http.StatusBadRequest},
		{"wrapped object instead of array", `{"records":[]}`, http.StatusBadRequest},
		{"schema violation", `[{"Gender":"unknown"}]`, http.StatusUnprocessableEntity},
		// Valid input against an empty artifact directory: not ready.
		{"missing artifacts", validBody, http.StatusServiceUnavailable},
	}

	router := testRouter(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestHealthzNotReady(t *testing.T) {
	router := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 with no artifacts", w.Code)
	}
}
