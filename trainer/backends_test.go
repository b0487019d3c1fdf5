package trainer

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/Manda404/obesity-predictor/pkg/errors"
)

// separableData builds a deterministic two-class problem split on the first
// feature. The second feature is pure noise.
func separableData() (XTrain *mat.Dense, yTrain []string, XValid *mat.Dense, yValid []string) {
	var trainRows []float64
	for i := 0; i < 10; i++ {
		trainRows = append(trainRows, -2+0.1*float64(i), float64(i%3))
		yTrain = append(yTrain, "low")
	}
	for i := 0; i < 10; i++ {
		trainRows = append(trainRows, 1+0.1*float64(i), float64(i%3))
		yTrain = append(yTrain, "high")
	}
	XTrain = mat.NewDense(20, 2, trainRows)

	XValid = mat.NewDense(4, 2, []float64{
		-1.5, 0,
		-0.8, 1,
		1.2, 2,
		1.9, 0,
	})
	yValid = []string{"low", "low", "high", "high"}
	return
}

func testParams() Params {
	return Params{NumRounds: 20, MaxDepth: 3, NumLeaves: 4, EarlyStopping: 5}
}

func backends(t *testing.T) []Trainer {
	t.Helper()
	return []Trainer{
		NewXGBoost(testParams()),
		NewLightGBM(testParams()),
		NewCatBoost(testParams()),
	}
}

func TestBackendsLearnSeparableData(t *testing.T) {
	XTrain, yTrain, XValid, yValid := separableData()

	for _, backend := range backends(t) {
		t.Run(backend.Name(), func(t *testing.T) {
			if err := backend.Train(XTrain, yTrain, XValid, yValid); err != nil {
				t.Fatalf("Train failed: %v", err)
			}
			preds, err := backend.Predict(XValid)
			if err != nil {
				t.Fatalf("Predict failed: %v", err)
			}
			if len(preds) != len(yValid) {
				t.Fatalf("got %d predictions for %d rows", len(preds), len(yValid))
			}
			for i, want := range yValid {
				if preds[i] != want {
					t.Errorf("prediction[%d] = %q, want %q", i, preds[i], want)
				}
			}
		})
	}
}

func TestBackendsNotTrainedGuards(t *testing.T) {
	X := mat.NewDense(1, 2, []float64{0, 0})
	for _, backend := range backends(t) {
		t.Run(backend.Name(), func(t *testing.T) {
			_, err := backend.Predict(X)
			var notTrained *errors.NotTrainedError
			if !errors.As(err, &notTrained) {
				t.Errorf("Predict: error = %v, want NotTrainedError", err)
			}

			err = backend.Save(filepath.Join(t.TempDir(), "model"))
			if !errors.As(err, &notTrained) {
				t.Errorf("Save: error = %v, want NotTrainedError", err)
			}
		})
	}
}

func TestBackendsSaveLoadRoundTrip(t *testing.T) {
	XTrain, yTrain, XValid, yValid := separableData()

	tests := []struct {
		trained Trainer
		fresh   Trainer
	}{
		{NewXGBoost(testParams()), NewXGBoost(Params{})},
		{NewLightGBM(testParams()), NewLightGBM(Params{})},
		{NewCatBoost(testParams()), NewCatBoost(Params{})},
	}
	for _, tt := range tests {
		t.Run(tt.trained.Name(), func(t *testing.T) {
			if err := tt.trained.Train(XTrain, yTrain, XValid, yValid); err != nil {
				t.Fatalf("Train failed: %v", err)
			}
			want, err := tt.trained.Predict(XValid)
			if err != nil {
				t.Fatalf("Predict failed: %v", err)
			}

			suffix := ".bin"
			if s, ok := tt.trained.(Suffixer); ok {
				suffix = s.ArtifactSuffix()
			}
			path := filepath.Join(t.TempDir(), "model"+suffix)
			if err := tt.trained.Save(path); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			if err := tt.fresh.Load(path); err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			got, err := tt.fresh.Predict(XValid)
			if err != nil {
				t.Fatalf("Predict after Load failed: %v", err)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("prediction[%d] changed across save/load: %q vs %q", i, want[i], got[i])
				}
			}
		})
	}
}

func TestBackendsLoadErrors(t *testing.T) {
	dir := t.TempDir()
	garbled := filepath.Join(dir, "garbled")
	if err := os.WriteFile(garbled, []byte("definitely not a model"), 0o644); err != nil {
		t.Fatalf("writing garbled artifact: %v", err)
	}

	for _, backend := range backends(t) {
		t.Run(backend.Name(), func(t *testing.T) {
			err := backend.Load(filepath.Join(dir, "missing"))
			var notFound *errors.ArtifactNotFoundError
			if !errors.As(err, &notFound) {
				t.Errorf("missing artifact: error = %v, want ArtifactNotFoundError", err)
			}

			err = backend.Load(garbled)
			var corrupt *errors.CorruptArtifactError
			if !errors.As(err, &corrupt) {
				t.Errorf("garbled artifact: error = %v, want CorruptArtifactError", err)
			}
		})
	}
}

func TestBackendsRejectCrossFormatArtifacts(t *testing.T) {
	XTrain, yTrain, XValid, yValid := separableData()
	xgb := NewXGBoost(testParams())
	if err := xgb.Train(XTrain, yTrain, XValid, yValid); err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "model.json")
	if err := xgb.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	err := NewLightGBM(Params{}).Load(path)
	var corrupt *errors.CorruptArtifactError
	if !errors.As(err, &corrupt) {
		t.Errorf("cross-format load: error = %v, want CorruptArtifactError", err)
	}
}

func TestTrainGuards(t *testing.T) {
	backend := NewXGBoost(testParams())

	err := backend.Train(mat.NewDense(2, 2, nil), []string{"a"}, nil, nil)
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Errorf("label mismatch: error = %v, want DimensionError", err)
	}

	_, yTrain, _, _ := separableData()
	XTrain, _, _, _ := separableData()
	if err := backend.Train(XTrain, yTrain, nil, nil); err != nil {
		t.Fatalf("Train without validation data failed: %v", err)
	}
	_, err = backend.Predict(mat.NewDense(1, 5, nil))
	if !errors.As(err, &dimErr) {
		t.Errorf("feature mismatch: error = %v, want DimensionError", err)
	}
}
