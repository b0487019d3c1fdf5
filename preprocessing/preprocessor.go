package preprocessing

import (
	"encoding/gob"
	"io"
	"math"
	"os"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/Manda404/obesity-predictor/core/model"
	"github.com/Manda404/obesity-predictor/dataset"
	"github.com/Manda404/obesity-predictor/pkg/errors"
	"github.com/Manda404/obesity-predictor/pkg/log"
)

// Raw columns the derived features are computed from.
const (
	weightColumn = "Weight"
	heightColumn = "Height"
	ageColumn    = "Age"

	bmiColumn      = "BMI"
	ageGroupColumn = "Age_Group"
)

// Preprocessor learns a feature transformation from training data and
// replays it bit-for-bit on any later table.
//
// Fit derives BMI and an age band, learns per-numeric-column scaling
// statistics and a per-categorical-column vocabulary, and freezes the output
// column order: numeric columns in fit-time order followed by one-hot
// columns in fit-time category order. Transform reproduces exactly that
// layout for any input; the trainer's input tensor is ordinally indexed, so
// this ordering is the load-bearing invariant of the whole pipeline.
type Preprocessor struct {
	model.BaseEstimator

	target          string
	numericCols     []string
	categoricalCols []string
	scaler          *StandardScaler
	vocab           map[string][]string
	vocabIndex      map[string]map[string]int
	featureNames    []string
}

// preprocessorState is the persisted form of a fitted Preprocessor.
type preprocessorState struct {
	Target          string
	NumericCols     []string
	CategoricalCols []string
	Mean            []float64
	Scale           []float64
	Vocab           map[string][]string
	FeatureNames    []string
}

// NewPreprocessor creates an unfitted preprocessor excluding target from the
// feature columns.
func NewPreprocessor(target string) *Preprocessor {
	return &Preprocessor{
		target: target,
		scaler: NewStandardScaler(),
	}
}

// Fit learns the transformation from a training table that must contain the
// label column and the raw columns the derived features need. Calling Fit
// again replaces all learned state.
func (p *Preprocessor) Fit(t *dataset.Table) error {
	logger := log.For("preprocessing")

	if !t.HasColumn(p.target) {
		return errors.NewSchemaError("Preprocessor.Fit", "label column is required for fitting", p.target)
	}
	if err := requireRawColumns(t, "Preprocessor.Fit"); err != nil {
		return err
	}

	derived, err := deriveFeatures(t)
	if err != nil {
		return err
	}

	var numericCols, categoricalCols []string
	for _, col := range derived.Columns() {
		if col.Name == p.target {
			continue
		}
		if col.Kind == dataset.Numeric {
			numericCols = append(numericCols, col.Name)
		} else {
			categoricalCols = append(categoricalCols, col.Name)
		}
	}

	scaler := NewStandardScaler()
	X, err := numericMatrix(derived, numericCols, "Preprocessor.Fit")
	if err != nil {
		return err
	}
	if err := scaler.Fit(X); err != nil {
		return err
	}

	vocab := make(map[string][]string, len(categoricalCols))
	for _, name := range categoricalCols {
		col, err := derived.Column(name)
		if err != nil {
			return err
		}
		seen := make(map[string]struct{})
		for _, v := range col.Strings {
			if v == "" {
				continue
			}
			seen[v] = struct{}{}
		}
		categories := make([]string, 0, len(seen))
		for v := range seen {
			categories = append(categories, v)
		}
		sort.Strings(categories)
		vocab[name] = categories
	}

	featureNames := make([]string, 0, len(numericCols))
	featureNames = append(featureNames, numericCols...)
	for _, name := range categoricalCols {
		for _, category := range vocab[name] {
			featureNames = append(featureNames, name+"_"+category)
		}
	}

	p.numericCols = numericCols
	p.categoricalCols = categoricalCols
	p.scaler = scaler
	p.vocab = vocab
	p.vocabIndex = buildVocabIndex(vocab)
	p.featureNames = featureNames
	p.SetFitted()

	logger.Info().
		Int("numeric_cols", len(numericCols)).
		Int("categorical_cols", len(categoricalCols)).
		Int(log.FeaturesKey, len(featureNames)).
		Msg("preprocessor fitted")
	return nil
}

// Transform applies the learned transformation to any table with the same
// raw schema. Categories never seen at fit time encode as the all-zero
// vector; they never raise. The learned parameters are never mutated, so a
// fitted preprocessor is safe for concurrent use.
func (p *Preprocessor) Transform(t *dataset.Table) (*mat.Dense, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("Preprocessor", "Transform")
	}
	if err := requireRawColumns(t, "Preprocessor.Transform"); err != nil {
		return nil, err
	}

	derived, err := deriveFeatures(t)
	if err != nil {
		return nil, err
	}

	X, err := numericMatrix(derived, p.numericCols, "Preprocessor.Transform")
	if err != nil {
		return nil, err
	}
	scaled, err := p.scaler.Transform(X)
	if err != nil {
		return nil, err
	}

	rows := derived.NumRows()
	out := mat.NewDense(rows, len(p.featureNames), nil)
	for i := 0; i < rows; i++ {
		for j := range p.numericCols {
			out.Set(i, j, scaled.At(i, j))
		}
	}

	offset := len(p.numericCols)
	for _, name := range p.categoricalCols {
		col, err := derived.Column(name)
		if err != nil {
			return nil, err
		}
		if col.Kind != dataset.Categorical {
			return nil, errors.NewSchemaError("Preprocessor.Transform", "column is not categorical", name)
		}
		index := p.vocabIndex[name]
		width := len(p.vocab[name])
		for i := 0; i < rows; i++ {
			if pos, ok := index[col.Strings[i]]; ok {
				out.Set(i, offset+pos, 1)
			}
		}
		offset += width
	}
	return out, nil
}

// FitTransform fits on the table and transforms it in one step.
func (p *Preprocessor) FitTransform(t *dataset.Table) (*mat.Dense, error) {
	if err := p.Fit(t); err != nil {
		return nil, err
	}
	return p.Transform(t)
}

// FeatureNames returns the output column names in transform order.
func (p *Preprocessor) FeatureNames() []string {
	names := make([]string, len(p.featureNames))
	copy(names, p.featureNames)
	return names
}

// Save atomically persists the fitted state to path.
func (p *Preprocessor) Save(path string) error {
	if !p.IsFitted() {
		return errors.NewNotFittedError("Preprocessor", "Save")
	}
	state := preprocessorState{
		Target:          p.target,
		NumericCols:     p.numericCols,
		CategoricalCols: p.categoricalCols,
		Mean:            p.scaler.Mean,
		Scale:           p.scaler.Scale,
		Vocab:           p.vocab,
		FeatureNames:    p.featureNames,
	}
	return model.WriteFileAtomic(path, func(w io.Writer) error {
		return gob.NewEncoder(w).Encode(&state)
	})
}

// Load restores a fitted preprocessor from path. Malformed or structurally
// inconsistent artifacts yield CorruptArtifactError without partially
// restoring any state.
func (p *Preprocessor) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewArtifactNotFoundError(path)
		}
		return errors.Wrapf(err, "opening preprocessor artifact %q", path)
	}
	defer file.Close()

	var state preprocessorState
	if err := gob.NewDecoder(file).Decode(&state); err != nil {
		return errors.NewCorruptArtifactError(path, err)
	}
	if err := validateState(&state); err != nil {
		return errors.NewCorruptArtifactError(path, err)
	}

	scaler := NewStandardScaler()
	if err := scaler.restore(state.Mean, state.Scale); err != nil {
		return errors.NewCorruptArtifactError(path, err)
	}

	p.target = state.Target
	p.numericCols = state.NumericCols
	p.categoricalCols = state.CategoricalCols
	p.scaler = scaler
	p.vocab = state.Vocab
	p.vocabIndex = buildVocabIndex(state.Vocab)
	p.featureNames = state.FeatureNames
	p.SetFitted()
	return nil
}

func validateState(state *preprocessorState) error {
	if len(state.FeatureNames) == 0 {
		return errors.New("artifact holds no feature names")
	}
	if len(state.Mean) != len(state.NumericCols) || len(state.Scale) != len(state.NumericCols) {
		return errors.Newf("scaler statistics do not match %d numeric columns", len(state.NumericCols))
	}
	width := len(state.NumericCols)
	for _, name := range state.CategoricalCols {
		categories, ok := state.Vocab[name]
		if !ok {
			return errors.Newf("vocabulary missing for column %q", name)
		}
		width += len(categories)
	}
	if width != len(state.FeatureNames) {
		return errors.Newf("feature names (%d) do not match column layout (%d)", len(state.FeatureNames), width)
	}
	return nil
}

func buildVocabIndex(vocab map[string][]string) map[string]map[string]int {
	index := make(map[string]map[string]int, len(vocab))
	for name, categories := range vocab {
		m := make(map[string]int, len(categories))
		for i, category := range categories {
			m[category] = i
		}
		index[name] = m
	}
	return index
}

func requireRawColumns(t *dataset.Table, op string) error {
	var missing []string
	for _, name := range []string{weightColumn, heightColumn, ageColumn} {
		if !t.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return errors.NewSchemaError(op, "raw columns required for derived features are missing", missing...)
	}
	return nil
}

// deriveFeatures clones the table and appends the BMI and age-band columns.
// It is invoked from both Fit and Transform so the derivation can never
// diverge between training and inference. Heights above 3 are interpreted
// as centimeters and converted to meters before the BMI division.
func deriveFeatures(t *dataset.Table) (*dataset.Table, error) {
	weight, err := t.Column(weightColumn)
	if err != nil {
		return nil, err
	}
	height, err := t.Column(heightColumn)
	if err != nil {
		return nil, err
	}
	age, err := t.Column(ageColumn)
	if err != nil {
		return nil, err
	}
	if weight.Kind != dataset.Numeric || height.Kind != dataset.Numeric || age.Kind != dataset.Numeric {
		return nil, errors.NewSchemaError("deriveFeatures", "raw columns must be numeric",
			weightColumn, heightColumn, ageColumn)
	}

	rows := t.NumRows()
	bmi := make([]float64, rows)
	bands := make([]string, rows)
	for i := 0; i < rows; i++ {
		h := height.Floats[i]
		if h <= 0 || math.IsNaN(h) {
			return nil, errors.NewSchemaError("deriveFeatures", "height must be positive", heightColumn)
		}
		if h > 3 {
			h /= 100
		}
		bmi[i] = weight.Floats[i] / (h * h)
		bands[i] = ageBand(age.Floats[i])
	}

	out := t.Clone()
	out.AddNumeric(bmiColumn, bmi)
	out.AddCategorical(ageGroupColumn, bands)
	return out, nil
}

// ageBand buckets age into the four ordinal bands used at fit time. Ages
// outside (0, 100] fall into the empty band, which one-hot encodes as the
// all-zero vector.
func ageBand(age float64) string {
	switch {
	case age > 0 && age <= 18:
		return "Teen"
	case age > 18 && age <= 30:
		return "Young"
	case age > 30 && age <= 50:
		return "Adult"
	case age > 50 && age <= 100:
		return "Senior"
	default:
		return ""
	}
}

func numericMatrix(t *dataset.Table, cols []string, op string) (*mat.Dense, error) {
	var missing []string
	for _, name := range cols {
		if !t.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewSchemaError(op, "numeric columns are missing", missing...)
	}

	rows := t.NumRows()
	if rows == 0 || len(cols) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, op)
	}
	X := mat.NewDense(rows, len(cols), nil)
	for j, name := range cols {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		if col.Kind != dataset.Numeric {
			return nil, errors.NewSchemaError(op, "column is not numeric", name)
		}
		for i := 0; i < rows; i++ {
			X.Set(i, j, col.Floats[i])
		}
	}
	return X, nil
}
