package dataset

import (
	"math"
	"math/rand"
	"sort"

	"github.com/rs/zerolog"

	"github.com/Manda404/obesity-predictor/pkg/errors"
	"github.com/Manda404/obesity-predictor/pkg/log"
)

// Splitter performs a stratified train/validation split that preserves the
// class proportions of the label column in both subsets.
type Splitter struct {
	Target   string
	TestSize float64
	Seed     int64
}

// NewSplitter creates a splitter for the given label column.
func NewSplitter(target string, testSize float64, seed int64) *Splitter {
	return &Splitter{Target: target, TestSize: testSize, Seed: seed}
}

// Split partitions the table into train and validation subsets. Both
// subsets keep the label column; downstream components extract it
// explicitly. Classes are sorted before shuffling so the split depends only
// on the seed, not on row order of first appearance.
func (s *Splitter) Split(t *Table) (train, valid *Table, err error) {
	logger := log.For("dataset")

	if t.NumRows() == 0 {
		return nil, nil, errors.Wrap(errors.ErrEmptyData, "Splitter.Split")
	}
	if s.TestSize <= 0 || s.TestSize >= 1 {
		return nil, nil, errors.Newf("test size must be in (0, 1), got %g", s.TestSize)
	}
	labels, err := t.Labels(s.Target)
	if err != nil {
		return nil, nil, err
	}

	byClass := make(map[string][]int)
	for i, label := range labels {
		byClass[label] = append(byClass[label], i)
	}
	classes := make([]string, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	rng := rand.New(rand.NewSource(s.Seed))
	var trainRows, validRows []int
	for _, c := range classes {
		rows := byClass[c]
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		nValid := int(math.Round(float64(len(rows)) * s.TestSize))
		if nValid == 0 && len(rows) > 1 {
			nValid = 1
		}
		validRows = append(validRows, rows[:nValid]...)
		trainRows = append(trainRows, rows[nValid:]...)
	}
	sort.Ints(trainRows)
	sort.Ints(validRows)

	train = t.Select(trainRows)
	valid = t.Select(validRows)

	logger.Info().
		Int("train_rows", train.NumRows()).
		Int("valid_rows", valid.NumRows()).
		Int(log.FeaturesKey, t.NumCols()-1).
		Msg("stratified split complete")
	logDistribution(logger, "train", labels, trainRows)
	logDistribution(logger, "valid", labels, validRows)
	return train, valid, nil
}

// logDistribution emits the normalized class distribution of a subset.
func logDistribution(logger zerolog.Logger, subset string, labels []string, rows []int) {
	if len(rows) == 0 {
		return
	}
	counts := make(map[string]int)
	for _, r := range rows {
		counts[labels[r]]++
	}
	event := logger.Debug().Str("subset", subset)
	classes := make([]string, 0, len(counts))
	for c := range counts {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	for _, c := range classes {
		event = event.Float64(c, float64(counts[c])/float64(len(rows)))
	}
	event.Msg("class distribution")
}
