package validation

import (
	"math"

	"github.com/Manda404/obesity-predictor/dataset"
	"github.com/Manda404/obesity-predictor/pkg/errors"
	"github.com/Manda404/obesity-predictor/pkg/log"
)

// Column-level PSI above this value marks the column as drifted. 0.2 is the
// conventional "significant shift" cutoff for population stability index.
const psiDriftThreshold = 0.2

const psiBins = 10

// DriftDetector compares the numeric feature distributions of a reference
// (training) table against a current (production) table.
type DriftDetector struct {
	// TargetColumn is excluded from the comparison.
	TargetColumn string

	// DatasetThreshold is the share of drifted columns above which the
	// whole dataset is flagged.
	DatasetThreshold float64
}

// NewDriftDetector creates a detector with the given dataset-level
// threshold.
func NewDriftDetector(targetColumn string, datasetThreshold float64) *DriftDetector {
	return &DriftDetector{TargetColumn: targetColumn, DatasetThreshold: datasetThreshold}
}

// DriftSummary is the result of one drift analysis.
type DriftSummary struct {
	DatasetDrift    bool               `json:"dataset_drift"`
	NDriftedColumns int                `json:"n_drifted_columns"`
	NTotalColumns   int                `json:"n_total_columns"`
	DriftRatio      float64            `json:"drift_ratio"`
	ColumnPSI       map[string]float64 `json:"column_psi"`
}

// Run computes the population stability index of every shared numeric
// column and flags the dataset when the drifted share exceeds the
// threshold.
func (d *DriftDetector) Run(reference, current *dataset.Table) (DriftSummary, error) {
	logger := log.For("drift")

	if reference.NumRows() == 0 || current.NumRows() == 0 {
		return DriftSummary{}, errors.Wrap(errors.ErrEmptyData, "DriftDetector.Run")
	}

	summary := DriftSummary{ColumnPSI: make(map[string]float64)}
	for _, col := range reference.Columns() {
		if col.Name == d.TargetColumn || col.Kind != dataset.Numeric {
			continue
		}
		if !current.HasColumn(col.Name) {
			continue
		}
		curCol, err := current.Column(col.Name)
		if err != nil {
			return DriftSummary{}, err
		}
		if curCol.Kind != dataset.Numeric {
			continue
		}

		psi := populationStabilityIndex(col.Floats, curCol.Floats)
		summary.ColumnPSI[col.Name] = psi
		summary.NTotalColumns++
		if psi > psiDriftThreshold {
			summary.NDriftedColumns++
		}
	}

	if summary.NTotalColumns > 0 {
		summary.DriftRatio = float64(summary.NDriftedColumns) / float64(summary.NTotalColumns)
	}
	summary.DatasetDrift = summary.DriftRatio > d.DatasetThreshold

	logger.Info().
		Bool("dataset_drift", summary.DatasetDrift).
		Int("drifted_columns", summary.NDriftedColumns).
		Int("total_columns", summary.NTotalColumns).
		Msg("drift analysis complete")
	return summary, nil
}

// populationStabilityIndex bins both samples on the reference range and
// sums (p-q)*ln(p/q) over the bins. Proportions are floored at a small
// epsilon so empty bins do not blow up the logarithm.
func populationStabilityIndex(reference, current []float64) float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range reference {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi <= lo {
		// Constant reference column; any deviation is full drift.
		for _, v := range current {
			if v != lo {
				return math.Inf(1)
			}
		}
		return 0
	}

	refCounts := binCounts(reference, lo, hi)
	curCounts := binCounts(current, lo, hi)

	const epsilon = 1e-4
	psi := 0.0
	for b := 0; b < psiBins; b++ {
		p := math.Max(float64(refCounts[b])/float64(len(reference)), epsilon)
		q := math.Max(float64(curCounts[b])/float64(len(current)), epsilon)
		psi += (p - q) * math.Log(p/q)
	}
	return psi
}

func binCounts(values []float64, lo, hi float64) []int {
	counts := make([]int, psiBins)
	width := (hi - lo) / psiBins
	for _, v := range values {
		b := int((v - lo) / width)
		if b < 0 {
			b = 0
		}
		if b >= psiBins {
			b = psiBins - 1
		}
		counts[b]++
	}
	return counts
}
