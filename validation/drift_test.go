package validation

import (
	"math"
	"testing"

	"github.com/Manda404/obesity-predictor/dataset"
	"github.com/Manda404/obesity-predictor/pkg/errors"
)

func numericTable(t *testing.T, name string, values []float64) *dataset.Table {
	t.Helper()
	labels := make([]string, len(values))
	for i := range labels {
		labels[i] = "x"
	}
	table, err := dataset.NewTable([]dataset.Column{
		{Name: name, Kind: dataset.Numeric, Floats: values},
		{Name: "label", Kind: dataset.Categorical, Strings: labels},
	})
	if err != nil {
		t.Fatalf("building table: %v", err)
	}
	return table
}

func ramp(n int, lo, hi float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

func TestDriftIdenticalDistributions(t *testing.T) {
	values := ramp(200, 0, 10)
	d := NewDriftDetector("label", 0.5)

	summary, err := d.Run(numericTable(t, "Age", values), numericTable(t, "Age", values))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.DatasetDrift {
		t.Error("identical distributions flagged as drifted")
	}
	if psi := summary.ColumnPSI["Age"]; math.Abs(psi) > 1e-9 {
		t.Errorf("PSI of identical samples = %v, want 0", psi)
	}
	if summary.NTotalColumns != 1 {
		t.Errorf("compared %d columns, want 1", summary.NTotalColumns)
	}
}

func TestDriftShiftedDistribution(t *testing.T) {
	reference := ramp(200, 0, 10)
	// Shift most of the mass into the top of the reference range.
	current := ramp(200, 8, 10)

	d := NewDriftDetector("label", 0.5)
	summary, err := d.Run(numericTable(t, "Age", reference), numericTable(t, "Age", current))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.NDriftedColumns != 1 {
		t.Errorf("drifted columns = %d, want 1 (PSI %v)", summary.NDriftedColumns, summary.ColumnPSI["Age"])
	}
	if !summary.DatasetDrift {
		t.Error("fully shifted dataset not flagged as drifted")
	}
}

func TestDriftSkipsTargetAndCategorical(t *testing.T) {
	reference, err := dataset.NewTable([]dataset.Column{
		{Name: "Age", Kind: dataset.Numeric, Floats: ramp(50, 0, 10)},
		{Name: "Gender", Kind: dataset.Categorical, Strings: make([]string, 50)},
		{Name: "label", Kind: dataset.Numeric, Floats: ramp(50, 0, 1)},
	})
	if err != nil {
		t.Fatalf("building table: %v", err)
	}

	d := NewDriftDetector("label", 0.5)
	summary, err := d.Run(reference, reference)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.NTotalColumns != 1 {
		t.Errorf("compared %d columns, want only Age", summary.NTotalColumns)
	}
	if _, ok := summary.ColumnPSI["label"]; ok {
		t.Error("target column was included in drift analysis")
	}
}

func TestDriftEmptyTables(t *testing.T) {
	empty, err := dataset.NewTable(nil)
	if err != nil {
		t.Fatalf("building empty table: %v", err)
	}
	_, err = NewDriftDetector("label", 0.5).Run(empty, empty)
	if !errors.Is(err, errors.ErrEmptyData) {
		t.Errorf("error = %v, want ErrEmptyData", err)
	}
}
