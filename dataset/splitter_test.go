package dataset

import (
	"testing"

	"github.com/Manda404/obesity-predictor/pkg/errors"
)

func labeledTable(t *testing.T, labels []string) *Table {
	t.Helper()
	values := make([]float64, len(labels))
	for i := range values {
		values[i] = float64(i)
	}
	table, err := NewTable([]Column{
		{Name: "id", Kind: Numeric, Floats: values},
		{Name: "label", Kind: Categorical, Strings: labels},
	})
	if err != nil {
		t.Fatalf("building table: %v", err)
	}
	return table
}

func TestSplitStratified(t *testing.T) {
	labels := []string{
		"a", "a", "a", "a", "a",
		"b", "b", "b", "b", "b",
	}
	table := labeledTable(t, labels)

	train, valid, err := NewSplitter("label", 0.2, 42).Split(table)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if train.NumRows() != 8 || valid.NumRows() != 2 {
		t.Fatalf("split sizes = %d/%d, want 8/2", train.NumRows(), valid.NumRows())
	}

	// One validation row per class.
	validLabels, _ := valid.Labels("label")
	counts := map[string]int{}
	for _, l := range validLabels {
		counts[l]++
	}
	if counts["a"] != 1 || counts["b"] != 1 {
		t.Errorf("validation class counts = %v, want one of each", counts)
	}
}

func TestSplitPartitionsAllRows(t *testing.T) {
	labels := []string{"a", "b", "a", "b", "a", "b", "a", "a", "b", "a"}
	table := labeledTable(t, labels)

	train, valid, err := NewSplitter("label", 0.3, 7).Split(table)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	seen := map[float64]int{}
	for _, subset := range []*Table{train, valid} {
		col, err := subset.Column("id")
		if err != nil {
			t.Fatalf("id column missing: %v", err)
		}
		for _, v := range col.Floats {
			seen[v]++
		}
	}
	if len(seen) != len(labels) {
		t.Errorf("subsets cover %d distinct rows, want %d", len(seen), len(labels))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("row %v appears %d times across subsets", id, n)
		}
	}
}

func TestSplitDeterministic(t *testing.T) {
	labels := []string{"a", "b", "a", "b", "a", "b", "a", "a", "b", "a"}

	first, _, err := NewSplitter("label", 0.2, 42).Split(labeledTable(t, labels))
	if err != nil {
		t.Fatalf("first Split failed: %v", err)
	}
	second, _, err := NewSplitter("label", 0.2, 42).Split(labeledTable(t, labels))
	if err != nil {
		t.Fatalf("second Split failed: %v", err)
	}

	a, _ := first.Column("id")
	b, _ := second.Column("id")
	if len(a.Floats) != len(b.Floats) {
		t.Fatalf("split sizes differ: %d vs %d", len(a.Floats), len(b.Floats))
	}
	for i := range a.Floats {
		if a.Floats[i] != b.Floats[i] {
			t.Errorf("row %d differs across identical seeds: %v vs %v", i, a.Floats[i], b.Floats[i])
		}
	}
}

func TestSplitGuards(t *testing.T) {
	table := labeledTable(t, []string{"a", "b"})

	if _, _, err := NewSplitter("label", 0, 1).Split(table); err == nil {
		t.Error("zero test size did not fail")
	}
	if _, _, err := NewSplitter("missing", 0.2, 1).Split(table); err == nil {
		t.Error("missing label column did not fail")
	}

	empty, err := NewTable([]Column{{Name: "label", Kind: Categorical, Strings: nil}})
	if err != nil {
		t.Fatalf("building empty table: %v", err)
	}
	_, _, err = NewSplitter("label", 0.2, 1).Split(empty)
	if !errors.Is(err, errors.ErrEmptyData) {
		t.Errorf("empty table: error = %v, want ErrEmptyData", err)
	}
}
