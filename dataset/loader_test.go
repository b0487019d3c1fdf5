package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Manda404/obesity-predictor/pkg/errors"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing csv: %v", err)
	}
	return path
}

func TestLoaderKindInference(t *testing.T) {
	path := writeCSV(t, "Gender,Age,Code\nMale,25,A1\nFemale,40,B2\n")

	table, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if table.NumRows() != 2 || table.NumCols() != 3 {
		t.Fatalf("table is %dx%d, want 2x3", table.NumRows(), table.NumCols())
	}

	tests := []struct {
		name string
		want ColumnKind
	}{
		{"Gender", Categorical},
		{"Age", Numeric},
		{"Code", Categorical},
	}
	for _, tt := range tests {
		col, err := table.Column(tt.name)
		if err != nil {
			t.Fatalf("column %q missing: %v", tt.name, err)
		}
		if col.Kind != tt.want {
			t.Errorf("column %q kind = %v, want %v", tt.name, col.Kind, tt.want)
		}
	}

	age, _ := table.Column("Age")
	if age.Floats[0] != 25 || age.Floats[1] != 40 {
		t.Errorf("Age values = %v, want [25 40]", age.Floats)
	}
}

func TestLoaderMissingCells(t *testing.T) {
	path := writeCSV(t, "Age,Name\n25,\n,Bob\n")

	table, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	// Empty numeric cells read as zero; empty categorical cells stay empty.
	age, _ := table.Column("Age")
	if age.Floats[1] != 0 {
		t.Errorf("missing Age cell = %v, want 0", age.Floats[1])
	}

	s := Summarize(table)
	if s.Missing["Name"] != 1 {
		t.Errorf("missing count for Name = %d, want 1", s.Missing["Name"])
	}
	if s.Distinct["Name"] != 1 {
		t.Errorf("distinct count for Name = %d, want 1", s.Distinct["Name"])
	}
}

func TestLoaderErrors(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "missing.csv")).Load()
	var notFound *errors.ArtifactNotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("missing file: error = %v, want ArtifactNotFoundError", err)
	}

	_, err = NewLoader(writeCSV(t, "")).Load()
	if !errors.Is(err, errors.ErrEmptyData) {
		t.Errorf("empty file: error = %v, want ErrEmptyData", err)
	}
}
