package validation

import (
	"strings"
	"testing"

	"github.com/Manda404/obesity-predictor/pkg/errors"
)

func validRecord() Record {
	return Record{
		Gender:                      "Male",
		Age:                         25,
		Height:                      170,
		Weight:                      70,
		FamilyHistoryWithOverweight: "yes",
		FAVC:                        "no",
		FCVC:                        2,
		NCP:                         3,
		CAEC:                        "Sometimes",
		SMOKE:                       "no",
		CH2O:                        2,
		SCC:                         "no",
		FAF:                         1,
		TUE:                         1,
		CALC:                        "no",
		MTRANS:                      "Walking",
	}
}

func TestValidateRecordsAccepts(t *testing.T) {
	if err := ValidateRecords([]Record{validRecord(), validRecord()}); err != nil {
		t.Errorf("valid batch rejected: %v", err)
	}

	// Enumerations match case-insensitively; the raw dataset mixes cases.
	r := validRecord()
	r.SMOKE = "No"
	r.Gender = "male"
	if err := ValidateRecords([]Record{r}); err != nil {
		t.Errorf("case variants rejected: %v", err)
	}
}

func TestValidateRecordsAggregatesFields(t *testing.T) {
	r := validRecord()
	r.Age = -5
	r.Gender = "unknown"
	r.MTRANS = "Teleport"

	err := ValidateRecords([]Record{validRecord(), r})
	var schemaErr *errors.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("error = %v, want SchemaError", err)
	}
	if schemaErr.Op != "record[1]" {
		t.Errorf("op = %q, want record[1]", schemaErr.Op)
	}
	if len(schemaErr.Fields) != 3 {
		t.Errorf("fields = %v, want the three offending fields", schemaErr.Fields)
	}
	for _, field := range []string{"Age", "Gender", "MTRANS"} {
		found := false
		for _, f := range schemaErr.Fields {
			if f == field {
				found = true
			}
		}
		if !found {
			t.Errorf("fields %v missing %q", schemaErr.Fields, field)
		}
	}
}

func TestValidateRecordsEmptyBatch(t *testing.T) {
	err := ValidateRecords(nil)
	var schemaErr *errors.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Errorf("error = %v, want SchemaError", err)
	}
}

func TestValidateRecordRanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Record)
	}{
		{"age above 120", func(r *Record) { r.Age = 130 }},
		{"zero height", func(r *Record) { r.Height = 0 }},
		{"negative weight", func(r *Record) { r.Weight = -1 }},
		{"FCVC above 3", func(r *Record) { r.FCVC = 4 }},
		{"NCP above 5", func(r *Record) { r.NCP = 6 }},
		{"CH2O above 5", func(r *Record) { r.CH2O = 9 }},
		{"FAF above 5", func(r *Record) { r.FAF = 7 }},
		{"TUE above 3", func(r *Record) { r.TUE = 5 }},
		{"bad CAEC", func(r *Record) { r.CAEC = "Never" }},
		{"bad CALC", func(r *Record) { r.CALC = "Daily" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.mutate(&r)
			if err := ValidateRecords([]Record{r}); err == nil {
				t.Error("invalid record accepted")
			}
		})
	}
}

func TestRecordsToTable(t *testing.T) {
	table, err := RecordsToTable([]Record{validRecord(), validRecord()})
	if err != nil {
		t.Fatalf("RecordsToTable failed: %v", err)
	}
	if table.NumRows() != 2 || table.NumCols() != 16 {
		t.Fatalf("table is %dx%d, want 2x16", table.NumRows(), table.NumCols())
	}

	names := table.ColumnNames()
	if names[0] != "Gender" || names[len(names)-1] != "MTRANS" {
		t.Errorf("column order starts %q ends %q, want Gender..MTRANS", names[0], names[len(names)-1])
	}
	if strings.Join(names[1:4], ",") != "Age,Height,Weight" {
		t.Errorf("columns 1..3 = %v, want Age,Height,Weight", names[1:4])
	}

	weight, err := table.Column("Weight")
	if err != nil {
		t.Fatalf("Weight column missing: %v", err)
	}
	if weight.Floats[0] != 70 {
		t.Errorf("Weight[0] = %v, want 70", weight.Floats[0])
	}
}

func TestRecordsToTableCanonicalizesCase(t *testing.T) {
	r := validRecord()
	r.Gender = "MALE"
	r.SMOKE = "No"
	r.MTRANS = "walking"

	table, err := RecordsToTable([]Record{r})
	if err != nil {
		t.Fatalf("RecordsToTable failed: %v", err)
	}
	for _, tt := range []struct {
		column string
		want   string
	}{
		{"Gender", "Male"},
		{"SMOKE", "no"},
		{"MTRANS", "Walking"},
	} {
		col, err := table.Column(tt.column)
		if err != nil {
			t.Fatalf("%s column missing: %v", tt.column, err)
		}
		if col.Strings[0] != tt.want {
			t.Errorf("%s = %q, want %q", tt.column, col.Strings[0], tt.want)
		}
	}
}
