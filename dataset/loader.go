package dataset

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/Manda404/obesity-predictor/pkg/errors"
	"github.com/Manda404/obesity-predictor/pkg/log"
)

// Loader reads a CSV dataset wholesale into a Table and reports basic
// diagnostics about it.
type Loader struct {
	path string
}

// NewLoader creates a loader for the CSV file at path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads the whole file into memory. The first row is the header. A
// column is numeric when every non-empty cell parses as a float; otherwise
// it is categorical.
func (l *Loader) Load() (*Table, error) {
	logger := log.For("dataset")

	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewArtifactNotFoundError(l.path)
		}
		return nil, errors.Wrapf(err, "opening dataset %q", l.path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "reading dataset %q", l.path)
	}
	if len(records) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, l.path)
	}

	header := records[0]
	rows := records[1:]
	table, err := tableFromCells(header, rows)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("path", l.path).
		Int(log.SamplesKey, table.NumRows()).
		Int(log.FeaturesKey, table.NumCols()).
		Msg("dataset loaded")
	return table, nil
}

func tableFromCells(header []string, rows [][]string) (*Table, error) {
	cols := make([]Column, len(header))
	for j, name := range header {
		numeric := true
		for _, row := range rows {
			cell := row[j]
			if cell == "" {
				continue
			}
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				numeric = false
				break
			}
		}
		col := Column{Name: name}
		if numeric {
			col.Kind = Numeric
			col.Floats = make([]float64, len(rows))
			for i, row := range rows {
				if row[j] == "" {
					col.Floats[i] = 0
					continue
				}
				v, _ := strconv.ParseFloat(row[j], 64)
				col.Floats[i] = v
			}
		} else {
			col.Kind = Categorical
			col.Strings = make([]string, len(rows))
			for i, row := range rows {
				col.Strings[i] = row[j]
			}
		}
		cols[j] = col
	}
	return NewTable(cols)
}

// Summary holds basic diagnostics over a loaded table.
type Summary struct {
	Rows     int            `json:"rows"`
	Cols     int            `json:"cols"`
	Missing  map[string]int `json:"missing"`
	Distinct map[string]int `json:"distinct"`
}

// Summarize computes row/column counts, per-column missing-cell counts and
// per-column distinct value counts.
func Summarize(t *Table) Summary {
	s := Summary{
		Rows:     t.NumRows(),
		Cols:     t.NumCols(),
		Missing:  make(map[string]int, t.NumCols()),
		Distinct: make(map[string]int, t.NumCols()),
	}
	for _, col := range t.Columns() {
		missing := 0
		seen := make(map[string]struct{})
		if col.Kind == Categorical {
			for _, v := range col.Strings {
				if v == "" {
					missing++
					continue
				}
				seen[v] = struct{}{}
			}
		} else {
			for _, v := range col.Floats {
				seen[strconv.FormatFloat(v, 'g', -1, 64)] = struct{}{}
			}
		}
		s.Missing[col.Name] = missing
		s.Distinct[col.Name] = len(seen)
	}
	return s
}
