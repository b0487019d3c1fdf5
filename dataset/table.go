// Package dataset provides the in-memory columnar table used throughout the
// pipelines, CSV ingestion, and the stratified train/validation splitter.
package dataset

import (
	"strconv"

	"github.com/Manda404/obesity-predictor/pkg/errors"
)

// ColumnKind distinguishes numeric from categorical columns.
type ColumnKind int

const (
	// Numeric columns hold float64 values.
	Numeric ColumnKind = iota
	// Categorical columns hold string values.
	Categorical
)

// Column is a single named, typed column. Exactly one of Floats/Strings is
// populated, matching Kind.
type Column struct {
	Name    string
	Kind    ColumnKind
	Floats  []float64
	Strings []string
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Floats)
	}
	return len(c.Strings)
}

// Table is an ordered sequence of equal-length columns. Column order is
// significant and preserved by every operation.
type Table struct {
	cols  []Column
	index map[string]int
}

// NewTable builds a table from columns, verifying that all columns have the
// same row count and unique names.
func NewTable(cols []Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(cols))}
	rows := -1
	for _, col := range cols {
		if _, dup := t.index[col.Name]; dup {
			return nil, errors.NewSchemaError("NewTable", "duplicate column", col.Name)
		}
		if rows >= 0 && col.Len() != rows {
			return nil, errors.NewDimensionError("NewTable", rows, col.Len(), 0)
		}
		rows = col.Len()
		t.index[col.Name] = len(t.cols)
		t.cols = append(t.cols, col)
	}
	return t, nil
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return t.cols[0].Len()
}

// NumCols returns the column count.
func (t *Table) NumCols() int {
	return len(t.cols)
}

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether name is present.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, errors.NewSchemaError("Table.Column", "missing column", name)
	}
	return &t.cols[i], nil
}

// Columns returns the columns in table order. The slice is shared; callers
// must treat it as read-only.
func (t *Table) Columns() []Column {
	return t.cols
}

// Labels returns the string values of a categorical column, converting
// numeric columns through strconv for uniform label handling.
func (t *Table) Labels(name string) ([]string, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if col.Kind == Categorical {
		out := make([]string, len(col.Strings))
		copy(out, col.Strings)
		return out, nil
	}
	out := make([]string, len(col.Floats))
	for i, v := range col.Floats {
		out[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return out, nil
}

// Drop returns a new table without the named column. Dropping a column that
// does not exist is not an error, mirroring loose label handling on
// inference-only tables.
func (t *Table) Drop(name string) *Table {
	out := &Table{index: make(map[string]int, len(t.cols))}
	for _, col := range t.cols {
		if col.Name == name {
			continue
		}
		out.index[col.Name] = len(out.cols)
		out.cols = append(out.cols, col)
	}
	return out
}

// Select returns a new table containing the given rows, in the given order.
// Column data is copied so the subset is independent of the source.
func (t *Table) Select(rows []int) *Table {
	out := &Table{index: make(map[string]int, len(t.cols))}
	for _, col := range t.cols {
		sub := Column{Name: col.Name, Kind: col.Kind}
		if col.Kind == Numeric {
			sub.Floats = make([]float64, len(rows))
			for i, r := range rows {
				sub.Floats[i] = col.Floats[r]
			}
		} else {
			sub.Strings = make([]string, len(rows))
			for i, r := range rows {
				sub.Strings[i] = col.Strings[r]
			}
		}
		out.index[sub.Name] = len(out.cols)
		out.cols = append(out.cols, sub)
	}
	return out
}

// Clone returns a deep copy of the table. Transformations that derive
// columns operate on clones so callers never observe mutation.
func (t *Table) Clone() *Table {
	rows := make([]int, t.NumRows())
	for i := range rows {
		rows[i] = i
	}
	return t.Select(rows)
}

// AddNumeric appends a numeric column, replacing any existing column with
// the same name.
func (t *Table) AddNumeric(name string, values []float64) {
	t.addColumn(Column{Name: name, Kind: Numeric, Floats: values})
}

// AddCategorical appends a categorical column, replacing any existing column
// with the same name.
func (t *Table) AddCategorical(name string, values []string) {
	t.addColumn(Column{Name: name, Kind: Categorical, Strings: values})
}

func (t *Table) addColumn(col Column) {
	if i, ok := t.index[col.Name]; ok {
		t.cols[i] = col
		return
	}
	t.index[col.Name] = len(t.cols)
	t.cols = append(t.cols, col)
}
