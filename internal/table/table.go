package table

import (
	"fmt"
	"math"
	"time"
)

// Kind is the inferred storage type of a column.
type Kind int

const (
	KindObject Kind = iota
	KindInt
	KindFloat
	KindBool
	KindDatetime
)

// DType returns the dtype label reported for columns of this kind.
func (k Kind) DType() string {
	switch k {
	case KindInt:
		return "int64"
	case KindFloat:
		return "float64"
	case KindBool:
		return "bool"
	case KindDatetime:
		return "datetime64[ns]"
	default:
		return "object"
	}
}

func (k Kind) String() string { return k.DType() }

// IsNumeric reports whether the kind participates in numeric statistics.
func (k Kind) IsNumeric() bool { return k == KindInt || k == KindFloat }

// Column is a named, homogeneously typed sequence of cells.
//
// Cells hold one of: nil (missing), int64, float64 (NaN is missing),
// bool, time.Time (zero value is NaT) or string.
type Column struct {
	Name   string
	Kind   Kind
	Values []any
}

// Len returns the number of cells in the column.
func (c *Column) Len() int { return len(c.Values) }

// Floats returns the column as float64 with NaN for missing or non-numeric cells.
func (c *Column) Floats() []float64 {
	out := make([]float64, len(c.Values))
	for i, v := range c.Values {
		f, ok := AsFloat(v)
		if !ok {
			f = math.NaN()
		}
		out[i] = f
	}
	return out
}

// Present returns the non-missing numeric values of the column, in row order.
func (c *Column) Present() []float64 {
	out := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if f, ok := AsFloat(v); ok && !math.IsNaN(f) {
			out = append(out, f)
		}
	}
	return out
}

// Table is an ordered collection of equal-length columns.
type Table struct {
	Name    string
	Columns []*Column
	rows    int
}

// New builds a table, rejecting ragged or duplicate columns.
func New(name string, cols []*Column) (*Table, error) {
	t := &Table{Name: name, Columns: cols}
	seen := make(map[string]struct{}, len(cols))
	for i, c := range cols {
		if c == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if i == 0 {
			t.rows = c.Len()
			continue
		}
		if c.Len() != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", c.Name, c.Len(), t.rows)
		}
	}
	return t, nil
}

// Rows returns the number of data rows.
func (t *Table) Rows() int { return t.rows }

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.Columns) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Column looks up a column by name; nil if absent.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// NumericColumns returns the int and float columns in order.
func (t *Table) NumericColumns() []*Column {
	var out []*Column
	for _, c := range t.Columns {
		if c.Kind.IsNumeric() {
			out = append(out, c)
		}
	}
	return out
}

// Head returns a table holding the first n rows.
func (t *Table) Head(n int) *Table {
	if n > t.rows {
		n = t.rows
	}
	if n < 0 {
		n = 0
	}
	out := &Table{Name: t.Name, rows: n, Columns: make([]*Column, len(t.Columns))}
	for i, c := range t.Columns {
		vals := make([]any, n)
		copy(vals, c.Values[:n])
		out.Columns[i] = &Column{Name: c.Name, Kind: c.Kind, Values: vals}
	}
	return out
}

// IsMissing reports whether a cell is a missing marker.
func IsMissing(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case time.Time:
		return x.IsZero()
	}
	return false
}

// AsFloat converts numeric cells to float64.
func AsFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	}
	return 0, false
}
