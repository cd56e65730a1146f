package table

import (
	"math"
	"time"
)

// NaT is the text a missing timestamp renders as before it is nulled.
const NaT = "NaT"

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// Clean returns a copy of t that is safe to serialize.
//
// Numeric columns: infinities become NaN, then every NaN becomes nil.
// Datetime columns are rendered to text and turned into object columns,
// with missing timestamps becoming nil. Other columns are copied as is.
// The input table is not modified.
func Clean(t *Table) *Table {
	out := &Table{Name: t.Name, rows: t.rows, Columns: make([]*Column, len(t.Columns))}
	for i, c := range t.Columns {
		out.Columns[i] = cleanColumn(c)
	}
	return out
}

func cleanColumn(c *Column) *Column {
	vals := make([]any, len(c.Values))
	copy(vals, c.Values)
	kind := c.Kind

	switch {
	case kind.IsNumeric():
		for i, v := range vals {
			f, ok := v.(float64)
			if !ok {
				continue
			}
			if math.IsInf(f, 0) {
				f = math.NaN()
				vals[i] = f
			}
			if math.IsNaN(f) {
				vals[i] = nil
			}
		}
	case kind == KindDatetime:
		layout := timestampLayout(vals)
		for i, v := range vals {
			s := formatTimestamp(v, layout)
			if s == NaT {
				vals[i] = nil
				continue
			}
			vals[i] = s
		}
		kind = KindObject
	}
	return &Column{Name: c.Name, Kind: kind, Values: vals}
}

// timestampLayout picks a date-only layout when every present value sits at midnight.
func timestampLayout(vals []any) string {
	for _, v := range vals {
		t, ok := v.(time.Time)
		if !ok || t.IsZero() {
			continue
		}
		if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
			return dateTimeLayout
		}
	}
	return dateLayout
}

func formatTimestamp(v any, layout string) string {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return NaT
		}
		return x.Format(layout)
	case string:
		return x
	}
	return NaT
}
