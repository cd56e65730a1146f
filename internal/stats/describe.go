// Package stats computes the descriptive summaries of a table.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	mstats "github.com/montanaflynn/stats"

	"github.com/KaramelBytes/tabloom/internal/table"
)

// ErrNilTable is returned when a summary is requested for no table.
var ErrNilTable = errors.New("stats: nil table")

var (
	numericKeys = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}
	allKeys     = []string{"count", "unique", "top", "freq", "mean", "std", "min", "25%", "50%", "75%", "max"}
)

// ColumnSummary holds the descriptor values of one column keyed by label.
// Labels that do not apply to the column's kind hold NaN.
type ColumnSummary struct {
	Name   string
	Values map[string]any
}

// Summary is an ordered descriptor table: one row per label, one column per
// table column.
type Summary struct {
	Keys    []string
	Columns []ColumnSummary
}

// Map returns {column: {label: value}}.
func (s *Summary) Map() map[string]map[string]any {
	out := make(map[string]map[string]any, len(s.Columns))
	for _, c := range s.Columns {
		m := make(map[string]any, len(s.Keys))
		for _, k := range s.Keys {
			m[k] = c.Values[k]
		}
		out[c.Name] = m
	}
	return out
}

// String renders the summary as a text grid, labels down the side.
func (s *Summary) String() string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(w, "\t")
	for _, c := range s.Columns {
		fmt.Fprintf(w, "%s\t", c.Name)
	}
	fmt.Fprintln(w)
	for _, k := range s.Keys {
		fmt.Fprintf(w, "%s\t", k)
		for _, c := range s.Columns {
			fmt.Fprintf(w, "%s\t", table.FormatCell(c.Values[k]))
		}
		fmt.Fprintln(w)
	}
	_ = w.Flush()
	return strings.TrimRight(b.String(), "\n")
}

// Describe summarizes every column under the full label set. Labels that
// do not apply to a column's kind hold NaN.
func Describe(t *table.Table) (*Summary, error) {
	if t == nil {
		return nil, ErrNilTable
	}
	s := &Summary{Keys: allKeys, Columns: make([]ColumnSummary, 0, len(t.Columns))}
	for _, c := range t.Columns {
		s.Columns = append(s.Columns, ColumnSummary{Name: c.Name, Values: describeColumn(c)})
	}
	return s, nil
}

// DescribeNumeric summarizes only the numeric columns.
func DescribeNumeric(t *table.Table) (*Summary, error) {
	if t == nil {
		return nil, ErrNilTable
	}
	s := &Summary{Keys: numericKeys}
	for _, c := range t.NumericColumns() {
		s.Columns = append(s.Columns, ColumnSummary{Name: c.Name, Values: describeColumn(c)})
	}
	return s, nil
}

func describeColumn(c *table.Column) map[string]any {
	m := make(map[string]any, len(allKeys))
	for _, k := range allKeys {
		m[k] = math.NaN()
	}
	if c.Kind.IsNumeric() {
		for k, v := range numericSummary(c.Present()) {
			m[k] = v
		}
		return m
	}
	for k, v := range categoricalSummary(c.Values) {
		m[k] = v
	}
	return m
}

func numericSummary(xs []float64) map[string]any {
	m := map[string]any{"count": len(xs)}
	if len(xs) == 0 {
		return m
	}
	data := mstats.Float64Data(xs)
	m["mean"] = orNaN(mstats.Mean(data))
	m["min"] = orNaN(mstats.Min(data))
	m["max"] = orNaN(mstats.Max(data))
	m["std"] = math.NaN()
	if len(xs) > 1 {
		m["std"] = orNaN(mstats.StandardDeviationSample(data))
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	m["25%"] = quantile(sorted, 0.25)
	m["50%"] = orNaN(mstats.Median(data))
	m["75%"] = quantile(sorted, 0.75)
	return m
}

func categoricalSummary(vals []any) map[string]any {
	counts := map[string]int{}
	first := map[string]any{}
	var order []string
	count := 0
	for _, v := range vals {
		if table.IsMissing(v) {
			continue
		}
		count++
		k := table.FormatCell(v)
		if _, ok := counts[k]; !ok {
			order = append(order, k)
			first[k] = v
		}
		counts[k]++
	}
	m := map[string]any{"count": count, "unique": len(counts)}
	if count == 0 {
		return m
	}
	// Ties go to the value seen first.
	top := order[0]
	for _, k := range order[1:] {
		if counts[k] > counts[top] {
			top = k
		}
	}
	m["top"] = first[top]
	m["freq"] = counts[top]
	return m
}

func orNaN(v float64, err error) float64 {
	if err != nil {
		return math.NaN()
	}
	return v
}

// quantile interpolates linearly between closest ranks of a sorted sample.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
