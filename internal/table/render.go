package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
)

// FormatCell renders a single cell the way the text grid shows it.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case float64:
		switch {
		case math.IsNaN(x):
			return "NaN"
		case math.IsInf(x, 1):
			return "inf"
		case math.IsInf(x, -1):
			return "-inf"
		}
		return strconv.FormatFloat(x, 'g', 6, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		if x {
			return "True"
		}
		return "False"
	case time.Time:
		if x.IsZero() {
			return NaT
		}
		return x.Format(dateTimeLayout)
	case string:
		return strings.ReplaceAll(x, "\n", " ")
	}
	return fmt.Sprint(v)
}

// String renders the table as a right-aligned text grid with a row index.
func (t *Table) String() string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(w, "\t")
	for _, c := range t.Columns {
		fmt.Fprintf(w, "%s\t", c.Name)
	}
	fmt.Fprintln(w)
	for r := 0; r < t.rows; r++ {
		fmt.Fprintf(w, "%d\t", r)
		for _, c := range t.Columns {
			fmt.Fprintf(w, "%s\t", FormatCell(c.Values[r]))
		}
		fmt.Fprintln(w)
	}
	_ = w.Flush()
	return strings.TrimRight(b.String(), "\n")
}

// Describe lists "name  dtype" for each column, one per line.
func (t *Table) Describe() string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 4, ' ', 0)
	for _, c := range t.Columns {
		fmt.Fprintf(w, "%s\t%s\n", c.Name, c.Kind.DType())
	}
	_ = w.Flush()
	return strings.TrimRight(b.String(), "\n")
}
