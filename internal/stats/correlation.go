package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/tabloom/internal/table"
)

// Correlations computes the pairwise Pearson matrix of the numeric columns.
//
// Each pair uses only the rows where both values are present. A pair with
// fewer than two shared rows, or where either side is constant, is NaN.
// The diagonal is exactly 1 for columns that vary. Fewer than two numeric
// columns yields an empty matrix.
func Correlations(t *table.Table) (map[string]map[string]float64, error) {
	if t == nil {
		return nil, ErrNilTable
	}
	num := t.NumericColumns()
	out := make(map[string]map[string]float64, len(num))
	if len(num) < 2 {
		return out, nil
	}
	vecs := make([][]float64, len(num))
	for i, c := range num {
		vecs[i] = c.Floats()
		out[c.Name] = make(map[string]float64, len(num))
	}
	for i := range num {
		for j := i; j < len(num); j++ {
			r := pearson(vecs[i], vecs[j])
			if i == j && !math.IsNaN(r) {
				r = 1
			}
			out[num[i].Name][num[j].Name] = r
			out[num[j].Name][num[i].Name] = r
		}
	}
	return out, nil
}

func pearson(x, y []float64) float64 {
	xs, ys := pairwiseComplete(x, y)
	if len(xs) < 2 {
		return math.NaN()
	}
	if floats.Min(xs) == floats.Max(xs) || floats.Min(ys) == floats.Max(ys) {
		return math.NaN()
	}
	r := stat.Correlation(xs, ys, nil)
	switch {
	case r > 1:
		r = 1
	case r < -1:
		r = -1
	}
	return r
}

func pairwiseComplete(x, y []float64) ([]float64, []float64) {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if i >= len(y) {
			break
		}
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) || math.IsInf(x[i], 0) || math.IsInf(y[i], 0) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}

// MissingCounts returns the number of missing cells per column.
func MissingCounts(t *table.Table) map[string]int {
	out := make(map[string]int, t.NumColumns())
	for _, c := range t.Columns {
		n := 0
		for _, v := range c.Values {
			if table.IsMissing(v) {
				n++
			}
		}
		out[c.Name] = n
	}
	return out
}

// ColumnTypes returns the dtype label per column.
func ColumnTypes(t *table.Table) map[string]string {
	out := make(map[string]string, t.NumColumns())
	for _, c := range t.Columns {
		out[c.Name] = c.Kind.DType()
	}
	return out
}
