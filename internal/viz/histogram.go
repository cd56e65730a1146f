// Package viz builds chart specifications for the numeric columns of a table.
package viz

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"go.uber.org/multierr"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/tabloom/internal/table"
)

// KindHistogram tags histogram entries in the visualization list.
const KindHistogram = "histogram"

// maxBins caps the automatic bin count.
const maxBins = 50

// ChartConfig is a renderer-neutral chart specification.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Bins       []Bin         `json:"bins"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
}

// ChartSeries carries the raw values plotted on one axis.
type ChartSeries struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Bin is one half-open histogram bucket [Lower, Upper).
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count float64 `json:"count"`
}

// Histogram builds the chart for one numeric column.
func Histogram(c *table.Column) ChartConfig {
	values := c.Present()
	return ChartConfig{
		ChartType: KindHistogram,
		Title:     fmt.Sprintf("Distribution of %s", c.Name),
		XAxis:     c.Name,
		YAxis:     "count",
		Series:    []ChartSeries{{Name: c.Name, Values: values}},
		Bins:      bins(values),
		ShowGrid:  true,
	}
}

// Histograms returns one {"type": "histogram", "data": chart} entry per
// numeric column in column order. Each chart is passed through its JSON
// encoding so callers receive plain maps. A column whose chart cannot be
// built is skipped and its failure is joined into the returned error; the
// entries for the other columns are still returned.
func Histograms(t *table.Table) ([]map[string]any, error) {
	out := []map[string]any{}
	var errs error
	for _, c := range t.NumericColumns() {
		entry, err := histogramEntry(c)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		out = append(out, entry)
	}
	return out, errs
}

func histogramEntry(c *table.Column) (entry map[string]any, err error) {
	defer func() {
		if p := recover(); p != nil {
			entry, err = nil, fmt.Errorf("histogram %q: %v", c.Name, p)
		}
	}()
	raw, err := json.Marshal(Histogram(c))
	if err != nil {
		return nil, fmt.Errorf("encode histogram %q: %w", c.Name, err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode histogram %q: %w", c.Name, err)
	}
	return map[string]any{"type": KindHistogram, "data": data}, nil
}

// bins uses Sturges' rule for the bucket count. A constant column gets a
// single bucket.
func bins(values []float64) []Bin {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsInf(v, 0) && !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return []Bin{}
	}
	sort.Float64s(finite)
	lo, hi := finite[0], finite[len(finite)-1]

	n := int(math.Ceil(math.Log2(float64(len(finite))))) + 1
	if n > maxBins {
		n = maxBins
	}
	// The top edge is exclusive, so nudge it past the maximum.
	top := math.Nextafter(hi, math.Inf(1))
	var dividers []float64
	switch {
	case lo == hi:
		dividers = []float64{lo, top}
	case math.IsInf(hi-lo, 0):
		// The range exceeds float64; interpolate so no edge overflows.
		dividers = make([]float64, n+1)
		for i := 0; i < n; i++ {
			f := float64(i) / float64(n)
			dividers[i] = lo*(1-f) + hi*f
		}
		dividers[n] = top
	default:
		dividers = floats.Span(make([]float64, n+1), lo, hi)
		dividers[n] = top
	}
	counts := stat.Histogram(nil, dividers, finite, nil)

	out := make([]Bin, len(counts))
	for i, cnt := range counts {
		out[i] = Bin{Lower: dividers[i], Upper: finiteEdge(dividers[i+1]), Count: cnt}
	}
	return out
}

// finiteEdge keeps the top edge encodable when the maximum is MaxFloat64.
func finiteEdge(v float64) float64 {
	if math.IsInf(v, 1) {
		return math.MaxFloat64
	}
	return v
}
