package viz

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoSeries is returned when a chart has nothing to draw.
var ErrNoSeries = errors.New("chart has no values")

// FromEntry decodes one {"type": ..., "data": ...} visualization entry.
func FromEntry(entry any) (ChartConfig, error) {
	m, ok := entry.(map[string]any)
	if !ok {
		return ChartConfig{}, fmt.Errorf("visualization entry is %T, want object", entry)
	}
	raw, err := json.Marshal(m["data"])
	if err != nil {
		return ChartConfig{}, fmt.Errorf("encode chart: %w", err)
	}
	var c ChartConfig
	if err := json.Unmarshal(raw, &c); err != nil {
		return ChartConfig{}, fmt.Errorf("decode chart: %w", err)
	}
	return c, nil
}

// SavePNG draws the first series as a histogram with one bar per bin.
func (c ChartConfig) SavePNG(path string) error {
	if len(c.Series) == 0 || len(c.Series[0].Values) == 0 {
		return ErrNoSeries
	}
	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = c.XAxis
	p.Y.Label.Text = c.YAxis

	n := len(c.Bins)
	if n == 0 {
		n = 1
	}
	h, err := plotter.NewHist(plotter.Values(c.Series[0].Values), n)
	if err != nil {
		return fmt.Errorf("histogram %q: %w", c.Title, err)
	}
	p.Add(h)
	if c.ShowGrid {
		p.Add(plotter.NewGrid())
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9]+`)

// FileName derives a filesystem-safe PNG name from a column name.
func FileName(column string, index int) string {
	s := strings.Trim(unsafeChars.ReplaceAllString(strings.ToLower(column), "-"), "-")
	if s == "" {
		s = "column"
	}
	return filepath.Clean(fmt.Sprintf("%02d-%s.png", index+1, s))
}
