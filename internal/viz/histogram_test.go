package viz

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tabloom/internal/table"
)

func TestHistogramsOnePerNumericColumn(t *testing.T) {
	tb, err := table.New("t", []*table.Column{
		table.InferColumn("a", []string{"1", "2", "3", "4"}),
		table.InferColumn("label", []string{"w", "x", "y", "z"}),
		table.InferColumn("b", []string{"1.5", "", "2.5", "9"}),
	})
	require.NoError(t, err)

	got, err := Histograms(table.Clean(tb))
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, "histogram", first["type"])
	data := first["data"].(map[string]any)
	assert.Equal(t, "Distribution of a", data["title"])
	assert.Equal(t, "a", data["xAxis"])
	assert.Equal(t, "histogram", data["chartType"])

	second := got[1]["data"].(map[string]any)
	assert.Equal(t, "Distribution of b", second["title"])
	series := second["series"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{1.5, 2.5, 9.0}, series["values"])

	_, err = json.Marshal(got)
	require.NoError(t, err)
}

func TestHistogramsEmptyWithoutNumericColumns(t *testing.T) {
	tb, err := table.New("t", []*table.Column{table.InferColumn("s", []string{"x"})})
	require.NoError(t, err)
	got, err := Histograms(tb)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestBinsCoverEveryValue(t *testing.T) {
	values := []float64{5, 1, 3, 3, 9, 7, 2}
	b := bins(values)
	require.NotEmpty(t, b)
	total := 0.0
	for _, x := range b {
		total += x.Count
		assert.Less(t, x.Lower, x.Upper)
	}
	assert.Equal(t, float64(len(values)), total)
	assert.Equal(t, 1.0, b[0].Lower)

	constant := bins([]float64{4, 4, 4})
	require.Len(t, constant, 1)
	assert.Equal(t, 3.0, constant[0].Count)

	assert.Empty(t, bins(nil))
}

func TestBinsSurviveOverflowingRange(t *testing.T) {
	for _, values := range [][]float64{
		{-1e308, 0, 1e308},
		{-math.MaxFloat64, math.MaxFloat64},
		{1, math.MaxFloat64},
	} {
		var b []Bin
		require.NotPanics(t, func() { b = bins(values) })
		require.NotEmpty(t, b)
		total := 0.0
		for i, x := range b {
			total += x.Count
			assert.False(t, math.IsInf(x.Lower, 0) || math.IsNaN(x.Lower))
			assert.False(t, math.IsInf(x.Upper, 0) || math.IsNaN(x.Upper))
			if i > 0 {
				assert.LessOrEqual(t, b[i-1].Upper, x.Lower)
			}
		}
		assert.Equal(t, float64(len(values)), total, "%v", values)
	}
}

func TestHistogramsKeepValidColumnsBesideExtremeOnes(t *testing.T) {
	tb, err := table.New("t", []*table.Column{
		{Name: "ok", Kind: table.KindFloat, Values: []any{1.0, 2.0, 3.0}},
		{Name: "big", Kind: table.KindFloat, Values: []any{-1e308, 0.0, 1e308}},
	})
	require.NoError(t, err)

	got, err := Histograms(tb)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ok", got[0]["data"].(map[string]any)["xAxis"])
	assert.Equal(t, "big", got[1]["data"].(map[string]any)["xAxis"])
	_, err = json.Marshal(got)
	require.NoError(t, err)
}

func TestRenderEntriesToPNG(t *testing.T) {
	tb, err := table.New("t", []*table.Column{
		table.InferColumn("Price ($)", []string{"1", "2", "2", "3", "8"}),
	})
	require.NoError(t, err)
	entries, err := Histograms(tb)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	c, err := FromEntry(map[string]any(entries[0]))
	require.NoError(t, err)
	assert.Equal(t, "Distribution of Price ($)", c.Title)
	assert.Len(t, c.Series[0].Values, 5)

	name := FileName("Price ($)", 0)
	assert.Equal(t, "01-price.png", name)
	dest := filepath.Join(t.TempDir(), name)
	require.NoError(t, c.SavePNG(dest))
	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.ErrorIs(t, ChartConfig{}.SavePNG(dest), ErrNoSeries)
	_, err = FromEntry("nope")
	assert.Error(t, err)
}
