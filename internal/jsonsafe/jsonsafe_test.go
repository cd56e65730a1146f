package jsonsafe

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/mat"

	"github.com/KaramelBytes/tabloom/internal/table"
)

type opaque struct {
	Ch chan int
}

func TestConvertScalars(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"nan", math.NaN(), nil},
		{"inf", math.Inf(-1), nil},
		{"float32 nan", float32(math.NaN()), nil},
		{"nat", time.Time{}, nil},
		{"bool", true, true},
		{"string", "x", "x"},
		{"int", 7, int64(7)},
		{"uint8", uint8(3), int64(3)},
		{"big uint", uint64(math.MaxUint64), uint64(math.MaxUint64)},
		{"float", 2.5, 2.5},
		{"time", ts, "2024-03-01T12:00:00Z"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Convert(tc.in))
		})
	}
}

func TestConvertContainers(t *testing.T) {
	in := map[string]any{
		"floats": []float64{1, math.NaN(), math.Inf(1)},
		"nested": map[string]map[string]float64{"a": {"b": math.NaN(), "c": 0.5}},
		"counts": map[string]int{"a": 2},
		"list":   []any{1, "x", nil},
		"vec":    mat.NewVecDense(2, []float64{1, math.NaN()}),
		"mat":    mat.NewDense(1, 2, []float64{3, 4}),
	}
	got := Convert(in).(map[string]any)

	assert.Equal(t, []any{1.0, nil, nil}, got["floats"])
	assert.Equal(t, map[string]any{"a": map[string]any{"b": nil, "c": 0.5}}, got["nested"])
	assert.Equal(t, map[string]any{"a": int64(2)}, got["counts"])
	assert.Equal(t, []any{int64(1), "x", nil}, got["list"])
	assert.Equal(t, []any{1.0, nil}, got["vec"])
	assert.Equal(t, []any{[]any{3.0, 4.0}}, got["mat"])
	require.NoError(t, Verify(got))
}

func TestConvertTable(t *testing.T) {
	tb, err := table.New("t", []*table.Column{
		{Name: "a", Kind: table.KindFloat, Values: []any{1.0, math.NaN()}},
	})
	require.NoError(t, err)
	got := Convert(tb)
	assert.Equal(t, map[string]any{"a": map[string]any{"0": 1.0, "1": nil}}, got)
}

func TestConvertIsIdempotent(t *testing.T) {
	inputs := []any{
		map[string]any{"x": []float64{1, math.NaN()}, "t": time.Unix(0, 0).UTC()},
		[]any{uint64(math.MaxUint64), "s", 3},
		opaque{},
		json.Number("12"),
	}
	for _, in := range inputs {
		once := Convert(in)
		assert.Equal(t, once, Convert(once))
	}
}

func TestConvertFallsBackToText(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	c := New(zap.New(core))

	got := c.Convert(opaque{Ch: make(chan int)})
	_, isString := got.(string)
	assert.True(t, isString)
	assert.Equal(t, 1, logs.Len())
}

func TestDeepCleanProducesSerializableOutput(t *testing.T) {
	in := map[string]any{
		"ok":  1.5,
		"bad": opaque{Ch: make(chan int)},
		"deep": []any{
			map[string]any{"nan": math.NaN()},
		},
	}
	out := DeepClean(in)
	require.NoError(t, Verify(out))
	b, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"nan":null`)
}

func TestVerifyRejectsNaN(t *testing.T) {
	assert.Error(t, Verify(map[string]any{"x": math.NaN()}))
	assert.NoError(t, Verify(map[string]any{"x": nil}))
}
