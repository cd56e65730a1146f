// Package jsonsafe converts arbitrary analysis values into JSON-ready ones.
//
// Conversion walks a closed table of categories, first match wins:
//
//	missing markers (nil, NaN, NaT)     -> null
//	bool, string, json.Number           -> unchanged
//	signed/unsigned integers            -> int64 (uint64 when it does not fit)
//	floats                              -> float64, non-finite -> null
//	time.Time                           -> RFC 3339 text
//	numeric slices, gonum vectors/mats  -> []any of converted elements
//	string-keyed maps                   -> map[string]any of converted values
//	[]any, []string, []map[string]any   -> []any of converted elements
//	*table.Table                        -> {column: {"row": value}}
//	anything json.Marshal accepts       -> unchanged
//	everything else                     -> its fmt.Sprint text
package jsonsafe

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/KaramelBytes/tabloom/internal/table"
)

// Converter applies the conversion table, logging last-resort fallbacks.
type Converter struct {
	log *zap.Logger
}

// New returns a converter that reports fallbacks to log. A nil logger is silent.
func New(log *zap.Logger) *Converter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Converter{log: log}
}

var defaultConverter = New(nil)

// Convert applies the default converter.
func Convert(v any) any { return defaultConverter.Convert(v) }

// DeepClean applies the default converter's defensive pass.
func DeepClean(v any) any { return defaultConverter.DeepClean(v) }

// Verify reports whether v serializes as strict JSON.
func Verify(v any) error {
	if _, err := json.Marshal(v); err != nil {
		return fmt.Errorf("jsonsafe: %w", err)
	}
	return nil
}

// Convert maps v to a value built only from null, bool, numbers, strings,
// []any and map[string]any. Applying it twice gives the same result.
func (c *Converter) Convert(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case bool, string, json.Number:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint:
		return fromUint(uint64(x))
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return fromUint(x)
	case float32:
		return finite(float64(x))
	case float64:
		return finite(x)
	case time.Time:
		if x.IsZero() {
			return nil
		}
		return x.Format(time.RFC3339Nano)
	case *time.Time:
		if x == nil {
			return nil
		}
		return c.Convert(*x)
	case []float64:
		return convertSlice(len(x), func(i int) any { return finite(x[i]) })
	case []float32:
		return convertSlice(len(x), func(i int) any { return finite(float64(x[i])) })
	case []int:
		return convertSlice(len(x), func(i int) any { return int64(x[i]) })
	case []int64:
		return convertSlice(len(x), func(i int) any { return x[i] })
	case mat.Vector:
		return convertSlice(x.Len(), func(i int) any { return finite(x.AtVec(i)) })
	case mat.Matrix:
		r, cols := x.Dims()
		return convertSlice(r, func(i int) any {
			return convertSlice(cols, func(j int) any { return finite(x.At(i, j)) })
		})
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = c.Convert(e)
		}
		return out
	case map[string]map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = c.Convert(e)
		}
		return out
	case map[string]map[string]float64:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = c.Convert(e)
		}
		return out
	case map[string]float64:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = finite(e)
		}
		return out
	case map[string]int:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = int64(e)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = e
		}
		return out
	case []any:
		return convertSlice(len(x), func(i int) any { return c.Convert(x[i]) })
	case []string:
		return convertSlice(len(x), func(i int) any { return x[i] })
	case []map[string]any:
		return convertSlice(len(x), func(i int) any { return c.Convert(x[i]) })
	case *table.Table:
		if x == nil {
			return nil
		}
		return c.convertTable(x)
	}
	if _, err := json.Marshal(v); err == nil {
		return v
	}
	s := fmt.Sprint(v)
	c.log.Warn("value converted to text",
		zap.String("type", reflect.TypeOf(v).String()),
		zap.String("text", s))
	return s
}

// DeepClean is the defensive pass over an already assembled result. It
// converts v and then replaces any leaf that still fails to serialize
// with its text.
func (c *Converter) DeepClean(v any) any {
	return c.scrub(c.Convert(v))
}

func (c *Converter) scrub(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			x[k] = c.scrub(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = c.scrub(e)
		}
		return x
	}
	if err := Verify(v); err != nil {
		s := fmt.Sprint(v)
		c.log.Warn("unserializable leaf replaced", zap.Error(err), zap.String("text", s))
		return s
	}
	return v
}

func (c *Converter) convertTable(t *table.Table) map[string]any {
	out := make(map[string]any, t.NumColumns())
	for _, col := range t.Columns {
		rows := make(map[string]any, len(col.Values))
		for i, v := range col.Values {
			rows[strconv.Itoa(i)] = c.Convert(v)
		}
		out[col.Name] = rows
	}
	return out
}

func convertSlice(n int, at func(int) any) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = at(i)
	}
	return out
}

func finite(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func fromUint(u uint64) any {
	if u > math.MaxInt64 {
		return u
	}
	return int64(u)
}
