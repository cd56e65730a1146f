package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// naTokens are the cell spellings read as missing values.
var naTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-NaN": {}, "-nan": {},
	"null": {}, "NULL": {}, "None": {}, "#N/A": {}, "<NA>": {}, "NaT": {},
}

// IsNAToken reports whether a raw cell is read as missing.
func IsNAToken(s string) bool {
	_, ok := naTokens[strings.TrimSpace(s)]
	return ok
}

// Month-first precedes day-first.
var timeLayouts = []string{
	time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", "2006/01/02", "01/02/2006", "02/01/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	"01-02-06", "1/2/06", "1/2/06 15:04",
}

func parseBool(s string) (bool, bool) {
	switch {
	case strings.EqualFold(s, "true"):
		return true, true
	case strings.EqualFold(s, "false"):
		return false, true
	}
	return false, false
}

// InferColumn types a column of raw text cells.
//
// Candidates are tried in order: int, float, bool, datetime, object.
// An int column with any missing cell is widened to float so the gap
// can be held as NaN. Bool columns never contain gaps; a bool column
// with a gap falls through to object.
func InferColumn(name string, cells []string) *Column {
	trimmed := make([]string, len(cells))
	missing := 0
	for i, c := range cells {
		trimmed[i] = strings.TrimSpace(c)
		if IsNAToken(trimmed[i]) {
			missing++
		}
	}
	present := len(cells) - missing

	if present > 0 {
		if ints, ok := inferInts(trimmed); ok {
			if missing == 0 {
				return &Column{Name: name, Kind: KindInt, Values: ints}
			}
			return &Column{Name: name, Kind: KindFloat, Values: widen(ints)}
		}
		if floats, ok := inferFloats(trimmed); ok {
			return &Column{Name: name, Kind: KindFloat, Values: floats}
		}
		if missing == 0 {
			if bools, ok := inferBools(trimmed); ok {
				return &Column{Name: name, Kind: KindBool, Values: bools}
			}
		}
		if times, ok := inferTimes(trimmed); ok {
			return &Column{Name: name, Kind: KindDatetime, Values: times}
		}
	} else if len(cells) > 0 {
		// All missing reads as a float column of NaN.
		vals := make([]any, len(cells))
		for i := range vals {
			vals[i] = math.NaN()
		}
		return &Column{Name: name, Kind: KindFloat, Values: vals}
	}

	vals := make([]any, len(cells))
	for i, s := range cells {
		if IsNAToken(s) {
			continue
		}
		vals[i] = s
	}
	return &Column{Name: name, Kind: KindObject, Values: vals}
}

func inferInts(cells []string) ([]any, bool) {
	out := make([]any, len(cells))
	for i, s := range cells {
		if IsNAToken(s) {
			continue
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}

func widen(ints []any) []any {
	out := make([]any, len(ints))
	for i, v := range ints {
		if n, ok := v.(int64); ok {
			out[i] = float64(n)
			continue
		}
		out[i] = math.NaN()
	}
	return out
}

func inferFloats(cells []string) ([]any, bool) {
	out := make([]any, len(cells))
	for i, s := range cells {
		if IsNAToken(s) {
			out[i] = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

func inferBools(cells []string) ([]any, bool) {
	out := make([]any, len(cells))
	for i, s := range cells {
		b, ok := parseBool(s)
		if !ok {
			return nil, false
		}
		out[i] = b
	}
	return out, true
}

// inferTimes parses the whole column with the first layout that accepts
// every present cell, so one column never mixes day/month orders.
func inferTimes(cells []string) ([]any, bool) {
	for _, l := range timeLayouts {
		if out, ok := parseTimesWith(l, cells); ok {
			return out, true
		}
	}
	return nil, false
}

func parseTimesWith(layout string, cells []string) ([]any, bool) {
	out := make([]any, len(cells))
	for i, s := range cells {
		if IsNAToken(s) {
			out[i] = time.Time{}
			continue
		}
		t, err := time.Parse(layout, s)
		if err != nil {
			return nil, false
		}
		out[i] = t
	}
	return out, true
}
