package analyzer

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"

	"github.com/KaramelBytes/tabloom/internal/jsonsafe"
)

// Report is the JSON-safe analysis result.
type Report struct {
	BasicStats     map[string]any `json:"basic_stats"`
	MissingValues  map[string]any `json:"missing_values"`
	ColumnTypes    map[string]any `json:"column_types"`
	RowCount       int            `json:"row_count"`
	ColumnCount    int            `json:"column_count"`
	Correlations   map[string]any `json:"correlations"`
	AIInsights     string         `json:"ai_insights"`
	Visualizations []any          `json:"visualizations"`
}

func (r *Report) deepClean(conv *jsonsafe.Converter) {
	clean := func(m map[string]any) map[string]any {
		out, ok := conv.DeepClean(m).(map[string]any)
		if !ok {
			return map[string]any{}
		}
		return out
	}
	r.BasicStats = clean(r.BasicStats)
	r.MissingValues = clean(r.MissingValues)
	r.ColumnTypes = clean(r.ColumnTypes)
	r.Correlations = clean(r.Correlations)
	if out, ok := conv.DeepClean(r.Visualizations).([]any); ok {
		r.Visualizations = out
	} else {
		r.Visualizations = []any{}
	}
}

// Markdown renders a compact human-readable version of the report.
func (r *Report) Markdown(name string) string {
	var b strings.Builder
	b.WriteString("# Dataset analysis")
	if name != "" {
		fmt.Fprintf(&b, ": %s", safeVal(name))
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Rows: %d  \nColumns: %d\n\n", r.RowCount, r.ColumnCount)

	b.WriteString("## Schema\n\n")
	b.WriteString("| Column | Type | Missing |\n| --- | --- | --- |\n")
	for _, col := range sortedKeys(r.ColumnTypes) {
		fmt.Fprintf(&b, "| %s | %v | %v |\n", safeName(col), r.ColumnTypes[col], valueOr(r.MissingValues[col], "-"))
	}

	if numeric := numericStats(r.BasicStats); len(numeric) > 0 {
		b.WriteString("\n## Numeric summary\n\n")
		b.WriteString("| Column | mean | std | min | median | max |\n| --- | --- | --- | --- | --- | --- |\n")
		for _, col := range numeric {
			s := r.BasicStats[col].(map[string]any)
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n", safeName(col),
				num(s["mean"]), num(s["std"]), num(s["min"]), num(s["50%"]), num(s["max"]))
		}
	}

	if pairs := topPairs(r.Correlations, 10); len(pairs) > 0 {
		b.WriteString("\n## Correlations\n\n")
		for _, p := range pairs {
			fmt.Fprintf(&b, "- %s ~ %s: r=%.3f\n", safeName(p.A), safeName(p.B), p.R)
		}
	}

	b.WriteString("\n## AI insights\n\n")
	b.WriteString(strings.TrimSpace(r.AIInsights))
	b.WriteString("\n")

	if len(r.Visualizations) > 0 {
		b.WriteString("\n## Visualizations\n\n")
		for _, v := range r.Visualizations {
			m, _ := v.(map[string]any)
			data, _ := m["data"].(map[string]any)
			fmt.Fprintf(&b, "- %v: %v\n", valueOr(m["type"], "chart"), valueOr(data["title"], "untitled"))
		}
	}
	return b.String()
}

// HTML renders the Markdown form as an HTML fragment.
func (r *Report) HTML(name string) []byte {
	return markdown.ToHTML([]byte(r.Markdown(name)), nil, nil)
}

type pair struct {
	A, B string
	R    float64
}

// topPairs lists the strongest off-diagonal correlations by |r|.
func topPairs(corr map[string]any, limit int) []pair {
	cols := sortedKeys(corr)
	var out []pair
	for i, a := range cols {
		row, _ := corr[a].(map[string]any)
		for _, b := range cols[i+1:] {
			r, ok := row[b].(float64)
			if !ok || math.IsNaN(r) {
				continue
			}
			out = append(out, pair{A: a, B: b, R: r})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return math.Abs(out[i].R) > math.Abs(out[j].R) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func numericStats(basic map[string]any) []string {
	var cols []string
	for _, col := range sortedKeys(basic) {
		s, ok := basic[col].(map[string]any)
		if !ok {
			continue
		}
		if _, ok := s["mean"].(float64); ok {
			cols = append(cols, col)
		}
	}
	return cols
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func num(v any) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.4g", f)
	}
	return "-"
}

func valueOr(v any, def string) any {
	if v == nil {
		return def
	}
	return v
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return safeVal(s)
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
