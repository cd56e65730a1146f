// Package analyzer runs the full tabular-analysis pipeline and assembles
// the report.
package analyzer

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/tabloom/internal/ingest"
	"github.com/KaramelBytes/tabloom/internal/insight"
	"github.com/KaramelBytes/tabloom/internal/jsonsafe"
	"github.com/KaramelBytes/tabloom/internal/stats"
	"github.com/KaramelBytes/tabloom/internal/table"
	"github.com/KaramelBytes/tabloom/internal/viz"
)

// InsightSource produces narrative insights for a cleaned table.
type InsightSource interface {
	Generate(ctx context.Context, t *table.Table) (string, error)
}

// Analyzer holds the immutable collaborators of the pipeline and is safe
// for concurrent use.
type Analyzer struct {
	insights InsightSource
	conv     *jsonsafe.Converter
	log      *zap.Logger
	opts     ingest.Options
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithInsights sets the insight source. Without one, reports carry the
// fallback insight text.
func WithInsights(src InsightSource) Option {
	return func(a *Analyzer) { a.insights = src }
}

// WithIngestOptions sets the options used to read files.
func WithIngestOptions(o ingest.Options) Option {
	return func(a *Analyzer) { a.opts = o }
}

// New builds an Analyzer. A nil logger is silent.
func New(log *zap.Logger, opts ...Option) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Analyzer{log: log, conv: jsonsafe.New(log)}
	for _, o := range opts {
		o(a)
	}
	return a
}

// AnalyzeFile loads path and analyzes it. Ingestion failures are returned
// unchanged; every later stage degrades in place instead of failing.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*Report, error) {
	start := time.Now()
	raw, err := ingest.LoadWithOptions(path, a.opts)
	if err != nil {
		a.log.Error("load failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	a.log.Info("file loaded",
		zap.String("path", path),
		zap.Int("rows", raw.Rows()),
		zap.Int("columns", raw.NumColumns()))
	rep := a.Analyze(ctx, raw)
	a.log.Info("analysis complete", zap.String("path", path), zap.Duration("elapsed", time.Since(start)))
	return rep, nil
}

// Analyze runs cleaning, statistics, insights and visualizations on raw.
func (a *Analyzer) Analyze(ctx context.Context, raw *table.Table) *Report {
	t := table.Clean(raw)
	rep := &Report{
		BasicStats:     map[string]any{},
		MissingValues:  map[string]any{},
		ColumnTypes:    map[string]any{},
		RowCount:       t.Rows(),
		ColumnCount:    t.NumColumns(),
		Correlations:   map[string]any{},
		AIInsights:     insight.Fallback,
		Visualizations: []any{},
	}

	if v, err := section(a.log, "basic_stats", func() (map[string]any, error) {
		s, err := stats.Describe(t)
		if err != nil {
			return nil, err
		}
		return a.asMap(s.Map())
	}); err == nil {
		rep.BasicStats = v
	}

	if v, err := section(a.log, "missing_values", func() (map[string]any, error) {
		return a.asMap(stats.MissingCounts(t))
	}); err == nil {
		rep.MissingValues = v
	}

	if v, err := section(a.log, "column_types", func() (map[string]any, error) {
		return a.asMap(stats.ColumnTypes(t))
	}); err == nil {
		rep.ColumnTypes = v
	}

	if v, err := section(a.log, "correlations", func() (map[string]any, error) {
		corr, err := stats.Correlations(t)
		if err != nil {
			return nil, err
		}
		return a.asMap(corr)
	}); err == nil {
		rep.Correlations = v
	}

	if v, err := section(a.log, "ai_insights", func() (string, error) {
		if a.insights == nil {
			return "", insight.ErrNoRuntime
		}
		return a.insights.Generate(ctx, t)
	}); err == nil {
		rep.AIInsights = v
	}

	if v, err := section(a.log, "visualizations", func() ([]any, error) {
		charts, err := viz.Histograms(t)
		if err != nil {
			a.log.Warn("skipped histograms", zap.Error(err), zap.Int("rendered", len(charts)))
		}
		out := make([]any, len(charts))
		for i, c := range charts {
			out[i] = a.conv.Convert(c)
		}
		return out, nil
	}); err == nil {
		rep.Visualizations = v
	}

	if err := jsonsafe.Verify(rep); err != nil {
		a.log.Error("report is not serializable; running deep clean", zap.Error(err))
		rep.deepClean(a.conv)
	}
	return rep
}

func (a *Analyzer) asMap(v any) (map[string]any, error) {
	m, ok := a.conv.Convert(v).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("converted %T is not a mapping", v)
	}
	return m, nil
}

// section runs one report stage, turning panics into errors. Failures are
// logged with a stack trace and the caller keeps its default.
func section[T any](log *zap.Logger, name string, fn func() (T, error)) (out T, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%s: panic: %v", name, p)
			log.Error("section panicked",
				zap.String("section", name),
				zap.Error(err),
				zap.ByteString("panic_stack", debug.Stack()))
		}
	}()
	out, err = fn()
	if err != nil {
		log.Error("section failed; using default",
			zap.String("section", name),
			zap.Error(err),
			zap.Stack("stack"))
	}
	return out, err
}
