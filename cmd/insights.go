package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/tabloom/internal/ai"
	"github.com/KaramelBytes/tabloom/internal/analyzer"
	cfgpkg "github.com/KaramelBytes/tabloom/internal/config"
	"github.com/KaramelBytes/tabloom/internal/ingest"
	"github.com/KaramelBytes/tabloom/internal/insight"
)

// buildAnalyzer wires the configured text-generation runtime into an
// Analyzer. A runtime that cannot be built is not fatal: the report then
// carries the fallback insight text. The returned func releases the runtime.
func buildAnalyzer(ctx context.Context, c *cfgpkg.Global, noAI bool, opt ingest.Options) (*analyzer.Analyzer, func()) {
	opts := []analyzer.Option{analyzer.WithIngestOptions(opt)}
	closeFn := func() {}
	if noAI {
		logger.Debug("AI insights disabled by flag")
		return analyzer.New(logger, opts...), closeFn
	}

	rt, err := ai.GetRuntime(ctx, c.Provider, ai.RuntimeConfig{
		HTTPTimeout: time.Duration(c.HTTPTimeoutSec) * time.Second,
		APIKey:      c.APIKey,
		Host:        c.OllamaHost,
	})
	if err != nil {
		logger.Warn("AI insights unavailable", zap.String("provider", c.Provider), zap.Error(err))
		fmt.Fprintf(os.Stderr, "⚠ Warning: AI insights unavailable: %v\n", err)
		return analyzer.New(logger, opts...), closeFn
	}
	if cl, ok := rt.(interface{ Close() error }); ok {
		closeFn = func() {
			if err := cl.Close(); err != nil {
				logger.Debug("close runtime", zap.Error(err))
			}
		}
	}

	model := c.Model
	if model == "" {
		model = ai.DefaultModel(c.Provider)
	}
	logger.Debug("insight runtime ready", zap.String("provider", c.Provider), zap.String("model", model))
	opts = append(opts, analyzer.WithInsights(insight.NewGenerator(rt, model, logger)))
	return analyzer.New(logger, opts...), closeFn
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported --delimiter: %s", s)
	}
}
