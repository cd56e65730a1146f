// Package insight asks a text-generation runtime to comment on a table.
package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/tabloom/internal/ai"
	"github.com/KaramelBytes/tabloom/internal/stats"
	"github.com/KaramelBytes/tabloom/internal/table"
	"github.com/KaramelBytes/tabloom/internal/utils"
)

// Fallback is reported in place of insights whenever generation fails.
const Fallback = "AI analysis could not be generated due to an error."

// PreviewRows is the number of leading rows shown to the model.
const PreviewRows = 5

// ErrNoRuntime is returned when no text-generation runtime is configured.
var ErrNoRuntime = errors.New("insight: no text-generation runtime configured")

// Sampling parameters sent with every request.
const (
	Temperature     = 0.15
	TopP            = 0.95
	TopK            = 40
	MaxOutputTokens = 1000
)

// Prompt holds the three rendered sections of an insight prompt.
type Prompt struct {
	Preview string
	Columns string
	Summary string
}

// String lays the sections out in the fixed request template.
func (p Prompt) String() string {
	var b strings.Builder
	b.WriteString("Analyze this CSV data:\n\n")
	b.WriteString("Data Preview:\n")
	b.WriteString(p.Preview)
	b.WriteString("\n\nColumn Information:\n")
	b.WriteString(p.Columns)
	b.WriteString("\n\nStatistical Summary:\n")
	b.WriteString(p.Summary)
	b.WriteString("\n\nPlease provide:\n")
	b.WriteString("1. Key insights and patterns in the data\n")
	b.WriteString("2. Potential correlations between variables\n")
	b.WriteString("3. Anomalies or outliers\n")
	b.WriteString("4. Recommendations for further analysis\n")
	b.WriteString("5. Data quality issues if any\n\n")
	b.WriteString("Format the response in clear sections.\n")
	return b.String()
}

// BuildPrompt renders the preview, column list and numeric summary of t.
func BuildPrompt(t *table.Table) (Prompt, error) {
	if t == nil {
		return Prompt{}, errors.New("insight: nil table")
	}
	summary, err := stats.DescribeNumeric(t)
	if err != nil {
		return Prompt{}, fmt.Errorf("numeric summary: %w", err)
	}
	return Prompt{
		Preview: t.Head(PreviewRows).String(),
		Columns: columnDetails(t),
		Summary: summary.String(),
	}, nil
}

func columnDetails(t *table.Table) string {
	lines := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		lines[i] = fmt.Sprintf("%s: %s", c.Name, c.Kind.DType())
	}
	return strings.Join(lines, "\n")
}

// Generator turns tables into insight text through a Runtime.
type Generator struct {
	runtime ai.Runtime
	model   string
	log     *zap.Logger
}

// NewGenerator binds a runtime and model. A nil logger is silent.
func NewGenerator(rt ai.Runtime, model string, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{runtime: rt, model: model, log: log}
}

// Generate builds the prompt for t and makes exactly one generation call.
// The caller decides what to report on failure.
func (g *Generator) Generate(ctx context.Context, t *table.Table) (string, error) {
	if g == nil || g.runtime == nil {
		return "", ErrNoRuntime
	}
	p, err := BuildPrompt(t)
	if err != nil {
		return "", err
	}
	prompt := p.String()
	if mi, ok := ai.LookupModel(g.model); ok && mi.ContextTokens > MaxOutputTokens {
		budget := mi.ContextTokens - MaxOutputTokens
		if utils.CountTokens(prompt) > budget {
			g.log.Warn("prompt exceeds model context; truncating",
				zap.String("model", g.model),
				zap.Int("prompt_tokens", utils.CountTokens(prompt)),
				zap.Int("budget", budget))
			prompt = utils.TruncateToTokenLimit(prompt, budget)
		}
	}
	g.log.Debug("requesting insights",
		zap.String("model", g.model),
		zap.Any("tokens", utils.TokenBreakdown(map[string]string{
			"preview": p.Preview, "columns": p.Columns, "summary": p.Summary,
		})))

	out, err := g.runtime.Generate(ctx, ai.GenerateRequest{
		Model:       g.model,
		Messages:    []ai.Message{{Role: "user", Content: prompt}},
		MaxTokens:   MaxOutputTokens,
		Temperature: Temperature,
		TopP:        TopP,
		TopK:        TopK,
	})
	if err != nil {
		return "", fmt.Errorf("generate insights: %w", err)
	}
	text, err := ai.Text(out)
	if err != nil {
		return "", fmt.Errorf("extract insights: %w", err)
	}
	return text, nil
}
