package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tabloom/internal/ingest"
	"github.com/KaramelBytes/tabloom/internal/insight"
)

// resetFlags clears values and Changed state that persist across
// invocations of the shared command tree.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		_ = fl.Value.Set(fl.DefValue)
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// isolate points HOME at a temp dir and clears provider env.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"TABLOOM_API_KEY", "TABLOOM_PROVIDER", "TABLOOM_MODEL", "GEMINI_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
	return home
}

// execCmd runs the root command with args and returns stdout.
func execCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfg = nil
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestCLI_AnalyzeJSONToStdout(t *testing.T) {
	home := isolate(t)
	p := writeFile(t, home, "nums.csv", "a,b\n1,10\n2,21\n3,29\n")

	out := runCmd(t, "analyze", p, "--no-ai")
	var rep map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Len(t, rep, 8)
	assert.Equal(t, insight.Fallback, rep["ai_insights"])
	assert.EqualValues(t, 3, rep["row_count"])
}

func TestCLI_AnalyzeMarkdownToFile(t *testing.T) {
	home := isolate(t)
	p := writeFile(t, home, "nums.csv", "a,b\n1,10\n2,21\n3,29\n")
	dest := filepath.Join(home, "report.md")

	out := runCmd(t, "analyze", p, "--no-ai", "--format", "markdown", "-o", dest)
	assert.Contains(t, out, "✓ Wrote analysis to")
	body, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "# Dataset analysis: nums.csv"))
}

func TestCLI_AnalyzeRendersCharts(t *testing.T) {
	home := isolate(t)
	p := writeFile(t, home, "nums.csv", "a,b,label\n1,10,x\n2,21,y\n3,29,z\n")
	charts := filepath.Join(home, "charts")

	runCmd(t, "analyze", p, "--no-ai", "--charts-dir", charts)
	for _, name := range []string{"01-a.png", "02-b.png"} {
		assert.FileExists(t, filepath.Join(charts, name))
	}
}

func TestCLI_AnalyzeSemicolonDelimiter(t *testing.T) {
	home := isolate(t)
	p := writeFile(t, home, "semi.csv", "a;b\n1;2\n3;4\n")

	out := runCmd(t, "analyze", p, "--no-ai", "--delimiter", ";")
	var rep map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.EqualValues(t, 2, rep["column_count"])
}

func TestCLI_AnalyzeFatalErrors(t *testing.T) {
	home := isolate(t)

	_, err := execCmd(t, "analyze", writeFile(t, home, "empty.csv", "a,b\n"), "--no-ai")
	assert.ErrorIs(t, err, ingest.ErrEmptyDataset)

	_, err = execCmd(t, "analyze", writeFile(t, home, "notes.txt", "hi"), "--no-ai")
	assert.ErrorIs(t, err, ingest.ErrUnsupportedFormat)

	_, err = execCmd(t, "analyze", writeFile(t, home, "x.csv", "a\n1\n"), "--format", "pdf")
	assert.Error(t, err)
}

func TestCLI_MissingKeyFallsBack(t *testing.T) {
	home := isolate(t)
	p := writeFile(t, home, "nums.csv", "a\n1\n2\n")

	out := runCmd(t, "analyze", p, "--provider", "openrouter")
	// the warning shares the buffer; the report starts at the first brace
	out = out[strings.Index(out, "{"):]
	var rep map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, insight.Fallback, rep["ai_insights"])
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := isolate(t)
	cfgPath := filepath.Join(home, "cfg.yaml")

	runCmd(t, "--config", cfgPath, "config", "set", "api_key", "sk-1234567890")
	runCmd(t, "--config", cfgPath, "config", "set", "provider", "local")
	runCmd(t, "--config", cfgPath, "config", "set", "batch_concurrency", "2")

	out := runCmd(t, "--config", cfgPath, "config", "show")
	assert.Contains(t, out, "api_key: sk-****890")
	assert.Contains(t, out, "provider: ollama")
	assert.Contains(t, out, "model: llama3:latest (default)")
	assert.Contains(t, out, "batch_concurrency: 2")
	assert.NotContains(t, out, "1234567")

	_, err := execCmd(t, "--config", cfgPath, "config", "set", "provider", "skynet")
	assert.Error(t, err)
	_, err = execCmd(t, "--config", cfgPath, "config", "set", "nope", "1")
	assert.Error(t, err)
}

func TestCLI_ModelsShow(t *testing.T) {
	isolate(t)
	out := runCmd(t, "models", "show", "--provider", "ollama")
	var got struct {
		Defaults map[string]string         `json:"defaults"`
		Models   map[string]map[string]any `json:"models"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, map[string]string{"ollama": "llama3:latest"}, got.Defaults)
	assert.Contains(t, got.Models, "llama3:latest")
	assert.NotContains(t, got.Models, "gemini-pro")
}
