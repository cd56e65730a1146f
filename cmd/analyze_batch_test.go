package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tabloom/internal/ingest"
)

func TestAnalyzeBatch_SameBasenameDoesNotCollide(t *testing.T) {
	home := isolate(t)

	d1 := filepath.Join(home, "d1")
	d2 := filepath.Join(home, "d2")
	require.NoError(t, os.MkdirAll(d1, 0o755))
	require.NoError(t, os.MkdirAll(d2, 0o755))
	csv := "col1,col2\nA,1\nB,2\nC,3\n"
	writeFile(t, d1, "metrics.csv", csv)
	writeFile(t, d2, "metrics.csv", csv)
	outDir := filepath.Join(home, "reports")

	out := runCmd(t, "analyze-batch", filepath.Join(home, "d*", "metrics.csv"), "--no-ai", "-o", outDir, "--concurrency", "2")
	assert.Contains(t, out, "[1/2] Processing metrics.csv...")
	assert.Contains(t, out, "[2/2] Processing metrics.csv...")

	for _, name := range []string{"metrics.csv.report.json", "metrics.csv.report__2.json"} {
		b, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err, name)
		var rep map[string]any
		require.NoError(t, json.Unmarshal(b, &rep))
		assert.EqualValues(t, 3, rep["row_count"])
	}
}

func TestAnalyzeBatch_StdoutAndFailures(t *testing.T) {
	home := isolate(t)
	good := writeFile(t, home, "good.csv", "x,y\n1,2\n2,4\n")
	bad := writeFile(t, home, "bad.csv", "x,y\n")

	out, err := execCmd(t, "analyze-batch", good, bad, good, "--no-ai", "--quiet")
	require.Error(t, err)
	assert.ErrorIs(t, err, ingest.ErrEmptyDataset)
	assert.Contains(t, err.Error(), "bad.csv")

	var byFile map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &byFile))
	require.Len(t, byFile, 1)
	assert.Contains(t, byFile, good)

	_, err = execCmd(t, "analyze-batch", filepath.Join(home, "*.parquet"))
	assert.Error(t, err)
}

func TestReportNames(t *testing.T) {
	got := reportNames([]string{"a/data.csv", "b/data.csv", "data.xlsx", "README"}, "markdown")
	assert.Equal(t, []string{"data.csv.report.md", "data.csv.report__2.md", "data.xlsx.report.md", "README.report.md"}, got)
	assert.True(t, strings.HasSuffix(reportName("x.xls", "html"), ".html"))
}
