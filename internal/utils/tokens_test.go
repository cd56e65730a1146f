package utils_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tabloom/internal/utils"
)

func TestCountTokens(t *testing.T) {
	assert.Equal(t, 0, utils.CountTokens(""))
	assert.Equal(t, 1, utils.CountTokens("hi"))
	assert.GreaterOrEqual(t, utils.CountTokens(strings.Repeat("a", 4000)), 900)
}

func TestTruncateToTokenLimit(t *testing.T) {
	text := strings.Repeat("abcd ", 1000)
	trunc := utils.TruncateToTokenLimit(text, 300)
	assert.LessOrEqual(t, utils.CountTokens(trunc), 300)
	assert.NotEmpty(t, trunc)
	assert.Equal(t, "short", utils.TruncateToTokenLimit("short", 300))
}

func TestTokenBreakdown(t *testing.T) {
	got := utils.TokenBreakdown(map[string]string{"a": "abcdabcd", "b": ""})
	assert.Equal(t, map[string]int{"a": 2, "b": 0}, got)
}

func TestSafeWriteAndRemove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	require.NoError(t, utils.EnsureDir(dir))
	p := filepath.Join(dir, "report.json")

	b, err := utils.PrettyJSON(map[string]int{"rows": 3})
	require.NoError(t, err)
	require.NoError(t, utils.SafeWriteFile(p, b))

	got, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rows":3}`, string(got))

	require.NoError(t, utils.RemoveIfExists(p))
	require.NoError(t, utils.RemoveIfExists(p))
	_, err = os.Stat(p)
	assert.True(t, os.IsNotExist(err))
}
