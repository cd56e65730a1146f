package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"TABLOOM_API_KEY", "TABLOOM_PROVIDER", "GEMINI_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gemini", c.Provider)
	assert.Equal(t, "uploads", c.UploadFolder)
	assert.EqualValues(t, 16*1024*1024, c.MaxContentLength)
	assert.Equal(t, []string{"csv", "xlsx", "xls"}, c.AllowedExtensions)
	assert.Equal(t, ":5040", c.ServerAddress)
	assert.Equal(t, 4, c.BatchConcurrency)
	assert.Empty(t, c.APIKey)
}

func TestLoadKeyPrecedence(t *testing.T) {
	isolate(t)
	t.Setenv("GEMINI_API_KEY", "vendor-key")
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "vendor-key", c.APIKey)

	t.Setenv("TABLOOM_API_KEY", "own-key")
	c, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "own-key", c.APIKey)
}

func TestSaveAndReload(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	in := &Global{
		APIKey:            "k",
		Provider:          "ollama",
		Model:             "llama3:latest",
		HTTPTimeoutSec:    30,
		UploadFolder:      "up",
		MaxContentLength:  1024,
		AllowedExtensions: []string{"csv"},
		ServerAddress:     ":9000",
		BatchConcurrency:  2,
	}
	require.NoError(t, Save(in, path))

	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ollama", out.Provider)
	assert.Equal(t, "llama3:latest", out.Model)
	assert.EqualValues(t, 1024, out.MaxContentLength)
	assert.Equal(t, []string{"csv"}, out.AllowedExtensions)
	assert.Equal(t, 2, out.BatchConcurrency)
}

func TestLoadMissingAndMalformedFiles(t *testing.T) {
	isolate(t)
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "gemini", c.Provider)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("provider: [unclosed\n"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestLoadClampsConcurrency(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("batch_concurrency: 0\n"), 0o644))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.BatchConcurrency)
}

func TestAllowed(t *testing.T) {
	g := &Global{AllowedExtensions: []string{"csv", "XLSX"}}
	assert.True(t, g.Allowed(".CSV"))
	assert.True(t, g.Allowed("xlsx"))
	assert.False(t, g.Allowed("xls"))
	assert.False(t, g.Allowed(""))
}
