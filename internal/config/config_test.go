package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Contains(t, cfg.Text.Stopwords, "the")
	require.NotNil(t, cfg.Extract.Precision)
	assert.Equal(t, 2, *cfg.Extract.Precision)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Extract.Budget, cfg.Extract.Budget)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mailtrace.yaml")
	yaml := `
graph:
  window: 2-days
  distance: hellinger
extract:
  budget: 2.5
  workers: 8
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("MAILTRACE_EXTRACT_WORKERS", "2")
	t.Setenv("MAILTRACE_EXTRACT_PRECISION", "3")
	t.Setenv("MAILTRACE_TEXT_STOPWORDS", "foo,bar")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "2-days", cfg.Graph.Window)
	assert.Equal(t, "hellinger", cfg.Graph.Distance)
	assert.Equal(t, 2.5, cfg.Extract.Budget)
	assert.Equal(t, 2, cfg.Extract.Workers, "env overrides file")
	assert.Equal(t, 3, *cfg.Extract.Precision)
	assert.Equal(t, []string{"foo", "bar"}, cfg.Text.Stopwords)
	assert.Equal(t, "d_", cfg.Graph.DummyPrefix, "unset keys keep defaults")
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("extract:\n  budget: -1\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Budget")
}

func TestLoad_BadDistance(t *testing.T) {
	t.Setenv("MAILTRACE_GRAPH_DISTANCE", "manhattan")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Distance")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate_TokenBounds(t *testing.T) {
	cfg := Default()
	cfg.Text.MaxTokenLen = cfg.Text.MinTokenLen
	assert.Error(t, cfg.Validate())
}
