package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/keel/internal/errkit"
)

func TestLoad_MissingFileReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.CircuitBreaker.MaxFailures)
	assert.True(t, cfg.Enforce.TypeHints)
}

func TestInit_ThenLoad_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Init(dir)
	require.NoError(t, err)
	require.NoError(t, cfg.Save())

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg.Version, loaded.Version)
	assert.Equal(t, cfg.Languages, loaded.Languages)
}

func TestInit_RefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	_, err := Init(dir)
	require.NoError(t, err)

	_, err = Init(dir)
	require.Error(t, err)
	var ioErr *errkit.IoFailureError
	require.ErrorAs(t, err, &ioErr)
	assert.True(t, ioErr.SetupLevel)
}

func TestSave_PreservesUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(DataDir(dir), ConfigFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	raw := `{
		"version": "1",
		"languages": ["go"],
		"enforce": {"type_hints": true, "docstrings": true, "placement": true, "duplicate_names": true},
		"circuit_breaker": {"max_failures": 3},
		"batch_expiry_minutes": 10,
		"future_field_unknown_today": {"nested": 1}
	}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NoError(t, cfg.Save())

	written, err := os.ReadFile(path)
	require.NoError(t, err)

	var back map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(written, &back))
	assert.Contains(t, back, "future_field_unknown_today")
}

func TestLoad_MalformedJSONFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(DataDir(dir), ConfigFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	cfg, err := Load(dir)
	require.Error(t, err)
	var cfgErr *errkit.ConfigParseFailureError
	require.ErrorAs(t, err, &cfgErr)
	require.NotNil(t, cfg)
	assert.Equal(t, 3, cfg.CircuitBreaker.MaxFailures, "falls back to defaults rather than blocking")
}
