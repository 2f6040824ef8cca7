package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromYAML(t *testing.T) {
	data := []byte(`
api_base_url: https://monitor.example.com/api
page_size: 25
risk_tiers:
  - critical
  - high
fetch_timeout: 15s
`)
	cfg, err := FromYAML(data)
	require.NoError(t, err)

	assert.Equal(t, "https://monitor.example.com/api", cfg.String(KeyAPIBaseURL, ""))
	assert.Equal(t, 25, cfg.Int(KeyPageSize, 0))
	assert.Equal(t, []string{"critical", "high"}, cfg.StringSlice(KeyRiskTiers, nil))
	assert.Equal(t, "15s", cfg.String(KeyFetchTimeout, ""))
}

func TestFromYAMLInvalid(t *testing.T) {
	_, err := FromYAML([]byte("{invalid: [yaml"))
	assert.Error(t, err)
}

func TestFromJSON(t *testing.T) {
	data := []byte(`{"api_base_url": "https://monitor.example.com/api", "page_size": 10}`)
	cfg, err := FromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, "https://monitor.example.com/api", cfg.String(KeyAPIBaseURL, ""))
	assert.Equal(t, 10, cfg.Int(KeyPageSize, 0))
}

func TestFromJSONInvalid(t *testing.T) {
	_, err := FromJSON([]byte("not json"))
	assert.Error(t, err)
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("page_size: 50"), 0o600))

	cfg, err := FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Int(KeyPageSize, 0))

	jsonPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"page_size": 75}`), 0o600))

	cfg, err = FromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 75, cfg.Int(KeyPageSize, 0))
}

func TestFromFileUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o600))

	_, err := FromFile(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported extension")
}

func TestFromFileMissing(t *testing.T) {
	_, err := FromFile("/nonexistent/config.yaml")
	assert.Error(t, err)
}
