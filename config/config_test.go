package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "./data/db", cfg.DataDir)
	assert.Equal(t, "ita", cfg.OCRLanguage)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 4000, cfg.AI.MaxPromptChars)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"data_dir: /var/lib/archivist\nai:\n  llm_model: llama3\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/archivist", cfg.DataDir)
	assert.Equal(t, "llama3", cfg.AI.LLMModel)
	// untouched fields keep their defaults
	assert.Equal(t, "./data/files", cfg.FilesDir)
	assert.Equal(t, "embeddinggemma", cfg.AI.EmbeddingModel)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvTokenOverride(t *testing.T) {
	t.Setenv("ARCHIVIST_API_TOKEN", "secret-token")

	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "secret-token", cfg.AI.APIToken)
}
