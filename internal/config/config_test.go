package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gitswift/gitswift/internal/sync"
	"github.com/gitswift/gitswift/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate_Defaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultDataDir, cfg.DataDir)
	assert.Equal(t, DefaultServerURL, cfg.ServerURL)
	assert.Equal(t, sync.DefaultConcurrency, cfg.Concurrency)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
}

func TestConfig_Validate_Normalizes(t *testing.T) {
	tmp := t.TempDir()
	cfg := &Config{
		DataDir:   filepath.Join(tmp, "a", "..", "data"),
		ServerURL: "https://ghe.example.com/api/v3/",
		Author:    "  Ada Lovelace ",
		Token:     " ghp_x ",
		Path:      filepath.Join(tmp, "config.json"),
	}

	require.NoError(t, cfg.Validate())
	assert.Equal(t, filepath.Join(tmp, "data"), cfg.DataDir)
	assert.Equal(t, "https://ghe.example.com/api/v3", cfg.ServerURL)
	assert.Equal(t, "Ada Lovelace", cfg.Author)
	assert.Equal(t, "ghp_x", cfg.Token)
	assert.True(t, filepath.IsAbs(cfg.Path))

	assert.Equal(t, filepath.Join(tmp, "data", "logs", "gitswift.log"), cfg.LogFilePath())
	assert.Equal(t, filepath.Join(tmp, "data", "tokens.json"), cfg.TokenStorePath())
	assert.Equal(t, filepath.Join(tmp, "data", "history.db"), cfg.HistoryPath())
}

func TestConfig_Validate_Errors(t *testing.T) {
	tmp := t.TempDir()

	t.Run("bad server url", func(t *testing.T) {
		cfg := &Config{DataDir: tmp, ServerURL: "ftp://bad.example.com"}
		err := cfg.Validate()
		assert.ErrorIs(t, err, utils.ErrInvalidURL)
		assert.Contains(t, err.Error(), "server url")
	})

	t.Run("concurrency out of range", func(t *testing.T) {
		for _, n := range []int{-1, sync.MaxConcurrency + 1} {
			cfg := &Config{DataDir: tmp, Concurrency: n}
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConcurrency, n)
		}
	})

	t.Run("negative timeout", func(t *testing.T) {
		cfg := &Config{DataDir: tmp, Timeout: -time.Second}
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidTimeout)
	})
}

func TestConfig_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := &Config{
		DataDir:     "/data",
		ServerURL:   "https://api.github.com",
		Author:      "Ada",
		Concurrency: 4,
		Token:       "ghp_secret",
	}
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "ghp_secret")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data", loaded.DataDir)
	assert.Equal(t, "Ada", loaded.Author)
	assert.Equal(t, 4, loaded.Concurrency)
	assert.Empty(t, loaded.Token)
	assert.Equal(t, path, loaded.Path)
}
