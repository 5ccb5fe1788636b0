package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[llm]
provider = "openai"
model = "gpt-4o-mini"

[store]
backend = "sqlite"
path = "/tmp/tally.db"

[[reconcile.categories]]
name = "wealth"
rule = "only named publications"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, float32(0.1), cfg.LLM.Temperature)
	assert.Equal(t, 4096, cfg.LLM.MaxTokens)
	assert.Equal(t, "main", cfg.Store.RecordID)
	assert.Equal(t, 0.8, cfg.Reconcile.MinConfidence)
	require.Len(t, cfg.Reconcile.Categories, 1)
	assert.Equal(t, "wealth", cfg.Reconcile.Categories[0].Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("RECONCILE_SECRET", "s3cret")
	t.Setenv("REDIS_DB", "3")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "s3cret", cfg.Server.ReconcileSecret)
	assert.Equal(t, 3, cfg.Notify.RedisDB)
}

func TestValidate(t *testing.T) {
	t.Run("missing credentials and store location", func(t *testing.T) {
		cfg := Default()
		err := cfg.Validate()

		var cfgErr *ConfigError
		require.True(t, errors.As(err, &cfgErr))
		assert.ElementsMatch(t, []string{"llm.api_key", "store.uri", "store.user"}, cfgErr.Missing)
		assert.Contains(t, err.Error(), "configuration error")
	})

	t.Run("ollama needs no api key", func(t *testing.T) {
		cfg := Default()
		cfg.LLM.Provider = "ollama"
		cfg.Store.Backend = "memory"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("sqlite needs a path", func(t *testing.T) {
		cfg := Default()
		cfg.LLM.APIKey = "k"
		cfg.Store.Backend = "sqlite"
		err := cfg.Validate()
		var cfgErr *ConfigError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, []string{"store.path"}, cfgErr.Missing)
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := Default()
		cfg.LLM.APIKey = "k"
		cfg.Store.Backend = "postgres"
		assert.Error(t, cfg.Validate())
	})
}

func TestResolve(t *testing.T) {
	t.Run("explicit missing file fails", func(t *testing.T) {
		_, err := Resolve(filepath.Join(t.TempDir(), "nope.toml"))
		assert.Error(t, err)
	})

	t.Run("CONFIG_PATH with env overrides", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("[server]\nport = \"9000\"\n"), 0o600))
		t.Setenv("CONFIG_PATH", path)
		t.Setenv("LLM_PROVIDER", "gemini")

		cfg, err := Resolve("")
		require.NoError(t, err)
		assert.Equal(t, "9000", cfg.Server.Port)
		assert.Equal(t, "gemini", cfg.LLM.Provider)
	})

	t.Run("default path absent falls back", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", "")
		t.Chdir(t.TempDir())

		cfg, err := Resolve("")
		require.NoError(t, err)
		assert.Equal(t, "main", cfg.Store.RecordID)
	})
}
