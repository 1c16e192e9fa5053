package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HARVEST_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg := Load()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Scraper.PageLoadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Scraper.ScriptTimeout)
	assert.Equal(t, 2, cfg.Scraper.Scrolls)
	assert.Equal(t, "browser", cfg.Scraper.FetchMode)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.DefaultModel)
	assert.Equal(t, []string{"Image", "Stylesheet", "Font", "Media"}, cfg.Scraper.BlockedResourceTypes)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HARVEST_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("HARVEST_PORT", "9090")
	t.Setenv("HARVEST_SCROLLS", "5")
	t.Setenv("HARVEST_API_KEYS", "a, b ,,c")
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("HARVEST_OPENAI_BASE_URL", "http://localhost:1234/v1")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Scraper.Scrolls)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Auth.APIKeys)
	assert.Equal(t, "gsk-test", cfg.Credentials["GROQ_API_KEY"])
	assert.Equal(t, "http://localhost:1234/v1", cfg.LLM.BaseURLs["openai"])
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("HARVEST_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("HARVEST_PORT", "not-a-number")
	t.Setenv("HARVEST_PAGE_LOAD_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Scraper.PageLoadTimeout)
}

func TestLoad_DotEnvDoesNotOverrideEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("GEMINI_API_KEY=from-file\nHARVEST_DOTENV_CHECK=file\n"), 0o600))

	t.Setenv("HARVEST_ENV_FILE", path)
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Cleanup(func() { os.Unsetenv("HARVEST_DOTENV_CHECK") })

	cfg := Load()

	assert.Equal(t, "from-env", cfg.Credentials["GEMINI_API_KEY"])
	assert.Equal(t, "file", os.Getenv("HARVEST_DOTENV_CHECK"))
}
