package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/petasbytes/toolgraph/internal/config"
)

// chdirTemp isolates Load from any .env or agent.yaml in the package directory.
func chdirTemp(t *testing.T) string {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
	require.Equal(t, 10, cfg.MaxCycles)
	require.Equal(t, 1, cfg.ToolConcurrency)
}

func TestLoad_YAMLThenEnvOverride(t *testing.T) {
	dir := chdirTemp(t)
	yml := `
provider: gemini
model: gemini-2.0-flash
max_cycles: 4
tool_timeout: 5s
sheets:
  spreadsheet_id: sheet-from-file
wikipedia:
  max_chars: 300
`
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	t.Setenv("AGT_CONFIG", path)
	t.Setenv("AGT_MAX_CYCLES", "7")
	t.Setenv("AGT_SHEETS_ID", "sheet-from-env")
	t.Setenv("AGT_TOKEN_BUDGET", "6000")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "gemini", cfg.Provider)
	require.Equal(t, "gemini-2.0-flash", cfg.Model)
	require.Equal(t, 7, cfg.MaxCycles)
	require.Equal(t, 5*time.Second, cfg.ToolTimeout)
	require.Equal(t, "sheet-from-env", cfg.Sheets.SpreadsheetID)
	require.Equal(t, 300, cfg.Wikipedia.MaxChars)
	require.Equal(t, 6000, cfg.TokenBudget)
	// untouched nested defaults survive the partial YAML
	require.Equal(t, "Sheet1!A:B", cfg.Sheets.Range)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("AGT_TOOL_CONCURRENCY=3\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("AGT_TOOL_CONCURRENCY") })

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 3, cfg.ToolConcurrency)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	chdirTemp(t)
	t.Setenv("AGT_CONFIG", "nope.yaml")
	_, err := config.Load()
	require.Error(t, err)
}

func TestLoad_InvalidEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("AGT_MAX_CYCLES", "many")
	t.Setenv("AGT_TOOL_TIMEOUT", "soon")
	_, err := config.Load()
	require.ErrorContains(t, err, "invalid AGT_MAX_CYCLES")
	require.ErrorContains(t, err, "invalid AGT_TOOL_TIMEOUT")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		ok     bool
	}{
		{"defaults", func(*config.Config) {}, true},
		{"openai", func(c *config.Config) { c.Provider = "openai" }, true},
		{"unlimited cycles", func(c *config.Config) { c.MaxCycles = 0 }, true},
		{"unknown provider", func(c *config.Config) { c.Provider = "llama" }, false},
		{"negative cycles", func(c *config.Config) { c.MaxCycles = -1 }, false},
		{"zero concurrency", func(c *config.Config) { c.ToolConcurrency = 0 }, false},
		{"zero max tokens", func(c *config.Config) { c.MaxTokens = 0 }, false},
		{"token budget", func(c *config.Config) { c.TokenBudget = 8000 }, true},
		{"negative token budget", func(c *config.Config) { c.TokenBudget = -1 }, false},
		{"negative timeout", func(c *config.Config) { c.ToolTimeout = -time.Second }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}
