package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GEMINI_API_KEY", "QUIZAGENT_MODEL", "QUIZAGENT_LOG_LEVEL", "QUIZAGENT_ROOT",
		"FIGMA_ACCESS_TOKEN", "FIGMA_URL", "FIGMA_FILE_KEY", "MCP_FIGMA_COMMAND", "MCP_FIGMA_ARGS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromFileAndEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model:
  name: gemini-2.5-pro
  max_iterations: 20
  phase_models:
    fixing: gemini-2.5-flash
tools:
  timeouts:
    run_command: 45s
figma:
  url: ${TEST_FIGMA_URL}
`), 0644))

	t.Setenv("TEST_FIGMA_URL", "https://www.figma.com/design/AbC123/Quiz")
	t.Setenv("GEMINI_API_KEY", "key-123")
	t.Setenv("FIGMA_ACCESS_TOKEN", "figd_token")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-pro", cfg.Model.Name)
	assert.Equal(t, 20, cfg.Model.MaxIterations)
	assert.Equal(t, "gemini-2.5-flash", cfg.Model.ModelFor("fixing"))
	assert.Equal(t, "gemini-2.5-pro", cfg.Model.ModelFor("planning"))
	assert.Equal(t, 45*time.Second, cfg.Tools.TimeoutFor("run_command"))
	assert.Equal(t, 180*time.Second, cfg.Tools.TimeoutFor("fetch_figma_design"))
	assert.Equal(t, DefaultToolTimeout, cfg.Tools.TimeoutFor("read_file"))
	assert.Equal(t, "https://www.figma.com/design/AbC123/Quiz", cfg.Figma.URL)
	assert.True(t, cfg.Figma.Configured())
	assert.Equal(t, "key-123", cfg.API.GeminiKey)
	assert.True(t, filepath.IsAbs(cfg.Paths.Root))
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, cfg.Model.Name)
	assert.Equal(t, DefaultMaxIterations, cfg.Model.MaxIterations)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingAuth)
}

func TestLegacyFigmaKeyAndMCPPlaceholder(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("FIGMA_FILE_KEY", "LegacyKey1")
	t.Setenv("FIGMA_ACCESS_TOKEN", "secret")
	t.Setenv("MCP_FIGMA_COMMAND", "npx framelink-figma-mcp")
	t.Setenv("MCP_FIGMA_ARGS", "--figma-api-key=<figma-api-key> --stdio")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "LegacyKey1", cfg.Figma.URL)
	assert.True(t, cfg.MCP.Configured())
	assert.Equal(t, "npx", cfg.MCP.Command)
	assert.Equal(t, []string{"framelink-figma-mcp", "--figma-api-key=secret", "--stdio"}, cfg.MCP.Args)
}

func TestPathResolvesAgainstRoot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Paths.Root = "/srv/agent"
	assert.Equal(t, filepath.Join("/srv/agent", "output"), cfg.Path(cfg.Paths.Output))
	assert.Equal(t, "/abs/dir", cfg.Path("/abs/dir"))
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Model.Name = "gemini-2.5-flash"
	cfg.Memory.MaxSessions = 7
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", loaded.Model.Name)
	assert.Equal(t, 7, loaded.Memory.MaxSessions)
}
