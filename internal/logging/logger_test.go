package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel(" error "))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestSetupWritesFileAndConsole(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	require.NoError(t, Setup(Options{Level: LevelInfo, Dir: dir, Console: &console}))
	t.Cleanup(Close)

	Debug("hidden")
	Info("tool executed", "tool", "create_file")

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"tool executed"`)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, console.String(), "tool=create_file")
}
