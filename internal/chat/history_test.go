package chat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndLoad(t *testing.T) {
	dir := t.TempDir()
	h := NewHistory()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return fixed }

	require.NoError(t, h.Append(dir, "build a quiz", "Done! Built a quiz app."))
	require.NoError(t, h.Append(dir, "make it blue", "Changed the theme."))

	entries := h.Load(dir)
	require.Len(t, entries, 4)
	assert.Equal(t, RoleUser, entries[0].Role)
	assert.Equal(t, "build a quiz", entries[0].Content)
	assert.Equal(t, RoleAssistant, entries[3].Role)
	assert.True(t, fixed.Equal(entries[3].Timestamp))
}

func TestAppendMissingProject(t *testing.T) {
	h := NewHistory()
	assert.Error(t, h.Append(filepath.Join(t.TempDir(), "nope"), "a", "b"))
}

func TestRecent(t *testing.T) {
	dir := t.TempDir()
	h := NewHistory()
	assert.Empty(t, h.Recent(dir, 6))

	legacy := `[{"role":"user","content":"one"},{"content":"two"},{"role":"assistant","content":"` +
		strings.Repeat("x", 300) + `"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, HistoryFile), []byte(legacy), 0644))

	assert.Equal(t, "  user: two\n  assistant: "+strings.Repeat("x", 200), h.Recent(dir, 2))
	assert.True(t, strings.HasPrefix(h.Recent(dir, 0), "  user: one\n"))
}

func TestCorruptHistoryIsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, HistoryFile), []byte("{oops"), 0644))
	h := NewHistory()
	assert.Empty(t, h.Load(dir))
	require.NoError(t, h.Append(dir, "hi", "hello"))
	assert.Len(t, h.Load(dir), 2)
}
