//go:build !windows

package devserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() (*Manager, *[]int) {
	m := NewManager(5173, 200*time.Millisecond, 2*time.Second)
	var freed []int
	m.freePort = func(port int) { freed = append(freed, port) }
	return m, &freed
}

func TestStartAndStop(t *testing.T) {
	m, freed := newTestManager()
	dir := t.TempDir()

	status, err := m.Start(context.Background(), "quiz", dir, "echo ready; sleep 30")
	require.NoError(t, err)
	assert.Equal(t, "quiz", status.Project)
	assert.Equal(t, "http://localhost:5173", status.URL)
	assert.Equal(t, []int{5173}, *freed)

	running, ok := m.Running()
	require.True(t, ok)
	assert.Equal(t, status.PID, running.PID)
	assert.Contains(t, m.Output(), "ready")

	m.Stop()
	_, ok = m.Running()
	assert.False(t, ok)
}

func TestStartReplacesPrevious(t *testing.T) {
	m, _ := newTestManager()
	dir := t.TempDir()

	first, err := m.Start(context.Background(), "one", dir, "sleep 30")
	require.NoError(t, err)
	second, err := m.Start(context.Background(), "two", dir, "sleep 30")
	require.NoError(t, err)
	defer m.Stop()

	assert.NotEqual(t, first.PID, second.PID)
	running, ok := m.Running()
	require.True(t, ok)
	assert.Equal(t, "two", running.Project)
}

func TestStartImmediateExit(t *testing.T) {
	m, _ := newTestManager()
	_, err := m.Start(context.Background(), "broken", t.TempDir(), "exit 3")
	require.Error(t, err)
	assert.Equal(t, "Dev server exited immediately with code 3. Check that npm install was run and package.json is valid.", err.Error())
	_, ok := m.Running()
	assert.False(t, ok)
}

func TestStartMissingDir(t *testing.T) {
	m, _ := newTestManager()
	_, err := m.Start(context.Background(), "x", filepath.Join(t.TempDir(), "nope"), "")
	assert.Error(t, err)
}

func TestEnsureInstalledSkipsWhenPresent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "node_modules"), 0o755))
	assert.NoError(t, EnsureInstalled(context.Background(), dir, time.Second))

	assert.ErrorContains(t, EnsureInstalled(context.Background(), t.TempDir(), time.Second), "no package.json")
}

func TestTailBuffer(t *testing.T) {
	b := newTailBuffer(5)
	b.Write([]byte("abc"))
	b.Write([]byte("defgh"))
	assert.Equal(t, "defgh", b.String())
}
