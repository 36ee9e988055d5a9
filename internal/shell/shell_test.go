//go:build !windows

package shell

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCapturesOutput(t *testing.T) {
	dir := t.TempDir()
	res, err := Run(context.Background(), "pwd; echo oops >&2; exit 3", dir, 5*time.Second)
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, strings.TrimPrefix(dir, "/private"))
	assert.Equal(t, "oops\n", res.Stderr)
	assert.Equal(t, 3, res.ExitCode)
}

func TestRunTimeout(t *testing.T) {
	start := time.Now()
	_, err := Run(context.Background(), "sleep 10", t.TempDir(), 200*time.Millisecond)
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "Command timed out after 0 seconds", te.Error())
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, "echo hi", t.TempDir(), time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnvDropsSecrets(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "secret")
	t.Setenv("PATH", "/usr/bin")
	env := Env()
	assert.Contains(t, env, "PATH=/usr/bin")
	for _, e := range env {
		assert.False(t, strings.HasPrefix(e, "GEMINI_API_KEY="))
	}
}
