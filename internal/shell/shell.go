// Package shell runs command lines for generated projects.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"
)

// SafeEnvVars is the whitelist of environment variables passed to commands.
// API keys of the agent itself never reach project scripts.
var SafeEnvVars = []string{
	"PATH",
	"HOME",
	"USER",
	"SHELL",
	"TERM",
	"LANG",
	"LC_ALL",
	"TMPDIR",
	"TMP",
	"TEMP",
	"XDG_CONFIG_HOME",
	"XDG_CACHE_HOME",
	"NODE_PATH",
	"NODE_OPTIONS",
	"NPM_CONFIG_PREFIX",
	"NPM_CONFIG_CACHE",
	// Windows
	"APPDATA",
	"LOCALAPPDATA",
	"USERPROFILE",
	"SYSTEMROOT",
	"COMSPEC",
	"PATHEXT",
	"PROGRAMFILES",
}

// Env creates a sanitized environment for command execution.
func Env() []string {
	env := make([]string, 0, len(SafeEnvVars)+1)
	hasPath := false
	for _, key := range SafeEnvVars {
		if val := os.Getenv(key); val != "" {
			env = append(env, key+"="+val)
			hasPath = hasPath || key == "PATH"
		}
	}
	if !hasPath {
		env = append(env, "PATH=/usr/local/bin:/usr/bin:/bin")
	}
	return env
}

// Command builds a shell invocation of line in dir. The command runs in
// its own process group so Kill takes its children down too.
func Command(ctx context.Context, line, dir string) *exec.Cmd {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", line)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", line)
	}
	cmd.Dir = dir
	cmd.Env = Env()
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return Kill(cmd) }
	cmd.WaitDelay = 2 * time.Second
	return cmd
}

// Isolate puts cmd in its own process group so Kill reaches everything it
// spawns. Command does this already.
func Isolate(cmd *exec.Cmd) {
	setProcessGroup(cmd)
}

// Kill terminates the process group of a started command.
func Kill(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return killProcessGroup(cmd.Process.Pid)
}

// TimeoutError reports a command that ran past its budget.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("Command timed out after %d seconds", int(e.Timeout.Seconds()))
}

// Result is the captured outcome of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run executes line in dir and waits up to timeout. A non-zero exit is a
// Result, not an error; errors mean the command could not run or timed out.
func Run(ctx context.Context, line, dir string, timeout time.Duration) (*Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := Command(runCtx, line, dir)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, &TimeoutError{Timeout: timeout}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, err
		}
		res.ExitCode = exitErr.ExitCode()
	}
	return res, nil
}

// KillPort kills whatever process listens on the TCP port.
func KillPort(port int) {
	killPortListeners(port)
}
