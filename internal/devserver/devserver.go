// Package devserver keeps at most one project preview server alive.
package devserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/cft-yamuna/quiz-agent/internal/logging"
	"github.com/cft-yamuna/quiz-agent/internal/shell"
)

// DefaultCommand starts the Vite dev server of a generated project.
const DefaultCommand = "npm run dev"

// Status describes the tracked server.
type Status struct {
	Project string
	Dir     string
	Command string
	PID     int
	Started time.Time
	URL     string
}

type process struct {
	status Status
	cmd    *exec.Cmd
	done   chan struct{}
	err    error
	output *tailBuffer
}

// Manager starts and stops the single preview server.
type Manager struct {
	Port         int
	StartupCheck time.Duration
	StopTimeout  time.Duration

	// freePort clears the port before a start. Tests replace it.
	freePort func(port int)

	mu  sync.Mutex
	cur *process
}

// NewManager creates a manager serving on port.
func NewManager(port int, startupCheck, stopTimeout time.Duration) *Manager {
	return &Manager{
		Port:         port,
		StartupCheck: startupCheck,
		StopTimeout:  stopTimeout,
		freePort:     shell.KillPort,
	}
}

// URL returns the address the server listens on.
func (m *Manager) URL() string {
	return fmt.Sprintf("http://localhost:%d", m.Port)
}

// Start stops any previous server, frees the port and launches command in
// dir. The server outlives ctx; ctx only bounds the startup check.
func (m *Manager) Start(ctx context.Context, project, dir, command string) (*Status, error) {
	if command == "" {
		command = DefaultCommand
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("project directory %s: %w", dir, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()
	if m.freePort != nil {
		m.freePort(m.Port)
	}

	p := &process{done: make(chan struct{}), output: newTailBuffer(4096)}
	cmd := shell.Command(context.Background(), command, dir)
	cmd.Stdout = p.output
	cmd.Stderr = p.output
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start dev server: %w", err)
	}
	p.cmd = cmd
	p.status = Status{
		Project: project,
		Dir:     dir,
		Command: command,
		PID:     cmd.Process.Pid,
		Started: time.Now(),
		URL:     m.URL(),
	}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()

	timer := time.NewTimer(m.StartupCheck)
	defer timer.Stop()
	select {
	case <-p.done:
		code := -1
		var exitErr *exec.ExitError
		if errors.As(p.err, &exitErr) {
			code = exitErr.ExitCode()
		} else if p.err == nil {
			code = 0
		}
		logging.Warn("dev server exited during startup", "project", project, "code", code, "output", p.output.String())
		return nil, fmt.Errorf("Dev server exited immediately with code %d. Check that npm install was run and package.json is valid.", code)
	case <-ctx.Done():
		_ = shell.Kill(cmd)
		<-p.done
		return nil, ctx.Err()
	case <-timer.C:
	}

	m.cur = p
	logging.Info("dev server started", "project", project, "pid", p.status.PID, "url", p.status.URL)
	status := p.status
	return &status, nil
}

// Stop terminates the tracked server, if any.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Manager) stopLocked() {
	p := m.cur
	m.cur = nil
	if p == nil {
		return
	}
	select {
	case <-p.done:
		return
	default:
	}
	if err := shell.Kill(p.cmd); err != nil {
		logging.Warn("failed to kill dev server", "pid", p.status.PID, "error", err)
	}
	select {
	case <-p.done:
		logging.Info("dev server stopped", "project", p.status.Project)
	case <-time.After(m.StopTimeout):
		logging.Warn("dev server did not exit in time", "pid", p.status.PID)
	}
}

// Running reports the live server. A server that died on its own is
// forgotten.
func (m *Manager) Running() (*Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		return nil, false
	}
	select {
	case <-m.cur.done:
		m.cur = nil
		return nil, false
	default:
	}
	status := m.cur.status
	return &status, true
}

// Output returns the tail of the server's console output.
func (m *Manager) Output() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		return ""
	}
	return m.cur.output.String()
}

// EnsureInstalled runs npm install when node_modules is missing.
func EnsureInstalled(ctx context.Context, dir string, timeout time.Duration) error {
	if _, err := os.Stat(filepath.Join(dir, "node_modules")); err == nil {
		return nil
	}
	if _, err := os.Stat(filepath.Join(dir, "package.json")); err != nil {
		return fmt.Errorf("no package.json in %s", dir)
	}
	logging.Info("installing dependencies", "dir", dir)
	res, err := shell.Run(ctx, "npm install", dir, timeout)
	if err != nil {
		return fmt.Errorf("npm install: %w", err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("npm install failed with code %d: %s", res.ExitCode, res.Stderr)
	}
	return nil
}

// tailBuffer keeps the last n bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	n   int
	buf bytes.Buffer
}

func newTailBuffer(n int) *tailBuffer {
	return &tailBuffer{n: n}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.Write(p)
	if over := t.buf.Len() - t.n; over > 0 {
		t.buf.Next(over)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.String()
}
