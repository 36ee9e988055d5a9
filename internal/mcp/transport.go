package mcp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cft-yamuna/quiz-agent/internal/logging"
	"github.com/cft-yamuna/quiz-agent/internal/security"
	"github.com/cft-yamuna/quiz-agent/internal/shell"
)

const (
	// maxLine bounds one JSON-RPC line; design payloads run to megabytes.
	maxLine = 16 * 1024 * 1024

	stderrTailLines = 20
	exitGrace       = 5 * time.Second
)

var errTransportClosed = errors.New("mcp transport is closed")

// Transport moves JSON-RPC messages to and from one server. Receive returns
// io.EOF once the server has gone away.
type Transport interface {
	Send(msg *JSONRPCMessage) error
	Receive() (*JSONRPCMessage, error)
	Close() error
}

// serverEnv is the shell whitelist plus the configured variables, which
// may reference the agent's own environment ($FIGMA_ACCESS_TOKEN).
func serverEnv(extra map[string]string) []string {
	env := shell.Env()
	for k, v := range extra {
		env = append(env, k+"="+os.ExpandEnv(v))
	}
	return env
}

// StdioTransport speaks newline-delimited JSON-RPC with a child process.
type StdioTransport struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines *bufio.Scanner

	writeMu sync.Mutex
	closed  atomic.Bool

	stderrMu   sync.Mutex
	stderrTail []string
	stderrDone chan struct{}
}

// NewStdioTransport starts cfg.Command and attaches to its stdio.
func NewStdioTransport(cfg ServerConfig) (*StdioTransport, error) {
	cmd := exec.Command(cfg.Command, cfg.Args...)
	cmd.Env = serverEnv(cfg.Env)
	shell.Isolate(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("mcp stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("mcp stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("mcp stderr: %w", err)
	}
	// Start closes the pipes itself when it fails
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start MCP server %q: %w", cfg.Command, err)
	}

	lines := bufio.NewScanner(stdout)
	lines.Buffer(make([]byte, 0, 64*1024), maxLine)

	t := &StdioTransport{
		cmd:        cmd,
		stdin:      stdin,
		lines:      lines,
		stderrDone: make(chan struct{}),
	}
	go t.drainStderr(stderr)

	logging.Debug("MCP server started",
		"command", cfg.Command,
		"args", security.Redact(strings.Join(cfg.Args, " ")),
		"pid", cmd.Process.Pid)
	return t, nil
}

// drainStderr logs the server's stderr and keeps its last lines for error
// reports.
func (t *StdioTransport) drainStderr(r io.Reader) {
	defer close(t.stderrDone)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := security.Redact(sc.Text())
		logging.Debug("MCP server stderr", "line", line)

		t.stderrMu.Lock()
		t.stderrTail = append(t.stderrTail, line)
		if len(t.stderrTail) > stderrTailLines {
			t.stderrTail = t.stderrTail[1:]
		}
		t.stderrMu.Unlock()
	}
}

// Stderr returns the most recent stderr lines of the server.
func (t *StdioTransport) Stderr() string {
	t.stderrMu.Lock()
	defer t.stderrMu.Unlock()
	return strings.Join(t.stderrTail, "\n")
}

// Send writes msg as one line.
func (t *StdioTransport) Send(msg *JSONRPCMessage) error {
	if t.closed.Load() {
		return errTransportClosed
	}
	msg.JSONRPC = jsonrpcVersion
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", msg.Method, err)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := t.stdin.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write to MCP server: %w", err)
	}
	return nil
}

// Receive returns the next message. Lines that are not JSON are server
// chatter on stdout and are skipped.
func (t *StdioTransport) Receive() (*JSONRPCMessage, error) {
	for t.lines.Scan() {
		line := bytes.TrimSpace(t.lines.Bytes())
		if len(line) == 0 {
			continue
		}
		var msg JSONRPCMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			logging.Debug("MCP stdout skipped", "line", security.Redact(string(line)))
			continue
		}
		return &msg, nil
	}
	if err := t.lines.Err(); err != nil && !t.closed.Load() {
		return nil, fmt.Errorf("failed to read from MCP server: %w", err)
	}
	return nil, io.EOF
}

// Close ends the session: stdin is closed so the server can exit on its
// own, and the process group is killed if it has not after exitGrace.
func (t *StdioTransport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	_ = t.stdin.Close()

	exited := make(chan error, 1)
	go func() { exited <- t.cmd.Wait() }()

	select {
	case <-exited:
	case <-time.After(exitGrace):
		logging.Warn("MCP server ignored stdin close, killing it", "pid", t.cmd.Process.Pid)
		_ = shell.Kill(t.cmd)
		<-exited
	}
	<-t.stderrDone
	return nil
}
