package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cft-yamuna/quiz-agent/internal/logging"
)

// DefaultTimeout bounds a single request to the server.
const DefaultTimeout = 30 * time.Second

const closeWait = 5 * time.Second

var (
	// ErrServerExited fails requests still waiting when the server's
	// output ends.
	ErrServerExited = errors.New("MCP server exited unexpectedly")

	errNotInitialized = errors.New("MCP client not initialized")
)

// Client issues requests to one MCP server. Responses are matched to
// requests by id on a single reader goroutine.
type Client struct {
	transport Transport
	timeout   time.Duration

	server      atomic.Pointer[ServerInfo]
	initialized atomic.Bool
	nextID      atomic.Int64

	mu      sync.Mutex
	pending map[int64]chan *JSONRPCMessage

	closing atomic.Bool
	done    chan struct{}
}

// NewClient wraps an open transport and starts reading from it.
func NewClient(transport Transport, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		transport: transport,
		timeout:   timeout,
		pending:   make(map[int64]chan *JSONRPCMessage),
		done:      make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Dial launches the configured server over stdio and performs the
// initialize handshake. A failed handshake reports the server's stderr.
func Dial(ctx context.Context, cfg ServerConfig) (*Client, error) {
	transport, err := NewStdioTransport(cfg)
	if err != nil {
		return nil, err
	}
	c := NewClient(transport, cfg.Timeout)
	if err := c.Initialize(ctx); err != nil {
		_ = c.Close()
		if tail := transport.Stderr(); tail != "" {
			return nil, fmt.Errorf("%w\nserver stderr:\n%s", err, tail)
		}
		return nil, err
	}
	return c, nil
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		msg, err := c.transport.Receive()
		if err != nil {
			if !c.closing.Load() {
				logging.Warn("MCP server stream ended", "error", err)
			}
			return
		}
		if !msg.isResponse() {
			// Notifications and server requests are not used by the design fetch
			logging.Debug("MCP message ignored", "method", msg.Method)
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[*msg.ID]
		delete(c.pending, *msg.ID)
		c.mu.Unlock()
		if ok {
			ch <- msg
		}
	}
}

// call sends method and decodes the result into out when it is non-nil.
func (c *Client) call(ctx context.Context, method string, params, out any) error {
	id := c.nextID.Add(1)
	reply := make(chan *JSONRPCMessage, 1)

	c.mu.Lock()
	c.pending[id] = reply
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.transport.Send(&JSONRPCMessage{ID: &id, Method: method, Params: params}); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var resp *JSONRPCMessage
	select {
	case resp = <-reply:
	case <-c.done:
		return ErrServerExited
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("no response to %s within %v", method, c.timeout)
		}
		return ctx.Err()
	}

	if resp.Error != nil {
		return resp.Error
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("failed to parse %s result: %w", method, err)
	}
	return nil
}

// Initialize performs the handshake. Calling it again is a no-op.
func (c *Client) Initialize(ctx context.Context) error {
	if c.initialized.Load() {
		return nil
	}
	params := &InitializeParams{
		ProtocolVersion: ProtocolVersion,
		ClientInfo:      &Implementation{Name: "quiz-agent", Version: "1.0.0"},
		Capabilities:    map[string]any{},
	}
	var result InitializeResult
	if err := c.call(ctx, MethodInitialize, params, &result); err != nil {
		return fmt.Errorf("initialize failed: %w", err)
	}
	if err := c.transport.Send(&JSONRPCMessage{Method: MethodInitialized, Params: map[string]any{}}); err != nil {
		return fmt.Errorf("failed to send initialized notification: %w", err)
	}
	c.server.Store(result.ServerInfo)
	c.initialized.Store(true)

	if result.ServerInfo != nil {
		logging.Info("MCP server initialized", "server", result.ServerInfo.Name, "version", result.ServerInfo.Version)
	}
	return nil
}

// ListTools returns the tools the server offers.
func (c *Client) ListTools(ctx context.Context) ([]*ToolInfo, error) {
	if !c.initialized.Load() {
		return nil, errNotInitialized
	}
	var result ListToolsResult
	if err := c.call(ctx, MethodToolsList, map[string]any{}, &result); err != nil {
		return nil, fmt.Errorf("tools/list failed: %w", err)
	}
	return result.Tools, nil
}

// CallTool invokes a server tool.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*CallToolResult, error) {
	if !c.initialized.Load() {
		return nil, errNotInitialized
	}
	if args == nil {
		args = map[string]any{}
	}
	var result CallToolResult
	if err := c.call(ctx, MethodToolsCall, &CallToolParams{Name: name, Arguments: args}, &result); err != nil {
		return nil, fmt.Errorf("tools/call %s failed: %w", name, err)
	}
	return &result, nil
}

// ServerInfo returns what the server reported in the handshake.
func (c *Client) ServerInfo() *ServerInfo {
	return c.server.Load()
}

// Close shuts the transport down and waits for the reader to stop.
func (c *Client) Close() error {
	c.closing.Store(true)
	err := c.transport.Close()

	select {
	case <-c.done:
	case <-time.After(closeWait):
		logging.Warn("MCP reader did not stop in time")
	}
	if err != nil {
		return fmt.Errorf("failed to close MCP transport: %w", err)
	}
	return nil
}
