package mcp

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer answers requests in-process.
type fakeServer struct {
	tools     []string
	callError *Error
	exitOn    string

	out       chan *JSONRPCMessage
	closed    chan struct{}
	closeOnce sync.Once

	mu    sync.Mutex
	calls []CallToolParams
}

func newFakeServer(tools ...string) *fakeServer {
	return &fakeServer{
		tools:  tools,
		out:    make(chan *JSONRPCMessage, 16),
		closed: make(chan struct{}),
	}
}

func (f *fakeServer) Send(msg *JSONRPCMessage) error {
	if msg.ID == nil {
		return nil
	}
	if msg.Method == f.exitOn {
		f.Close()
		return nil
	}

	resp := map[string]any{"jsonrpc": "2.0", "id": msg.ID}
	switch msg.Method {
	case MethodInitialize:
		resp["result"] = InitializeResult{ProtocolVersion: ProtocolVersion, ServerInfo: &ServerInfo{Name: "fake", Version: "0.1"}}
	case MethodToolsList:
		var list ListToolsResult
		for _, name := range f.tools {
			list.Tools = append(list.Tools, &ToolInfo{Name: name})
		}
		resp["result"] = list
	case MethodToolsCall:
		params := msg.Params.(*CallToolParams)
		f.mu.Lock()
		f.calls = append(f.calls, *params)
		f.mu.Unlock()
		if f.callError != nil {
			resp["error"] = f.callError
		} else {
			resp["result"] = CallToolResult{Content: []*ContentBlock{
				{Type: "text", Text: "# Design"},
				{Type: "image", Data: "aGk="},
				{Type: "text", Text: "colors: #fff"},
			}}
		}
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	var decoded JSONRPCMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	f.out <- &decoded
	return nil
}

func (f *fakeServer) Receive() (*JSONRPCMessage, error) {
	select {
	case m := <-f.out:
		return m, nil
	case <-f.closed:
		return nil, io.EOF
	}
}

func (f *fakeServer) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func fetcherFor(server *fakeServer) *DesignFetcher {
	return &DesignFetcher{Dial: func(ctx context.Context, cfg ServerConfig) (*Client, error) {
		c := NewClient(server, time.Second)
		if err := c.Initialize(ctx); err != nil {
			c.Close()
			return nil, err
		}
		return c, nil
	}}
}

func TestFetchDesignPrefersFigmaDataTool(t *testing.T) {
	server := newFakeServer("get_images", ToolGetFile, ToolGetFigmaData)
	text, err := fetcherFor(server).FetchDesign(context.Background(), "https://figma.com/design/ABC/x", "1:2")
	require.NoError(t, err)
	assert.Equal(t, "# Design\ncolors: #fff", text)

	require.Len(t, server.calls, 1)
	assert.Equal(t, ToolGetFigmaData, server.calls[0].Name)
	assert.Equal(t, map[string]any{"url": "https://figma.com/design/ABC/x", "node_id": "1:2"}, server.calls[0].Arguments)
}

func TestFetchDesignFallbackTools(t *testing.T) {
	server := newFakeServer("list_things", ToolGetFile)
	_, err := fetcherFor(server).FetchDesign(context.Background(), "ABC", "")
	require.NoError(t, err)
	assert.Equal(t, ToolGetFile, server.calls[0].Name)
	assert.Equal(t, map[string]any{"fileKey": "ABC"}, server.calls[0].Arguments)

	server = newFakeServer("describe_design")
	_, err = fetcherFor(server).FetchDesign(context.Background(), "ABC", "")
	require.NoError(t, err)
	assert.Equal(t, "describe_design", server.calls[0].Name)
	assert.Equal(t, map[string]any{"url": "ABC"}, server.calls[0].Arguments)

	_, err = fetcherFor(newFakeServer()).FetchDesign(context.Background(), "ABC", "")
	assert.ErrorContains(t, err, "offers no tools")
}

func TestFetchDesignToolError(t *testing.T) {
	server := newFakeServer(ToolGetFigmaData)
	server.callError = &Error{Code: -32603, Message: "bad token"}
	_, err := fetcherFor(server).FetchDesign(context.Background(), "ABC", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MCP error (-32603): bad token")
}

func TestServerExitFailsPendingRequest(t *testing.T) {
	server := newFakeServer(ToolGetFigmaData)
	server.exitOn = MethodToolsList
	_, err := fetcherFor(server).FetchDesign(context.Background(), "ABC", "")
	assert.ErrorIs(t, err, ErrServerExited)
}

func TestCallBeforeInitialize(t *testing.T) {
	c := NewClient(newFakeServer(), time.Second)
	defer c.Close()
	_, err := c.ListTools(context.Background())
	assert.ErrorContains(t, err, "not initialized")
}

func TestCallToolResultText(t *testing.T) {
	r := &CallToolResult{Content: []*ContentBlock{{Type: "image", Data: "x"}}}
	assert.JSONEq(t, `{"content":[{"type":"image","data":"x"}]}`, r.Text())
}
