// Package mcp is a minimal Model Context Protocol client, enough to ask a
// Figma MCP server for design data over stdio.
package mcp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	jsonrpcVersion = "2.0"

	// ProtocolVersion is the MCP revision the client announces.
	ProtocolVersion = "2024-11-05"

	MethodInitialize  = "initialize"
	MethodInitialized = "notifications/initialized"
	MethodToolsList   = "tools/list"
	MethodToolsCall   = "tools/call"
)

// JSONRPCMessage is one line on the wire. Requests carry an ID and a
// method, notifications only a method, responses an ID and a result or
// error.
type JSONRPCMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  any             `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

func (m *JSONRPCMessage) isResponse() bool {
	return m.ID != nil && m.Method == ""
}

// Error is a JSON-RPC error object returned by the server.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("MCP error (%d): %s", e.Code, e.Message)
}

// Implementation names a client or server in the handshake.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ServerInfo is the server's self description.
type ServerInfo = Implementation

type InitializeParams struct {
	ProtocolVersion string          `json:"protocolVersion"`
	ClientInfo      *Implementation `json:"clientInfo"`
	Capabilities    map[string]any  `json:"capabilities"`
}

type InitializeResult struct {
	ProtocolVersion string      `json:"protocolVersion"`
	ServerInfo      *ServerInfo `json:"serverInfo"`
}

// ToolInfo is one entry of tools/list. Input schemas are not needed to
// call the design tools and are not decoded.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type ListToolsResult struct {
	Tools []*ToolInfo `json:"tools"`
}

type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type CallToolResult struct {
	Content []*ContentBlock `json:"content"`
	IsError bool            `json:"isError,omitempty"`
}

// Text joins the text blocks of the result. A result without text is
// returned as its JSON encoding.
func (r *CallToolResult) Text() string {
	var texts []string
	for _, c := range r.Content {
		if c != nil && c.Type == "text" {
			texts = append(texts, c.Text)
		}
	}
	if len(texts) > 0 {
		return strings.Join(texts, "\n")
	}
	data, _ := json.Marshal(r)
	return string(data)
}

// ContentBlock is a text or image part of a tool result.
type ContentBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

// ServerConfig describes how to launch a stdio MCP server.
type ServerConfig struct {
	Command string
	Args    []string
	Env     map[string]string
	Timeout time.Duration
}
