package mcp

import (
	"context"
	"fmt"

	"github.com/cft-yamuna/quiz-agent/internal/logging"
)

// Tool names understood by known Figma MCP servers, in preference order.
const (
	ToolGetFigmaData = "get_figma_data"
	ToolGetFile      = "get_file"
)

// DesignFetcher asks an MCP server for LLM-oriented design data.
type DesignFetcher struct {
	Config ServerConfig

	// Dial opens a client; defaults to launching Config over stdio.
	Dial func(ctx context.Context, cfg ServerConfig) (*Client, error)
}

// NewDesignFetcher creates a fetcher for the configured server.
func NewDesignFetcher(cfg ServerConfig) *DesignFetcher {
	return &DesignFetcher{Config: cfg, Dial: Dial}
}

// FetchDesign starts the server, picks the design tool it offers and
// returns the tool's text output. get_figma_data is preferred, then
// get_file, then whatever tool the server lists first.
func (f *DesignFetcher) FetchDesign(ctx context.Context, figmaURL, nodeID string) (string, error) {
	client, err := f.Dial(ctx, f.Config)
	if err != nil {
		return "", err
	}
	defer client.Close()

	tools, err := client.ListTools(ctx)
	if err != nil {
		return "", err
	}
	names := make(map[string]bool, len(tools))
	for _, t := range tools {
		names[t.Name] = true
	}
	logging.Info("MCP tools available", "count", len(tools))

	args := map[string]any{"url": figmaURL}
	if nodeID != "" {
		args["node_id"] = nodeID
	}

	var name string
	switch {
	case names[ToolGetFigmaData]:
		name = ToolGetFigmaData
	case names[ToolGetFile]:
		name = ToolGetFile
		args = map[string]any{"fileKey": figmaURL}
	case len(tools) > 0:
		name = tools[0].Name
	default:
		return "", fmt.Errorf("MCP server offers no tools")
	}

	result, err := client.CallTool(ctx, name, args)
	if err != nil {
		return "", err
	}
	text := result.Text()
	if result.IsError {
		return "", fmt.Errorf("MCP tool %s failed: %s", name, text)
	}
	logging.Info("MCP design data fetched", "tool", name, "chars", len(text))
	return text, nil
}
