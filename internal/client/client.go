// Package client is the boundary to the language model.
package client

import (
	"context"
	"strings"

	"google.golang.org/genai"
)

// ModelInfo describes a selectable Gemini model.
type ModelInfo struct {
	ID          string
	Name        string
	Description string
}

// AvailableModels lists the models offered by the CLI. Any other Gemini
// model name is accepted as well.
var AvailableModels = []ModelInfo{
	{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash", Description: "Fast default for scaffolding and edits"},
	{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Description: "Balanced speed and quality"},
	{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Description: "Strongest visual comparison and planning"},
}

// GetModelInfo returns information about a listed model.
func GetModelInfo(modelID string) (ModelInfo, bool) {
	for _, m := range AvailableModels {
		if m.ID == modelID {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// Request is one model turn.
type Request struct {
	// Model overrides the default model for this request.
	Model    string
	System   string
	Contents []*genai.Content
	Tools    []*genai.FunctionDeclaration
}

// Response is the first candidate of a model reply.
type Response struct {
	// Content is the model turn to append to the conversation unchanged,
	// so thought signatures survive.
	Content       *genai.Content
	FunctionCalls []*genai.FunctionCall
	FinishReason  genai.FinishReason
	InputTokens   int
	OutputTokens  int
}

// Text joins the non-thought text parts with newlines.
func (r *Response) Text() string {
	if r == nil || r.Content == nil {
		return ""
	}
	var parts []string
	for _, p := range r.Content.Parts {
		if p != nil && !p.Thought && p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Empty reports whether the reply carried no parts at all.
func (r *Response) Empty() bool {
	return r == nil || r.Content == nil || len(r.Content.Parts) == 0
}

// Model generates one reply per call. Implementations do not retry.
type Model interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
	// Name returns the default model name.
	Name() string
}

// Ptr returns a pointer to the given value.
func Ptr[T any](v T) *T {
	return &v
}
