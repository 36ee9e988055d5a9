package client

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/cft-yamuna/quiz-agent/internal/config"
	"github.com/cft-yamuna/quiz-agent/internal/logging"
	"github.com/cft-yamuna/quiz-agent/internal/ratelimit"
)

// GeminiModel calls the Gemini API through function calling.
type GeminiModel struct {
	client      *genai.Client
	model       string
	temperature float32
	limiter     *ratelimit.Limiter
}

// NewGemini creates a Gemini model from configuration.
func NewGemini(ctx context.Context, cfg *config.Config) (*GeminiModel, error) {
	if cfg.API.GeminiKey == "" {
		return nil, config.ErrMissingAuth
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  cfg.API.GeminiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	logging.Debug("gemini client created", "model", cfg.Model.Name)
	return &GeminiModel{
		client:      client,
		model:       cfg.Model.Name,
		temperature: cfg.Model.Temperature,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.API.RequestsPerMinute,
			TokensPerMinute:   cfg.API.TokensPerMinute,
		}),
	}, nil
}

// Name returns the default model name.
func (g *GeminiModel) Name() string {
	return g.model
}

// Limiter exposes the request throttle for status output.
func (g *GeminiModel) Limiter() *ratelimit.Limiter {
	return g.limiter
}

// Generate sends one request.
func (g *GeminiModel) Generate(ctx context.Context, req *Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}

	contents := sanitizeContents(req.Contents)
	estimated := estimateTokens(req.System, contents)
	if err := g.limiter.Wait(ctx, estimated); err != nil {
		return nil, err
	}

	cfg := &genai.GenerateContentConfig{Temperature: Ptr(g.temperature)}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: req.Tools}}
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, err
	}
	out := convertResponse(resp)
	g.limiter.RecordUsage(estimated, int64(out.InputTokens+out.OutputTokens))
	return out, nil
}

func convertResponse(resp *genai.GenerateContentResponse) *Response {
	out := &Response{}
	if resp == nil {
		return out
	}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return out
	}

	candidate := resp.Candidates[0]
	out.FinishReason = candidate.FinishReason
	out.Content = candidate.Content
	if out.Content != nil {
		if out.Content.Role == "" {
			out.Content.Role = genai.RoleModel
		}
		for _, part := range out.Content.Parts {
			if part != nil && part.FunctionCall != nil {
				out.FunctionCalls = append(out.FunctionCalls, part.FunctionCall)
			}
		}
	}
	return out
}

// sanitizeContents drops nil and empty parts. Each part must carry text,
// inline data or a function call or response.
func sanitizeContents(contents []*genai.Content) []*genai.Content {
	var result []*genai.Content
	for _, content := range contents {
		if content == nil {
			continue
		}
		var valid []*genai.Part
		for _, part := range content.Parts {
			if part == nil {
				continue
			}
			if part.FunctionCall != nil || part.FunctionResponse != nil || part.Text != "" || part.InlineData != nil {
				valid = append(valid, part)
			}
		}
		if len(valid) == 0 {
			valid = []*genai.Part{genai.NewPartFromText(" ")}
		}
		result = append(result, &genai.Content{Role: content.Role, Parts: valid})
	}
	if len(result) == 0 {
		result = []*genai.Content{genai.NewContentFromText(" ", genai.RoleUser)}
	}
	return result
}

// imageTokens is a rough per-image cost used for throttling estimates.
const imageTokens = 260

func estimateTokens(system string, contents []*genai.Content) int64 {
	n := ratelimit.EstimateTokens(system)
	for _, c := range contents {
		for _, p := range c.Parts {
			switch {
			case p.Text != "":
				n += ratelimit.EstimateTokens(p.Text)
			case p.InlineData != nil:
				n += imageTokens
			case p.FunctionResponse != nil:
				if s, ok := p.FunctionResponse.Response["result"].(string); ok {
					n += ratelimit.EstimateTokens(s)
				}
			}
		}
	}
	return n
}
