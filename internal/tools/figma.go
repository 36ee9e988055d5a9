package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cft-yamuna/quiz-agent/internal/figma"
	"github.com/cft-yamuna/quiz-agent/internal/flow"
	"github.com/cft-yamuna/quiz-agent/internal/logging"
	"github.com/cft-yamuna/quiz-agent/internal/security"
)

// figmaURL returns the design of this run: the session override, else the
// configured one.
func (e *Executor) figmaURL() string {
	if e.session.FigmaURL != "" {
		return e.session.FigmaURL
	}
	return e.deps.FigmaURL
}

// figmaReady reports whether the REST client can fetch the current design.
func (e *Executor) figmaReady() bool {
	return e.deps.Figma != nil && e.deps.FigmaToken && e.figmaURL() != ""
}

func frameAttachments(frames []figma.ExportedFrame) []Attachment {
	atts := make([]Attachment, 0, len(frames))
	for _, f := range frames {
		atts = append(atts, Attachment{Kind: DesignFrame, Path: f.ImagePath, Label: f.Name})
	}
	return atts
}

func (e *Executor) fetchFigmaDesign(ctx context.Context, c FetchFigmaDesign) (Result, error) {
	if !e.figmaReady() {
		return NewErrorText("ERROR: FIGMA_ACCESS_TOKEN and FIGMA_URL must be set in .env"), nil
	}
	ref, err := figma.ParseURL(e.figmaURL())
	if err != nil {
		return Result{}, err
	}

	logging.Info("fetching figma design", "file", ref.FileKey, "node", ref.NodeID)
	opts := e.deps.FigmaOptions
	opts.PageName = c.PageName
	design, err := e.deps.Figma.FetchDesign(ctx, ref, opts)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: design.Report, Attachments: frameAttachments(design.Frames)}, nil
}

func (e *Executor) analyzeFlow(ctx context.Context) (Result, error) {
	if !e.figmaReady() {
		return NewErrorText("ERROR: Figma is not configured. Call fetch_figma_design first."), nil
	}
	ref, err := figma.ParseURL(e.figmaURL())
	if err != nil {
		return NewErrorText(fmt.Sprintf("ERROR: Could not load Figma data: %v", err)), nil
	}
	file, err := e.deps.Figma.File(ctx, ref)
	if err != nil {
		return NewErrorText(fmt.Sprintf("ERROR: Could not load Figma data: %v", err)), nil
	}

	frames, elements := flow.FromDesign(file)
	if len(frames) == 0 {
		return NewErrorText("ERROR: No frames found in the Figma design. Make sure the Figma URL points to a page with frames."), nil
	}

	f := flow.Analyze(frames, elements)
	if e.deps.FigmaCache != "" {
		if err := os.MkdirAll(e.deps.FigmaCache, 0755); err == nil {
			err = flow.SaveConfirmed(e.deps.FigmaCache, f)
		}
		if err != nil {
			logging.Warn("could not save confirmed flow", "error", err)
		}
	}
	logging.Info("flow analyzed", "screens", len(f.Screens), "transitions", len(f.Transitions))
	return NewResult(flow.Summary(f)), nil
}

func (e *Executor) fetchFigmaMCP(ctx context.Context, c FetchFigmaMCP) (Result, error) {
	fallback := FetchFigmaDesign{PageName: c.PageName}
	if e.deps.MCP == nil {
		logging.Info("mcp not configured, falling back to fetch_figma_design")
		return e.fetchFigmaDesign(ctx, fallback)
	}

	url := c.FigmaURL
	if url == "" {
		url = e.figmaURL()
	}
	if url == "" {
		return NewErrorText("ERROR: No Figma URL provided and FIGMA_URL not set in .env"), nil
	}

	text, err := e.deps.MCP.FetchDesign(ctx, url, c.NodeID)
	if err != nil {
		logging.Warn("mcp fetch failed, falling back to fetch_figma_design", "error", err)
		return e.fetchFigmaDesign(ctx, fallback)
	}

	// The MCP server does not render frames, so export them through REST.
	var atts []Attachment
	if e.figmaReady() {
		frames, err := e.exportFrames(ctx, url)
		if err != nil {
			text += fmt.Sprintf("\n\n(Could not export frame screenshots: %v)", err)
		}
		text += figma.FramesSection(frames)
		atts = frameAttachments(frames)
	}

	max := e.deps.FigmaOptions.MaxChars
	if max <= 0 {
		max = figma.DefaultReportChars
	}
	return Result{Text: figma.Truncate(text, max), Attachments: atts}, nil
}

func (e *Executor) exportFrames(ctx context.Context, url string) ([]figma.ExportedFrame, error) {
	ref, err := figma.ParseURL(url)
	if err != nil {
		return nil, err
	}
	file, err := e.deps.Figma.File(ctx, ref)
	if err != nil {
		return nil, err
	}
	opts := e.deps.FigmaOptions
	return e.deps.Figma.ExportFrames(ctx, ref, figma.CollectFrames(file), opts.ExportLimit, opts.Scale)
}

func (e *Executor) validateScreenshots(ctx context.Context, c ValidateScreenshots) (Result, error) {
	if c.ProjectName == "" {
		return NewErrorText("ERROR: project_name is required"), nil
	}
	if !security.ValidProjectName(c.ProjectName) {
		return NewErrorText(fmt.Sprintf("ERROR: Invalid project name '%s'", c.ProjectName)), nil
	}
	dir, err := security.Contain(e.deps.Root, filepath.Join(security.OutputDir, c.ProjectName))
	if err != nil || !isDir(dir) {
		return NewErrorText(fmt.Sprintf("ERROR: Project '%s' not found in output/", c.ProjectName)), nil
	}
	if e.deps.Validator == nil {
		return NewErrorText("ERROR: Screenshot validation not configured"), nil
	}

	res, err := e.deps.Validator.Validate(ctx, c.ProjectName, c.Routes)
	if err != nil {
		return Result{}, err
	}
	atts := make([]Attachment, 0, len(res.Images))
	for _, img := range res.Images {
		kind := AppCapture
		if img.Design {
			kind = DesignFrame
		}
		atts = append(atts, Attachment{Kind: kind, Path: img.Path, Label: img.Label})
	}
	return Result{Text: res.Report, Attachments: atts}, nil
}
