package screenshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cft-yamuna/quiz-agent/internal/figma"
	"github.com/cft-yamuna/quiz-agent/internal/logging"
	"github.com/cft-yamuna/quiz-agent/internal/security"
)

// FrameSource lists the design frames of the current design.
type FrameSource interface {
	Frames() ([]figma.ExportedFrame, error)
}

// ManifestSource reads frames from the manifest written by the last design
// fetch. Frames whose image is gone are skipped.
type ManifestSource struct {
	Dir string
}

// Frames implements FrameSource.
func (m ManifestSource) Frames() ([]figma.ExportedFrame, error) {
	frames, err := figma.LoadManifest(m.Dir)
	if err != nil {
		return nil, err
	}
	valid := frames[:0]
	for _, f := range frames {
		if _, err := os.Stat(f.ImagePath); err == nil {
			valid = append(valid, f)
		}
	}
	return valid, nil
}

// Image is one picture handed to the model, in presentation order.
type Image struct {
	Path   string
	Design bool
	Label  string
}

// Result is the outcome of a validation run.
type Result struct {
	Project     string
	Captures    []Capture
	Frames      []figma.ExportedFrame
	Pairs       []Pair
	ExtraRoutes []Capture
	Missing     []figma.ExportedFrame
	Errors      []error
	Report      string
	Images      []Image
}

// Validator captures a project's pages and pairs them with design frames.
type Validator struct {
	Frames   FrameSource
	Capturer Capturer

	// BaseURL is where the dev server serves the app.
	BaseURL string
	// OutputDir holds the generated projects.
	OutputDir string
	// ShotsDir receives captures under a per-project directory.
	ShotsDir string
}

// Validate captures every route (discovered from the project when routes
// is empty), pairs captures with design frames and builds the report.
func (v *Validator) Validate(ctx context.Context, project string, routes []string) (*Result, error) {
	if project == "" {
		return nil, fmt.Errorf("project name is required")
	}
	if !security.ValidProjectName(project) {
		return nil, fmt.Errorf("invalid project name %q", project)
	}
	if len(routes) == 0 {
		routes = DiscoverRoutes(filepath.Join(v.OutputDir, project))
	}

	dir := filepath.Join(v.ShotsDir, project)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	base := strings.TrimRight(v.BaseURL, "/")
	targets := make([]Target, len(routes))
	for i, r := range routes {
		targets[i] = Target{
			Route: r,
			URL:   base + r,
			Path:  filepath.Join(dir, SafeName(r)+".png"),
		}
	}

	logging.Info("validating screenshots", "project", project, "routes", len(routes))
	res := &Result{Project: project}
	res.Captures, res.Errors = v.Capturer.Capture(ctx, targets)

	if v.Frames != nil {
		frames, err := v.Frames.Frames()
		if err != nil {
			logging.Warn("could not read frame manifest", "error", err)
			res.Errors = append(res.Errors, fmt.Errorf("could not read frame manifest: %w", err))
		}
		res.Frames = frames
	}
	if len(res.Frames) == 0 {
		logging.Warn("no design frames found, fetch the design first")
	}

	res.Pairs, res.ExtraRoutes, res.Missing = Match(res.Frames, res.Captures)
	res.Images = images(res)
	res.Report = Report(res)
	return res, nil
}

func images(res *Result) []Image {
	var out []Image
	for _, p := range res.Pairs {
		out = append(out,
			Image{Path: p.Frame.ImagePath, Design: true, Label: p.Frame.Name},
			Image{Path: p.Capture.Path, Label: p.Capture.Route},
		)
	}
	for _, c := range res.ExtraRoutes {
		out = append(out, Image{Path: c.Path, Label: c.Route})
	}
	for _, f := range res.Missing {
		out = append(out, Image{Path: f.ImagePath, Design: true, Label: f.Name})
	}
	return out
}

const checklist = "For EACH page pair above, compare the FIGMA screenshot (target design) " +
	"against the APP screenshot (what was built). Identify ALL differences in:\n" +
	"  1. FONTS: wrong family, size, weight, line-height\n" +
	"  2. COLORS: wrong text color, background, borders\n" +
	"  3. LAYOUT: wrong spacing, alignment, flex direction, padding, gap\n" +
	"  4. RADIUS: wrong border-radius\n" +
	"  5. SHADOWS: missing or wrong\n" +
	"  6. CONTENT: missing text, wrong text, missing elements\n" +
	"  7. SIZING: wrong width, height, or proportions\n" +
	"  8. MISSING PAGES: build any Figma frames that don't have a corresponding route\n\n" +
	"Fix ALL issues using create_file, then call validate_screenshots again."

// Report renders the validation result as text for the model.
func Report(res *Result) string {
	var b strings.Builder
	b.WriteString("## Screenshot Validation Report\n")
	fmt.Fprintf(&b, "Project: %s\n", res.Project)
	fmt.Fprintf(&b, "App pages captured: %d\n", len(res.Captures))
	fmt.Fprintf(&b, "Figma frames found: %d\n\n", len(res.Frames))

	if len(res.Pairs) > 0 {
		b.WriteString("### Page-by-Page Comparison\n")
		b.WriteString("Images are sent in pairs: FIGMA (target) then APP (actual) for each page.\n\n")
		for _, p := range res.Pairs {
			match := "name match"
			if p.Positional {
				match = "matched by position"
			}
			fmt.Fprintf(&b, "  **Page %d**: Figma frame %q vs App route %q (%s)\n",
				p.Index, p.Frame.Name, p.Capture.Route, match)
			fmt.Fprintf(&b, "    - Figma: %s\n", filepath.Base(p.Frame.ImagePath))
			fmt.Fprintf(&b, "    - App:   %s\n", filepath.Base(p.Capture.Path))
		}
		b.WriteString("\n")
	}

	if len(res.ExtraRoutes) > 0 {
		b.WriteString("### Extra App Routes (no matching Figma frame)\n")
		for _, c := range res.ExtraRoutes {
			fmt.Fprintf(&b, "  - %s -> %s\n", c.Route, filepath.Base(c.Path))
		}
		b.WriteString("\n")
	}

	if len(res.Missing) > 0 {
		b.WriteString("### MISSING: Figma frames NOT built in the app\n")
		for _, f := range res.Missing {
			fmt.Fprintf(&b, "  - %q (id: %s): THIS PAGE IS MISSING, BUILD IT!\n", f.Name, f.ID)
		}
		b.WriteString("\n")
	}

	if len(res.Errors) > 0 {
		b.WriteString("### Errors\n")
		for _, err := range res.Errors {
			fmt.Fprintf(&b, "  - %v\n", err)
		}
		b.WriteString("\n")
	}

	b.WriteString(checklist)
	return b.String()
}
