package figma

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cft-yamuna/quiz-agent/internal/fileutil"
)

// DefaultExportLimit caps how many frames are exported per fetch.
const DefaultExportLimit = 10

// ExportedFrame is a frame with its rendered image on disk.
type ExportedFrame struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Page      string `json:"page"`
	ImagePath string `json:"image_path"`
}

// FetchOptions controls FetchDesign.
type FetchOptions struct {
	PageName    string
	ExportLimit int
	Scale       int
	MaxChars    int
}

// Design is the outcome of a design fetch.
type Design struct {
	Report string
	Frames []ExportedFrame
}

// FetchDesign downloads the document, renders the flattened report and
// exports frame images. Export failures are noted in the report rather
// than returned.
func (c *Client) FetchDesign(ctx context.Context, ref Ref, opts FetchOptions) (*Design, error) {
	f, err := c.File(ctx, ref)
	if err != nil {
		return nil, err
	}

	report := Render(Flatten(f), RenderOptions{PageName: opts.PageName, NodeID: ref.NodeID})

	frames, exportErr := c.ExportFrames(ctx, ref, CollectFrames(f), opts.ExportLimit, opts.Scale)
	if exportErr != nil {
		report += fmt.Sprintf("\n\n(Could not export frame images: %v)", exportErr)
	}
	report += FramesSection(frames)

	max := opts.MaxChars
	if max <= 0 {
		max = DefaultReportChars
	}
	return &Design{Report: Truncate(report, max), Frames: frames}, nil
}

// ExportFrames exports up to limit frames and records them in the frames
// manifest so later validation knows which designs are current.
func (c *Client) ExportFrames(ctx context.Context, ref Ref, frames []Frame, limit, scale int) ([]ExportedFrame, error) {
	if limit <= 0 {
		limit = DefaultExportLimit
	}
	if len(frames) > limit {
		frames = frames[:limit]
	}
	if len(frames) == 0 {
		return nil, nil
	}

	ids := make([]string, len(frames))
	for i, fr := range frames {
		ids[i] = fr.ID
	}
	paths, err := c.ExportImages(ctx, ref, ids, scale)

	var exported []ExportedFrame
	for _, fr := range frames {
		if p, ok := paths[fr.ID]; ok {
			exported = append(exported, ExportedFrame{ID: fr.ID, Name: fr.Name, Page: fr.Page, ImagePath: p})
		}
	}
	if len(exported) > 0 {
		if werr := SaveManifest(c.cacheDir, exported); werr != nil && err == nil {
			err = werr
		}
	}
	return exported, err
}

// FramesSection lists exported frames for the report text.
func FramesSection(frames []ExportedFrame) string {
	if len(frames) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\n## Frame Screenshots (sent as images for visual reference)\n")
	for _, f := range frames {
		fmt.Fprintf(&b, "  - %s (%s): %s\n", f.Name, f.Page, f.ImagePath)
	}
	return b.String()
}

// SaveManifest writes the current frames manifest into dir.
func SaveManifest(dir string, frames []ExportedFrame) error {
	if dir == "" {
		return nil
	}
	return fileutil.WriteJSON(filepath.Join(dir, FramesManifest), frames)
}

// LoadManifest reads the frames manifest from dir. A missing manifest
// yields no frames and no error.
func LoadManifest(dir string) ([]ExportedFrame, error) {
	data, err := os.ReadFile(filepath.Join(dir, FramesManifest))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var frames []ExportedFrame
	if err := json.Unmarshal(data, &frames); err != nil {
		return nil, fmt.Errorf("failed to parse frames manifest: %w", err)
	}
	return frames, nil
}
