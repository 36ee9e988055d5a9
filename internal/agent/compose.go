package agent

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"google.golang.org/genai"

	"github.com/cft-yamuna/quiz-agent/internal/logging"
	"github.com/cft-yamuna/quiz-agent/internal/tools"
)

const (
	comparisonHeader = "PAGE-BY-PAGE COMPARISON: For each page below, " +
		"the FIRST image is the FIGMA DESIGN (target) and " +
		"the SECOND image is the APP (what was built)."

	comparisonChecklist = "For EACH page pair above, compare FIGMA TARGET vs APP ACTUAL. " +
		"List EVERY difference you find:\n" +
		"1. FONTS: wrong family, size, weight, line-height, letter-spacing?\n" +
		"2. COLORS: wrong text color, background, border color?\n" +
		"3. LAYOUT: wrong flex direction, gap, padding, alignment, spacing?\n" +
		"4. RADIUS: wrong border-radius values?\n" +
		"5. SHADOWS: missing or wrong box-shadow?\n" +
		"6. CONTENT: missing text, wrong text, missing elements?\n" +
		"7. SIZING: wrong width, height, or proportions?\n" +
		"8. MISSING PAGES: any Figma frames without an app page?\n\n" +
		"Fix EVERY difference using create_file, then call validate_screenshots again."

	referenceHeader = "--- FIGMA DESIGN SCREENSHOTS (replicate these EXACTLY) ---"

	referenceInstruction = "Above are the Figma design screenshots. " +
		"Replicate this design EXACTLY, match colors, fonts, " +
		"spacing, layout, border radius, shadows, and overall look."
)

// imageLoader reads an image into a part. Tests replace it.
type imageLoader func(path string) (*genai.Part, error)

func loadImage(path string) (*genai.Part, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return genai.NewPartFromBytes(data, http.DetectContentType(data)), nil
}

// composer turns tool attachments into the image parts sent with a batch of
// function responses.
type composer struct {
	load imageLoader
	warn func(string)
}

// compose returns the extra parts for atts. When both design frames and app
// captures are present the images are laid out page by page; design frames
// alone are sent as a reference to replicate. Unreadable images are skipped.
func (c composer) compose(atts []tools.Attachment) (parts []*genai.Part, images int) {
	var hasDesign, hasApp bool
	for _, a := range atts {
		if a.Kind == tools.AppCapture {
			hasApp = true
		} else {
			hasDesign = true
		}
	}

	switch {
	case hasDesign && hasApp:
		return c.comparison(atts)
	case hasDesign:
		return c.reference(atts)
	default:
		// Captures without a design have nothing to compare against.
		return nil, 0
	}
}

func (c composer) comparison(atts []tools.Attachment) ([]*genai.Part, int) {
	parts := []*genai.Part{genai.NewPartFromText(comparisonHeader)}
	images := 0
	add := func(a tools.Attachment, label string) {
		if p := c.image(a.Path); p != nil {
			parts = append(parts, p, genai.NewPartFromText(fmt.Sprintf("[%s] %s", label, filepath.Base(a.Path))))
			images++
		}
	}

	page := 0
	for i := 0; i < len(atts); i++ {
		a := atts[i]
		if a.Kind == tools.DesignFrame && i+1 < len(atts) && atts[i+1].Kind == tools.AppCapture {
			page++
			parts = append(parts, genai.NewPartFromText(fmt.Sprintf("--- PAGE %d ---", page)))
			add(a, "FIGMA TARGET")
			add(atts[i+1], "APP ACTUAL")
			i++
			continue
		}
		if a.Kind == tools.DesignFrame {
			add(a, "FIGMA (unpaired)")
		} else {
			add(a, "APP (extra page)")
		}
	}

	parts = append(parts, genai.NewPartFromText(comparisonChecklist))
	return parts, images
}

func (c composer) reference(atts []tools.Attachment) ([]*genai.Part, int) {
	parts := []*genai.Part{genai.NewPartFromText(referenceHeader)}
	images := 0
	for _, a := range atts {
		if p := c.image(a.Path); p != nil {
			parts = append(parts, p, genai.NewPartFromText("Figma frame: "+filepath.Base(a.Path)))
			images++
		}
	}
	parts = append(parts, genai.NewPartFromText(referenceInstruction))
	return parts, images
}

func (c composer) image(path string) *genai.Part {
	load := c.load
	if load == nil {
		load = loadImage
	}
	p, err := load(path)
	if err != nil {
		logging.Warn("could not load image", "path", path, "error", err)
		if c.warn != nil {
			c.warn(fmt.Sprintf("Could not load image %s: %v", path, err))
		}
		return nil
	}
	return p
}
