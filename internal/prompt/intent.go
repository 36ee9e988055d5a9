package prompt

import (
	"regexp"
	"strings"
)

// designKeywords are matched as substrings of the lowercased input.
var designKeywords = []string{
	"design", "figma", "mockup", "wireframe", "prototype",
	"visual", "pixel-perfect", "pixel perfect",
	"styling", "theme", "color scheme", "color palette",
	"typography", "layout", "responsive", "gradient", "shadow",
	"border-radius", "rounded",
	"landing page", "homepage", "dashboard", "navbar", "sidebar",
	"hero section", "footer", "header", "modal", "popup",
	"beautiful", "modern", "sleek", "elegant", "polished", "professional",
	"minimal", "stylish", "gorgeous", "stunning", "attractive",
	"good-looking", "good looking", "nice looking", "nice-looking", "pretty",
}

// Short keywords need word boundaries so "ui" does not match "quiz".
var shortKeyword = regexp.MustCompile(`(?i)\b(ui|ux|css)\b`)

var designPhrases = []*regexp.Regexp{
	regexp.MustCompile(`match(?:ing)?\s+(?:the\s+)?design`),
	regexp.MustCompile(`look(?:s)?\s+like\s+(?:the\s+)?(?:design|mockup|figma)`),
	regexp.MustCompile(`follow(?:ing)?\s+(?:the\s+)?design`),
	regexp.MustCompile(`based\s+on\s+(?:the\s+)?(?:design|figma)`),
	regexp.MustCompile(`(?:make|build|create)\s+(?:it\s+)?(?:look|beautiful|pretty|modern)`),
	regexp.MustCompile(`exact(?:ly)?\s+(?:like|as)\s+(?:the\s+)?(?:design|figma)`),
}

// HasDesignIntent reports whether the input asks for visual or UI work.
func HasDesignIntent(input string) bool {
	lower := strings.ToLower(input)
	for _, kw := range designKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	if shortKeyword.MatchString(input) {
		return true
	}
	for _, re := range designPhrases {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

// FigmaMode says how prominently the system prompt pushes the design file.
type FigmaMode string

const (
	FigmaActive    FigmaMode = "active"
	FigmaAvailable FigmaMode = "available"
	FigmaNone      FigmaMode = "none"
)

// ModeFor picks the Figma mode for a run.
func ModeFor(figmaConfigured bool, input string) FigmaMode {
	switch {
	case figmaConfigured && HasDesignIntent(input):
		return FigmaActive
	case figmaConfigured:
		return FigmaAvailable
	default:
		return FigmaNone
	}
}

// AddFigmaHint appends a bracketed directive to the brief. Inputs that
// already mention figma are returned unchanged.
func AddFigmaHint(input string, figmaConfigured bool, figmaURL string) string {
	if strings.Contains(strings.ToLower(input), "figma") {
		return input
	}
	targeted := strings.Contains(figmaURL, "node-id=")
	intent := HasDesignIntent(input)

	var hint string
	switch {
	case figmaConfigured && intent:
		hint = "\n\n[SYSTEM DIRECTIVE: This is a design/UI task and a Figma design file is connected. " +
			"You MUST call fetch_figma_design BEFORE writing any code. " +
			"Build the app to match the Figma design EXACTLY, this is your #1 priority. " +
			"Do NOT start coding until you have fetched and studied the design specs."
		if targeted {
			hint += " The Figma URL targets a SPECIFIC page/section, focus only on the frames returned."
		}
		hint += "]"
	case figmaConfigured:
		hint = "\n\n[System: A Figma design file is connected. " +
			"Use fetch_figma_design to get design specs if you need visual reference."
		if targeted {
			hint += " The URL targets a specific page/section."
		}
		hint += "]"
	case intent:
		hint = "\n\n[System: This appears to be a design/UI focused task. " +
			"No Figma design file is connected. Apply strong visual design principles: " +
			"create a polished, professional UI with consistent colors, typography and spacing. " +
			"Tip: For pixel-perfect results, the user can connect a Figma file by setting " +
			"FIGMA_URL and FIGMA_ACCESS_TOKEN in .env or pasting a Figma link in their prompt.]"
	}
	return input + hint
}
