package figma

import (
	"fmt"
	"strings"
)

// DefaultReportChars is the default character budget for a rendered report.
const DefaultReportChars = 15000

const truncationNote = "\n... (truncated)"

// RenderOptions narrows and labels a rendered report.
type RenderOptions struct {
	// PageName keeps only pages whose name contains it (case-insensitive).
	// When no page matches, every page is kept.
	PageName string
	// NodeID adds a header saying the report covers a single node.
	NodeID string
}

// Render serializes a Spec into the text report sent to the model. The
// sections run from most to least important so truncation drops the
// layout tree first.
func Render(spec *Spec, opts RenderOptions) string {
	pages := selectPages(spec.Pages, opts.PageName)
	keep := make(map[string]bool, len(pages))
	for _, p := range pages {
		keep[p.Name] = true
	}

	var b strings.Builder
	if opts.NodeID != "" {
		fmt.Fprintf(&b, "## Figma Design (targeting node %s from URL)\n", opts.NodeID)
		b.WriteString("Only showing the specific page/section linked in the Figma URL.\n\n")
	}
	fmt.Fprintf(&b, "# Figma Design: %s\n\n", nameOr(spec.FileName, "Unknown"))

	if len(spec.Colors) > 0 {
		fmt.Fprintf(&b, "## Colors (%d found)\n", len(spec.Colors))
		for _, c := range spec.Colors {
			fmt.Fprintf(&b, "  - %s\n", c)
		}
		b.WriteString("\n")
	}

	if len(spec.Fonts) > 0 {
		b.WriteString("## Fonts\n")
		for _, f := range spec.Fonts {
			fmt.Fprintf(&b, "  - %s\n", f)
		}
		b.WriteString("\n")
	}

	if len(spec.FontSizes) > 0 {
		sizes := make([]string, len(spec.FontSizes))
		for i, s := range spec.FontSizes {
			sizes[i] = px(s)
		}
		fmt.Fprintf(&b, "## Font Sizes\n  %s\n\n", strings.Join(sizes, ", "))
	}

	if len(spec.Typography) > 0 {
		b.WriteString("## Typography Styles (reuse these as CSS classes)\n")
		for i, t := range spec.Typography {
			fmt.Fprintf(&b, "  - T%d: %s; (used %d times)\n", i+1, t.CSS(), t.Uses)
		}
		b.WriteString("\n")
	}

	renderTexts(&b, spec, keep)
	renderInteractive(&b, spec, keep)

	b.WriteString("## Layout Structure\n")
	for _, p := range pages {
		fmt.Fprintf(&b, "\n### Page: %s\n", p.Name)
		for _, n := range p.Nodes {
			renderNode(&b, n, 1)
		}
	}

	return b.String()
}

func renderTexts(b *strings.Builder, spec *Spec, keep map[string]bool) {
	var frames []string
	byFrame := make(map[string][]TextEntry)
	for _, t := range spec.Texts {
		if !keep[t.Page] {
			continue
		}
		frame := nameOr(t.Frame, "Unknown")
		if _, ok := byFrame[frame]; !ok {
			frames = append(frames, frame)
		}
		byFrame[frame] = append(byFrame[frame], t)
	}
	if len(frames) == 0 {
		return
	}

	b.WriteString("## Text Content (use these EXACT strings in the app)\n")
	for _, frame := range frames {
		fmt.Fprintf(b, "  ### %s\n", frame)
		for _, t := range byFrame[frame] {
			var notes []string
			if t.Size > 0 {
				notes = append(notes, px(t.Size))
			}
			if t.Style >= 0 {
				notes = append(notes, fmt.Sprintf("T%d", t.Style+1))
			}
			suffix := ""
			if len(notes) > 0 {
				suffix = " (" + strings.Join(notes, ", ") + ")"
			}
			fmt.Fprintf(b, "    - \"%s\"%s\n", t.Text, suffix)
		}
	}
	b.WriteString("\n")
}

func renderInteractive(b *strings.Builder, spec *Spec, keep map[string]bool) {
	var items []Interactive
	for _, el := range spec.Interactive {
		if keep[el.Page] {
			items = append(items, el)
		}
	}
	if len(items) == 0 {
		return
	}

	b.WriteString("## Interactive Elements (buttons, links, clickable items)\n")
	b.WriteString("  Each of these MUST be functional in the built app:\n")
	for _, el := range items {
		fmt.Fprintf(b, "  - [%s] \"%s\" (in frame: %s, layer: %s)\n", strings.ToUpper(el.Type), el.Text, el.Frame, el.Name)
	}
	b.WriteString("\n")
	b.WriteString("  IMPORTANT: If a button says 'Start Quiz', 'Next', 'Submit', etc.,\n")
	b.WriteString("  it must navigate to the correct next page/screen.\n")
	b.WriteString("  Map each button to the corresponding frame/page in the design.\n\n")
}

func renderNode(b *strings.Builder, n *NodeSpec, indent int) {
	prefix := strings.Repeat("  ", indent)
	desc := ""
	if len(n.CSS) > 0 {
		desc = " (" + strings.Join(n.CSS, "; ") + ")"
	}

	if n.Text != "" {
		preview := strings.ReplaceAll(truncateRunes(n.Text, 60), "\n", " ")
		fmt.Fprintf(b, "%s- [%s] \"%s\"%s\n", prefix, n.Type, preview, desc)
	} else {
		fmt.Fprintf(b, "%s- [%s] %s%s\n", prefix, n.Type, n.Name, desc)
	}
	for _, c := range n.Children {
		renderNode(b, c, indent+1)
	}
}

func selectPages(pages []Page, name string) []Page {
	if name == "" {
		return pages
	}
	needle := strings.ToLower(name)
	var out []Page
	for _, p := range pages {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return pages
	}
	return out
}

// Truncate cuts s to max characters and marks the cut at the end.
func Truncate(s string, max int) string {
	if max <= 0 || len([]rune(s)) <= max {
		return s
	}
	return truncateRunes(s, max) + truncationNote
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func nameOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
