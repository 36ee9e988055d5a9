package figma

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// MaxDepth bounds the recursion below a top-level frame.
const MaxDepth = 8

// controlKeywords mark a layer name as a clickable control.
var controlKeywords = []string{
	"button", "btn", "cta", "submit", "next", "start", "continue",
	"back", "login", "signup", "sign up", "sign in", "register",
	"play", "go", "send", "save", "cancel", "close", "menu",
	"nav", "link", "tab", "card", "click", "action",
}

// buttonKeywords upgrade a control from "clickable" to "button".
var buttonKeywords = []string{"button", "btn", "cta"}

// Spec is a design document flattened into CSS-ready facts.
type Spec struct {
	FileName    string
	Colors      []string
	Fonts       []string
	FontSizes   []float64
	Typography  []Typography
	Texts       []TextEntry
	Interactive []Interactive
	Pages       []Page
}

// Typography is one deduplicated text style.
type Typography struct {
	Family        string
	Size          float64
	Weight        float64
	LineHeight    float64
	LetterSpacing float64
	Italic        bool
	Uses          int
}

// CSS renders the style as declarations.
func (t Typography) CSS() string {
	var decls []string
	if t.Family != "" {
		decls = append(decls, fmt.Sprintf("font-family: '%s'", t.Family))
	}
	if t.Size > 0 {
		decls = append(decls, "font-size: "+px(t.Size))
	}
	if t.Weight > 0 {
		decls = append(decls, "font-weight: "+num(t.Weight))
	}
	if t.LineHeight > 0 {
		decls = append(decls, "line-height: "+px(t.LineHeight))
	}
	if t.LetterSpacing != 0 {
		decls = append(decls, "letter-spacing: "+px(t.LetterSpacing))
	}
	if t.Italic {
		decls = append(decls, "font-style: italic")
	}
	return strings.Join(decls, "; ")
}

type typographyKey struct {
	family        string
	size          float64
	weight        float64
	lineHeight    float64
	letterSpacing float64
	italic        bool
}

// TextEntry is a text string found in a frame. Style indexes Spec.Typography
// and is -1 for unstyled text.
type TextEntry struct {
	Text  string
	Frame string
	Page  string
	Size  float64
	Style int
}

// Interactive describes a control the built app must wire up.
type Interactive struct {
	Name  string `json:"name"`
	Text  string `json:"text"`
	Frame string `json:"frame"`
	Page  string `json:"page"`
	Type  string `json:"type"`
}

// Page is a document page with its flattened layout tree.
type Page struct {
	Name  string
	Nodes []*NodeSpec
}

// NodeSpec is one layer of the layout tree.
type NodeSpec struct {
	Name     string
	Type     string
	Text     string
	Width    int
	Height   int
	CSS      []string
	Children []*NodeSpec
}

// Classify reports whether a node looks like a clickable control and which
// kind. It does not look at depth or text; callers decide whether the
// element is worth listing.
func Classify(n *Node) (kind string, ok bool) {
	name := strings.ToLower(n.Name)

	keyword := false
	for _, kw := range controlKeywords {
		if strings.Contains(name, kw) {
			keyword = true
			break
		}
	}
	styledBox := n.CornerRadius > 0 && len(n.Fills) > 0 && hasTextDescendant(n)

	if !keyword && n.Type != "INSTANCE" && !styledBox {
		return "", false
	}
	for _, kw := range buttonKeywords {
		if strings.Contains(name, kw) {
			return "button", true
		}
	}
	return "clickable", true
}

func hasTextDescendant(n *Node) bool {
	for i := range n.Children {
		if n.Children[i].Type == "TEXT" || hasTextDescendant(&n.Children[i]) {
			return true
		}
	}
	return false
}

// allText joins the text of a node and its descendants.
func allText(n *Node) string {
	var parts []string
	if n.Type == "TEXT" {
		if s := strings.TrimSpace(n.Characters); s != "" {
			parts = append(parts, s)
		}
	}
	for i := range n.Children {
		if s := allText(&n.Children[i]); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

type flattener struct {
	spec      *Spec
	colors    map[string]bool
	fonts     map[string]bool
	sizes     map[float64]bool
	typeIndex map[typographyKey]int
}

// Flatten reduces a document into a Spec. Invisible layers are skipped and
// recursion stops MaxDepth levels below each top-level frame.
func Flatten(f *File) *Spec {
	fl := &flattener{
		spec:      &Spec{FileName: f.Name},
		colors:    make(map[string]bool),
		fonts:     make(map[string]bool),
		sizes:     make(map[float64]bool),
		typeIndex: make(map[typographyKey]int),
	}

	for i := range f.Document.Children {
		page := &f.Document.Children[i]
		p := Page{Name: page.Name}
		for j := range page.Children {
			top := &page.Children[j]
			if !top.IsVisible() {
				continue
			}
			p.Nodes = append(p.Nodes, fl.node(top, 0, top.Name, page.Name))
		}
		fl.spec.Pages = append(fl.spec.Pages, p)
	}

	for c := range fl.colors {
		fl.spec.Colors = append(fl.spec.Colors, c)
	}
	sort.Strings(fl.spec.Colors)
	for font := range fl.fonts {
		fl.spec.Fonts = append(fl.spec.Fonts, font)
	}
	sort.Strings(fl.spec.Fonts)
	for s := range fl.sizes {
		fl.spec.FontSizes = append(fl.spec.FontSizes, s)
	}
	sort.Float64s(fl.spec.FontSizes)

	return fl.spec
}

func (fl *flattener) node(n *Node, depth int, frame, page string) *NodeSpec {
	ns := &NodeSpec{Name: n.Name, Type: n.Type}
	if bb := n.AbsoluteBoundingBox; bb != nil {
		ns.Width = int(math.Round(bb.Width))
		ns.Height = int(math.Round(bb.Height))
	}

	isText := n.Type == "TEXT"
	if isText {
		ns.Text = n.Characters
	}

	ns.CSS = fl.css(n, ns, isText)

	if isText {
		if text := strings.TrimSpace(n.Characters); text != "" {
			entry := TextEntry{Text: text, Frame: frame, Page: page, Style: -1}
			if n.Style != nil {
				entry.Size = n.Style.FontSize
				entry.Style = fl.typography(n.Style)
			}
			fl.spec.Texts = append(fl.spec.Texts, entry)
		}
	}

	if depth > 0 {
		if kind, ok := Classify(n); ok {
			if label := allText(n); label != "" {
				fl.spec.Interactive = append(fl.spec.Interactive, Interactive{
					Name:  n.Name,
					Text:  label,
					Frame: frame,
					Page:  page,
					Type:  kind,
				})
			}
		}
	}

	if depth < MaxDepth {
		for i := range n.Children {
			child := &n.Children[i]
			if !child.IsVisible() {
				continue
			}
			ns.Children = append(ns.Children, fl.node(child, depth+1, frame, page))
		}
	}
	return ns
}

func (fl *flattener) typography(s *TypeStyle) int {
	key := typographyKey{
		family:        s.FontFamily,
		size:          s.FontSize,
		weight:        s.FontWeight,
		lineHeight:    s.LineHeightPx,
		letterSpacing: s.LetterSpacing,
		italic:        s.Italic,
	}
	if idx, ok := fl.typeIndex[key]; ok {
		fl.spec.Typography[idx].Uses++
		return idx
	}
	fl.spec.Typography = append(fl.spec.Typography, Typography{
		Family:        s.FontFamily,
		Size:          s.FontSize,
		Weight:        s.FontWeight,
		LineHeight:    s.LineHeightPx,
		LetterSpacing: s.LetterSpacing,
		Italic:        s.Italic,
		Uses:          1,
	})
	idx := len(fl.spec.Typography) - 1
	fl.typeIndex[key] = idx
	return idx
}

// css builds the CSS-equivalent declarations for a node and records the
// palette and font facts it finds.
func (fl *flattener) css(n *Node, ns *NodeSpec, isText bool) []string {
	var decls []string

	if ns.Width > 0 && ns.Height > 0 {
		hugW, hugH := hugs(n)
		w, h := fmt.Sprintf("%dpx", ns.Width), fmt.Sprintf("%dpx", ns.Height)
		if hugW {
			w = "fit-content"
		}
		if hugH {
			h = "fit-content"
		}
		decls = append(decls, "width: "+w, "height: "+h)
	}

	for _, p := range n.Fills {
		if p.Visible != nil && !*p.Visible {
			continue
		}
		switch {
		case p.Type == "SOLID" && p.Color != nil:
			fl.colors[hexColor(*p.Color)] = true
			prop := "background"
			if isText {
				prop = "color"
			}
			decls = append(decls, prop+": "+cssColor(*p.Color, p.Opacity))
		case strings.HasPrefix(p.Type, "GRADIENT_"):
			decls = append(decls, "background: "+gradient(p))
		}
	}

	for _, p := range n.Strokes {
		if p.Type != "SOLID" || p.Color == nil || (p.Visible != nil && !*p.Visible) {
			continue
		}
		fl.colors[hexColor(*p.Color)] = true
		weight := n.StrokeWeight
		if weight == 0 {
			weight = 1
		}
		decls = append(decls, fmt.Sprintf("border: %s solid %s", px(weight), cssColor(*p.Color, p.Opacity)))
	}

	if len(n.RectangleCornerRadii) == 4 && !uniform(n.RectangleCornerRadii) {
		r := n.RectangleCornerRadii
		decls = append(decls, fmt.Sprintf("border-radius: %s %s %s %s", px(r[0]), px(r[1]), px(r[2]), px(r[3])))
	} else if n.CornerRadius > 0 {
		decls = append(decls, "border-radius: "+px(n.CornerRadius))
	}

	decls = append(decls, layoutCSS(n)...)

	if s := n.Style; s != nil {
		if s.FontFamily != "" {
			fl.fonts[s.FontFamily] = true
			decls = append(decls, fmt.Sprintf("font-family: '%s'", s.FontFamily))
		}
		if s.FontSize > 0 {
			fl.sizes[s.FontSize] = true
			decls = append(decls, "font-size: "+px(s.FontSize))
		}
		if s.FontWeight > 0 {
			decls = append(decls, "font-weight: "+num(s.FontWeight))
		}
		if s.LineHeightPx > 0 {
			decls = append(decls, "line-height: "+px(s.LineHeightPx))
		}
		if s.LetterSpacing != 0 {
			decls = append(decls, "letter-spacing: "+px(s.LetterSpacing))
		}
		if align := textAlign(s.TextAlignHorizontal); align != "" {
			decls = append(decls, "text-align: "+align)
		}
		if tc := textTransform(s.TextCase); tc != "" {
			decls = append(decls, "text-transform: "+tc)
		}
		if s.TextDecoration == "UNDERLINE" {
			decls = append(decls, "text-decoration: underline")
		} else if s.TextDecoration == "STRIKETHROUGH" {
			decls = append(decls, "text-decoration: line-through")
		}
		if s.Italic {
			decls = append(decls, "font-style: italic")
		}
	}

	decls = append(decls, effectsCSS(n.Effects)...)

	if n.Opacity != nil && *n.Opacity < 1 {
		decls = append(decls, "opacity: "+num(round2(*n.Opacity)))
	}
	return decls
}

func layoutCSS(n *Node) []string {
	var decls []string
	if n.LayoutMode == "HORIZONTAL" || n.LayoutMode == "VERTICAL" {
		dir := "row"
		if n.LayoutMode == "VERTICAL" {
			dir = "column"
		}
		decls = append(decls, "display: flex", "flex-direction: "+dir)
		if n.LayoutWrap == "WRAP" {
			decls = append(decls, "flex-wrap: wrap")
		}
		if n.ItemSpacing > 0 {
			decls = append(decls, "gap: "+px(n.ItemSpacing))
		}
		if n.PaddingTop > 0 || n.PaddingRight > 0 || n.PaddingBottom > 0 || n.PaddingLeft > 0 {
			decls = append(decls, fmt.Sprintf("padding: %s %s %s %s",
				px(n.PaddingTop), px(n.PaddingRight), px(n.PaddingBottom), px(n.PaddingLeft)))
		}
		if v := flexAlign(n.PrimaryAxisAlignItems); v != "" {
			decls = append(decls, "justify-content: "+v)
		}
		if v := flexAlign(n.CounterAxisAlignItems); v != "" {
			decls = append(decls, "align-items: "+v)
		}
	}

	if n.LayoutGrow > 0 {
		decls = append(decls, "flex-grow: "+num(n.LayoutGrow))
	}
	if n.LayoutAlign == "STRETCH" {
		decls = append(decls, "align-self: stretch")
	}

	for _, c := range []struct {
		prop string
		v    *float64
	}{
		{"min-width", n.MinWidth}, {"max-width", n.MaxWidth},
		{"min-height", n.MinHeight}, {"max-height", n.MaxHeight},
	} {
		if c.v != nil && *c.v > 0 {
			decls = append(decls, c.prop+": "+px(*c.v))
		}
	}
	return decls
}

// hugs reports which axes of an auto-layout node size to their contents.
func hugs(n *Node) (width, height bool) {
	primary := n.PrimaryAxisSizingMode == "AUTO"
	counter := n.CounterAxisSizingMode == "AUTO"
	switch n.LayoutMode {
	case "HORIZONTAL":
		return primary, counter
	case "VERTICAL":
		return counter, primary
	}
	return false, false
}

func effectsCSS(effects []Effect) []string {
	var shadows, decls []string
	for _, e := range effects {
		if e.Visible != nil && !*e.Visible {
			continue
		}
		switch e.Type {
		case "DROP_SHADOW", "INNER_SHADOW":
			var x, y float64
			if e.Offset != nil {
				x, y = e.Offset.X, e.Offset.Y
			}
			color := "rgba(0, 0, 0, 0.25)"
			if e.Color != nil {
				color = cssColor(*e.Color, nil)
			}
			s := fmt.Sprintf("%s %s %s %s %s", px(x), px(y), px(e.Radius), px(e.Spread), color)
			if e.Type == "INNER_SHADOW" {
				s = "inset " + s
			}
			shadows = append(shadows, s)
		case "LAYER_BLUR":
			decls = append(decls, fmt.Sprintf("filter: blur(%s)", px(e.Radius)))
		case "BACKGROUND_BLUR":
			decls = append(decls, fmt.Sprintf("backdrop-filter: blur(%s)", px(e.Radius)))
		}
	}
	if len(shadows) > 0 {
		decls = append([]string{"box-shadow: " + strings.Join(shadows, ", ")}, decls...)
	}
	return decls
}

func gradient(p Paint) string {
	stops := make([]string, len(p.GradientStops))
	for i, s := range p.GradientStops {
		stops[i] = fmt.Sprintf("%s %s%%", cssColor(s.Color, nil), num(math.Round(s.Position*100)))
	}
	if p.Type == "GRADIENT_RADIAL" {
		return "radial-gradient(" + strings.Join(stops, ", ") + ")"
	}
	// handle positions are not mapped; top-to-bottom is the common export
	return "linear-gradient(" + strings.Join(append([]string{"180deg"}, stops...), ", ") + ")"
}

func hexColor(c Color) string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

// cssColor renders hex for opaque colors and rgba otherwise.
func cssColor(c Color, opacity *float64) string {
	a := c.A
	if opacity != nil {
		a *= *opacity
	}
	if a >= 1 {
		return hexColor(c)
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", channel(c.R), channel(c.G), channel(c.B), num(round2(a)))
}

func channel(v float64) int {
	n := int(math.Round(v * 255))
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return n
}

func flexAlign(v string) string {
	switch v {
	case "MIN":
		return "flex-start"
	case "CENTER":
		return "center"
	case "MAX":
		return "flex-end"
	case "SPACE_BETWEEN":
		return "space-between"
	case "BASELINE":
		return "baseline"
	}
	return ""
}

func textAlign(v string) string {
	switch v {
	case "LEFT":
		return "left"
	case "CENTER":
		return "center"
	case "RIGHT":
		return "right"
	case "JUSTIFIED":
		return "justify"
	}
	return ""
}

func textTransform(v string) string {
	switch v {
	case "UPPER":
		return "uppercase"
	case "LOWER":
		return "lowercase"
	case "TITLE":
		return "capitalize"
	}
	return ""
}

func uniform(r []float64) bool {
	for _, v := range r[1:] {
		if v != r[0] {
			return false
		}
	}
	return true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// num formats without trailing zeros.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func px(v float64) string {
	return num(round2(v)) + "px"
}
