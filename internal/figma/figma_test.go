package figma

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) *File {
	t.Helper()
	data, err := os.ReadFile("testdata/quiz_file.json")
	require.NoError(t, err)
	var f File
	require.NoError(t, json.Unmarshal(data, &f))
	return &f
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		in   string
		want Ref
	}{
		{"AbC123xyz", Ref{FileKey: "AbC123xyz"}},
		{"https://www.figma.com/file/AbC123/Quiz-App", Ref{FileKey: "AbC123"}},
		{"https://www.figma.com/design/AbC123/Quiz?node-id=12-345&t=x", Ref{FileKey: "AbC123", NodeID: "12:345"}},
		{"https://www.figma.com/proto/AbC123/Quiz?node-id=1%3A2", Ref{FileKey: "AbC123", NodeID: "1:2"}},
		{"  https://figma.com/design/Key9/Title  ", Ref{FileKey: "Key9"}},
	}
	for _, tt := range tests {
		got, err := ParseURL(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseURL("https://example.com/design/AbC")
	assert.Error(t, err)
}

func TestRefCacheKey(t *testing.T) {
	assert.Equal(t, "Key", Ref{FileKey: "Key"}.CacheKey())
	assert.Equal(t, "Key_1-2", Ref{FileKey: "Key", NodeID: "1:2"}.CacheKey())
}

func TestExtractURL(t *testing.T) {
	u, ok := ExtractURL("build this: https://www.figma.com/design/AbC/Quiz?node-id=1-2. thanks")
	require.True(t, ok)
	assert.Equal(t, "https://www.figma.com/design/AbC/Quiz?node-id=1-2", u)

	_, ok = ExtractURL("no link here")
	assert.False(t, ok)
}

func TestCollectFrames(t *testing.T) {
	frames := CollectFrames(loadFixture(t))
	assert.Equal(t, []Frame{
		{ID: "1:1", Name: "Home", Page: "Quiz"},
		{ID: "1:2", Name: "Question", Page: "Quiz"},
		{ID: "1:3", Name: "Results", Page: "Quiz"},
		{ID: "2:1", Name: "Old Home", Page: "Archive"},
	}, frames)
}

func TestFlatten(t *testing.T) {
	spec := Flatten(loadFixture(t))

	assert.Equal(t, "Space Quiz", spec.FileName)
	assert.Equal(t, []string{"#0f172a", "#7c3aed", "#ffffff"}, spec.Colors)
	assert.Equal(t, []string{"Inter"}, spec.Fonts, "hidden layers are skipped")
	assert.Equal(t, []float64{16, 24, 32}, spec.FontSizes)

	require.Len(t, spec.Typography, 4)
	assert.Equal(t, 2, spec.Typography[0].Uses, "title and score share a style")
	assert.Equal(t, "font-family: 'Inter'; font-size: 32px; font-weight: 700; line-height: 40px", spec.Typography[0].CSS())

	require.Len(t, spec.Texts, 7)
	assert.Equal(t, TextEntry{Text: "Space Quiz", Frame: "Home", Page: "Quiz", Size: 32, Style: 0}, spec.Texts[0])
	assert.Equal(t, -1, spec.Texts[6].Style)

	assert.Equal(t, []Interactive{
		{Name: "Start Button", Text: "Start Quiz", Frame: "Home", Page: "Quiz", Type: "button"},
		{Name: "Option", Text: "Jupiter", Frame: "Question", Page: "Quiz", Type: "clickable"},
		{Name: "Next Button", Text: "Next", Frame: "Question", Page: "Quiz", Type: "button"},
		{Name: "Restart Button", Text: "Play Again", Frame: "Results", Page: "Quiz", Type: "button"},
	}, spec.Interactive)
}

func TestFlattenCSS(t *testing.T) {
	spec := Flatten(loadFixture(t))
	home := spec.Pages[0].Nodes[0]

	assert.Equal(t, []string{
		"width: 1440px", "height: 900px",
		"background: #0f172a",
		"display: flex", "flex-direction: column", "gap: 24px",
		"padding: 64px 32px 64px 32px",
		"justify-content: center", "align-items: center",
	}, home.CSS)

	button := home.Children[1]
	assert.Contains(t, button.CSS, "border-radius: 12px")
	assert.Contains(t, button.CSS, "box-shadow: 0px 4px 8px 0px rgba(0, 0, 0, 0.25)")
	assert.Contains(t, button.Children[0].CSS, "text-transform: uppercase")
	assert.Contains(t, button.Children[0].CSS, "color: #ffffff")

	option := spec.Pages[0].Nodes[1].Children[1]
	assert.Contains(t, option.CSS, "background: rgba(255, 255, 255, 0.1)")
	assert.Contains(t, option.CSS, "border: 2px solid #ffffff")
}

func TestFlattenDepthCap(t *testing.T) {
	leaf := Node{ID: "deep", Name: "Deep Text", Type: "TEXT", Characters: "bottom"}
	n := leaf
	for i := 0; i < 20; i++ {
		n = Node{ID: "g", Name: "Group", Type: "GROUP", Children: []Node{n}}
	}
	f := &File{Document: Node{Type: "DOCUMENT", Children: []Node{{Name: "Page", Type: "CANVAS", Children: []Node{n}}}}}

	spec := Flatten(f)
	depth := 0
	for node := spec.Pages[0].Nodes[0]; len(node.Children) > 0; node = node.Children[0] {
		depth++
	}
	assert.Equal(t, MaxDepth, depth)
	assert.Empty(t, spec.Texts)
}

func TestClassify(t *testing.T) {
	kind, ok := Classify(&Node{Name: "CTA Primary"})
	assert.True(t, ok)
	assert.Equal(t, "button", kind)

	kind, ok = Classify(&Node{Name: "Card", Type: "INSTANCE"})
	assert.True(t, ok)
	assert.Equal(t, "clickable", kind)

	_, ok = Classify(&Node{Name: "Background", Type: "RECTANGLE", CornerRadius: 4, Fills: []Paint{{Type: "SOLID"}}})
	assert.False(t, ok, "rounded box without text is decoration")

	_, ok = Classify(&Node{Name: "Title", Type: "TEXT"})
	assert.False(t, ok)
}

func TestRender(t *testing.T) {
	spec := Flatten(loadFixture(t))
	out := Render(spec, RenderOptions{})

	for _, section := range []string{
		"# Figma Design: Space Quiz",
		"## Colors (3 found)",
		"## Fonts\n  - Inter",
		"## Font Sizes\n  16px, 24px, 32px",
		"## Typography Styles",
		"  - T1: font-family: 'Inter'; font-size: 32px; font-weight: 700; line-height: 40px; (used 2 times)",
		"## Text Content (use these EXACT strings in the app)",
		"  ### Home\n    - \"Space Quiz\" (32px, T1)",
		"  - [BUTTON] \"Start Quiz\" (in frame: Home, layer: Start Button)",
		"  IMPORTANT: If a button says 'Start Quiz', 'Next', 'Submit', etc.,",
		"### Page: Quiz",
		"### Page: Archive",
		"    - [TEXT] \"Space Quiz\" (",
	} {
		assert.Contains(t, out, section)
	}

	// sections keep their priority order
	assert.Less(t, strings.Index(out, "## Colors"), strings.Index(out, "## Text Content"))
	assert.Less(t, strings.Index(out, "## Interactive Elements"), strings.Index(out, "## Layout Structure"))
}

func TestRenderPageFilterAndNodeHeader(t *testing.T) {
	spec := Flatten(loadFixture(t))
	out := Render(spec, RenderOptions{PageName: "archive", NodeID: "2:1"})

	assert.True(t, strings.HasPrefix(out, "## Figma Design (targeting node 2:1 from URL)"))
	assert.Contains(t, out, "### Page: Archive")
	assert.NotContains(t, out, "### Page: Quiz")
	assert.NotContains(t, out, "## Interactive Elements")

	all := Render(spec, RenderOptions{PageName: "missing"})
	assert.Contains(t, all, "### Page: Quiz", "unknown page keeps everything")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcde\n... (truncated)", Truncate("abcdefghij", 5))
	assert.Equal(t, "héll\n... (truncated)", Truncate("héllo", 4))
}
