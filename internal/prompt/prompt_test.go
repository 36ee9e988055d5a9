package prompt

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	files  map[string]string
	memory map[string]any
	chat   []map[string]string
}

func makeProject(t *testing.T, output, name string, fx fixture) string {
	t.Helper()
	dir := filepath.Join(output, name)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))

	pkg := map[string]any{"name": name, "dependencies": map[string]string{"react": "^18.0.0", "react-dom": "^18.0.0"}}
	writeJSON(t, filepath.Join(dir, "package.json"), pkg)
	for rel, content := range fx.files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	if fx.memory != nil {
		writeJSON(t, filepath.Join(dir, ".project_memory.json"), fx.memory)
	}
	if fx.chat != nil {
		writeJSON(t, filepath.Join(dir, ".chat_history.json"), fx.chat)
	}
	return dir
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestBuildCreateMode(t *testing.T) {
	b := NewContextBuilder(t.TempDir(), nil)
	got := b.Build("brand_new", "Build a space trivia quiz")
	assert.Equal(t, "[Project name: brand_new] [Mode: create]\nBuild a space trivia quiz", got)
}

func TestBuildModifyMode(t *testing.T) {
	output := t.TempDir()
	app := "export default function App() { return <div>Hello</div>; }"
	makeProject(t, output, "quiz_2", fixture{
		files: map[string]string{"src/App.jsx": app, "src/App.css": "body { color: red; }"},
	})

	got := NewContextBuilder(output, nil).Build("quiz_2", "make it blue")
	assert.True(t, strings.HasPrefix(got, "[Project name: quiz_2] [Mode: modify]\n[Project info]\n"))
	assert.Contains(t, got, "Files: src/App.css, src/App.jsx")
	assert.Contains(t, got, "node_modules: MISSING (needs npm install)")
	assert.Contains(t, got, "Dependencies: react, react-dom")
	assert.Contains(t, got, "--- src/App.jsx ---\n"+app)
	assert.Contains(t, got, "body { color: red; }")
	assert.True(t, strings.HasSuffix(got, "[/Key file contents]\nmake it blue"))
	assert.NotContains(t, got, "[Project memory]")
	assert.NotContains(t, got, "[Recent conversation]")
}

func TestBuildModifyWithMemoryAndChat(t *testing.T) {
	output := t.TempDir()
	makeProject(t, output, "quiz_2", fixture{
		files:  map[string]string{"src/App.jsx": "function App() {}"},
		memory: map[string]any{"description": "Space trivia quiz", "quiz_type": "trivia"},
		chat: []map[string]string{
			{"role": "user", "content": "build a quiz"},
			{"role": "assistant", "content": "Done! Built a quiz app."},
		},
	})

	got := NewContextBuilder(output, nil).Build("quiz_2", "now add dark mode")
	assert.Contains(t, got, "[Project memory]\nProject: Space trivia quiz\nQuiz type: trivia\n[/Project memory]")
	assert.Contains(t, got, "[Recent conversation]\n  user: build a quiz\n  assistant: Done! Built a quiz app.\n[/Recent conversation]")
}

func TestReadKeyFilesMentionedComponent(t *testing.T) {
	dir := makeProject(t, t.TempDir(), "quiz", fixture{files: map[string]string{
		"src/App.jsx":                "function App() {}",
		"src/components/Results.jsx": "function Results() { return <h1>Score</h1>; }",
		"src/components/Timer.jsx":   "function Timer() {}",
		"node_modules/x/Results.js":  "ignored",
	}})

	got := ReadKeyFiles(dir, "fix the Results component")
	assert.Contains(t, got, "--- src/components/Results.jsx ---\nfunction Results()")
	assert.NotContains(t, got, "Timer")
	assert.NotContains(t, got, "ignored")
}

func TestReadKeyFilesCap(t *testing.T) {
	dir := makeProject(t, t.TempDir(), "quiz", fixture{files: map[string]string{
		"src/App.jsx": strings.Repeat("a", 7000),
		"src/App.css": strings.Repeat("b", 5000),
	}})

	got := ReadKeyFiles(dir, "restyle")
	assert.Contains(t, got, "--- src/App.css (truncated) ---")
	assert.True(t, strings.HasSuffix(got, "\n... (truncated)\n"))
	assert.LessOrEqual(t, len(got), MaxKeyFileChars+100)

	// Too little room left: the second file is dropped entirely.
	dir = makeProject(t, t.TempDir(), "quiz", fixture{files: map[string]string{
		"src/App.jsx": strings.Repeat("a", 7900),
		"src/App.css": "body{}",
	}})
	got = ReadKeyFiles(dir, "restyle")
	assert.NotContains(t, got, "App.css")
}

func TestScanInfoWithoutSrc(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte("{bad"), 0o644))
	got := ScanInfo(dir)
	assert.Equal(t, "Files: src/ directory MISSING\nnode_modules: MISSING (needs npm install)\nDependencies: could not read package.json", got)
}

func TestHasDesignIntent(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"Build a quiz about space", false},
		{"build a beautiful quiz", true},
		{"improve the UI", true},
		{"make the css nicer", true},
		{"a quiz with 10 questions", false},
		{"make it match the design", true},
		{"build it to look like the mockup", true},
		{"add a navbar", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, HasDesignIntent(tt.input))
		})
	}
}

func TestAddFigmaHint(t *testing.T) {
	in := "build a modern quiz"
	got := AddFigmaHint(in, true, "https://figma.com/design/K/x?node-id=1-2")
	assert.Contains(t, got, "[SYSTEM DIRECTIVE: This is a design/UI task")
	assert.Contains(t, got, "targets a SPECIFIC page/section")

	got = AddFigmaHint("a quiz about cats", true, "https://figma.com/design/K/x")
	assert.True(t, strings.HasSuffix(got, "if you need visual reference.]"))

	got = AddFigmaHint(in, false, "")
	assert.Contains(t, got, "No Figma design file is connected.")

	assert.Equal(t, "a quiz about cats", AddFigmaHint("a quiz about cats", false, ""))
	assert.Equal(t, "use my figma", AddFigmaHint("use my figma", true, ""))
}

func TestModeFor(t *testing.T) {
	assert.Equal(t, FigmaActive, ModeFor(true, "sleek quiz"))
	assert.Equal(t, FigmaAvailable, ModeFor(true, "quiz about cats"))
	assert.Equal(t, FigmaNone, ModeFor(false, "sleek quiz"))
}

func TestSystemPromptSections(t *testing.T) {
	active := NewBuilder().SetFigmaMode(FigmaActive).SetMemoryContext("[projects] quiz: trivia").Build()
	assert.Contains(t, active, "- **Trivia**: Multiple-choice with right/wrong answers and scoring.")
	assert.Contains(t, active, "AUTONOMOUS DESIGN-DRIVEN BUILDING")
	assert.Contains(t, active, "## Memory Context (from past sessions)\n[projects] quiz: trivia")

	none := NewBuilder().Build()
	assert.NotContains(t, none, "fetch_figma_design FIRST")
	assert.NotContains(t, none, "Memory Context")
	assert.NotContains(t, none, "AUTONOMOUS MODE")
	assert.Contains(t, NewBuilder().SetAutonomous(true).Build(), "AUTONOMOUS MODE")
}
