package screenshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cft-yamuna/quiz-agent/internal/figma"
)

const appJSX = `import { BrowserRouter, Routes, Route } from 'react-router-dom'

export default function App() {
  return (
    <BrowserRouter>
      <Routes>
        <Route path="/quiz" element={<Quiz />} />
        <Route exact path='/' element={<Home />} />
        <Route path="/results" element={<Results />} />
        <Route path="/quiz" element={<Quiz />} />
      </Routes>
    </BrowserRouter>
  )
}
`

func TestExtractRoutes(t *testing.T) {
	assert.Equal(t, []string{"/", "/quiz", "/results"}, ExtractRoutes(appJSX))

	objectRoutes := `const routes = [{ path: "/start" }, { path: '/end' }]`
	assert.Equal(t, []string{"/", "/start", "/end"}, ExtractRoutes(objectRoutes))

	assert.Equal(t, []string{"/"}, ExtractRoutes("export default () => null"))
}

func TestDiscoverRoutes(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, []string{"/"}, DiscoverRoutes(dir))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "App.jsx"), []byte(appJSX), 0644))
	assert.Equal(t, []string{"/", "/quiz", "/results"}, DiscoverRoutes(dir))
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "home", SafeName("/"))
	assert.Equal(t, "quiz", SafeName("/quiz"))
	assert.Equal(t, "quiz_results", SafeName("/quiz/results/"))
	assert.Equal(t, "question_-id", SafeName("/question/:id"))
}

func TestScore(t *testing.T) {
	tests := []struct {
		frame, route string
		want         float64
	}{
		{"Results", "/results", ScoreExact},
		{"Quiz Screen", "/quiz", ScoreSubstring},
		{"Home Page", "/", ScoreLanding},
		{"Welcome", "/", ScoreLanding},
		{"Results", "/", 0},
		{"Score Board", "/final-score", ScoreOverlap / 3},
		{"Settings", "/quiz", 0},
		{"", "/quiz", 0},
	}
	for _, tt := range tests {
		t.Run(tt.frame+"_"+tt.route, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.frame, tt.route), 1e-9)
		})
	}
}

func frames(names ...string) []figma.ExportedFrame {
	out := make([]figma.ExportedFrame, len(names))
	for i, n := range names {
		out[i] = figma.ExportedFrame{ID: n, Name: n, ImagePath: "/cache/" + n + ".png"}
	}
	return out
}

func captures(routes ...string) []Capture {
	out := make([]Capture, len(routes))
	for i, r := range routes {
		out[i] = Capture{Route: r, Path: "/shots/" + SafeName(r) + ".png"}
	}
	return out
}

func TestMatchByNameNotPosition(t *testing.T) {
	pairs, extra, missing := Match(
		frames("Results", "Home Page", "Quiz Screen"),
		captures("/", "/quiz", "/results"),
	)
	require.Len(t, pairs, 3)
	assert.Empty(t, extra)
	assert.Empty(t, missing)

	got := map[string]string{}
	for _, p := range pairs {
		got[p.Frame.Name] = p.Capture.Route
		assert.False(t, p.Positional)
	}
	assert.Equal(t, map[string]string{
		"Home Page":   "/",
		"Quiz Screen": "/quiz",
		"Results":     "/results",
	}, got)

	assert.Equal(t, "Results", pairs[0].Frame.Name)
	assert.Equal(t, 1, pairs[0].Index)
	assert.Equal(t, 3, pairs[2].Index)
}

func TestMatchPositionalFallbackAndLeftovers(t *testing.T) {
	pairs, extra, missing := Match(
		frames("Alpha", "Beta", "Quiz"),
		captures("/quiz", "/x"),
	)
	require.Len(t, pairs, 2)
	assert.Equal(t, "Alpha", pairs[0].Frame.Name)
	assert.Equal(t, "/x", pairs[0].Capture.Route)
	assert.True(t, pairs[0].Positional)
	assert.Equal(t, "Quiz", pairs[1].Frame.Name)
	assert.Equal(t, "/quiz", pairs[1].Capture.Route)
	assert.Empty(t, extra)
	require.Len(t, missing, 1)
	assert.Equal(t, "Beta", missing[0].Name)

	pairs, extra, missing = Match(frames("Home"), captures("/", "/about"))
	require.Len(t, pairs, 1)
	assert.Empty(t, missing)
	require.Len(t, extra, 1)
	assert.Equal(t, "/about", extra[0].Route)
}

func TestMatchTiesKeepFirstSeen(t *testing.T) {
	pairs, _, _ := Match(frames("Quiz One", "Quiz Two"), captures("/quiz"))
	require.Len(t, pairs, 1)
	assert.Equal(t, "Quiz One", pairs[0].Frame.Name)
}

type fakeCapturer struct {
	fail    map[string]bool
	targets []Target
}

func (f *fakeCapturer) Capture(ctx context.Context, targets []Target) ([]Capture, []error) {
	f.targets = targets
	var shots []Capture
	var errs []error
	for _, t := range targets {
		if f.fail[t.Route] {
			errs = append(errs, errors.New("could not screenshot "+t.Route+": timeout"))
			continue
		}
		shots = append(shots, Capture{Route: t.Route, Path: t.Path})
	}
	return shots, errs
}

func TestValidate(t *testing.T) {
	root := t.TempDir()
	cache := filepath.Join(root, "figma", "cache")
	require.NoError(t, os.MkdirAll(cache, 0755))

	var exported []figma.ExportedFrame
	for _, name := range []string{"Home", "Question", "Results", "Gone"} {
		p := filepath.Join(cache, name+".png")
		if name != "Gone" {
			require.NoError(t, os.WriteFile(p, []byte("png"), 0644))
		}
		exported = append(exported, figma.ExportedFrame{ID: "1:" + name, Name: name, Page: "Quiz", ImagePath: p})
	}
	require.NoError(t, figma.SaveManifest(cache, exported))

	projectDir := filepath.Join(root, "output", "trivia", "src")
	require.NoError(t, os.MkdirAll(projectDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "App.jsx"), []byte(`
<Route path="/" element={<Home />} />
<Route path="/results" element={<Results />} />
<Route path="/about" element={<About />} />
`), 0644))

	capturer := &fakeCapturer{fail: map[string]bool{"/about": true}}
	v := &Validator{
		Frames:    ManifestSource{Dir: cache},
		Capturer:  capturer,
		BaseURL:   "http://localhost:5173/",
		OutputDir: filepath.Join(root, "output"),
		ShotsDir:  filepath.Join(root, "validation_screenshots"),
	}

	res, err := v.Validate(context.Background(), "trivia", nil)
	require.NoError(t, err)

	require.Len(t, capturer.targets, 3)
	assert.Equal(t, "http://localhost:5173/results", capturer.targets[1].URL)
	assert.Equal(t, filepath.Join(root, "validation_screenshots", "trivia", "home.png"), capturer.targets[0].Path)

	assert.Len(t, res.Frames, 3)
	require.Len(t, res.Pairs, 2)
	require.Len(t, res.Missing, 1)
	assert.Equal(t, "Question", res.Missing[0].Name)
	assert.Len(t, res.Errors, 1)

	require.Len(t, res.Images, 5)
	assert.True(t, res.Images[0].Design)
	assert.False(t, res.Images[1].Design)
	assert.Equal(t, "Question", res.Images[4].Label)
	assert.True(t, res.Images[4].Design)

	assert.Contains(t, res.Report, "## Screenshot Validation Report\nProject: trivia\nApp pages captured: 2\nFigma frames found: 3\n")
	assert.Contains(t, res.Report, `**Page 1**: Figma frame "Home" vs App route "/" (name match)`)
	assert.Contains(t, res.Report, "    - App:   results.png")
	assert.Contains(t, res.Report, `"Question" (id: 1:Question): THIS PAGE IS MISSING, BUILD IT!`)
	assert.Contains(t, res.Report, "### Errors\n  - could not screenshot /about: timeout")
	assert.Contains(t, res.Report, "8. MISSING PAGES")
}

func TestValidateWithoutFrames(t *testing.T) {
	root := t.TempDir()
	v := &Validator{
		Frames:    ManifestSource{Dir: filepath.Join(root, "cache")},
		Capturer:  &fakeCapturer{},
		BaseURL:   "http://localhost:5173",
		OutputDir: root,
		ShotsDir:  root,
	}
	res, err := v.Validate(context.Background(), "trivia", []string{"/", "/play"})
	require.NoError(t, err)
	assert.Empty(t, res.Pairs)
	assert.Len(t, res.ExtraRoutes, 2)
	assert.Contains(t, res.Report, "### Extra App Routes (no matching Figma frame)\n  - / -> home.png\n  - /play -> play.png")

	_, err = v.Validate(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestValidateRejectsEscapingProject(t *testing.T) {
	root := t.TempDir()
	shots := filepath.Join(root, "shots")
	v := &Validator{
		Frames:    ManifestSource{Dir: filepath.Join(root, "cache")},
		Capturer:  &fakeCapturer{},
		BaseURL:   "http://localhost:5173",
		OutputDir: filepath.Join(root, "output"),
		ShotsDir:  shots,
	}
	_, err := v.Validate(context.Background(), "../../escape", []string{"/"})
	require.Error(t, err)
	assert.NoDirExists(t, filepath.Join(shots, "..", "..", "escape"))
	assert.NoDirExists(t, shots)
}
