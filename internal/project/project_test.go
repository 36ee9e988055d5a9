package project

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"Space Quiz":      "space_quiz",
		"my-quiz":         "my_quiz",
		"  Trivia 2  ":    "trivia_2",
		"../../etc":       "etc",
		"quiz/../../x":    "quizx",
		"Ünïcode quiz!":   "ncode_quiz",
		"___":             "",
		"format_quiz":     "format_quiz",
	}
	for in, want := range tests {
		assert.Equal(t, want, Sanitize(in), in)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestListAndDetect(t *testing.T) {
	out := t.TempDir()
	writeFile(t, filepath.Join(out, "react_quiz", "package.json"), "{}")
	writeFile(t, filepath.Join(out, "react_quiz", "src", "App.jsx"), "")
	writeFile(t, filepath.Join(out, "api", "package.json"), "{}")
	writeFile(t, filepath.Join(out, "static", "index.html"), "")
	require.NoError(t, os.MkdirAll(filepath.Join(out, "empty"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(out, ".snapshots"), 0755))
	writeFile(t, filepath.Join(out, "stray.txt"), "")

	projects, err := List(out)
	require.NoError(t, err)
	require.Len(t, projects, 4)
	assert.Equal(t, Info{Name: "api", Tech: TechNode}, Info{Name: projects[0].Name, Tech: projects[0].Tech})
	assert.Equal(t, "empty", projects[1].Name)
	assert.Equal(t, TechUnknown, projects[1].Tech)
	assert.Equal(t, TechReact, projects[2].Tech)
	assert.Equal(t, TechStatic, projects[3].Tech)

	assert.True(t, IsExisting(filepath.Join(out, "react_quiz")))
	assert.False(t, IsExisting(filepath.Join(out, "static")))
	assert.False(t, IsExisting(filepath.Join(out, "missing")))

	missing, err := List(filepath.Join(out, "nope"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestLatest(t *testing.T) {
	out := t.TempDir()
	_, ok := Latest(out)
	assert.False(t, ok)

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, os.MkdirAll(filepath.Join(out, name), 0755))
	}
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(out, "a"), past, past))
	require.NoError(t, os.Chtimes(filepath.Join(out, "c"), past, past))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(out, "b"), future, future))

	latest, ok := Latest(out)
	require.True(t, ok)
	assert.Equal(t, "b", latest.Name)
}

func TestMergeMemoryKeepsChangeHistory(t *testing.T) {
	dir := t.TempDir()
	assert.Nil(t, LoadMemory(dir))

	require.NoError(t, MergeMemory(dir, map[string]any{
		"description": "Space trivia quiz",
		"changes":     []any{"c1", "c2", "c3", "c4", "c5", "c6"},
	}))
	require.NoError(t, MergeMemory(dir, map[string]any{
		"quiz_type": "trivia",
		"changes":   []any{"c7", "c8", "c9", "c10", "c11", "c12"},
	}))
	require.NoError(t, MergeMemory(dir, map[string]any{"features": []any{"timer"}}))

	mem := LoadMemory(dir)
	assert.Equal(t, "Space trivia quiz", mem["description"])
	assert.Equal(t, "trivia", mem["quiz_type"])
	changes := stringList(mem["changes"])
	require.Len(t, changes, 10)
	assert.Equal(t, "c3", changes[0])
	assert.Equal(t, "c12", changes[9])
}

func TestFormatMemory(t *testing.T) {
	assert.Empty(t, FormatMemory(nil))
	got := FormatMemory(map[string]any{
		"description": "Space trivia quiz",
		"quiz_type":   "trivia",
		"components":  []any{"Home", "Question"},
		"features":    []any{"timer"},
		"changes":     []any{"a", "b", "c", "d", "e", "f"},
	})
	assert.Equal(t, "Project: Space trivia quiz\nQuiz type: trivia\nComponents: Home, Question\n"+
		"Features: timer\nRecent changes:\n  - b\n  - c\n  - d\n  - e\n  - f", got)
}
