package prompt

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/cft-yamuna/quiz-agent/internal/chat"
	"github.com/cft-yamuna/quiz-agent/internal/project"
)

const (
	// MaxKeyFileChars caps the file contents injected into a modify prompt.
	MaxKeyFileChars = 8000

	sourcePattern = "src/**/*.{jsx,js,tsx,ts,css}"
)

var defaultKeyFiles = []string{"src/App.jsx", "src/App.css"}

// ContextBuilder assembles the first user turn for a project.
type ContextBuilder struct {
	OutputDir string
	History   *chat.History
}

// NewContextBuilder creates a builder over the projects in outputDir.
func NewContextBuilder(outputDir string, history *chat.History) *ContextBuilder {
	if history == nil {
		history = chat.NewHistory()
	}
	return &ContextBuilder{OutputDir: outputDir, History: history}
}

// Build returns the brief prefixed with mode and project context blocks.
// A project with a package.json is modified, anything else is created.
func (b *ContextBuilder) Build(projectName, userPrompt string) string {
	dir := filepath.Join(b.OutputDir, projectName)
	if !project.IsExisting(dir) {
		return fmt.Sprintf("[Project name: %s] [Mode: create]\n%s", projectName, userPrompt)
	}

	parts := []string{
		fmt.Sprintf("[Project name: %s] [Mode: modify]", projectName),
		fmt.Sprintf("[Project info]\n%s\n[/Project info]", ScanInfo(dir)),
	}
	if mem := project.FormatMemory(project.LoadMemory(dir)); mem != "" {
		parts = append(parts, fmt.Sprintf("[Project memory]\n%s\n[/Project memory]", mem))
	}
	if recent := b.History.Recent(dir, chat.DefaultRecent); recent != "" {
		parts = append(parts, fmt.Sprintf("[Recent conversation]\n%s\n[/Recent conversation]", recent))
	}
	if files := ReadKeyFiles(dir, userPrompt); files != "" {
		parts = append(parts, fmt.Sprintf("[Key file contents]\n%s\n[/Key file contents]", files))
	}
	parts = append(parts, userPrompt)
	return strings.Join(parts, "\n")
}

// ScanInfo lists the src files, install state and dependencies of a project.
func ScanInfo(dir string) string {
	var lines []string

	if info, err := os.Stat(filepath.Join(dir, "src")); err == nil && info.IsDir() {
		files := globFiles(dir, "src/**")
		lines = append(lines, "Files: "+strings.Join(files, ", "))
	} else {
		lines = append(lines, "Files: src/ directory MISSING")
	}

	if info, err := os.Stat(filepath.Join(dir, "node_modules")); err == nil && info.IsDir() {
		lines = append(lines, "node_modules: installed")
	} else {
		lines = append(lines, "node_modules: MISSING (needs npm install)")
	}

	var pkg struct {
		Dependencies map[string]any `json:"dependencies"`
	}
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err == nil {
		err = json.Unmarshal(data, &pkg)
	}
	if err != nil {
		lines = append(lines, "Dependencies: could not read package.json")
	} else {
		deps := make([]string, 0, len(pkg.Dependencies))
		for name := range pkg.Dependencies {
			deps = append(deps, name)
		}
		sort.Strings(deps)
		lines = append(lines, "Dependencies: "+strings.Join(deps, ", "))
	}

	return strings.Join(lines, "\n")
}

// ReadKeyFiles returns App.jsx, App.css and every source file whose base
// name appears in the prompt, capped at MaxKeyFileChars.
func ReadKeyFiles(dir, userPrompt string) string {
	var candidates []string
	seen := make(map[string]bool)
	add := func(rel string) {
		if !seen[rel] {
			seen[rel] = true
			candidates = append(candidates, rel)
		}
	}

	for _, rel := range defaultKeyFiles {
		if info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(rel))); err == nil && !info.IsDir() {
			add(rel)
		}
	}

	lowerPrompt := strings.ToLower(userPrompt)
	for _, rel := range globFiles(dir, sourcePattern) {
		base := path.Base(rel)
		name := strings.ToLower(strings.TrimSuffix(base, path.Ext(base)))
		if name == "app" || name == "main" || name == "index" {
			continue
		}
		if strings.Contains(lowerPrompt, name) {
			add(rel)
		}
	}

	var b strings.Builder
	total := 0
	for _, rel := range candidates {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			continue
		}
		content := string(data)
		entry := fmt.Sprintf("--- %s ---\n%s\n", rel, content)
		size := len([]rune(entry))
		if total+size > MaxKeyFileChars {
			remaining := MaxKeyFileChars - total
			if remaining > 200 {
				cut := []rune(content)
				if len(cut) > remaining-50 {
					cut = cut[:remaining-50]
				}
				fmt.Fprintf(&b, "--- %s (truncated) ---\n%s\n... (truncated)\n", rel, string(cut))
			}
			break
		}
		b.WriteString(entry)
		total += size
	}
	return b.String()
}

// globFiles returns the sorted slash paths of files under dir matching
// pattern, skipping node_modules.
func globFiles(dir, pattern string) []string {
	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil
	}
	files := matches[:0]
	for _, m := range matches {
		if strings.Contains("/"+m+"/", "/node_modules/") {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)
	return files
}
