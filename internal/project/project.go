// Package project inspects the generated projects under the output directory.
package project

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"
)

// Tech is the detected kind of a project.
type Tech string

// Detected project kinds.
const (
	TechReact   Tech = "React"
	TechNode    Tech = "Node.js"
	TechStatic  Tech = "HTML/CSS/JS"
	TechUnknown Tech = "Unknown"
)

// Info describes one project directory.
type Info struct {
	Name    string    `json:"name"`
	Tech    Tech      `json:"tech"`
	ModTime time.Time `json:"-"`
}

// Sanitize turns a user supplied name into a directory name: lower case,
// spaces and dashes become underscores and anything else unsafe is dropped.
func Sanitize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "_")
}

// Detect classifies the project in dir.
func Detect(dir string) Tech {
	hasPkg := exists(filepath.Join(dir, "package.json"))
	switch {
	case hasPkg && isDir(filepath.Join(dir, "src")):
		return TechReact
	case hasPkg:
		return TechNode
	case exists(filepath.Join(dir, "index.html")):
		return TechStatic
	default:
		return TechUnknown
	}
}

// IsExisting reports whether dir holds a project that should be modified
// rather than created.
func IsExisting(dir string) bool {
	return isDir(dir) && exists(filepath.Join(dir, "package.json"))
}

// List returns the projects in outputDir sorted by name. A missing output
// directory has no projects.
func List(outputDir string) ([]Info, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var projects []Info
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		dir := filepath.Join(outputDir, e.Name())
		projects = append(projects, Info{Name: e.Name(), Tech: Detect(dir), ModTime: fi.ModTime()})
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].Name < projects[j].Name })
	return projects, nil
}

// Latest returns the most recently modified project.
func Latest(outputDir string) (Info, bool) {
	projects, err := List(outputDir)
	if err != nil || len(projects) == 0 {
		return Info{}, false
	}
	latest := projects[0]
	for _, p := range projects[1:] {
		if p.ModTime.After(latest.ModTime) {
			latest = p
		}
	}
	return latest, true
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
