package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/cft-yamuna/quiz-agent/internal/fileutil"
	"github.com/cft-yamuna/quiz-agent/internal/logging"
	"github.com/cft-yamuna/quiz-agent/internal/security"
)

// DefaultReadLimit is the read_file character cap when none is configured.
const DefaultReadLimit = 10000

func (e *Executor) writeFile(path, content string) (string, error) {
	rel, abs, err := e.resolve(path)
	if err != nil {
		return rel, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return rel, fmt.Errorf("failed to create directory: %w", err)
	}
	if err := fileutil.AtomicWriteString(abs, content, 0644); err != nil {
		return rel, err
	}
	if e.session.Project == "" {
		// The first write pins the run to its project.
		e.session.Project = security.ProjectFromPath(rel)
	}
	return rel, nil
}

func (e *Executor) createFile(c CreateFile) (Result, error) {
	rel, err := e.writeFile(c.Path, c.Content)
	if err != nil {
		return Result{}, err
	}
	logging.Debug("file created", "path", rel, "bytes", len(c.Content))
	return NewResult(fmt.Sprintf("Created %s (%d bytes)", rel, len(c.Content))), nil
}

func (e *Executor) createFiles(c CreateFiles) (Result, error) {
	if len(c.Files) == 0 {
		return NewErrorText("ERROR: No files provided"), nil
	}

	var created, failed []string
	for _, f := range c.Files {
		rel, err := e.writeFile(f.Path, f.Content)
		if err != nil {
			path := f.Path
			if path == "" {
				path = "???"
			}
			failed = append(failed, fmt.Sprintf("  FAILED %s: %v", path, err))
			continue
		}
		created = append(created, fmt.Sprintf("  %s (%d bytes)", rel, len(f.Content)))
	}

	summary := fmt.Sprintf("Created %d files", len(created))
	if len(failed) > 0 {
		summary += fmt.Sprintf(", %d failed", len(failed))
	}
	lines := append([]string{summary + ":"}, created...)
	if len(failed) > 0 {
		lines = append(lines, "Errors:")
		lines = append(lines, failed...)
	}
	return NewResult(strings.Join(lines, "\n")), nil
}

func (e *Executor) readFile(c ReadFile) (Result, error) {
	_, abs, err := e.resolve(c.Path)
	if err != nil {
		return Result{}, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return NewErrorText("ERROR: File not found: " + c.Path), nil
		}
		return Result{}, err
	}

	limit := e.deps.ReadFileLimit
	if limit <= 0 {
		limit = DefaultReadLimit
	}
	content := string(data)
	if total := utf8.RuneCountInString(content); total > limit {
		runes := []rune(content)
		content = string(runes[:limit]) +
			fmt.Sprintf("\n\n--- FILE TRUNCATED (showing first %d of %d chars) ---", limit, total)
	}
	return NewResult(content), nil
}

func (e *Executor) listFiles(c ListFiles) (Result, error) {
	_, abs, err := e.resolve(c.Directory)
	if err != nil {
		return Result{}, err
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return NewErrorText("ERROR: Not a directory: " + c.Directory), nil
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return Result{}, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	if len(entries) == 0 {
		return NewResult("(empty directory)"), nil
	}
	lines := make([]string, len(entries))
	for i, entry := range entries {
		prefix := "      "
		if entry.IsDir() {
			prefix = "[DIR] "
		}
		lines[i] = prefix + entry.Name()
	}
	return NewResult(strings.Join(lines, "\n")), nil
}
