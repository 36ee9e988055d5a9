package security

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// PathError reports a path that resolves outside the allowed root.
type PathError struct {
	Path string
	Root string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("Path '%s' resolves outside project directory. Must be under %s", e.Path, e.Root)
}

// Contain resolves rel against root and returns the absolute path, or a
// *PathError when the result escapes root. Symlinks in existing parents are
// resolved before the check.
func Contain(root, rel string) (string, error) {
	if strings.Contains(rel, "\x00") {
		return "", fmt.Errorf("null byte in path")
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = resolved
	}

	target := rel
	if !filepath.IsAbs(target) {
		target = filepath.Join(absRoot, filepath.FromSlash(rel))
	}
	target = filepath.Clean(target)

	resolved := resolveExisting(target)
	if !isPathWithin(resolved, absRoot) {
		return "", &PathError{Path: rel, Root: root}
	}
	return resolved, nil
}

// resolveExisting evaluates symlinks on the longest existing prefix of path
// and re-attaches the missing tail.
func resolveExisting(path string) string {
	var tail []string
	current := path
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			return filepath.Join(append([]string{resolved}, tail...)...)
		}
		if !os.IsNotExist(err) {
			return path
		}
		parent := filepath.Dir(current)
		if parent == current {
			return path
		}
		tail = append([]string{filepath.Base(current)}, tail...)
		current = parent
	}
}

// isPathWithin checks if target is within base directory.
func isPathWithin(target, base string) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}

	joined := filepath.Join(base, rel)
	// On Windows, paths are case-insensitive
	if runtime.GOOS == "windows" {
		return strings.HasPrefix(strings.ToLower(joined), strings.ToLower(base))
	}
	return strings.HasPrefix(joined, base)
}

// SanitizeFilename replaces characters that are unsafe in file names.
func SanitizeFilename(name string) string {
	dangerous := []string{"\x00", "..", "/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	sanitized := name
	for _, ch := range dangerous {
		sanitized = strings.ReplaceAll(sanitized, ch, "_")
	}
	return sanitized
}
