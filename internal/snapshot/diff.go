package snapshot

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Change kinds reported by Diff.
const (
	Modified = "modified"
	Added    = "added"
	Deleted  = "deleted"
)

// FileDiff summarizes how one file changed since a snapshot.
type FileDiff struct {
	Path    string `json:"path"`
	Status  string `json:"status"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
}

// Diff compares snapshot id with the project's current files. Unchanged
// files are omitted.
func (m *Manager) Diff(project, id string) ([]FileDiff, error) {
	source := filepath.Join(m.snapshotsDir(project), filepath.Base(id))
	if fi, err := os.Stat(source); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	before, err := collect(source)
	if err != nil {
		return nil, err
	}
	after, err := collect(m.projectDir(project))
	if err != nil {
		return nil, err
	}

	dmp := diffmatchpatch.New()
	var out []FileDiff
	for path, old := range before {
		cur, ok := after[path]
		if !ok {
			out = append(out, FileDiff{Path: path, Status: Deleted, Removed: countLines(old)})
			continue
		}
		if cur == old {
			continue
		}
		a, b, lines := dmp.DiffLinesToChars(old, cur)
		diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
		fd := FileDiff{Path: path, Status: Modified}
		for _, d := range diffs {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				fd.Added += countLines(d.Text)
			case diffmatchpatch.DiffDelete:
				fd.Removed += countLines(d.Text)
			}
		}
		out = append(out, fd)
	}
	for path, cur := range after {
		if _, ok := before[path]; !ok {
			out = append(out, FileDiff{Path: path, Status: Added, Added: countLines(cur)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// FormatDiff renders a diff summary, one file per line.
func FormatDiff(diffs []FileDiff) string {
	if len(diffs) == 0 {
		return "No changes since snapshot."
	}
	var b strings.Builder
	for _, d := range diffs {
		fmt.Fprintf(&b, "%-8s %s (+%d -%d)\n", d.Status, d.Path, d.Added, d.Removed)
	}
	return strings.TrimRight(b.String(), "\n")
}

// collect reads the snapshot items under root keyed by slash path.
func collect(root string) (map[string]string, error) {
	files := map[string]string{}
	for _, item := range Items {
		base := filepath.Join(root, item)
		fi, err := os.Stat(base)
		if err != nil {
			continue
		}
		if !fi.IsDir() {
			data, err := os.ReadFile(base)
			if err != nil {
				return nil, err
			}
			files[item] = string(data)
			continue
		}
		err = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() == "node_modules" {
					return filepath.SkipDir
				}
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			files[filepath.ToSlash(rel)] = string(data)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
