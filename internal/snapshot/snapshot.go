// Package snapshot keeps copies of a project's key files so a modify
// build can be undone.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cft-yamuna/quiz-agent/internal/fileutil"
	"github.com/cft-yamuna/quiz-agent/internal/logging"
)

// Dir is the snapshot directory inside a project.
const Dir = ".snapshots"

// DefaultMax is how many snapshots a project keeps.
const DefaultMax = 5

const (
	manifestFile  = "_manifest.json"
	previewLength = 100
)

// Items are the project entries copied into a snapshot.
var Items = []string{
	"src",
	"package.json",
	"vite.config.js",
	"index.html",
	".chat_history.json",
	".project_memory.json",
}

var (
	// ErrNoProject is returned when the project directory does not exist.
	ErrNoProject = errors.New("project not found")
	// ErrNotFound is returned for an unknown snapshot id.
	ErrNotFound = errors.New("snapshot not found")
)

// Manifest describes one snapshot.
type Manifest struct {
	ID            string  `json:"snapshot_id"`
	Timestamp     float64 `json:"timestamp"`
	ISOTime       string  `json:"iso_time"`
	PromptPreview string  `json:"prompt_preview"`
}

// Manager takes, lists and restores snapshots for projects under an
// output directory.
type Manager struct {
	outputDir string
	max       int
	now       func() time.Time
	mu        sync.Mutex
}

// NewManager creates a Manager keeping at most max snapshots per project.
func NewManager(outputDir string, max int) *Manager {
	if max <= 0 {
		max = DefaultMax
	}
	return &Manager{outputDir: outputDir, max: max, now: time.Now}
}

func (m *Manager) projectDir(project string) string {
	return filepath.Join(m.outputDir, project)
}

func (m *Manager) snapshotsDir(project string) string {
	return filepath.Join(m.outputDir, project, Dir)
}

// Take copies the project's key files into a new snapshot and prunes the
// oldest ones beyond the limit. An empty id gets a generated one.
func (m *Manager) Take(project, id, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	src := m.projectDir(project)
	if fi, err := os.Stat(src); err != nil || !fi.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNoProject, project)
	}
	if id == "" {
		id = uuid.NewString()[:8]
	}
	dest := filepath.Join(m.snapshotsDir(project), id)
	if err := os.MkdirAll(dest, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	if err := copyItems(src, dest); err != nil {
		return "", fmt.Errorf("failed to copy project files: %w", err)
	}

	now := m.now()
	preview := []rune(prompt)
	if len(preview) > previewLength {
		preview = preview[:previewLength]
	}
	manifest := Manifest{
		ID:            id,
		Timestamp:     float64(now.UnixNano()) / 1e9,
		ISOTime:       now.Format("2006-01-02 15:04:05"),
		PromptPreview: string(preview),
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", err
	}
	if err := fileutil.AtomicWrite(filepath.Join(dest, manifestFile), data, 0644); err != nil {
		return "", err
	}

	logging.Info("snapshot taken", "project", project, "id", id)
	m.prune(project)
	return id, nil
}

// List returns the project's snapshots, newest first.
func (m *Manager) List(project string) ([]Manifest, error) {
	dir := m.snapshotsDir(project)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []Manifest
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		man, err := readManifest(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		man.ID = e.Name()
		out = append(out, man)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}

// Revert restores the project's key files from snapshot id, then drops
// that snapshot and every newer one.
func (m *Manager) Revert(project, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	source := filepath.Join(m.snapshotsDir(project), filepath.Base(id))
	if fi, err := os.Stat(source); err != nil || !fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	target, err := readManifest(source)
	if err != nil {
		return fmt.Errorf("could not read snapshot manifest: %w", err)
	}

	dst := m.projectDir(project)
	for _, item := range Items {
		from := filepath.Join(source, item)
		to := filepath.Join(dst, item)
		fi, err := os.Stat(from)
		if err != nil {
			continue
		}
		if fi.IsDir() {
			if err := os.RemoveAll(to); err != nil {
				return err
			}
			if err := fileutil.CopyTree(from, to, nil); err != nil {
				return fmt.Errorf("failed to restore %s: %w", item, err)
			}
			continue
		}
		if err := fileutil.CopyFile(from, to); err != nil {
			return fmt.Errorf("failed to restore %s: %w", item, err)
		}
	}

	all, err := m.List(project)
	if err != nil {
		return err
	}
	for _, s := range all {
		if s.Timestamp >= target.Timestamp {
			os.RemoveAll(filepath.Join(m.snapshotsDir(project), s.ID))
		}
	}
	logging.Info("snapshot reverted", "project", project, "id", id)
	return nil
}

func (m *Manager) prune(project string) {
	all, err := m.List(project)
	if err != nil || len(all) <= m.max {
		return
	}
	for _, old := range all[m.max:] {
		if err := os.RemoveAll(filepath.Join(m.snapshotsDir(project), old.ID)); err != nil {
			logging.Warn("failed to prune snapshot", "project", project, "id", old.ID, "error", err)
		}
	}
}

func copyItems(src, dest string) error {
	for _, item := range Items {
		from := filepath.Join(src, item)
		fi, err := os.Stat(from)
		if err != nil {
			continue
		}
		to := filepath.Join(dest, item)
		if fi.IsDir() {
			err = fileutil.CopyTree(from, to, map[string]bool{"node_modules": true})
		} else {
			err = fileutil.CopyFile(from, to)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func readManifest(dir string) (Manifest, error) {
	var man Manifest
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return man, err
	}
	err = json.Unmarshal(data, &man)
	return man, err
}
