package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cft-yamuna/quiz-agent/internal/fileutil"
)

// MemoryFile holds a project's own summary next to its sources.
const MemoryFile = ".project_memory.json"

const (
	maxChanges   = 10
	shownChanges = 5
)

// LoadMemory reads the project summary in dir. Missing or unreadable
// files yield nil.
func LoadMemory(dir string) map[string]any {
	data, err := os.ReadFile(filepath.Join(dir, MemoryFile))
	if err != nil {
		return nil
	}
	var mem map[string]any
	if err := json.Unmarshal(data, &mem); err != nil {
		return nil
	}
	return mem
}

// MergeMemory folds update into the summary in dir. Top-level keys are
// replaced, except "changes" which is appended to the existing list and
// capped to the last ten entries.
func MergeMemory(dir string, update map[string]any) error {
	mem := LoadMemory(dir)
	if mem == nil {
		mem = map[string]any{}
	}

	old, hadOld := mem["changes"].([]any)
	for k, v := range update {
		mem[k] = v
	}
	if newChanges, ok := update["changes"].([]any); ok && hadOld {
		all := append(append([]any{}, old...), newChanges...)
		if len(all) > maxChanges {
			all = all[len(all)-maxChanges:]
		}
		mem["changes"] = all
	}

	return fileutil.WriteJSON(filepath.Join(dir, MemoryFile), mem)
}

// FormatMemory renders the summary fields the agent cares about.
func FormatMemory(mem map[string]any) string {
	if mem == nil {
		return ""
	}
	var lines []string
	if s, ok := mem["description"].(string); ok && s != "" {
		lines = append(lines, "Project: "+s)
	}
	if s, ok := mem["quiz_type"].(string); ok && s != "" {
		lines = append(lines, "Quiz type: "+s)
	}
	if l := stringList(mem["components"]); len(l) > 0 {
		lines = append(lines, "Components: "+strings.Join(l, ", "))
	}
	if l := stringList(mem["features"]); len(l) > 0 {
		lines = append(lines, "Features: "+strings.Join(l, ", "))
	}
	if l := stringList(mem["changes"]); len(l) > 0 {
		lines = append(lines, "Recent changes:")
		if len(l) > shownChanges {
			l = l[len(l)-shownChanges:]
		}
		for _, c := range l {
			lines = append(lines, "  - "+c)
		}
	}
	return strings.Join(lines, "\n")
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, fmt.Sprint(it))
	}
	return out
}
