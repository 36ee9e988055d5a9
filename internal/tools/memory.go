package tools

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cft-yamuna/quiz-agent/internal/logging"
	"github.com/cft-yamuna/quiz-agent/internal/memory"
	"github.com/cft-yamuna/quiz-agent/internal/planner"
	"github.com/cft-yamuna/quiz-agent/internal/project"
)

// memoryPreviewChars caps the JSON shown per search hit.
const memoryPreviewChars = 300

func (e *Executor) searchMemory(c SearchMemory) (Result, error) {
	if e.deps.Memory == nil {
		return NewErrorText("ERROR: Memory not initialized"), nil
	}
	results, err := e.deps.Memory.Search(c.Query, c.Category)
	if err != nil {
		return Result{}, err
	}
	if len(results) == 0 {
		return NewResult("No matching memories found."), nil
	}

	lines := make([]string, len(results))
	for i, r := range results {
		raw, _ := json.Marshal(r.Data)
		preview := string(raw)
		if len(preview) > memoryPreviewChars {
			preview = preview[:memoryPreviewChars]
		}
		lines[i] = fmt.Sprintf("[%s] %s: %s", r.Category, r.Key, preview)
	}
	return NewResult(strings.Join(lines, "\n---\n")), nil
}

func (e *Executor) saveMemory(c SaveMemory) (Result, error) {
	if e.deps.Memory == nil {
		return NewErrorText("ERROR: Memory not initialized"), nil
	}
	category, err := memory.ParseCategory(c.Category)
	if err != nil {
		return Result{}, err
	}
	if err := e.deps.Memory.Save(category, c.Key, c.Data); err != nil {
		return Result{}, err
	}

	// Project summaries are mirrored next to the code for later modify runs.
	if category == memory.Projects {
		dir := filepath.Join(e.outputDir(), c.Key)
		if update, ok := c.Data.(map[string]any); ok && isDir(dir) {
			if err := project.MergeMemory(dir, update); err != nil {
				logging.Warn("could not save project memory", "project", c.Key, "error", err)
			}
		}
	}
	return NewResult(fmt.Sprintf("Saved to %s/%s", c.Category, c.Key)), nil
}

func (e *Executor) planTasks(c PlanTasks) (Result, error) {
	if e.deps.Planner == nil {
		return NewErrorText("ERROR: Planner not initialized"), nil
	}
	tasks := make([]planner.Task, len(c.Tasks))
	for i, t := range c.Tasks {
		status := planner.Status(t.Status)
		if status == "" {
			status = planner.StatusPending
		}
		tasks[i] = planner.Task{
			ID:          t.ID,
			Description: t.Description,
			Status:      status,
			DependsOn:   t.DependsOn,
		}
	}
	e.deps.Planner.Update(tasks)
	return NewResult(e.deps.Planner.StatusReport()), nil
}
