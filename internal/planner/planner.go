package planner

import (
	"fmt"
	"strings"
	"sync"
)

// Status is a task state reported by the model. Unknown values are kept
// and rendered with the "[?]" icon.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Icon returns a display icon for the status.
func (s Status) Icon() string {
	switch s {
	case StatusPending:
		return "[ ]"
	case StatusInProgress:
		return "[~]"
	case StatusCompleted:
		return "[x]"
	case StatusFailed:
		return "[!]"
	default:
		return "[?]"
	}
}

// Task is one step of the model's plan. Dependencies are advisory.
type Task struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Status      Status   `json:"status"`
	DependsOn   []string `json:"depends_on,omitempty"`
}

// Phase classifies what the agent is doing; it selects the model tier.
type Phase string

const (
	PhasePlanning   Phase = "planning"
	PhaseDesigning  Phase = "designing"
	PhaseValidating Phase = "validating"
	PhaseReviewing  Phase = "reviewing"
	PhaseFixing     Phase = "fixing"
	PhaseGenerating Phase = "generating"
	PhaseFileOps    Phase = "file_ops"
)

// phaseKeywords is checked in order against the first in-progress task.
var phaseKeywords = []struct {
	phase Phase
	words []string
}{
	{PhasePlanning, []string{"plan", "architect", "decide"}},
	{PhaseDesigning, []string{"figma", "design spec", "fetch design", "visual reference"}},
	{PhaseValidating, []string{"screenshot", "compare", "visual check"}},
	{PhaseReviewing, []string{"review", "check", "validate", "test"}},
	{PhaseFixing, []string{"fix", "debug", "repair", "correct", "css fix", "style fix"}},
	{PhaseGenerating, []string{"create", "generate", "write", "build"}},
}

// Planner holds the current task list. The model replaces it wholesale.
type Planner struct {
	mu    sync.RWMutex
	tasks []Task
}

// New creates an empty planner.
func New() *Planner {
	return &Planner{}
}

// Update replaces the task list.
func (p *Planner) Update(tasks []Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = append([]Task(nil), tasks...)
}

// Tasks returns a copy of the current task list.
func (p *Planner) Tasks() []Task {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Task(nil), p.tasks...)
}

// CurrentPhase derives the phase from task statuses and the description of
// the first in-progress task.
func (p *Planner) CurrentPhase() Phase {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.tasks) == 0 {
		return PhasePlanning
	}

	var current *Task
	for i := range p.tasks {
		if p.tasks[i].Status == StatusInProgress {
			current = &p.tasks[i]
			break
		}
	}

	if current == nil {
		for _, t := range p.tasks {
			if t.Status != StatusCompleted && t.Status != StatusFailed {
				return PhasePlanning
			}
		}
		return PhaseFileOps
	}

	desc := strings.ToLower(current.Description)
	for _, pk := range phaseKeywords {
		for _, w := range pk.words {
			if strings.Contains(desc, w) {
				return pk.phase
			}
		}
	}
	return PhaseGenerating
}

// StatusReport renders the task list for the model and the console.
func (p *Planner) StatusReport() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.tasks) == 0 {
		return "No tasks planned yet."
	}

	var b strings.Builder
	b.WriteString("Task Plan:\n")

	counts := make(map[Status]int)
	for _, t := range p.tasks {
		counts[t.Status]++
		deps := ""
		if len(t.DependsOn) > 0 {
			deps = fmt.Sprintf(" (depends on: %s)", strings.Join(t.DependsOn, ", "))
		}
		fmt.Fprintf(&b, "  %s %s: %s%s\n", t.Status.Icon(), t.ID, t.Description, deps)
	}

	fmt.Fprintf(&b, "\nProgress: %d/%d tasks completed\n", counts[StatusCompleted], len(p.tasks))
	fmt.Fprintf(&b, "Pending: %d | In progress: %d | Completed: %d | Failed: %d",
		counts[StatusPending], counts[StatusInProgress], counts[StatusCompleted], counts[StatusFailed])
	return b.String()
}
