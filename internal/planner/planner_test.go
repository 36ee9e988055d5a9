package planner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusReport(t *testing.T) {
	p := New()
	assert.Equal(t, "No tasks planned yet.", p.StatusReport())

	p.Update([]Task{
		{ID: "1", Description: "Plan pages", Status: StatusCompleted},
		{ID: "2", Description: "Build quiz screen", Status: StatusInProgress, DependsOn: []string{"1"}},
		{ID: "3", Description: "Style results", Status: "blocked"},
	})

	report := p.StatusReport()
	assert.True(t, strings.HasPrefix(report, "Task Plan:\n"))
	assert.Contains(t, report, "  [x] 1: Plan pages\n")
	assert.Contains(t, report, "  [~] 2: Build quiz screen (depends on: 1)\n")
	assert.Contains(t, report, "  [?] 3: Style results\n")
	assert.Contains(t, report, "Progress: 1/3 tasks completed")
	assert.Contains(t, report, "Pending: 0 | In progress: 1 | Completed: 1 | Failed: 0")
}

func TestCurrentPhase(t *testing.T) {
	tests := []struct {
		name  string
		tasks []Task
		want  Phase
	}{
		{"empty", nil, PhasePlanning},
		{"all done", []Task{{ID: "1", Status: StatusCompleted}, {ID: "2", Status: StatusFailed}}, PhaseFileOps},
		{"nothing started", []Task{{ID: "1", Status: StatusPending}}, PhasePlanning},
		{"design", []Task{{ID: "1", Description: "Fetch Figma frames", Status: StatusInProgress}}, PhaseDesigning},
		{"validate", []Task{{ID: "1", Description: "Compare screenshot of home", Status: StatusInProgress}}, PhaseValidating},
		{"review", []Task{{ID: "1", Description: "Review the code", Status: StatusInProgress}}, PhaseReviewing},
		{"fix", []Task{{ID: "1", Description: "Fix button colors", Status: StatusInProgress}}, PhaseFixing},
		{"generate", []Task{{ID: "1", Description: "Write App.jsx", Status: StatusInProgress}}, PhaseGenerating},
		{"default", []Task{{ID: "1", Description: "Add timer", Status: StatusInProgress}}, PhaseGenerating},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			p.Update(tt.tasks)
			assert.Equal(t, tt.want, p.CurrentPhase())
		})
	}
}

func TestUpdateCopiesInput(t *testing.T) {
	p := New()
	tasks := []Task{{ID: "1", Description: "a", Status: StatusPending}}
	p.Update(tasks)
	tasks[0].Status = StatusCompleted
	assert.Equal(t, StatusPending, p.Tasks()[0].Status)
}
