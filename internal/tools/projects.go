package tools

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cft-yamuna/quiz-agent/internal/project"
	"github.com/cft-yamuna/quiz-agent/internal/prompt"
)

func (e *Executor) checkExistingProjects() (Result, error) {
	projects, err := project.List(e.outputDir())
	if err != nil {
		return Result{}, err
	}
	if len(projects) == 0 {
		return NewResult("No existing projects found in output/. Create a new project."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d existing project(s) in output/:\n", len(projects))
	for _, p := range projects {
		fmt.Fprintf(&b, "\n- %s (%s)\n", p.Name, p.Tech)
		info := prompt.ScanInfo(filepath.Join(e.outputDir(), p.Name))
		for _, line := range strings.Split(info, "\n") {
			b.WriteString("  " + line + "\n")
		}
	}
	return NewResult(strings.TrimRight(b.String(), "\n")), nil
}
