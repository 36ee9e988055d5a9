// Package app wires configuration, the model and the tool collaborators
// into quiz builds shared by the CLI and the web server.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/cft-yamuna/quiz-agent/internal/agent"
	"github.com/cft-yamuna/quiz-agent/internal/audit"
	"github.com/cft-yamuna/quiz-agent/internal/chat"
	"github.com/cft-yamuna/quiz-agent/internal/client"
	"github.com/cft-yamuna/quiz-agent/internal/config"
	"github.com/cft-yamuna/quiz-agent/internal/devserver"
	"github.com/cft-yamuna/quiz-agent/internal/figma"
	"github.com/cft-yamuna/quiz-agent/internal/logging"
	"github.com/cft-yamuna/quiz-agent/internal/mcp"
	"github.com/cft-yamuna/quiz-agent/internal/memory"
	"github.com/cft-yamuna/quiz-agent/internal/planner"
	"github.com/cft-yamuna/quiz-agent/internal/project"
	"github.com/cft-yamuna/quiz-agent/internal/prompt"
	"github.com/cft-yamuna/quiz-agent/internal/screenshot"
	"github.com/cft-yamuna/quiz-agent/internal/security"
	"github.com/cft-yamuna/quiz-agent/internal/snapshot"
	"github.com/cft-yamuna/quiz-agent/internal/tools"
)

// ErrProjectNotFound is returned for an unknown project name.
var ErrProjectNotFound = errors.New("project not found")

// App holds the long-lived collaborators. Each Build gets its own planner,
// executor session and agent.
type App struct {
	cfg       *config.Config
	model     client.Model
	memory    *memory.Store
	figma     *figma.Client
	mcp       *mcp.DesignFetcher
	devServer *devserver.Manager
	validator *screenshot.Validator
	snapshots *snapshot.Manager
	history   *chat.History
	context   *prompt.ContextBuilder
}

// New builds an App from cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	return NewBuilder(ctx, cfg).Build()
}

// Config returns the configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Memory returns the long-term memory store.
func (a *App) Memory() *memory.Store { return a.memory }

// DevServer returns the preview server slot.
func (a *App) DevServer() *devserver.Manager { return a.devServer }

// Snapshots returns the snapshot manager, nil when snapshots are disabled.
func (a *App) Snapshots() *snapshot.Manager { return a.snapshots }

// OutputDir is the directory holding generated projects.
func (a *App) OutputDir() string {
	return a.cfg.Path(a.cfg.Paths.Output)
}

// AuditDir is where build trails are kept, empty when auditing is off.
func (a *App) AuditDir() string {
	if !a.cfg.Logging.Audit {
		return ""
	}
	return filepath.Join(a.cfg.Path(a.cfg.Paths.LogDir), "audit")
}

// FigmaConfigured reports whether a design file is connected.
func (a *App) FigmaConfigured() bool {
	return a.cfg.Figma.Configured()
}

// BuildRequest is one brief to build.
type BuildRequest struct {
	Brief string
	// Project names the output directory. Empty leaves the choice to the model.
	Project string
	// SessionID names the audit trail and doubles as the snapshot id;
	// empty generates one.
	SessionID string
	Images    []string
	Asker     tools.Asker
	Observer  agent.Observer
}

// BuildResult reports a finished, stopped or failed build.
type BuildResult struct {
	SessionID  string
	Project    string
	SnapshotID string
	Outcome    *agent.Outcome
}

// Build runs the agent for one brief. A stopped build returns
// agent.ErrStopped together with a result carrying the iteration count.
func (a *App) Build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	brief := strings.TrimSpace(req.Brief)
	if brief == "" {
		return nil, fmt.Errorf("brief is required")
	}
	name := project.Sanitize(req.Project)
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()[:8]
	}
	res := &BuildResult{SessionID: req.SessionID, Project: name}

	// A Figma link in the brief overrides the configured design for this run.
	figmaURL := a.cfg.Figma.URL
	if url, ok := figma.ExtractURL(brief); ok {
		figmaURL = url
		logging.Info("figma URL found in brief", "url", url)
	}
	figmaConfigured := a.cfg.Figma.Token != "" && figmaURL != ""

	input := prompt.AddFigmaHint(brief, figmaConfigured, figmaURL)
	if name != "" {
		if a.snapshots != nil && project.IsExisting(filepath.Join(a.OutputDir(), name)) {
			id, err := a.snapshots.Take(name, req.SessionID, brief)
			if err != nil {
				logging.Warn("failed to take snapshot", "project", name, "error", err)
			}
			res.SnapshotID = id
		}
		input = a.context.Build(name, input)
	}

	session := &tools.Session{Project: name}
	if figmaURL != a.cfg.Figma.URL {
		session.FigmaURL = figmaURL
	}

	autonomous := a.cfg.Tools.Autonomous || req.Asker == nil
	p := planner.New()
	deps := a.toolDeps(p, req.Asker, autonomous)
	if trail := a.openTrail(req.SessionID, name); trail != nil {
		defer trail.Close()
		deps.Audit = trail
	}
	exec := tools.NewExecutor(deps, session)
	ag := agent.New(a.model, exec, a.memory, p, agent.Config{
		MaxIterations:   a.cfg.Model.MaxIterations,
		RetryDelay:      a.cfg.API.RetryDelay,
		FigmaConfigured: figmaConfigured,
		Autonomous:      autonomous,
		WithMCP:         a.mcp != nil,
		ModelFor:        a.cfg.Model.ModelFor,
	})
	ag.SetObserver(req.Observer)

	logging.Info("build started", "project", name, "figma", figmaConfigured)
	outcome, err := ag.Run(ctx, input, req.Images)
	res.Outcome = outcome
	if session.Project != "" {
		res.Project = session.Project
	}
	if err != nil {
		return res, err
	}

	if outcome.State == agent.StateDone && res.Project != "" {
		dir := filepath.Join(a.OutputDir(), res.Project)
		if err := a.history.Append(dir, brief, outcome.Text); err != nil {
			logging.Warn("failed to append chat history", "project", res.Project, "error", err)
		}
	}
	logging.Info("build finished", "project", res.Project, "state", outcome.State, "iterations", outcome.Iterations)
	return res, nil
}

// openTrail starts the audit trail of a build. Failures only disable it.
func (a *App) openTrail(sessionID, project string) *audit.Logger {
	dir := a.AuditDir()
	if dir == "" {
		return nil
	}
	trail, err := audit.NewLogger(dir, sessionID, project)
	if err != nil {
		LogOptional("audit trail", err)
		return nil
	}
	return trail
}

func (a *App) toolDeps(p *planner.Planner, asker tools.Asker, autonomous bool) *tools.Deps {
	deps := &tools.Deps{
		Root:       a.cfg.Paths.Root,
		Memory:     a.memory,
		Planner:    p,
		DevServer:  a.devServer,
		Validator:  a.validator,
		Asker:      asker,
		FigmaToken: a.cfg.Figma.Token != "",
		FigmaURL:   a.cfg.Figma.URL,
		FigmaCache: a.cfg.Path(a.cfg.Paths.FigmaCache),
		FigmaOptions: figma.FetchOptions{
			ExportLimit: a.cfg.Figma.ExportLimit,
			Scale:       a.cfg.Figma.ExportScale,
			MaxChars:    a.cfg.Figma.MaxReportChars,
		},
		Autonomous:     autonomous,
		ReadFileLimit:  a.cfg.Tools.ReadFileLimit,
		CommandTimeout: a.cfg.Tools.CommandTimeout,
		InstallTimeout: a.cfg.Tools.InstallTimeout,
		TimeoutFor:     a.cfg.Tools.TimeoutFor,
	}
	if a.figma != nil {
		deps.Figma = a.figma
	}
	if a.mcp != nil {
		deps.MCP = a.mcp
	}
	return deps
}

// RunStatus is the result of starting a project's preview.
type RunStatus struct {
	Status  string `json:"status"`
	URL     string `json:"url,omitempty"`
	Project string `json:"project,omitempty"`
	Message string `json:"message,omitempty"`
}

// RunProject starts the dev server for a project, replacing any running
// one. Projects without a package.json are static and need no server.
func (a *App) RunProject(ctx context.Context, name string) (*RunStatus, error) {
	if !security.ValidProjectName(name) {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, name)
	}
	dir := filepath.Join(a.OutputDir(), name)
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, name)
	}
	if !project.IsExisting(dir) {
		return &RunStatus{
			Status:  "static",
			Message: fmt.Sprintf("Static project. Open output/%s/index.html directly.", name),
		}, nil
	}

	a.devServer.Stop()
	if err := devserver.EnsureInstalled(ctx, dir, a.cfg.Tools.InstallTimeout); err != nil {
		return nil, err
	}
	command := fmt.Sprintf("%s -- --port %d --host", devserver.DefaultCommand, a.devServer.Port)
	status, err := a.devServer.Start(ctx, name, dir, command)
	if err != nil {
		return nil, err
	}
	return &RunStatus{Status: "running", URL: status.URL, Project: name}, nil
}

// Close stops the preview server.
func (a *App) Close() {
	if a.devServer != nil {
		a.devServer.Stop()
	}
}
