package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/cft-yamuna/quiz-agent/internal/devserver"
	"github.com/cft-yamuna/quiz-agent/internal/figma"
	"github.com/cft-yamuna/quiz-agent/internal/logging"
	"github.com/cft-yamuna/quiz-agent/internal/memory"
	"github.com/cft-yamuna/quiz-agent/internal/planner"
	"github.com/cft-yamuna/quiz-agent/internal/screenshot"
	"github.com/cft-yamuna/quiz-agent/internal/security"
)

// DefaultTimeout bounds a tool with no configured budget.
const DefaultTimeout = 15 * time.Second

// DesignSource is the Figma REST surface the design tools need.
type DesignSource interface {
	FetchDesign(ctx context.Context, ref figma.Ref, opts figma.FetchOptions) (*figma.Design, error)
	File(ctx context.Context, ref figma.Ref) (*figma.File, error)
	ExportFrames(ctx context.Context, ref figma.Ref, frames []figma.Frame, limit, scale int) ([]figma.ExportedFrame, error)
}

// MCPDesignFetcher fetches a design description through an MCP server.
type MCPDesignFetcher interface {
	FetchDesign(ctx context.Context, figmaURL, nodeID string) (string, error)
}

// ScreenshotValidator captures the running app and compares it to the design.
type ScreenshotValidator interface {
	Validate(ctx context.Context, project string, routes []string) (*screenshot.Result, error)
}

// DevServer runs the single background preview server.
type DevServer interface {
	Start(ctx context.Context, project, dir, command string) (*devserver.Status, error)
}

// Asker delivers ask_user questions to a person.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Recorder keeps the trail of executed calls.
type Recorder interface {
	Record(tool string, args map[string]any, result string, success bool, d time.Duration)
}

// Deps are the collaborators shared by every tool call of a run. Nil
// collaborators make the matching tools answer with an error text.
type Deps struct {
	// Root is the directory holding output/. Every path a tool touches
	// must resolve inside it.
	Root string

	Memory    *memory.Store
	Planner   *planner.Planner
	DevServer DevServer
	Validator ScreenshotValidator
	Asker     Asker
	Audit     Recorder

	Figma DesignSource
	// FigmaToken reports whether a Figma access token is configured.
	FigmaToken   bool
	FigmaURL     string
	FigmaCache   string
	FigmaOptions figma.FetchOptions
	MCP          MCPDesignFetcher

	// Autonomous answers ask_user with a directive instead of asking.
	Autonomous bool

	ReadFileLimit  int
	CommandTimeout time.Duration
	InstallTimeout time.Duration

	// TimeoutFor returns the wall-clock budget of a tool.
	TimeoutFor func(tool string) time.Duration
}

// Session is the per-run state the tools read and update.
type Session struct {
	// Project is the active project; relative paths land in output/<Project>/.
	Project string
	// FigmaURL overrides the configured design for this run.
	FigmaURL string
}

// Executor runs tool calls for one agent run.
type Executor struct {
	deps    *Deps
	session *Session
}

// NewExecutor creates an executor. The session may be updated between calls.
func NewExecutor(deps *Deps, session *Session) *Executor {
	if session == nil {
		session = &Session{}
	}
	return &Executor{deps: deps, session: session}
}

// Session returns the run state.
func (e *Executor) Session() *Session {
	return e.session
}

// errorPayload is the structured error shown to the model.
type errorPayload struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Tool    string `json:"tool"`
}

// ErrorResult converts err into the structured error result of tool.
func ErrorResult(tool, message string) Result {
	data, err := json.Marshal(errorPayload{Error: true, Message: message, Tool: tool})
	if err != nil {
		data = []byte(fmt.Sprintf(`{"error":true,"message":%q,"tool":%q}`, message, tool))
	}
	return Result{Text: string(data), IsError: true}
}

// Execute parses and runs one tool call under its timeout. It never returns
// an error: failures, panics and timeouts become error results.
func (e *Executor) Execute(ctx context.Context, name string, args map[string]any) Result {
	start := time.Now()
	var res Result
	if call, err := ParseCall(name, args); err != nil {
		logging.Warn("invalid tool call", "tool", name, "error", err)
		res = ErrorResult(name, err.Error())
	} else {
		res = e.Run(ctx, call)
	}
	if e.deps.Audit != nil {
		e.deps.Audit.Record(name, args, res.Text, !res.IsError, time.Since(start))
	}
	return res
}

// Run executes a parsed call under its timeout.
func (e *Executor) Run(ctx context.Context, call Call) Result {
	name := call.ToolName()
	timeout := e.timeout(name)
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				stack := make([]byte, 4096)
				length := runtime.Stack(stack, false)
				logging.Error("tool execution panic",
					"tool", name,
					"panic", r,
					"stack", string(stack[:length]))
				done <- ErrorResult(name, fmt.Sprintf("panic: %v", r))
			}
		}()
		res, err := e.dispatch(execCtx, call)
		if err != nil {
			res = ErrorResult(name, err.Error())
		}
		done <- res
	}()

	select {
	case res := <-done:
		logging.Debug("tool executed", "tool", name, "duration", time.Since(start), "error", res.IsError)
		return res
	case <-execCtx.Done():
		// The handler goroutine is abandoned; its result is dropped.
		if ctx.Err() != nil {
			return ErrorResult(name, "cancelled")
		}
		logging.Warn("tool timed out", "tool", name, "timeout", timeout)
		return ErrorResult(name, fmt.Sprintf("Tool timed out after %d seconds", int(timeout.Seconds())))
	}
}

func (e *Executor) timeout(name string) time.Duration {
	if e.deps.TimeoutFor != nil {
		if d := e.deps.TimeoutFor(name); d > 0 {
			return d
		}
	}
	return DefaultTimeout
}

func (e *Executor) dispatch(ctx context.Context, call Call) (Result, error) {
	switch c := call.(type) {
	case CreateFile:
		return e.createFile(c)
	case CreateFiles:
		return e.createFiles(c)
	case ReadFile:
		return e.readFile(c)
	case ListFiles:
		return e.listFiles(c)
	case RunCommand:
		return e.runCommand(ctx, c)
	case SearchMemory:
		return e.searchMemory(c)
	case SaveMemory:
		return e.saveMemory(c)
	case PlanTasks:
		return e.planTasks(c)
	case PreviewApp:
		return e.previewApp(ctx, c)
	case AskUser:
		return e.askUser(ctx, c)
	case FetchFigmaDesign:
		return e.fetchFigmaDesign(ctx, c)
	case ValidateScreenshots:
		return e.validateScreenshots(ctx, c)
	case AnalyzeFlow:
		return e.analyzeFlow(ctx)
	case FetchFigmaMCP:
		return e.fetchFigmaMCP(ctx, c)
	case CheckExistingProjects:
		return e.checkExistingProjects()
	default:
		return Result{}, &UnknownToolError{Name: call.ToolName()}
	}
}

// resolve maps a model path into output/<project>/ and returns the relative
// form and the contained absolute path.
func (e *Executor) resolve(p string) (rel, abs string, err error) {
	rel = security.ResolveOutputPath(p, e.session.Project)
	abs, err = security.Contain(e.deps.Root, rel)
	if err != nil {
		return rel, "", err
	}
	return rel, abs, nil
}

// outputDir returns the absolute directory holding every project.
func (e *Executor) outputDir() string {
	return filepath.Join(e.deps.Root, security.OutputDir)
}
