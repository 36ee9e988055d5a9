// Package agent drives the tool-calling conversation with the model until
// it answers without asking for tools.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/cft-yamuna/quiz-agent/internal/client"
	"github.com/cft-yamuna/quiz-agent/internal/logging"
	"github.com/cft-yamuna/quiz-agent/internal/memory"
	"github.com/cft-yamuna/quiz-agent/internal/planner"
	"github.com/cft-yamuna/quiz-agent/internal/prompt"
	"github.com/cft-yamuna/quiz-agent/internal/tools"
)

// State is where a run is in the loop.
type State string

const (
	StateAwaitingModel    State = "AWAITING_MODEL"
	StateDispatchingTools State = "DISPATCHING_TOOLS"
	StateDone             State = "DONE"
	StateStopped          State = "STOPPED"
	StateExhausted        State = "EXHAUSTED"
	StateFailed           State = "FAILED"
)

// DefaultMaxIterations is the model-turn ceiling of a run.
const DefaultMaxIterations = 50

// ExhaustedText is returned when the ceiling is hit.
const ExhaustedText = "Agent reached maximum iteration limit."

const (
	emptyResponseNudge = "Your last reply was empty. Continue the task: call a tool, " +
		"or reply with a short summary if the work is finished."
	emptyResponseText = "ERROR: model returned an empty response."
	maxRetryDelay     = 30 * time.Second
)

// ErrStopped is returned when the run's context is cancelled.
var ErrStopped = errors.New("build stopped by user")

// Outcome is the terminal result of a run.
type Outcome struct {
	State      State
	Text       string
	Iterations int
}

// Config tunes a run.
type Config struct {
	MaxIterations int
	// RetryDelay is the base backoff before retrying a failed model request.
	RetryDelay      time.Duration
	FigmaConfigured bool
	Autonomous      bool
	// WithMCP declares fetch_figma_mcp to the model.
	WithMCP bool
	// ModelFor picks the model for a planner phase. Nil uses the model's default.
	ModelFor func(phase string) string
}

// Agent runs one build conversation. It is not safe for concurrent use.
type Agent struct {
	model    client.Model
	executor *tools.Executor
	memory   *memory.Store
	planner  *planner.Planner
	cfg      Config
	observer Observer
	compose  composer
	tools    []*genai.FunctionDeclaration

	state      State
	iterations int
}

// New creates an agent. memory and p may be nil.
func New(model client.Model, executor *tools.Executor, mem *memory.Store, p *planner.Planner, cfg Config) *Agent {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if p == nil {
		p = planner.New()
	}
	a := &Agent{
		model:    model,
		executor: executor,
		memory:   mem,
		planner:  p,
		cfg:      cfg,
		observer: nopObserver{},
		tools:    tools.Declarations(cfg.WithMCP),
	}
	a.compose = composer{warn: func(msg string) {
		a.emit(Event{Kind: EventWarning, Iteration: a.iterations, Text: msg})
	}}
	return a
}

// SetObserver installs the progress observer.
func (a *Agent) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	a.observer = o
}

// State returns the current loop state.
func (a *Agent) State() State {
	return a.state
}

// Iterations returns the number of model turns taken so far.
func (a *Agent) Iterations() int {
	return a.iterations
}

func (a *Agent) emit(e Event) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("observer panicked", "kind", e.Kind, "panic", r)
		}
	}()
	a.observer.Observe(e)
}

// Run drives the loop for one brief. images are attached to the opening
// turn. Cancelling ctx stops the run at the next checkpoint and returns
// ErrStopped; every other terminal state is reported through Outcome.
func (a *Agent) Run(ctx context.Context, input string, images []string) (*Outcome, error) {
	a.iterations = 0
	system := a.systemPrompt(input)
	contents := []*genai.Content{a.openingTurn(input, images)}
	nudged := false

	for a.iterations < a.cfg.MaxIterations {
		if ctx.Err() != nil {
			return a.stopped()
		}

		a.iterations++
		a.state = StateAwaitingModel
		phase := string(a.planner.CurrentPhase())
		modelName := a.modelFor(phase)
		a.emit(Event{Kind: EventIteration, Iteration: a.iterations, Phase: phase, Model: modelName})
		logging.Debug("agent iteration", "iteration", a.iterations, "phase", phase, "model", modelName)

		resp, err := a.generate(ctx, &client.Request{
			Model:    modelName,
			System:   system,
			Contents: contents,
			Tools:    a.tools,
		})
		if err != nil {
			if ctx.Err() != nil {
				return a.stopped()
			}
			logging.Error("model request failed", "iteration", a.iterations, "error", err)
			return a.finish(StateFailed, "ERROR: model request failed: "+err.Error()), nil
		}

		if resp.Empty() {
			if nudged {
				logging.Warn("model returned empty response twice", "iteration", a.iterations)
				return a.finish(StateFailed, emptyResponseText), nil
			}
			nudged = true
			logging.Warn("model returned empty response", "iteration", a.iterations)
			contents = append(contents, genai.NewContentFromText(emptyResponseNudge, genai.RoleUser))
			continue
		}
		contents = append(contents, resp.Content)

		text := resp.Text()
		if text != "" {
			a.emit(Event{Kind: EventText, Iteration: a.iterations, Text: text})
		}

		if len(resp.FunctionCalls) == 0 {
			a.saveSession(input, text)
			return a.finish(StateDone, text), nil
		}

		a.state = StateDispatchingTools
		turn, stopped := a.dispatch(ctx, resp.FunctionCalls)
		if stopped {
			return a.stopped()
		}
		contents = append(contents, turn)
	}

	logging.Warn("agent reached iteration limit", "limit", a.cfg.MaxIterations)
	return a.finish(StateExhausted, ExhaustedText), nil
}

// dispatch runs calls in order and builds the user turn that answers them.
func (a *Agent) dispatch(ctx context.Context, calls []*genai.FunctionCall) (*genai.Content, bool) {
	parts := make([]*genai.Part, 0, len(calls))
	var atts []tools.Attachment

	for _, fc := range calls {
		if ctx.Err() != nil {
			return nil, true
		}
		a.emit(Event{Kind: EventToolCall, Iteration: a.iterations, Tool: fc.Name, Text: SummarizeArgs(fc.Args)})

		start := time.Now()
		res := a.executor.Execute(ctx, fc.Name, fc.Args)
		logging.Info("tool executed", "tool", fc.Name, "duration", time.Since(start), "error", res.IsError)

		a.emit(Event{
			Kind:      EventToolResult,
			Iteration: a.iterations,
			Tool:      fc.Name,
			Text:      res.Text,
			IsError:   res.IsError,
			Images:    len(res.Attachments),
		})

		part := genai.NewPartFromFunctionResponse(fc.Name, map[string]any{"result": res.Text})
		part.FunctionResponse.ID = fc.ID
		parts = append(parts, part)
		atts = append(atts, res.Attachments...)
	}

	if ctx.Err() != nil {
		return nil, true
	}

	if len(atts) > 0 {
		extra, n := a.compose.compose(atts)
		if n > 0 {
			logging.Info("attaching images to tool results", "images", n)
		}
		parts = append(parts, extra...)
	}
	return &genai.Content{Role: genai.RoleUser, Parts: parts}, false
}

// generate calls the model, retrying a transient failure once.
func (a *Agent) generate(ctx context.Context, req *client.Request) (*client.Response, error) {
	resp, err := a.model.Generate(ctx, req)
	if err == nil || ctx.Err() != nil || !client.IsRetryableError(err) {
		return resp, err
	}

	delay := client.CalculateBackoff(a.cfg.RetryDelay, 0, maxRetryDelay)
	logging.Warn("model request failed, retrying", "error", err, "delay", delay)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	resp, retryErr := a.model.Generate(ctx, req)
	if retryErr != nil {
		return nil, fmt.Errorf("%w (after retry)", retryErr)
	}
	return resp, nil
}

func (a *Agent) systemPrompt(input string) string {
	var memoryContext string
	if a.memory != nil {
		memoryContext = a.memory.RelevantContext(input)
	}
	mode := prompt.ModeFor(a.cfg.FigmaConfigured, input)
	logging.Info("building system prompt", "figma_mode", mode, "autonomous", a.cfg.Autonomous)
	return prompt.NewBuilder().
		SetMemoryContext(memoryContext).
		SetFigmaMode(mode).
		SetAutonomous(a.cfg.Autonomous).
		Build()
}

func (a *Agent) openingTurn(input string, images []string) *genai.Content {
	parts := []*genai.Part{genai.NewPartFromText(input)}
	for _, path := range images {
		if p := a.compose.image(path); p != nil {
			parts = append(parts, p)
		}
	}
	return &genai.Content{Role: genai.RoleUser, Parts: parts}
}

func (a *Agent) modelFor(phase string) string {
	if a.cfg.ModelFor != nil {
		if name := a.cfg.ModelFor(phase); name != "" {
			return name
		}
	}
	return a.model.Name()
}

func (a *Agent) saveSession(input, response string) {
	if a.memory == nil {
		return
	}
	if err := a.memory.SaveSession(input, response); err != nil {
		logging.Warn("failed to save session to memory", "error", err)
	}
}

func (a *Agent) finish(state State, text string) *Outcome {
	a.state = state
	return &Outcome{State: state, Text: text, Iterations: a.iterations}
}

func (a *Agent) stopped() (*Outcome, error) {
	logging.Info("build stopped", "iteration", a.iterations)
	return a.finish(StateStopped, ""), ErrStopped
}
