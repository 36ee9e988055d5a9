package app

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/cft-yamuna/quiz-agent/internal/audit"
	"github.com/cft-yamuna/quiz-agent/internal/chat"
	"github.com/cft-yamuna/quiz-agent/internal/client"
	"github.com/cft-yamuna/quiz-agent/internal/config"
	"github.com/cft-yamuna/quiz-agent/internal/devserver"
	"github.com/cft-yamuna/quiz-agent/internal/figma"
	"github.com/cft-yamuna/quiz-agent/internal/logging"
	"github.com/cft-yamuna/quiz-agent/internal/mcp"
	"github.com/cft-yamuna/quiz-agent/internal/memory"
	"github.com/cft-yamuna/quiz-agent/internal/prompt"
	"github.com/cft-yamuna/quiz-agent/internal/screenshot"
	"github.com/cft-yamuna/quiz-agent/internal/snapshot"
)

// Builder assembles an App step by step. Optional components that fail to
// initialise are logged and left nil; required ones abort the build.
type Builder struct {
	cfg *config.Config
	ctx context.Context

	// model replaces the Gemini client, for tests.
	model client.Model

	mem       *memory.Store
	figma     *figma.Client
	mcp       *mcp.DesignFetcher
	devServer *devserver.Manager
	validator *screenshot.Validator
	snapshots *snapshot.Manager
	history   *chat.History
	context   *prompt.ContextBuilder

	mu          sync.Mutex
	buildErrors []error
}

// NewBuilder creates a builder for cfg.
func NewBuilder(ctx context.Context, cfg *config.Config) *Builder {
	return &Builder{cfg: cfg, ctx: ctx}
}

// WithModel uses m instead of connecting to Gemini.
func (b *Builder) WithModel(m client.Model) *Builder {
	b.model = m
	return b
}

// Build constructs the App.
func (b *Builder) Build() (*App, error) {
	if err := b.initDirs(); err != nil {
		b.addError(err)
		return nil, b.finalizeError()
	}
	if err := b.initModel(); err != nil {
		b.addError(err)
		return nil, b.finalizeError()
	}
	if err := b.initMemory(); err != nil {
		b.addError(err)
		return nil, b.finalizeError()
	}
	b.initDesign()
	b.initPreview()
	b.initProjects()
	b.initAudit()

	return b.assembleApp(), b.finalizeError()
}

func (b *Builder) initDirs() error {
	for _, rel := range []string{b.cfg.Paths.Output, b.cfg.Paths.FigmaCache, b.cfg.Paths.Screenshots} {
		if err := os.MkdirAll(b.cfg.Path(rel), 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", rel, err)
		}
	}
	return nil
}

func (b *Builder) initModel() error {
	if b.model != nil {
		return nil
	}
	m, err := client.NewGemini(b.ctx, b.cfg)
	if err != nil {
		return NewAppError(ErrCodeClient, "failed to create model client", err)
	}
	b.model = m
	return nil
}

func (b *Builder) initMemory() error {
	store, err := memory.NewStore(b.cfg.Path(b.cfg.Paths.MemoryStore), b.cfg.Memory.MaxSessions)
	if err != nil {
		return fmt.Errorf("failed to open memory store: %w", err)
	}
	b.mem = store
	return nil
}

// initDesign wires the Figma REST client and, when configured, the MCP
// fetcher.
func (b *Builder) initDesign() {
	fc := b.cfg.Figma
	b.figma = figma.NewClient(figma.Options{
		Token:             fc.Token,
		BaseURL:           fc.BaseURL,
		CacheDir:          b.cfg.Path(b.cfg.Paths.FigmaCache),
		CacheTTL:          fc.CacheTTL,
		MaxRetries:        fc.MaxRetries,
		RequestsPerMinute: fc.RequestsPerMinute,
	})
	if fc.Configured() {
		logging.Info("figma design connected", "url", fc.URL)
	}

	if b.cfg.MCP.Configured() {
		b.mcp = mcp.NewDesignFetcher(mcp.ServerConfig{
			Command: b.cfg.MCP.Command,
			Args:    b.cfg.MCP.Args,
			Timeout: b.cfg.MCP.Timeout,
		})
		if _, err := exec.LookPath(b.cfg.MCP.Command); err != nil {
			LogOptional("figma MCP", err)
		}
		logging.Info("figma MCP server configured", "command", b.cfg.MCP.Command)
	}
}

// initPreview wires the dev server slot and the screenshot validator.
func (b *Builder) initPreview() {
	dc := b.cfg.DevServer
	b.devServer = devserver.NewManager(dc.Port, dc.StartupCheck, dc.StopTimeout)

	vc := b.cfg.Validator
	capturer := screenshot.NewChromeCapturer()
	if vc.Width > 0 && vc.Height > 0 {
		capturer.Width, capturer.Height = vc.Width, vc.Height
	}
	if vc.Settle > 0 {
		capturer.Settle = vc.Settle
	}
	if vc.NavTimeout > 0 {
		capturer.NavTimeout = vc.NavTimeout
	}
	b.validator = &screenshot.Validator{
		Frames:    screenshot.ManifestSource{Dir: b.cfg.Path(b.cfg.Paths.FigmaCache)},
		Capturer:  capturer,
		BaseURL:   vc.BaseURL,
		OutputDir: b.cfg.Path(b.cfg.Paths.Output),
		ShotsDir:  b.cfg.Path(b.cfg.Paths.Screenshots),
	}
}

func (b *Builder) initProjects() {
	outputDir := b.cfg.Path(b.cfg.Paths.Output)
	b.history = chat.NewHistory()
	b.context = prompt.NewContextBuilder(outputDir, b.history)
	if b.cfg.Snapshots.Enabled {
		b.snapshots = snapshot.NewManager(outputDir, b.cfg.Snapshots.Max)
	}
}

// initAudit prunes expired build trails.
func (b *Builder) initAudit() {
	lc := b.cfg.Logging
	if !lc.Audit || lc.AuditRetention <= 0 {
		return
	}
	dir := filepath.Join(b.cfg.Path(b.cfg.Paths.LogDir), "audit")
	if n, err := audit.Cleanup(dir, lc.AuditRetention); err != nil {
		LogOptional("audit cleanup", err)
	} else if n > 0 {
		logging.Debug("removed expired audit trails", "count", n)
	}
}

func (b *Builder) assembleApp() *App {
	return &App{
		cfg:       b.cfg,
		model:     b.model,
		memory:    b.mem,
		figma:     b.figma,
		mcp:       b.mcp,
		devServer: b.devServer,
		validator: b.validator,
		snapshots: b.snapshots,
		history:   b.history,
		context:   b.context,
	}
}

func (b *Builder) addError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buildErrors = append(b.buildErrors, err)
}

// finalizeError combines all build errors into a single error.
func (b *Builder) finalizeError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch len(b.buildErrors) {
	case 0:
		return nil
	case 1:
		return b.buildErrors[0]
	}
	msg := fmt.Sprintf("app build failed with %d error(s)", len(b.buildErrors))
	for i, err := range b.buildErrors {
		msg += fmt.Sprintf("\n  %d. %s", i+1, err.Error())
	}
	return fmt.Errorf("%s", msg)
}
