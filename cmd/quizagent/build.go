package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/cft-yamuna/quiz-agent/internal/agent"
	"github.com/cft-yamuna/quiz-agent/internal/app"
	"github.com/cft-yamuna/quiz-agent/internal/logging"
	"github.com/cft-yamuna/quiz-agent/internal/project"
	"github.com/cft-yamuna/quiz-agent/internal/ui"
)

// runInteractive reads briefs until quit. Every brief is a fresh build;
// memory carries over between them.
func runInteractive(a *app.App, console *ui.Console) error {
	console.Info("\nType your quiz brief, or 'quit' to exit.")
	console.Info("Each message starts a fresh quiz build.\n")

	ctx := context.Background()
	for {
		input, err := console.Prompt(ctx, "You: ")
		if err != nil {
			console.Info("\nGoodbye!")
			return nil
		}
		if input == "" {
			continue
		}
		switch strings.ToLower(input) {
		case "quit", "exit", "q":
			console.Info("Goodbye!")
			return nil
		}

		name, err := console.Prompt(ctx, "Project name: ")
		if err != nil {
			console.Info("\nGoodbye!")
			return nil
		}
		if project.Sanitize(name) == "" {
			console.Error("Project name is required.\n")
			continue
		}

		console.Info("")
		if err := buildOnce(a, console, input, name); err != nil && !errors.Is(err, agent.ErrStopped) {
			console.Error("\nError: %v\n", err)
		}
	}
}

// runSingle builds one brief, asking for a project name when --name is
// missing.
func runSingle(a *app.App, console *ui.Console, brief string) error {
	name := projectName
	if name == "" {
		var err error
		name, err = console.Prompt(context.Background(), "Project name: ")
		if err != nil {
			console.Info("\nAborted.")
			return nil
		}
	}
	if project.Sanitize(name) == "" {
		return app.NewAppError(app.ErrCodeValidation, "Project name is required.", nil)
	}

	console.Info("\nBrief: %s", brief)
	console.Info("Project: %s\n", project.Sanitize(name))
	err := buildOnce(a, console, brief, name)
	if errors.Is(err, agent.ErrStopped) {
		return nil
	}
	return err
}

// buildOnce runs one build with Ctrl+C wired to stop it, then offers to
// start the dev server.
func buildOnce(a *app.App, console *ui.Console, brief, name string) error {
	ctx, stop := app.InterruptContext(context.Background())
	res, err := a.Build(ctx, app.BuildRequest{
		Brief:    brief,
		Project:  name,
		Asker:    console,
		Observer: console,
	})
	stop()

	switch {
	case errors.Is(err, agent.ErrStopped):
		iterations := 0
		if res != nil {
			iterations = res.Outcome.Iterations
		}
		console.Stopped(iterations)
		return err
	case err != nil:
		return err
	}

	console.Result(res.Outcome.Text)
	offerRun(a, console)
	return nil
}

// offerRun offers to start the dev server for the most recently changed
// project and keeps it running until Ctrl+C.
func offerRun(a *app.App, console *ui.Console) {
	latest, ok := project.Latest(a.OutputDir())
	if !ok {
		return
	}
	dir := filepath.Join(a.OutputDir(), latest.Name)
	if _, err := os.Stat(filepath.Join(dir, "package.json")); err != nil {
		return
	}
	if !console.Confirm(context.Background(), "\n  Run '"+latest.Name+"'? Start dev server") {
		return
	}

	if _, err := os.Stat(filepath.Join(dir, "node_modules")); err != nil {
		console.Info("  Installing dependencies...")
	}

	ctx, stop := app.InterruptContext(context.Background())
	defer stop()

	status, err := a.RunProject(ctx, latest.Name)
	if err != nil {
		console.Error("  %v", err)
		return
	}
	if status.Status != "running" {
		console.Info("  %s", status.Message)
		return
	}
	console.Success("  Dev server running on %s. Press Ctrl+C to stop.\n", status.URL)
	logging.Info("dev server started", "project", latest.Name, "url", status.URL)

	<-ctx.Done()
	a.DevServer().Stop()
	console.Info("\n  Dev server stopped.\n")
}
