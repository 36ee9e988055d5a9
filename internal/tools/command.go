package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/cft-yamuna/quiz-agent/internal/devserver"
	"github.com/cft-yamuna/quiz-agent/internal/logging"
	"github.com/cft-yamuna/quiz-agent/internal/security"
	"github.com/cft-yamuna/quiz-agent/internal/shell"
)

var (
	cdProjectRe = regexp.MustCompile(`cd\s+(output[/\\]\S+)`)
	cdPrefixRe  = regexp.MustCompile(`^cd\s+\S+\s*&&\s*`)
)

// backgroundPatterns mark commands that never exit on their own.
var backgroundPatterns = []string{"npm run dev", "npm start", "npx vite", "npm run preview"}

// IsBackgroundCommand reports whether command starts a long-running server.
func IsBackgroundCommand(command string) bool {
	lower := normalizeCommand(command)
	for _, p := range backgroundPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// commandDir picks the working directory of command: the project named by a
// leading "cd output/<x>", else the active project, else the root.
func (e *Executor) commandDir(command string) string {
	if m := cdProjectRe.FindStringSubmatch(command); m != nil {
		rel := strings.ReplaceAll(m[1], "\\", "/")
		if abs, err := security.Contain(e.deps.Root, rel); err == nil && isDir(abs) {
			return abs
		}
	}
	if e.session.Project != "" {
		dir := filepath.Join(e.outputDir(), e.session.Project)
		if isDir(dir) {
			return dir
		}
	}
	return e.deps.Root
}

func (e *Executor) runCommand(ctx context.Context, c RunCommand) (Result, error) {
	if err := security.ValidateCommand(c.Command); err != nil {
		return Result{}, err
	}

	dir := e.commandDir(c.Command)
	command := strings.TrimSpace(cdPrefixRe.ReplaceAllString(strings.TrimSpace(c.Command), ""))

	if IsBackgroundCommand(command) {
		return e.startBackground(ctx, dir, command), nil
	}

	timeout := e.deps.CommandTimeout
	if strings.Contains(normalizeCommand(command), "npm install") {
		timeout = e.deps.InstallTimeout
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	logging.Info("running command", "command", command, "dir", dir)
	res, err := shell.Run(ctx, command, dir, timeout)
	if err != nil {
		var te *shell.TimeoutError
		if errors.As(err, &te) {
			return NewErrorText("ERROR: " + te.Error()), nil
		}
		return Result{}, err
	}

	text := commandOutput(res)
	if text == "" {
		return NewResult("(no output)"), nil
	}
	return Result{Text: security.Redact(text), IsError: res.ExitCode != 0}, nil
}

// commandOutput formats a finished command for the model, one section per
// stream.
func commandOutput(res *shell.Result) string {
	var out strings.Builder
	if res.Stdout != "" {
		out.WriteString("STDOUT:\n" + res.Stdout)
	}
	if res.Stderr != "" {
		if out.Len() > 0 && !strings.HasSuffix(res.Stdout, "\n") {
			out.WriteByte('\n')
		}
		out.WriteString("STDERR:\n" + res.Stderr)
	}
	if res.ExitCode != 0 {
		fmt.Fprintf(&out, "\nExit code: %d", res.ExitCode)
	}
	return out.String()
}

// normalizeCommand lowercases command and collapses its whitespace.
func normalizeCommand(command string) string {
	return strings.Join(strings.Fields(strings.ToLower(command)), " ")
}

func (e *Executor) startBackground(ctx context.Context, dir, command string) Result {
	if e.deps.DevServer == nil {
		return NewErrorText("ERROR: Could not start background process: dev server manager not configured")
	}
	name := "unknown"
	if dir != e.deps.Root {
		name = filepath.Base(dir)
	}
	status, err := e.deps.DevServer.Start(ctx, name, dir, command)
	if err != nil {
		return NewErrorText("ERROR: " + err.Error())
	}
	return NewResult(fmt.Sprintf("Started dev server for '%s' in background (cwd: %s). Dev server running at %s",
		name, dir, status.URL))
}

func (e *Executor) previewApp(ctx context.Context, c PreviewApp) (Result, error) {
	_, abs, err := e.resolve(c.Path)
	if err != nil {
		return Result{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return NewErrorText("ERROR: File not found: " + c.Path), nil
	}
	dir := abs
	if !info.IsDir() {
		dir = filepath.Dir(abs)
	}
	if _, err := os.Stat(filepath.Join(dir, "package.json")); err != nil {
		return NewErrorText(fmt.Sprintf("ERROR: No package.json found in %s. Only React/Node projects are supported.", dir)), nil
	}
	if e.deps.DevServer == nil {
		return NewResult(fmt.Sprintf("Could not start dev server: not configured. Run 'npm run dev' manually in %s", dir)), nil
	}

	status, err := e.deps.DevServer.Start(ctx, filepath.Base(dir), dir, devserver.DefaultCommand)
	if err != nil {
		return NewResult(fmt.Sprintf("Could not start dev server: %v. Run 'npm run dev' manually in %s", err, dir)), nil
	}
	return NewResult(fmt.Sprintf("Started React dev server in %s. Open %s in your browser. (Run 'npm run dev' in %s if it didn't start)",
		dir, status.URL, dir)), nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
