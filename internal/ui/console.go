// Package ui renders build progress on the terminal and reads answers from
// the user.
package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/cft-yamuna/quiz-agent/internal/agent"
)

// Palette
var (
	ColorPrimary   = lipgloss.Color("#A78BFA")
	ColorSecondary = lipgloss.Color("#22D3EE")
	ColorSuccess   = lipgloss.Color("#059669")
	ColorWarning   = lipgloss.Color("#D97706")
	ColorError     = lipgloss.Color("#DC2626")
	ColorMuted     = lipgloss.Color("#9CA3AF")
	ColorDim       = lipgloss.Color("#6B7280")
)

// rule is the separator printed around results.
var rule = strings.Repeat("=", 60)

// resultPreview caps tool results echoed to the terminal.
const resultPreview = 200

// Styles holds the lipgloss styles used by the console.
type Styles struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Rule      lipgloss.Style
	Iteration lipgloss.Style
	Tool      lipgloss.Style
	Result    lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Question  lipgloss.Style
	Muted     lipgloss.Style
}

// DefaultStyles returns the console theme.
func DefaultStyles() Styles {
	return Styles{
		Title:     lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true),
		Subtitle:  lipgloss.NewStyle().Foreground(ColorMuted),
		Rule:      lipgloss.NewStyle().Foreground(ColorDim),
		Iteration: lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true),
		Tool:      lipgloss.NewStyle().Foreground(ColorPrimary),
		Result:    lipgloss.NewStyle().Foreground(ColorMuted),
		Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
		Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
		Error:     lipgloss.NewStyle().Foreground(ColorError).Bold(true),
		Question:  lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true),
		Muted:     lipgloss.NewStyle().Foreground(ColorDim),
	}
}

// Console prints agent progress and reads lines from the user. It
// implements agent.Observer and tools.Asker.
type Console struct {
	out      io.Writer
	styles   Styles
	renderer *glamour.TermRenderer

	mu sync.Mutex

	lines     chan string
	readErr   error
	startOnce sync.Once
	in        io.Reader
}

// NewConsole creates a console reading from in and writing to out.
func NewConsole(in io.Reader, out io.Writer) *Console {
	renderer, _ := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(100),
	)
	return &Console{
		out:      out,
		styles:   DefaultStyles(),
		renderer: renderer,
		in:       in,
		lines:    make(chan string),
	}
}

// WithPlainStyles disables colors, for non-terminal output.
func (c *Console) WithPlainStyles() *Console {
	plain := lipgloss.NewStyle()
	c.styles = Styles{
		Title: plain, Subtitle: plain, Rule: plain, Iteration: plain, Tool: plain,
		Result: plain, Success: plain, Warning: plain, Error: plain, Question: plain, Muted: plain,
	}
	c.renderer = nil
	return c
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// Banner prints the startup banner.
func (c *Console) Banner(figmaConnected bool) {
	s := c.styles
	var b strings.Builder
	b.WriteString(s.Rule.Render(rule) + "\n")
	b.WriteString("  " + s.Title.Render("AI Quiz Builder Agent") + "\n")
	b.WriteString("  " + s.Subtitle.Render("Builds complete React quiz apps from your description") + "\n")
	if figmaConnected {
		b.WriteString("  " + s.Success.Render("Figma design connected (auto-detected)") + "\n")
	}
	b.WriteString("  " + s.Subtitle.Render("Press Ctrl+C during a build to stop it") + "\n")
	b.WriteString(s.Rule.Render(rule) + "\n")
	c.printf("%s", b.String())
}

// Observe prints one progress event.
func (c *Console) Observe(e agent.Event) {
	s := c.styles
	switch e.Kind {
	case agent.EventIteration:
		c.printf("\n%s %s\n", s.Iteration.Render(fmt.Sprintf("[%s] Iteration %d", e.Phase, e.Iteration)), s.Muted.Render(e.Model))
	case agent.EventToolCall:
		c.printf("  %s\n", s.Tool.Render(fmt.Sprintf("-> Tool: %s(%s)", e.Tool, e.Text)))
	case agent.EventToolResult:
		style := s.Result
		if e.IsError {
			style = s.Warning
		}
		c.printf("     %s\n", style.Render(firstLine(e.Text, resultPreview)))
	case agent.EventText:
		c.printf("  Agent: %s\n", firstLine(e.Text, resultPreview))
	case agent.EventWarning:
		c.printf("  %s\n", s.Warning.Render("-> "+e.Text))
	}
}

// Result prints the final answer between rules, rendered as markdown.
func (c *Console) Result(text string) {
	body := text
	if c.renderer != nil {
		if out, err := c.renderer.Render(text); err == nil {
			body = strings.TrimRight(out, "\n")
		}
	}
	c.printf("\n%s\n%s\n%s\n\n", c.styles.Rule.Render(rule), body, c.styles.Rule.Render(rule))
}

// Stopped prints the stopped notice.
func (c *Console) Stopped(iteration int) {
	c.printf("\n%s\n  %s\n  Iteration reached: %d\n%s\n\n",
		c.styles.Rule.Render(rule),
		c.styles.Warning.Render("Build stopped. Files created so far are saved."),
		iteration,
		c.styles.Rule.Render(rule))
}

// Info prints a plain line.
func (c *Console) Info(format string, args ...any) {
	c.printf("%s\n", fmt.Sprintf(format, args...))
}

// Success prints a green line.
func (c *Console) Success(format string, args ...any) {
	c.printf("%s\n", c.styles.Success.Render(fmt.Sprintf(format, args...)))
}

// Error prints a red line.
func (c *Console) Error(format string, args ...any) {
	c.printf("%s\n", c.styles.Error.Render(fmt.Sprintf(format, args...)))
}

// Prompt prints label and reads one line. It returns io.EOF when input
// is closed.
func (c *Console) Prompt(ctx context.Context, label string) (string, error) {
	c.printf("%s", label)
	return c.readLine(ctx)
}

// Ask prints the agent's question and waits for the user's reply.
func (c *Console) Ask(ctx context.Context, question string) (string, error) {
	c.printf("\n  %s\n", c.styles.Question.Render("[Agent asks] "+question))
	return c.Prompt(ctx, "  Your answer: ")
}

// Confirm asks a y/n question. Anything but y or yes is a no.
func (c *Console) Confirm(ctx context.Context, question string) bool {
	answer, err := c.Prompt(ctx, question+" (y/n): ")
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}

// readLine waits for the next input line or ctx. One goroutine owns the
// reader so a cancelled read does not lose the next line.
func (c *Console) readLine(ctx context.Context) (string, error) {
	c.startOnce.Do(func() {
		go func() {
			scanner := bufio.NewScanner(c.in)
			for scanner.Scan() {
				c.lines <- strings.TrimSpace(scanner.Text())
			}
			c.mu.Lock()
			c.readErr = scanner.Err()
			if c.readErr == nil {
				c.readErr = io.EOF
			}
			c.mu.Unlock()
			close(c.lines)
		}()
	})

	select {
	case line, ok := <-c.lines:
		if !ok {
			c.mu.Lock()
			defer c.mu.Unlock()
			return "", c.readErr
		}
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func firstLine(s string, max int) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + " ..."
	}
	if r := []rune(s); len(r) > max {
		return string(r[:max]) + "..."
	}
	return s
}
