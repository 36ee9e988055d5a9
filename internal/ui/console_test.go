package ui

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cft-yamuna/quiz-agent/internal/agent"
)

func plainConsole(input string) (*Console, *bytes.Buffer) {
	var out bytes.Buffer
	return NewConsole(strings.NewReader(input), &out).WithPlainStyles(), &out
}

func TestObservePrintsProgress(t *testing.T) {
	c, out := plainConsole("")
	c.Observe(agent.Event{Kind: agent.EventIteration, Iteration: 2, Phase: "generating", Model: "gemini-2.5-flash"})
	c.Observe(agent.Event{Kind: agent.EventToolCall, Tool: "create_file", Text: "path=src/App.jsx"})
	c.Observe(agent.Event{Kind: agent.EventToolResult, Text: "Created src/App.jsx\nmore"})

	got := out.String()
	assert.Contains(t, got, "[generating] Iteration 2 gemini-2.5-flash")
	assert.Contains(t, got, "-> Tool: create_file(path=src/App.jsx)")
	assert.Contains(t, got, "Created src/App.jsx ...")
	assert.NotContains(t, got, "more")
}

func TestAskReadsAnswer(t *testing.T) {
	c, out := plainConsole("  ten questions  \n")
	answer, err := c.Ask(context.Background(), "How many questions?")
	require.NoError(t, err)
	assert.Equal(t, "ten questions", answer)
	assert.Contains(t, out.String(), "[Agent asks] How many questions?")

	_, err = c.Prompt(context.Background(), "You: ")
	assert.ErrorIs(t, err, io.EOF)
}

func TestPromptCancelledKeepsLine(t *testing.T) {
	pr, pw := io.Pipe()
	c := NewConsole(pr, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Prompt(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)

	go func() {
		_, _ = pw.Write([]byte("quiz\n"))
		pw.Close()
	}()
	line, err := c.Prompt(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "quiz", line)
}

func TestConfirm(t *testing.T) {
	c, _ := plainConsole("Y\nno\n")
	assert.True(t, c.Confirm(context.Background(), "Run?"))
	assert.False(t, c.Confirm(context.Background(), "Run?"))
	assert.False(t, c.Confirm(context.Background(), "Run?"))
}

func TestResultAndStopped(t *testing.T) {
	c, out := plainConsole("")
	c.Result("Quiz ready.")
	c.Stopped(7)
	assert.Contains(t, out.String(), "Quiz ready.")
	assert.Contains(t, out.String(), "Iteration reached: 7")
}
