package flow

import (
	"strings"
	"testing"

	"github.com/cft-yamuna/quiz-agent/internal/figma"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quizFrames = []Frame{
	{ID: "1:1", Name: "Home", Page: "Quiz"},
	{ID: "1:2", Name: "Question", Page: "Quiz"},
	{ID: "1:3", Name: "Results", Page: "Quiz"},
}

func TestMatchTarget(t *testing.T) {
	tests := []struct {
		label   string
		idx     int
		want    int
		matched bool
	}{
		{"Start Quiz", 0, 1, true},
		{"Let's go", 0, 1, true},
		{"Back", 1, 0, true},
		{"Back", 0, 0, false},
		{"Submit", 1, 2, true},
		{"See Result", 0, 2, true},
		{"Try again", 2, 0, true},
		{"Next", 2, 0, false},
		// forward family wins and has nowhere to go from the last screen
		{"Play Again", 2, 0, false},
		{"Jupiter", 1, 0, false},
		{"Gopher", 0, 0, false},
	}
	for _, tt := range tests {
		got, ok := MatchTarget(tt.label, tt.idx, 3)
		assert.Equal(t, tt.matched, ok, tt.label)
		if tt.matched {
			assert.Equal(t, tt.want, got, tt.label)
		}
	}
}

func TestAnalyzeQuizFlow(t *testing.T) {
	f := Analyze(quizFrames, []Element{
		{Name: "Start Button", Text: "Start Quiz", Frame: "home", Type: "button"},
		{Name: "Submit", Text: "Submit", Frame: "Question", Type: "button"},
		{Name: "Restart", Text: "Try Again", Frame: "Results", Type: "button"},
	})

	require.Len(t, f.Screens, 3)
	assert.Equal(t, "Landing/start screen with buttons: Start Quiz", f.Screens[0].Description)
	assert.Equal(t, "Quiz question screen with buttons: Submit", f.Screens[1].Description)
	assert.Equal(t, "Results/score screen with buttons: Try Again", f.Screens[2].Description)

	assert.Equal(t, []Transition{
		{From: 0, To: 1, Trigger: "Start Quiz button"},
		{From: 1, To: 2, Trigger: "Submit button"},
		{From: 2, To: 0, Trigger: "Try Again button"},
	}, f.Transitions)

	assert.True(t, strings.HasPrefix(f.Text, "=== APP FLOW ANALYSIS ===\n\nSCREENS:\n  1. Home - "))
	assert.Contains(t, f.Text, "  Home  --[Start Quiz button]-->  Question")
	assert.Contains(t, f.Text, "FLOW SUMMARY:\n  Home --[Start Quiz button]--> Question --[Submit button]--> Results")
	assert.Contains(t, f.Text, "  LOOPS:\n    Results --[Try Again button]--> Home")
}

func TestAnalyzeLinearFallback(t *testing.T) {
	f := Analyze(quizFrames, nil)
	assert.Equal(t, []Transition{
		{From: 0, To: 1, Trigger: InferredTrigger},
		{From: 1, To: 2, Trigger: InferredTrigger},
	}, f.Transitions)
	assert.NotContains(t, f.Text, "LOOPS")
}

func TestAnalyzeEdgeCases(t *testing.T) {
	empty := Analyze(nil, nil)
	assert.Equal(t, "No screens found in the Figma design.", empty.Text)

	single := Analyze(quizFrames[:1], []Element{{Text: "Next", Frame: "Home"}})
	assert.Empty(t, single.Transitions)
	assert.Contains(t, single.Text, "(No navigation detected - screens may be standalone)")
	assert.NotContains(t, single.Text, "FLOW SUMMARY")
}

func TestTransitionsStayInBounds(t *testing.T) {
	labels := []string{"start", "back", "submit", "home", "next", "previous", "finish", "reset", "random"}
	for total := 1; total <= 4; total++ {
		var frames []Frame
		var elements []Element
		for i := 0; i < total; i++ {
			name := string(rune('A' + i))
			frames = append(frames, Frame{ID: name, Name: name})
			for _, l := range labels {
				elements = append(elements, Element{Text: l, Frame: name})
			}
		}
		for _, tr := range Analyze(frames, elements).Transitions {
			assert.True(t, tr.From >= 0 && tr.From < total)
			assert.True(t, tr.To >= 0 && tr.To < total)
		}
	}
}

func TestConfirmedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	_, ok := LoadConfirmed(dir)
	assert.False(t, ok)

	f := Analyze(quizFrames, nil)
	require.NoError(t, SaveConfirmed(dir, f))

	loaded, ok := LoadConfirmed(dir)
	require.True(t, ok)
	assert.Equal(t, f.Transitions, loaded.Transitions)
	assert.Equal(t, f.Text, loaded.Text)
}

func TestSummary(t *testing.T) {
	out := Summary(Analyze(quizFrames, nil))
	assert.True(t, strings.HasPrefix(out, "Flow analysis auto-confirmed.\n\n=== APP FLOW ANALYSIS ==="))
	assert.Contains(t, out, "Screens: 3\nTransitions: 2\n")
}

func TestFromDesign(t *testing.T) {
	button := func(name, label string) figma.Node {
		return figma.Node{Name: name, Type: "FRAME", Children: []figma.Node{{Type: "TEXT", Characters: label}}}
	}
	file := &figma.File{Document: figma.Node{Type: "DOCUMENT", Children: []figma.Node{{
		Name: "Quiz",
		Type: "CANVAS",
		Children: []figma.Node{
			{ID: "1:1", Name: "Home", Type: "FRAME", Children: []figma.Node{button("Start Button", "Start Quiz")}},
			{ID: "1:2", Name: "Question", Type: "FRAME", Children: []figma.Node{button("Next Btn", "Next")}},
			{ID: "1:3", Name: "Results", Type: "FRAME"},
		},
	}}}}

	frames, elements := FromDesign(file)
	require.Len(t, frames, 3)
	assert.Equal(t, Frame{ID: "1:1", Name: "Home", Page: "Quiz"}, frames[0])
	require.Len(t, elements, 2)
	assert.Equal(t, Element{Name: "Start Button", Text: "Start Quiz", Frame: "Home", Type: "button"}, elements[0])

	f := Analyze(frames, elements)
	assert.Len(t, f.Screens, 3)
	assert.Contains(t, f.Transitions, Transition{From: 0, To: 1, Trigger: "Start Quiz button"})
}
