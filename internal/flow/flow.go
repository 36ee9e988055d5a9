package flow

import (
	"fmt"
	"regexp"
	"strings"
)

// Frame is a screen in design order.
type Frame struct {
	ID   string
	Name string
	Page string
}

// Element is an interactive element and the frame it belongs to.
type Element struct {
	Name  string
	Text  string
	Frame string
	Type  string
}

// Button is an element attached to a screen.
type Button struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// Screen is one node of the navigation graph.
type Screen struct {
	Index       int      `json:"index"`
	Name        string   `json:"name"`
	FrameID     string   `json:"frame_id"`
	Description string   `json:"description"`
	Buttons     []Button `json:"buttons"`
}

// Transition is a directed edge. From and To index Flow.Screens.
type Transition struct {
	From    int    `json:"from"`
	To      int    `json:"to"`
	Trigger string `json:"trigger"`
}

// Flow is the inferred navigation graph.
type Flow struct {
	Screens     []Screen     `json:"screens"`
	Transitions []Transition `json:"transitions"`
	Text        string       `json:"flow_text"`
}

// InferredTrigger labels the linear fallback edges.
const InferredTrigger = "navigation (inferred)"

type target int

const (
	targetNext target = iota
	targetPrevious
	targetLast
	targetFirst
)

type family struct {
	target   target
	patterns []*regexp.Regexp
}

func patterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)\b` + e + `\b`)
	}
	return out
}

// families are tried in order; the first one with a matching pattern decides.
var families = []family{
	{targetNext, patterns("start", "begin", "get started", "next", "continue", "play", "go", "let'?s go", "take quiz")},
	{targetPrevious, patterns("back", "previous", "return")},
	{targetLast, patterns("submit", "finish", "complete", "done", "see results?", "show results?", "view results?")},
	{targetFirst, patterns("try again", "restart", "retake", "play again", "home", "reset")},
}

// MatchTarget maps a button label on screen idx of total screens to a target
// index. The first family whose pattern matches decides, so a forward label
// on the last screen yields no transition even if a later family would match.
func MatchTarget(label string, idx, total int) (int, bool) {
	label = strings.TrimSpace(label)
	for _, f := range families {
		matched := false
		for _, re := range f.patterns {
			if re.MatchString(label) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		var to int
		switch f.target {
		case targetNext:
			to = idx + 1
		case targetPrevious:
			to = idx - 1
		case targetLast:
			to = total - 1
		case targetFirst:
			to = 0
		}
		if to < 0 || to >= total {
			return 0, false
		}
		return to, true
	}
	return 0, false
}

// Analyze builds the navigation graph from frames in design order and the
// interactive elements found in them.
func Analyze(frames []Frame, elements []Element) Flow {
	if len(frames) == 0 {
		return Flow{Text: "No screens found in the Figma design."}
	}

	screens := make([]Screen, len(frames))
	for i, fr := range frames {
		name := fr.Name
		if name == "" {
			name = fmt.Sprintf("Screen %d", i+1)
		}
		var buttons []Button
		for _, el := range elements {
			if strings.EqualFold(el.Frame, fr.Name) {
				kind := el.Type
				if kind == "" {
					kind = "clickable"
				}
				buttons = append(buttons, Button{Text: el.Text, Type: kind})
			}
		}
		screens[i] = Screen{
			Index:       i,
			Name:        name,
			FrameID:     fr.ID,
			Description: describe(fr.Name, buttons),
			Buttons:     buttons,
		}
	}

	var transitions []Transition
	for _, s := range screens {
		for _, b := range s.Buttons {
			if to, ok := MatchTarget(b.Text, s.Index, len(screens)); ok {
				transitions = append(transitions, Transition{From: s.Index, To: to, Trigger: b.Text + " button"})
			}
		}
	}

	if len(transitions) == 0 && len(screens) > 1 {
		for i := 0; i < len(screens)-1; i++ {
			transitions = append(transitions, Transition{From: i, To: i + 1, Trigger: InferredTrigger})
		}
	}

	f := Flow{Screens: screens, Transitions: transitions}
	f.Text = Render(f)
	return f
}

var descriptions = []struct {
	words []string
	desc  string
}{
	{[]string{"home", "start", "landing", "welcome", "intro"}, "Landing/start screen"},
	{[]string{"question", "quiz", "q1", "q2", "q3"}, "Quiz question screen"},
	{[]string{"result", "score", "summary", "finish", "end", "complete"}, "Results/score screen"},
	{[]string{"settings", "config", "option"}, "Settings screen"},
	{[]string{"profile", "user", "account"}, "Profile screen"},
	{[]string{"loading", "splash"}, "Loading screen"},
}

func describe(name string, buttons []Button) string {
	lower := strings.ToLower(name)
	desc := "App screen"
outer:
	for _, d := range descriptions {
		for _, w := range d.words {
			if strings.Contains(lower, w) {
				desc = d.desc
				break outer
			}
		}
	}

	if len(buttons) > 0 {
		n := len(buttons)
		if n > 5 {
			n = 5
		}
		texts := make([]string, n)
		for i := range texts {
			texts[i] = buttons[i].Text
		}
		desc += " with buttons: " + strings.Join(texts, ", ")
	}
	return desc
}
