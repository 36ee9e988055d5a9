package agent

import (
	"fmt"
	"sort"
	"strings"
)

// EventKind identifies a progress event.
type EventKind string

const (
	EventIteration  EventKind = "iteration"
	EventToolCall   EventKind = "tool_call"
	EventToolResult EventKind = "tool_result"
	EventText       EventKind = "text"
	EventWarning    EventKind = "warning"
)

// Event is one progress notification from a run.
type Event struct {
	Kind      EventKind
	Iteration int
	Phase     string
	Model     string
	Tool      string
	// Text is the call summary, the result text or the model text.
	Text    string
	IsError bool
	Images  int
}

// Observer receives progress events. Observe is called from the loop
// goroutine and must not block for long.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) { f(e) }

type nopObserver struct{}

func (nopObserver) Observe(Event) {}

// summaryValueLimit caps each argument value in a call summary.
const summaryValueLimit = 50

// SummarizeArgs renders call arguments as "k=v, k=v" with long values cut.
func SummarizeArgs(args map[string]any) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := fmt.Sprint(args[k])
		if r := []rune(v); len(r) > summaryValueLimit {
			v = string(r[:summaryValueLimit]) + "..."
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ", ")
}
