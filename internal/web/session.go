package web

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cft-yamuna/quiz-agent/internal/agent"
	"github.com/cft-yamuna/quiz-agent/internal/logging"
)

// Message types sent over the event stream.
const (
	TypeLog        = "log"
	TypeToolCall   = "tool_call"
	TypeToolResult = "tool_result"
	TypeAskUser    = "ask_user"
	TypeResult     = "result"
	TypeStopped    = "stopped"
	TypeError      = "error"
	TypeDone       = "done"
)

// KeepAliveText is streamed when a build has been quiet for a while.
const KeepAliveText = "Still working..."

// StoppedText is the stopped message shown to the user.
const StoppedText = "Build stopped. Files created so far are saved."

const (
	eventBuffer     = 1024
	terminalTimeout = 30 * time.Second
	previewLimit    = 300
)

// Message is one server-sent event.
type Message struct {
	Type      string `json:"type"`
	Message   string `json:"message,omitempty"`
	Tool      string `json:"tool,omitempty"`
	Iteration int    `json:"iteration,omitempty"`
	Project   string `json:"project,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

func (m Message) terminal() bool {
	switch m.Type {
	case TypeResult, TypeStopped, TypeError, TypeDone:
		return true
	}
	return false
}

// session is one build: its event stream, answer channel and cancel func.
type session struct {
	id      string
	events  chan Message
	answers chan string
	cancel  context.CancelFunc

	answerTimeout time.Duration

	mu      sync.Mutex
	waiting bool
}

func newSession(id string, cancel context.CancelFunc, answerTimeout time.Duration) *session {
	return &session{
		id:            id,
		events:        make(chan Message, eventBuffer),
		answers:       make(chan string, 1),
		cancel:        cancel,
		answerTimeout: answerTimeout,
	}
}

// send queues a message. Progress is dropped when nobody drains the
// stream; terminal messages wait a bounded time.
func (s *session) send(m Message) {
	if !m.terminal() {
		select {
		case s.events <- m:
		default:
			logging.Debug("dropping stream message", "session", s.id, "type", m.Type)
		}
		return
	}
	timer := time.NewTimer(terminalTimeout)
	defer timer.Stop()
	select {
	case s.events <- m:
	case <-timer.C:
		logging.Warn("stream not drained, terminal message lost", "session", s.id, "type", m.Type)
	}
}

// Ask streams the question and waits for an answer posted to the session.
func (s *session) Ask(ctx context.Context, question string) (string, error) {
	s.mu.Lock()
	s.waiting = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.waiting = false
		s.mu.Unlock()
	}()

	s.send(Message{Type: TypeAskUser, Message: question})

	timer := time.NewTimer(s.answerTimeout)
	defer timer.Stop()
	select {
	case answer := <-s.answers:
		return answer, nil
	case <-timer.C:
		return "", context.DeadlineExceeded
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// answer delivers a reply. It reports false when no question is pending.
func (s *session) answer(text string) bool {
	s.mu.Lock()
	waiting := s.waiting
	s.mu.Unlock()
	if !waiting {
		return false
	}
	select {
	case s.answers <- text:
		return true
	default:
		return false
	}
}

// Observe turns agent progress into stream messages.
func (s *session) Observe(e agent.Event) {
	switch e.Kind {
	case agent.EventIteration:
		s.send(Message{Type: TypeLog, Iteration: e.Iteration, Message: fmt.Sprintf("[%s] Iteration %d", e.Phase, e.Iteration)})
	case agent.EventToolCall:
		s.send(Message{Type: TypeToolCall, Iteration: e.Iteration, Tool: e.Tool, Message: fmt.Sprintf("-> Tool: %s(%s)", e.Tool, e.Text)})
	case agent.EventToolResult:
		s.send(Message{Type: TypeToolResult, Iteration: e.Iteration, Tool: e.Tool, Message: preview(e.Text), IsError: e.IsError})
	case agent.EventText:
		s.send(Message{Type: TypeLog, Iteration: e.Iteration, Message: "Agent: " + preview(e.Text)})
	case agent.EventWarning:
		s.send(Message{Type: TypeLog, Iteration: e.Iteration, Message: "-> " + e.Text})
	}
}

func preview(s string) string {
	if r := []rune(s); len(r) > previewLimit {
		return string(r[:previewLimit]) + "..."
	}
	return s
}

// sessionStore tracks live sessions by id.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*session)}
}

func (st *sessionStore) add(s *session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.id] = s
}

func (st *sessionStore) get(id string) (*session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	return s, ok
}

func (st *sessionStore) remove(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// cancelAll stops every running build and returns how many were asked to.
func (st *sessionStore) cancelAll() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, s := range st.sessions {
		s.cancel()
	}
	return len(st.sessions)
}
