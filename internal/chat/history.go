package chat

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cft-yamuna/quiz-agent/internal/fileutil"
)

// HistoryFile is the per-project conversation log.
const HistoryFile = ".chat_history.json"

// Roles used in history entries.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultRecent is how many entries feed back into a modify-mode prompt.
const DefaultRecent = 6

const excerptLength = 200

// HistoryEntry represents a saved history entry.
type HistoryEntry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// History reads and appends a project's chat history file.
type History struct {
	mu  sync.Mutex
	now func() time.Time
}

// NewHistory creates a history manager.
func NewHistory() *History {
	return &History{now: time.Now}
}

// Load returns every entry in projectDir's history. A missing or corrupt
// file yields no entries.
func (h *History) Load(projectDir string) []HistoryEntry {
	data, err := os.ReadFile(filepath.Join(projectDir, HistoryFile))
	if err != nil {
		return nil
	}
	var entries []HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil
	}
	return entries
}

// Append records one build exchange: the user's brief and the agent's answer.
func (h *History) Append(projectDir, input, response string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := os.Stat(projectDir); err != nil {
		return fmt.Errorf("project directory: %w", err)
	}

	now := h.now()
	entries := append(h.Load(projectDir),
		HistoryEntry{Role: RoleUser, Content: input, Timestamp: now},
		HistoryEntry{Role: RoleAssistant, Content: response, Timestamp: now},
	)
	return fileutil.WriteJSON(filepath.Join(projectDir, HistoryFile), entries)
}

// Recent renders the last limit entries as "  role: text" lines, each text
// cut to 200 characters.
func (h *History) Recent(projectDir string, limit int) string {
	entries := h.Load(projectDir)
	if len(entries) == 0 {
		return ""
	}
	if limit <= 0 {
		limit = DefaultRecent
	}
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		role := e.Role
		if role == "" {
			role = RoleUser
		}
		text := e.Content
		if r := []rune(text); len(r) > excerptLength {
			text = string(r[:excerptLength])
		}
		lines = append(lines, fmt.Sprintf("  %s: %s", role, text))
	}
	return strings.Join(lines, "\n")
}
