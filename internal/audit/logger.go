package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cft-yamuna/quiz-agent/internal/logging"
)

const (
	fileExt = ".jsonl"

	// DefaultMaxResultLen caps the stored result of a call.
	DefaultMaxResultLen = 1000
	// DefaultMaxArgLen caps each stored string argument.
	DefaultMaxArgLen = 200
)

// Logger appends the tool calls of one build to <dir>/<session>.jsonl.
// A nil *Logger records nothing.
type Logger struct {
	sessionID    string
	project      string
	maxResultLen int

	mu   sync.Mutex
	file *os.File
	n    int
}

// NewLogger opens the trail file for a build session.
func NewLogger(dir, sessionID, project string) (*Logger, error) {
	// Use 0700, trails can hold user data
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, filepath.Base(sessionID)+fileExt), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit trail: %w", err)
	}
	return &Logger{
		sessionID:    sessionID,
		project:      project,
		maxResultLen: DefaultMaxResultLen,
		file:         f,
	}, nil
}

// Record writes one tool call.
func (l *Logger) Record(tool string, args map[string]any, result string, success bool, d time.Duration) {
	if l == nil {
		return
	}
	entry := Entry{
		Timestamp: time.Now(),
		SessionID: l.sessionID,
		Project:   l.project,
		Tool:      tool,
		Args:      SanitizeArgs(args, DefaultMaxArgLen),
		Result:    Truncate(result, l.maxResultLen),
		Success:   success,
		Duration:  d,
	}
	line, err := json.Marshal(entry)
	if err != nil {
		logging.Debug("failed to encode audit entry", "tool", tool, "error", err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	if _, err := l.file.Write(append(line, '\n')); err != nil {
		logging.Warn("failed to write audit entry", "session", l.sessionID, "error", err)
		return
	}
	l.n++
}

// Len returns how many entries this logger wrote.
func (l *Logger) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n
}

// Close closes the trail file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Read loads the trail of a session. Malformed lines are skipped.
func Read(dir, sessionID string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dir, filepath.Base(sessionID)+fileExt))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}

// SessionInfo describes one stored trail.
type SessionInfo struct {
	ID      string
	ModTime time.Time
	Size    int64
}

// Sessions lists stored trails, newest first.
func Sessions(dir string) ([]SessionInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var sessions []SessionInfo
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != fileExt {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		sessions = append(sessions, SessionInfo{
			ID:      strings.TrimSuffix(e.Name(), fileExt),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].ModTime.After(sessions[j].ModTime)
	})
	return sessions, nil
}

// Cleanup removes trails older than retention and returns how many went.
func Cleanup(dir string, retention time.Duration) (int, error) {
	sessions, err := Sessions(dir)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-retention)
	removed := 0
	for _, s := range sessions {
		if s.ModTime.Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, s.ID+fileExt)); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
