// Package audit keeps a per-build trail of every tool call the agent made.
package audit

import (
	"encoding/json"
	"time"
)

// Entry is one tool call of a build.
type Entry struct {
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"session_id"`
	Project   string         `json:"project,omitempty"`
	Tool      string         `json:"tool"`
	Args      map[string]any `json:"args,omitempty"`
	Result    string         `json:"result"`
	Success   bool           `json:"success"`
	Duration  time.Duration  `json:"-"`
}

// MarshalJSON writes the duration in milliseconds.
func (e Entry) MarshalJSON() ([]byte, error) {
	type Alias Entry
	return json.Marshal(&struct {
		Alias
		DurationMs int64 `json:"duration_ms"`
	}{
		Alias:      Alias(e),
		DurationMs: e.Duration.Milliseconds(),
	})
}

// UnmarshalJSON reads the millisecond duration back.
func (e *Entry) UnmarshalJSON(data []byte) error {
	type Alias Entry
	aux := &struct {
		*Alias
		DurationMs int64 `json:"duration_ms"`
	}{
		Alias: (*Alias)(e),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	e.Duration = time.Duration(aux.DurationMs) * time.Millisecond
	return nil
}

// sensitiveKeys are argument names whose values are never written.
var sensitiveKeys = map[string]bool{
	"password":    true,
	"secret":      true,
	"token":       true,
	"api_key":     true,
	"apikey":      true,
	"credentials": true,
	"auth":        true,
}

// SanitizeArgs copies args with secrets redacted and long strings cut.
// File contents are the usual long strings.
func SanitizeArgs(args map[string]any, maxValue int) map[string]any {
	if args == nil {
		return nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		switch {
		case sensitiveKeys[k]:
			out[k] = "[REDACTED]"
		default:
			if s, ok := v.(string); ok {
				out[k] = Truncate(s, maxValue)
			} else {
				out[k] = v
			}
		}
	}
	return out
}

// Truncate cuts s to maxLen bytes.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "...[truncated]"
}
