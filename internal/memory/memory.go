package memory

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Category names one JSON file in the store directory.
type Category string

const (
	Projects    Category = "projects"
	Preferences Category = "preferences"
	Knowledge   Category = "knowledge"
	Sessions    Category = "sessions"
)

// Categories lists every category in file order.
var Categories = []Category{Projects, Preferences, Knowledge, Sessions}

// searchable are the categories covered by a search over "all".
var searchable = []Category{Projects, Preferences, Knowledge}

// ParseCategory validates a category name supplied by the model.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown memory category %q (expected projects, preferences, knowledge or sessions)", s)
}

// Entry is one stored value.
type Entry struct {
	Data    any       `json:"data"`
	SavedAt Timestamp `json:"saved_at"`
}

// Result is a search hit.
type Result struct {
	Category Category
	Key      string
	Data     any
	SavedAt  time.Time
	Score    int
}

// Timestamp is a time that also accepts ISO-8601 values without a zone.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" || s == "unknown" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid saved_at %q", s)
}

// tokenize splits a query on whitespace into lowercase tokens of at least
// two characters. Punctuation is trimmed from the ends only, so keys like
// "a.b" match themselves and "quiz," matches quiz.
func tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	for i, f := range fields {
		fields[i] = strings.TrimFunc(f, unicode.IsPunct)
	}

	seen := make(map[string]bool, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 2 || seen[f] {
			continue
		}
		seen[f] = true
		tokens = append(tokens, f)
	}
	return tokens
}

// score counts the tokens that occur in text.
func score(tokens []string, text string) int {
	n := 0
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			n++
		}
	}
	return n
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
