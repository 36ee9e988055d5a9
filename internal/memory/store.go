package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cft-yamuna/quiz-agent/internal/fileutil"
	"github.com/cft-yamuna/quiz-agent/internal/logging"
)

const (
	// DefaultMaxSessions caps the sessions category.
	DefaultMaxSessions = 50
	contextResults     = 5
	contextExcerpt     = 200
	sessionExcerpt     = 500
)

// Store is a categorized key/value store with one JSON file per category.
// Each category has its own lock; writes rewrite the whole file atomically.
type Store struct {
	dir         string
	maxSessions int
	now         func() time.Time

	locks map[Category]*sync.Mutex
}

// NewStore creates a store rooted at dir.
func NewStore(dir string, maxSessions int) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create memory directory: %w", err)
	}
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}

	locks := make(map[Category]*sync.Mutex, len(Categories))
	for _, c := range Categories {
		locks[c] = &sync.Mutex{}
	}

	return &Store{
		dir:         dir,
		maxSessions: maxSessions,
		now:         time.Now,
		locks:       locks,
	}, nil
}

// Save stores data under key, replacing any previous value.
func (s *Store) Save(category Category, key string, data any) error {
	lock, ok := s.locks[category]
	if !ok {
		return fmt.Errorf("unknown memory category %q", category)
	}
	lock.Lock()
	defer lock.Unlock()

	entries := s.load(category)
	entries[key] = Entry{Data: data, SavedAt: Timestamp{s.now()}}
	return s.write(category, entries)
}

// Get returns the entry stored under key.
func (s *Store) Get(category Category, key string) (Entry, bool) {
	lock, ok := s.locks[category]
	if !ok {
		return Entry{}, false
	}
	lock.Lock()
	defer lock.Unlock()

	e, ok := s.load(category)[key]
	return e, ok
}

// Search scores every entry of the category ("all" covers projects,
// preferences and knowledge) by how many query tokens appear in its key and
// JSON data. Entries scoring zero are dropped; ties keep category then key
// order.
func (s *Store) Search(query, category string) ([]Result, error) {
	var cats []Category
	if category == "" || category == "all" {
		cats = searchable
	} else {
		c, err := ParseCategory(category)
		if err != nil {
			return nil, err
		}
		cats = []Category{c}
	}

	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	var results []Result
	for _, c := range cats {
		lock := s.locks[c]
		lock.Lock()
		entries := s.load(c)
		lock.Unlock()

		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			e := entries[k]
			raw, _ := json.Marshal(e.Data)
			n := score(tokens, strings.ToLower(k+" "+string(raw)))
			if n == 0 {
				continue
			}
			results = append(results, Result{
				Category: c,
				Key:      k,
				Data:     e.Data,
				SavedAt:  e.SavedAt.Time,
				Score:    n,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}

// RelevantContext formats the best matches for text as prompt lines,
// or returns "" when nothing matches.
func (s *Store) RelevantContext(text string) string {
	results, err := s.Search(text, "all")
	if err != nil || len(results) == 0 {
		return ""
	}
	if len(results) > contextResults {
		results = results[:contextResults]
	}

	lines := make([]string, 0, len(results))
	for _, r := range results {
		raw, _ := json.Marshal(r.Data)
		lines = append(lines, fmt.Sprintf("- [%s] %s: %s", r.Category, r.Key, truncate(string(raw), contextExcerpt)))
	}
	return strings.Join(lines, "\n")
}

// SaveSession logs a completed run, evicting the oldest sessions beyond the cap.
func (s *Store) SaveSession(input, response string) error {
	lock := s.locks[Sessions]
	lock.Lock()
	defer lock.Unlock()

	entries := s.load(Sessions)

	next := 1
	for k := range entries {
		if n, err := strconv.Atoi(strings.TrimPrefix(k, "session_")); err == nil && n >= next {
			next = n + 1
		}
	}
	entries[fmt.Sprintf("session_%d", next)] = Entry{
		Data: map[string]any{
			"user_input":     truncate(input, sessionExcerpt),
			"agent_response": truncate(response, sessionExcerpt),
		},
		SavedAt: Timestamp{s.now()},
	}

	if over := len(entries) - s.maxSessions; over > 0 {
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.SliceStable(keys, func(i, j int) bool {
			a, b := entries[keys[i]].SavedAt.Time, entries[keys[j]].SavedAt.Time
			if a.Equal(b) {
				return sessionIndex(keys[i]) < sessionIndex(keys[j])
			}
			return a.Before(b)
		})
		for _, k := range keys[:over] {
			delete(entries, k)
		}
	}

	return s.write(Sessions, entries)
}

// Count returns the number of entries in a category.
func (s *Store) Count(category Category) int {
	lock, ok := s.locks[category]
	if !ok {
		return 0
	}
	lock.Lock()
	defer lock.Unlock()
	return len(s.load(category))
}

func sessionIndex(key string) int {
	n, _ := strconv.Atoi(strings.TrimPrefix(key, "session_"))
	return n
}

func (s *Store) path(category Category) string {
	return filepath.Join(s.dir, string(category)+".json")
}

// load reads a category file. Missing or corrupt files yield an empty map.
func (s *Store) load(category Category) map[string]Entry {
	entries := make(map[string]Entry)

	data, err := os.ReadFile(s.path(category))
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn("failed to read memory file", "category", category, "error", err)
		}
		return entries
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return entries
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		logging.Warn("corrupt memory file, treating as empty", "category", category, "error", err)
		return make(map[string]Entry)
	}
	return entries
}

func (s *Store) write(category Category, entries map[string]Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s memory: %w", category, err)
	}
	return fileutil.AtomicWrite(s.path(category), data, 0644)
}
