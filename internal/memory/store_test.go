package memory

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, maxSessions int) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "store"), maxSessions)
	require.NoError(t, err)
	return s
}

func TestSaveThenSearchFindsKey(t *testing.T) {
	s := newTestStore(t, 0)
	require.NoError(t, s.Save(Projects, "space_quiz", map[string]any{"tech": "react", "pages": 4}))
	require.NoError(t, s.Save(Preferences, "theme", map[string]any{"mode": "dark"}))

	results, err := s.Search("open space_quiz", "all")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, Projects, results[0].Category)
	assert.Equal(t, "space_quiz", results[0].Key)
}

func TestSearchFindsPunctuatedKeys(t *testing.T) {
	s := newTestStore(t, 0)
	require.NoError(t, s.Save(Knowledge, "a.b", map[string]any{"v": 1}))
	require.NoError(t, s.Save(Knowledge, "x/y", map[string]any{"v": 2}))
	require.NoError(t, s.Save(Knowledge, "vite.config.js", map[string]any{"v": 3}))

	for _, key := range []string{"a.b", "x/y", "vite.config.js"} {
		results, err := s.Search(key, "knowledge")
		require.NoError(t, err, key)
		require.NotEmpty(t, results, key)
		assert.Equal(t, key, results[0].Key)
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"a.b", "x/y", "quiz"}, tokenize("A.b  x/y\tQuiz, a (quiz)"))
	assert.Empty(t, tokenize("a b c"))
}

func TestSearchRanksByTokenHits(t *testing.T) {
	s := newTestStore(t, 0)
	require.NoError(t, s.Save(Knowledge, "vite", map[string]any{"note": "react vite setup"}))
	require.NoError(t, s.Save(Knowledge, "router", map[string]any{"note": "react router"}))
	require.NoError(t, s.Save(Knowledge, "unrelated", map[string]any{"note": "python"}))

	results, err := s.Search("react vite", "knowledge")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "vite", results[0].Key)
	assert.Equal(t, 2, results[0].Score)
	assert.Equal(t, "router", results[1].Key)
}

func TestSearchUnknownCategory(t *testing.T) {
	s := newTestStore(t, 0)
	_, err := s.Search("x", "secrets")
	assert.Error(t, err)
}

func TestRelevantContextFormat(t *testing.T) {
	s := newTestStore(t, 0)
	assert.Empty(t, s.RelevantContext("quiz"))

	long := strings.Repeat("a", 500)
	require.NoError(t, s.Save(Projects, "quiz", map[string]any{"notes": long}))

	ctx := s.RelevantContext("make a quiz")
	assert.True(t, strings.HasPrefix(ctx, "- [projects] quiz: {\"notes\":"))
	assert.LessOrEqual(t, len(ctx), len("- [projects] quiz: ")+200)
}

func TestCorruptFileTreatedAsEmpty(t *testing.T) {
	s := newTestStore(t, 0)
	require.NoError(t, os.WriteFile(s.path(Knowledge), []byte("{not json"), 0644))

	results, err := s.Search("anything", "knowledge")
	require.NoError(t, err)
	assert.Empty(t, results)

	require.NoError(t, s.Save(Knowledge, "fresh", "value"))
	assert.Equal(t, 1, s.Count(Knowledge))
}

func TestLegacyTimestampsLoad(t *testing.T) {
	s := newTestStore(t, 0)
	legacy := `{"old": {"data": {"x": 1}, "saved_at": "2024-05-01T10:20:30.123456"}}`
	require.NoError(t, os.WriteFile(s.path(Projects), []byte(legacy), 0644))

	e, ok := s.Get(Projects, "old")
	require.True(t, ok)
	assert.Equal(t, 2024, e.SavedAt.Year())
}

func TestSaveSessionEvictsOldest(t *testing.T) {
	s := newTestStore(t, 3)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for i := 0; i < 5; i++ {
		require.NoError(t, s.SaveSession("build a quiz", strings.Repeat("r", 800)))
	}

	assert.Equal(t, 3, s.Count(Sessions))
	_, ok := s.Get(Sessions, "session_1")
	assert.False(t, ok)
	last, ok := s.Get(Sessions, "session_5")
	require.True(t, ok)
	data := last.Data.(map[string]any)
	assert.Len(t, data["agent_response"], 500)
}

func TestConcurrentSaves(t *testing.T) {
	s := newTestStore(t, 0)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Save(Knowledge, "k"+string(rune('a'+i)), i))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 20, s.Count(Knowledge))
}
