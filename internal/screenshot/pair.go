package screenshot

import (
	"sort"
	"strings"
	"unicode"

	"github.com/cft-yamuna/quiz-agent/internal/figma"
)

// Similarity scores.
const (
	ScoreExact     = 1.0
	ScoreLanding   = 0.9
	ScoreSubstring = 0.8
	ScoreOverlap   = 0.6
)

var landingWords = map[string]bool{
	"home": true, "start": true, "landing": true, "welcome": true,
	"intro": true, "main": true, "index": true, "splash": true,
}

// Capture is one captured app page.
type Capture struct {
	Route string
	Path  string
}

// Pair matches a design frame with a captured route.
type Pair struct {
	Index      int
	Frame      figma.ExportedFrame
	Capture    Capture
	Score      float64
	Positional bool
}

// Score rates how well a design frame name describes a route, in [0, 1].
// The root route only scores when the frame reads like a landing screen.
func Score(frameName, route string) float64 {
	frameWords := words(frameName)
	routeWords := words(route)
	if len(frameWords) == 0 {
		return 0
	}

	if len(routeWords) == 0 {
		for _, w := range frameWords {
			if landingWords[w] {
				return ScoreLanding
			}
		}
		return 0
	}

	frameKey := strings.Join(frameWords, "")
	routeKey := strings.Join(routeWords, "")
	if frameKey == routeKey {
		return ScoreExact
	}
	if strings.Contains(frameKey, routeKey) || strings.Contains(routeKey, frameKey) {
		return ScoreSubstring
	}

	shared := 0
	inFrame := make(map[string]bool, len(frameWords))
	for _, w := range frameWords {
		inFrame[w] = true
	}
	union := len(inFrame)
	seen := map[string]bool{}
	for _, w := range routeWords {
		if seen[w] {
			continue
		}
		seen[w] = true
		if inFrame[w] {
			shared++
		} else {
			union++
		}
	}
	if shared == 0 {
		return 0
	}
	return ScoreOverlap * float64(shared) / float64(union)
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Match assigns frames to captures. The highest scoring pairs win first,
// ties going to the earlier frame and then the earlier route. Leftovers are
// paired by position; whatever still remains is returned unmatched.
// Pairs come back in frame order.
func Match(frames []figma.ExportedFrame, captures []Capture) (pairs []Pair, extra []Capture, missing []figma.ExportedFrame) {
	type candidate struct {
		frame, capture int
		score          float64
	}
	var candidates []candidate
	for i, f := range frames {
		for j, c := range captures {
			if s := Score(f.Name, c.Route); s > 0 {
				candidates = append(candidates, candidate{i, j, s})
			}
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})

	frameTo := make([]int, len(frames))
	for i := range frameTo {
		frameTo[i] = -1
	}
	scores := make([]float64, len(frames))
	usedCapture := make([]bool, len(captures))
	for _, c := range candidates {
		if frameTo[c.frame] >= 0 || usedCapture[c.capture] {
			continue
		}
		frameTo[c.frame] = c.capture
		scores[c.frame] = c.score
		usedCapture[c.capture] = true
	}

	var freeCaptures []int
	for j := range captures {
		if !usedCapture[j] {
			freeCaptures = append(freeCaptures, j)
		}
	}
	positional := make([]bool, len(frames))
	for i := range frames {
		if frameTo[i] >= 0 || len(freeCaptures) == 0 {
			continue
		}
		frameTo[i] = freeCaptures[0]
		positional[i] = true
		usedCapture[freeCaptures[0]] = true
		freeCaptures = freeCaptures[1:]
	}

	for i, f := range frames {
		if frameTo[i] < 0 {
			missing = append(missing, f)
			continue
		}
		pairs = append(pairs, Pair{
			Index:      len(pairs) + 1,
			Frame:      f,
			Capture:    captures[frameTo[i]],
			Score:      scores[i],
			Positional: positional[i],
		})
	}
	for _, j := range freeCaptures {
		extra = append(extra, captures[j])
	}
	return pairs, extra, missing
}
