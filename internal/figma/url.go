package figma

import (
	"fmt"
	"regexp"
	"strings"
)

// Ref identifies a Figma file and an optional node inside it.
type Ref struct {
	FileKey string
	// NodeID uses the API form "123:456".
	NodeID string
}

// IsZero reports whether the reference is empty.
func (r Ref) IsZero() bool {
	return r.FileKey == ""
}

// CacheKey names the on-disk cache entry for this reference.
func (r Ref) CacheKey() string {
	if r.NodeID == "" {
		return r.FileKey
	}
	return r.FileKey + "_" + strings.ReplaceAll(r.NodeID, ":", "-")
}

var (
	bareKeyRe = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	fileURLRe = regexp.MustCompile(`figma\.com/(?:file|design|proto)/([A-Za-z0-9]+)`)
	nodeIDRe  = regexp.MustCompile(`node-id=([^&\s]+)`)
	anyURLRe  = regexp.MustCompile(`https?://(?:www\.)?figma\.com/(?:file|design|proto)/[^\s"'<>]+`)
)

// ParseURL accepts a bare file key or a file, design or proto URL with an
// optional node-id query parameter.
func ParseURL(raw string) (Ref, error) {
	raw = strings.TrimSpace(raw)
	if bareKeyRe.MatchString(raw) {
		return Ref{FileKey: raw}, nil
	}

	m := fileURLRe.FindStringSubmatch(raw)
	if m == nil {
		return Ref{}, fmt.Errorf("invalid Figma URL: %s\nExpected format: https://www.figma.com/design/FILEKEY/Title", raw)
	}

	ref := Ref{FileKey: m[1]}
	if n := nodeIDRe.FindStringSubmatch(raw); n != nil {
		// URLs use 123-456, the API uses 123:456
		id := strings.ReplaceAll(n[1], "%3A", ":")
		ref.NodeID = strings.ReplaceAll(id, "-", ":")
	}
	return ref, nil
}

// ExtractURL returns the first Figma URL found in free text.
func ExtractURL(text string) (string, bool) {
	m := anyURLRe.FindString(text)
	if m == "" {
		return "", false
	}
	return strings.TrimRight(m, ".,;:!?)]}"), true
}
