package flow

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cft-yamuna/quiz-agent/internal/fileutil"
)

// ConfirmedFile holds the last confirmed flow inside the design cache.
const ConfirmedFile = "_confirmed_flow.json"

// SaveConfirmed persists f into dir.
func SaveConfirmed(dir string, f Flow) error {
	return fileutil.WriteJSON(filepath.Join(dir, ConfirmedFile), f)
}

// LoadConfirmed reads the confirmed flow from dir. It returns false when
// none was saved or the file is unreadable.
func LoadConfirmed(dir string) (Flow, bool) {
	data, err := os.ReadFile(filepath.Join(dir, ConfirmedFile))
	if err != nil {
		return Flow{}, false
	}
	var f Flow
	if err := json.Unmarshal(data, &f); err != nil {
		return Flow{}, false
	}
	return f, true
}
