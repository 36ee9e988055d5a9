package config

import "time"

// Default configuration values.
const (
	DefaultModel         = "gemini-2.0-flash"
	DefaultMaxIterations = 50
	DefaultRetryDelay    = 2 * time.Second

	// Model request throttling
	DefaultRequestsPerMinute = 60
	DefaultTokensPerMinute   = 1000000

	// Tool execution
	DefaultToolTimeout    = 15 * time.Second
	DefaultCommandTimeout = 30 * time.Second
	DefaultInstallTimeout = 120 * time.Second
	DefaultReadFileLimit  = 10000

	// Figma
	DefaultFigmaAPI         = "https://api.figma.com/v1"
	DefaultFigmaCacheTTL    = 5 * time.Minute
	DefaultFigmaExportLimit = 10
	DefaultFigmaReportChars = 15000
	DefaultFigmaRetries     = 3

	// Dev server
	DefaultDevServerPort = 5173

	// Memory and snapshots
	DefaultMaxSessions  = 50
	DefaultMaxSnapshots = 5

	// Web
	DefaultAnswerTimeout = 5 * time.Minute
)

// DefaultToolTimeouts holds per-tool budgets. Design fetches and shell
// commands get long budgets, metadata tools keep the short default.
var DefaultToolTimeouts = map[string]time.Duration{
	"run_command":          150 * time.Second,
	"fetch_figma_design":   180 * time.Second,
	"fetch_figma_mcp":      180 * time.Second,
	"validate_screenshots": 180 * time.Second,
	"analyze_flow":         60 * time.Second,
	"ask_user":             310 * time.Second,
	"create_files":         60 * time.Second,
	"preview_app":          30 * time.Second,
}
