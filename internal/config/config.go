package config

import "time"

// Config represents the main application configuration.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Model     ModelConfig     `yaml:"model"`
	Paths     PathsConfig     `yaml:"paths"`
	Tools     ToolsConfig     `yaml:"tools"`
	Figma     FigmaConfig     `yaml:"figma"`
	MCP       MCPConfig       `yaml:"mcp"`
	DevServer DevServerConfig `yaml:"dev_server"`
	Validator ValidatorConfig `yaml:"validator"`
	Memory    MemoryConfig    `yaml:"memory"`
	Snapshots SnapshotConfig  `yaml:"snapshots"`
	Web       WebConfig       `yaml:"web"`
	Logging   LoggingConfig   `yaml:"logging"`

	// Runtime version information
	Version string `yaml:"-"`
}

// APIConfig holds model API credentials and retry behaviour.
type APIConfig struct {
	GeminiKey string `yaml:"gemini_key,omitempty"`

	// RetryDelay is the pause before the single retry of a failed model request.
	RetryDelay time.Duration `yaml:"retry_delay"`

	// RequestsPerMinute and TokensPerMinute throttle model calls. Zero disables.
	RequestsPerMinute int   `yaml:"requests_per_minute"`
	TokensPerMinute   int64 `yaml:"tokens_per_minute"`
}

// ModelConfig holds model selection settings.
type ModelConfig struct {
	Name        string  `yaml:"name"`
	Temperature float32 `yaml:"temperature"`

	// PhaseModels maps a planner phase (planning, designing, validating,
	// reviewing, fixing, generating, file_ops) to a model name.
	PhaseModels map[string]string `yaml:"phase_models,omitempty"`

	MaxIterations int `yaml:"max_iterations"`
}

// ModelFor returns the model to use for the given planner phase.
func (m *ModelConfig) ModelFor(phase string) string {
	if name, ok := m.PhaseModels[phase]; ok && name != "" {
		return name
	}
	return m.Name
}

// PathsConfig holds the on-disk layout. Relative paths are resolved against Root.
type PathsConfig struct {
	Root        string `yaml:"root"`
	Output      string `yaml:"output"`
	MemoryStore string `yaml:"memory_store"`
	FigmaCache  string `yaml:"figma_cache"`
	Screenshots string `yaml:"screenshots"`
	LogDir      string `yaml:"log_dir"`
}

// ToolsConfig holds tool execution settings.
type ToolsConfig struct {
	// Timeouts overrides the per-tool wall-clock budget, keyed by tool name.
	Timeouts       map[string]time.Duration `yaml:"timeouts,omitempty"`
	DefaultTimeout time.Duration            `yaml:"default_timeout"`
	CommandTimeout time.Duration            `yaml:"command_timeout"`
	InstallTimeout time.Duration            `yaml:"install_timeout"`
	ReadFileLimit  int                      `yaml:"read_file_limit"`

	// Autonomous makes ask_user answer with a directive instead of waiting.
	Autonomous bool `yaml:"autonomous"`
}

// TimeoutFor returns the budget for the named tool.
func (t *ToolsConfig) TimeoutFor(tool string) time.Duration {
	if d, ok := t.Timeouts[tool]; ok && d > 0 {
		return d
	}
	if d, ok := DefaultToolTimeouts[tool]; ok {
		return d
	}
	if t.DefaultTimeout > 0 {
		return t.DefaultTimeout
	}
	return DefaultToolTimeout
}

// FigmaConfig holds Figma REST API settings.
type FigmaConfig struct {
	Token string `yaml:"token,omitempty"`

	// URL is a full Figma link or a bare file key.
	URL string `yaml:"url,omitempty"`

	BaseURL        string        `yaml:"base_url"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	ExportLimit    int           `yaml:"export_limit"`
	ExportScale    int           `yaml:"export_scale"`
	MaxReportChars int           `yaml:"max_report_chars"`
	MaxRetries     int           `yaml:"max_retries"`

	// RequestsPerMinute throttles calls to the Figma API.
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// Configured reports whether both a token and a design reference are set.
func (f *FigmaConfig) Configured() bool {
	return f.Token != "" && f.URL != ""
}

// MCPConfig describes the MCP server used by fetch_figma_mcp.
type MCPConfig struct {
	Command string        `yaml:"command,omitempty"`
	Args    []string      `yaml:"args,omitempty"`
	Timeout time.Duration `yaml:"timeout"`
}

// Configured reports whether an MCP server command is set.
func (m *MCPConfig) Configured() bool {
	return m.Command != ""
}

// DevServerConfig holds dev-server settings.
type DevServerConfig struct {
	Port         int           `yaml:"port"`
	StartupCheck time.Duration `yaml:"startup_check"`
	StopTimeout  time.Duration `yaml:"stop_timeout"`
}

// ValidatorConfig holds screenshot capture settings.
type ValidatorConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Width      int           `yaml:"width"`
	Height     int           `yaml:"height"`
	Settle     time.Duration `yaml:"settle"`
	NavTimeout time.Duration `yaml:"nav_timeout"`
}

// MemoryConfig holds long-term memory settings.
type MemoryConfig struct {
	MaxSessions   int `yaml:"max_sessions"`
	ContextLimit  int `yaml:"context_limit"`
	ExcerptLength int `yaml:"excerpt_length"`
}

// SnapshotConfig holds undo snapshot settings.
type SnapshotConfig struct {
	Enabled bool `yaml:"enabled"`
	Max     int  `yaml:"max"`
}

// WebConfig holds dashboard server settings.
type WebConfig struct {
	Addr          string        `yaml:"addr"`
	AnswerTimeout time.Duration `yaml:"answer_timeout"`
	KeepAlive     time.Duration `yaml:"keep_alive"`
	AllowedOrigin []string      `yaml:"allowed_origins,omitempty"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  bool   `yaml:"file"`
	// Audit writes every tool call of a build to <log_dir>/audit.
	Audit          bool          `yaml:"audit"`
	AuditRetention time.Duration `yaml:"audit_retention"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			RetryDelay:        DefaultRetryDelay,
			RequestsPerMinute: DefaultRequestsPerMinute,
			TokensPerMinute:   DefaultTokensPerMinute,
		},
		Model: ModelConfig{
			Name:          DefaultModel,
			Temperature:   0.7,
			MaxIterations: DefaultMaxIterations,
		},
		Paths: PathsConfig{
			Output:      "output",
			MemoryStore: "memory/store",
			FigmaCache:  "figma/cache",
			Screenshots: "validation_screenshots",
			LogDir:      "logs",
		},
		Tools: ToolsConfig{
			DefaultTimeout: DefaultToolTimeout,
			CommandTimeout: DefaultCommandTimeout,
			InstallTimeout: DefaultInstallTimeout,
			ReadFileLimit:  DefaultReadFileLimit,
			Autonomous:     true,
		},
		Figma: FigmaConfig{
			BaseURL:           DefaultFigmaAPI,
			CacheTTL:          DefaultFigmaCacheTTL,
			ExportLimit:       DefaultFigmaExportLimit,
			ExportScale:       1,
			MaxReportChars:    DefaultFigmaReportChars,
			MaxRetries:        DefaultFigmaRetries,
			RequestsPerMinute: 30,
		},
		MCP: MCPConfig{
			Timeout: 60 * time.Second,
		},
		DevServer: DevServerConfig{
			Port:         DefaultDevServerPort,
			StartupCheck: 2 * time.Second,
			StopTimeout:  5 * time.Second,
		},
		Validator: ValidatorConfig{
			BaseURL:    "http://localhost:5173",
			Width:      1440,
			Height:     900,
			Settle:     1500 * time.Millisecond,
			NavTimeout: 15 * time.Second,
		},
		Memory: MemoryConfig{
			MaxSessions:   DefaultMaxSessions,
			ContextLimit:  5,
			ExcerptLength: 200,
		},
		Snapshots: SnapshotConfig{
			Enabled: true,
			Max:     DefaultMaxSnapshots,
		},
		Web: WebConfig{
			Addr:          ":5000",
			AnswerTimeout: DefaultAnswerTimeout,
			KeepAlive:     120 * time.Second,
		},
		Logging: LoggingConfig{
			Level:          "info",
			File:           true,
			Audit:          true,
			AuditRetention: 30 * 24 * time.Hour,
		},
	}
}
