package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load loads configuration from .env, the YAML file and environment variables,
// in that order of increasing precedence. An empty path selects the default
// config location; a missing file is not an error.
func Load(path string) (*Config, error) {
	// .env only fills variables that are not already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := DefaultConfig()

	if path == "" {
		path = getConfigPath()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	loadFromEnv(cfg)

	if cfg.Paths.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		cfg.Paths.Root = wd
	}
	root, err := filepath.Abs(cfg.Paths.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %q: %w", cfg.Paths.Root, err)
	}
	cfg.Paths.Root = root

	return cfg, nil
}

// getConfigPath returns the path to the config file.
// A quizagent.yaml in the working directory wins over the user config dir.
func getConfigPath() string {
	if _, err := os.Stat("quizagent.yaml"); err == nil {
		return "quizagent.yaml"
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "quizagent", "config.yaml")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "quizagent", "config.yaml")
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Expand environment variables in the config file
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables.
func loadFromEnv(cfg *Config) {
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		cfg.API.GeminiKey = apiKey
	}

	if model := os.Getenv("QUIZAGENT_MODEL"); model != "" {
		cfg.Model.Name = model
	}
	if level := os.Getenv("QUIZAGENT_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if root := os.Getenv("QUIZAGENT_ROOT"); root != "" {
		cfg.Paths.Root = root
	}

	if token := os.Getenv("FIGMA_ACCESS_TOKEN"); token != "" {
		cfg.Figma.Token = token
	}
	// FIGMA_URL takes the full link, FIGMA_FILE_KEY is the legacy bare key
	if url := os.Getenv("FIGMA_URL"); url != "" {
		cfg.Figma.URL = url
	} else if key := os.Getenv("FIGMA_FILE_KEY"); key != "" {
		cfg.Figma.URL = key
	}

	if command := strings.TrimSpace(os.Getenv("MCP_FIGMA_COMMAND")); command != "" {
		// "npx framelink-figma-mcp" carries its leading args in the command
		fields := strings.Fields(command)
		cfg.MCP.Command = fields[0]
		cfg.MCP.Args = append([]string(nil), fields[1:]...)
		if args := strings.TrimSpace(os.Getenv("MCP_FIGMA_ARGS")); args != "" {
			cfg.MCP.Args = append(cfg.MCP.Args, strings.Fields(args)...)
		}
	}
	cfg.MCP.Args = substituteFigmaKey(cfg.MCP.Args, cfg.Figma.Token)
}

// substituteFigmaKey replaces the <figma-api-key> placeholder in MCP args.
func substituteFigmaKey(args []string, token string) []string {
	if token == "" {
		return args
	}
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = strings.ReplaceAll(arg, "<figma-api-key>", token)
	}
	return out
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.API.GeminiKey == "" {
		return ErrMissingAuth
	}
	if c.Model.MaxIterations <= 0 {
		return ErrInvalidIterations
	}
	return nil
}

// Path resolves a configured relative path against the root directory.
func (c *Config) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.Paths.Root, rel)
}

// ConfigError is a configuration validation error.
type ConfigError string

func (e ConfigError) Error() string {
	return string(e)
}

const (
	ErrMissingAuth       ConfigError = "missing authentication: set GEMINI_API_KEY in the environment or .env file"
	ErrInvalidIterations ConfigError = "model.max_iterations must be positive"
)

// Save writes the configuration to path atomically.
func (c *Config) Save(path string) error {
	if path == "" {
		path = getConfigPath()
	}
	if path == "" {
		return fmt.Errorf("no config path available")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp config: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// GetConfigPath returns the path to the config file (exported for external use).
func GetConfigPath() string {
	return getConfigPath()
}
