package security

import (
	"fmt"
	"path"
	"strings"
)

// installPattern is the CommandError pattern for package installs with
// arguments.
const installPattern = "npm install"

// CommandError reports a command rejected by the validator.
type CommandError struct {
	Command string
	Pattern string
}

func (e *CommandError) Error() string {
	if e.Pattern == installPattern {
		return "Command blocked for safety: 'npm install' only installs dependencies from package.json. Add packages to package.json instead."
	}
	return fmt.Sprintf("Command blocked for safety: contains '%s'. Only safe commands are allowed.", e.Pattern)
}

// CommandValidator checks shell commands requested by the model. Commands
// are split into chain segments and each segment into whitespace fields, so
// tabs and repeated spaces cannot dodge a rule.
type CommandValidator struct {
	// substitutions are rejected anywhere in the command
	substitutions []string
	// allowed are leading field sequences of package-manager invocations;
	// they skip the blocked-word check but not the redirect check
	allowed [][]string
	// blockedWords are commands rejected wherever they appear as a field
	blockedWords map[string]bool
	// blockedPhrases are rejected in the whitespace-normalized segment
	blockedPhrases []string
	// installVerbs are npm subcommands that add packages
	installVerbs map[string]bool
}

// NewCommandValidator creates a CommandValidator with the default rules.
func NewCommandValidator() *CommandValidator {
	return &CommandValidator{
		substitutions: []string{"`", "$("},
		allowed: [][]string{
			{"npm", "install"},
			{"npm", "run", "dev"},
			{"npm", "run", "build"},
			{"npm", "run", "preview"},
			{"npm", "start"},
			{"npm", "init"},
			{"npx", "create-vite"},
			{"npm", "create", "vite"},
		},
		blockedWords: map[string]bool{
			"rm": true, "del": true, "rmdir": true, "rd": true,
			"format": true, "mkfs": true,
			"sudo": true, "su": true,
			"chmod": true, "chown": true,
			"curl": true, "wget": true,
		},
		blockedPhrases: []string{"pip install", "pip3 install", "> /dev", ">/dev"},
		installVerbs:   map[string]bool{"install": true, "i": true, "add": true},
	}
}

// Validate returns a *CommandError when command must not run.
func (cv *CommandValidator) Validate(command string) error {
	lowered := strings.ToLower(command)
	normalized := strings.Join(strings.Fields(lowered), " ")
	if normalized == "" {
		return fmt.Errorf("empty command")
	}

	for _, sub := range cv.substitutions {
		if strings.Contains(lowered, sub) {
			return &CommandError{Command: command, Pattern: sub}
		}
	}

	// Piping into rm is reported as such before the chain is split
	if strings.Contains(normalized, "| rm") || strings.Contains(normalized, "|rm") {
		return &CommandError{Command: command, Pattern: "| rm"}
	}

	for _, segment := range splitChain(normalized) {
		if err := cv.validateSegment(command, strings.Fields(segment)); err != nil {
			return err
		}
	}
	return nil
}

func (cv *CommandValidator) validateSegment(command string, fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	segment := strings.Join(fields, " ")

	for _, phrase := range cv.blockedPhrases {
		if strings.Contains(segment, phrase) {
			return &CommandError{Command: command, Pattern: phrase}
		}
	}

	// Only a bare install is allowed: it installs what package.json lists
	if (fields[0] == "npm" || fields[0] == "pnpm" || fields[0] == "yarn") &&
		len(fields) > 1 && cv.installVerbs[fields[1]] {
		if len(fields) > 2 {
			return &CommandError{Command: command, Pattern: installPattern}
		}
		return nil
	}

	for _, prefix := range cv.allowed {
		if hasLeadingFields(fields, prefix) {
			return nil
		}
	}

	for _, f := range fields {
		// "/bin/rm" is rm too
		if word := path.Base(f); cv.blockedWords[word] {
			return &CommandError{Command: command, Pattern: word}
		}
	}
	return nil
}

// hasLeadingFields reports whether fields starts with prefix. A field may
// carry a version suffix ("create-vite@latest").
func hasLeadingFields(fields, prefix []string) bool {
	if len(fields) < len(prefix) {
		return false
	}
	for i, p := range prefix {
		if fields[i] != p && !strings.HasPrefix(fields[i], p+"@") {
			return false
		}
	}
	return true
}

// splitChain splits a command on &&, ||, ; and | into trimmed segments.
func splitChain(command string) []string {
	replacer := strings.NewReplacer("&&", "\x00", "||", "\x00", ";", "\x00", "|", "\x00")
	parts := strings.Split(replacer.Replace(command), "\x00")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DefaultCommandValidator is a singleton validator with default rules.
var DefaultCommandValidator = NewCommandValidator()

// ValidateCommand validates a command using the default validator.
func ValidateCommand(command string) error {
	return DefaultCommandValidator.Validate(command)
}
