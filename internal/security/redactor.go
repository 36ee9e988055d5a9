package security

import "regexp"

// SecretRedactor masks credentials that can leak into logs and tool output.
type SecretRedactor struct {
	patterns []*regexp.Regexp
}

// NewSecretRedactor creates a redactor for the keys this agent handles.
func NewSecretRedactor() *SecretRedactor {
	return &SecretRedactor{
		patterns: []*regexp.Regexp{
			// Google AI Studio keys
			regexp.MustCompile(`AIza[0-9A-Za-z\-_]{35}`),
			// Figma personal access tokens
			regexp.MustCompile(`figd_[0-9A-Za-z\-_]{20,}`),
			// --figma-api-key=... style flags passed to MCP servers
			regexp.MustCompile(`(?i)(--?[a-z-]*api[_-]?key[= ])\S+`),
			// X-Figma-Token header echoes
			regexp.MustCompile(`(?i)(x-figma-token:\s*)\S+`),
		},
	}
}

// Redact replaces every match with [REDACTED], keeping a flag or header name
// when the pattern captured one.
func (r *SecretRedactor) Redact(s string) string {
	for _, re := range r.patterns {
		if re.NumSubexp() > 0 {
			s = re.ReplaceAllString(s, "${1}[REDACTED]")
		} else {
			s = re.ReplaceAllString(s, "[REDACTED]")
		}
	}
	return s
}

var defaultRedactor = NewSecretRedactor()

// Redact masks secrets using the default redactor.
func Redact(s string) string {
	return defaultRedactor.Redact(s)
}
