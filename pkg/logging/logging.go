// Package logging builds the service-wide zap logger and provides helpers
// for keeping credentials out of log output.
package logging

import (
	"fmt"
	"regexp"

	"go.uber.org/zap"
)

// RedactedText is the replacement text for sensitive data.
const RedactedText = "[REDACTED]"

// New creates the root logger. "local" builds a human-readable development
// logger; everything else builds the JSON production logger.
func New(env string) (*zap.Logger, error) {
	if env == "local" {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("build development logger: %w", err)
		}
		return logger, nil
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("build production logger: %w", err)
	}
	return logger, nil
}

var (
	// Matches password=xxx, pwd=xxx, pass=xxx (until next delimiter).
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Matches potential API keys in key=value form.
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{20,}`)

	// Matches connection string credentials (user:pass@host format).
	connStringPattern = regexp.MustCompile(`://[^:]+:[^@]+@[^/\s]+`)
)

// SanitizeURL removes embedded credentials from a URL before logging.
func SanitizeURL(raw string) string {
	if raw == "" {
		return ""
	}
	return connStringPattern.ReplaceAllString(raw, "://"+RedactedText+"@"+RedactedText)
}

// SanitizeError sanitizes error messages that might contain sensitive data.
// Use this before logging errors from database or webhook operations.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
	return sanitized
}
