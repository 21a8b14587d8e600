// Package redact provides utilities for redacting credentials from strings
// before they are logged. Errors from the remote service, the database
// driver and the Redis client can echo back connection strings, API keys and
// bearer tokens; this package scrubs them while leaving the rest of the
// message readable.
package redact

import (
	"net/url"
	"regexp"
)

// Constants for redaction placeholders
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedJWTPlaceholder        = "[REDACTED_JWT]"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Rules are applied in order; JWTs go first so the key rule does not
// swallow only part of one.
var rules = []rule{
	{
		pattern:     regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),
		replacement: RedactedJWTPlaceholder,
	},
	{
		// userinfo in postgres://, redis:// and similar connection URLs
		pattern:     regexp.MustCompile(`(?i)\b((?:postgres(?:ql)?|rediss?|mysql|mongodb|amqp)://)[^@/\s]+@`),
		replacement: "${1}" + RedactedCredentialPlaceholder + "@",
	},
	{
		pattern:     regexp.MustCompile(`(?i)\b(password|passwd|pwd)([=:]\s*['"]?)[^'"&\s]{3,}`),
		replacement: "${1}${2}" + RedactedCredentialPlaceholder,
	},
	{
		pattern:     regexp.MustCompile(`(?i)\b(bearer\s+)[A-Za-z0-9_\-.~+/=]{8,}`),
		replacement: "${1}" + RedactedKeyPlaceholder,
	},
	{
		// OpenAI-style secret keys
		pattern:     regexp.MustCompile(`\bsk-[A-Za-z0-9_\-]{8,}`),
		replacement: RedactedKeyPlaceholder,
	},
	{
		// Google API keys
		pattern:     regexp.MustCompile(`\bAIza[0-9A-Za-z_\-]{20,}`),
		replacement: RedactedKeyPlaceholder,
	},
	{
		pattern:     regexp.MustCompile(`(?i)\b(api[_-]?key|key|token|secret|jwt[_-]?secret)([=:]\s*['"]?)[A-Za-z0-9_\-.~+/]{8,}`),
		replacement: "${1}${2}" + RedactedKeyPlaceholder,
	},
}

// String redacts credentials from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.replacement)
	}
	return result
}

// Error redacts credentials from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// URL masks the password of a connection URL for safe logging.
// Unparseable input is reported as "invalid-url".
func URL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "invalid-url"
	}

	if parsed.User != nil {
		if _, hasPassword := parsed.User.Password(); hasPassword {
			parsed.User = url.UserPassword(parsed.User.Username(), "redacted")
		}
	}

	return parsed.String()
}
