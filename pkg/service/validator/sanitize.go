package validator

import "regexp"

var (
	ipAddrPattern = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	secretPattern = regexp.MustCompile(`(?i)(?:password|token|key|secret)[\s:=]+[\w\-]+`)
)

// Sanitize redacts IPv4 literals and credential-looking key-value fragments
// from outgoing text. Applied to every answer, valid or replaced.
func Sanitize(text string) string {
	sanitized := ipAddrPattern.ReplaceAllString(text, "[IP_ADDRESS]")
	sanitized = secretPattern.ReplaceAllString(sanitized, "[REDACTED]")
	return sanitized
}
