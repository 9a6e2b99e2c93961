package utils

import (
	"strings"
)

// MaskSecret masks a secret for safe logging.
// Example: "sk-1234567890abcdef" -> "sk-1****cdef"
func MaskSecret(secret string) string {
	length := len(secret)
	if length <= 8 {
		return "****"
	}
	var b strings.Builder
	b.Grow(12)
	b.WriteString(secret[:4])
	b.WriteString("****")
	b.WriteString(secret[length-4:])
	return b.String()
}

// TruncateString shortens a string to a maximum length.
func TruncateString(s string, maxLength int) string {
	if len(s) > maxLength {
		return s[:maxLength]
	}
	return s
}

// NormalizeBaseURL ensures a site URL carries a trailing slash so path
// joining against the REST namespace stays predictable.
func NormalizeBaseURL(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return trimmed
	}
	if !strings.HasSuffix(trimmed, "/") {
		trimmed += "/"
	}
	return trimmed
}
