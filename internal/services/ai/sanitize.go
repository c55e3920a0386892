package ai

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxPreviewLength is the maximum length for preview strings in logs.
	MaxPreviewLength = 200
	// maxDebugContentLength bounds full-content debug logging.
	maxDebugContentLength = 10000
	// RedactedValue replaces sensitive data in logs.
	RedactedValue = "[REDACTED]"
)

// SanitizeAPIKey redacts an API key for logging, keeping only the edges.
func SanitizeAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 8 {
		return RedactedValue
	}
	return apiKey[:4] + RedactedValue + apiKey[len(apiKey)-4:]
}

// SanitizePrompt creates a safe preview of a prompt for logging. Even in
// full-log mode content is sanitized to prevent log injection.
func SanitizePrompt(prompt string, fullLog bool) string {
	return sanitizeForLogging(prompt, previewLimit(fullLog))
}

// SanitizeResponse creates a safe preview of a model response for logging.
func SanitizeResponse(response string, fullLog bool) string {
	return sanitizeForLogging(response, previewLimit(fullLog))
}

func previewLimit(fullLog bool) int {
	if fullLog {
		return maxDebugContentLength
	}
	return MaxPreviewLength
}

// sanitizeForLogging removes control characters, validates UTF-8 and
// truncates.
func sanitizeForLogging(s string, maxLen int) string {
	if s == "" {
		return ""
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	var builder strings.Builder
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			builder.WriteRune(r)
		}
	}
	s = builder.String()

	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	return s
}

// TruncateString safely truncates a string to max length.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
