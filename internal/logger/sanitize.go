package logger

import (
	"strings"
	"unicode"
)

// maxLoggedPathLength bounds URL paths in access logs.
const maxLoggedPathLength = 256

// SanitizePath makes a request path safe for structured logs: strips control
// characters (log injection) and truncates very long paths.
func SanitizePath(path string) string {
	var b strings.Builder
	b.Grow(len(path))
	for _, r := range path {
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	s := b.String()
	if len(s) > maxLoggedPathLength {
		s = s[:maxLoggedPathLength] + "..."
	}
	return s
}
