package tui

import (
	"regexp"
	"strings"
)

// ansiEscapePattern matches CSI sequences such as colors and cursor moves.
var ansiEscapePattern = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

// SanitizePaste strips escape sequences and control characters from pasted
// text, normalizes line endings and trims trailing whitespace.
func SanitizePaste(content string) string {
	content = ansiEscapePattern.ReplaceAllString(content, "")

	var result strings.Builder
	for _, r := range content {
		switch {
		case r == '\n' || r == '\t' || r == '\r':
			result.WriteRune(r)
		case r < 32 || r == 127:
			continue
		default:
			result.WriteRune(r)
		}
	}
	content = strings.ReplaceAll(result.String(), "\r\n", "\n")

	return strings.TrimRight(content, " \t\n\r")
}

var newlinePattern = regexp.MustCompile(`[\r\n]+`)

// collapseNewlines joins lines with single spaces for one-line inputs.
func collapseNewlines(content string) string {
	return newlinePattern.ReplaceAllString(content, " ")
}
