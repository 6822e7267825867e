package utils

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

func NormalizeLanguage(language string) string {
	return strings.ToLower(strings.TrimSpace(language))
}

// StripFences removes a surrounding markdown code fence, if any, and trims whitespace.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Truncate shortens s to at most limit runes, marking the cut with "...".
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit])) + "..."
}

// AddLineNumbers prefixes every line with its 1-based number so prompts can cite lines.
func AddLineNumbers(code string) string {
	lines := strings.Split(code, "\n")
	var b strings.Builder
	for i, line := range lines {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(": ")
		b.WriteString(line)
		if i < len(lines)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
