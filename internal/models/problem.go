package models

import "strings"

// TestCase is an example input/output pair shown with a problem.
type TestCase struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Problem is immutable once loaded.
type Problem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title,omitempty"`
	Prompt      string     `json:"prompt"`
	StarterCode string     `json:"starter_code"`
	Language    string     `json:"language,omitempty"`
	Examples    []TestCase `json:"examples,omitempty"`
}

// IsFallbackID reports whether id belongs to a built-in fallback problem.
func IsFallbackID(id string) bool {
	return strings.HasPrefix(id, FallbackPrefix)
}
