package problems

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"codinground/internal/models"
)

type structuredProblem struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Examples    json.RawMessage `json:"examples"`
	Constraints json.RawMessage `json:"constraints"`
}

// FormatProblemText flattens a problem statement for grading and analysis prompts.
// Questions stored by the backend are sometimes serialized JSON objects with title,
// description, examples and constraints; plain text passes through unchanged.
func FormatProblemText(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return trimmed
	}

	var sp structuredProblem
	if err := json.Unmarshal([]byte(trimmed), &sp); err != nil {
		return trimmed
	}
	if sp.Title == "" && sp.Description == "" {
		return trimmed
	}

	var b strings.Builder
	if sp.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", sp.Title)
	}
	if sp.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", sp.Description)
	}
	if lines := flattenList(sp.Examples); len(lines) > 0 {
		b.WriteString("Examples:\n")
		for _, l := range lines {
			fmt.Fprintf(&b, "- %s\n", l)
		}
	}
	if lines := flattenList(sp.Constraints); len(lines) > 0 {
		b.WriteString("Constraints:\n")
		for _, l := range lines {
			fmt.Fprintf(&b, "- %s\n", l)
		}
	}
	return strings.TrimSpace(b.String())
}

// ProblemText is the prompt-ready text of p, with its examples appended when the
// statement itself does not carry them.
func ProblemText(p models.Problem) string {
	text := FormatProblemText(p.Prompt)
	if p.Title != "" && !strings.Contains(text, p.Title) {
		text = p.Title + "\n\n" + text
	}
	return text
}

// FormatExamples renders examples one per line for prompts.
func FormatExamples(examples []models.TestCase) string {
	if len(examples) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for i, ex := range examples {
		fmt.Fprintf(&b, "%d. input: %s -> expected: %s\n", i+1, ex.Input, ex.Output)
	}
	return strings.TrimSpace(b.String())
}

// flattenList accepts a string, a list of strings, or a list of objects.
func flattenList(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single = strings.TrimSpace(single); single != "" {
			return []string{single}
		}
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{string(raw)}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var obj map[string]interface{}
		if err := json.Unmarshal(item, &obj); err == nil {
			out = append(out, flattenObject(obj))
			continue
		}
		out = append(out, string(item))
	}
	return out
}

// flattenObject prints input/output/explanation first, in that order, then anything else sorted.
func flattenObject(obj map[string]interface{}) string {
	parts := []string{}
	for _, key := range []string{"input", "output", "explanation"} {
		if v, ok := obj[key]; ok {
			parts = append(parts, fmt.Sprintf("%s: %v", key, v))
			delete(obj, key)
		}
	}
	rest := make([]string, 0, len(obj))
	for k := range obj {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	for _, k := range rest {
		parts = append(parts, fmt.Sprintf("%s: %v", k, obj[k]))
	}
	return strings.Join(parts, ", ")
}
