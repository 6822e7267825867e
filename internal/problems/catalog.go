package problems

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"codinground/internal/models"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Kind names a fallback problem family.
type Kind string

const (
	KindGeneric  Kind = "generic"
	KindGenAI    Kind = "genai"
	KindBackend  Kind = "backend"
	KindFrontend Kind = "frontend"
)

type catalogEntry struct {
	ID          string            `yaml:"id"`
	Title       string            `yaml:"title"`
	Language    string            `yaml:"language"`
	Prompt      string            `yaml:"prompt"`
	StarterCode string            `yaml:"starter_code"`
	Examples    []models.TestCase `yaml:"examples"`
}

// Catalog holds the built-in problems used when no backend problem is available.
type Catalog struct {
	entries map[Kind]models.Problem
}

// NewCatalog parses the embedded catalog. Every entry must carry the fallback prefix.
func NewCatalog() (*Catalog, error) {
	return parseCatalog(catalogYAML)
}

func parseCatalog(data []byte) (*Catalog, error) {
	raw := map[Kind]catalogEntry{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse problem catalog: %w", err)
	}
	if _, ok := raw[KindGeneric]; !ok {
		return nil, fmt.Errorf("problem catalog has no %s entry", KindGeneric)
	}

	c := &Catalog{entries: make(map[Kind]models.Problem, len(raw))}
	for kind, e := range raw {
		if !models.IsFallbackID(e.ID) {
			return nil, fmt.Errorf("catalog problem %q must start with %q", e.ID, models.FallbackPrefix)
		}
		language := e.Language
		if language == "" {
			language = models.DefaultLanguage
		}
		c.entries[kind] = models.Problem{
			ID:          e.ID,
			Title:       e.Title,
			Prompt:      strings.TrimSpace(e.Prompt),
			StarterCode: e.StarterCode,
			Language:    language,
			Examples:    e.Examples,
		}
	}
	return c, nil
}

// Get returns the problem of the given kind, or the generic one if the kind is unknown.
func (c *Catalog) Get(kind Kind) models.Problem {
	if p, ok := c.entries[kind]; ok {
		return p
	}
	return c.entries[KindGeneric]
}

// KindForTitle picks a fallback family from a job posting title.
// Matching is case-insensitive and checked in order: genai/ai, backend, frontend.
func KindForTitle(title string) Kind {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "genai") || containsWord(t, "ai"):
		return KindGenAI
	case strings.Contains(t, "backend"):
		return KindBackend
	case strings.Contains(t, "frontend"):
		return KindFrontend
	default:
		return KindGeneric
	}
}

// ForTitle is Get(KindForTitle(title)).
func (c *Catalog) ForTitle(title string) models.Problem {
	return c.Get(KindForTitle(title))
}

// containsWord avoids matching "ai" inside words like "maintainer".
func containsWord(s, word string) bool {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	for _, f := range fields {
		if f == word {
			return true
		}
	}
	return false
}
