package prompts

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// embeds all .yaml files in the templates folder into Go program at compile time
//
//go:embed templates/*.yaml
var templateFS embed.FS

// PromptProvider is what the AI call sites need from the prompt layer.
type PromptProvider interface {
	Build(name string, data map[string]string) (*Prompt, error)
	Names() []string
}

// loaded prompt template
type PromptTemplate struct {
	System         string  `yaml:"system"`
	User           string  `yaml:"user"`
	Temperature    float64 `yaml:"temperature"`
	ResponseFormat string  `yaml:"response_format"`
}

// Prompt is a template with its placeholders filled in.
type Prompt struct {
	System         string
	User           string
	Temperature    float64
	ResponseFormat string
}

type PromptManager struct {
	templates map[string]PromptTemplate
}

// creates a new prompt manager and loads templates
func NewPromptManager() (*PromptManager, error) {
	pm := &PromptManager{
		templates: make(map[string]PromptTemplate),
	}

	if err := pm.loadPrompts(); err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}

	return pm, nil
}

// Build fills the named template. Placeholders are written as {{.Key}}.
func (pm *PromptManager) Build(name string, data map[string]string) (*Prompt, error) {
	tmpl, exists := pm.templates[name]
	if !exists {
		return nil, fmt.Errorf("template not found: %s", name)
	}

	// Simple string replacement instead of complex template execution
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	replacer := strings.NewReplacer(pairs...)

	return &Prompt{
		System:         replacer.Replace(tmpl.System),
		User:           replacer.Replace(tmpl.User),
		Temperature:    tmpl.Temperature,
		ResponseFormat: tmpl.ResponseFormat,
	}, nil
}

func (pm *PromptManager) Names() []string {
	names := make([]string, 0, len(pm.templates))
	for name := range pm.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// loadPrompts loads all YAML prompt files from the embedded filesystem
func (pm *PromptManager) loadPrompts() error {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return fmt.Errorf("failed to read templates directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		data, err := templateFS.ReadFile("templates/" + entry.Name())
		if err != nil {
			return fmt.Errorf("failed to read template file %s: %w", entry.Name(), err)
		}

		var promptTemplate PromptTemplate
		if err := yaml.Unmarshal(data, &promptTemplate); err != nil {
			return fmt.Errorf("failed to parse template file %s: %w", entry.Name(), err)
		}
		if promptTemplate.System == "" {
			return fmt.Errorf("template %s has no system prompt", entry.Name())
		}

		pm.templates[strings.TrimSuffix(entry.Name(), ".yaml")] = promptTemplate
	}

	return nil
}
