package prompt

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// DefaultProjectType is used when a request does not name a project type.
const DefaultProjectType = "React"

const (
	templateNameSystem   = "system"
	templateNameUser     = "user"
	templateNameFallback = "fallback"
)

var errEmptyTemplatesPath = errors.New("prompt templates path is required")

//go:embed templates/default.yaml
var defaultTemplatesDocument []byte

// Templates holds the text/template sources of the generation prompts.
type Templates struct {
	System   string `yaml:"system"`
	User     string `yaml:"user"`
	Fallback string `yaml:"fallback"`
}

// Prompt is a rendered prompt pair.
type Prompt struct {
	System        string `json:"system"`
	User          string `json:"user"`
	Documentation string `json:"documentation"`
	UsedFallback  bool   `json:"usedFallback"`
}

type templateData struct {
	ProjectType   string
	Documentation string
}

// DefaultTemplates returns the built-in prompt templates.
func DefaultTemplates() Templates {
	var templates Templates
	if decodeErr := yaml.Unmarshal(defaultTemplatesDocument, &templates); decodeErr != nil {
		panic(fmt.Sprintf("decode embedded prompt templates: %v", decodeErr))
	}
	return templates
}

// LoadTemplates reads a YAML prompt file. Fields missing from the file keep their built-in values.
func LoadTemplates(path string) (Templates, error) {
	if strings.TrimSpace(path) == "" {
		return Templates{}, errEmptyTemplatesPath
	}
	content, readErr := os.ReadFile(path)
	if readErr != nil {
		return Templates{}, fmt.Errorf("read prompt templates %s: %w", path, readErr)
	}
	var overrides Templates
	if decodeErr := yaml.Unmarshal(content, &overrides); decodeErr != nil {
		return Templates{}, fmt.Errorf("decode prompt templates %s: %w", path, decodeErr)
	}
	return DefaultTemplates().merge(overrides), nil
}

func (templates Templates) merge(overrides Templates) Templates {
	merged := templates
	if strings.TrimSpace(overrides.System) != "" {
		merged.System = overrides.System
	}
	if strings.TrimSpace(overrides.User) != "" {
		merged.User = overrides.User
	}
	if strings.TrimSpace(overrides.Fallback) != "" {
		merged.Fallback = overrides.Fallback
	}
	return merged
}

// Builder renders system and user prompts for a formatted documentation body.
type Builder struct {
	system   *template.Template
	user     *template.Template
	fallback *template.Template
}

// NewBuilder parses the given templates. Empty fields fall back to the built-in templates.
func NewBuilder(templates Templates) (Builder, error) {
	effective := DefaultTemplates().merge(templates)
	systemTemplate, systemErr := template.New(templateNameSystem).Parse(effective.System)
	if systemErr != nil {
		return Builder{}, fmt.Errorf("parse system prompt template: %w", systemErr)
	}
	userTemplate, userErr := template.New(templateNameUser).Parse(effective.User)
	if userErr != nil {
		return Builder{}, fmt.Errorf("parse user prompt template: %w", userErr)
	}
	fallbackTemplate, fallbackErr := template.New(templateNameFallback).Parse(effective.Fallback)
	if fallbackErr != nil {
		return Builder{}, fmt.Errorf("parse fallback prompt template: %w", fallbackErr)
	}
	return Builder{system: systemTemplate, user: userTemplate, fallback: fallbackTemplate}, nil
}

// Build renders the prompt pair. A blank documentation body is replaced by the fallback instruction.
func (builder Builder) Build(projectType string, documentation string) (Prompt, error) {
	data := templateData{ProjectType: strings.TrimSpace(projectType), Documentation: strings.TrimSpace(documentation)}
	if data.ProjectType == "" {
		data.ProjectType = DefaultProjectType
	}
	usedFallback := false
	if data.Documentation == "" {
		fallbackText, fallbackErr := execute(builder.fallback, data)
		if fallbackErr != nil {
			return Prompt{}, fallbackErr
		}
		data.Documentation = fallbackText
		usedFallback = true
	}
	systemText, systemErr := execute(builder.system, data)
	if systemErr != nil {
		return Prompt{}, systemErr
	}
	userText, userErr := execute(builder.user, data)
	if userErr != nil {
		return Prompt{}, userErr
	}
	return Prompt{System: systemText, User: userText, Documentation: data.Documentation, UsedFallback: usedFallback}, nil
}

func execute(promptTemplate *template.Template, data templateData) (string, error) {
	var builder strings.Builder
	if executeErr := promptTemplate.Execute(&builder, data); executeErr != nil {
		return "", fmt.Errorf("render %s prompt: %w", promptTemplate.Name(), executeErr)
	}
	return strings.TrimSpace(builder.String()), nil
}
