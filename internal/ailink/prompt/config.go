package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

// AnswerSlug names the prompt used to answer a user question.
const AnswerSlug = "answer"

// Config describes a prompt definition loaded from YAML.
type Config struct {
	Slug           string    `yaml:"slug" json:"slug"`
	Name           string    `yaml:"name,omitempty" json:"name,omitempty"`
	Description    string    `yaml:"description,omitempty" json:"description,omitempty"`
	Version        string    `yaml:"version,omitempty" json:"version,omitempty"`
	Author         string    `yaml:"author,omitempty" json:"author,omitempty"`
	Updated        string    `yaml:"updated,omitempty" json:"updated,omitempty"`
	Input          InputSpec `yaml:"input,omitempty" json:"input,omitempty"`
	SystemTemplate string    `yaml:"system_template,omitempty" json:"system_template,omitempty"`
}

// InputSpec defines prompt input requirements.
type InputSpec struct {
	RequiredVariables []string `yaml:"required_variables,omitempty" json:"required_variables,omitempty"`
	OptionalVariables []string `yaml:"optional_variables,omitempty" json:"optional_variables,omitempty"`
}

// Prompt wraps a validated prompt configuration with its source.
type Prompt struct {
	Config Config
	Source string
}

var placeholder = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// Render substitutes {{name}} placeholders in the template. Required
// variables must be present in vars; unknown placeholders render empty.
func (p *Prompt) Render(vars map[string]string) (string, error) {
	if p == nil {
		return "", fmt.Errorf("prompt not configured")
	}
	for _, name := range p.Config.Input.RequiredVariables {
		if _, ok := vars[name]; !ok {
			return "", fmt.Errorf("prompt %s: missing variable %q", p.Config.Slug, name)
		}
	}
	out := placeholder.ReplaceAllStringFunc(p.Config.SystemTemplate, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		return vars[name]
	})
	return strings.TrimSpace(out), nil
}
