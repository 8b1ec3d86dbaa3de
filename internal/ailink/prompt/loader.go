package prompt

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	fence       = []byte("---")
)

// Load parses a prompt: YAML frontmatter between "---" fences followed by
// the template body, or a bare YAML document carrying system_template.
func Load(source string, data []byte) (*Prompt, error) {
	cfg, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, fmt.Errorf("parse prompt %s: %w", source, err)
	}

	if strings.TrimSpace(cfg.SystemTemplate) == "" {
		cfg.SystemTemplate = strings.TrimSpace(body)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate prompt %s: %w", source, err)
	}
	return &Prompt{Config: cfg, Source: source}, nil
}

func splitFrontmatter(data []byte) (Config, string, error) {
	var cfg Config
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return cfg, "", fmt.Errorf("empty prompt")
	}

	if !bytes.HasPrefix(trimmed, fence) {
		if err := yaml.Unmarshal(trimmed, &cfg); err != nil {
			return cfg, "", fmt.Errorf("invalid yaml: %w", err)
		}
		return cfg, "", nil
	}

	rest := bytes.TrimLeft(trimmed[len(fence):], " \t")
	rest = bytes.TrimPrefix(bytes.TrimPrefix(rest, []byte("\r")), []byte("\n"))
	front, body, found := cutFence(rest)
	if !found {
		return cfg, "", fmt.Errorf("unterminated frontmatter")
	}
	if err := yaml.Unmarshal(front, &cfg); err != nil {
		return cfg, "", fmt.Errorf("invalid frontmatter: %w", err)
	}
	return cfg, string(body), nil
}

// cutFence splits at the first line consisting only of "---".
func cutFence(b []byte) (before, after []byte, found bool) {
	offset := 0
	for offset <= len(b) {
		line := b[offset:]
		end := bytes.IndexByte(line, '\n')
		if end >= 0 {
			line = line[:end]
		}
		if bytes.Equal(bytes.TrimSpace(line), fence) {
			if end < 0 {
				return b[:offset], nil, true
			}
			return b[:offset], b[offset+end+1:], true
		}
		if end < 0 {
			break
		}
		offset += end + 1
	}
	return nil, nil, false
}

func validateConfig(cfg Config) error {
	slug := strings.TrimSpace(cfg.Slug)
	switch {
	case slug == "":
		return fmt.Errorf("slug is required")
	case !slugPattern.MatchString(slug):
		return fmt.Errorf("invalid slug %q", slug)
	case strings.TrimSpace(cfg.SystemTemplate) == "":
		return fmt.Errorf("template is empty")
	}
	for _, name := range cfg.Input.RequiredVariables {
		if !placeholderUsed(cfg.SystemTemplate, name) {
			return fmt.Errorf("required variable %q not referenced in template", name)
		}
	}
	return nil
}

func placeholderUsed(template, name string) bool {
	for _, m := range placeholder.FindAllStringSubmatch(template, -1) {
		if m[1] == name {
			return true
		}
	}
	return false
}
