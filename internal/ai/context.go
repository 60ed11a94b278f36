package ai

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProjectContext is background about the audited project that is handed to
// the model with every request.
type ProjectContext struct {
	Project     string   `yaml:"project"`
	Description string   `yaml:"description"`
	// Trusted names contracts or addresses the model may treat as trusted.
	Trusted     []string `yaml:"trusted"`
	Focus       []string `yaml:"focus"`
	Notes       string   `yaml:"notes"`
}

// LoadContext reads a ProjectContext from a YAML file. Unknown keys are
// rejected so typos do not silently drop context.
func LoadContext(path string) (*ProjectContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ai context %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var pc ProjectContext
	if err := dec.Decode(&pc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing ai context %s: %w", path, err)
	}
	return &pc, nil
}

// Prompt renders the context as plain text for the user message. It is
// empty when c is nil or carries nothing.
func (c *ProjectContext) Prompt() string {
	if c == nil {
		return ""
	}
	var b strings.Builder
	if c.Project != "" {
		fmt.Fprintf(&b, "Project: %s\n", c.Project)
	}
	if c.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", strings.TrimSpace(c.Description))
	}
	if len(c.Trusted) > 0 {
		fmt.Fprintf(&b, "Trusted: %s\n", strings.Join(c.Trusted, ", "))
	}
	if len(c.Focus) > 0 {
		fmt.Fprintf(&b, "Focus on: %s\n", strings.Join(c.Focus, ", "))
	}
	if c.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", strings.TrimSpace(c.Notes))
	}
	return b.String()
}
