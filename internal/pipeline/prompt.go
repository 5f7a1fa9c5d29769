package pipeline

import (
	"fmt"
	"os"
	"strings"
	"text/template"
)

// PromptData carries the four substitution points of the SQL prompt.
type PromptData struct {
	Question string
	Schema   string
	Dialect  string
	TopK     int
}

// PromptTemplate is the generation prompt, loaded from an external file so it
// can be tuned without redeployment.
type PromptTemplate struct {
	tmpl *template.Template
}

func LoadPromptTemplate(path string) (*PromptTemplate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt template %q: %w", path, err)
	}
	return ParsePromptTemplate(string(raw))
}

func ParsePromptTemplate(raw string) (*PromptTemplate, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("prompt template is empty")
	}
	tmpl, err := template.New("sql_prompt").Option("missingkey=error").Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return &PromptTemplate{tmpl: tmpl}, nil
}

func (p *PromptTemplate) Render(data PromptData) (string, error) {
	var builder strings.Builder
	if err := p.tmpl.Execute(&builder, data); err != nil {
		return "", fmt.Errorf("render prompt template: %w", err)
	}
	return builder.String(), nil
}
