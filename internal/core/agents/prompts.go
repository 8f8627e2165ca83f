package agents

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/agenthands/meddesert/internal/config"
)

// templates holds the parsed prompt set. A missing field in a template is an error
// rather than an empty string.
type templates struct {
	discovery    *template.Template
	parser       *template.Template
	verifier     *template.Template
	strategist   *template.Template
	matcher      *template.Template
	predictor    *template.Template
	query        *template.Template
	intervention *template.Template
	chat         *template.Template
}

func parseTemplates(p config.Prompts) (*templates, error) {
	t := &templates{}
	for _, entry := range []struct {
		name string
		src  string
		dst  **template.Template
	}{
		{"discovery", p.Discovery, &t.discovery},
		{"parser", p.Parser, &t.parser},
		{"verifier", p.Verifier, &t.verifier},
		{"strategist", p.Strategist, &t.strategist},
		{"matcher", p.Matcher, &t.matcher},
		{"predictor", p.Predictor, &t.predictor},
		{"query", p.Query, &t.query},
		{"intervention", p.Intervention, &t.intervention},
		{"chat", p.Chat, &t.chat},
	} {
		if entry.src == "" {
			return nil, fmt.Errorf("prompt %q is empty", entry.name)
		}
		tmpl, err := template.New(entry.name).Option("missingkey=error").Parse(entry.src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s prompt: %w", entry.name, err)
		}
		*entry.dst = tmpl
	}
	return t, nil
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", t.Name(), err)
	}
	return buf.String(), nil
}
