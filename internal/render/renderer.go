package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/phrazzld/synthgen/internal/domain"
	"github.com/phrazzld/synthgen/internal/generation"
)

// ErrInvalidTemplate is returned when a prompt template cannot be parsed.
var ErrInvalidTemplate = errors.New("invalid prompt template")

// DefaultUserTemplate wraps the payload in knowledge tags and appends the
// auxiliary text as a question when one is present.
const DefaultUserTemplate = `<knowledge>
{{.Payload}}
</knowledge>
{{- if .Exemplars}}

<examples>
{{- range .Exemplars}}
- {{.}}
{{- end}}
</examples>
{{- end}}
{{- if .Auxiliary}}

Question: {{.Auxiliary}}
{{- end}}
`

// Renderer builds the request for a work item.
type Renderer interface {
	Render(ctx context.Context, item *domain.WorkItem) (generation.Request, error)
}

// promptData represents the data passed to the prompt template
type promptData struct {
	Payload   string
	Auxiliary string
	Title     string
	Source    string
	Exemplars []string
}

// TemplateRenderer renders requests from a text/template user prompt, a
// fixed system instruction and optional sampled exemplars.
type TemplateRenderer struct {
	system  string
	user    *template.Template
	sampler *ExemplarSampler
}

var _ Renderer = (*TemplateRenderer)(nil)

// NewTemplateRenderer parses userTemplate and returns a renderer.
// An empty userTemplate selects DefaultUserTemplate; sampler may be nil.
func NewTemplateRenderer(system, userTemplate string, sampler *ExemplarSampler) (*TemplateRenderer, error) {
	if strings.TrimSpace(userTemplate) == "" {
		userTemplate = DefaultUserTemplate
	}

	tmpl, err := template.New("user").Option("missingkey=error").Parse(userTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	return &TemplateRenderer{
		system:  system,
		user:    tmpl,
		sampler: sampler,
	}, nil
}

// LoadTemplate reads a template file from disk.
func LoadTemplate(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt template from %s: %w", path, err)
	}
	return string(content), nil
}

// Render implements Renderer.
func (r *TemplateRenderer) Render(ctx context.Context, item *domain.WorkItem) (generation.Request, error) {
	if err := ctx.Err(); err != nil {
		return generation.Request{}, err
	}
	if item == nil {
		return generation.Request{}, domain.ErrEmptyPayload
	}

	data := promptData{
		Payload:   item.Payload,
		Auxiliary: item.Auxiliary,
		Title:     item.Title,
		Source:    item.Source,
	}
	if r.sampler != nil {
		data.Exemplars = r.sampler.Sample()
	}

	var buf bytes.Buffer
	if err := r.user.Execute(&buf, data); err != nil {
		return generation.Request{}, fmt.Errorf("failed to execute prompt template: %w", err)
	}

	req := generation.Request{
		System: r.system,
		User:   buf.String(),
	}
	if err := req.Validate(); err != nil {
		return generation.Request{}, err
	}

	return req, nil
}
