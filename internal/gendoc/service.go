// Package gendoc is the gateway-side document generation capability: a
// template registry plus a Gemini-backed model client that turns a
// project's hydrated artifacts into an HTML document.
package gendoc

import (
	"context"
	"fmt"
	"strings"

	"github.com/mslanden/searchwizard/internal/pipeline"
	"github.com/mslanden/searchwizard/internal/project"
)

// Service implements the generation endpoint contract consumed by the
// client pipeline.
type Service struct {
	client    ModelClient
	templates *Registry
}

func New(client ModelClient, templates *Registry) *Service {
	return &Service{client: client, templates: templates}
}

func (s *Service) Templates() []Template { return s.templates.List() }

// Generate builds the prompt from the template, the hydrated artifacts and
// the user's free-text requirements, and runs the model once.
func (s *Service) Generate(ctx context.Context, req pipeline.Request) (pipeline.Response, error) {
	tpl, err := s.templates.Lookup(req.TemplateID)
	if err != nil {
		return pipeline.Response{}, &PermanentError{Err: err}
	}
	html, err := s.client.GenerateDocument(ctx, buildPrompt(tpl, req))
	if err != nil {
		return pipeline.Response{}, fmt.Errorf("generate %s: %w", tpl.ID, err)
	}
	html = stripCodeFence(html)
	if strings.TrimSpace(html) == "" {
		return pipeline.Response{}, ErrEmptyDocument
	}
	return pipeline.Response{HTMLContent: html}, nil
}

func buildPrompt(tpl Template, req pipeline.Request) string {
	var b strings.Builder
	b.WriteString(tpl.Prompt)
	b.WriteString("\n\n[SOURCE DOCUMENTS]\n")
	for _, a := range req.Artifacts {
		b.WriteString(fmt.Sprintf("--- %s (%s", a.Name, a.Category))
		switch src := a.Source.(type) {
		case project.URLSource:
			b.WriteString(fmt.Sprintf(", link: %s) ---\n", src.URL))
		default:
			b.WriteString(") ---\n")
		}
		if text := a.Text(); text != "" {
			b.WriteString(text)
			b.WriteString("\n")
		}
	}
	if strings.TrimSpace(req.UserRequirements) != "" {
		b.WriteString("\n[ADDITIONAL REQUIREMENTS]\n")
		b.WriteString(req.UserRequirements)
		b.WriteString("\n")
	}
	return b.String()
}

// stripCodeFence unwraps ```html fences some models insist on emitting.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}
	trimmed = strings.TrimPrefix(trimmed, "```html")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
