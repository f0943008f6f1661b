package gendoc

import (
	"fmt"
	"sort"
	"strings"
)

// Template is a stored generation configuration: the document kind plus the
// prompt that shapes it.
type Template struct {
	ID     string
	Name   string
	Prompt string
}

// Registry holds the built-in document templates.
type Registry struct {
	byID map[string]Template
}

func NewRegistry() *Registry {
	r := &Registry{byID: make(map[string]Template)}
	for _, t := range builtinTemplates {
		r.byID[t.ID] = t
	}
	return r
}

func (r *Registry) Lookup(id string) (Template, error) {
	t, ok := r.byID[strings.TrimSpace(id)]
	if !ok {
		return Template{}, fmt.Errorf("unknown template %q", id)
	}
	return t, nil
}

func (r *Registry) List() []Template {
	out := make([]Template, 0, len(r.byID))
	for _, t := range r.byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var builtinTemplates = []Template{
	{
		ID:   "role-description",
		Name: "Role Description",
		Prompt: `You are an experienced recruitment copywriter. Using the company and
role source documents provided, write a complete role description as a
standalone HTML document. Cover the company background, the role's
responsibilities, required and preferred qualifications, and what the
hiring process looks like. Use only facts present in the sources; do not
invent compensation figures or team sizes. Return HTML only, no markdown.`,
	},
	{
		ID:   "interview-guide",
		Name: "Interview Guide",
		Prompt: `You are a structured-interview designer. From the company and role
source documents, produce an interviewer-facing guide as a standalone HTML
document: competencies to probe, suggested questions per competency, and
scoring guidance. Keep questions grounded in the role's actual
responsibilities from the sources. Return HTML only, no markdown.`,
	},
	{
		ID:   "candidate-brief",
		Name: "Candidate Brief",
		Prompt: `You are preparing a candidate-facing brief. From the company and role
source documents, write an HTML document that introduces the company, the
role, and the interview process to a candidate. Warm but factual tone; use
only the provided sources. Return HTML only, no markdown.`,
	},
}
