package project

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Category partitions artifacts between the two document pools a project
// draws generation context from.
type Category string

const (
	CategoryCompany Category = "company"
	CategoryRole    Category = "role"
)

func ParseCategory(raw string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryCompany:
		return CategoryCompany, nil
	case CategoryRole:
		return CategoryRole, nil
	}
	return "", fmt.Errorf("unknown artifact category %q", raw)
}

// Source is the sealed content variant of an artifact. Exactly one of the
// three implementations exists per artifact, so an artifact whose input type
// says "url" cannot be missing its URL.
type Source interface {
	InputType() string
}

// FileSource points at a stored blob; Text is populated only after hydration.
type FileSource struct {
	Path string
	URL  string
	Text string
}

// URLSource is an external link; no stored content exists for it.
type URLSource struct {
	URL string
}

// TextSource carries its content inline.
type TextSource struct {
	Text string
}

func (FileSource) InputType() string { return "file" }
func (URLSource) InputType() string  { return "url" }
func (TextSource) InputType() string { return "text" }

// Artifact is an uploaded or linked document attached to a project.
// Category is fixed at construction.
type Artifact struct {
	ID          string
	Name        string
	Type        string
	DateAdded   string
	Description string
	Category    Category
	Source      Source
}

// Hydrated reports whether generation can read this artifact's text without
// another download.
func (a Artifact) Hydrated() bool {
	switch src := a.Source.(type) {
	case TextSource:
		return src.Text != ""
	case FileSource:
		return src.Text != ""
	}
	return false
}

// Text returns the artifact's raw content, empty when not hydrated.
func (a Artifact) Text() string {
	switch src := a.Source.(type) {
	case TextSource:
		return src.Text
	case FileSource:
		return src.Text
	}
	return ""
}

type artifactJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	DateAdded   string `json:"dateAdded,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	InputType   string `json:"inputType"`
	FilePath    string `json:"filePath,omitempty"`
	URL         string `json:"url,omitempty"`
	TextContent string `json:"textContent,omitempty"`
}

func (a Artifact) MarshalJSON() ([]byte, error) {
	out := artifactJSON{
		ID:          a.ID,
		Name:        a.Name,
		Type:        a.Type,
		DateAdded:   a.DateAdded,
		Description: a.Description,
		Category:    string(a.Category),
	}
	switch src := a.Source.(type) {
	case FileSource:
		out.InputType = src.InputType()
		out.FilePath = src.Path
		out.URL = src.URL
		out.TextContent = src.Text
	case URLSource:
		out.InputType = src.InputType()
		out.URL = src.URL
	case TextSource:
		out.InputType = src.InputType()
		out.TextContent = src.Text
	default:
		return nil, fmt.Errorf("artifact %s has no source", a.ID)
	}
	return json.Marshal(out)
}

func (a *Artifact) UnmarshalJSON(data []byte) error {
	var raw artifactJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	cat, err := ParseCategory(raw.Category)
	if err != nil {
		return err
	}
	var src Source
	switch strings.ToLower(strings.TrimSpace(raw.InputType)) {
	case "file", "":
		src = FileSource{Path: raw.FilePath, URL: raw.URL, Text: raw.TextContent}
	case "url":
		if strings.TrimSpace(raw.URL) == "" {
			return fmt.Errorf("artifact %s: url input with empty url", raw.ID)
		}
		src = URLSource{URL: raw.URL}
	case "text":
		src = TextSource{Text: raw.TextContent}
	default:
		return fmt.Errorf("artifact %s: unknown input type %q", raw.ID, raw.InputType)
	}
	*a = Artifact{
		ID:          raw.ID,
		Name:        raw.Name,
		Type:        raw.Type,
		DateAdded:   raw.DateAdded,
		Description: raw.Description,
		Category:    cat,
		Source:      src,
	}
	return nil
}

// Candidate is a person being evaluated for a role.
// Artifacts is a denormalized count maintained by the server; it is not
// recomputed from uploads on this side and may lag the true count.
type Candidate struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role,omitempty"`
	Company   string `json:"company,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	PhotoURL  string `json:"photoUrl,omitempty"`
	Artifacts int    `json:"artifacts"`
}

// Interviewer mirrors Candidate with a position instead of a target role.
type Interviewer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Position  string `json:"position,omitempty"`
	Company   string `json:"company,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	PhotoURL  string `json:"photoUrl,omitempty"`
	Artifacts int    `json:"artifacts"`
}

// Output is a generated document persisted against a project. Immutable once
// created, except for deletion.
type Output struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	DateCreated string `json:"dateCreated,omitempty"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
}

// Project is the aggregate root. ArtifactCount tracks len(Artifacts) and is
// recomputed on every artifact mutation.
type Project struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Client        string        `json:"client,omitempty"`
	Date          string        `json:"date,omitempty"`
	Description   string        `json:"description,omitempty"`
	ArtifactCount int           `json:"artifactCount"`
	Artifacts     []Artifact    `json:"artifacts"`
	Candidates    []Candidate   `json:"candidates"`
	Interviewers  []Interviewer `json:"interviewers"`
	Outputs       []Output      `json:"outputs"`
}

// EmptyProject is the fallback shown when a load fails: a shell with the
// requested ID and no entities, never a half-composed snapshot.
func EmptyProject(id string) Project {
	return Project{
		ID:           id,
		Title:        "Untitled Project",
		Artifacts:    []Artifact{},
		Candidates:   []Candidate{},
		Interviewers: []Interviewer{},
		Outputs:      []Output{},
	}
}

const displayDateFormat = "Jan 2, 2006"

// DisplayDate normalizes a stored timestamp to the format the entity lists
// render. Unparseable input passes through untouched.
func DisplayDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", time.RFC1123} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.Format(displayDateFormat)
		}
	}
	return raw
}
