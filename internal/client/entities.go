package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mslanden/searchwizard/internal/project"
)

// The create/delete calls are what the UI layer invokes before dispatching
// the matching store action; the store itself never performs I/O.

type CreateProjectInput struct {
	Title       string `json:"title"`
	Client      string `json:"client,omitempty"`
	Date        string `json:"date,omitempty"`
	Description string `json:"description,omitempty"`
}

func (c *Client) CreateProject(ctx context.Context, in CreateProjectInput) (project.Header, error) {
	var out project.Header
	err := c.do(ctx, http.MethodPost, "/v1/projects", in, &out)
	return out, err
}

// CreateArtifactInput mirrors the artifact wire shape; Content rides along
// only for file-backed artifacts and never comes back.
type CreateArtifactInput struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	InputType   string `json:"inputType"`
	URL         string `json:"url,omitempty"`
	TextContent string `json:"textContent,omitempty"`
	Content     string `json:"content,omitempty"`
}

func (c *Client) CreateArtifact(ctx context.Context, projectID string, in CreateArtifactInput) (project.Artifact, error) {
	var out project.Artifact
	err := c.do(ctx, http.MethodPost, "/v1/projects/"+url.PathEscape(projectID)+"/artifacts", in, &out)
	return out, err
}

func (c *Client) CreateCandidate(ctx context.Context, projectID string, in project.Candidate) (project.Candidate, error) {
	var out project.Candidate
	err := c.do(ctx, http.MethodPost, "/v1/projects/"+url.PathEscape(projectID)+"/candidates", in, &out)
	return out, err
}

func (c *Client) CreateInterviewer(ctx context.Context, projectID string, in project.Interviewer) (project.Interviewer, error) {
	var out project.Interviewer
	err := c.do(ctx, http.MethodPost, "/v1/projects/"+url.PathEscape(projectID)+"/interviewers", in, &out)
	return out, err
}

// ListBlobs returns the stored content paths under one project: artifact
// files plus persisted output documents.
func (c *Client) ListBlobs(ctx context.Context, projectID string) ([]string, error) {
	var out []string
	err := c.do(ctx, http.MethodGet, "/v1/projects/"+url.PathEscape(projectID)+"/blobs", nil, &out)
	return out, err
}

// DeleteEntity removes any collection entity by ID. A missing ID reports
// deleted=false, not an error.
func (c *Client) DeleteEntity(ctx context.Context, id string) (bool, error) {
	var out struct {
		Deleted bool `json:"deleted"`
	}
	err := c.do(ctx, http.MethodDelete, "/v1/entities/"+url.PathEscape(id), nil, &out)
	return out.Deleted, err
}
