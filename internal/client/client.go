// Package client binds the core's collaborator interfaces to the gateway's
// HTTP routes. One Client satisfies the session provider, the loader's data
// source, and every pipeline collaborator.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mslanden/searchwizard/internal/pipeline"
	"github.com/mslanden/searchwizard/internal/project"
	"github.com/mslanden/searchwizard/internal/session"
)

// APIError is a non-2xx gateway response. The body text travels with the
// error: access-denied detection and the generation contract both key off
// status plus body.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway http %d: %s", e.Status, strings.TrimSpace(e.Body))
}

type Client struct {
	baseURL string
	http    *http.Client
	userID  string
	email   string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithUser sets the identity forwarded on every request. In production the
// fronting proxy injects these; direct clients set them explicitly.
func WithUser(userID, email string) Option {
	return func(c *Client) { c.userID = userID; c.email = email }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userID != "" {
		req.Header.Set("X-User-ID", c.userID)
	}
	if c.email != "" {
		req.Header.Set("X-User-Email", c.email)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: string(raw)}
	}
	if out != nil {
		return json.Unmarshal(raw, out)
	}
	return nil
}

// Session implements session.Provider.
func (c *Client) Session(ctx context.Context) (*session.Session, error) {
	var sess session.Session
	if err := c.do(ctx, http.MethodGet, "/v1/session", nil, &sess); err != nil {
		var apiErr *APIError
		if asAPIError(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return nil, nil
		}
		return nil, err
	}
	return &sess, nil
}

func (c *Client) ProjectHeader(ctx context.Context, _ *session.Session, projectID string) (project.Header, error) {
	var header project.Header
	err := c.do(ctx, http.MethodGet, "/v1/projects/"+url.PathEscape(projectID), nil, &header)
	var apiErr *APIError
	if asAPIError(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return project.Header{}, project.ErrProjectNotFound
	}
	return header, err
}

func (c *Client) ListArtifacts(ctx context.Context, _ *session.Session, projectID string, cat project.Category) ([]project.Artifact, error) {
	var out []project.Artifact
	path := "/v1/projects/" + url.PathEscape(projectID) + "/artifacts?category=" + url.QueryEscape(string(cat))
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) ListCandidates(ctx context.Context, _ *session.Session, projectID string) ([]project.Candidate, error) {
	var out []project.Candidate
	err := c.do(ctx, http.MethodGet, "/v1/projects/"+url.PathEscape(projectID)+"/candidates", nil, &out)
	return out, err
}

func (c *Client) ListInterviewers(ctx context.Context, _ *session.Session, projectID string) ([]project.Interviewer, error) {
	var out []project.Interviewer
	err := c.do(ctx, http.MethodGet, "/v1/projects/"+url.PathEscape(projectID)+"/interviewers", nil, &out)
	return out, err
}

func (c *Client) ListOutputs(ctx context.Context, _ *session.Session, projectID string) ([]project.Output, error) {
	var out []project.Output
	err := c.do(ctx, http.MethodGet, "/v1/projects/"+url.PathEscape(projectID)+"/outputs", nil, &out)
	return out, err
}

// LatestProjectID implements pipeline.ProjectDirectory. No projects is not
// an error here; the pipeline maps the empty ID itself.
func (c *Client) LatestProjectID(ctx context.Context, _ *session.Session) (string, error) {
	var header project.Header
	err := c.do(ctx, http.MethodGet, "/v1/projects/latest", nil, &header)
	var apiErr *APIError
	if asAPIError(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return header.ID, nil
}

// Download implements pipeline.ContentResolver. The path is fully
// qualified ("<projectID>/artifacts/...") as stored on the artifact.
func (c *Client) Download(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/content?path="+url.QueryEscape(path), nil)
	if err != nil {
		return "", err
	}
	if c.userID != "" {
		req.Header.Set("X-User-ID", c.userID)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Status: resp.StatusCode, Body: string(raw)}
	}
	return string(raw), nil
}

// Generate implements pipeline.Generator against the gateway's generation
// endpoint.
func (c *Client) Generate(ctx context.Context, req pipeline.Request) (pipeline.Response, error) {
	var resp pipeline.Response
	err := c.do(ctx, http.MethodPost, "/v1/generate", req, &resp)
	return resp, err
}

// AddProjectOutput implements pipeline.OutputSink.
func (c *Client) AddProjectOutput(ctx context.Context, _ *session.Session, projectID string, meta pipeline.OutputMeta, body []byte) (project.Output, error) {
	in := struct {
		Name        string `json:"name"`
		Type        string `json:"type"`
		Description string `json:"description,omitempty"`
		Content     string `json:"content"`
	}{
		Name:        meta.Name,
		Type:        meta.Type,
		Description: meta.Description,
		Content:     string(body),
	}
	var out project.Output
	err := c.do(ctx, http.MethodPost, "/v1/projects/"+url.PathEscape(projectID)+"/outputs", in, &out)
	return out, err
}

func asAPIError(err error, target **APIError) bool {
	if err == nil {
		return false
	}
	if apiErr, ok := err.(*APIError); ok {
		*target = apiErr
		return true
	}
	return false
}

var (
	_ session.Provider          = (*Client)(nil)
	_ project.DataSource        = (*Client)(nil)
	_ pipeline.ProjectDirectory = (*Client)(nil)
	_ pipeline.ArtifactSource   = (*Client)(nil)
	_ pipeline.ContentResolver  = (*Client)(nil)
	_ pipeline.Generator        = (*Client)(nil)
	_ pipeline.OutputSink       = (*Client)(nil)
)
