package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mslanden/searchwizard/internal/client"
	"github.com/mslanden/searchwizard/internal/gateway/events"
	"github.com/mslanden/searchwizard/internal/gateway/handler"
	"github.com/mslanden/searchwizard/internal/gateway/repository/blob"
	"github.com/mslanden/searchwizard/internal/gateway/repository/entity"
	"github.com/mslanden/searchwizard/internal/gateway/server"
	"github.com/mslanden/searchwizard/internal/gendoc"
	"github.com/mslanden/searchwizard/internal/pipeline"
	"github.com/mslanden/searchwizard/internal/project"
	"github.com/mslanden/searchwizard/internal/session"
)

type staticModel struct {
	doc string
	err error
}

func (m *staticModel) GenerateDocument(context.Context, string) (string, error) {
	return m.doc, m.err
}
func (m *staticModel) Close() error { return nil }

func newTestGateway(t *testing.T) (*httptest.Server, *client.Client) {
	return newTestGatewayWithModel(t, &staticModel{doc: "<html>generated</html>"})
}

func newTestGatewayWithModel(t *testing.T, model gendoc.ModelClient) (*httptest.Server, *client.Client) {
	t.Helper()
	store := entity.NewMemoryStore()
	blobs := blob.NewMemoryStore()
	gen := gendoc.New(model, gendoc.NewRegistry())
	h := handler.New(store, store, blobs, gen, events.NewHub())

	srv := httptest.NewServer(server.NewMux(h))
	t.Cleanup(srv.Close)
	return srv, client.New(srv.URL, client.WithUser("u1", "u1@example.com"))
}

func TestSessionEndpoint(t *testing.T) {
	srv, c := newTestGateway(t)

	sess, err := c.Session(context.Background())
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if sess.UserID != "u1" {
		t.Fatalf("session = %+v", sess)
	}

	anon := client.New(srv.URL)
	sess, err = anon.Session(context.Background())
	if err != nil || sess != nil {
		t.Fatalf("anonymous session = %+v, err = %v", sess, err)
	}
}

func TestProjectEntityRoundTrip(t *testing.T) {
	_, c := newTestGateway(t)
	ctx := context.Background()

	header, err := c.CreateProject(ctx, client.CreateProjectInput{Title: "Acme Search"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	if _, err := c.CreateArtifact(ctx, header.ID, client.CreateArtifactInput{
		Name:      "About",
		Category:  "company",
		InputType: "file",
		Content:   "acme history",
	}); err != nil {
		t.Fatalf("CreateArtifact(file): %v", err)
	}
	if _, err := c.CreateArtifact(ctx, header.ID, client.CreateArtifactInput{
		Name:      "JD",
		Category:  "role",
		InputType: "url",
		URL:       "https://example.com/jd",
	}); err != nil {
		t.Fatalf("CreateArtifact(url): %v", err)
	}
	cand, err := c.CreateCandidate(ctx, header.ID, project.Candidate{Name: "Ada"})
	if err != nil {
		t.Fatalf("CreateCandidate: %v", err)
	}

	loader := project.NewLoader(c, c)
	p, err := loader.Load(ctx, header.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.ArtifactCount != 2 || len(p.Artifacts) != 2 {
		t.Fatalf("artifacts = %d (count %d), want 2", len(p.Artifacts), p.ArtifactCount)
	}
	if len(p.Candidates) != 1 || p.Candidates[0].Name != "Ada" {
		t.Fatalf("candidates = %+v", p.Candidates)
	}

	// File artifact content must be resolvable via the stored path.
	var filePath string
	for _, a := range p.Artifacts {
		if src, ok := a.Source.(project.FileSource); ok {
			filePath = src.Path
		}
	}
	if filePath == "" {
		t.Fatalf("no file-backed artifact in %+v", p.Artifacts)
	}
	text, err := c.Download(ctx, filePath)
	if err != nil {
		t.Fatalf("Download(%s): %v", filePath, err)
	}
	if text != "acme history" {
		t.Fatalf("content = %q", text)
	}

	deleted, err := c.DeleteEntity(ctx, cand.ID)
	if err != nil || !deleted {
		t.Fatalf("DeleteEntity = %v, %v", deleted, err)
	}
	deleted, err = c.DeleteEntity(ctx, cand.ID)
	if err != nil || deleted {
		t.Fatalf("second DeleteEntity = %v, %v", deleted, err)
	}
}

func TestLoadMissingProjectIsNotFound(t *testing.T) {
	_, c := newTestGateway(t)
	loader := project.NewLoader(c, c)

	_, err := loader.Load(context.Background(), "ghost")
	if !errors.Is(err, project.ErrProjectNotFound) {
		t.Fatalf("err = %v, want ErrProjectNotFound", err)
	}
}

func TestGenerationEndToEnd(t *testing.T) {
	_, c := newTestGateway(t)
	ctx := context.Background()

	header, err := c.CreateProject(ctx, client.CreateProjectInput{Title: "Acme Search"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if _, err := c.CreateArtifact(ctx, header.ID, client.CreateArtifactInput{
		Name:      "About",
		Category:  "company",
		InputType: "file",
		Content:   "acme history",
	}); err != nil {
		t.Fatalf("CreateArtifact: %v", err)
	}

	pipe := pipeline.New(c, c, c, c, c)
	out, err := pipe.Run(ctx, &session.Session{UserID: "u1"}, pipeline.Params{
		ProjectID:    header.ID,
		TemplateID:   "role-description",
		TemplateName: "Role Description",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.HasPrefix(out.Name, "Role Description - ") {
		t.Fatalf("output name = %q", out.Name)
	}

	outputs, err := c.ListOutputs(ctx, nil, header.ID)
	if err != nil {
		t.Fatalf("ListOutputs: %v", err)
	}
	if len(outputs) != 1 || outputs[0].ID != out.ID {
		t.Fatalf("outputs = %+v", outputs)
	}
}

func TestGenerationFallsBackToLatestProject(t *testing.T) {
	_, c := newTestGateway(t)
	ctx := context.Background()

	if _, err := c.CreateProject(ctx, client.CreateProjectInput{Title: "Older"}); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	pipe := pipeline.New(c, c, c, c, c)
	if _, err := pipe.Run(ctx, &session.Session{UserID: "u1"}, pipeline.Params{TemplateID: "candidate-brief"}); err != nil {
		t.Fatalf("Run with unbound project: %v", err)
	}
}

func TestListProjectBlobs(t *testing.T) {
	_, c := newTestGateway(t)
	ctx := context.Background()

	header, err := c.CreateProject(ctx, client.CreateProjectInput{Title: "Acme Search"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if _, err := c.CreateArtifact(ctx, header.ID, client.CreateArtifactInput{
		Name:      "About",
		Category:  "company",
		InputType: "file",
		Content:   "acme history",
	}); err != nil {
		t.Fatalf("CreateArtifact: %v", err)
	}
	if _, err := c.AddProjectOutput(ctx, nil, header.ID, pipeline.OutputMeta{Name: "Doc", Type: "html"}, []byte("<html/>")); err != nil {
		t.Fatalf("AddProjectOutput: %v", err)
	}

	paths, err := c.ListBlobs(ctx, header.ID)
	if err != nil {
		t.Fatalf("ListBlobs: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v, want artifact file and output document", paths)
	}
	hasArtifact, hasOutput := false, false
	for _, p := range paths {
		if p == "artifacts/About" {
			hasArtifact = true
		}
		if strings.HasPrefix(p, "outputs/") && strings.HasSuffix(p, ".html") {
			hasOutput = true
		}
	}
	if !hasArtifact || !hasOutput {
		t.Fatalf("paths = %v", paths)
	}

	if _, err := c.ListBlobs(ctx, "ghost"); err == nil {
		t.Fatalf("listing blobs of a missing project succeeded")
	}
}

func TestGenerateEndpointRejectsUnknownTemplate(t *testing.T) {
	_, c := newTestGateway(t)
	ctx := context.Background()

	header, err := c.CreateProject(ctx, client.CreateProjectInput{Title: "Acme Search"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	_, err = c.Generate(ctx, pipeline.Request{TemplateID: "no-such-template", ProjectID: header.ID, UserID: "u1"})
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *client.APIError", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (permanent request error, not a model outage)", apiErr.Status)
	}
}

func TestGenerateEndpointMapsModelFailure(t *testing.T) {
	_, c := newTestGatewayWithModel(t, &staticModel{err: errors.New("model unavailable")})
	ctx := context.Background()

	header, err := c.CreateProject(ctx, client.CreateProjectInput{Title: "Acme Search"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	_, err = c.Generate(ctx, pipeline.Request{TemplateID: "role-description", ProjectID: header.ID, UserID: "u1"})
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *client.APIError", err)
	}
	if apiErr.Status != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", apiErr.Status)
	}
	if !strings.Contains(apiErr.Body, "model unavailable") {
		t.Fatalf("body = %q", apiErr.Body)
	}
}

func TestGenerationWithNoProjectsFails(t *testing.T) {
	_, c := newTestGateway(t)

	pipe := pipeline.New(c, c, c, c, c)
	_, err := pipe.Run(context.Background(), &session.Session{UserID: "u1"}, pipeline.Params{TemplateID: "candidate-brief"})
	if !errors.Is(err, pipeline.ErrNoProject) {
		t.Fatalf("err = %v, want ErrNoProject", err)
	}
}

func TestWatchStreamsEntityEvents(t *testing.T) {
	srv, c := newTestGateway(t)
	ctx := context.Background()

	header, err := c.CreateProject(ctx, client.CreateProjectInput{Title: "Watched"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/projects/" + header.ID + "/watch"
	dialer := websocket.Dialer{}
	conn, _, err := dialer.Dial(wsURL, map[string][]string{"X-User-ID": {"u1"}})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Give the handler a moment to register its hub subscription.
	time.Sleep(200 * time.Millisecond)

	if _, err := c.CreateCandidate(ctx, header.ID, project.Candidate{Name: "Ada"}); err != nil {
		t.Fatalf("CreateCandidate: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev events.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Type != events.TypeEntityCreated || ev.Kind != "candidate" {
		t.Fatalf("event = %+v", ev)
	}
}
