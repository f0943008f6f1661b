package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mslanden/searchwizard/internal/project"
	"github.com/mslanden/searchwizard/internal/session"
)

type fakeDirectory struct {
	latest string
	err    error
}

func (f *fakeDirectory) LatestProjectID(context.Context, *session.Session) (string, error) {
	return f.latest, f.err
}

type fakeArtifacts struct {
	company []project.Artifact
	role    []project.Artifact
	err     error
}

func (f *fakeArtifacts) ListArtifacts(_ context.Context, _ *session.Session, _ string, cat project.Category) ([]project.Artifact, error) {
	if f.err != nil {
		return nil, f.err
	}
	if cat == project.CategoryCompany {
		return f.company, nil
	}
	return f.role, nil
}

type fakeResolver struct {
	content map[string]string
	failOn  string
}

func (f *fakeResolver) Download(_ context.Context, path string) (string, error) {
	if path == f.failOn {
		return "", fmt.Errorf("download %s: connection reset", path)
	}
	text, ok := f.content[path]
	if !ok {
		return "", fmt.Errorf("download %s: not found", path)
	}
	return text, nil
}

type fakeGenerator struct {
	resp  Response
	err   error
	calls int
	last  Request
}

func (f *fakeGenerator) Generate(_ context.Context, req Request) (Response, error) {
	f.calls++
	f.last = req
	return f.resp, f.err
}

type fakeSink struct {
	out    project.Output
	err    error
	calls  int
	bodies [][]byte
}

func (f *fakeSink) AddProjectOutput(_ context.Context, _ *session.Session, _ string, _ OutputMeta, body []byte) (project.Output, error) {
	f.calls++
	f.bodies = append(f.bodies, append([]byte(nil), body...))
	return f.out, f.err
}

func sess() *session.Session { return &session.Session{UserID: "u1"} }

func newTestPipeline(dir ProjectDirectory, arts ArtifactSource, res ContentResolver, gen Generator, sink OutputSink) *Pipeline {
	p := New(dir, arts, res, gen, sink)
	return p
}

func TestRunHappyPath(t *testing.T) {
	gen := &fakeGenerator{resp: Response{HTMLContent: "<html>doc</html>"}}
	sink := &fakeSink{out: project.Output{ID: "o1", Name: "Role Description"}}
	arts := &fakeArtifacts{
		company: []project.Artifact{
			{ID: "a1", Category: project.CategoryCompany, Source: project.FileSource{Path: "p1/artifacts/about"}},
		},
		role: []project.Artifact{
			{ID: "a2", Category: project.CategoryRole, Source: project.TextSource{Text: "inline jd"}},
		},
	}
	res := &fakeResolver{content: map[string]string{"p1/artifacts/about": "acme history"}}
	p := newTestPipeline(&fakeDirectory{}, arts, res, gen, sink)

	out, err := p.Run(context.Background(), sess(), Params{ProjectID: "p1", TemplateID: "role-description"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.ID != "o1" {
		t.Fatalf("output = %+v", out)
	}
	if gen.last.UserID != "u1" || gen.last.ProjectID != "p1" {
		t.Fatalf("generation request scoping: %+v", gen.last)
	}
	if len(gen.last.Artifacts) != 2 {
		t.Fatalf("artifacts sent = %d, want 2", len(gen.last.Artifacts))
	}
	if gen.last.Artifacts[0].Text() != "acme history" {
		t.Fatalf("file artifact not hydrated: %q", gen.last.Artifacts[0].Text())
	}
}

func TestRunFallsBackToLatestProject(t *testing.T) {
	gen := &fakeGenerator{resp: Response{HTMLContent: "<html/>"}}
	sink := &fakeSink{out: project.Output{ID: "o1"}}
	p := newTestPipeline(&fakeDirectory{latest: "p9"}, &fakeArtifacts{}, &fakeResolver{}, gen, sink)

	if _, err := p.Run(context.Background(), sess(), Params{TemplateID: "t"}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if gen.last.ProjectID != "p9" {
		t.Fatalf("projectID = %q, want p9", gen.last.ProjectID)
	}
}

func TestRunNoProjectAnywhere(t *testing.T) {
	p := newTestPipeline(&fakeDirectory{}, &fakeArtifacts{}, &fakeResolver{}, &fakeGenerator{}, &fakeSink{})

	_, err := p.Run(context.Background(), sess(), Params{TemplateID: "t"})
	if !errors.Is(err, ErrNoProject) {
		t.Fatalf("err = %v, want ErrNoProject", err)
	}
	if StageOf(err) != StageResolveProject {
		t.Fatalf("stage = %q, want %q", StageOf(err), StageResolveProject)
	}
}

func TestHydrationFailureDegradesArtifact(t *testing.T) {
	gen := &fakeGenerator{resp: Response{HTMLContent: "<html/>"}}
	arts := &fakeArtifacts{
		company: []project.Artifact{
			{ID: "a1", Category: project.CategoryCompany, Source: project.FileSource{Path: "p1/artifacts/ok"}},
			{ID: "a2", Category: project.CategoryCompany, Source: project.FileSource{Path: "p1/artifacts/bad"}},
		},
	}
	res := &fakeResolver{
		content: map[string]string{"p1/artifacts/ok": "fine"},
		failOn:  "p1/artifacts/bad",
	}
	p := newTestPipeline(&fakeDirectory{}, arts, res, gen, &fakeSink{out: project.Output{ID: "o1"}})

	if _, err := p.Run(context.Background(), sess(), Params{ProjectID: "p1", TemplateID: "t"}); err != nil {
		t.Fatalf("Run() error = %v, want degradation not failure", err)
	}
	if got := gen.last.Artifacts[0].Text(); got != "fine" {
		t.Fatalf("hydrated artifact text = %q", got)
	}
	if got := gen.last.Artifacts[1].Text(); got != "" {
		t.Fatalf("failed artifact should pass through empty, got %q", got)
	}
}

func TestGenerationFailureCreatesNothing(t *testing.T) {
	sink := &fakeSink{}
	gen := &fakeGenerator{err: fmt.Errorf("model unavailable")}
	p := newTestPipeline(&fakeDirectory{}, &fakeArtifacts{}, &fakeResolver{}, gen, sink)

	_, err := p.Run(context.Background(), sess(), Params{ProjectID: "p1", TemplateID: "t"})
	if err == nil {
		t.Fatalf("Run() succeeded despite generator failure")
	}
	if StageOf(err) != StageGenerate {
		t.Fatalf("stage = %q, want %q", StageOf(err), StageGenerate)
	}
	if sink.calls != 0 {
		t.Fatalf("sink called %d times after generation failure", sink.calls)
	}
}

func TestPersistFailureIsDistinguishableFromGenerationFailure(t *testing.T) {
	gen := &fakeGenerator{resp: Response{HTMLContent: "<html>kept</html>"}}
	sink := &fakeSink{err: fmt.Errorf("bucket unavailable")}
	p := newTestPipeline(&fakeDirectory{}, &fakeArtifacts{}, &fakeResolver{}, gen, sink)

	_, err := p.Run(context.Background(), sess(), Params{ProjectID: "p1", TemplateID: "t"})
	if err == nil {
		t.Fatalf("Run() succeeded despite sink failure")
	}
	if StageOf(err) != StagePersist {
		t.Fatalf("stage = %q, want %q", StageOf(err), StagePersist)
	}
	if StageOf(err) == StageGenerate {
		t.Fatalf("persist failure indistinguishable from generation failure")
	}
}

func TestPersistRetryReusesGeneratedBody(t *testing.T) {
	gen := &fakeGenerator{resp: Response{HTMLContent: "<html>once</html>"}}
	sink := &fakeSink{err: fmt.Errorf("bucket unavailable")}
	p := newTestPipeline(&fakeDirectory{}, &fakeArtifacts{}, &fakeResolver{}, gen, sink)

	_, err := p.Run(context.Background(), sess(), Params{ProjectID: "p1", TemplateID: "t"})
	var pf *PersistFailure
	if !errors.As(err, &pf) {
		t.Fatalf("err = %T, want *PersistFailure", err)
	}
	if string(pf.Body()) != "<html>once</html>" {
		t.Fatalf("cached body = %q", pf.Body())
	}

	sink.err = nil
	sink.out = project.Output{ID: "o1"}
	out, err := pf.RetryPersist(context.Background())
	if err != nil {
		t.Fatalf("RetryPersist() error = %v", err)
	}
	if out.ID != "o1" {
		t.Fatalf("output = %+v", out)
	}
	if gen.calls != 1 {
		t.Fatalf("generator called %d times, want 1 (retry must not regenerate)", gen.calls)
	}
	if string(sink.bodies[1]) != "<html>once</html>" {
		t.Fatalf("retry body = %q", sink.bodies[1])
	}
}
