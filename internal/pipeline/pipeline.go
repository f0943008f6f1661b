// Package pipeline turns a project's artifacts into a persisted generated
// document. A run is a linear chain of four fallible stages; the first
// failure terminates the run with its stage tagged on the error. The
// pipeline never touches the project store: it returns the new Output and
// the caller decides what to dispatch.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mslanden/searchwizard/internal/project"
	"github.com/mslanden/searchwizard/internal/session"
)

// ProjectDirectory resolves the fallback target when no project is bound:
// the user's most recently created project.
type ProjectDirectory interface {
	LatestProjectID(ctx context.Context, sess *session.Session) (string, error)
}

// ArtifactSource lists a project's artifacts for one category. The loader's
// DataSource satisfies this.
type ArtifactSource interface {
	ListArtifacts(ctx context.Context, sess *session.Session, projectID string, cat project.Category) ([]project.Artifact, error)
}

// ContentResolver downloads an artifact's raw text from blob storage.
type ContentResolver interface {
	Download(ctx context.Context, path string) (string, error)
}

// Request is what the generation endpoint receives.
type Request struct {
	TemplateID       string             `json:"templateId"`
	ProjectID        string             `json:"projectId"`
	UserID           string             `json:"userId"`
	UserRequirements string             `json:"userRequirements,omitempty"`
	Artifacts        []project.Artifact `json:"artifacts"`
}

// Response is the generation endpoint's success body.
type Response struct {
	HTMLContent string `json:"htmlContent"`
}

// Generator is the remote generation capability.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// OutputMeta names the persisted document.
type OutputMeta struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// OutputSink registers a generated document as a project output.
type OutputSink interface {
	AddProjectOutput(ctx context.Context, sess *session.Session, projectID string, meta OutputMeta, body []byte) (project.Output, error)
}

// Pipeline wires the four stages to their collaborators.
type Pipeline struct {
	directory ProjectDirectory
	artifacts ArtifactSource
	resolver  ContentResolver
	generator Generator
	sink      OutputSink

	now func() time.Time
}

func New(directory ProjectDirectory, artifacts ArtifactSource, resolver ContentResolver, generator Generator, sink OutputSink) *Pipeline {
	return &Pipeline{
		directory: directory,
		artifacts: artifacts,
		resolver:  resolver,
		generator: generator,
		sink:      sink,
		now:       time.Now,
	}
}

// Params describes one generation run.
type Params struct {
	// ProjectID may be empty; stage 1 then falls back to the user's most
	// recent project.
	ProjectID        string
	TemplateID       string
	TemplateName     string
	UserRequirements string
}

// Run executes the chain. On a persistence failure the returned error is a
// *PersistFailure carrying the generated body, so the caller can retry the
// save without paying for generation again.
func (p *Pipeline) Run(ctx context.Context, sess *session.Session, params Params) (project.Output, error) {
	projectID, err := p.resolveProject(ctx, sess, params.ProjectID)
	if err != nil {
		return project.Output{}, stageErr(StageResolveProject, err)
	}

	artifacts, err := p.hydrateArtifacts(ctx, sess, projectID)
	if err != nil {
		return project.Output{}, stageErr(StageHydrate, err)
	}

	resp, err := p.generator.Generate(ctx, Request{
		TemplateID:       params.TemplateID,
		ProjectID:        projectID,
		UserID:           sess.UserID,
		UserRequirements: params.UserRequirements,
		Artifacts:        artifacts,
	})
	if err != nil {
		return project.Output{}, stageErr(StageGenerate, err)
	}
	if strings.TrimSpace(resp.HTMLContent) == "" {
		return project.Output{}, stageErr(StageGenerate, fmt.Errorf("empty document from generator"))
	}

	meta := p.outputMeta(params)
	out, err := p.sink.AddProjectOutput(ctx, sess, projectID, meta, []byte(resp.HTMLContent))
	if err != nil {
		return project.Output{}, &PersistFailure{
			stage:     stageErr(StagePersist, err).(*StageError),
			pipeline:  p,
			sess:      sess,
			projectID: projectID,
			meta:      meta,
			body:      []byte(resp.HTMLContent),
		}
	}
	return out, nil
}

// resolveProject binds the run to a project, falling back to the user's
// most recently created one.
func (p *Pipeline) resolveProject(ctx context.Context, sess *session.Session, projectID string) (string, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID != "" {
		return projectID, nil
	}
	latest, err := p.directory.LatestProjectID(ctx, sess)
	if err != nil {
		return "", fmt.Errorf("look up latest project: %w", err)
	}
	if strings.TrimSpace(latest) == "" {
		return "", ErrNoProject
	}
	return latest, nil
}

// hydrateArtifacts fetches both category lists and attaches stored text to
// file-backed artifacts. A single artifact's download failure degrades that
// artifact, it does not fail the stage.
func (p *Pipeline) hydrateArtifacts(ctx context.Context, sess *session.Session, projectID string) ([]project.Artifact, error) {
	company, err := p.artifacts.ListArtifacts(ctx, sess, projectID, project.CategoryCompany)
	if err != nil {
		return nil, fmt.Errorf("list company artifacts: %w", err)
	}
	role, err := p.artifacts.ListArtifacts(ctx, sess, projectID, project.CategoryRole)
	if err != nil {
		return nil, fmt.Errorf("list role artifacts: %w", err)
	}

	all := append(company, role...)
	for i, a := range all {
		src, ok := a.Source.(project.FileSource)
		if !ok || strings.TrimSpace(src.Path) == "" || src.Text != "" {
			continue
		}
		text, err := p.resolver.Download(ctx, src.Path)
		if err != nil {
			log.Printf("generation: hydrate %s (%s): %v", a.ID, src.Path, err)
			continue
		}
		src.Text = text
		all[i].Source = src
	}
	return all, nil
}

func (p *Pipeline) outputMeta(params Params) OutputMeta {
	name := strings.TrimSpace(params.TemplateName)
	if name == "" {
		name = params.TemplateID
	}
	return OutputMeta{
		Name: fmt.Sprintf("%s - %s", name, p.now().Format("Jan 2, 2006")),
		Type: "html",
	}
}

// PersistFailure is the stage-4 error: generation succeeded but the save
// did not. It retains the generated body so the save can be retried.
type PersistFailure struct {
	stage     *StageError
	pipeline  *Pipeline
	sess      *session.Session
	projectID string
	meta      OutputMeta
	body      []byte
}

func (e *PersistFailure) Error() string { return e.stage.Error() }
func (e *PersistFailure) Unwrap() error { return e.stage }

// Body exposes the generated document that could not be saved.
func (e *PersistFailure) Body() []byte { return e.body }

// RetryPersist re-attempts only the save, reusing the cached body.
func (e *PersistFailure) RetryPersist(ctx context.Context) (project.Output, error) {
	out, err := e.pipeline.sink.AddProjectOutput(ctx, e.sess, e.projectID, e.meta, e.body)
	if err != nil {
		return project.Output{}, &PersistFailure{
			stage:     stageErr(StagePersist, err).(*StageError),
			pipeline:  e.pipeline,
			sess:      e.sess,
			projectID: e.projectID,
			meta:      e.meta,
			body:      e.body,
		}
	}
	return out, nil
}
