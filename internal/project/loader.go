package project

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mslanden/searchwizard/internal/session"
)

// ErrProjectNotFound means the header row does not exist; callers navigate
// away instead of rendering an error banner.
var ErrProjectNotFound = errors.New("project not found")

// ErrAccessDenied means at least one fetch was refused by policy. Callers
// prompt for re-authentication rather than showing a generic failure.
var ErrAccessDenied = errors.New("project access denied")

// Header is the project row without its entity collections.
type Header struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Client      string `json:"client,omitempty"`
	Date        string `json:"date,omitempty"`
	Description string `json:"description,omitempty"`
}

// DataSource is the remote collection surface the loader composes from.
// Implementations must not retry internally; the loader treats any error
// as final for the whole load.
type DataSource interface {
	ProjectHeader(ctx context.Context, sess *session.Session, projectID string) (Header, error)
	ListArtifacts(ctx context.Context, sess *session.Session, projectID string, cat Category) ([]Artifact, error)
	ListCandidates(ctx context.Context, sess *session.Session, projectID string) ([]Candidate, error)
	ListInterviewers(ctx context.Context, sess *session.Session, projectID string) ([]Interviewer, error)
	ListOutputs(ctx context.Context, sess *session.Session, projectID string) ([]Output, error)
}

const (
	sessionAttempts = 3
	sessionDelay    = 500 * time.Millisecond
)

// Loader aggregates one consistent Project snapshot from the header fetch
// plus the five entity collection fetches, all issued concurrently. It
// returns data or an error; it never dispatches to the store itself.
type Loader struct {
	sessions session.Provider
	data     DataSource

	// overridable in tests
	attempts int
	delay    time.Duration
}

func NewLoader(sessions session.Provider, data DataSource) *Loader {
	return &Loader{
		sessions: sessions,
		data:     data,
		attempts: sessionAttempts,
		delay:    sessionDelay,
	}
}

// Load produces a fully composed Project or fails as a whole. No partial
// snapshot ever escapes: every fetch must succeed before composition runs.
func (l *Loader) Load(ctx context.Context, projectID string) (Project, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return Project{}, fmt.Errorf("project id is required")
	}

	sess, err := session.Acquire(ctx, l.sessions, l.attempts, l.delay)
	if err != nil {
		return Project{}, fmt.Errorf("%w: %v", ErrAccessDenied, err)
	}

	var (
		wg           sync.WaitGroup
		header       Header
		headerErr    error
		companyArts  []Artifact
		companyErr   error
		roleArts     []Artifact
		roleErr      error
		candidates   []Candidate
		candErr      error
		interviewers []Interviewer
		intErr       error
		outputs      []Output
		outErr       error
	)

	wg.Add(6)
	go func() {
		defer wg.Done()
		header, headerErr = l.data.ProjectHeader(ctx, sess, projectID)
	}()
	go func() {
		defer wg.Done()
		companyArts, companyErr = l.data.ListArtifacts(ctx, sess, projectID, CategoryCompany)
	}()
	go func() {
		defer wg.Done()
		roleArts, roleErr = l.data.ListArtifacts(ctx, sess, projectID, CategoryRole)
	}()
	go func() {
		defer wg.Done()
		candidates, candErr = l.data.ListCandidates(ctx, sess, projectID)
	}()
	go func() {
		defer wg.Done()
		interviewers, intErr = l.data.ListInterviewers(ctx, sess, projectID)
	}()
	go func() {
		defer wg.Done()
		outputs, outErr = l.data.ListOutputs(ctx, sess, projectID)
	}()
	wg.Wait()

	if headerErr != nil {
		if errors.Is(headerErr, ErrProjectNotFound) {
			return Project{}, ErrProjectNotFound
		}
		return Project{}, classifyLoadError("project", headerErr)
	}
	for _, fetch := range []struct {
		name string
		err  error
	}{
		{"company artifacts", companyErr},
		{"role artifacts", roleErr},
		{"candidates", candErr},
		{"interviewers", intErr},
		{"outputs", outErr},
	} {
		if fetch.err != nil {
			return Project{}, classifyLoadError(fetch.name, fetch.err)
		}
	}

	artifacts := make([]Artifact, 0, len(companyArts)+len(roleArts))
	for _, a := range companyArts {
		a.Category = CategoryCompany
		a.DateAdded = DisplayDate(a.DateAdded)
		artifacts = append(artifacts, a)
	}
	for _, a := range roleArts {
		a.Category = CategoryRole
		a.DateAdded = DisplayDate(a.DateAdded)
		artifacts = append(artifacts, a)
	}
	for i := range outputs {
		outputs[i].DateCreated = DisplayDate(outputs[i].DateCreated)
	}

	if candidates == nil {
		candidates = []Candidate{}
	}
	if interviewers == nil {
		interviewers = []Interviewer{}
	}
	if outputs == nil {
		outputs = []Output{}
	}

	return Project{
		ID:            header.ID,
		Title:         header.Title,
		Client:        header.Client,
		Date:          DisplayDate(header.Date),
		Description:   header.Description,
		ArtifactCount: len(artifacts),
		Artifacts:     artifacts,
		Candidates:    candidates,
		Interviewers:  interviewers,
		Outputs:       outputs,
	}, nil
}

func classifyLoadError(fetch string, err error) error {
	if session.LooksDenied(err) {
		return fmt.Errorf("%w: %s: %v", ErrAccessDenied, fetch, err)
	}
	return fmt.Errorf("load %s: %w", fetch, err)
}
