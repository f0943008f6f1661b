// Package entity persists project headers and the per-project entity
// collections. One record shape serves all four collection kinds; the
// entity body travels as JSON and is decoded at the handler edge.
package entity

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

type Kind string

const (
	KindArtifact    Kind = "artifact"
	KindCandidate   Kind = "candidate"
	KindInterviewer Kind = "interviewer"
	KindOutput      Kind = "output"
)

var ErrNotFound = errors.New("entity not found")

// ProjectRecord is a project header row.
type ProjectRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Client      string    `json:"client,omitempty"`
	Date        string    `json:"date,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Record is one collection entity. Category is set only for artifacts.
type Record struct {
	ID        string          `json:"id"`
	ProjectID string          `json:"projectId"`
	UserID    string          `json:"userId"`
	Kind      Kind            `json:"kind"`
	Category  string          `json:"category,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	Data      json.RawMessage `json:"data"`
}

// Projects is the header surface.
type Projects interface {
	CreateProject(ctx context.Context, rec ProjectRecord) (ProjectRecord, error)
	GetProject(ctx context.Context, projectID string) (ProjectRecord, error)
	ListProjectsByUser(ctx context.Context, userID string) ([]ProjectRecord, error)
	// LatestProjectByUser returns the most recently created project, or
	// ErrNotFound when the user owns none.
	LatestProjectByUser(ctx context.Context, userID string) (ProjectRecord, error)
}

// Store is the collection surface shared by all four kinds.
type Store interface {
	List(ctx context.Context, projectID string, kind Kind, category string) ([]Record, error)
	Create(ctx context.Context, rec Record) (Record, error)
	// Delete reports whether a row was removed; deleting a missing ID is
	// not an error. The removed record comes back so callers can announce
	// the change.
	Delete(ctx context.Context, id string) (Record, bool, error)
}
