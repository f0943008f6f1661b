package blob

import (
	"context"
	"errors"
)

// Store persists artifact file content keyed by project and path.
type Store interface {
	Put(ctx context.Context, projectID, path string, content []byte) error
	Get(ctx context.Context, projectID, path string) ([]byte, error)
	GetURL(ctx context.Context, projectID, path string) (string, error)
	List(ctx context.Context, projectID string) ([]string, error)
}

var ErrNotFound = errors.New("blob not found")
