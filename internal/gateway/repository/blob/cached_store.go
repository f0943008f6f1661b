package blob

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedStore fronts any Store with an LRU read cache for blob content.
// Generation hydration re-reads the same artifact files on every run, so
// the content cache carries most of that traffic. Writes go through and
// refresh the cache; lists and URLs always hit the origin (URLs are
// presigned and expire).
type CachedStore struct {
	origin Store
	blobs  *lru.Cache[string, []byte]
}

const defaultBlobCacheEntries = 1024

func NewCachedStore(origin Store, maxEntries int) (*CachedStore, error) {
	if maxEntries <= 0 {
		maxEntries = defaultBlobCacheEntries
	}
	cache, err := lru.New[string, []byte](maxEntries)
	if err != nil {
		return nil, err
	}
	return &CachedStore{origin: origin, blobs: cache}, nil
}

func (s *CachedStore) Put(ctx context.Context, projectID, path string, content []byte) error {
	if err := s.origin.Put(ctx, projectID, path, content); err != nil {
		return err
	}
	s.blobs.Add(objectKey(projectID, path), append([]byte(nil), content...))
	return nil
}

func (s *CachedStore) Get(ctx context.Context, projectID, path string) ([]byte, error) {
	key := objectKey(projectID, path)
	if cached, ok := s.blobs.Get(key); ok {
		return append([]byte(nil), cached...), nil
	}
	data, err := s.origin.Get(ctx, projectID, path)
	if err != nil {
		return nil, err
	}
	s.blobs.Add(key, append([]byte(nil), data...))
	return data, nil
}

func (s *CachedStore) List(ctx context.Context, projectID string) ([]string, error) {
	return s.origin.List(ctx, projectID)
}

func (s *CachedStore) GetURL(ctx context.Context, projectID, path string) (string, error) {
	return s.origin.GetURL(ctx, projectID, path)
}
