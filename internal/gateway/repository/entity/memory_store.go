package entity

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu       sync.RWMutex
	projects map[string]ProjectRecord
	records  map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects: make(map[string]ProjectRecord),
		records:  make(map[string]Record),
	}
}

func (s *MemoryStore) CreateProject(_ context.Context, rec ProjectRecord) (ProjectRecord, error) {
	if s == nil {
		return ProjectRecord{}, fmt.Errorf("store is nil")
	}
	if strings.TrimSpace(rec.UserID) == "" {
		return ProjectRecord{}, fmt.Errorf("user_id is required")
	}
	if strings.TrimSpace(rec.ID) == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[rec.ID] = rec
	return rec, nil
}

func (s *MemoryStore) GetProject(_ context.Context, projectID string) (ProjectRecord, error) {
	if s == nil {
		return ProjectRecord{}, fmt.Errorf("store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.projects[strings.TrimSpace(projectID)]
	if !ok {
		return ProjectRecord{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) ListProjectsByUser(_ context.Context, userID string) ([]ProjectRecord, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	userID = strings.TrimSpace(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ProjectRecord, 0, 8)
	for _, rec := range s.projects {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) LatestProjectByUser(ctx context.Context, userID string) (ProjectRecord, error) {
	projects, err := s.ListProjectsByUser(ctx, userID)
	if err != nil {
		return ProjectRecord{}, err
	}
	if len(projects) == 0 {
		return ProjectRecord{}, ErrNotFound
	}
	return projects[0], nil
}

func (s *MemoryStore) List(_ context.Context, projectID string, kind Kind, category string) ([]Record, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, 16)
	for _, rec := range s.records {
		if rec.ProjectID != projectID || rec.Kind != kind {
			continue
		}
		if category != "" && rec.Category != category {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Create(_ context.Context, rec Record) (Record, error) {
	if s == nil {
		return Record{}, fmt.Errorf("store is nil")
	}
	if strings.TrimSpace(rec.ProjectID) == "" {
		return Record{}, fmt.Errorf("project_id is required")
	}
	if rec.Kind == "" {
		return Record{}, fmt.Errorf("kind is required")
	}
	if strings.TrimSpace(rec.ID) == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	return rec, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (Record, bool, error) {
	if s == nil {
		return Record{}, false, fmt.Errorf("store is nil")
	}
	id = strings.TrimSpace(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, false, nil
	}
	delete(s.records, id)
	return rec, true, nil
}
