package entity

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreProjectLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first, err := s.CreateProject(ctx, ProjectRecord{UserID: "u1", Title: "First", CreatedAt: time.Now().Add(-time.Hour)})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := s.CreateProject(ctx, ProjectRecord{UserID: "u1", Title: "Second"})
	require.NoError(t, err)

	got, err := s.GetProject(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, "First", got.Title)

	_, err = s.GetProject(ctx, "ghost")
	require.ErrorIs(t, err, ErrNotFound)

	latest, err := s.LatestProjectByUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, second.ID, latest.ID)

	_, err = s.LatestProjectByUser(ctx, "nobody")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreCollections(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	mk := func(kind Kind, category, name string) Record {
		data, _ := json.Marshal(map[string]string{"name": name})
		rec, err := s.Create(ctx, Record{ProjectID: "p1", UserID: "u1", Kind: kind, Category: category, Data: data})
		require.NoError(t, err)
		return rec
	}

	mk(KindArtifact, "company", "About")
	mk(KindArtifact, "role", "JD")
	mk(KindCandidate, "", "Ada")

	company, err := s.List(ctx, "p1", KindArtifact, "company")
	require.NoError(t, err)
	require.Len(t, company, 1)

	all, err := s.List(ctx, "p1", KindArtifact, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	candidates, err := s.List(ctx, "p1", KindCandidate, "")
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	other, err := s.List(ctx, "p2", KindArtifact, "")
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestMemoryStoreDeleteIsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec, err := s.Create(ctx, Record{ProjectID: "p1", UserID: "u1", Kind: KindOutput, Data: []byte(`{}`)})
	require.NoError(t, err)

	removed, deleted, err := s.Delete(ctx, rec.ID)
	require.NoError(t, err)
	require.True(t, deleted)
	require.Equal(t, rec.ID, removed.ID)
	require.Equal(t, "p1", removed.ProjectID)

	_, deleted, err = s.Delete(ctx, rec.ID)
	require.NoError(t, err)
	require.False(t, deleted)
}

func TestMemoryStoreValidation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Create(ctx, Record{Kind: KindArtifact})
	require.Error(t, err)

	_, err = s.Create(ctx, Record{ProjectID: "p1"})
	require.Error(t, err)

	_, err = s.CreateProject(ctx, ProjectRecord{Title: "no user"})
	require.Error(t, err)
}
