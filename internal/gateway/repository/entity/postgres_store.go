package entity

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresStore struct {
	db         *sql.DB
	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) ensureSchema() error {
	if s == nil || s.db == nil {
		return fmt.Errorf("db is nil")
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    client TEXT NOT NULL DEFAULT '',
    date TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_projects_user_id ON projects(user_id);
CREATE TABLE IF NOT EXISTS project_entities (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    data JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_entities_project_kind ON project_entities(project_id, kind);
`)
	})
	return s.schemaErr
}

func (s *PostgresStore) CreateProject(ctx context.Context, rec ProjectRecord) (ProjectRecord, error) {
	if s == nil {
		return ProjectRecord{}, fmt.Errorf("store is nil")
	}
	if strings.TrimSpace(rec.UserID) == "" {
		return ProjectRecord{}, fmt.Errorf("user_id is required")
	}
	if err := s.ensureSchema(); err != nil {
		return ProjectRecord{}, err
	}
	if strings.TrimSpace(rec.ID) == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO projects (id, user_id, title, client, date, description, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id)
DO UPDATE SET title=EXCLUDED.title, client=EXCLUDED.client, date=EXCLUDED.date, description=EXCLUDED.description
`, rec.ID, rec.UserID, rec.Title, rec.Client, rec.Date, rec.Description, rec.CreatedAt)
	return rec, err
}

func (s *PostgresStore) GetProject(ctx context.Context, projectID string) (ProjectRecord, error) {
	if s == nil {
		return ProjectRecord{}, fmt.Errorf("store is nil")
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return ProjectRecord{}, fmt.Errorf("project_id is required")
	}
	if err := s.ensureSchema(); err != nil {
		return ProjectRecord{}, err
	}
	var rec ProjectRecord
	err := s.db.QueryRowContext(ctx, `
SELECT id, user_id, title, client, date, description, created_at
FROM projects WHERE id=$1
`, projectID).Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.Client, &rec.Date, &rec.Description, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return ProjectRecord{}, ErrNotFound
	}
	return rec, err
}

func (s *PostgresStore) ListProjectsByUser(ctx context.Context, userID string) ([]ProjectRecord, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, title, client, date, description, created_at
FROM projects WHERE user_id=$1 ORDER BY created_at DESC
`, strings.TrimSpace(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProjectRecord
	for rows.Next() {
		var rec ProjectRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.Client, &rec.Date, &rec.Description, &rec.CreatedAt); err != nil {
			continue
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) LatestProjectByUser(ctx context.Context, userID string) (ProjectRecord, error) {
	projects, err := s.ListProjectsByUser(ctx, userID)
	if err != nil {
		return ProjectRecord{}, err
	}
	if len(projects) == 0 {
		return ProjectRecord{}, ErrNotFound
	}
	return projects[0], nil
}

func (s *PostgresStore) List(ctx context.Context, projectID string, kind Kind, category string) ([]Record, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	query := `
SELECT id, project_id, user_id, kind, category, data, created_at
FROM project_entities WHERE project_id=$1 AND kind=$2`
	args := []any{projectID, string(kind)}
	if category != "" {
		query += ` AND category=$3`
		args = append(args, category)
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.ProjectID, &rec.UserID, &rec.Kind, &rec.Category, &rec.Data, &rec.CreatedAt); err != nil {
			continue
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Create(ctx context.Context, rec Record) (Record, error) {
	if s == nil {
		return Record{}, fmt.Errorf("store is nil")
	}
	if strings.TrimSpace(rec.ProjectID) == "" {
		return Record{}, fmt.Errorf("project_id is required")
	}
	if rec.Kind == "" {
		return Record{}, fmt.Errorf("kind is required")
	}
	if err := s.ensureSchema(); err != nil {
		return Record{}, err
	}
	if strings.TrimSpace(rec.ID) == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if rec.Data == nil {
		rec.Data = []byte(`{}`)
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO project_entities (id, project_id, user_id, kind, category, data, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, rec.ID, rec.ProjectID, rec.UserID, string(rec.Kind), rec.Category, []byte(rec.Data), rec.CreatedAt)
	return rec, err
}

func (s *PostgresStore) Delete(ctx context.Context, id string) (Record, bool, error) {
	if s == nil {
		return Record{}, false, fmt.Errorf("store is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Record{}, false, fmt.Errorf("id is required")
	}
	if err := s.ensureSchema(); err != nil {
		return Record{}, false, err
	}
	var rec Record
	err := s.db.QueryRowContext(ctx, `
DELETE FROM project_entities WHERE id=$1
RETURNING id, project_id, user_id, kind, category, data, created_at
`, id).Scan(&rec.ID, &rec.ProjectID, &rec.UserID, &rec.Kind, &rec.Category, &rec.Data, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
