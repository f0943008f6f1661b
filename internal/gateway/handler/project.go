package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mslanden/searchwizard/internal/gateway/events"
	"github.com/mslanden/searchwizard/internal/gateway/repository/entity"
	"github.com/mslanden/searchwizard/internal/project"
)

func (h *Handler) HandleCreateProject(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFrom(r)
	if !ok {
		http.Error(w, "permission denied: no session", http.StatusUnauthorized)
		return
	}
	var in struct {
		Title       string `json:"title"`
		Client      string `json:"client"`
		Date        string `json:"date"`
		Description string `json:"description"`
	}
	if err := readJSON(r, &in); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}
	rec, err := h.projects.CreateProject(r.Context(), entity.ProjectRecord{
		UserID:      sess.UserID,
		Title:       in.Title,
		Client:      in.Client,
		Date:        in.Date,
		Description: in.Description,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) HandleGetProject(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.sessionFrom(r); !ok {
		http.Error(w, "permission denied: no session", http.StatusUnauthorized)
		return
	}
	rec, err := h.projects.GetProject(r.Context(), r.PathValue("id"))
	if errors.Is(err, entity.ErrNotFound) {
		http.Error(w, "project not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) HandleLatestProject(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFrom(r)
	if !ok {
		http.Error(w, "permission denied: no session", http.StatusUnauthorized)
		return
	}
	rec, err := h.projects.LatestProjectByUser(r.Context(), sess.UserID)
	if errors.Is(err, entity.ErrNotFound) {
		http.Error(w, "no projects", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

var kindByPath = map[string]entity.Kind{
	"artifacts":    entity.KindArtifact,
	"candidates":   entity.KindCandidate,
	"interviewers": entity.KindInterviewer,
	"outputs":      entity.KindOutput,
}

// HandleListEntities serves GET /v1/projects/{id}/{kind}. Entity bodies are
// stored as JSON and returned as-is.
func (h *Handler) HandleListEntities(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.sessionFrom(r); !ok {
		http.Error(w, "permission denied: no session", http.StatusUnauthorized)
		return
	}
	kind, ok := kindByPath[r.PathValue("kind")]
	if !ok {
		http.Error(w, "unknown collection", http.StatusNotFound)
		return
	}
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if category != "" {
		if _, err := project.ParseCategory(category); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	records, err := h.entities.List(r.Context(), r.PathValue("id"), kind, category)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]json.RawMessage, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Data)
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleCreateEntity serves POST /v1/projects/{id}/{kind}. The body is the
// entity itself; an ID is assigned and written back into the stored JSON.
func (h *Handler) HandleCreateEntity(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFrom(r)
	if !ok {
		http.Error(w, "permission denied: no session", http.StatusUnauthorized)
		return
	}
	kind, ok := kindByPath[r.PathValue("kind")]
	if !ok {
		http.Error(w, "unknown collection", http.StatusNotFound)
		return
	}
	projectID := r.PathValue("id")
	if _, err := h.projects.GetProject(r.Context(), projectID); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			http.Error(w, "project not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var body map[string]any
	if err := readJSON(r, &body); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	rec, err := h.createEntityRecord(r, sess.UserID, projectID, kind, body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.hub.Publish(events.Event{
		Type:      events.TypeEntityCreated,
		ProjectID: projectID,
		Kind:      string(kind),
		EntityID:  rec.ID,
	})
	writeJSON(w, http.StatusCreated, json.RawMessage(rec.Data))
}

func (h *Handler) createEntityRecord(r *http.Request, userID, projectID string, kind entity.Kind, body map[string]any) (entity.Record, error) {
	category := ""
	if kind == entity.KindArtifact {
		cat, err := project.ParseCategory(asString(body["category"]))
		if err != nil {
			return entity.Record{}, err
		}
		category = string(cat)

		// File-backed artifacts carry their content inline on create; it
		// moves to blob storage and only the path stays on the record.
		if asString(body["inputType"]) == "file" {
			if err := h.storeArtifactFile(r, projectID, body); err != nil {
				return entity.Record{}, err
			}
		}
	}

	id := uuid.NewString()
	body["id"] = id
	data, err := json.Marshal(body)
	if err != nil {
		return entity.Record{}, err
	}
	return h.entities.Create(r.Context(), entity.Record{
		ID:        id,
		ProjectID: projectID,
		UserID:    userID,
		Kind:      kind,
		Category:  category,
		Data:      data,
	})
}

func (h *Handler) storeArtifactFile(r *http.Request, projectID string, body map[string]any) error {
	content := asString(body["content"])
	name := strings.TrimSpace(asString(body["name"]))
	if name == "" {
		name = "artifact"
	}
	path := "artifacts/" + name
	if err := h.blobs.Put(r.Context(), projectID, path, []byte(content)); err != nil {
		return err
	}
	delete(body, "content")
	// Stored fully qualified so the content resolver can work from the
	// path alone.
	body["filePath"] = projectID + "/" + path
	if url, err := h.blobs.GetURL(r.Context(), projectID, path); err == nil && url != "" {
		body["url"] = url
	}
	return nil
}

func (h *Handler) HandleDeleteEntity(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.sessionFrom(r); !ok {
		http.Error(w, "permission denied: no session", http.StatusUnauthorized)
		return
	}
	rec, deleted, err := h.entities.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if deleted {
		h.hub.Publish(events.Event{
			Type:      events.TypeEntityDeleted,
			ProjectID: rec.ProjectID,
			Kind:      string(rec.Kind),
			EntityID:  rec.ID,
		})
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
