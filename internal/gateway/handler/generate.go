package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mslanden/searchwizard/internal/gateway/events"
	"github.com/mslanden/searchwizard/internal/gateway/repository/blob"
	"github.com/mslanden/searchwizard/internal/gateway/repository/entity"
	"github.com/mslanden/searchwizard/internal/gendoc"
	"github.com/mslanden/searchwizard/internal/pipeline"
	"github.com/mslanden/searchwizard/internal/project"
)

func (h *Handler) HandleListTemplates(w http.ResponseWriter, r *http.Request) {
	type tpl struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	out := make([]tpl, 0, 4)
	for _, t := range h.gen.Templates() {
		out = append(out, tpl{ID: t.ID, Name: t.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGenerate is the generation endpoint: hydrated artifacts in, one
// HTML document out. Persistence is a separate call; a caller that loses
// the response loses the document.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.sessionFrom(r); !ok {
		http.Error(w, "permission denied: no session", http.StatusUnauthorized)
		return
	}
	var req pipeline.Request
	if err := readJSON(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.TemplateID) == "" {
		http.Error(w, "templateId is required", http.StatusBadRequest)
		return
	}
	resp, err := h.gen.Generate(r.Context(), req)
	if err != nil {
		// A permanent error means the request itself is bad (unknown
		// template, rejected prompt); retrying it cannot help.
		var pErr *gendoc.PermanentError
		if errors.As(err, &pErr) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleCreateOutput persists a generated document: body to blob storage,
// metadata to the outputs collection.
func (h *Handler) HandleCreateOutput(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFrom(r)
	if !ok {
		http.Error(w, "permission denied: no session", http.StatusUnauthorized)
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

	var in struct {
		Name        string `json:"name"`
		Type        string `json:"type"`
		Description string `json:"description"`
		Content     string `json:"content"`
	}
	if err := readJSON(r, &in); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if in.Content == "" {
		http.Error(w, "content is required", http.StatusBadRequest)
		return
	}

	id := uuid.NewString()
	path := "outputs/" + id + ".html"
	if err := h.blobs.Put(r.Context(), projectID, path, []byte(in.Content)); err != nil {
		http.Error(w, "save failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	url, _ := h.blobs.GetURL(r.Context(), projectID, path)

	out := project.Output{
		ID:          id,
		Name:        in.Name,
		Type:        in.Type,
		DateCreated: time.Now().Format(time.RFC3339),
		URL:         url,
		Description: in.Description,
	}
	data, err := json.Marshal(out)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if _, err := h.entities.Create(r.Context(), entity.Record{
		ID:        id,
		ProjectID: projectID,
		UserID:    sess.UserID,
		Kind:      entity.KindOutput,
		Data:      data,
	}); err != nil {
		http.Error(w, "save failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.hub.Publish(events.Event{
		Type:      events.TypeOutputCreated,
		ProjectID: projectID,
		Kind:      string(entity.KindOutput),
		EntityID:  id,
	})
	writeJSON(w, http.StatusCreated, out)
}

// HandleListBlobs serves GET /v1/projects/{id}/blobs: the stored content
// paths under one project (artifact files plus persisted outputs). Used to
// audit what blob storage holds against the entity collections.
func (h *Handler) HandleListBlobs(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.sessionFrom(r); !ok {
		http.Error(w, "permission denied: no session", http.StatusUnauthorized)
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
	paths, err := h.blobs.List(r.Context(), projectID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if paths == nil {
		paths = []string{}
	}
	writeJSON(w, http.StatusOK, paths)
}

// HandleDownloadContent resolves an artifact's stored text from its fully
// qualified path ("<projectID>/artifacts/..."). Used by the generation
// pipeline's hydration stage, not by normal listing.
func (h *Handler) HandleDownloadContent(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.sessionFrom(r); !ok {
		http.Error(w, "permission denied: no session", http.StatusUnauthorized)
		return
	}
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	projectID, rest, ok := strings.Cut(path, "/")
	if !ok || projectID == "" || rest == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}
	data, err := h.blobs.Get(r.Context(), projectID, rest)
	if errors.Is(err, blob.ErrNotFound) {
		http.Error(w, "blob not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(data)
}
